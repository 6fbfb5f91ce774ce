package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"go-inventory-pos/internal/service"
)

// Exit codes returned by inventoryctl.
const (
	ExitSuccess      = 0
	ExitFailure      = 1 // the operation was rejected (not found, insufficient stock, ...)
	ExitCommandError = 2 // bad arguments, unreadable files, database unavailable
)

// ExitError carries the process exit code for a failed command.
type ExitError struct {
	Code    int
	Message string
	Err     error

	reported bool
}

func (e *ExitError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *ExitError) Unwrap() error {
	return e.Err
}

func WrapExitError(code int, message string, err error) *ExitError {
	return &ExitError{Code: code, Message: message, Err: err}
}

// Reported is true when the failure was already written to the command output.
func (e *ExitError) Reported() bool {
	return e.reported
}

// GetExitCode returns ExitFailure for errors that are not an ExitError.
func GetExitCode(err error) int {
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}
	return ExitFailure
}

// OutputFormatter writes command results as text or as a JSON envelope.
type OutputFormatter struct {
	Format string
	Writer io.Writer
}

type response struct {
	Status string      `json:"status"`
	Data   interface{} `json:"data,omitempty"`
	Error  *cliError   `json:"error,omitempty"`
}

type cliError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Success prints data. In text mode text is printed instead, unless empty.
func (f *OutputFormatter) Success(data interface{}, text string) error {
	if f.Format == "json" {
		return json.NewEncoder(f.Writer).Encode(response{Status: "ok", Data: data})
	}
	if text == "" {
		text = fmt.Sprint(data)
	}
	_, err := fmt.Fprintln(f.Writer, text)
	return err
}

func (f *OutputFormatter) Error(code, message string) error {
	if f.Format == "json" {
		return json.NewEncoder(f.Writer).Encode(response{Status: "error", Error: &cliError{Code: code, Message: message}})
	}
	_, err := fmt.Fprintf(f.Writer, "Error [%s]: %s\n", code, message)
	return err
}

// fail reports a service failure through f and returns it as an ExitFailure.
func (f *OutputFormatter) fail(err error) error {
	code := service.Code(err)
	if werr := f.Error(code, err.Error()); werr != nil {
		return werr
	}
	return &ExitError{Code: ExitFailure, Message: code, Err: err, reported: true}
}
