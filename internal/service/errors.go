package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/mattn/go-sqlite3"
	"gorm.io/gorm"
)

// Failure kinds. Every error returned by a service wraps exactly one of them.
var (
	ErrNotFound          = errors.New("not found")
	ErrInsufficientStock = errors.New("insufficient stock")
	ErrConflict          = errors.New("conflict")
	ErrSessionClosed     = errors.New("session closed")
	ErrAlreadyClosed     = errors.New("session already closed")
	ErrIntegrity         = errors.New("integrity violation")
	ErrInvalidInput      = errors.New("invalid input")
	ErrTransient         = errors.New("transient failure")
)

// Error carries the operation and the entity a failure refers to.
type Error struct {
	Kind   error
	Op     string
	Entity string
	ID     string
	Err    error
}

func (e *Error) Error() string {
	var b strings.Builder
	b.WriteString(e.Op)
	if e.Entity != "" {
		b.WriteString(": ")
		b.WriteString(e.Entity)
		if e.ID != "" {
			b.WriteString(" ")
			b.WriteString(e.ID)
		}
	}
	if e.Kind != nil {
		b.WriteString(": ")
		b.WriteString(e.Kind.Error())
	}
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

func (e *Error) Unwrap() []error {
	errs := make([]error, 0, 2)
	if e.Kind != nil {
		errs = append(errs, e.Kind)
	}
	if e.Err != nil {
		errs = append(errs, e.Err)
	}
	return errs
}

func newErr(kind error, op, entity string, id fmt.Stringer, cause error) *Error {
	e := &Error{Kind: kind, Op: op, Entity: entity, Err: cause}
	if id != nil {
		e.ID = id.String()
	}
	return e
}

func invalid(op, format string, args ...interface{}) *Error {
	return &Error{Kind: ErrInvalidInput, Op: op, Err: fmt.Errorf(format, args...)}
}

// storeErr classifies a persistence error. Service errors pass through untouched.
func storeErr(op, entity string, id fmt.Stringer, err error) error {
	if err == nil {
		return nil
	}
	var se *Error
	if errors.As(err, &se) {
		return err
	}
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return newErr(ErrNotFound, op, entity, id, nil)
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return newErr(ErrConflict, op, entity, id, err)
	case errors.Is(err, gorm.ErrForeignKeyViolated), errors.Is(err, gorm.ErrCheckConstraintViolated):
		return newErr(ErrIntegrity, op, entity, id, err)
	case isTransient(err):
		return newErr(ErrTransient, op, entity, id, err)
	}
	return newErr(nil, op, entity, id, err)
}

// isTransient reports driver failures that succeed when the whole transaction is retried.
func isTransient(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "40001", "40P01", "55P03", "57014":
			return true
		}
	}
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) {
		return sqliteErr.Code == sqlite3.ErrBusy || sqliteErr.Code == sqlite3.ErrLocked
	}
	return false
}

func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsConflict covers every failure the HTTP layer reports as 409.
func IsConflict(err error) bool {
	return errors.Is(err, ErrConflict) ||
		errors.Is(err, ErrIntegrity) ||
		errors.Is(err, ErrSessionClosed) ||
		errors.Is(err, ErrAlreadyClosed)
}

// IsRetryable returns true if the caller may retry the same request.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrTransient) || isTransient(err)
}

var (
	errQuantityNotZero = errors.New("quantity must be zero before removal")
	errStockExists     = errors.New("stock row already exists")
)

// Code returns the stable name of err's failure kind, or INTERNAL.
func Code(err error) string {
	switch {
	case errors.Is(err, ErrInvalidInput):
		return "INVALID_INPUT"
	case errors.Is(err, ErrNotFound):
		return "NOT_FOUND"
	case errors.Is(err, ErrInsufficientStock):
		return "INSUFFICIENT_STOCK"
	case errors.Is(err, ErrSessionClosed):
		return "SESSION_CLOSED"
	case errors.Is(err, ErrAlreadyClosed):
		return "ALREADY_CLOSED"
	case errors.Is(err, ErrIntegrity):
		return "INTEGRITY"
	case errors.Is(err, ErrConflict):
		return "CONFLICT"
	case IsRetryable(err):
		return "TRANSIENT"
	}
	return "INTERNAL"
}
