// Package cli implements inventoryctl, the administration command line.
package cli

import (
	"fmt"

	"go-inventory-pos/internal/app"
	"go-inventory-pos/internal/config"
	"go-inventory-pos/internal/obs"

	"github.com/spf13/cobra"
)

// RootOptions holds global flags and the core factory shared by all commands.
type RootOptions struct {
	Format  string
	Verbose bool

	// Open builds the core. Tests replace it with an in-memory database.
	Open func() (*app.Core, error)
}

var ValidFormats = []string{"text", "json"}

func NewRootCommand() *cobra.Command {
	return NewRootCommandWith(&RootOptions{Open: openFromEnv})
}

// NewRootCommandWith builds the command tree around opts.
func NewRootCommandWith(opts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "inventoryctl",
		Short: "Administer store inventory and POS sessions",
		Long:  "inventoryctl migrates the schema, seeds the catalog and performs stock and session operations outside the HTTP API.",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !isValidFormat(opts.Format) {
				return WrapExitError(ExitCommandError,
					fmt.Sprintf("invalid format %q: must be one of %v", opts.Format, ValidFormats), nil)
			}
			level := "warn"
			if opts.Verbose {
				level = "debug"
			}
			obs.Logger = obs.New(cmd.ErrOrStderr(), level)
			return nil
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")

	cmd.AddCommand(NewMigrateCommand(opts))
	cmd.AddCommand(NewSeedCommand(opts))
	cmd.AddCommand(NewStockCommand(opts))
	cmd.AddCommand(NewSessionCommand(opts))
	cmd.AddCommand(NewRevisionsCommand(opts))
	return cmd
}

func isValidFormat(format string) bool {
	for _, f := range ValidFormats {
		if f == format {
			return true
		}
	}
	return false
}

func openFromEnv() (*app.Core, error) {
	return app.Connect(app.Options{Config: config.Load(), Logger: obs.Logger})
}

func (o *RootOptions) output(cmd *cobra.Command) *OutputFormatter {
	return &OutputFormatter{Format: o.Format, Writer: cmd.OutOrStdout()}
}

// withCore opens the core for the duration of fn.
func (o *RootOptions) withCore(fn func(core *app.Core) error) error {
	core, err := o.Open()
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to open database", err)
	}
	defer core.Close()
	return fn(core)
}
