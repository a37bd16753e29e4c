package cli

import (
	"fmt"
	"slices"

	"github.com/spf13/cobra"

	applog "github.com/roach88/apphost/internal/log"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Verbose bool
	Format  string // "json" | "text"
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// NewRootCommand creates the root command for the apphost CLI.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "apphost",
		Short: "apphost - activity lifecycle and event bridge",
		Long: `Simulate and inspect the application host that bridges platform
activity callbacks onto a native application thread.

Scenarios script the platform's callbacks and the application's
responses; every run is recorded as a trace that can be inspected later.`,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !isValidFormat(opts.Format) {
				return fmt.Errorf("invalid format %q: must be one of %v", opts.Format, ValidFormats)
			}
			// APPHOST_LOG_LEVEL or a host config's log_level replace the
			// warn default; --verbose overrides both.
			logCfg := applog.Config{Fallback: "warn", Output: cmd.ErrOrStderr()}
			if opts.Verbose {
				logCfg.Level = "debug"
			}
			applog.Configure(logCfg)
			return nil
		},
	}

	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")

	cmd.AddCommand(NewSimulateCommand(opts))
	cmd.AddCommand(NewTraceCommand(opts))
	cmd.AddCommand(NewValidateCommand(opts))

	return cmd
}

// isValidFormat checks if the format is one of the allowed values.
func isValidFormat(format string) bool {
	return slices.Contains(ValidFormats, format)
}
