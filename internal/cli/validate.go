package cli

import (
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/roach88/apphost/internal/config"
)

// ValidationResult holds validation results.
type ValidationResult struct {
	Valid  bool         `json:"valid"`
	Config *ConfigView  `json:"config,omitempty"`
	Error  *ConfigIssue `json:"error,omitempty"`
}

// ConfigView is the resolved config, defaults included.
type ConfigView struct {
	AckTimeout     string `json:"ack_timeout"`
	QueueSoftLimit int    `json:"queue_soft_limit"`
	ConfigChanges  string `json:"config_changes"`
	Backend        string `json:"backend"`
	LogLevel       string `json:"log_level"`
}

// ConfigIssue locates a config error.
type ConfigIssue struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	File    string `json:"file,omitempty"`
	Line    int    `json:"line,omitempty"`
	Column  int    `json:"column,omitempty"`
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate <config.cue>",
		Short: "Validate a host config",
		Long: `Validate a CUE host config against the built-in schema.

Unknown fields, out-of-range values and malformed durations are
reported with their position. On success the resolved config is
printed with defaults filled in.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(rootOpts, args[0], cmd.OutOrStdout(), cmd.ErrOrStderr())
		},
	}

	return cmd
}

func runValidate(opts *RootOptions, path string, out, errOut io.Writer) error {
	formatter := newFormatter(opts, out, errOut)

	cfg, err := config.LoadFile(path)
	if err != nil {
		issue := configIssue(err)
		if formatter.JSON() {
			_ = formatter.Failure(ErrCodeConfig, "config is invalid", ValidationResult{Error: issue})
		} else {
			fmt.Fprintf(out, "✗ %s\n  %s\n", path, err)
		}
		if issue.Code == config.ErrCodeRead {
			return WrapExitError(ExitCommandError, "failed to read config", err)
		}
		return WrapExitError(ExitFailure, "config is invalid", err)
	}

	view := &ConfigView{
		AckTimeout:     cfg.AckTimeout.String(),
		QueueSoftLimit: cfg.QueueSoftLimit,
		ConfigChanges:  string(cfg.ConfigChanges),
		Backend:        string(cfg.Backend),
		LogLevel:       cfg.LogLevel,
	}
	if formatter.JSON() {
		return formatter.Success(ValidationResult{Valid: true, Config: view})
	}

	fmt.Fprintf(out, "✓ %s\n", path)
	formatter.VerboseLog("ack_timeout=%s queue_soft_limit=%d config_changes=%s backend=%s log_level=%s",
		view.AckTimeout, view.QueueSoftLimit, view.ConfigChanges, view.Backend, view.LogLevel)
	return nil
}

func configIssue(err error) *ConfigIssue {
	var cfgErr *config.Error
	if !errors.As(err, &cfgErr) {
		return &ConfigIssue{Code: ErrCodeConfig, Message: err.Error()}
	}
	issue := &ConfigIssue{Code: cfgErr.Code, Message: cfgErr.Message}
	if cfgErr.Pos.IsValid() {
		issue.File = cfgErr.Pos.Filename()
		issue.Line = cfgErr.Pos.Line()
		issue.Column = cfgErr.Pos.Column()
	}
	return issue
}
