package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/roach88/apphost/internal/config"
	"github.com/roach88/apphost/internal/harness"
	applog "github.com/roach88/apphost/internal/log"
	"github.com/roach88/apphost/internal/store"
)

// SimulateOptions holds flags for the simulate command.
type SimulateOptions struct {
	*RootOptions
	ConfigPath string // host config replacing the defaults
	Database   string // trace database to record into
	Snapshot   bool   // print the canonical trace snapshot instead of a summary
}

// SimulateResult is the JSON payload of the simulate command.
type SimulateResult struct {
	Scenario string          `json:"scenario"`
	Result   *harness.Result `json:"result"`
}

// NewSimulateCommand creates the simulate command.
func NewSimulateCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &SimulateOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "simulate <scenario.yaml>",
		Short: "Run a scenario against a host",
		Long: `Run a scenario file against a freshly created host.

The scenario's callbacks are issued on a simulated UI thread while a
simulated native thread polls, acknowledges and finishes as the scenario
describes. The resulting trace is checked against the expectations.

Exit codes:
  0 - Scenario passed
  1 - One or more expectations failed
  2 - Command error (unreadable scenario, bad config, etc.)

Examples:
  apphost simulate scenarios/basic_lifecycle.yaml
  apphost simulate scenarios/ack_timeout.yaml --config host.cue
  apphost simulate scenarios/basic_lifecycle.yaml --db trace.db
  apphost simulate scenarios/basic_lifecycle.yaml --snapshot`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSimulate(cmd.Context(), opts, args[0], cmd.OutOrStdout(), cmd.ErrOrStderr())
		},
	}

	cmd.Flags().StringVar(&opts.ConfigPath, "config", "", "host config file (CUE)")
	cmd.Flags().StringVar(&opts.Database, "db", "", "record the trace into this SQLite database")
	cmd.Flags().BoolVar(&opts.Snapshot, "snapshot", false, "print the canonical trace snapshot")

	return cmd
}

func runSimulate(ctx context.Context, opts *SimulateOptions, path string, out, errOut io.Writer) error {
	if ctx == nil {
		ctx = context.Background()
	}
	formatter := newFormatter(opts.RootOptions, out, errOut)

	scenario, err := harness.LoadScenario(path)
	if err != nil {
		_ = formatter.Error(ErrCodeScenario, err.Error(), nil)
		return WrapExitError(ExitCommandError, "failed to load scenario", err)
	}

	var runOpts harness.Options
	if opts.ConfigPath != "" {
		cfg, err := config.LoadFile(opts.ConfigPath)
		if err != nil {
			_ = formatter.Error(ErrCodeConfig, err.Error(), nil)
			return WrapExitError(ExitCommandError, "invalid host config", err)
		}
		formatter.VerboseLog("Loaded host config from %s", opts.ConfigPath)
		if !opts.Verbose {
			applog.Configure(applog.Config{Level: cfg.LogLevel, Output: errOut})
		}
		runOpts.Config = &cfg
	}

	if opts.Database != "" {
		st, err := store.Open(opts.Database)
		if err != nil {
			_ = formatter.Error(ErrCodeDatabase, err.Error(), nil)
			return WrapExitError(ExitCommandError, "failed to open database", err)
		}
		defer st.Close()
		runOpts.Store = st
		formatter.VerboseLog("Recording trace into %s", opts.Database)
	}

	result, err := harness.RunWithOptions(ctx, scenario, runOpts)
	if err != nil {
		_ = formatter.Error(ErrCodeScenario, err.Error(), nil)
		return WrapExitError(ExitCommandError, "scenario execution failed", err)
	}

	if opts.Snapshot {
		snapshot, err := harness.Snapshot(scenario.Name, result)
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to render snapshot", err)
		}
		if _, err := out.Write(snapshot); err != nil {
			return err
		}
	} else if formatter.JSON() {
		payload := SimulateResult{Scenario: scenario.Name, Result: result}
		if result.Pass {
			if err := formatter.Success(payload); err != nil {
				return err
			}
		} else if err := formatter.Failure(ErrCodeFailed, "scenario expectations failed", payload); err != nil {
			return err
		}
	} else {
		printSimulateText(out, scenario.Name, result)
	}

	if !result.Pass {
		return NewExitError(ExitFailure, fmt.Sprintf("scenario %s failed", scenario.Name))
	}
	return nil
}

func printSimulateText(w io.Writer, name string, result *harness.Result) {
	mark := "✓"
	if !result.Pass {
		mark = "✗"
	}
	fmt.Fprintf(w, "%s %s (host %s)\n", mark, name, result.HostID)

	for _, ev := range result.Trace {
		printTraceLine(w, ev.Delivered, ev.ID, ev.Kind, ev.Ack)
	}

	fmt.Fprintf(w, "State: %s, phase: %s\n", result.FinalState, result.Phase)
	if len(result.Reported) > 0 {
		fmt.Fprintf(w, "Reported: %v\n", result.Reported)
	}
	for _, e := range result.Errors {
		fmt.Fprintf(w, "  %s\n", e)
	}
}

// printTraceLine writes one event of a timeline. Events the consumer
// never received are marked with a dash.
func printTraceLine(w io.Writer, delivered, id int64, kind, ack string) {
	pos := "  -"
	if delivered > 0 {
		pos = fmt.Sprintf("%3d", delivered)
	}
	if ack != "" {
		fmt.Fprintf(w, "  %s  #%d %s [%s]\n", pos, id, kind, ack)
		return
	}
	fmt.Fprintf(w, "  %s  #%d %s\n", pos, id, kind)
}
