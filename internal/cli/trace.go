package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/roach88/apphost/internal/host"
	"github.com/roach88/apphost/internal/store"
)

// TraceOptions holds flags for the trace command.
type TraceOptions struct {
	*RootOptions
	Database string
	HostID   string // optional - show a single host
}

// TraceEvent is one event of a recorded timeline.
type TraceEvent struct {
	Delivered int64           `json:"delivered,omitempty"`
	ID        int64           `json:"id"`
	Kind      string          `json:"kind"`
	Sync      bool            `json:"sync,omitempty"`
	Ack       string          `json:"ack,omitempty"`
	Payload   json.RawMessage `json:"payload"`
}

// HostTrace is the timeline of one recorded host.
type HostTrace struct {
	HostID   string       `json:"host_id"`
	Backend  string       `json:"backend"`
	Timeline []TraceEvent `json:"timeline"`
	Stats    TraceStats   `json:"stats"`
}

// TraceStats summarises a host timeline.
type TraceStats struct {
	Total       int `json:"total"`
	Delivered   int `json:"delivered"`
	Synchronous int `json:"synchronous"`
	Dropped     int `json:"dropped"`
}

// NewTraceCommand creates the trace command.
func NewTraceCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &TraceOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "trace",
		Short: "Show recorded host timelines",
		Long: `Show the event timelines recorded in a trace database.

Each timeline lists the events a host handled in the order the native
side received them, followed by events that never reached it (dropped,
superseded or still queued when the host terminated).

Examples:
  apphost trace --db trace.db
  apphost trace --db trace.db --host scenario-basic
  apphost trace --db trace.db --format json`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTrace(cmd.Context(), opts, cmd.OutOrStdout(), cmd.ErrOrStderr())
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite trace database (required)")
	_ = cmd.MarkFlagRequired("db")
	cmd.Flags().StringVar(&opts.HostID, "host", "", "only show this host")

	return cmd
}

func runTrace(ctx context.Context, opts *TraceOptions, out, errOut io.Writer) error {
	if ctx == nil {
		ctx = context.Background()
	}
	formatter := newFormatter(opts.RootOptions, out, errOut)

	// Open would create a fresh database; a missing file is an error here.
	if _, err := os.Stat(opts.Database); err != nil {
		_ = formatter.Error(ErrCodeDatabase, fmt.Sprintf("database not found: %s", opts.Database), nil)
		return WrapExitError(ExitCommandError, "database not found", err)
	}

	st, err := store.Open(opts.Database)
	if err != nil {
		_ = formatter.Error(ErrCodeDatabase, err.Error(), nil)
		return WrapExitError(ExitCommandError, "failed to open database", err)
	}
	defer st.Close()

	hosts, err := st.ListHosts(ctx)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to list hosts", err)
	}

	traces := []HostTrace{}
	for _, h := range hosts {
		if opts.HostID != "" && h.ID != opts.HostID {
			continue
		}
		records, err := st.ReadTrace(ctx, h.ID)
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to read trace", err)
		}
		traces = append(traces, buildHostTrace(h, records))
	}

	if opts.HostID != "" && len(traces) == 0 {
		msg := fmt.Sprintf("host not found: %s", opts.HostID)
		_ = formatter.Error(ErrCodeNotFound, msg, nil)
		return NewExitError(ExitCommandError, msg)
	}

	if formatter.JSON() {
		return formatter.Success(traces)
	}

	if len(traces) == 0 {
		fmt.Fprintln(out, "No hosts recorded.")
		return nil
	}
	for i, t := range traces {
		if i > 0 {
			fmt.Fprintln(out)
		}
		printHostTrace(out, t)
	}
	return nil
}

func buildHostTrace(h store.HostInfo, records []store.Record) HostTrace {
	t := HostTrace{
		HostID:   h.ID,
		Backend:  h.Backend,
		Timeline: make([]TraceEvent, 0, len(records)),
	}
	for _, rec := range records {
		t.Timeline = append(t.Timeline, TraceEvent{
			Delivered: rec.DeliveredSeq,
			ID:        rec.EventID,
			Kind:      rec.Kind,
			Sync:      rec.Synchronous,
			Ack:       rec.Ack,
			Payload:   json.RawMessage(rec.Payload),
		})

		t.Stats.Total++
		if rec.Delivered() {
			t.Stats.Delivered++
		}
		if rec.Synchronous {
			t.Stats.Synchronous++
		}
		switch host.Outcome(rec.Ack) {
		case host.OutcomeDropped, host.OutcomeSuperseded:
			t.Stats.Dropped++
		}
	}
	return t
}

func printHostTrace(w io.Writer, t HostTrace) {
	fmt.Fprintf(w, "Host: %s (%s)\n", t.HostID, t.Backend)
	for _, ev := range t.Timeline {
		printTraceLine(w, ev.Delivered, ev.ID, ev.Kind, ev.Ack)
	}
	fmt.Fprintf(w, "Events: %d total, %d delivered, %d synchronous, %d dropped\n",
		t.Stats.Total, t.Stats.Delivered, t.Stats.Synchronous, t.Stats.Dropped)
}
