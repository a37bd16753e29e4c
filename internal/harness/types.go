package harness

import "github.com/roach88/apphost/internal/store"

// TraceEvent is one event of a run's trace.
type TraceEvent struct {
	// Delivered is the event's position in the native side's view, or 0
	// if it never got there.
	Delivered int64  `json:"delivered,omitempty"`
	ID        int64  `json:"id"`
	Kind      string `json:"kind"`
	Sync      bool   `json:"sync,omitempty"`
	Ack       string `json:"ack,omitempty"`
	// Payload is the event's canonical JSON.
	Payload string `json:"payload"`
}

// Result is the outcome of a scenario run.
type Result struct {
	// Pass indicates overall success: every expectation matched.
	Pass bool `json:"pass"`

	HostID string `json:"host_id"`

	// Trace contains every event the host handled, delivered ones first
	// in delivery order.
	Trace []TraceEvent `json:"trace"`

	FinalState string `json:"final_state"`
	Phase      string `json:"phase"`
	SavedState string `json:"saved_state,omitempty"`

	// Reported holds the codes of errors reported during the run, in
	// order: through the host's error handler or returned by a callback.
	Reported []string `json:"reported,omitempty"`

	Redraws          int `json:"redraws"`
	PlatformFinishes int `json:"platform_finishes"`

	// MotionAxes are the axes the platform enabled, sorted by name.
	MotionAxes []string `json:"motion_axes,omitempty"`

	// Errors contains expectation failures. Empty if Pass is true.
	Errors []string `json:"errors,omitempty"`
}

// NewResult creates a new passing result.
func NewResult() *Result {
	return &Result{
		Pass:   true,
		Trace:  []TraceEvent{},
		Errors: []string{},
	}
}

// AddError adds an expectation failure and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}

// AddTrace appends a stored trace record.
func (r *Result) AddTrace(rec store.Record) {
	r.Trace = append(r.Trace, TraceEvent{
		Delivered: rec.DeliveredSeq,
		ID:        rec.EventID,
		Kind:      rec.Kind,
		Sync:      rec.Synchronous,
		Ack:       rec.Ack,
		Payload:   rec.Payload,
	})
}

// DeliveredKinds returns the kinds of delivered events in delivery order.
func (r *Result) DeliveredKinds() []string {
	kinds := []string{}
	for _, ev := range r.Trace {
		if ev.Delivered > 0 {
			kinds = append(kinds, ev.Kind)
		}
	}
	return kinds
}
