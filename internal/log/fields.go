package log

// Canonical field name constants for structured logging.
const (
	// Identity fields
	FieldHostID    = "host_id"
	FieldEventID   = "event_id"
	FieldComponent = "component"
	FieldBackend   = "backend"

	// Event fields
	FieldKind        = "kind"
	FieldSynchronous = "sync"
	FieldReason      = "reason"
	FieldCount       = "count"
	FieldQueueDepth  = "queue_depth"
	FieldTimeout     = "timeout"
	FieldWaited      = "waited"
	FieldAxis        = "axis"

	// State fields
	FieldOldState = "old_state"
	FieldNewState = "new_state"
	FieldPhase    = "phase"

	// Path fields
	FieldPath     = "path"
	FieldScenario = "scenario"
)
