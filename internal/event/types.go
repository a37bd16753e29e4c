package event

import "fmt"

// ID identifies a posted event. Assigned from a logical clock at post time.
type ID int64

// LifecycleState is the activity lifecycle state as reported by the platform.
type LifecycleState int

const (
	Created LifecycleState = iota
	Started
	Resumed
	Paused
	Stopped
	Destroyed
)

func (s LifecycleState) String() string {
	switch s {
	case Created:
		return "Created"
	case Started:
		return "Started"
	case Resumed:
		return "Resumed"
	case Paused:
		return "Paused"
	case Stopped:
		return "Stopped"
	case Destroyed:
		return "Destroyed"
	default:
		return fmt.Sprintf("LifecycleState(%d)", int(s))
	}
}

// ParseLifecycleState parses the String form of a LifecycleState.
func ParseLifecycleState(s string) (LifecycleState, error) {
	for st := Created; st <= Destroyed; st++ {
		if st.String() == s {
			return st, nil
		}
	}
	return Created, fmt.Errorf("unknown lifecycle state %q", s)
}

// Kind tags the payload carried by an Event.
type Kind int

const (
	KindUnknown Kind = iota

	// Lifecycle transitions.
	KindStart
	KindResume
	KindPause
	KindStop
	KindDestroy

	// Window surface.
	KindWindowCreated
	KindWindowDestroyed
	KindWindowResized
	KindRedrawNeeded
	KindContentRectChanged
	KindInsetsChanged
	KindGainedFocus
	KindLostFocus

	// Environment.
	KindConfigChanged
	KindLowMemory

	// Input.
	KindInputQueueCreated
	KindInputQueueDestroyed
	KindInputBatch

	// Request/response.
	KindSaveState

	// Host generated.
	KindWake
	KindTerminate
)

var kindNames = map[Kind]string{
	KindUnknown:             "Unknown",
	KindStart:               "Start",
	KindResume:              "Resume",
	KindPause:               "Pause",
	KindStop:                "Stop",
	KindDestroy:             "Destroy",
	KindWindowCreated:       "WindowCreated",
	KindWindowDestroyed:     "WindowDestroyed",
	KindWindowResized:       "WindowResized",
	KindRedrawNeeded:        "RedrawNeeded",
	KindContentRectChanged:  "ContentRectChanged",
	KindInsetsChanged:       "InsetsChanged",
	KindGainedFocus:         "GainedFocus",
	KindLostFocus:           "LostFocus",
	KindConfigChanged:       "ConfigChanged",
	KindLowMemory:           "LowMemory",
	KindInputQueueCreated:   "InputQueueCreated",
	KindInputQueueDestroyed: "InputQueueDestroyed",
	KindInputBatch:          "InputBatch",
	KindSaveState:           "SaveState",
	KindWake:                "Wake",
	KindTerminate:           "Terminate",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// ParseKind parses the String form of a Kind.
func ParseKind(s string) (Kind, error) {
	for k, name := range kindNames {
		if name == s && k != KindUnknown {
			return k, nil
		}
	}
	return KindUnknown, fmt.Errorf("unknown event kind %q", s)
}

// IsLifecycle reports whether k is a lifecycle transition.
func (k Kind) IsLifecycle() bool {
	return k >= KindStart && k <= KindDestroy
}

// Critical reports whether events of kind k must never be dropped or
// coalesced by the queue.
func (k Kind) Critical() bool {
	switch k {
	case KindInputBatch, KindWake, KindConfigChanged:
		return false
	default:
		return true
	}
}

// Rect is a rectangle in window pixels.
type Rect struct {
	Left   int32
	Top    int32
	Right  int32
	Bottom int32
}

// Width returns Right - Left.
func (r Rect) Width() int32 { return r.Right - r.Left }

// Height returns Bottom - Top.
func (r Rect) Height() int32 { return r.Bottom - r.Top }

// WindowHandle is an opaque, non-owning reference to a native window.
type WindowHandle struct {
	ptr   uintptr
	label string
}

// NewWindowHandle wraps a platform window pointer. label is only used for
// logs and traces.
func NewWindowHandle(ptr uintptr, label string) WindowHandle {
	return WindowHandle{ptr: ptr, label: label}
}

// Ptr returns the wrapped platform pointer.
func (w WindowHandle) Ptr() uintptr { return w.ptr }

// Label returns the diagnostic label.
func (w WindowHandle) Label() string { return w.label }

// Valid reports whether the handle refers to a window.
func (w WindowHandle) Valid() bool { return w.ptr != 0 }

func (w WindowHandle) String() string {
	if !w.Valid() {
		return "window(none)"
	}
	if w.label != "" {
		return "window(" + w.label + ")"
	}
	return fmt.Sprintf("window(%#x)", w.ptr)
}

// InputQueueHandle is an opaque, non-owning reference to a platform input queue.
type InputQueueHandle struct {
	ptr   uintptr
	label string
}

// NewInputQueueHandle wraps a platform input queue pointer.
func NewInputQueueHandle(ptr uintptr, label string) InputQueueHandle {
	return InputQueueHandle{ptr: ptr, label: label}
}

// Ptr returns the wrapped platform pointer.
func (q InputQueueHandle) Ptr() uintptr { return q.ptr }

// Label returns the diagnostic label.
func (q InputQueueHandle) Label() string { return q.label }

// Valid reports whether the handle refers to a queue.
func (q InputQueueHandle) Valid() bool { return q.ptr != 0 }

func (q InputQueueHandle) String() string {
	if !q.Valid() {
		return "input_queue(none)"
	}
	if q.label != "" {
		return "input_queue(" + q.label + ")"
	}
	return fmt.Sprintf("input_queue(%#x)", q.ptr)
}
