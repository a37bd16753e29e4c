package event

import "fmt"

// Event is one pending transition, notification or request.
//
// Only the payload fields that belong to Kind are meaningful:
//
//	WindowCreated, WindowDestroyed, WindowResized, RedrawNeeded  -> Window
//	InputQueueCreated, InputQueueDestroyed                        -> InputQueue
//	ConfigChanged                                                 -> Config
//	ContentRectChanged, InsetsChanged                             -> Rect
//	InputBatch                                                    -> Input
//	SaveState                                                     -> SaveState
//	GainedFocus, LostFocus                                        -> (none)
//	Resume                                                        -> SavedState (may be nil)
//	Terminate                                                     -> Reason
type Event struct {
	ID   ID
	Kind Kind

	// Synchronous is set by the host when the producer is blocked waiting
	// for Acknowledge(ID).
	Synchronous bool

	Window     WindowHandle
	InputQueue InputQueueHandle
	Config     Configuration
	Rect       Rect
	Input      []InputEvent
	SaveState  *SaveStateRequest
	SavedState []byte
	Reason     string
}

func (e Event) String() string {
	var payload string
	switch e.Kind {
	case KindWindowCreated, KindWindowDestroyed, KindWindowResized, KindRedrawNeeded:
		payload = e.Window.String()
	case KindInputQueueCreated, KindInputQueueDestroyed:
		payload = e.InputQueue.String()
	case KindConfigChanged:
		payload = e.Config.String()
	case KindContentRectChanged, KindInsetsChanged:
		payload = fmt.Sprintf("rect(%d,%d,%d,%d)", e.Rect.Left, e.Rect.Top, e.Rect.Right, e.Rect.Bottom)
	case KindInputBatch:
		payload = fmt.Sprintf("%d events", len(e.Input))
	case KindTerminate:
		payload = e.Reason
	}
	sync := ""
	if e.Synchronous {
		sync = " sync"
	}
	if payload == "" {
		return fmt.Sprintf("#%d %s%s", e.ID, e.Kind, sync)
	}
	return fmt.Sprintf("#%d %s%s %s", e.ID, e.Kind, sync, payload)
}

// Lifecycle builds the lifecycle event for kind. kind must satisfy
// Kind.IsLifecycle.
func Lifecycle(kind Kind) Event {
	return Event{Kind: kind}
}

// Start builds a Start event.
func Start() Event { return Event{Kind: KindStart} }

// Resume builds a Resume event carrying any state restored by the platform.
func Resume(savedState []byte) Event {
	return Event{Kind: KindResume, SavedState: savedState}
}

// Pause builds a Pause event.
func Pause() Event { return Event{Kind: KindPause} }

// Stop builds a Stop event.
func Stop() Event { return Event{Kind: KindStop} }

// Destroy builds a Destroy event.
func Destroy() Event { return Event{Kind: KindDestroy} }

// WindowCreated builds a WindowCreated event.
func WindowCreated(w WindowHandle) Event {
	return Event{Kind: KindWindowCreated, Window: w}
}

// WindowDestroyed builds a WindowDestroyed event.
func WindowDestroyed(w WindowHandle) Event {
	return Event{Kind: KindWindowDestroyed, Window: w}
}

// WindowResized builds a WindowResized event.
func WindowResized(w WindowHandle) Event {
	return Event{Kind: KindWindowResized, Window: w}
}

// RedrawNeeded builds a RedrawNeeded event.
func RedrawNeeded(w WindowHandle) Event {
	return Event{Kind: KindRedrawNeeded, Window: w}
}

// ContentRectChanged builds a ContentRectChanged event.
func ContentRectChanged(r Rect) Event {
	return Event{Kind: KindContentRectChanged, Rect: r}
}

// InsetsChanged builds an InsetsChanged event.
func InsetsChanged(r Rect) Event {
	return Event{Kind: KindInsetsChanged, Rect: r}
}

// FocusChanged builds a GainedFocus or LostFocus event.
func FocusChanged(focused bool) Event {
	if focused {
		return Event{Kind: KindGainedFocus}
	}
	return Event{Kind: KindLostFocus}
}

// ConfigChanged builds a ConfigChanged event.
func ConfigChanged(c Configuration) Event {
	return Event{Kind: KindConfigChanged, Config: c}
}

// LowMemory builds a LowMemory event.
func LowMemory() Event { return Event{Kind: KindLowMemory} }

// InputQueueCreated builds an InputQueueCreated event.
func InputQueueCreated(q InputQueueHandle) Event {
	return Event{Kind: KindInputQueueCreated, InputQueue: q}
}

// InputQueueDestroyed builds an InputQueueDestroyed event.
func InputQueueDestroyed(q InputQueueHandle) Event {
	return Event{Kind: KindInputQueueDestroyed, InputQueue: q}
}

// InputBatch builds an InputBatch event. The slice is copied.
func InputBatch(events ...InputEvent) Event {
	batch := make([]InputEvent, len(events))
	copy(batch, events)
	return Event{Kind: KindInputBatch, Input: batch}
}

// SaveState builds a SaveState event around req.
func SaveState(req *SaveStateRequest) Event {
	return Event{Kind: KindSaveState, SaveState: req}
}

// Wake builds a Wake event.
func Wake() Event { return Event{Kind: KindWake} }

// Terminate builds a Terminate event.
func Terminate(reason string) Event {
	return Event{Kind: KindTerminate, Reason: reason}
}
