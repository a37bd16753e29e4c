package adapter

import (
	"sync"

	"github.com/roach88/apphost/internal/event"
)

// Dispatcher implements the host's outbound Platform interface by
// scheduling each request on the UI thread. The native thread never runs
// platform code directly.
type Dispatcher struct {
	mu       sync.RWMutex
	dispatch func(callback func())
	redraw   func()
	finish   func()

	// motionAxis is nil for backends that read every axis.
	motionAxis func(axis event.Axis, enabled bool)
}

// NewDispatcher returns a Dispatcher that hands callbacks to dispatch,
// which must schedule them on the UI thread and return without waiting.
// redraw and finish are the platform actions; either may be nil.
func NewDispatcher(dispatch func(callback func()), redraw, finish func()) *Dispatcher {
	return &Dispatcher{dispatch: dispatch, redraw: redraw, finish: finish}
}

// SetDispatch replaces the dispatch function, e.g. once the UI loop is up.
func (d *Dispatcher) SetDispatch(fn func(callback func())) {
	d.mu.Lock()
	d.dispatch = fn
	d.mu.Unlock()
}

// SetMotionAxisHandler installs the action behind EnableMotionAxis and
// DisableMotionAxis. Without one both are no-ops.
func (d *Dispatcher) SetMotionAxisHandler(fn func(axis event.Axis, enabled bool)) {
	d.mu.Lock()
	d.motionAxis = fn
	d.mu.Unlock()
}

// RequestRedraw schedules the redraw action.
func (d *Dispatcher) RequestRedraw() { d.schedule(d.redraw) }

// Finish schedules the finish action.
func (d *Dispatcher) Finish() { d.schedule(d.finish) }

// EnableMotionAxis schedules enabling axis.
func (d *Dispatcher) EnableMotionAxis(axis event.Axis) { d.scheduleAxis(axis, true) }

// DisableMotionAxis schedules disabling axis.
func (d *Dispatcher) DisableMotionAxis(axis event.Axis) { d.scheduleAxis(axis, false) }

func (d *Dispatcher) scheduleAxis(axis event.Axis, enabled bool) {
	d.mu.RLock()
	fn := d.motionAxis
	d.mu.RUnlock()
	if fn == nil {
		return
	}
	d.schedule(func() { fn(axis, enabled) })
}

// schedule reports whether callback was handed to the dispatch function.
// It returns false if no dispatch function is registered or callback is nil.
func (d *Dispatcher) schedule(callback func()) bool {
	d.mu.RLock()
	fn := d.dispatch
	d.mu.RUnlock()
	if fn == nil || callback == nil {
		return false
	}
	fn(callback)
	return true
}
