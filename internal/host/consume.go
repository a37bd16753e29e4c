package host

import (
	"time"

	"github.com/roach88/apphost/internal/event"
	applog "github.com/roach88/apphost/internal/log"
	"github.com/roach88/apphost/internal/metrics"
)

// Poll returns the pending events in the order they were posted.
//
// timeout == 0 never blocks; timeout < 0 blocks until an event arrives, the
// host is woken or it starts finishing. While finishing Poll never blocks,
// and the first empty drain terminates the host. After that Poll always
// returns nil.
//
// The first call moves the host from PhaseIdle to PhaseRunning. Poll must
// only be called from the native thread.
func (h *Host) Poll(timeout time.Duration) []event.Event {
	var phase Phase
	h.cell.Locked(func() {
		if h.phase == PhaseIdle {
			h.phase = PhaseRunning
		}
		phase = h.phase
	})

	switch phase {
	case PhaseTerminated:
		return nil
	case PhaseFinishing:
		timeout = 0
	}

	evs := h.cell.Poll(timeout)
	if len(evs) == 0 {
		h.terminateIfDrained()
		return nil
	}

	for _, ev := range evs {
		metrics.AddDelivered(ev.Kind.String(), 1)
	}
	metrics.SetQueueDepth(h.cell.Len())
	h.observer.EventsDelivered(h.id, evs)
	h.logger.Debug().Int(applog.FieldCount, len(evs)).Msg("events delivered")
	return evs
}

// terminateIfDrained moves a finishing host with an empty queue to
// PhaseTerminated and closes the cell, releasing any waiting producer.
func (h *Host) terminateIfDrained() {
	closed := h.cell.CloseIfDrained(func() bool {
		if h.phase != PhaseFinishing {
			return false
		}
		h.phase = PhaseTerminated
		return true
	})
	if closed {
		h.logger.Info().Str(applog.FieldPhase, PhaseTerminated.String()).Msg("host terminated")
	}
}

// Acknowledge tells the producer of a synchronous event that the
// application has finished handling it. Unknown and repeated IDs are
// ignored.
func (h *Host) Acknowledge(id event.ID) {
	if h.cell.Acknowledge(id) {
		h.observer.EventSettled(h.id, id, OutcomeAcked)
	}
}

// PollEvents polls like Poll and calls fn for each event in order,
// acknowledging synchronous events after fn returns. It returns the number
// of events handled.
func (h *Host) PollEvents(timeout time.Duration, fn func(event.Event)) int {
	evs := h.Poll(timeout)
	for _, ev := range evs {
		fn(ev)
		if ev.Synchronous {
			h.Acknowledge(ev.ID)
		}
	}
	return len(evs)
}

// Finish asks the platform to finish the activity and moves the host to
// PhaseFinishing. It is safe from any goroutine and any state; calls after
// Destroyed or termination are ignored, and the platform is asked at most
// once.
func (h *Host) Finish() {
	var ignored, first bool
	h.cell.Locked(func() {
		if h.phase == PhaseTerminated || h.machine.Current() == event.Destroyed {
			ignored = true
			return
		}
		first = !h.finishSent
		h.finishSent = true
		h.enterFinishingLocked("finish")
	})
	if ignored {
		h.logger.Debug().Msg("finish ignored after destroy")
		return
	}

	// A consumer blocked in Poll must notice the phase change.
	h.cell.Interrupt()
	if first && h.platform != nil {
		h.platform.Finish()
	}
}

// RequestRedraw asks the platform to redraw the window. Ignored after
// Destroyed or termination.
func (h *Host) RequestRedraw() {
	if !h.platformReachable() {
		return
	}
	h.platform.RequestRedraw()
}

// EnableMotionAxis asks the platform to read axis for motion events.
// Ignored after Destroyed or termination.
func (h *Host) EnableMotionAxis(axis event.Axis) {
	if !h.platformReachable() {
		return
	}
	h.logger.Debug().Stringer(applog.FieldAxis, axis).Msg("motion axis enabled")
	h.platform.EnableMotionAxis(axis)
}

// DisableMotionAxis asks the platform to stop reading axis. Ignored after
// Destroyed or termination.
func (h *Host) DisableMotionAxis(axis event.Axis) {
	if !h.platformReachable() {
		return
	}
	h.logger.Debug().Stringer(applog.FieldAxis, axis).Msg("motion axis disabled")
	h.platform.DisableMotionAxis(axis)
}

// platformReachable reports whether outbound platform requests are still
// honoured.
func (h *Host) platformReachable() bool {
	if h.platform == nil {
		return false
	}
	var ignored bool
	h.cell.Locked(func() {
		ignored = h.phase == PhaseTerminated || h.machine.Current() == event.Destroyed
	})
	return !ignored
}
