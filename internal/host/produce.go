package host

import (
	"errors"
	"fmt"
	"time"

	"github.com/roach88/apphost/internal/bridge"
	"github.com/roach88/apphost/internal/event"
	applog "github.com/roach88/apphost/internal/log"
	"github.com/roach88/apphost/internal/metrics"
)

// ErrWrongCategory is returned when a Produce* method receives an event of
// a kind it does not carry.
var ErrWrongCategory = errors.New("event kind not accepted by this producer call")

// Post hands ev to the consumer. Synchronous kinds (see Policy) block until
// acknowledged or the acknowledgment timeout elapses; everything else
// returns once queued.
//
// Post returns the event ID, or 0 when the event was not enqueued: a
// duplicate lifecycle event, a Wake merged into a queued one, an input
// batch shed over the soft limit, or an error.
// Post must only be called from the platform thread.
func (h *Host) Post(ev event.Event) (event.ID, error) {
	if h.policy.Synchronous(ev.Kind) {
		return h.postAndWait(ev)
	}

	posted, err := h.cell.Post(ev, h.applyLocked)
	if err != nil {
		return 0, h.postError(err)
	}
	h.afterPost(posted)
	if !posted.Enqueued {
		return 0, nil
	}
	return posted.Event.ID, nil
}

func (h *Host) postAndWait(ev event.Event) (event.ID, error) {
	start := time.Now()
	posted, err := h.cell.PostAndWait(ev, h.ackTimeout, h.applyLocked)
	waited := time.Since(start)

	if posted.Enqueued {
		metrics.ObserveAckWait(ev.Kind.String(), waited)
		h.afterPost(posted)
	}

	switch {
	case err == nil:
		if !posted.Enqueued {
			return 0, nil
		}
		return posted.Event.ID, nil
	case bridge.IsAckTimeout(err):
		h.ackTimedOut(posted, err, waited)
		return posted.Event.ID, err
	case bridge.IsClosed(err):
		if posted.Enqueued {
			h.observer.EventSettled(h.id, posted.Event.ID, OutcomeClosed)
		}
		return posted.Event.ID, h.postError(err)
	default:
		return 0, h.postError(err)
	}
}

// postError maps bridge closure onto ErrTerminated.
func (h *Host) postError(err error) error {
	if bridge.IsClosed(err) {
		return fmt.Errorf("%w: %w", ErrTerminated, err)
	}
	return err
}

// afterPost records metrics and notifies the observer. It runs outside
// the cell lock.
func (h *Host) afterPost(posted bridge.Posted) {
	kind := posted.Event.Kind.String()

	if posted.Push.Coalesced {
		metrics.IncCoalesced(kind)
	}
	for _, old := range posted.Push.Replaced {
		metrics.IncCoalesced(old.Kind.String())
		h.observer.EventSettled(h.id, old.ID, OutcomeSuperseded)
	}
	for _, dropped := range posted.Push.Dropped {
		if dropped.ID == posted.Event.ID {
			// Shed by its own push: still traced, never counted as posted.
			h.observer.EventPosted(h.id, dropped)
		}
		metrics.IncDropped(dropped.Kind.String(), "soft_limit")
		h.observer.EventSettled(h.id, dropped.ID, OutcomeDropped)
		h.logger.Warn().
			Int64(applog.FieldEventID, int64(dropped.ID)).
			Str(applog.FieldKind, dropped.Kind.String()).
			Msg("event dropped over queue soft limit")
		h.onError(bridge.NewQueueOverflowError(dropped, h.softLimit))
	}

	if !posted.Enqueued {
		return
	}
	metrics.IncPosted(kind)
	metrics.SetQueueDepth(h.cell.Len())
	h.observer.EventPosted(h.id, posted.Event)
	h.logger.Debug().
		Int64(applog.FieldEventID, int64(posted.Event.ID)).
		Str(applog.FieldKind, kind).
		Bool(applog.FieldSynchronous, posted.Event.Synchronous).
		Msg("event posted")
}

// ackTimedOut reports the timeout and queues Terminate("ack_timeout"),
// which moves the host to PhaseFinishing.
func (h *Host) ackTimedOut(posted bridge.Posted, err error, waited time.Duration) {
	kind := posted.Event.Kind.String()
	metrics.IncAckTimeout(kind)
	h.logger.Error().
		Err(err).
		Int64(applog.FieldEventID, int64(posted.Event.ID)).
		Str(applog.FieldKind, kind).
		Dur(applog.FieldTimeout, h.ackTimeout).
		Dur(applog.FieldWaited, waited).
		Msg("synchronous event not acknowledged, terminating")
	if posted.Event.ID != 0 {
		h.observer.EventSettled(h.id, posted.Event.ID, OutcomeTimeout)
	}
	h.onError(err)

	term, terr := h.cell.Post(event.Terminate("ack_timeout"), h.applyLocked)
	if terr != nil {
		h.logger.Warn().Err(terr).Msg("terminate event not queued")
		return
	}
	h.afterPost(term)
}

// ProduceLifecycleEvent posts an activity-level event: a lifecycle
// transition, a window or surface change, focus, insets, content rect or
// low memory.
func (h *Host) ProduceLifecycleEvent(ev event.Event) error {
	switch ev.Kind {
	case event.KindStart, event.KindResume, event.KindPause, event.KindStop, event.KindDestroy,
		event.KindWindowCreated, event.KindWindowDestroyed, event.KindWindowResized,
		event.KindRedrawNeeded, event.KindContentRectChanged, event.KindInsetsChanged,
		event.KindGainedFocus, event.KindLostFocus, event.KindLowMemory:
	default:
		return fmt.Errorf("%w: %s", ErrWrongCategory, ev.Kind)
	}
	_, err := h.Post(ev)
	return err
}

// ProduceInputEvent posts an input queue change or an input batch.
func (h *Host) ProduceInputEvent(ev event.Event) error {
	switch ev.Kind {
	case event.KindInputQueueCreated, event.KindInputQueueDestroyed, event.KindInputBatch:
	default:
		return fmt.Errorf("%w: %s", ErrWrongCategory, ev.Kind)
	}
	_, err := h.Post(ev)
	return err
}

// ProduceConfigEvent posts a configuration change.
func (h *Host) ProduceConfigEvent(ev event.Event) error {
	if ev.Kind != event.KindConfigChanged {
		return fmt.Errorf("%w: %s", ErrWrongCategory, ev.Kind)
	}
	_, err := h.Post(ev)
	return err
}

// RequestSaveState asks the application for its state and returns the
// bytes it stored while handling the SaveState event. It blocks like any
// synchronous post. nil with a nil error means the application stored
// nothing.
func (h *Host) RequestSaveState() ([]byte, error) {
	req := event.NewSaveStateRequest()
	if _, err := h.Post(event.SaveState(req)); err != nil {
		return nil, err
	}
	state, ok := req.Bytes()
	if !ok {
		return nil, nil
	}
	h.cell.Locked(func() {
		h.savedState = append([]byte(nil), state...)
	})
	return state, nil
}

// Waker wakes the host's consumer from any goroutine.
type Waker struct {
	h *Host
}

// Waker returns a Waker for h.
func (h *Host) Waker() Waker {
	return Waker{h: h}
}

// Wake enqueues a Wake event so a blocked Poll returns. Wakes posted before
// the consumer polls are merged into one.
func (w Waker) Wake() {
	posted, err := w.h.cell.Wake()
	if err != nil {
		return
	}
	w.h.afterPost(posted)
}
