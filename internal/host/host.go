package host

import (
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/roach88/apphost/internal/bridge"
	"github.com/roach88/apphost/internal/config"
	"github.com/roach88/apphost/internal/event"
	"github.com/roach88/apphost/internal/lifecycle"
	applog "github.com/roach88/apphost/internal/log"
	"github.com/roach88/apphost/internal/metrics"
)

// ErrTerminated is returned by producer calls after the host terminated.
var ErrTerminated = errors.New("host terminated")

// Phase is the host-level state, orthogonal to the activity lifecycle.
type Phase int

const (
	PhaseIdle Phase = iota
	PhaseRunning
	PhaseFinishing
	PhaseTerminated
)

func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "Idle"
	case PhaseRunning:
		return "Running"
	case PhaseFinishing:
		return "Finishing"
	case PhaseTerminated:
		return "Terminated"
	default:
		return fmt.Sprintf("Phase(%d)", int(p))
	}
}

// Platform receives application-initiated requests. Implementations must
// not block: a platform adapter dispatches them to the UI thread.
type Platform interface {
	RequestRedraw()
	Finish()

	// EnableMotionAxis and DisableMotionAxis select which axis values the
	// platform reads for motion events. Backends that always read every
	// axis treat them as no-ops.
	EnableMotionAxis(axis event.Axis)
	DisableMotionAxis(axis event.Axis)
}

// Context is what the platform hands over when the activity starts.
type Context struct {
	// Activity is the platform's activity handle. The host never
	// dereferences it.
	Activity any

	InternalDataPath string
	ExternalDataPath string
	OBBPath          string

	// SavedState is the state the application stored on a previous
	// instance, or nil.
	SavedState []byte

	InitialConfig event.Configuration

	Platform Platform
}

// Host is one application host per activity instance.
type Host struct {
	id       string
	activity any
	paths    [3]string // internal, external, obb
	platform Platform

	policy     Policy
	ackTimeout time.Duration
	softLimit  int
	onError    func(error)
	observer   Observer
	seq        bridge.Sequencer
	idGen      IDGenerator
	logger     zerolog.Logger
	loggerSet  bool

	cell    *bridge.Cell
	machine *lifecycle.Machine

	// Guarded by the cell lock.
	phase       Phase
	finishSent  bool
	window      event.WindowHandle
	inputQueue  event.InputQueueHandle
	config      event.Configuration
	contentRect event.Rect
	focused     bool
	savedState  []byte

	// Accessor values from before the synchronous event in flight.
	beforeSync accessors
}

// accessors is the state a synchronous event can change at post time.
type accessors struct {
	window     event.WindowHandle
	inputQueue event.InputQueueHandle
	config     event.Configuration
}

// New creates a host for one activity instance.
func New(ctx Context, opts ...Option) *Host {
	defaults := config.Default()
	h := &Host{
		activity:   ctx.Activity,
		paths:      [3]string{ctx.InternalDataPath, ctx.ExternalDataPath, ctx.OBBPath},
		platform:   ctx.Platform,
		policy:     Policy{ConfigChanges: defaults.ConfigChanges},
		ackTimeout: defaults.AckTimeout,
		softLimit:  defaults.QueueSoftLimit,
		observer:   nopObserver{},
		idGen:      UUIDv7Generator{},
		machine:    lifecycle.NewMachine(),
		config:     ctx.InitialConfig,
	}
	if len(ctx.SavedState) > 0 {
		h.savedState = append([]byte(nil), ctx.SavedState...)
	}
	for _, opt := range opts {
		opt(h)
	}

	h.id = h.idGen.Generate()
	if !h.loggerSet {
		h.logger = applog.WithComponent("host")
	}
	h.logger = h.logger.With().Str(applog.FieldHostID, h.id).Logger()
	if h.onError == nil {
		h.onError = func(err error) {
			h.logger.Error().Err(err).Msg("host error")
		}
	}
	if h.seq == nil {
		h.seq = bridge.NewClock()
	}
	if cfg, err := h.config.Normalized(); err == nil {
		h.config = cfg
	}
	h.cell = bridge.NewCell(bridge.NewQueue(h.softLimit), h.seq)
	h.cell.OnWithdraw(h.withdrawnLocked)
	return h
}

// ID returns the host instance ID.
func (h *Host) ID() string { return h.id }

// Activity returns the platform activity handle passed to New.
func (h *Host) Activity() any { return h.activity }

// InternalDataPath returns the app-private internal storage directory.
func (h *Host) InternalDataPath() string { return h.paths[0] }

// ExternalDataPath returns the app-private external storage directory.
func (h *Host) ExternalDataPath() string { return h.paths[1] }

// OBBPath returns the expansion file directory.
func (h *Host) OBBPath() string { return h.paths[2] }

// Policy returns the synchronous-kind policy in effect.
func (h *Host) Policy() Policy { return h.policy }

// CurrentState returns the lifecycle state last applied.
func (h *Host) CurrentState() event.LifecycleState {
	return h.machine.Current()
}

// WaitForState blocks until the lifecycle reaches state or timeout elapses.
func (h *Host) WaitForState(state event.LifecycleState, timeout time.Duration) bool {
	return h.machine.WaitFor(state, timeout)
}

// Phase returns the host phase.
func (h *Host) Phase() Phase {
	var p Phase
	h.cell.Locked(func() { p = h.phase })
	return p
}

// CurrentConfig returns the latest configuration snapshot.
func (h *Host) CurrentConfig() event.Configuration {
	var c event.Configuration
	h.cell.Locked(func() { c = h.config })
	return c
}

// CurrentWindow returns the current window and whether one exists. The
// handle must not be used after the matching WindowDestroyed has been
// acknowledged.
func (h *Host) CurrentWindow() (event.WindowHandle, bool) {
	var w event.WindowHandle
	h.cell.Locked(func() { w = h.window })
	return w, w.Valid()
}

// CurrentInputQueue returns the current input queue and whether one exists.
func (h *Host) CurrentInputQueue() (event.InputQueueHandle, bool) {
	var q event.InputQueueHandle
	h.cell.Locked(func() { q = h.inputQueue })
	return q, q.Valid()
}

// ContentRect returns the last content rectangle reported by the platform.
func (h *Host) ContentRect() event.Rect {
	var r event.Rect
	h.cell.Locked(func() { r = h.contentRect })
	return r
}

// HasFocus reports whether the window has input focus.
func (h *Host) HasFocus() bool {
	var f bool
	h.cell.Locked(func() { f = h.focused })
	return f
}

// SavedState returns a copy of the most recent saved state: the one
// restored at creation, or the latest one returned by RequestSaveState.
func (h *Host) SavedState() []byte {
	var s []byte
	h.cell.Locked(func() {
		if h.savedState != nil {
			s = append([]byte(nil), h.savedState...)
		}
	})
	return s
}

// applyLocked is the bridge.ApplyFunc for every producer post. It gates
// lifecycle transitions through the state machine and updates the
// accessor state at post time, so accessors reflect the latest event
// produced rather than the latest one polled.
func (h *Host) applyLocked(ev *event.Event) (bool, error) {
	if h.phase == PhaseTerminated {
		return false, ErrTerminated
	}

	if ev.Synchronous {
		h.beforeSync = accessors{window: h.window, inputQueue: h.inputQueue, config: h.config}
	}

	switch ev.Kind {
	case event.KindStart, event.KindResume, event.KindPause, event.KindStop, event.KindDestroy:
		target, _ := lifecycle.TargetState(ev.Kind)
		from := h.machine.Current()
		changed, err := h.machine.Apply(target)
		if err != nil {
			metrics.IncInvalidTransition(from.String(), target.String())
			h.logger.Warn().
				Str(applog.FieldOldState, from.String()).
				Str(applog.FieldNewState, target.String()).
				Msg("invalid lifecycle transition ignored")
			return false, err
		}
		if !changed {
			h.logger.Debug().Str(applog.FieldKind, ev.Kind.String()).Msg("duplicate lifecycle event ignored")
			return false, nil
		}
		if target == event.Destroyed {
			h.enterFinishingLocked("destroyed")
		}
	case event.KindWindowCreated:
		h.window = ev.Window
	case event.KindWindowResized, event.KindRedrawNeeded:
		// A late resize must not revive a destroyed window.
		if h.window.Valid() {
			h.window = ev.Window
		}
	case event.KindWindowDestroyed:
		h.window = event.WindowHandle{}
	case event.KindInputQueueCreated:
		h.inputQueue = ev.InputQueue
	case event.KindInputQueueDestroyed:
		h.inputQueue = event.InputQueueHandle{}
	case event.KindConfigChanged:
		if cfg, err := ev.Config.Normalized(); err == nil {
			ev.Config = cfg
		} else {
			h.logger.Warn().Err(err).Msg("configuration locale not canonicalised")
		}
		h.config = ev.Config
	case event.KindContentRectChanged:
		h.contentRect = ev.Rect
	case event.KindGainedFocus:
		h.focused = true
	case event.KindLostFocus:
		h.focused = false
	case event.KindTerminate:
		h.enterFinishingLocked(ev.Reason)
	}
	return true, nil
}

// withdrawnLocked undoes the accessor changes of a synchronous event the
// consumer never saw.
func (h *Host) withdrawnLocked(ev event.Event) {
	h.window = h.beforeSync.window
	h.inputQueue = h.beforeSync.inputQueue
	h.config = h.beforeSync.config
	h.logger.Debug().
		Str(applog.FieldKind, ev.Kind.String()).
		Int64(applog.FieldEventID, int64(ev.ID)).
		Msg("withdrawn event rolled back")
}

func (h *Host) enterFinishingLocked(reason string) {
	if h.phase == PhaseFinishing || h.phase == PhaseTerminated {
		return
	}
	h.logger.Info().
		Str(applog.FieldPhase, PhaseFinishing.String()).
		Str(applog.FieldReason, reason).
		Msg("host finishing")
	h.phase = PhaseFinishing
}
