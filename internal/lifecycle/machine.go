// Package lifecycle tracks the activity lifecycle state and rejects
// transitions the platform should never produce.
package lifecycle

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/roach88/apphost/internal/event"
)

// ErrInvalidTransition is matched by every *TransitionError.
var ErrInvalidTransition = errors.New("invalid lifecycle transition")

// TransitionError reports a rejected transition.
type TransitionError struct {
	From event.LifecycleState
	To   event.LifecycleState
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("invalid lifecycle transition: %s -> %s", e.From, e.To)
}

// Is makes errors.Is(err, ErrInvalidTransition) succeed.
func (e *TransitionError) Is(target error) bool {
	return target == ErrInvalidTransition
}

// edges lists the allowed transitions. Self edges on non-terminal states are
// handled separately as no-ops.
var edges = map[event.LifecycleState][]event.LifecycleState{
	event.Created: {event.Started},
	event.Started: {event.Resumed},
	event.Resumed: {event.Paused},
	event.Paused:  {event.Stopped, event.Resumed},
	event.Stopped: {event.Destroyed, event.Started},
}

// Allowed reports whether from -> to is a valid edge. Self edges are not
// edges.
func Allowed(from, to event.LifecycleState) bool {
	for _, next := range edges[from] {
		if next == to {
			return true
		}
	}
	return false
}

// Machine holds the current lifecycle state.
//
// Thread-safety: all methods are safe for concurrent use. Apply is called
// by the host with the bridge lock held; Machine never calls out while
// holding its own lock.
type Machine struct {
	mu      sync.Mutex
	state   event.LifecycleState
	changed chan struct{}
}

// NewMachine returns a machine in the Created state.
func NewMachine() *Machine {
	return &Machine{state: event.Created, changed: make(chan struct{})}
}

// Current returns the state last applied. It never blocks on other
// goroutines beyond the machine lock.
func (m *Machine) Current() event.LifecycleState {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// Check validates target against the current state without applying it.
// It returns changed=false for an idempotent self edge.
func (m *Machine) Check(target event.LifecycleState) (changed bool, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return check(m.state, target)
}

func check(from, to event.LifecycleState) (bool, error) {
	if from == to && from != event.Destroyed {
		return false, nil
	}
	if !Allowed(from, to) {
		return false, &TransitionError{From: from, To: to}
	}
	return true, nil
}

// Apply moves the machine to target. A repeat of the current non-terminal
// state returns changed=false and nil. Any other transition that is not an
// edge returns a *TransitionError and leaves the state unchanged.
func (m *Machine) Apply(target event.LifecycleState) (changed bool, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	changed, err = check(m.state, target)
	if err != nil || !changed {
		return changed, err
	}
	m.state = target
	close(m.changed)
	m.changed = make(chan struct{})
	return true, nil
}

// WaitFor blocks until the machine is in state or the timeout elapses.
// timeout <= 0 checks once without waiting. It reports whether the state
// was reached.
func (m *Machine) WaitFor(state event.LifecycleState, timeout time.Duration) bool {
	var expired <-chan time.Time
	if timeout > 0 {
		timer := time.NewTimer(timeout)
		defer timer.Stop()
		expired = timer.C
	}

	for {
		m.mu.Lock()
		cur, changed := m.state, m.changed
		m.mu.Unlock()

		if cur == state {
			return true
		}
		if expired == nil || cur == event.Destroyed {
			return false
		}
		select {
		case <-changed:
		case <-expired:
			return m.Current() == state
		}
	}
}

// TargetState maps a lifecycle event kind to the state it moves to.
func TargetState(kind event.Kind) (event.LifecycleState, bool) {
	switch kind {
	case event.KindStart:
		return event.Started, true
	case event.KindResume:
		return event.Resumed, true
	case event.KindPause:
		return event.Paused, true
	case event.KindStop:
		return event.Stopped, true
	case event.KindDestroy:
		return event.Destroyed, true
	default:
		return event.Created, false
	}
}

// KindForState is the inverse of TargetState. Created has no event.
func KindForState(state event.LifecycleState) (event.Kind, bool) {
	switch state {
	case event.Started:
		return event.KindStart, true
	case event.Resumed:
		return event.KindResume, true
	case event.Paused:
		return event.KindPause, true
	case event.Stopped:
		return event.KindStop, true
	case event.Destroyed:
		return event.KindDestroy, true
	default:
		return event.KindUnknown, false
	}
}
