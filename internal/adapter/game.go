package adapter

import (
	"github.com/roach88/apphost/internal/config"
	"github.com/roach88/apphost/internal/event"
)

// GameActivity adapts the GameActivity callback set. Input is delivered
// directly in batches, so there is no input queue; window insets are
// forwarded.
type GameActivity struct {
	base
}

var _ Callbacks = (*GameActivity)(nil)

// NewGameActivity returns a GameActivity adapter producing into p.
func NewGameActivity(p Producer) *GameActivity {
	return &GameActivity{base: newBase(p, config.BackendGameActivity)}
}

// Backend implements Callbacks.
func (*GameActivity) Backend() config.Backend { return config.BackendGameActivity }

// OnInputQueueCreated is ignored.
func (a *GameActivity) OnInputQueueCreated(event.InputQueueHandle) error {
	return a.ignored("OnInputQueueCreated")
}

// OnInputQueueDestroyed is ignored.
func (a *GameActivity) OnInputQueueDestroyed(event.InputQueueHandle) error {
	return a.ignored("OnInputQueueDestroyed")
}

// OnWindowInsetsChanged forwards the new insets.
func (a *GameActivity) OnWindowInsetsChanged(r event.Rect) error {
	return a.p.ProduceLifecycleEvent(event.InsetsChanged(r))
}
