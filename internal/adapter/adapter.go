// Package adapter translates platform activity callbacks into producer
// calls on an application host.
//
// Two backend variants exist, matching the two activity flavours the
// platform offers. Both implement Callbacks and make exactly one producer
// call per forwarded callback; a callback a variant has no use for is
// ignored. The host is only seen through Producer, so a backend can be
// exercised against any implementation of it.
package adapter

import (
	"fmt"

	"github.com/rs/zerolog"

	"github.com/roach88/apphost/internal/config"
	"github.com/roach88/apphost/internal/event"
	applog "github.com/roach88/apphost/internal/log"
)

// Producer is the capability set a backend needs from the host.
type Producer interface {
	ProduceLifecycleEvent(ev event.Event) error
	ProduceInputEvent(ev event.Event) error
	ProduceConfigEvent(ev event.Event) error
	RequestSaveState() ([]byte, error)
}

// Callbacks is the platform callback surface, invoked on the UI thread.
type Callbacks interface {
	Backend() config.Backend

	OnStart() error
	OnResume(savedState []byte) error
	OnSaveInstanceState() ([]byte, error)
	OnPause() error
	OnStop() error
	OnDestroy() error

	OnWindowCreated(w event.WindowHandle) error
	OnWindowResized(w event.WindowHandle) error
	OnWindowRedrawNeeded(w event.WindowHandle) error
	OnWindowDestroyed(w event.WindowHandle) error
	OnWindowFocusChanged(focused bool) error
	OnContentRectChanged(r event.Rect) error
	OnWindowInsetsChanged(r event.Rect) error

	OnConfigurationChanged(c event.Configuration) error
	OnLowMemory() error

	OnInputQueueCreated(q event.InputQueueHandle) error
	OnInputQueueDestroyed(q event.InputQueueHandle) error
	OnInputAvailable(events ...event.InputEvent) error
}

// New returns the Callbacks implementation for backend.
func New(backend config.Backend, p Producer) (Callbacks, error) {
	switch backend {
	case config.BackendNativeActivity:
		return NewNativeActivity(p), nil
	case config.BackendGameActivity:
		return NewGameActivity(p), nil
	default:
		return nil, fmt.Errorf("unknown backend %q", backend)
	}
}

// base holds the callbacks both variants forward identically.
type base struct {
	p      Producer
	logger zerolog.Logger
}

func newBase(p Producer, backend config.Backend) base {
	return base{
		p:      p,
		logger: applog.WithComponent("adapter").With().Str(applog.FieldBackend, string(backend)).Logger(),
	}
}

func (b base) OnStart() error { return b.p.ProduceLifecycleEvent(event.Start()) }

func (b base) OnResume(savedState []byte) error {
	var state []byte
	if len(savedState) > 0 {
		state = append([]byte(nil), savedState...)
	}
	return b.p.ProduceLifecycleEvent(event.Resume(state))
}

func (b base) OnSaveInstanceState() ([]byte, error) { return b.p.RequestSaveState() }

func (b base) OnPause() error { return b.p.ProduceLifecycleEvent(event.Pause()) }

func (b base) OnStop() error { return b.p.ProduceLifecycleEvent(event.Stop()) }

func (b base) OnDestroy() error { return b.p.ProduceLifecycleEvent(event.Destroy()) }

func (b base) OnWindowCreated(w event.WindowHandle) error {
	return b.p.ProduceLifecycleEvent(event.WindowCreated(w))
}

func (b base) OnWindowResized(w event.WindowHandle) error {
	return b.p.ProduceLifecycleEvent(event.WindowResized(w))
}

func (b base) OnWindowRedrawNeeded(w event.WindowHandle) error {
	return b.p.ProduceLifecycleEvent(event.RedrawNeeded(w))
}

func (b base) OnWindowDestroyed(w event.WindowHandle) error {
	return b.p.ProduceLifecycleEvent(event.WindowDestroyed(w))
}

func (b base) OnWindowFocusChanged(focused bool) error {
	return b.p.ProduceLifecycleEvent(event.FocusChanged(focused))
}

func (b base) OnContentRectChanged(r event.Rect) error {
	return b.p.ProduceLifecycleEvent(event.ContentRectChanged(r))
}

func (b base) OnConfigurationChanged(c event.Configuration) error {
	return b.p.ProduceConfigEvent(event.ConfigChanged(c))
}

func (b base) OnLowMemory() error { return b.p.ProduceLifecycleEvent(event.LowMemory()) }

func (b base) OnInputAvailable(events ...event.InputEvent) error {
	if len(events) == 0 {
		return nil
	}
	return b.p.ProduceInputEvent(event.InputBatch(events...))
}

func (b base) ignored(callback string) error {
	b.logger.Debug().Str("callback", callback).Msg("callback not used by this backend")
	return nil
}
