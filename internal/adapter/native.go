package adapter

import (
	"github.com/roach88/apphost/internal/config"
	"github.com/roach88/apphost/internal/event"
)

// NativeActivity adapts the NativeActivity callback set. Input arrives
// through a platform input queue whose lifetime is forwarded to the host;
// window insets are not reported by this activity flavour.
type NativeActivity struct {
	base
}

var _ Callbacks = (*NativeActivity)(nil)

// NewNativeActivity returns a NativeActivity adapter producing into p.
func NewNativeActivity(p Producer) *NativeActivity {
	return &NativeActivity{base: newBase(p, config.BackendNativeActivity)}
}

// Backend implements Callbacks.
func (*NativeActivity) Backend() config.Backend { return config.BackendNativeActivity }

// OnInputQueueCreated forwards the new input queue. The platform waits for
// the host to acknowledge it before attaching the queue to a looper.
func (a *NativeActivity) OnInputQueueCreated(q event.InputQueueHandle) error {
	return a.p.ProduceInputEvent(event.InputQueueCreated(q))
}

// OnInputQueueDestroyed forwards the queue's destruction.
func (a *NativeActivity) OnInputQueueDestroyed(q event.InputQueueHandle) error {
	return a.p.ProduceInputEvent(event.InputQueueDestroyed(q))
}

// OnWindowInsetsChanged is ignored.
func (a *NativeActivity) OnWindowInsetsChanged(event.Rect) error {
	return a.ignored("OnWindowInsetsChanged")
}
