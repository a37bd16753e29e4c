package event

import "sync"

// SaveStateRequest is the response slot for a SaveState event.
//
// The native thread calls Store while handling the event, before it
// acknowledges it; the UI thread reads Bytes after the acknowledgment.
// The bytes are opaque and always copied on the way in and out.
type SaveStateRequest struct {
	mu     sync.Mutex
	data   []byte
	stored bool
}

// NewSaveStateRequest returns an empty request.
func NewSaveStateRequest() *SaveStateRequest {
	return &SaveStateRequest{}
}

// Store records the application state. Calling Store again replaces the
// previous value.
func (r *SaveStateRequest) Store(state []byte) {
	buf := make([]byte, len(state))
	copy(buf, state)

	r.mu.Lock()
	r.data = buf
	r.stored = true
	r.mu.Unlock()
}

// Bytes returns a copy of the stored state and whether Store was called.
func (r *SaveStateRequest) Bytes() ([]byte, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.stored {
		return nil, false
	}
	buf := make([]byte, len(r.data))
	copy(buf, r.data)
	return buf, true
}
