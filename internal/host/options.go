package host

import (
	"time"

	"github.com/rs/zerolog"

	"github.com/roach88/apphost/internal/bridge"
	"github.com/roach88/apphost/internal/config"
	"github.com/roach88/apphost/internal/event"
)

// Policy decides which kinds are handed over synchronously.
type Policy struct {
	ConfigChanges config.ConfigChangeMode
}

// Synchronous reports whether posting an event of kind k blocks until it
// is acknowledged.
func (p Policy) Synchronous(k event.Kind) bool {
	switch k {
	case event.KindWindowCreated, event.KindWindowDestroyed,
		event.KindInputQueueCreated, event.KindInputQueueDestroyed,
		event.KindSaveState:
		return true
	case event.KindConfigChanged:
		return p.ConfigChanges == config.ConfigChangesSynchronous
	default:
		return false
	}
}

// Option configures a Host.
type Option func(*Host)

// WithConfig applies the acknowledgment timeout, queue soft limit and
// config-change policy from cfg.
func WithConfig(cfg config.Config) Option {
	return func(h *Host) {
		h.ackTimeout = cfg.AckTimeout
		h.softLimit = cfg.QueueSoftLimit
		h.policy.ConfigChanges = cfg.ConfigChanges
	}
}

// WithAckTimeout bounds how long a synchronous post waits. d <= 0 waits
// forever, which risks the platform watchdog.
func WithAckTimeout(d time.Duration) Option {
	return func(h *Host) {
		h.ackTimeout = d
	}
}

// WithQueueSoftLimit sets the queue length above which input batches are
// dropped.
func WithQueueSoftLimit(n int) Option {
	return func(h *Host) {
		h.softLimit = n
	}
}

// WithPolicy replaces the synchronous-kind policy.
func WithPolicy(p Policy) Option {
	return func(h *Host) {
		h.policy = p
	}
}

// WithErrorHandler receives non-fatal and fatal errors the host cannot
// return to a caller: dropped events and acknowledgment timeouts. The
// default logs them.
func WithErrorHandler(fn func(error)) Option {
	return func(h *Host) {
		h.onError = fn
	}
}

// WithObserver registers an Observer for event traffic.
func WithObserver(o Observer) Option {
	return func(h *Host) {
		h.observer = o
	}
}

// WithSequencer sets the source of event IDs.
func WithSequencer(s bridge.Sequencer) Option {
	return func(h *Host) {
		h.seq = s
	}
}

// WithIDGenerator sets the generator for the host instance ID.
func WithIDGenerator(g IDGenerator) Option {
	return func(h *Host) {
		h.idGen = g
	}
}

// WithLogger replaces the default component logger. The host adds its ID.
func WithLogger(l zerolog.Logger) Option {
	return func(h *Host) {
		h.logger = l
		h.loggerSet = true
	}
}
