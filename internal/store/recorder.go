package store

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/rs/zerolog"

	"github.com/roach88/apphost/internal/event"
	"github.com/roach88/apphost/internal/host"
	applog "github.com/roach88/apphost/internal/log"
)

// Recorder writes host event traffic into the store. It implements
// host.Observer.
//
// Observer calls for one event can arrive in any order (a synchronous
// event is delivered and acknowledged before its producer reports it as
// posted), so every write is an upsert that only sets the columns it
// knows about.
//
// Observer methods cannot fail; the first write error is kept and
// reported by Err.
//
// Thread-safety: Recorder is safe for concurrent use.
type Recorder struct {
	store  *Store
	ctx    context.Context
	logger zerolog.Logger

	delivered atomic.Int64

	mu  sync.Mutex
	err error
}

var _ host.Observer = (*Recorder)(nil)

// NewRecorder returns a Recorder writing to s. ctx bounds every write.
func (s *Store) NewRecorder(ctx context.Context) *Recorder {
	return &Recorder{
		store:  s,
		ctx:    ctx,
		logger: applog.WithComponent("store"),
	}
}

// EventPosted records the event's kind and payload.
func (r *Recorder) EventPosted(hostID string, ev event.Event) {
	payload, err := marshalPayload(ev)
	if err != nil {
		r.fail(hostID, ev.ID, err)
		return
	}

	_, err = r.store.db.ExecContext(r.ctx, `
		INSERT INTO events (host_id, event_id, kind, synchronous, payload)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(host_id, event_id) DO UPDATE SET
			kind = excluded.kind,
			synchronous = excluded.synchronous,
			payload = excluded.payload
	`, hostID, int64(ev.ID), ev.Kind.String(), ev.Synchronous, payload)
	if err != nil {
		r.fail(hostID, ev.ID, fmt.Errorf("record posted: %w", err))
	}
}

// EventsDelivered records the batch with consecutive delivery positions.
func (r *Recorder) EventsDelivered(hostID string, evs []event.Event) {
	for _, ev := range evs {
		payload, err := marshalPayload(ev)
		if err != nil {
			r.fail(hostID, ev.ID, err)
			continue
		}

		seq := r.delivered.Add(1)
		_, err = r.store.db.ExecContext(r.ctx, `
			INSERT INTO events (host_id, event_id, kind, synchronous, payload, delivered_seq)
			VALUES (?, ?, ?, ?, ?, ?)
			ON CONFLICT(host_id, event_id) DO UPDATE SET
				kind = excluded.kind,
				synchronous = excluded.synchronous,
				payload = excluded.payload,
				delivered_seq = excluded.delivered_seq
		`, hostID, int64(ev.ID), ev.Kind.String(), ev.Synchronous, payload, seq)
		if err != nil {
			r.fail(hostID, ev.ID, fmt.Errorf("record delivered: %w", err))
		}
	}
}

// EventSettled records how the event settled.
func (r *Recorder) EventSettled(hostID string, id event.ID, outcome host.Outcome) {
	_, err := r.store.db.ExecContext(r.ctx, `
		INSERT INTO events (host_id, event_id, ack)
		VALUES (?, ?, ?)
		ON CONFLICT(host_id, event_id) DO UPDATE SET ack = excluded.ack
	`, hostID, int64(id), string(outcome))
	if err != nil {
		r.fail(hostID, id, fmt.Errorf("record settled: %w", err))
	}
}

// Err returns the first write error, if any.
func (r *Recorder) Err() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.err
}

func (r *Recorder) fail(hostID string, id event.ID, err error) {
	r.logger.Error().Err(err).
		Str(applog.FieldHostID, hostID).
		Int64(applog.FieldEventID, int64(id)).
		Msg("trace write failed")

	r.mu.Lock()
	if r.err == nil {
		r.err = err
	}
	r.mu.Unlock()
}

// marshalPayload renders the event as canonical JSON.
func marshalPayload(ev event.Event) (string, error) {
	data, err := event.MarshalCanonical(ev.CanonicalMap())
	if err != nil {
		return "", fmt.Errorf("marshal payload: %w", err)
	}
	return string(data), nil
}
