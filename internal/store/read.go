package store

import (
	"context"
	"database/sql"
	"fmt"
)

// Record is one stored event of a host trace.
type Record struct {
	HostID      string
	EventID     int64
	Kind        string
	Synchronous bool
	// Payload is the event's canonical JSON.
	Payload string
	// DeliveredSeq is the event's position in the consumer's view, or 0 if
	// it never reached the consumer.
	DeliveredSeq int64
	// Ack is the settle outcome, or "" for a buffered event that was
	// simply delivered.
	Ack string
}

// Delivered reports whether the consumer received the event.
func (r Record) Delivered() bool { return r.DeliveredSeq > 0 }

// HostInfo summarises a recorded host.
type HostInfo struct {
	ID         string
	Backend    string
	CreatedSeq int64
	Events     int
}

// ReadTrace returns the trace of hostID, ordered by delivery position with
// undelivered events last, ties broken by event ID.
//
// Returns an empty slice (not nil) if the host has no events.
func (s *Store) ReadTrace(ctx context.Context, hostID string) ([]Record, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT host_id, event_id, kind, synchronous, payload, delivered_seq, ack
		FROM events
		WHERE host_id = ?
		ORDER BY delivered_seq IS NULL ASC, delivered_seq ASC, event_id ASC
	`, hostID)
	if err != nil {
		return nil, fmt.Errorf("query trace: %w", err)
	}
	defer rows.Close()

	records := []Record{}
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate trace: %w", err)
	}

	return records, nil
}

// ListHosts returns every recorded host in creation order.
func (s *Store) ListHosts(ctx context.Context) ([]HostInfo, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT h.id, h.backend, h.created_seq, COUNT(e.event_id)
		FROM hosts h
		LEFT JOIN events e ON e.host_id = h.id
		GROUP BY h.id
		ORDER BY h.created_seq ASC, h.id COLLATE BINARY ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("query hosts: %w", err)
	}
	defer rows.Close()

	hosts := []HostInfo{}
	for rows.Next() {
		var h HostInfo
		if err := rows.Scan(&h.ID, &h.Backend, &h.CreatedSeq, &h.Events); err != nil {
			return nil, fmt.Errorf("scan host: %w", err)
		}
		hosts = append(hosts, h)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate hosts: %w", err)
	}

	return hosts, nil
}

func scanRecord(rows *sql.Rows) (Record, error) {
	var (
		rec       Record
		delivered sql.NullInt64
	)
	if err := rows.Scan(&rec.HostID, &rec.EventID, &rec.Kind, &rec.Synchronous, &rec.Payload, &delivered, &rec.Ack); err != nil {
		return Record{}, fmt.Errorf("scan event: %w", err)
	}
	rec.DeliveredSeq = delivered.Int64
	return rec, nil
}
