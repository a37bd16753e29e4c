package bridge

import (
	"errors"
	"fmt"
	"time"

	"github.com/roach88/apphost/internal/event"
)

// Error is returned by the cell when an event cannot be handed across.
//
// Codes:
//   - ACK_TIMEOUT: a synchronous event was not acknowledged in time
//   - QUEUE_OVERFLOW: a buffered event was dropped over the soft limit
//   - CLOSED: the cell was closed before or while the event was in flight
type Error struct {
	// Code identifies the error category.
	Code ErrorCode

	// Message is a human-readable description.
	Message string

	// EventID identifies the affected event. Zero if the event was never
	// stamped (for example it was rejected before entering the queue).
	EventID event.ID

	// Kind of the affected event.
	Kind event.Kind

	// Details contains additional context.
	Details map[string]string
}

// ErrorCode categorizes bridge errors.
type ErrorCode string

const (
	// ErrCodeAckTimeout indicates the consumer did not acknowledge in time.
	ErrCodeAckTimeout ErrorCode = "ACK_TIMEOUT"

	// ErrCodeQueueOverflow indicates a buffered event was dropped.
	ErrCodeQueueOverflow ErrorCode = "QUEUE_OVERFLOW"

	// ErrCodeClosed indicates the cell no longer accepts or waits for events.
	ErrCodeClosed ErrorCode = "CLOSED"
)

// Error implements the error interface.
func (e *Error) Error() string {
	if e.EventID != 0 {
		return fmt.Sprintf("%s: %s (event=%d, kind=%s)", e.Code, e.Message, e.EventID, e.Kind)
	}
	return fmt.Sprintf("%s: %s (kind=%s)", e.Code, e.Message, e.Kind)
}

// IsAckTimeout reports whether err is an acknowledgment timeout.
// Uses errors.As to handle wrapped errors.
func IsAckTimeout(err error) bool {
	return hasCode(err, ErrCodeAckTimeout)
}

// IsQueueOverflow reports whether err reports a dropped event.
func IsQueueOverflow(err error) bool {
	return hasCode(err, ErrCodeQueueOverflow)
}

// IsClosed reports whether err was caused by a closed cell.
func IsClosed(err error) bool {
	return hasCode(err, ErrCodeClosed)
}

func hasCode(err error, code ErrorCode) bool {
	var be *Error
	if errors.As(err, &be) {
		return be.Code == code
	}
	return false
}

// NewAckTimeoutError creates an Error for an unacknowledged synchronous event.
// delivered tells whether the consumer had already polled the event.
func NewAckTimeoutError(ev event.Event, timeout time.Duration, delivered bool) *Error {
	return &Error{
		Code:    ErrCodeAckTimeout,
		Message: fmt.Sprintf("no acknowledgment within %s", timeout),
		EventID: ev.ID,
		Kind:    ev.Kind,
		Details: map[string]string{
			"timeout":   timeout.String(),
			"delivered": fmt.Sprintf("%t", delivered),
		},
	}
}

// NewQueueOverflowError creates an Error for an event dropped from the queue.
func NewQueueOverflowError(dropped event.Event, softLimit int) *Error {
	return &Error{
		Code:    ErrCodeQueueOverflow,
		Message: fmt.Sprintf("queue over soft limit %d, event dropped", softLimit),
		EventID: dropped.ID,
		Kind:    dropped.Kind,
		Details: map[string]string{
			"soft_limit": fmt.Sprintf("%d", softLimit),
		},
	}
}

// NewClosedError creates an Error for an event refused or released by Close.
func NewClosedError(ev event.Event) *Error {
	return &Error{
		Code:    ErrCodeClosed,
		Message: "cell closed",
		EventID: ev.ID,
		Kind:    ev.Kind,
	}
}
