package bridge

import "sync/atomic"

// Sequencer hands out event IDs. Implementations must return strictly
// increasing values starting above zero; zero is reserved for "no event".
//
// testutil.DeterministicClock satisfies this interface.
type Sequencer interface {
	Next() int64
	Current() int64
}

// Clock is the default Sequencer: a monotonic logical clock.
//
// Event IDs come from this clock rather than wall time so that traces of
// the same scenario are identical across runs.
//
// Thread-safety: Clock is safe for concurrent use. In practice only the
// cell calls Next, under its own lock.
type Clock struct {
	seq atomic.Int64
}

// NewClock creates a clock starting at 0. The first Next returns 1.
func NewClock() *Clock {
	return &Clock{}
}

// NewClockAt creates a clock starting at start.
func NewClockAt(start int64) *Clock {
	c := &Clock{}
	c.seq.Store(start)
	return c
}

// Next returns the next sequence number.
func (c *Clock) Next() int64 {
	return c.seq.Add(1)
}

// Current returns the last value handed out.
func (c *Clock) Current() int64 {
	return c.seq.Load()
}
