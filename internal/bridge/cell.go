package bridge

import (
	"sync"
	"time"

	"github.com/roach88/apphost/internal/event"
)

// ApplyFunc runs with the cell lock held, after the event has been accepted
// for posting and before it is stamped and enqueued.
//
// Returning an error rejects the event. Returning false with a nil error
// accepts the post but enqueues nothing (an idempotent lifecycle repeat).
// ApplyFunc must not call back into the Cell.
type ApplyFunc func(ev *event.Event) (enqueue bool, err error)

// Posted describes the outcome of a post.
type Posted struct {
	// Event is the event as enqueued: ID and Synchronous are set.
	Event event.Event

	// Enqueued is false when the apply hook declined the event, the queue
	// coalesced it into an existing entry or shed it over the soft limit.
	Enqueued bool

	// Push reports coalescing and drops caused by this post.
	Push PushResult

	// Delivered is set for synchronous posts that ended without an
	// acknowledgment and tells whether the consumer had polled the event.
	Delivered bool
}

// Cell is the synchronized handoff between the UI-thread producer and the
// native-thread consumer.
//
// All state lives behind a single mutex; a condition variable wakes
// producers waiting for acknowledgment and consumers waiting in Poll.
// Timed waits arm a timer that broadcasts at the deadline; waiters
// re-check the deadline after every wake-up.
//
// At most one synchronous event is in flight. A second synchronous post
// waits for the slot before it is enqueued, so a slow consumer stalls the
// producer rather than growing the queue.
type Cell struct {
	mu    sync.Mutex
	cond  *sync.Cond
	queue *Queue
	clock Sequencer

	inflight    event.ID
	acked       bool
	interrupted bool
	closed      bool

	withdrawn func(ev event.Event)
}

// NewCell creates a cell around q. IDs are drawn from clock.
func NewCell(q *Queue, clock Sequencer) *Cell {
	c := &Cell{queue: q, clock: clock}
	c.cond = sync.NewCond(&c.mu)
	return c
}

// OnWithdraw registers fn to run, with the cell lock held, when a
// synchronous event is pulled back out of the queue before the consumer
// polled it. fn must not call back into the Cell.
func (c *Cell) OnWithdraw(fn func(ev event.Event)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.withdrawn = fn
}

// Post enqueues a buffered event and wakes the consumer. It never blocks
// beyond the cell lock.
func (c *Cell) Post(ev event.Event, apply ApplyFunc) (Posted, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return Posted{Event: ev}, NewClosedError(ev)
	}
	ev.Synchronous = false
	return c.enqueueLocked(ev, apply)
}

// PostAndWait enqueues ev as a synchronous event and blocks until the
// consumer acknowledges it, the timeout elapses or the cell is closed.
// timeout <= 0 waits without bound.
//
// On timeout the event is withdrawn if it was never polled, and the
// returned error satisfies IsAckTimeout. The wait for the in-flight slot
// counts against the same timeout.
func (c *Cell) PostAndWait(ev event.Event, timeout time.Duration, apply ApplyFunc) (Posted, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	var deadline time.Time
	if timeout > 0 {
		deadline = time.Now().Add(timeout)
		timer := time.AfterFunc(timeout, c.broadcast)
		defer timer.Stop()
	}
	expired := func() bool {
		return !deadline.IsZero() && !time.Now().Before(deadline)
	}

	for c.inflight != 0 && !c.closed && !expired() {
		c.cond.Wait()
	}
	if c.closed {
		return Posted{Event: ev}, NewClosedError(ev)
	}
	if c.inflight != 0 {
		return Posted{Event: ev}, NewAckTimeoutError(ev, timeout, false)
	}

	ev.Synchronous = true
	posted, err := c.enqueueLocked(ev, apply)
	if err != nil || !posted.Enqueued {
		return posted, err
	}
	id := posted.Event.ID
	c.inflight = id
	c.acked = false

	for !c.acked && !c.closed && !expired() {
		c.cond.Wait()
	}

	c.inflight = 0
	// Release producers queued for the slot.
	c.cond.Broadcast()

	switch {
	case c.acked:
		return posted, nil
	case c.closed:
		posted.Delivered = c.withdrawLocked(posted.Event)
		return posted, NewClosedError(posted.Event)
	default:
		posted.Delivered = c.withdrawLocked(posted.Event)
		return posted, NewAckTimeoutError(posted.Event, timeout, posted.Delivered)
	}
}

// withdrawLocked removes an unacknowledged synchronous event and reports
// whether the consumer had already taken it.
func (c *Cell) withdrawLocked(ev event.Event) (delivered bool) {
	if !c.queue.Remove(ev.ID) {
		return true
	}
	if c.withdrawn != nil {
		c.withdrawn(ev)
	}
	return false
}

func (c *Cell) enqueueLocked(ev event.Event, apply ApplyFunc) (Posted, error) {
	if apply != nil {
		enqueue, err := apply(&ev)
		if err != nil {
			return Posted{Event: ev}, err
		}
		if !enqueue {
			return Posted{Event: ev}, nil
		}
	}

	ev.ID = event.ID(c.clock.Next())
	res := c.queue.Push(ev)
	c.cond.Broadcast()

	enqueued := !res.Coalesced
	for _, d := range res.Dropped {
		if d.ID == ev.ID {
			// Shed by its own push.
			enqueued = false
		}
	}
	return Posted{Event: ev, Enqueued: enqueued, Push: res}, nil
}

// Poll returns every queued event in FIFO order.
//
// When the queue is empty Poll waits: timeout == 0 returns immediately,
// timeout < 0 waits without bound, timeout > 0 waits at most that long.
// Interrupt and Close end the wait early with whatever is queued.
func (c *Cell) Poll(timeout time.Duration) []event.Event {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.queue.Len() == 0 && timeout != 0 && !c.closed && !c.interrupted {
		var deadline time.Time
		if timeout > 0 {
			deadline = time.Now().Add(timeout)
			timer := time.AfterFunc(timeout, c.broadcast)
			defer timer.Stop()
		}
		for c.queue.Len() == 0 && !c.closed && !c.interrupted {
			if !deadline.IsZero() && !time.Now().Before(deadline) {
				break
			}
			c.cond.Wait()
		}
	}
	c.interrupted = false
	return c.queue.PopAll()
}

// Acknowledge releases the producer waiting on id. Unknown and repeated
// IDs are ignored. It reports whether a producer was released.
func (c *Cell) Acknowledge(id event.ID) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if id == 0 || id != c.inflight || c.acked {
		return false
	}
	c.acked = true
	c.cond.Broadcast()
	return true
}

// InFlight returns the ID of the unacknowledged synchronous event, or 0.
func (c *Cell) InFlight() event.ID {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.acked {
		return 0
	}
	return c.inflight
}

// Wake enqueues a Wake event, coalesced with any queued Wake.
func (c *Cell) Wake() (Posted, error) {
	return c.Post(event.Wake(), nil)
}

// Interrupt makes a blocked Poll return without an event. If no Poll is
// blocked, the next Poll returns immediately.
func (c *Cell) Interrupt() {
	c.mu.Lock()
	c.interrupted = true
	c.cond.Broadcast()
	c.mu.Unlock()
}

// Close releases every waiter. Later posts fail with a CLOSED error; Poll
// keeps draining what is left and then returns empty without blocking.
func (c *Cell) Close() {
	c.mu.Lock()
	c.closed = true
	c.cond.Broadcast()
	c.mu.Unlock()
}

// CloseIfDrained closes the cell when the queue is empty and cond, run
// under the cell lock, returns true. It reports whether the cell was
// closed by this call.
func (c *Cell) CloseIfDrained(cond func() bool) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed || c.queue.Len() != 0 || !cond() {
		return false
	}
	c.closed = true
	c.cond.Broadcast()
	return true
}

// Closed reports whether Close has been called.
func (c *Cell) Closed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

// Len returns the number of queued events.
func (c *Cell) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.queue.Len()
}

// Locked runs fn with the cell lock held. fn must not call back into the
// Cell.
func (c *Cell) Locked(fn func()) {
	c.mu.Lock()
	defer c.mu.Unlock()
	fn()
}

func (c *Cell) broadcast() {
	c.mu.Lock()
	c.cond.Broadcast()
	c.mu.Unlock()
}
