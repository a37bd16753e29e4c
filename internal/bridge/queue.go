package bridge

import (
	"container/list"

	"github.com/roach88/apphost/internal/event"
)

// PushResult describes what Push did besides appending.
type PushResult struct {
	// Coalesced is true when the pushed event was merged into an entry that
	// is already queued and nothing was appended.
	Coalesced bool

	// Replaced holds queued entries superseded by the pushed event.
	Replaced []event.Event

	// Dropped holds entries evicted because the queue went over its soft
	// limit. Oldest first.
	Dropped []event.Event
}

// Queue is the FIFO of pending events between the producer and consumer.
//
// Queue is not safe for concurrent use; the Cell owns it and only touches
// it with the cell lock held.
//
// Rules applied on Push:
//   - a buffered ConfigChanged supersedes a queued buffered ConfigChanged;
//     the old entry is removed and the new one goes to the tail
//   - a Wake is coalesced into a queued Wake
//   - over the soft limit the oldest InputBatch entries are dropped
//
// Critical kinds (see event.Kind.Critical) are never coalesced or dropped,
// so the queue may grow past the soft limit while they are pending.
type Queue struct {
	items     *list.List
	index     map[event.ID]*list.Element
	softLimit int

	config *list.Element
	wake   *list.Element
}

// NewQueue creates an empty queue. softLimit <= 0 disables dropping.
func NewQueue(softLimit int) *Queue {
	return &Queue{
		items:     list.New(),
		index:     make(map[event.ID]*list.Element),
		softLimit: softLimit,
	}
}

// Push appends ev, applying the coalescing and overflow rules.
func (q *Queue) Push(ev event.Event) PushResult {
	var res PushResult

	switch {
	case ev.Kind == event.KindWake && q.wake != nil:
		res.Coalesced = true
		return res
	case ev.Kind == event.KindConfigChanged && !ev.Synchronous && q.config != nil:
		res.Replaced = append(res.Replaced, q.remove(q.config))
	}

	elem := q.items.PushBack(ev)
	q.index[ev.ID] = elem
	switch {
	case ev.Kind == event.KindWake:
		q.wake = elem
	case ev.Kind == event.KindConfigChanged && !ev.Synchronous:
		q.config = elem
	}

	if q.softLimit > 0 && q.items.Len() > q.softLimit {
		res.Dropped = q.shed()
	}
	return res
}

// shed drops InputBatch entries from the head until the queue is back at
// the soft limit or no droppable entry remains.
func (q *Queue) shed() []event.Event {
	var dropped []event.Event
	for e := q.items.Front(); e != nil && q.items.Len() > q.softLimit; {
		next := e.Next()
		if e.Value.(event.Event).Kind == event.KindInputBatch {
			dropped = append(dropped, q.remove(e))
		}
		e = next
	}
	return dropped
}

// PopAll removes and returns every queued event in FIFO order.
func (q *Queue) PopAll() []event.Event {
	if q.items.Len() == 0 {
		return nil
	}
	out := make([]event.Event, 0, q.items.Len())
	for e := q.items.Front(); e != nil; e = e.Next() {
		out = append(out, e.Value.(event.Event))
	}
	q.items.Init()
	clear(q.index)
	q.config = nil
	q.wake = nil
	return out
}

// Remove withdraws the event with the given ID. It reports whether the
// event was still queued.
func (q *Queue) Remove(id event.ID) bool {
	elem, ok := q.index[id]
	if !ok {
		return false
	}
	q.remove(elem)
	return true
}

// Contains reports whether the event with the given ID is queued.
func (q *Queue) Contains(id event.ID) bool {
	_, ok := q.index[id]
	return ok
}

// Len returns the number of queued events.
func (q *Queue) Len() int {
	return q.items.Len()
}

func (q *Queue) remove(elem *list.Element) event.Event {
	ev := q.items.Remove(elem).(event.Event)
	delete(q.index, ev.ID)
	if elem == q.config {
		q.config = nil
	}
	if elem == q.wake {
		q.wake = nil
	}
	return ev
}
