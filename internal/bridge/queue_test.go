package bridge

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/apphost/internal/event"
)

func stamped(id event.ID, ev event.Event) event.Event {
	ev.ID = id
	return ev
}

func kinds(evs []event.Event) []event.Kind {
	out := make([]event.Kind, len(evs))
	for i, ev := range evs {
		out[i] = ev.Kind
	}
	return out
}

func TestQueue_FIFO(t *testing.T) {
	q := NewQueue(0)

	q.Push(stamped(1, event.WindowCreated(event.NewWindowHandle(1, "w"))))
	q.Push(stamped(2, event.ConfigChanged(event.Configuration{Density: 320})))
	q.Push(stamped(3, event.InputBatch()))
	require.Equal(t, 3, q.Len())

	got := q.PopAll()
	assert.Equal(t, []event.Kind{event.KindWindowCreated, event.KindConfigChanged, event.KindInputBatch}, kinds(got))
	assert.Equal(t, 0, q.Len())
	assert.Nil(t, q.PopAll(), "empty queue drains to nil")
}

func TestQueue_ConfigChangedSupersedes(t *testing.T) {
	q := NewQueue(0)

	q.Push(stamped(1, event.ConfigChanged(event.Configuration{Density: 160})))
	q.Push(stamped(2, event.Pause()))
	res := q.Push(stamped(3, event.ConfigChanged(event.Configuration{Density: 480})))

	require.Len(t, res.Replaced, 1)
	assert.Equal(t, event.ID(1), res.Replaced[0].ID)
	assert.False(t, res.Coalesced)

	got := q.PopAll()
	require.Len(t, got, 2)
	assert.Equal(t, event.KindPause, got[0].Kind)
	assert.Equal(t, event.ID(3), got[1].ID)
	assert.Equal(t, 480, got[1].Config.Density)
}

func TestQueue_SynchronousConfigNotSuperseded(t *testing.T) {
	q := NewQueue(0)

	first := stamped(1, event.ConfigChanged(event.Configuration{Density: 160}))
	first.Synchronous = true
	q.Push(first)
	res := q.Push(stamped(2, event.ConfigChanged(event.Configuration{Density: 480})))

	assert.Empty(t, res.Replaced)
	assert.Equal(t, 2, q.Len())
}

func TestQueue_WakeCoalesced(t *testing.T) {
	q := NewQueue(0)

	q.Push(stamped(1, event.Wake()))
	res := q.Push(stamped(2, event.Wake()))
	assert.True(t, res.Coalesced)
	assert.Equal(t, 1, q.Len())

	q.PopAll()
	res = q.Push(stamped(3, event.Wake()))
	assert.False(t, res.Coalesced, "a drained wake no longer coalesces")
}

func TestQueue_DropsOldestInputOverSoftLimit(t *testing.T) {
	q := NewQueue(3)

	q.Push(stamped(1, event.InputBatch()))
	q.Push(stamped(2, event.Pause()))
	q.Push(stamped(3, event.InputBatch()))
	res := q.Push(stamped(4, event.InputBatch()))

	require.Len(t, res.Dropped, 1)
	assert.Equal(t, event.ID(1), res.Dropped[0].ID)
	assert.Equal(t, 3, q.Len())

	got := q.PopAll()
	assert.Equal(t, []event.ID{2, 3, 4}, []event.ID{got[0].ID, got[1].ID, got[2].ID})
}

func TestQueue_CriticalNeverDropped(t *testing.T) {
	q := NewQueue(2)

	q.Push(stamped(1, event.Start()))
	q.Push(stamped(2, event.Resume(nil)))
	res := q.Push(stamped(3, event.WindowCreated(event.NewWindowHandle(1, "w"))))
	assert.Empty(t, res.Dropped)
	res = q.Push(stamped(4, event.SaveState(event.NewSaveStateRequest())))
	assert.Empty(t, res.Dropped)

	assert.Equal(t, 4, q.Len(), "queue may exceed the soft limit for critical events")
}

func TestQueue_Remove(t *testing.T) {
	q := NewQueue(0)

	q.Push(stamped(1, event.Start()))
	q.Push(stamped(2, event.ConfigChanged(event.Configuration{})))
	assert.True(t, q.Contains(2))

	assert.True(t, q.Remove(2))
	assert.False(t, q.Remove(2))
	assert.False(t, q.Remove(99))
	assert.False(t, q.Contains(2))

	// The superseding slot was cleared with the removed entry.
	res := q.Push(stamped(3, event.ConfigChanged(event.Configuration{})))
	assert.Empty(t, res.Replaced)
	assert.Equal(t, 2, q.Len())
}
