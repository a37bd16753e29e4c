package testutil

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/apphost/internal/bridge"
	"github.com/roach88/apphost/internal/event"
)

var _ bridge.Sequencer = (*DeterministicClock)(nil)

func TestDeterministicClock_StartsAtZero(t *testing.T) {
	clock := NewDeterministicClock()
	assert.Equal(t, int64(0), clock.Current())
	assert.Equal(t, int64(1), clock.Next())
	assert.Equal(t, int64(2), clock.Next())
	assert.Equal(t, int64(2), clock.Current())
}

func TestDeterministicClock_ResetRewindsToStart(t *testing.T) {
	clock := NewDeterministicClockAt(100)
	assert.Equal(t, int64(101), clock.Next())
	assert.Equal(t, int64(102), clock.Next())

	clock.Reset()
	assert.Equal(t, int64(100), clock.Current())
	assert.Equal(t, int64(101), clock.Next())
}

func TestDeterministicClock_ThreadSafe(t *testing.T) {
	clock := NewDeterministicClock()
	const numGoroutines = 50
	const callsPerGoroutine = 100

	var mu sync.Mutex
	seen := make(map[int64]bool)

	var wg sync.WaitGroup
	for i := 0; i < numGoroutines; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < callsPerGoroutine; j++ {
				v := clock.Next()
				mu.Lock()
				seen[v] = true
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Len(t, seen, numGoroutines*callsPerGoroutine)
	assert.Equal(t, int64(numGoroutines*callsPerGoroutine), clock.Current())
}

func TestDeterministicClock_StampsCellEvents(t *testing.T) {
	clock := NewDeterministicClockAt(40)
	cell := bridge.NewCell(bridge.NewQueue(0), clock)

	for _, ev := range []event.Event{event.Start(), event.Resume(nil), event.Pause()} {
		_, err := cell.Post(ev, nil)
		require.NoError(t, err)
	}

	evs := cell.Poll(0)
	require.Len(t, evs, 3)
	assert.Equal(t, []event.ID{41, 42, 43}, []event.ID{evs[0].ID, evs[1].ID, evs[2].ID})
}
