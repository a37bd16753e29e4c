package bridge

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/roach88/apphost/internal/event"
)

func TestErrorHelpers(t *testing.T) {
	ev := event.SaveState(nil)
	ev.ID = 7

	timeout := NewAckTimeoutError(ev, 100*time.Millisecond, false)
	assert.Equal(t, "ACK_TIMEOUT: no acknowledgment within 100ms (event=7, kind=SaveState)", timeout.Error())
	assert.True(t, IsAckTimeout(fmt.Errorf("wrapped: %w", timeout)))
	assert.False(t, IsClosed(timeout))

	overflow := NewQueueOverflowError(event.InputBatch(), 256)
	assert.True(t, IsQueueOverflow(overflow))
	assert.Equal(t, "256", overflow.Details["soft_limit"])
	assert.Equal(t, "QUEUE_OVERFLOW: queue over soft limit 256, event dropped (kind=InputBatch)", overflow.Error())

	closed := NewClosedError(event.Start())
	assert.True(t, IsClosed(closed))
	assert.False(t, IsAckTimeout(nil))
}

func TestClock(t *testing.T) {
	c := NewClock()
	assert.Equal(t, int64(0), c.Current())
	assert.Equal(t, int64(1), c.Next())
	assert.Equal(t, int64(2), c.Next())
	assert.Equal(t, int64(2), c.Current())

	resumed := NewClockAt(100)
	assert.Equal(t, int64(101), resumed.Next())
}
