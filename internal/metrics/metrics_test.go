package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestCounters(t *testing.T) {
	before := testutil.ToFloat64(EventsDroppedTotal.WithLabelValues("InputBatch", "soft_limit"))
	IncDropped("InputBatch", "soft_limit")
	assert.Equal(t, before+1, testutil.ToFloat64(EventsDroppedTotal.WithLabelValues("InputBatch", "soft_limit")))

	before = testutil.ToFloat64(EventsDeliveredTotal.WithLabelValues("Start"))
	AddDelivered("Start", 3)
	assert.Equal(t, before+3, testutil.ToFloat64(EventsDeliveredTotal.WithLabelValues("Start")))

	before = testutil.ToFloat64(EventsPostedTotal.WithLabelValues("unknown"))
	IncPosted("")
	assert.Equal(t, before+1, testutil.ToFloat64(EventsPostedTotal.WithLabelValues("unknown")))
}

func TestQueueDepth(t *testing.T) {
	SetQueueDepth(5)
	assert.Equal(t, float64(5), testutil.ToFloat64(QueueDepth))
	SetQueueDepth(0)
	assert.Equal(t, float64(0), testutil.ToFloat64(QueueDepth))
}

func TestAckWaitObserved(t *testing.T) {
	before := testutil.CollectAndCount(AckWaitSeconds)
	ObserveAckWait("SaveStateTest", 20*time.Millisecond)
	assert.Equal(t, before+1, testutil.CollectAndCount(AckWaitSeconds))
}
