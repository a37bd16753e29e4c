// Package metrics exposes Prometheus collectors for the application host.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	EventsPostedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "apphost_events_posted_total",
		Help: "Total number of events accepted from the platform by kind",
	}, []string{"kind"})

	EventsDeliveredTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "apphost_events_delivered_total",
		Help: "Total number of events returned by poll by kind",
	}, []string{"kind"})

	EventsCoalescedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "apphost_events_coalesced_total",
		Help: "Total number of queued events superseded or merged by kind",
	}, []string{"kind"})

	EventsDroppedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "apphost_events_dropped_total",
		Help: "Total number of events dropped by kind and reason",
	}, []string{"kind", "reason"})

	AckTimeoutsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "apphost_ack_timeouts_total",
		Help: "Total number of synchronous events not acknowledged in time",
	}, []string{"kind"})

	AckWaitSeconds = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "apphost_ack_wait_seconds",
		Help:    "Time the platform thread spent blocked on a synchronous event",
		Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.25, 0.5, 1, 2, 4, 8},
	}, []string{"kind"})

	InvalidTransitionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "apphost_invalid_transitions_total",
		Help: "Total number of rejected lifecycle transitions",
	}, []string{"from", "to"})

	QueueDepth = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "apphost_queue_depth",
		Help: "Number of events waiting to be polled",
	})
)

// IncPosted records an accepted event.
func IncPosted(kind string) {
	EventsPostedTotal.WithLabelValues(label(kind)).Inc()
}

// AddDelivered records n delivered events of kind.
func AddDelivered(kind string, n int) {
	EventsDeliveredTotal.WithLabelValues(label(kind)).Add(float64(n))
}

// IncCoalesced records a superseded or merged event.
func IncCoalesced(kind string) {
	EventsCoalescedTotal.WithLabelValues(label(kind)).Inc()
}

// IncDropped records a dropped event with a concrete reason.
func IncDropped(kind, reason string) {
	EventsDroppedTotal.WithLabelValues(label(kind), label(reason)).Inc()
}

// IncAckTimeout records an acknowledgment timeout.
func IncAckTimeout(kind string) {
	AckTimeoutsTotal.WithLabelValues(label(kind)).Inc()
}

// ObserveAckWait records how long a synchronous post blocked.
func ObserveAckWait(kind string, d time.Duration) {
	AckWaitSeconds.WithLabelValues(label(kind)).Observe(d.Seconds())
}

// IncInvalidTransition records a rejected lifecycle transition.
func IncInvalidTransition(from, to string) {
	InvalidTransitionsTotal.WithLabelValues(label(from), label(to)).Inc()
}

// SetQueueDepth records the current queue length.
func SetQueueDepth(n int) {
	QueueDepth.Set(float64(n))
}

func label(v string) string {
	if v == "" {
		return "unknown"
	}
	return v
}
