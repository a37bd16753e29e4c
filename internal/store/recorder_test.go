package store

import (
	"context"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/apphost/internal/event"
	"github.com/roach88/apphost/internal/host"
	applog "github.com/roach88/apphost/internal/log"
	"github.com/roach88/apphost/internal/testutil"
)

func TestRecorder_PostedThenDelivered(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()
	require.NoError(t, s.RegisterHost(ctx, "h", "native-activity"))
	rec := s.NewRecorder(ctx)

	start := event.Start()
	start.ID = 1
	rec.EventPosted("h", start)
	rec.EventsDelivered("h", []event.Event{start})
	require.NoError(t, rec.Err())

	trace, err := s.ReadTrace(ctx, "h")
	require.NoError(t, err)
	want := []Record{{
		HostID:       "h",
		EventID:      1,
		Kind:         "Start",
		Payload:      `{"id":1,"kind":"Start"}`,
		DeliveredSeq: 1,
	}}
	if diff := cmp.Diff(want, trace); diff != "" {
		t.Errorf("ReadTrace() mismatch (-want +got):\n%s", diff)
	}
	assert.True(t, trace[0].Delivered())
}

func TestRecorder_ToleratesOutOfOrderCalls(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()
	require.NoError(t, s.RegisterHost(ctx, "h", "native-activity"))
	rec := s.NewRecorder(ctx)

	// A synchronous event is delivered and acknowledged before its
	// producer reports it as posted.
	ev := event.WindowCreated(event.NewWindowHandle(1, "main"))
	ev.ID = 7
	ev.Synchronous = true
	rec.EventsDelivered("h", []event.Event{ev})
	rec.EventSettled("h", ev.ID, host.OutcomeAcked)
	rec.EventPosted("h", ev)
	require.NoError(t, rec.Err())

	trace, err := s.ReadTrace(ctx, "h")
	require.NoError(t, err)
	want := []Record{{
		HostID:       "h",
		EventID:      7,
		Kind:         "WindowCreated",
		Synchronous:  true,
		Payload:      `{"id":7,"kind":"WindowCreated","sync":true,"window":"window(main)"}`,
		DeliveredSeq: 1,
		Ack:          "acked",
	}}
	if diff := cmp.Diff(want, trace); diff != "" {
		t.Errorf("ReadTrace() mismatch (-want +got):\n%s", diff)
	}
}

func TestRecorder_UnregisteredHostFails(t *testing.T) {
	s := createTestStore(t)
	rec := s.NewRecorder(context.Background())

	rec.EventSettled("nobody", 1, host.OutcomeAcked)
	rec.EventSettled("nobody", 2, host.OutcomeAcked)

	err := rec.Err()
	require.Error(t, err)
	assert.ErrorContains(t, err, "record settled")
}

func TestRecorder_CancelledContext(t *testing.T) {
	s := createTestStore(t)
	require.NoError(t, s.RegisterHost(context.Background(), "h", "native-activity"))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	rec := s.NewRecorder(ctx)
	rec.EventPosted("h", event.Start())

	assert.ErrorIs(t, rec.Err(), context.Canceled)
}

func TestRecorder_RecordsLiveHost(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()
	require.NoError(t, s.RegisterHost(ctx, "live", "native-activity"))
	rec := s.NewRecorder(ctx)

	h := host.New(host.Context{},
		host.WithIDGenerator(testutil.NewFixedHostID("live")),
		host.WithLogger(applog.Nop()),
		host.WithObserver(rec),
		host.WithAckTimeout(2*time.Second),
	)

	cfg := event.Configuration{Orientation: event.OrientationPortrait, Density: 420, Locale: "en-US"}
	require.NoError(t, h.ProduceLifecycleEvent(event.Start()))
	require.NoError(t, h.ProduceLifecycleEvent(event.Resume(nil)))
	require.NoError(t, h.ProduceConfigEvent(event.ConfigChanged(cfg)))
	cfg.Density = 480
	require.NoError(t, h.ProduceConfigEvent(event.ConfigChanged(cfg)))
	require.Len(t, h.Poll(0), 3)

	done := make(chan error, 1)
	go func() {
		done <- h.ProduceLifecycleEvent(event.WindowCreated(event.NewWindowHandle(1, "main")))
	}()
	evs := h.Poll(time.Second)
	require.Len(t, evs, 1)
	h.Acknowledge(evs[0].ID)
	require.NoError(t, <-done)
	require.NoError(t, rec.Err())

	trace, err := s.ReadTrace(ctx, "live")
	require.NoError(t, err)
	want := []Record{
		{HostID: "live", EventID: 1, Kind: "Start", DeliveredSeq: 1},
		{HostID: "live", EventID: 2, Kind: "Resume", DeliveredSeq: 2},
		{HostID: "live", EventID: 4, Kind: "ConfigChanged", DeliveredSeq: 3},
		{HostID: "live", EventID: 5, Kind: "WindowCreated", Synchronous: true, DeliveredSeq: 4, Ack: "acked"},
		{HostID: "live", EventID: 3, Kind: "ConfigChanged", Ack: "superseded"},
	}
	if diff := cmp.Diff(want, trace, cmpopts.IgnoreFields(Record{}, "Payload")); diff != "" {
		t.Errorf("ReadTrace() mismatch (-want +got):\n%s", diff)
	}
	assert.Contains(t, trace[2].Payload, `"density":480`)

	hosts, err := s.ListHosts(ctx)
	require.NoError(t, err)
	require.Len(t, hosts, 1)
	assert.Equal(t, 5, hosts[0].Events)
}
