package alert

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// collectSink records delivered events and signals each delivery.
type collectSink struct {
	mu        sync.Mutex
	events    []Event
	delivered chan struct{}
}

func newCollectSink(capacity int) *collectSink {
	return &collectSink{delivered: make(chan struct{}, capacity)}
}

func (s *collectSink) deliver(_ context.Context, event Event) error {
	s.mu.Lock()
	s.events = append(s.events, event)
	s.mu.Unlock()
	s.delivered <- struct{}{}
	return nil
}

func (s *collectSink) snapshot() []Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Event, len(s.events))
	copy(out, s.events)
	return out
}

func waitForDeliveries(t *testing.T, sink *collectSink, n int) {
	t.Helper()
	for i := 0; i < n; i++ {
		select {
		case <-sink.delivered:
		case <-time.After(2 * time.Second):
			t.Fatalf("timed out waiting for delivery %d of %d", i+1, n)
		}
	}
}

func TestDispatcherDeliversEvent(t *testing.T) {
	sink := newCollectSink(1)
	d := NewDispatcher(5, 10, sink.deliver)

	err := d.PriceDrop(context.Background(), []int64{42, 7})
	require.NoError(t, err)
	waitForDeliveries(t, sink, 1)

	events := sink.snapshot()
	require.Len(t, events, 1)
	assert.Equal(t, []int64{42, 7}, events[0].ProductIDs)
	assert.NotEmpty(t, events[0].ID)
	assert.False(t, events[0].OccurredAt.IsZero())
}

func TestDispatcherEmptyProductIDsIsNoOp(t *testing.T) {
	sink := newCollectSink(1)
	d := NewDispatcher(5, 10, sink.deliver)

	require.NoError(t, d.PriceDrop(context.Background(), nil))

	select {
	case <-sink.delivered:
		t.Fatal("no event should be delivered for empty product ids")
	case <-time.After(50 * time.Millisecond):
	}
}

func TestDispatcherNilSinkNeverFails(t *testing.T) {
	d := NewDispatcher(5, 10, nil)
	assert.NoError(t, d.PriceDrop(context.Background(), []int64{1}))
}

func TestDispatcherRateLimitDropsExcess(t *testing.T) {
	sink := newCollectSink(16)
	// Tiny bucket: one immediate token, essentially no refill during the test
	d := NewDispatcher(0.001, 1, sink.deliver)

	ctx := context.Background()
	for i := 0; i < 5; i++ {
		require.NoError(t, d.PriceDrop(ctx, []int64{int64(i)}), "throttled dispatch must not error")
	}

	waitForDeliveries(t, sink, 1)
	select {
	case <-sink.delivered:
		t.Fatal("rate limiter should have dropped the excess alerts")
	case <-time.After(100 * time.Millisecond):
	}
}

func TestDispatcherSurvivesCancelledContext(t *testing.T) {
	sink := newCollectSink(1)
	d := NewDispatcher(5, 10, sink.deliver)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	// The record is already committed when alerts go out; a dead request
	// context must not lose the event.
	require.NoError(t, d.PriceDrop(ctx, []int64{1}))
	waitForDeliveries(t, sink, 1)
}

func TestDispatcherDefaults(t *testing.T) {
	d := NewDispatcher(0, 0, nil)
	require.NotNil(t, d.limiter)
	assert.Equal(t, 10, d.limiter.Burst())
}
