package notify

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"chain-gateway/internal/domain"
)

func receive(t *testing.T, ch <-chan domain.Event) domain.Event {
	t.Helper()
	select {
	case e, ok := <-ch:
		require.True(t, ok, "channel closed")
		return e
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for event")
		return domain.Event{}
	}
}

func TestHub_EmitToSubscribers(t *testing.T) {
	h := NewHub(nil)
	a, cancelA := h.Subscribe("a", 1)
	b, cancelB := h.Subscribe("b", 1)
	defer cancelA()
	defer cancelB()

	h.Emit(domain.Event{Type: domain.EventRouteGenerated, Data: map[string]any{"routeId": "r1"}})

	for _, ch := range []<-chan domain.Event{a, b} {
		e := receive(t, ch)
		assert.Equal(t, domain.EventRouteGenerated, e.Type)
		assert.NotEmpty(t, e.ID)
		assert.NotZero(t, e.Timestamp)
	}
}

func TestHub_FullSubscriberDoesNotBlock(t *testing.T) {
	h := NewHub(nil)
	ch, cancel := h.Subscribe("slow", 1)
	defer cancel()

	done := make(chan struct{})
	go func() {
		for i := 0; i < 10; i++ {
			h.Emit(domain.Event{Type: domain.EventRouteGenerated})
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("emit blocked on a full subscriber")
	}
	assert.Len(t, ch, 1)
}

func TestHub_Unsubscribe(t *testing.T) {
	h := NewHub(nil)
	ch, cancel := h.Subscribe("x", 1)
	cancel()
	cancel()

	_, ok := <-ch
	assert.False(t, ok)
	h.Emit(domain.Event{Type: domain.EventAlert})
}

func TestHub_AlertLifecycle(t *testing.T) {
	h := NewHub(nil)
	clock := time.UnixMilli(1000)
	h.now = func() time.Time { return clock }
	ch, cancel := h.Subscribe("obs", 8)
	defer cancel()

	h.RaiseAlert(domain.SeverityCritical, "oracle_chainlink_unhealthy", "chainlink unhealthy")
	clock = clock.Add(time.Second)
	h.RaiseAlert(domain.SeverityCritical, "bridge_axelar_unhealthy", "axelar unhealthy")

	active := h.ActiveAlerts()
	require.Len(t, active, 2)
	assert.Equal(t, "bridge_axelar_unhealthy", active[0].ID, "newest first")

	e := receive(t, ch)
	require.NotNil(t, e.Alert)
	assert.Equal(t, domain.SeverityCritical, e.Alert.Severity)
	receive(t, ch)

	assert.True(t, h.ClearAlert("oracle_chainlink_unhealthy", "chainlink recovered"))
	assert.False(t, h.ClearAlert("oracle_chainlink_unhealthy", "again"))

	e = receive(t, ch)
	require.NotNil(t, e.Alert)
	assert.True(t, e.Alert.Cleared)
	assert.Equal(t, domain.SeverityInfo, e.Alert.Severity)
	assert.Len(t, h.ActiveAlerts(), 1)

	h.Notify(domain.SeverityWarning, "price_deviation", "sources disagree")
	e = receive(t, ch)
	assert.Equal(t, "price_deviation", e.Alert.ID)
	assert.Len(t, h.ActiveAlerts(), 1, "notify does not register an active alert")
}

type recordingSink struct {
	mu     sync.Mutex
	events []domain.Event
	err    error
}

func (s *recordingSink) Name() string { return "recording" }

func (s *recordingSink) Publish(_ context.Context, e domain.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, e)
	return s.err
}

func (s *recordingSink) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.events)
}

func TestHub_SinkDeliveryAndClose(t *testing.T) {
	h := NewHub(nil)
	sink := &recordingSink{err: errors.New("broker down")}
	h.AddSink(sink, 8)

	h.Emit(domain.Event{Type: domain.EventRouteGenerated})
	h.RaiseAlert(domain.SeverityWarning, "price_deviation", "x")

	h.Close()
	assert.Equal(t, 2, sink.count(), "close drains sink buffers")

	ch, _ := h.Subscribe("late", 1)
	_, ok := <-ch
	assert.False(t, ok, "subscribing after close yields a closed channel")
}
