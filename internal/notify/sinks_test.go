package notify

import (
	"context"
	"encoding/json"
	"errors"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"chain-gateway/internal/domain"
)

type fakeWriter struct {
	msgs   []kafka.Message
	err    error
	closed bool
}

func (w *fakeWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	if w.err != nil {
		return w.err
	}
	w.msgs = append(w.msgs, msgs...)
	return nil
}

func (w *fakeWriter) Close() error {
	w.closed = true
	return nil
}

func TestKafkaSink_Publish(t *testing.T) {
	w := &fakeWriter{}
	s := &KafkaSink{writer: w}

	alert := &domain.Alert{ID: "oracle_uniswap_unhealthy", Severity: domain.SeverityCritical}
	require.NoError(t, s.Publish(context.Background(), domain.Event{
		ID: "e1", Type: domain.EventAlert, Alert: alert, Timestamp: 1700000000000,
	}))
	require.NoError(t, s.Publish(context.Background(), domain.Event{
		ID: "e2", Type: domain.EventRouteGenerated, Timestamp: 1700000000000,
	}))

	require.Len(t, w.msgs, 2)
	assert.Equal(t, "oracle_uniswap_unhealthy", string(w.msgs[0].Key))
	assert.Equal(t, "route_generated", string(w.msgs[1].Key))
	assert.Equal(t, int64(1700000000000), w.msgs[0].Time.UnixMilli())

	var decoded domain.Event
	require.NoError(t, json.Unmarshal(w.msgs[0].Value, &decoded))
	assert.Equal(t, "e1", decoded.ID)

	w.err = errors.New("leader not available")
	assert.ErrorContains(t, s.Publish(context.Background(), domain.Event{Type: domain.EventAlert}), "leader not available")

	require.NoError(t, s.Close())
	assert.True(t, w.closed)
}

func TestNewKafkaSink(t *testing.T) {
	s := NewKafkaSink(KafkaConfig{Brokers: []string{"localhost:9092"}, Topic: "gateway-events"})
	w, ok := s.writer.(*kafka.Writer)
	require.True(t, ok)
	assert.Equal(t, "gateway-events", w.Topic)
	assert.Equal(t, "kafka", s.Name())
}

func TestWebSocketBroadcaster(t *testing.T) {
	b := NewWebSocketBroadcaster(nil)
	server := httptest.NewServer(b.Handler())
	defer server.Close()

	url := "ws" + strings.TrimPrefix(server.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()

	require.Eventually(t, func() bool { return b.Clients() == 1 }, time.Second, 10*time.Millisecond)

	require.NoError(t, b.Publish(context.Background(), domain.Event{
		ID:    "e1",
		Type:  domain.EventAlert,
		Alert: &domain.Alert{ID: "bridge_wormhole_unhealthy", Severity: domain.SeverityCritical},
	}))

	conn.SetReadDeadline(time.Now().Add(time.Second))
	var got domain.Event
	require.NoError(t, conn.ReadJSON(&got))
	assert.Equal(t, "bridge_wormhole_unhealthy", got.Alert.ID)

	conn.Close()
	require.Eventually(t, func() bool { return b.Clients() == 0 }, time.Second, 10*time.Millisecond)
}
