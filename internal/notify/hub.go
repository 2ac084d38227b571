// Package notify distributes gateway events (alerts, generated routes) to
// in-process subscribers and external sinks.
//
// Emission never blocks the caller: a subscriber or sink whose buffer is
// full misses the event and the drop is counted.
package notify

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"chain-gateway/internal/domain"
	"chain-gateway/internal/logging"
	"chain-gateway/internal/observability"
)

// DefaultBuffer is the per-subscriber event buffer.
const DefaultBuffer = 64

// sinkTimeout bounds a single sink delivery.
const sinkTimeout = 5 * time.Second

// Sink delivers events outside the process.
type Sink interface {
	Name() string
	Publish(ctx context.Context, e domain.Event) error
}

type subscriber struct {
	name string
	ch   chan domain.Event
}

// Hub fans events out to subscribers and sinks and tracks active alerts.
type Hub struct {
	mu     sync.RWMutex
	subs   map[*subscriber]struct{}
	alerts map[string]domain.Alert
	closed bool

	wg     sync.WaitGroup
	logger *zap.SugaredLogger
	now    func() time.Time
}

// NewHub creates a Hub.
func NewHub(logger *zap.SugaredLogger) *Hub {
	return &Hub{
		subs:   make(map[*subscriber]struct{}),
		alerts: make(map[string]domain.Alert),
		logger: logging.OrNop(logger).Named("notify"),
		now:    time.Now,
	}
}

// Subscribe registers an in-process observer. The returned cancel function
// unregisters it and closes the channel.
func (h *Hub) Subscribe(name string, buffer int) (<-chan domain.Event, func()) {
	if buffer <= 0 {
		buffer = DefaultBuffer
	}
	s := &subscriber{name: name, ch: make(chan domain.Event, buffer)}

	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		close(s.ch)
		return s.ch, func() {}
	}
	h.subs[s] = struct{}{}
	h.mu.Unlock()

	var once sync.Once
	return s.ch, func() {
		once.Do(func() { h.remove(s) })
	}
}

func (h *Hub) remove(s *subscriber) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.subs[s]; ok {
		delete(h.subs, s)
		close(s.ch)
	}
}

// AddSink starts a delivery loop for sink. Sink errors are logged and dropped.
func (h *Hub) AddSink(sink Sink, buffer int) {
	events, _ := h.Subscribe(sink.Name(), buffer)
	h.wg.Add(1)
	go func() {
		defer h.wg.Done()
		for e := range events {
			ctx, cancel := context.WithTimeout(context.Background(), sinkTimeout)
			if err := sink.Publish(ctx, e); err != nil {
				h.logger.Warnw("sink publish failed", "sink", sink.Name(), "event", e.Type, "error", err)
			}
			cancel()
		}
	}()
}

// Emit publishes e to every subscriber without blocking.
func (h *Hub) Emit(e domain.Event) {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.Timestamp == 0 {
		e.Timestamp = h.now().UnixMilli()
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for s := range h.subs {
		select {
		case s.ch <- e:
		default:
			observability.RecordEventDropped(s.name)
		}
	}
}

// RaiseAlert records alert as active and emits it. A later alert with the
// same ID replaces the earlier one.
func (h *Hub) RaiseAlert(sev domain.Severity, id, message string) domain.Alert {
	a := domain.Alert{
		ID:        id,
		Severity:  sev,
		Message:   message,
		Timestamp: h.now().UnixMilli(),
	}
	h.mu.Lock()
	h.alerts[id] = a
	h.mu.Unlock()

	h.emitAlert(a)
	return a
}

// ClearAlert removes an active alert and emits an info alert marked cleared.
// It reports false when no alert with id was active.
func (h *Hub) ClearAlert(id, message string) bool {
	h.mu.Lock()
	_, ok := h.alerts[id]
	delete(h.alerts, id)
	h.mu.Unlock()
	if !ok {
		return false
	}

	h.emitAlert(domain.Alert{
		ID:        id,
		Severity:  domain.SeverityInfo,
		Message:   message,
		Timestamp: h.now().UnixMilli(),
		Cleared:   true,
	})
	return true
}

// Notify emits a one-off alert that does not stay active.
func (h *Hub) Notify(sev domain.Severity, id, message string) {
	h.emitAlert(domain.Alert{
		ID:        id,
		Severity:  sev,
		Message:   message,
		Timestamp: h.now().UnixMilli(),
	})
}

func (h *Hub) emitAlert(a domain.Alert) {
	observability.RecordAlert(string(a.Severity))
	h.logger.Infow("alert", "id", a.ID, "severity", a.Severity, "message", a.Message, "cleared", a.Cleared)
	h.Emit(domain.Event{Type: domain.EventAlert, Alert: &a, Timestamp: a.Timestamp})
}

// ActiveAlerts returns uncleared alerts, newest first.
func (h *Hub) ActiveAlerts() []domain.Alert {
	h.mu.RLock()
	out := make([]domain.Alert, 0, len(h.alerts))
	for _, a := range h.alerts {
		out = append(out, a)
	}
	h.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if out[i].Timestamp != out[j].Timestamp {
			return out[i].Timestamp > out[j].Timestamp
		}
		return out[i].ID < out[j].ID
	})
	return out
}

// Close unregisters every subscriber and waits for sink loops to drain.
func (h *Hub) Close() {
	h.mu.Lock()
	h.closed = true
	for s := range h.subs {
		delete(h.subs, s)
		close(s.ch)
	}
	h.mu.Unlock()
	h.wg.Wait()
}
