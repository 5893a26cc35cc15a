// Package push fans realtime stats out to registered subscribers.
// Broadcasts are best-effort: one slow or gone subscriber never blocks
// event processing or the other subscribers.
package push

import (
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"orderanalytics/internal/instrumentation"
	"orderanalytics/internal/models"
)

const defaultBuffer = 4

// Hub is a registry of subscriber channels. Broadcasting iterates a stable
// copy of the registry; removal happens only through the synchronized
// unsubscribe path, never mid-iteration over live state.
type Hub struct {
	mu      sync.Mutex
	subs    map[string]chan *models.RealtimeStats
	logger  *slog.Logger
	metrics *instrumentation.Metrics
}

// NewHub creates an empty hub. metrics may be nil.
func NewHub(logger *slog.Logger, metrics *instrumentation.Metrics) *Hub {
	return &Hub{
		subs:    make(map[string]chan *models.RealtimeStats),
		logger:  logger.With("component", "push_hub"),
		metrics: metrics,
	}
}

// Subscribe registers a new consumer and returns its identifier and channel.
// The channel is closed when the subscriber is removed.
func (h *Hub) Subscribe() (string, <-chan *models.RealtimeStats) {
	id := uuid.NewString()
	ch := make(chan *models.RealtimeStats, defaultBuffer)

	h.mu.Lock()
	h.subs[id] = ch
	count := len(h.subs)
	h.mu.Unlock()

	h.logger.Info("subscriber_registered", "subscriber_id", id, "subscribers", count)
	if h.metrics != nil {
		h.metrics.SetPushSubscribers(count)
	}
	return id, ch
}

// Unsubscribe removes a consumer and closes its channel. Safe to call for an
// already-removed identifier.
func (h *Hub) Unsubscribe(id string) {
	h.mu.Lock()
	removed := h.removeLocked(id)
	count := len(h.subs)
	h.mu.Unlock()

	if !removed {
		return
	}
	h.logger.Info("subscriber_removed", "subscriber_id", id, "subscribers", count)
	if h.metrics != nil {
		h.metrics.SetPushSubscribers(count)
	}
}

// removeLocked deletes and closes one subscription. Caller holds the mutex,
// which is what keeps the close from racing an in-flight Broadcast send.
func (h *Hub) removeLocked(id string) bool {
	ch, ok := h.subs[id]
	if !ok {
		return false
	}
	delete(h.subs, id)
	close(ch)
	return true
}

// Broadcast delivers stats to every subscriber without blocking. A
// subscriber whose buffer is full is dropped; removal happens after the
// iteration, never while walking the registry.
func (h *Hub) Broadcast(stats *models.RealtimeStats) {
	h.mu.Lock()
	var stale []string
	for id, ch := range h.subs {
		select {
		case ch <- stats:
		default:
			stale = append(stale, id)
		}
	}
	for _, id := range stale {
		h.removeLocked(id)
	}
	count := len(h.subs)
	h.mu.Unlock()

	for _, id := range stale {
		h.logger.Warn("slow_subscriber_dropped", "subscriber_id", id)
	}
	if len(stale) > 0 && h.metrics != nil {
		h.metrics.SetPushSubscribers(count)
	}
}

// Size returns the number of registered subscribers.
func (h *Hub) Size() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs)
}
