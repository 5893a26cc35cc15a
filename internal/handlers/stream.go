package handlers

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"

	"orderanalytics/internal/models"
)

// Broadcaster is the push hub as seen by the stream handler.
type Broadcaster interface {
	Subscribe() (string, <-chan *models.RealtimeStats)
	Unsubscribe(id string)
}

// StreamHandler handles GET /events/stream: a server-sent-events channel
// that delivers realtime stats on subscribe and on every push interval.
type StreamHandler struct {
	hub      Broadcaster
	provider *RealtimeProvider
	logger   *slog.Logger
}

// NewStreamHandler creates the SSE stream handler.
func NewStreamHandler(hub Broadcaster, provider *RealtimeProvider, logger *slog.Logger) *StreamHandler {
	return &StreamHandler{
		hub:      hub,
		provider: provider,
		logger:   logger.With("handler", "stream"),
	}
}

func (h *StreamHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")

	id, ch := h.hub.Subscribe()
	defer h.hub.Unsubscribe(id)

	// Initial frame so the client does not wait a full push interval.
	if err := writeEvent(w, h.provider.Stats(r.Context())); err != nil {
		h.logger.Debug("subscriber_write_failed", "subscriber_id", id, "error", err)
		return
	}

	for {
		select {
		case <-r.Context().Done():
			return
		case stats, ok := <-ch:
			if !ok {
				// Dropped by the hub (slow consumer).
				return
			}
			if err := writeEvent(w, stats); err != nil {
				h.logger.Debug("subscriber_write_failed", "subscriber_id", id, "error", err)
				return
			}
		}
	}
}

// writeEvent sends one SSE data frame and flushes it through any middleware
// wrappers via http.ResponseController.
func writeEvent(w http.ResponseWriter, data any) error {
	payload, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("marshal SSE data: %w", err)
	}
	if _, err := fmt.Fprintf(w, "data: %s\n\n", payload); err != nil {
		return fmt.Errorf("write SSE event: %w", err)
	}
	if err := http.NewResponseController(w).Flush(); err != nil {
		return fmt.Errorf("flush SSE event: %w", err)
	}
	return nil
}
