// Package handlers is the thin HTTP query surface over the aggregation
// engine. Every response is servable from the snapshot alone, plus the
// auxiliary recent-orders buffer for the realtime view.
package handlers

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"orderanalytics/internal/models"
)

// MetricsSource is the engine-facing read interface.
type MetricsSource interface {
	Snapshot() *models.MetricsSnapshot
	Trends(granularity string, window int) (*models.TrendsView, error)
	Realtime() (orders, revenue float64)
}

// RecentOrdersSource reads the rolling recent-orders buffer.
type RecentOrdersSource interface {
	RecentOrders(ctx context.Context, limit int) ([]json.RawMessage, error)
	Ping(ctx context.Context) error
}

// OrderMetricsHandler handles GET /metrics/orders.
type OrderMetricsHandler struct {
	engine MetricsSource
	logger *slog.Logger
}

// NewOrderMetricsHandler creates the order metrics handler.
func NewOrderMetricsHandler(engine MetricsSource, logger *slog.Logger) *OrderMetricsHandler {
	return &OrderMetricsHandler{
		engine: engine,
		logger: logger.With("handler", "order_metrics"),
	}
}

func (h *OrderMetricsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.engine.Snapshot(), h.logger)
}

// TrendsHandler handles GET /metrics/trends?interval={hour|minute}&window=N.
type TrendsHandler struct {
	engine MetricsSource
	logger *slog.Logger
}

// NewTrendsHandler creates the trends handler.
func NewTrendsHandler(engine MetricsSource, logger *slog.Logger) *TrendsHandler {
	return &TrendsHandler{
		engine: engine,
		logger: logger.With("handler", "trends"),
	}
}

func (h *TrendsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	interval := r.URL.Query().Get("interval")
	if interval == "" {
		interval = "hour"
	}

	window := 0
	if raw := r.URL.Query().Get("window"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			sendError(w, http.StatusBadRequest, "invalid_parameter", "window must be an integer")
			return
		}
		window = parsed
	}

	view, err := h.engine.Trends(interval, window)
	if err != nil {
		sendError(w, http.StatusBadRequest, "invalid_parameter", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, view, h.logger)
}

// RealtimeHandler handles GET /metrics/realtime.
type RealtimeHandler struct {
	provider *RealtimeProvider
	logger   *slog.Logger
}

// NewRealtimeHandler creates the realtime stats handler.
func NewRealtimeHandler(provider *RealtimeProvider, logger *slog.Logger) *RealtimeHandler {
	return &RealtimeHandler{
		provider: provider,
		logger:   logger.With("handler", "realtime"),
	}
}

func (h *RealtimeHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.provider.Stats(r.Context()), h.logger)
}

// RealtimeProvider builds the realtime stats view shared by the realtime
// endpoint, the SSE stream, and the push ticker.
type RealtimeProvider struct {
	engine MetricsSource
	store  RecentOrdersSource
	logger *slog.Logger
}

// NewRealtimeProvider creates a provider. store may be nil; the recent
// orders list is then always empty.
func NewRealtimeProvider(engine MetricsSource, store RecentOrdersSource, logger *slog.Logger) *RealtimeProvider {
	return &RealtimeProvider{
		engine: engine,
		store:  store,
		logger: logger.With("component", "realtime_provider"),
	}
}

// Stats assembles the current realtime view. A rolling-buffer read failure
// degrades to an empty list rather than failing the view.
func (p *RealtimeProvider) Stats(ctx context.Context) *models.RealtimeStats {
	orders, revenue := p.engine.Realtime()

	recent := []json.RawMessage{}
	if p.store != nil {
		entries, err := p.store.RecentOrders(ctx, 10)
		if err != nil {
			p.logger.Warn("recent_orders_read_failed", "error", err)
		} else {
			recent = entries
		}
	}

	return &models.RealtimeStats{
		CurrentOrdersPerMinute: orders,
		RevenuePerMinute:       revenue,
		RecentOrders:           recent,
	}
}

// HealthHandler handles GET /health.
func HealthHandler(store RecentOrdersSource) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		redisUp := false
		if store != nil && store.Ping(r.Context()) == nil {
			redisUp = true
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		json.NewEncoder(w).Encode(map[string]any{
			"status": "healthy",
			"services": map[string]bool{
				"redis": redisUp,
			},
		})
	}
}

func writeJSON(w http.ResponseWriter, status int, body any, logger *slog.Logger) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		logger.Error("json_encode_failed", "error", err)
	}
}

func sendError(w http.ResponseWriter, statusCode int, errorCode, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(models.ErrorResponse{
		Error:   errorCode,
		Message: message,
	})
}
