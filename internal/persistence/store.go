// Package persistence durably stores the metrics snapshot and the auxiliary
// recent-orders read model in Redis.
package persistence

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"orderanalytics/internal/models"
)

const (
	metricsKey      = "analytics:metrics"
	recentOrdersKey = "recent_orders"
	ordersTodayKey  = "total_orders_today"
	revenueTodayKey = "revenue_today"

	recentOrdersLimit = 100
)

// Store persists the metrics snapshot as a single Redis hash: scalar fields
// as their literal string form, each nested map JSON-encoded under its own
// field. Load reverses the same encoding.
type Store struct {
	client *redis.Client
	logger *slog.Logger
}

// New creates a store backed by the given Redis client.
func New(client *redis.Client, logger *slog.Logger) *Store {
	return &Store{
		client: client,
		logger: logger.With("component", "persistence"),
	}
}

// SaveSnapshot writes every snapshot field in one HSET. Called synchronously
// after each mutating event; durability lag is one event-processing step.
func (s *Store) SaveSnapshot(ctx context.Context, snap *models.MetricsSnapshot) error {
	fields, err := snapshotFields(snap)
	if err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}

	if err := s.client.HSet(ctx, metricsKey, fields).Err(); err != nil {
		return fmt.Errorf("redis HSET failed: %w", err)
	}
	return nil
}

// LoadSnapshot reads the persisted snapshot. A missing hash returns
// (nil, nil); the caller keeps its all-zero defaults. Partial or corrupt
// fields degrade to their defaults instead of failing startup.
func (s *Store) LoadSnapshot(ctx context.Context) (*models.MetricsSnapshot, error) {
	data, err := s.client.HGetAll(ctx, metricsKey).Result()
	if err != nil {
		return nil, fmt.Errorf("redis HGETALL failed: %w", err)
	}
	if len(data) == 0 {
		return nil, nil
	}

	snap := snapshotFromFields(data, s.logger)

	s.logger.Info("snapshot_loaded",
		"total_orders", snap.TotalOrders,
		"total_revenue", snap.TotalRevenue,
		"minute_buckets", len(snap.OrdersPerMinute),
		"hour_buckets", len(snap.OrdersPerHour),
	)
	return snap, nil
}

// RecordRecentOrder pushes the created order onto the bounded rolling buffer
// and bumps the daily counters. This is a read-model convenience, not part
// of the aggregation invariants; callers treat failures as non-fatal.
func (s *Store) RecordRecentOrder(ctx context.Context, event *models.OrderEvent, at time.Time) error {
	entry := map[string]any{
		"eventId":     event.EventID,
		"eventType":   event.EventType,
		"orderId":     event.OrderID,
		"totalAmount": event.TotalAmount,
		"status":      event.CreationStatus(),
		"timestamp":   at.Format(time.RFC3339Nano),
	}
	payload, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("encode recent order: %w", err)
	}

	pipe := s.client.Pipeline()
	pipe.LPush(ctx, recentOrdersKey, payload)
	pipe.LTrim(ctx, recentOrdersKey, 0, recentOrdersLimit-1)
	pipe.Incr(ctx, ordersTodayKey)
	pipe.IncrByFloat(ctx, revenueTodayKey, event.TotalAmount)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("recent order pipeline failed: %w", err)
	}
	return nil
}

// RecentOrders returns up to limit raw entries from the rolling buffer,
// newest first. Entries that fail to decode are skipped.
func (s *Store) RecentOrders(ctx context.Context, limit int) ([]json.RawMessage, error) {
	if limit < 1 || limit > recentOrdersLimit {
		limit = recentOrdersLimit
	}

	raw, err := s.client.LRange(ctx, recentOrdersKey, 0, int64(limit-1)).Result()
	if err != nil {
		return nil, fmt.Errorf("redis LRANGE failed: %w", err)
	}

	orders := make([]json.RawMessage, 0, len(raw))
	for _, entry := range raw {
		if !json.Valid([]byte(entry)) {
			continue
		}
		orders = append(orders, json.RawMessage(entry))
	}
	return orders, nil
}

// Ping reports whether the backing Redis is reachable.
func (s *Store) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

// Close closes the Redis connection.
func (s *Store) Close() error {
	return s.client.Close()
}
