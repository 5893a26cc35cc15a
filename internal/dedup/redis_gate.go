package dedup

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisGate is the durable dedup policy: one atomic SET NX with a TTL per
// identifier. The conditional write is what makes concurrent admission
// attempts safe; there is no separate check-then-write window.
type RedisGate struct {
	client *redis.Client
	ttl    time.Duration
	logger *slog.Logger
}

// NewRedisGate creates a gate backed by the given Redis client. ttl bounds
// how long an identifier stays protected against re-admission.
func NewRedisGate(client *redis.Client, ttl time.Duration, logger *slog.Logger) *RedisGate {
	return &RedisGate{
		client: client,
		ttl:    ttl,
		logger: logger.With("component", "dedup_gate"),
	}
}

// Admit attempts to create the identifier's key. Creation succeeding means
// the identifier was unseen within the TTL and the event may proceed.
func (g *RedisGate) Admit(ctx context.Context, eventID string) (bool, error) {
	if eventID == "" {
		return true, nil
	}

	key := fmt.Sprintf("analytics:event:%s", eventID)
	created, err := g.client.SetNX(ctx, key, 1, g.ttl).Result()
	if err != nil {
		return false, fmt.Errorf("dedup SETNX failed: %w", err)
	}

	if !created {
		g.logger.Debug("duplicate_event_rejected", "event_id", eventID)
	}
	return created, nil
}
