// Package consumer reads order events from a Redis Stream using a consumer
// group, giving at-least-once delivery; the aggregation engine's dedup gate
// compensates for redeliveries.
package consumer

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"orderanalytics/internal/models"
)

// EventHandler processes one decoded order event.
type EventHandler func(ctx context.Context, event *models.OrderEvent) error

// Config holds consumer configuration.
type Config struct {
	StreamKey     string
	ConsumerGroup string
	ConsumerName  string
	BlockTime     time.Duration
	BatchSize     int64
}

// Consumer reads order events from Redis Streams with XREADGROUP + XACK.
type Consumer struct {
	client        *redis.Client
	streamKey     string
	consumerGroup string
	consumerName  string
	blockTime     time.Duration
	batchSize     int64
	handler       EventHandler
	logger        *slog.Logger
}

// New creates a consumer on an existing Redis client, creating the consumer
// group (and the stream, if missing) on first use.
func New(client *redis.Client, cfg Config, handler EventHandler, logger *slog.Logger) (*Consumer, error) {
	if cfg.BlockTime <= 0 {
		cfg.BlockTime = 5 * time.Second
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 10
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	err := client.XGroupCreateMkStream(ctx, cfg.StreamKey, cfg.ConsumerGroup, "0").Err()
	if err != nil && !strings.Contains(err.Error(), "BUSYGROUP") {
		return nil, fmt.Errorf("failed to create consumer group: %w", err)
	}

	c := &Consumer{
		client:        client,
		streamKey:     cfg.StreamKey,
		consumerGroup: cfg.ConsumerGroup,
		consumerName:  cfg.ConsumerName,
		blockTime:     cfg.BlockTime,
		batchSize:     cfg.BatchSize,
		handler:       handler,
		logger:        logger.With("component", "consumer", "stream_key", cfg.StreamKey),
	}

	c.logger.Info("consumer_initialized",
		"consumer_group", cfg.ConsumerGroup,
		"consumer_name", cfg.ConsumerName,
	)
	return c, nil
}

// Start consumes messages until the context is cancelled. A failure on one
// message never stops the loop; the next message is still processed.
func (c *Consumer) Start(ctx context.Context) error {
	c.logger.Info("consumer_starting")

	for {
		select {
		case <-ctx.Done():
			c.logger.Info("consumer_stopping")
			return ctx.Err()
		default:
			streams, err := c.client.XReadGroup(ctx, &redis.XReadGroupArgs{
				Group:    c.consumerGroup,
				Consumer: c.consumerName,
				Streams:  []string{c.streamKey, ">"},
				Count:    c.batchSize,
				Block:    c.blockTime,
			}).Result()

			if err != nil {
				if err == redis.Nil {
					continue
				}
				if ctx.Err() != nil {
					continue
				}
				c.logger.Error("xreadgroup_failed", "error", err)
				time.Sleep(time.Second)
				continue
			}

			for _, stream := range streams {
				for _, message := range stream.Messages {
					if err := c.processMessage(ctx, message); err != nil {
						c.logger.Error("message_processing_failed",
							"stream_id", message.ID,
							"error", err,
						)
						// Fall through to XACK: a poison message must not be
						// redelivered forever, and the dedup gate makes a
						// deliberate retry of a good message safe anyway.
					}

					if err := c.client.XAck(ctx, c.streamKey, c.consumerGroup, message.ID).Err(); err != nil {
						c.logger.Error("xack_failed",
							"stream_id", message.ID,
							"error", err,
						)
					}
				}
			}
		}
	}
}

// processMessage deserializes one stream entry and hands it to the handler.
// Entries carry the event JSON under the "data" field.
func (c *Consumer) processMessage(ctx context.Context, msg redis.XMessage) error {
	dataField, ok := msg.Values["data"]
	if !ok {
		return fmt.Errorf("message missing 'data' field")
	}
	payload, ok := dataField.(string)
	if !ok {
		return fmt.Errorf("data field is not a string")
	}

	event, err := models.DecodeOrderEvent([]byte(payload))
	if err != nil {
		return fmt.Errorf("event decode failed: %w", err)
	}

	c.logger.Debug("event_received",
		"stream_id", msg.ID,
		"event_type", event.EventType,
		"order_id", event.OrderID,
	)

	if err := c.handler(ctx, event); err != nil {
		return fmt.Errorf("handler failed: %w", err)
	}
	return nil
}
