package consumer

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/redis/go-redis/v9"

	"orderanalytics/internal/models"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testConsumer(handler EventHandler) *Consumer {
	return &Consumer{
		streamKey:     "order-events",
		consumerGroup: "analytics-service",
		consumerName:  "analytics-test",
		handler:       handler,
		logger:        discardLogger(),
	}
}

func TestProcessMessageDecodesAndDispatches(t *testing.T) {
	var received *models.OrderEvent
	c := testConsumer(func(_ context.Context, event *models.OrderEvent) error {
		received = event
		return nil
	})

	msg := redis.XMessage{
		ID: "1-0",
		Values: map[string]interface{}{
			"data": `{"eventId":"evt-1","eventType":"OrderCreated","orderId":"ord-1","totalAmount":25.5,"timestamp":"2024-03-05T10:15:30Z"}`,
		},
	}

	if err := c.processMessage(context.Background(), msg); err != nil {
		t.Fatalf("process failed: %v", err)
	}
	if received == nil {
		t.Fatal("handler not invoked")
	}
	if received.EventID != "evt-1" || received.TotalAmount != 25.5 {
		t.Errorf("unexpected event: %+v", received)
	}
}

func TestProcessMessageMissingDataField(t *testing.T) {
	c := testConsumer(func(context.Context, *models.OrderEvent) error {
		t.Fatal("handler must not run")
		return nil
	})

	msg := redis.XMessage{ID: "1-0", Values: map[string]interface{}{"other": "x"}}
	if err := c.processMessage(context.Background(), msg); err == nil {
		t.Error("expected error for missing data field")
	}
}

func TestProcessMessageMalformedJSON(t *testing.T) {
	c := testConsumer(func(context.Context, *models.OrderEvent) error {
		t.Fatal("handler must not run")
		return nil
	})

	msg := redis.XMessage{ID: "1-0", Values: map[string]interface{}{"data": `{broken`}}
	if err := c.processMessage(context.Background(), msg); err == nil {
		t.Error("expected error for malformed payload")
	}
}

func TestProcessMessageNonStringData(t *testing.T) {
	c := testConsumer(func(context.Context, *models.OrderEvent) error {
		t.Fatal("handler must not run")
		return nil
	})

	msg := redis.XMessage{ID: "1-0", Values: map[string]interface{}{"data": 42}}
	if err := c.processMessage(context.Background(), msg); err == nil {
		t.Error("expected error for non-string data field")
	}
}
