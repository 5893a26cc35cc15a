package models

import "testing"

func TestOrderEventKind(t *testing.T) {
	tests := []struct {
		eventType string
		want      EventKind
	}{
		{"OrderCreated", KindOrderCreated},
		{"OrderStatusChanged", KindOrderStatusChanged},
		{"OrderCancelled", KindOrderCancelled},
		{"PaymentReceived", KindUnknown},
		{"", KindUnknown},
	}

	for _, tt := range tests {
		event := &OrderEvent{EventType: tt.eventType}
		if got := event.Kind(); got != tt.want {
			t.Errorf("Kind(%q) = %v, want %v", tt.eventType, got, tt.want)
		}
	}
}

func TestDecodeOrderEvent(t *testing.T) {
	payload := `{
		"eventId": "evt-1",
		"eventType": "OrderCreated",
		"orderId": "ord-42",
		"totalAmount": 99.5,
		"timestamp": "2024-03-05T10:15:30Z",
		"status": "PENDING"
	}`

	event, err := DecodeOrderEvent([]byte(payload))
	if err != nil {
		t.Fatalf("decode failed: %v", err)
	}

	if event.EventID != "evt-1" {
		t.Errorf("expected eventId evt-1, got %q", event.EventID)
	}
	if event.Kind() != KindOrderCreated {
		t.Errorf("expected OrderCreated kind, got %v", event.Kind())
	}
	if event.TotalAmount != 99.5 {
		t.Errorf("expected amount 99.5, got %v", event.TotalAmount)
	}
	if string(event.Timestamp) != `"2024-03-05T10:15:30Z"` {
		t.Errorf("timestamp not kept raw: %s", event.Timestamp)
	}
}

func TestDecodeOrderEventInvalid(t *testing.T) {
	if _, err := DecodeOrderEvent([]byte(`{not json`)); err == nil {
		t.Error("expected error for malformed payload")
	}
}

func TestCreationStatus(t *testing.T) {
	tests := []struct {
		name  string
		event OrderEvent
		want  string
	}{
		{"status field", OrderEvent{Status: "CONFIRMED"}, "CONFIRMED"},
		{"orderStatus fallback", OrderEvent{OrderStatus: "NEW"}, "NEW"},
		{"default", OrderEvent{}, "PENDING"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.event.CreationStatus(); got != tt.want {
				t.Errorf("expected %q, got %q", tt.want, got)
			}
		})
	}
}

func TestTransitionStatuses(t *testing.T) {
	event := OrderEvent{PreviousStatus: "PENDING", Status: "SHIPPED"}
	old, next := event.TransitionStatuses()
	if old != "PENDING" || next != "SHIPPED" {
		t.Errorf("expected PENDING->SHIPPED, got %s->%s", old, next)
	}

	event = OrderEvent{OldStatus: "PENDING", NewStatus: "CONFIRMED", Status: "ignored"}
	old, next = event.TransitionStatuses()
	if old != "PENDING" || next != "CONFIRMED" {
		t.Errorf("expected PENDING->CONFIRMED, got %s->%s", old, next)
	}
}

func TestSnapshotClone(t *testing.T) {
	snap := NewMetricsSnapshot()
	snap.TotalOrders = 3
	snap.TotalRevenue = 120
	snap.OrdersByStatus["PENDING"] = 3
	snap.OrdersPerMinute["2024-03-05-10-15"] = 3

	clone := snap.Clone()
	clone.OrdersByStatus["PENDING"] = 99
	clone.OrdersPerMinute["2024-03-05-10-15"] = 99

	if snap.OrdersByStatus["PENDING"] != 3 {
		t.Error("clone shares the status map with the original")
	}
	if snap.OrdersPerMinute["2024-03-05-10-15"] != 3 {
		t.Error("clone shares the minute map with the original")
	}
}
