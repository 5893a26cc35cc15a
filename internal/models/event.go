package models

import "encoding/json"

// EventKind is the closed set of order event kinds the service understands.
// Decoding happens once at the transport boundary; everything downstream
// switches exhaustively on the kind instead of re-inspecting strings.
type EventKind int

const (
	KindUnknown EventKind = iota
	KindOrderCreated
	KindOrderStatusChanged
	KindOrderCancelled
)

func (k EventKind) String() string {
	switch k {
	case KindOrderCreated:
		return "OrderCreated"
	case KindOrderStatusChanged:
		return "OrderStatusChanged"
	case KindOrderCancelled:
		return "OrderCancelled"
	default:
		return "Unknown"
	}
}

// OrderEvent is the wire shape of an order lifecycle event as produced by
// the order service. Producers disagree on field names for status transitions
// and on timestamp encoding, so Timestamp stays raw until normalized.
type OrderEvent struct {
	EventID     string          `json:"eventId"`
	EventType   string          `json:"eventType"`
	OrderID     string          `json:"orderId"`
	TotalAmount float64         `json:"totalAmount"`
	Timestamp   json.RawMessage `json:"timestamp"`

	Status         string `json:"status"`
	OrderStatus    string `json:"orderStatus"`
	OldStatus      string `json:"oldStatus"`
	PreviousStatus string `json:"previousStatus"`
	NewStatus      string `json:"newStatus"`
}

// Kind maps the producer's eventType string onto the closed kind set.
func (e *OrderEvent) Kind() EventKind {
	switch e.EventType {
	case "OrderCreated":
		return KindOrderCreated
	case "OrderStatusChanged":
		return KindOrderStatusChanged
	case "OrderCancelled":
		return KindOrderCancelled
	default:
		return KindUnknown
	}
}

// CreationStatus resolves the initial status of a created order,
// defaulting to PENDING when the producer sent none.
func (e *OrderEvent) CreationStatus() string {
	if e.Status != "" {
		return e.Status
	}
	if e.OrderStatus != "" {
		return e.OrderStatus
	}
	return "PENDING"
}

// TransitionStatuses resolves the (old, new) pair of a status change across
// the field name variants producers use.
func (e *OrderEvent) TransitionStatuses() (string, string) {
	old := e.OldStatus
	if old == "" {
		old = e.PreviousStatus
	}
	next := e.NewStatus
	if next == "" {
		next = e.Status
	}
	return old, next
}

// CancellationPreviousStatus resolves the status an order held before it was
// cancelled. Cancellation producers prefer previousStatus over oldStatus.
func (e *OrderEvent) CancellationPreviousStatus() string {
	if e.PreviousStatus != "" {
		return e.PreviousStatus
	}
	return e.OldStatus
}

// DecodeOrderEvent deserializes a raw payload into an OrderEvent.
func DecodeOrderEvent(data []byte) (*OrderEvent, error) {
	var event OrderEvent
	if err := json.Unmarshal(data, &event); err != nil {
		return nil, err
	}
	return &event, nil
}
