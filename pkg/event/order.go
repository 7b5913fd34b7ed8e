package event

import "time"

const (
	EventOrderCreated       = "order.created"
	EventOrderStatusChanged = "order.status_changed"
)

// OrderCreatedEvent is pushed to the restaurant room when a guest places an order.
type OrderCreatedEvent struct {
	EventType   string    `json:"event_type"`
	OccurredAt  time.Time `json:"occurred_at"`
	Order       any       `json:"order"`
	TableNumber int       `json:"table_number"`
}

// OrderStatusChangedEvent is pushed to the restaurant room with the full order.
type OrderStatusChangedEvent struct {
	EventType      string    `json:"event_type"`
	OccurredAt     time.Time `json:"occurred_at"`
	PreviousStatus string    `json:"previous_status"`
	Order          any       `json:"order"`
}

// OrderTrackingEvent is the slim status update pushed to an order room.
// Guests tracking an order never see staff or table details.
type OrderTrackingEvent struct {
	EventType  string    `json:"event_type"`
	OccurredAt time.Time `json:"occurred_at"`
	OrderID    string    `json:"order_id"`
	Status     string    `json:"status"`
	UpdatedAt  time.Time `json:"updated_at"`
}
