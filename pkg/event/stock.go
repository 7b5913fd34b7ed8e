package event

import "time"

const (
	StockTopic                   = "stock.deductions"
	EventStockDeductionRequested = "stock.deduction.requested"
)

type StockLine struct {
	MenuItemID string `json:"menu_item_id"`
	Quantity   int    `json:"quantity"`
}

// StockDeductionRequestedEvent is emitted once an order is delivered.
// Consumers decrement ingredient stock from the menu item recipes.
type StockDeductionRequestedEvent struct {
	EventType    string      `json:"event_type"`
	OccurredAt   time.Time   `json:"occurred_at"`
	OrderID      string      `json:"order_id"`
	RestaurantID string      `json:"restaurant_id"`
	Lines        []StockLine `json:"lines"`
}
