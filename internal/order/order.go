package order

import (
	"time"

	"github.com/appetiteclub/apt"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/appetiteclub/tableside/pkg/enums/orderstatus"
)

const (
	MinItemQuantity = 1
	MaxItemQuantity = 20
	MaxNotesLength  = 500
	MaxNoteLength   = 200
)

// Order is stored with its items in one document so creation is a single write.
// Table and Waiter are read projections and never persisted.
type Order struct {
	ID           uuid.UUID       `json:"id" bson:"_id"`
	RestaurantID uuid.UUID       `json:"restaurant_id" bson:"restaurant_id"`
	TableID      uuid.UUID       `json:"table_id" bson:"table_id"`
	Number       int             `json:"number" bson:"number"`
	Status       string          `json:"status" bson:"status"`
	Total        decimal.Decimal `json:"total" bson:"total"`
	Notes        string          `json:"notes,omitempty" bson:"notes,omitempty"`
	WaiterID     *uuid.UUID      `json:"waiter_id,omitempty" bson:"waiter_id,omitempty"`
	Items        []OrderItem     `json:"items" bson:"items"`
	Table        *TableRef       `json:"table,omitempty" bson:"-"`
	Waiter       *StaffRef       `json:"waiter,omitempty" bson:"-"`
	CreatedAt    time.Time       `json:"created_at" bson:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at" bson:"updated_at"`
}

type OrderItem struct {
	ID         uuid.UUID       `json:"id" bson:"id"`
	MenuItemID uuid.UUID       `json:"menu_item_id" bson:"menu_item_id"`
	Name       string          `json:"name" bson:"name"`
	Quantity   int             `json:"quantity" bson:"quantity"`
	UnitPrice  decimal.Decimal `json:"unit_price" bson:"unit_price"`
	Note       string          `json:"note,omitempty" bson:"note,omitempty"`
}

type TableRef struct {
	ID     uuid.UUID `json:"id"`
	Number int       `json:"number"`
	Name   string    `json:"name,omitempty"`
}

type StaffRef struct {
	ID   uuid.UUID `json:"id"`
	Name string    `json:"name"`
}

func NewOrder(restaurantID, tableID uuid.UUID) *Order {
	return &Order{
		ID:           apt.GenerateNewID(),
		RestaurantID: restaurantID,
		TableID:      tableID,
		Status:       orderstatus.Statuses.Pending.Code(),
		Total:        decimal.Zero,
		Items:        []OrderItem{},
	}
}

func (o *Order) GetID() uuid.UUID {
	return o.ID
}

func (o *Order) ResourceType() string {
	return "order"
}

func (o *Order) CurrentStatus() orderstatus.Status {
	if s := orderstatus.ByName(o.Status); s != nil {
		return *s
	}
	return orderstatus.Status{Name: o.Status}
}

// AddItem appends an immutable line and keeps the total in sync.
func (o *Order) AddItem(item OrderItem) {
	if item.ID == uuid.Nil {
		item.ID = apt.GenerateNewID()
	}
	o.Items = append(o.Items, item)
	o.Total = o.Total.Add(item.LineTotal())
}

func (o *Order) AssignWaiter(staffID uuid.UUID) {
	id := staffID
	o.WaiterID = &id
}

func (o *Order) HasWaiter() bool {
	return o.WaiterID != nil && *o.WaiterID != uuid.Nil
}

func (i OrderItem) LineTotal() decimal.Decimal {
	return i.UnitPrice.Mul(decimal.NewFromInt(int64(i.Quantity)))
}
