package catalog

import (
	"strconv"
	"time"

	"github.com/appetiteclub/apt"
	"github.com/google/uuid"
)

type Table struct {
	ID           uuid.UUID `json:"id" bson:"_id"`
	RestaurantID uuid.UUID `json:"restaurant_id" bson:"restaurant_id"`
	Number       int       `json:"number" bson:"number"`
	Name         string    `json:"name,omitempty" bson:"name,omitempty"`
	Capacity     int       `json:"capacity" bson:"capacity"`
	Active       bool      `json:"active" bson:"active"`
	CreatedAt    time.Time `json:"created_at" bson:"created_at"`
	UpdatedAt    time.Time `json:"updated_at" bson:"updated_at"`
}

func NewTable(restaurantID uuid.UUID, number int) *Table {
	return &Table{
		ID:           apt.GenerateNewID(),
		RestaurantID: restaurantID,
		Number:       number,
		Capacity:     4,
		Active:       true,
	}
}

func (t *Table) GetID() uuid.UUID {
	return t.ID
}

func (t *Table) ResourceType() string {
	return "table"
}

func (t *Table) BeforeCreate() {
	if t.ID == uuid.Nil {
		t.ID = apt.GenerateNewID()
	}
	t.CreatedAt = time.Now()
	t.UpdatedAt = time.Now()
}

// DisplayName is the name when set, else "Table N".
func (t *Table) DisplayName() string {
	if t.Name != "" {
		return t.Name
	}
	return "Table " + strconv.Itoa(t.Number)
}
