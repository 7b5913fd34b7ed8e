package catalog

import (
	"time"

	"github.com/appetiteclub/apt"
	"github.com/google/uuid"
)

type Restaurant struct {
	ID        uuid.UUID         `json:"id" bson:"_id"`
	Names     map[string]string `json:"names" bson:"names"`
	Timezone  string            `json:"timezone,omitempty" bson:"timezone,omitempty"`
	CreatedAt time.Time         `json:"created_at" bson:"created_at"`
	UpdatedAt time.Time         `json:"updated_at" bson:"updated_at"`
}

func NewRestaurant(names map[string]string, timezone string) *Restaurant {
	return &Restaurant{
		ID:       apt.GenerateNewID(),
		Names:    names,
		Timezone: timezone,
	}
}

func (r *Restaurant) GetID() uuid.UUID {
	return r.ID
}

func (r *Restaurant) ResourceType() string {
	return "restaurant"
}

func (r *Restaurant) BeforeCreate() {
	if r.ID == uuid.Nil {
		r.ID = apt.GenerateNewID()
	}
	r.CreatedAt = time.Now()
	r.UpdatedAt = time.Now()
}

// Location is where "today" is measured for order numbering.
// Unknown or empty zones fall back to the service local time.
func (r *Restaurant) Location() *time.Location {
	if r == nil || r.Timezone == "" {
		return time.Local
	}
	loc, err := time.LoadLocation(r.Timezone)
	if err != nil {
		return time.Local
	}
	return loc
}
