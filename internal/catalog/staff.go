package catalog

import (
	"time"

	"github.com/appetiteclub/apt"
	"github.com/google/uuid"

	"github.com/appetiteclub/tableside/pkg/enums/staffrole"
)

type Staff struct {
	ID           uuid.UUID `json:"id" bson:"_id"`
	RestaurantID uuid.UUID `json:"restaurant_id" bson:"restaurant_id"`
	Name         string    `json:"name" bson:"name"`
	Role         string    `json:"role" bson:"role"`
	PINHash      string    `json:"-" bson:"pin_hash,omitempty"`
	Active       bool      `json:"active" bson:"active"`
	CreatedAt    time.Time `json:"created_at" bson:"created_at"`
	UpdatedAt    time.Time `json:"updated_at" bson:"updated_at"`
}

func NewStaff(restaurantID uuid.UUID, name string, role staffrole.Role) *Staff {
	return &Staff{
		ID:           apt.GenerateNewID(),
		RestaurantID: restaurantID,
		Name:         name,
		Role:         role.Code(),
		Active:       true,
	}
}

func (s *Staff) BeforeCreate() {
	if s.ID == uuid.Nil {
		s.ID = apt.GenerateNewID()
	}
	s.CreatedAt = time.Now()
	s.UpdatedAt = time.Now()
}
