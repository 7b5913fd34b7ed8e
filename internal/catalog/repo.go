package catalog

import (
	"context"

	"github.com/google/uuid"
)

// Getters return nil, nil when the entity does not exist.

type RestaurantRepo interface {
	Create(ctx context.Context, r *Restaurant) error
	Get(ctx context.Context, id uuid.UUID) (*Restaurant, error)
}

type TableRepo interface {
	Create(ctx context.Context, t *Table) error
	Get(ctx context.Context, id uuid.UUID) (*Table, error)
	ListActiveByRestaurant(ctx context.Context, restaurantID uuid.UUID) ([]*Table, error)
}

type MenuItemRepo interface {
	Create(ctx context.Context, m *MenuItem) error
	Get(ctx context.Context, id uuid.UUID) (*MenuItem, error)
	ListByIDs(ctx context.Context, ids []uuid.UUID) ([]*MenuItem, error)
	SetAvailability(ctx context.Context, id uuid.UUID, available bool) error
}

type IngredientRepo interface {
	Create(ctx context.Context, i *Ingredient) error
	Adjust(ctx context.Context, id uuid.UUID, delta float64) error
}

type StaffRepo interface {
	Create(ctx context.Context, s *Staff) error
	Get(ctx context.Context, id uuid.UUID) (*Staff, error)
}
