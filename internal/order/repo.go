package order

import (
	"context"

	"github.com/google/uuid"

	"github.com/appetiteclub/tableside/internal/catalog"
	"github.com/appetiteclub/tableside/internal/stock"
)

// Getters return nil, nil when nothing matches.

type OrderRepo interface {
	Create(ctx context.Context, order *Order) error
	Get(ctx context.Context, id uuid.UUID) (*Order, error)
	Save(ctx context.Context, order *Order) error
	// ListByStatus returns matching orders oldest first.
	ListByStatus(ctx context.Context, restaurantID uuid.UUID, statuses []string) ([]*Order, error)
	// ListHistory returns matching orders newest first.
	ListHistory(ctx context.Context, restaurantID uuid.UUID, statuses []string, limit, offset int) ([]*Order, error)
}

// Counter hands out per-restaurant order numbers for a local calendar day.
// Next must be atomic: concurrent callers never receive the same number.
type Counter interface {
	Next(ctx context.Context, restaurantID uuid.UUID, day string) (int, error)
}

type MenuItemReader interface {
	ListByIDs(ctx context.Context, ids []uuid.UUID) ([]*catalog.MenuItem, error)
}

type TableReader interface {
	Get(ctx context.Context, id uuid.UUID) (*catalog.Table, error)
}

type RestaurantReader interface {
	Get(ctx context.Context, id uuid.UUID) (*catalog.Restaurant, error)
}

type StaffReader interface {
	Get(ctx context.Context, id uuid.UUID) (*catalog.Staff, error)
}

// StockDeducter accepts deductions without blocking the caller.
type StockDeducter interface {
	Enqueue(ctx context.Context, d stock.Deduction) error
}
