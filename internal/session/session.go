package session

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/appetiteclub/tableside/internal/catalog"
)

const DefaultTTL = 15 * time.Minute

var (
	// ErrNotFound is returned when a table is missing or inactive.
	ErrNotFound = errors.New("table not found")
	ErrStorage  = errors.New("session storage failure")
)

// QRToken is the persisted form of a table session.
type QRToken struct {
	Token        string    `json:"token" bson:"_id"`
	TableID      uuid.UUID `json:"table_id" bson:"table_id"`
	RestaurantID uuid.UUID `json:"restaurant_id" bson:"restaurant_id"`
	CreatedAt    time.Time `json:"created_at" bson:"created_at"`
	ExpiresAt    time.Time `json:"expires_at" bson:"expires_at"`
}

// Expired reports whether the token is no longer usable at now.
// A token is valid strictly before its expiry instant.
func (t *QRToken) Expired(now time.Time) bool {
	return !now.Before(t.ExpiresAt)
}

// Info is what a guest device learns from a valid session.
type Info struct {
	Token           string            `json:"token"`
	ExpiresAt       time.Time         `json:"expires_at"`
	TableID         uuid.UUID         `json:"table_id"`
	TableNumber     int               `json:"table_number"`
	TableName       string            `json:"table_name,omitempty"`
	RestaurantID    uuid.UUID         `json:"restaurant_id"`
	RestaurantNames map[string]string `json:"restaurant_names"`
}

// Rotation summarizes a bulk reissue for one restaurant.
type Rotation struct {
	Tables int         `json:"tables"`
	Issued int         `json:"issued"`
	Failed []uuid.UUID `json:"failed,omitempty"`
}

// TokenStore persists QR tokens. Get returns nil, nil for unknown tokens.
type TokenStore interface {
	Insert(ctx context.Context, t *QRToken) error
	Get(ctx context.Context, token string) (*QRToken, error)
	DeleteByTables(ctx context.Context, tableIDs []uuid.UUID) (int, error)
	DeleteExpired(ctx context.Context, now time.Time) (int, error)
}

type TableReader interface {
	Get(ctx context.Context, id uuid.UUID) (*catalog.Table, error)
	ListActiveByRestaurant(ctx context.Context, restaurantID uuid.UUID) ([]*catalog.Table, error)
}

type RestaurantReader interface {
	Get(ctx context.Context, id uuid.UUID) (*catalog.Restaurant, error)
}
