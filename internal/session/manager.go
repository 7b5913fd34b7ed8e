package session

import (
	"context"
	"fmt"
	"time"

	"github.com/appetiteclub/apt"
	"github.com/google/uuid"

	"github.com/appetiteclub/tableside/internal/catalog"
)

type Policy int

const (
	// PolicyOverlap keeps earlier tokens for a table valid until they expire.
	PolicyOverlap Policy = iota
	// PolicyExclusive removes a table's earlier tokens whenever a new one is issued.
	PolicyExclusive
)

func ParsePolicy(name string) (Policy, error) {
	switch name {
	case "", "overlap":
		return PolicyOverlap, nil
	case "exclusive":
		return PolicyExclusive, nil
	default:
		return PolicyOverlap, fmt.Errorf("unknown session policy %q", name)
	}
}

type Options struct {
	TTL    time.Duration
	Policy Policy
	Now    func() time.Time
}

type Manager struct {
	store       TokenStore
	tables      TableReader
	restaurants RestaurantReader
	ttl         time.Duration
	policy      Policy
	now         func() time.Time
	logger      apt.Logger
}

func NewManager(store TokenStore, tables TableReader, restaurants RestaurantReader, opts Options, logger apt.Logger) *Manager {
	if logger == nil {
		logger = apt.NewNoopLogger()
	}
	if opts.TTL <= 0 {
		opts.TTL = DefaultTTL
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Manager{
		store:       store,
		tables:      tables,
		restaurants: restaurants,
		ttl:         opts.TTL,
		policy:      opts.Policy,
		now:         opts.Now,
		logger:      logger,
	}
}

// Issue creates a fresh session for an active table.
func (m *Manager) Issue(ctx context.Context, tableID uuid.UUID) (*Info, error) {
	table, err := m.tables.Get(ctx, tableID)
	if err != nil {
		m.log().Error("cannot load table", "table_id", tableID.String(), "error", err)
		return nil, fmt.Errorf("%w: load table: %w", ErrStorage, err)
	}
	if table == nil || !table.Active {
		return nil, ErrNotFound
	}

	restaurant, err := m.restaurants.Get(ctx, table.RestaurantID)
	if err != nil {
		m.log().Error("cannot load restaurant", "restaurant_id", table.RestaurantID.String(), "error", err)
		return nil, fmt.Errorf("%w: load restaurant: %w", ErrStorage, err)
	}
	if restaurant == nil {
		return nil, ErrNotFound
	}

	if m.policy == PolicyExclusive {
		if _, err := m.store.DeleteByTables(ctx, []uuid.UUID{table.ID}); err != nil {
			m.log().Error("cannot revoke previous tokens", "table_id", table.ID.String(), "error", err)
			return nil, fmt.Errorf("%w: revoke tokens: %w", ErrStorage, err)
		}
	}

	t, err := m.issueFor(ctx, table)
	if err != nil {
		return nil, err
	}

	m.log().Debug("session issued", "table_id", table.ID.String(), "expires_at", t.ExpiresAt)
	return infoFor(t, table, restaurant), nil
}

// Validate resolves a token into session info. Any failure, including
// storage errors, yields nil and the guest is asked to rescan.
func (m *Manager) Validate(ctx context.Context, token string) *Info {
	if token == "" {
		return nil
	}

	t, err := m.store.Get(ctx, token)
	if err != nil {
		m.log().Error("cannot load token", "error", err)
		return nil
	}
	if t == nil || t.Expired(m.now()) {
		return nil
	}

	table, err := m.tables.Get(ctx, t.TableID)
	if err != nil {
		m.log().Error("cannot load table", "table_id", t.TableID.String(), "error", err)
		return nil
	}
	if table == nil || !table.Active {
		return nil
	}

	restaurant, err := m.restaurants.Get(ctx, table.RestaurantID)
	if err != nil {
		m.log().Error("cannot load restaurant", "restaurant_id", table.RestaurantID.String(), "error", err)
		return nil
	}
	if restaurant == nil {
		return nil
	}

	return infoFor(t, table, restaurant)
}

// RotateAllForRestaurant revokes every token of the restaurant's active tables
// and issues one new token per table. Tables are processed one at a time;
// a table that fails is reported and the rest continue.
func (m *Manager) RotateAllForRestaurant(ctx context.Context, restaurantID uuid.UUID) (Rotation, error) {
	tables, err := m.tables.ListActiveByRestaurant(ctx, restaurantID)
	if err != nil {
		m.log().Error("cannot list tables", "restaurant_id", restaurantID.String(), "error", err)
		return Rotation{}, fmt.Errorf("%w: list tables: %w", ErrStorage, err)
	}

	result := Rotation{Tables: len(tables)}
	if len(tables) == 0 {
		return result, nil
	}

	ids := make([]uuid.UUID, 0, len(tables))
	for _, t := range tables {
		ids = append(ids, t.ID)
	}
	revoked, err := m.store.DeleteByTables(ctx, ids)
	if err != nil {
		m.log().Error("cannot revoke tokens", "restaurant_id", restaurantID.String(), "error", err)
		return Rotation{}, fmt.Errorf("%w: revoke tokens: %w", ErrStorage, err)
	}

	for _, t := range tables {
		if _, err := m.issueFor(ctx, t); err != nil {
			result.Failed = append(result.Failed, t.ID)
			continue
		}
		result.Issued++
	}

	m.log().Info("sessions rotated", "restaurant_id", restaurantID.String(), "revoked", revoked, "issued", result.Issued, "failed", len(result.Failed))
	return result, nil
}

// SweepExpired deletes tokens whose expiry is at or before now, matching Validate.
func (m *Manager) SweepExpired(ctx context.Context) (int, error) {
	n, err := m.store.DeleteExpired(ctx, m.now())
	if err != nil {
		m.log().Error("cannot sweep expired tokens", "error", err)
		return 0, fmt.Errorf("%w: sweep: %w", ErrStorage, err)
	}
	if n > 0 {
		m.log().Info("expired sessions swept", "count", n)
	}
	return n, nil
}

func (m *Manager) issueFor(ctx context.Context, table *catalog.Table) (*QRToken, error) {
	now := m.now()
	token, err := newToken(now)
	if err != nil {
		m.log().Error("cannot generate token", "error", err)
		return nil, fmt.Errorf("%w: generate token: %w", ErrStorage, err)
	}

	t := &QRToken{
		Token:        token,
		TableID:      table.ID,
		RestaurantID: table.RestaurantID,
		CreatedAt:    now,
		ExpiresAt:    now.Add(m.ttl),
	}
	if err := m.store.Insert(ctx, t); err != nil {
		m.log().Error("cannot store token", "table_id", table.ID.String(), "error", err)
		return nil, fmt.Errorf("%w: insert token: %w", ErrStorage, err)
	}
	return t, nil
}

func infoFor(t *QRToken, table *catalog.Table, restaurant *catalog.Restaurant) *Info {
	names := make(map[string]string, len(restaurant.Names))
	for k, v := range restaurant.Names {
		names[k] = v
	}
	return &Info{
		Token:           t.Token,
		ExpiresAt:       t.ExpiresAt,
		TableID:         table.ID,
		TableNumber:     table.Number,
		TableName:       table.Name,
		RestaurantID:    restaurant.ID,
		RestaurantNames: names,
	}
}

func (m *Manager) log() apt.Logger {
	return m.logger.With("component", "session.Manager")
}
