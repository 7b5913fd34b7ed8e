package session

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/appetiteclub/tableside/internal/catalog"
)

var errBoom = errors.New("boom")

// MockTableRepo is an in-memory TableReader.
type MockTableRepo struct {
	mu     sync.RWMutex
	tables map[uuid.UUID]*catalog.Table

	GetFunc func(ctx context.Context, id uuid.UUID) (*catalog.Table, error)
}

func NewMockTableRepo(tables ...*catalog.Table) *MockTableRepo {
	m := &MockTableRepo{tables: make(map[uuid.UUID]*catalog.Table)}
	for _, t := range tables {
		m.tables[t.ID] = t
	}
	return m
}

func (m *MockTableRepo) Get(ctx context.Context, id uuid.UUID) (*catalog.Table, error) {
	if m.GetFunc != nil {
		return m.GetFunc(ctx, id)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	t, ok := m.tables[id]
	if !ok {
		return nil, nil
	}
	cp := *t
	return &cp, nil
}

func (m *MockTableRepo) ListActiveByRestaurant(ctx context.Context, restaurantID uuid.UUID) ([]*catalog.Table, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []*catalog.Table
	for _, t := range m.tables {
		if t.RestaurantID == restaurantID && t.Active {
			cp := *t
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (m *MockTableRepo) SetActive(id uuid.UUID, active bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tables[id].Active = active
}

type MockRestaurantRepo struct {
	restaurants map[uuid.UUID]*catalog.Restaurant
}

func NewMockRestaurantRepo(rs ...*catalog.Restaurant) *MockRestaurantRepo {
	m := &MockRestaurantRepo{restaurants: make(map[uuid.UUID]*catalog.Restaurant)}
	for _, r := range rs {
		m.restaurants[r.ID] = r
	}
	return m
}

func (m *MockRestaurantRepo) Get(ctx context.Context, id uuid.UUID) (*catalog.Restaurant, error) {
	r, ok := m.restaurants[id]
	if !ok {
		return nil, nil
	}
	return r, nil
}

// failingStore wraps a MemoryStore and fails selected operations.
type failingStore struct {
	*MemoryStore
	failGet    bool
	failInsert bool
	failDelete bool
}

func (s *failingStore) Get(ctx context.Context, token string) (*QRToken, error) {
	if s.failGet {
		return nil, errBoom
	}
	return s.MemoryStore.Get(ctx, token)
}

func (s *failingStore) Insert(ctx context.Context, t *QRToken) error {
	if s.failInsert {
		return errBoom
	}
	return s.MemoryStore.Insert(ctx, t)
}

func (s *failingStore) DeleteExpired(ctx context.Context, now time.Time) (int, error) {
	if s.failDelete {
		return 0, errBoom
	}
	return s.MemoryStore.DeleteExpired(ctx, now)
}

// fakeClock is a settable time source.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type MockPublisher struct {
	mu     sync.Mutex
	topics []string
	msgs   [][]byte

	PublishFunc func(ctx context.Context, topic string, msg []byte) error
}

func (m *MockPublisher) Publish(ctx context.Context, topic string, msg []byte) error {
	if m.PublishFunc != nil {
		return m.PublishFunc(ctx, topic, msg)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.topics = append(m.topics, topic)
	m.msgs = append(m.msgs, msg)
	return nil
}
