package order

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/appetiteclub/tableside/internal/catalog"
	"github.com/appetiteclub/tableside/internal/session"
	"github.com/appetiteclub/tableside/internal/stock"
)

// MockOrderRepo is an in-memory OrderRepo. Stored orders are copied on the
// way in and out so tests observe persistence the way a database behaves.
type MockOrderRepo struct {
	mu     sync.RWMutex
	orders map[uuid.UUID]*Order

	CreateFunc func(ctx context.Context, order *Order) error
	GetFunc    func(ctx context.Context, id uuid.UUID) (*Order, error)
	SaveFunc   func(ctx context.Context, order *Order) error
}

func NewMockOrderRepo() *MockOrderRepo {
	return &MockOrderRepo{orders: make(map[uuid.UUID]*Order)}
}

func cloneOrder(o *Order) *Order {
	cp := *o
	cp.Items = append([]OrderItem(nil), o.Items...)
	cp.Table, cp.Waiter = nil, nil
	if o.WaiterID != nil {
		id := *o.WaiterID
		cp.WaiterID = &id
	}
	return &cp
}

func (m *MockOrderRepo) Create(ctx context.Context, order *Order) error {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, order)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.orders[order.ID] = cloneOrder(order)
	return nil
}

func (m *MockOrderRepo) Get(ctx context.Context, id uuid.UUID) (*Order, error) {
	if m.GetFunc != nil {
		return m.GetFunc(ctx, id)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	o, ok := m.orders[id]
	if !ok {
		return nil, nil
	}
	return cloneOrder(o), nil
}

func (m *MockOrderRepo) Save(ctx context.Context, order *Order) error {
	if m.SaveFunc != nil {
		return m.SaveFunc(ctx, order)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.orders[order.ID] = cloneOrder(order)
	return nil
}

func (m *MockOrderRepo) filter(restaurantID uuid.UUID, statuses []string) []*Order {
	want := make(map[string]bool, len(statuses))
	for _, s := range statuses {
		want[s] = true
	}
	var out []*Order
	for _, o := range m.orders {
		if o.RestaurantID == restaurantID && want[o.Status] {
			out = append(out, cloneOrder(o))
		}
	}
	return out
}

func (m *MockOrderRepo) ListByStatus(ctx context.Context, restaurantID uuid.UUID, statuses []string) ([]*Order, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := m.filter(restaurantID, statuses)
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (m *MockOrderRepo) ListHistory(ctx context.Context, restaurantID uuid.UUID, statuses []string, limit, offset int) ([]*Order, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := m.filter(restaurantID, statuses)
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if offset >= len(out) {
		return nil, nil
	}
	out = out[offset:]
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *MockOrderRepo) count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.orders)
}

// MockCounter increments under a mutex, keyed by restaurant and day.
type MockCounter struct {
	mu     sync.Mutex
	values map[string]int

	NextFunc func(ctx context.Context, restaurantID uuid.UUID, day string) (int, error)
}

func NewMockCounter() *MockCounter {
	return &MockCounter{values: make(map[string]int)}
}

func (m *MockCounter) Next(ctx context.Context, restaurantID uuid.UUID, day string) (int, error) {
	if m.NextFunc != nil {
		return m.NextFunc(ctx, restaurantID, day)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	key := restaurantID.String() + ":" + day
	m.values[key]++
	return m.values[key], nil
}

type MockMenuItemRepo struct {
	items map[uuid.UUID]*catalog.MenuItem

	ListByIDsFunc func(ctx context.Context, ids []uuid.UUID) ([]*catalog.MenuItem, error)
}

func NewMockMenuItemRepo(items ...*catalog.MenuItem) *MockMenuItemRepo {
	m := &MockMenuItemRepo{items: make(map[uuid.UUID]*catalog.MenuItem)}
	for _, it := range items {
		m.items[it.ID] = it
	}
	return m
}

func (m *MockMenuItemRepo) ListByIDs(ctx context.Context, ids []uuid.UUID) ([]*catalog.MenuItem, error) {
	if m.ListByIDsFunc != nil {
		return m.ListByIDsFunc(ctx, ids)
	}
	var out []*catalog.MenuItem
	for _, id := range ids {
		if it, ok := m.items[id]; ok {
			out = append(out, it)
		}
	}
	return out, nil
}

type MockTableRepo struct {
	tables map[uuid.UUID]*catalog.Table
}

func NewMockTableRepo(tables ...*catalog.Table) *MockTableRepo {
	m := &MockTableRepo{tables: make(map[uuid.UUID]*catalog.Table)}
	for _, t := range tables {
		m.tables[t.ID] = t
	}
	return m
}

func (m *MockTableRepo) Get(ctx context.Context, id uuid.UUID) (*catalog.Table, error) {
	if t, ok := m.tables[id]; ok {
		return t, nil
	}
	return nil, nil
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
	if r, ok := m.restaurants[id]; ok {
		return r, nil
	}
	return nil, nil
}

type MockStaffRepo struct {
	staff map[uuid.UUID]*catalog.Staff
}

func NewMockStaffRepo(members ...*catalog.Staff) *MockStaffRepo {
	m := &MockStaffRepo{staff: make(map[uuid.UUID]*catalog.Staff)}
	for _, s := range members {
		m.staff[s.ID] = s
	}
	return m
}

func (m *MockStaffRepo) Get(ctx context.Context, id uuid.UUID) (*catalog.Staff, error) {
	if s, ok := m.staff[id]; ok {
		return s, nil
	}
	return nil, nil
}

type MockStock struct {
	mu       sync.Mutex
	enqueued []stock.Deduction

	EnqueueFunc func(ctx context.Context, d stock.Deduction) error
}

func (m *MockStock) Enqueue(ctx context.Context, d stock.Deduction) error {
	if m.EnqueueFunc != nil {
		return m.EnqueueFunc(ctx, d)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.enqueued = append(m.enqueued, d)
	return nil
}

type MockSessions struct {
	sessions map[string]*session.Info
}

func (m *MockSessions) Validate(ctx context.Context, token string) *session.Info {
	return m.sessions[token]
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
