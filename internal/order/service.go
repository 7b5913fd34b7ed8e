package order

import (
	"context"
	"time"
	"unicode/utf8"

	"github.com/appetiteclub/apt"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/appetiteclub/tableside/internal/auth"
	"github.com/appetiteclub/tableside/internal/catalog"
	"github.com/appetiteclub/tableside/internal/stock"
	"github.com/appetiteclub/tableside/pkg/enums/orderstatus"
)

const (
	DefaultHistoryLimit = 50
	MaxHistoryLimit     = 200

	dayLayout = "2006-01-02"
)

type ServiceDeps struct {
	Orders      OrderRepo
	Counter     Counter
	MenuItems   MenuItemReader
	Tables      TableReader
	Restaurants RestaurantReader
	Staff       StaffReader
	Stock       StockDeducter
}

type ServiceOptions struct {
	// Language picks the menu item name captured on each order line.
	Language string
	Now      func() time.Time
}

type Service struct {
	orders      OrderRepo
	counter     Counter
	menuItems   MenuItemReader
	tables      TableReader
	restaurants RestaurantReader
	staff       StaffReader
	stock       StockDeducter
	lang        string
	now         func() time.Time
	logger      apt.Logger
}

func NewService(deps ServiceDeps, opts ServiceOptions, logger apt.Logger) *Service {
	if logger == nil {
		logger = apt.NewNoopLogger()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Language == "" {
		opts.Language = catalog.DefaultLanguage
	}
	return &Service{
		orders:      deps.Orders,
		counter:     deps.Counter,
		menuItems:   deps.MenuItems,
		tables:      deps.Tables,
		restaurants: deps.Restaurants,
		staff:       deps.Staff,
		stock:       deps.Stock,
		lang:        opts.Language,
		now:         opts.Now,
		logger:      logger,
	}
}

type LineRequest struct {
	MenuItemID uuid.UUID
	Quantity   int
	Note       string
}

type CreateOrder struct {
	RestaurantID uuid.UUID
	TableID      uuid.UUID
	Lines        []LineRequest
	Notes        string
}

// StatusChange is the outcome of a successful transition.
type StatusChange struct {
	Order *Order
	From  orderstatus.Status
	To    orderstatus.Status
}

// Create places a PENDING order for a table. Prices are snapshotted from the
// current menu and the order number comes from the restaurant's daily counter.
func (s *Service) Create(ctx context.Context, req CreateOrder) (*Order, error) {
	if err := validateCreate(req); err != nil {
		return nil, err
	}

	table, err := s.tables.Get(ctx, req.TableID)
	if err != nil {
		s.log().Error("cannot load table", "table_id", req.TableID.String(), "error", err)
		return nil, storageError("load table", err)
	}
	if table == nil || !table.Active || table.RestaurantID != req.RestaurantID {
		return nil, ErrNotFound
	}

	menu, err := s.loadMenuItems(ctx, req)
	if err != nil {
		return nil, err
	}

	o := NewOrder(req.RestaurantID, req.TableID)
	o.Notes = req.Notes
	for _, line := range req.Lines {
		item := menu[line.MenuItemID]
		o.AddItem(OrderItem{
			MenuItemID: item.ID,
			Name:       item.DisplayName(s.lang),
			Quantity:   line.Quantity,
			UnitPrice:  item.Price,
			Note:       line.Note,
		})
	}

	now := s.now()
	day := now.In(s.restaurantLocation(ctx, req.RestaurantID)).Format(dayLayout)
	number, err := s.counter.Next(ctx, req.RestaurantID, day)
	if err != nil {
		s.log().Error("cannot allocate order number", "restaurant_id", req.RestaurantID.String(), "error", err)
		return nil, storageError("allocate order number", err)
	}
	o.Number = number
	o.CreatedAt = now
	o.UpdatedAt = now

	if err := s.orders.Create(ctx, o); err != nil {
		s.log().Error("cannot create order", "order_id", o.ID.String(), "error", err)
		return nil, storageError("create order", err)
	}

	o.Table = tableRef(table)
	s.log().Info("order created", "order_id", o.ID.String(), "number", o.Number, "total", o.Total.StringFixed(2))
	return o, nil
}

// Transition moves an order to the requested status on behalf of actor.
func (s *Service) Transition(ctx context.Context, orderID, restaurantID uuid.UUID, to orderstatus.Status, actor auth.Actor) (*StatusChange, error) {
	o, err := s.orders.Get(ctx, orderID)
	if err != nil {
		s.log().Error("cannot load order", "order_id", orderID.String(), "error", err)
		return nil, storageError("load order", err)
	}
	if o == nil || o.RestaurantID != restaurantID {
		return nil, ErrNotFound
	}

	from := o.CurrentStatus()
	if !CanTransition(from, to) {
		return nil, &TransitionError{From: from, To: to}
	}

	switch to {
	case orderstatus.Statuses.Accepted:
		if actor.IsWaiter() {
			if o.HasWaiter() && *o.WaiterID != actor.StaffID {
				return nil, ErrAlreadyAssigned
			}
			o.AssignWaiter(actor.StaffID)
		}
	case orderstatus.Statuses.Delivered:
		if o.HasWaiter() && actor.IsStaff() && actor.StaffID != *o.WaiterID {
			return nil, ErrNotOwner
		}
	}

	o.Status = to.Code()
	o.UpdatedAt = s.now()
	if err := s.orders.Save(ctx, o); err != nil {
		s.log().Error("cannot save order", "order_id", o.ID.String(), "error", err)
		return nil, storageError("save order", err)
	}

	if to == orderstatus.Statuses.Delivered {
		s.requestStockDeduction(ctx, o)
	}

	s.populate(ctx, o)
	s.log().Info("order status changed", "order_id", o.ID.String(), "from", from.Code(), "to", to.Code(), "actor", actor.String())
	return &StatusChange{Order: o, From: from, To: to}, nil
}

// ListByStatus returns a restaurant's orders oldest first. No statuses means
// every order still in progress.
func (s *Service) ListByStatus(ctx context.Context, restaurantID uuid.UUID, statuses []orderstatus.Status) ([]*Order, error) {
	if len(statuses) == 0 {
		statuses = orderstatus.Active
	}
	orders, err := s.orders.ListByStatus(ctx, restaurantID, orderstatus.Names(statuses))
	if err != nil {
		s.log().Error("cannot list orders", "restaurant_id", restaurantID.String(), "error", err)
		return nil, storageError("list orders", err)
	}
	for _, o := range orders {
		s.populate(ctx, o)
	}
	return orders, nil
}

// History returns delivered and cancelled orders newest first.
func (s *Service) History(ctx context.Context, restaurantID uuid.UUID, limit, offset int) ([]*Order, error) {
	limit, offset = clampPage(limit, offset)
	orders, err := s.orders.ListHistory(ctx, restaurantID, orderstatus.Names(orderstatus.Terminal), limit, offset)
	if err != nil {
		s.log().Error("cannot list order history", "restaurant_id", restaurantID.String(), "error", err)
		return nil, storageError("list history", err)
	}
	for _, o := range orders {
		s.populate(ctx, o)
	}
	return orders, nil
}

// Get loads an order by its id alone. Order ids are unguessable so the id
// itself is the guest's capability to track it.
func (s *Service) Get(ctx context.Context, orderID uuid.UUID) (*Order, error) {
	o, err := s.orders.Get(ctx, orderID)
	if err != nil {
		s.log().Error("cannot load order", "order_id", orderID.String(), "error", err)
		return nil, storageError("load order", err)
	}
	if o == nil {
		return nil, ErrNotFound
	}
	s.populate(ctx, o)
	return o, nil
}

func validateCreate(req CreateOrder) error {
	if req.RestaurantID == uuid.Nil || req.TableID == uuid.Nil {
		return invalidOrder("restaurant and table are required")
	}
	if len(req.Lines) == 0 {
		return invalidOrder("at least one item is required")
	}
	if utf8.RuneCountInString(req.Notes) > MaxNotesLength {
		return invalidOrder("notes exceed %d characters", MaxNotesLength)
	}
	for i, line := range req.Lines {
		if line.MenuItemID == uuid.Nil {
			return invalidOrder("item %d has no menu item", i)
		}
		if line.Quantity < MinItemQuantity || line.Quantity > MaxItemQuantity {
			return invalidOrder("item %d quantity must be between %d and %d", i, MinItemQuantity, MaxItemQuantity)
		}
		if utf8.RuneCountInString(line.Note) > MaxNoteLength {
			return invalidOrder("item %d note exceeds %d characters", i, MaxNoteLength)
		}
	}
	return nil
}

// loadMenuItems returns every requested item keyed by id, or an
// ItemsUnavailableError naming each missing, foreign or unavailable one.
func (s *Service) loadMenuItems(ctx context.Context, req CreateOrder) (map[uuid.UUID]*catalog.MenuItem, error) {
	ids := make([]uuid.UUID, 0, len(req.Lines))
	seen := make(map[uuid.UUID]bool, len(req.Lines))
	for _, line := range req.Lines {
		if !seen[line.MenuItemID] {
			seen[line.MenuItemID] = true
			ids = append(ids, line.MenuItemID)
		}
	}

	items, err := s.menuItems.ListByIDs(ctx, ids)
	if err != nil {
		s.log().Error("cannot load menu items", "error", err)
		return nil, storageError("load menu items", err)
	}

	byID := make(map[uuid.UUID]*catalog.MenuItem, len(items))
	for _, it := range items {
		if it != nil {
			byID[it.ID] = it
		}
	}

	var unavailable []uuid.UUID
	for _, id := range ids {
		it, ok := byID[id]
		if !ok || it.RestaurantID != req.RestaurantID || !it.Available {
			unavailable = append(unavailable, id)
		}
	}
	if len(unavailable) > 0 {
		return nil, &ItemsUnavailableError{MenuItemIDs: unavailable}
	}
	return byID, nil
}

func (s *Service) restaurantLocation(ctx context.Context, restaurantID uuid.UUID) *time.Location {
	if s.restaurants == nil {
		return time.Local
	}
	r, err := s.restaurants.Get(ctx, restaurantID)
	if err != nil {
		s.log().Error("cannot load restaurant, using local time", "restaurant_id", restaurantID.String(), "error", err)
		return time.Local
	}
	return r.Location()
}

func (s *Service) requestStockDeduction(ctx context.Context, o *Order) {
	if s.stock == nil {
		return
	}
	d := stock.Deduction{OrderID: o.ID, RestaurantID: o.RestaurantID}
	for _, it := range o.Items {
		d.Lines = append(d.Lines, stock.Line{MenuItemID: it.MenuItemID, Quantity: it.Quantity})
	}
	if err := s.stock.Enqueue(ctx, d); err != nil {
		s.log().Error("stock deduction not queued", "order_id", o.ID.String(), "error", err)
	}
}

// populate fills the display projections. Lookup failures leave them empty.
func (s *Service) populate(ctx context.Context, o *Order) {
	if s.tables != nil && o.Table == nil {
		t, err := s.tables.Get(ctx, o.TableID)
		if err != nil {
			s.log().Debug("cannot load table for order", "order_id", o.ID.String(), "error", err)
		}
		if t != nil {
			o.Table = tableRef(t)
		}
	}
	if s.staff != nil && o.HasWaiter() && o.Waiter == nil {
		st, err := s.staff.Get(ctx, *o.WaiterID)
		if err != nil {
			s.log().Debug("cannot load waiter for order", "order_id", o.ID.String(), "error", err)
		}
		if st != nil {
			o.Waiter = &StaffRef{ID: st.ID, Name: st.Name}
		}
	}
}

func tableRef(t *catalog.Table) *TableRef {
	return &TableRef{ID: t.ID, Number: t.Number, Name: t.Name}
}

func clampPage(limit, offset int) (int, int) {
	if limit <= 0 {
		limit = DefaultHistoryLimit
	}
	if limit > MaxHistoryLimit {
		limit = MaxHistoryLimit
	}
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}

// Total recomputes the order value from its lines.
func Total(items []OrderItem) decimal.Decimal {
	sum := decimal.Zero
	for _, it := range items {
		sum = sum.Add(it.LineTotal())
	}
	return sum
}

func (s *Service) log() apt.Logger {
	return s.logger.With("component", "order.Service")
}
