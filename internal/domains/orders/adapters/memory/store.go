package memory

import (
	"context"
	"errors"
	"slices"
	"sort"
	"sync"
	"time"

	"github.com/Apurer/order-lifecycle-service/internal/domains/orders/domain"
	"github.com/Apurer/order-lifecycle-service/internal/domains/orders/ports"
)

var (
	_ ports.Store = (*Store)(nil)
	_ ports.Store = (*txStore)(nil)
)

// Store keeps orders, items, trucks and deliveries in process memory.
// All access is serialised; transactions work on a copy that replaces the
// live state only when the callback succeeds.
type Store struct {
	mu sync.Mutex
	st *state
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{st: newState()}
}

// SaveItem inserts or replaces a catalog item. A zero ID is assigned.
func (s *Store) SaveItem(_ context.Context, item domain.Item) (*domain.Item, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if item.ID == 0 {
		s.st.nextItemID++
		item.ID = s.st.nextItemID
	} else if item.ID > s.st.nextItemID {
		s.st.nextItemID = item.ID
	}
	stored := item
	s.st.items[item.ID] = &stored
	clone := stored
	return &clone, nil
}

// SaveTruck inserts or replaces a truck. A zero ID is assigned.
func (s *Store) SaveTruck(_ context.Context, truck domain.Truck) (*domain.Truck, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if truck.ID == 0 {
		s.st.nextTruckID++
		truck.ID = s.st.nextTruckID
	} else if truck.ID > s.st.nextTruckID {
		s.st.nextTruckID = truck.ID
	}
	stored := truck
	s.st.trucks[truck.ID] = &stored
	clone := stored
	return &clone, nil
}

func (s *Store) GetOrder(_ context.Context, id int64) (*domain.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.st.getOrder(id)
}

func (s *Store) CreateOrder(_ context.Context, order *domain.Order) (*domain.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.st.createOrder(order)
}

func (s *Store) SaveOrder(_ context.Context, order *domain.Order) (*domain.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.st.saveOrder(order)
}

func (s *Store) ReplaceOrderItems(_ context.Context, orderID int64, items []domain.OrderItem) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.st.replaceOrderItems(orderID, items)
}

func (s *Store) ListOrders(_ context.Context, filter ports.OrderFilter) ([]*domain.Order, int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	orders, total := s.st.listOrders(filter)
	return orders, total, nil
}

func (s *Store) GetItem(_ context.Context, id int64) (*domain.Item, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.st.getItem(id)
}

func (s *Store) ReserveItemQuantity(_ context.Context, itemID int64, amount int) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.st.reserve(itemID, amount), nil
}

func (s *Store) RestockItemQuantity(_ context.Context, itemID int64, amount int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.st.restock(itemID, amount)
}

func (s *Store) GetTruck(_ context.Context, id int64) (*domain.Truck, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.st.getTruck(id)
}

func (s *Store) ListTrucks(_ context.Context) ([]domain.Truck, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.st.listTrucks(), nil
}

func (s *Store) FindDeliveriesByTruckAndDate(_ context.Context, truckID int64, date time.Time) ([]*domain.Delivery, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.st.deliveriesByTruckAndDate(truckID, date), nil
}

func (s *Store) BookedTruckIDs(_ context.Context, date time.Time) ([]int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.st.bookedTruckIDs(date), nil
}

func (s *Store) CreateDelivery(_ context.Context, delivery *domain.Delivery) (*domain.Delivery, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.st.createDelivery(delivery)
}

func (s *Store) SaveDelivery(_ context.Context, delivery *domain.Delivery) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.st.saveDelivery(delivery)
}

func (s *Store) DeleteDelivery(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.st.deleteDelivery(id)
}

func (s *Store) ListDueDeliveries(_ context.Context, date time.Time) ([]*domain.Delivery, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.st.dueDeliveries(date), nil
}

// WithinTransaction holds the store lock for the whole callback.
func (s *Store) WithinTransaction(ctx context.Context, fn func(ctx context.Context, tx ports.Store) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	work := s.st.clone()
	if err := fn(ctx, &txStore{st: work}); err != nil {
		return err
	}
	s.st = work
	return nil
}

// txStore operates on a private copy while the parent lock is held.
type txStore struct {
	st *state
}

func (t *txStore) GetOrder(_ context.Context, id int64) (*domain.Order, error) {
	return t.st.getOrder(id)
}

func (t *txStore) CreateOrder(_ context.Context, order *domain.Order) (*domain.Order, error) {
	return t.st.createOrder(order)
}

func (t *txStore) SaveOrder(_ context.Context, order *domain.Order) (*domain.Order, error) {
	return t.st.saveOrder(order)
}

func (t *txStore) ReplaceOrderItems(_ context.Context, orderID int64, items []domain.OrderItem) error {
	return t.st.replaceOrderItems(orderID, items)
}

func (t *txStore) ListOrders(_ context.Context, filter ports.OrderFilter) ([]*domain.Order, int64, error) {
	orders, total := t.st.listOrders(filter)
	return orders, total, nil
}

func (t *txStore) GetItem(_ context.Context, id int64) (*domain.Item, error) {
	return t.st.getItem(id)
}

func (t *txStore) ReserveItemQuantity(_ context.Context, itemID int64, amount int) (bool, error) {
	return t.st.reserve(itemID, amount), nil
}

func (t *txStore) RestockItemQuantity(_ context.Context, itemID int64, amount int) error {
	return t.st.restock(itemID, amount)
}

func (t *txStore) GetTruck(_ context.Context, id int64) (*domain.Truck, error) {
	return t.st.getTruck(id)
}

func (t *txStore) ListTrucks(_ context.Context) ([]domain.Truck, error) {
	return t.st.listTrucks(), nil
}

func (t *txStore) FindDeliveriesByTruckAndDate(_ context.Context, truckID int64, date time.Time) ([]*domain.Delivery, error) {
	return t.st.deliveriesByTruckAndDate(truckID, date), nil
}

func (t *txStore) BookedTruckIDs(_ context.Context, date time.Time) ([]int64, error) {
	return t.st.bookedTruckIDs(date), nil
}

func (t *txStore) CreateDelivery(_ context.Context, delivery *domain.Delivery) (*domain.Delivery, error) {
	return t.st.createDelivery(delivery)
}

func (t *txStore) SaveDelivery(_ context.Context, delivery *domain.Delivery) error {
	return t.st.saveDelivery(delivery)
}

func (t *txStore) DeleteDelivery(_ context.Context, id int64) error {
	return t.st.deleteDelivery(id)
}

func (t *txStore) ListDueDeliveries(_ context.Context, date time.Time) ([]*domain.Delivery, error) {
	return t.st.dueDeliveries(date), nil
}

// WithinTransaction joins the enclosing transaction.
func (t *txStore) WithinTransaction(ctx context.Context, fn func(ctx context.Context, tx ports.Store) error) error {
	return fn(ctx, t)
}

type bookingKey struct {
	truckID int64
	date    time.Time
}

type state struct {
	orders     map[int64]*domain.Order
	items      map[int64]*domain.Item
	trucks     map[int64]*domain.Truck
	deliveries map[int64]*domain.Delivery
	bookings   map[bookingKey]int64

	nextOrderID     int64
	nextOrderItemID int64
	nextItemID      int64
	nextTruckID     int64
	nextDeliveryID  int64
}

func newState() *state {
	return &state{
		orders:     map[int64]*domain.Order{},
		items:      map[int64]*domain.Item{},
		trucks:     map[int64]*domain.Truck{},
		deliveries: map[int64]*domain.Delivery{},
		bookings:   map[bookingKey]int64{},
	}
}

func (st *state) clone() *state {
	c := newState()
	for id, o := range st.orders {
		c.orders[id] = cloneOrder(o)
	}
	for id, i := range st.items {
		item := *i
		c.items[id] = &item
	}
	for id, t := range st.trucks {
		truck := *t
		c.trucks[id] = &truck
	}
	for id, d := range st.deliveries {
		c.deliveries[id] = cloneDelivery(d)
	}
	for k, v := range st.bookings {
		c.bookings[k] = v
	}
	c.nextOrderID = st.nextOrderID
	c.nextOrderItemID = st.nextOrderItemID
	c.nextItemID = st.nextItemID
	c.nextTruckID = st.nextTruckID
	c.nextDeliveryID = st.nextDeliveryID
	return c
}

func (st *state) getOrder(id int64) (*domain.Order, error) {
	stored, ok := st.orders[id]
	if !ok {
		return nil, ports.ErrNotFound
	}
	order := cloneOrder(stored)
	for i := range order.Items {
		if item, ok := st.items[order.Items[i].ItemID]; ok {
			snapshot := *item
			order.Items[i].Item = &snapshot
		}
	}
	for _, d := range st.deliveries {
		if d.OrderID == id {
			order.Delivery = st.hydrateDelivery(d)
			break
		}
	}
	return order, nil
}

func (st *state) createOrder(order *domain.Order) (*domain.Order, error) {
	if order == nil {
		return nil, errors.New("order is nil")
	}
	st.nextOrderID++
	stored := cloneOrder(order)
	stored.ID = st.nextOrderID
	stored.Delivery = nil
	st.assignItemIDs(stored.Items)
	st.orders[stored.ID] = stored
	return st.getOrder(stored.ID)
}

func (st *state) saveOrder(order *domain.Order) (*domain.Order, error) {
	if order == nil {
		return nil, errors.New("order is nil")
	}
	stored, ok := st.orders[order.ID]
	if !ok {
		return nil, ports.ErrNotFound
	}
	stored.OrderNumber = order.OrderNumber
	stored.ClientUsername = order.ClientUsername
	stored.Status = order.Status
	stored.SubmittedAt = cloneTime(order.SubmittedAt)
	stored.DeadlineDate = order.DeadlineDate
	stored.DeclineReason = order.DeclineReason
	stored.UpdatedAt = order.UpdatedAt
	return st.getOrder(order.ID)
}

func (st *state) replaceOrderItems(orderID int64, items []domain.OrderItem) error {
	stored, ok := st.orders[orderID]
	if !ok {
		return ports.ErrNotFound
	}
	lines := cloneItems(items)
	st.assignItemIDs(lines)
	stored.Items = lines
	return nil
}

func (st *state) listOrders(filter ports.OrderFilter) ([]*domain.Order, int64) {
	var matched []*domain.Order
	for _, o := range st.orders {
		if filter.ClientUsername != "" && o.ClientUsername != filter.ClientUsername {
			continue
		}
		if filter.Status != "" && o.Status != filter.Status {
			continue
		}
		matched = append(matched, o)
	}
	sort.Slice(matched, func(i, j int) bool {
		a, b := matched[i], matched[j]
		if filter.Sort == ports.SortBySubmitted {
			switch {
			case a.SubmittedAt == nil && b.SubmittedAt != nil:
				return false
			case a.SubmittedAt != nil && b.SubmittedAt == nil:
				return true
			case a.SubmittedAt != nil && !a.SubmittedAt.Equal(*b.SubmittedAt):
				return a.SubmittedAt.After(*b.SubmittedAt)
			}
		} else if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.After(b.CreatedAt)
		}
		return a.ID > b.ID
	})

	total := int64(len(matched))
	start := min(max(filter.Offset, 0), len(matched))
	end := len(matched)
	if filter.Limit > 0 {
		end = min(start+filter.Limit, end)
	}
	page := make([]*domain.Order, 0, end-start)
	for _, o := range matched[start:end] {
		order, _ := st.getOrder(o.ID)
		page = append(page, order)
	}
	return page, total
}

func (st *state) assignItemIDs(lines []domain.OrderItem) {
	for i := range lines {
		st.nextOrderItemID++
		lines[i].ID = st.nextOrderItemID
		lines[i].Item = nil
	}
}

func (st *state) getItem(id int64) (*domain.Item, error) {
	item, ok := st.items[id]
	if !ok {
		return nil, ports.ErrNotFound
	}
	clone := *item
	return &clone, nil
}

func (st *state) reserve(itemID int64, amount int) bool {
	item, ok := st.items[itemID]
	if !ok || amount <= 0 || item.Quantity < amount {
		return false
	}
	item.Quantity -= amount
	return true
}

func (st *state) restock(itemID int64, amount int) error {
	item, ok := st.items[itemID]
	if !ok {
		return ports.ErrNotFound
	}
	if amount > 0 {
		item.Quantity += amount
	}
	return nil
}

func (st *state) getTruck(id int64) (*domain.Truck, error) {
	truck, ok := st.trucks[id]
	if !ok {
		return nil, ports.ErrNotFound
	}
	clone := *truck
	return &clone, nil
}

func (st *state) listTrucks() []domain.Truck {
	trucks := make([]domain.Truck, 0, len(st.trucks))
	for _, t := range st.trucks {
		trucks = append(trucks, *t)
	}
	sort.Slice(trucks, func(i, j int) bool { return trucks[i].ID < trucks[j].ID })
	return trucks
}

func (st *state) deliveriesByTruckAndDate(truckID int64, date time.Time) []*domain.Delivery {
	id, ok := st.bookings[bookingKey{truckID: truckID, date: domain.DateOf(date)}]
	if !ok {
		return nil
	}
	return []*domain.Delivery{st.hydrateDelivery(st.deliveries[id])}
}

func (st *state) bookedTruckIDs(date time.Time) []int64 {
	day := domain.DateOf(date)
	var ids []int64
	for key := range st.bookings {
		if key.date.Equal(day) {
			ids = append(ids, key.truckID)
		}
	}
	slices.Sort(ids)
	return ids
}

func (st *state) createDelivery(delivery *domain.Delivery) (*domain.Delivery, error) {
	if delivery == nil {
		return nil, errors.New("delivery is nil")
	}
	if _, ok := st.orders[delivery.OrderID]; !ok {
		return nil, ports.ErrNotFound
	}
	day := domain.DateOf(delivery.ScheduledDate)
	for _, truckID := range delivery.TruckIDs {
		if _, taken := st.bookings[bookingKey{truckID: truckID, date: day}]; taken {
			return nil, ports.ErrBookingConflict
		}
	}
	st.nextDeliveryID++
	stored := cloneDelivery(delivery)
	stored.ID = st.nextDeliveryID
	stored.ScheduledDate = day
	stored.Trucks = nil
	st.deliveries[stored.ID] = stored
	for _, truckID := range stored.TruckIDs {
		st.bookings[bookingKey{truckID: truckID, date: day}] = stored.ID
	}
	return st.hydrateDelivery(stored), nil
}

func (st *state) saveDelivery(delivery *domain.Delivery) error {
	if delivery == nil {
		return errors.New("delivery is nil")
	}
	stored, ok := st.deliveries[delivery.ID]
	if !ok {
		return ports.ErrNotFound
	}
	stored.Completed = delivery.Completed
	stored.CompletedAt = cloneTime(delivery.CompletedAt)
	stored.Notes = delivery.Notes
	return nil
}

func (st *state) deleteDelivery(id int64) error {
	stored, ok := st.deliveries[id]
	if !ok {
		return ports.ErrNotFound
	}
	for _, truckID := range stored.TruckIDs {
		delete(st.bookings, bookingKey{truckID: truckID, date: stored.ScheduledDate})
	}
	delete(st.deliveries, id)
	return nil
}

func (st *state) dueDeliveries(date time.Time) []*domain.Delivery {
	day := domain.DateOf(date)
	var due []*domain.Delivery
	for _, d := range st.deliveries {
		if !d.Completed && !d.ScheduledDate.After(day) {
			due = append(due, st.hydrateDelivery(d))
		}
	}
	sort.Slice(due, func(i, j int) bool { return due[i].ID < due[j].ID })
	return due
}

func (st *state) hydrateDelivery(d *domain.Delivery) *domain.Delivery {
	clone := cloneDelivery(d)
	clone.Trucks = make([]domain.Truck, 0, len(clone.TruckIDs))
	for _, id := range clone.TruckIDs {
		if t, ok := st.trucks[id]; ok {
			clone.Trucks = append(clone.Trucks, *t)
		}
	}
	return clone
}

func cloneOrder(o *domain.Order) *domain.Order {
	clone := *o
	clone.SubmittedAt = cloneTime(o.SubmittedAt)
	clone.Items = cloneItems(o.Items)
	clone.Delivery = nil
	return &clone
}

func cloneItems(items []domain.OrderItem) []domain.OrderItem {
	if items == nil {
		return nil
	}
	out := make([]domain.OrderItem, len(items))
	copy(out, items)
	return out
}

func cloneDelivery(d *domain.Delivery) *domain.Delivery {
	clone := *d
	clone.TruckIDs = slices.Clone(d.TruckIDs)
	clone.Trucks = slices.Clone(d.Trucks)
	clone.CompletedAt = cloneTime(d.CompletedAt)
	return &clone
}

func cloneTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := *t
	return &v
}
