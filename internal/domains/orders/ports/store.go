package ports

import (
	"context"
	"errors"
	"time"

	"github.com/Apurer/order-lifecycle-service/internal/domains/orders/domain"
)

var (
	// ErrNotFound indicates the referenced order, item, truck or delivery does not exist.
	ErrNotFound = errors.New("resource not found")
	// ErrBookingConflict is returned when the (truck, date) uniqueness constraint rejects a write.
	ErrBookingConflict = errors.New("truck booking conflicts with a concurrent delivery")
)

// Store is the persistence collaborator of the order lifecycle.
type Store interface {
	GetOrder(ctx context.Context, id int64) (*domain.Order, error)
	CreateOrder(ctx context.Context, order *domain.Order) (*domain.Order, error)
	// SaveOrder writes the order's scalar fields. Items and delivery are left untouched.
	SaveOrder(ctx context.Context, order *domain.Order) (*domain.Order, error)
	ReplaceOrderItems(ctx context.Context, orderID int64, items []domain.OrderItem) error
	// ListOrders returns one page of orders matching filter and the total match count.
	ListOrders(ctx context.Context, filter OrderFilter) ([]*domain.Order, int64, error)

	GetItem(ctx context.Context, id int64) (*domain.Item, error)
	// ReserveItemQuantity atomically decrements quantity when at least amount is on hand.
	ReserveItemQuantity(ctx context.Context, itemID int64, amount int) (bool, error)
	RestockItemQuantity(ctx context.Context, itemID int64, amount int) error

	GetTruck(ctx context.Context, id int64) (*domain.Truck, error)
	ListTrucks(ctx context.Context) ([]domain.Truck, error)

	FindDeliveriesByTruckAndDate(ctx context.Context, truckID int64, date time.Time) ([]*domain.Delivery, error)
	// BookedTruckIDs lists trucks that already serve a delivery on date.
	BookedTruckIDs(ctx context.Context, date time.Time) ([]int64, error)
	// CreateDelivery stores the delivery and its (truck, date) bookings.
	CreateDelivery(ctx context.Context, delivery *domain.Delivery) (*domain.Delivery, error)
	SaveDelivery(ctx context.Context, delivery *domain.Delivery) error
	// DeleteDelivery removes the delivery and frees its truck bookings.
	DeleteDelivery(ctx context.Context, id int64) error
	// ListDueDeliveries returns uncompleted deliveries scheduled on or before date.
	ListDueDeliveries(ctx context.Context, date time.Time) ([]*domain.Delivery, error)

	// WithinTransaction runs fn against a Store whose writes commit together or not at all.
	WithinTransaction(ctx context.Context, fn func(ctx context.Context, tx Store) error) error
}

// OrderSort selects the listing order of ListOrders.
type OrderSort int

const (
	// SortByCreated lists the newest orders first.
	SortByCreated OrderSort = iota
	// SortBySubmitted lists the most recently submitted orders first;
	// orders never submitted come last.
	SortBySubmitted
)

// OrderFilter narrows ListOrders. Zero fields do not filter.
type OrderFilter struct {
	ClientUsername string
	Status         domain.OrderStatus
	Sort           OrderSort
	Limit          int
	Offset         int
}
