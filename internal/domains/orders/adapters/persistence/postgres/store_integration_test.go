//go:build integration

package postgres

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	"gorm.io/gorm"

	ordersapp "github.com/Apurer/order-lifecycle-service/internal/domains/orders/application"
	orderstypes "github.com/Apurer/order-lifecycle-service/internal/domains/orders/application/types"
	"github.com/Apurer/order-lifecycle-service/internal/domains/orders/domain"
	"github.com/Apurer/order-lifecycle-service/internal/domains/orders/ports"
	"github.com/Apurer/order-lifecycle-service/internal/platform/migrations"
	platformpostgres "github.com/Apurer/order-lifecycle-service/internal/platform/postgres"
)

// Monday 12 October 2026.
var testNow = time.Date(2026, time.October, 12, 9, 0, 0, 0, time.UTC)

func setupOrdersPostgresContainer(t *testing.T) (*gorm.DB, func()) {
	ctx := context.Background()

	pgContainer, err := tcpostgres.RunContainer(ctx,
		testcontainers.WithImage("postgres:15-alpine"),
		tcpostgres.WithDatabase("orders_test"),
		tcpostgres.WithUsername("test"),
		tcpostgres.WithPassword("test"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second),
		),
	)
	require.NoError(t, err)

	dsn, err := pgContainer.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	db, err := platformpostgres.Connect(ctx, dsn)
	require.NoError(t, err)

	err = migrations.Run(db)
	require.NoError(t, err)

	cleanup := func() {
		sqlDB, _ := db.DB()
		if sqlDB != nil {
			sqlDB.Close()
		}
		pgContainer.Terminate(ctx)
	}
	return db, cleanup
}

type seeded struct {
	store *Store
	item  *domain.Item
	truck *domain.Truck
}

func seed(t *testing.T, db *gorm.DB, quantity int) seeded {
	t.Helper()
	ctx := context.Background()
	store := NewStore(db)
	item, err := store.SaveItem(ctx, domain.Item{
		Name: "Oak table", SKU: "TBL-01", Quantity: quantity,
		UnitPrice: decimal.RequireFromString("249.99"), PackageVolume: 2,
	})
	require.NoError(t, err)
	truck, err := store.SaveTruck(ctx, domain.Truck{ChassisNumber: "CH-1", LicensePlate: "AB-123", ContainerVolume: 20, Available: true})
	require.NoError(t, err)
	return seeded{store: store, item: item, truck: truck}
}

func (s seeded) order(t *testing.T, suffix string, status domain.OrderStatus) *domain.Order {
	t.Helper()
	ctx := context.Background()
	line, err := domain.NewOrderItem(s.item, 3)
	require.NoError(t, err)
	order, err := domain.NewOrder("alice", domain.NewOrderNumber(testNow, suffix), testNow.AddDate(0, 0, 20), []domain.OrderItem{line}, testNow)
	require.NoError(t, err)
	created, err := s.store.CreateOrder(ctx, order)
	require.NoError(t, err)
	created.Status = status
	created, err = s.store.SaveOrder(ctx, created)
	require.NoError(t, err)
	return created
}

func (s seeded) quantity(t *testing.T) int {
	t.Helper()
	item, err := s.store.GetItem(context.Background(), s.item.ID)
	require.NoError(t, err)
	return item.Quantity
}

func TestStore_OrderRoundTrip(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	db, cleanup := setupOrdersPostgresContainer(t)
	defer cleanup()

	s := seed(t, db, 100)
	ctx := context.Background()
	order := s.order(t, "aaaaa", domain.OrderStatusCreated)

	fetched, err := s.store.GetOrder(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, "ORD-20261012-AAAAA", fetched.OrderNumber)
	assert.Equal(t, domain.OrderStatusCreated, fetched.Status)
	require.Len(t, fetched.Items, 1)
	assert.True(t, decimal.RequireFromString("249.99").Equal(fetched.Items[0].PriceAtOrder))
	require.NotNil(t, fetched.Items[0].Item)
	assert.Equal(t, 6.0, fetched.TotalVolume())
	assert.True(t, fetched.DeadlineDate.Equal(domain.DateOf(testNow.AddDate(0, 0, 20))))

	line, err := domain.NewOrderItem(s.item, 7)
	require.NoError(t, err)
	require.NoError(t, s.store.ReplaceOrderItems(ctx, order.ID, []domain.OrderItem{line}))
	fetched, err = s.store.GetOrder(ctx, order.ID)
	require.NoError(t, err)
	require.Len(t, fetched.Items, 1)
	assert.Equal(t, 7, fetched.Items[0].RequestedQuantity)

	_, err = s.store.GetOrder(ctx, 9999)
	assert.ErrorIs(t, err, ports.ErrNotFound)
}

func TestStore_ReserveNeverOverdraws(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	db, cleanup := setupOrdersPostgresContainer(t)
	defer cleanup()

	s := seed(t, db, 100)
	ctx := context.Background()

	ok, err := s.store.ReserveItemQuantity(ctx, s.item.ID, 150)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, 100, s.quantity(t))

	ok, err = s.store.ReserveItemQuantity(ctx, s.item.ID, 50)
	require.NoError(t, err)
	require.True(t, ok)

	var wg sync.WaitGroup
	results := make(chan bool, 2)
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ok, err := s.store.ReserveItemQuantity(ctx, s.item.ID, 30)
			if err != nil {
				t.Error(err)
			}
			results <- ok
		}()
	}
	wg.Wait()
	close(results)

	succeeded := 0
	for ok := range results {
		if ok {
			succeeded++
		}
	}
	assert.Equal(t, 1, succeeded)
	assert.Equal(t, 20, s.quantity(t))
}

func TestStore_BookingIsUniquePerTruckAndDate(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	db, cleanup := setupOrdersPostgresContainer(t)
	defer cleanup()

	s := seed(t, db, 100)
	ctx := context.Background()
	first := s.order(t, "aaaaa", domain.OrderStatusApproved)
	second := s.order(t, "bbbbb", domain.OrderStatusApproved)
	date := time.Date(2026, time.October, 14, 0, 0, 0, 0, time.UTC)

	d1, err := domain.NewDelivery(first.ID, date, []domain.Truck{*s.truck}, 6, "")
	require.NoError(t, err)
	created, err := s.store.CreateDelivery(ctx, d1)
	require.NoError(t, err)
	assert.Equal(t, []int64{s.truck.ID}, created.TruckIDs)
	require.Len(t, created.Trucks, 1)

	d2, err := domain.NewDelivery(second.ID, date, []domain.Truck{*s.truck}, 6, "")
	require.NoError(t, err)
	_, err = s.store.CreateDelivery(ctx, d2)
	assert.True(t, errors.Is(err, ports.ErrBookingConflict))

	booked, err := s.store.BookedTruckIDs(ctx, date)
	require.NoError(t, err)
	assert.Equal(t, []int64{s.truck.ID}, booked)

	found, err := s.store.FindDeliveriesByTruckAndDate(ctx, s.truck.ID, date)
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, first.ID, found[0].OrderID)
}

func TestStore_TransactionRollsBackDeliveryAndReservation(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	db, cleanup := setupOrdersPostgresContainer(t)
	defer cleanup()

	s := seed(t, db, 100)
	ctx := context.Background()
	order := s.order(t, "aaaaa", domain.OrderStatusApproved)
	date := time.Date(2026, time.October, 14, 0, 0, 0, 0, time.UTC)

	boom := errors.New("boom")
	err := s.store.WithinTransaction(ctx, func(ctx context.Context, tx ports.Store) error {
		delivery, err := domain.NewDelivery(order.ID, date, []domain.Truck{*s.truck}, 6, "")
		if err != nil {
			return err
		}
		if _, err := tx.CreateDelivery(ctx, delivery); err != nil {
			return err
		}
		if _, err := tx.ReserveItemQuantity(ctx, s.item.ID, 3); err != nil {
			return err
		}
		return boom
	})
	require.ErrorIs(t, err, boom)

	assert.Equal(t, 100, s.quantity(t))
	booked, err := s.store.BookedTruckIDs(ctx, date)
	require.NoError(t, err)
	assert.Empty(t, booked)
}

func TestStore_ScheduleAndFulfilThroughActivities(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	db, cleanup := setupOrdersPostgresContainer(t)
	defer cleanup()

	s := seed(t, db, 100)
	ctx := context.Background()
	order := s.order(t, "aaaaa", domain.OrderStatusApproved)
	date := time.Date(2026, time.October, 14, 0, 0, 0, 0, time.UTC)
	activities := ordersapp.NewActivities(s.store, ordersapp.WithActivitiesClock(func() time.Time { return testNow }))
	req := orderstypes.ScheduleDeliveryRequest{Date: date, TruckIDs: []int64{s.truck.ID}}

	require.NoError(t, activities.ValidateAndScheduleDelivery(ctx, order.ID, req))
	require.NoError(t, activities.ValidateAndScheduleDelivery(ctx, order.ID, req))
	assert.Equal(t, 97, s.quantity(t))

	due, err := s.store.ListDueDeliveries(ctx, date.AddDate(0, 0, -1))
	require.NoError(t, err)
	assert.Empty(t, due)
	due, err = s.store.ListDueDeliveries(ctx, date)
	require.NoError(t, err)
	require.Len(t, due, 1)

	require.NoError(t, activities.FulfillDelivery(ctx, order.ID))
	fetched, err := s.store.GetOrder(ctx, order.ID)
	require.NoError(t, err)
	require.NotNil(t, fetched.Delivery)
	assert.True(t, fetched.Delivery.Completed)
	assert.NotNil(t, fetched.Delivery.CompletedAt)

	due, err = s.store.ListDueDeliveries(ctx, date)
	require.NoError(t, err)
	assert.Empty(t, due)
}

func TestStore_CancelReleasesUnfinishedDelivery(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	db, cleanup := setupOrdersPostgresContainer(t)
	defer cleanup()

	s := seed(t, db, 100)
	ctx := context.Background()
	order := s.order(t, "aaaaa", domain.OrderStatusApproved)
	date := time.Date(2026, time.October, 16, 0, 0, 0, 0, time.UTC)
	activities := ordersapp.NewActivities(s.store, ordersapp.WithActivitiesClock(func() time.Time { return testNow }))

	require.NoError(t, activities.ValidateAndScheduleDelivery(ctx, order.ID,
		orderstypes.ScheduleDeliveryRequest{Date: date, TruckIDs: []int64{s.truck.ID}}))
	assert.Equal(t, 97, s.quantity(t))

	require.NoError(t, activities.CancelOrderInDB(ctx, order.ID))
	fetched, err := s.store.GetOrder(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.OrderStatusCanceled, fetched.Status)
	assert.Nil(t, fetched.Delivery)
	assert.Equal(t, 100, s.quantity(t))
	booked, err := s.store.BookedTruckIDs(ctx, date)
	require.NoError(t, err)
	assert.Empty(t, booked)
}

func TestStore_ListOrdersFiltersAndPages(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	db, cleanup := setupOrdersPostgresContainer(t)
	defer cleanup()

	s := seed(t, db, 100)
	ctx := context.Background()
	first := s.order(t, "aaaaa", domain.OrderStatusAwaitingApproval)
	second := s.order(t, "bbbbb", domain.OrderStatusAwaitingApproval)
	draft := s.order(t, "ccccc", domain.OrderStatusCreated)
	for i, o := range []*domain.Order{first, second} {
		submitted := testNow.Add(time.Duration(i+1) * time.Hour)
		o.SubmittedAt = &submitted
		_, err := s.store.SaveOrder(ctx, o)
		require.NoError(t, err)
	}

	orders, total, err := s.store.ListOrders(ctx, ports.OrderFilter{Sort: ports.SortBySubmitted})
	require.NoError(t, err)
	assert.EqualValues(t, 3, total)
	require.Len(t, orders, 3)
	assert.Equal(t, []int64{second.ID, first.ID, draft.ID}, []int64{orders[0].ID, orders[1].ID, orders[2].ID})
	assert.Len(t, orders[0].Items, 1)

	orders, total, err = s.store.ListOrders(ctx, ports.OrderFilter{
		ClientUsername: "alice", Status: domain.OrderStatusAwaitingApproval, Limit: 1, Offset: 1,
	})
	require.NoError(t, err)
	assert.EqualValues(t, 2, total)
	require.Len(t, orders, 1)

	orders, total, err = s.store.ListOrders(ctx, ports.OrderFilter{ClientUsername: "bob"})
	require.NoError(t, err)
	assert.Zero(t, total)
	assert.Empty(t, orders)
}

func TestIdempotencyStore_SaveReplaysAndDetectsConflict(t *testing.T) {
	db, cleanup := setupOrdersPostgresContainer(t)
	defer cleanup()
	s := seed(t, db, 10)
	order := s.order(t, "idemp", domain.OrderStatusCreated)
	ctx := context.Background()
	idem := NewIdempotencyStore(db)

	missing, err := idem.Get(ctx, "key-1")
	require.NoError(t, err)
	assert.Nil(t, missing)

	saved, err := idem.Save(ctx, ports.IdempotencyRecord{Key: "key-1", RequestHash: "hash-a", OrderID: order.ID})
	require.NoError(t, err)
	assert.Equal(t, order.ID, saved.OrderID)

	again, err := idem.Save(ctx, ports.IdempotencyRecord{Key: "key-1", RequestHash: "hash-a", OrderID: order.ID})
	require.NoError(t, err)
	assert.Equal(t, "hash-a", again.RequestHash)

	existing, err := idem.Save(ctx, ports.IdempotencyRecord{Key: "key-1", RequestHash: "hash-b", OrderID: order.ID})
	require.ErrorIs(t, err, ports.ErrIdempotencyConflict)
	require.NotNil(t, existing)
	assert.Equal(t, "hash-a", existing.RequestHash)

	loaded, err := idem.Get(ctx, "key-1")
	require.NoError(t, err)
	require.NotNil(t, loaded)
	assert.Equal(t, order.ID, loaded.OrderID)
}
