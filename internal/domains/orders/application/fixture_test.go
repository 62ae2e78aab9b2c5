package application

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/Apurer/order-lifecycle-service/internal/domains/orders/adapters/memory"
	"github.com/Apurer/order-lifecycle-service/internal/domains/orders/domain"
)

// Monday 12 October 2026.
var testNow = time.Date(2026, time.October, 12, 9, 0, 0, 0, time.UTC)

func fixedClock() time.Time { return testNow }

type fixture struct {
	store *memory.Store
	item  *domain.Item
	truck *domain.Truck
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()
	store := memory.NewStore()
	item, err := store.SaveItem(ctx, domain.Item{
		Name: "Oak table", SKU: "TBL-01", Quantity: 100,
		UnitPrice: decimal.RequireFromString("249.99"), PackageVolume: 2,
	})
	require.NoError(t, err)
	truck, err := store.SaveTruck(ctx, domain.Truck{
		ChassisNumber: "CH-1", LicensePlate: "AB-123", ContainerVolume: 20, Available: true,
	})
	require.NoError(t, err)
	return &fixture{store: store, item: item, truck: truck}
}

func (f *fixture) order(t *testing.T, status domain.OrderStatus, quantity int) *domain.Order {
	t.Helper()
	ctx := context.Background()
	line, err := domain.NewOrderItem(f.item, quantity)
	require.NoError(t, err)
	order, err := domain.NewOrder("alice", domain.NewOrderNumber(testNow, "abcde"), testNow.AddDate(0, 0, 20), []domain.OrderItem{line}, testNow)
	require.NoError(t, err)
	created, err := f.store.CreateOrder(ctx, order)
	require.NoError(t, err)
	if status != domain.OrderStatusCreated {
		created.Status = status
		created, err = f.store.SaveOrder(ctx, created)
		require.NoError(t, err)
	}
	return created
}

func (f *fixture) quantity(t *testing.T) int {
	t.Helper()
	item, err := f.store.GetItem(context.Background(), f.item.ID)
	require.NoError(t, err)
	return item.Quantity
}
