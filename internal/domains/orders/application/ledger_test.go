package application

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/Apurer/order-lifecycle-service/internal/domains/orders/domain"
)

func TestReserve_InsufficientLeavesQuantity(t *testing.T) {
	f := newFixture(t)
	ledger := NewInventoryLedger(f.store)

	ok, err := ledger.Reserve(context.Background(), f.item.ID, 150)
	require.NoError(t, err)
	require.False(t, ok)
	require.Equal(t, 100, f.quantity(t))

	ok, err = ledger.Reserve(context.Background(), f.item.ID, 30)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, 70, f.quantity(t))
}

func TestReserve_ConcurrentCallsNeverOversell(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	ok, err := NewInventoryLedger(f.store).Reserve(ctx, f.item.ID, 50)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, 50, f.quantity(t))

	ledger := NewInventoryLedger(f.store)
	var succeeded atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ok, err := ledger.Reserve(ctx, f.item.ID, 30)
			if err != nil {
				t.Error(err)
				return
			}
			if ok {
				succeeded.Add(1)
			}
		}()
	}
	wg.Wait()

	require.Equal(t, int32(1), succeeded.Load())
	require.Equal(t, 20, f.quantity(t))
}

func TestReserve_ManyConcurrentCallers(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	ledger := NewInventoryLedger(f.store)

	var succeeded atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < 40; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if ok, _ := ledger.Reserve(ctx, f.item.ID, 7); ok {
				succeeded.Add(1)
			}
		}()
	}
	wg.Wait()

	require.Equal(t, int32(100/7), succeeded.Load())
	require.Equal(t, 100-7*int(succeeded.Load()), f.quantity(t))
	require.GreaterOrEqual(t, f.quantity(t), 0)
}

func TestReserve_RejectsNonPositiveAmount(t *testing.T) {
	f := newFixture(t)
	_, err := NewInventoryLedger(f.store).Reserve(context.Background(), f.item.ID, 0)
	require.ErrorIs(t, err, ErrInvalidInput)
	require.ErrorIs(t, err, domain.ErrInvalidQuantity)
}

func TestReserveLines_ReportsObservedQuantity(t *testing.T) {
	f := newFixture(t)
	order := f.order(t, domain.OrderStatusApproved, 120)

	err := NewInventoryLedger(f.store).ReserveLines(context.Background(), order.Items)
	var invErr *domain.InsufficientInventoryError
	require.ErrorAs(t, err, &invErr)
	require.Equal(t, 100, invErr.Available)
	require.Equal(t, 120, invErr.Requested)
	require.Equal(t, KindValidation, Classify(err))
	require.Equal(t, 100, f.quantity(t))
}
