package application

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/Apurer/order-lifecycle-service/internal/domains/orders/application/types"
	"github.com/Apurer/order-lifecycle-service/internal/domains/orders/domain"
	"github.com/Apurer/order-lifecycle-service/internal/domains/orders/ports"
)

func scheduleIn(t *testing.T, f *fixture, order *domain.Order, req types.ScheduleDeliveryRequest) (*domain.Delivery, error) {
	t.Helper()
	scheduler := NewDeliveryScheduler(f.store, nil, fixedClock)
	var delivery *domain.Delivery
	err := f.store.WithinTransaction(context.Background(), func(ctx context.Context, tx ports.Store) error {
		var err error
		delivery, err = scheduler.Schedule(ctx, tx, order, req)
		return err
	})
	return delivery, err
}

func TestSchedule_DateRules(t *testing.T) {
	f := newFixture(t)
	order := f.order(t, domain.OrderStatusApproved, 3)

	_, err := scheduleIn(t, f, order, types.ScheduleDeliveryRequest{Date: testNow, TruckIDs: []int64{f.truck.ID}})
	require.ErrorIs(t, err, domain.ErrDeliveryDateTooEarly)
	require.ErrorIs(t, err, ErrInvalidInput)

	saturday := testNow.AddDate(0, 0, 5)
	_, err = scheduleIn(t, f, order, types.ScheduleDeliveryRequest{Date: saturday, TruckIDs: []int64{f.truck.ID}})
	require.ErrorIs(t, err, domain.ErrDeliveryOnWeekend)
}

func TestSchedule_UnknownTruck(t *testing.T) {
	f := newFixture(t)
	order := f.order(t, domain.OrderStatusApproved, 3)

	_, err := scheduleIn(t, f, order, types.ScheduleDeliveryRequest{Date: testNow.AddDate(0, 0, 2), TruckIDs: []int64{f.truck.ID, 404}})
	require.ErrorIs(t, err, ports.ErrNotFound)
	require.Equal(t, KindNotFound, Classify(err))
}

func TestSchedule_UnavailableTruck(t *testing.T) {
	f := newFixture(t)
	order := f.order(t, domain.OrderStatusApproved, 3)
	parked, err := f.store.SaveTruck(context.Background(), domain.Truck{ContainerVolume: 50, Available: false})
	require.NoError(t, err)

	_, err = scheduleIn(t, f, order, types.ScheduleDeliveryRequest{Date: testNow.AddDate(0, 0, 2), TruckIDs: []int64{parked.ID}})
	require.ErrorIs(t, err, domain.ErrTruckUnavailable)
}

func TestSchedule_TruckAlreadyBooked(t *testing.T) {
	f := newFixture(t)
	first := f.order(t, domain.OrderStatusApproved, 3)
	second := f.order(t, domain.OrderStatusApproved, 3)
	date := testNow.AddDate(0, 0, 2)

	_, err := scheduleIn(t, f, first, types.ScheduleDeliveryRequest{Date: date, TruckIDs: []int64{f.truck.ID}})
	require.NoError(t, err)

	_, err = scheduleIn(t, f, second, types.ScheduleDeliveryRequest{Date: date, TruckIDs: []int64{f.truck.ID}})
	var booked *domain.TruckBookedError
	require.ErrorAs(t, err, &booked)
	require.Equal(t, f.truck.ID, booked.TruckID)
	require.Equal(t, 97, f.quantity(t))
}

func TestSchedule_InsufficientCapacity(t *testing.T) {
	f := newFixture(t)
	order := f.order(t, domain.OrderStatusApproved, 11) // 22 volume > 20 capacity

	_, err := scheduleIn(t, f, order, types.ScheduleDeliveryRequest{Date: testNow.AddDate(0, 0, 2), TruckIDs: []int64{f.truck.ID}})
	var capErr *domain.InsufficientCapacityError
	require.ErrorAs(t, err, &capErr)
	require.InDelta(t, 22.0, capErr.Required, 1e-9)
	require.InDelta(t, 20.0, capErr.Available, 1e-9)
	require.Equal(t, 100, f.quantity(t))
}

func TestSchedule_InsufficientInventoryCommitsNothing(t *testing.T) {
	f := newFixture(t)
	big, err := f.store.SaveTruck(context.Background(), domain.Truck{ContainerVolume: 1000, Available: true})
	require.NoError(t, err)
	order := f.order(t, domain.OrderStatusApproved, 150)
	date := testNow.AddDate(0, 0, 2)

	_, err = scheduleIn(t, f, order, types.ScheduleDeliveryRequest{Date: date, TruckIDs: []int64{big.ID}})
	require.ErrorIs(t, err, domain.ErrInsufficientInventory)

	booked, err := f.store.BookedTruckIDs(context.Background(), date)
	require.NoError(t, err)
	require.Empty(t, booked)
	require.Equal(t, 100, f.quantity(t))
}

func TestSchedule_CapacityInvariantHolds(t *testing.T) {
	f := newFixture(t)
	extra, err := f.store.SaveTruck(context.Background(), domain.Truck{ContainerVolume: 5, Available: true})
	require.NoError(t, err)
	order := f.order(t, domain.OrderStatusApproved, 12) // 24 volume

	delivery, err := scheduleIn(t, f, order, types.ScheduleDeliveryRequest{
		Date: testNow.AddDate(0, 0, 3), TruckIDs: []int64{f.truck.ID, extra.ID, extra.ID}, Notes: "back entrance",
	})
	require.NoError(t, err)
	require.Len(t, delivery.TruckIDs, 2)
	require.GreaterOrEqual(t, domain.Capacity(delivery.Trucks), delivery.TotalVolume)
	require.InDelta(t, 24.0, delivery.TotalVolume, 1e-9)
	require.Equal(t, "back entrance", delivery.Notes)
	require.Equal(t, 88, f.quantity(t))
}

func TestFeasibleDates_AllBookedReturnsEmpty(t *testing.T) {
	f := newFixture(t)
	order := f.order(t, domain.OrderStatusApproved, 3)
	blocker := f.order(t, domain.OrderStatusApproved, 1)
	ctx := context.Background()

	for i := 1; i <= 7; i++ {
		date := testNow.AddDate(0, 0, i)
		if domain.IsWeekend(date) {
			continue
		}
		_, err := f.store.CreateDelivery(ctx, &domain.Delivery{OrderID: blocker.ID, ScheduledDate: date, TruckIDs: []int64{f.truck.ID}})
		require.NoError(t, err)
	}

	dates, err := NewDeliveryScheduler(f.store, nil, fixedClock).FeasibleDates(ctx, order, 7)
	require.NoError(t, err)
	require.Empty(t, dates)
}

func TestFeasibleDates_FreeTruckReturnsEveryWeekday(t *testing.T) {
	f := newFixture(t)
	order := f.order(t, domain.OrderStatusApproved, 3)
	blocker := f.order(t, domain.OrderStatusApproved, 1)
	ctx := context.Background()
	busy, err := f.store.SaveTruck(ctx, domain.Truck{ContainerVolume: 100, Available: true})
	require.NoError(t, err)
	for i := 1; i <= 7; i++ {
		date := testNow.AddDate(0, 0, i)
		if domain.IsWeekend(date) {
			continue
		}
		_, err := f.store.CreateDelivery(ctx, &domain.Delivery{OrderID: blocker.ID, ScheduledDate: date, TruckIDs: []int64{busy.ID}})
		require.NoError(t, err)
	}

	dates, err := NewDeliveryScheduler(f.store, nil, fixedClock).FeasibleDates(ctx, order, 7)
	require.NoError(t, err)
	// Tue 13 .. Mon 19 without the weekend.
	require.Equal(t, []time.Time{
		domain.DateOf(testNow.AddDate(0, 0, 1)),
		domain.DateOf(testNow.AddDate(0, 0, 2)),
		domain.DateOf(testNow.AddDate(0, 0, 3)),
		domain.DateOf(testNow.AddDate(0, 0, 4)),
		domain.DateOf(testNow.AddDate(0, 0, 7)),
	}, dates)
}

func TestFeasibleDates_CappedByDeadlineAndBounded(t *testing.T) {
	f := newFixture(t)
	order := f.order(t, domain.OrderStatusApproved, 3)
	order.DeadlineDate = domain.DateOf(testNow.AddDate(0, 0, 2))
	scheduler := NewDeliveryScheduler(f.store, nil, fixedClock)

	dates, err := scheduler.FeasibleDates(context.Background(), order, 30)
	require.NoError(t, err)
	require.Len(t, dates, 2)

	_, err = scheduler.FeasibleDates(context.Background(), order, 31)
	require.ErrorIs(t, err, domain.ErrInvalidWindow)
	_, err = scheduler.FeasibleDates(context.Background(), order, 0)
	require.ErrorIs(t, err, ErrInvalidInput)
}
