package application

import (
	"context"
	"slices"
	"time"

	"github.com/Apurer/order-lifecycle-service/internal/domains/orders/application/types"
	"github.com/Apurer/order-lifecycle-service/internal/domains/orders/domain"
	"github.com/Apurer/order-lifecycle-service/internal/domains/orders/ports"
)

const (
	// DefaultWindowDays is the feasible-date window used when none is configured.
	DefaultWindowDays = 7
	MinWindowDays     = 1
	MaxWindowDays     = 30
)

// DeliveryScheduler validates truck bookings and searches feasible delivery dates.
type DeliveryScheduler struct {
	store  ports.Store
	ledger *InventoryLedger
	now    Clock
}

// NewDeliveryScheduler wires the scheduler. A nil clock uses the system clock.
func NewDeliveryScheduler(store ports.Store, ledger *InventoryLedger, now Clock) *DeliveryScheduler {
	if now == nil {
		now = systemClock
	}
	if ledger == nil {
		ledger = NewInventoryLedger(store)
	}
	return &DeliveryScheduler{store: store, ledger: ledger, now: now}
}

// Schedule books trucks for order on the requested date, creates its delivery
// and reserves stock for every line. tx must be a transactional store: a
// failure at any point leaves nothing behind once the transaction rolls back.
func (s *DeliveryScheduler) Schedule(ctx context.Context, tx ports.Store, order *domain.Order, req types.ScheduleDeliveryRequest) (*domain.Delivery, error) {
	date := domain.DateOf(req.Date)
	if err := domain.ValidateDeliveryDate(date, s.now()); err != nil {
		return nil, mapError(err)
	}
	truckIDs := uniqueIDs(req.TruckIDs)
	if len(truckIDs) == 0 {
		return nil, mapError(domain.ErrNoTrucks)
	}

	trucks := make([]domain.Truck, 0, len(truckIDs))
	for _, id := range truckIDs {
		truck, err := tx.GetTruck(ctx, id)
		if err != nil {
			return nil, err
		}
		if !truck.Available {
			return nil, mapError(&domain.TruckUnavailableError{TruckID: id})
		}
		trucks = append(trucks, *truck)
	}

	for _, truck := range trucks {
		booked, err := tx.FindDeliveriesByTruckAndDate(ctx, truck.ID, date)
		if err != nil {
			return nil, err
		}
		for _, d := range booked {
			if d.OrderID != order.ID {
				return nil, mapError(&domain.TruckBookedError{TruckID: truck.ID, Date: date})
			}
		}
	}

	delivery, err := domain.NewDelivery(order.ID, date, trucks, order.TotalVolume(), req.Notes)
	if err != nil {
		return nil, mapError(err)
	}
	created, err := tx.CreateDelivery(ctx, delivery)
	if err != nil {
		return nil, err
	}
	if err := s.ledger.within(tx).ReserveLines(ctx, order.Items); err != nil {
		return nil, err
	}
	return created, nil
}

// FeasibleDates lists, in chronological order, the weekdays from tomorrow on
// within days (capped at the order's deadline) whose unbooked available
// trucks can carry the order. It reserves nothing.
func (s *DeliveryScheduler) FeasibleDates(ctx context.Context, order *domain.Order, days int) ([]time.Time, error) {
	if days < MinWindowDays || days > MaxWindowDays {
		return nil, mapError(domain.ErrInvalidWindow)
	}
	trucks, err := s.store.ListTrucks(ctx)
	if err != nil {
		return nil, err
	}
	required := order.TotalVolume()
	start := domain.Tomorrow(s.now())
	dates := make([]time.Time, 0, days)
	for i := 0; i < days; i++ {
		date := start.AddDate(0, 0, i)
		if !order.DeadlineDate.IsZero() && date.After(domain.DateOf(order.DeadlineDate)) {
			break
		}
		if domain.IsWeekend(date) {
			continue
		}
		booked, err := s.store.BookedTruckIDs(ctx, date)
		if err != nil {
			return nil, err
		}
		if freeCapacity(trucks, booked) >= required {
			dates = append(dates, date)
		}
	}
	return dates, nil
}

func freeCapacity(trucks []domain.Truck, booked []int64) float64 {
	var total float64
	for _, t := range trucks {
		if !t.Available || slices.Contains(booked, t.ID) {
			continue
		}
		total += t.ContainerVolume
	}
	return total
}

func uniqueIDs(ids []int64) []int64 {
	out := make([]int64, 0, len(ids))
	for _, id := range ids {
		if !slices.Contains(out, id) {
			out = append(out, id)
		}
	}
	return out
}
