package domain

import (
	"slices"
	"time"
)

// Delivery is the single shipment of an order, created only by scheduling.
type Delivery struct {
	ID            int64
	OrderID       int64
	ScheduledDate time.Time
	TruckIDs      []int64
	Trucks        []Truck
	TotalVolume   float64
	Completed     bool
	CompletedAt   *time.Time
	Notes         string
}

// NewDelivery assembles a delivery and enforces that trucks can carry required.
func NewDelivery(orderID int64, date time.Time, trucks []Truck, required float64, notes string) (*Delivery, error) {
	if len(trucks) == 0 {
		return nil, ErrNoTrucks
	}
	if available := Capacity(trucks); available < required {
		return nil, &InsufficientCapacityError{Required: required, Available: available}
	}
	ids := make([]int64, 0, len(trucks))
	for _, t := range trucks {
		ids = append(ids, t.ID)
	}
	return &Delivery{
		OrderID:       orderID,
		ScheduledDate: DateOf(date),
		TruckIDs:      ids,
		Trucks:        trucks,
		TotalVolume:   required,
		Notes:         notes,
	}, nil
}

// Matches reports whether d was scheduled for date with exactly truckIDs.
func (d *Delivery) Matches(date time.Time, truckIDs []int64) bool {
	if d == nil || !SameDate(d.ScheduledDate, date) {
		return false
	}
	have := slices.Clone(d.TruckIDs)
	want := slices.Clone(truckIDs)
	slices.Sort(have)
	slices.Sort(want)
	return slices.Equal(have, slices.Compact(want))
}

// Complete marks the delivery done at now. It is a no-op when already completed.
func (d *Delivery) Complete(now time.Time) {
	if d.Completed {
		return
	}
	d.Completed = true
	d.CompletedAt = &now
}
