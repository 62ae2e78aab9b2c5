package application

import (
	"context"
	"fmt"

	"github.com/Apurer/order-lifecycle-service/internal/domains/orders/application/types"
	"github.com/Apurer/order-lifecycle-service/internal/domains/orders/domain"
	"github.com/Apurer/order-lifecycle-service/internal/domains/orders/ports"
)

// ItemsUpdatedMessage is returned by a successful item list update.
const ItemsUpdatedMessage = "Order items updated successfully"

// Activities is the catalog of side effects an order instance may perform.
// Every operation is safe to retry: it is either naturally idempotent or
// checks persisted state before acting.
type Activities struct {
	store     ports.Store
	scheduler *DeliveryScheduler
	events    ports.EventPublisher
	now       Clock
}

// ActivitiesOption customises the catalog.
type ActivitiesOption func(*Activities)

// WithActivitiesClock overrides the clock used for timestamps and date checks.
func WithActivitiesClock(now Clock) ActivitiesOption {
	return func(a *Activities) {
		if now != nil {
			a.now = now
		}
	}
}

// WithEventPublisher sends OrderStatusChanged events after status writes.
func WithEventPublisher(events ports.EventPublisher) ActivitiesOption {
	return func(a *Activities) {
		if events != nil {
			a.events = events
		}
	}
}

// NewActivities wires the catalog over a store.
func NewActivities(store ports.Store, opts ...ActivitiesOption) *Activities {
	a := &Activities{store: store, events: ports.NopPublisher{}, now: systemClock}
	for _, opt := range opts {
		if opt != nil {
			opt(a)
		}
	}
	a.scheduler = NewDeliveryScheduler(store, NewInventoryLedger(store), a.now)
	return a
}

// UpdateOrderStatus writes status and publishes the change.
func (a *Activities) UpdateOrderStatus(ctx context.Context, orderID int64, status domain.OrderStatus) error {
	if !status.Valid() {
		return mapError(domain.ErrUnknownStatus)
	}
	order, err := a.store.GetOrder(ctx, orderID)
	if err != nil {
		return err
	}
	if order.Status != status {
		order.Status = status
		order.UpdatedAt = a.now()
		if order, err = a.store.SaveOrder(ctx, order); err != nil {
			return err
		}
	}
	// Published on every attempt so a retry after a lost publish still emits the event.
	return a.events.Publish(ctx, domain.OrderStatusChanged{
		OrderID:     order.ID,
		OrderNumber: order.OrderNumber,
		Status:      status,
		Timestamp:   a.now(),
	})
}

// SetDeclineReason records why the manager declined the order.
func (a *Activities) SetDeclineReason(ctx context.Context, orderID int64, reason string) error {
	order, err := a.store.GetOrder(ctx, orderID)
	if err != nil {
		return err
	}
	if order.DeclineReason == reason {
		return nil
	}
	order.DeclineReason = reason
	order.UpdatedAt = a.now()
	_, err = a.store.SaveOrder(ctx, order)
	return err
}

// ValidateOrderForSubmission requires at least one item and stamps the submission time.
func (a *Activities) ValidateOrderForSubmission(ctx context.Context, orderID int64) error {
	order, err := a.store.GetOrder(ctx, orderID)
	if err != nil {
		return err
	}
	if len(order.Items) == 0 {
		return mapError(domain.ErrNoItems)
	}
	now := a.now()
	order.SubmittedAt = &now
	order.UpdatedAt = now
	_, err = a.store.SaveOrder(ctx, order)
	return err
}

// ValidateOrderForApproval requires the order to await approval.
func (a *Activities) ValidateOrderForApproval(ctx context.Context, orderID int64) error {
	order, err := a.store.GetOrder(ctx, orderID)
	if err != nil {
		return err
	}
	return mapError(order.Require("approve", domain.OrderStatusAwaitingApproval))
}

// ValidateAndScheduleDelivery checks date, trucks and capacity, then creates
// the delivery and reserves inventory in a single transaction. Repeating a
// call that already succeeded returns nil without reserving again.
func (a *Activities) ValidateAndScheduleDelivery(ctx context.Context, orderID int64, req types.ScheduleDeliveryRequest) error {
	return a.store.WithinTransaction(ctx, func(ctx context.Context, tx ports.Store) error {
		order, err := tx.GetOrder(ctx, orderID)
		if err != nil {
			return err
		}
		if order.Delivery != nil {
			if order.Delivery.Matches(req.Date, uniqueIDs(req.TruckIDs)) {
				return nil
			}
			return mapError(domain.ErrDeliveryMismatch)
		}
		if err := order.Require("schedule delivery for", domain.OrderStatusApproved); err != nil {
			return mapError(err)
		}
		_, err = a.scheduler.Schedule(ctx, tx, order, req)
		return err
	})
}

// FulfillDelivery marks the order's delivery completed.
func (a *Activities) FulfillDelivery(ctx context.Context, orderID int64) error {
	order, err := a.store.GetOrder(ctx, orderID)
	if err != nil {
		return err
	}
	if order.Delivery == nil {
		return mapError(domain.ErrNoDelivery)
	}
	if order.Delivery.Completed {
		return nil
	}
	order.Delivery.Complete(a.now())
	return a.store.SaveDelivery(ctx, order.Delivery)
}

// CancelOrderInDB cancels an order that has not started delivery. A
// delivery left behind by an unfinished scheduling is removed and its stock
// and truck bookings released in the same transaction.
func (a *Activities) CancelOrderInDB(ctx context.Context, orderID int64) error {
	return a.store.WithinTransaction(ctx, func(ctx context.Context, tx ports.Store) error {
		order, err := tx.GetOrder(ctx, orderID)
		if err != nil {
			return err
		}
		// Already canceled is success: a retried attempt must not fail the
		// instance after the first one committed.
		if order.Status == domain.OrderStatusCanceled {
			return nil
		}
		if !domain.Cancelable(order.Status) {
			return mapError(&domain.StatusError{Action: "cancel", Status: order.Status})
		}
		if order.Delivery != nil && !order.Delivery.Completed {
			if err := NewInventoryLedger(tx).ReleaseLines(ctx, order.Items); err != nil {
				return err
			}
			if err := tx.DeleteDelivery(ctx, order.Delivery.ID); err != nil {
				return err
			}
		}
		order.Status = domain.OrderStatusCanceled
		order.UpdatedAt = a.now()
		_, err = tx.SaveOrder(ctx, order)
		return err
	})
}

// UpdateOrderItemsInDB replaces the item list, re-capturing prices.
func (a *Activities) UpdateOrderItemsInDB(ctx context.Context, orderID int64, lines []domain.ItemLine) (string, error) {
	order, err := a.store.GetOrder(ctx, orderID)
	if err != nil {
		return "", err
	}
	if !domain.CanUpdateItemsOrder(order.Status) {
		return "", mapError(&domain.StatusError{Action: "update items of", Status: order.Status})
	}
	items, err := resolveLines(ctx, a.store, lines)
	if err != nil {
		return "", err
	}
	if err := a.store.ReplaceOrderItems(ctx, orderID, items); err != nil {
		return "", err
	}
	return ItemsUpdatedMessage, nil
}

func resolveLines(ctx context.Context, store ports.Store, lines []domain.ItemLine) ([]domain.OrderItem, error) {
	for _, line := range lines {
		if line.RequestedQuantity <= 0 {
			return nil, mapError(domain.ErrInvalidQuantity)
		}
	}
	merged := domain.MergeItemLines(lines)
	if len(merged) == 0 {
		return nil, mapError(domain.ErrNoItems)
	}
	items := make([]domain.OrderItem, 0, len(merged))
	for _, line := range merged {
		item, err := store.GetItem(ctx, line.ItemID)
		if err != nil {
			return nil, fmt.Errorf("item %d: %w", line.ItemID, err)
		}
		orderItem, err := domain.NewOrderItem(item, line.RequestedQuantity)
		if err != nil {
			return nil, mapError(err)
		}
		items = append(items, orderItem)
	}
	return items, nil
}
