package application

import (
	"context"

	"github.com/Apurer/order-lifecycle-service/internal/domains/orders/domain"
	"github.com/Apurer/order-lifecycle-service/internal/domains/orders/ports"
)

// InventoryLedger reserves stock through the store's conditional decrement.
// Item quantities are never read, modified and written back by this package.
type InventoryLedger struct {
	store ports.Store
}

// NewInventoryLedger binds the ledger to a store.
func NewInventoryLedger(store ports.Store) *InventoryLedger {
	return &InventoryLedger{store: store}
}

// Reserve decrements itemID by amount when enough stock is on hand and
// reports whether it did.
func (l *InventoryLedger) Reserve(ctx context.Context, itemID int64, amount int) (bool, error) {
	if amount <= 0 {
		return false, mapError(domain.ErrInvalidQuantity)
	}
	return l.store.ReserveItemQuantity(ctx, itemID, amount)
}

// ReserveLines reserves every order line in turn. The first refusal is
// reported with the quantity re-read after the failed attempt; callers run
// this inside a transaction so earlier reservations roll back with it.
func (l *InventoryLedger) ReserveLines(ctx context.Context, lines []domain.OrderItem) error {
	for _, line := range lines {
		ok, err := l.Reserve(ctx, line.ItemID, line.RequestedQuantity)
		if err != nil {
			return err
		}
		if ok {
			continue
		}
		item, err := l.store.GetItem(ctx, line.ItemID)
		if err != nil {
			return err
		}
		return mapError(&domain.InsufficientInventoryError{
			ItemID:    item.ID,
			ItemName:  item.Name,
			Available: item.Quantity,
			Requested: line.RequestedQuantity,
		})
	}
	return nil
}

// ReleaseLines puts the quantities of lines back on hand.
func (l *InventoryLedger) ReleaseLines(ctx context.Context, lines []domain.OrderItem) error {
	for _, line := range lines {
		if line.RequestedQuantity <= 0 {
			continue
		}
		if err := l.store.RestockItemQuantity(ctx, line.ItemID, line.RequestedQuantity); err != nil {
			return err
		}
	}
	return nil
}

func (l *InventoryLedger) within(store ports.Store) *InventoryLedger {
	return &InventoryLedger{store: store}
}
