package domain

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Order is the aggregate driven through the lifecycle by its workflow instance.
type Order struct {
	ID             int64
	OrderNumber    string
	ClientUsername string
	Status         OrderStatus
	SubmittedAt    *time.Time
	DeadlineDate   time.Time
	DeclineReason  string
	Items          []OrderItem
	Delivery       *Delivery
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// OrderItem is one order line. PriceAtOrder is captured when the line is
// written and never follows later item price changes.
type OrderItem struct {
	ID                int64
	ItemID            int64
	Item              *Item
	RequestedQuantity int
	PriceAtOrder      decimal.Decimal
}

// TotalVolume is the package volume the line occupies.
func (i OrderItem) TotalVolume() float64 {
	if i.Item == nil {
		return 0
	}
	return i.Item.PackageVolume * float64(i.RequestedQuantity)
}

// TotalPrice is PriceAtOrder times the requested quantity.
func (i OrderItem) TotalPrice() decimal.Decimal {
	return i.PriceAtOrder.Mul(decimal.NewFromInt(int64(i.RequestedQuantity)))
}

// NewOrderItem snapshots item's current price into a new line.
func NewOrderItem(item *Item, quantity int) (OrderItem, error) {
	if quantity <= 0 {
		return OrderItem{}, ErrInvalidQuantity
	}
	return OrderItem{
		ItemID:            item.ID,
		Item:              item,
		RequestedQuantity: quantity,
		PriceAtOrder:      item.UnitPrice,
	}, nil
}

// NewOrder builds a CREATED order for client.
func NewOrder(client, orderNumber string, deadline time.Time, items []OrderItem, now time.Time) (*Order, error) {
	if strings.TrimSpace(client) == "" {
		return nil, ErrMissingClient
	}
	if len(items) == 0 {
		return nil, ErrNoItems
	}
	if DateOf(deadline).Before(DateOf(now)) {
		return nil, ErrDeadlinePassed
	}
	return &Order{
		OrderNumber:    orderNumber,
		ClientUsername: client,
		Status:         OrderStatusCreated,
		DeadlineDate:   DateOf(deadline),
		Items:          items,
		CreatedAt:      now,
		UpdatedAt:      now,
	}, nil
}

// NewOrderNumber formats ORD-YYYYMMDD-XXXXX from the creation time and a random suffix.
func NewOrderNumber(now time.Time, suffix string) string {
	suffix = strings.ToUpper(strings.ReplaceAll(suffix, "-", ""))
	if len(suffix) > 5 {
		suffix = suffix[:5]
	}
	return fmt.Sprintf("ORD-%s-%s", now.UTC().Format("20060102"), suffix)
}

// TotalVolume sums the volume of every line.
func (o *Order) TotalVolume() float64 {
	var total float64
	for _, item := range o.Items {
		total += item.TotalVolume()
	}
	return total
}

// TotalPrice sums the price of every line.
func (o *Order) TotalPrice() decimal.Decimal {
	total := decimal.Zero
	for _, item := range o.Items {
		total = total.Add(item.TotalPrice())
	}
	return total
}

// Require returns a StatusError unless the order is in one of allowed.
func (o *Order) Require(action string, allowed ...OrderStatus) error {
	for _, status := range allowed {
		if o.Status == status {
			return nil
		}
	}
	return &StatusError{Action: action, Status: o.Status}
}

// MergeItemLines folds duplicate item references into one line each, keeping
// first-seen order. Quantities of duplicates are summed.
func MergeItemLines(lines []ItemLine) []ItemLine {
	merged := make([]ItemLine, 0, len(lines))
	index := make(map[int64]int, len(lines))
	for _, line := range lines {
		if pos, ok := index[line.ItemID]; ok {
			merged[pos].RequestedQuantity += line.RequestedQuantity
			continue
		}
		index[line.ItemID] = len(merged)
		merged = append(merged, line)
	}
	return merged
}

// ItemLine references an item and a quantity before prices are captured.
type ItemLine struct {
	ItemID            int64 `json:"itemId"`
	RequestedQuantity int   `json:"requestedQuantity"`
}
