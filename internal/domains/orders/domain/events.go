package domain

import "time"

// Event is implemented by everything published about an order.
type Event interface {
	EventName() string
	OccurredAt() time.Time
}

// OrderStatusChanged is raised after a status write has been persisted.
type OrderStatusChanged struct {
	OrderID     int64       `json:"orderId"`
	OrderNumber string      `json:"orderNumber"`
	Status      OrderStatus `json:"status"`
	Timestamp   time.Time   `json:"occurredAt"`
}

// EventName returns the event type identifier.
func (e OrderStatusChanged) EventName() string { return "orders.order.status_changed" }

// OccurredAt returns when the status was written.
func (e OrderStatusChanged) OccurredAt() time.Time { return e.Timestamp }
