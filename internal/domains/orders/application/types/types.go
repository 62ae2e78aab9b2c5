package types

import (
	"time"

	"github.com/Apurer/order-lifecycle-service/internal/domains/orders/domain"
	"github.com/Apurer/order-lifecycle-service/internal/shared/projection"
)

// OrderProjection transports an order together with its persistence metadata.
type OrderProjection = projection.Projection[*domain.Order]

// NewOrderProjection wraps an order with its audit timestamps.
func NewOrderProjection(order *domain.Order) *OrderProjection {
	if order == nil {
		return nil
	}
	return projection.New(order, order.CreatedAt, order.UpdatedAt)
}

// OrderLineInput is one requested line of a new order.
type OrderLineInput struct {
	ItemID            int64 `validate:"required,gt=0"`
	RequestedQuantity int   `validate:"gt=0"`
}

// CreateOrderInput carries everything needed to open an order.
type CreateOrderInput struct {
	ClientUsername string           `validate:"required"`
	DeadlineDate   time.Time        `validate:"required"`
	Items          []OrderLineInput `validate:"required,min=1,dive"`

	// IdempotencyKey lets a client retry a create without placing a second order.
	IdempotencyKey string `validate:"omitempty,max=255"`
}

// Lines converts the input lines into domain item lines.
func (in CreateOrderInput) Lines() []domain.ItemLine {
	lines := make([]domain.ItemLine, 0, len(in.Items))
	for _, item := range in.Items {
		lines = append(lines, domain.ItemLine{ItemID: item.ItemID, RequestedQuantity: item.RequestedQuantity})
	}
	return lines
}

// AvailableDatesInput asks for feasible delivery dates. Days of zero selects the configured window.
type AvailableDatesInput struct {
	OrderID int64
	Days    int
}

// ListOrdersInput selects one page of orders. An empty Status lists every
// status; a zero Size selects the default page size.
type ListOrdersInput struct {
	Status domain.OrderStatus
	Page   int `validate:"gte=0"`
	Size   int `validate:"gte=0,lte=100"`
}

// OrderPage is one page of a listing.
type OrderPage struct {
	Orders        []*OrderProjection
	Page          int
	Size          int
	TotalElements int64
	TotalPages    int
}

// ScheduleDeliveryRequest is the payload of the scheduleDelivery signal.
type ScheduleDeliveryRequest struct {
	Date     time.Time `json:"date"`
	TruckIDs []int64   `json:"truckIds"`
	Notes    string    `json:"notes"`
}

// DeclineRequest is the payload of the declineOrder signal.
type DeclineRequest struct {
	Reason string `json:"reason"`
}

// ProcessOrderInput starts an order workflow instance.
type ProcessOrderInput struct {
	OrderID        int64  `json:"orderId"`
	ClientUsername string `json:"clientUsername"`
	TraceID        string `json:"traceId,omitempty"`
}
