package mapper

import (
	"time"

	openapi_types "github.com/oapi-codegen/runtime/types"
	"github.com/shopspring/decimal"

	orderstypes "github.com/Apurer/order-lifecycle-service/internal/domains/orders/application/types"
	"github.com/Apurer/order-lifecycle-service/internal/domains/orders/domain"
)

// OrderLine is one requested item in create and update payloads.
type OrderLine struct {
	ItemID            int64 `json:"itemId" validate:"required,gt=0"`
	RequestedQuantity int   `json:"requestedQuantity" validate:"gt=0"`
}

// CreateOrder is the body of POST /api/workflow/client/orders.
type CreateOrder struct {
	DeadlineDate openapi_types.Date `json:"deadlineDate"`
	Items        []OrderLine        `json:"items" validate:"required,min=1,dive"`
}

// UpdateItems is the body of PUT .../items.
type UpdateItems struct {
	Items []OrderLine `json:"items" validate:"required,min=1,dive"`
}

// Decline is the body of the decline route.
type Decline struct {
	Reason string `json:"reason" validate:"required,max=500"`
}

// ScheduleDelivery is the body of the schedule route.
type ScheduleDelivery struct {
	ScheduledDate openapi_types.Date `json:"scheduledDate"`
	TruckIDs      []int64            `json:"truckIds"`
	Notes         string             `json:"notes" validate:"max=1000"`
}

// Message is a plain acknowledgement.
type Message struct {
	Message string `json:"message"`
}

// WorkflowStatus answers the status route.
type WorkflowStatus struct {
	OrderID       int64  `json:"orderId"`
	Status        string `json:"status"`
	DeclineReason string `json:"declineReason,omitempty"`
}

// AvailableDates answers the feasible-date search.
type AvailableDates struct {
	OrderID int64                `json:"orderId"`
	Dates   []openapi_types.Date `json:"dates"`
}

// OrderItem is one line of an order view.
type OrderItem struct {
	ID                int64           `json:"id"`
	ItemID            int64           `json:"itemId"`
	ItemName          string          `json:"itemName,omitempty"`
	RequestedQuantity int             `json:"requestedQuantity"`
	PriceAtOrder      decimal.Decimal `json:"priceAtOrder"`
	TotalPrice        decimal.Decimal `json:"totalPrice"`
	TotalVolume       float64         `json:"totalVolume"`
}

// Delivery is the shipment part of an order view.
type Delivery struct {
	ID            int64              `json:"id"`
	ScheduledDate openapi_types.Date `json:"scheduledDate"`
	TruckIDs      []int64            `json:"truckIds"`
	TotalVolume   float64            `json:"totalVolume"`
	Completed     bool               `json:"completed"`
	CompletedAt   *time.Time         `json:"completedAt,omitempty"`
	Notes         string             `json:"notes,omitempty"`
}

// Order is the persisted order view.
type Order struct {
	ID             int64              `json:"id"`
	OrderNumber    string             `json:"orderNumber"`
	ClientUsername string             `json:"clientUsername"`
	Status         string             `json:"status"`
	SubmittedAt    *time.Time         `json:"submittedAt,omitempty"`
	DeadlineDate   openapi_types.Date `json:"deadlineDate"`
	DeclineReason  string             `json:"declineReason,omitempty"`
	Items          []OrderItem        `json:"items"`
	TotalVolume    float64            `json:"totalVolume"`
	TotalPrice     decimal.Decimal    `json:"totalPrice"`
	Delivery       *Delivery          `json:"delivery,omitempty"`
	CreatedAt      time.Time          `json:"createdAt"`
	UpdatedAt      time.Time          `json:"updatedAt"`
}

// OrderSummary is one row of the manager listing.
type OrderSummary struct {
	ID             int64              `json:"id"`
	OrderNumber    string             `json:"orderNumber"`
	ClientUsername string             `json:"clientUsername"`
	Status         string             `json:"status"`
	SubmittedAt    *time.Time         `json:"submittedAt,omitempty"`
	DeadlineDate   openapi_types.Date `json:"deadlineDate"`
}

// Page is one page of a listing.
type Page[T any] struct {
	Content       []T   `json:"content"`
	Page          int   `json:"page"`
	Size          int   `json:"size"`
	TotalElements int64 `json:"totalElements"`
	TotalPages    int   `json:"totalPages"`
}

// ToCreateOrderInput attaches the caller identity and idempotency key to a create payload.
func ToCreateOrderInput(username, idempotencyKey string, payload CreateOrder) orderstypes.CreateOrderInput {
	lines := make([]orderstypes.OrderLineInput, 0, len(payload.Items))
	for _, line := range payload.Items {
		lines = append(lines, orderstypes.OrderLineInput{ItemID: line.ItemID, RequestedQuantity: line.RequestedQuantity})
	}
	return orderstypes.CreateOrderInput{
		ClientUsername: username,
		DeadlineDate:   payload.DeadlineDate.Time,
		Items:          lines,
		IdempotencyKey: idempotencyKey,
	}
}

// ToItemLines converts payload lines for the updateOrderItems update.
func ToItemLines(lines []OrderLine) []domain.ItemLine {
	out := make([]domain.ItemLine, 0, len(lines))
	for _, line := range lines {
		out = append(out, domain.ItemLine{ItemID: line.ItemID, RequestedQuantity: line.RequestedQuantity})
	}
	return out
}

// ToScheduleRequest converts a schedule payload into the signal argument.
func ToScheduleRequest(payload ScheduleDelivery) orderstypes.ScheduleDeliveryRequest {
	return orderstypes.ScheduleDeliveryRequest{
		Date:     domain.DateOf(payload.ScheduledDate.Time),
		TruckIDs: payload.TruckIDs,
		Notes:    payload.Notes,
	}
}

// FromDates renders calendar dates.
func FromDates(orderID int64, dates []time.Time) AvailableDates {
	out := AvailableDates{OrderID: orderID, Dates: make([]openapi_types.Date, 0, len(dates))}
	for _, d := range dates {
		out.Dates = append(out.Dates, openapi_types.Date{Time: d})
	}
	return out
}

// FromProjection renders an order projection.
func FromProjection(p *orderstypes.OrderProjection) Order {
	if p == nil || p.Entity == nil {
		return Order{}
	}
	o := p.Entity
	view := Order{
		ID:             o.ID,
		OrderNumber:    o.OrderNumber,
		ClientUsername: o.ClientUsername,
		Status:         string(o.Status),
		SubmittedAt:    o.SubmittedAt,
		DeadlineDate:   openapi_types.Date{Time: o.DeadlineDate},
		DeclineReason:  o.DeclineReason,
		Items:          make([]OrderItem, 0, len(o.Items)),
		TotalVolume:    o.TotalVolume(),
		TotalPrice:     o.TotalPrice(),
		CreatedAt:      p.Metadata.CreatedAt,
		UpdatedAt:      p.Metadata.UpdatedAt,
	}
	for _, line := range o.Items {
		item := OrderItem{
			ID:                line.ID,
			ItemID:            line.ItemID,
			RequestedQuantity: line.RequestedQuantity,
			PriceAtOrder:      line.PriceAtOrder,
			TotalPrice:        line.TotalPrice(),
			TotalVolume:       line.TotalVolume(),
		}
		if line.Item != nil {
			item.ItemName = line.Item.Name
		}
		view.Items = append(view.Items, item)
	}
	if d := o.Delivery; d != nil {
		view.Delivery = &Delivery{
			ID:            d.ID,
			ScheduledDate: openapi_types.Date{Time: d.ScheduledDate},
			TruckIDs:      d.TruckIDs,
			TotalVolume:   d.TotalVolume,
			Completed:     d.Completed,
			CompletedAt:   d.CompletedAt,
			Notes:         d.Notes,
		}
	}
	return view
}

// FromOrderPage renders a page of full order views.
func FromOrderPage(p *orderstypes.OrderPage) Page[Order] {
	out := newPage[Order](p)
	for _, o := range p.Orders {
		out.Content = append(out.Content, FromProjection(o))
	}
	return out
}

// FromSummaryPage renders a page of order summaries.
func FromSummaryPage(p *orderstypes.OrderPage) Page[OrderSummary] {
	out := newPage[OrderSummary](p)
	for _, o := range p.Orders {
		if o == nil || o.Entity == nil {
			continue
		}
		out.Content = append(out.Content, OrderSummary{
			ID:             o.Entity.ID,
			OrderNumber:    o.Entity.OrderNumber,
			ClientUsername: o.Entity.ClientUsername,
			Status:         string(o.Entity.Status),
			SubmittedAt:    o.Entity.SubmittedAt,
			DeadlineDate:   openapi_types.Date{Time: o.Entity.DeadlineDate},
		})
	}
	return out
}

func newPage[T any](p *orderstypes.OrderPage) Page[T] {
	return Page[T]{
		Content:       make([]T, 0, len(p.Orders)),
		Page:          p.Page,
		Size:          p.Size,
		TotalElements: p.TotalElements,
		TotalPages:    p.TotalPages,
	}
}
