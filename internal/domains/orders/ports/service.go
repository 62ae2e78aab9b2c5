package ports

import (
	"context"
	"time"

	"github.com/Apurer/order-lifecycle-service/internal/domains/orders/application/types"
)

// Service exposes the order use cases that live outside the workflow instance.
type Service interface {
	CreateOrder(ctx context.Context, input types.CreateOrderInput) (*types.OrderProjection, error)
	GetOrder(ctx context.Context, id int64) (*types.OrderProjection, error)
	ListClientOrders(ctx context.Context, clientUsername string, input types.ListOrdersInput) (*types.OrderPage, error)
	ListOrders(ctx context.Context, input types.ListOrdersInput) (*types.OrderPage, error)
	AvailableDeliveryDates(ctx context.Context, input types.AvailableDatesInput) ([]time.Time, error)
}
