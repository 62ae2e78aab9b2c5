package ports

import (
	"context"

	"github.com/Apurer/order-lifecycle-service/internal/domains/orders/application/types"
	"github.com/Apurer/order-lifecycle-service/internal/domains/orders/domain"
)

// Activities is the catalog of side effects an order instance performs.
// Every method must be safe to run more than once for the same arguments.
type Activities interface {
	UpdateOrderStatus(ctx context.Context, orderID int64, status domain.OrderStatus) error
	SetDeclineReason(ctx context.Context, orderID int64, reason string) error
	ValidateOrderForSubmission(ctx context.Context, orderID int64) error
	ValidateOrderForApproval(ctx context.Context, orderID int64) error
	ValidateAndScheduleDelivery(ctx context.Context, orderID int64, req types.ScheduleDeliveryRequest) error
	FulfillDelivery(ctx context.Context, orderID int64) error
	CancelOrderInDB(ctx context.Context, orderID int64) error
	UpdateOrderItemsInDB(ctx context.Context, orderID int64, lines []domain.ItemLine) (string, error)
}
