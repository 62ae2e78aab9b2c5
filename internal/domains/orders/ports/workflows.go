package ports

import (
	"context"

	"github.com/Apurer/order-lifecycle-service/internal/domains/orders/application/types"
	"github.com/Apurer/order-lifecycle-service/internal/domains/orders/domain"
)

// WorkflowOrchestrator addresses the per-order workflow instance.
// Signal methods only report delivery failures; guard violations are silent no-ops.
type WorkflowOrchestrator interface {
	// Start launches processOrder for the order. Starting an instance that already runs is not an error.
	Start(ctx context.Context, orderID int64, clientUsername string) error

	Submit(ctx context.Context, orderID int64) error
	Approve(ctx context.Context, orderID int64) error
	Decline(ctx context.Context, orderID int64, reason string) error
	ScheduleDelivery(ctx context.Context, orderID int64, request types.ScheduleDeliveryRequest) error
	Cancel(ctx context.Context, orderID int64) error

	// UpdateItems replaces the item list while the order is CREATED or DECLINED.
	UpdateItems(ctx context.Context, orderID int64, items []domain.ItemLine) (string, error)

	Status(ctx context.Context, orderID int64) (domain.WorkflowStatus, error)
	DeclineReason(ctx context.Context, orderID int64) (string, error)
}
