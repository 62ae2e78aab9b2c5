package orders

import (
	"context"
	"errors"

	"go.temporal.io/sdk/activity"
	"go.temporal.io/sdk/log"
	"go.temporal.io/sdk/temporal"

	ordersapp "github.com/Apurer/order-lifecycle-service/internal/domains/orders/application"
	orderstypes "github.com/Apurer/order-lifecycle-service/internal/domains/orders/application/types"
	"github.com/Apurer/order-lifecycle-service/internal/domains/orders/domain"
	"github.com/Apurer/order-lifecycle-service/internal/domains/orders/ports"
)

const (
	UpdateOrderStatusActivityName           = "orders.activities.UpdateOrderStatus"
	SetDeclineReasonActivityName            = "orders.activities.SetDeclineReason"
	ValidateOrderForSubmissionActivityName  = "orders.activities.ValidateOrderForSubmission"
	ValidateOrderForApprovalActivityName    = "orders.activities.ValidateOrderForApproval"
	ValidateAndScheduleDeliveryActivityName = "orders.activities.ValidateAndScheduleDelivery"
	FulfillDeliveryActivityName             = "orders.activities.FulfillDelivery"
	CancelOrderActivityName                 = "orders.activities.CancelOrderInDB"
	UpdateOrderItemsActivityName            = "orders.activities.UpdateOrderItemsInDB"
)

// Application error types reported for failures that retrying cannot fix.
const (
	ErrTypeNotFound   = "NotFound"
	ErrTypeValidation = "ValidationError"
)

// NonRetryableErrorTypes lists the error types retry policies must not retry.
var NonRetryableErrorTypes = []string{ErrTypeNotFound, ErrTypeValidation}

var _ ports.Activities = (*ordersapp.Activities)(nil)

// Activities adapts the order catalog to Temporal.
type Activities struct {
	catalog ports.Activities
}

// NewActivities wires the catalog into the Temporal activities bundle.
func NewActivities(catalog ports.Activities) *Activities {
	return &Activities{catalog: catalog}
}

var errNotInitialized = errors.New("order activities not initialized")

// UpdateOrderStatus persists a new order status.
func (a *Activities) UpdateOrderStatus(ctx context.Context, orderID int64, status domain.OrderStatus) error {
	logger := activity.GetLogger(ctx)
	if a == nil || a.catalog == nil {
		return notInitialized(logger, orderID)
	}
	logger.Info("UpdateOrderStatus activity started", "orderId", orderID, "status", status)
	if err := a.catalog.UpdateOrderStatus(ctx, orderID, status); err != nil {
		return failed(logger, "UpdateOrderStatus", orderID, err)
	}
	logger.Info("UpdateOrderStatus activity completed", "orderId", orderID, "status", status)
	return nil
}

// SetDeclineReason stores the manager's decline reason.
func (a *Activities) SetDeclineReason(ctx context.Context, orderID int64, reason string) error {
	logger := activity.GetLogger(ctx)
	if a == nil || a.catalog == nil {
		return notInitialized(logger, orderID)
	}
	logger.Info("SetDeclineReason activity started", "orderId", orderID)
	if err := a.catalog.SetDeclineReason(ctx, orderID, reason); err != nil {
		return failed(logger, "SetDeclineReason", orderID, err)
	}
	logger.Info("SetDeclineReason activity completed", "orderId", orderID)
	return nil
}

func (a *Activities) ValidateOrderForSubmission(ctx context.Context, orderID int64) error {
	logger := activity.GetLogger(ctx)
	if a == nil || a.catalog == nil {
		return notInitialized(logger, orderID)
	}
	logger.Info("ValidateOrderForSubmission activity started", "orderId", orderID)
	if err := a.catalog.ValidateOrderForSubmission(ctx, orderID); err != nil {
		return failed(logger, "ValidateOrderForSubmission", orderID, err)
	}
	logger.Info("ValidateOrderForSubmission activity completed", "orderId", orderID)
	return nil
}

func (a *Activities) ValidateOrderForApproval(ctx context.Context, orderID int64) error {
	logger := activity.GetLogger(ctx)
	if a == nil || a.catalog == nil {
		return notInitialized(logger, orderID)
	}
	logger.Info("ValidateOrderForApproval activity started", "orderId", orderID)
	if err := a.catalog.ValidateOrderForApproval(ctx, orderID); err != nil {
		return failed(logger, "ValidateOrderForApproval", orderID, err)
	}
	logger.Info("ValidateOrderForApproval activity completed", "orderId", orderID)
	return nil
}

// ValidateAndScheduleDelivery books trucks, creates the delivery and reserves stock.
func (a *Activities) ValidateAndScheduleDelivery(ctx context.Context, orderID int64, req orderstypes.ScheduleDeliveryRequest) error {
	logger := activity.GetLogger(ctx)
	if a == nil || a.catalog == nil {
		return notInitialized(logger, orderID)
	}
	logger.Info("ValidateAndScheduleDelivery activity started",
		"orderId", orderID, "date", domain.FormatDate(req.Date), "truckIds", req.TruckIDs,
		"attempt", activity.GetInfo(ctx).Attempt)
	if err := a.catalog.ValidateAndScheduleDelivery(ctx, orderID, req); err != nil {
		return failed(logger, "ValidateAndScheduleDelivery", orderID, err)
	}
	logger.Info("ValidateAndScheduleDelivery activity completed", "orderId", orderID)
	return nil
}

func (a *Activities) FulfillDelivery(ctx context.Context, orderID int64) error {
	logger := activity.GetLogger(ctx)
	if a == nil || a.catalog == nil {
		return notInitialized(logger, orderID)
	}
	logger.Info("FulfillDelivery activity started", "orderId", orderID)
	if err := a.catalog.FulfillDelivery(ctx, orderID); err != nil {
		return failed(logger, "FulfillDelivery", orderID, err)
	}
	logger.Info("FulfillDelivery activity completed", "orderId", orderID)
	return nil
}

func (a *Activities) CancelOrderInDB(ctx context.Context, orderID int64) error {
	logger := activity.GetLogger(ctx)
	if a == nil || a.catalog == nil {
		return notInitialized(logger, orderID)
	}
	logger.Info("CancelOrderInDB activity started", "orderId", orderID)
	if err := a.catalog.CancelOrderInDB(ctx, orderID); err != nil {
		return failed(logger, "CancelOrderInDB", orderID, err)
	}
	logger.Info("CancelOrderInDB activity completed", "orderId", orderID)
	return nil
}

// UpdateOrderItemsInDB replaces the order's item lines.
func (a *Activities) UpdateOrderItemsInDB(ctx context.Context, orderID int64, lines []domain.ItemLine) (string, error) {
	logger := activity.GetLogger(ctx)
	if a == nil || a.catalog == nil {
		return "", notInitialized(logger, orderID)
	}
	logger.Info("UpdateOrderItemsInDB activity started", "orderId", orderID, "lines", len(lines))
	msg, err := a.catalog.UpdateOrderItemsInDB(ctx, orderID, lines)
	if err != nil {
		return "", failed(logger, "UpdateOrderItemsInDB", orderID, err)
	}
	logger.Info("UpdateOrderItemsInDB activity completed", "orderId", orderID)
	return msg, nil
}

func notInitialized(logger log.Logger, orderID int64) error {
	logger.Error("order activity not initialized", "orderId", orderID)
	return errNotInitialized
}

func failed(logger log.Logger, name string, orderID int64, err error) error {
	kind := ordersapp.Classify(err)
	logger.Error(name+" activity failed", "orderId", orderID, "kind", kind.String(), "error", err)
	return Classify(err)
}

// Classify wraps NotFound and validation failures as non-retryable
// application errors. Transient failures are returned untouched so the
// retry policy applies.
func Classify(err error) error {
	if err == nil {
		return nil
	}
	kind := ordersapp.Classify(err)
	if kind.Retryable() {
		return err
	}
	return temporal.NewNonRetryableApplicationError(err.Error(), kind.String(), err)
}

// Registry is satisfied by worker.Worker and the SDK test environment.
type Registry interface {
	RegisterActivityWithOptions(a interface{}, options activity.RegisterOptions)
}

// Register binds every order activity under its public name.
func Register(registry Registry, acts *Activities) {
	for name, fn := range map[string]interface{}{
		UpdateOrderStatusActivityName:           acts.UpdateOrderStatus,
		SetDeclineReasonActivityName:            acts.SetDeclineReason,
		ValidateOrderForSubmissionActivityName:  acts.ValidateOrderForSubmission,
		ValidateOrderForApprovalActivityName:    acts.ValidateOrderForApproval,
		ValidateAndScheduleDeliveryActivityName: acts.ValidateAndScheduleDelivery,
		FulfillDeliveryActivityName:             acts.FulfillDelivery,
		CancelOrderActivityName:                 acts.CancelOrderInDB,
		UpdateOrderItemsActivityName:            acts.UpdateOrderItemsInDB,
	} {
		registry.RegisterActivityWithOptions(fn, activity.RegisterOptions{Name: name})
	}
}
