package workflows

import (
	"context"
	"errors"
	"fmt"

	oteltrace "go.opentelemetry.io/otel/trace"
	"go.temporal.io/api/serviceerror"
	"go.temporal.io/sdk/client"
	"go.temporal.io/sdk/temporal"

	ordersapp "github.com/Apurer/order-lifecycle-service/internal/domains/orders/application"
	orderstypes "github.com/Apurer/order-lifecycle-service/internal/domains/orders/application/types"
	"github.com/Apurer/order-lifecycle-service/internal/domains/orders/domain"
	"github.com/Apurer/order-lifecycle-service/internal/domains/orders/ports"
	orderactivities "github.com/Apurer/order-lifecycle-service/internal/platform/temporal/activities/orders"
	orderworkflows "github.com/Apurer/order-lifecycle-service/internal/platform/temporal/workflows/orders"
)

var (
	_ ports.WorkflowOrchestrator = (*TemporalOrderWorkflows)(nil)
	_ ports.WorkflowOrchestrator = (*InlineOrderWorkflows)(nil)
)

var errTemporalNotConfigured = errors.New("temporal order workflows not configured")

// TemporalOrderWorkflows addresses order workflow instances on a Temporal cluster.
type TemporalOrderWorkflows struct {
	client    client.Client
	taskQueue string
}

// NewTemporalOrderWorkflows wires a Temporal client into the orchestrator.
// An empty taskQueue selects the default order queue.
func NewTemporalOrderWorkflows(c client.Client, taskQueue string) *TemporalOrderWorkflows {
	if taskQueue == "" {
		taskQueue = orderworkflows.OrderTaskQueue
	}
	return &TemporalOrderWorkflows{client: c, taskQueue: taskQueue}
}

// Start launches the instance for orderID. A running instance is left alone.
func (o *TemporalOrderWorkflows) Start(ctx context.Context, orderID int64, clientUsername string) error {
	if o == nil || o.client == nil {
		return errTemporalNotConfigured
	}
	options := client.StartWorkflowOptions{
		ID:                                       orderworkflows.WorkflowID(orderID),
		TaskQueue:                                o.taskQueue,
		WorkflowExecutionTimeout:                 orderworkflows.ExecutionTimeout,
		WorkflowExecutionErrorWhenAlreadyStarted: true,
	}
	input := orderstypes.ProcessOrderInput{OrderID: orderID, ClientUsername: clientUsername, TraceID: workflowTraceID(ctx)}
	_, err := o.client.ExecuteWorkflow(ctx, options, orderworkflows.OrderWorkflowName, input)
	var alreadyStarted *serviceerror.WorkflowExecutionAlreadyStarted
	if errors.As(err, &alreadyStarted) {
		return nil
	}
	return err
}

func (o *TemporalOrderWorkflows) Submit(ctx context.Context, orderID int64) error {
	return o.signal(ctx, orderID, orderworkflows.SubmitOrderSignal, nil)
}

func (o *TemporalOrderWorkflows) Approve(ctx context.Context, orderID int64) error {
	return o.signal(ctx, orderID, orderworkflows.ApproveOrderSignal, nil)
}

func (o *TemporalOrderWorkflows) Decline(ctx context.Context, orderID int64, reason string) error {
	return o.signal(ctx, orderID, orderworkflows.DeclineOrderSignal, orderstypes.DeclineRequest{Reason: reason})
}

func (o *TemporalOrderWorkflows) ScheduleDelivery(ctx context.Context, orderID int64, request orderstypes.ScheduleDeliveryRequest) error {
	return o.signal(ctx, orderID, orderworkflows.ScheduleDeliverySignal, request)
}

func (o *TemporalOrderWorkflows) Cancel(ctx context.Context, orderID int64) error {
	return o.signal(ctx, orderID, orderworkflows.CancelOrderSignal, nil)
}

// UpdateItems runs the updateOrderItems update and waits for its result.
func (o *TemporalOrderWorkflows) UpdateItems(ctx context.Context, orderID int64, items []domain.ItemLine) (string, error) {
	if o == nil || o.client == nil {
		return "", errTemporalNotConfigured
	}
	handle, err := o.client.UpdateWorkflow(ctx, client.UpdateWorkflowOptions{
		WorkflowID:   orderworkflows.WorkflowID(orderID),
		UpdateName:   orderworkflows.UpdateOrderItemsUpdate,
		Args:         []interface{}{items},
		WaitForStage: client.WorkflowUpdateStageCompleted,
	})
	if err != nil {
		return "", translateError(orderID, err)
	}
	var msg string
	if err := handle.Get(ctx, &msg); err != nil {
		return "", translateError(orderID, err)
	}
	return msg, nil
}

// Status answers the getStatus query. Completed instances still answer.
func (o *TemporalOrderWorkflows) Status(ctx context.Context, orderID int64) (domain.WorkflowStatus, error) {
	var status domain.WorkflowStatus
	if err := o.query(ctx, orderID, orderworkflows.GetStatusQuery, &status); err != nil {
		return "", err
	}
	return status, nil
}

func (o *TemporalOrderWorkflows) DeclineReason(ctx context.Context, orderID int64) (string, error) {
	var reason string
	if err := o.query(ctx, orderID, orderworkflows.GetDeclineReasonQuery, &reason); err != nil {
		return "", err
	}
	return reason, nil
}

// signal delivers a signal. Signalling a finished instance is a no-op, so a
// late cancel of a fulfilled order does not fail.
func (o *TemporalOrderWorkflows) signal(ctx context.Context, orderID int64, name string, arg interface{}) error {
	if o == nil || o.client == nil {
		return errTemporalNotConfigured
	}
	err := o.client.SignalWorkflow(ctx, orderworkflows.WorkflowID(orderID), "", name, arg)
	if err == nil {
		return nil
	}
	var notFound *serviceerror.NotFound
	if errors.As(err, &notFound) {
		if status, qerr := o.Status(ctx, orderID); qerr == nil && status.Terminal() {
			return nil
		}
	}
	return translateError(orderID, err)
}

func (o *TemporalOrderWorkflows) query(ctx context.Context, orderID int64, name string, out interface{}) error {
	if o == nil || o.client == nil {
		return errTemporalNotConfigured
	}
	value, err := o.client.QueryWorkflow(ctx, orderworkflows.WorkflowID(orderID), "", name)
	if err != nil {
		return translateError(orderID, err)
	}
	return value.Get(out)
}

// translateError maps Temporal failures onto the errors callers classify.
func translateError(orderID int64, err error) error {
	var notFound *serviceerror.NotFound
	if errors.As(err, &notFound) {
		return fmt.Errorf("order workflow %d: %w", orderID, ports.ErrNotFound)
	}
	var appErr *temporal.ApplicationError
	if errors.As(err, &appErr) {
		switch appErr.Type() {
		case orderactivities.ErrTypeValidation:
			return fmt.Errorf("%w: %s", ordersapp.ErrInvalidInput, appErr.Error())
		case orderactivities.ErrTypeNotFound:
			return fmt.Errorf("%s: %w", appErr.Error(), ports.ErrNotFound)
		}
	}
	return err
}

func workflowTraceID(ctx context.Context) string {
	spanCtx := oteltrace.SpanContextFromContext(ctx)
	if !spanCtx.IsValid() {
		return ""
	}
	return spanCtx.TraceID().String()
}
