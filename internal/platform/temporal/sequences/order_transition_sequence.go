package sequences

import (
	"fmt"
	"time"

	"go.temporal.io/sdk/temporal"
	"go.temporal.io/sdk/workflow"

	orderstypes "github.com/Apurer/order-lifecycle-service/internal/domains/orders/application/types"
	"github.com/Apurer/order-lifecycle-service/internal/domains/orders/domain"
	orderactivities "github.com/Apurer/order-lifecycle-service/internal/platform/temporal/activities/orders"
)

// TransitionPayload carries the signal arguments some steps need.
type TransitionPayload struct {
	DeclineReason string
	Delivery      orderstypes.ScheduleDeliveryRequest
}

// OrderActivityOptions is shared by every order activity invocation.
func OrderActivityOptions() workflow.ActivityOptions {
	return workflow.ActivityOptions{
		StartToCloseTimeout: 5 * time.Minute,
		RetryPolicy: &temporal.RetryPolicy{
			InitialInterval:        time.Second,
			BackoffCoefficient:     2.0,
			MaximumInterval:        10 * time.Second,
			MaximumAttempts:        3,
			NonRetryableErrorTypes: orderactivities.NonRetryableErrorTypes,
		},
	}
}

// WithOrderActivityOptions decorates ctx with OrderActivityOptions.
func WithOrderActivityOptions(ctx workflow.Context) workflow.Context {
	return workflow.WithActivityOptions(ctx, OrderActivityOptions())
}

// RunOrderTransitionSequence executes the steps of a transition in order,
// stopping at the first failed activity. It returns how many steps completed.
func RunOrderTransitionSequence(ctx workflow.Context, orderID int64, transition domain.Transition, payload TransitionPayload) (int, error) {
	logger := workflow.GetLogger(ctx)
	logger.Info("order transition sequence started", "orderId", orderID, "trigger", transition.Trigger, "from", transition.From)
	ctx = WithOrderActivityOptions(ctx)

	for done, step := range transition.Steps {
		if err := executeStep(ctx, orderID, step, payload); err != nil {
			logger.Error("order transition sequence failed", "orderId", orderID, "trigger", transition.Trigger, "step", step.Kind, "error", err)
			return done, err
		}
	}
	logger.Info("order transition sequence completed", "orderId", orderID, "trigger", transition.Trigger, "to", transition.To)
	return len(transition.Steps), nil
}

func executeStep(ctx workflow.Context, orderID int64, step domain.Step, payload TransitionPayload) error {
	var future workflow.Future
	switch step.Kind {
	case domain.StepValidateSubmission:
		future = workflow.ExecuteActivity(ctx, orderactivities.ValidateOrderForSubmissionActivityName, orderID)
	case domain.StepValidateApproval:
		future = workflow.ExecuteActivity(ctx, orderactivities.ValidateOrderForApprovalActivityName, orderID)
	case domain.StepScheduleDelivery:
		future = workflow.ExecuteActivity(ctx, orderactivities.ValidateAndScheduleDeliveryActivityName, orderID, payload.Delivery)
	case domain.StepUpdateStatus:
		future = workflow.ExecuteActivity(ctx, orderactivities.UpdateOrderStatusActivityName, orderID, step.Status)
	case domain.StepSetDeclineReason:
		future = workflow.ExecuteActivity(ctx, orderactivities.SetDeclineReasonActivityName, orderID, payload.DeclineReason)
	case domain.StepFulfillDelivery:
		future = workflow.ExecuteActivity(ctx, orderactivities.FulfillDeliveryActivityName, orderID)
	case domain.StepCancelOrder:
		future = workflow.ExecuteActivity(ctx, orderactivities.CancelOrderActivityName, orderID)
	default:
		return temporal.NewNonRetryableApplicationError(fmt.Sprintf("unknown step %q", step.Kind), orderactivities.ErrTypeValidation, nil)
	}
	return future.Get(ctx, nil)
}
