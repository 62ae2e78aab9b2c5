package orders

import (
	"fmt"
	"time"

	"go.temporal.io/sdk/temporal"
	"go.temporal.io/sdk/workflow"

	orderstypes "github.com/Apurer/order-lifecycle-service/internal/domains/orders/application/types"
	"github.com/Apurer/order-lifecycle-service/internal/domains/orders/domain"
	orderactivities "github.com/Apurer/order-lifecycle-service/internal/platform/temporal/activities/orders"
	"github.com/Apurer/order-lifecycle-service/internal/platform/temporal/sequences"
)

const (
	// OrderWorkflowName is the public identifier for registering the workflow.
	OrderWorkflowName = "orders.workflows.ProcessOrder"
	// OrderTaskQueue is the queue consumed by the worker processing order workflows.
	OrderTaskQueue = "order-workflow-worker"
	// ExecutionTimeout bounds a single order instance.
	ExecutionTimeout = 30 * 24 * time.Hour
	// FulfillmentRetryInterval is how long a failed fulfillment waits before the next attempt.
	FulfillmentRetryInterval = time.Hour
	// SettleRetryInterval spaces retries of the steps left after a partly committed transition.
	SettleRetryInterval = time.Minute
)

// Signal, update and query names.
const (
	SubmitOrderSignal      = "submitOrder"
	ApproveOrderSignal     = "approveOrder"
	DeclineOrderSignal     = "declineOrder"
	ScheduleDeliverySignal = "scheduleDelivery"
	CancelOrderSignal      = "cancelOrder"
	UpdateOrderItemsUpdate = "updateOrderItems"
	GetStatusQuery         = "getStatus"
	GetDeclineReasonQuery  = "getDeclineReason"
)

// WorkflowID is the durable identity of the instance driving orderID.
func WorkflowID(orderID int64) string {
	return fmt.Sprintf("order-workflow-%d", orderID)
}

type event struct {
	trigger domain.Trigger
	payload sequences.TransitionPayload
}

type pendingTransition struct {
	transition domain.Transition
	payload    sequences.TransitionPayload
}

type orderInstance struct {
	orderID       int64
	traceID       string
	status        domain.WorkflowStatus
	declineReason string
	scheduledDate time.Time
	// retryAt is set after a failed fulfillment attempt.
	retryAt time.Time
	// pending holds the unfinished steps of a transition that failed after writing.
	pending *pendingTransition
	// transitioning and updating serialize signal transitions with the item update handler.
	transitioning bool
	updating      int
}

// OrderWorkflow drives one order from CREATED to FULFILLED or CANCELED.
// Signals are applied one at a time; a signal outside its guard is ignored.
// Signals arriving while a partly committed transition is settled stay
// buffered until it completes.
func OrderWorkflow(ctx workflow.Context, input orderstypes.ProcessOrderInput) (domain.WorkflowStatus, error) {
	logger := workflow.GetLogger(ctx)
	inst := &orderInstance{orderID: input.OrderID, traceID: input.TraceID, status: domain.WorkflowCreated}
	logger.Info("OrderWorkflow started", inst.keyvals()...)

	if err := inst.registerHandlers(ctx); err != nil {
		logger.Error("OrderWorkflow handler registration failed", inst.keyvals("error", err)...)
		return "", err
	}

	// Channels are added to the selector in lifecycle order, which is the
	// order buffered signals of different kinds are taken in.
	submitCh := workflow.GetSignalChannel(ctx, SubmitOrderSignal)
	declineCh := workflow.GetSignalChannel(ctx, DeclineOrderSignal)
	approveCh := workflow.GetSignalChannel(ctx, ApproveOrderSignal)
	scheduleCh := workflow.GetSignalChannel(ctx, ScheduleDeliverySignal)
	cancelCh := workflow.GetSignalChannel(ctx, CancelOrderSignal)

	for !inst.status.Terminal() || inst.pending != nil {
		if inst.pending != nil {
			if err := inst.settle(ctx); err != nil {
				return inst.status, err
			}
			continue
		}

		var next event
		selector := workflow.NewSelector(ctx)
		selector.AddReceive(submitCh, func(c workflow.ReceiveChannel, _ bool) {
			c.Receive(ctx, nil)
			next = event{trigger: domain.TriggerSubmit}
		})
		selector.AddReceive(declineCh, func(c workflow.ReceiveChannel, _ bool) {
			var req orderstypes.DeclineRequest
			c.Receive(ctx, &req)
			next = event{trigger: domain.TriggerDecline, payload: sequences.TransitionPayload{DeclineReason: req.Reason}}
		})
		selector.AddReceive(approveCh, func(c workflow.ReceiveChannel, _ bool) {
			c.Receive(ctx, nil)
			next = event{trigger: domain.TriggerApprove}
		})
		selector.AddReceive(scheduleCh, func(c workflow.ReceiveChannel, _ bool) {
			var req orderstypes.ScheduleDeliveryRequest
			c.Receive(ctx, &req)
			next = event{trigger: domain.TriggerSchedule, payload: sequences.TransitionPayload{Delivery: req}}
		})
		selector.AddReceive(cancelCh, func(c workflow.ReceiveChannel, _ bool) {
			c.Receive(ctx, nil)
			next = event{trigger: domain.TriggerCancel}
		})

		timerCtx, cancelTimer := workflow.WithCancel(ctx)
		if inst.status == domain.WorkflowUnderDelivery {
			timer := workflow.NewTimer(timerCtx, inst.untilFulfillment(ctx))
			selector.AddFuture(timer, func(f workflow.Future) {
				if err := f.Get(ctx, nil); err == nil {
					next = event{trigger: domain.TriggerDeliveryDue}
				}
			})
		}

		selector.Select(ctx)
		cancelTimer()
		if next.trigger == "" {
			continue
		}
		if err := inst.apply(ctx, next); err != nil {
			return inst.status, err
		}
	}

	if err := workflow.Await(ctx, func() bool { return workflow.AllHandlersFinished(ctx) }); err != nil {
		return inst.status, err
	}
	logger.Info("OrderWorkflow completed", inst.keyvals("status", inst.status)...)
	return inst.status, nil
}

func (inst *orderInstance) registerHandlers(ctx workflow.Context) error {
	if err := workflow.SetQueryHandler(ctx, GetStatusQuery, func() (domain.WorkflowStatus, error) {
		return inst.status, nil
	}); err != nil {
		return err
	}
	if err := workflow.SetQueryHandler(ctx, GetDeclineReasonQuery, func() (string, error) {
		return inst.declineReason, nil
	}); err != nil {
		return err
	}
	return workflow.SetUpdateHandlerWithOptions(ctx, UpdateOrderItemsUpdate,
		inst.updateItems,
		workflow.UpdateHandlerOptions{Validator: inst.validateItemsUpdate},
	)
}

func (inst *orderInstance) validateItemsUpdate(_ workflow.Context, lines []domain.ItemLine) error {
	if !domain.CanUpdateItems(inst.status) {
		return temporal.NewApplicationError(
			fmt.Sprintf("order items cannot be updated in status %s", inst.status), orderactivities.ErrTypeValidation)
	}
	if len(lines) == 0 {
		return temporal.NewApplicationError(domain.ErrNoItems.Error(), orderactivities.ErrTypeValidation)
	}
	return nil
}

func (inst *orderInstance) updateItems(ctx workflow.Context, lines []domain.ItemLine) (string, error) {
	if err := workflow.Await(ctx, func() bool { return !inst.transitioning && inst.pending == nil }); err != nil {
		return "", err
	}
	// A transition may have run between admission and now.
	if err := inst.validateItemsUpdate(ctx, lines); err != nil {
		return "", err
	}
	inst.updating++
	defer func() { inst.updating-- }()

	var msg string
	err := workflow.ExecuteActivity(sequences.WithOrderActivityOptions(ctx),
		orderactivities.UpdateOrderItemsActivityName, inst.orderID, lines).Get(ctx, &msg)
	if err != nil {
		workflow.GetLogger(ctx).Error("order items update failed", inst.keyvals("error", err)...)
		return "", err
	}
	return msg, nil
}

// apply runs the transition for ev, if any. Activity failures are logged,
// not returned; only cancellation of the workflow itself ends the loop with
// an error.
func (inst *orderInstance) apply(ctx workflow.Context, ev event) error {
	transition, ok := domain.Next(inst.status, ev.trigger)
	if !ok {
		workflow.GetLogger(ctx).Info("signal ignored", inst.keyvals("trigger", ev.trigger, "status", inst.status)...)
		return nil
	}
	if err := workflow.Await(ctx, func() bool { return inst.updating == 0 }); err != nil {
		return err
	}
	return inst.run(ctx, transition, ev.payload, false)
}

// settle waits SettleRetryInterval and runs the pending steps again.
func (inst *orderInstance) settle(ctx workflow.Context) error {
	if err := workflow.Sleep(ctx, SettleRetryInterval); err != nil {
		return err
	}
	p := inst.pending
	inst.pending = nil
	return inst.run(ctx, p.transition, p.payload, true)
}

// run executes transition. A failure before any write returns the instance
// to From; after a write the instance holds the status the committed steps
// reached and keeps the remaining steps pending.
func (inst *orderInstance) run(ctx workflow.Context, transition domain.Transition, payload sequences.TransitionPayload, resumed bool) error {
	logger := workflow.GetLogger(ctx)
	inst.transitioning = true
	defer func() { inst.transitioning = false }()
	inst.status = transition.Via

	done, err := sequences.RunOrderTransitionSequence(ctx, inst.orderID, transition, payload)
	if err != nil {
		rest, hold, committed := transition.Remainder(done)
		if committed || resumed {
			inst.status = hold
			inst.pending = &pendingTransition{transition: rest, payload: payload}
			logger.Warn("transition incomplete", inst.keyvals("trigger", transition.Trigger, "status", inst.status,
				"remaining", len(rest.Steps), "error", err)...)
		} else {
			inst.status = transition.From
			if transition.Trigger == domain.TriggerDeliveryDue {
				inst.retryAt = workflow.Now(ctx).Add(FulfillmentRetryInterval)
			}
			logger.Warn("transition failed", inst.keyvals("trigger", transition.Trigger, "status", inst.status, "error", err)...)
		}
		if temporal.IsCanceledError(err) {
			return err
		}
		return nil
	}

	inst.status = transition.To
	switch transition.Trigger {
	case domain.TriggerDecline:
		inst.declineReason = payload.DeclineReason
	case domain.TriggerSchedule:
		inst.scheduledDate = domain.DateOf(payload.Delivery.Date)
		inst.retryAt = time.Time{}
	}
	logger.Info("transition applied", inst.keyvals("trigger", transition.Trigger, "status", inst.status)...)
	return nil
}

// untilFulfillment is the wait before the next fulfillment attempt:
// midnight UTC of the scheduled date, or the retry instant after a failure.
func (inst *orderInstance) untilFulfillment(ctx workflow.Context) time.Duration {
	due := inst.scheduledDate
	if !inst.retryAt.IsZero() {
		due = inst.retryAt
	}
	wait := due.Sub(workflow.Now(ctx))
	if wait < 0 {
		return 0
	}
	return wait
}

func (inst *orderInstance) keyvals(keyvals ...interface{}) []interface{} {
	keyvals = append([]interface{}{"orderId", inst.orderID}, keyvals...)
	if inst.traceID == "" {
		return keyvals
	}
	return append(keyvals, "traceId", inst.traceID)
}

// Registry is satisfied by worker.Worker and the SDK test environment.
type Registry interface {
	RegisterWorkflowWithOptions(w interface{}, options workflow.RegisterOptions)
}

// Register binds OrderWorkflow under OrderWorkflowName.
func Register(registry Registry) {
	registry.RegisterWorkflowWithOptions(OrderWorkflow, workflow.RegisterOptions{Name: OrderWorkflowName})
}
