package workflows

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"

	ordersapp "github.com/Apurer/order-lifecycle-service/internal/domains/orders/application"
	orderstypes "github.com/Apurer/order-lifecycle-service/internal/domains/orders/application/types"
	"github.com/Apurer/order-lifecycle-service/internal/domains/orders/domain"
	"github.com/Apurer/order-lifecycle-service/internal/domains/orders/ports"
)

var (
	errInlineNotConfigured = errors.New("inline order workflows not configured")
	errTransitionPending   = errors.New("order has an unfinished transition")
)

// InlineOrderWorkflows runs order instances in-process without Temporal,
// for development and tests. Instances live in memory and are rebuilt
// from the persisted order status on first use after a restart. The
// deliveryDue timer is replaced by FulfillDue, driven by the sweep job.
type InlineOrderWorkflows struct {
	activities ports.Activities
	store      ports.Store
	newBackOff func() backoff.BackOff
	now        func() time.Time
	logger     *slog.Logger

	mu        sync.Mutex
	instances map[int64]*inlineInstance
}

type inlineInstance struct {
	mu            sync.Mutex
	status        domain.WorkflowStatus
	declineReason string
	// pending and backlog are set while a partly committed transition is
	// unfinished; signals received meanwhile wait in backlog.
	pending *pendingTransition
	backlog []queuedSignal
}

type pendingTransition struct {
	transition domain.Transition
	args       transitionArgs
}

type queuedSignal struct {
	trigger domain.Trigger
	args    transitionArgs
}

type InlineOption func(*InlineOrderWorkflows)

func WithInlineLogger(logger *slog.Logger) InlineOption {
	return func(o *InlineOrderWorkflows) {
		if logger != nil {
			o.logger = logger
		}
	}
}

func WithInlineClock(now func() time.Time) InlineOption {
	return func(o *InlineOrderWorkflows) {
		if now != nil {
			o.now = now
		}
	}
}

// WithRetryBackOff replaces the activity retry schedule.
func WithRetryBackOff(newBackOff func() backoff.BackOff) InlineOption {
	return func(o *InlineOrderWorkflows) {
		if newBackOff != nil {
			o.newBackOff = newBackOff
		}
	}
}

// NewInlineOrderWorkflows runs activities directly against store.
func NewInlineOrderWorkflows(activities ports.Activities, store ports.Store, opts ...InlineOption) *InlineOrderWorkflows {
	o := &InlineOrderWorkflows{
		activities: activities,
		store:      store,
		newBackOff: activityBackOff,
		now:        func() time.Time { return time.Now().UTC() },
		logger:     slog.New(slog.DiscardHandler),
		instances:  make(map[int64]*inlineInstance),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(o)
		}
	}
	return o
}

// activityBackOff mirrors the Temporal retry policy: three attempts, one
// second initial interval doubling up to ten seconds.
func activityBackOff() backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = time.Second
	b.Multiplier = 2
	b.MaxInterval = 10 * time.Second
	b.RandomizationFactor = 0
	b.MaxElapsedTime = 0
	return backoff.WithMaxRetries(b, 2)
}

// Start registers a fresh instance. Starting a known instance is a no-op.
func (o *InlineOrderWorkflows) Start(ctx context.Context, orderID int64, _ string) error {
	if o == nil || o.activities == nil || o.store == nil {
		return errInlineNotConfigured
	}
	_, err := o.instance(ctx, orderID)
	return err
}

func (o *InlineOrderWorkflows) Submit(ctx context.Context, orderID int64) error {
	return o.signal(ctx, orderID, domain.TriggerSubmit, transitionArgs{})
}

func (o *InlineOrderWorkflows) Approve(ctx context.Context, orderID int64) error {
	return o.signal(ctx, orderID, domain.TriggerApprove, transitionArgs{})
}

func (o *InlineOrderWorkflows) Decline(ctx context.Context, orderID int64, reason string) error {
	return o.signal(ctx, orderID, domain.TriggerDecline, transitionArgs{declineReason: reason})
}

func (o *InlineOrderWorkflows) ScheduleDelivery(ctx context.Context, orderID int64, request orderstypes.ScheduleDeliveryRequest) error {
	return o.signal(ctx, orderID, domain.TriggerSchedule, transitionArgs{delivery: request})
}

func (o *InlineOrderWorkflows) Cancel(ctx context.Context, orderID int64) error {
	return o.signal(ctx, orderID, domain.TriggerCancel, transitionArgs{})
}

// UpdateItems replaces the item list while the instance is CREATED or DECLINED.
func (o *InlineOrderWorkflows) UpdateItems(ctx context.Context, orderID int64, items []domain.ItemLine) (string, error) {
	if o == nil || o.activities == nil || o.store == nil {
		return "", errInlineNotConfigured
	}
	inst, err := o.instance(ctx, orderID)
	if err != nil {
		return "", err
	}
	inst.mu.Lock()
	defer inst.mu.Unlock()
	if !o.settle(ctx, orderID, inst) {
		return "", fmt.Errorf("order %d: %w", orderID, errTransitionPending)
	}
	if !domain.CanUpdateItems(inst.status) {
		return "", fmt.Errorf("%w: order items cannot be updated in status %s", ordersapp.ErrInvalidInput, inst.status)
	}
	if len(items) == 0 {
		return "", fmt.Errorf("%w: %w", ordersapp.ErrInvalidInput, domain.ErrNoItems)
	}
	return backoff.RetryWithData(func() (string, error) {
		msg, err := o.activities.UpdateOrderItemsInDB(ctx, orderID, items)
		return msg, permanentUnlessTransient(err)
	}, backoff.WithContext(o.newBackOff(), ctx))
}

func (o *InlineOrderWorkflows) Status(ctx context.Context, orderID int64) (domain.WorkflowStatus, error) {
	if o == nil || o.store == nil {
		return "", errInlineNotConfigured
	}
	inst, err := o.instance(ctx, orderID)
	if err != nil {
		return "", err
	}
	inst.mu.Lock()
	defer inst.mu.Unlock()
	return inst.status, nil
}

func (o *InlineOrderWorkflows) DeclineReason(ctx context.Context, orderID int64) (string, error) {
	if o == nil || o.store == nil {
		return "", errInlineNotConfigured
	}
	inst, err := o.instance(ctx, orderID)
	if err != nil {
		return "", err
	}
	inst.mu.Lock()
	defer inst.mu.Unlock()
	return inst.declineReason, nil
}

// FulfillDue first retries unfinished transitions, then delivers the
// deliveryDue event to every order whose delivery date has arrived. It
// returns the number of orders that reached FULFILLED.
func (o *InlineOrderWorkflows) FulfillDue(ctx context.Context) (int, error) {
	if o == nil || o.activities == nil || o.store == nil {
		return 0, errInlineNotConfigured
	}
	o.mu.Lock()
	known := make(map[int64]*inlineInstance, len(o.instances))
	for id, inst := range o.instances {
		known[id] = inst
	}
	o.mu.Unlock()
	for id, inst := range known {
		inst.mu.Lock()
		o.settle(ctx, id, inst)
		inst.mu.Unlock()
	}

	due, err := o.store.ListDueDeliveries(ctx, domain.DateOf(o.now()))
	if err != nil {
		return 0, err
	}
	fulfilled := 0
	for _, delivery := range due {
		if err := o.signal(ctx, delivery.OrderID, domain.TriggerDeliveryDue, transitionArgs{}); err != nil {
			o.logger.ErrorContext(ctx, "delivery sweep failed", slog.Int64("order.id", delivery.OrderID), slog.Any("error", err))
			continue
		}
		if status, err := o.Status(ctx, delivery.OrderID); err == nil && status == domain.WorkflowFulfilled {
			fulfilled++
		}
	}
	return fulfilled, nil
}

type transitionArgs struct {
	declineReason string
	delivery      orderstypes.ScheduleDeliveryRequest
}

// signal applies trigger the way the durable workflow does: outside its
// guard it is ignored; an activity failure is logged, not returned. While a
// partly committed transition is unfinished the signal is queued behind it.
func (o *InlineOrderWorkflows) signal(ctx context.Context, orderID int64, trigger domain.Trigger, args transitionArgs) error {
	if o == nil || o.activities == nil || o.store == nil {
		return errInlineNotConfigured
	}
	inst, err := o.instance(ctx, orderID)
	if err != nil {
		return err
	}
	inst.mu.Lock()
	defer inst.mu.Unlock()

	if !o.settle(ctx, orderID, inst) {
		inst.backlog = append(inst.backlog, queuedSignal{trigger: trigger, args: args})
		o.logger.InfoContext(ctx, "signal queued", slog.Int64("order.id", orderID), slog.String("trigger", string(trigger)))
		return nil
	}
	o.apply(ctx, orderID, inst, trigger, args)
	return nil
}

// settle retries the pending steps of inst and then replays queued signals.
// It reports whether inst is free to take a new signal. inst.mu must be held.
func (o *InlineOrderWorkflows) settle(ctx context.Context, orderID int64, inst *inlineInstance) bool {
	if inst.pending != nil {
		p := inst.pending
		inst.pending = nil
		o.run(ctx, orderID, inst, p.transition, p.args, true)
	}
	for inst.pending == nil && len(inst.backlog) > 0 {
		next := inst.backlog[0]
		inst.backlog = inst.backlog[1:]
		o.apply(ctx, orderID, inst, next.trigger, next.args)
	}
	return inst.pending == nil
}

func (o *InlineOrderWorkflows) apply(ctx context.Context, orderID int64, inst *inlineInstance, trigger domain.Trigger, args transitionArgs) {
	transition, ok := domain.Next(inst.status, trigger)
	if !ok {
		o.logger.InfoContext(ctx, "signal ignored", slog.Int64("order.id", orderID),
			slog.String("trigger", string(trigger)), slog.String("status", string(inst.status)))
		return
	}
	o.run(ctx, orderID, inst, transition, args, false)
}

// run executes transition. A failure before any write restores From; after
// a write inst holds the status reached so far and the rest stays pending.
func (o *InlineOrderWorkflows) run(ctx context.Context, orderID int64, inst *inlineInstance, transition domain.Transition, args transitionArgs, resumed bool) {
	logger := o.logger.With(slog.Int64("order.id", orderID), slog.String("trigger", string(transition.Trigger)))
	inst.status = transition.Via
	for done, step := range transition.Steps {
		err := o.runStep(ctx, orderID, step, args)
		if err == nil {
			continue
		}
		rest, hold, committed := transition.Remainder(done)
		if committed || resumed {
			inst.status = hold
			inst.pending = &pendingTransition{transition: rest, args: args}
			logger.WarnContext(ctx, "transition incomplete", slog.String("step", string(step.Kind)),
				slog.String("status", string(inst.status)), slog.Int("remaining", len(rest.Steps)), slog.Any("error", err))
			return
		}
		inst.status = transition.From
		logger.WarnContext(ctx, "transition failed",
			slog.String("step", string(step.Kind)), slog.String("status", string(inst.status)), slog.Any("error", err))
		return
	}
	inst.status = transition.To
	if transition.Trigger == domain.TriggerDecline {
		inst.declineReason = args.declineReason
	}
	logger.InfoContext(ctx, "transition applied", slog.String("status", string(inst.status)))
}

func (o *InlineOrderWorkflows) runStep(ctx context.Context, orderID int64, step domain.Step, args transitionArgs) error {
	var call func() error
	switch step.Kind {
	case domain.StepValidateSubmission:
		call = func() error { return o.activities.ValidateOrderForSubmission(ctx, orderID) }
	case domain.StepValidateApproval:
		call = func() error { return o.activities.ValidateOrderForApproval(ctx, orderID) }
	case domain.StepScheduleDelivery:
		call = func() error { return o.activities.ValidateAndScheduleDelivery(ctx, orderID, args.delivery) }
	case domain.StepUpdateStatus:
		call = func() error { return o.activities.UpdateOrderStatus(ctx, orderID, step.Status) }
	case domain.StepSetDeclineReason:
		call = func() error { return o.activities.SetDeclineReason(ctx, orderID, args.declineReason) }
	case domain.StepFulfillDelivery:
		call = func() error { return o.activities.FulfillDelivery(ctx, orderID) }
	case domain.StepCancelOrder:
		call = func() error { return o.activities.CancelOrderInDB(ctx, orderID) }
	default:
		return fmt.Errorf("unknown step %q", step.Kind)
	}
	return backoff.Retry(func() error {
		return permanentUnlessTransient(call())
	}, backoff.WithContext(o.newBackOff(), ctx))
}

// instance returns the in-memory instance for orderID, rebuilding it from
// the persisted order when the process has not seen it yet.
func (o *InlineOrderWorkflows) instance(ctx context.Context, orderID int64) (*inlineInstance, error) {
	o.mu.Lock()
	inst, ok := o.instances[orderID]
	o.mu.Unlock()
	if ok {
		return inst, nil
	}

	order, err := o.store.GetOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	fresh := &inlineInstance{status: domain.WorkflowStatusFor(order.Status), declineReason: order.DeclineReason}

	o.mu.Lock()
	defer o.mu.Unlock()
	if inst, ok := o.instances[orderID]; ok {
		return inst, nil
	}
	o.instances[orderID] = fresh
	return fresh, nil
}

func permanentUnlessTransient(err error) error {
	if err == nil || ordersapp.Classify(err).Retryable() {
		return err
	}
	return backoff.Permanent(err)
}
