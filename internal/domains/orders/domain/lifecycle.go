package domain

import "slices"

// Trigger is an external or timer event addressed to an order instance.
type Trigger string

const (
	TriggerSubmit      Trigger = "submit"
	TriggerApprove     Trigger = "approve"
	TriggerDecline     Trigger = "decline"
	TriggerSchedule    Trigger = "scheduleDelivery"
	TriggerCancel      Trigger = "cancel"
	TriggerDeliveryDue Trigger = "deliveryDue"
)

// StepKind names one activity of the catalog.
type StepKind string

const (
	StepValidateSubmission StepKind = "validateOrderForSubmission"
	StepValidateApproval   StepKind = "validateOrderForApproval"
	StepScheduleDelivery   StepKind = "validateAndScheduleDelivery"
	StepUpdateStatus       StepKind = "updateOrderStatus"
	StepSetDeclineReason   StepKind = "setDeclineReason"
	StepFulfillDelivery    StepKind = "fulfillDelivery"
	StepCancelOrder        StepKind = "cancelOrderInDB"
)

// Step is a single activity call performed while a transition runs.
// Status is only meaningful for StepUpdateStatus.
type Step struct {
	Kind   StepKind
	Status OrderStatus
}

// Transition is an accepted trigger: the instance moves to Via while Steps
// run in order, then settles in To. A step that fails before anything was
// written returns it to From; after a write it stays put and the remaining
// steps are retried, see Remainder.
type Transition struct {
	Trigger Trigger
	From    WorkflowStatus
	Via     WorkflowStatus
	To      WorkflowStatus
	Steps   []Step
}

// Writes reports whether the step changes persisted state.
func (k StepKind) Writes() bool {
	return k != StepValidateSubmission && k != StepValidateApproval
}

// Remainder splits t after done steps succeeded. rest holds the steps still
// to run, starting from hold, the status the committed steps left the
// instance in. committed is false when nothing was written yet.
func (t Transition) Remainder(done int) (rest Transition, hold WorkflowStatus, committed bool) {
	done = min(max(done, 0), len(t.Steps))
	hold = t.Via
	for _, step := range t.Steps[:done] {
		if step.Kind.Writes() {
			committed = true
		}
		if step.Kind == StepUpdateStatus {
			hold = WorkflowStatusFor(step.Status)
		}
	}
	rest = t
	rest.From, rest.Via = hold, hold
	rest.Steps = slices.Clone(t.Steps[done:])
	return rest, hold, committed
}

type rule struct {
	trigger Trigger
	from    []WorkflowStatus
	via     WorkflowStatus
	to      WorkflowStatus
	steps   []Step
}

var lifecycle = []rule{
	{
		trigger: TriggerSubmit,
		from:    []WorkflowStatus{WorkflowCreated, WorkflowDeclined},
		via:     WorkflowSubmitted,
		to:      WorkflowAwaitingApproval,
		steps: []Step{
			{Kind: StepValidateSubmission},
			{Kind: StepUpdateStatus, Status: OrderStatusAwaitingApproval},
		},
	},
	{
		trigger: TriggerApprove,
		from:    []WorkflowStatus{WorkflowAwaitingApproval},
		to:      WorkflowApproved,
		steps: []Step{
			{Kind: StepValidateApproval},
			{Kind: StepUpdateStatus, Status: OrderStatusApproved},
		},
	},
	{
		trigger: TriggerDecline,
		from:    []WorkflowStatus{WorkflowAwaitingApproval},
		to:      WorkflowDeclined,
		steps: []Step{
			{Kind: StepUpdateStatus, Status: OrderStatusDeclined},
			{Kind: StepSetDeclineReason},
		},
	},
	{
		trigger: TriggerSchedule,
		from:    []WorkflowStatus{WorkflowApproved},
		via:     WorkflowScheduled,
		to:      WorkflowUnderDelivery,
		steps: []Step{
			{Kind: StepScheduleDelivery},
			{Kind: StepUpdateStatus, Status: OrderStatusUnderDelivery},
		},
	},
	{
		trigger: TriggerDeliveryDue,
		from:    []WorkflowStatus{WorkflowUnderDelivery},
		to:      WorkflowFulfilled,
		steps: []Step{
			{Kind: StepFulfillDelivery},
			{Kind: StepUpdateStatus, Status: OrderStatusFulfilled},
		},
	},
	{
		trigger: TriggerCancel,
		from: []WorkflowStatus{
			WorkflowCreated, WorkflowSubmitted, WorkflowAwaitingApproval,
			WorkflowApproved, WorkflowDeclined, WorkflowScheduled,
		},
		to: WorkflowCanceled,
		steps: []Step{
			{Kind: StepCancelOrder},
			{Kind: StepUpdateStatus, Status: OrderStatusCanceled},
		},
	},
}

// Next returns the transition trigger causes from current. The second result
// is false when the trigger is outside its guard; callers treat that as a no-op.
func Next(current WorkflowStatus, trigger Trigger) (Transition, bool) {
	for _, r := range lifecycle {
		if r.trigger != trigger || !slices.Contains(r.from, current) {
			continue
		}
		via := r.via
		if via == "" {
			via = current
		}
		return Transition{Trigger: trigger, From: current, Via: via, To: r.to, Steps: slices.Clone(r.steps)}, true
	}
	return Transition{}, false
}

// CanUpdateItems reports whether the item list may still be edited.
func CanUpdateItems(current WorkflowStatus) bool {
	return current == WorkflowCreated || current == WorkflowDeclined
}

// CanUpdateItemsOrder is the persisted-status counterpart of CanUpdateItems.
func CanUpdateItemsOrder(status OrderStatus) bool {
	return status == OrderStatusCreated || status == OrderStatusDeclined
}

// Cancelable reports whether a persisted order may still be canceled.
func Cancelable(status OrderStatus) bool {
	switch status {
	case OrderStatusFulfilled, OrderStatusUnderDelivery, OrderStatusCanceled:
		return false
	default:
		return true
	}
}
