package domain

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNext_TableTransitions(t *testing.T) {
	cases := []struct {
		name    string
		from    WorkflowStatus
		trigger Trigger
		via     WorkflowStatus
		to      WorkflowStatus
		steps   []StepKind
	}{
		{"submit from created", WorkflowCreated, TriggerSubmit, WorkflowSubmitted, WorkflowAwaitingApproval,
			[]StepKind{StepValidateSubmission, StepUpdateStatus}},
		{"resubmit after decline", WorkflowDeclined, TriggerSubmit, WorkflowSubmitted, WorkflowAwaitingApproval,
			[]StepKind{StepValidateSubmission, StepUpdateStatus}},
		{"approve", WorkflowAwaitingApproval, TriggerApprove, WorkflowAwaitingApproval, WorkflowApproved,
			[]StepKind{StepValidateApproval, StepUpdateStatus}},
		{"decline", WorkflowAwaitingApproval, TriggerDecline, WorkflowAwaitingApproval, WorkflowDeclined,
			[]StepKind{StepUpdateStatus, StepSetDeclineReason}},
		{"schedule", WorkflowApproved, TriggerSchedule, WorkflowScheduled, WorkflowUnderDelivery,
			[]StepKind{StepScheduleDelivery, StepUpdateStatus}},
		{"delivery due", WorkflowUnderDelivery, TriggerDeliveryDue, WorkflowUnderDelivery, WorkflowFulfilled,
			[]StepKind{StepFulfillDelivery, StepUpdateStatus}},
		{"cancel approved", WorkflowApproved, TriggerCancel, WorkflowApproved, WorkflowCanceled,
			[]StepKind{StepCancelOrder, StepUpdateStatus}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			tr, ok := Next(tc.from, tc.trigger)
			require.True(t, ok)
			require.Equal(t, tc.from, tr.From)
			require.Equal(t, tc.via, tr.Via)
			require.Equal(t, tc.to, tr.To)
			kinds := make([]StepKind, 0, len(tr.Steps))
			for _, s := range tr.Steps {
				kinds = append(kinds, s.Kind)
			}
			require.Equal(t, tc.steps, kinds)
		})
	}
}

func TestNext_StatusStepsCarryTargetStatus(t *testing.T) {
	tr, ok := Next(WorkflowApproved, TriggerSchedule)
	require.True(t, ok)
	require.Equal(t, OrderStatusUnderDelivery, tr.Steps[1].Status)

	tr, ok = Next(WorkflowAwaitingApproval, TriggerDecline)
	require.True(t, ok)
	require.Equal(t, OrderStatusDeclined, tr.Steps[0].Status)
}

func TestNext_OutOfGuardIsNoOp(t *testing.T) {
	cases := []struct {
		from    WorkflowStatus
		trigger Trigger
	}{
		{WorkflowAwaitingApproval, TriggerSubmit},
		{WorkflowCreated, TriggerApprove},
		{WorkflowCreated, TriggerSchedule},
		{WorkflowApproved, TriggerDecline},
		{WorkflowApproved, TriggerDeliveryDue},
		{WorkflowUnderDelivery, TriggerCancel},
		{WorkflowFulfilled, TriggerCancel},
		{WorkflowCanceled, TriggerCancel},
		{WorkflowCanceled, TriggerSubmit},
	}
	for _, tc := range cases {
		_, ok := Next(tc.from, tc.trigger)
		require.False(t, ok, "%s from %s", tc.trigger, tc.from)
	}
}

func TestNext_NeverSkipsStates(t *testing.T) {
	// CREATED can only reach APPROVED through AWAITING_APPROVAL.
	for _, trigger := range []Trigger{TriggerSubmit, TriggerApprove, TriggerDecline, TriggerSchedule, TriggerCancel, TriggerDeliveryDue} {
		tr, ok := Next(WorkflowCreated, trigger)
		if ok {
			require.NotEqual(t, WorkflowApproved, tr.To)
			require.NotEqual(t, WorkflowUnderDelivery, tr.To)
		}
	}
}

func TestNext_ReturnsIndependentSteps(t *testing.T) {
	first, _ := Next(WorkflowCreated, TriggerSubmit)
	first.Steps[0].Kind = StepCancelOrder
	second, _ := Next(WorkflowCreated, TriggerSubmit)
	require.Equal(t, StepValidateSubmission, second.Steps[0].Kind)
}

func TestCanUpdateItems(t *testing.T) {
	require.True(t, CanUpdateItems(WorkflowCreated))
	require.True(t, CanUpdateItems(WorkflowDeclined))
	require.False(t, CanUpdateItems(WorkflowAwaitingApproval))
	require.False(t, CanUpdateItems(WorkflowUnderDelivery))
}

func TestWorkflowStatusFor(t *testing.T) {
	require.Equal(t, WorkflowUnderDelivery, WorkflowStatusFor(OrderStatusUnderDelivery))
	require.Equal(t, WorkflowCreated, WorkflowStatusFor(OrderStatusCreated))
	require.True(t, WorkflowStatusFor(OrderStatusCanceled).Terminal())
}

func TestRemainder_ValidationFailureRollsBack(t *testing.T) {
	tr, _ := Next(WorkflowCreated, TriggerSubmit)
	rest, hold, committed := tr.Remainder(0)
	require.False(t, committed)
	require.Equal(t, WorkflowSubmitted, hold)
	require.Len(t, rest.Steps, 2)
}

func TestRemainder_HoldsAfterCommittedWrite(t *testing.T) {
	decline, _ := Next(WorkflowAwaitingApproval, TriggerDecline)
	rest, hold, committed := decline.Remainder(1)
	require.True(t, committed)
	require.Equal(t, WorkflowDeclined, hold)
	require.Equal(t, WorkflowDeclined, rest.From)
	require.Equal(t, WorkflowDeclined, rest.To)
	require.Equal(t, []Step{{Kind: StepSetDeclineReason}}, rest.Steps)

	schedule, _ := Next(WorkflowApproved, TriggerSchedule)
	rest, hold, committed = schedule.Remainder(1)
	require.True(t, committed)
	require.Equal(t, WorkflowScheduled, hold)
	require.Equal(t, WorkflowScheduled, rest.Via)
	require.Equal(t, WorkflowUnderDelivery, rest.To)
	require.Equal(t, []Step{{Kind: StepUpdateStatus, Status: OrderStatusUnderDelivery}}, rest.Steps)
}

func TestRemainder_DoneValidationIsNotCommitted(t *testing.T) {
	tr, _ := Next(WorkflowAwaitingApproval, TriggerApprove)
	_, hold, committed := tr.Remainder(1)
	require.False(t, committed)
	require.Equal(t, WorkflowAwaitingApproval, hold)
}
