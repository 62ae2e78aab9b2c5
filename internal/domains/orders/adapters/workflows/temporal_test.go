package workflows

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.temporal.io/api/serviceerror"
	"go.temporal.io/sdk/client"
	"go.temporal.io/sdk/mocks"
	"go.temporal.io/sdk/temporal"

	ordersapp "github.com/Apurer/order-lifecycle-service/internal/domains/orders/application"
	orderstypes "github.com/Apurer/order-lifecycle-service/internal/domains/orders/application/types"
	"github.com/Apurer/order-lifecycle-service/internal/domains/orders/domain"
	"github.com/Apurer/order-lifecycle-service/internal/domains/orders/ports"
	orderactivities "github.com/Apurer/order-lifecycle-service/internal/platform/temporal/activities/orders"
	orderworkflows "github.com/Apurer/order-lifecycle-service/internal/platform/temporal/workflows/orders"
)

func TestTemporalStartUsesInstanceOptions(t *testing.T) {
	c := &mocks.Client{}
	c.On("ExecuteWorkflow", mock.Anything, mock.MatchedBy(func(opts client.StartWorkflowOptions) bool {
		return opts.ID == "order-workflow-42" &&
			opts.TaskQueue == orderworkflows.OrderTaskQueue &&
			opts.WorkflowExecutionTimeout == orderworkflows.ExecutionTimeout
	}), orderworkflows.OrderWorkflowName, orderstypes.ProcessOrderInput{OrderID: 42, ClientUsername: "alice"}).
		Return(&mocks.WorkflowRun{}, nil).Once()

	o := NewTemporalOrderWorkflows(c, "")
	require.NoError(t, o.Start(context.Background(), 42, "alice"))
	c.AssertExpectations(t)
}

func TestTemporalStartAlreadyStartedIsNotAnError(t *testing.T) {
	c := &mocks.Client{}
	c.On("ExecuteWorkflow", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(nil, serviceerror.NewWorkflowExecutionAlreadyStarted("running", "", "run-1")).Once()

	o := NewTemporalOrderWorkflows(c, "custom-queue")
	require.NoError(t, o.Start(context.Background(), 42, "alice"))
}

func TestTemporalSignalsAddressTheOrderInstance(t *testing.T) {
	c := &mocks.Client{}
	req := orderstypes.DeclineRequest{Reason: "oversized"}
	c.On("SignalWorkflow", mock.Anything, "order-workflow-7", "", orderworkflows.DeclineOrderSignal, req).Return(nil).Once()

	o := NewTemporalOrderWorkflows(c, "")
	require.NoError(t, o.Decline(context.Background(), 7, "oversized"))
	c.AssertExpectations(t)
}

func TestTemporalSignalUnknownInstance(t *testing.T) {
	c := &mocks.Client{}
	c.On("SignalWorkflow", mock.Anything, "order-workflow-7", "", orderworkflows.SubmitOrderSignal, nil).
		Return(serviceerror.NewNotFound("workflow not found")).Once()
	c.On("QueryWorkflow", mock.Anything, "order-workflow-7", "", orderworkflows.GetStatusQuery).
		Return(nil, serviceerror.NewNotFound("workflow not found")).Once()

	o := NewTemporalOrderWorkflows(c, "")
	require.ErrorIs(t, o.Submit(context.Background(), 7), ports.ErrNotFound)
}

func TestTemporalCancelFinishedInstanceIsNotAnError(t *testing.T) {
	c := &mocks.Client{}
	c.On("SignalWorkflow", mock.Anything, "order-workflow-7", "", orderworkflows.CancelOrderSignal, nil).
		Return(serviceerror.NewNotFound("workflow execution already completed")).Once()
	value := &mocks.Value{}
	value.On("Get", mock.Anything).Run(func(args mock.Arguments) {
		*args.Get(0).(*domain.WorkflowStatus) = domain.WorkflowFulfilled
	}).Return(nil).Once()
	c.On("QueryWorkflow", mock.Anything, "order-workflow-7", "", orderworkflows.GetStatusQuery).
		Return(value, nil).Once()

	o := NewTemporalOrderWorkflows(c, "")
	require.NoError(t, o.Cancel(context.Background(), 7))
	c.AssertExpectations(t)
	value.AssertExpectations(t)
}

func TestTranslateError(t *testing.T) {
	validation := temporal.NewNonRetryableApplicationError("order items cannot be updated", orderactivities.ErrTypeValidation, nil)
	require.ErrorIs(t, translateError(1, validation), ordersapp.ErrInvalidInput)

	missing := temporal.NewNonRetryableApplicationError("item 9: resource not found", orderactivities.ErrTypeNotFound, nil)
	require.ErrorIs(t, translateError(1, missing), ports.ErrNotFound)

	other := errors.New("deadline exceeded")
	require.Equal(t, other, translateError(1, other))
}

func TestTemporalNotConfigured(t *testing.T) {
	var o *TemporalOrderWorkflows
	require.ErrorIs(t, o.Start(context.Background(), 1, "alice"), errTemporalNotConfigured)
	_, err := o.Status(context.Background(), 1)
	require.ErrorIs(t, err, errTemporalNotConfigured)
}
