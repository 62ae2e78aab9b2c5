package workflows

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/Apurer/order-lifecycle-service/internal/domains/orders/adapters/memory"
	ordersapp "github.com/Apurer/order-lifecycle-service/internal/domains/orders/application"
	orderstypes "github.com/Apurer/order-lifecycle-service/internal/domains/orders/application/types"
	"github.com/Apurer/order-lifecycle-service/internal/domains/orders/domain"
	"github.com/Apurer/order-lifecycle-service/internal/domains/orders/ports"
)

// Monday 12 October 2026.
var testNow = time.Date(2026, time.October, 12, 9, 0, 0, 0, time.UTC)

type inlineFixture struct {
	store *memory.Store
	item  *domain.Item
	truck *domain.Truck
	order *domain.Order
	clock time.Time
}

func newInlineFixture(t *testing.T) *inlineFixture {
	t.Helper()
	ctx := context.Background()
	store := memory.NewStore()
	item, err := store.SaveItem(ctx, domain.Item{
		Name: "Oak table", SKU: "TBL-01", Quantity: 100,
		UnitPrice: decimal.RequireFromString("249.99"), PackageVolume: 2,
	})
	require.NoError(t, err)
	truck, err := store.SaveTruck(ctx, domain.Truck{ChassisNumber: "CH-1", LicensePlate: "AB-123", ContainerVolume: 20, Available: true})
	require.NoError(t, err)
	line, err := domain.NewOrderItem(item, 3)
	require.NoError(t, err)
	order, err := domain.NewOrder("alice", domain.NewOrderNumber(testNow, "abcde"), testNow.AddDate(0, 0, 20), []domain.OrderItem{line}, testNow)
	require.NoError(t, err)
	order, err = store.CreateOrder(ctx, order)
	require.NoError(t, err)
	return &inlineFixture{store: store, item: item, truck: truck, order: order, clock: testNow}
}

func (f *inlineFixture) now() time.Time { return f.clock }

func (f *inlineFixture) orchestrator(activities ports.Activities) *InlineOrderWorkflows {
	if activities == nil {
		activities = ordersapp.NewActivities(f.store, ordersapp.WithActivitiesClock(f.now))
	}
	return NewInlineOrderWorkflows(activities, f.store,
		WithInlineClock(f.now),
		WithRetryBackOff(func() backoff.BackOff { return backoff.WithMaxRetries(&backoff.ZeroBackOff{}, 2) }),
	)
}

func (f *inlineFixture) quantity(t *testing.T) int {
	t.Helper()
	item, err := f.store.GetItem(context.Background(), f.item.ID)
	require.NoError(t, err)
	return item.Quantity
}

func requireStatus(t *testing.T, o *InlineOrderWorkflows, orderID int64, want domain.WorkflowStatus) {
	t.Helper()
	got, err := o.Status(context.Background(), orderID)
	require.NoError(t, err)
	require.Equal(t, want, got)
}

func TestInlineWorkflowFullLifecycle(t *testing.T) {
	f := newInlineFixture(t)
	o := f.orchestrator(nil)
	ctx := context.Background()
	id := f.order.ID
	deliveryDate := domain.Tomorrow(testNow).AddDate(0, 0, 2)

	require.NoError(t, o.Start(ctx, id, "alice"))
	requireStatus(t, o, id, domain.WorkflowCreated)

	require.NoError(t, o.Submit(ctx, id))
	requireStatus(t, o, id, domain.WorkflowAwaitingApproval)

	require.NoError(t, o.Decline(ctx, id, "oversized"))
	requireStatus(t, o, id, domain.WorkflowDeclined)
	reason, err := o.DeclineReason(ctx, id)
	require.NoError(t, err)
	require.Equal(t, "oversized", reason)

	require.NoError(t, o.Submit(ctx, id))
	requireStatus(t, o, id, domain.WorkflowAwaitingApproval)
	require.NoError(t, o.Approve(ctx, id))
	requireStatus(t, o, id, domain.WorkflowApproved)

	require.NoError(t, o.ScheduleDelivery(ctx, id, orderstypes.ScheduleDeliveryRequest{Date: deliveryDate, TruckIDs: []int64{f.truck.ID}}))
	requireStatus(t, o, id, domain.WorkflowUnderDelivery)
	require.Equal(t, 97, f.quantity(t))

	fulfilled, err := o.FulfillDue(ctx)
	require.NoError(t, err)
	require.Zero(t, fulfilled)
	requireStatus(t, o, id, domain.WorkflowUnderDelivery)

	f.clock = deliveryDate
	fulfilled, err = o.FulfillDue(ctx)
	require.NoError(t, err)
	require.Equal(t, 1, fulfilled)
	requireStatus(t, o, id, domain.WorkflowFulfilled)

	require.NoError(t, o.Cancel(ctx, id))
	requireStatus(t, o, id, domain.WorkflowFulfilled)

	order, err := f.store.GetOrder(ctx, id)
	require.NoError(t, err)
	require.Equal(t, domain.OrderStatusFulfilled, order.Status)
	require.True(t, order.Delivery.Completed)
}

func TestInlineWorkflowIgnoresSignalsOutsideGuard(t *testing.T) {
	f := newInlineFixture(t)
	o := f.orchestrator(nil)
	ctx := context.Background()

	require.NoError(t, o.Approve(ctx, f.order.ID))
	requireStatus(t, o, f.order.ID, domain.WorkflowCreated)

	require.NoError(t, o.Submit(ctx, f.order.ID))
	require.NoError(t, o.Submit(ctx, f.order.ID))
	requireStatus(t, o, f.order.ID, domain.WorkflowAwaitingApproval)
}

func TestInlineWorkflowCancelBeforeDeliveryKeepsInventory(t *testing.T) {
	f := newInlineFixture(t)
	o := f.orchestrator(nil)
	ctx := context.Background()

	require.NoError(t, o.Submit(ctx, f.order.ID))
	require.NoError(t, o.Approve(ctx, f.order.ID))
	require.NoError(t, o.Cancel(ctx, f.order.ID))

	requireStatus(t, o, f.order.ID, domain.WorkflowCanceled)
	require.Equal(t, 100, f.quantity(t))
}

func TestInlineWorkflowFailedActivityRestoresStatus(t *testing.T) {
	f := newInlineFixture(t)
	o := f.orchestrator(nil)
	ctx := context.Background()

	require.NoError(t, o.Submit(ctx, f.order.ID))
	require.NoError(t, o.Approve(ctx, f.order.ID))
	saturday := time.Date(2026, time.October, 17, 0, 0, 0, 0, time.UTC)
	require.NoError(t, o.ScheduleDelivery(ctx, f.order.ID, orderstypes.ScheduleDeliveryRequest{Date: saturday, TruckIDs: []int64{f.truck.ID}}))

	requireStatus(t, o, f.order.ID, domain.WorkflowApproved)
	require.Equal(t, 100, f.quantity(t))
}

type flakyActivities struct {
	ports.Activities
	failures int
	calls    int
}

func (a *flakyActivities) ValidateOrderForSubmission(ctx context.Context, orderID int64) error {
	a.calls++
	if a.calls <= a.failures {
		return errors.New("connection reset")
	}
	return a.Activities.ValidateOrderForSubmission(ctx, orderID)
}

func TestInlineWorkflowRetriesTransientFailures(t *testing.T) {
	f := newInlineFixture(t)
	flaky := &flakyActivities{Activities: ordersapp.NewActivities(f.store, ordersapp.WithActivitiesClock(f.now)), failures: 2}
	o := f.orchestrator(flaky)

	require.NoError(t, o.Submit(context.Background(), f.order.ID))
	requireStatus(t, o, f.order.ID, domain.WorkflowAwaitingApproval)
	require.Equal(t, 3, flaky.calls)
}

func TestInlineWorkflowGivesUpAfterThreeAttempts(t *testing.T) {
	f := newInlineFixture(t)
	flaky := &flakyActivities{Activities: ordersapp.NewActivities(f.store, ordersapp.WithActivitiesClock(f.now)), failures: 5}
	o := f.orchestrator(flaky)

	require.NoError(t, o.Submit(context.Background(), f.order.ID))
	requireStatus(t, o, f.order.ID, domain.WorkflowCreated)
	require.Equal(t, 3, flaky.calls)
}

func TestInlineWorkflowRehydratesFromPersistedStatus(t *testing.T) {
	f := newInlineFixture(t)
	ctx := context.Background()
	order, err := f.store.GetOrder(ctx, f.order.ID)
	require.NoError(t, err)
	order.Status = domain.OrderStatusDeclined
	order.DeclineReason = "late"
	_, err = f.store.SaveOrder(ctx, order)
	require.NoError(t, err)

	o := f.orchestrator(nil)
	requireStatus(t, o, f.order.ID, domain.WorkflowDeclined)
	reason, err := o.DeclineReason(ctx, f.order.ID)
	require.NoError(t, err)
	require.Equal(t, "late", reason)
}

func TestInlineWorkflowUpdateItems(t *testing.T) {
	f := newInlineFixture(t)
	o := f.orchestrator(nil)
	ctx := context.Background()

	msg, err := o.UpdateItems(ctx, f.order.ID, []domain.ItemLine{{ItemID: f.item.ID, RequestedQuantity: 4}})
	require.NoError(t, err)
	require.Equal(t, ordersapp.ItemsUpdatedMessage, msg)

	_, err = o.UpdateItems(ctx, f.order.ID, []domain.ItemLine{{ItemID: 404, RequestedQuantity: 1}})
	require.ErrorIs(t, err, ports.ErrNotFound)

	require.NoError(t, o.Submit(ctx, f.order.ID))
	_, err = o.UpdateItems(ctx, f.order.ID, []domain.ItemLine{{ItemID: f.item.ID, RequestedQuantity: 1}})
	require.ErrorIs(t, err, ordersapp.ErrInvalidInput)
}

func TestInlineWorkflowUnknownOrder(t *testing.T) {
	f := newInlineFixture(t)
	o := f.orchestrator(nil)

	require.ErrorIs(t, o.Submit(context.Background(), 999), ports.ErrNotFound)
	_, err := o.Status(context.Background(), 999)
	require.ErrorIs(t, err, ports.ErrNotFound)
}

// outageActivities fails the named write while down is set.
type outageActivities struct {
	ports.Activities
	down   bool
	status domain.OrderStatus
}

func (a *outageActivities) SetDeclineReason(ctx context.Context, orderID int64, reason string) error {
	if a.down {
		return errors.New("connection reset")
	}
	return a.Activities.SetDeclineReason(ctx, orderID, reason)
}

func (a *outageActivities) UpdateOrderStatus(ctx context.Context, orderID int64, status domain.OrderStatus) error {
	if a.down && status == a.status {
		return errors.New("connection reset")
	}
	return a.Activities.UpdateOrderStatus(ctx, orderID, status)
}

func TestInlineWorkflowDeclineHoldsAfterReasonFailure(t *testing.T) {
	f := newInlineFixture(t)
	acts := &outageActivities{Activities: ordersapp.NewActivities(f.store, ordersapp.WithActivitiesClock(f.now))}
	o := f.orchestrator(acts)
	ctx := context.Background()
	id := f.order.ID

	require.NoError(t, o.Submit(ctx, id))
	acts.down = true
	require.NoError(t, o.Decline(ctx, id, "x"))
	requireStatus(t, o, id, domain.WorkflowDeclined)

	// Queued behind the unfinished decline.
	require.NoError(t, o.Approve(ctx, id))
	requireStatus(t, o, id, domain.WorkflowDeclined)
	_, err := o.UpdateItems(ctx, id, []domain.ItemLine{{ItemID: f.item.ID, RequestedQuantity: 1}})
	require.ErrorIs(t, err, errTransitionPending)

	acts.down = false
	_, err = o.FulfillDue(ctx)
	require.NoError(t, err)
	requireStatus(t, o, id, domain.WorkflowDeclined)
	reason, err := o.DeclineReason(ctx, id)
	require.NoError(t, err)
	require.Equal(t, "x", reason)

	order, err := f.store.GetOrder(ctx, id)
	require.NoError(t, err)
	require.Equal(t, domain.OrderStatusDeclined, order.Status)
	require.Equal(t, "x", order.DeclineReason)
}

func TestInlineWorkflowScheduleHoldsAfterStatusFailure(t *testing.T) {
	f := newInlineFixture(t)
	acts := &outageActivities{
		Activities: ordersapp.NewActivities(f.store, ordersapp.WithActivitiesClock(f.now)),
		status:     domain.OrderStatusUnderDelivery,
	}
	o := f.orchestrator(acts)
	ctx := context.Background()
	id := f.order.ID
	friday := time.Date(2026, time.October, 16, 0, 0, 0, 0, time.UTC)

	require.NoError(t, o.Submit(ctx, id))
	require.NoError(t, o.Approve(ctx, id))
	acts.down = true
	require.NoError(t, o.ScheduleDelivery(ctx, id, orderstypes.ScheduleDeliveryRequest{Date: friday, TruckIDs: []int64{f.truck.ID}}))
	requireStatus(t, o, id, domain.WorkflowScheduled)
	require.Equal(t, 97, f.quantity(t))

	// The cancel waits for the schedule to finish and is then out of guard.
	require.NoError(t, o.Cancel(ctx, id))
	requireStatus(t, o, id, domain.WorkflowScheduled)

	acts.down = false
	require.NoError(t, o.Cancel(ctx, id))
	requireStatus(t, o, id, domain.WorkflowUnderDelivery)
	require.Equal(t, 97, f.quantity(t))

	booked, err := f.store.BookedTruckIDs(ctx, friday)
	require.NoError(t, err)
	require.Contains(t, booked, f.truck.ID)

	f.clock = friday
	fulfilled, err := o.FulfillDue(ctx)
	require.NoError(t, err)
	require.Equal(t, 1, fulfilled)
	requireStatus(t, o, id, domain.WorkflowFulfilled)
}
