package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	validatorv10 "github.com/go-playground/validator/v10"

	"github.com/Apurer/order-lifecycle-service/internal/domains/orders/adapters/http/mapper"
	ordersapp "github.com/Apurer/order-lifecycle-service/internal/domains/orders/application"
	orderstypes "github.com/Apurer/order-lifecycle-service/internal/domains/orders/application/types"
	"github.com/Apurer/order-lifecycle-service/internal/domains/orders/domain"
	"github.com/Apurer/order-lifecycle-service/internal/domains/orders/ports"
	"github.com/Apurer/order-lifecycle-service/internal/platform/validation"
	apierrors "github.com/Apurer/order-lifecycle-service/internal/shared/errors"
)

// ClientUsernameHeader carries the authenticated client identity.
const ClientUsernameHeader = "X-Client-Username"

// IdempotencyKeyHeader lets clients retry order creation safely.
const IdempotencyKeyHeader = "Idempotency-Key"

const (
	maxWindowDays = ordersapp.MaxWindowDays
	maxPageSize   = 100
)

// OrderAPI translates HTTP requests into service calls and workflow messages.
type OrderAPI struct {
	service   ports.Service
	workflows ports.WorkflowOrchestrator
	validate  *validatorv10.Validate
	responder *apierrors.Responder
	logger    *slog.Logger
}

// NewOrderAPI wires the handlers. A nil logger discards output.
func NewOrderAPI(service ports.Service, workflows ports.WorkflowOrchestrator, logger *slog.Logger) *OrderAPI {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &OrderAPI{
		service:   service,
		workflows: workflows,
		validate:  validation.New(),
		responder: apierrors.NewResponder("", OrderErrorMappers()...),
		logger:    logger.With("component", "orders.http"),
	}
}

// RegisterRoutes mounts every order route on r.
func (api *OrderAPI) RegisterRoutes(r gin.IRouter) {
	client := r.Group("/api/workflow/client/orders", api.requireClient)
	client.POST("", api.CreateOrder)
	client.GET("", api.ListClientOrders)
	client.PUT("/:orderId/items", api.UpdateItems)
	client.POST("/:orderId/submit", api.Submit)
	client.POST("/:orderId/cancel", api.Cancel)

	manager := r.Group("/api/workflow/manager/orders")
	manager.POST("/:orderId/approve", api.Approve)
	manager.POST("/:orderId/decline", api.Decline)
	manager.POST("/:orderId/schedule", api.ScheduleDelivery)

	r.GET("/api/workflow/orders/:orderId/status", api.Status)
	r.GET("/api/orders/:orderId", api.GetOrder)
	r.GET("/api/manager/orders", api.ListOrders)
	r.GET("/api/manager/orders/:orderId/available-dates", api.AvailableDates)
}

// Post /api/workflow/client/orders
// Creates an order and starts its workflow instance
func (api *OrderAPI) CreateOrder(c *gin.Context) {
	var payload mapper.CreateOrder
	if !api.bind(c, &payload) {
		return
	}
	if payload.DeadlineDate.Time.IsZero() {
		api.responder.Respond(c, apierrors.NewValidationProblem(map[string]string{"deadlineDate": "required"}))
		return
	}
	ctx := c.Request.Context()
	username := clientUsername(c)
	created, err := api.service.CreateOrder(ctx, mapper.ToCreateOrderInput(username, strings.TrimSpace(c.GetHeader(IdempotencyKeyHeader)), payload))
	if err != nil {
		api.responder.RespondError(c, err)
		return
	}
	if err := api.workflows.Start(ctx, created.Entity.ID, username); err != nil {
		api.logger.ErrorContext(ctx, "order workflow start failed", "orderId", created.Entity.ID, "error", err)
		api.responder.RespondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, mapper.FromProjection(created))
}

// Get /api/workflow/client/orders
// Lists the caller's orders, newest first, optionally filtered by status
func (api *OrderAPI) ListClientOrders(c *gin.Context) {
	input, ok := api.listInput(c)
	if !ok {
		return
	}
	page, err := api.service.ListClientOrders(c.Request.Context(), clientUsername(c), input)
	if err != nil {
		api.responder.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, mapper.FromOrderPage(page))
}

// Get /api/manager/orders
// Lists order summaries, most recently submitted first
func (api *OrderAPI) ListOrders(c *gin.Context) {
	input, ok := api.listInput(c)
	if !ok {
		return
	}
	page, err := api.service.ListOrders(c.Request.Context(), input)
	if err != nil {
		api.responder.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, mapper.FromSummaryPage(page))
}

// Put /api/workflow/client/orders/:orderId/items
// Replaces the item list of a CREATED or DECLINED order
func (api *OrderAPI) UpdateItems(c *gin.Context) {
	id, ok := api.ownedOrder(c)
	if !ok {
		return
	}
	var payload mapper.UpdateItems
	if !api.bind(c, &payload) {
		return
	}
	message, err := api.workflows.UpdateItems(c.Request.Context(), id, mapper.ToItemLines(payload.Items))
	if err != nil {
		api.responder.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, mapper.Message{Message: message})
}

// Post /api/workflow/client/orders/:orderId/submit
func (api *OrderAPI) Submit(c *gin.Context) {
	id, ok := api.ownedOrder(c)
	if !ok {
		return
	}
	api.accepted(c, api.workflows.Submit(c.Request.Context(), id), "submit")
}

// Post /api/workflow/client/orders/:orderId/cancel
func (api *OrderAPI) Cancel(c *gin.Context) {
	id, ok := api.ownedOrder(c)
	if !ok {
		return
	}
	api.accepted(c, api.workflows.Cancel(c.Request.Context(), id), "cancel")
}

// Post /api/workflow/manager/orders/:orderId/approve
func (api *OrderAPI) Approve(c *gin.Context) {
	id, ok := api.orderID(c)
	if !ok {
		return
	}
	api.accepted(c, api.workflows.Approve(c.Request.Context(), id), "approve")
}

// Post /api/workflow/manager/orders/:orderId/decline
func (api *OrderAPI) Decline(c *gin.Context) {
	id, ok := api.orderID(c)
	if !ok {
		return
	}
	var payload mapper.Decline
	if !api.bind(c, &payload) {
		return
	}
	api.accepted(c, api.workflows.Decline(c.Request.Context(), id, strings.TrimSpace(payload.Reason)), "decline")
}

// Post /api/workflow/manager/orders/:orderId/schedule
// Requests delivery on a date with a set of trucks
func (api *OrderAPI) ScheduleDelivery(c *gin.Context) {
	id, ok := api.orderID(c)
	if !ok {
		return
	}
	var payload mapper.ScheduleDelivery
	if !api.bind(c, &payload) {
		return
	}
	fields := map[string]string{}
	if payload.ScheduledDate.Time.IsZero() {
		fields["scheduledDate"] = "required"
	}
	if err := api.validate.Struct(validation.ScheduleDeliveryPayload{TruckIDs: payload.TruckIDs}); err != nil {
		for k, v := range validation.Fields(err) {
			fields[k] = v
		}
	}
	if len(fields) > 0 {
		api.responder.Respond(c, apierrors.NewValidationProblem(fields))
		return
	}
	api.accepted(c, api.workflows.ScheduleDelivery(c.Request.Context(), id, mapper.ToScheduleRequest(payload)), "schedule")
}

// Get /api/workflow/orders/:orderId/status
// Queries the live workflow status and decline reason
func (api *OrderAPI) Status(c *gin.Context) {
	id, ok := api.orderID(c)
	if !ok {
		return
	}
	ctx := c.Request.Context()
	status, err := api.workflows.Status(ctx, id)
	if err != nil {
		api.responder.RespondError(c, err)
		return
	}
	reason, err := api.workflows.DeclineReason(ctx, id)
	if err != nil {
		api.responder.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, mapper.WorkflowStatus{OrderID: id, Status: string(status), DeclineReason: reason})
}

// Get /api/orders/:orderId
func (api *OrderAPI) GetOrder(c *gin.Context) {
	id, ok := api.orderID(c)
	if !ok {
		return
	}
	order, err := api.service.GetOrder(c.Request.Context(), id)
	if err != nil {
		api.responder.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, mapper.FromProjection(order))
}

// Get /api/manager/orders/:orderId/available-dates
// Lists feasible delivery dates for an approved order
func (api *OrderAPI) AvailableDates(c *gin.Context) {
	id, ok := api.orderID(c)
	if !ok {
		return
	}
	days := 0
	if raw := c.Query("days"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 || n > maxWindowDays {
			api.responder.Respond(c, apierrors.NewValidationProblem(map[string]string{
				"days": "must be an integer between 1 and " + strconv.Itoa(maxWindowDays),
			}))
			return
		}
		days = n
	}
	dates, err := api.service.AvailableDeliveryDates(c.Request.Context(), orderstypes.AvailableDatesInput{OrderID: id, Days: days})
	if err != nil {
		api.responder.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, mapper.FromDates(id, dates))
}

// listInput reads the status, page and size query parameters.
func (api *OrderAPI) listInput(c *gin.Context) (orderstypes.ListOrdersInput, bool) {
	var input orderstypes.ListOrdersInput
	fields := map[string]string{}
	if raw := strings.TrimSpace(c.Query("status")); raw != "" {
		status, err := domain.ParseOrderStatus(strings.ToUpper(raw))
		if err != nil {
			fields["status"] = "unknown order status"
		}
		input.Status = status
	}
	if raw := c.Query("page"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			fields["page"] = "must be a non-negative integer"
		}
		input.Page = n
	}
	if raw := c.Query("size"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 || n > maxPageSize {
			fields["size"] = "must be an integer between 1 and " + strconv.Itoa(maxPageSize)
		}
		input.Size = n
	}
	if len(fields) > 0 {
		api.responder.Respond(c, apierrors.NewValidationProblem(fields))
		return input, false
	}
	return input, true
}

func (api *OrderAPI) requireClient(c *gin.Context) {
	if clientUsername(c) == "" {
		api.responder.Respond(c, apierrors.ErrUnauthorized.WithDetail("missing "+ClientUsernameHeader+" header"))
		return
	}
	c.Next()
}

func clientUsername(c *gin.Context) string {
	return strings.TrimSpace(c.GetHeader(ClientUsernameHeader))
}

// ownedOrder resolves the path id and checks the order belongs to the caller.
func (api *OrderAPI) ownedOrder(c *gin.Context) (int64, bool) {
	id, ok := api.orderID(c)
	if !ok {
		return 0, false
	}
	order, err := api.service.GetOrder(c.Request.Context(), id)
	if err != nil {
		api.responder.RespondError(c, err)
		return 0, false
	}
	if order.Entity.ClientUsername != clientUsername(c) {
		api.responder.Respond(c, apierrors.ErrForbidden.WithDetail("order belongs to another client"))
		return 0, false
	}
	return id, true
}

func (api *OrderAPI) orderID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("orderId"), 10, 64)
	if err != nil || id <= 0 {
		api.responder.Respond(c, apierrors.ErrBadRequest.WithDetail("orderId must be a positive integer"))
		return 0, false
	}
	return id, true
}

func (api *OrderAPI) bind(c *gin.Context, out any) bool {
	if err := c.ShouldBindJSON(out); err != nil {
		api.responder.Respond(c, apierrors.ErrBadRequest.WithDetail(err.Error()))
		return false
	}
	if err := api.validate.Struct(out); err != nil {
		api.responder.Respond(c, apierrors.NewValidationProblem(validation.Fields(err)))
		return false
	}
	return true
}

func (api *OrderAPI) accepted(c *gin.Context, err error, action string) {
	if err != nil {
		api.logger.WarnContext(c.Request.Context(), "order signal failed", "action", action, "error", err)
		api.responder.RespondError(c, err)
		return
	}
	c.JSON(http.StatusAccepted, mapper.Message{Message: action + " accepted"})
}

// OrderErrorMappers translates order failures into problem documents.
func OrderErrorMappers() []apierrors.ErrorMapper {
	return []apierrors.ErrorMapper{
		func(err error) (apierrors.ProblemDetail, bool) {
			if errors.Is(err, ports.ErrBookingConflict) {
				return apierrors.ErrConflict.WithDetail(err.Error()), true
			}
			if errors.Is(err, ports.ErrIdempotencyConflict) {
				return apierrors.ErrConflict.WithDetail("idempotency key already used with a different payload"), true
			}
			return apierrors.ProblemDetail{}, false
		},
		func(err error) (apierrors.ProblemDetail, bool) {
			switch ordersapp.Classify(err) {
			case ordersapp.KindNotFound:
				return apierrors.ErrNotFound.WithDetail(err.Error()), true
			case ordersapp.KindValidation:
				var ve validatorv10.ValidationErrors
				if errors.As(err, &ve) {
					return apierrors.NewValidationProblem(validation.Fields(err)).WithDetail(err.Error()), true
				}
				return apierrors.ErrValidation.WithDetail(err.Error()), true
			}
			return apierrors.ProblemDetail{}, false
		},
	}
}
