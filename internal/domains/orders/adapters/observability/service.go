package observability

import (
	"context"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	nooptrace "go.opentelemetry.io/otel/trace/noop"

	ordersapp "github.com/Apurer/order-lifecycle-service/internal/domains/orders/application"
	orderstypes "github.com/Apurer/order-lifecycle-service/internal/domains/orders/application/types"
	"github.com/Apurer/order-lifecycle-service/internal/domains/orders/ports"
)

const tracerName = "github.com/Apurer/order-lifecycle-service/internal/domains/orders/adapters/observability/service"

// Service decorates the orders service with tracing, logging and metrics.
type Service struct {
	inner   ports.Service
	tracer  trace.Tracer
	logger  *slog.Logger
	metrics serviceMetrics
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func WithTracer(tr trace.Tracer) Option {
	return func(s *Service) {
		s.tracer = tr
	}
}

func WithMeter(m metric.Meter) Option {
	return func(s *Service) {
		s.metrics = newServiceMetrics(m)
	}
}

// New wraps the core orders service.
func New(inner ports.Service, opts ...Option) ports.Service {
	s := &Service{
		inner:   inner,
		tracer:  nooptrace.NewTracerProvider().Tracer(tracerName),
		metrics: newServiceMetrics(nil),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	if s.tracer == nil {
		s.tracer = nooptrace.NewTracerProvider().Tracer(tracerName)
	}
	return s
}

func (s *Service) CreateOrder(ctx context.Context, input orderstypes.CreateOrderInput) (*orderstypes.OrderProjection, error) {
	ctx, span := s.tracer.Start(ctx, "OrdersService.CreateOrder",
		trace.WithAttributes(attribute.String("order.client", input.ClientUsername), attribute.Int("order.lines", len(input.Items))))
	defer span.End()

	s.logInfo(ctx, "creating order", slog.String("order.client", input.ClientUsername), slog.Int("order.lines", len(input.Items)))
	result, err := s.inner.CreateOrder(ctx, input)
	s.metrics.record(ctx, "CreateOrder", err)
	if err != nil {
		return nil, s.handleError(ctx, span, err, "failed to create order", slog.String("order.client", input.ClientUsername))
	}
	span.SetAttributes(attribute.Int64("order.id", result.Entity.ID))
	s.logInfo(ctx, "order created", slog.Int64("order.id", result.Entity.ID), slog.String("order.number", result.Entity.OrderNumber))
	return result, nil
}

func (s *Service) GetOrder(ctx context.Context, id int64) (*orderstypes.OrderProjection, error) {
	ctx, span := s.tracer.Start(ctx, "OrdersService.GetOrder", trace.WithAttributes(attribute.Int64("order.id", id)))
	defer span.End()

	result, err := s.inner.GetOrder(ctx, id)
	s.metrics.record(ctx, "GetOrder", err)
	if err != nil {
		return nil, s.handleError(ctx, span, err, "failed to load order", slog.Int64("order.id", id))
	}
	span.SetAttributes(attribute.String("order.status", string(result.Entity.Status)))
	return result, nil
}

func (s *Service) ListClientOrders(ctx context.Context, clientUsername string, input orderstypes.ListOrdersInput) (*orderstypes.OrderPage, error) {
	ctx, span := s.tracer.Start(ctx, "OrdersService.ListClientOrders",
		trace.WithAttributes(attribute.String("order.client", clientUsername), attribute.Int("page.number", input.Page)))
	defer span.End()

	result, err := s.inner.ListClientOrders(ctx, clientUsername, input)
	s.metrics.record(ctx, "ListClientOrders", err)
	if err != nil {
		return nil, s.handleError(ctx, span, err, "failed to list client orders", slog.String("order.client", clientUsername))
	}
	span.SetAttributes(attribute.Int64("page.total", result.TotalElements))
	return result, nil
}

func (s *Service) ListOrders(ctx context.Context, input orderstypes.ListOrdersInput) (*orderstypes.OrderPage, error) {
	ctx, span := s.tracer.Start(ctx, "OrdersService.ListOrders",
		trace.WithAttributes(attribute.String("order.status", string(input.Status)), attribute.Int("page.number", input.Page)))
	defer span.End()

	result, err := s.inner.ListOrders(ctx, input)
	s.metrics.record(ctx, "ListOrders", err)
	if err != nil {
		return nil, s.handleError(ctx, span, err, "failed to list orders", slog.String("order.status", string(input.Status)))
	}
	span.SetAttributes(attribute.Int64("page.total", result.TotalElements))
	return result, nil
}

func (s *Service) AvailableDeliveryDates(ctx context.Context, input orderstypes.AvailableDatesInput) ([]time.Time, error) {
	ctx, span := s.tracer.Start(ctx, "OrdersService.AvailableDeliveryDates",
		trace.WithAttributes(attribute.Int64("order.id", input.OrderID), attribute.Int("window.days", input.Days)))
	defer span.End()

	result, err := s.inner.AvailableDeliveryDates(ctx, input)
	s.metrics.record(ctx, "AvailableDeliveryDates", err)
	if err != nil {
		return nil, s.handleError(ctx, span, err, "failed to search delivery dates", slog.Int64("order.id", input.OrderID))
	}
	span.SetAttributes(attribute.Int("dates.count", len(result)))
	s.logInfo(ctx, "delivery dates found", slog.Int64("order.id", input.OrderID), slog.Int("dates.count", len(result)))
	return result, nil
}

func (s *Service) logInfo(ctx context.Context, msg string, attrs ...slog.Attr) {
	if s.logger == nil {
		return
	}
	s.logger.LogAttrs(ctx, slog.LevelInfo, msg, attrs...)
}

func (s *Service) handleError(ctx context.Context, span trace.Span, err error, msg string, attrs ...slog.Attr) error {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	if s.logger == nil {
		return err
	}
	// Validation and not-found failures log at warn.
	level := slog.LevelError
	if ordersapp.Classify(err) != ordersapp.KindTransient {
		level = slog.LevelWarn
	}
	attrs = append(attrs, slog.String("error", err.Error()), slog.String("kind", ordersapp.Classify(err).String()))
	s.logger.LogAttrs(ctx, level, msg, attrs...)
	return err
}

type serviceMetrics struct {
	requests metric.Int64Counter
	errors   metric.Int64Counter
}

func newServiceMetrics(m metric.Meter) serviceMetrics {
	if m == nil {
		return serviceMetrics{}
	}
	requests, _ := m.Int64Counter("orders.service.requests", metric.WithDescription("Number of orders service calls"))
	errs, _ := m.Int64Counter("orders.service.errors", metric.WithDescription("Number of failed orders service calls"))
	return serviceMetrics{requests: requests, errors: errs}
}

func (m serviceMetrics) record(ctx context.Context, operation string, err error) {
	attrs := metric.WithAttributes(attribute.String("operation", operation))
	if m.requests != nil {
		m.requests.Add(ctx, 1, attrs)
	}
	if err != nil && m.errors != nil {
		m.errors.Add(ctx, 1, metric.WithAttributes(
			attribute.String("operation", operation),
			attribute.String("kind", ordersapp.Classify(err).String()),
		))
	}
}

var _ ports.Service = (*Service)(nil)
