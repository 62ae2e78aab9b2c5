package api

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/Apurer/order-lifecycle-service/internal/app/config"
	"github.com/Apurer/order-lifecycle-service/internal/app/infra"
	"github.com/Apurer/order-lifecycle-service/internal/domains/orders/adapters/http/handlers"
	ordersobs "github.com/Apurer/order-lifecycle-service/internal/domains/orders/adapters/observability"
	orderworkflows "github.com/Apurer/order-lifecycle-service/internal/domains/orders/adapters/workflows"
	ordersapp "github.com/Apurer/order-lifecycle-service/internal/domains/orders/application"
	"github.com/Apurer/order-lifecycle-service/internal/domains/orders/ports"
	"github.com/Apurer/order-lifecycle-service/internal/jobs"
	temporalclient "github.com/Apurer/order-lifecycle-service/internal/platform/temporal/client"
)

const serviceName = "order-lifecycle-api"

// Run boots the order HTTP API and blocks until ctx is cancelled or the
// server fails.
func Run(ctx context.Context, cfg config.Config) error {
	in, err := infra.Open(ctx, cfg, serviceName)
	if err != nil {
		return err
	}
	defer in.Close()
	logger := in.Logger

	service := ordersobs.New(
		ordersapp.NewService(in.Store,
			ordersapp.WithWindowDays(cfg.DeliveryWindowDays),
			ordersapp.WithIdempotencyStore(in.Idempotency),
		),
		ordersobs.WithLogger(in.Instruments.Component("orders.service")),
		ordersobs.WithTracer(in.Instruments.Tracer("internal.orders.application")),
		ordersobs.WithMeter(in.Instruments.Meter("internal.orders.application")),
	)

	workflows, stopWorkflows, err := buildWorkflows(in)
	if err != nil {
		return err
	}
	defer stopWorkflows()

	router := NewRouter(service, workflows, logger)
	server := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	serveErr := make(chan error, 1)
	go func() {
		logger.Info("order API listening", slog.String("addr", server.Addr))
		serveErr <- server.ListenAndServe()
	}()

	select {
	case err := <-serveErr:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		logger.Error("order API server exited", slog.String("addr", server.Addr), slog.String("error", err.Error()))
		return err
	case <-ctx.Done():
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown order API: %w", err)
	}
	logger.Info("order API stopped")
	return nil
}

// NewRouter mounts the order routes behind recovery and tracing middleware.
func NewRouter(service ports.Service, workflows ports.WorkflowOrchestrator, logger *slog.Logger) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery(), otelgin.Middleware(serviceName))
	router.GET("/healthz", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"status": "ok"}) })
	handlers.NewOrderAPI(service, workflows, logger).RegisterRoutes(router)
	return router
}

// buildWorkflows prefers Temporal and falls back to in-process instances,
// which need the fulfillment sweep in place of workflow timers.
func buildWorkflows(in *infra.Infra) (ports.WorkflowOrchestrator, func(), error) {
	cfg := in.Config
	logger := in.Logger
	if !cfg.TemporalDisabled {
		c, err := temporalclient.Dial(temporalclient.Settings{
			Address:   cfg.TemporalAddress,
			Namespace: cfg.TemporalNamespace,
			Logger:    in.Instruments.Component("temporal-client"),
			Tracer:    in.Instruments.Tracer("temporal-client"),
		})
		if err == nil {
			logger.Info("Temporal workflows enabled",
				slog.String("namespace", cfg.TemporalNamespace), slog.String("taskQueue", cfg.TaskQueue))
			return orderworkflows.NewTemporalOrderWorkflows(c, cfg.TaskQueue), c.Close, nil
		}
		logger.Warn("Temporal workflows unavailable, running order instances inline", slog.String("error", err.Error()))
	}

	activities := ordersapp.NewActivities(in.Store, ordersapp.WithEventPublisher(in.Events))
	inline := orderworkflows.NewInlineOrderWorkflows(activities, in.Store,
		orderworkflows.WithInlineLogger(in.Instruments.Component("orders.inline")))
	sweep := jobs.NewDeliverySweepJob(inline, cfg.DeliverySweepSchedule, logger)
	if err := sweep.Start(); err != nil {
		return nil, nil, err
	}
	return inline, sweep.Stop, nil
}
