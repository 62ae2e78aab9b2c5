package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"go.temporal.io/sdk/worker"

	"github.com/Apurer/order-lifecycle-service/internal/app/config"
	"github.com/Apurer/order-lifecycle-service/internal/app/infra"
	ordersapp "github.com/Apurer/order-lifecycle-service/internal/domains/orders/application"
	activitiesorders "github.com/Apurer/order-lifecycle-service/internal/platform/temporal/activities/orders"
	temporalclient "github.com/Apurer/order-lifecycle-service/internal/platform/temporal/client"
	workflowsorders "github.com/Apurer/order-lifecycle-service/internal/platform/temporal/workflows/orders"
)

const serviceName = "order-lifecycle-worker"

// Run hosts the order workflow and its activities until ctx is cancelled.
func Run(ctx context.Context, cfg config.Config) error {
	if cfg.TemporalDisabled {
		return errors.New("the order worker needs Temporal; unset TEMPORAL_DISABLED")
	}
	in, err := infra.Open(ctx, cfg, serviceName)
	if err != nil {
		return err
	}
	defer in.Close()
	logger := in.Logger
	if !in.Durable {
		logger.Warn("order worker running against the in-memory store; state is lost on restart")
	}

	c, err := temporalclient.Dial(temporalclient.Settings{
		Address:   cfg.TemporalAddress,
		Namespace: cfg.TemporalNamespace,
		Logger:    in.Instruments.Component("temporal-worker"),
		Tracer:    in.Instruments.Tracer("temporal-worker"),
	})
	if err != nil {
		return err
	}
	defer c.Close()

	catalog := ordersapp.NewActivities(in.Store, ordersapp.WithEventPublisher(in.Events))
	w := worker.New(c, cfg.TaskQueue, worker.Options{})
	workflowsorders.Register(w)
	activitiesorders.Register(w, activitiesorders.NewActivities(catalog))

	if err := w.Start(); err != nil {
		return fmt.Errorf("start order worker: %w", err)
	}
	logger.Info("worker listening", slog.String("taskQueue", cfg.TaskQueue), slog.String("namespace", cfg.TemporalNamespace))
	<-ctx.Done()
	w.Stop()
	logger.Info("Temporal worker stopped")
	return nil
}
