// Package infra opens the process-wide dependencies every binary shares.
package infra

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/Apurer/order-lifecycle-service/internal/app/config"
	"github.com/Apurer/order-lifecycle-service/internal/domains/orders/adapters/memory"
	sqspublisher "github.com/Apurer/order-lifecycle-service/internal/domains/orders/adapters/messaging/sqs"
	orderspostgres "github.com/Apurer/order-lifecycle-service/internal/domains/orders/adapters/persistence/postgres"
	"github.com/Apurer/order-lifecycle-service/internal/domains/orders/ports"
	"github.com/Apurer/order-lifecycle-service/internal/platform/migrations"
	platformobservability "github.com/Apurer/order-lifecycle-service/internal/platform/observability"
	platformpostgres "github.com/Apurer/order-lifecycle-service/internal/platform/postgres"
)

// Infra is what a process needs before wiring its own components.
type Infra struct {
	Config      config.Config
	Instruments *platformobservability.Instruments
	Logger      *slog.Logger
	Store       ports.Store
	Idempotency ports.IdempotencyStore
	Events      ports.EventPublisher
	// Durable is false when Store is the in-memory fallback.
	Durable bool

	closers []func()
}

// Open initialises observability, the order store and the event publisher.
// Close must be called once the process is done.
func Open(ctx context.Context, cfg config.Config, serviceName string) (*Infra, error) {
	instruments, shutdown, err := platformobservability.Init(ctx, platformobservability.Settings{
		ServiceName:  serviceName,
		Environment:  cfg.Environment,
		LogLevel:     platformobservability.ParseLevel(cfg.LogLevel),
		OTLPEndpoint: cfg.OTLPEndpoint,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize observability: %w", err)
	}
	in := &Infra{Config: cfg, Instruments: instruments, Logger: instruments.Logger}
	in.closers = append(in.closers, func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdown(shutdownCtx); err != nil {
			instruments.Logger.Error("failed to shutdown observability", slog.String("error", err.Error()))
		}
	})

	if err := in.openStore(ctx); err != nil {
		in.Close()
		return nil, err
	}
	if err := in.openEvents(ctx); err != nil {
		in.Close()
		return nil, err
	}
	return in, nil
}

func (in *Infra) openStore(ctx context.Context) error {
	db, cleanup := platformpostgres.ConnectDSN(ctx, in.Config.PostgresDSN, in.Logger)
	in.closers = append(in.closers, cleanup)
	if db == nil {
		in.Store = memory.NewStore()
		in.Idempotency = memory.NewIdempotencyStore()
		return nil
	}
	if err := migrations.Run(db.WithContext(ctx)); err != nil {
		return fmt.Errorf("failed to migrate order schema: %w", err)
	}
	in.Store = orderspostgres.NewStore(db)
	in.Idempotency = orderspostgres.NewIdempotencyStore(db)
	in.Durable = true
	in.Logger.Info("order store configured with postgres")
	return nil
}

func (in *Infra) openEvents(ctx context.Context) error {
	if !in.Config.PublishEvents() {
		in.Events = ports.NopPublisher{}
		return nil
	}
	publisher, err := sqspublisher.NewFromRegion(ctx, in.Config.AWSRegion, in.Config.EventsQueueURL)
	if err != nil {
		return fmt.Errorf("failed to configure order events publisher: %w", err)
	}
	in.Events = publisher
	in.Logger.Info("order status events enabled", slog.String("queueUrl", in.Config.EventsQueueURL))
	return nil
}

// Close releases resources in reverse opening order.
func (in *Infra) Close() {
	for i := len(in.closers) - 1; i >= 0; i-- {
		in.closers[i]()
	}
	in.closers = nil
}
