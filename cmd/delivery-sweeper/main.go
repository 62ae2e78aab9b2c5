package main

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/Apurer/order-lifecycle-service/internal/app/config"
	"github.com/Apurer/order-lifecycle-service/internal/app/infra"
	orderworkflows "github.com/Apurer/order-lifecycle-service/internal/domains/orders/adapters/workflows"
	ordersapp "github.com/Apurer/order-lifecycle-service/internal/domains/orders/application"
	"github.com/Apurer/order-lifecycle-service/internal/jobs"
)

func main() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("invalid configuration: %v", err)
	}
	if !cfg.TemporalDisabled {
		log.Printf("Temporal is enabled; workflow timers fulfil deliveries, nothing to sweep")
		return
	}
	if err := sweep(ctx, cfg); err != nil {
		log.Fatalf("delivery sweep failed: %v", err)
	}
	log.Printf("delivery sweep completed")
}

func sweep(ctx context.Context, cfg config.Config) error {
	in, err := infra.Open(ctx, cfg, "order-delivery-sweeper")
	if err != nil {
		return err
	}
	defer in.Close()
	if !in.Durable {
		return errors.New("POSTGRES_DSN not set or connection failed; cannot sweep deliveries")
	}

	activities := ordersapp.NewActivities(in.Store, ordersapp.WithEventPublisher(in.Events))
	inline := orderworkflows.NewInlineOrderWorkflows(activities, in.Store,
		orderworkflows.WithInlineLogger(in.Instruments.Component("orders.inline")))
	_, err = jobs.NewDeliverySweepJob(inline, cfg.DeliverySweepSchedule, in.Logger).RunOnce(ctx)
	return err
}
