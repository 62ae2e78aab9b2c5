package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/Apurer/order-lifecycle-service/internal/app/config"
	"github.com/Apurer/order-lifecycle-service/internal/app/worker"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("invalid configuration: %v", err)
	}
	if err := worker.Run(ctx, cfg); err != nil {
		log.Fatalf("order worker exited: %v", err)
	}
}
