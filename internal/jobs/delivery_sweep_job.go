package jobs

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"
)

// DefaultSweepSchedule fires at 00:01 UTC every day.
const DefaultSweepSchedule = "0 1 0 * * *"

// FulfillmentSweeper delivers the deliveryDue event to every order whose
// scheduled date has arrived.
type FulfillmentSweeper interface {
	FulfillDue(ctx context.Context) (int, error)
}

// DeliverySweepJob runs the fulfillment sweep on a cron schedule. It stands in
// for the workflow timer when orders run without Temporal.
type DeliverySweepJob struct {
	sweeper  FulfillmentSweeper
	cron     *cron.Cron
	schedule string
	timeout  time.Duration
	logger   *slog.Logger
}

// NewDeliverySweepJob builds the job. An empty schedule uses DefaultSweepSchedule.
func NewDeliverySweepJob(sweeper FulfillmentSweeper, schedule string, logger *slog.Logger) *DeliverySweepJob {
	if schedule == "" {
		schedule = DefaultSweepSchedule
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &DeliverySweepJob{
		sweeper:  sweeper,
		cron:     cron.New(cron.WithSeconds(), cron.WithLocation(time.UTC)),
		schedule: schedule,
		timeout:  5 * time.Minute,
		logger:   logger.With("component", "delivery_sweep_job"),
	}
}

// Start registers the sweep and starts the scheduler.
func (j *DeliverySweepJob) Start() error {
	if _, err := j.cron.AddFunc(j.schedule, func() {
		ctx, cancel := context.WithTimeout(context.Background(), j.timeout)
		defer cancel()
		_, _ = j.RunOnce(ctx)
	}); err != nil {
		return fmt.Errorf("invalid delivery sweep schedule %q: %w", j.schedule, err)
	}
	j.cron.Start()
	j.logger.Info("delivery sweep job started", "schedule", j.schedule)
	return nil
}

// Stop halts the scheduler and waits for a running sweep to return.
func (j *DeliverySweepJob) Stop() {
	<-j.cron.Stop().Done()
	j.logger.Info("delivery sweep job stopped")
}

// RunOnce performs a single sweep.
func (j *DeliverySweepJob) RunOnce(ctx context.Context) (int, error) {
	fulfilled, err := j.sweeper.FulfillDue(ctx)
	if err != nil {
		j.logger.ErrorContext(ctx, "delivery sweep failed", "fulfilled", fulfilled, "error", err)
		return fulfilled, err
	}
	j.logger.InfoContext(ctx, "delivery sweep completed", "fulfilled", fulfilled)
	return fulfilled, nil
}
