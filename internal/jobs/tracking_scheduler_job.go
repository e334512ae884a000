package jobs

import (
	"context"
	"log/slog"
	"time"

	"fulfillment/internal/core/application/usecases/commands"
	"fulfillment/internal/core/domain/model/order"
	"fulfillment/internal/core/ports"

	"github.com/robfig/cron/v3"
)

// trackingWindow formats the scheduling window a poll belongs to. Jobs for
// the same order within one window share a deterministic id, so overlapping
// scheduler runs enqueue the poll once.
const trackingWindowLayout = "2006-01-02T15:04"

// TrackingSchedulerJob periodically sweeps orders that are out with a
// carrier and enqueues a tracking poll for each.
type TrackingSchedulerJob struct {
	uowFactory ports.UnitOfWorkFactory
	schedule   string
	cron       *cron.Cron
	logger     *slog.Logger
}

// NewTrackingSchedulerJob creates the tracking sweep. schedule is a cron
// expression with seconds, e.g. "0 */5 * * * *" for every five minutes.
func NewTrackingSchedulerJob(uowFactory ports.UnitOfWorkFactory, schedule string, logger *slog.Logger) *TrackingSchedulerJob {
	return &TrackingSchedulerJob{
		uowFactory: uowFactory,
		schedule:   schedule,
		cron:       cron.New(cron.WithSeconds()),
		logger:     logger.With("component", "tracking_scheduler_job"),
	}
}

// Start begins the periodic sweep.
func (j *TrackingSchedulerJob) Start() error {
	_, err := j.cron.AddFunc(j.schedule, func() {
		ctx := context.Background()
		if err := j.sweep(ctx); err != nil {
			j.logger.ErrorContext(ctx, "Tracking sweep failed", "error", err)
		}
	})
	if err != nil {
		return err
	}

	j.cron.Start()
	j.logger.InfoContext(context.Background(), "Tracking scheduler started", "schedule", j.schedule)
	return nil
}

// Stop stops the sweep.
func (j *TrackingSchedulerJob) Stop() {
	j.cron.Stop()
	j.logger.InfoContext(context.Background(), "Tracking scheduler stopped")
}

// sweep enqueues one poll per in-carriage order for the current window.
func (j *TrackingSchedulerJob) sweep(ctx context.Context) error {
	window := time.Now().UTC().Format(trackingWindowLayout)

	uow := j.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return err
	}

	defer func() {
		_ = uow.Rollback(ctx)
	}()

	orders, err := uow.OrderRepository().GetAllInStatus(ctx,
		order.LabelCreated, order.PickedUp, order.InTransit, order.OutForDelivery)
	if err != nil {
		return err
	}

	var enqueued int
	for _, o := range orders {
		if o.TrackingNumber() == "" {
			continue
		}

		trackingJob, jobErr := commands.NewTrackingJob(o.ID(), window)
		if jobErr != nil {
			return jobErr
		}

		created, enqErr := uow.JobRepository().Enqueue(ctx, trackingJob)
		if enqErr != nil {
			return enqErr
		}
		if created != nil {
			enqueued++
		}
	}

	if err = uow.Commit(ctx); err != nil {
		return err
	}

	if enqueued > 0 {
		j.logger.InfoContext(ctx, "Tracking polls enqueued", "count", enqueued, "window", window)
	}
	return nil
}
