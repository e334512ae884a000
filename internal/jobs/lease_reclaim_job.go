package jobs

import (
	"context"
	"log/slog"

	"fulfillment/internal/core/ports"

	"github.com/robfig/cron/v3"
)

// LeaseReclaimJob periodically returns jobs with expired leases to the
// pending state. A worker that crashed mid-execution leaves its job Running
// with a stale lease; this sweep is what makes such jobs runnable again.
type LeaseReclaimJob struct {
	uowFactory ports.UnitOfWorkFactory
	queues     []string
	schedule   string
	cron       *cron.Cron
	logger     *slog.Logger
}

// NewLeaseReclaimJob creates the reclaim sweep over the given queues.
func NewLeaseReclaimJob(uowFactory ports.UnitOfWorkFactory, queues []string, schedule string, logger *slog.Logger) *LeaseReclaimJob {
	return &LeaseReclaimJob{
		uowFactory: uowFactory,
		queues:     queues,
		schedule:   schedule,
		cron:       cron.New(cron.WithSeconds()),
		logger:     logger.With("component", "lease_reclaim_job"),
	}
}

// Start begins the periodic sweep.
func (j *LeaseReclaimJob) Start() error {
	_, err := j.cron.AddFunc(j.schedule, func() {
		ctx := context.Background()
		if err := j.sweep(ctx); err != nil {
			j.logger.ErrorContext(ctx, "Lease reclaim sweep failed", "error", err)
		}
	})
	if err != nil {
		return err
	}

	j.cron.Start()
	j.logger.InfoContext(context.Background(), "Lease reclaim started", "schedule", j.schedule)
	return nil
}

// Stop stops the sweep.
func (j *LeaseReclaimJob) Stop() {
	j.cron.Stop()
	j.logger.InfoContext(context.Background(), "Lease reclaim stopped")
}

func (j *LeaseReclaimJob) sweep(ctx context.Context) error {
	uow := j.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return err
	}

	defer func() {
		_ = uow.Rollback(ctx)
	}()

	for _, queue := range j.queues {
		reclaimed, err := uow.JobRepository().ReclaimExpired(ctx, queue)
		if err != nil {
			return err
		}
		if reclaimed > 0 {
			j.logger.WarnContext(ctx, "Expired leases reclaimed", "queue", queue, "count", reclaimed)
		}
	}

	return uow.Commit(ctx)
}
