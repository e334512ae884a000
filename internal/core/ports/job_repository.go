package ports

import (
	"context"
	"time"

	"fulfillment/internal/core/domain/model/job"
)

// JobRepository defines the persistence contract for the durable work queue.
type JobRepository interface {
	// Enqueue persists a new job. When a job with the same id already exists
	// the call is a no-op returning (nil, nil); idempotent producers rely
	// on this.
	Enqueue(ctx context.Context, j *job.Job) (*job.Job, error)

	// LeaseNextDue atomically claims the next due pending job on the queue
	// for leaseFor, skipping jobs locked by concurrent workers.
	// Returns (nil, nil) when no job is due.
	LeaseNextDue(ctx context.Context, queue string, leaseFor time.Duration) (*job.Job, error)

	// Update persists a job's state after an execution attempt.
	Update(ctx context.Context, j *job.Job) error

	// Get retrieves a job by its deterministic identifier.
	Get(ctx context.Context, id string) (*job.Job, error)

	// ReclaimExpired returns running jobs whose lease deadline has passed to
	// pending, making work abandoned by dead workers runnable again.
	// Returns the number of reclaimed jobs.
	ReclaimExpired(ctx context.Context, queue string) (int, error)
}
