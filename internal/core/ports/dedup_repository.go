package ports

import "context"

// ProcessedEventRepository records externally delivered events at intake.
// A row is written once, before any side effect, making redundant deliveries
// of the same (source, external event id) pair detectable and harmless.
type ProcessedEventRepository interface {
	// Record writes the dedup row for the event. Returns false when the event
	// was already recorded, in which case the caller must not enqueue work.
	Record(ctx context.Context, source, externalEventID string) (bool, error)
}

// ProcessedJobRepository records completed job executions. The record is
// written in the same transaction as the job's final business mutation, so a
// re-delivered job can short-circuit instead of re-applying its effects.
type ProcessedJobRepository interface {
	// Exists reports whether the job's side effects have already committed.
	Exists(ctx context.Context, jobID string) (bool, error)

	// Record marks the job's side effects as committed.
	Record(ctx context.Context, jobID string) error
}
