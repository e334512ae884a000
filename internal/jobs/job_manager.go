package jobs

import (
	"fmt"
)

// JobManager coordinates the worker pool and the scheduled sweeps.
// Provides a unified interface to start and stop all background processing.
type JobManager struct {
	workerPool        *WorkerPool
	trackingScheduler *TrackingSchedulerJob
	leaseReclaim      *LeaseReclaimJob
}

// NewJobManager creates a manager over an already wired pool and sweeps.
func NewJobManager(
	workerPool *WorkerPool,
	trackingScheduler *TrackingSchedulerJob,
	leaseReclaim *LeaseReclaimJob,
) *JobManager {
	return &JobManager{
		workerPool:        workerPool,
		trackingScheduler: trackingScheduler,
		leaseReclaim:      leaseReclaim,
	}
}

// StartAll starts the worker pool and the scheduled sweeps.
// Returns an error if any component fails to start.
func (jm *JobManager) StartAll() error {
	jm.workerPool.Start()

	if err := jm.trackingScheduler.Start(); err != nil {
		// Stop already started components if this one fails
		jm.workerPool.Stop()
		return fmt.Errorf("failed to start tracking scheduler: %w", err)
	}

	if err := jm.leaseReclaim.Start(); err != nil {
		jm.trackingScheduler.Stop()
		jm.workerPool.Stop()
		return fmt.Errorf("failed to start lease reclaim: %w", err)
	}

	return nil
}

// StopAll stops all background processing gracefully. Sweeps stop first so
// nothing new is enqueued or reclaimed while workers drain.
func (jm *JobManager) StopAll() {
	jm.leaseReclaim.Stop()
	jm.trackingScheduler.Stop()
	jm.workerPool.Stop()
}
