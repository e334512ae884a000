// Package jobs runs the durable background pipeline for the fulfillment
// service: the worker pool that drains the database-backed job queues, and
// the cron sweeps built on github.com/robfig/cron/v3.
//
// # Components
//
// 1. WorkerPool - leases due jobs per queue under FOR UPDATE SKIP LOCKED and
// dispatches them to the handler registered for the job type
// 2. TrackingSchedulerJob - periodically enqueues a tracking poll for every
// order currently out with a carrier
// 3. LeaseReclaimJob - returns jobs with expired leases to the pending state
// so work orphaned by a crashed worker is retried
//
// # Usage
//
// Components are managed through JobManager which provides a unified
// interface:
//
//	jobManager := jobs.NewJobManager(workerPool, trackingScheduler, leaseReclaim)
//
//	if err := jobManager.StartAll(); err != nil {
//		log.Fatal("Failed to start background jobs:", err)
//	}
//
//	defer jobManager.StopAll()
//
// # Outcomes
//
// A handler returning nil marks the job succeeded. A terminal error (unknown
// carrier, unbookable order, carrier 4xx) parks the job for manual review.
// Any other error schedules a retry with exponential backoff.
package jobs
