// Package job provides the durable work queue's domain model.
//
// Jobs are persistent, retryable units of work with deterministic
// identifiers: the producer derives the id from the triggering event, so
// re-enqueueing the same logical work is a no-op. Delivery is at-least-once;
// exactly-once effects come from the handler-side processed-job record, not
// from the queue.
package job
