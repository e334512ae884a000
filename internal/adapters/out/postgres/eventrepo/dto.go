// Package eventrepo provides persistence for the two idempotency ledgers:
// processed webhook events and processed jobs.
package eventrepo

import "time"

// ProcessedEventDTO is the intake dedup record. The composite primary key
// (source, external_event_id) makes a second delivery of the same event a
// conflicting insert.
type ProcessedEventDTO struct {
	Source          string `gorm:"primaryKey"`
	ExternalEventID string `gorm:"primaryKey"`
	ProcessedAt     time.Time
}

// TableName specifies the database table name for processed events.
func (ProcessedEventDTO) TableName() string {
	return "processed_events"
}

// ProcessedJobDTO marks a job whose side effects have committed. Written in
// the same transaction as the job's final business mutation.
type ProcessedJobDTO struct {
	JobID       string `gorm:"primaryKey"`
	ProcessedAt time.Time
}

// TableName specifies the database table name for processed jobs.
func (ProcessedJobDTO) TableName() string {
	return "processed_jobs"
}
