// Package jobrepo provides data transfer objects and mapping functions for
// the durable job queue.
package jobrepo

import (
	"fmt"
	"time"

	"fulfillment/internal/core/domain/model/job"
)

// JobDTO represents the database structure for persisting queue jobs.
// The primary key is the producer-derived deterministic identifier; a
// conflicting insert means the same logical work was already enqueued.
type JobDTO struct {
	ID          string `gorm:"primaryKey"`
	Queue       string `gorm:"index:idx_jobs_due,priority:1"`
	JobType     string
	Payload     []byte `gorm:"type:jsonb"`
	Status      string `gorm:"index:idx_jobs_due,priority:2"`
	Attempts    int
	MaxAttempts int
	RunAt       time.Time `gorm:"index:idx_jobs_due,priority:3"`
	LeasedUntil *time.Time
	LastError   string
	CreatedAt   time.Time
}

// TableName specifies the database table name for queue jobs.
func (JobDTO) TableName() string {
	return "jobs"
}

// fromDomain converts a job to its database representation.
func fromDomain(j *job.Job) JobDTO {
	return JobDTO{
		ID:          j.ID(),
		Queue:       j.Queue(),
		JobType:     j.Type(),
		Payload:     j.Payload(),
		Status:      j.Status().String(),
		Attempts:    j.Attempts(),
		MaxAttempts: j.MaxAttempts(),
		RunAt:       j.RunAt(),
		LeasedUntil: j.LeasedUntil(),
		LastError:   j.LastError(),
		CreatedAt:   j.CreatedAt(),
	}
}

// toDomain converts a database row back to a job via RestoreJob.
func toDomain(dto JobDTO) (*job.Job, error) {
	status, err := statusFromString(dto.Status)
	if err != nil {
		return nil, err
	}

	return job.RestoreJob(
		dto.ID, dto.Queue, dto.JobType,
		dto.Payload,
		status,
		dto.Attempts, dto.MaxAttempts,
		dto.RunAt, dto.LeasedUntil,
		dto.LastError,
		dto.CreatedAt,
	)
}

func statusFromString(s string) (job.Status, error) {
	for _, status := range []job.Status{job.Pending, job.Running, job.Succeeded, job.Dead} {
		if status.String() == s {
			return status, nil
		}
	}
	return job.Unknown, fmt.Errorf("unknown job status %q", s)
}
