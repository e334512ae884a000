package jobrepo

import (
	"context"
	"errors"
	"time"

	"fulfillment/internal/core/domain/model/job"
	"fulfillment/internal/pkg/errs"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormJobRepository implements JobRepository using GORM.
type GormJobRepository struct {
	db *gorm.DB
}

// NewGormJobRepository creates a new GORM job repository.
func NewGormJobRepository(db *gorm.DB) *GormJobRepository {
	return &GormJobRepository{db: db}
}

// Enqueue inserts the job unless its deterministic id already exists, in
// which case nothing is written and (nil, nil) is returned. The conflict
// check rides on the primary key, so concurrent duplicate producers race
// safely.
func (r *GormJobRepository) Enqueue(ctx context.Context, j *job.Job) (*job.Job, error) {
	if err := j.Validate(); err != nil {
		return nil, err
	}

	dto := fromDomain(j)
	result := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoNothing: true,
	}).Create(&dto)
	if result.Error != nil {
		return nil, result.Error
	}
	if result.RowsAffected == 0 {
		return nil, nil
	}

	return j, nil
}

// LeaseNextDue claims the next due pending job on the queue for leaseFor.
// FOR UPDATE SKIP LOCKED lets concurrent workers lease distinct jobs without
// blocking each other; the row is moved to running and the lease persisted
// before the surrounding transaction commits.
func (r *GormJobRepository) LeaseNextDue(ctx context.Context, queue string, leaseFor time.Duration) (*job.Job, error) {
	now := time.Now().UTC()

	var dto JobDTO
	err := r.db.WithContext(ctx).Raw(`
		SELECT
			id, queue, job_type, payload, status,
			attempts, max_attempts, run_at, leased_until, last_error, created_at
		FROM jobs
		WHERE queue = ? AND status = ? AND run_at <= ?
		ORDER BY run_at
		LIMIT 1
		FOR UPDATE SKIP LOCKED
	`, queue, job.Pending.String(), now).Scan(&dto).Error
	if err != nil {
		return nil, err
	}
	if dto.ID == "" {
		return nil, nil
	}

	j, err := toDomain(dto)
	if err != nil {
		return nil, err
	}
	if err = j.Lease(now, leaseFor); err != nil {
		return nil, err
	}
	if err = r.Update(ctx, j); err != nil {
		return nil, err
	}

	return j, nil
}

// Update persists a job's state after an execution attempt.
func (r *GormJobRepository) Update(ctx context.Context, j *job.Job) error {
	if err := j.Validate(); err != nil {
		return err
	}

	dto := fromDomain(j)
	result := r.db.WithContext(ctx).Model(&JobDTO{}).Where("id = ?", dto.ID).
		Select("status", "attempts", "run_at", "leased_until", "last_error").Updates(&dto)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}

	return nil
}

// Get retrieves a job by its deterministic identifier.
func (r *GormJobRepository) Get(ctx context.Context, id string) (*job.Job, error) {
	var dto JobDTO
	if err := r.db.WithContext(ctx).First(&dto, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errs.NewObjectNotFoundError("job", id)
		}
		return nil, err
	}

	return toDomain(dto)
}

// ReclaimExpired returns running jobs with expired leases to pending.
// The attempt consumed by the dead worker stays counted; the processed-job
// record protects the re-run from double effects.
func (r *GormJobRepository) ReclaimExpired(ctx context.Context, queue string) (int, error) {
	now := time.Now().UTC()

	result := r.db.WithContext(ctx).Model(&JobDTO{}).
		Where("queue = ? AND status = ? AND leased_until IS NOT NULL AND leased_until < ?",
			queue, job.Running.String(), now).
		Updates(map[string]any{
			"status":       job.Pending.String(),
			"leased_until": nil,
			"run_at":       now,
		})
	if result.Error != nil {
		return 0, result.Error
	}

	return int(result.RowsAffected), nil
}
