package eventrepo

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormProcessedEventRepository implements ProcessedEventRepository using GORM.
type GormProcessedEventRepository struct {
	db *gorm.DB
}

// NewGormProcessedEventRepository creates a new GORM processed event repository.
func NewGormProcessedEventRepository(db *gorm.DB) *GormProcessedEventRepository {
	return &GormProcessedEventRepository{db: db}
}

// Record writes the dedup row for the event. The insert rides on the
// composite primary key: a second delivery conflicts, writes nothing, and
// reports created=false.
func (r *GormProcessedEventRepository) Record(ctx context.Context, source, externalEventID string) (bool, error) {
	dto := ProcessedEventDTO{
		Source:          source,
		ExternalEventID: externalEventID,
		ProcessedAt:     time.Now().UTC(),
	}

	result := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "source"}, {Name: "external_event_id"}},
		DoNothing: true,
	}).Create(&dto)
	if result.Error != nil {
		return false, result.Error
	}

	return result.RowsAffected > 0, nil
}

// GormProcessedJobRepository implements ProcessedJobRepository using GORM.
type GormProcessedJobRepository struct {
	db *gorm.DB
}

// NewGormProcessedJobRepository creates a new GORM processed job repository.
func NewGormProcessedJobRepository(db *gorm.DB) *GormProcessedJobRepository {
	return &GormProcessedJobRepository{db: db}
}

// Exists reports whether the job's side effects have already committed.
func (r *GormProcessedJobRepository) Exists(ctx context.Context, jobID string) (bool, error) {
	var dto ProcessedJobDTO
	err := r.db.WithContext(ctx).First(&dto, "job_id = ?", jobID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}

	return true, nil
}

// Record marks the job's side effects as committed.
func (r *GormProcessedJobRepository) Record(ctx context.Context, jobID string) error {
	dto := ProcessedJobDTO{
		JobID:       jobID,
		ProcessedAt: time.Now().UTC(),
	}

	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "job_id"}},
		DoNothing: true,
	}).Create(&dto).Error
}
