package orderrepo

import (
	"context"
	"errors"

	"fulfillment/internal/core/domain/model/kernel"
	"fulfillment/internal/core/domain/model/order"
	"fulfillment/internal/pkg/errs"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormOrderRepository implements OrderRepository using GORM.
type GormOrderRepository struct {
	db      *gorm.DB
	tracker aggregateTracker
}

// aggregateTracker defines the interface for tracking aggregates.
type aggregateTracker interface {
	TrackAggregate(id kernel.UUID, aggregate any)
}

// NewGormOrderRepository creates a new GORM order repository.
func NewGormOrderRepository(db *gorm.DB, tracker aggregateTracker) *GormOrderRepository {
	return &GormOrderRepository{
		db:      db,
		tracker: tracker,
	}
}

// Add saves a new order and its lines to the database.
func (r *GormOrderRepository) Add(ctx context.Context, aggregate *order.Order) error {
	if err := aggregate.Validate(); err != nil {
		return err
	}

	dto := fromDomain(aggregate)
	if err := r.db.WithContext(ctx).Create(&dto).Error; err != nil {
		return err
	}
	if err := r.saveItems(ctx, dto.Items); err != nil {
		return err
	}

	r.tracker.TrackAggregate(aggregate.ID(), aggregate)
	return nil
}

// Update saves an existing order, upserting its lines by their external item
// identifiers.
func (r *GormOrderRepository) Update(ctx context.Context, aggregate *order.Order) error {
	if err := aggregate.Validate(); err != nil {
		return err
	}

	dto := fromDomain(aggregate)
	result := r.db.WithContext(ctx).Model(&OrderDTO{}).Where("id = ?", dto.ID).
		Select("*").Omit("id").Updates(&dto)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}

	if err := r.saveItems(ctx, dto.Items); err != nil {
		return err
	}

	r.tracker.TrackAggregate(aggregate.ID(), aggregate)
	return nil
}

// Get retrieves an order with its lines by ID.
func (r *GormOrderRepository) Get(ctx context.Context, id kernel.UUID) (*order.Order, error) {
	return r.get(ctx, id, false)
}

// GetForUpdate retrieves an order holding its row lock until the surrounding
// transaction ends.
func (r *GormOrderRepository) GetForUpdate(ctx context.Context, id kernel.UUID) (*order.Order, error) {
	return r.get(ctx, id, true)
}

func (r *GormOrderRepository) get(ctx context.Context, id kernel.UUID, forUpdate bool) (*order.Order, error) {
	if err := id.Validate(); err != nil {
		return nil, err
	}

	tx := r.db.WithContext(ctx)
	if forUpdate {
		tx = tx.Clauses(clause.Locking{Strength: "UPDATE"})
	}

	var dto OrderDTO
	if err := tx.First(&dto, "id = ?", id.Bytes()).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errs.NewObjectNotFoundError("order", id.String())
		}
		return nil, err
	}

	items, err := r.loadItems(ctx, dto.ID)
	if err != nil {
		return nil, err
	}

	return toDomain(dto, items)
}

// GetByExternalID retrieves an order by its channel import idempotency key.
func (r *GormOrderRepository) GetByExternalID(
	ctx context.Context,
	orgID kernel.UUID,
	channel, externalOrderID string,
) (*order.Order, error) {
	if err := orgID.Validate(); err != nil {
		return nil, err
	}

	var dto OrderDTO
	err := r.db.WithContext(ctx).
		First(&dto, "org_id = ? AND channel = ? AND external_order_id = ?",
			orgID.Bytes(), channel, externalOrderID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errs.NewObjectNotFoundError("order", externalOrderID)
		}
		return nil, err
	}

	items, err := r.loadItems(ctx, dto.ID)
	if err != nil {
		return nil, err
	}

	return toDomain(dto, items)
}

// GetAllInStatus retrieves all orders currently in any of the given statuses.
func (r *GormOrderRepository) GetAllInStatus(ctx context.Context, statuses ...order.Status) ([]*order.Order, error) {
	names := make([]string, 0, len(statuses))
	for _, s := range statuses {
		names = append(names, s.String())
	}

	var dtos []OrderDTO
	if err := r.db.WithContext(ctx).Find(&dtos, "status IN ?", names).Error; err != nil {
		return nil, err
	}

	orders := make([]*order.Order, 0, len(dtos))
	for _, dto := range dtos {
		items, err := r.loadItems(ctx, dto.ID)
		if err != nil {
			return nil, err
		}

		o, err := toDomain(dto, items)
		if err != nil {
			return nil, err
		}
		orders = append(orders, o)
	}

	return orders, nil
}

// AppendTimelineEvent persists one audit record. Events are insert-only.
func (r *GormOrderRepository) AppendTimelineEvent(ctx context.Context, event *order.TimelineEvent) error {
	if err := event.Validate(); err != nil {
		return err
	}

	dto := eventFromDomain(event)
	return r.db.WithContext(ctx).Create(&dto).Error
}

func (r *GormOrderRepository) saveItems(ctx context.Context, items []ItemDTO) error {
	if len(items) == 0 {
		return nil
	}

	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "order_id"}, {Name: "external_item_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"quantity", "unit_price_cents"}),
	}).Create(&items).Error
}

func (r *GormOrderRepository) loadItems(ctx context.Context, orderID [16]byte) ([]ItemDTO, error) {
	var items []ItemDTO
	err := r.db.WithContext(ctx).
		Order("external_item_id").
		Find(&items, "order_id = ?", orderID).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}
