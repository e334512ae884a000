package inventoryrepo

import (
	"context"
	"errors"
	"sort"

	"fulfillment/internal/core/domain/model/inventory"
	"fulfillment/internal/core/domain/model/kernel"
	"fulfillment/internal/pkg/errs"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormInventoryRepository implements InventoryRepository using GORM.
// All counter mutations go through FOR UPDATE row locks acquired by the
// Get*ForUpdate methods; the no-oversell guarantee rests on that
// serialization plus the domain invariant 0 <= reserved <= on hand.
type GormInventoryRepository struct {
	db      *gorm.DB
	tracker aggregateTracker
}

// aggregateTracker defines the interface for tracking aggregates.
type aggregateTracker interface {
	TrackAggregate(id kernel.UUID, aggregate any)
}

// NewGormInventoryRepository creates a new GORM inventory repository.
func NewGormInventoryRepository(db *gorm.DB, tracker aggregateTracker) *GormInventoryRepository {
	return &GormInventoryRepository{
		db:      db,
		tracker: tracker,
	}
}

// AddSKU saves a new SKU to the database.
func (r *GormInventoryRepository) AddSKU(ctx context.Context, sku *inventory.SKU) error {
	if err := sku.Validate(); err != nil {
		return err
	}

	dto := skuFromDomain(sku)
	if err := r.db.WithContext(ctx).Create(&dto).Error; err != nil {
		return err
	}

	r.tracker.TrackAggregate(sku.ID(), sku)
	return nil
}

// UpdateSKU saves a SKU's counters to the database.
func (r *GormInventoryRepository) UpdateSKU(ctx context.Context, sku *inventory.SKU) error {
	if err := sku.Validate(); err != nil {
		return err
	}

	dto := skuFromDomain(sku)
	result := r.db.WithContext(ctx).Model(&SKUDTO{}).Where("id = ?", dto.ID).
		Select("*").Omit("id").Updates(&dto)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}

	r.tracker.TrackAggregate(sku.ID(), sku)
	return nil
}

// GetSKU retrieves a SKU by ID.
func (r *GormInventoryRepository) GetSKU(ctx context.Context, id kernel.UUID) (*inventory.SKU, error) {
	return r.getSKU(ctx, id, false)
}

// GetSKUForUpdate retrieves a SKU holding its row lock until the surrounding
// transaction ends.
func (r *GormInventoryRepository) GetSKUForUpdate(ctx context.Context, id kernel.UUID) (*inventory.SKU, error) {
	return r.getSKU(ctx, id, true)
}

func (r *GormInventoryRepository) getSKU(ctx context.Context, id kernel.UUID, forUpdate bool) (*inventory.SKU, error) {
	if err := id.Validate(); err != nil {
		return nil, err
	}

	tx := r.db.WithContext(ctx)
	if forUpdate {
		tx = tx.Clauses(clause.Locking{Strength: "UPDATE"})
	}

	var dto SKUDTO
	if err := tx.First(&dto, "id = ?", id.Bytes()).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errs.NewObjectNotFoundError("sku", id.String())
		}
		return nil, err
	}

	return skuToDomain(dto)
}

// GetSKUByCode retrieves a SKU by its organization-scoped code.
func (r *GormInventoryRepository) GetSKUByCode(ctx context.Context, orgID kernel.UUID, code string) (*inventory.SKU, error) {
	if err := orgID.Validate(); err != nil {
		return nil, err
	}

	var dto SKUDTO
	err := r.db.WithContext(ctx).First(&dto, "org_id = ? AND code = ?", orgID.Bytes(), code).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errs.NewObjectNotFoundError("sku", code)
		}
		return nil, err
	}

	return skuToDomain(dto)
}

// GetSKUsForUpdate retrieves several SKUs under row locks. Rows are locked in
// ascending id order so two concurrent multi-SKU reservations that overlap
// always contend on the lowest shared id first instead of deadlocking.
func (r *GormInventoryRepository) GetSKUsForUpdate(
	ctx context.Context,
	ids []kernel.UUID,
) (map[kernel.UUID]*inventory.SKU, error) {
	rawIDs := make([]uuid.UUID, 0, len(ids))
	for _, id := range ids {
		if err := id.Validate(); err != nil {
			return nil, err
		}
		rawIDs = append(rawIDs, id.Bytes())
	}
	sort.Slice(rawIDs, func(i, j int) bool {
		return rawIDs[i].String() < rawIDs[j].String()
	})

	skus := make(map[kernel.UUID]*inventory.SKU, len(ids))
	for _, rawID := range rawIDs {
		var dto SKUDTO
		err := r.db.WithContext(ctx).Clauses(clause.Locking{Strength: "UPDATE"}).
			First(&dto, "id = ?", rawID).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, errs.NewObjectNotFoundError("sku", rawID.String())
			}
			return nil, err
		}

		sku, err := skuToDomain(dto)
		if err != nil {
			return nil, err
		}
		skus[sku.ID()] = sku
	}

	return skus, nil
}

// AddReservations saves newly created reservation entries.
func (r *GormInventoryRepository) AddReservations(ctx context.Context, reservations []*inventory.Reservation) error {
	if len(reservations) == 0 {
		return nil
	}

	dtos := make([]ReservationDTO, 0, len(reservations))
	for _, reservation := range reservations {
		if err := reservation.Validate(); err != nil {
			return err
		}
		dtos = append(dtos, reservationFromDomain(reservation))
	}

	return r.db.WithContext(ctx).Create(&dtos).Error
}

// UpdateReservation saves a reservation's released state.
func (r *GormInventoryRepository) UpdateReservation(ctx context.Context, reservation *inventory.Reservation) error {
	if err := reservation.Validate(); err != nil {
		return err
	}

	dto := reservationFromDomain(reservation)
	result := r.db.WithContext(ctx).Model(&ReservationDTO{}).Where("id = ?", dto.ID).
		Select("released", "released_at").Updates(&dto)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}

	return nil
}

// GetActiveReservations retrieves the order's unreleased reservation entries.
func (r *GormInventoryRepository) GetActiveReservations(
	ctx context.Context,
	orderID kernel.UUID,
) ([]*inventory.Reservation, error) {
	if err := orderID.Validate(); err != nil {
		return nil, err
	}

	var dtos []ReservationDTO
	err := r.db.WithContext(ctx).
		Find(&dtos, "order_id = ? AND released = false", orderID.Bytes()).Error
	if err != nil {
		return nil, err
	}

	reservations := make([]*inventory.Reservation, 0, len(dtos))
	for _, dto := range dtos {
		reservation, convErr := reservationToDomain(dto)
		if convErr != nil {
			return nil, convErr
		}
		reservations = append(reservations, reservation)
	}

	return reservations, nil
}
