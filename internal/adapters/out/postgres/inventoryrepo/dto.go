// Package inventoryrepo provides data transfer objects and mapping functions
// for the inventory ledger: SKU counters and reservations.
package inventoryrepo

import (
	"time"

	"fulfillment/internal/core/domain/model/inventory"
	"fulfillment/internal/core/domain/model/kernel"

	"github.com/google/uuid"
)

// SKUDTO represents the database structure for persisting SKU aggregates.
// The (org_id, code) pair carries a unique index.
type SKUDTO struct {
	ID             uuid.UUID `gorm:"type:uuid;primaryKey"`
	OrgID          uuid.UUID `gorm:"type:uuid;uniqueIndex:idx_skus_code,priority:1"`
	Code           string    `gorm:"uniqueIndex:idx_skus_code,priority:2"`
	QuantityOnHand int
	Reserved       int
}

// TableName specifies the database table name for SKU entities.
func (SKUDTO) TableName() string {
	return "skus"
}

// ReservationDTO represents one reservation ledger entry. A partial unique
// index on (order_id, sku_id) where released = false enforces at most one
// active reservation per order and SKU; the migration in cmd creates it.
type ReservationDTO struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey"`
	OrderID    uuid.UUID `gorm:"type:uuid;index"`
	SKUID      uuid.UUID `gorm:"type:uuid;index"`
	Quantity   int
	Released   bool
	ReleasedAt *time.Time
	CreatedAt  time.Time
}

// TableName specifies the database table name for reservation entries.
func (ReservationDTO) TableName() string {
	return "reservations"
}

// skuFromDomain converts a SKU aggregate to its database representation.
func skuFromDomain(sku *inventory.SKU) SKUDTO {
	return SKUDTO{
		ID:             sku.ID().Bytes(),
		OrgID:          sku.OrgID().Bytes(),
		Code:           sku.Code(),
		QuantityOnHand: sku.QuantityOnHand(),
		Reserved:       sku.Reserved(),
	}
}

// skuToDomain converts a database row back to a SKU aggregate.
func skuToDomain(dto SKUDTO) (*inventory.SKU, error) {
	id, err := kernel.UUIDFromBytes(dto.ID[:])
	if err != nil {
		return nil, err
	}
	orgID, err := kernel.UUIDFromBytes(dto.OrgID[:])
	if err != nil {
		return nil, err
	}

	return inventory.RestoreSKU(id, orgID, dto.Code, dto.QuantityOnHand, dto.Reserved)
}

// reservationFromDomain converts a reservation to its database representation.
func reservationFromDomain(reservation *inventory.Reservation) ReservationDTO {
	return ReservationDTO{
		ID:         reservation.ID().Bytes(),
		OrderID:    reservation.OrderID().Bytes(),
		SKUID:      reservation.SKUID().Bytes(),
		Quantity:   reservation.Quantity(),
		Released:   reservation.IsReleased(),
		ReleasedAt: reservation.ReleasedAt(),
		CreatedAt:  reservation.CreatedAt(),
	}
}

// reservationToDomain converts a database row back to a reservation.
func reservationToDomain(dto ReservationDTO) (*inventory.Reservation, error) {
	id, err := kernel.UUIDFromBytes(dto.ID[:])
	if err != nil {
		return nil, err
	}
	orderID, err := kernel.UUIDFromBytes(dto.OrderID[:])
	if err != nil {
		return nil, err
	}
	skuID, err := kernel.UUIDFromBytes(dto.SKUID[:])
	if err != nil {
		return nil, err
	}

	return inventory.RestoreReservation(id, orderID, skuID, dto.Quantity, dto.Released, dto.ReleasedAt, dto.CreatedAt)
}
