package ports

import (
	"context"

	"fulfillment/internal/core/domain/model/inventory"
	"fulfillment/internal/core/domain/model/kernel"
)

// InventoryRepository defines the persistence contract for the inventory
// ledger: SKU counters and the reservations that hold them.
type InventoryRepository interface {
	// AddSKU persists a new SKU.
	AddSKU(ctx context.Context, sku *inventory.SKU) error

	// UpdateSKU persists changes to a SKU's counters.
	UpdateSKU(ctx context.Context, sku *inventory.SKU) error

	// GetSKU retrieves a SKU by its unique identifier.
	GetSKU(ctx context.Context, id kernel.UUID) (*inventory.SKU, error)

	// GetSKUByCode retrieves a SKU by its organization-scoped stock keeping
	// unit code, the identifier channel payloads reference items by.
	GetSKUByCode(ctx context.Context, orgID kernel.UUID, code string) (*inventory.SKU, error)

	// GetSKUForUpdate retrieves a SKU holding a row-level lock for the
	// duration of the surrounding transaction.
	GetSKUForUpdate(ctx context.Context, id kernel.UUID) (*inventory.SKU, error)

	// GetSKUsForUpdate retrieves several SKUs under row-level locks, acquired
	// in ascending id order so concurrent multi-SKU reservations cannot
	// deadlock each other.
	GetSKUsForUpdate(ctx context.Context, ids []kernel.UUID) (map[kernel.UUID]*inventory.SKU, error)

	// AddReservations persists newly created reservations.
	AddReservations(ctx context.Context, reservations []*inventory.Reservation) error

	// UpdateReservation persists the released flag and timestamp.
	UpdateReservation(ctx context.Context, reservation *inventory.Reservation) error

	// GetActiveReservations retrieves the order's unreleased reservations.
	GetActiveReservations(ctx context.Context, orderID kernel.UUID) ([]*inventory.Reservation, error)
}
