package ports

import (
	"context"

	"fulfillment/internal/core/domain/model/kernel"
	"fulfillment/internal/core/domain/model/order"
)

// OrderRepository defines the persistence contract for order aggregates and
// their append-only timeline.
type OrderRepository interface {
	// Add persists a new order aggregate with its items.
	Add(ctx context.Context, aggregate *order.Order) error

	// Update persists changes to an existing order aggregate, upserting its
	// items by their external item identifiers.
	Update(ctx context.Context, aggregate *order.Order) error

	// Get retrieves an order by its unique identifier.
	Get(ctx context.Context, id kernel.UUID) (*order.Order, error)

	// GetForUpdate retrieves an order holding a row-level lock for the
	// duration of the surrounding transaction. Concurrent transition attempts
	// on the same order serialize on this lock.
	GetForUpdate(ctx context.Context, id kernel.UUID) (*order.Order, error)

	// GetByExternalID retrieves an order by its channel import idempotency
	// key (organization, channel, external order id).
	GetByExternalID(ctx context.Context, orgID kernel.UUID, channel, externalOrderID string) (*order.Order, error)

	// GetAllInStatus retrieves all orders currently in the given status.
	// Used by the tracking refresh scheduler to find shipped orders.
	GetAllInStatus(ctx context.Context, statuses ...order.Status) ([]*order.Order, error)

	// AppendTimelineEvent persists one append-only audit record.
	AppendTimelineEvent(ctx context.Context, event *order.TimelineEvent) error
}
