package services

import (
	"fulfillment/internal/core/domain/model/inventory"
	"fulfillment/internal/core/domain/model/kernel"
	"fulfillment/internal/core/domain/model/order"
	"fulfillment/internal/pkg/errs"
)

// StockAllocator is a domain service that plans and applies stock
// reservations for an order across all of its line items.
//
// Business rules:
//   - Allocation is all-or-nothing: if any SKU is short, no SKU is mutated
//     and the attempt fails with *inventory.InsufficientStockError
//   - An order with an existing active reservation is not allocated again;
//     the second attempt is a no-op so upstream retries cannot
//     double-decrement availability
//   - Quantities for items referencing the same SKU are summed before the
//     availability check
//
// The allocator mutates the passed SKU aggregates in memory; the caller
// persists SKUs and reservations inside one transaction, holding row locks
// on the SKUs for the duration so concurrent allocations serialize per SKU.
type StockAllocator struct{}

// NewStockAllocator creates a new StockAllocator instance.
func NewStockAllocator() StockAllocator {
	return StockAllocator{}
}

// Allocate reserves stock for every item on the order.
//
// Parameters:
//   - o: the order to allocate for (must be valid and have at least one item)
//   - skus: the order's SKUs keyed by SKU id, loaded under row locks
//   - active: the order's currently active reservations, if any
//
// Returns:
//   - (nil, nil) when active reservations already exist (idempotent no-op)
//   - the created reservations, with the SKU aggregates' reserved counters
//     incremented, on success
//   - (nil, *inventory.InsufficientStockError) when any SKU is short; no SKU
//     is mutated in that case
func (a StockAllocator) Allocate(
	o *order.Order,
	skus map[kernel.UUID]*inventory.SKU,
	active []*inventory.Reservation,
) ([]*inventory.Reservation, error) {
	if err := o.Validate(); err != nil {
		return nil, err
	}

	if len(active) > 0 {
		return nil, nil
	}

	if len(o.Items()) == 0 {
		return nil, errs.NewValueIsRequiredError("order items")
	}

	requested, ordered, err := a.requestedPerSKU(o)
	if err != nil {
		return nil, err
	}

	// Check every SKU before mutating any so a shortfall on the last item
	// leaves the earlier ones untouched.
	for _, skuID := range ordered {
		sku, ok := skus[skuID]
		if !ok {
			return nil, errs.NewObjectNotFoundError("sku", skuID.String())
		}
		if vErr := sku.Validate(); vErr != nil {
			return nil, vErr
		}
		if sku.Available() < requested[skuID] {
			return nil, inventory.NewInsufficientStockError(sku.Code(), requested[skuID], sku.Available())
		}
	}

	reservations := make([]*inventory.Reservation, 0, len(ordered))
	for _, skuID := range ordered {
		sku := skus[skuID]
		if rErr := sku.Reserve(requested[skuID]); rErr != nil {
			return nil, rErr
		}

		reservation, rErr := inventory.NewReservation(kernel.NewUUID(), o.ID(), skuID, requested[skuID])
		if rErr != nil {
			return nil, rErr
		}
		reservations = append(reservations, reservation)
	}

	return reservations, nil
}

// ReleaseAll releases every active reservation in the slice, returning the
// held quantities to their SKUs. Already-released reservations are skipped,
// so repeating a release is harmless.
func (a StockAllocator) ReleaseAll(
	reservations []*inventory.Reservation,
	skus map[kernel.UUID]*inventory.SKU,
) error {
	for _, reservation := range reservations {
		if err := reservation.Validate(); err != nil {
			return err
		}
		if reservation.IsReleased() {
			continue
		}

		sku, ok := skus[reservation.SKUID()]
		if !ok {
			return errs.NewObjectNotFoundError("sku", reservation.SKUID().String())
		}

		if err := reservation.Release(); err != nil {
			return err
		}
		if err := sku.Release(reservation.Quantity()); err != nil {
			return err
		}
	}

	return nil
}

// requestedPerSKU sums item quantities per SKU and returns a deterministic
// SKU order. Deterministic ordering keeps lock acquisition order stable
// across concurrent allocations, avoiding deadlocks.
func (a StockAllocator) requestedPerSKU(o *order.Order) (map[kernel.UUID]int, []kernel.UUID, error) {
	requested := make(map[kernel.UUID]int, len(o.Items()))
	ordered := make([]kernel.UUID, 0, len(o.Items()))

	for _, item := range o.Items() {
		if err := item.Validate(); err != nil {
			return nil, nil, err
		}
		if _, seen := requested[item.SKUID()]; !seen {
			ordered = append(ordered, item.SKUID())
		}
		requested[item.SKUID()] += item.Quantity()
	}

	return requested, ordered, nil
}
