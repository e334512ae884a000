package order

import (
	"errors"

	"fulfillment/internal/core/domain/model/kernel"
	"fulfillment/internal/pkg/errs"
)

// ErrItemIsNotConstructed is returned when an Item instance was not created
// through NewItem or RestoreItem.
var ErrItemIsNotConstructed = errors.New("Item must be created via NewItem or RestoreItem")

// Item is a line on an order referencing one SKU with a quantity and price.
//
// The external item identifier is the upsert key within its order:
// reconciliation of a re-delivered channel payload corrects quantity and
// price on the existing line instead of duplicating it.
type Item struct {
	id             kernel.UUID
	externalItemID string
	skuID          kernel.UUID
	quantity       int
	unitPriceCents int64

	isConstructed bool
}

// NewItem creates a validated order line.
// Quantity must be positive; unit price must not be negative.
func NewItem(id kernel.UUID, externalItemID string, skuID kernel.UUID, quantity int, unitPriceCents int64) (*Item, error) {
	item := &Item{isConstructed: true}

	if err := errors.Join(
		item.setID(id),
		item.setExternalItemID(externalItemID),
		item.setSKUID(skuID),
		item.setQuantityAndPrice(quantity, unitPriceCents),
	); err != nil {
		return nil, err
	}

	return item, nil
}

// RestoreItem rehydrates an order line from persistence.
func RestoreItem(id kernel.UUID, externalItemID string, skuID kernel.UUID, quantity int, unitPriceCents int64) (*Item, error) {
	return NewItem(id, externalItemID, skuID, quantity, unitPriceCents)
}

// Validate ensures the Item was constructed through NewItem or RestoreItem.
func (i *Item) Validate() error {
	if i == nil || !i.isConstructed {
		return ErrItemIsNotConstructed
	}
	return nil
}

// ID returns the line's unique identifier.
func (i *Item) ID() kernel.UUID {
	return i.id
}

// ExternalItemID returns the channel-provided line identifier used as the
// upsert key within the order.
func (i *Item) ExternalItemID() string {
	return i.externalItemID
}

// SKUID returns the identifier of the referenced SKU.
func (i *Item) SKUID() kernel.UUID {
	return i.skuID
}

// Quantity returns the ordered quantity.
func (i *Item) Quantity() int {
	return i.quantity
}

// UnitPriceCents returns the per-unit price in the smallest currency unit.
func (i *Item) UnitPriceCents() int64 {
	return i.unitPriceCents
}

// Reconcile applies a quantity/price correction from a re-delivered payload.
func (i *Item) Reconcile(quantity int, unitPriceCents int64) error {
	return i.setQuantityAndPrice(quantity, unitPriceCents)
}

func (i *Item) setID(id kernel.UUID) error {
	if err := id.Validate(); err != nil {
		return err
	}
	i.id = id
	return nil
}

func (i *Item) setExternalItemID(externalItemID string) error {
	if externalItemID == "" {
		return errs.NewValueIsRequiredError("externalItemID")
	}
	i.externalItemID = externalItemID
	return nil
}

func (i *Item) setSKUID(skuID kernel.UUID) error {
	if err := skuID.Validate(); err != nil {
		return err
	}
	i.skuID = skuID
	return nil
}

func (i *Item) setQuantityAndPrice(quantity int, unitPriceCents int64) error {
	if quantity <= 0 {
		return errs.NewValueIsOutOfRangeError("quantity", quantity, 1, int(^uint(0)>>1))
	}
	if unitPriceCents < 0 {
		return errs.NewValueIsInvalidError("unitPriceCents")
	}
	i.quantity = quantity
	i.unitPriceCents = unitPriceCents
	return nil
}
