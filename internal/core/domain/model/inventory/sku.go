package inventory

import (
	"errors"
	"fmt"

	"fulfillment/internal/core/domain/model/kernel"
	"fulfillment/internal/pkg/errs"
)

var (
	// ErrSKUIsNotConstructed is returned when a SKU instance was not created
	// through the NewSKU or RestoreSKU factory methods.
	ErrSKUIsNotConstructed = errors.New("SKU must be created via NewSKU or RestoreSKU")

	// ErrInsufficientStock is the sentinel error for reservation shortfalls.
	// The concrete InsufficientStockError carries the SKU and quantities.
	ErrInsufficientStock = errors.New("insufficient stock")

	// ErrNegativeInventory is returned when an adjustment would drop the
	// on-hand quantity below zero or below the reserved quantity.
	ErrNegativeInventory = errors.New("inventory adjustment would go negative")
)

// InsufficientStockError reports a reservation attempt that exceeded a SKU's
// available quantity.
type InsufficientStockError struct {
	SKUCode   string
	Requested int
	Available int
}

// NewInsufficientStockError creates an InsufficientStockError for the given SKU.
func NewInsufficientStockError(skuCode string, requested, available int) *InsufficientStockError {
	return &InsufficientStockError{SKUCode: skuCode, Requested: requested, Available: available}
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock for SKU %s: requested %d, available %d",
		e.SKUCode, e.Requested, e.Available)
}

func (e *InsufficientStockError) Unwrap() error {
	return ErrInsufficientStock
}

// SKU is the per-product inventory aggregate. It carries the on-hand and
// reserved counters whose difference is the sellable availability.
//
// Invariant: 0 <= reserved <= quantityOnHand at all times. Every mutation
// goes through Reserve, Release, or Adjust, which maintain the invariant;
// the persistence layer serializes concurrent mutation per SKU with row
// locks so the invariant also holds under concurrent reservation attempts.
type SKU struct {
	id             kernel.UUID
	orgID          kernel.UUID
	code           string
	quantityOnHand int
	reserved       int

	isConstructed bool
}

// NewSKU creates a SKU with the given starting on-hand quantity and no
// reservations. The code is the human-facing stock keeping unit identifier.
func NewSKU(id, orgID kernel.UUID, code string, quantityOnHand int) (*SKU, error) {
	sku := &SKU{isConstructed: true}

	if err := errors.Join(
		sku.setID(id),
		sku.setOrgID(orgID),
		sku.setCode(code),
		sku.setQuantityOnHand(quantityOnHand),
	); err != nil {
		return nil, err
	}

	return sku, nil
}

// RestoreSKU rehydrates a SKU from persistence, including its reserved counter.
func RestoreSKU(id, orgID kernel.UUID, code string, quantityOnHand, reserved int) (*SKU, error) {
	sku, err := NewSKU(id, orgID, code, quantityOnHand)
	if err != nil {
		return nil, err
	}

	if reserved < 0 || reserved > quantityOnHand {
		return nil, errs.NewValueIsOutOfRangeError("reserved", reserved, 0, quantityOnHand)
	}
	sku.reserved = reserved
	return sku, nil
}

// Validate ensures the SKU was constructed through NewSKU or RestoreSKU.
func (s *SKU) Validate() error {
	if s == nil || !s.isConstructed {
		return ErrSKUIsNotConstructed
	}
	return nil
}

// ID returns the SKU's unique identifier.
func (s *SKU) ID() kernel.UUID {
	return s.id
}

// OrgID returns the owning organization's identifier.
func (s *SKU) OrgID() kernel.UUID {
	return s.orgID
}

// Code returns the stock keeping unit code.
func (s *SKU) Code() string {
	return s.code
}

// QuantityOnHand returns the physical on-hand quantity.
func (s *SKU) QuantityOnHand() int {
	return s.quantityOnHand
}

// Reserved returns the quantity currently held by active reservations.
func (s *SKU) Reserved() int {
	return s.reserved
}

// Available returns the sellable quantity: on hand minus reserved.
func (s *SKU) Available() int {
	return s.quantityOnHand - s.reserved
}

// Reserve holds qty units against availability.
// Returns *InsufficientStockError when fewer than qty units are available;
// the SKU is unchanged in that case.
func (s *SKU) Reserve(qty int) error {
	if qty <= 0 {
		return errs.NewValueIsOutOfRangeError("qty", qty, 1, s.Available())
	}
	if s.Available() < qty {
		return NewInsufficientStockError(s.code, qty, s.Available())
	}

	s.reserved += qty
	return nil
}

// Release returns qty previously reserved units to availability.
// Releasing more than is reserved indicates a bookkeeping bug upstream and
// is rejected rather than clamped.
func (s *SKU) Release(qty int) error {
	if qty <= 0 || qty > s.reserved {
		return errs.NewValueIsOutOfRangeError("qty", qty, 1, s.reserved)
	}

	s.reserved -= qty
	return nil
}

// Adjust applies a signed delta to the on-hand quantity, used for returns
// restocking and manual corrections. The result may not drop below zero or
// below the currently reserved quantity.
func (s *SKU) Adjust(delta int) error {
	next := s.quantityOnHand + delta
	if next < 0 || next < s.reserved {
		return ErrNegativeInventory
	}

	s.quantityOnHand = next
	return nil
}

func (s *SKU) setID(id kernel.UUID) error {
	if err := id.Validate(); err != nil {
		return err
	}
	s.id = id
	return nil
}

func (s *SKU) setOrgID(orgID kernel.UUID) error {
	if err := orgID.Validate(); err != nil {
		return err
	}
	s.orgID = orgID
	return nil
}

func (s *SKU) setCode(code string) error {
	if code == "" {
		return errs.NewValueIsRequiredError("code")
	}
	s.code = code
	return nil
}

func (s *SKU) setQuantityOnHand(qty int) error {
	if qty < 0 {
		return errs.NewValueIsInvalidErrorWithCause("quantityOnHand", fmt.Errorf("%d is negative", qty))
	}
	s.quantityOnHand = qty
	return nil
}
