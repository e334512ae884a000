package inventory

import (
	"errors"
	"time"

	"fulfillment/internal/core/domain/model/kernel"
	"fulfillment/internal/pkg/errs"
)

var (
	// ErrReservationIsNotConstructed is returned when a Reservation was not
	// created through NewReservation or RestoreReservation.
	ErrReservationIsNotConstructed = errors.New("Reservation must be created via NewReservation or RestoreReservation")

	// ErrReservationAlreadyReleased is returned when releasing a reservation twice.
	ErrReservationAlreadyReleased = errors.New("reservation is already released")
)

// Reservation is a hold of a quantity of one SKU on behalf of one order.
// At most one active (unreleased) reservation exists per order+SKU pair;
// the persistence layer enforces this with a partial unique index and the
// reserve operation treats an existing active reservation as a no-op.
type Reservation struct {
	id         kernel.UUID
	orderID    kernel.UUID
	skuID      kernel.UUID
	quantity   int
	released   bool
	releasedAt *time.Time
	createdAt  time.Time

	isConstructed bool
}

// NewReservation creates an active reservation of quantity units of the SKU
// for the order.
func NewReservation(id, orderID, skuID kernel.UUID, quantity int) (*Reservation, error) {
	r := &Reservation{
		createdAt:     time.Now().UTC(),
		isConstructed: true,
	}

	if err := errors.Join(
		r.setID(id),
		r.setOrderID(orderID),
		r.setSKUID(skuID),
		r.setQuantity(quantity),
	); err != nil {
		return nil, err
	}

	return r, nil
}

// RestoreReservation rehydrates a reservation from persistence.
func RestoreReservation(
	id, orderID, skuID kernel.UUID,
	quantity int,
	released bool,
	releasedAt *time.Time,
	createdAt time.Time,
) (*Reservation, error) {
	r, err := NewReservation(id, orderID, skuID, quantity)
	if err != nil {
		return nil, err
	}

	r.released = released
	r.releasedAt = releasedAt
	r.createdAt = createdAt
	return r, nil
}

// Validate ensures the reservation was constructed through a factory function.
func (r *Reservation) Validate() error {
	if r == nil || !r.isConstructed {
		return ErrReservationIsNotConstructed
	}
	return nil
}

// ID returns the reservation's unique identifier.
func (r *Reservation) ID() kernel.UUID {
	return r.id
}

// OrderID returns the identifier of the order holding the reservation.
func (r *Reservation) OrderID() kernel.UUID {
	return r.orderID
}

// SKUID returns the identifier of the reserved SKU.
func (r *Reservation) SKUID() kernel.UUID {
	return r.skuID
}

// Quantity returns the reserved quantity.
func (r *Reservation) Quantity() int {
	return r.quantity
}

// IsReleased reports whether the hold has been returned to availability.
func (r *Reservation) IsReleased() bool {
	return r.released
}

// ReleasedAt returns when the hold was released, or nil while active.
func (r *Reservation) ReleasedAt() *time.Time {
	return r.releasedAt
}

// CreatedAt returns when the hold was placed.
func (r *Reservation) CreatedAt() time.Time {
	return r.createdAt
}

// Release marks the reservation as returned to availability.
// Releasing twice is rejected so callers cannot double-decrement the SKU's
// reserved counter.
func (r *Reservation) Release() error {
	if r.released {
		return ErrReservationAlreadyReleased
	}

	now := time.Now().UTC()
	r.released = true
	r.releasedAt = &now
	return nil
}

func (r *Reservation) setID(id kernel.UUID) error {
	if err := id.Validate(); err != nil {
		return err
	}
	r.id = id
	return nil
}

func (r *Reservation) setOrderID(orderID kernel.UUID) error {
	if err := orderID.Validate(); err != nil {
		return err
	}
	r.orderID = orderID
	return nil
}

func (r *Reservation) setSKUID(skuID kernel.UUID) error {
	if err := skuID.Validate(); err != nil {
		return err
	}
	r.skuID = skuID
	return nil
}

func (r *Reservation) setQuantity(quantity int) error {
	if quantity <= 0 {
		return errs.NewValueIsInvalidError("quantity")
	}
	r.quantity = quantity
	return nil
}
