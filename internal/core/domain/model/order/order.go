package order

import (
	"errors"
	"time"

	"fulfillment/internal/core/domain/model/kernel"
	"fulfillment/internal/pkg/errs"
)

var (
	// ErrOrderIsNotConstructed is returned when an Order instance was not created
	// through the NewOrder or RestoreOrder factory methods.
	ErrOrderIsNotConstructed = errors.New("Order must be created via NewOrder or RestoreOrder")
)

// Order represents a channel-sourced fulfillment order. It is the aggregate
// root that manages the order lifecycle from import through delivery,
// cancellation, or return.
//
// Order follows these invariants:
//   - Must have valid order and organization identifiers
//   - Must carry the channel and external order identifiers that form the
//     organization-scoped idempotency key for channel imports
//   - Status transitions follow the static adjacency table in Status
//   - Each status reached records a milestone timestamp exactly once
//   - Line items are keyed by their external item identifier; reconciling a
//     re-delivered payload corrects lines instead of duplicating them
//   - Can only be created through NewOrder or RestoreOrder
type Order struct {
	id              kernel.UUID
	orgID           kernel.UUID
	channel         string
	externalOrderID string
	currency        string

	status     Status
	milestones map[Status]time.Time

	items []*Item

	shipTo    kernel.Address
	hasShipTo bool

	paymentConfirmed bool

	carrierCode       string
	carrierShipmentID string
	trackingNumber    string

	isConstructed bool
}

// NewOrder creates a new Order in New status with a milestone for import time.
//
// Parameters:
//   - id: unique identifier for the order
//   - orgID: owning organization
//   - channel: source sales channel code (e.g. "shopify")
//   - externalOrderID: channel order identifier, unique per organization+channel
//   - currency: ISO 4217 currency code of the order totals
func NewOrder(id, orgID kernel.UUID, channel, externalOrderID, currency string) (*Order, error) {
	o := &Order{
		status:        New,
		milestones:    map[Status]time.Time{New: time.Now().UTC()},
		isConstructed: true,
	}

	if err := errors.Join(
		o.setID(id),
		o.setOrgID(orgID),
		o.setChannel(channel),
		o.setExternalOrderID(externalOrderID),
		o.setCurrency(currency),
	); err != nil {
		return nil, err
	}

	return o, nil
}

// RestoreOrder rehydrates an Order from persistence, bypassing the initial
// status assignment but not the field validation.
func RestoreOrder(
	id, orgID kernel.UUID,
	channel, externalOrderID, currency string,
	status Status,
	milestones map[Status]time.Time,
	items []*Item,
	shipTo *kernel.Address,
	paymentConfirmed bool,
	carrierCode, carrierShipmentID, trackingNumber string,
) (*Order, error) {
	if err := status.Validate(); err != nil {
		return nil, err
	}

	o, err := NewOrder(id, orgID, channel, externalOrderID, currency)
	if err != nil {
		return nil, err
	}

	for _, item := range items {
		if err = item.Validate(); err != nil {
			return nil, err
		}
	}

	o.status = status
	o.milestones = make(map[Status]time.Time, len(milestones))
	for s, ts := range milestones {
		o.milestones[s] = ts
	}
	o.items = items
	if shipTo != nil {
		if err = o.SetShipTo(*shipTo); err != nil {
			return nil, err
		}
	}
	o.paymentConfirmed = paymentConfirmed
	o.carrierCode = carrierCode
	o.carrierShipmentID = carrierShipmentID
	o.trackingNumber = trackingNumber
	return o, nil
}

// Validate ensures the Order instance was properly constructed.
func (o *Order) Validate() error {
	if o == nil || !o.isConstructed {
		return ErrOrderIsNotConstructed
	}
	return nil
}

// IsEqual compares two orders by their unique identifiers.
func (o *Order) IsEqual(other *Order) bool {
	return other != nil && o.id.IsEqual(other.id)
}

// ID returns the order's unique identifier.
func (o *Order) ID() kernel.UUID {
	return o.id
}

// OrgID returns the owning organization's identifier.
func (o *Order) OrgID() kernel.UUID {
	return o.orgID
}

// Channel returns the source sales channel code.
func (o *Order) Channel() string {
	return o.channel
}

// ExternalOrderID returns the channel's order identifier. Together with the
// organization and channel it is the idempotency key for channel imports.
func (o *Order) ExternalOrderID() string {
	return o.externalOrderID
}

// Currency returns the ISO 4217 currency code of the order totals.
func (o *Order) Currency() string {
	return o.currency
}

// Status returns the current lifecycle status.
func (o *Order) Status() Status {
	return o.status
}

// Items returns the order's line items.
func (o *Order) Items() []*Item {
	return o.items
}

// ShipTo returns the delivery address. The second return is false until a
// channel payload provided one.
func (o *Order) ShipTo() (kernel.Address, bool) {
	return o.shipTo, o.hasShipTo
}

// SetShipTo records the delivery address. Re-delivered payloads may replace
// it as long as the order has not shipped.
func (o *Order) SetShipTo(shipTo kernel.Address) error {
	if err := shipTo.Validate(); err != nil {
		return err
	}

	o.shipTo = shipTo
	o.hasShipTo = true
	return nil
}

// PaymentConfirmed reports whether the channel has confirmed payment.
func (o *Order) PaymentConfirmed() bool {
	return o.paymentConfirmed
}

// CarrierCode returns the booked carrier's code, or "" before booking.
func (o *Order) CarrierCode() string {
	return o.carrierCode
}

// CarrierShipmentID returns the carrier's shipment identifier, or "" before booking.
func (o *Order) CarrierShipmentID() string {
	return o.carrierShipmentID
}

// TrackingNumber returns the carrier tracking number, or "" before booking.
func (o *Order) TrackingNumber() string {
	return o.trackingNumber
}

// MilestoneAt returns the timestamp recorded when the order first reached
// the given status, if it ever did.
func (o *Order) MilestoneAt(status Status) (time.Time, bool) {
	ts, ok := o.milestones[status]
	return ts, ok
}

// Milestones returns a copy of all recorded status milestone timestamps.
func (o *Order) Milestones() map[Status]time.Time {
	out := make(map[Status]time.Time, len(o.milestones))
	for s, ts := range o.milestones {
		out[s] = ts
	}
	return out
}

// TotalCents returns the monetary total of all lines in the smallest
// currency unit.
func (o *Order) TotalCents() int64 {
	var total int64
	for _, item := range o.items {
		total += int64(item.Quantity()) * item.UnitPriceCents()
	}
	return total
}

// TotalQuantity returns the summed quantity across all lines. This is the
// amount a reservation holds against inventory.
func (o *Order) TotalQuantity() int {
	var total int
	for _, item := range o.items {
		total += item.Quantity()
	}
	return total
}

// ConfirmPayment marks the channel payment as confirmed. Idempotent.
func (o *Order) ConfirmPayment() {
	o.paymentConfirmed = true
}

// UpsertItem adds a line or reconciles the existing line with the same
// external item identifier. Re-delivered payloads therefore correct quantity
// and price without duplicating lines.
func (o *Order) UpsertItem(externalItemID string, skuID kernel.UUID, quantity int, unitPriceCents int64) error {
	if externalItemID == "" {
		return errs.NewValueIsRequiredError("externalItemID")
	}

	for _, existing := range o.items {
		if existing.ExternalItemID() == externalItemID {
			return existing.Reconcile(quantity, unitPriceCents)
		}
	}

	item, err := NewItem(kernel.NewUUID(), externalItemID, skuID, quantity, unitPriceCents)
	if err != nil {
		return err
	}

	o.items = append(o.items, item)
	return nil
}

// TransitionTo moves the order to the target status when the adjacency table
// permits it, recording a milestone timestamp for the newly reached status.
//
// Returns *InvalidTransitionError (unwrapping to ErrInvalidTransition) when
// the transition is not allowed. The caller is responsible for the inventory
// side effects implied by the target status.
func (o *Order) TransitionTo(target Status) error {
	newStatus, err := o.status.TransitionTo(target)
	if err != nil {
		return err
	}

	o.status = newStatus
	if _, seen := o.milestones[newStatus]; !seen {
		o.milestones[newStatus] = time.Now().UTC()
	}
	return nil
}

// AttachShipment records the carrier booking result on the order.
// All three identifiers are required.
func (o *Order) AttachShipment(carrierCode, carrierShipmentID, trackingNumber string) error {
	if carrierCode == "" {
		return errs.NewValueIsRequiredError("carrierCode")
	}
	if carrierShipmentID == "" {
		return errs.NewValueIsRequiredError("carrierShipmentID")
	}
	if trackingNumber == "" {
		return errs.NewValueIsRequiredError("trackingNumber")
	}

	o.carrierCode = carrierCode
	o.carrierShipmentID = carrierShipmentID
	o.trackingNumber = trackingNumber
	return nil
}

// RequestCarrier records which carrier the shipment job should book.
// Must be set before the order leaves ReadyToShip.
func (o *Order) RequestCarrier(carrierCode string) error {
	if carrierCode == "" {
		return errs.NewValueIsRequiredError("carrierCode")
	}
	o.carrierCode = carrierCode
	return nil
}

func (o *Order) setID(id kernel.UUID) error {
	if err := id.Validate(); err != nil {
		return err
	}
	o.id = id
	return nil
}

func (o *Order) setOrgID(orgID kernel.UUID) error {
	if err := orgID.Validate(); err != nil {
		return err
	}
	o.orgID = orgID
	return nil
}

func (o *Order) setChannel(channel string) error {
	if channel == "" {
		return errs.NewValueIsRequiredError("channel")
	}
	o.channel = channel
	return nil
}

func (o *Order) setExternalOrderID(externalOrderID string) error {
	if externalOrderID == "" {
		return errs.NewValueIsRequiredError("externalOrderID")
	}
	o.externalOrderID = externalOrderID
	return nil
}

func (o *Order) setCurrency(currency string) error {
	if len(currency) != 3 {
		return errs.NewValueIsInvalidError("currency")
	}
	o.currency = currency
	return nil
}
