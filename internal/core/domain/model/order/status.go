package order

import (
	"errors"
	"fmt"
)

// ErrInvalidTransition is the sentinel error for rejected status transitions.
// Use errors.Is to detect it; the concrete InvalidTransitionError carries the
// offending from/to pair.
var ErrInvalidTransition = errors.New("invalid status transition")

// InvalidTransitionError reports a transition that is not permitted by the
// order lifecycle adjacency table.
type InvalidTransitionError struct {
	From Status
	To   Status
}

// NewInvalidTransitionError creates an InvalidTransitionError for the given pair.
func NewInvalidTransitionError(from, to Status) *InvalidTransitionError {
	return &InvalidTransitionError{From: from, To: to}
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("invalid status transition: %s -> %s", e.From, e.To)
}

func (e *InvalidTransitionError) Unwrap() error {
	return ErrInvalidTransition
}

// Status represents the lifecycle state of a fulfillment order.
// It implements a state machine with a static adjacency table so orders
// always follow the correct business workflow.
//
// State transitions:
//
//	New ──> Reserved ──> ReadyToShip ──> LabelCreated ──> PickedUp ──> InTransit ──> OutForDelivery ──> Delivered ──> Returned
//	                                                                      │                 │
//	                                                                      └──> Failed <─────┘
//
// Every non-terminal status may additionally transition to Cancelled.
// InTransit may also advance straight to Delivered; some carriers never
// report an out-for-delivery scan.
// Delivered, Cancelled, Returned, and Failed are terminal, with the single
// documented exception Delivered -> Returned.
//
// Status is a value object that validates transitions and provides string
// representations for persistence and display.
type Status int

const (
	// Unknown represents an invalid or undefined status.
	// This value (0) helps catch uninitialized Status values.
	Unknown Status = iota

	// New is the initial status assigned when a channel order is first imported.
	New

	// Reserved indicates stock has been held for every item on the order.
	Reserved

	// ReadyToShip indicates the order is packed and awaiting a carrier booking.
	ReadyToShip

	// LabelCreated indicates a carrier shipment exists with a tracking number and label.
	LabelCreated

	// PickedUp indicates the carrier has collected the parcel.
	PickedUp

	// InTransit indicates the parcel is moving through the carrier network.
	InTransit

	// OutForDelivery indicates the parcel is on the final delivery leg.
	OutForDelivery

	// Delivered is terminal, except for the documented Delivered -> Returned exception.
	Delivered

	// Cancelled is terminal. Entering it releases any active stock reservation.
	Cancelled

	// Returned is terminal. Entering it releases any active stock reservation.
	Returned

	// Failed is terminal and records an unrecoverable carrier delivery failure.
	Failed
)

// getStatusStrings returns a map of Status values to their string representations.
func getStatusStrings() map[Status]string {
	return map[Status]string{
		Unknown:        "UNKNOWN",
		New:            "NEW",
		Reserved:       "RESERVED",
		ReadyToShip:    "READY_TO_SHIP",
		LabelCreated:   "LABEL_CREATED",
		PickedUp:       "PICKED_UP",
		InTransit:      "IN_TRANSIT",
		OutForDelivery: "OUT_FOR_DELIVERY",
		Delivered:      "DELIVERED",
		Cancelled:      "CANCELLED",
		Returned:       "RETURNED",
		Failed:         "FAILED",
	}
}

// getTransitions returns the static adjacency table of the order lifecycle.
// Cancelled is not listed per row; CanTransitionTo adds the
// any-non-terminal -> Cancelled rule on top of this table.
func getTransitions() map[Status][]Status {
	return map[Status][]Status{
		New:            {Reserved},
		Reserved:       {ReadyToShip},
		ReadyToShip:    {LabelCreated},
		LabelCreated:   {PickedUp},
		PickedUp:       {InTransit},
		InTransit:      {OutForDelivery, Delivered, Failed},
		OutForDelivery: {Delivered, Failed},
		Delivered:      {Returned},
		Cancelled:      {},
		Returned:       {},
		Failed:         {},
	}
}

// StatusFromString parses a persisted or externally supplied status name.
func StatusFromString(s string) (Status, error) {
	for status, str := range getStatusStrings() {
		if str == s && status != Unknown {
			return status, nil
		}
	}
	return Unknown, fmt.Errorf("unknown order status %q", s)
}

// String returns the canonical upper-snake name of the status.
// Implements fmt.Stringer and is safe to call on any value.
func (s Status) String() string {
	if str, ok := getStatusStrings()[s]; ok {
		return str
	}
	return "UNKNOWN"
}

// Validate checks that the Status is one of the defined lifecycle states.
func (s Status) Validate() error {
	if s == Unknown {
		return fmt.Errorf("order status is invalid: %d", int(s))
	}
	if _, ok := getStatusStrings()[s]; !ok {
		return fmt.Errorf("order status is invalid: %d", int(s))
	}
	return nil
}

// IsTerminal reports whether the status forbids all further transitions.
// Delivered is not included because of the documented Delivered -> Returned
// exception.
func (s Status) IsTerminal() bool {
	return s == Cancelled || s == Returned || s == Failed
}

// CanTransitionTo reports whether target is a permitted successor of s
// per the adjacency table, including the any-non-terminal -> Cancelled rule.
func (s Status) CanTransitionTo(target Status) bool {
	if target == Cancelled {
		return !s.IsTerminal() && s != Delivered
	}
	for _, next := range getTransitions()[s] {
		if next == target {
			return true
		}
	}
	return false
}

// TransitionTo validates and performs the transition from s to target.
//
// Returns:
//   - (target, nil) on a permitted transition
//   - (Unknown, *InvalidTransitionError) otherwise
func (s Status) TransitionTo(target Status) (Status, error) {
	if err := target.Validate(); err != nil {
		return Unknown, err
	}
	if !s.CanTransitionTo(target) {
		return Unknown, NewInvalidTransitionError(s, target)
	}
	return target, nil
}

// RequiresReservation reports whether entering this status must place a
// stock reservation for the order's items.
func (s Status) RequiresReservation() bool {
	return s == Reserved
}

// ReleasesReservation reports whether entering this status must release any
// active stock reservation held by the order.
func (s Status) ReleasesReservation() bool {
	return s == Cancelled || s == Returned
}
