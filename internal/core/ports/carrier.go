package ports

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// ErrUnknownCarrier is returned when no adapter is registered for a carrier code.
var ErrUnknownCarrier = errors.New("unknown carrier")

// IntegrationError reports a failed call to an external carrier or channel.
// Retryable distinguishes transient failures (timeouts, 5xx, rate limits),
// which the job pipeline re-attempts with backoff, from terminal ones
// (validation, auth), which are surfaced on the order's timeline and
// dead-lettered for human follow-up.
type IntegrationError struct {
	Op         string
	Carrier    string
	StatusCode int
	Retryable  bool
	Cause      error
}

// NewRetryableIntegrationError creates an IntegrationError the job pipeline may retry.
func NewRetryableIntegrationError(op, carrier string, statusCode int, cause error) *IntegrationError {
	return &IntegrationError{Op: op, Carrier: carrier, StatusCode: statusCode, Retryable: true, Cause: cause}
}

// NewTerminalIntegrationError creates an IntegrationError retrying cannot fix.
func NewTerminalIntegrationError(op, carrier string, statusCode int, cause error) *IntegrationError {
	return &IntegrationError{Op: op, Carrier: carrier, StatusCode: statusCode, Retryable: false, Cause: cause}
}

func (e *IntegrationError) Error() string {
	kind := "terminal"
	if e.Retryable {
		kind = "retryable"
	}
	if e.Cause != nil {
		return fmt.Sprintf("%s %s failure (carrier %s, status %d): %s", kind, e.Op, e.Carrier, e.StatusCode, e.Cause)
	}
	return fmt.Sprintf("%s %s failure (carrier %s, status %d)", kind, e.Op, e.Carrier, e.StatusCode)
}

func (e *IntegrationError) Unwrap() error {
	return e.Cause
}

// IsRetryableIntegration reports whether err is a retryable IntegrationError.
func IsRetryableIntegration(err error) bool {
	var ie *IntegrationError
	return errors.As(err, &ie) && ie.Retryable
}

// IsTerminalIntegration reports whether err is a terminal IntegrationError.
func IsTerminalIntegration(err error) bool {
	var ie *IntegrationError
	return errors.As(err, &ie) && !ie.Retryable
}

// ShipmentRequest is the carrier-neutral shipment booking request. Per-carrier
// request shapes are the adapter's concern.
type ShipmentRequest struct {
	// Reference correlates the booking with the order on the carrier side.
	Reference string

	RecipientName string
	AddressLine   string
	City          string
	PostalCode    string
	CountryCode   string
	WeightGrams   int

	// CorrelationID is propagated to the carrier for request tracing.
	CorrelationID string
}

// ShipmentResult is the normalized outcome of a successful booking.
type ShipmentResult struct {
	CarrierShipmentID string
	TrackingNumber    string
	Label             []byte
	LabelContentType  string
	CostCents         int64
	EstimatedDelivery *time.Time
}

// TrackingStatus is the carrier-neutral parcel state reported by tracking.
type TrackingStatus string

const (
	TrackingPickedUp       TrackingStatus = "PICKED_UP"
	TrackingInTransit      TrackingStatus = "IN_TRANSIT"
	TrackingOutForDelivery TrackingStatus = "OUT_FOR_DELIVERY"
	TrackingDelivered      TrackingStatus = "DELIVERED"
	TrackingFailed         TrackingStatus = "FAILED"
)

// TrackingEvent is one carrier scan in a tracking history.
type TrackingEvent struct {
	Status      TrackingStatus
	Description string
	OccurredAt  time.Time
}

// TrackingResult is the normalized outcome of a tracking poll.
type TrackingResult struct {
	Status TrackingStatus
	Events []TrackingEvent
}

// CarrierAdapter books shipments and polls tracking with one external
// carrier. Implementations must be time-bounded (request timeouts) and must
// classify failures as retryable or terminal via IntegrationError so the job
// pipeline's retry policy can react correctly.
//
// The adapter must be satisfiable by both a deterministic test double and a
// real HTTP implementation; the job pipeline depends only on this interface.
type CarrierAdapter interface {
	// Code returns the carrier code the adapter serves (e.g. "dhl").
	Code() string

	// CreateShipment books a shipment on the given carrier account.
	CreateShipment(ctx context.Context, account string, req ShipmentRequest) (*ShipmentResult, error)

	// GetTracking polls the parcel state for a tracking number.
	GetTracking(ctx context.Context, account, trackingNumber, correlationID string) (*TrackingResult, error)
}

// CarrierRegistry resolves a CarrierAdapter by carrier code. Implemented as
// a lookup table so carrier selection is data, not branching at call sites.
type CarrierRegistry interface {
	// Adapter returns the adapter for the code, or ErrUnknownCarrier.
	Adapter(code string) (CarrierAdapter, error)
}
