package commands

import (
	"encoding/json"
	"errors"

	"fulfillment/internal/pkg/errs"
	"fulfillment/internal/pkg/guard"
)

var (
	ErrIngestEventCommandIsNotConstructed = errors.New(
		"IngestEventCommand must be created via NewIngestEventCommand constructor",
	)

	// ErrAuthenticationFailed is returned when an event's HMAC signature does
	// not match the raw body. The event is rejected before any write.
	ErrAuthenticationFailed = errors.New("event signature verification failed")
)

// Channel event types accepted from webhook sources.
const (
	EventTypeOrderCreated   = "order_created"
	EventTypeOrderUpdated   = "order_updated"
	EventTypeOrderCancelled = "order_cancelled"
)

// ChannelEventEnvelope is the minimal structure extracted from a channel
// webhook body to derive the event's idempotency key. The full raw body
// travels to the worker untouched.
type ChannelEventEnvelope struct {
	// ResourceID identifies the channel resource the event is about.
	ResourceID string `json:"resource_id"`

	// OccurredAt disambiguates repeated events about the same resource,
	// e.g. successive order updates.
	OccurredAt string `json:"occurred_at"`

	// DeliveryID is the source's delivery identifier, used as the dedup key
	// of last resort when the payload carries no resource id.
	DeliveryID string `json:"delivery_id"`
}

// IngestEventCommand represents one signed external event delivery.
type IngestEventCommand struct { //nolint:recvcheck //using for validation
	source    string
	signature string
	rawBody   []byte
	eventType string

	guard guard.ConstructorGuard
}

// NewIngestEventCommand creates a command from one webhook delivery.
// The raw body is kept unparsed for signature verification; parsing happens
// after the signature checks out.
func NewIngestEventCommand(source, signature string, rawBody []byte, eventType string) (IngestEventCommand, error) {
	cmd := IngestEventCommand{
		guard: guard.NewConstructorGuard(),
	}

	if err := errors.Join(
		cmd.setSource(source),
		cmd.setSignature(signature),
		cmd.setRawBody(rawBody),
		cmd.setEventType(eventType),
	); err != nil {
		return IngestEventCommand{}, err
	}

	return cmd, nil
}

// Validate ensures the command was created through the constructor.
func (c IngestEventCommand) Validate() error {
	return c.guard.Validate(ErrIngestEventCommandIsNotConstructed)
}

// Source returns the delivering channel's source identifier.
func (c IngestEventCommand) Source() string {
	return c.source
}

// Signature returns the hex-encoded HMAC signature header value.
func (c IngestEventCommand) Signature() string {
	return c.signature
}

// RawBody returns the raw, unparsed request body the signature covers.
func (c IngestEventCommand) RawBody() []byte {
	return c.rawBody
}

// EventType returns the declared channel event type.
func (c IngestEventCommand) EventType() string {
	return c.eventType
}

// ExternalEventID derives the source-scoped idempotency key of the event:
// the resource id, suffixed with the occurrence timestamp for update-type
// events (where the same resource legitimately recurs), falling back to the
// source's delivery id.
func (c IngestEventCommand) ExternalEventID() (string, error) {
	var envelope ChannelEventEnvelope
	if err := json.Unmarshal(c.rawBody, &envelope); err != nil {
		return "", errs.NewValueIsInvalidErrorWithCause("rawBody", err)
	}

	switch {
	case envelope.ResourceID != "" && c.eventType == EventTypeOrderUpdated && envelope.OccurredAt != "":
		return envelope.ResourceID + "-" + envelope.OccurredAt, nil
	case envelope.ResourceID != "":
		return envelope.ResourceID, nil
	case envelope.DeliveryID != "":
		return envelope.DeliveryID, nil
	}
	return "", errs.NewValueIsRequiredError("resource_id or delivery_id")
}

func (c *IngestEventCommand) setSource(source string) error {
	if source == "" {
		return errs.NewValueIsRequiredError("source")
	}
	c.source = source
	return nil
}

func (c *IngestEventCommand) setSignature(signature string) error {
	if signature == "" {
		return errs.NewValueIsRequiredError("signature")
	}
	c.signature = signature
	return nil
}

func (c *IngestEventCommand) setRawBody(rawBody []byte) error {
	if len(rawBody) == 0 {
		return errs.NewValueIsRequiredError("rawBody")
	}
	c.rawBody = rawBody
	return nil
}

func (c *IngestEventCommand) setEventType(eventType string) error {
	switch eventType {
	case EventTypeOrderCreated, EventTypeOrderUpdated, EventTypeOrderCancelled:
		c.eventType = eventType
		return nil
	}
	return errs.NewValueIsInvalidError("eventType")
}
