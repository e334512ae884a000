package commands

import (
	"encoding/json"
	"errors"

	"fulfillment/internal/core/domain/model/kernel"
	"fulfillment/internal/pkg/errs"
	"fulfillment/internal/pkg/guard"
)

var (
	ErrUpsertChannelOrderCommandIsNotConstructed = errors.New(
		"UpsertChannelOrderCommand must be created via NewUpsertChannelOrderCommand constructor",
	)
)

// ChannelOrderPayload is the order document a channel event carries.
type ChannelOrderPayload struct {
	OrgID            string             `json:"org_id"`
	Channel          string             `json:"channel"`
	ExternalOrderID  string             `json:"external_order_id"`
	Currency         string             `json:"currency"`
	PaymentConfirmed bool               `json:"payment_confirmed"`
	Cancelled        bool               `json:"cancelled"`
	ShipTo           *ChannelAddress    `json:"ship_to"`
	Items            []ChannelOrderItem `json:"items"`
}

// ChannelAddress is the ship-to destination a channel order document carries.
type ChannelAddress struct {
	RecipientName string `json:"recipient_name"`
	AddressLine   string `json:"address_line"`
	City          string `json:"city"`
	PostalCode    string `json:"postal_code"`
	CountryCode   string `json:"country_code"`
}

// ChannelOrderItem is one line of a channel order document. SKU is the
// organization-scoped stock keeping unit code the line references.
type ChannelOrderItem struct {
	ExternalItemID string `json:"external_item_id"`
	SKU            string `json:"sku"`
	Quantity       int    `json:"quantity"`
	UnitPriceCents int64  `json:"unit_price_cents"`
}

// UpsertChannelOrderCommand represents one webhook job execution that imports
// or reconciles a channel order.
type UpsertChannelOrderCommand struct { //nolint:recvcheck //using for validation
	jobID   string
	orgID   kernel.UUID
	payload ChannelOrderPayload

	guard guard.ConstructorGuard
}

// NewUpsertChannelOrderCommand creates a command from a leased webhook job.
// rawPayload is the job's WebhookJobPayload document.
func NewUpsertChannelOrderCommand(jobID string, rawPayload []byte) (UpsertChannelOrderCommand, error) {
	cmd := UpsertChannelOrderCommand{
		guard: guard.NewConstructorGuard(),
	}

	if jobID == "" {
		return UpsertChannelOrderCommand{}, errs.NewValueIsRequiredError("jobID")
	}
	cmd.jobID = jobID

	var envelope WebhookJobPayload
	if err := json.Unmarshal(rawPayload, &envelope); err != nil {
		return UpsertChannelOrderCommand{}, errs.NewValueIsInvalidErrorWithCause("payload", err)
	}
	if err := json.Unmarshal(envelope.Body, &cmd.payload); err != nil {
		return UpsertChannelOrderCommand{}, errs.NewValueIsInvalidErrorWithCause("payload body", err)
	}

	if err := cmd.validatePayload(); err != nil {
		return UpsertChannelOrderCommand{}, err
	}

	orgID, err := kernel.UUIDFromString(cmd.payload.OrgID)
	if err != nil {
		return UpsertChannelOrderCommand{}, err
	}
	cmd.orgID = orgID

	return cmd, nil
}

// Validate ensures the command was created through the constructor.
func (c UpsertChannelOrderCommand) Validate() error {
	return c.guard.Validate(ErrUpsertChannelOrderCommandIsNotConstructed)
}

// JobID returns the executing job's identifier, used as the idempotency key
// for the command's side effects.
func (c UpsertChannelOrderCommand) JobID() string {
	return c.jobID
}

// OrgID returns the organization the order belongs to.
func (c UpsertChannelOrderCommand) OrgID() kernel.UUID {
	return c.orgID
}

// Payload returns the parsed channel order document.
func (c UpsertChannelOrderCommand) Payload() ChannelOrderPayload {
	return c.payload
}

func (c *UpsertChannelOrderCommand) validatePayload() error {
	p := c.payload
	if err := errors.Join(
		requireString("org_id", p.OrgID),
		requireString("channel", p.Channel),
		requireString("external_order_id", p.ExternalOrderID),
		requireString("currency", p.Currency),
	); err != nil {
		return err
	}

	for _, item := range p.Items {
		if err := errors.Join(
			requireString("external_item_id", item.ExternalItemID),
			requireString("sku", item.SKU),
		); err != nil {
			return err
		}
		if item.Quantity <= 0 {
			return errs.NewValueIsOutOfRangeError("quantity", item.Quantity, 1, nil)
		}
		if item.UnitPriceCents < 0 {
			return errs.NewValueIsOutOfRangeError("unit_price_cents", item.UnitPriceCents, 0, nil)
		}
	}
	return nil
}

func requireString(name, value string) error {
	if value == "" {
		return errs.NewValueIsRequiredError(name)
	}
	return nil
}
