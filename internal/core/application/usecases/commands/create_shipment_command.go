package commands

import (
	"encoding/json"
	"errors"

	"fulfillment/internal/core/domain/model/kernel"
	"fulfillment/internal/pkg/errs"
	"fulfillment/internal/pkg/guard"
)

var (
	ErrCreateShipmentCommandIsNotConstructed = errors.New(
		"CreateShipmentCommand must be created via NewCreateShipmentCommand constructor",
	)
)

// CreateShipmentCommand represents one shipment job execution that books a
// parcel with the order's carrier.
type CreateShipmentCommand struct { //nolint:recvcheck //using for validation
	jobID   string
	orderID kernel.UUID

	guard guard.ConstructorGuard
}

// NewCreateShipmentCommand creates a command from a leased shipment job.
// rawPayload is the job's ShipmentJobPayload document.
func NewCreateShipmentCommand(jobID string, rawPayload []byte) (CreateShipmentCommand, error) {
	cmd := CreateShipmentCommand{
		guard: guard.NewConstructorGuard(),
	}

	if jobID == "" {
		return CreateShipmentCommand{}, errs.NewValueIsRequiredError("jobID")
	}
	cmd.jobID = jobID

	var payload ShipmentJobPayload
	if err := json.Unmarshal(rawPayload, &payload); err != nil {
		return CreateShipmentCommand{}, errs.NewValueIsInvalidErrorWithCause("payload", err)
	}

	orderID, err := kernel.UUIDFromString(payload.OrderID)
	if err != nil {
		return CreateShipmentCommand{}, err
	}
	cmd.orderID = orderID

	return cmd, nil
}

// Validate ensures the command was created through the constructor.
func (c CreateShipmentCommand) Validate() error {
	return c.guard.Validate(ErrCreateShipmentCommandIsNotConstructed)
}

// JobID returns the executing job's identifier, used as the idempotency key
// for the command's side effects.
func (c CreateShipmentCommand) JobID() string {
	return c.jobID
}

// OrderID returns the order to book a shipment for.
func (c CreateShipmentCommand) OrderID() kernel.UUID {
	return c.orderID
}
