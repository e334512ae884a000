package commands

import (
	"encoding/json"
	"errors"

	"fulfillment/internal/core/domain/model/kernel"
	"fulfillment/internal/pkg/errs"
	"fulfillment/internal/pkg/guard"
)

var (
	ErrRefreshTrackingCommandIsNotConstructed = errors.New(
		"RefreshTrackingCommand must be created via NewRefreshTrackingCommand constructor",
	)
)

// RefreshTrackingCommand represents one tracking job execution that polls the
// carrier for an order's parcel state.
type RefreshTrackingCommand struct { //nolint:recvcheck //using for validation
	jobID   string
	orderID kernel.UUID

	guard guard.ConstructorGuard
}

// NewRefreshTrackingCommand creates a command from a leased tracking job.
// rawPayload is the job's TrackingJobPayload document.
func NewRefreshTrackingCommand(jobID string, rawPayload []byte) (RefreshTrackingCommand, error) {
	cmd := RefreshTrackingCommand{
		guard: guard.NewConstructorGuard(),
	}

	if jobID == "" {
		return RefreshTrackingCommand{}, errs.NewValueIsRequiredError("jobID")
	}
	cmd.jobID = jobID

	var payload TrackingJobPayload
	if err := json.Unmarshal(rawPayload, &payload); err != nil {
		return RefreshTrackingCommand{}, errs.NewValueIsInvalidErrorWithCause("payload", err)
	}

	orderID, err := kernel.UUIDFromString(payload.OrderID)
	if err != nil {
		return RefreshTrackingCommand{}, err
	}
	cmd.orderID = orderID

	return cmd, nil
}

// Validate ensures the command was created through the constructor.
func (c RefreshTrackingCommand) Validate() error {
	return c.guard.Validate(ErrRefreshTrackingCommandIsNotConstructed)
}

// JobID returns the executing job's identifier, used as the idempotency key
// for the command's side effects.
func (c RefreshTrackingCommand) JobID() string {
	return c.jobID
}

// OrderID returns the order whose parcel state to poll.
func (c RefreshTrackingCommand) OrderID() kernel.UUID {
	return c.orderID
}
