package commands

import (
	"errors"

	"fulfillment/internal/core/domain/model/kernel"
	"fulfillment/internal/pkg/errs"
	"fulfillment/internal/pkg/guard"
)

var (
	ErrCreateSKUCommandIsNotConstructed = errors.New(
		"CreateSKUCommand must be created via NewCreateSKUCommand constructor",
	)
)

// CreateSKUCommand represents the registration of a new stock keeping unit
// with its starting on-hand quantity.
type CreateSKUCommand struct { //nolint:recvcheck //using for validation
	orgID          kernel.UUID
	code           string
	quantityOnHand int

	guard guard.ConstructorGuard
}

// NewCreateSKUCommand creates a command to register a SKU.
func NewCreateSKUCommand(orgID kernel.UUID, code string, quantityOnHand int) (CreateSKUCommand, error) {
	cmd := CreateSKUCommand{
		guard: guard.NewConstructorGuard(),
	}

	if err := errors.Join(
		cmd.setOrgID(orgID),
		cmd.setCode(code),
		cmd.setQuantityOnHand(quantityOnHand),
	); err != nil {
		return CreateSKUCommand{}, err
	}

	return cmd, nil
}

// Validate ensures the command was created through the constructor.
func (c CreateSKUCommand) Validate() error {
	return c.guard.Validate(ErrCreateSKUCommandIsNotConstructed)
}

// OrgID returns the organization the SKU belongs to.
func (c CreateSKUCommand) OrgID() kernel.UUID {
	return c.orgID
}

// Code returns the stock keeping unit code.
func (c CreateSKUCommand) Code() string {
	return c.code
}

// QuantityOnHand returns the starting on-hand quantity.
func (c CreateSKUCommand) QuantityOnHand() int {
	return c.quantityOnHand
}

func (c *CreateSKUCommand) setOrgID(orgID kernel.UUID) error {
	if err := orgID.Validate(); err != nil {
		return err
	}
	c.orgID = orgID
	return nil
}

func (c *CreateSKUCommand) setCode(code string) error {
	if code == "" {
		return errs.NewValueIsRequiredError("code")
	}
	c.code = code
	return nil
}

func (c *CreateSKUCommand) setQuantityOnHand(qty int) error {
	if qty < 0 {
		return errs.NewValueIsOutOfRangeError("quantityOnHand", qty, 0, nil)
	}
	c.quantityOnHand = qty
	return nil
}
