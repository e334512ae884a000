package commands

import (
	"errors"

	"fulfillment/internal/core/domain/model/kernel"
	"fulfillment/internal/pkg/errs"
	"fulfillment/internal/pkg/guard"
)

var (
	ErrAdjustStockCommandIsNotConstructed = errors.New(
		"AdjustStockCommand must be created via NewAdjustStockCommand constructor",
	)
)

// AdjustStockCommand represents a manual on-hand correction for one SKU:
// receiving stock, writing off damage, or restocking a return.
type AdjustStockCommand struct { //nolint:recvcheck //using for validation
	orgID   kernel.UUID
	skuCode string
	delta   int
	reason  string

	guard guard.ConstructorGuard
}

// NewAdjustStockCommand creates a command to adjust a SKU's on-hand quantity
// by a signed delta. A zero delta is rejected; the reason is required for the
// audit trail.
func NewAdjustStockCommand(orgID kernel.UUID, skuCode string, delta int, reason string) (AdjustStockCommand, error) {
	cmd := AdjustStockCommand{
		guard: guard.NewConstructorGuard(),
	}

	if err := errors.Join(
		cmd.setOrgID(orgID),
		cmd.setSKUCode(skuCode),
		cmd.setDelta(delta),
		cmd.setReason(reason),
	); err != nil {
		return AdjustStockCommand{}, err
	}

	return cmd, nil
}

// Validate ensures the command was created through the constructor.
func (c AdjustStockCommand) Validate() error {
	return c.guard.Validate(ErrAdjustStockCommandIsNotConstructed)
}

// OrgID returns the organization owning the SKU.
func (c AdjustStockCommand) OrgID() kernel.UUID {
	return c.orgID
}

// SKUCode returns the stock keeping unit code to adjust.
func (c AdjustStockCommand) SKUCode() string {
	return c.skuCode
}

// Delta returns the signed on-hand change.
func (c AdjustStockCommand) Delta() int {
	return c.delta
}

// Reason returns the operator-supplied justification.
func (c AdjustStockCommand) Reason() string {
	return c.reason
}

func (c *AdjustStockCommand) setOrgID(orgID kernel.UUID) error {
	if err := orgID.Validate(); err != nil {
		return err
	}
	c.orgID = orgID
	return nil
}

func (c *AdjustStockCommand) setSKUCode(skuCode string) error {
	if skuCode == "" {
		return errs.NewValueIsRequiredError("skuCode")
	}
	c.skuCode = skuCode
	return nil
}

func (c *AdjustStockCommand) setDelta(delta int) error {
	if delta == 0 {
		return errs.NewValueIsInvalidError("delta")
	}
	c.delta = delta
	return nil
}

func (c *AdjustStockCommand) setReason(reason string) error {
	if reason == "" {
		return errs.NewValueIsRequiredError("reason")
	}
	c.reason = reason
	return nil
}
