package commands

import (
	"errors"

	"fulfillment/internal/core/domain/model/kernel"
	"fulfillment/internal/core/domain/model/order"
	"fulfillment/internal/pkg/guard"
)

var (
	ErrTransitionOrderCommandIsNotConstructed = errors.New(
		"TransitionOrderCommand must be created via NewTransitionOrderCommand constructor",
	)
)

// TransitionOrderCommand represents a request to move an order to a target
// lifecycle status on behalf of an actor.
//
// Example:
//
//	cmd, err := NewTransitionOrderCommand(orgID, orderID, order.ReadyToShip, order.ActorUser, "packed by warehouse")
//	if err != nil {
//	    return fmt.Errorf("invalid transition request: %w", err)
//	}
//
//	updated, err := handler.Handle(ctx, cmd)
type TransitionOrderCommand struct { //nolint:recvcheck //using for validation
	orgID        kernel.UUID
	orderID      kernel.UUID
	targetStatus order.Status
	actor        order.Actor
	comment      string

	guard guard.ConstructorGuard
}

// NewTransitionOrderCommand creates a command to transition an order.
// Validates identifiers, target status, and actor. The comment is optional.
func NewTransitionOrderCommand(
	orgID, orderID kernel.UUID,
	targetStatus order.Status,
	actor order.Actor,
	comment string,
) (TransitionOrderCommand, error) {
	cmd := TransitionOrderCommand{
		comment: comment,
		guard:   guard.NewConstructorGuard(),
	}

	if err := errors.Join(
		cmd.setOrgID(orgID),
		cmd.setOrderID(orderID),
		cmd.setTargetStatus(targetStatus),
		cmd.setActor(actor),
	); err != nil {
		return TransitionOrderCommand{}, err
	}

	return cmd, nil
}

// Validate ensures the command was created through the constructor.
func (c TransitionOrderCommand) Validate() error {
	return c.guard.Validate(ErrTransitionOrderCommandIsNotConstructed)
}

// OrgID returns the caller's organization scope.
func (c TransitionOrderCommand) OrgID() kernel.UUID {
	return c.orgID
}

// OrderID returns the order to transition.
func (c TransitionOrderCommand) OrderID() kernel.UUID {
	return c.orderID
}

// TargetStatus returns the requested lifecycle status.
func (c TransitionOrderCommand) TargetStatus() order.Status {
	return c.targetStatus
}

// Actor returns who requested the transition.
func (c TransitionOrderCommand) Actor() order.Actor {
	return c.actor
}

// Comment returns the optional free-form note recorded on the timeline.
func (c TransitionOrderCommand) Comment() string {
	return c.comment
}

func (c *TransitionOrderCommand) setOrgID(orgID kernel.UUID) error {
	if err := orgID.Validate(); err != nil {
		return err
	}
	c.orgID = orgID
	return nil
}

func (c *TransitionOrderCommand) setOrderID(orderID kernel.UUID) error {
	if err := orderID.Validate(); err != nil {
		return err
	}
	c.orderID = orderID
	return nil
}

func (c *TransitionOrderCommand) setTargetStatus(target order.Status) error {
	if err := target.Validate(); err != nil {
		return err
	}
	c.targetStatus = target
	return nil
}

func (c *TransitionOrderCommand) setActor(actor order.Actor) error {
	if err := actor.Validate(); err != nil {
		return err
	}
	c.actor = actor
	return nil
}
