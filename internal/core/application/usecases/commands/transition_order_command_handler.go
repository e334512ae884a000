package commands

import (
	"context"

	"fulfillment/internal/core/domain/model/order"
	"fulfillment/internal/core/domain/services"
)

// TransitionOrderCommandHandler executes order lifecycle transitions.
//
// The transition and its inventory side effects are atomic: reservation
// failure rolls back the whole operation, leaving the order in its original
// status with the error surfaced to the caller for manual resolution.
// Concurrent transition attempts on the same order serialize on the order's
// row lock, so two callers can never both succeed in moving one order down
// divergent paths.
//
// Example:
//
//	handler := NewTransitionOrderCommandHandler(uowFactory)
//	cmd, _ := NewTransitionOrderCommand(orgID, orderID, order.Cancelled, order.ActorUser, "customer request")
//
//	updated, err := handler.Handle(ctx, cmd)
//	if errors.Is(err, order.ErrInvalidTransition) {
//	    // surface to caller; no state was changed
//	}
type TransitionOrderCommandHandler struct {
	uowFactory TransitionUoWFactory
	allocator  services.StockAllocator
}

// NewTransitionOrderCommandHandler creates a handler for order transitions.
func NewTransitionOrderCommandHandler(uowFactory TransitionUoWFactory) TransitionOrderCommandHandler {
	return TransitionOrderCommandHandler{
		uowFactory: uowFactory,
		allocator:  services.NewStockAllocator(),
	}
}

// Handle processes the transition command and returns the updated order.
func (h *TransitionOrderCommandHandler) Handle(ctx context.Context, cmd TransitionOrderCommand) (*order.Order, error) {
	if err := cmd.Validate(); err != nil {
		return nil, err
	}

	uow := h.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, err
	}

	defer func() {
		_ = uow.Rollback(ctx)
	}()

	o, err := executeTransition(
		ctx, uow, h.allocator,
		cmd.OrgID(), cmd.OrderID(),
		cmd.TargetStatus(), cmd.Actor(), cmd.Comment(),
	)
	if err != nil {
		return nil, err
	}

	if err = uow.Commit(ctx); err != nil {
		return nil, err
	}

	return o, nil
}
