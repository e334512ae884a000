package commands

import (
	"context"

	"fulfillment/internal/core/domain/model/inventory"
	"fulfillment/internal/core/domain/model/kernel"
)

// CreateSKUCommandHandler registers new stock keeping units. Uniqueness of
// the (organization, code) pair is enforced by the persistence layer.
type CreateSKUCommandHandler struct {
	uowFactory StockUoWFactory
}

// NewCreateSKUCommandHandler creates a handler for SKU registration.
func NewCreateSKUCommandHandler(uowFactory StockUoWFactory) CreateSKUCommandHandler {
	return CreateSKUCommandHandler{uowFactory: uowFactory}
}

// Handle registers the SKU and returns it.
func (h *CreateSKUCommandHandler) Handle(ctx context.Context, cmd CreateSKUCommand) (*inventory.SKU, error) {
	if err := cmd.Validate(); err != nil {
		return nil, err
	}

	sku, err := inventory.NewSKU(kernel.NewUUID(), cmd.OrgID(), cmd.Code(), cmd.QuantityOnHand())
	if err != nil {
		return nil, err
	}

	uow := h.uowFactory.Create()
	if err = uow.Begin(ctx); err != nil {
		return nil, err
	}

	defer func() {
		_ = uow.Rollback(ctx)
	}()

	if err = uow.InventoryRepository().AddSKU(ctx, sku); err != nil {
		return nil, err
	}

	if err = uow.Commit(ctx); err != nil {
		return nil, err
	}

	return sku, nil
}
