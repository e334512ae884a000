package commands

import (
	"context"

	"fulfillment/internal/core/domain/model/inventory"
)

// AdjustStockCommandHandler executes manual on-hand corrections. The SKU row
// is locked for the adjustment, so a concurrent reservation cannot observe
// the counters mid-change.
type AdjustStockCommandHandler struct {
	uowFactory StockUoWFactory
}

// NewAdjustStockCommandHandler creates a handler for stock adjustments.
func NewAdjustStockCommandHandler(uowFactory StockUoWFactory) AdjustStockCommandHandler {
	return AdjustStockCommandHandler{uowFactory: uowFactory}
}

// Handle applies the adjustment and returns the updated SKU.
// Returns inventory.ErrNegativeInventory when the delta would drop the
// on-hand quantity below zero or below the reserved quantity.
func (h *AdjustStockCommandHandler) Handle(ctx context.Context, cmd AdjustStockCommand) (*inventory.SKU, error) {
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

	invRepo := uow.InventoryRepository()

	sku, err := invRepo.GetSKUByCode(ctx, cmd.OrgID(), cmd.SKUCode())
	if err != nil {
		return nil, err
	}

	sku, err = invRepo.GetSKUForUpdate(ctx, sku.ID())
	if err != nil {
		return nil, err
	}

	if err = sku.Adjust(cmd.Delta()); err != nil {
		return nil, err
	}
	if err = invRepo.UpdateSKU(ctx, sku); err != nil {
		return nil, err
	}

	if err = uow.Commit(ctx); err != nil {
		return nil, err
	}

	return sku, nil
}
