package commands

import (
	"context"
	"errors"

	"fulfillment/internal/core/domain/model/inventory"
	"fulfillment/internal/core/domain/model/kernel"
	"fulfillment/internal/core/domain/model/order"
	"fulfillment/internal/core/domain/services"
	"fulfillment/internal/pkg/errs"
)

// UpsertChannelOrderCommandHandler executes webhook jobs that import channel
// orders. It runs two transactions: the first writes the order document
// (create or reconcile by external id), the second settles the lifecycle
// consequence of the payload and records the processed-job mark.
//
// The split keeps "imported but unreserved" as a tolerated intermediate
// state: if the process dies between the two transactions, the retried job
// reconciles the document to the same content and settles again.
//
// An insufficient-stock outcome completes the job rather than failing it:
// the shortfall is recorded on the order's timeline and the order stays in
// its current status for manual resolution. Retrying could not conjure stock.
type UpsertChannelOrderCommandHandler struct {
	uowFactory PipelineUoWFactory
	allocator  services.StockAllocator
}

// NewUpsertChannelOrderCommandHandler creates a handler for channel order jobs.
func NewUpsertChannelOrderCommandHandler(uowFactory PipelineUoWFactory) UpsertChannelOrderCommandHandler {
	return UpsertChannelOrderCommandHandler{
		uowFactory: uowFactory,
		allocator:  services.NewStockAllocator(),
	}
}

// Handle imports or reconciles the channel order and settles its lifecycle.
// Re-executing a job whose effects already committed is a no-op.
func (h *UpsertChannelOrderCommandHandler) Handle(ctx context.Context, cmd UpsertChannelOrderCommand) error {
	if err := cmd.Validate(); err != nil {
		return err
	}

	o, done, err := h.upsertDocument(ctx, cmd)
	if err != nil || done {
		return err
	}

	return h.settle(ctx, cmd, o)
}

// upsertDocument writes the order document in its own transaction. Returns
// done=true when the job's effects already committed in a prior execution.
func (h *UpsertChannelOrderCommandHandler) upsertDocument(
	ctx context.Context,
	cmd UpsertChannelOrderCommand,
) (*order.Order, bool, error) {
	uow := h.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, false, err
	}

	defer func() {
		_ = uow.Rollback(ctx)
	}()

	processed, err := uow.ProcessedJobRepository().Exists(ctx, cmd.JobID())
	if err != nil {
		return nil, false, err
	}
	if processed {
		return nil, true, nil
	}

	p := cmd.Payload()

	o, err := uow.OrderRepository().GetByExternalID(ctx, cmd.OrgID(), p.Channel, p.ExternalOrderID)
	created := false
	if err != nil {
		var notFound *errs.ObjectNotFoundError
		if !errors.As(err, &notFound) {
			return nil, false, err
		}

		o, err = order.NewOrder(kernel.NewUUID(), cmd.OrgID(), p.Channel, p.ExternalOrderID, p.Currency)
		if err != nil {
			return nil, false, err
		}
		created = true
	}

	for _, line := range p.Items {
		sku, skuErr := uow.InventoryRepository().GetSKUByCode(ctx, cmd.OrgID(), line.SKU)
		if skuErr != nil {
			return nil, false, skuErr
		}
		if err = o.UpsertItem(line.ExternalItemID, sku.ID(), line.Quantity, line.UnitPriceCents); err != nil {
			return nil, false, err
		}
	}

	if p.ShipTo != nil {
		addr, addrErr := kernel.NewAddress(
			p.ShipTo.RecipientName, p.ShipTo.AddressLine,
			p.ShipTo.City, p.ShipTo.PostalCode, p.ShipTo.CountryCode,
		)
		if addrErr != nil {
			return nil, false, addrErr
		}
		if err = o.SetShipTo(addr); err != nil {
			return nil, false, err
		}
	}

	if p.PaymentConfirmed {
		o.ConfirmPayment()
	}

	if created {
		err = uow.OrderRepository().Add(ctx, o)
	} else {
		err = uow.OrderRepository().Update(ctx, o)
	}
	if err != nil {
		return nil, false, err
	}

	if err = uow.Commit(ctx); err != nil {
		return nil, false, err
	}

	return o, false, nil
}

// settle applies the lifecycle consequence of the payload and records the
// processed-job mark, atomically.
func (h *UpsertChannelOrderCommandHandler) settle(
	ctx context.Context,
	cmd UpsertChannelOrderCommand,
	o *order.Order,
) error {
	uow := h.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return err
	}

	defer func() {
		_ = uow.Rollback(ctx)
	}()

	p := cmd.Payload()

	var target order.Status
	switch {
	case p.Cancelled && !o.Status().IsTerminal():
		target = order.Cancelled
	case o.Status() == order.New && p.PaymentConfirmed && len(o.Items()) > 0:
		target = order.Reserved
	}

	if target != order.Unknown {
		_, err := executeTransition(ctx, uow, h.allocator, cmd.OrgID(), o.ID(), target, order.ActorChannel, "")

		switch {
		case err == nil:
		case errors.Is(err, order.ErrInvalidTransition):
			// The order moved on concurrently; the channel's desired state
			// no longer applies. Validation failed before any write.
		case errors.Is(err, inventory.ErrInsufficientStock):
			if err = h.recordShortfall(ctx, uow, o, err); err != nil {
				return err
			}
		default:
			return err
		}
	}

	if err := uow.ProcessedJobRepository().Record(ctx, cmd.JobID()); err != nil {
		return err
	}

	return uow.Commit(ctx)
}

// recordShortfall writes the stock-shortfall audit record. The allocation
// check failed before any counter was written, so the surrounding
// transaction is still clean.
func (h *UpsertChannelOrderCommandHandler) recordShortfall(
	ctx context.Context,
	uow PipelineUoW,
	o *order.Order,
	cause error,
) error {
	ev, err := order.NewTimelineEvent(o.ID(), order.EventStockShortfall, order.ActorSystem, map[string]string{
		"reason": cause.Error(),
	})
	if err != nil {
		return err
	}
	return uow.OrderRepository().AppendTimelineEvent(ctx, ev)
}
