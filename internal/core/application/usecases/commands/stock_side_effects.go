package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	"fulfillment/internal/core/domain/model/job"
	"fulfillment/internal/core/domain/model/kernel"
	"fulfillment/internal/core/domain/model/order"
	"fulfillment/internal/core/domain/services"
	"fulfillment/internal/core/ports"
	"fulfillment/internal/pkg/errs"
)

// Queue and job type names shared by producers and the worker pool.
const (
	QueueWebhooks  = "webhooks"
	QueueShipments = "shipments"
	QueueTracking  = "tracking"

	JobTypeChannelOrderUpsert = "channel_order_upsert"
	JobTypeCarrierShipment    = "carrier_shipment"
	JobTypeTrackingRefresh    = "tracking_refresh"
)

// Retry budgets per job type. Webhook-driven upserts retry aggressively
// because their payload is already durably recorded; carrier calls are
// bounded to avoid hammering a failing account.
const (
	maxAttemptsUpsert   = 10
	maxAttemptsShipment = 5
	maxAttemptsTracking = 5
)

// WebhookJobID derives the deterministic id of a webhook-triggered job, so a
// retried enqueue for the same delivery collapses into one job.
func WebhookJobID(source, externalEventID string) string {
	return fmt.Sprintf("webhook-%s-%s", source, externalEventID)
}

// ShipmentJobID derives the deterministic id of the carrier booking job for
// an order. One booking per order.
func ShipmentJobID(orderID kernel.UUID) string {
	return fmt.Sprintf("shipment-%s", orderID)
}

// TrackingJobID derives the deterministic id of a tracking poll for an order
// within one scheduling window, so overlapping scheduler runs cannot enqueue
// duplicate polls.
func TrackingJobID(orderID kernel.UUID, window string) string {
	return fmt.Sprintf("tracking-%s-%s", orderID, window)
}

// NewTrackingJob builds the tracking poll job for an order within one
// scheduling window. Used by the scheduler that sweeps shipped orders.
func NewTrackingJob(orderID kernel.UUID, window string) (*job.Job, error) {
	payload, err := json.Marshal(TrackingJobPayload{OrderID: orderID.String()})
	if err != nil {
		return nil, err
	}

	return job.NewJob(TrackingJobID(orderID, window), QueueTracking, JobTypeTrackingRefresh, payload, maxAttemptsTracking)
}

// ShipmentJobPayload is the payload of a carrier-shipment job.
type ShipmentJobPayload struct {
	OrderID string `json:"order_id"`
}

// TrackingJobPayload is the payload of a tracking-refresh job.
type TrackingJobPayload struct {
	OrderID string `json:"order_id"`
}

// executeTransition performs one state-machine transition inside the
// caller's open transaction: it locks the order row, validates the move
// against the adjacency table, applies the inventory side effects implied by
// the target status, appends the audit events, and persists the order.
//
// The transition and its side effects commit or roll back together; a failed
// reservation never leaves the order in the target status.
func executeTransition(
	ctx context.Context,
	uow TransitionUoW,
	allocator services.StockAllocator,
	orgID, orderID kernel.UUID,
	target order.Status,
	actor order.Actor,
	comment string,
) (*order.Order, error) {
	orderRepo := uow.OrderRepository()

	o, err := orderRepo.GetForUpdate(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if !o.OrgID().IsEqual(orgID) {
		return nil, errs.NewObjectNotFoundError("order", orderID.String())
	}

	from := o.Status()
	if err = o.TransitionTo(target); err != nil {
		return nil, err
	}

	if target.RequiresReservation() {
		if err = reserveOrderStock(ctx, uow.InventoryRepository(), allocator, o, orderRepo, actor); err != nil {
			return nil, err
		}
	}
	if target.ReleasesReservation() {
		if err = releaseOrderStock(ctx, uow.InventoryRepository(), allocator, o, orderRepo, actor, target.String()); err != nil {
			return nil, err
		}
	}

	if err = orderRepo.Update(ctx, o); err != nil {
		return nil, err
	}

	statusEvent, err := order.NewStatusChangedEvent(o.ID(), actor, from, target, comment)
	if err != nil {
		return nil, err
	}
	if err = orderRepo.AppendTimelineEvent(ctx, statusEvent); err != nil {
		return nil, err
	}

	// Entering ReadyToShip hands the order to the carrier booking pipeline.
	if target == order.ReadyToShip {
		if err = enqueueShipmentJob(ctx, uow.JobRepository(), o.ID()); err != nil {
			return nil, err
		}
	}

	return o, nil
}

// reserveOrderStock places the all-or-nothing reservation for the order's
// items. A second call for an order with active reservations is a no-op, so
// repeating a transition attempt cannot double-decrement availability.
func reserveOrderStock(
	ctx context.Context,
	invRepo ports.InventoryRepository,
	allocator services.StockAllocator,
	o *order.Order,
	orderRepo ports.OrderRepository,
	actor order.Actor,
) error {
	active, err := invRepo.GetActiveReservations(ctx, o.ID())
	if err != nil {
		return err
	}

	skuIDs := make([]kernel.UUID, 0, len(o.Items()))
	seen := make(map[kernel.UUID]struct{}, len(o.Items()))
	for _, item := range o.Items() {
		if _, ok := seen[item.SKUID()]; ok {
			continue
		}
		seen[item.SKUID()] = struct{}{}
		skuIDs = append(skuIDs, item.SKUID())
	}

	skus, err := invRepo.GetSKUsForUpdate(ctx, skuIDs)
	if err != nil {
		return err
	}

	reservations, err := allocator.Allocate(o, skus, active)
	if err != nil {
		return err
	}
	if reservations == nil {
		// Already reserved by an earlier attempt.
		return nil
	}

	for _, sku := range skus {
		if err = invRepo.UpdateSKU(ctx, sku); err != nil {
			return err
		}
	}
	if err = invRepo.AddReservations(ctx, reservations); err != nil {
		return err
	}

	ev, err := order.NewTimelineEvent(o.ID(), order.EventStockReserved, actor, map[string]string{
		"quantity": strconv.Itoa(o.TotalQuantity()),
	})
	if err != nil {
		return err
	}
	return orderRepo.AppendTimelineEvent(ctx, ev)
}

// releaseOrderStock returns the order's active reservations to availability.
// Calling it when no active reservation exists is a no-op, not an error.
func releaseOrderStock(
	ctx context.Context,
	invRepo ports.InventoryRepository,
	allocator services.StockAllocator,
	o *order.Order,
	orderRepo ports.OrderRepository,
	actor order.Actor,
	reason string,
) error {
	active, err := invRepo.GetActiveReservations(ctx, o.ID())
	if err != nil {
		return err
	}
	if len(active) == 0 {
		return nil
	}

	skuIDs := make([]kernel.UUID, 0, len(active))
	for _, reservation := range active {
		skuIDs = append(skuIDs, reservation.SKUID())
	}

	skus, err := invRepo.GetSKUsForUpdate(ctx, skuIDs)
	if err != nil {
		return err
	}

	if err = allocator.ReleaseAll(active, skus); err != nil {
		return err
	}

	var released int
	for _, reservation := range active {
		if err = invRepo.UpdateReservation(ctx, reservation); err != nil {
			return err
		}
		released += reservation.Quantity()
	}
	for _, sku := range skus {
		if err = invRepo.UpdateSKU(ctx, sku); err != nil {
			return err
		}
	}

	ev, err := order.NewTimelineEvent(o.ID(), order.EventStockReleased, actor, map[string]string{
		"quantity": strconv.Itoa(released),
		"reason":   reason,
	})
	if err != nil {
		return err
	}
	return orderRepo.AppendTimelineEvent(ctx, ev)
}

// enqueueShipmentJob enqueues the carrier booking job for the order.
// The deterministic job id makes repeated transitions into ReadyToShip
// (or a retried transaction) enqueue at most one booking.
func enqueueShipmentJob(ctx context.Context, jobRepo ports.JobRepository, orderID kernel.UUID) error {
	payload, err := json.Marshal(ShipmentJobPayload{OrderID: orderID.String()})
	if err != nil {
		return err
	}

	j, err := job.NewJob(ShipmentJobID(orderID), QueueShipments, JobTypeCarrierShipment, payload, maxAttemptsShipment)
	if err != nil {
		return err
	}

	_, err = jobRepo.Enqueue(ctx, j)
	return err
}
