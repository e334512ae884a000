package commands

import (
	"context"
	"time"

	"fulfillment/internal/core/domain/model/kernel"
	"fulfillment/internal/core/domain/model/order"
	"fulfillment/internal/core/ports"
)

// carriageChain is the forward path a parcel takes once a label exists.
// Tracking updates never move an order backwards along it.
var carriageChain = []order.Status{
	order.LabelCreated,
	order.PickedUp,
	order.InTransit,
	order.OutForDelivery,
	order.Delivered,
}

// trackingTargets maps the carrier-neutral parcel state to the lifecycle
// status it implies.
var trackingTargets = map[ports.TrackingStatus]order.Status{
	ports.TrackingPickedUp:       order.PickedUp,
	ports.TrackingInTransit:      order.InTransit,
	ports.TrackingOutForDelivery: order.OutForDelivery,
	ports.TrackingDelivered:      order.Delivered,
	ports.TrackingFailed:         order.Failed,
}

// RefreshTrackingCommandHandler executes tracking jobs: it polls the carrier
// for the parcel state and advances the order along the carriage chain to
// match, stepping through any statuses the carrier's reporting skipped so
// every reached status still gets its milestone and audit record.
//
// The carrier call runs outside any transaction. A poll that reports no
// progress completes the job without touching the order.
type RefreshTrackingCommandHandler struct {
	uowFactory  PipelineUoWFactory
	registry    ports.CarrierRegistry
	account     string
	callTimeout time.Duration
}

// NewRefreshTrackingCommandHandler creates a handler for tracking jobs.
func NewRefreshTrackingCommandHandler(
	uowFactory PipelineUoWFactory,
	registry ports.CarrierRegistry,
	account string,
	callTimeout time.Duration,
) RefreshTrackingCommandHandler {
	return RefreshTrackingCommandHandler{
		uowFactory:  uowFactory,
		registry:    registry,
		account:     account,
		callTimeout: callTimeout,
	}
}

// Handle polls and applies the parcel state for the command's order.
// Re-executing a job whose effects already committed is a no-op, as is a job
// for an order that left the carriage chain in the meantime.
func (h *RefreshTrackingCommandHandler) Handle(ctx context.Context, cmd RefreshTrackingCommand) error {
	if err := cmd.Validate(); err != nil {
		return err
	}

	o, done, err := h.loadTrackableOrder(ctx, cmd)
	if err != nil || done {
		return err
	}
	if o == nil {
		// Nothing to poll; mark the job done.
		return h.finish(ctx, cmd, nil, nil)
	}

	result, err := h.pollCarrier(ctx, cmd, o)
	if err != nil {
		return err
	}

	return h.finish(ctx, cmd, o, result)
}

// loadTrackableOrder reads the order and decides whether a poll is useful.
// Returns (nil, false, nil) when the order is off the carriage chain or has
// no tracking number yet.
func (h *RefreshTrackingCommandHandler) loadTrackableOrder(
	ctx context.Context,
	cmd RefreshTrackingCommand,
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

	o, err := uow.OrderRepository().Get(ctx, cmd.OrderID())
	if err != nil {
		return nil, false, err
	}

	if chainIndex(o.Status()) < 0 || o.Status() == order.Delivered || o.TrackingNumber() == "" {
		return nil, false, nil
	}
	return o, false, nil
}

// pollCarrier performs the time-bounded tracking call.
func (h *RefreshTrackingCommandHandler) pollCarrier(
	ctx context.Context,
	cmd RefreshTrackingCommand,
	o *order.Order,
) (*ports.TrackingResult, error) {
	adapter, err := h.registry.Adapter(o.CarrierCode())
	if err != nil {
		return nil, err
	}

	callCtx, cancel := context.WithTimeout(ctx, h.callTimeout)
	defer cancel()

	return adapter.GetTracking(callCtx, h.account, o.TrackingNumber(), cmd.JobID())
}

// finish applies the poll outcome and records the processed-job mark in one
// transaction. A nil result records the mark only.
func (h *RefreshTrackingCommandHandler) finish(
	ctx context.Context,
	cmd RefreshTrackingCommand,
	o *order.Order,
	result *ports.TrackingResult,
) error {
	uow := h.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return err
	}

	defer func() {
		_ = uow.Rollback(ctx)
	}()

	if o != nil && result != nil {
		if err := h.applyTracking(ctx, uow, cmd.OrderID(), result); err != nil {
			return err
		}
	}

	if err := uow.ProcessedJobRepository().Record(ctx, cmd.JobID()); err != nil {
		return err
	}

	return uow.Commit(ctx)
}

// applyTracking advances the freshly locked order to the status the poll
// implies, one chain step at a time, and appends the tracking audit record.
func (h *RefreshTrackingCommandHandler) applyTracking(
	ctx context.Context,
	uow PipelineUoW,
	orderID kernel.UUID,
	result *ports.TrackingResult,
) error {
	orderRepo := uow.OrderRepository()

	o, err := orderRepo.GetForUpdate(ctx, orderID)
	if err != nil {
		return err
	}

	target, known := trackingTargets[result.Status]
	if !known {
		return nil
	}
	if chainIndex(o.Status()) < 0 || o.Status() == order.Delivered {
		// The order left the chain between the poll and the lock.
		return nil
	}

	steps := stepsTowards(o.Status(), target)
	if len(steps) == 0 {
		return nil
	}

	for _, step := range steps {
		from := o.Status()
		if err = o.TransitionTo(step); err != nil {
			return err
		}

		statusEvent, evErr := order.NewStatusChangedEvent(o.ID(), order.ActorCarrier, from, step, "")
		if evErr != nil {
			return evErr
		}
		if err = orderRepo.AppendTimelineEvent(ctx, statusEvent); err != nil {
			return err
		}
	}

	if err = orderRepo.Update(ctx, o); err != nil {
		return err
	}

	metadata := map[string]string{"status": string(result.Status)}
	if n := len(result.Events); n > 0 {
		metadata["description"] = result.Events[n-1].Description
	}

	trackingEvent, err := order.NewTimelineEvent(o.ID(), order.EventTrackingUpdated, order.ActorCarrier, metadata)
	if err != nil {
		return err
	}
	return orderRepo.AppendTimelineEvent(ctx, trackingEvent)
}

// stepsTowards returns the chain statuses to pass through, in order, to move
// from the current status to the target. An empty slice means no progress:
// the order is already at or past the target, or off the chain entirely.
func stepsTowards(current, target order.Status) []order.Status {
	currentIdx := chainIndex(current)
	if currentIdx < 0 {
		return nil
	}

	if target == order.Failed {
		// Delivery failure is only reachable once the parcel is in carriage;
		// walk forward to InTransit first when the carrier skipped scans.
		steps := stepsTowards(current, order.InTransit)
		if current == order.OutForDelivery {
			steps = nil
		}
		return append(steps, order.Failed)
	}

	targetIdx := chainIndex(target)
	if targetIdx <= currentIdx {
		return nil
	}
	return carriageChain[currentIdx+1 : targetIdx+1]
}

func chainIndex(s order.Status) int {
	for i, status := range carriageChain {
		if status == s {
			return i
		}
	}
	return -1
}
