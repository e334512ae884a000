package commands

import (
	"context"
	"errors"
	"strconv"
	"time"

	"fulfillment/internal/core/domain/model/order"
	"fulfillment/internal/core/ports"
)

// Flat per-item weight estimate used for booking. Channel payloads do not
// carry weights.
const defaultItemWeightGrams = 500

// ErrShipmentNotBookable is returned when an order reached the shipment queue
// without the data a booking needs. Terminal: retrying cannot fix it.
var ErrShipmentNotBookable = errors.New("order is not bookable")

// CreateShipmentCommandHandler executes shipment jobs: it books the parcel
// with the order's carrier, stores the label, and advances the order to
// LabelCreated.
//
// The carrier call runs outside any transaction so a slow carrier cannot hold
// row locks. The job id travels to the carrier as the request correlation id,
// making a duplicated booking attempt traceable on both sides. Attaching the
// result, the status transition, the audit record, and the processed-job mark
// commit atomically afterwards.
type CreateShipmentCommandHandler struct {
	uowFactory PipelineUoWFactory
	registry   ports.CarrierRegistry
	labels     ports.LabelStore

	defaultCarrier string
	carrierAccount string
	callTimeout    time.Duration
}

// NewCreateShipmentCommandHandler creates a handler for shipment jobs.
// defaultCarrier is booked when the order does not name one; carrierAccount
// is the account the booking is placed on; callTimeout bounds each carrier
// request.
func NewCreateShipmentCommandHandler(
	uowFactory PipelineUoWFactory,
	registry ports.CarrierRegistry,
	labels ports.LabelStore,
	defaultCarrier, carrierAccount string,
	callTimeout time.Duration,
) CreateShipmentCommandHandler {
	return CreateShipmentCommandHandler{
		uowFactory:     uowFactory,
		registry:       registry,
		labels:         labels,
		defaultCarrier: defaultCarrier,
		carrierAccount: carrierAccount,
		callTimeout:    callTimeout,
	}
}

// Handle books the shipment for the command's order. Re-executing a job whose
// effects already committed is a no-op. Terminal carrier rejections are
// recorded on the order's timeline before the error propagates, so the worker
// parks the job with the order carrying the evidence.
func (h *CreateShipmentCommandHandler) Handle(ctx context.Context, cmd CreateShipmentCommand) error {
	if err := cmd.Validate(); err != nil {
		return err
	}

	o, done, err := h.loadBookableOrder(ctx, cmd)
	if err != nil || done {
		return err
	}

	result, err := h.bookShipment(ctx, cmd, o)
	if err != nil {
		if ports.IsTerminalIntegration(err) {
			if recordErr := h.recordBookingFailure(ctx, o, err); recordErr != nil {
				return recordErr
			}
		}
		return err
	}

	if err = h.labels.Store(ctx, result.CarrierShipmentID, result.Label, result.LabelContentType); err != nil {
		return err
	}

	return h.attachResult(ctx, cmd, result)
}

// loadBookableOrder reads the order and verifies it is ready for booking.
// Returns done=true when the job's effects already committed.
func (h *CreateShipmentCommandHandler) loadBookableOrder(
	ctx context.Context,
	cmd CreateShipmentCommand,
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

	if o.Status() != order.ReadyToShip {
		return nil, false, ErrShipmentNotBookable
	}
	if _, ok := o.ShipTo(); !ok {
		return nil, false, ErrShipmentNotBookable
	}

	return o, false, nil
}

// bookShipment performs the time-bounded carrier call.
func (h *CreateShipmentCommandHandler) bookShipment(
	ctx context.Context,
	cmd CreateShipmentCommand,
	o *order.Order,
) (*ports.ShipmentResult, error) {
	carrierCode := o.CarrierCode()
	if carrierCode == "" {
		carrierCode = h.defaultCarrier
	}

	adapter, err := h.registry.Adapter(carrierCode)
	if err != nil {
		return nil, err
	}

	shipTo, _ := o.ShipTo()
	req := ports.ShipmentRequest{
		Reference:     o.ExternalOrderID(),
		RecipientName: shipTo.RecipientName(),
		AddressLine:   shipTo.AddressLine(),
		City:          shipTo.City(),
		PostalCode:    shipTo.PostalCode(),
		CountryCode:   shipTo.CountryCode(),
		WeightGrams:   o.TotalQuantity() * defaultItemWeightGrams,
		CorrelationID: cmd.JobID(),
	}

	callCtx, cancel := context.WithTimeout(ctx, h.callTimeout)
	defer cancel()

	return adapter.CreateShipment(callCtx, h.carrierAccount, req)
}

// attachResult persists the booking outcome: shipment identifiers on the
// order, the LabelCreated transition, the audit records, and the
// processed-job mark, in one transaction.
func (h *CreateShipmentCommandHandler) attachResult(
	ctx context.Context,
	cmd CreateShipmentCommand,
	result *ports.ShipmentResult,
) error {
	uow := h.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return err
	}

	defer func() {
		_ = uow.Rollback(ctx)
	}()

	orderRepo := uow.OrderRepository()

	o, err := orderRepo.GetForUpdate(ctx, cmd.OrderID())
	if err != nil {
		return err
	}

	from := o.Status()
	if err = o.AttachShipment(adapterCodeOrDefault(o, h.defaultCarrier), result.CarrierShipmentID, result.TrackingNumber); err != nil {
		return err
	}
	if err = o.TransitionTo(order.LabelCreated); err != nil {
		return err
	}
	if err = orderRepo.Update(ctx, o); err != nil {
		return err
	}

	statusEvent, err := order.NewStatusChangedEvent(o.ID(), order.ActorSystem, from, order.LabelCreated, "")
	if err != nil {
		return err
	}
	if err = orderRepo.AppendTimelineEvent(ctx, statusEvent); err != nil {
		return err
	}

	shipmentEvent, err := order.NewTimelineEvent(o.ID(), order.EventShipmentCreated, order.ActorCarrier, map[string]string{
		"carrier":         o.CarrierCode(),
		"shipment_id":     result.CarrierShipmentID,
		"tracking_number": result.TrackingNumber,
		"cost_cents":      strconv.FormatInt(result.CostCents, 10),
	})
	if err != nil {
		return err
	}
	if err = orderRepo.AppendTimelineEvent(ctx, shipmentEvent); err != nil {
		return err
	}

	if err = uow.ProcessedJobRepository().Record(ctx, cmd.JobID()); err != nil {
		return err
	}

	return uow.Commit(ctx)
}

// recordBookingFailure writes the shipment-failed audit record in its own
// transaction, so the evidence survives the job being parked.
func (h *CreateShipmentCommandHandler) recordBookingFailure(ctx context.Context, o *order.Order, cause error) error {
	uow := h.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return err
	}

	defer func() {
		_ = uow.Rollback(ctx)
	}()

	ev, err := order.NewTimelineEvent(o.ID(), order.EventShipmentFailed, order.ActorCarrier, map[string]string{
		"reason": cause.Error(),
	})
	if err != nil {
		return err
	}
	if err = uow.OrderRepository().AppendTimelineEvent(ctx, ev); err != nil {
		return err
	}

	return uow.Commit(ctx)
}

func adapterCodeOrDefault(o *order.Order, fallback string) string {
	if o.CarrierCode() != "" {
		return o.CarrierCode()
	}
	return fallback
}
