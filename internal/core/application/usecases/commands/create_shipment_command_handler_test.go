package commands_test

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"fulfillment/internal/core/application/usecases/commands"
	"fulfillment/internal/core/domain/model/kernel"
	"fulfillment/internal/core/domain/model/order"
	"fulfillment/internal/core/ports"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func shipmentCommand(t *testing.T, orderID kernel.UUID) commands.CreateShipmentCommand {
	t.Helper()

	payload, err := json.Marshal(commands.ShipmentJobPayload{OrderID: orderID.String()})
	require.NoError(t, err)

	cmd, err := commands.NewCreateShipmentCommand(commands.ShipmentJobID(orderID), payload)
	require.NoError(t, err)
	return cmd
}

func readyToShipOrder(t *testing.T, orgID kernel.UUID) *order.Order {
	t.Helper()

	item, err := order.RestoreItem(kernel.NewUUID(), "LINE-1", kernel.NewUUID(), 2, 1000)
	require.NoError(t, err)

	addr, err := kernel.NewAddress("Jane Doe", "1 Main St", "Springfield", "62701", "US")
	require.NoError(t, err)

	o, err := order.RestoreOrder(
		kernel.NewUUID(), orgID, "shopmart", "EXT-1001", "USD",
		order.ReadyToShip, nil, []*order.Item{item}, &addr, true, "", "", "")
	require.NoError(t, err)
	return o
}

func TestCreateShipmentCommandHandler_Handle_BooksAndAttaches(t *testing.T) {
	ctx := t.Context()
	orgID := kernel.NewUUID()
	o := readyToShipOrder(t, orgID)
	cmd := shipmentCommand(t, o.ID())

	result := &ports.ShipmentResult{
		CarrierShipmentID: "SHIP-1",
		TrackingNumber:    "TRK-1",
		Label:             []byte("%PDF-1.4"),
		LabelContentType:  "application/pdf",
		CostCents:         899,
	}

	orderRepo := new(MockOrderRepository)
	processedJobs := new(MockProcessedJobRepository)

	loadUoW := new(MockPipelineUoW)
	loadUoW.On("Begin", ctx).Return(nil).Once()
	loadUoW.On("ProcessedJobRepository").Return(processedJobs)
	loadUoW.On("OrderRepository").Return(orderRepo)
	loadUoW.On("Rollback", ctx).Return(nil).Once()

	processedJobs.On("Exists", mock.Anything, cmd.JobID()).Return(false, nil).Once()
	orderRepo.On("Get", mock.Anything, o.ID()).Return(o, nil).Once()

	adapter := new(MockCarrierAdapter)
	adapter.On("CreateShipment", mock.Anything, "acct-1", mock.MatchedBy(func(req ports.ShipmentRequest) bool {
		return req.Reference == "EXT-1001" &&
			req.CorrelationID == cmd.JobID() &&
			req.WeightGrams == 2*500 &&
			req.PostalCode == "62701"
	})).Return(result, nil).Once()

	registry := new(MockCarrierRegistry)
	registry.On("Adapter", "dhl").Return(adapter, nil).Once()

	labels := new(MockLabelStore)
	labels.On("Store", mock.Anything, "SHIP-1", result.Label, "application/pdf").Return(nil).Once()

	attachUoW := new(MockPipelineUoW)
	attachUoW.On("Begin", ctx).Return(nil).Once()
	attachUoW.On("OrderRepository").Return(orderRepo)
	attachUoW.On("ProcessedJobRepository").Return(processedJobs)
	attachUoW.On("Commit", ctx).Return(nil).Once()
	attachUoW.On("Rollback", ctx).Return(nil).Once()

	orderRepo.On("GetForUpdate", mock.Anything, o.ID()).Return(o, nil).Once()
	orderRepo.On("Update", mock.Anything, o).Return(nil).Once()
	orderRepo.On("AppendTimelineEvent", mock.Anything, mock.AnythingOfType("*order.TimelineEvent")).Return(nil).Twice()
	processedJobs.On("Record", mock.Anything, cmd.JobID()).Return(nil).Once()

	factory := new(MockPipelineUoWFactory)
	factory.On("Create").Return(loadUoW).Once()
	factory.On("Create").Return(attachUoW).Once()

	h := commands.NewCreateShipmentCommandHandler(factory, registry, labels, "dhl", "acct-1", 30*time.Second)
	require.NoError(t, h.Handle(ctx, cmd))

	assert.Equal(t, order.LabelCreated, o.Status())
	assert.Equal(t, "dhl", o.CarrierCode())
	assert.Equal(t, "SHIP-1", o.CarrierShipmentID())
	assert.Equal(t, "TRK-1", o.TrackingNumber())
	adapter.AssertExpectations(t)
	labels.AssertExpectations(t)
	orderRepo.AssertExpectations(t)
	processedJobs.AssertExpectations(t)
}

func TestCreateShipmentCommandHandler_Handle_AlreadyProcessed(t *testing.T) {
	ctx := t.Context()
	orderID := kernel.NewUUID()
	cmd := shipmentCommand(t, orderID)

	processedJobs := new(MockProcessedJobRepository)
	processedJobs.On("Exists", mock.Anything, cmd.JobID()).Return(true, nil).Once()

	uow := new(MockPipelineUoW)
	uow.On("Begin", ctx).Return(nil).Once()
	uow.On("ProcessedJobRepository").Return(processedJobs)
	uow.On("Rollback", ctx).Return(nil).Once()

	factory := new(MockPipelineUoWFactory)
	factory.On("Create").Return(uow).Once()

	registry := new(MockCarrierRegistry)
	labels := new(MockLabelStore)

	h := commands.NewCreateShipmentCommandHandler(factory, registry, labels, "dhl", "acct-1", 30*time.Second)
	require.NoError(t, h.Handle(ctx, cmd))

	registry.AssertNotCalled(t, "Adapter", mock.Anything)
	factory.AssertNumberOfCalls(t, "Create", 1)
}

func TestCreateShipmentCommandHandler_Handle_NotBookable(t *testing.T) {
	ctx := t.Context()
	orgID := kernel.NewUUID()
	o := newOrderInStatus(t, orgID, kernel.NewUUID(), order.New, 2)
	cmd := shipmentCommand(t, o.ID())

	orderRepo := new(MockOrderRepository)
	processedJobs := new(MockProcessedJobRepository)

	uow := new(MockPipelineUoW)
	uow.On("Begin", ctx).Return(nil).Once()
	uow.On("ProcessedJobRepository").Return(processedJobs)
	uow.On("OrderRepository").Return(orderRepo)
	uow.On("Rollback", ctx).Return(nil).Once()

	processedJobs.On("Exists", mock.Anything, cmd.JobID()).Return(false, nil).Once()
	orderRepo.On("Get", mock.Anything, o.ID()).Return(o, nil).Once()

	factory := new(MockPipelineUoWFactory)
	factory.On("Create").Return(uow).Once()

	registry := new(MockCarrierRegistry)
	labels := new(MockLabelStore)

	h := commands.NewCreateShipmentCommandHandler(factory, registry, labels, "dhl", "acct-1", 30*time.Second)
	err := h.Handle(ctx, cmd)

	require.ErrorIs(t, err, commands.ErrShipmentNotBookable)
	registry.AssertNotCalled(t, "Adapter", mock.Anything)
}

func TestCreateShipmentCommandHandler_Handle_TerminalCarrierRejection(t *testing.T) {
	ctx := t.Context()
	orgID := kernel.NewUUID()
	o := readyToShipOrder(t, orgID)
	cmd := shipmentCommand(t, o.ID())

	terminal := ports.NewTerminalIntegrationError("create_shipment", "dhl", 400, errors.New("invalid address"))

	orderRepo := new(MockOrderRepository)
	processedJobs := new(MockProcessedJobRepository)

	loadUoW := new(MockPipelineUoW)
	loadUoW.On("Begin", ctx).Return(nil).Once()
	loadUoW.On("ProcessedJobRepository").Return(processedJobs)
	loadUoW.On("OrderRepository").Return(orderRepo)
	loadUoW.On("Rollback", ctx).Return(nil).Once()

	processedJobs.On("Exists", mock.Anything, cmd.JobID()).Return(false, nil).Once()
	orderRepo.On("Get", mock.Anything, o.ID()).Return(o, nil).Once()

	adapter := new(MockCarrierAdapter)
	adapter.On("CreateShipment", mock.Anything, "acct-1", mock.AnythingOfType("ports.ShipmentRequest")).
		Return(nil, terminal).Once()

	registry := new(MockCarrierRegistry)
	registry.On("Adapter", "dhl").Return(adapter, nil).Once()

	failureUoW := new(MockPipelineUoW)
	failureUoW.On("Begin", ctx).Return(nil).Once()
	failureUoW.On("OrderRepository").Return(orderRepo)
	failureUoW.On("Commit", ctx).Return(nil).Once()
	failureUoW.On("Rollback", ctx).Return(nil).Once()

	orderRepo.On("AppendTimelineEvent", mock.Anything, mock.MatchedBy(func(ev *order.TimelineEvent) bool {
		return ev.Type() == order.EventShipmentFailed
	})).Return(nil).Once()

	factory := new(MockPipelineUoWFactory)
	factory.On("Create").Return(loadUoW).Once()
	factory.On("Create").Return(failureUoW).Once()

	labels := new(MockLabelStore)

	h := commands.NewCreateShipmentCommandHandler(factory, registry, labels, "dhl", "acct-1", 30*time.Second)
	err := h.Handle(ctx, cmd)

	require.Error(t, err)
	assert.True(t, ports.IsTerminalIntegration(err))
	labels.AssertNotCalled(t, "Store", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	orderRepo.AssertExpectations(t)
}

func TestCreateShipmentCommandHandler_Handle_RetryableCarrierFailure(t *testing.T) {
	ctx := t.Context()
	orgID := kernel.NewUUID()
	o := readyToShipOrder(t, orgID)
	cmd := shipmentCommand(t, o.ID())

	retryable := ports.NewRetryableIntegrationError("create_shipment", "dhl", 503, errors.New("unavailable"))

	orderRepo := new(MockOrderRepository)
	processedJobs := new(MockProcessedJobRepository)

	uow := new(MockPipelineUoW)
	uow.On("Begin", ctx).Return(nil).Once()
	uow.On("ProcessedJobRepository").Return(processedJobs)
	uow.On("OrderRepository").Return(orderRepo)
	uow.On("Rollback", ctx).Return(nil).Once()

	processedJobs.On("Exists", mock.Anything, cmd.JobID()).Return(false, nil).Once()
	orderRepo.On("Get", mock.Anything, o.ID()).Return(o, nil).Once()

	adapter := new(MockCarrierAdapter)
	adapter.On("CreateShipment", mock.Anything, "acct-1", mock.AnythingOfType("ports.ShipmentRequest")).
		Return(nil, retryable).Once()

	registry := new(MockCarrierRegistry)
	registry.On("Adapter", "dhl").Return(adapter, nil).Once()

	factory := new(MockPipelineUoWFactory)
	factory.On("Create").Return(uow).Once()

	labels := new(MockLabelStore)

	h := commands.NewCreateShipmentCommandHandler(factory, registry, labels, "dhl", "acct-1", 30*time.Second)
	err := h.Handle(ctx, cmd)

	require.Error(t, err)
	assert.True(t, ports.IsRetryableIntegration(err))

	// no failure evidence for transient errors; the retry will try again
	factory.AssertNumberOfCalls(t, "Create", 1)
	orderRepo.AssertNotCalled(t, "AppendTimelineEvent", mock.Anything, mock.Anything)
}
