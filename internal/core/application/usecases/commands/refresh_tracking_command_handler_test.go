package commands_test

import (
	"encoding/json"
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

func trackingCommand(t *testing.T, orderID kernel.UUID) commands.RefreshTrackingCommand {
	t.Helper()

	payload, err := json.Marshal(commands.TrackingJobPayload{OrderID: orderID.String()})
	require.NoError(t, err)

	cmd, err := commands.NewRefreshTrackingCommand(
		commands.TrackingJobID(orderID, "2026-08-25T10:00"), payload)
	require.NoError(t, err)
	return cmd
}

func shippedOrder(t *testing.T, orgID kernel.UUID, status order.Status, trackingNumber string) *order.Order {
	t.Helper()

	item, err := order.RestoreItem(kernel.NewUUID(), "LINE-1", kernel.NewUUID(), 2, 1000)
	require.NoError(t, err)

	o, err := order.RestoreOrder(
		kernel.NewUUID(), orgID, "shopmart", "EXT-1001", "USD",
		status, nil, []*order.Item{item}, nil, true, "dhl", "SHIP-1", trackingNumber)
	require.NoError(t, err)
	return o
}

func TestRefreshTrackingCommandHandler_Handle_WalksSkippedScans(t *testing.T) {
	ctx := t.Context()
	o := shippedOrder(t, kernel.NewUUID(), order.LabelCreated, "TRK-1")
	cmd := trackingCommand(t, o.ID())

	result := &ports.TrackingResult{
		Status: ports.TrackingInTransit,
		Events: []ports.TrackingEvent{
			{Status: ports.TrackingInTransit, Description: "departed sort facility", OccurredAt: time.Now().UTC()},
		},
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
	adapter.On("GetTracking", mock.Anything, "acct-1", "TRK-1", cmd.JobID()).Return(result, nil).Once()

	registry := new(MockCarrierRegistry)
	registry.On("Adapter", "dhl").Return(adapter, nil).Once()

	finishUoW := new(MockPipelineUoW)
	finishUoW.On("Begin", ctx).Return(nil).Once()
	finishUoW.On("OrderRepository").Return(orderRepo)
	finishUoW.On("ProcessedJobRepository").Return(processedJobs)
	finishUoW.On("Commit", ctx).Return(nil).Once()
	finishUoW.On("Rollback", ctx).Return(nil).Once()

	orderRepo.On("GetForUpdate", mock.Anything, o.ID()).Return(o, nil).Once()
	// one status event per intermediate step plus the tracking record
	orderRepo.On("AppendTimelineEvent", mock.Anything, mock.AnythingOfType("*order.TimelineEvent")).Return(nil).Times(3)
	orderRepo.On("Update", mock.Anything, o).Return(nil).Once()
	processedJobs.On("Record", mock.Anything, cmd.JobID()).Return(nil).Once()

	factory := new(MockPipelineUoWFactory)
	factory.On("Create").Return(loadUoW).Once()
	factory.On("Create").Return(finishUoW).Once()

	h := commands.NewRefreshTrackingCommandHandler(factory, registry, "acct-1", 30*time.Second)
	require.NoError(t, h.Handle(ctx, cmd))

	assert.Equal(t, order.InTransit, o.Status())

	// the skipped PickedUp scan still earned its milestone
	_, reached := o.MilestoneAt(order.PickedUp)
	assert.True(t, reached)
	adapter.AssertExpectations(t)
	orderRepo.AssertExpectations(t)
	processedJobs.AssertExpectations(t)
}

func TestRefreshTrackingCommandHandler_Handle_NoProgress(t *testing.T) {
	ctx := t.Context()
	o := shippedOrder(t, kernel.NewUUID(), order.InTransit, "TRK-1")
	cmd := trackingCommand(t, o.ID())

	result := &ports.TrackingResult{Status: ports.TrackingPickedUp}

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
	adapter.On("GetTracking", mock.Anything, "acct-1", "TRK-1", cmd.JobID()).Return(result, nil).Once()

	registry := new(MockCarrierRegistry)
	registry.On("Adapter", "dhl").Return(adapter, nil).Once()

	finishUoW := new(MockPipelineUoW)
	finishUoW.On("Begin", ctx).Return(nil).Once()
	finishUoW.On("OrderRepository").Return(orderRepo)
	finishUoW.On("ProcessedJobRepository").Return(processedJobs)
	finishUoW.On("Commit", ctx).Return(nil).Once()
	finishUoW.On("Rollback", ctx).Return(nil).Once()

	orderRepo.On("GetForUpdate", mock.Anything, o.ID()).Return(o, nil).Once()
	processedJobs.On("Record", mock.Anything, cmd.JobID()).Return(nil).Once()

	factory := new(MockPipelineUoWFactory)
	factory.On("Create").Return(loadUoW).Once()
	factory.On("Create").Return(finishUoW).Once()

	h := commands.NewRefreshTrackingCommandHandler(factory, registry, "acct-1", 30*time.Second)
	require.NoError(t, h.Handle(ctx, cmd))

	assert.Equal(t, order.InTransit, o.Status())
	orderRepo.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
	orderRepo.AssertNotCalled(t, "AppendTimelineEvent", mock.Anything, mock.Anything)
}

func TestRefreshTrackingCommandHandler_Handle_DeliveryFailure(t *testing.T) {
	ctx := t.Context()
	o := shippedOrder(t, kernel.NewUUID(), order.OutForDelivery, "TRK-1")
	cmd := trackingCommand(t, o.ID())

	result := &ports.TrackingResult{Status: ports.TrackingFailed}

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
	adapter.On("GetTracking", mock.Anything, "acct-1", "TRK-1", cmd.JobID()).Return(result, nil).Once()

	registry := new(MockCarrierRegistry)
	registry.On("Adapter", "dhl").Return(adapter, nil).Once()

	finishUoW := new(MockPipelineUoW)
	finishUoW.On("Begin", ctx).Return(nil).Once()
	finishUoW.On("OrderRepository").Return(orderRepo)
	finishUoW.On("ProcessedJobRepository").Return(processedJobs)
	finishUoW.On("Commit", ctx).Return(nil).Once()
	finishUoW.On("Rollback", ctx).Return(nil).Once()

	orderRepo.On("GetForUpdate", mock.Anything, o.ID()).Return(o, nil).Once()
	orderRepo.On("AppendTimelineEvent", mock.Anything, mock.AnythingOfType("*order.TimelineEvent")).Return(nil).Twice()
	orderRepo.On("Update", mock.Anything, o).Return(nil).Once()
	processedJobs.On("Record", mock.Anything, cmd.JobID()).Return(nil).Once()

	factory := new(MockPipelineUoWFactory)
	factory.On("Create").Return(loadUoW).Once()
	factory.On("Create").Return(finishUoW).Once()

	h := commands.NewRefreshTrackingCommandHandler(factory, registry, "acct-1", 30*time.Second)
	require.NoError(t, h.Handle(ctx, cmd))

	assert.Equal(t, order.Failed, o.Status())
}

func TestRefreshTrackingCommandHandler_Handle_NoTrackingNumber(t *testing.T) {
	ctx := t.Context()
	o := shippedOrder(t, kernel.NewUUID(), order.LabelCreated, "")
	cmd := trackingCommand(t, o.ID())

	orderRepo := new(MockOrderRepository)
	processedJobs := new(MockProcessedJobRepository)

	loadUoW := new(MockPipelineUoW)
	loadUoW.On("Begin", ctx).Return(nil).Once()
	loadUoW.On("ProcessedJobRepository").Return(processedJobs)
	loadUoW.On("OrderRepository").Return(orderRepo)
	loadUoW.On("Rollback", ctx).Return(nil).Once()

	processedJobs.On("Exists", mock.Anything, cmd.JobID()).Return(false, nil).Once()
	orderRepo.On("Get", mock.Anything, o.ID()).Return(o, nil).Once()

	finishUoW := new(MockPipelineUoW)
	finishUoW.On("Begin", ctx).Return(nil).Once()
	finishUoW.On("ProcessedJobRepository").Return(processedJobs)
	finishUoW.On("Commit", ctx).Return(nil).Once()
	finishUoW.On("Rollback", ctx).Return(nil).Once()

	processedJobs.On("Record", mock.Anything, cmd.JobID()).Return(nil).Once()

	registry := new(MockCarrierRegistry)

	factory := new(MockPipelineUoWFactory)
	factory.On("Create").Return(loadUoW).Once()
	factory.On("Create").Return(finishUoW).Once()

	h := commands.NewRefreshTrackingCommandHandler(factory, registry, "acct-1", 30*time.Second)
	require.NoError(t, h.Handle(ctx, cmd))

	registry.AssertNotCalled(t, "Adapter", mock.Anything)
	processedJobs.AssertExpectations(t)
}

func TestRefreshTrackingCommandHandler_Handle_AlreadyProcessed(t *testing.T) {
	ctx := t.Context()
	orderID := kernel.NewUUID()
	cmd := trackingCommand(t, orderID)

	processedJobs := new(MockProcessedJobRepository)
	processedJobs.On("Exists", mock.Anything, cmd.JobID()).Return(true, nil).Once()

	uow := new(MockPipelineUoW)
	uow.On("Begin", ctx).Return(nil).Once()
	uow.On("ProcessedJobRepository").Return(processedJobs)
	uow.On("Rollback", ctx).Return(nil).Once()

	factory := new(MockPipelineUoWFactory)
	factory.On("Create").Return(uow).Once()

	registry := new(MockCarrierRegistry)

	h := commands.NewRefreshTrackingCommandHandler(factory, registry, "acct-1", 30*time.Second)
	require.NoError(t, h.Handle(ctx, cmd))

	registry.AssertNotCalled(t, "Adapter", mock.Anything)
	factory.AssertNumberOfCalls(t, "Create", 1)
}
