package commands_test

import (
	"encoding/json"
	"testing"

	"fulfillment/internal/core/application/usecases/commands"
	"fulfillment/internal/core/domain/model/inventory"
	"fulfillment/internal/core/domain/model/kernel"
	"fulfillment/internal/core/domain/model/order"
	"fulfillment/internal/pkg/errs"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

const testJobID = "webhook-shopmart-ord-1001"

func channelOrderPayload(t *testing.T, orgID kernel.UUID, mutate func(*commands.ChannelOrderPayload)) []byte {
	t.Helper()

	p := commands.ChannelOrderPayload{
		OrgID:           orgID.String(),
		Channel:         "shopmart",
		ExternalOrderID: "EXT-1001",
		Currency:        "USD",
		Items: []commands.ChannelOrderItem{
			{ExternalItemID: "LINE-1", SKU: "WIDGET-RED", Quantity: 2, UnitPriceCents: 1000},
		},
	}
	if mutate != nil {
		mutate(&p)
	}

	body, err := json.Marshal(p)
	require.NoError(t, err)

	raw, err := json.Marshal(commands.WebhookJobPayload{
		Source:    "shopmart",
		EventType: commands.EventTypeOrderCreated,
		Body:      body,
	})
	require.NoError(t, err)
	return raw
}

func TestUpsertChannelOrderCommandHandler_Handle_CreatesNewOrder(t *testing.T) {
	ctx := t.Context()
	orgID := kernel.NewUUID()
	cmd, err := commands.NewUpsertChannelOrderCommand(testJobID, channelOrderPayload(t, orgID, nil))
	require.NoError(t, err)

	sku, err := inventory.NewSKU(kernel.NewUUID(), orgID, "WIDGET-RED", 10)
	require.NoError(t, err)

	orderRepo := new(MockOrderRepository)
	invRepo := new(MockInventoryRepository)
	processedJobs := new(MockProcessedJobRepository)

	docUoW := new(MockPipelineUoW)
	docUoW.On("Begin", ctx).Return(nil).Once()
	docUoW.On("ProcessedJobRepository").Return(processedJobs)
	docUoW.On("OrderRepository").Return(orderRepo)
	docUoW.On("InventoryRepository").Return(invRepo)
	docUoW.On("Commit", ctx).Return(nil).Once()
	docUoW.On("Rollback", ctx).Return(nil).Once()

	processedJobs.On("Exists", mock.Anything, testJobID).Return(false, nil).Once()
	orderRepo.On("GetByExternalID", mock.Anything, orgID, "shopmart", "EXT-1001").
		Return(nil, errs.NewObjectNotFoundError("order", "EXT-1001")).Once()
	invRepo.On("GetSKUByCode", mock.Anything, orgID, "WIDGET-RED").Return(sku, nil).Once()
	orderRepo.On("Add", mock.Anything, mock.MatchedBy(func(o *order.Order) bool {
		return o.ExternalOrderID() == "EXT-1001" && len(o.Items()) == 1 && o.Status() == order.New
	})).Return(nil).Once()

	settleUoW := new(MockPipelineUoW)
	settleUoW.On("Begin", ctx).Return(nil).Once()
	settleUoW.On("ProcessedJobRepository").Return(processedJobs)
	settleUoW.On("Commit", ctx).Return(nil).Once()
	settleUoW.On("Rollback", ctx).Return(nil).Once()

	processedJobs.On("Record", mock.Anything, testJobID).Return(nil).Once()

	factory := new(MockPipelineUoWFactory)
	factory.On("Create").Return(docUoW).Once()
	factory.On("Create").Return(settleUoW).Once()

	h := commands.NewUpsertChannelOrderCommandHandler(factory)
	require.NoError(t, h.Handle(ctx, cmd))

	orderRepo.AssertExpectations(t)
	invRepo.AssertExpectations(t)
	processedJobs.AssertExpectations(t)
	factory.AssertExpectations(t)
}

func TestUpsertChannelOrderCommandHandler_Handle_AlreadyProcessed(t *testing.T) {
	ctx := t.Context()
	orgID := kernel.NewUUID()
	cmd, err := commands.NewUpsertChannelOrderCommand(testJobID, channelOrderPayload(t, orgID, nil))
	require.NoError(t, err)

	processedJobs := new(MockProcessedJobRepository)
	processedJobs.On("Exists", mock.Anything, testJobID).Return(true, nil).Once()

	uow := new(MockPipelineUoW)
	uow.On("Begin", ctx).Return(nil).Once()
	uow.On("ProcessedJobRepository").Return(processedJobs)
	uow.On("Rollback", ctx).Return(nil).Once()

	factory := new(MockPipelineUoWFactory)
	factory.On("Create").Return(uow).Once()

	h := commands.NewUpsertChannelOrderCommandHandler(factory)
	require.NoError(t, h.Handle(ctx, cmd))

	uow.AssertNotCalled(t, "OrderRepository")
	uow.AssertNotCalled(t, "Commit", mock.Anything)
	factory.AssertNumberOfCalls(t, "Create", 1)
}

func TestUpsertChannelOrderCommandHandler_Handle_ReconcilesExistingOrder(t *testing.T) {
	ctx := t.Context()
	orgID := kernel.NewUUID()
	cmd, err := commands.NewUpsertChannelOrderCommand(testJobID, channelOrderPayload(t, orgID, nil))
	require.NoError(t, err)

	sku, err := inventory.NewSKU(kernel.NewUUID(), orgID, "WIDGET-RED", 10)
	require.NoError(t, err)

	existing, err := order.NewOrder(kernel.NewUUID(), orgID, "shopmart", "EXT-1001", "USD")
	require.NoError(t, err)
	require.NoError(t, existing.UpsertItem("LINE-1", sku.ID(), 1, 1200))

	orderRepo := new(MockOrderRepository)
	invRepo := new(MockInventoryRepository)
	processedJobs := new(MockProcessedJobRepository)

	docUoW := new(MockPipelineUoW)
	docUoW.On("Begin", ctx).Return(nil).Once()
	docUoW.On("ProcessedJobRepository").Return(processedJobs)
	docUoW.On("OrderRepository").Return(orderRepo)
	docUoW.On("InventoryRepository").Return(invRepo)
	docUoW.On("Commit", ctx).Return(nil).Once()
	docUoW.On("Rollback", ctx).Return(nil).Once()

	processedJobs.On("Exists", mock.Anything, testJobID).Return(false, nil).Once()
	orderRepo.On("GetByExternalID", mock.Anything, orgID, "shopmart", "EXT-1001").Return(existing, nil).Once()
	invRepo.On("GetSKUByCode", mock.Anything, orgID, "WIDGET-RED").Return(sku, nil).Once()
	orderRepo.On("Update", mock.Anything, existing).Return(nil).Once()

	settleUoW := new(MockPipelineUoW)
	settleUoW.On("Begin", ctx).Return(nil).Once()
	settleUoW.On("ProcessedJobRepository").Return(processedJobs)
	settleUoW.On("Commit", ctx).Return(nil).Once()
	settleUoW.On("Rollback", ctx).Return(nil).Once()

	processedJobs.On("Record", mock.Anything, testJobID).Return(nil).Once()

	factory := new(MockPipelineUoWFactory)
	factory.On("Create").Return(docUoW).Once()
	factory.On("Create").Return(settleUoW).Once()

	h := commands.NewUpsertChannelOrderCommandHandler(factory)
	require.NoError(t, h.Handle(ctx, cmd))

	// the payload line replaced the stale quantity and price
	require.Len(t, existing.Items(), 1)
	assert.Equal(t, 2, existing.Items()[0].Quantity())
	assert.Equal(t, int64(1000), existing.Items()[0].UnitPriceCents())
	orderRepo.AssertNotCalled(t, "Add", mock.Anything, mock.Anything)
	orderRepo.AssertExpectations(t)
}

func TestUpsertChannelOrderCommandHandler_Handle_PaidOrderGetsReserved(t *testing.T) {
	ctx := t.Context()
	orgID := kernel.NewUUID()
	cmd, err := commands.NewUpsertChannelOrderCommand(testJobID, channelOrderPayload(t, orgID,
		func(p *commands.ChannelOrderPayload) { p.PaymentConfirmed = true }))
	require.NoError(t, err)

	skuID := kernel.NewUUID()
	sku, err := inventory.RestoreSKU(skuID, orgID, "WIDGET-RED", 10, 0)
	require.NoError(t, err)

	// the aggregate the settle transaction locks
	locked := newOrderInStatus(t, orgID, skuID, order.New, 2)

	orderRepo := new(MockOrderRepository)
	invRepo := new(MockInventoryRepository)
	processedJobs := new(MockProcessedJobRepository)

	docUoW := new(MockPipelineUoW)
	docUoW.On("Begin", ctx).Return(nil).Once()
	docUoW.On("ProcessedJobRepository").Return(processedJobs)
	docUoW.On("OrderRepository").Return(orderRepo)
	docUoW.On("InventoryRepository").Return(invRepo)
	docUoW.On("Commit", ctx).Return(nil).Once()
	docUoW.On("Rollback", ctx).Return(nil).Once()

	processedJobs.On("Exists", mock.Anything, testJobID).Return(false, nil).Once()
	orderRepo.On("GetByExternalID", mock.Anything, orgID, "shopmart", "EXT-1001").
		Return(nil, errs.NewObjectNotFoundError("order", "EXT-1001")).Once()
	invRepo.On("GetSKUByCode", mock.Anything, orgID, "WIDGET-RED").Return(sku, nil).Once()
	orderRepo.On("Add", mock.Anything, mock.AnythingOfType("*order.Order")).Return(nil).Once()

	settleUoW := new(MockPipelineUoW)
	settleUoW.On("Begin", ctx).Return(nil).Once()
	settleUoW.On("ProcessedJobRepository").Return(processedJobs)
	settleUoW.On("OrderRepository").Return(orderRepo)
	settleUoW.On("InventoryRepository").Return(invRepo)
	settleUoW.On("Commit", ctx).Return(nil).Once()
	settleUoW.On("Rollback", ctx).Return(nil).Once()

	orderRepo.On("GetForUpdate", mock.Anything, mock.AnythingOfType("kernel.UUID")).Return(locked, nil).Once()
	invRepo.On("GetActiveReservations", mock.Anything, locked.ID()).Return([]*inventory.Reservation{}, nil).Once()
	invRepo.On("GetSKUsForUpdate", mock.Anything, []kernel.UUID{skuID}).
		Return(map[kernel.UUID]*inventory.SKU{skuID: sku}, nil).Once()
	invRepo.On("UpdateSKU", mock.Anything, sku).Return(nil).Once()
	invRepo.On("AddReservations", mock.Anything, mock.AnythingOfType("[]*inventory.Reservation")).Return(nil).Once()
	orderRepo.On("AppendTimelineEvent", mock.Anything, mock.AnythingOfType("*order.TimelineEvent")).Return(nil).Twice()
	orderRepo.On("Update", mock.Anything, locked).Return(nil).Once()
	processedJobs.On("Record", mock.Anything, testJobID).Return(nil).Once()

	factory := new(MockPipelineUoWFactory)
	factory.On("Create").Return(docUoW).Once()
	factory.On("Create").Return(settleUoW).Once()

	h := commands.NewUpsertChannelOrderCommandHandler(factory)
	require.NoError(t, h.Handle(ctx, cmd))

	assert.Equal(t, order.Reserved, locked.Status())
	assert.Equal(t, 2, sku.Reserved())
	orderRepo.AssertExpectations(t)
	invRepo.AssertExpectations(t)
	processedJobs.AssertExpectations(t)
}

func TestUpsertChannelOrderCommandHandler_Handle_ShortfallCompletesJob(t *testing.T) {
	ctx := t.Context()
	orgID := kernel.NewUUID()
	cmd, err := commands.NewUpsertChannelOrderCommand(testJobID, channelOrderPayload(t, orgID,
		func(p *commands.ChannelOrderPayload) {
			p.PaymentConfirmed = true
			p.Items[0].Quantity = 5
		}))
	require.NoError(t, err)

	skuID := kernel.NewUUID()
	sku, err := inventory.RestoreSKU(skuID, orgID, "WIDGET-RED", 3, 0)
	require.NoError(t, err)

	locked := newOrderInStatus(t, orgID, skuID, order.New, 5)

	orderRepo := new(MockOrderRepository)
	invRepo := new(MockInventoryRepository)
	processedJobs := new(MockProcessedJobRepository)

	docUoW := new(MockPipelineUoW)
	docUoW.On("Begin", ctx).Return(nil).Once()
	docUoW.On("ProcessedJobRepository").Return(processedJobs)
	docUoW.On("OrderRepository").Return(orderRepo)
	docUoW.On("InventoryRepository").Return(invRepo)
	docUoW.On("Commit", ctx).Return(nil).Once()
	docUoW.On("Rollback", ctx).Return(nil).Once()

	processedJobs.On("Exists", mock.Anything, testJobID).Return(false, nil).Once()
	orderRepo.On("GetByExternalID", mock.Anything, orgID, "shopmart", "EXT-1001").
		Return(nil, errs.NewObjectNotFoundError("order", "EXT-1001")).Once()
	invRepo.On("GetSKUByCode", mock.Anything, orgID, "WIDGET-RED").Return(sku, nil).Once()
	orderRepo.On("Add", mock.Anything, mock.AnythingOfType("*order.Order")).Return(nil).Once()

	settleUoW := new(MockPipelineUoW)
	settleUoW.On("Begin", ctx).Return(nil).Once()
	settleUoW.On("ProcessedJobRepository").Return(processedJobs)
	settleUoW.On("OrderRepository").Return(orderRepo)
	settleUoW.On("InventoryRepository").Return(invRepo)
	settleUoW.On("Commit", ctx).Return(nil).Once()
	settleUoW.On("Rollback", ctx).Return(nil).Once()

	orderRepo.On("GetForUpdate", mock.Anything, mock.AnythingOfType("kernel.UUID")).Return(locked, nil).Once()
	invRepo.On("GetActiveReservations", mock.Anything, locked.ID()).Return([]*inventory.Reservation{}, nil).Once()
	invRepo.On("GetSKUsForUpdate", mock.Anything, []kernel.UUID{skuID}).
		Return(map[kernel.UUID]*inventory.SKU{skuID: sku}, nil).Once()

	// the shortfall is recorded as evidence and the job still completes
	orderRepo.On("AppendTimelineEvent", mock.Anything, mock.MatchedBy(func(ev *order.TimelineEvent) bool {
		return ev.Type() == order.EventStockShortfall
	})).Return(nil).Once()
	processedJobs.On("Record", mock.Anything, testJobID).Return(nil).Once()

	factory := new(MockPipelineUoWFactory)
	factory.On("Create").Return(docUoW).Once()
	factory.On("Create").Return(settleUoW).Once()

	h := commands.NewUpsertChannelOrderCommandHandler(factory)
	require.NoError(t, h.Handle(ctx, cmd))

	assert.Equal(t, 0, sku.Reserved())
	invRepo.AssertNotCalled(t, "AddReservations", mock.Anything, mock.Anything)
	processedJobs.AssertExpectations(t)
}

func TestUpsertChannelOrderCommandHandler_Handle_CancelledPayload(t *testing.T) {
	ctx := t.Context()
	orgID := kernel.NewUUID()
	cmd, err := commands.NewUpsertChannelOrderCommand(testJobID, channelOrderPayload(t, orgID,
		func(p *commands.ChannelOrderPayload) { p.Cancelled = true }))
	require.NoError(t, err)

	skuID := kernel.NewUUID()
	sku, err := inventory.NewSKU(skuID, orgID, "WIDGET-RED", 10)
	require.NoError(t, err)

	locked := newOrderInStatus(t, orgID, skuID, order.New, 2)

	orderRepo := new(MockOrderRepository)
	invRepo := new(MockInventoryRepository)
	processedJobs := new(MockProcessedJobRepository)

	docUoW := new(MockPipelineUoW)
	docUoW.On("Begin", ctx).Return(nil).Once()
	docUoW.On("ProcessedJobRepository").Return(processedJobs)
	docUoW.On("OrderRepository").Return(orderRepo)
	docUoW.On("InventoryRepository").Return(invRepo)
	docUoW.On("Commit", ctx).Return(nil).Once()
	docUoW.On("Rollback", ctx).Return(nil).Once()

	processedJobs.On("Exists", mock.Anything, testJobID).Return(false, nil).Once()
	orderRepo.On("GetByExternalID", mock.Anything, orgID, "shopmart", "EXT-1001").
		Return(nil, errs.NewObjectNotFoundError("order", "EXT-1001")).Once()
	invRepo.On("GetSKUByCode", mock.Anything, orgID, "WIDGET-RED").Return(sku, nil).Once()
	orderRepo.On("Add", mock.Anything, mock.AnythingOfType("*order.Order")).Return(nil).Once()

	settleUoW := new(MockPipelineUoW)
	settleUoW.On("Begin", ctx).Return(nil).Once()
	settleUoW.On("ProcessedJobRepository").Return(processedJobs)
	settleUoW.On("OrderRepository").Return(orderRepo)
	settleUoW.On("InventoryRepository").Return(invRepo)
	settleUoW.On("Commit", ctx).Return(nil).Once()
	settleUoW.On("Rollback", ctx).Return(nil).Once()

	orderRepo.On("GetForUpdate", mock.Anything, mock.AnythingOfType("kernel.UUID")).Return(locked, nil).Once()
	invRepo.On("GetActiveReservations", mock.Anything, locked.ID()).Return([]*inventory.Reservation{}, nil).Once()
	orderRepo.On("Update", mock.Anything, locked).Return(nil).Once()
	orderRepo.On("AppendTimelineEvent", mock.Anything, mock.AnythingOfType("*order.TimelineEvent")).Return(nil).Once()
	processedJobs.On("Record", mock.Anything, testJobID).Return(nil).Once()

	factory := new(MockPipelineUoWFactory)
	factory.On("Create").Return(docUoW).Once()
	factory.On("Create").Return(settleUoW).Once()

	h := commands.NewUpsertChannelOrderCommandHandler(factory)
	require.NoError(t, h.Handle(ctx, cmd))

	assert.Equal(t, order.Cancelled, locked.Status())
	orderRepo.AssertExpectations(t)
}

func TestUpsertChannelOrderCommandHandler_Handle_ValidationError(t *testing.T) {
	ctx := t.Context()
	factory := new(MockPipelineUoWFactory)

	h := commands.NewUpsertChannelOrderCommandHandler(factory)
	err := h.Handle(ctx, commands.UpsertChannelOrderCommand{})

	require.Error(t, err)
	factory.AssertNotCalled(t, "Create")
}
