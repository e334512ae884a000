package commands_test

import (
	"context"
	"time"

	"fulfillment/internal/core/application/usecases/commands"
	"fulfillment/internal/core/domain/model/inventory"
	"fulfillment/internal/core/domain/model/job"
	"fulfillment/internal/core/domain/model/kernel"
	"fulfillment/internal/core/domain/model/order"
	"fulfillment/internal/core/ports"

	"github.com/stretchr/testify/mock"
)

type MockOrderRepository struct{ mock.Mock }

func (m *MockOrderRepository) Add(ctx context.Context, o *order.Order) error {
	args := m.Called(ctx, o)
	return args.Error(0)
}

func (m *MockOrderRepository) Update(ctx context.Context, o *order.Order) error {
	args := m.Called(ctx, o)
	return args.Error(0)
}

func (m *MockOrderRepository) Get(ctx context.Context, id kernel.UUID) (*order.Order, error) {
	args := m.Called(ctx, id)
	if o, ok := args.Get(0).(*order.Order); ok {
		return o, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockOrderRepository) GetForUpdate(ctx context.Context, id kernel.UUID) (*order.Order, error) {
	args := m.Called(ctx, id)
	if o, ok := args.Get(0).(*order.Order); ok {
		return o, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockOrderRepository) GetByExternalID(
	ctx context.Context,
	orgID kernel.UUID,
	channel, externalOrderID string,
) (*order.Order, error) {
	args := m.Called(ctx, orgID, channel, externalOrderID)
	if o, ok := args.Get(0).(*order.Order); ok {
		return o, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockOrderRepository) GetAllInStatus(ctx context.Context, statuses ...order.Status) ([]*order.Order, error) {
	args := m.Called(ctx, statuses)
	if orders, ok := args.Get(0).([]*order.Order); ok {
		return orders, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockOrderRepository) AppendTimelineEvent(ctx context.Context, event *order.TimelineEvent) error {
	args := m.Called(ctx, event)
	return args.Error(0)
}

type MockInventoryRepository struct{ mock.Mock }

func (m *MockInventoryRepository) AddSKU(ctx context.Context, sku *inventory.SKU) error {
	args := m.Called(ctx, sku)
	return args.Error(0)
}

func (m *MockInventoryRepository) UpdateSKU(ctx context.Context, sku *inventory.SKU) error {
	args := m.Called(ctx, sku)
	return args.Error(0)
}

func (m *MockInventoryRepository) GetSKU(ctx context.Context, id kernel.UUID) (*inventory.SKU, error) {
	args := m.Called(ctx, id)
	if sku, ok := args.Get(0).(*inventory.SKU); ok {
		return sku, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockInventoryRepository) GetSKUByCode(ctx context.Context, orgID kernel.UUID, code string) (*inventory.SKU, error) {
	args := m.Called(ctx, orgID, code)
	if sku, ok := args.Get(0).(*inventory.SKU); ok {
		return sku, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockInventoryRepository) GetSKUForUpdate(ctx context.Context, id kernel.UUID) (*inventory.SKU, error) {
	args := m.Called(ctx, id)
	if sku, ok := args.Get(0).(*inventory.SKU); ok {
		return sku, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockInventoryRepository) GetSKUsForUpdate(
	ctx context.Context,
	ids []kernel.UUID,
) (map[kernel.UUID]*inventory.SKU, error) {
	args := m.Called(ctx, ids)
	if skus, ok := args.Get(0).(map[kernel.UUID]*inventory.SKU); ok {
		return skus, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockInventoryRepository) AddReservations(ctx context.Context, reservations []*inventory.Reservation) error {
	args := m.Called(ctx, reservations)
	return args.Error(0)
}

func (m *MockInventoryRepository) UpdateReservation(ctx context.Context, reservation *inventory.Reservation) error {
	args := m.Called(ctx, reservation)
	return args.Error(0)
}

func (m *MockInventoryRepository) GetActiveReservations(
	ctx context.Context,
	orderID kernel.UUID,
) ([]*inventory.Reservation, error) {
	args := m.Called(ctx, orderID)
	if reservations, ok := args.Get(0).([]*inventory.Reservation); ok {
		return reservations, args.Error(1)
	}
	return nil, args.Error(1)
}

type MockJobRepository struct{ mock.Mock }

func (m *MockJobRepository) Enqueue(ctx context.Context, j *job.Job) (*job.Job, error) {
	args := m.Called(ctx, j)
	if created, ok := args.Get(0).(*job.Job); ok {
		return created, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockJobRepository) LeaseNextDue(ctx context.Context, queue string, leaseFor time.Duration) (*job.Job, error) {
	args := m.Called(ctx, queue, leaseFor)
	if j, ok := args.Get(0).(*job.Job); ok {
		return j, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockJobRepository) Update(ctx context.Context, j *job.Job) error {
	args := m.Called(ctx, j)
	return args.Error(0)
}

func (m *MockJobRepository) Get(ctx context.Context, id string) (*job.Job, error) {
	args := m.Called(ctx, id)
	if j, ok := args.Get(0).(*job.Job); ok {
		return j, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockJobRepository) ReclaimExpired(ctx context.Context, queue string) (int, error) {
	args := m.Called(ctx, queue)
	return args.Int(0), args.Error(1)
}

type MockProcessedEventRepository struct{ mock.Mock }

func (m *MockProcessedEventRepository) Record(ctx context.Context, source, externalEventID string) (bool, error) {
	args := m.Called(ctx, source, externalEventID)
	return args.Bool(0), args.Error(1)
}

type MockProcessedJobRepository struct{ mock.Mock }

func (m *MockProcessedJobRepository) Exists(ctx context.Context, jobID string) (bool, error) {
	args := m.Called(ctx, jobID)
	return args.Bool(0), args.Error(1)
}

func (m *MockProcessedJobRepository) Record(ctx context.Context, jobID string) error {
	args := m.Called(ctx, jobID)
	return args.Error(0)
}

type MockStockUoW struct{ mock.Mock }

func (m *MockStockUoW) Begin(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *MockStockUoW) Commit(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *MockStockUoW) Rollback(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *MockStockUoW) InventoryRepository() ports.InventoryRepository {
	args := m.Called()
	return args.Get(0).(ports.InventoryRepository)
}

type MockStockUoWFactory struct{ mock.Mock }

func (m *MockStockUoWFactory) Create() commands.StockUoW {
	args := m.Called()
	return args.Get(0).(commands.StockUoW)
}

type MockTransitionUoW struct{ mock.Mock }

func (m *MockTransitionUoW) Begin(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *MockTransitionUoW) Commit(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *MockTransitionUoW) Rollback(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *MockTransitionUoW) OrderRepository() ports.OrderRepository {
	args := m.Called()
	return args.Get(0).(ports.OrderRepository)
}

func (m *MockTransitionUoW) InventoryRepository() ports.InventoryRepository {
	args := m.Called()
	return args.Get(0).(ports.InventoryRepository)
}

func (m *MockTransitionUoW) JobRepository() ports.JobRepository {
	args := m.Called()
	return args.Get(0).(ports.JobRepository)
}

type MockTransitionUoWFactory struct{ mock.Mock }

func (m *MockTransitionUoWFactory) Create() commands.TransitionUoW {
	args := m.Called()
	return args.Get(0).(commands.TransitionUoW)
}

type MockIngestUoW struct{ mock.Mock }

func (m *MockIngestUoW) Begin(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *MockIngestUoW) Commit(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *MockIngestUoW) Rollback(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *MockIngestUoW) ProcessedEventRepository() ports.ProcessedEventRepository {
	args := m.Called()
	return args.Get(0).(ports.ProcessedEventRepository)
}

func (m *MockIngestUoW) JobRepository() ports.JobRepository {
	args := m.Called()
	return args.Get(0).(ports.JobRepository)
}

type MockIngestUoWFactory struct{ mock.Mock }

func (m *MockIngestUoWFactory) Create() commands.IngestUoW {
	args := m.Called()
	return args.Get(0).(commands.IngestUoW)
}

type MockPipelineUoW struct{ mock.Mock }

func (m *MockPipelineUoW) Begin(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *MockPipelineUoW) Commit(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *MockPipelineUoW) Rollback(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *MockPipelineUoW) OrderRepository() ports.OrderRepository {
	args := m.Called()
	return args.Get(0).(ports.OrderRepository)
}

func (m *MockPipelineUoW) InventoryRepository() ports.InventoryRepository {
	args := m.Called()
	return args.Get(0).(ports.InventoryRepository)
}

func (m *MockPipelineUoW) JobRepository() ports.JobRepository {
	args := m.Called()
	return args.Get(0).(ports.JobRepository)
}

func (m *MockPipelineUoW) ProcessedJobRepository() ports.ProcessedJobRepository {
	args := m.Called()
	return args.Get(0).(ports.ProcessedJobRepository)
}

type MockPipelineUoWFactory struct{ mock.Mock }

func (m *MockPipelineUoWFactory) Create() commands.PipelineUoW {
	args := m.Called()
	return args.Get(0).(commands.PipelineUoW)
}

type MockCarrierAdapter struct{ mock.Mock }

func (m *MockCarrierAdapter) Code() string {
	args := m.Called()
	return args.String(0)
}

func (m *MockCarrierAdapter) CreateShipment(
	ctx context.Context,
	account string,
	req ports.ShipmentRequest,
) (*ports.ShipmentResult, error) {
	args := m.Called(ctx, account, req)
	if result, ok := args.Get(0).(*ports.ShipmentResult); ok {
		return result, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockCarrierAdapter) GetTracking(
	ctx context.Context,
	account, trackingNumber, correlationID string,
) (*ports.TrackingResult, error) {
	args := m.Called(ctx, account, trackingNumber, correlationID)
	if result, ok := args.Get(0).(*ports.TrackingResult); ok {
		return result, args.Error(1)
	}
	return nil, args.Error(1)
}

type MockCarrierRegistry struct{ mock.Mock }

func (m *MockCarrierRegistry) Adapter(code string) (ports.CarrierAdapter, error) {
	args := m.Called(code)
	if adapter, ok := args.Get(0).(ports.CarrierAdapter); ok {
		return adapter, args.Error(1)
	}
	return nil, args.Error(1)
}

type MockLabelStore struct{ mock.Mock }

func (m *MockLabelStore) Store(ctx context.Context, shipmentID string, data []byte, contentType string) error {
	args := m.Called(ctx, shipmentID, data, contentType)
	return args.Error(0)
}

func (m *MockLabelStore) Retrieve(ctx context.Context, shipmentID string) ([]byte, string, error) {
	args := m.Called(ctx, shipmentID)
	if data, ok := args.Get(0).([]byte); ok {
		return data, args.String(1), args.Error(2)
	}
	return nil, args.String(1), args.Error(2)
}

// stubSecrets resolves signing secrets from a fixed map.
type stubSecrets map[string][]byte

func (s stubSecrets) SecretFor(source string) ([]byte, error) {
	secret, ok := s[source]
	if !ok {
		return nil, ports.ErrUnknownSource
	}
	return secret, nil
}
