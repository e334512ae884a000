package cmd

import (
	"context"
	"fmt"
	"log/slog"

	"fulfillment/internal/adapters/out/carrier"
	"fulfillment/internal/adapters/out/labelstore"
	"fulfillment/internal/adapters/out/postgres"
	"fulfillment/internal/adapters/out/secrets"
	"fulfillment/internal/core/application/usecases/commands"
	"fulfillment/internal/core/application/usecases/queries"
	"fulfillment/internal/core/domain/model/job"
	"fulfillment/internal/core/ports"
	"fulfillment/internal/jobs"

	"gorm.io/gorm"
)

// CompositionRoot wires every adapter and use case explicitly. All
// construction decisions live here; nothing else in the codebase knows
// which concrete implementations are in play.
type CompositionRoot struct {
	config Config
	gormDB *gorm.DB
	logger *slog.Logger

	uowFactory *postgres.GormUnitOfWorkFactory
	registry   *carrier.Registry
	labels     *labelstore.FilesystemStore
	secrets    *secrets.StaticSecrets
}

// NewCompositionRoot builds the object graph. Fails only on adapters that
// touch the environment, like the label directory.
func NewCompositionRoot(config Config, gormDB *gorm.DB, logger *slog.Logger) (*CompositionRoot, error) {
	labels, err := labelstore.NewFilesystemStore(config.LabelDir)
	if err != nil {
		return nil, fmt.Errorf("label store: %w", err)
	}

	registry := carrier.NewRegistry(
		carrier.NewDHLAdapter(config.DHLBaseURL, config.DHLAPIKey, logger),
		carrier.NewFedExAdapter(config.FedExBaseURL, config.FedExAPIKey, logger),
	)

	return &CompositionRoot{
		config:     config,
		gormDB:     gormDB,
		logger:     logger,
		uowFactory: postgres.NewGormUnitOfWorkFactory(gormDB),
		registry:   registry,
		labels:     labels,
		secrets:    secrets.NewStaticSecrets(config.WebhookSecrets),
	}, nil
}

func (c *CompositionRoot) CreateIngestEventCommandHandler() commands.IngestEventCommandHandler {
	var f commands.IngestUoWFactory = FuncIngestUoWFactory(func() commands.IngestUoW {
		return c.uowFactory.Create()
	})
	return commands.NewIngestEventCommandHandler(f, c.secrets)
}

func (c *CompositionRoot) CreateTransitionOrderCommandHandler() commands.TransitionOrderCommandHandler {
	var f commands.TransitionUoWFactory = FuncTransitionUoWFactory(func() commands.TransitionUoW {
		return c.uowFactory.Create()
	})
	return commands.NewTransitionOrderCommandHandler(f)
}

func (c *CompositionRoot) CreateCreateSKUCommandHandler() commands.CreateSKUCommandHandler {
	return commands.NewCreateSKUCommandHandler(c.stockUoWFactory())
}

func (c *CompositionRoot) CreateAdjustStockCommandHandler() commands.AdjustStockCommandHandler {
	return commands.NewAdjustStockCommandHandler(c.stockUoWFactory())
}

func (c *CompositionRoot) CreateUpsertChannelOrderCommandHandler() commands.UpsertChannelOrderCommandHandler {
	return commands.NewUpsertChannelOrderCommandHandler(c.pipelineUoWFactory())
}

func (c *CompositionRoot) CreateCreateShipmentCommandHandler() commands.CreateShipmentCommandHandler {
	return commands.NewCreateShipmentCommandHandler(
		c.pipelineUoWFactory(),
		c.registry,
		c.labels,
		c.config.DefaultCarrier,
		c.config.CarrierAccount,
		c.config.CarrierCallTimeout,
	)
}

func (c *CompositionRoot) CreateRefreshTrackingCommandHandler() commands.RefreshTrackingCommandHandler {
	return commands.NewRefreshTrackingCommandHandler(
		c.pipelineUoWFactory(),
		c.registry,
		c.config.CarrierAccount,
		c.config.CarrierCallTimeout,
	)
}

func (c *CompositionRoot) CreateGetOrderQueryHandler() queries.GetOrderQueryHandler {
	return queries.NewGetOrderQueryHandler(c.gormDB)
}

func (c *CompositionRoot) CreateGetStockQueryHandler() queries.GetStockQueryHandler {
	return queries.NewGetStockQueryHandler(c.gormDB)
}

// CreateJobManager wires the worker pool, its handlers, and the sweeps.
func (c *CompositionRoot) CreateJobManager() *jobs.JobManager {
	upsertHandler := c.CreateUpsertChannelOrderCommandHandler()
	shipmentHandler := c.CreateCreateShipmentCommandHandler()
	trackingHandler := c.CreateRefreshTrackingCommandHandler()

	handlers := map[string]jobs.HandlerFunc{
		commands.JobTypeChannelOrderUpsert: func(ctx context.Context, j *job.Job) error {
			cmd, err := commands.NewUpsertChannelOrderCommand(j.ID(), j.Payload())
			if err != nil {
				return err
			}
			return upsertHandler.Handle(ctx, cmd)
		},
		commands.JobTypeCarrierShipment: func(ctx context.Context, j *job.Job) error {
			cmd, err := commands.NewCreateShipmentCommand(j.ID(), j.Payload())
			if err != nil {
				return err
			}
			return shipmentHandler.Handle(ctx, cmd)
		},
		commands.JobTypeTrackingRefresh: func(ctx context.Context, j *job.Job) error {
			cmd, err := commands.NewRefreshTrackingCommand(j.ID(), j.Payload())
			if err != nil {
				return err
			}
			return trackingHandler.Handle(ctx, cmd)
		},
	}

	queues := []jobs.QueueConfig{
		{Name: commands.QueueWebhooks, Workers: c.config.WebhookWorkers, PollInterval: c.config.PollInterval, LeaseFor: c.config.LeaseFor},
		{Name: commands.QueueShipments, Workers: c.config.ShipmentWorkers, PollInterval: c.config.PollInterval, LeaseFor: c.config.LeaseFor},
		{Name: commands.QueueTracking, Workers: c.config.TrackingWorkers, PollInterval: c.config.PollInterval, LeaseFor: c.config.LeaseFor},
	}

	var uowFactory ports.UnitOfWorkFactory = c.uowFactory

	pool := jobs.NewWorkerPool(uowFactory, handlers, queues, c.logger)
	trackingScheduler := jobs.NewTrackingSchedulerJob(uowFactory, c.config.TrackingSchedule, c.logger)
	leaseReclaim := jobs.NewLeaseReclaimJob(
		uowFactory,
		[]string{commands.QueueWebhooks, commands.QueueShipments, commands.QueueTracking},
		c.config.ReclaimSchedule,
		c.logger,
	)

	return jobs.NewJobManager(pool, trackingScheduler, leaseReclaim)
}

func (c *CompositionRoot) stockUoWFactory() commands.StockUoWFactory {
	return FuncStockUoWFactory(func() commands.StockUoW {
		return c.uowFactory.Create()
	})
}

func (c *CompositionRoot) pipelineUoWFactory() commands.PipelineUoWFactory {
	return FuncPipelineUoWFactory(func() commands.PipelineUoW {
		return c.uowFactory.Create()
	})
}

type FuncStockUoWFactory func() commands.StockUoW

func (f FuncStockUoWFactory) Create() commands.StockUoW {
	return f()
}

type FuncTransitionUoWFactory func() commands.TransitionUoW

func (f FuncTransitionUoWFactory) Create() commands.TransitionUoW {
	return f()
}

type FuncIngestUoWFactory func() commands.IngestUoW

func (f FuncIngestUoWFactory) Create() commands.IngestUoW {
	return f()
}

type FuncPipelineUoWFactory func() commands.PipelineUoW

func (f FuncPipelineUoWFactory) Create() commands.PipelineUoW {
	return f()
}
