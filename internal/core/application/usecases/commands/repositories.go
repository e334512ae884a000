// Package commands contains business operations that modify system state.
// Implements the Command pattern for write operations in the CQRS architecture.
// All commands follow a consistent pattern: validation, transaction management, and persistence.
package commands

import (
	"context"

	"fulfillment/internal/core/ports"
)

// Unit of Work interfaces provide transaction management for command handlers.
// Each handler depends on the narrowest combination of repositories it needs.
type (
	// TxManager handles database transaction lifecycle.
	// Ensures atomic operations across multiple repository calls.
	TxManager interface {
		Begin(ctx context.Context) error
		Commit(ctx context.Context) error
		Rollback(ctx context.Context) error
	}

	// OrderRepoFactory provides access to the order repository within a transaction.
	OrderRepoFactory interface {
		OrderRepository() ports.OrderRepository
	}

	// InventoryRepoFactory provides access to the inventory repository within a transaction.
	InventoryRepoFactory interface {
		InventoryRepository() ports.InventoryRepository
	}

	// JobRepoFactory provides access to the durable job queue within a transaction.
	JobRepoFactory interface {
		JobRepository() ports.JobRepository
	}

	// ProcessedEventRepoFactory provides access to webhook dedup records within a transaction.
	ProcessedEventRepoFactory interface {
		ProcessedEventRepository() ports.ProcessedEventRepository
	}

	// ProcessedJobRepoFactory provides access to job idempotency records within a transaction.
	ProcessedJobRepoFactory interface {
		ProcessedJobRepository() ports.ProcessedJobRepository
	}

	// StockUoW manages transactions for inventory-only operations.
	StockUoW interface {
		TxManager
		InventoryRepoFactory
	}

	// StockUoWFactory creates new inventory unit of work instances.
	StockUoWFactory interface {
		Create() StockUoW
	}

	// TransitionUoW manages transactions for order state transitions, which
	// touch the order, its reservations, and may enqueue follow-up jobs.
	TransitionUoW interface {
		TxManager
		OrderRepoFactory
		InventoryRepoFactory
		JobRepoFactory
	}

	// TransitionUoWFactory creates new transition unit of work instances.
	TransitionUoWFactory interface {
		Create() TransitionUoW
	}

	// IngestUoW manages transactions for webhook intake: the dedup record and
	// the enqueued job commit atomically.
	IngestUoW interface {
		TxManager
		ProcessedEventRepoFactory
		JobRepoFactory
	}

	// IngestUoWFactory creates new ingestion unit of work instances.
	IngestUoWFactory interface {
		Create() IngestUoW
	}

	// PipelineUoW manages transactions for worker-driven handlers, which pair
	// business mutations with the processed-job record.
	PipelineUoW interface {
		TxManager
		OrderRepoFactory
		InventoryRepoFactory
		JobRepoFactory
		ProcessedJobRepoFactory
	}

	// PipelineUoWFactory creates new pipeline unit of work instances.
	PipelineUoWFactory interface {
		Create() PipelineUoW
	}
)
