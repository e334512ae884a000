package ports

import (
	"context"
)

// UnitOfWorkFactory creates new UnitOfWork instances for each request/command.
// This ensures proper isolation between concurrent operations.
type UnitOfWorkFactory interface {
	Create() UnitOfWork
}

// UnitOfWork represents a business transaction boundary.
// It provides transaction control and repositories bound to the active
// transaction. Client code must explicitly manage transaction lifecycle.
//
// Every step that mutates shared state during one job attempt or one
// transition call happens inside a single UnitOfWork, so a crash or retry
// either sees all of the attempt's effects or none of them.
type UnitOfWork interface {
	// Begin starts a new database transaction.
	Begin(ctx context.Context) error

	// Commit commits the current transaction.
	// Returns error if no active transaction or commit fails.
	Commit(ctx context.Context) error

	// Rollback rolls back the current transaction.
	// Returns error if no active transaction or rollback fails.
	Rollback(ctx context.Context) error

	// OrderRepository returns an OrderRepository bound to the current transaction.
	OrderRepository() OrderRepository

	// InventoryRepository returns an InventoryRepository bound to the current transaction.
	InventoryRepository() InventoryRepository

	// ProcessedEventRepository returns a ProcessedEventRepository bound to the current transaction.
	ProcessedEventRepository() ProcessedEventRepository

	// ProcessedJobRepository returns a ProcessedJobRepository bound to the current transaction.
	ProcessedJobRepository() ProcessedJobRepository

	// JobRepository returns a JobRepository bound to the current transaction.
	JobRepository() JobRepository
}
