package application

import (
	"context"

	"raffler/domain/interfaces"
)

// UnitOfWork bundles the archive repositories with a database transaction
// and a transactional event bus. Events published through EventBus are
// buffered and go out only after Commit succeeds.
type UnitOfWork interface {
	// Begin starts a new transaction
	Begin(ctx context.Context) error

	// Commit commits the transaction and flushes buffered events
	Commit() error

	// Rollback rolls back the transaction and discards buffered events
	Rollback() error

	// RoundRepository returns the settled-round archive scoped to this transaction
	RoundRepository() interfaces.RoundRepository

	// WithdrawalRepository returns the withdrawal archive scoped to this transaction
	WithdrawalRepository() interfaces.WithdrawalRepository

	// EventBus returns the transactional event publisher
	EventBus() interfaces.EventPublisher
}

// UnitOfWorkFactory creates units of work
type UnitOfWorkFactory interface {
	Create() UnitOfWork
}
