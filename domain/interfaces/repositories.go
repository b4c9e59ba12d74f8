package interfaces

import (
	"context"

	"github.com/google/uuid"

	"raffler/domain/entities"
)

// RoundRepository archives settled rounds. The live ledger is in-memory;
// the archive is write-behind bookkeeping and is never consulted by the
// core invariants.
type RoundRepository interface {
	// RecordSettlement persists a settled round's outcome.
	RecordSettlement(ctx context.Context, settlement *entities.Settlement) error

	// GetByToken retrieves a settlement by its round token.
	// Returns nil, nil when not found.
	GetByToken(ctx context.Context, token uuid.UUID) (*entities.Settlement, error)

	// ListRecent returns the most recently settled rounds, newest first.
	ListRecent(ctx context.Context, limit int) ([]*entities.Settlement, error)

	// WinCountByAccount returns how many archived rounds the account won.
	WinCountByAccount(ctx context.Context, account entities.AccountID) (int64, error)
}

// WithdrawalRepository archives completed operator-fee withdrawals.
type WithdrawalRepository interface {
	// Record persists a completed withdrawal.
	Record(ctx context.Context, withdrawal *entities.Withdrawal) error

	// ListRecent returns the most recent withdrawals, newest first.
	ListRecent(ctx context.Context, limit int) ([]*entities.Withdrawal, error)
}
