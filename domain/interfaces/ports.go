package interfaces

import (
	"context"

	"github.com/google/uuid"

	"raffler/domain/entities"
	"raffler/domain/events"
)

// TreasuryPort moves value to and from accounts and reports the custodial
// balance actually held. A zero-amount Send is a successful no-op. Send
// must report failure distinctly so callers can roll back, and it may
// synchronously call back into the raffle engine before returning; the
// engine commits its bookkeeping before calling Send so such reentrant
// calls observe post-mutation state.
type TreasuryPort interface {
	// Send transfers amount to the given account.
	Send(ctx context.Context, to entities.AccountID, amount entities.Amount) error

	// Balance returns the custodial balance currently held.
	Balance(ctx context.Context) (entities.Amount, error)
}

// RandomSource supplies unpredictable draws. The domain tag separates
// independent draws (winner selection vs. rarity) so their outcomes are
// not trivially correlated. Fairness contract: the output must not be
// derivable or influenceable by the party triggering the draw; providing
// a source with that property is the implementation's concern.
type RandomSource interface {
	Draw(ctx context.Context, domain []byte) (uint64, error)
}

// CollectibleMinter issues the winner's collectible after settlement.
// Metadata format is the minter's concern.
type CollectibleMinter interface {
	Mint(ctx context.Context, winner entities.AccountID, tier entities.Tier, roundToken uuid.UUID) error
}

// EventPublisher publishes domain events
type EventPublisher interface {
	Publish(event events.Event) error
}

// TransactionalEventPublisher extends EventPublisher with transactional semantics.
// Events are buffered until Flush is called (after commit) or Discard (on rollback).
type TransactionalEventPublisher interface {
	EventPublisher

	// Flush publishes all pending events. Called after successful commit.
	Flush(ctx context.Context) error

	// Discard drops all pending events. Called on rollback.
	Discard()
}
