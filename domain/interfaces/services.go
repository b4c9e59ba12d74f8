package interfaces

import (
	"context"
	"time"

	"github.com/google/uuid"

	"raffler/domain/entities"
)

// RoundSnapshot is the queryable view of the live round: configuration,
// timing, the full slot sequence with tombstones visible, and the
// previous winner record.
type RoundSnapshot struct {
	EntryFee      entities.Amount
	RoundDuration time.Duration
	RoundToken    uuid.UUID
	RoundStarted  time.Time
	Phase         entities.Phase
	Slots         []entities.Slot
	ActiveCount   int
	RecordedFees  entities.Amount
	LastWinner    *entities.WinnerRecord
}

// RaffleService is the raffle ledger and prize-distribution engine.
// Operations are serialized by the caller (single-writer); the engine
// holds no internal lock so a synchronous treasury callback may re-enter
// it on the same goroutine and will observe committed state.
type RaffleService interface {
	// Enter joins identities into the current round for the tendered
	// payment. Fails with ErrPaymentMismatch unless paid equals the entry
	// fee times the batch size, and with ErrDuplicateEntrant if any
	// identity would hold two active slots. An empty batch with zero
	// payment is accepted and still announced.
	Enter(ctx context.Context, identities []entities.AccountID, paid entities.Amount) error

	// IndexOf returns the slot index of an identity's active slot; the
	// boolean distinguishes "active at index 0" from "not entered".
	IndexOf(identity entities.AccountID) (int, bool)

	// Refund returns the caller's stake for the slot at index and
	// tombstones the slot. The tombstone is committed before the money
	// moves; transfer failure rolls it back.
	Refund(ctx context.Context, index int, caller entities.AccountID) error

	// TryDraw settles the round if it is over and has enough entrants,
	// paying the winner and accruing the operator fee share.
	TryDraw(ctx context.Context, now time.Time) (*entities.Settlement, error)

	// Withdraw pays all recorded operator fees to the fee recipient.
	// Gated on custody covering the recorded balance, never on equality.
	Withdraw(ctx context.Context) (*entities.Withdrawal, error)

	// SetFeeRecipient updates the operator-fee payout destination.
	// Access control is the caller's concern.
	SetFeeRecipient(recipient entities.AccountID)

	// Snapshot returns the queryable state of the live round.
	Snapshot() RoundSnapshot
}

// PrizeAssigner maps an independent rarity draw to a prize tier. No
// coupling to payments or registry state.
type PrizeAssigner interface {
	Assign(ctx context.Context, roundToken uuid.UUID) (entities.Tier, uint64, error)
}
