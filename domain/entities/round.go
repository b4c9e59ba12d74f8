package entities

import (
	"time"

	"github.com/google/uuid"
)

// Phase is the raffle state machine's current phase. The machine cycles
// Open -> Settling -> Open indefinitely; there is no terminal phase.
type Phase string

const (
	// PhaseOpen accepts entries and refunds.
	PhaseOpen Phase = "open"
	// PhaseSettling is a draw mid-settlement; entries, refunds and
	// withdrawals arriving now are rejected.
	PhaseSettling Phase = "settling"
	// PhaseRefunding is a refund transfer in flight; entries, draws and
	// withdrawals arriving now are rejected, while a reentrant refund
	// proceeds far enough to observe the committed tombstone.
	PhaseRefunding Phase = "refunding"
)

// MinEntrants is the smallest active entrant count a draw accepts.
const MinEntrants = 4

// Round is the live round's identity and timing. Entry fee and duration
// are engine configuration, immutable after construction; the round
// carries only what resets at settlement.
type Round struct {
	Token     uuid.UUID
	StartedAt time.Time
}

// NewRound starts a fresh round at the given time.
func NewRound(now time.Time) Round {
	return Round{
		Token:     uuid.New(),
		StartedAt: now,
	}
}

// Over reports whether the round's configured duration has elapsed.
func (r Round) Over(now time.Time, duration time.Duration) bool {
	return !now.Before(r.StartedAt.Add(duration))
}

// EndsAt returns the instant the round becomes closeable.
func (r Round) EndsAt(duration time.Duration) time.Time {
	return r.StartedAt.Add(duration)
}

// WinnerRecord is the previous round's outcome. Overwritten each round.
type WinnerRecord struct {
	Winner     AccountID
	Tier       Tier
	RoundToken uuid.UUID
	Prize      Amount
	SettledAt  time.Time
}

// Settlement is the full outcome of one settled round, as handed to the
// archive and to event subscribers.
type Settlement struct {
	ID           int64
	RoundToken   uuid.UUID
	Winner       AccountID
	Tier         Tier
	EntrantCount int
	Pot          Amount
	Prize        Amount
	FeeShare     Amount
	WinnerDraw   uint64
	RarityDraw   uint64
	SettledAt    time.Time
}

// Withdrawal is one completed operator-fee payout, archive-side.
type Withdrawal struct {
	ID          int64
	Recipient   AccountID
	Amount      Amount
	WithdrawnAt time.Time
}
