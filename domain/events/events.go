package events

import (
	"github.com/google/uuid"

	"raffler/domain/entities"
)

// EventType represents different types of events in the system
type EventType string

const (
	EventTypeEntrantsJoined       EventType = "entrants_joined"
	EventTypeEntrantRefunded      EventType = "entrant_refunded"
	EventTypeWinnerDrawn          EventType = "winner_drawn"
	EventTypeFeesWithdrawn        EventType = "fees_withdrawn"
	EventTypeCollectibleRequested EventType = "collectible_requested"
)

// Event is the base interface for all events
type Event interface {
	Type() EventType
}

// EntrantsJoinedEvent is published after a successful enter call. An
// empty Entrants list is a valid (documented) occurrence: an empty batch
// with zero payment is accepted and still announced.
type EntrantsJoinedEvent struct {
	RoundToken  uuid.UUID
	Entrants    []entities.AccountID
	Paid        entities.Amount
	ActiveCount int
}

func (e EntrantsJoinedEvent) Type() EventType {
	return EventTypeEntrantsJoined
}

// EntrantRefundedEvent is published after a successful refund.
type EntrantRefundedEvent struct {
	RoundToken uuid.UUID
	Entrant    entities.AccountID
	SlotIndex  int
	Amount     entities.Amount
}

func (e EntrantRefundedEvent) Type() EventType {
	return EventTypeEntrantRefunded
}

// WinnerDrawnEvent is published after a round settles.
type WinnerDrawnEvent struct {
	RoundToken   uuid.UUID
	Winner       entities.AccountID
	Tier         entities.Tier
	EntrantCount int
	Pot          entities.Amount
	Prize        entities.Amount
	FeeShare     entities.Amount
}

func (e WinnerDrawnEvent) Type() EventType {
	return EventTypeWinnerDrawn
}

// FeesWithdrawnEvent is published after an operator-fee withdrawal.
type FeesWithdrawnEvent struct {
	Recipient entities.AccountID
	Amount    entities.Amount
}

func (e FeesWithdrawnEvent) Type() EventType {
	return EventTypeFeesWithdrawn
}

// CollectibleRequestedEvent asks the downstream issuance service to mint
// a collectible for the winning slot.
type CollectibleRequestedEvent struct {
	RoundToken uuid.UUID
	Winner     entities.AccountID
	Tier       entities.Tier
}

func (e CollectibleRequestedEvent) Type() EventType {
	return EventTypeCollectibleRequested
}
