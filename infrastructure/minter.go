package infrastructure

import (
	"context"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"raffler/domain/entities"
	"raffler/domain/events"
	"raffler/domain/interfaces"
)

// EventPublishingMinter requests collectible issuance by publishing a
// collectible_requested event for the downstream issuance service.
// Metadata and rendering live entirely on that side.
type EventPublishingMinter struct {
	publisher interfaces.EventPublisher
}

// NewEventPublishingMinter creates a minter backed by the event publisher.
func NewEventPublishingMinter(publisher interfaces.EventPublisher) *EventPublishingMinter {
	return &EventPublishingMinter{publisher: publisher}
}

// Mint publishes the issuance request.
func (m *EventPublishingMinter) Mint(ctx context.Context, winner entities.AccountID, tier entities.Tier, roundToken uuid.UUID) error {
	log.WithFields(log.Fields{
		"round":  roundToken,
		"winner": winner,
		"tier":   tier,
	}).Debug("Requesting collectible issuance")

	return m.publisher.Publish(events.CollectibleRequestedEvent{
		RoundToken: roundToken,
		Winner:     winner,
		Tier:       tier,
	})
}

// NoopMinter discards issuance requests. Useful for tests and for
// deployments without a collectible pipeline.
type NoopMinter struct{}

// NewNoopMinter creates a no-op minter.
func NewNoopMinter() *NoopMinter {
	return &NoopMinter{}
}

// Mint does nothing with the request.
func (m *NoopMinter) Mint(ctx context.Context, winner entities.AccountID, tier entities.Tier, roundToken uuid.UUID) error {
	return nil
}
