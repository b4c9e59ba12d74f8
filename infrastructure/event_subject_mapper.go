package infrastructure

import (
	"fmt"

	"raffler/domain/events"
)

// EventSubjectMapper handles mapping between domain events and NATS subjects
type EventSubjectMapper struct{}

// NewEventSubjectMapper creates a new event subject mapper
func NewEventSubjectMapper() *EventSubjectMapper {
	return &EventSubjectMapper{}
}

// MapEventToSubject converts a domain event to its corresponding NATS subject
func (m *EventSubjectMapper) MapEventToSubject(event events.Event) string {
	switch event.Type() {
	case events.EventTypeEntrantsJoined:
		return "raffle.entrants.joined"
	case events.EventTypeEntrantRefunded:
		return "raffle.entrants.refunded"
	case events.EventTypeWinnerDrawn:
		return "raffle.rounds.settled"
	case events.EventTypeFeesWithdrawn:
		return "raffle.fees.withdrawn"
	case events.EventTypeCollectibleRequested:
		return "raffle.collectibles.requested"
	default:
		// Fallback for unknown event types
		return fmt.Sprintf("unknown.%s", event.Type())
	}
}

// GetAllSubjects returns all subjects that this service publishes to
func (m *EventSubjectMapper) GetAllSubjects() []string {
	return []string{
		"raffle.entrants.joined",
		"raffle.entrants.refunded",
		"raffle.rounds.settled",
		"raffle.fees.withdrawn",
		"raffle.collectibles.requested",
	}
}
