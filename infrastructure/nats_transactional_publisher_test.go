package infrastructure

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"raffler/domain/entities"
	"raffler/domain/events"
)

// recordingPublisher captures everything flushed through it
type recordingPublisher struct {
	published []events.Event
	failOn    events.EventType
}

func (r *recordingPublisher) Publish(event events.Event) error {
	if r.failOn != "" && event.Type() == r.failOn {
		return errors.New("stream unavailable")
	}
	r.published = append(r.published, event)
	return nil
}

func TestNATSTransactionalPublisher_BuffersUntilFlush(t *testing.T) {
	t.Parallel()

	real := &recordingPublisher{}
	publisher := NewNATSTransactionalPublisher(real)

	require.NoError(t, publisher.Publish(events.EntrantsJoinedEvent{
		Entrants: []entities.AccountID{"alice"},
	}))
	require.NoError(t, publisher.Publish(events.FeesWithdrawnEvent{
		Recipient: "operator",
	}))
	assert.Empty(t, real.published, "nothing goes out before flush")

	require.NoError(t, publisher.Flush(context.Background()))

	require.Len(t, real.published, 2)
	assert.Equal(t, events.EventTypeEntrantsJoined, real.published[0].Type())
	assert.Equal(t, events.EventTypeFeesWithdrawn, real.published[1].Type())
}

func TestNATSTransactionalPublisher_FlushClearsTheBuffer(t *testing.T) {
	t.Parallel()

	real := &recordingPublisher{}
	publisher := NewNATSTransactionalPublisher(real)

	require.NoError(t, publisher.Publish(events.FeesWithdrawnEvent{Recipient: "operator"}))
	require.NoError(t, publisher.Flush(context.Background()))
	require.NoError(t, publisher.Flush(context.Background()))

	assert.Len(t, real.published, 1, "a second flush must not replay events")
}

func TestNATSTransactionalPublisher_FlushContinuesPastFailures(t *testing.T) {
	t.Parallel()

	real := &recordingPublisher{failOn: events.EventTypeEntrantsJoined}
	publisher := NewNATSTransactionalPublisher(real)

	require.NoError(t, publisher.Publish(events.EntrantsJoinedEvent{}))
	require.NoError(t, publisher.Publish(events.FeesWithdrawnEvent{Recipient: "operator"}))

	require.NoError(t, publisher.Flush(context.Background()))

	require.Len(t, real.published, 1, "the failed event is dropped, the rest still go out")
	assert.Equal(t, events.EventTypeFeesWithdrawn, real.published[0].Type())
}

func TestNATSTransactionalPublisher_DiscardDropsEverything(t *testing.T) {
	t.Parallel()

	real := &recordingPublisher{}
	publisher := NewNATSTransactionalPublisher(real)

	require.NoError(t, publisher.Publish(events.EntrantsJoinedEvent{}))
	require.NoError(t, publisher.Publish(events.FeesWithdrawnEvent{}))

	publisher.Discard()
	require.NoError(t, publisher.Flush(context.Background()))

	assert.Empty(t, real.published, "discarded events never surface")
}
