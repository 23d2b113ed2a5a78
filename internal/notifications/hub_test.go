package notifications

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ticketholds/pkg/logger"
)

func TestHub_BroadcastsToAllSubscribers(t *testing.T) {
	hub := NewHub(4, logger.Discard())
	first, unsubFirst := hub.Subscribe()
	second, unsubSecond := hub.Subscribe()
	defer unsubFirst()
	defer unsubSecond()

	require.NoError(t, hub.Publish(context.Background(), releaseEvent("h1")))

	assert.Equal(t, "h1", (<-first).HoldID)
	assert.Equal(t, "h1", (<-second).HoldID)
}

func TestHub_SlowSubscriberDropsInsteadOfBlocking(t *testing.T) {
	hub := NewHub(1, logger.Discard())
	events, unsubscribe := hub.Subscribe()
	defer unsubscribe()

	require.NoError(t, hub.Publish(context.Background(), releaseEvent("h1")))
	require.NoError(t, hub.Publish(context.Background(), releaseEvent("h2")))

	assert.Equal(t, "h1", (<-events).HoldID)
	assert.Len(t, events, 0)
}

func TestHub_UnsubscribeAndClose(t *testing.T) {
	hub := NewHub(1, logger.Discard())
	events, unsubscribe := hub.Subscribe()
	assert.Equal(t, 1, hub.Subscribers())

	unsubscribe()
	unsubscribe()
	assert.Equal(t, 0, hub.Subscribers())
	_, open := <-events
	assert.False(t, open)

	other, unsubOther := hub.Subscribe()
	require.NoError(t, hub.Close())
	_, open = <-other
	assert.False(t, open)
	unsubOther()

	late, _ := hub.Subscribe()
	_, open = <-late
	assert.False(t, open)
}
