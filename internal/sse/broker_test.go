package sse

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/keywordlock/serp-tracker/internal/logger"
)

func startedBroker(t *testing.T, opts ...BrokerOption) Broker {
	t.Helper()
	b := NewBroker(logger.NewNop(), opts...)
	require.NoError(t, b.Start(context.Background()))
	t.Cleanup(func() { _ = b.Stop() })
	return b
}

func receiveEvent(t *testing.T, events <-chan Event) Event {
	t.Helper()
	select {
	case ev, ok := <-events:
		require.True(t, ok, "event channel closed")
		return ev
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for event")
		return Event{}
	}
}

func TestBrokerDeliversPublishedEvents(t *testing.T) {
	b := startedBroker(t)

	events, cleanup := b.Subscribe(context.Background())
	defer cleanup()

	require.NoError(t, b.Publish(context.Background(), NewProgressEvent("t1", 1, 5, "piano lessons")))

	ev := receiveEvent(t, events)
	assert.Equal(t, EventTypeProgress, ev.Type)
	assert.Equal(t, "t1", ev.TaskID)
}

func TestBrokerTaskFilterScopesEvents(t *testing.T) {
	b := startedBroker(t)

	events, cleanup := b.Subscribe(context.Background(), WithTaskFilter("mine"))
	defer cleanup()

	require.NoError(t, b.Publish(context.Background(), NewProgressEvent("other", 1, 2, "")))
	require.NoError(t, b.Publish(context.Background(), NewCompleteEvent("mine", 2, nil)))

	ev := receiveEvent(t, events)
	assert.Equal(t, EventTypeComplete, ev.Type)
	assert.Equal(t, "mine", ev.TaskID)
}

func TestBrokerRejectsOverMaxClients(t *testing.T) {
	b := startedBroker(t, WithMaxClients(1))

	_, cleanup := b.Subscribe(context.Background())
	defer cleanup()

	events, cleanup2 := b.Subscribe(context.Background())
	defer cleanup2()

	// Rejection is signaled by an already closed channel.
	_, ok := <-events
	assert.False(t, ok)
	assert.Equal(t, 1, b.ClientCount())
}

func TestBrokerCleanupRemovesClient(t *testing.T) {
	b := startedBroker(t)

	_, cleanup := b.Subscribe(context.Background())
	require.Equal(t, 1, b.ClientCount())

	cleanup()

	require.Eventually(t, func() bool {
		return b.ClientCount() == 0
	}, 2*time.Second, 10*time.Millisecond)
}

func TestBrokerStopClosesClients(t *testing.T) {
	b := NewBroker(logger.NewNop())
	require.NoError(t, b.Start(context.Background()))

	events, cleanup := b.Subscribe(context.Background())
	defer cleanup()

	require.NoError(t, b.Stop())

	select {
	case _, ok := <-events:
		assert.False(t, ok)
	case <-time.After(2 * time.Second):
		t.Fatal("client channel not closed on stop")
	}
}

func TestPublishBufferFull(t *testing.T) {
	// Unstarted broker never drains the publish channel.
	b := NewBroker(logger.NewNop(), WithEventBufferSize(1))

	require.NoError(t, b.Publish(context.Background(), NewProgressEvent("t", 1, 1, "")))
	err := b.Publish(context.Background(), NewProgressEvent("t", 2, 2, ""))
	assert.Error(t, err)
}
