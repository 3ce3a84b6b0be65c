package sse

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSubscriberTaskScoping(t *testing.T) {
	s := newSubscriber(context.Background(), 2, "mine")
	defer s.close()

	// Foreign-task events are accepted but not queued.
	assert.True(t, s.deliver(NewProgressEvent("other", 1, 2, "")))
	assert.True(t, s.deliver(NewProgressEvent("mine", 1, 2, "")))

	assert.Len(t, s.events, 1)
	ev := <-s.events
	assert.Equal(t, "mine", ev.TaskID)
}

func TestSubscriberUnscopedReceivesAll(t *testing.T) {
	s := newSubscriber(context.Background(), 2, "")
	defer s.close()

	assert.True(t, s.deliver(NewProgressEvent("a", 1, 2, "")))
	assert.True(t, s.deliver(NewProgressEvent("b", 1, 2, "")))
	assert.Len(t, s.events, 2)
}

func TestSubscriberFullBufferSignalsSlow(t *testing.T) {
	s := newSubscriber(context.Background(), 1, "")
	defer s.close()

	assert.True(t, s.deliver(NewProgressEvent("t", 1, 3, "")))
	assert.False(t, s.deliver(NewProgressEvent("t", 2, 3, "")))
}

func TestSubscriberCloseIdempotent(t *testing.T) {
	s := newSubscriber(context.Background(), 1, "")

	s.close()
	s.close()

	assert.False(t, s.deliver(NewProgressEvent("t", 1, 1, "")))
}
