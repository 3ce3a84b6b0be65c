package sse

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
)

// subscriber is one connected progress stream. A subscriber with a
// task ID only receives events for that batch task; an empty task ID
// receives everything.
type subscriber struct {
	id     string
	taskID string
	events chan Event

	ctx    context.Context
	cancel context.CancelFunc

	lastEvent time.Time
	closed    atomic.Bool
	closeOnce sync.Once
}

func newSubscriber(ctx context.Context, bufferSize int, taskID string) *subscriber {
	subCtx, cancel := context.WithCancel(ctx)

	return &subscriber{
		id:        uuid.NewString(),
		taskID:    taskID,
		events:    make(chan Event, bufferSize),
		ctx:       subCtx,
		cancel:    cancel,
		lastEvent: time.Now(),
	}
}

// wants reports whether the event belongs on this stream.
func (s *subscriber) wants(event Event) bool {
	return s.taskID == "" || s.taskID == event.TaskID
}

// close ends the stream and releases the channel.
func (s *subscriber) close() {
	s.closeOnce.Do(func() {
		s.closed.Store(true)
		s.cancel()
		close(s.events)
	})
}

// deliver queues an event for the stream. Returns false only when the
// buffer is full, which marks the subscriber too slow to keep.
func (s *subscriber) deliver(event Event) bool {
	if s.closed.Load() {
		return false
	}

	if !s.wants(event) {
		return true
	}

	select {
	case s.events <- event:
		s.lastEvent = time.Now()
		return true
	default:
		return false
	}
}
