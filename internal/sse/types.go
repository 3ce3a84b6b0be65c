// Package sse streams batch progress to clients over Server-Sent Events.
package sse

import (
	"context"
	"time"
)

// Event represents a Server-Sent Event.
// Format: event: <Type>\ndata: <JSON payload>\n\n
type Event struct {
	// Type is the event type ("progress", "complete", "error").
	Type string `json:"type"`
	// TaskID scopes the event to one batch task.
	TaskID string `json:"task_id,omitempty"`
	// Data is the JSON payload.
	Data any `json:"data"`
}

// Event types emitted while a batch runs. Complete and Error end the
// stream for their task.
const (
	EventTypeProgress = "progress"
	EventTypeComplete = "complete"
	EventTypeError    = "error"
)

// Internal event types.
const eventTypeConnected = "connected"

// ProgressData is the payload of progress events.
type ProgressData struct {
	TaskID    string `json:"task_id"`
	Current   int    `json:"current"`
	Total     int    `json:"total"`
	Keyword   string `json:"keyword,omitempty"`
	Message   string `json:"message,omitempty"`
	Result    any    `json:"result,omitempty"`
	Timestamp string `json:"timestamp"`
}

// Publisher sends events to the broker.
type Publisher interface {
	// Publish sends an event to all subscribed clients.
	// Returns error if the broker is not running or the publish buffer is full.
	Publish(ctx context.Context, event Event) error
}

// Subscriber receives events from the broker.
type Subscriber interface {
	// Subscribe returns a channel that receives events.
	// The channel is closed when the subscription ends.
	Subscribe(ctx context.Context, opts ...ClientOption) (<-chan Event, func())
}

// Broker manages SSE connections and event distribution.
type Broker interface {
	Publisher
	Subscriber
	// Start begins processing events (non-blocking).
	Start(ctx context.Context) error
	// Stop gracefully shuts down the broker.
	Stop() error
	// ClientCount returns the number of connected clients.
	ClientCount() int
}

// ClientOptions configures a single SSE subscription.
type ClientOptions struct {
	// TaskID scopes the subscription to one batch task. Empty receives
	// all events.
	TaskID string
	// BufferSize is the event buffer size (default: 100)
	BufferSize int
}

// NewProgressEvent creates a progress event for a task.
func NewProgressEvent(taskID string, current, total int, keyword string) Event {
	return Event{
		Type:   EventTypeProgress,
		TaskID: taskID,
		Data: ProgressData{
			TaskID:    taskID,
			Current:   current,
			Total:     total,
			Keyword:   keyword,
			Timestamp: time.Now().UTC().Format(time.RFC3339),
		},
	}
}

// NewCompleteEvent creates the terminal complete event for a task.
func NewCompleteEvent(taskID string, total int, result any) Event {
	return Event{
		Type:   EventTypeComplete,
		TaskID: taskID,
		Data: ProgressData{
			TaskID:    taskID,
			Current:   total,
			Total:     total,
			Result:    result,
			Timestamp: time.Now().UTC().Format(time.RFC3339),
		},
	}
}

// NewErrorEvent creates the terminal error event for a task.
func NewErrorEvent(taskID, message string) Event {
	return Event{
		Type:   EventTypeError,
		TaskID: taskID,
		Data: ProgressData{
			TaskID:    taskID,
			Message:   message,
			Timestamp: time.Now().UTC().Format(time.RFC3339),
		},
	}
}
