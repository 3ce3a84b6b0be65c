package sse

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/keywordlock/serp-tracker/internal/logger"
)

// Handler returns a gin handler that streams events for one task.
// The stream closes after the task's terminal event (complete or error)
// has been forwarded.
func Handler(broker Subscriber, log logger.Logger, heartbeatInterval time.Duration) gin.HandlerFunc {
	if heartbeatInterval <= 0 {
		heartbeatInterval = DefaultHeartbeatInterval
	}

	return func(c *gin.Context) {
		taskID := c.Param("taskId")
		if taskID == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "task id required"})
			return
		}

		setSSEHeaders(c)

		events, cleanup := broker.Subscribe(c.Request.Context(), WithTaskFilter(taskID))
		defer cleanup()

		if !checkSubscriptionValid(c, events, log) {
			return
		}

		flusher, ok := c.Writer.(http.Flusher)
		if !ok {
			log.Error("SSE not supported: response writer cannot flush")
			c.JSON(http.StatusInternalServerError, gin.H{"error": "streaming not supported"})
			return
		}

		sendConnectionEvent(c, flusher, taskID, log)
		streamEvents(c, flusher, events, heartbeatInterval, log)
	}
}

// setSSEHeaders sets the response headers required for SSE.
func setSSEHeaders(c *gin.Context) {
	c.Writer.Header().Set("Content-Type", "text/event-stream")
	c.Writer.Header().Set("Cache-Control", "no-cache")
	c.Writer.Header().Set("Connection", "keep-alive")
	c.Writer.Header().Set("X-Accel-Buffering", "no")
}

// checkSubscriptionValid detects a rejected subscription (closed channel).
func checkSubscriptionValid(c *gin.Context, events <-chan Event, log logger.Logger) bool {
	select {
	case _, open := <-events:
		if !open {
			log.Warn("SSE subscription rejected, broker at capacity")
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "too many active connections"})
			return false
		}
		// An event arrived before we started streaming; it is lost, which
		// is acceptable for the initial race window.
		return true
	default:
		return true
	}
}

// sendConnectionEvent writes the initial connected event.
func sendConnectionEvent(c *gin.Context, flusher http.Flusher, taskID string, log logger.Logger) {
	event := Event{
		Type:   eventTypeConnected,
		TaskID: taskID,
		Data:   map[string]string{"task_id": taskID, "timestamp": time.Now().UTC().Format(time.RFC3339)},
	}

	if err := writeEvent(c, event); err != nil {
		log.Debug("Failed to write connection event", logger.Error(err))
		return
	}
	flusher.Flush()
}

// streamEvents forwards events until the client disconnects, the channel
// closes, or a terminal event is sent.
func streamEvents(c *gin.Context, flusher http.Flusher, events <-chan Event, heartbeatInterval time.Duration, log logger.Logger) {
	heartbeat := time.NewTicker(heartbeatInterval)
	defer heartbeat.Stop()

	for {
		select {
		case event, open := <-events:
			if !open {
				return
			}
			if err := writeEvent(c, event); err != nil {
				log.Debug("Client write failed, closing stream", logger.Error(err))
				return
			}
			flusher.Flush()

			if event.Type == EventTypeComplete || event.Type == EventTypeError {
				return
			}

		case <-heartbeat.C:
			if err := writeHeartbeat(c); err != nil {
				log.Debug("Heartbeat write failed, closing stream", logger.Error(err))
				return
			}
			flusher.Flush()

		case <-c.Request.Context().Done():
			return
		}
	}
}

// writeEvent writes a single event in SSE wire format.
func writeEvent(c *gin.Context, event Event) error {
	data, err := json.Marshal(event.Data)
	if err != nil {
		return fmt.Errorf("marshal event data: %w", err)
	}

	if _, err := fmt.Fprintf(c.Writer, "event: %s\ndata: %s\n\n", event.Type, data); err != nil {
		return fmt.Errorf("write event: %w", err)
	}

	return nil
}

// writeHeartbeat writes an SSE comment line to keep the connection alive.
func writeHeartbeat(c *gin.Context) error {
	if _, err := fmt.Fprint(c.Writer, ": heartbeat\n\n"); err != nil {
		return fmt.Errorf("write heartbeat: %w", err)
	}
	return nil
}
