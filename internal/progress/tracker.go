// Package progress tracks the state of in-flight batch tasks.
// State is kept in memory only; a restart forgets all tasks.
package progress

import (
	"context"
	"sync"
	"time"

	"github.com/keywordlock/serp-tracker/internal/logger"
)

// Status is the lifecycle state of a task.
type Status string

// Task status constants. Complete and Error are terminal.
const (
	StatusRunning  Status = "running"
	StatusComplete Status = "complete"
	StatusError    Status = "error"
)

// Snapshot is the externally visible state of one task.
type Snapshot struct {
	TaskID    string    `json:"task_id"`
	Status    Status    `json:"status"`
	Current   int       `json:"current"`
	Total     int       `json:"total"`
	Keyword   string    `json:"keyword,omitempty"`
	Message   string    `json:"message,omitempty"`
	Result    any       `json:"result,omitempty"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Terminal reports whether the snapshot is in a terminal state.
func (s *Snapshot) Terminal() bool {
	return s.Status == StatusComplete || s.Status == StatusError
}

// Tracker is a concurrent task registry with TTL-based cleanup.
type Tracker struct {
	mu     sync.RWMutex
	tasks  map[string]*Snapshot
	ttl    time.Duration
	logger logger.Logger
}

// NewTracker creates a tracker. Entries untouched for longer than ttl
// are removed by Sweep.
func NewTracker(ttl time.Duration, log logger.Logger) *Tracker {
	return &Tracker{
		tasks:  make(map[string]*Snapshot),
		ttl:    ttl,
		logger: log,
	}
}

// Start registers a new running task.
func (t *Tracker) Start(taskID string, total int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.tasks[taskID] = &Snapshot{
		TaskID:    taskID,
		Status:    StatusRunning,
		Total:     total,
		UpdatedAt: time.Now(),
	}
}

// Update records per-keyword progress for a running task.
func (t *Tracker) Update(taskID string, current int, keyword string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	snap, ok := t.tasks[taskID]
	if !ok || snap.Terminal() {
		return
	}
	snap.Current = current
	snap.Keyword = keyword
	snap.UpdatedAt = time.Now()
}

// Complete marks a task finished and attaches its result.
func (t *Tracker) Complete(taskID string, result any) {
	t.mu.Lock()
	defer t.mu.Unlock()
	snap, ok := t.tasks[taskID]
	if !ok {
		return
	}
	snap.Status = StatusComplete
	snap.Current = snap.Total
	snap.Result = result
	snap.UpdatedAt = time.Now()
}

// Fail marks a task failed with a message.
func (t *Tracker) Fail(taskID, message string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	snap, ok := t.tasks[taskID]
	if !ok {
		return
	}
	snap.Status = StatusError
	snap.Message = message
	snap.UpdatedAt = time.Now()
}

// Get returns a copy of the task snapshot.
func (t *Tracker) Get(taskID string) (Snapshot, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	snap, ok := t.tasks[taskID]
	if !ok {
		return Snapshot{}, false
	}
	return *snap, true
}

// Consume returns a copy of the task snapshot and removes the entry
// when it is terminal. Polling clients call this so finished tasks do
// not linger until the TTL sweep.
func (t *Tracker) Consume(taskID string) (Snapshot, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	snap, ok := t.tasks[taskID]
	if !ok {
		return Snapshot{}, false
	}
	copied := *snap
	if snap.Terminal() {
		delete(t.tasks, taskID)
	}
	return copied, true
}

// Count returns the number of tracked tasks.
func (t *Tracker) Count() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.tasks)
}

// Sweep removes entries last updated before now minus the TTL and
// returns how many were removed.
func (t *Tracker) Sweep(now time.Time) int {
	cutoff := now.Add(-t.ttl)

	t.mu.Lock()
	defer t.mu.Unlock()
	removed := 0
	for id, snap := range t.tasks {
		if snap.UpdatedAt.Before(cutoff) {
			delete(t.tasks, id)
			removed++
		}
	}
	return removed
}

// Run sweeps periodically until the context is cancelled.
func (t *Tracker) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if removed := t.Sweep(time.Now()); removed > 0 && t.logger != nil {
				t.logger.Debug("Swept stale tasks", logger.Int("removed", removed))
			}
		case <-ctx.Done():
			return
		}
	}
}
