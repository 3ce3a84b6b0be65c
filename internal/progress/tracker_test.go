package progress

import (
	"sync"
	"testing"
	"time"
)

func TestTrackerLifecycle(t *testing.T) {
	tr := NewTracker(time.Hour, nil)

	tr.Start("task-1", 5)
	tr.Update("task-1", 2, "math tutors")

	snap, ok := tr.Get("task-1")
	if !ok {
		t.Fatal("task not found")
	}
	if snap.Status != StatusRunning || snap.Current != 2 || snap.Keyword != "math tutors" {
		t.Errorf("unexpected snapshot: %+v", snap)
	}

	tr.Complete("task-1", map[string]int{"processed": 5})
	snap, _ = tr.Get("task-1")
	if snap.Status != StatusComplete {
		t.Errorf("status = %q, want complete", snap.Status)
	}
	if snap.Current != 5 {
		t.Errorf("current = %d, want total on completion", snap.Current)
	}
}

func TestTrackerUpdateAfterTerminalIgnored(t *testing.T) {
	tr := NewTracker(time.Hour, nil)

	tr.Start("task-1", 3)
	tr.Fail("task-1", "upstream unavailable")
	tr.Update("task-1", 2, "late keyword")

	snap, _ := tr.Get("task-1")
	if snap.Status != StatusError {
		t.Errorf("status = %q, want error", snap.Status)
	}
	if snap.Keyword == "late keyword" {
		t.Error("update after terminal state must be ignored")
	}
}

func TestTrackerConsumeRemovesTerminal(t *testing.T) {
	tr := NewTracker(time.Hour, nil)

	tr.Start("running", 2)
	tr.Start("done", 2)
	tr.Complete("done", nil)

	// Running tasks survive Consume.
	if _, ok := tr.Consume("running"); !ok {
		t.Fatal("running task not found")
	}
	if _, ok := tr.Get("running"); !ok {
		t.Error("running task removed by Consume")
	}

	// Terminal tasks are removed once consumed.
	snap, ok := tr.Consume("done")
	if !ok || snap.Status != StatusComplete {
		t.Fatalf("unexpected consume result: %+v ok=%v", snap, ok)
	}
	if _, ok := tr.Get("done"); ok {
		t.Error("terminal task still present after Consume")
	}
}

func TestTrackerSweep(t *testing.T) {
	tr := NewTracker(10*time.Minute, nil)

	tr.Start("old", 1)
	tr.Start("fresh", 1)

	// Age the first entry past the TTL.
	tr.mu.Lock()
	tr.tasks["old"].UpdatedAt = time.Now().Add(-time.Hour)
	tr.mu.Unlock()

	if removed := tr.Sweep(time.Now()); removed != 1 {
		t.Errorf("swept %d tasks, want 1", removed)
	}
	if _, ok := tr.Get("old"); ok {
		t.Error("stale task survived sweep")
	}
	if _, ok := tr.Get("fresh"); !ok {
		t.Error("fresh task removed by sweep")
	}
}

func TestTrackerConcurrentAccess(t *testing.T) {
	tr := NewTracker(time.Hour, nil)
	tr.Start("task", 100)

	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			tr.Update("task", n, "kw")
			tr.Get("task")
		}(i)
	}
	wg.Wait()

	if snap, ok := tr.Get("task"); !ok || snap.Status != StatusRunning {
		t.Errorf("unexpected snapshot after concurrent access: %+v", snap)
	}
}
