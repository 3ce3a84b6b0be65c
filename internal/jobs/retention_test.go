package jobs

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/keywordlock/serp-tracker/internal/config"
	"github.com/keywordlock/serp-tracker/internal/logger"
)

type fakePurger struct {
	mu      sync.Mutex
	cutoffs []time.Time
	purged  int64
}

func (f *fakePurger) PurgeTrash(_ context.Context, cutoff time.Time) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.cutoffs = append(f.cutoffs, cutoff)
	return f.purged, nil
}

func (f *fakePurger) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.cutoffs)
}

func TestCutoff(t *testing.T) {
	job := NewRetentionJob(nil, config.RetentionConfig{TrashTTLDays: 30}, logger.NewNop())

	now := time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)
	cutoff := job.Cutoff(now)

	// A keyword removed 31 days ago is past the cutoff, 29 days ago is not.
	removed31 := now.AddDate(0, 0, -31)
	removed29 := now.AddDate(0, 0, -29)
	assert.True(t, removed31.Before(cutoff))
	assert.False(t, removed29.Before(cutoff))
}

func TestRunSweepsImmediatelyAndOnInterval(t *testing.T) {
	purger := &fakePurger{purged: 3}
	job := NewRetentionJob(purger, config.RetentionConfig{
		Enabled:       true,
		TrashTTLDays:  30,
		SweepInterval: 20 * time.Millisecond,
	}, logger.NewNop())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		job.Run(ctx)
		close(done)
	}()

	deadline := time.Now().Add(2 * time.Second)
	for purger.calls() < 2 {
		if time.Now().After(deadline) {
			t.Fatal("expected at least two sweeps")
		}
		time.Sleep(5 * time.Millisecond)
	}

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("job did not stop on context cancellation")
	}

	require.GreaterOrEqual(t, purger.calls(), 2)
}

func TestRunDisabled(t *testing.T) {
	purger := &fakePurger{}
	job := NewRetentionJob(purger, config.RetentionConfig{Enabled: false}, logger.NewNop())

	job.Run(context.Background())

	assert.Zero(t, purger.calls())
}
