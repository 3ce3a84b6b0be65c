// Package jobs holds the periodic background jobs of the service.
package jobs

import (
	"context"
	"time"

	"github.com/keywordlock/serp-tracker/internal/config"
	"github.com/keywordlock/serp-tracker/internal/logger"
)

// TrashPurger hard-deletes soft-removed keywords older than a cutoff.
type TrashPurger interface {
	PurgeTrash(ctx context.Context, cutoff time.Time) (int64, error)
}

// RetentionJob periodically purges keywords that have sat in the trash
// longer than the configured retention window.
type RetentionJob struct {
	purger TrashPurger
	cfg    config.RetentionConfig
	logger logger.Logger
}

// NewRetentionJob creates a retention job.
func NewRetentionJob(purger TrashPurger, cfg config.RetentionConfig, log logger.Logger) *RetentionJob {
	return &RetentionJob{purger: purger, cfg: cfg, logger: log}
}

// Run sweeps on the configured interval until the context is cancelled.
// The first sweep happens immediately on start.
func (j *RetentionJob) Run(ctx context.Context) {
	if !j.cfg.Enabled {
		j.logger.Info("Trash retention disabled")
		return
	}

	j.logger.Info("Trash retention started",
		logger.Int("ttl_days", j.cfg.TrashTTLDays),
		logger.Duration("sweep_interval", j.cfg.SweepInterval),
	)

	j.sweep(ctx)

	ticker := time.NewTicker(j.cfg.SweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			j.sweep(ctx)
		case <-ctx.Done():
			return
		}
	}
}

// sweep runs one purge pass.
func (j *RetentionJob) sweep(ctx context.Context) {
	cutoff := j.Cutoff(time.Now())

	purged, err := j.purger.PurgeTrash(ctx, cutoff)
	if err != nil {
		j.logger.Error("Trash purge failed", logger.Error(err))
		return
	}
	if purged > 0 {
		j.logger.Info("Trash purged",
			logger.Int64("keywords", purged),
			logger.Time("cutoff", cutoff),
		)
	}
}

// Cutoff returns the deletion threshold for a sweep at the given time.
func (j *RetentionJob) Cutoff(now time.Time) time.Time {
	return now.AddDate(0, 0, -j.cfg.TrashTTLDays)
}
