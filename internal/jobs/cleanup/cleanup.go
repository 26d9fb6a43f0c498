package cleanup

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
)

const (
	defaultDraftRetention = 24 * time.Hour
	defaultInterval       = 6 * time.Hour
)

type staleDraftCleaner interface {
	DeleteStaleDrafts(ctx context.Context, cutoff time.Time) (int64, error)
}

// Job sweeps bare activity rows whose submission never got past creation.
type Job struct {
	drafts    staleDraftCleaner
	retention time.Duration
	now       func() time.Time
	logger    *zap.Logger
}

func New(drafts staleDraftCleaner, retention time.Duration, logger *zap.Logger) *Job {
	if retention <= 0 {
		retention = defaultDraftRetention
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Job{
		drafts:    drafts,
		retention: retention,
		now:       time.Now,
		logger:    logger,
	}
}

func (j *Job) Run(ctx context.Context) error {
	if j.drafts == nil {
		return nil
	}

	cutoff := j.now().Add(-j.retention)
	rows, err := j.drafts.DeleteStaleDrafts(ctx, cutoff)
	if err != nil {
		return fmt.Errorf("cleanup stale drafts: %w", err)
	}
	if rows > 0 {
		j.logger.Info("cleanup stale drafts completed", zap.Int64("deleted", rows), zap.Time("cutoff", cutoff))
	}
	return nil
}

// Loop runs the job immediately and then every interval until ctx is done.
// A failed run is logged and retried on the next tick.
func (j *Job) Loop(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = defaultInterval
	}

	if err := j.Run(ctx); err != nil {
		j.logger.Warn("cleanup run failed", zap.Error(err))
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := j.Run(ctx); err != nil {
				j.logger.Warn("cleanup run failed", zap.Error(err))
			}
		}
	}
}
