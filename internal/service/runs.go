package service

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/getpawsy/curation/internal/domain"
	"github.com/getpawsy/curation/internal/logger"
	"github.com/getpawsy/curation/internal/repository"
)

// runTracker records the audit trail of a pass in the operational database.
// A nil repository disables recording without changing pass behavior.
type runTracker struct {
	runs *repository.RunRepository
}

func (t runTracker) start(ctx context.Context, pass string) *domain.CurationRun {
	run := &domain.CurationRun{
		ID:        uuid.New().String(),
		Pass:      pass,
		Status:    domain.RunStatusRunning,
		StartedAt: time.Now(),
	}
	if t.runs != nil {
		if prev, err := t.runs.LatestByPass(ctx, pass); err == nil && prev != nil {
			logger.FromContext(ctx).WithFields(logger.Fields{
				"previous_run": prev.ID,
				"status":       prev.Status,
				"started_at":   prev.StartedAt,
			}).Info("Previous run for this pass")
		}
		if err := t.runs.Create(ctx, run); err != nil {
			logger.FromContext(ctx).WithError(err).Warn("Failed to record run start")
		}
	}
	return run
}

func (t runTracker) fail(ctx context.Context, run *domain.CurationRun, cause error) {
	run.ErrorLog = cause.Error()
	if t.runs != nil {
		if err := t.runs.Complete(ctx, run, domain.RunStatusFailed); err != nil {
			logger.FromContext(ctx).WithError(err).Warn("Failed to record run failure")
		}
	}
}

func (t runTracker) complete(ctx context.Context, run *domain.CurationRun) {
	if t.runs != nil {
		if err := t.runs.Complete(ctx, run, domain.RunStatusCompleted); err != nil {
			logger.FromContext(ctx).WithError(err).Warn("Failed to record run completion")
		}
	}
}
