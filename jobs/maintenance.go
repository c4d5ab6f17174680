package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"

	jobmetrics "github.com/learnhub/learnhub/internal/jobs"
)

// IdempotencyCleaner prunes stored idempotency keys.
type IdempotencyCleaner interface {
	Cleanup(ctx context.Context, olderThan time.Duration) error
}

// IdempotencyCleanupJob handles TaskTypeIdempotencyCleanup tasks.
type IdempotencyCleanupJob struct {
	Store   IdempotencyCleaner
	Logger  *slog.Logger
	Metrics *jobmetrics.Metrics
}

// Handle prunes keys older than the payload retention.
func (j *IdempotencyCleanupJob) Handle(ctx context.Context, t *asynq.Task) (err error) {
	if j == nil || j.Store == nil {
		return errors.New("idempotency cleanup: store not configured")
	}
	var payload IdempotencyCleanupPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return fmt.Errorf("idempotency cleanup: decode payload: %v: %w", err, asynq.SkipRetry)
	}
	if payload.RetentionHours <= 0 {
		payload.RetentionHours = 24
	}
	tracker := j.Metrics.Track(TaskTypeIdempotencyCleanup)
	defer func() { err = tracker.End(err) }()

	if err := j.Store.Cleanup(ctx, time.Duration(payload.RetentionHours)*time.Hour); err != nil {
		return fmt.Errorf("idempotency cleanup: %w", err)
	}
	if j.Logger != nil {
		j.Logger.InfoContext(ctx, "idempotency keys pruned", slog.Int("retention_hours", payload.RetentionHours))
	}
	return nil
}
