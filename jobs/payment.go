package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"

	jobmetrics "github.com/learnhub/learnhub/internal/jobs"
	"github.com/learnhub/learnhub/internal/payments"
)

// PaymentProcessor settles one payment.
type PaymentProcessor interface {
	Process(ctx context.Context, id uuid.UUID) error
}

// PaymentJob handles TaskTypePaymentProcess tasks.
type PaymentJob struct {
	Processor PaymentProcessor
	Logger    *slog.Logger
	Metrics   *jobmetrics.Metrics
}

// Handle processes a payment task. Unknown payments are not retried.
func (j *PaymentJob) Handle(ctx context.Context, t *asynq.Task) (err error) {
	if j == nil || j.Processor == nil {
		return errors.New("payment job: processor not configured")
	}
	var payload PaymentProcessPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return fmt.Errorf("payment job: decode payload: %v: %w", err, asynq.SkipRetry)
	}
	tracker := j.Metrics.Track(TaskTypePaymentProcess)
	defer func() { err = tracker.End(err) }()

	if err := j.Processor.Process(ctx, payload.PaymentID); err != nil {
		if errors.Is(err, payments.ErrNotFound) {
			return fmt.Errorf("payment job: %s: %w", payload.PaymentID, asynq.SkipRetry)
		}
		if j.Logger != nil {
			j.Logger.WarnContext(ctx, "process payment", slog.String("payment_id", payload.PaymentID.String()), slog.Any("error", err))
		}
		return err
	}
	return nil
}
