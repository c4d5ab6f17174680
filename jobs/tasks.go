package jobs

import (
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
)

const (
	// QueueCritical carries payment work.
	QueueCritical = "critical"
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// QueueLow carries maintenance work.
	QueueLow = "low"

	// TaskTypeSendEmail is the task type for sending transactional emails.
	TaskTypeSendEmail = "mail:send"
	// TaskTypePaymentProcess charges a pending payment.
	TaskTypePaymentProcess = "payment:process"
	// TaskTypeIdempotencyCleanup prunes expired idempotency keys.
	TaskTypeIdempotencyCleanup = "maintenance:idempotency_cleanup"
)

// Queues lists every queue with its processing weight.
var Queues = map[string]int{
	QueueCritical: 6,
	QueueDefault:  3,
	QueueLow:      1,
}

// SendEmailPayload describes the information required to send an email.
type SendEmailPayload struct {
	To      string `json:"to"`
	Subject string `json:"subject"`
	Body    string `json:"body"`
}

// PaymentProcessPayload identifies the payment to charge.
type PaymentProcessPayload struct {
	PaymentID uuid.UUID `json:"payment_id"`
}

// IdempotencyCleanupPayload configures the retention of idempotency keys.
type IdempotencyCleanupPayload struct {
	RetentionHours int `json:"retention_hours"`
}

// NewSendEmailTask constructs an Asynq task.
func NewSendEmailTask(payload SendEmailPayload) (*asynq.Task, error) {
	if payload.To == "" {
		return nil, fmt.Errorf("jobs: email recipient required")
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskTypeSendEmail, data, asynq.Queue(QueueDefault), asynq.MaxRetry(5)), nil
}

// NewPaymentProcessTask constructs a payment task. The task id is derived
// from the payment so a payment is never queued twice.
func NewPaymentProcessTask(paymentID uuid.UUID) (*asynq.Task, error) {
	if paymentID == uuid.Nil {
		return nil, fmt.Errorf("jobs: payment id required")
	}
	data, err := json.Marshal(PaymentProcessPayload{PaymentID: paymentID})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskTypePaymentProcess, data,
		asynq.Queue(QueueCritical),
		asynq.MaxRetry(10),
		asynq.TaskID("payment:"+paymentID.String()),
	), nil
}

// NewIdempotencyCleanupTask constructs a maintenance task.
func NewIdempotencyCleanupTask(retentionHours int) (*asynq.Task, error) {
	if retentionHours <= 0 {
		retentionHours = 24
	}
	data, err := json.Marshal(IdempotencyCleanupPayload{RetentionHours: retentionHours})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskTypeIdempotencyCleanup, data, asynq.Queue(QueueLow), asynq.MaxRetry(3)), nil
}
