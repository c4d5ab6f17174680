package jobs

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"

	"github.com/learnhub/learnhub/internal/users"
)

// Enqueuer is the part of asynq.Client the jobs client uses.
type Enqueuer interface {
	EnqueueContext(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error)
	Close() error
}

// Client submits jobs to the queue.
type Client struct {
	client Enqueuer
}

// NewClient constructs an Asynq client.
func NewClient(redisOpts asynq.RedisClientOpt) *Client {
	return &Client{client: asynq.NewClient(redisOpts)}
}

// NewClientWith wraps an existing enqueuer.
func NewClientWith(enqueuer Enqueuer) *Client {
	return &Client{client: enqueuer}
}

// EnqueueSendEmail enqueues a send-email task.
func (c *Client) EnqueueSendEmail(ctx context.Context, payload SendEmailPayload) (*asynq.TaskInfo, error) {
	task, err := NewSendEmailTask(payload)
	if err != nil {
		return nil, err
	}
	return c.client.EnqueueContext(ctx, task)
}

// EnqueuePaymentProcess schedules a payment. A payment that is already
// queued is not queued again.
func (c *Client) EnqueuePaymentProcess(ctx context.Context, paymentID uuid.UUID) error {
	task, err := NewPaymentProcessTask(paymentID)
	if err != nil {
		return err
	}
	if _, err := c.client.EnqueueContext(ctx, task); err != nil && !errors.Is(err, asynq.ErrTaskIDConflict) {
		return fmt.Errorf("enqueue payment %s: %w", paymentID, err)
	}
	return nil
}

// EnqueueIdempotencyCleanup schedules a one-off cleanup.
func (c *Client) EnqueueIdempotencyCleanup(ctx context.Context, retentionHours int) (*asynq.TaskInfo, error) {
	task, err := NewIdempotencyCleanupTask(retentionHours)
	if err != nil {
		return nil, err
	}
	return c.client.EnqueueContext(ctx, task)
}

// SendWelcome queues the welcome email of a new account.
func (c *Client) SendWelcome(ctx context.Context, u *users.User) error {
	_, err := c.EnqueueSendEmail(ctx, SendEmailPayload{
		To:      u.Email,
		Subject: "Welcome to LearnHub",
		Body:    fmt.Sprintf("Hi %s,\n\nyour LearnHub account is ready. Browse the catalog and start learning.\n", u.Name),
	})
	return err
}

// Close releases client resources.
func (c *Client) Close() error {
	return c.client.Close()
}
