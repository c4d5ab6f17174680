package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/hibiken/asynq"
	"gopkg.in/gomail.v2"

	jobmetrics "github.com/learnhub/learnhub/internal/jobs"
)

// Sender delivers a prepared message.
type Sender interface {
	DialAndSend(m ...*gomail.Message) error
}

// SMTPConfig configures the SMTP sender.
type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

// NewSMTPSender returns a gomail dialer for cfg.
func NewSMTPSender(cfg SMTPConfig) Sender {
	return gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password)
}

// MailJob sends transactional email.
type MailJob struct {
	Sender  Sender
	From    string
	Logger  *slog.Logger
	Metrics *jobmetrics.Metrics
}

// Handle processes TaskTypeSendEmail tasks.
func (j *MailJob) Handle(ctx context.Context, t *asynq.Task) (err error) {
	if j == nil || j.Sender == nil {
		return errors.New("mail job: sender not configured")
	}
	var payload SendEmailPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return fmt.Errorf("mail job: decode payload: %v: %w", err, asynq.SkipRetry)
	}
	if payload.To == "" {
		return fmt.Errorf("mail job: empty recipient: %w", asynq.SkipRetry)
	}
	tracker := j.Metrics.Track(TaskTypeSendEmail)
	defer func() { err = tracker.End(err) }()

	msg := gomail.NewMessage()
	msg.SetHeader("From", j.From)
	msg.SetHeader("To", payload.To)
	msg.SetHeader("Subject", payload.Subject)
	msg.SetBody("text/plain", payload.Body)
	if err := j.Sender.DialAndSend(msg); err != nil {
		return fmt.Errorf("mail job: send: %w", err)
	}
	if j.Logger != nil {
		j.Logger.InfoContext(ctx, "email sent", slog.String("subject", payload.Subject))
	}
	return nil
}
