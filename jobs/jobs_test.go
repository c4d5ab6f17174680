package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/hibiken/asynq"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/gomail.v2"

	jobmetrics "github.com/learnhub/learnhub/internal/jobs"
	"github.com/learnhub/learnhub/internal/payments"
	"github.com/learnhub/learnhub/internal/users"
)

type stubEnqueuer struct {
	tasks []*asynq.Task
	err   error
}

func (s *stubEnqueuer) EnqueueContext(_ context.Context, task *asynq.Task, _ ...asynq.Option) (*asynq.TaskInfo, error) {
	if s.err != nil {
		return nil, s.err
	}
	s.tasks = append(s.tasks, task)
	return &asynq.TaskInfo{Type: task.Type()}, nil
}

func (s *stubEnqueuer) Close() error { return nil }

type stubProcessor struct {
	err   error
	calls []uuid.UUID
}

func (s *stubProcessor) Process(_ context.Context, id uuid.UUID) error {
	s.calls = append(s.calls, id)
	return s.err
}

type stubSender struct {
	sent []*gomail.Message
	err  error
}

func (s *stubSender) DialAndSend(m ...*gomail.Message) error {
	if s.err != nil {
		return s.err
	}
	s.sent = append(s.sent, m...)
	return nil
}

type stubCleaner struct{ olderThan time.Duration }

func (s *stubCleaner) Cleanup(_ context.Context, olderThan time.Duration) error {
	s.olderThan = olderThan
	return nil
}

type stubInspector map[string]*asynq.QueueInfo

func (s stubInspector) GetQueueInfo(queue string) (*asynq.QueueInfo, error) {
	info, ok := s[queue]
	if !ok {
		return nil, asynq.ErrQueueNotFound
	}
	return info, nil
}

func TestNewTasks(t *testing.T) {
	id := uuid.New()
	task, err := NewPaymentProcessTask(id)
	require.NoError(t, err)
	assert.Equal(t, TaskTypePaymentProcess, task.Type())
	var payload PaymentProcessPayload
	require.NoError(t, json.Unmarshal(task.Payload(), &payload))
	assert.Equal(t, id, payload.PaymentID)

	_, err = NewPaymentProcessTask(uuid.Nil)
	assert.Error(t, err)
	_, err = NewSendEmailTask(SendEmailPayload{})
	assert.Error(t, err)

	cleanup, err := NewIdempotencyCleanupTask(0)
	require.NoError(t, err)
	var retention IdempotencyCleanupPayload
	require.NoError(t, json.Unmarshal(cleanup.Payload(), &retention))
	assert.Equal(t, 24, retention.RetentionHours)
}

func TestClientEnqueue(t *testing.T) {
	stub := &stubEnqueuer{}
	client := NewClientWith(stub)
	ctx := context.Background()

	require.NoError(t, client.EnqueuePaymentProcess(ctx, uuid.New()))
	require.NoError(t, client.SendWelcome(ctx, &users.User{Name: "Ada", Email: "ada@example.com"}))
	require.Len(t, stub.tasks, 2)
	assert.Equal(t, TaskTypeSendEmail, stub.tasks[1].Type())
	var mail SendEmailPayload
	require.NoError(t, json.Unmarshal(stub.tasks[1].Payload(), &mail))
	assert.Equal(t, "ada@example.com", mail.To)
	assert.Contains(t, mail.Body, "Ada")

	stub.err = asynq.ErrTaskIDConflict
	assert.NoError(t, client.EnqueuePaymentProcess(ctx, uuid.New()))
	stub.err = errors.New("redis down")
	assert.Error(t, client.EnqueuePaymentProcess(ctx, uuid.New()))
}

func TestPaymentJob(t *testing.T) {
	metrics := jobmetrics.NewMetrics(prometheus.NewRegistry())
	proc := &stubProcessor{}
	job := &PaymentJob{Processor: proc, Metrics: metrics}
	id := uuid.New()
	task, err := NewPaymentProcessTask(id)
	require.NoError(t, err)

	require.NoError(t, job.Handle(context.Background(), task))
	assert.Equal(t, []uuid.UUID{id}, proc.calls)

	proc.err = payments.ErrNotFound
	err = job.Handle(context.Background(), task)
	assert.ErrorIs(t, err, asynq.SkipRetry)

	proc.err = errors.New("provider timeout")
	err = job.Handle(context.Background(), task)
	require.Error(t, err)
	assert.NotErrorIs(t, err, asynq.SkipRetry)

	err = job.Handle(context.Background(), asynq.NewTask(TaskTypePaymentProcess, []byte("{")))
	assert.ErrorIs(t, err, asynq.SkipRetry)
}

func TestMailJob(t *testing.T) {
	sender := &stubSender{}
	job := &MailJob{Sender: sender, From: "no-reply@learnhub.local"}
	task, err := NewSendEmailTask(SendEmailPayload{To: "ada@example.com", Subject: "Hi", Body: "Hello"})
	require.NoError(t, err)

	require.NoError(t, job.Handle(context.Background(), task))
	require.Len(t, sender.sent, 1)
	assert.Equal(t, []string{"ada@example.com"}, sender.sent[0].GetHeader("To"))
	assert.Equal(t, []string{"no-reply@learnhub.local"}, sender.sent[0].GetHeader("From"))

	sender.err = errors.New("smtp down")
	assert.Error(t, job.Handle(context.Background(), task))

	err = job.Handle(context.Background(), asynq.NewTask(TaskTypeSendEmail, []byte(`{"to":""}`)))
	assert.ErrorIs(t, err, asynq.SkipRetry)
}

func TestIdempotencyCleanupJob(t *testing.T) {
	metrics := jobmetrics.NewMetrics(prometheus.NewRegistry())
	store := &stubCleaner{}
	job := &IdempotencyCleanupJob{Store: store, Metrics: metrics}
	task, err := NewIdempotencyCleanupTask(48)
	require.NoError(t, err)

	require.NoError(t, job.Handle(context.Background(), task))
	assert.Equal(t, 48*time.Hour, store.olderThan)
}

func TestHealthHandler(t *testing.T) {
	r := chi.NewRouter()
	r.Route("/jobs", NewHandler(stubInspector{
		QueueCritical: {Queue: QueueCritical, Pending: 3, Active: 1},
	}, nil).MountRoutes)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/jobs/health", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	var body struct {
		Queues []QueueStatus `json:"queues"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	require.Len(t, body.Queues, len(Queues))
	assert.Equal(t, QueueStatus{Queue: QueueCritical, Pending: 3, Active: 1}, body.Queues[0])
	assert.Equal(t, QueueDefault, body.Queues[1].Queue)
}

func TestNewWorkerRequiresHandlers(t *testing.T) {
	_, err := NewWorker(WorkerConfig{})
	assert.Error(t, err)
}
