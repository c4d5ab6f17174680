package payments

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/learnhub/learnhub/internal/authz"
	"github.com/learnhub/learnhub/internal/shared"
)

const idempotencyModule = "payments"

var errSettled = errors.New("payment already settled")

// Enqueuer schedules asynchronous payment processing.
type Enqueuer interface {
	EnqueuePaymentProcess(ctx context.Context, paymentID uuid.UUID) error
}

// Idempotency records client supplied request keys.
type Idempotency interface {
	CheckAndInsert(ctx context.Context, key, module string) error
	Delete(ctx context.Context, key string) error
}

// SettlementObserver is notified when a payment reaches a terminal status.
type SettlementObserver interface {
	PaymentSettled(provider, status string)
}

// Config collects Service dependencies. Queue, Idempotency, Settlements and
// Observer are optional.
type Config struct {
	Repo        Repository
	Provider    Provider
	Queue       Enqueuer
	Idempotency Idempotency
	Settlements SettlementObserver
	Observer    authz.Observer
	Logger      *slog.Logger
}

// Service wraps payment business rules.
type Service struct {
	repo        Repository
	provider    Provider
	queue       Enqueuer
	idempotency Idempotency
	settlements SettlementObserver
	logger      *slog.Logger

	create *authz.Gate[*Payment]
	list   *authz.Gate[*Payment]
	view   *authz.Gate[*Payment]
}

// NewService constructs a Service.
func NewService(cfg Config) *Service {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	provider := cfg.Provider
	if provider == nil {
		provider = SandboxProvider{}
	}
	principalGate := func(name string, action authz.Action) *authz.Gate[*Payment] {
		return authz.MustGate(authz.GateConfig[*Payment]{
			Name:       name,
			Domain:     authz.DomainPayment,
			Action:     action,
			Predicates: []authz.Predicate{authz.IsAuthenticated},
			Observer:   cfg.Observer,
			Logger:     logger,
		})
	}
	return &Service{
		repo:        cfg.Repo,
		provider:    provider,
		queue:       cfg.Queue,
		idempotency: cfg.Idempotency,
		settlements: cfg.Settlements,
		logger:      logger,
		create:      principalGate("payment.create", authz.ActionCreate),
		list:        principalGate("payment.list", authz.ActionGet),
		view: authz.MustGate(authz.GateConfig[*Payment]{
			Domain:     authz.DomainPayment,
			Action:     authz.ActionGet,
			Lookup:     lookup(cfg.Repo),
			Bind:       func(pc *authz.Context, p *Payment) { pc.Payment = p.Ref() },
			Provides:   authz.FieldPayment,
			Logic:      authz.LogicOr,
			Predicates: []authz.Predicate{authz.IsPaymentOwner, authz.IsAdminGroup},
			NotFound:   ErrNotFound,
			Conceal:    true,
			Observer:   cfg.Observer,
			Logger:     logger,
		}),
	}
}

func lookup(repo Repository) authz.Lookup[*Payment] {
	return func(ctx context.Context, id string) (*Payment, error) {
		pid, err := uuid.Parse(id)
		if err != nil {
			return nil, ErrNotFound
		}
		return repo.Get(ctx, pid)
	}
}

// Create opens a pending payment for a course and schedules its processing.
// A non-empty idempotencyKey makes retries of the same request fail with
// ErrDuplicateRequest instead of charging twice.
func (s *Service) Create(ctx context.Context, req CreateRequest, idempotencyKey string) (out *Payment, err error) {
	if err := s.create.Require(ctx); err != nil {
		return nil, err
	}
	principal := authz.PrincipalFromContext(ctx)

	if idempotencyKey != "" && s.idempotency != nil {
		key := principal.ID.String() + ":" + idempotencyKey
		if err := s.idempotency.CheckAndInsert(ctx, key, idempotencyModule); err != nil {
			if errors.Is(err, shared.ErrIdempotencyConflict) {
				return nil, ErrDuplicateRequest
			}
			return nil, fmt.Errorf("record idempotency key: %w", err)
		}
		defer func() {
			if err == nil {
				return
			}
			if delErr := s.idempotency.Delete(context.WithoutCancel(ctx), key); delErr != nil {
				s.logger.WarnContext(ctx, "release idempotency key", slog.Any("error", delErr))
			}
		}()
	}

	offer, err := s.repo.Offer(ctx, req.CourseID)
	if err != nil {
		return nil, err
	}
	if !offer.Active {
		return nil, ErrCourseNotFound
	}
	if principal.Author != nil && principal.Author.ID == offer.AuthorID {
		return nil, ErrOwnCourse
	}
	enrolled, err := s.repo.IsEnrolled(ctx, principal.ID, offer.ID)
	if err != nil {
		return nil, fmt.Errorf("check enrollment: %w", err)
	}
	if enrolled {
		return nil, ErrAlreadyEnrolled
	}

	payment, err := s.repo.Create(ctx, Payment{
		ID:       uuid.New(),
		UserID:   principal.ID,
		CourseID: offer.ID,
		Amount:   offer.Amount(),
		Currency: offer.Currency,
		Status:   StatusPending,
		Method:   req.Method,
		Provider: s.provider.Name(),
	})
	if err != nil {
		return nil, err
	}
	if s.queue != nil {
		if err := s.queue.EnqueuePaymentProcess(ctx, payment.ID); err != nil {
			if _, settleErr := s.repo.Settle(context.WithoutCancel(ctx), payment.ID, Settlement{
				Status:        StatusFailed,
				FailureReason: "could not schedule processing",
			}); settleErr != nil {
				s.logger.ErrorContext(ctx, "fail unscheduled payment", slog.String("payment_id", payment.ID.String()), slog.Any("error", settleErr))
			}
			return nil, fmt.Errorf("enqueue payment: %w", err)
		}
	}
	return payment, nil
}

// List returns the caller's payments, newest first.
func (s *Service) List(ctx context.Context) ([]Payment, error) {
	if err := s.list.Require(ctx); err != nil {
		return nil, err
	}
	list, err := s.repo.ListByUser(ctx, authz.PrincipalFromContext(ctx).ID)
	if err != nil {
		return nil, fmt.Errorf("list payments: %w", err)
	}
	return list, nil
}

// Get returns a payment visible to its owner or to the admin group.
func (s *Service) Get(ctx context.Context, id string) (*Payment, error) {
	return s.view.Authorize(ctx, id)
}

// Process charges a pending payment and enrolls the buyer on success. It
// runs in the worker without a principal. Settled payments are left
// untouched, so the task can be retried safely.
func (s *Service) Process(ctx context.Context, id uuid.UUID) error {
	logger := s.logger.With(slog.String("payment_id", id.String()))

	var payment *Payment
	err := s.repo.WithTx(ctx, func(ctx context.Context, repo Repository) error {
		p, err := repo.Lock(ctx, id)
		if err != nil {
			return err
		}
		if p.Status.Terminal() {
			return errSettled
		}
		if p.Status == StatusPending {
			if err := repo.SetStatus(ctx, id, StatusProcessing); err != nil {
				return err
			}
			p.Status = StatusProcessing
		}
		payment = p
		return nil
	})
	if errors.Is(err, errSettled) {
		logger.InfoContext(ctx, "payment already settled")
		return nil
	}
	if err != nil {
		return err
	}

	result, err := s.provider.Charge(ctx, ChargeRequest{
		PaymentID: payment.ID,
		Amount:    payment.Amount,
		Currency:  payment.Currency,
		Method:    payment.Method,
	})
	if err != nil {
		return fmt.Errorf("charge payment: %w", err)
	}

	settlement := Settlement{Status: StatusSucceeded, ProviderPaymentID: result.ProviderPaymentID}
	if !result.Approved {
		settlement.Status = StatusFailed
		settlement.FailureReason = result.DeclineReason
	}
	err = s.repo.WithTx(ctx, func(ctx context.Context, repo Repository) error {
		p, err := repo.Lock(ctx, id)
		if err != nil {
			return err
		}
		if p.Status.Terminal() {
			return errSettled
		}
		if _, err := repo.Settle(ctx, id, settlement); err != nil {
			return err
		}
		if settlement.Status == StatusSucceeded {
			return repo.Enroll(ctx, p.UserID, p.CourseID, p.ID)
		}
		return nil
	})
	if errors.Is(err, errSettled) {
		return nil
	}
	if err != nil {
		return err
	}
	if s.settlements != nil {
		s.settlements.PaymentSettled(s.provider.Name(), string(settlement.Status))
	}
	logger.InfoContext(ctx, "payment settled", slog.String("status", string(settlement.Status)))
	return nil
}
