package payments

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/learnhub/learnhub/internal/platform/db"
)

// Settlement is the final outcome written back to a payment.
type Settlement struct {
	Status            Status
	ProviderPaymentID string
	FailureReason     string
}

// Repository defines persistence operations for payments and enrollments.
type Repository interface {
	WithTx(ctx context.Context, fn func(context.Context, Repository) error) error
	Offer(ctx context.Context, courseID uuid.UUID) (*CourseOffer, error)
	IsEnrolled(ctx context.Context, userID, courseID uuid.UUID) (bool, error)
	Create(ctx context.Context, p Payment) (*Payment, error)
	Get(ctx context.Context, id uuid.UUID) (*Payment, error)
	// Lock loads a payment and holds a row lock until the transaction ends.
	Lock(ctx context.Context, id uuid.UUID) (*Payment, error)
	ListByUser(ctx context.Context, userID uuid.UUID) ([]Payment, error)
	SetStatus(ctx context.Context, id uuid.UUID, status Status) error
	Settle(ctx context.Context, id uuid.UUID, s Settlement) (*Payment, error)
	Enroll(ctx context.Context, userID, courseID, paymentID uuid.UUID) error
}

type repository struct {
	db   db.DBTX
	pool *pgxpool.Pool
}

// NewRepository constructs a PostgreSQL repository.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{db: pool, pool: pool}
}

func (r *repository) WithTx(ctx context.Context, fn func(context.Context, Repository) error) error {
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		return fn(ctx, &repository{db: tx, pool: r.pool})
	})
}

const paymentColumns = `id, user_id, course_id, amount, currency, status, method, provider,
	provider_payment_id, failure_reason, processed_at, created_at, updated_at`

func scanPayment(row pgx.Row) (*Payment, error) {
	var p Payment
	var status string
	err := row.Scan(&p.ID, &p.UserID, &p.CourseID, &p.Amount, &p.Currency, &status, &p.Method, &p.Provider,
		&p.ProviderPaymentID, &p.FailureReason, &p.ProcessedAt, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	p.Status = Status(status)
	return &p, nil
}

func (r *repository) Offer(ctx context.Context, courseID uuid.UUID) (*CourseOffer, error) {
	o := CourseOffer{ID: courseID}
	err := r.db.QueryRow(ctx, `SELECT author_id, is_active, price, discount, currency
		FROM courses WHERE id = $1 AND NOT is_deleted`, courseID).
		Scan(&o.AuthorID, &o.Active, &o.Price, &o.Discount, &o.Currency)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrCourseNotFound
		}
		return nil, err
	}
	return &o, nil
}

func (r *repository) IsEnrolled(ctx context.Context, userID, courseID uuid.UUID) (bool, error) {
	var exists bool
	err := r.db.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM user_courses WHERE user_id = $1 AND course_id = $2)`, userID, courseID).Scan(&exists)
	return exists, err
}

func (r *repository) Create(ctx context.Context, p Payment) (*Payment, error) {
	row := r.db.QueryRow(ctx, `INSERT INTO payments (id, user_id, course_id, amount, currency, status, method, provider)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING `+paymentColumns,
		p.ID, p.UserID, p.CourseID, p.Amount, p.Currency, string(p.Status), p.Method, p.Provider)
	created, err := scanPayment(row)
	if err != nil {
		return nil, fmt.Errorf("insert payment: %w", err)
	}
	return created, nil
}

func (r *repository) Get(ctx context.Context, id uuid.UUID) (*Payment, error) {
	return scanPayment(r.db.QueryRow(ctx, `SELECT `+paymentColumns+` FROM payments WHERE id = $1`, id))
}

func (r *repository) Lock(ctx context.Context, id uuid.UUID) (*Payment, error) {
	return scanPayment(r.db.QueryRow(ctx, `SELECT `+paymentColumns+` FROM payments WHERE id = $1 FOR UPDATE`, id))
}

func (r *repository) ListByUser(ctx context.Context, userID uuid.UUID) ([]Payment, error) {
	rows, err := r.db.Query(ctx, `SELECT `+paymentColumns+` FROM payments WHERE user_id = $1 ORDER BY created_at DESC`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []Payment{}
	for rows.Next() {
		p, err := scanPayment(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *p)
	}
	return out, rows.Err()
}

func (r *repository) SetStatus(ctx context.Context, id uuid.UUID, status Status) error {
	tag, err := r.db.Exec(ctx, `UPDATE payments SET status = $2, updated_at = NOW() WHERE id = $1`, id, string(status))
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *repository) Settle(ctx context.Context, id uuid.UUID, s Settlement) (*Payment, error) {
	return scanPayment(r.db.QueryRow(ctx, `UPDATE payments SET
			status = $2,
			provider_payment_id = NULLIF($3, ''),
			failure_reason = NULLIF($4, ''),
			processed_at = NOW(),
			updated_at = NOW()
		WHERE id = $1
		RETURNING `+paymentColumns,
		id, string(s.Status), s.ProviderPaymentID, s.FailureReason))
}

func (r *repository) Enroll(ctx context.Context, userID, courseID, paymentID uuid.UUID) error {
	_, err := r.db.Exec(ctx, `INSERT INTO user_courses (user_id, course_id, payment_id)
		VALUES ($1, $2, $3)
		ON CONFLICT (user_id, course_id) DO NOTHING`, userID, courseID, paymentID)
	return err
}
