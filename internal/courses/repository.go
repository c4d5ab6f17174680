package courses

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/learnhub/learnhub/internal/platform/db"
	"github.com/learnhub/learnhub/internal/shared"
)

// Repository defines persistence operations for courses. Soft-deleted
// courses are invisible to every read.
type Repository interface {
	WithTx(ctx context.Context, fn func(context.Context, Repository) error) error
	Create(ctx context.Context, c Course) (*Course, error)
	Get(ctx context.Context, id uuid.UUID) (*Course, error)
	Update(ctx context.Context, id uuid.UUID, req UpdateRequest) (*Course, error)
	SetActive(ctx context.Context, id uuid.UUID, active bool) error
	SoftDelete(ctx context.Context, id uuid.UUID) error
	ListActive(ctx context.Context, page shared.Page) ([]Course, int, error)
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

const courseColumns = `id, author_id, title, description, level, logo, is_active, rating, price,
	discount, currency, language, created_at, updated_at`

func scanCourse(row pgx.Row) (*Course, error) {
	var c Course
	err := row.Scan(&c.ID, &c.AuthorID, &c.Title, &c.Description, &c.Level, &c.Logo, &c.IsActive,
		&c.Rating, &c.Price, &c.Discount, &c.Currency, &c.Language, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &c, nil
}

func (r *repository) Create(ctx context.Context, c Course) (*Course, error) {
	row := r.db.QueryRow(ctx, `INSERT INTO courses
			(id, author_id, title, description, level, logo, is_active, price, discount, currency, language)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING `+courseColumns,
		c.ID, c.AuthorID, c.Title, c.Description, c.Level, c.Logo, c.IsActive, c.Price, c.Discount, c.Currency, c.Language)
	created, err := scanCourse(row)
	if err != nil {
		return nil, fmt.Errorf("insert course: %w", err)
	}
	return created, nil
}

func (r *repository) Get(ctx context.Context, id uuid.UUID) (*Course, error) {
	return scanCourse(r.db.QueryRow(ctx, `SELECT `+courseColumns+` FROM courses WHERE id = $1 AND NOT is_deleted`, id))
}

func (r *repository) Update(ctx context.Context, id uuid.UUID, req UpdateRequest) (*Course, error) {
	return scanCourse(r.db.QueryRow(ctx, `UPDATE courses SET
			title = COALESCE($2, title),
			description = COALESCE($3, description),
			level = COALESCE($4, level),
			logo = COALESCE($5, logo),
			price = COALESCE($6, price),
			discount = COALESCE($7, discount),
			currency = COALESCE($8, currency),
			language = COALESCE($9, language),
			updated_at = NOW()
		WHERE id = $1 AND NOT is_deleted
		RETURNING `+courseColumns,
		id, req.Title, req.Description, req.Level, req.Logo, req.Price, req.Discount, req.Currency, req.Language))
}

func (r *repository) SetActive(ctx context.Context, id uuid.UUID, active bool) error {
	tag, err := r.db.Exec(ctx, `UPDATE courses SET is_active = $2, updated_at = NOW() WHERE id = $1 AND NOT is_deleted`, id, active)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *repository) SoftDelete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.db.Exec(ctx, `UPDATE courses SET is_deleted = TRUE, is_active = FALSE, updated_at = NOW() WHERE id = $1 AND NOT is_deleted`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *repository) ListActive(ctx context.Context, page shared.Page) ([]Course, int, error) {
	var total int
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM courses WHERE is_active AND NOT is_deleted`).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.db.Query(ctx, `SELECT `+courseColumns+` FROM courses
		WHERE is_active AND NOT is_deleted
		ORDER BY created_at DESC, id
		LIMIT $1 OFFSET $2`, page.Limit, page.Offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	out := make([]Course, 0, page.Limit)
	for rows.Next() {
		c, err := scanCourse(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, *c)
	}
	return out, total, rows.Err()
}
