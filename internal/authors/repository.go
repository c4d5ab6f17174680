package authors

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/learnhub/learnhub/internal/authz"
	"github.com/learnhub/learnhub/internal/platform/db"
)

// Repository defines persistence operations for authors.
type Repository interface {
	WithTx(ctx context.Context, fn func(context.Context, Repository) error) error
	Create(ctx context.Context, a Author) (*Author, error)
	Get(ctx context.Context, id uuid.UUID) (*Author, error)
	GetByUser(ctx context.Context, userID uuid.UUID) (*Author, error)
	GetBySlug(ctx context.Context, slug string) (*Author, error)
	Update(ctx context.Context, id uuid.UUID, p Profile) (*Author, error)
	SetVerified(ctx context.Context, id uuid.UUID, verified bool) error
	ClaimUser(ctx context.Context, userID uuid.UUID) (*Account, error)
}

// Account is the user row behind an author profile.
type Account struct {
	Name    string
	Surname string
	Role    authz.Role
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

const authorSelect = `SELECT a.id, a.user_id, a.slug, u.name, u.surname, a.is_verified, a.balance,
	a.education, a.country, a.city, a.phone, a.website, a.facebook_url, a.linkedin_url,
	a.created_at, a.updated_at
	FROM authors a JOIN users u ON u.id = a.user_id`

func scanAuthor(row pgx.Row) (*Author, error) {
	var a Author
	err := row.Scan(&a.ID, &a.UserID, &a.Slug, &a.Name, &a.Surname, &a.IsVerified, &a.Balance,
		&a.Education, &a.Country, &a.City, &a.Phone, &a.Website, &a.FacebookURL, &a.LinkedinURL,
		&a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &a, nil
}

// Create skips slug collisions with ON CONFLICT so a retry can run in the
// same transaction.
func (r *repository) Create(ctx context.Context, a Author) (*Author, error) {
	tag, err := r.db.Exec(ctx, `INSERT INTO authors
			(id, user_id, slug, education, country, city, phone, website, facebook_url, linkedin_url)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (slug) DO NOTHING`,
		a.ID, a.UserID, a.Slug, a.Education, a.Country, a.City, a.Phone, a.Website, a.FacebookURL, a.LinkedinURL)
	if err != nil {
		if db.IsUniqueViolation(err, "authors_user_id_key") {
			return nil, ErrAlreadyAuthor
		}
		return nil, fmt.Errorf("insert author: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return nil, errSlugTaken
	}
	return r.Get(ctx, a.ID)
}

func (r *repository) Get(ctx context.Context, id uuid.UUID) (*Author, error) {
	return scanAuthor(r.db.QueryRow(ctx, authorSelect+` WHERE a.id = $1`, id))
}

func (r *repository) GetByUser(ctx context.Context, userID uuid.UUID) (*Author, error) {
	return scanAuthor(r.db.QueryRow(ctx, authorSelect+` WHERE a.user_id = $1`, userID))
}

// GetBySlug only returns authors whose user is active.
func (r *repository) GetBySlug(ctx context.Context, slug string) (*Author, error) {
	return scanAuthor(r.db.QueryRow(ctx, authorSelect+` WHERE a.slug = $1 AND u.is_active`, slug))
}

func (r *repository) Update(ctx context.Context, id uuid.UUID, p Profile) (*Author, error) {
	tag, err := r.db.Exec(ctx, `UPDATE authors SET
			education = COALESCE($2, education),
			country = COALESCE($3, country),
			city = COALESCE($4, city),
			phone = COALESCE($5, phone),
			website = COALESCE($6, website),
			facebook_url = COALESCE($7, facebook_url),
			linkedin_url = COALESCE($8, linkedin_url),
			updated_at = NOW()
		WHERE id = $1`,
		id, p.Education, p.Country, p.City, p.Phone, p.Website, p.FacebookURL, p.LinkedinURL)
	if err != nil {
		return nil, err
	}
	if tag.RowsAffected() == 0 {
		return nil, ErrNotFound
	}
	return r.Get(ctx, id)
}

func (r *repository) SetVerified(ctx context.Context, id uuid.UUID, verified bool) error {
	tag, err := r.db.Exec(ctx, `UPDATE authors SET is_verified = $2, updated_at = NOW() WHERE id = $1`, id, verified)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// ClaimUser writes to the active user row and returns its current role.
// A concurrent role change on the same row then fails to serialize.
func (r *repository) ClaimUser(ctx context.Context, userID uuid.UUID) (*Account, error) {
	var (
		acc  Account
		role string
	)
	err := r.db.QueryRow(ctx, `UPDATE users SET updated_at = NOW()
		WHERE id = $1 AND is_active
		RETURNING name, surname, role`, userID).Scan(&acc.Name, &acc.Surname, &role)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, authz.ErrNotAuthorized
		}
		return nil, fmt.Errorf("claim user: %w", err)
	}
	acc.Role = authz.Role(role).Normalize()
	return &acc, nil
}
