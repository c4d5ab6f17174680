package users

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/learnhub/learnhub/internal/authz"
	"github.com/learnhub/learnhub/internal/platform/db"
)

// Repository defines persistence operations for users.
type Repository interface {
	WithTx(ctx context.Context, fn func(context.Context, Repository) error) error
	Create(ctx context.Context, u User) (*User, error)
	Get(ctx context.Context, id uuid.UUID) (*User, error)
	GetForUpdate(ctx context.Context, id uuid.UUID) (*User, error)
	GetByEmail(ctx context.Context, email string) (*User, error)
	Update(ctx context.Context, id uuid.UUID, req UpdateRequest) (*User, error)
	SetActive(ctx context.Context, id uuid.UUID, active bool) error
	SetRole(ctx context.Context, id uuid.UUID, role authz.Role) error
	HasAuthor(ctx context.Context, id uuid.UUID) (bool, error)
	ListCourses(ctx context.Context, id uuid.UUID) ([]EnrolledCourse, error)
	LoadPrincipal(ctx context.Context, id uuid.UUID) (*authz.Principal, error)
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

const userColumns = `id, name, surname, email, password_hash, role, is_active, created_at, updated_at`

func scanUser(row pgx.Row) (*User, error) {
	var u User
	var role string
	if err := row.Scan(&u.ID, &u.Name, &u.Surname, &u.Email, &u.PasswordHash, &role, &u.IsActive, &u.CreatedAt, &u.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	u.Role = authz.Role(role).Normalize()
	return &u, nil
}

func (r *repository) Create(ctx context.Context, u User) (*User, error) {
	row := r.db.QueryRow(ctx, `INSERT INTO users (id, name, surname, email, password_hash, role, is_active)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING `+userColumns,
		u.ID, u.Name, u.Surname, strings.ToLower(u.Email), u.PasswordHash, string(u.Role), u.IsActive)
	created, err := scanUser(row)
	if err != nil {
		if db.IsUniqueViolation(err, "users_email_key") {
			return nil, ErrEmailTaken
		}
		return nil, fmt.Errorf("insert user: %w", err)
	}
	return created, nil
}

func (r *repository) Get(ctx context.Context, id uuid.UUID) (*User, error) {
	return scanUser(r.db.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id))
}

// GetForUpdate locks the user row until the surrounding transaction ends.
func (r *repository) GetForUpdate(ctx context.Context, id uuid.UUID) (*User, error) {
	return scanUser(r.db.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1 FOR UPDATE`, id))
}

func (r *repository) GetByEmail(ctx context.Context, email string) (*User, error) {
	return scanUser(r.db.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE email = $1`, strings.ToLower(email)))
}

func (r *repository) Update(ctx context.Context, id uuid.UUID, req UpdateRequest) (*User, error) {
	var email *string
	if req.Email != nil {
		lowered := strings.ToLower(*req.Email)
		email = &lowered
	}
	row := r.db.QueryRow(ctx, `UPDATE users SET
			name = COALESCE($2, name),
			surname = COALESCE($3, surname),
			email = COALESCE($4, email),
			updated_at = NOW()
		WHERE id = $1
		RETURNING `+userColumns,
		id, req.Name, req.Surname, email)
	updated, err := scanUser(row)
	if err != nil {
		if db.IsUniqueViolation(err, "users_email_key") {
			return nil, ErrEmailTaken
		}
		return nil, err
	}
	return updated, nil
}

func (r *repository) SetActive(ctx context.Context, id uuid.UUID, active bool) error {
	tag, err := r.db.Exec(ctx, `UPDATE users SET is_active = $2, updated_at = NOW() WHERE id = $1`, id, active)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *repository) SetRole(ctx context.Context, id uuid.UUID, role authz.Role) error {
	tag, err := r.db.Exec(ctx, `UPDATE users SET role = $2, updated_at = NOW() WHERE id = $1`, id, string(role))
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *repository) HasAuthor(ctx context.Context, id uuid.UUID) (bool, error) {
	var exists bool
	err := r.db.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM authors WHERE user_id = $1)`, id).Scan(&exists)
	return exists, err
}

func (r *repository) ListCourses(ctx context.Context, id uuid.UUID) ([]EnrolledCourse, error) {
	rows, err := r.db.Query(ctx, `SELECT c.id, c.title, c.level, uc.purchased_at
		FROM user_courses uc
		JOIN courses c ON c.id = uc.course_id
		WHERE uc.user_id = $1
		ORDER BY uc.purchased_at DESC`, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []EnrolledCourse
	for rows.Next() {
		var c EnrolledCourse
		if err := rows.Scan(&c.CourseID, &c.Title, &c.Level, &c.PurchasedAt); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// LoadPrincipal resolves an active user and its author record. Inactive or
// missing users yield ErrNotFound.
func (r *repository) LoadPrincipal(ctx context.Context, id uuid.UUID) (*authz.Principal, error) {
	var (
		role     string
		authorID *uuid.UUID
		verified *bool
	)
	err := r.db.QueryRow(ctx, `SELECT u.role, a.id, a.is_verified
		FROM users u
		LEFT JOIN authors a ON a.user_id = u.id
		WHERE u.id = $1 AND u.is_active`, id).Scan(&role, &authorID, &verified)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	p := &authz.Principal{ID: id, Role: authz.Role(role).Normalize()}
	if authorID != nil {
		p.Author = &authz.AuthorRef{ID: *authorID, Verified: verified != nil && *verified}
	}
	return p, nil
}
