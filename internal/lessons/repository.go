package lessons

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

// Repository defines persistence operations for lessons. Lessons of
// soft-deleted courses are invisible.
type Repository interface {
	WithTx(ctx context.Context, fn func(context.Context, Repository) error) error
	Course(ctx context.Context, courseID uuid.UUID) (*authz.CourseRef, error)
	Create(ctx context.Context, l Lesson) (*Lesson, error)
	Get(ctx context.Context, id uuid.UUID) (*Lesson, error)
	Update(ctx context.Context, id uuid.UUID, req UpdateRequest) (*Lesson, error)
	Delete(ctx context.Context, id uuid.UUID) error
	ListByCourse(ctx context.Context, courseID uuid.UUID, includeDrafts bool) ([]Lesson, error)
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

const lessonSelect = `SELECT l.id, l.course_id, l.title, l.slug, l.description, l.order_number, l.lesson_type,
	l.video_url, l.video_duration, l.estimated_duration, l.is_free, l.is_published, l.materials,
	l.created_at, l.updated_at, c.author_id, c.is_active
	FROM lessons l JOIN courses c ON c.id = l.course_id AND NOT c.is_deleted`

func scanLesson(row pgx.Row) (*Lesson, error) {
	var l Lesson
	err := row.Scan(&l.ID, &l.CourseID, &l.Title, &l.Slug, &l.Description, &l.OrderNumber, &l.Type,
		&l.VideoURL, &l.VideoDuration, &l.EstimatedDuration, &l.IsFree, &l.IsPublished, &l.Materials,
		&l.CreatedAt, &l.UpdatedAt, &l.AuthorID, &l.CourseActive)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if l.Materials == nil {
		l.Materials = []Material{}
	}
	return &l, nil
}

func mapWriteError(err error) error {
	switch {
	case db.IsUniqueViolation(err, "lessons_course_order_key"):
		return ErrOrderTaken
	case db.IsUniqueViolation(err, "lessons_slug_key"):
		return errSlugTaken
	}
	return err
}

// Course share-locks the course row, so inside a transaction a concurrent
// soft delete waits for the caller to finish.
func (r *repository) Course(ctx context.Context, courseID uuid.UUID) (*authz.CourseRef, error) {
	ref := authz.CourseRef{ID: courseID}
	err := r.db.QueryRow(ctx, `SELECT author_id, is_active FROM courses WHERE id = $1 AND NOT is_deleted FOR SHARE`, courseID).
		Scan(&ref.AuthorID, &ref.Active)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrCourseNotFound
		}
		return nil, err
	}
	return &ref, nil
}

func (r *repository) Create(ctx context.Context, l Lesson) (*Lesson, error) {
	materials := l.Materials
	if materials == nil {
		materials = []Material{}
	}
	tag, err := r.db.Exec(ctx, `INSERT INTO lessons
			(id, course_id, title, slug, description, order_number, lesson_type, video_url,
			 video_duration, estimated_duration, is_free, is_published, materials)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		ON CONFLICT (slug) DO NOTHING`,
		l.ID, l.CourseID, l.Title, l.Slug, l.Description, l.OrderNumber, l.Type, l.VideoURL,
		l.VideoDuration, l.EstimatedDuration, l.IsFree, l.IsPublished, materials)
	if err != nil {
		if mapped := mapWriteError(err); mapped != err {
			return nil, mapped
		}
		return nil, fmt.Errorf("insert lesson: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return nil, errSlugTaken
	}
	return r.Get(ctx, l.ID)
}

func (r *repository) Get(ctx context.Context, id uuid.UUID) (*Lesson, error) {
	return scanLesson(r.db.QueryRow(ctx, lessonSelect+` WHERE l.id = $1`, id))
}

func (r *repository) Update(ctx context.Context, id uuid.UUID, req UpdateRequest) (*Lesson, error) {
	tag, err := r.db.Exec(ctx, `UPDATE lessons SET
			title = COALESCE($2, title),
			description = COALESCE($3, description),
			order_number = COALESCE($4, order_number),
			lesson_type = COALESCE($5, lesson_type),
			video_url = COALESCE($6, video_url),
			video_duration = COALESCE($7, video_duration),
			estimated_duration = COALESCE($8, estimated_duration),
			is_free = COALESCE($9, is_free),
			is_published = COALESCE($10, is_published),
			materials = COALESCE($11, materials),
			updated_at = NOW()
		WHERE id = $1`,
		id, req.Title, req.Description, req.OrderNumber, req.Type, req.VideoURL, req.VideoDuration,
		req.EstimatedDuration, req.IsFree, req.IsPublished, req.Materials)
	if err != nil {
		return nil, mapWriteError(err)
	}
	if tag.RowsAffected() == 0 {
		return nil, ErrNotFound
	}
	return r.Get(ctx, id)
}

func (r *repository) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM lessons WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *repository) ListByCourse(ctx context.Context, courseID uuid.UUID, includeDrafts bool) ([]Lesson, error) {
	rows, err := r.db.Query(ctx, lessonSelect+`
		WHERE l.course_id = $1 AND (l.is_published OR $2)
		ORDER BY l.order_number`, courseID, includeDrafts)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []Lesson{}
	for rows.Next() {
		l, err := scanLesson(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *l)
	}
	return out, rows.Err()
}
