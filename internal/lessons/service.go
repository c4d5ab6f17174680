package lessons

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/learnhub/learnhub/internal/authz"
	"github.com/learnhub/learnhub/internal/shared"
)

const slugAttempts = 5

// Service wraps lesson business rules. Lesson ownership follows the
// owning course.
type Service struct {
	repo   Repository
	logger *slog.Logger

	courseOwner *authz.Gate[*authz.CourseRef]
	courseView  *authz.Gate[*authz.CourseRef]
	view        *authz.Gate[*Lesson]
	update      *authz.Gate[*Lesson]
	remove      *authz.Gate[*Lesson]
}

// NewService constructs a Service. observer may be nil.
func NewService(repo Repository, observer authz.Observer, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	courseGate := func(name string, action authz.Action, mode authz.Mode, pred authz.Predicate) *authz.Gate[*authz.CourseRef] {
		return authz.MustGate(authz.GateConfig[*authz.CourseRef]{
			Name:       name,
			Domain:     authz.DomainLesson,
			Action:     action,
			Mode:       mode,
			Lookup:     courseLookup(repo),
			Bind:       func(pc *authz.Context, c *authz.CourseRef) { pc.Course = c },
			Provides:   authz.FieldCourse,
			Predicates: []authz.Predicate{pred},
			NotFound:   ErrCourseNotFound,
			Conceal:    true,
			Observer:   observer,
			Logger:     logger,
		})
	}
	lessonGate := func(action authz.Action, mode authz.Mode, pred authz.Predicate) *authz.Gate[*Lesson] {
		return authz.MustGate(authz.GateConfig[*Lesson]{
			Domain:     authz.DomainLesson,
			Action:     action,
			Mode:       mode,
			Lookup:     lookup(repo),
			Bind:       func(pc *authz.Context, l *Lesson) { pc.Lesson = l.Ref() },
			Provides:   authz.FieldLesson,
			Predicates: []authz.Predicate{pred},
			NotFound:   ErrNotFound,
			Conceal:    true,
			Observer:   observer,
			Logger:     logger,
		})
	}
	return &Service{
		repo:        repo,
		logger:      logger,
		courseOwner: courseGate("lesson.create", authz.ActionCreate, authz.PrincipalRequired, authz.IsCourseOwner),
		courseView:  courseGate("lesson.list", authz.ActionGet, authz.PrincipalOptional, authz.IsCourseActiveOrOwner),
		view:        lessonGate(authz.ActionGet, authz.PrincipalOptional, authz.IsLessonPublishedOrOwner),
		update:      lessonGate(authz.ActionUpdate, authz.PrincipalRequired, authz.IsLessonOwner),
		remove:      lessonGate(authz.ActionDelete, authz.PrincipalRequired, authz.IsLessonOwner),
	}
}

func courseLookup(repo Repository) authz.Lookup[*authz.CourseRef] {
	return func(ctx context.Context, id string) (*authz.CourseRef, error) {
		cid, err := uuid.Parse(id)
		if err != nil {
			return nil, ErrCourseNotFound
		}
		return repo.Course(ctx, cid)
	}
}

func lookup(repo Repository) authz.Lookup[*Lesson] {
	return func(ctx context.Context, id string) (*Lesson, error) {
		lid, err := uuid.Parse(id)
		if err != nil {
			return nil, ErrNotFound
		}
		return repo.Get(ctx, lid)
	}
}

// Create adds a lesson to a course owned by the caller. Ownership is
// checked in the transaction that inserts the lesson.
func (s *Service) Create(ctx context.Context, courseID string, req CreateRequest) (*Lesson, error) {
	var out *Lesson
	err := s.repo.WithTx(ctx, func(ctx context.Context, repo Repository) error {
		course, err := s.courseOwner.Using(courseLookup(repo)).Authorize(ctx, courseID)
		if err != nil {
			return err
		}
		out, err = insert(ctx, repo, course.ID, req)
		return err
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func insert(ctx context.Context, repo Repository, courseID uuid.UUID, req CreateRequest) (*Lesson, error) {
	base := shared.Slugify(req.Title)
	if base == "" {
		base = "lesson"
	}
	slug := base
	for attempt := 0; attempt < slugAttempts; attempt++ {
		created, err := repo.Create(ctx, Lesson{
			ID:                uuid.New(),
			CourseID:          courseID,
			Title:             req.Title,
			Slug:              slug,
			Description:       req.Description,
			OrderNumber:       req.OrderNumber,
			Type:              req.Type,
			VideoURL:          req.VideoURL,
			VideoDuration:     req.VideoDuration,
			EstimatedDuration: req.EstimatedDuration,
			IsFree:            req.IsFree,
			IsPublished:       req.IsPublished,
			Materials:         req.Materials,
		})
		if errors.Is(err, errSlugTaken) {
			slug = shared.SlugWithSuffix(base, uuid.NewString()[:8])
			continue
		}
		return created, err
	}
	return nil, fmt.Errorf("generate lesson slug for %q: %w", base, errSlugTaken)
}

// ListByCourse returns the lessons of a visible course. The course author
// also sees drafts.
func (s *Service) ListByCourse(ctx context.Context, courseID string) ([]Lesson, error) {
	course, err := s.courseView.Authorize(ctx, courseID)
	if err != nil {
		return nil, err
	}
	owner := authz.IsCourseOwner.Check(&authz.Context{
		Principal: authz.PrincipalFromContext(ctx),
		Action:    authz.ActionGet,
		Course:    course,
	}) == nil
	list, err := s.repo.ListByCourse(ctx, course.ID, owner)
	if err != nil {
		return nil, fmt.Errorf("list lessons: %w", err)
	}
	return list, nil
}

// Get returns a published lesson, or a draft to its course author.
func (s *Service) Get(ctx context.Context, id string) (*Lesson, error) {
	return s.view.Authorize(ctx, id)
}

// Update patches a lesson of a course owned by the caller.
func (s *Service) Update(ctx context.Context, id string, req UpdateRequest) (*Lesson, error) {
	if req.Empty() {
		return nil, ErrEmptyUpdate
	}
	var out *Lesson
	err := s.repo.WithTx(ctx, func(ctx context.Context, repo Repository) error {
		l, err := s.update.Using(lookup(repo)).Authorize(ctx, id)
		if err != nil {
			return err
		}
		out, err = repo.Update(ctx, l.ID, req)
		return err
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Delete removes a lesson of a course owned by the caller.
func (s *Service) Delete(ctx context.Context, id string) error {
	return s.repo.WithTx(ctx, func(ctx context.Context, repo Repository) error {
		l, err := s.remove.Using(lookup(repo)).Authorize(ctx, id)
		if err != nil {
			return err
		}
		return repo.Delete(ctx, l.ID)
	})
}
