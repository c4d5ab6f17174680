package courses

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/google/uuid"

	"github.com/learnhub/learnhub/internal/authz"
	"github.com/learnhub/learnhub/internal/platform/cache"
	"github.com/learnhub/learnhub/internal/shared"
)

// Service wraps course business rules.
type Service struct {
	repo    Repository
	catalog *cache.Versioned
	audit   shared.AuditRecorder
	logger  *slog.Logger

	create   *authz.Gate[*Course]
	view     *authz.Gate[*Course]
	update   *authz.Gate[*Course]
	remove   *authz.Gate[*Course]
	verified *authz.Gate[*Course]
}

// NewService constructs a Service. catalog, audit and observer may be nil.
func NewService(repo Repository, catalog *cache.Versioned, audit shared.AuditRecorder, observer authz.Observer, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	if audit == nil {
		audit = shared.NopAudit{}
	}
	gate := func(cfg authz.GateConfig[*Course]) *authz.Gate[*Course] {
		cfg.Domain = authz.DomainCourse
		cfg.Observer = observer
		cfg.Logger = logger
		if cfg.Provides != authz.FieldNone {
			cfg.Lookup = lookup(repo)
			cfg.Bind = bindCourse
			cfg.NotFound = ErrNotFound
		}
		return authz.MustGate(cfg)
	}
	return &Service{
		repo:    repo,
		catalog: catalog,
		audit:   audit,
		logger:  logger,
		create: gate(authz.GateConfig[*Course]{
			Action:     authz.ActionCreate,
			Predicates: []authz.Predicate{authz.IsAuthor},
		}),
		view: gate(authz.GateConfig[*Course]{
			Action:     authz.ActionGet,
			Mode:       authz.PrincipalOptional,
			Provides:   authz.FieldCourse,
			Predicates: []authz.Predicate{authz.IsCourseActiveOrOwner},
			Conceal:    true,
		}),
		update: gate(authz.GateConfig[*Course]{
			Action:     authz.ActionUpdate,
			Provides:   authz.FieldCourse,
			Predicates: []authz.Predicate{authz.IsCourseOwner},
			Conceal:    true,
		}),
		remove: gate(authz.GateConfig[*Course]{
			Action:     authz.ActionDelete,
			Provides:   authz.FieldCourse,
			Logic:      authz.LogicOr,
			Predicates: []authz.Predicate{authz.IsCourseOwner, authz.IsAdminGroup},
			Conceal:    true,
		}),
		verified: gate(authz.GateConfig[*Course]{
			Name:       "course.publish",
			Action:     authz.ActionUpdate,
			Predicates: []authz.Predicate{authz.IsVerifiedAuthor},
		}),
	}
}

func lookup(repo Repository) authz.Lookup[*Course] {
	return func(ctx context.Context, id string) (*Course, error) {
		cid, err := uuid.Parse(id)
		if err != nil {
			return nil, ErrNotFound
		}
		return repo.Get(ctx, cid)
	}
}

func bindCourse(pc *authz.Context, c *Course) {
	pc.Course = c.Ref()
}

// Create adds a draft course owned by the calling author.
func (s *Service) Create(ctx context.Context, req CreateRequest) (*Course, error) {
	if err := s.create.Require(ctx); err != nil {
		return nil, err
	}
	author := authz.PrincipalFromContext(ctx).Author
	c := Course{
		ID:          uuid.New(),
		AuthorID:    author.ID,
		Title:       req.Title,
		Description: req.Description,
		Level:       req.Level,
		Logo:        req.Logo,
		Price:       req.Price,
		Discount:    req.Discount,
		Currency:    req.Currency,
		Language:    req.Language,
	}
	if c.Currency == "" {
		c.Currency = "usd"
	}
	if c.Language == "" {
		c.Language = "en"
	}
	created, err := s.repo.Create(ctx, c)
	if err != nil {
		return nil, err
	}
	s.invalidate(ctx)
	return created, nil
}

// Get returns an active course, or an inactive one to its author.
func (s *Service) Get(ctx context.Context, id string) (*Course, error) {
	return s.view.Authorize(ctx, id)
}

// List returns one page of the public catalog.
func (s *Service) List(ctx context.Context, page shared.Page) (*Catalog, error) {
	key, err := s.catalog.Key(ctx, "list", strconv.Itoa(page.Limit), strconv.Itoa(page.Offset))
	if err != nil {
		s.logger.WarnContext(ctx, "catalog cache key", slog.Any("error", err))
		return s.loadCatalog(ctx, page)
	}
	var out Catalog
	err = s.catalog.FetchJSON(ctx, key, &out, func(ctx context.Context) (any, error) {
		return s.loadCatalog(ctx, page)
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (s *Service) loadCatalog(ctx context.Context, page shared.Page) (*Catalog, error) {
	list, total, err := s.repo.ListActive(ctx, page)
	if err != nil {
		return nil, fmt.Errorf("list courses: %w", err)
	}
	if list == nil {
		list = []Course{}
	}
	return &Catalog{Courses: list, Pagination: page.Meta(total)}, nil
}

// Update patches a course owned by the caller.
func (s *Service) Update(ctx context.Context, id string, req UpdateRequest) (*Course, error) {
	if req.Empty() {
		return nil, ErrEmptyUpdate
	}
	var out *Course
	err := s.repo.WithTx(ctx, func(ctx context.Context, repo Repository) error {
		c, err := s.update.Using(lookup(repo)).Authorize(ctx, id)
		if err != nil {
			return err
		}
		out, err = repo.Update(ctx, c.ID, req)
		return err
	})
	if err != nil {
		return nil, err
	}
	s.invalidate(ctx)
	return out, nil
}

// Delete soft-deletes a course. The author or any admin group member may
// delete it.
func (s *Service) Delete(ctx context.Context, id string) error {
	err := s.repo.WithTx(ctx, func(ctx context.Context, repo Repository) error {
		c, err := s.remove.Using(lookup(repo)).Authorize(ctx, id)
		if err != nil {
			return err
		}
		if err := repo.SoftDelete(ctx, c.ID); err != nil {
			return err
		}
		actor := authz.PrincipalFromContext(ctx)
		if actor.InAdminGroup() {
			if err := s.audit.Record(ctx, shared.AuditLog{
				ActorID:  actor.ID,
				Action:   "course.delete",
				Entity:   "course",
				EntityID: c.ID.String(),
				Meta:     map[string]any{"author_id": c.AuthorID},
			}); err != nil {
				return fmt.Errorf("audit course delete: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return err
	}
	s.invalidate(ctx)
	return nil
}

// Publish makes a course visible in the catalog. Only verified authors may
// publish.
func (s *Service) Publish(ctx context.Context, id string) (*Course, error) {
	return s.setActive(ctx, id, true)
}

// Unpublish hides a course from the catalog.
func (s *Service) Unpublish(ctx context.Context, id string) (*Course, error) {
	return s.setActive(ctx, id, false)
}

func (s *Service) setActive(ctx context.Context, id string, active bool) (*Course, error) {
	var out *Course
	err := s.repo.WithTx(ctx, func(ctx context.Context, repo Repository) error {
		c, err := s.update.Using(lookup(repo)).Authorize(ctx, id)
		if err != nil {
			return err
		}
		if active {
			if err := s.verified.Check(ctx, c); err != nil {
				return err
			}
		}
		if err := repo.SetActive(ctx, c.ID, active); err != nil {
			return err
		}
		c.IsActive = active
		out = c
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.invalidate(ctx)
	return out, nil
}

func (s *Service) invalidate(ctx context.Context) {
	if err := s.catalog.Bump(ctx); err != nil {
		s.logger.WarnContext(ctx, "invalidate course catalog", slog.Any("error", err))
	}
}
