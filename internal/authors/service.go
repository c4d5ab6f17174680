package authors

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

// Service wraps author profile business rules.
type Service struct {
	repo   Repository
	audit  shared.AuditRecorder
	logger *slog.Logger

	become *authz.Gate[*Author]
	self   *authz.Gate[*Author]
	verify *authz.Gate[*Author]
}

// NewService constructs a Service. audit and observer may be nil.
func NewService(repo Repository, audit shared.AuditRecorder, observer authz.Observer, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	if audit == nil {
		audit = shared.NopAudit{}
	}
	return &Service{
		repo:   repo,
		audit:  audit,
		logger: logger,
		become: authz.MustGate(authz.GateConfig[*Author]{
			Name:       "author.become",
			Domain:     authz.DomainAuthor,
			Action:     authz.ActionCreate,
			Predicates: []authz.Predicate{authz.IsAuthenticated, authz.IsNotAdminGroup},
			Observer:   observer,
			Logger:     logger,
		}),
		self: authz.MustGate(authz.GateConfig[*Author]{
			Name:       "author.self",
			Domain:     authz.DomainAuthor,
			Action:     authz.ActionUpdate,
			Predicates: []authz.Predicate{authz.IsAuthor},
			Observer:   observer,
			Logger:     logger,
		}),
		verify: authz.MustGate(authz.GateConfig[*Author]{
			Name:       "author.verify",
			Domain:     authz.DomainAuthor,
			Action:     authz.ActionUpdate,
			Lookup:     lookup(repo),
			Predicates: []authz.Predicate{authz.IsAdminGroup},
			NotFound:   ErrNotFound,
			Conceal:    true,
			Observer:   observer,
			Logger:     logger,
		}),
	}
}

func lookup(repo Repository) authz.Lookup[*Author] {
	return func(ctx context.Context, id string) (*Author, error) {
		aid, err := uuid.Parse(id)
		if err != nil {
			return nil, ErrNotFound
		}
		return repo.Get(ctx, aid)
	}
}

// Become turns the calling user into an author. Admin group members are
// refused so the role and the author record stay mutually exclusive. The
// role is re-read inside the transaction that inserts the author.
func (s *Service) Become(ctx context.Context, profile Profile) (*Author, error) {
	if err := s.become.Require(ctx); err != nil {
		return nil, err
	}
	p := authz.PrincipalFromContext(ctx)
	if p.IsAuthor() {
		return nil, ErrAlreadyAuthor
	}
	var out *Author
	err := s.repo.WithTx(ctx, func(ctx context.Context, repo Repository) error {
		acc, err := repo.ClaimUser(ctx, p.ID)
		if err != nil {
			return err
		}
		current := *p
		current.Role = acc.Role
		if err := s.become.Require(authz.ContextWithPrincipal(ctx, &current)); err != nil {
			return err
		}
		out, err = s.insert(ctx, repo, p.ID, shared.Slugify(acc.Name, acc.Surname), profile)
		return err
	})
	if err != nil {
		return nil, err
	}
	s.logger.InfoContext(ctx, "author created", slog.String("author_id", out.ID.String()), slog.String("slug", out.Slug))
	return out, nil
}

func (s *Service) insert(ctx context.Context, repo Repository, userID uuid.UUID, base string, profile Profile) (*Author, error) {
	if base == "" {
		base = "author"
	}
	slug := base
	for attempt := 0; attempt < slugAttempts; attempt++ {
		created, err := repo.Create(ctx, Author{
			ID:          uuid.New(),
			UserID:      userID,
			Slug:        slug,
			Education:   profile.Education,
			Country:     profile.Country,
			City:        profile.City,
			Phone:       profile.Phone,
			Website:     profile.Website,
			FacebookURL: profile.FacebookURL,
			LinkedinURL: profile.LinkedinURL,
		})
		if errors.Is(err, errSlugTaken) {
			slug = shared.SlugWithSuffix(base, uuid.NewString()[:8])
			continue
		}
		return created, err
	}
	return nil, fmt.Errorf("generate author slug for %q: %w", base, errSlugTaken)
}

// Me returns the calling author's profile.
func (s *Service) Me(ctx context.Context) (*Author, error) {
	if err := s.self.Require(ctx); err != nil {
		return nil, err
	}
	return s.repo.Get(ctx, authz.PrincipalFromContext(ctx).Author.ID)
}

// UpdateMe patches the calling author's profile.
func (s *Service) UpdateMe(ctx context.Context, profile Profile) (*Author, error) {
	if err := s.self.Require(ctx); err != nil {
		return nil, err
	}
	if profile.Empty() {
		return nil, ErrEmptyUpdate
	}
	return s.repo.Update(ctx, authz.PrincipalFromContext(ctx).Author.ID, profile)
}

// BySlug returns the public profile of an author.
func (s *Service) BySlug(ctx context.Context, slug string) (PublicAuthor, error) {
	a, err := s.repo.GetBySlug(ctx, slug)
	if err != nil {
		return PublicAuthor{}, err
	}
	return a.Public(), nil
}

// SetVerified changes the verification flag of an author.
func (s *Service) SetVerified(ctx context.Context, id string, verified bool) (*Author, error) {
	var out *Author
	err := s.repo.WithTx(ctx, func(ctx context.Context, repo Repository) error {
		target, err := s.verify.Using(lookup(repo)).Authorize(ctx, id)
		if err != nil {
			return err
		}
		if err := repo.SetVerified(ctx, target.ID, verified); err != nil {
			return err
		}
		target.IsVerified = verified
		out = target
		actor := authz.PrincipalFromContext(ctx)
		if err := s.audit.Record(ctx, shared.AuditLog{
			ActorID:  actor.ID,
			Action:   "author.set_verified",
			Entity:   "author",
			EntityID: target.ID.String(),
			Meta:     map[string]any{"verified": verified},
		}); err != nil {
			return fmt.Errorf("audit author verification: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}
