package users

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/learnhub/learnhub/internal/authz"
	"github.com/learnhub/learnhub/internal/shared"
)

// Mailer delivers account notifications.
type Mailer interface {
	SendWelcome(ctx context.Context, u *User) error
}

// Service wraps user account business rules.
type Service struct {
	repo   Repository
	mailer Mailer
	audit  shared.AuditRecorder
	logger *slog.Logger

	selfGet    *authz.Gate[*User]
	selfUpdate *authz.Gate[*User]
	selfDelete *authz.Gate[*User]
	adminGet   *authz.Gate[*User]
	adminDel   *authz.Gate[*User]
	grant      *authz.Gate[*User]
	revoke     *authz.Gate[*User]
}

// NewService constructs a Service. mailer, audit and observer may be nil.
func NewService(repo Repository, mailer Mailer, audit shared.AuditRecorder, observer authz.Observer, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	if audit == nil {
		audit = shared.NopAudit{}
	}
	gate := func(name string, action authz.Action, conceal bool) *authz.Gate[*User] {
		return authz.MustGate(authz.GateConfig[*User]{
			Name:       name,
			Domain:     authz.DomainUser,
			Action:     action,
			Lookup:     lookup(repo),
			Bind:       bindTarget,
			Provides:   authz.FieldTargetUser,
			Predicates: []authz.Predicate{authz.UserAction},
			NotFound:   ErrNotFound,
			Conceal:    conceal,
			Observer:   observer,
			Logger:     logger,
		})
	}
	return &Service{
		repo:       repo,
		mailer:     mailer,
		audit:      audit,
		logger:     logger,
		selfGet:    gate("user.self.get", authz.ActionGet, false),
		selfUpdate: gate("user.self.update", authz.ActionUpdate, false),
		selfDelete: gate("user.self.delete", authz.ActionDelete, false),
		adminGet:   gate("user.admin.get", authz.ActionGet, true),
		adminDel:   gate("user.admin.delete", authz.ActionDelete, true),
		grant:      gate("user.admin.set_privilege", authz.ActionSetAdminPrivilege, true),
		revoke:     gate("user.admin.revoke_privilege", authz.ActionRevokeAdminPrivilege, true),
	}
}

func lookup(repo Repository) authz.Lookup[*User] {
	return func(ctx context.Context, id string) (*User, error) {
		uid, err := uuid.Parse(id)
		if err != nil {
			return nil, ErrNotFound
		}
		return repo.Get(ctx, uid)
	}
}

// lockingLookup serializes role changes with author creation on the same row.
func lockingLookup(repo Repository) authz.Lookup[*User] {
	return func(ctx context.Context, id string) (*User, error) {
		uid, err := uuid.Parse(id)
		if err != nil {
			return nil, ErrNotFound
		}
		return repo.GetForUpdate(ctx, uid)
	}
}

func bindTarget(pc *authz.Context, u *User) {
	pc.TargetUser = u.Principal()
}

func selfID(ctx context.Context) string {
	if p := authz.PrincipalFromContext(ctx); p != nil {
		return p.ID.String()
	}
	return ""
}

// Register creates a regular user account.
func (s *Service) Register(ctx context.Context, req RegisterRequest) (*User, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	created, err := s.repo.Create(ctx, User{
		ID:           uuid.New(),
		Name:         strings.TrimSpace(req.Name),
		Surname:      strings.TrimSpace(req.Surname),
		Email:        strings.TrimSpace(req.Email),
		PasswordHash: string(hash),
		Role:         authz.RoleUser,
		IsActive:     true,
	})
	if err != nil {
		return nil, err
	}
	if s.mailer != nil {
		if err := s.mailer.SendWelcome(ctx, created); err != nil {
			s.logger.Warn("enqueue welcome email", slog.String("user_id", created.ID.String()), slog.Any("error", err))
		}
	}
	return created, nil
}

// Me returns the calling user.
func (s *Service) Me(ctx context.Context) (*User, error) {
	return s.selfGet.Authorize(ctx, selfID(ctx))
}

// UpdateMe patches the calling user's profile.
func (s *Service) UpdateMe(ctx context.Context, req UpdateRequest) (*User, error) {
	if req.Empty() {
		return nil, ErrEmptyUpdate
	}
	var updated *User
	err := s.repo.WithTx(ctx, func(ctx context.Context, repo Repository) error {
		me, err := s.selfUpdate.Using(lookup(repo)).Authorize(ctx, selfID(ctx))
		if err != nil {
			return err
		}
		updated, err = repo.Update(ctx, me.ID, req)
		return err
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// DeactivateMe deactivates the calling user. Admin group members cannot
// deactivate themselves.
func (s *Service) DeactivateMe(ctx context.Context) error {
	return s.repo.WithTx(ctx, func(ctx context.Context, repo Repository) error {
		me, err := s.selfDelete.Using(lookup(repo)).Authorize(ctx, selfID(ctx))
		if err != nil {
			return err
		}
		return repo.SetActive(ctx, me.ID, false)
	})
}

// MyCourses lists the courses purchased by the calling user.
func (s *Service) MyCourses(ctx context.Context) ([]EnrolledCourse, error) {
	me, err := s.selfGet.Authorize(ctx, selfID(ctx))
	if err != nil {
		return nil, err
	}
	courses, err := s.repo.ListCourses(ctx, me.ID)
	if err != nil {
		return nil, fmt.Errorf("list courses: %w", err)
	}
	if courses == nil {
		courses = []EnrolledCourse{}
	}
	return courses, nil
}

// Get returns a user the caller may manage.
func (s *Service) Get(ctx context.Context, id string) (*User, error) {
	return s.adminGet.Authorize(ctx, id)
}

// Deactivate deactivates a user the caller may manage.
func (s *Service) Deactivate(ctx context.Context, id string) error {
	return s.repo.WithTx(ctx, func(ctx context.Context, repo Repository) error {
		target, err := s.adminDel.Using(lookup(repo)).Authorize(ctx, id)
		if err != nil {
			return err
		}
		if err := repo.SetActive(ctx, target.ID, false); err != nil {
			return err
		}
		return s.record(ctx, "user.deactivate", target)
	})
}

// SetAdminPrivilege promotes a user to admin. Authors cannot be promoted.
func (s *Service) SetAdminPrivilege(ctx context.Context, id string) (*User, error) {
	var out *User
	err := s.repo.WithTx(ctx, func(ctx context.Context, repo Repository) error {
		target, err := s.grant.Using(lockingLookup(repo)).Authorize(ctx, id)
		if err != nil {
			return err
		}
		isAuthor, err := repo.HasAuthor(ctx, target.ID)
		if err != nil {
			return fmt.Errorf("check author: %w", err)
		}
		if isAuthor {
			return ErrAuthorExclusive
		}
		if err := repo.SetRole(ctx, target.ID, authz.RoleAdmin); err != nil {
			return err
		}
		target.Role = authz.RoleAdmin
		out = target
		return s.record(ctx, "user.set_admin_privilege", target)
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// RevokeAdminPrivilege demotes an admin back to a regular user.
func (s *Service) RevokeAdminPrivilege(ctx context.Context, id string) (*User, error) {
	var out *User
	err := s.repo.WithTx(ctx, func(ctx context.Context, repo Repository) error {
		target, err := s.revoke.Using(lockingLookup(repo)).Authorize(ctx, id)
		if err != nil {
			return err
		}
		if err := repo.SetRole(ctx, target.ID, authz.RoleUser); err != nil {
			return err
		}
		target.Role = authz.RoleUser
		out = target
		return s.record(ctx, "user.revoke_admin_privilege", target)
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (s *Service) record(ctx context.Context, action string, target *User) error {
	actor := authz.PrincipalFromContext(ctx)
	if actor == nil {
		return nil
	}
	if err := s.audit.Record(ctx, shared.AuditLog{
		ActorID:  actor.ID,
		Action:   action,
		Entity:   "user",
		EntityID: target.ID.String(),
		Meta:     map[string]any{"role": target.Role},
	}); err != nil {
		return fmt.Errorf("audit %s: %w", action, err)
	}
	return nil
}
