package users

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/learnhub/learnhub/internal/authz"
	"github.com/learnhub/learnhub/internal/shared"
)

type stubRepo struct {
	users   map[uuid.UUID]*User
	authors map[uuid.UUID]bool
	courses map[uuid.UUID][]EnrolledCourse
	txCalls int
	locked  []uuid.UUID
}

func newStubRepo(users ...*User) *stubRepo {
	s := &stubRepo{users: map[uuid.UUID]*User{}, authors: map[uuid.UUID]bool{}, courses: map[uuid.UUID][]EnrolledCourse{}}
	for _, u := range users {
		s.users[u.ID] = u
	}
	return s
}

func (s *stubRepo) WithTx(ctx context.Context, fn func(context.Context, Repository) error) error {
	s.txCalls++
	return fn(ctx, s)
}

func (s *stubRepo) Create(_ context.Context, u User) (*User, error) {
	for _, existing := range s.users {
		if existing.Email == u.Email {
			return nil, ErrEmailTaken
		}
	}
	s.users[u.ID] = &u
	return &u, nil
}

func (s *stubRepo) Get(_ context.Context, id uuid.UUID) (*User, error) {
	u, ok := s.users[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (s *stubRepo) GetForUpdate(ctx context.Context, id uuid.UUID) (*User, error) {
	s.locked = append(s.locked, id)
	return s.Get(ctx, id)
}

func (s *stubRepo) GetByEmail(_ context.Context, email string) (*User, error) {
	for _, u := range s.users {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, ErrNotFound
}

func (s *stubRepo) Update(_ context.Context, id uuid.UUID, req UpdateRequest) (*User, error) {
	u, ok := s.users[id]
	if !ok {
		return nil, ErrNotFound
	}
	if req.Name != nil {
		u.Name = *req.Name
	}
	if req.Surname != nil {
		u.Surname = *req.Surname
	}
	if req.Email != nil {
		u.Email = *req.Email
	}
	cp := *u
	return &cp, nil
}

func (s *stubRepo) SetActive(_ context.Context, id uuid.UUID, active bool) error {
	u, ok := s.users[id]
	if !ok {
		return ErrNotFound
	}
	u.IsActive = active
	return nil
}

func (s *stubRepo) SetRole(_ context.Context, id uuid.UUID, role authz.Role) error {
	u, ok := s.users[id]
	if !ok {
		return ErrNotFound
	}
	u.Role = role
	return nil
}

func (s *stubRepo) HasAuthor(_ context.Context, id uuid.UUID) (bool, error) {
	return s.authors[id], nil
}

func (s *stubRepo) ListCourses(_ context.Context, id uuid.UUID) ([]EnrolledCourse, error) {
	return s.courses[id], nil
}

func (s *stubRepo) LoadPrincipal(_ context.Context, id uuid.UUID) (*authz.Principal, error) {
	u, ok := s.users[id]
	if !ok || !u.IsActive {
		return nil, ErrNotFound
	}
	return u.Principal(), nil
}

type stubMailer struct {
	sent []uuid.UUID
	err  error
}

func (m *stubMailer) SendWelcome(_ context.Context, u *User) error {
	m.sent = append(m.sent, u.ID)
	return m.err
}

type stubAudit struct {
	logs []shared.AuditLog
}

func (s *stubAudit) Record(_ context.Context, log shared.AuditLog) error {
	s.logs = append(s.logs, log)
	return nil
}

func newUser(role authz.Role) *User {
	return &User{ID: uuid.New(), Name: "Ada", Surname: "Lovelace", Email: uuid.NewString() + "@example.com", Role: role, IsActive: true}
}

func as(u *User) context.Context {
	return authz.ContextWithPrincipal(context.Background(), u.Principal())
}

func TestRegisterHashesPasswordAndSendsWelcome(t *testing.T) {
	repo := newStubRepo()
	mailer := &stubMailer{}
	svc := NewService(repo, mailer, nil, nil, nil)

	user, err := svc.Register(context.Background(), RegisterRequest{Name: " Ada ", Surname: "Lovelace", Email: "ada@example.com", Password: "Sup3r$ecret"})
	require.NoError(t, err)
	assert.Equal(t, "Ada", user.Name)
	assert.Equal(t, authz.RoleUser, user.Role)
	assert.True(t, user.IsActive)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte("Sup3r$ecret")))
	assert.Equal(t, []uuid.UUID{user.ID}, mailer.sent)

	_, err = svc.Register(context.Background(), RegisterRequest{Name: "A", Surname: "B", Email: "ada@example.com", Password: "Sup3r$ecret"})
	assert.ErrorIs(t, err, ErrEmailTaken)
}

func TestRegisterIgnoresMailerFailure(t *testing.T) {
	svc := NewService(newStubRepo(), &stubMailer{err: errors.New("queue down")}, nil, nil, nil)
	_, err := svc.Register(context.Background(), RegisterRequest{Name: "A", Surname: "B", Email: "a@example.com", Password: "Sup3r$ecret"})
	assert.NoError(t, err)
}

func TestSelfEndpoints(t *testing.T) {
	u1 := newUser(authz.RoleUser)
	admin := newUser(authz.RoleAdmin)
	repo := newStubRepo(u1, admin)
	svc := NewService(repo, nil, nil, nil, nil)

	me, err := svc.Me(as(u1))
	require.NoError(t, err)
	assert.Equal(t, u1.ID, me.ID)

	_, err = svc.Me(context.Background())
	assert.ErrorIs(t, err, authz.ErrNotAuthorized)

	name := "Grace"
	updated, err := svc.UpdateMe(as(u1), UpdateRequest{Name: &name})
	require.NoError(t, err)
	assert.Equal(t, "Grace", updated.Name)

	_, err = svc.UpdateMe(as(u1), UpdateRequest{})
	assert.ErrorIs(t, err, ErrEmptyUpdate)

	require.NoError(t, svc.DeactivateMe(as(u1)))
	assert.False(t, repo.users[u1.ID].IsActive)

	err = svc.DeactivateMe(as(admin))
	assert.ErrorIs(t, err, authz.ErrSelfActionForbidden)
	assert.True(t, repo.users[admin.ID].IsActive)
}

func TestMyCoursesNeverNil(t *testing.T) {
	u1 := newUser(authz.RoleUser)
	svc := NewService(newStubRepo(u1), nil, nil, nil, nil)
	courses, err := svc.MyCourses(as(u1))
	require.NoError(t, err)
	assert.NotNil(t, courses)
	assert.Empty(t, courses)
}

func TestAdminActionsAreConcealed(t *testing.T) {
	u1 := newUser(authz.RoleUser)
	u2 := newUser(authz.RoleUser)
	admin1 := newUser(authz.RoleAdmin)
	admin2 := newUser(authz.RoleAdmin)
	super1 := newUser(authz.RoleSuperadmin)
	repo := newStubRepo(u1, u2, admin1, admin2, super1)
	svc := NewService(repo, nil, nil, nil, nil)

	_, err := svc.Get(as(u1), u2.ID.String())
	assert.ErrorIs(t, err, authz.ErrTargetNotFound)

	_, err = svc.Get(as(admin1), admin2.ID.String())
	assert.ErrorIs(t, err, authz.ErrTargetNotFound)
	assert.ErrorIs(t, err, authz.ErrPermissionDenied)

	got, err := svc.Get(as(admin1), u1.ID.String())
	require.NoError(t, err)
	assert.Equal(t, u1.ID, got.ID)

	_, err = svc.Get(as(admin1), "not-a-uuid")
	assert.ErrorIs(t, err, authz.ErrTargetNotFound)
	_, err = svc.Get(as(admin1), uuid.NewString())
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestPrivilegeChanges(t *testing.T) {
	u1 := newUser(authz.RoleUser)
	author := newUser(authz.RoleUser)
	admin1 := newUser(authz.RoleAdmin)
	admin2 := newUser(authz.RoleAdmin)
	super1 := newUser(authz.RoleSuperadmin)
	repo := newStubRepo(u1, author, admin1, admin2, super1)
	repo.authors[author.ID] = true
	audit := &stubAudit{}
	svc := NewService(repo, nil, audit, nil, nil)

	_, err := svc.SetAdminPrivilege(as(admin1), u1.ID.String())
	assert.ErrorIs(t, err, authz.ErrTargetNotFound)
	assert.Equal(t, authz.RoleUser, repo.users[u1.ID].Role)

	promoted, err := svc.SetAdminPrivilege(as(super1), u1.ID.String())
	require.NoError(t, err)
	assert.Equal(t, authz.RoleAdmin, promoted.Role)
	assert.Equal(t, authz.RoleAdmin, repo.users[u1.ID].Role)

	_, err = svc.SetAdminPrivilege(as(super1), author.ID.String())
	assert.ErrorIs(t, err, ErrAuthorExclusive)

	demoted, err := svc.RevokeAdminPrivilege(as(super1), admin2.ID.String())
	require.NoError(t, err)
	assert.Equal(t, authz.RoleUser, demoted.Role)

	_, err = svc.RevokeAdminPrivilege(as(super1), super1.ID.String())
	assert.ErrorIs(t, err, authz.ErrSelfActionForbidden)

	assert.Equal(t, []uuid.UUID{u1.ID, u1.ID, author.ID, admin2.ID, super1.ID}, repo.locked)

	require.Len(t, audit.logs, 2)
	assert.Equal(t, "user.set_admin_privilege", audit.logs[0].Action)
	assert.Equal(t, super1.ID, audit.logs[0].ActorID)
	assert.Equal(t, "user.revoke_admin_privilege", audit.logs[1].Action)
}

func TestAdminDeactivate(t *testing.T) {
	u1 := newUser(authz.RoleUser)
	admin1 := newUser(authz.RoleAdmin)
	super1 := newUser(authz.RoleSuperadmin)
	repo := newStubRepo(u1, admin1, super1)
	svc := NewService(repo, nil, nil, nil, nil)

	assert.ErrorIs(t, svc.Deactivate(as(admin1), super1.ID.String()), authz.ErrTargetNotFound)
	require.NoError(t, svc.Deactivate(as(admin1), u1.ID.String()))
	assert.False(t, repo.users[u1.ID].IsActive)
}

func TestValidPassword(t *testing.T) {
	assert.True(t, ValidPassword("Sup3r$ecret"))
	assert.False(t, ValidPassword("sup3r$ecret"))
	assert.False(t, ValidPassword("SUP3R$ECRET"))
	assert.False(t, ValidPassword("Super$ecret"))
	assert.False(t, ValidPassword("Sup3rSecret"))
}
