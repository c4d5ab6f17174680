package auth

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/learnhub/learnhub/internal/authz"
	"github.com/learnhub/learnhub/internal/platform/httpx"
	"github.com/learnhub/learnhub/internal/users"
)

type stubStore struct {
	byEmail map[string]*users.User
	authors map[uuid.UUID]*authz.AuthorRef
}

func newStubStore(t *testing.T, us ...*users.User) *stubStore {
	t.Helper()
	s := &stubStore{byEmail: map[string]*users.User{}, authors: map[uuid.UUID]*authz.AuthorRef{}}
	for _, u := range us {
		s.byEmail[u.Email] = u
	}
	return s
}

func (s *stubStore) GetByEmail(_ context.Context, email string) (*users.User, error) {
	u, ok := s.byEmail[email]
	if !ok {
		return nil, users.ErrNotFound
	}
	return u, nil
}

func (s *stubStore) LoadPrincipal(_ context.Context, id uuid.UUID) (*authz.Principal, error) {
	for _, u := range s.byEmail {
		if u.ID == id && u.IsActive {
			return &authz.Principal{ID: u.ID, Role: u.Role, Author: s.authors[u.ID]}, nil
		}
	}
	return nil, users.ErrNotFound
}

func account(t *testing.T, email, password string, role authz.Role) *users.User {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)
	return &users.User{ID: uuid.New(), Email: email, PasswordHash: string(hash), Role: role, IsActive: true}
}

func newTestService(t *testing.T, store UserStore) (*Service, *TokenManager) {
	t.Helper()
	_, client := newRedis(t)
	tokens, err := NewTokenManager("secret", "learnhub", 15*time.Minute)
	require.NoError(t, err)
	return NewService(store, tokens, NewRefreshStore(client, time.Hour)), tokens
}

func TestLogin(t *testing.T) {
	u := account(t, "ada@example.com", "Sup3r$ecret", authz.RoleAdmin)
	inactive := account(t, "gone@example.com", "Sup3r$ecret", authz.RoleUser)
	inactive.IsActive = false
	svc, tokens := newTestService(t, newStubStore(t, u, inactive))
	ctx := context.Background()

	pair, err := svc.Login(ctx, " ada@example.com ", "Sup3r$ecret")
	require.NoError(t, err)
	assert.Equal(t, "Bearer", pair.TokenType)
	assert.EqualValues(t, 900, pair.ExpiresIn)
	id, claims, err := tokens.Parse(pair.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, u.ID, id)
	assert.Equal(t, "admin", claims.Role)

	for _, tc := range []struct{ email, password string }{
		{"ada@example.com", "wrong"},
		{"nobody@example.com", "Sup3r$ecret"},
		{"gone@example.com", "Sup3r$ecret"},
	} {
		_, err := svc.Login(ctx, tc.email, tc.password)
		assert.ErrorIs(t, err, ErrInvalidCredentials, tc.email)
		assert.Equal(t, http.StatusUnauthorized, httpx.Status(err))
	}
}

func TestRefreshRotates(t *testing.T) {
	u := account(t, "ada@example.com", "Sup3r$ecret", authz.RoleUser)
	svc, _ := newTestService(t, newStubStore(t, u))
	ctx := context.Background()

	pair, err := svc.Login(ctx, u.Email, "Sup3r$ecret")
	require.NoError(t, err)

	next, err := svc.Refresh(ctx, pair.RefreshToken)
	require.NoError(t, err)
	assert.NotEqual(t, pair.RefreshToken, next.RefreshToken)

	_, err = svc.Refresh(ctx, pair.RefreshToken)
	assert.ErrorIs(t, err, ErrSessionExpired)

	u.IsActive = false
	_, err = svc.Refresh(ctx, next.RefreshToken)
	assert.ErrorIs(t, err, ErrSessionExpired)
}

func TestLogoutRevokes(t *testing.T) {
	u := account(t, "ada@example.com", "Sup3r$ecret", authz.RoleUser)
	svc, _ := newTestService(t, newStubStore(t, u))
	ctx := context.Background()

	pair, err := svc.Login(ctx, u.Email, "Sup3r$ecret")
	require.NoError(t, err)
	require.NoError(t, svc.Logout(ctx, pair.RefreshToken))

	_, err = svc.Refresh(ctx, pair.RefreshToken)
	assert.ErrorIs(t, err, ErrSessionExpired)
}
