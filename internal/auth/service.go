package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/learnhub/learnhub/internal/authz"
	"github.com/learnhub/learnhub/internal/platform/httpx"
	"github.com/learnhub/learnhub/internal/shared"
	"github.com/learnhub/learnhub/internal/users"
)

// ErrInvalidCredentials is returned for any failed login.
var ErrInvalidCredentials = fmt.Errorf("%w: %w", httpx.ErrUnauthorized, shared.ErrInvalidCredentials)

// ErrSessionExpired is returned when a refresh token cannot be used.
var ErrSessionExpired = fmt.Errorf("%w: session expired", httpx.ErrUnauthorized)

// UserStore is the subset of the users repository the auth flows need.
type UserStore interface {
	GetByEmail(ctx context.Context, email string) (*users.User, error)
	LoadPrincipal(ctx context.Context, id uuid.UUID) (*authz.Principal, error)
}

// TokenPair is returned by login and refresh.
type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int64  `json:"expires_in"`
}

// Service wraps authentication business rules.
type Service struct {
	users   UserStore
	tokens  *TokenManager
	refresh *RefreshStore
}

// NewService constructs a new Service.
func NewService(store UserStore, tokens *TokenManager, refresh *RefreshStore) *Service {
	return &Service{users: store, tokens: tokens, refresh: refresh}
}

// Login validates email/password credentials and issues a token pair.
func (s *Service) Login(ctx context.Context, email, password string) (*TokenPair, error) {
	user, err := s.users.GetByEmail(ctx, strings.TrimSpace(email))
	if err != nil {
		if errors.Is(err, users.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	if !user.IsActive {
		return nil, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}
	return s.issue(ctx, user.ID, user.Role)
}

// Refresh rotates a refresh token. The old token is consumed even when the
// user has since been deactivated.
func (s *Service) Refresh(ctx context.Context, token string) (*TokenPair, error) {
	userID, err := s.refresh.Consume(ctx, token)
	if err != nil {
		if errors.Is(err, ErrRefreshNotFound) {
			return nil, ErrSessionExpired
		}
		return nil, err
	}
	p, err := s.users.LoadPrincipal(ctx, userID)
	if err != nil {
		if errors.Is(err, users.ErrNotFound) {
			return nil, ErrSessionExpired
		}
		return nil, err
	}
	return s.issue(ctx, p.ID, p.Role)
}

// Logout revokes a refresh token.
func (s *Service) Logout(ctx context.Context, token string) error {
	return s.refresh.Revoke(ctx, token)
}

func (s *Service) issue(ctx context.Context, userID uuid.UUID, role authz.Role) (*TokenPair, error) {
	access, _, err := s.tokens.Issue(userID, string(role))
	if err != nil {
		return nil, err
	}
	refresh, err := s.refresh.Issue(ctx, userID)
	if err != nil {
		return nil, err
	}
	return &TokenPair{
		AccessToken:  access,
		RefreshToken: refresh,
		TokenType:    "Bearer",
		ExpiresIn:    int64(s.tokens.TTL().Seconds()),
	}, nil
}
