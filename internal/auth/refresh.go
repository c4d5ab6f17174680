package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// ErrRefreshNotFound is returned for unknown, expired or revoked refresh tokens.
var ErrRefreshNotFound = errors.New("refresh token not found")

const refreshKeyPrefix = "auth:refresh:"

// RefreshStore keeps opaque refresh tokens in Redis with a TTL.
type RefreshStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRefreshStore constructs a RefreshStore.
func NewRefreshStore(client *redis.Client, ttl time.Duration) *RefreshStore {
	return &RefreshStore{client: client, ttl: ttl}
}

func (s *RefreshStore) key(token string) string {
	return refreshKeyPrefix + token
}

// Issue stores a new refresh token bound to userID.
func (s *RefreshStore) Issue(ctx context.Context, userID uuid.UUID) (string, error) {
	token := uuid.NewString()
	if err := s.client.Set(ctx, s.key(token), userID.String(), s.ttl).Err(); err != nil {
		return "", fmt.Errorf("auth: store refresh token: %w", err)
	}
	return token, nil
}

// Consume atomically removes token and returns the bound user id.
func (s *RefreshStore) Consume(ctx context.Context, token string) (uuid.UUID, error) {
	if _, err := uuid.Parse(token); err != nil {
		return uuid.Nil, ErrRefreshNotFound
	}
	raw, err := s.client.GetDel(ctx, s.key(token)).Result()
	if errors.Is(err, redis.Nil) {
		return uuid.Nil, ErrRefreshNotFound
	}
	if err != nil {
		return uuid.Nil, fmt.Errorf("auth: consume refresh token: %w", err)
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, ErrRefreshNotFound
	}
	return id, nil
}

// Revoke deletes token. Unknown tokens are ignored.
func (s *RefreshStore) Revoke(ctx context.Context, token string) error {
	if err := s.client.Del(ctx, s.key(token)).Err(); err != nil && !errors.Is(err, redis.Nil) {
		return fmt.Errorf("auth: revoke refresh token: %w", err)
	}
	return nil
}
