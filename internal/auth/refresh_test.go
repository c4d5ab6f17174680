package auth

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return mr, client
}

func TestRefreshStoreConsumeOnce(t *testing.T) {
	_, client := newRedis(t)
	store := NewRefreshStore(client, time.Hour)
	ctx := context.Background()
	id := uuid.New()

	token, err := store.Issue(ctx, id)
	require.NoError(t, err)

	got, err := store.Consume(ctx, token)
	require.NoError(t, err)
	assert.Equal(t, id, got)

	_, err = store.Consume(ctx, token)
	assert.ErrorIs(t, err, ErrRefreshNotFound)
}

func TestRefreshStoreExpiry(t *testing.T) {
	mr, client := newRedis(t)
	store := NewRefreshStore(client, time.Minute)
	ctx := context.Background()

	token, err := store.Issue(ctx, uuid.New())
	require.NoError(t, err)
	mr.FastForward(2 * time.Minute)

	_, err = store.Consume(ctx, token)
	assert.ErrorIs(t, err, ErrRefreshNotFound)
}

func TestRefreshStoreRevoke(t *testing.T) {
	_, client := newRedis(t)
	store := NewRefreshStore(client, time.Hour)
	ctx := context.Background()

	token, err := store.Issue(ctx, uuid.New())
	require.NoError(t, err)
	require.NoError(t, store.Revoke(ctx, token))
	require.NoError(t, store.Revoke(ctx, token))

	_, err = store.Consume(ctx, token)
	assert.ErrorIs(t, err, ErrRefreshNotFound)

	_, err = store.Consume(ctx, "garbage")
	assert.ErrorIs(t, err, ErrRefreshNotFound)
}
