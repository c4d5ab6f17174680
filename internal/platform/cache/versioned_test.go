package cache

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newVersioned(t *testing.T) (*Versioned, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewVersioned(client, "catalog", time.Minute), mr
}

func TestVersionedFetchCachesUntilBump(t *testing.T) {
	c, _ := newVersioned(t)
	ctx := context.Background()
	calls := 0
	loader := func(context.Context) (any, error) {
		calls++
		return []string{"go", "sql"}, nil
	}

	key, err := c.Key(ctx, "list", "0", "20")
	require.NoError(t, err)
	assert.Equal(t, "catalog:list:0:20:v1", key)

	var got []string
	require.NoError(t, c.FetchJSON(ctx, key, &got, loader))
	require.NoError(t, c.FetchJSON(ctx, key, &got, loader))
	assert.Equal(t, []string{"go", "sql"}, got)
	assert.Equal(t, 1, calls)

	require.NoError(t, c.Bump(ctx))
	key2, err := c.Key(ctx, "list", "0", "20")
	require.NoError(t, err)
	assert.NotEqual(t, key, key2)
	require.NoError(t, c.FetchJSON(ctx, key2, &got, loader))
	assert.Equal(t, 2, calls)
}

func TestVersionedLoaderErrorNotCached(t *testing.T) {
	c, mr := newVersioned(t)
	ctx := context.Background()
	boom := errors.New("boom")

	var got []string
	err := c.FetchJSON(ctx, "catalog:k", &got, func(context.Context) (any, error) { return nil, boom })
	assert.ErrorIs(t, err, boom)
	assert.False(t, mr.Exists("catalog:k"))
}

func TestVersionedCoalescesConcurrentMisses(t *testing.T) {
	c, _ := newVersioned(t)
	ctx := context.Background()
	var calls atomic.Int32
	release := make(chan struct{})
	loader := func(context.Context) (any, error) {
		calls.Add(1)
		<-release
		return 42, nil
	}

	var wg sync.WaitGroup
	results := make([]int, 5)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_ = c.FetchJSON(ctx, "catalog:hot", &results[i], loader)
		}(i)
	}
	time.Sleep(50 * time.Millisecond)
	close(release)
	wg.Wait()

	assert.Equal(t, int32(1), calls.Load())
	for _, r := range results {
		assert.Equal(t, 42, r)
	}
}

func TestVersionedNilClient(t *testing.T) {
	c := NewVersioned(nil, "catalog", time.Minute)
	key, err := c.Key(context.Background(), "a")
	require.NoError(t, err)
	assert.Equal(t, "catalog:a", key)

	var got int
	require.NoError(t, c.FetchJSON(context.Background(), key, &got, func(context.Context) (any, error) { return 7, nil }))
	assert.Equal(t, 7, got)
	assert.NoError(t, c.Bump(context.Background()))
}
