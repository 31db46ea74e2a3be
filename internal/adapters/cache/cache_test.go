package cache_test

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/savelydental/Savely/internal/adapters/cache"
	"github.com/savelydental/Savely/internal/domain/providers"
	redisclient "github.com/savelydental/Savely/internal/infrastructure/clients/redis"
	"github.com/savelydental/Savely/pkg/retry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRedisAdapter(t *testing.T) (providers.CacheProvider, *miniredis.Miniredis) {
	t.Helper()
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	client, err := redisclient.Connect(context.Background(), &goredis.Options{Addr: mr.Addr()}, retry.Config{MaxAttempts: 1})
	require.NoError(t, err)
	t.Cleanup(func() { client.Close() })

	return cache.NewRedisAdapter(client, "savely:test:"), mr
}

func TestRedisAdapter_RoundTrip(t *testing.T) {
	adapter, mr := newRedisAdapter(t)
	ctx := context.Background()

	require.NoError(t, adapter.Set(ctx, "k", []byte("v"), 60))
	assert.True(t, mr.Exists("savely:test:k"), "keys are namespaced")

	got, err := adapter.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, []byte("v"), got)

	exists, err := adapter.Exists(ctx, "k")
	require.NoError(t, err)
	assert.True(t, exists)

	require.NoError(t, adapter.Delete(ctx, "k"))
	_, err = adapter.Get(ctx, "k")
	assert.ErrorIs(t, err, providers.ErrCacheMiss)
}

func TestRedisAdapter_Expiry(t *testing.T) {
	adapter, mr := newRedisAdapter(t)
	ctx := context.Background()

	require.NoError(t, adapter.Set(ctx, "short", []byte("v"), 5))
	mr.FastForward(6 * time.Second)

	_, err := adapter.Get(ctx, "short")
	assert.ErrorIs(t, err, providers.ErrCacheMiss)
}

func TestMemoryAdapter_RoundTrip(t *testing.T) {
	adapter := cache.NewMemoryAdapter()
	ctx := context.Background()

	_, err := adapter.Get(ctx, "missing")
	assert.ErrorIs(t, err, providers.ErrCacheMiss)

	value := []byte("hello")
	require.NoError(t, adapter.Set(ctx, "k", value, 0))
	value[0] = 'j'

	got, err := adapter.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, []byte("hello"), got, "stored values are copied")

	require.NoError(t, adapter.Delete(ctx, "k"))
	exists, err := adapter.Exists(ctx, "k")
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestConnect_FailsWhenUnreachable(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	addr := mr.Addr()
	mr.Close()

	_, err = redisclient.Connect(context.Background(), &goredis.Options{Addr: addr}, retry.Config{MaxAttempts: 2, InitialDelay: time.Millisecond})
	assert.Error(t, err)
}
