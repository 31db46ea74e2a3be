package session_test

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/savelydental/Savely/internal/adapters/cache"
	"github.com/savelydental/Savely/internal/adapters/session"
	"github.com/savelydental/Savely/internal/domain/entities"
	redisclient "github.com/savelydental/Savely/internal/infrastructure/clients/redis"
	apperrors "github.com/savelydental/Savely/pkg/errors"
	"github.com/savelydental/Savely/pkg/retry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCacheStore_RedisRoundTrip(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	defer mr.Close()

	client, err := redisclient.Connect(context.Background(), &goredis.Options{Addr: mr.Addr()}, retry.Config{MaxAttempts: 1})
	require.NoError(t, err)
	defer client.Close()

	store := session.NewCacheStore(cache.NewRedisAdapter(client, "savely:"))
	ctx := context.Background()

	picture := "https://img/ana.png"
	sess := &entities.Session{
		ID:        "sess-1",
		User:      &entities.User{ID: "user_1", Email: "ana@example.com", Name: "Ana", Picture: &picture},
		APIToken:  "tok",
		CreatedAt: time.Now().UTC().Truncate(time.Second),
		ExpiresAt: time.Now().Add(time.Hour).UTC().Truncate(time.Second),
	}
	require.NoError(t, store.Save(ctx, sess))

	ttl := mr.TTL("savely:session:sess-1")
	assert.True(t, ttl > 58*time.Minute && ttl <= time.Hour, "ttl follows the session expiry, got %s", ttl)

	loaded, err := store.Get(ctx, "sess-1")
	require.NoError(t, err)
	assert.Equal(t, sess, loaded)

	require.NoError(t, store.Delete(ctx, "sess-1"))
	_, err = store.Get(ctx, "sess-1")
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeNotFound))
}

func TestCacheStore_FlashLivesApartFromSession(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	defer mr.Close()

	client, err := redisclient.Connect(context.Background(), &goredis.Options{Addr: mr.Addr()}, retry.Config{MaxAttempts: 1})
	require.NoError(t, err)
	defer client.Close()

	store := session.NewCacheStore(cache.NewRedisAdapter(client, "savely:"))
	ctx := context.Background()

	sess := &entities.Session{
		ID:        "sess-1",
		User:      &entities.User{ID: "user_1", Email: "ana@example.com", Name: "Ana"},
		APIToken:  "tok",
		CreatedAt: time.Now().UTC().Truncate(time.Second),
		ExpiresAt: time.Now().Add(time.Hour).UTC().Truncate(time.Second),
	}
	require.NoError(t, store.Save(ctx, sess))
	document, err := mr.Get("savely:session:sess-1")
	require.NoError(t, err)

	// A copy without the user must not clobber the stored document
	stale := &entities.Session{ID: "sess-1", ExpiresAt: sess.ExpiresAt}
	require.NoError(t, store.SaveFlash(ctx, stale, entities.Flash{Kind: entities.FlashSuccess, Message: "¡Bienvenido!"}))

	assert.True(t, mr.Exists("savely:session:sess-1:flash"))
	ttl := mr.TTL("savely:session:sess-1:flash")
	assert.True(t, ttl > 58*time.Minute && ttl <= time.Hour, "flash expires with the session, got %s", ttl)
	after, err := mr.Get("savely:session:sess-1")
	require.NoError(t, err)
	assert.Equal(t, document, after)

	flash, err := store.TakeFlash(ctx, "sess-1")
	require.NoError(t, err)
	require.NotNil(t, flash)
	assert.Equal(t, entities.Flash{Kind: entities.FlashSuccess, Message: "¡Bienvenido!"}, *flash)

	flash, err = store.TakeFlash(ctx, "sess-1")
	require.NoError(t, err)
	assert.Nil(t, flash)

	loaded, err := store.Get(ctx, "sess-1")
	require.NoError(t, err)
	assert.Equal(t, sess, loaded)
}

func TestCacheStore_DeleteDropsFlash(t *testing.T) {
	store := session.NewCacheStore(cache.NewMemoryAdapter())
	ctx := context.Background()

	sess := &entities.Session{ID: "sess-2", ExpiresAt: time.Now().Add(time.Hour)}
	require.NoError(t, store.Save(ctx, sess))
	require.NoError(t, store.SaveFlash(ctx, sess, entities.Flash{Kind: entities.FlashError, Message: "x"}))

	require.NoError(t, store.Delete(ctx, "sess-2"))

	flash, err := store.TakeFlash(ctx, "sess-2")
	require.NoError(t, err)
	assert.Nil(t, flash)
}

func TestCacheStore_ExpiredSessionsAreNotFound(t *testing.T) {
	store := session.NewCacheStore(cache.NewMemoryAdapter())
	ctx := context.Background()

	err := store.Save(ctx, &entities.Session{ID: "old", ExpiresAt: time.Now().Add(-time.Minute)})
	require.NoError(t, err)

	_, err = store.Get(ctx, "old")
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeNotFound))
}

func TestCacheStore_RejectsEmptyID(t *testing.T) {
	store := session.NewCacheStore(cache.NewMemoryAdapter())

	err := store.Save(context.Background(), &entities.Session{})
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeValidation))

	_, err = store.Get(context.Background(), "")
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeNotFound))
}
