package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

// newTestCache — поднимает miniredis и возвращает кэш поверх него.
func newTestCache(t *testing.T) (SessionCache, *miniredis.Miniredis) {
	t.Helper()

	mr := miniredis.RunT(t)

	c, err := NewRedisCache("redis://"+mr.Addr(), "")
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })

	return c, mr
}

func TestRedisCache_SetGetDelete(t *testing.T) {
	t.Parallel()

	c, _ := newTestCache(t)
	ctx := context.Background()
	userID := uuid.New()

	// Пустой кэш: miss без ошибки.
	_, ok, err := c.Get(ctx, userID)
	require.NoError(t, err)
	require.False(t, ok)

	require.NoError(t, c.Set(ctx, userID, "hash-1", time.Hour))

	hash, ok, err := c.Get(ctx, userID)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "hash-1", hash)

	// Перезапись — новое значение.
	require.NoError(t, c.Set(ctx, userID, "hash-2", time.Hour))

	hash, ok, err = c.Get(ctx, userID)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "hash-2", hash)

	require.NoError(t, c.Delete(ctx, userID))

	_, ok, err = c.Get(ctx, userID)
	require.NoError(t, err)
	require.False(t, ok)

	// Повторное удаление — не ошибка.
	require.NoError(t, c.Delete(ctx, userID))
}

func TestRedisCache_TTLExpiry(t *testing.T) {
	t.Parallel()

	c, mr := newTestCache(t)
	ctx := context.Background()
	userID := uuid.New()

	require.NoError(t, c.Set(ctx, userID, "hash", time.Minute))

	// Продвигаем часы miniredis за TTL.
	mr.FastForward(2 * time.Minute)

	_, ok, err := c.Get(ctx, userID)
	require.NoError(t, err)
	require.False(t, ok)
}

func TestRedisCache_KeysAreUserScoped(t *testing.T) {
	t.Parallel()

	c, _ := newTestCache(t)
	ctx := context.Background()

	a, b := uuid.New(), uuid.New()

	require.NoError(t, c.Set(ctx, a, "hash-a", time.Hour))
	require.NoError(t, c.Set(ctx, b, "hash-b", time.Hour))

	require.NoError(t, c.Delete(ctx, a))

	_, ok, err := c.Get(ctx, a)
	require.NoError(t, err)
	require.False(t, ok)

	hash, ok, err := c.Get(ctx, b)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "hash-b", hash)
}

func TestNewRedisCache_BadURL(t *testing.T) {
	t.Parallel()

	_, err := NewRedisCache("not-a-url", "")
	require.Error(t, err)
}
