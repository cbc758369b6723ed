package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestCache(t *testing.T) (SessionCache, *miniredis.Miniredis) {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	return NewRedisSessionCache(client), mr
}

func TestSessionCache_SetGet(t *testing.T) {
	t.Parallel()

	c, _ := newTestCache(t)
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "jwt:abc", []byte("payload"), time.Minute))

	got, err := c.Get(ctx, "jwt:abc")
	require.NoError(t, err)
	assert.Equal(t, []byte("payload"), got)
}

func TestSessionCache_GetMiss(t *testing.T) {
	t.Parallel()

	c, _ := newTestCache(t)

	_, err := c.Get(context.Background(), "jwt:absent")
	assert.ErrorIs(t, err, ErrCacheMiss)
}

func TestSessionCache_GetDelConsumesOnce(t *testing.T) {
	t.Parallel()

	c, _ := newTestCache(t)
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "reset:tok", []byte("user-1"), time.Minute))

	got, err := c.GetDel(ctx, "reset:tok")
	require.NoError(t, err)
	assert.Equal(t, []byte("user-1"), got)

	_, err = c.GetDel(ctx, "reset:tok")
	assert.ErrorIs(t, err, ErrCacheMiss)
}

func TestSessionCache_ExistsAndDelete(t *testing.T) {
	t.Parallel()

	c, _ := newTestCache(t)
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "blacklist:tok", []byte("revoked"), time.Minute))

	ok, err := c.Exists(ctx, "blacklist:tok")
	require.NoError(t, err)
	assert.True(t, ok)

	require.NoError(t, c.Delete(ctx, "blacklist:tok"))

	ok, err = c.Exists(ctx, "blacklist:tok")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestSessionCache_TTLExpiry(t *testing.T) {
	t.Parallel()

	c, mr := newTestCache(t)
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "jwt:expiring", []byte("x"), time.Minute))

	ttl, err := c.TTL(ctx, "jwt:expiring")
	require.NoError(t, err)
	assert.Greater(t, ttl, 50*time.Second)

	mr.FastForward(2 * time.Minute)

	_, err = c.Get(ctx, "jwt:expiring")
	assert.ErrorIs(t, err, ErrCacheMiss)
}

func TestKeyNamespaces(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "jwt:s1", SessionKey("s1"))
	assert.Equal(t, "blacklist:raw", BlacklistKey("raw"))
	assert.Equal(t, "reset:t1", ResetKey("t1"))
}
