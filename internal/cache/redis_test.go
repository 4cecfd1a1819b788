package cache_test

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/emberapp/ember-server/internal/cache"
)

func setupCache(t *testing.T) *cache.RedisCache {
	t.Helper()
	mr := miniredis.RunT(t)
	return &cache.RedisCache{Client: redis.NewClient(&redis.Options{Addr: mr.Addr()})}
}

func TestUnreadCountRoundTrip(t *testing.T) {
	ctx := context.Background()
	c := setupCache(t)

	// a cache miss is not an error
	_, ok, err := c.GetUnreadCount(ctx, 1)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, c.SetUnreadCount(ctx, 1, 7))
	count, ok, err := c.GetUnreadCount(ctx, 1)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, int64(7), count)
}

func TestBumpUnreadCount(t *testing.T) {
	ctx := context.Background()
	c := setupCache(t)

	// bumping a missing key leaves it missing
	c.BumpUnreadCount(ctx, 1, 1)
	_, ok, err := c.GetUnreadCount(ctx, 1)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, c.SetUnreadCount(ctx, 1, 3))
	c.BumpUnreadCount(ctx, 1, 2)
	c.BumpUnreadCount(ctx, 1, -1)

	count, ok, err := c.GetUnreadCount(ctx, 1)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, int64(4), count)
}

func TestPresenceSet(t *testing.T) {
	ctx := context.Background()
	c := setupCache(t)

	online, err := c.IsOnline(ctx, 1)
	require.NoError(t, err)
	assert.False(t, online)

	require.NoError(t, c.SetOnline(ctx, 1))
	online, err = c.IsOnline(ctx, 1)
	require.NoError(t, err)
	assert.True(t, online)

	// other users are unaffected
	online, err = c.IsOnline(ctx, 2)
	require.NoError(t, err)
	assert.False(t, online)

	require.NoError(t, c.SetOffline(ctx, 1))
	online, err = c.IsOnline(ctx, 1)
	require.NoError(t, err)
	assert.False(t, online)
}
