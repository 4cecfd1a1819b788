package cache

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/emberapp/ember-server/internal/config"
)

const (
	presenceKey = "presence:online"
	counterTTL  = time.Hour
)

type RedisCache struct {
	Client *redis.Client
}

// NewRedisCache initializes Redis client from config.
// Only Addr is mandatory, Password/DB are optional.
func NewRedisCache(cfg *config.Config) *RedisCache {
	opts := &redis.Options{
		Addr: cfg.Redis.Addr,
	}
	if cfg.Redis.Password != "" {
		opts.Password = cfg.Redis.Password
	}
	if cfg.Redis.DB != 0 {
		opts.DB = cfg.Redis.DB
	}
	return &RedisCache{Client: redis.NewClient(opts)}
}

func (c *RedisCache) Ping(ctx context.Context) error {
	return c.Client.Ping(ctx).Err()
}

func (c *RedisCache) Del(ctx context.Context, key string) error {
	return c.Client.Del(ctx, key).Err()
}

// KeyForUnreadCount generates the Redis key for a user's unread
// notification count.
func (c *RedisCache) KeyForUnreadCount(userID uint64) string {
	return fmt.Sprintf("notifications:unread:%d", userID)
}

// GetUnreadCount returns the cached unread-notification count for a user.
// A cache miss returns (0, false, nil) so callers can fall back to the DB.
func (c *RedisCache) GetUnreadCount(ctx context.Context, userID uint64) (int64, bool, error) {
	val, err := c.Client.Get(ctx, c.KeyForUnreadCount(userID)).Result()
	if errors.Is(err, redis.Nil) {
		return 0, false, nil
	} else if err != nil {
		return 0, false, err
	}
	// refresh TTL on access
	_ = c.Client.Expire(ctx, c.KeyForUnreadCount(userID), counterTTL).Err()
	n, err := strconv.ParseInt(val, 10, 64)
	if err != nil {
		return 0, false, nil
	}
	return n, true, nil
}

// SetUnreadCount stores the unread-notification count with a TTL.
func (c *RedisCache) SetUnreadCount(ctx context.Context, userID uint64, count int64) error {
	return c.Client.Set(ctx, c.KeyForUnreadCount(userID), count, counterTTL).Err()
}

// BumpUnreadCount adjusts the cached unread count by delta, if present.
// Missing keys are left missing so the next read repopulates from the DB.
func (c *RedisCache) BumpUnreadCount(ctx context.Context, userID uint64, delta int64) {
	key := c.KeyForUnreadCount(userID)
	exists, err := c.Client.Exists(ctx, key).Result()
	if err != nil || exists == 0 {
		return
	}
	_ = c.Client.IncrBy(ctx, key, delta).Err()
	_ = c.Client.Expire(ctx, key, counterTTL).Err()
}

// --- presence ---
//
// Online users live in a shared Redis set instead of a process-local
// socket map, so presence survives across server instances.

func (c *RedisCache) SetOnline(ctx context.Context, userID uint64) error {
	return c.Client.SAdd(ctx, presenceKey, strconv.FormatUint(userID, 10)).Err()
}

func (c *RedisCache) SetOffline(ctx context.Context, userID uint64) error {
	return c.Client.SRem(ctx, presenceKey, strconv.FormatUint(userID, 10)).Err()
}

func (c *RedisCache) IsOnline(ctx context.Context, userID uint64) (bool, error) {
	return c.Client.SIsMember(ctx, presenceKey, strconv.FormatUint(userID, 10)).Result()
}
