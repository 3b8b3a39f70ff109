package tracker

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	errx "github.com/inboxagent/server/internal/core/error"
	logx "github.com/inboxagent/server/pkg/logger"
)

// Cache is the injected read-cache abstraction shared across runs. The key
// scheme is owned by this package; writes to a project must invalidate its
// read keys via DeleteByPrefix.
type Cache interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string, ttl time.Duration) error
	Delete(ctx context.Context, keys ...string) error
	DeleteByPrefix(ctx context.Context, prefix string) error
}

// projectPrefix scopes every cache key to one tracker site + project.
func projectPrefix(cfg Config) string {
	return fmt.Sprintf("tracker:%s:%s:", cfg.Site, cfg.ProjectKey)
}

// RedisCache backs Cache with redis; entries expire on their own TTL.
type RedisCache struct {
	rdb redis.Cmdable
}

func NewRedisCache(rdb redis.Cmdable) *RedisCache {
	return &RedisCache{rdb: rdb}
}

func (c *RedisCache) Get(ctx context.Context, key string) (string, bool, error) {
	v, err := c.rdb.Get(ctx, key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", false, nil
		}
		return "", false, errx.WrapRedis(err)
	}
	return v, true, nil
}

func (c *RedisCache) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	if err := c.rdb.Set(ctx, key, value, ttl).Err(); err != nil {
		return errx.WrapRedis(err)
	}
	return nil
}

func (c *RedisCache) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	if err := c.rdb.Del(ctx, keys...).Err(); err != nil {
		return errx.WrapRedis(err)
	}
	return nil
}

func (c *RedisCache) DeleteByPrefix(ctx context.Context, prefix string) error {
	iter := c.rdb.Scan(ctx, 0, prefix+"*", 100).Iterator()
	var keys []string
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return errx.WrapRedis(err)
	}
	if len(keys) == 0 {
		return nil
	}
	logx.Debug().Int("keys", len(keys)).Str("prefix", prefix).Msg("Invalidating tracker cache")
	return c.Delete(ctx, keys...)
}

var _ Cache = (*RedisCache)(nil)

// NoopCache satisfies Cache without storing anything; used in tests and
// deployments without redis.
type NoopCache struct{}

func (NoopCache) Get(ctx context.Context, key string) (string, bool, error) { return "", false, nil }

func (NoopCache) Set(ctx context.Context, key, value string, ttl time.Duration) error { return nil }

func (NoopCache) Delete(ctx context.Context, keys ...string) error { return nil }

func (NoopCache) DeleteByPrefix(ctx context.Context, prefix string) error { return nil }

var _ Cache = NoopCache{}
