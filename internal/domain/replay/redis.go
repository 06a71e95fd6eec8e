package replay

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/okian/netrisk/pkg/logger"
)

// DefaultKeyPrefix namespaces replay keys in Redis.
const DefaultKeyPrefix = "netrisk:replay:"

// RedisGuard shares replay state between instances with SET NX EX.
// When Redis is unreachable it lets requests through.
type RedisGuard struct {
	client redis.Cmdable
	prefix string
	ttl    time.Duration
}

// NewRedisGuard creates a guard backed by client.
func NewRedisGuard(client redis.Cmdable, ttl time.Duration) *RedisGuard {
	if ttl <= 0 {
		ttl = defaultTTL
	}
	return &RedisGuard{client: client, prefix: DefaultKeyPrefix, ttl: ttl}
}

func (g *RedisGuard) SeenAndRecord(ctx context.Context, id string) bool {
	ok, err := g.client.SetNX(ctx, g.prefix+id, 1, g.ttl).Result()
	if err != nil {
		logger.Get().Named("replay").Warn(ctx, "replay check failed, allowing request",
			logger.String("request_id", id), logger.Error(err))
		return false
	}
	return !ok
}

func (g *RedisGuard) Forget(ctx context.Context, id string) {
	if err := g.client.Del(ctx, g.prefix+id).Err(); err != nil {
		logger.Get().Named("replay").Warn(ctx, "replay forget failed",
			logger.String("request_id", id), logger.Error(err))
	}
}

// Size is not tracked for Redis.
func (g *RedisGuard) Size() int64 { return -1 }
