package auth

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// undoScript decrements a counter only if it still exists, so a refund
// racing with expiry cannot leave a stray key without a TTL.
var undoScript = redis.NewScript(`
if redis.call("EXISTS", KEYS[1]) == 1 and tonumber(redis.call("GET", KEYS[1])) > 0 then
	return redis.call("DECR", KEYS[1])
end
return 0
`)

// RedisLimiter shares counters between server instances through Redis.
type RedisLimiter struct {
	rdb    redis.Cmdable
	prefix string
}

func NewRedisLimiter(rdb redis.Cmdable, prefix string) *RedisLimiter {
	return &RedisLimiter{rdb: rdb, prefix: prefix}
}

func (l *RedisLimiter) key(k string) string {
	return l.prefix + ":" + k
}

func (l *RedisLimiter) Hit(ctx context.Context, key string, limit int, window time.Duration) (Decision, error) {
	k := l.key(key)

	pipe := l.rdb.TxPipeline()
	incr := pipe.Incr(ctx, k)
	pttl := pipe.PTTL(ctx, k)
	if _, err := pipe.Exec(ctx); err != nil {
		return Decision{}, fmt.Errorf("redis rate limit: %w", err)
	}

	count := incr.Val()
	ttl := pttl.Val()
	if ttl < 0 {
		if err := l.rdb.PExpire(ctx, k, window).Err(); err != nil {
			return Decision{}, fmt.Errorf("redis rate limit expire: %w", err)
		}
		ttl = window
	}

	if count > int64(limit) {
		// Rejected requests are not counted.
		if err := undoScript.Run(ctx, l.rdb, []string{k}).Err(); err != nil {
			return Decision{}, fmt.Errorf("redis rate limit undo: %w", err)
		}
		return Decision{Allowed: false, Limit: limit, RetryAfter: ttl}, nil
	}

	return Decision{
		Allowed:    true,
		Limit:      limit,
		Remaining:  limit - int(count),
		RetryAfter: ttl,
	}, nil
}

func (l *RedisLimiter) Undo(ctx context.Context, key string) error {
	if err := undoScript.Run(ctx, l.rdb, []string{l.key(key)}).Err(); err != nil {
		return fmt.Errorf("redis rate limit undo: %w", err)
	}
	return nil
}
