package middleware

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/redis/go-redis/v9"
)

const redisWindow = time.Minute

// RedisLimiter is a fixed-window counter shared by every API instance.
// A window admits max(Burst, Rate*60) requests.
type RedisLimiter struct {
	client *redis.Client
	prefix string
	now    func() time.Time
}

func NewRedisLimiter(client *redis.Client, now func() time.Time) *RedisLimiter {
	if now == nil {
		now = time.Now
	}
	return &RedisLimiter{client: client, prefix: "ratelimit:", now: now}
}

func (l *RedisLimiter) Allow(ctx context.Context, key string, rule RateLimitRule) (bool, time.Duration, error) {
	limit := windowLimit(rule)
	if limit <= 0 {
		return true, 0, nil
	}
	now := l.now()
	windowStart := now.Truncate(redisWindow)
	redisKey := fmt.Sprintf("%s%s:%d", l.prefix, key, windowStart.Unix())

	pipe := l.client.TxPipeline()
	incr := pipe.Incr(ctx, redisKey)
	pipe.Expire(ctx, redisKey, redisWindow+time.Second)
	if _, err := pipe.Exec(ctx); err != nil {
		return false, 0, fmt.Errorf("redis rate limit: %w", err)
	}
	if incr.Val() <= int64(limit) {
		return true, 0, nil
	}
	return false, windowStart.Add(redisWindow).Sub(now), nil
}

func windowLimit(rule RateLimitRule) int {
	if rule.Rate <= 0 || rule.Burst <= 0 {
		return 0
	}
	perWindow := int(math.Ceil(rule.Rate * redisWindow.Seconds()))
	if perWindow < rule.Burst {
		return rule.Burst
	}
	return perWindow
}

// NewRedisClient opens a client with short timeouts.
func NewRedisClient(addr, password string) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:         addr,
		Password:     password,
		DialTimeout:  2 * time.Second,
		ReadTimeout:  2 * time.Second,
		WriteTimeout: 2 * time.Second,
	})
}
