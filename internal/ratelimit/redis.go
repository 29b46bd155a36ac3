package ratelimit

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

const redisLimiterTimeout = 2 * time.Second

// RedisLimiter shares the minimum interval across server replicas. It fails
// open when Redis is unreachable.
type RedisLimiter struct {
	client   *redis.Client
	prefix   string
	interval time.Duration
}

// NewRedis creates a distributed limiter using SET NX with an expiry of interval.
func NewRedis(client *redis.Client, prefix string, interval time.Duration) *RedisLimiter {
	return &RedisLimiter{
		client:   client,
		prefix:   prefix,
		interval: interval,
	}
}

// Allow reports whether key has not been used within the interval.
func (r *RedisLimiter) Allow(key string) bool {
	if r.client == nil || r.interval <= 0 {
		return true
	}

	ctx, cancel := context.WithTimeout(context.Background(), redisLimiterTimeout)
	defer cancel()

	ok, err := r.client.SetNX(ctx, r.prefix+key, time.Now().UnixMilli(), r.interval).Result()
	if err != nil {
		return true
	}
	return ok
}

var _ RateLimiter = (*RedisLimiter)(nil)
