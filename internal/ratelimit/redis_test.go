package ratelimit

import (
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"github.com/johnrirwin/smartnews/internal/testutil"
)

func newTestRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	client, mr := testutil.NewTestRedis(t)
	return mr, client
}

func TestRedisLimiter_Allow(t *testing.T) {
	mr, client := newTestRedis(t)
	limiter := NewRedis(client, "rl:", time.Minute)

	if !limiter.Allow("reader-1") {
		t.Fatal("first Allow() should succeed")
	}
	if limiter.Allow("reader-1") {
		t.Fatal("second Allow() within interval should fail")
	}
	if !limiter.Allow("reader-2") {
		t.Fatal("different key should be allowed")
	}

	mr.FastForward(2 * time.Minute)

	if !limiter.Allow("reader-1") {
		t.Fatal("Allow() should succeed after the interval expires")
	}
}

func TestRedisLimiter_FailsOpen(t *testing.T) {
	client := redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 50 * time.Millisecond,
		MaxRetries:  -1,
	})
	defer client.Close()
	limiter := NewRedis(client, "rl:", time.Minute)

	if !limiter.Allow("reader-1") {
		t.Fatal("Allow() should fail open when Redis is down")
	}
}

func TestRedisLimiter_NilClient(t *testing.T) {
	limiter := NewRedis(nil, "rl:", time.Minute)
	if !limiter.Allow("x") {
		t.Fatal("nil client should allow")
	}
}
