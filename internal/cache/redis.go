package cache

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/johnrirwin/smartnews/internal/logging"
)

// DefaultRedisPrefix namespaces every key the server writes.
const DefaultRedisPrefix = "smartnews:"

// RedisCache is a Redis-backed cache. Values round-trip through JSON, so Get
// returns generic decoded values rather than the original Go type.
type RedisCache struct {
	client *redis.Client
	ttl    time.Duration
	prefix string
	logger *logging.Logger
}

// RedisConfig holds configuration for the Redis cache
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
	Prefix   string
	// Logger receives failed writes. Nil discards them.
	Logger *logging.Logger
}

// NewRedis creates a new Redis cache with the specified configuration
func NewRedis(cfg RedisConfig, ttl time.Duration) (*RedisCache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	// Test connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, err
	}

	prefix := cfg.Prefix
	if prefix == "" {
		prefix = DefaultRedisPrefix
	}

	logger := cfg.Logger
	if logger == nil {
		logger = logging.Nop()
	}

	return &RedisCache{
		client: client,
		ttl:    ttl,
		prefix: prefix,
		logger: logger,
	}, nil
}

func (c *RedisCache) key(k string) string {
	return c.prefix + k
}

func (c *RedisCache) Get(key string) (interface{}, bool) {
	ctx := context.Background()

	data, err := c.client.Get(ctx, c.key(key)).Bytes()
	if err != nil {
		return nil, false
	}

	var value interface{}
	if err := json.Unmarshal(data, &value); err != nil {
		return nil, false
	}

	return value, true
}

func (c *RedisCache) Set(key string, value interface{}) {
	c.SetWithTTL(key, value, c.ttl)
}

func (c *RedisCache) SetWithTTL(key string, value interface{}, ttl time.Duration) {
	ctx := context.Background()

	data, err := json.Marshal(value)
	if err != nil {
		c.logger.Error("Failed to encode cache value", logging.WithFields(map[string]interface{}{
			"key":   key,
			"error": err.Error(),
		}))
		return
	}

	if err := c.client.Set(ctx, c.key(key), data, ttl).Err(); err != nil {
		c.logger.Error("Redis cache write failed", logging.WithFields(map[string]interface{}{
			"key":   key,
			"error": err.Error(),
		}))
	}
}

func (c *RedisCache) Delete(key string) {
	ctx := context.Background()
	if err := c.client.Del(ctx, c.key(key)).Err(); err != nil {
		c.logger.Error("Redis cache delete failed", logging.WithFields(map[string]interface{}{
			"key":   key,
			"error": err.Error(),
		}))
	}
}

func (c *RedisCache) Clear() {
	ctx := context.Background()

	// Use SCAN to find all keys with our prefix and delete them
	iter := c.client.Scan(ctx, 0, c.prefix+"*", 100).Iterator()
	for iter.Next(ctx) {
		c.client.Del(ctx, iter.Val())
	}
}

// Client exposes the connection so other Redis-backed components can share it.
func (c *RedisCache) Client() *redis.Client {
	return c.client
}

// Close closes the Redis connection
func (c *RedisCache) Close() error {
	return c.client.Close()
}

// Ensure RedisCache implements Cache interface
var _ Cache = (*RedisCache)(nil)
