// Package profile loads, stores and updates reader profiles.
package profile

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/johnrirwin/smartnews/internal/models"
)

// ErrNotFound is returned by a Store that has no profile for a reader.
var ErrNotFound = errors.New("profile not found")

// Store persists profiles by reader id.
type Store interface {
	Load(ctx context.Context, readerID string) (*models.UserProfile, error)
	Save(ctx context.Context, readerID string, profile *models.UserProfile) error
}

// MemoryStore keeps profiles in process memory.
type MemoryStore struct {
	mu       sync.RWMutex
	profiles map[string]models.UserProfile
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{profiles: make(map[string]models.UserProfile)}
}

func (s *MemoryStore) Load(ctx context.Context, readerID string) (*models.UserProfile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.profiles[readerID]
	if !ok {
		return nil, ErrNotFound
	}
	out := p.Clone()
	return &out, nil
}

func (s *MemoryStore) Save(ctx context.Context, readerID string, profile *models.UserProfile) error {
	if profile == nil {
		return fmt.Errorf("profile is required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.profiles[readerID] = profile.Clone()
	return nil
}

// DefaultRedisPrefix namespaces profile keys.
const DefaultRedisPrefix = "smartnews:profile:"

// RedisStore keeps profiles as JSON documents in Redis.
type RedisStore struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

// NewRedisStore creates a Redis-backed store. A zero ttl keeps profiles
// until they are overwritten.
func NewRedisStore(client *redis.Client, prefix string, ttl time.Duration) *RedisStore {
	if prefix == "" {
		prefix = DefaultRedisPrefix
	}
	return &RedisStore{client: client, prefix: prefix, ttl: ttl}
}

func (s *RedisStore) Load(ctx context.Context, readerID string) (*models.UserProfile, error) {
	data, err := s.client.Get(ctx, s.prefix+readerID).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load profile %s: %w", readerID, err)
	}

	var p models.UserProfile
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("decode profile %s: %w", readerID, err)
	}
	return &p, nil
}

func (s *RedisStore) Save(ctx context.Context, readerID string, profile *models.UserProfile) error {
	if profile == nil {
		return fmt.Errorf("profile is required")
	}

	data, err := json.Marshal(profile)
	if err != nil {
		return fmt.Errorf("encode profile %s: %w", readerID, err)
	}
	if err := s.client.Set(ctx, s.prefix+readerID, data, s.ttl).Err(); err != nil {
		return fmt.Errorf("save profile %s: %w", readerID, err)
	}
	return nil
}

var (
	_ Store = (*MemoryStore)(nil)
	_ Store = (*RedisStore)(nil)
)
