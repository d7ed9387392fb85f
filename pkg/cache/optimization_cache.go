package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

const keyPrefix = "optimization:"

// ErrCacheMiss is returned when no entry exists for a key
var ErrCacheMiss = errors.New("optimization result not found in cache")

// Store caches JSON-encodable optimization results
type Store interface {
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error
	Get(ctx context.Context, key string, dest interface{}) error
	Ping(ctx context.Context) error
}

// Key hashes the request and slate fingerprints into a cache key
func Key(parts ...interface{}) (string, error) {
	h := sha256.New()
	enc := json.NewEncoder(h)
	for _, p := range parts {
		if err := enc.Encode(p); err != nil {
			return "", fmt.Errorf("failed to hash cache key part: %w", err)
		}
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

// OptimizationCacheService stores optimization results in redis
type OptimizationCacheService struct {
	client *redis.Client
	logger *logrus.Entry
}

// NewOptimizationCacheService creates a new optimization cache service
func NewOptimizationCacheService(client *redis.Client, logger *logrus.Entry) *OptimizationCacheService {
	return &OptimizationCacheService{
		client: client,
		logger: logger.WithField("component", "optimization_cache"),
	}
}

// NewRedisClient parses a redis URL and builds a client
func NewRedisClient(redisURL string) (*redis.Client, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("invalid redis url: %w", err)
	}
	return redis.NewClient(opts), nil
}

// Set stores an optimization result in cache
func (c *OptimizationCacheService) Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to marshal optimization result: %w", err)
	}

	fullKey := keyPrefix + key
	if err := c.client.Set(ctx, fullKey, data, expiration).Err(); err != nil {
		return fmt.Errorf("failed to set optimization result in cache: %w", err)
	}

	c.logger.WithFields(logrus.Fields{
		"cache_key":  fullKey,
		"expiration": expiration,
		"bytes":      len(data),
	}).Debug("Cached optimization result")
	return nil
}

// Get retrieves an optimization result from cache
func (c *OptimizationCacheService) Get(ctx context.Context, key string, dest interface{}) error {
	fullKey := keyPrefix + key
	data, err := c.client.Get(ctx, fullKey).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return ErrCacheMiss
		}
		return fmt.Errorf("failed to get optimization result from cache: %w", err)
	}

	if err := json.Unmarshal(data, dest); err != nil {
		return fmt.Errorf("failed to unmarshal optimization result: %w", err)
	}

	c.logger.WithField("cache_key", fullKey).Debug("Retrieved optimization result from cache")
	return nil
}

// Ping checks the redis connection
func (c *OptimizationCacheService) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

// MemoryCache is an in-process Store used when no redis is configured
type MemoryCache struct {
	mu      sync.RWMutex
	entries map[string]memoryEntry
	now     func() time.Time
}

type memoryEntry struct {
	data    []byte
	expires time.Time
}

// NewMemoryCache creates an empty in-process cache
func NewMemoryCache() *MemoryCache {
	return &MemoryCache{entries: make(map[string]memoryEntry), now: time.Now}
}

// Set implements Store
func (m *MemoryCache) Set(_ context.Context, key string, value interface{}, expiration time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to marshal optimization result: %w", err)
	}
	entry := memoryEntry{data: data}
	if expiration > 0 {
		entry.expires = m.now().Add(expiration)
	}
	m.mu.Lock()
	m.entries[keyPrefix+key] = entry
	m.mu.Unlock()
	return nil
}

// Get implements Store
func (m *MemoryCache) Get(_ context.Context, key string, dest interface{}) error {
	m.mu.RLock()
	entry, ok := m.entries[keyPrefix+key]
	m.mu.RUnlock()
	if !ok || (!entry.expires.IsZero() && m.now().After(entry.expires)) {
		return ErrCacheMiss
	}
	if err := json.Unmarshal(entry.data, dest); err != nil {
		return fmt.Errorf("failed to unmarshal optimization result: %w", err)
	}
	return nil
}

// Ping implements Store
func (m *MemoryCache) Ping(context.Context) error {
	return nil
}
