package exchange

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/bentansusanto/travel-api/pkg/redis"
)

// MemoryCache is an in-process Cache with an injectable clock
type MemoryCache struct {
	mu      sync.Mutex
	now     func() time.Time
	entries map[string]memoryEntry
}

type memoryEntry struct {
	rate      decimal.Decimal
	expiresAt time.Time
}

// NewMemoryCache creates a memory cache; now defaults to time.Now
func NewMemoryCache(now func() time.Time) *MemoryCache {
	if now == nil {
		now = time.Now
	}
	return &MemoryCache{now: now, entries: make(map[string]memoryEntry)}
}

// Get returns a live entry
func (c *MemoryCache) Get(_ context.Context, key string) (decimal.Decimal, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[key]
	if !ok {
		return decimal.Zero, false, nil
	}
	if !c.now().Before(e.expiresAt) {
		delete(c.entries, key)
		return decimal.Zero, false, nil
	}
	return e.rate, true, nil
}

// Set stores rate for ttl
func (c *MemoryCache) Set(_ context.Context, key string, rate decimal.Decimal, ttl time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = memoryEntry{rate: rate, expiresAt: c.now().Add(ttl)}
	return nil
}

// RedisCache stores rates as decimal strings in Redis
type RedisCache struct {
	client *redis.Client
}

// NewRedisCache creates a Redis-backed cache
func NewRedisCache(client *redis.Client) *RedisCache {
	return &RedisCache{client: client}
}

// Get reads a cached rate
func (c *RedisCache) Get(ctx context.Context, key string) (decimal.Decimal, bool, error) {
	val, ok, err := c.client.Get(ctx, key)
	if err != nil || !ok {
		return decimal.Zero, false, err
	}
	rate, err := decimal.NewFromString(val)
	if err != nil {
		return decimal.Zero, false, fmt.Errorf("corrupt cached rate %q: %w", key, err)
	}
	return rate, true, nil
}

// Set writes a rate with expiry
func (c *RedisCache) Set(ctx context.Context, key string, rate decimal.Decimal, ttl time.Duration) error {
	return c.client.Set(ctx, key, rate.String(), ttl)
}
