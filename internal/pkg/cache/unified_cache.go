package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/FACorreiaa/voyagr-planner/internal/app/observability/metrics"
)

// CacheMetrics is a snapshot of one cache's counters.
type CacheMetrics struct {
	Hits   int64 `json:"hits"`
	Misses int64 `json:"misses"`
	Sets   int64 `json:"sets"`
}

// UnifiedCache is a TTL cache for adapter responses.
type UnifiedCache[T any] struct {
	mu     sync.RWMutex
	items  map[string]cacheEntry[T]
	ttl    time.Duration
	name   string
	logger *zap.Logger

	hits   atomic.Int64
	misses atomic.Int64
	sets   atomic.Int64

	stop      chan struct{}
	closeOnce sync.Once
}

type cacheEntry[T any] struct {
	value      T
	expiration int64
}

// NewUnifiedCache creates a cache whose entries live for ttl. A janitor
// goroutine removes expired entries until Close is called.
func NewUnifiedCache[T any](ttl time.Duration, name string, logger *zap.Logger) *UnifiedCache[T] {
	if logger == nil {
		logger = zap.NewNop()
	}
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	c := &UnifiedCache[T]{
		items:  make(map[string]cacheEntry[T]),
		ttl:    ttl,
		name:   name,
		logger: logger,
		stop:   make(chan struct{}),
	}
	go c.cleanup()
	return c
}

func (c *UnifiedCache[T]) Set(key string, value T) {
	c.mu.Lock()
	c.items[key] = cacheEntry[T]{
		value:      value,
		expiration: time.Now().Add(c.ttl).UnixNano(),
	}
	c.mu.Unlock()
	c.sets.Add(1)

	c.logger.Debug("Cache set",
		zap.String("cache", c.name),
		zap.String("key", key),
		zap.Duration("ttl", c.ttl),
	)
}

func (c *UnifiedCache[T]) Get(key string) (T, bool) {
	c.mu.RLock()
	item, found := c.items[key]
	c.mu.RUnlock()

	if !found || time.Now().UnixNano() > item.expiration {
		c.misses.Add(1)
		c.record("miss")
		c.logger.Debug("Cache miss", zap.String("cache", c.name), zap.String("key", key))
		var zero T
		return zero, false
	}

	c.hits.Add(1)
	c.record("hit")
	c.logger.Debug("Cache hit", zap.String("cache", c.name), zap.String("key", key))
	return item.value, true
}

func (c *UnifiedCache[T]) record(outcome string) {
	metrics.Count(context.Background(), metrics.Get().CacheLookupsTotal,
		attribute.String("cache", c.name),
		attribute.String("outcome", outcome),
	)
}

func (c *UnifiedCache[T]) Delete(key string) {
	c.mu.Lock()
	delete(c.items, key)
	c.mu.Unlock()
}

func (c *UnifiedCache[T]) Clear() {
	c.mu.Lock()
	c.items = make(map[string]cacheEntry[T])
	c.mu.Unlock()
	c.logger.Info("Cache cleared", zap.String("cache", c.name))
}

func (c *UnifiedCache[T]) GetMetrics() CacheMetrics {
	return CacheMetrics{
		Hits:   c.hits.Load(),
		Misses: c.misses.Load(),
		Sets:   c.sets.Load(),
	}
}

// Size counts stored entries, including expired ones not yet swept.
func (c *UnifiedCache[T]) Size() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.items)
}

// Close stops the janitor. The cache stays usable.
func (c *UnifiedCache[T]) Close() {
	c.closeOnce.Do(func() { close(c.stop) })
}

func (c *UnifiedCache[T]) cleanup() {
	ticker := time.NewTicker(c.ttl / 2)
	defer ticker.Stop()

	for {
		select {
		case <-c.stop:
			return
		case <-ticker.C:
			c.sweep()
		}
	}
}

func (c *UnifiedCache[T]) sweep() {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := time.Now().UnixNano()
	expired := 0
	for key, item := range c.items {
		if now > item.expiration {
			delete(c.items, key)
			expired++
		}
	}
	if expired > 0 {
		c.logger.Debug("Cache cleanup",
			zap.String("cache", c.name),
			zap.Int("expired_items", expired),
			zap.Int("remaining_items", len(c.items)),
		)
	}
}

// KeyBuilder builds stable cache keys from named components.
type KeyBuilder struct {
	components []map[string]any
}

func NewKeyBuilder() *KeyBuilder {
	return &KeyBuilder{components: make([]map[string]any, 0, 8)}
}

func (b *KeyBuilder) Add(key string, value any) *KeyBuilder {
	b.components = append(b.components, map[string]any{key: value})
	return b
}

// Build hashes the components in insertion order.
func (b *KeyBuilder) Build() (string, error) {
	raw, err := json.Marshal(b.components)
	if err != nil {
		return "", fmt.Errorf("failed to marshal cache key components: %w", err)
	}
	sum := sha256.Sum256(raw)
	return hex.EncodeToString(sum[:]), nil
}
