package embedding

import (
	"context"
	"fmt"
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/oakline/assessmap/internal/observability"
)

// DefaultFastTierSize matches the reference deployment's LRU capacity.
const DefaultFastTierSize = 1000

// Cache memoizes Provider output keyed by normalized text. Two tiers: a
// bounded LRU fast tier and an unbounded durable map that survives fast-tier
// eviction. The same normalized key always maps to the same vector for the
// lifetime of the process.
type Cache struct {
	fast     *lru.Cache[string, Vector]
	provider *Provider
	metrics  *observability.ServiceMetrics

	mu      sync.Mutex
	durable map[string]Vector
}

// NewCache creates a two-tier cache over provider. fastSize <= 0 selects
// the default fast-tier capacity.
func NewCache(provider *Provider, fastSize int, metrics *observability.ServiceMetrics) (*Cache, error) {
	if fastSize <= 0 {
		fastSize = DefaultFastTierSize
	}
	fast, err := lru.New[string, Vector](fastSize)
	if err != nil {
		return nil, fmt.Errorf("create fast cache tier: %w", err)
	}
	return &Cache{
		fast:     fast,
		provider: provider,
		metrics:  metrics,
		durable:  make(map[string]Vector),
	}, nil
}

// GetOrCompute returns the embedding for text, computing and storing it on
// a miss. Idempotent and safe under concurrent callers: a race may compute
// the same key twice, but the first stored vector wins, so callers never
// observe the mapping change.
func (c *Cache) GetOrCompute(ctx context.Context, text string) Vector {
	return c.getOrCompute(Normalize(text), func() Vector {
		return c.provider.Embed(ctx, text)
	})
}

// FallbackVector returns the deterministic fallback-space embedding for
// text, cached under a fallback-scoped key so it never collides with the
// backend-space entry for the same text.
func (c *Cache) FallbackVector(text string) Vector {
	return c.getOrCompute(SpaceFallback+"\x00"+Normalize(text), func() Vector {
		return c.provider.Fallback(text)
	})
}

func (c *Cache) getOrCompute(key string, compute func() Vector) Vector {
	if v, ok := c.fast.Get(key); ok {
		c.metrics.IncCacheFastHit()
		return v
	}

	c.mu.Lock()
	if v, ok := c.durable[key]; ok {
		c.mu.Unlock()
		c.metrics.IncCacheDurableHit()
		c.fast.Add(key, v)
		return v
	}
	c.mu.Unlock()

	c.metrics.IncCacheMiss()
	v := compute()

	// Re-check under the lock: if a concurrent caller stored first, keep
	// its vector so the key-to-vector mapping never changes.
	c.mu.Lock()
	if prev, ok := c.durable[key]; ok {
		v = prev
	} else {
		c.durable[key] = v
	}
	size := len(c.durable)
	c.mu.Unlock()

	c.metrics.SetCacheSize(size)
	c.fast.Add(key, v)
	return v
}

// Contains reports whether text is already cached in either tier, without
// refreshing the fast tier.
func (c *Cache) Contains(text string) bool {
	key := Normalize(text)
	if _, ok := c.fast.Peek(key); ok {
		return true
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.durable[key]
	return ok
}

// Len returns the number of entries in the durable tier.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.durable)
}
