package cache

import (
	"context"
	"time"
)

// Loader produces a fresh value and the TTL to cache it for. A zero TTL
// uses the policy default; a negative TTL skips caching for this value.
type Loader func(ctx context.Context) ([]byte, time.Duration, error)

// Middleware serves values from a Cache and reloads them on miss.
type Middleware struct {
	cache  Cache
	policy Policy
}

// NewMiddleware creates a cache middleware. A nil cache gets a MemoryCache.
func NewMiddleware(cache Cache, policy Policy) *Middleware {
	if cache == nil {
		cache = NewMemoryCache(policy)
	}
	return &Middleware{cache: cache, policy: policy}
}

// Execute returns the cached value for key, or calls load and caches its
// result. The boolean reports a cache hit. Errors are NOT cached, and an
// invalid key bypasses the cache.
func (m *Middleware) Execute(ctx context.Context, key string, load Loader) ([]byte, bool, error) {
	if !m.policy.ShouldCache() || ValidateKey(key) != nil {
		value, _, err := load(ctx)
		return value, false, err
	}

	if cached, ok := m.cache.Get(ctx, key); ok {
		return cached, true, nil
	}

	value, ttl, err := load(ctx)
	if err != nil {
		return value, false, err
	}

	if ttl = m.policy.EffectiveTTL(ttl); ttl > 0 {
		_ = m.cache.Set(ctx, key, value, ttl)
	}
	return value, false, nil
}
