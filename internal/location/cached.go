package location

import (
	"context"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/patrickmn/go-cache"
)

// CachedResolver memoises another resolver's answers. Only identical
// coordinates share an entry, so cached labels always match the wrapped
// resolver. Errors are not cached.
type CachedResolver struct {
	next   CityResolver
	cache  *cache.Cache
	hits   atomic.Uint64
	misses atomic.Uint64
}

// NewCachedResolver wraps next; entries expire after ttl.
func NewCachedResolver(next CityResolver, ttl time.Duration) *CachedResolver {
	return &CachedResolver{
		next:  next,
		cache: cache.New(ttl, ttl*2),
	}
}

// ResolveCity returns the cached label or asks the wrapped resolver
func (c *CachedResolver) ResolveCity(ctx context.Context, latitude, longitude float64) (string, error) {
	key := cacheKey(latitude, longitude)
	if cached, found := c.cache.Get(key); found {
		if city, ok := cached.(string); ok {
			c.hits.Add(1)
			return city, nil
		}
	}
	c.misses.Add(1)

	city, err := c.next.ResolveCity(ctx, latitude, longitude)
	if err != nil {
		return "", err
	}
	c.cache.Set(key, city, cache.DefaultExpiration)
	return city, nil
}

// cacheKey uses the shortest exact representation; rounding would let a
// neighbour across the threshold reuse a label
func cacheKey(latitude, longitude float64) string {
	return strconv.FormatFloat(latitude, 'g', -1, 64) + "," +
		strconv.FormatFloat(longitude, 'g', -1, 64)
}

// Stats returns cache hit and miss counts
func (c *CachedResolver) Stats() (hits, misses uint64) {
	return c.hits.Load(), c.misses.Load()
}

// Flush empties the cache
func (c *CachedResolver) Flush() {
	c.cache.Flush()
}
