package fcc

import (
	"container/list"
	"context"
	"fmt"
	"sync"

	"github.com/couchcryptid/rainfall-trends/internal/domain"
	"github.com/couchcryptid/rainfall-trends/internal/observability"
)

// CachedLookup wraps a RegionLookup with an in-memory LRU cache. County
// boundaries do not move, so entries never expire; the LRU bound only caps
// memory.
type CachedLookup struct {
	inner   domain.RegionLookup
	cache   *lruCache
	metrics *observability.Metrics
}

// NewCachedLookup creates a cache decorator around a region lookup.
func NewCachedLookup(inner domain.RegionLookup, maxEntries int, metrics *observability.Metrics) *CachedLookup {
	return &CachedLookup{
		inner:   inner,
		cache:   newLRUCache(maxEntries),
		metrics: metrics,
	}
}

func (c *CachedLookup) CountyFIPS(ctx context.Context, lat, lon float64) (string, error) {
	key := fmt.Sprintf("%.6f,%.6f", lat, lon)
	if fips, ok := c.cache.get(key); ok {
		c.metrics.RegionCache.WithLabelValues("hit").Inc()
		return fips, nil
	}
	c.metrics.RegionCache.WithLabelValues("miss").Inc()

	fips, err := c.inner.CountyFIPS(ctx, lat, lon)
	if err != nil {
		return fips, err
	}
	// Only cache non-empty results so transient "not found" responses can be retried.
	if fips != "" {
		c.cache.put(key, fips)
	}
	return fips, nil
}

// lruCache is a thread-safe LRU cache for FIPS codes. Recency order lives in
// a container/list; the map indexes its elements by key.
type lruCache struct {
	maxEntries int
	mu         sync.Mutex
	order      *list.List // front = most recently used
	entries    map[string]*list.Element
}

type cacheEntry struct {
	key  string
	fips string
}

func newLRUCache(maxEntries int) *lruCache {
	return &lruCache{
		maxEntries: maxEntries,
		order:      list.New(),
		entries:    make(map[string]*list.Element),
	}
}

func (c *lruCache) get(key string) (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	el, ok := c.entries[key]
	if !ok {
		return "", false
	}
	c.order.MoveToFront(el)
	return el.Value.(*cacheEntry).fips, true
}

func (c *lruCache) put(key, fips string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if el, ok := c.entries[key]; ok {
		el.Value.(*cacheEntry).fips = fips
		c.order.MoveToFront(el)
		return
	}

	c.entries[key] = c.order.PushFront(&cacheEntry{key: key, fips: fips})
	if c.order.Len() > c.maxEntries {
		c.evictOldest()
	}
}

func (c *lruCache) evictOldest() {
	oldest := c.order.Back()
	if oldest == nil {
		return
	}
	c.order.Remove(oldest)
	delete(c.entries, oldest.Value.(*cacheEntry).key)
}
