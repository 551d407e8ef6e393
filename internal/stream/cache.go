package stream

import (
	"fmt"
	"sync"

	"github.com/couchcryptid/rainfall-trends/internal/domain"
)

// Result is the terminal outcome of one decoded stream: either the final
// series or the error that ended it. Both are cached so a failed location is
// not refetched on every view.
type Result struct {
	Counts []domain.YearCount
	Err    error
}

// Cache is a read-through, process-lifetime cache of stream results keyed by
// location. It never evicts. Concurrent readers and writers are safe, but
// identical in-flight requests are not deduplicated: two views fetching the
// same location at once will both hit the producer, and the later result
// wins. That gap is accepted.
type Cache struct {
	mu   sync.RWMutex
	data map[string]Result
}

// NewCache creates an empty result cache.
func NewCache() *Cache {
	return &Cache{data: make(map[string]Result)}
}

// Key derives the cache key for a coordinate pair.
func Key(lat, lon float64) string {
	return fmt.Sprintf("%g,%g", lat, lon)
}

// Get returns the cached result for a key, if present.
func (c *Cache) Get(key string) (Result, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	r, ok := c.data[key]
	return r, ok
}

// Put stores a terminal result for a key.
func (c *Cache) Put(key string, r Result) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data[key] = r
}

// GetOrFetch returns the cached result for key, or runs fetch and caches
// whatever it returns, success or failure.
func (c *Cache) GetOrFetch(key string, fetch func() Result) Result {
	if r, ok := c.Get(key); ok {
		return r
	}
	r := fetch()
	c.Put(key, r)
	return r
}
