// Package resultcache memoizes decomposition results in a bounded LRU.
package resultcache

import (
	"sync/atomic"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/haukened/domainparser/internal/domainparser/domain"
)

// Cache stores ParseResults by key and tracks basic metrics.
type Cache interface {
	Get(key string) (domain.ParseResult, bool)
	Put(key string, r domain.ParseResult)
	Len() int
	Purge()
	Stats() (hits, misses, evictions uint64)
}

// resultCache is an LRU-backed Cache tracking hits, misses and evictions.
type resultCache struct {
	lru       *lru.Cache[string, domain.ParseResult]
	hits      uint64
	misses    uint64
	evictions uint64
}

// disabledCache is a no-op Cache used when size <= 0.
type disabledCache struct{}

// New creates a Cache with the given capacity. If size <= 0, a disabled
// cache is returned that always misses and tracks no metrics.
func New(size int) (Cache, error) {
	if size <= 0 {
		return &disabledCache{}, nil
	}

	var rc resultCache
	// NewWithEvict observes evictions, including Purge-induced ones.
	cache, err := lru.NewWithEvict(size, func(_ string, _ domain.ParseResult) {
		atomic.AddUint64(&rc.evictions, 1)
	})
	if err != nil {
		return nil, err
	}
	rc.lru = cache
	return &rc, nil
}

func (c *resultCache) Get(key string) (domain.ParseResult, bool) {
	if val, ok := c.lru.Get(key); ok {
		atomic.AddUint64(&c.hits, 1)
		return val, true
	}
	atomic.AddUint64(&c.misses, 1)
	return domain.ParseResult{}, false
}

func (c *resultCache) Put(key string, r domain.ParseResult) {
	c.lru.Add(key, r)
}

func (c *resultCache) Len() int { return c.lru.Len() }

func (c *resultCache) Purge() { c.lru.Purge() }

func (c *resultCache) Stats() (hits, misses, evictions uint64) {
	return atomic.LoadUint64(&c.hits), atomic.LoadUint64(&c.misses), atomic.LoadUint64(&c.evictions)
}

func (d *disabledCache) Get(string) (domain.ParseResult, bool) { return domain.ParseResult{}, false }

func (d *disabledCache) Put(string, domain.ParseResult) {}

func (d *disabledCache) Len() int { return 0 }

func (d *disabledCache) Purge() {}

func (d *disabledCache) Stats() (uint64, uint64, uint64) { return 0, 0, 0 }

var _ Cache = (*resultCache)(nil)
var _ Cache = (*disabledCache)(nil)
