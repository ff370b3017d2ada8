package dataset

import (
	"context"
	"sync"

	"evdash/domain/dataset"
	"evdash/internal/logging"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

// DefaultCacheEntries bounds how many datasets stay memoized
const DefaultCacheEntries = 16

// CacheStats reports cache usage
type CacheStats struct {
	Entries int `json:"entries"`
	Hits    int `json:"hits"`
	Misses  int `json:"misses"`
}

// Cache memoizes loaded datasets for the process lifetime, keyed by
// Source.Key. Concurrent loads of the same key share one read. A load that
// overlaps an Invalidate or Reset of its key is returned but not stored.
type Cache struct {
	mu          sync.RWMutex
	enabled     bool
	maxEntries  int
	entries     map[string]*dataset.Dataset
	order       []string
	generations map[string]uint64
	epoch       uint64
	hits        int
	misses      int
	group       singleflight.Group
	logger      *zap.Logger
}

// generation identifies the invalidation state of one key
type generation struct {
	epoch uint64
	key   uint64
}

// NewCache creates a cache; a disabled cache always loads
func NewCache(enabled bool, maxEntries int, logger *zap.Logger) *Cache {
	if maxEntries <= 0 {
		maxEntries = DefaultCacheEntries
	}
	return &Cache{
		enabled:     enabled,
		maxEntries:  maxEntries,
		entries:     make(map[string]*dataset.Dataset),
		generations: make(map[string]uint64),
		logger:      logging.OrNop(logger),
	}
}

// Load returns the memoized dataset for src or loads it
func (c *Cache) Load(ctx context.Context, src Source) (*dataset.Dataset, error) {
	key := src.Key()
	if !c.enabled {
		return src.Load(ctx)
	}

	c.mu.Lock()
	if ds, ok := c.entries[key]; ok {
		c.hits++
		c.mu.Unlock()
		c.logger.Debug("cache hit", zap.String("key", key))
		return ds, nil
	}
	c.misses++
	c.mu.Unlock()

	v, err, _ := c.group.Do(key, func() (interface{}, error) {
		gen := c.currentGeneration(key)
		ds, err := src.Load(ctx)
		if err != nil {
			return nil, err
		}
		c.store(key, gen, ds)
		return ds, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*dataset.Dataset), nil
}

func (c *Cache) currentGeneration(key string) generation {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return generation{epoch: c.epoch, key: c.generations[key]}
}

func (c *Cache) store(key string, gen generation, ds *dataset.Dataset) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if gen != (generation{epoch: c.epoch, key: c.generations[key]}) {
		c.logger.Debug("discarding load invalidated in flight", zap.String("key", key))
		return
	}
	if _, ok := c.entries[key]; !ok {
		c.order = append(c.order, key)
	}
	c.entries[key] = ds
	for len(c.order) > c.maxEntries {
		oldest := c.order[0]
		c.order = c.order[1:]
		delete(c.entries, oldest)
	}
}

// Contains reports whether key is memoized
func (c *Cache) Contains(key string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	_, ok := c.entries[key]
	return ok
}

// Invalidate drops one entry and any load of it still in flight
func (c *Cache) Invalidate(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.generations[key]++
	c.group.Forget(key)
	if _, ok := c.entries[key]; !ok {
		return
	}
	delete(c.entries, key)
	for i, k := range c.order {
		if k == key {
			c.order = append(c.order[:i], c.order[i+1:]...)
			break
		}
	}
	c.logger.Info("cache entry invalidated", zap.String("key", key))
}

// Reset drops every entry
func (c *Cache) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]*dataset.Dataset)
	c.order = nil
	c.generations = make(map[string]uint64)
	c.epoch++
	c.logger.Info("cache reset")
}

// Stats returns a snapshot of cache counters
func (c *Cache) Stats() CacheStats {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return CacheStats{Entries: len(c.entries), Hits: c.hits, Misses: c.misses}
}
