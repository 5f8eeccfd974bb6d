// Package cache provides the LRU cache that keeps recently read database
// pages in memory.
package cache

import (
	"container/list"
	"sync"
)

// Cache is a generic LRU cache interface.
type Cache[K comparable, V any] interface {
	// Get retrieves a value and marks it most recently used.
	Get(key K) (V, bool)

	// Put stores a value, evicting the least recently used entry when full.
	Put(key K, value V)

	// Remove removes a value from the cache.
	Remove(key K)

	// Clear removes all entries from the cache.
	Clear()

	// Len returns the number of entries in the cache.
	Len() int

	// Stats returns cache statistics.
	Stats() Stats
}

// Stats contains cache statistics.
type Stats struct {
	Hits      int64
	Misses    int64
	Evictions int64
	Size      int
	MaxSize   int
	Bytes     int64 // only tracked by PageCache
}

// HitRatio returns hits / (hits + misses), or 0 before any lookup.
func (s Stats) HitRatio() float64 {
	total := s.Hits + s.Misses
	if total == 0 {
		return 0
	}
	return float64(s.Hits) / float64(total)
}

// Config contains cache configuration options.
type Config[K comparable, V any] struct {
	// MaxSize is the maximum number of entries (0 = unlimited).
	MaxSize int

	// OnEvict is called when an entry is evicted or removed.
	OnEvict func(key K, value V)
}

// DefaultConfig returns a default cache configuration.
func DefaultConfig[K comparable, V any]() Config[K, V] {
	return Config[K, V]{MaxSize: 64}
}

type entry[K comparable, V any] struct {
	key   K
	value V
}

// lruCache is a thread-safe LRU cache implementation.
type lruCache[K comparable, V any] struct {
	mu        sync.Mutex
	config    Config[K, V]
	entries   map[K]*list.Element
	evictList *list.List
	stats     Stats
}

// NewLRUCache creates a new LRU cache with the given configuration.
func NewLRUCache[K comparable, V any](config Config[K, V]) Cache[K, V] {
	if config.MaxSize < 0 {
		config.MaxSize = 0
	}
	return &lruCache[K, V]{
		config:    config,
		entries:   make(map[K]*list.Element),
		evictList: list.New(),
	}
}

func (c *lruCache[K, V]) Get(key K) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	ent, ok := c.entries[key]
	if !ok {
		c.stats.Misses++
		var zero V
		return zero, false
	}
	c.evictList.MoveToFront(ent)
	c.stats.Hits++
	return ent.Value.(*entry[K, V]).value, true
}

func (c *lruCache[K, V]) Put(key K, value V) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if ent, ok := c.entries[key]; ok {
		c.evictList.MoveToFront(ent)
		ent.Value.(*entry[K, V]).value = value
		return
	}

	c.entries[key] = c.evictList.PushFront(&entry[K, V]{key: key, value: value})
	if c.config.MaxSize > 0 && c.evictList.Len() > c.config.MaxSize {
		if oldest := c.evictList.Back(); oldest != nil {
			c.removeElement(oldest)
			c.stats.Evictions++
		}
	}
}

func (c *lruCache[K, V]) Remove(key K) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if ent, ok := c.entries[key]; ok {
		c.removeElement(ent)
	}
}

func (c *lruCache[K, V]) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries = make(map[K]*list.Element)
	c.evictList.Init()
}

func (c *lruCache[K, V]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.evictList.Len()
}

func (c *lruCache[K, V]) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()

	s := c.stats
	s.Size = c.evictList.Len()
	s.MaxSize = c.config.MaxSize
	return s
}

func (c *lruCache[K, V]) removeElement(ent *list.Element) {
	c.evictList.Remove(ent)
	e := ent.Value.(*entry[K, V])
	delete(c.entries, e.key)
	if c.config.OnEvict != nil {
		c.config.OnEvict(e.key, e.value)
	}
}

// PageCache caches raw page buffers by page number and tracks the bytes
// held. A capacity of 0 disables caching: every Get misses and Put is a
// no-op.
type PageCache struct {
	cache    Cache[uint32, []byte]
	disabled bool

	mu    sync.Mutex
	bytes int64
}

// NewPageCache creates a page cache holding at most pages entries.
func NewPageCache(pages int) *PageCache {
	pc := &PageCache{disabled: pages <= 0}
	pc.cache = NewLRUCache(Config[uint32, []byte]{
		MaxSize: pages,
		OnEvict: func(_ uint32, data []byte) {
			pc.mu.Lock()
			pc.bytes -= int64(len(data))
			pc.mu.Unlock()
		},
	})
	return pc
}

// Get returns the cached buffer of page pgno.
func (pc *PageCache) Get(pgno uint32) ([]byte, bool) {
	if pc.disabled {
		pc.cache.Get(0) // count the miss
		return nil, false
	}
	return pc.cache.Get(pgno)
}

// Put caches the buffer of page pgno.
func (pc *PageCache) Put(pgno uint32, data []byte) {
	if pc.disabled {
		return
	}
	pc.cache.Remove(pgno)
	pc.mu.Lock()
	pc.bytes += int64(len(data))
	pc.mu.Unlock()
	pc.cache.Put(pgno, data)
}

// Clear drops every cached page.
func (pc *PageCache) Clear() {
	pc.cache.Clear()
	pc.mu.Lock()
	pc.bytes = 0
	pc.mu.Unlock()
}

// Len returns the number of cached pages.
func (pc *PageCache) Len() int {
	return pc.cache.Len()
}

// Stats returns cache statistics including the bytes held.
func (pc *PageCache) Stats() Stats {
	s := pc.cache.Stats()
	pc.mu.Lock()
	s.Bytes = pc.bytes
	pc.mu.Unlock()
	return s
}
