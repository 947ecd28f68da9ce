// Package cache provides a generic, thread-safe LRU cache with metrics.
//
// The context processor uses it to memoise processed remote contexts, so a
// context referenced by many documents is parsed and merged once.
package cache

import (
	"container/list"
	"sync"
	"sync/atomic"
)

// DefaultCapacity is used when New is given a non-positive capacity.
const DefaultCapacity = 128

// LRU is a generic thread-safe least-recently-used cache.
type LRU[K comparable, V any] struct {
	mu       sync.Mutex
	items    map[K]*list.Element
	order    *list.List
	capacity int
	onEvict  func(K, V)

	// Metrics (lock-free using atomics)
	hits   atomic.Uint64
	misses atomic.Uint64
	evicts atomic.Uint64
	loads  atomic.Uint64
}

type entry[K comparable, V any] struct {
	key   K
	value V
}

// Option configures an LRU.
type Option[K comparable, V any] func(*LRU[K, V])

// WithEvictCallback registers fn to run, under the cache lock, whenever an
// entry is pushed out by capacity.
func WithEvictCallback[K comparable, V any](fn func(K, V)) Option[K, V] {
	return func(c *LRU[K, V]) {
		c.onEvict = fn
	}
}

// New creates an LRU holding at most capacity entries.
func New[K comparable, V any](capacity int, opts ...Option[K, V]) *LRU[K, V] {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	c := &LRU[K, V]{
		items:    make(map[K]*list.Element, capacity),
		order:    list.New(),
		capacity: capacity,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Get returns the value for key and marks it most recently used.
func (c *LRU[K, V]) Get(key K) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	el, ok := c.items[key]
	if !ok {
		c.misses.Add(1)
		var zero V
		return zero, false
	}
	c.hits.Add(1)
	c.order.MoveToFront(el)
	return el.Value.(*entry[K, V]).value, true
}

// Add stores value under key, evicting the least recently used entry when
// the cache is full.
func (c *LRU[K, V]) Add(key K, value V) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.add(key, value)
}

// add must be called with mu held.
func (c *LRU[K, V]) add(key K, value V) {
	if el, ok := c.items[key]; ok {
		el.Value.(*entry[K, V]).value = value
		c.order.MoveToFront(el)
		return
	}
	if len(c.items) >= c.capacity {
		c.evictOldest()
	}
	c.items[key] = c.order.PushFront(&entry[K, V]{key: key, value: value})
}

// evictOldest must be called with mu held.
func (c *LRU[K, V]) evictOldest() {
	oldest := c.order.Back()
	if oldest == nil {
		return
	}
	e := oldest.Value.(*entry[K, V])
	delete(c.items, e.key)
	c.order.Remove(oldest)
	c.evicts.Add(1)
	if c.onEvict != nil {
		c.onEvict(e.key, e.value)
	}
}

// GetOrLoad returns the cached value for key, or calls load and caches its
// result. Errors are returned and not cached. hit reports whether the value
// came from the cache.
//
// load runs without the cache lock held; concurrent misses on the same key
// may both call it, and the last result wins.
func (c *LRU[K, V]) GetOrLoad(key K, load func() (V, error)) (v V, hit bool, err error) {
	if v, ok := c.Get(key); ok {
		return v, true, nil
	}

	v, err = load()
	if err != nil {
		var zero V
		return zero, false, err
	}
	c.loads.Add(1)
	c.Add(key, v)
	return v, false, nil
}

// RemoveFunc drops every entry for which match returns true and reports how
// many were dropped.
func (c *LRU[K, V]) RemoveFunc(match func(K) bool) int {
	c.mu.Lock()
	defer c.mu.Unlock()

	n := 0
	for k, el := range c.items {
		if match(k) {
			delete(c.items, k)
			c.order.Remove(el)
			n++
		}
	}
	return n
}

// Len returns the number of cached entries.
func (c *LRU[K, V]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.items)
}

// Purge drops every entry.
func (c *LRU[K, V]) Purge() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items = make(map[K]*list.Element, c.capacity)
	c.order.Init()
}

// Stats holds cache statistics.
type Stats struct {
	Size     int
	Capacity int
	Hits     uint64
	Misses   uint64
	Evicts   uint64
	Loads    uint64
	HitRate  float64
}

// Stats returns cache statistics.
func (c *LRU[K, V]) Stats() Stats {
	size := c.Len()
	hits := c.hits.Load()
	misses := c.misses.Load()

	var hitRate float64
	if total := hits + misses; total > 0 {
		hitRate = float64(hits) / float64(total)
	}

	return Stats{
		Size:     size,
		Capacity: c.capacity,
		Hits:     hits,
		Misses:   misses,
		Evicts:   c.evicts.Load(),
		Loads:    c.loads.Load(),
		HitRate:  hitRate,
	}
}
