package utils

import (
	"container/list"
	"sync"
	"time"
)

type Cache[K comparable, V any] interface {
	Add(K, V)
	Get(K) (V, bool)
	Remove(K)
}

type cacheEntry[V any] struct {
	value   V
	expires time.Time // zero when the cache has no TTL
}

// Bounded map cache with FIFO eviction and an optional per-entry TTL.
// Constructed explicitly and passed into components; there is no global
// instance.
type cache[K comparable, V any] struct {
	sync.RWMutex

	cacheMap map[K]cacheEntry[V]
	keys     *list.List
	maxSize  int
	ttl      time.Duration
	now      func() time.Time
}

func NewCache[K comparable, V any](maxSize int) Cache[K, V] {
	return NewTTLCache[K, V](maxSize, 0, time.Now)
}

// NewTTLCache creates a cache whose entries expire ttl after insertion.
// A zero ttl disables expiry. The now func is injectable for tests.
func NewTTLCache[K comparable, V any](maxSize int, ttl time.Duration, now func() time.Time) Cache[K, V] {
	if now == nil {
		now = time.Now
	}
	return &cache[K, V]{
		cacheMap: make(map[K]cacheEntry[V]),
		keys:     list.New(),
		maxSize:  maxSize,
		ttl:      ttl,
		now:      now,
	}
}

func (c *cache[K, V]) Add(k K, v V) {
	c.Lock()
	defer c.Unlock()

	entry := cacheEntry[V]{value: v}
	if c.ttl > 0 {
		entry.expires = c.now().Add(c.ttl)
	}
	if _, ok := c.cacheMap[k]; ok {
		c.cacheMap[k] = entry
		return
	}
	c.cacheMap[k] = entry
	c.keys.PushBack(k)
	if c.keys.Len() > c.maxSize {
		e := c.keys.Front()
		c.keys.Remove(e)
		delete(c.cacheMap, e.Value.(K))
	}
}

func (c *cache[K, V]) Get(k K) (V, bool) {
	c.RLock()
	entry, ok := c.cacheMap[k]
	c.RUnlock()

	if !ok {
		var zero V
		return zero, false
	}
	if !entry.expires.IsZero() && c.now().After(entry.expires) {
		c.Remove(k)
		var zero V
		return zero, false
	}
	return entry.value, true
}

func (c *cache[K, V]) Remove(k K) {
	c.Lock()
	defer c.Unlock()

	if _, ok := c.cacheMap[k]; !ok {
		return
	}
	delete(c.cacheMap, k)
	for e := c.keys.Front(); e != nil; e = e.Next() {
		if e.Value.(K) == k {
			c.keys.Remove(e)
			break
		}
	}
}
