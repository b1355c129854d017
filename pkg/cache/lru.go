// Package cache provides a small generic LRU cache with optional TTL,
// used to memoize query embeddings between requests.
package cache

import (
	"container/list"
	"fmt"
	"sync"
	"time"
)

type entry[K comparable, V any] struct {
	key        K
	value      V
	expiration time.Time
}

// LRU is a thread-safe fixed-capacity cache with least-recently-used
// eviction. A zero TTL disables expiration.
type LRU[K comparable, V any] struct {
	capacity int
	ttl      time.Duration
	ll       *list.List
	items    map[K]*list.Element
	lock     sync.Mutex
}

// NewLRU creates a cache holding at most capacity entries.
func NewLRU[K comparable, V any](capacity int, ttl time.Duration) (*LRU[K, V], error) {
	if capacity <= 0 {
		return nil, fmt.Errorf("cache capacity must be positive, got %d", capacity)
	}
	return &LRU[K, V]{
		capacity: capacity,
		ttl:      ttl,
		ll:       list.New(),
		items:    make(map[K]*list.Element),
	}, nil
}

// Get returns the cached value for key and marks it recently used.
// Expired entries are removed on access.
func (c *LRU[K, V]) Get(key K) (V, bool) {
	c.lock.Lock()
	defer c.lock.Unlock()

	element, ok := c.items[key]
	if !ok {
		var zero V
		return zero, false
	}

	e := element.Value.(*entry[K, V])
	if c.ttl > 0 && time.Now().After(e.expiration) {
		c.removeElement(element)
		var zero V
		return zero, false
	}

	c.ll.MoveToFront(element)
	return e.value, true
}

// Put adds or refreshes an entry, evicting the least recently used one
// when the cache is full.
func (c *LRU[K, V]) Put(key K, value V) {
	c.lock.Lock()
	defer c.lock.Unlock()

	if element, ok := c.items[key]; ok {
		e := element.Value.(*entry[K, V])
		e.value = value
		if c.ttl > 0 {
			e.expiration = time.Now().Add(c.ttl)
		}
		c.ll.MoveToFront(element)
		return
	}

	e := &entry[K, V]{key: key, value: value}
	if c.ttl > 0 {
		e.expiration = time.Now().Add(c.ttl)
	}
	c.items[key] = c.ll.PushFront(e)

	if c.ll.Len() > c.capacity {
		if back := c.ll.Back(); back != nil {
			c.removeElement(back)
		}
	}
}

// Remove drops an entry if present.
func (c *LRU[K, V]) Remove(key K) {
	c.lock.Lock()
	defer c.lock.Unlock()
	if element, ok := c.items[key]; ok {
		c.removeElement(element)
	}
}

// Len returns the number of entries currently cached.
func (c *LRU[K, V]) Len() int {
	c.lock.Lock()
	defer c.lock.Unlock()
	return c.ll.Len()
}

func (c *LRU[K, V]) removeElement(element *list.Element) {
	c.ll.Remove(element)
	e := element.Value.(*entry[K, V])
	delete(c.items, e.key)
}
