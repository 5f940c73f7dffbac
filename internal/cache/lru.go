// Package cache implements a cost-bounded least-recently-used map with
// pinning. It is the storage behind the evaluation engine's value and hash
// caches.
package cache

import "container/list"

type entry[K comparable, V any] struct {
	key   K
	value V
	cost  int64
	pins  int
}

// LRU maps keys to values, evicting the least recently used unpinned
// entries once the total cost exceeds MaxCost. Pinned entries are never
// evicted, so the total cost may exceed MaxCost while pins are held.
//
// LRU is not safe for concurrent use; callers hold their own lock.
type LRU[K comparable, V any] struct {
	ll      *list.List // front is most recently used
	entries map[K]*list.Element
	cost    int64
	maxCost int64
	onEvict func(K, V)
}

// New returns an empty LRU bounded by maxCost.
func New[K comparable, V any](maxCost int64) *LRU[K, V] {
	return &LRU[K, V]{
		ll:      list.New(),
		entries: make(map[K]*list.Element),
		maxCost: maxCost,
	}
}

// OnEvict sets a function called for every entry dropped to make room.
// Explicit Remove and Clear do not call it.
func (c *LRU[K, V]) OnEvict(fn func(K, V)) {
	c.onEvict = fn
}

// Get returns the value for key and marks it most recently used.
func (c *LRU[K, V]) Get(key K) (V, bool) {
	e, ok := c.entries[key]
	if !ok {
		var zero V
		return zero, false
	}
	c.ll.MoveToFront(e)
	return e.Value.(*entry[K, V]).value, true
}

// GetPinned is Get followed by Pin on a hit.
func (c *LRU[K, V]) GetPinned(key K) (V, bool) {
	v, ok := c.Get(key)
	if ok {
		c.entries[key].Value.(*entry[K, V]).pins++
	}
	return v, ok
}

// Peek returns the value for key without touching its recency.
func (c *LRU[K, V]) Peek(key K) (V, bool) {
	e, ok := c.entries[key]
	if !ok {
		var zero V
		return zero, false
	}
	return e.Value.(*entry[K, V]).value, true
}

// Contains reports whether key is present.
func (c *LRU[K, V]) Contains(key K) bool {
	_, ok := c.entries[key]
	return ok
}

// Add stores value under key with the given cost, replacing any previous
// entry and keeping its pins. It returns false, storing nothing, when cost
// alone exceeds MaxCost.
func (c *LRU[K, V]) Add(key K, value V, cost int64) bool {
	return c.add(key, value, cost, 0)
}

// AddPinned is Add with the new entry pinned once. It always stores.
func (c *LRU[K, V]) AddPinned(key K, value V, cost int64) {
	c.add(key, value, cost, 1)
}

func (c *LRU[K, V]) add(key K, value V, cost int64, pins int) bool {
	if cost < 0 {
		cost = 0
	}
	if e, ok := c.entries[key]; ok {
		ent := e.Value.(*entry[K, V])
		pins += ent.pins
		c.cost -= ent.cost
		if pins == 0 && cost > c.maxCost {
			c.removeElement(e)
			return false
		}
		ent.value, ent.cost, ent.pins = value, cost, pins
		c.cost += cost
		c.ll.MoveToFront(e)
		c.evict()
		return true
	}
	if pins == 0 && cost > c.maxCost {
		return false
	}
	c.entries[key] = c.ll.PushFront(&entry[K, V]{key: key, value: value, cost: cost, pins: pins})
	c.cost += cost
	c.evict()
	return true
}

// Pin protects key from eviction until a matching Unpin.
func (c *LRU[K, V]) Pin(key K) bool {
	e, ok := c.entries[key]
	if ok {
		e.Value.(*entry[K, V]).pins++
	}
	return ok
}

// Unpin releases one pin on key. Entries that became evictable are evicted
// if the cache is over budget.
func (c *LRU[K, V]) Unpin(key K) {
	e, ok := c.entries[key]
	if !ok {
		return
	}
	ent := e.Value.(*entry[K, V])
	if ent.pins > 0 {
		ent.pins--
	}
	if ent.pins == 0 {
		c.evict()
	}
}

// Pinned reports whether key is present and pinned.
func (c *LRU[K, V]) Pinned(key K) bool {
	e, ok := c.entries[key]
	return ok && e.Value.(*entry[K, V]).pins > 0
}

// Remove drops key regardless of pins.
func (c *LRU[K, V]) Remove(key K) bool {
	e, ok := c.entries[key]
	if ok {
		c.removeElement(e)
	}
	return ok
}

// Clear drops every unpinned entry.
func (c *LRU[K, V]) Clear() {
	for e := c.ll.Back(); e != nil; {
		prev := e.Prev()
		if e.Value.(*entry[K, V]).pins == 0 {
			c.removeElement(e)
		}
		e = prev
	}
}

// SetMaxCost changes the budget, evicting immediately if it shrank.
func (c *LRU[K, V]) SetMaxCost(n int64) {
	c.maxCost = n
	c.evict()
}

// MaxCost returns the budget.
func (c *LRU[K, V]) MaxCost() int64 { return c.maxCost }

// Cost returns the total cost of all entries, pinned ones included.
func (c *LRU[K, V]) Cost() int64 { return c.cost }

// Len returns the number of entries.
func (c *LRU[K, V]) Len() int { return c.ll.Len() }

// Keys returns keys from most to least recently used.
func (c *LRU[K, V]) Keys() []K {
	out := make([]K, 0, c.ll.Len())
	for e := c.ll.Front(); e != nil; e = e.Next() {
		out = append(out, e.Value.(*entry[K, V]).key)
	}
	return out
}

func (c *LRU[K, V]) evict() {
	for e := c.ll.Back(); e != nil && c.cost > c.maxCost; {
		prev := e.Prev()
		ent := e.Value.(*entry[K, V])
		if ent.pins == 0 {
			c.removeElement(e)
			if c.onEvict != nil {
				c.onEvict(ent.key, ent.value)
			}
		}
		e = prev
	}
}

func (c *LRU[K, V]) removeElement(e *list.Element) {
	c.ll.Remove(e)
	ent := e.Value.(*entry[K, V])
	delete(c.entries, ent.key)
	c.cost -= ent.cost
}
