package collection

import "sync"

// ConcurrentMap is a map safe for use by multiple goroutines.
type ConcurrentMap[K comparable, V any] interface {
	Set(key K, v V)
	Get(key K) (V, bool)
	Delete(key K)
	// DeleteIf removes key only if pred approves its current value, as one
	// atomic step.
	DeleteIf(key K, pred func(V) bool) bool
	Has(key K) bool
	Keys() []K
	Len() int
}

type concurrentMap[K comparable, V any] struct {
	mu sync.RWMutex
	m  map[K]V
}

func NewConcurrentMap[K comparable, V any]() ConcurrentMap[K, V] {
	return &concurrentMap[K, V]{m: make(map[K]V)}
}

func (c *concurrentMap[K, V]) Set(key K, v V) {
	c.mu.Lock()
	c.m[key] = v
	c.mu.Unlock()
}

func (c *concurrentMap[K, V]) Get(key K) (V, bool) {
	c.mu.RLock()
	v, ok := c.m[key]
	c.mu.RUnlock()
	return v, ok
}

func (c *concurrentMap[K, V]) Delete(key K) {
	c.mu.Lock()
	delete(c.m, key)
	c.mu.Unlock()
}

func (c *concurrentMap[K, V]) DeleteIf(key K, pred func(V) bool) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.m[key]
	if !ok || !pred(v) {
		return false
	}
	delete(c.m, key)
	return true
}

func (c *concurrentMap[K, V]) Has(key K) bool {
	_, ok := c.Get(key)
	return ok
}

func (c *concurrentMap[K, V]) Keys() []K {
	c.mu.RLock()
	defer c.mu.RUnlock()
	keys := make([]K, 0, len(c.m))
	for k := range c.m {
		keys = append(keys, k)
	}
	return keys
}

func (c *concurrentMap[K, V]) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.m)
}
