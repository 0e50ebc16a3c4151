package collection

import (
	"sync"
	"time"
)

const (
	defaultCleanDuration = time.Minute * 5
)

// ExpirationMap is a ConcurrentMap whose entries may carry a deadline.
// Expired entries read as absent and are purged by a background cleaner.
type ExpirationMap[K comparable, V any] interface {
	ConcurrentMap[K, V]
	// SetExpired stores val for duration. A zero duration stores nothing.
	SetExpired(key K, val V, duration time.Duration)
	// Destroy stops the background cleaner.
	Destroy()
}

type entry[V any] struct {
	val      V
	deadline time.Time
}

type expirationMap[K comparable, V any] struct {
	entries       ConcurrentMap[K, entry[V]]
	cleanDuration time.Duration
	now           func() time.Time
	stop          chan struct{}
	stopOnce      sync.Once
}

func NewExpirationMap[K comparable, V any](opts ...ExpirationMapOption[K, V]) ExpirationMap[K, V] {
	m := &expirationMap[K, V]{
		entries: NewConcurrentMap[K, entry[V]](),
		now:     time.Now,
		stop:    make(chan struct{}),
	}
	for _, opt := range opts {
		opt(m)
	}

	if m.cleanDuration == 0 {
		m.cleanDuration = defaultCleanDuration
	}

	go m.cleaner()

	return m
}

type ExpirationMapOption[K comparable, V any] func(c *expirationMap[K, V])

func WithCleanDuration[K comparable, V any](duration time.Duration) ExpirationMapOption[K, V] {
	if duration <= 0 {
		duration = defaultCleanDuration
	}
	return func(c *expirationMap[K, V]) {
		c.cleanDuration = duration
	}
}

// WithClock replaces time.Now, mainly for tests.
func WithClock[K comparable, V any](now func() time.Time) ExpirationMapOption[K, V] {
	return func(c *expirationMap[K, V]) {
		c.now = now
	}
}

// Set stores v without expiry.
func (e *expirationMap[K, V]) Set(key K, v V) {
	e.entries.Set(key, entry[V]{val: v})
}

func (e *expirationMap[K, V]) SetExpired(key K, val V, duration time.Duration) {
	if duration < 0 {
		panic("negative duration")
	}
	if duration == 0 {
		return
	}

	e.entries.Set(key, entry[V]{val: val, deadline: e.now().Add(duration)})
}

func (e *expirationMap[K, V]) Get(key K) (V, bool) {
	en, ok := e.entries.Get(key)
	if !ok {
		return *new(V), false
	}

	if e.expired(en) {
		e.purge(key)
		return *new(V), false
	}

	return en.val, true
}

func (e *expirationMap[K, V]) Delete(key K) {
	e.entries.Delete(key)
}

func (e *expirationMap[K, V]) DeleteIf(key K, pred func(V) bool) bool {
	return e.entries.DeleteIf(key, func(en entry[V]) bool {
		return !e.expired(en) && pred(en.val)
	})
}

// purge drops key if it is still expired; a concurrent Set wins.
func (e *expirationMap[K, V]) purge(key K) {
	e.entries.DeleteIf(key, e.expired)
}

func (e *expirationMap[K, V]) Has(key K) bool {
	_, ok := e.Get(key)
	return ok
}

func (e *expirationMap[K, V]) Keys() []K {
	keys := e.entries.Keys()
	live := keys[:0]
	for _, k := range keys {
		if e.Has(k) {
			live = append(live, k)
		}
	}
	return live
}

func (e *expirationMap[K, V]) Len() int {
	return len(e.Keys())
}

func (e *expirationMap[K, V]) Destroy() {
	e.stopOnce.Do(func() {
		close(e.stop)
	})
}

func (e *expirationMap[K, V]) expired(en entry[V]) bool {
	return !en.deadline.IsZero() && !e.now().Before(en.deadline)
}

func (e *expirationMap[K, V]) cleaner() {
	ticker := time.NewTicker(e.cleanDuration)
	defer ticker.Stop()
	for {
		select {
		case <-e.stop:
			return
		case <-ticker.C:
			for _, key := range e.entries.Keys() {
				e.purge(key)
			}
		}
	}
}
