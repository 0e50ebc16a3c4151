package collection

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

func TestExpirationMap(t *testing.T) {
	clock := &fakeClock{now: time.Unix(1000, 0)}
	m := NewExpirationMap[string, int](WithClock[string, int](clock.Now))
	defer m.Destroy()

	m.SetExpired("a", 1, time.Second)
	m.Set("forever", 2)
	m.SetExpired("zero", 3, 0)

	v, ok := m.Get("a")
	assert.True(t, ok)
	assert.Equal(t, 1, v)
	assert.False(t, m.Has("zero"))
	assert.ElementsMatch(t, []string{"a", "forever"}, m.Keys())

	clock.Advance(time.Second)
	assert.False(t, m.Has("a"))
	assert.True(t, m.Has("forever"))
	assert.Equal(t, 1, m.Len())

	m.Delete("forever")
	assert.Equal(t, 0, m.Len())

	assert.Panics(t, func() { m.SetExpired("neg", 1, -time.Second) })
	m.Destroy()
}

func TestExpirationMapCleaner(t *testing.T) {
	m := NewExpirationMap[string, int](WithCleanDuration[string, int](5 * time.Millisecond)).(*expirationMap[string, int])
	defer m.Destroy()

	m.SetExpired("a", 1, time.Millisecond)
	assert.Eventually(t, func() bool {
		return m.entries.Len() == 0
	}, time.Second, 5*time.Millisecond)
}

func TestConcurrentMap(t *testing.T) {
	m := NewConcurrentMap[int, int]()
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			m.Set(i, i*i)
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 50, m.Len())
	v, ok := m.Get(7)
	assert.True(t, ok)
	assert.Equal(t, 49, v)
	assert.True(t, m.Has(0))
	m.Delete(0)
	assert.False(t, m.Has(0))
	assert.Len(t, m.Keys(), 49)
}

func TestDeleteIf(t *testing.T) {
	clock := &fakeClock{now: time.Unix(1000, 0)}
	m := NewExpirationMap[string, int](WithClock[string, int](clock.Now))
	defer m.Destroy()

	m.SetExpired("a", 1, time.Second)
	assert.False(t, m.DeleteIf("a", func(v int) bool { return v == 2 }))
	assert.True(t, m.DeleteIf("a", func(v int) bool { return v == 1 }))
	assert.False(t, m.Has("a"))

	// expired entries are not offered to pred
	m.SetExpired("b", 1, time.Second)
	clock.Advance(2 * time.Second)
	assert.False(t, m.DeleteIf("b", func(int) bool { return true }))
	assert.False(t, m.DeleteIf("missing", func(int) bool { return true }))
}
