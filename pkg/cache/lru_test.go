package cache_test

import (
	"strconv"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/dmitrymomot/formguard/pkg/cache"
)

func TestLRU(t *testing.T) {
	t.Parallel()

	t.Run("evicts least recently used", func(t *testing.T) {
		t.Parallel()
		c := cache.NewLRU[string, int](2)
		c.Put("a", 1)
		c.Put("b", 2)
		_, _ = c.Get("a")
		c.Put("c", 3)

		_, ok := c.Get("b")
		assert.False(t, ok)
		v, ok := c.Get("a")
		assert.True(t, ok)
		assert.Equal(t, 1, v)
		assert.Equal(t, 2, c.Len())
	})

	t.Run("put replaces", func(t *testing.T) {
		t.Parallel()
		c := cache.NewLRU[string, int](2)
		c.Put("a", 1)
		c.Put("a", 5)
		v, _ := c.Get("a")
		assert.Equal(t, 5, v)
		assert.Equal(t, 1, c.Len())
	})

	t.Run("clear", func(t *testing.T) {
		t.Parallel()
		c := cache.NewLRU[int, int](4)
		c.Put(1, 1)
		c.Clear()
		assert.Zero(t, c.Len())
		_, ok := c.Get(1)
		assert.False(t, ok)
	})

	t.Run("concurrent use stays bounded", func(t *testing.T) {
		t.Parallel()
		c := cache.NewLRU[string, int](8)
		var wg sync.WaitGroup
		for g := range 4 {
			wg.Add(1)
			go func() {
				defer wg.Done()
				for i := range 100 {
					c.Put(strconv.Itoa(g*100+i), i)
					c.Get(strconv.Itoa(i))
				}
			}()
		}
		wg.Wait()
		assert.Equal(t, 8, c.Len())
	})

	assert.Panics(t, func() { cache.NewLRU[string, int](0) })
}
