package registry

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRegistry(t *testing.T) {
	r := New[int]()

	_, ok := r.Get("a")
	assert.False(t, ok)

	r.Add("b", 2)
	r.Add("a", 1)
	v, ok := r.Get("a")
	assert.True(t, ok)
	assert.Equal(t, 1, v)

	v, loaded := r.GetOrAdd("a", func() int { return 10 })
	assert.True(t, loaded)
	assert.Equal(t, 1, v)

	v, loaded = r.GetOrAdd("c", func() int { return 3 })
	assert.False(t, loaded)
	assert.Equal(t, 3, v)

	assert.Equal(t, []string{"a", "b", "c"}, r.Names())

	r.Del("b")
	assert.Equal(t, []string{"a", "c"}, r.Names())
}

func TestRegistry_Concurrent(t *testing.T) {
	r := New[int]()
	var wg sync.WaitGroup
	for i := range 50 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			r.GetOrAdd("shared", func() int { return i })
		}()
	}
	wg.Wait()

	assert.Equal(t, []string{"shared"}, r.Names())
}
