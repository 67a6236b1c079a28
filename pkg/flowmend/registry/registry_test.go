package registry_test

import (
	"sync"
	"testing"

	"github.com/randalmurphal/flowmend/pkg/flowmend/registry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegisterAndGet(t *testing.T) {
	r := registry.New[string, int]()
	r.Register("a", 1)
	r.Register("b", 2)

	v, ok := r.Get("a")
	require.True(t, ok)
	assert.Equal(t, 1, v)

	_, ok = r.Get("missing")
	assert.False(t, ok)
}

func TestRegister_Overwrites(t *testing.T) {
	r := registry.New[string, string]()
	r.Register("k", "first")
	r.Register("k", "second")

	v, _ := r.Get("k")
	assert.Equal(t, "second", v)
	assert.Equal(t, 1, r.Len())
}

func TestDelete(t *testing.T) {
	r := registry.New[string, int]()
	r.Register("a", 1)
	r.Delete("a")
	r.Delete("never-existed")

	assert.False(t, r.Has("a"))
	assert.Equal(t, 0, r.Len())
}

func TestKeys(t *testing.T) {
	r := registry.New[string, int]()
	r.Register("a", 1)
	r.Register("b", 2)
	r.Register("c", 3)

	assert.ElementsMatch(t, []string{"a", "b", "c"}, r.Keys())
}

func TestRange_StopsEarly(t *testing.T) {
	r := registry.New[int, int]()
	for i := 0; i < 10; i++ {
		r.Register(i, i)
	}

	seen := 0
	r.Range(func(k, v int) bool {
		seen++
		return seen < 3
	})
	assert.Equal(t, 3, seen)
}

func TestRange_SafeToMutate(t *testing.T) {
	r := registry.New[string, int]()
	r.Register("a", 1)
	r.Register("b", 2)

	r.Range(func(k string, v int) bool {
		r.Delete(k)
		r.Register(k+"-copy", v)
		return true
	})

	assert.True(t, r.Has("a-copy"))
	assert.True(t, r.Has("b-copy"))
}

func TestConcurrentAccess(t *testing.T) {
	r := registry.New[int, int]()
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(2)
		go func(i int) {
			defer wg.Done()
			r.Register(i, i*10)
		}(i)
		go func(i int) {
			defer wg.Done()
			r.Get(i)
		}(i)
	}
	wg.Wait()
	assert.Equal(t, 50, r.Len())
}
