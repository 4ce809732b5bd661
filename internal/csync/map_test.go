package csync

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMap(t *testing.T) {
	t.Parallel()

	t.Run("set and get", func(t *testing.T) {
		t.Parallel()
		m := NewMap[string, int]()
		m.Set("a", 1)
		m.Set("b", 2)

		v, ok := m.Get("a")
		require.True(t, ok)
		assert.Equal(t, 1, v)

		_, ok = m.Get("missing")
		assert.False(t, ok)
		assert.Equal(t, 2, m.Len())
	})

	t.Run("del", func(t *testing.T) {
		t.Parallel()
		m := NewMap[string, int]()
		m.Set("a", 1)
		m.Del("a")

		_, ok := m.Get("a")
		assert.False(t, ok)
		assert.Equal(t, 0, m.Len())

		// Deleting a missing key is a no-op.
		m.Del("missing")
	})

	t.Run("from existing map", func(t *testing.T) {
		t.Parallel()
		m := NewMapFrom(map[string]int{"a": 1, "b": 2})
		assert.Equal(t, 2, m.Len())

		v, ok := m.Get("b")
		require.True(t, ok)
		assert.Equal(t, 2, v)
	})

	t.Run("reset", func(t *testing.T) {
		t.Parallel()
		m := NewMapFrom(map[string]int{"a": 1})
		m.Reset()
		assert.Equal(t, 0, m.Len())
	})

	t.Run("seq2 covers all pairs", func(t *testing.T) {
		t.Parallel()
		m := NewMap[string, int]()
		for i := range 10 {
			m.Set(fmt.Sprintf("k%d", i), i)
		}

		seen := make(map[string]int)
		for k, v := range m.Seq2() {
			seen[k] = v
		}
		assert.Len(t, seen, 10)
		assert.Equal(t, 7, seen["k7"])
	})

	t.Run("concurrent access", func(t *testing.T) {
		t.Parallel()
		m := NewMap[int, int]()
		var wg sync.WaitGroup
		for i := range 100 {
			wg.Add(1)
			go func() {
				defer wg.Done()
				m.Set(i, i*2)
				m.Get(i)
				m.Len()
			}()
		}
		wg.Wait()
		assert.Equal(t, 100, m.Len())
	})
}
