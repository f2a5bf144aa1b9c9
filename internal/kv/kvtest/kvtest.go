// Package kvtest contains a conformance suite for kv.Store implementations.
package kvtest

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pomerium/teamdash/internal/kv"
)

// Run exercises the kv.Store contract against stores returned by newStore.
// newStore must return an empty store; Run closes it.
func Run(t *testing.T, newStore func(t *testing.T) kv.Store) {
	t.Helper()

	t.Run("missing keys", func(t *testing.T) {
		s := newStore(t)
		defer s.Close()

		got, err := s.Get(t.Context(), "a", "b")
		require.NoError(t, err)
		assert.Empty(t, got)
	})

	t.Run("set and get", func(t *testing.T) {
		s := newStore(t)
		defer s.Close()

		require.NoError(t, s.Apply(t.Context(), kv.NewBatch().Set("a", []byte("1")).Set("b", []byte("2"))))
		got, err := s.Get(t.Context(), "a", "b", "c")
		require.NoError(t, err)
		assert.Equal(t, map[string][]byte{"a": []byte("1"), "b": []byte("2")}, got)
	})

	t.Run("overwrite", func(t *testing.T) {
		s := newStore(t)
		defer s.Close()

		require.NoError(t, s.Apply(t.Context(), kv.NewBatch().Set("a", []byte("1"))))
		require.NoError(t, s.Apply(t.Context(), kv.NewBatch().Set("a", []byte("2"))))
		got, err := s.Get(t.Context(), "a")
		require.NoError(t, err)
		assert.Equal(t, []byte("2"), got["a"])
	})

	t.Run("delete is idempotent", func(t *testing.T) {
		s := newStore(t)
		defer s.Close()

		require.NoError(t, s.Apply(t.Context(), kv.NewBatch().Set("a", []byte("1"))))
		require.NoError(t, s.Apply(t.Context(), kv.NewBatch().Delete("a", "missing")))
		require.NoError(t, s.Apply(t.Context(), kv.NewBatch().Delete("a")))
		got, err := s.Get(t.Context(), "a")
		require.NoError(t, err)
		assert.Empty(t, got)
	})

	t.Run("operations apply in order", func(t *testing.T) {
		s := newStore(t)
		defer s.Close()

		b := kv.NewBatch().Set("a", []byte("1")).Delete("a").Set("b", []byte("2"))
		require.NoError(t, s.Apply(t.Context(), b))
		got, err := s.Get(t.Context(), "a", "b")
		require.NoError(t, err)
		assert.Equal(t, map[string][]byte{"b": []byte("2")}, got)
	})

	t.Run("returned values are copies", func(t *testing.T) {
		s := newStore(t)
		defer s.Close()

		value := []byte("abc")
		require.NoError(t, s.Apply(t.Context(), kv.NewBatch().Set("a", value)))
		value[0] = 'x'
		got, err := s.Get(t.Context(), "a")
		require.NoError(t, err)
		got["a"][1] = 'y'
		again, err := s.Get(t.Context(), "a")
		require.NoError(t, err)
		assert.Equal(t, "abc", string(again["a"]))
	})

	t.Run("concurrent batches stay paired", func(t *testing.T) {
		s := newStore(t)
		defer s.Close()

		var wg sync.WaitGroup
		for i := range 8 {
			wg.Add(1)
			go func() {
				defer wg.Done()
				v := []byte(fmt.Sprint(i))
				assert.NoError(t, s.Apply(t.Context(), kv.NewBatch().Set("a", v).Set("b", v)))
			}()
		}
		wg.Wait()

		got, err := s.Get(t.Context(), "a", "b")
		require.NoError(t, err)
		assert.Equal(t, got["a"], got["b"])
	})

	t.Run("conditional batch", func(t *testing.T) {
		s := newStore(t)
		defer s.Close()

		require.NoError(t, s.Apply(t.Context(), kv.NewBatch().Set("a", []byte("1"))))

		err := s.Apply(t.Context(), kv.NewBatch().Expect("a", []byte("2")).Set("b", []byte("x")))
		assert.ErrorIs(t, err, kv.ErrConflict)
		err = s.Apply(t.Context(), kv.NewBatch().ExpectAbsent("a").Delete("a"))
		assert.ErrorIs(t, err, kv.ErrConflict)
		err = s.Apply(t.Context(), kv.NewBatch().Expect("missing", nil).Delete("a"))
		assert.ErrorIs(t, err, kv.ErrConflict)
		got, err := s.Get(t.Context(), "a", "b")
		require.NoError(t, err)
		assert.Equal(t, map[string][]byte{"a": []byte("1")}, got, "a failed batch applies nothing")

		require.NoError(t, s.Apply(t.Context(), kv.NewBatch().Expect("a", []byte("1")).ExpectAbsent("b").Delete("a").Set("b", []byte("2"))))
		got, err = s.Get(t.Context(), "a", "b")
		require.NoError(t, err)
		assert.Equal(t, map[string][]byte{"b": []byte("2")}, got)
	})

	t.Run("closed", func(t *testing.T) {
		s := newStore(t)
		require.NoError(t, s.Close())

		_, err := s.Get(t.Context(), "a")
		assert.ErrorIs(t, err, kv.ErrClosed)
		err = s.Apply(t.Context(), kv.NewBatch().Set("a", nil))
		assert.ErrorIs(t, err, kv.ErrClosed)
	})
}
