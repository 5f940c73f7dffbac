package inmemorystore

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vk/plugflow/internal/nodeid"
)

func TestValues(t *testing.T) {
	s := New()
	h := nodeid.Handle{Index: 1, Generation: 1}

	_, ok := s.Value(h)
	assert.False(t, ok)

	s.SetValue(h, int64(5))
	v, ok := s.Value(h)
	require.True(t, ok)
	assert.Equal(t, int64(5), v)

	s.SetValue(h, int64(7))
	v, _ = s.Value(h)
	assert.Equal(t, int64(7), v)
}

func TestDirtyCounters(t *testing.T) {
	s := New()
	h := nodeid.Handle{Index: 1, Generation: 1}

	assert.Equal(t, uint64(0), s.DirtyCount(h))
	assert.Equal(t, uint64(1), s.IncrementDirty(h))
	assert.Equal(t, uint64(2), s.IncrementDirty(h))
	assert.Equal(t, uint64(2), s.DirtyCount(h))

	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.IncrementDirty(h)
		}()
	}
	wg.Wait()
	assert.Equal(t, uint64(102), s.DirtyCount(h))
}

func TestDelete(t *testing.T) {
	s := New()
	h := nodeid.Handle{Index: 4, Generation: 2}
	s.SetValue(h, "x")
	s.IncrementDirty(h)

	s.Delete(h)

	_, ok := s.Value(h)
	assert.False(t, ok)
	assert.Equal(t, uint64(0), s.DirtyCount(h))
}
