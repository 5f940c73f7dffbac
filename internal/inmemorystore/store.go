package inmemorystore

import (
	"sync"
	"sync/atomic"

	"github.com/vk/plugflow/internal/nodeid"
	"github.com/vk/plugflow/internal/nodestore"
	"github.com/vk/plugflow/internal/value"
)

// Store implements nodestore.Store on top of sync.Map, which suits the
// mostly-read access pattern of evaluation.
type Store struct {
	values sync.Map // nodeid.Handle -> value.Value
	dirty  sync.Map // nodeid.Handle -> *atomic.Uint64
}

var _ nodestore.Store = (*Store)(nil)

// New creates an empty store.
func New() *Store {
	return &Store{}
}

// SetValue stores the static value of a plug.
func (s *Store) SetValue(h nodeid.Handle, v value.Value) {
	s.values.Store(h, v)
}

// Value loads the static value of a plug.
func (s *Store) Value(h nodeid.Handle) (value.Value, bool) {
	return s.values.Load(h)
}

func (s *Store) counter(h nodeid.Handle) *atomic.Uint64 {
	if c, ok := s.dirty.Load(h); ok {
		return c.(*atomic.Uint64)
	}
	c, _ := s.dirty.LoadOrStore(h, new(atomic.Uint64))
	return c.(*atomic.Uint64)
}

// IncrementDirty bumps the dirty counter of a plug.
func (s *Store) IncrementDirty(h nodeid.Handle) uint64 {
	return s.counter(h).Add(1)
}

// DirtyCount returns the dirty counter of a plug.
func (s *Store) DirtyCount(h nodeid.Handle) uint64 {
	if c, ok := s.dirty.Load(h); ok {
		return c.(*atomic.Uint64).Load()
	}
	return 0
}

// Delete removes all state for a plug.
func (s *Store) Delete(h nodeid.Handle) {
	s.values.Delete(h)
	s.dirty.Delete(h)
}
