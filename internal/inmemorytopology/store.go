package inmemorytopology

import (
	"slices"
	"sync"

	"github.com/vk/plugflow/internal/nodeid"
	"github.com/vk/plugflow/internal/topologystore"
)

// Store implements topologystore.Store using maps guarded by a RWMutex.
type Store struct {
	mu      sync.RWMutex
	inputs  map[nodeid.Handle]nodeid.Handle
	outputs map[nodeid.Handle][]nodeid.Handle // ordered by connection time
}

var _ topologystore.Store = (*Store)(nil)

// New creates an empty store.
func New() *Store {
	return &Store{
		inputs:  make(map[nodeid.Handle]nodeid.Handle),
		outputs: make(map[nodeid.Handle][]nodeid.Handle),
	}
}

// SetInput connects dst to src.
func (s *Store) SetInput(dst, src nodeid.Handle) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if prev, ok := s.inputs[dst]; ok {
		if prev == src {
			return
		}
		s.unlinkLocked(prev, dst)
	}
	s.inputs[dst] = src
	s.outputs[src] = append(s.outputs[src], dst)
}

// ClearInput disconnects dst.
func (s *Store) ClearInput(dst nodeid.Handle) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if prev, ok := s.inputs[dst]; ok {
		s.unlinkLocked(prev, dst)
		delete(s.inputs, dst)
	}
}

func (s *Store) unlinkLocked(src, dst nodeid.Handle) {
	outs := slices.DeleteFunc(s.outputs[src], func(h nodeid.Handle) bool { return h == dst })
	if len(outs) == 0 {
		delete(s.outputs, src)
		return
	}
	s.outputs[src] = outs
}

// Input returns the input of dst.
func (s *Store) Input(dst nodeid.Handle) (nodeid.Handle, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	src, ok := s.inputs[dst]
	return src, ok
}

// Outputs returns a snapshot of the plugs fed by src.
func (s *Store) Outputs(src nodeid.Handle) []nodeid.Handle {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return slices.Clone(s.outputs[src])
}

// Remove deletes all edges touching h.
func (s *Store) Remove(h nodeid.Handle) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if src, ok := s.inputs[h]; ok {
		s.unlinkLocked(src, h)
		delete(s.inputs, h)
	}
	for _, dst := range s.outputs[h] {
		delete(s.inputs, dst)
	}
	delete(s.outputs, h)
}

// Len returns the number of connections.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return len(s.inputs)
}
