// Package nodestore defines the interface for the mutable per-plug state of a
// plug graph: static values set by the editor and the dirty counters bumped
// by dirty propagation.
//
// # Why Node Store Exists
//
// It isolates **mutable state** from the **connection structure** managed by
// topologystore, so frequent value edits and dirty-count bumps never contend
// with the read locks taken while evaluations resolve connections.
//
// # Dirty Counters
//
// Every time dirty propagation reaches a plug its counter is incremented.
// The hash cache includes the counter in its key, which is how dirtying a
// plug invalidates previously cached hashes without walking the cache.
package nodestore

import (
	"github.com/vk/plugflow/internal/nodeid"
	"github.com/vk/plugflow/internal/value"
)

// Store holds per-plug mutable state.
//
// Implementations MUST be safe for concurrent use: evaluations read values
// and counters while the edit actor writes them.
type Store interface {
	// SetValue records the static value of a plug.
	SetValue(h nodeid.Handle, v value.Value)

	// Value returns the static value of a plug, if one was set.
	Value(h nodeid.Handle) (value.Value, bool)

	// IncrementDirty bumps the plug's dirty counter and returns the new count.
	IncrementDirty(h nodeid.Handle) uint64

	// DirtyCount returns the plug's dirty counter.
	DirtyCount(h nodeid.Handle) uint64

	// Delete forgets all state for a plug.
	Delete(h nodeid.Handle)
}
