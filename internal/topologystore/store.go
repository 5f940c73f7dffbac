// Package topologystore defines the interface for storing the connection
// topology of a plug graph: which plug takes its input from which.
//
// # Why Topology Store Exists
//
// The topology store separates the **connection structure** of the graph
// (input edges between plugs) from the **per-plug mutable state** (static
// values and dirty counters) managed by nodestore.
//
// This separation provides several architectural benefits:
//   - **Clarity:** Connection queries made while resolving sources never mix with value writes
//   - **Thread-Safety:** Read-heavy evaluation can use RLocks without contention from value edits
//   - **Testability:** Connection bookkeeping can be validated without any node logic
//
// # Weak References
//
// Edges are recorded between nodeid.Handle values, never between plug
// pointers. Removing a plug removes every edge that mentions it, and a stale
// handle held elsewhere simply fails to resolve in the graph's arena.
//
// # Lifecycle and Usage
//
// The store is created once per graph. It is written only by the graph's
// single edit actor (SetInput, ClearInput, Remove) and read concurrently by
// any number of evaluations (Input, Outputs).
package topologystore

import "github.com/vk/plugflow/internal/nodeid"

// Store records input connections between plugs.
//
// # Thread-Safety Requirements
//
// Implementations MUST be safe for concurrent reads alongside a single
// writer. See internal/inmemorytopology for the reference implementation.
type Store interface {
	// SetInput makes src the input of dst, replacing any previous input.
	// A plug has at most one input.
	SetInput(dst, src nodeid.Handle)

	// ClearInput disconnects dst. It is a no-op for an unconnected plug.
	ClearInput(dst nodeid.Handle)

	// Input returns the input of dst, if connected.
	Input(dst nodeid.Handle) (nodeid.Handle, bool)

	// Outputs returns the plugs taking their input from src, in the order
	// the connections were made. The returned slice is a snapshot.
	Outputs(src nodeid.Handle) []nodeid.Handle

	// Remove deletes every edge into or out of h.
	Remove(h nodeid.Handle)

	// Len returns the number of connections.
	Len() int
}
