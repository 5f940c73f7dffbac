// Package graph implements the plug graph: nodes owning typed plugs, the
// connections between them, and dirty propagation.
//
// # Architecture: The Facade Pattern
//
// Graph is a facade over two specialized stores:
//
//	┌─────────────────────────────────────┐
//	│           Graph Facade              │
//	│  (nodes, plug arena, connection     │
//	│   rules, dirty propagation)         │
//	└──────────┬────────────┬─────────────┘
//	           │            │
//	           ▼            ▼
//	  ┌────────────┐  ┌────────────┐
//	  │  Topology  │  │ Node State │
//	  │   Store    │  │   Store    │
//	  │  (edges)   │  │ (values,   │
//	  │            │  │  dirty #)  │
//	  └────────────┘  └────────────┘
//
// **Topology Store** (topologystore.Store) records which plug feeds which,
// by nodeid.Handle. Handles are weak references into the graph's plug
// arena, so removing a node can never leave a dangling connection.
//
// **Node Store** (nodestore.Store) records static plug values and the dirty
// counters bumped by propagation.
//
// # Nodes and the Evaluation Contract
//
// A Node owns its plugs exclusively and declares, through Affects, which of
// its outputs depend on each input. Affects is structural and context free.
// A ComputeNode additionally implements Hash and Compute, which the
// evaluation engine (internal/process) calls through the Evaluation view.
//
// # Concurrency
//
// Edits (AddNode, RemoveNode, SetInput, SetValue) are expected to come from a
// single edit actor. Evaluations may read the graph concurrently with each
// other and with edits; both stores are safe for that.
//
// # Dirty Propagation
//
// A change to a plug collects the full transitive set of affected plugs
// first (parents, Affects within a node, connections between nodes), visiting
// each plug once. Only then are dirty counters bumped and PlugDirtied sent,
// upstream plugs before the plugs they dirty. Observers may edit the graph
// from inside a notification; such edits are queued and propagated as a new
// pass once the current pass has been delivered.
package graph
