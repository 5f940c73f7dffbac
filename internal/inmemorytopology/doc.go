// Package inmemorytopology provides a thread-safe, in-memory implementation
// of the topologystore.Store interface, suited to graphs that fit in memory
// and need no persistence.
package inmemorytopology
