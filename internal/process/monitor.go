package process

import (
	"time"

	"github.com/vk/plugflow/internal/graph"
	"github.com/vk/plugflow/internal/hash"
)

// Kind is the kind of process being reported.
type Kind uint8

const (
	KindHash Kind = iota
	KindCompute
)

func (k Kind) String() string {
	if k == KindHash {
		return "hash"
	}
	return "compute"
}

// Event describes one hash or compute request served by the engine.
type Event struct {
	Kind        Kind
	Plug        *graph.Plug
	ContextHash hash.Hash
	// Duration is zero for cache hits.
	Duration time.Duration
	CacheHit bool
	Err      error
}

// Monitor receives an Event for every hash and compute request. It is
// called concurrently.
type Monitor interface {
	Observe(Event)
}

// MonitorFunc adapts a function to Monitor.
type MonitorFunc func(Event)

func (f MonitorFunc) Observe(e Event) { f(e) }

type noopMonitor struct{}

func (noopMonitor) Observe(Event) {}
