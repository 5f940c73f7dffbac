package process

import (
	"context"
	"sync"

	"github.com/vk/plugflow/internal/cache"
	"github.com/vk/plugflow/internal/evalerr"
	"github.com/vk/plugflow/internal/graph"
	"github.com/vk/plugflow/internal/hash"
	"github.com/vk/plugflow/internal/task"
	"github.com/vk/plugflow/internal/value"
)

// DefaultMemoryLimit bounds the value cache unless WithMemoryLimit is used.
const DefaultMemoryLimit int64 = 1 << 30

// flight is a compute in progress. Its result fields are written once,
// before done is closed.
type flight struct {
	key           hash.Hash
	done          chan struct{}
	arena         *task.Arena
	collaborative bool

	// waitsOn holds the flights this compute is blocked on, either waiting
	// or producing them inline. Guarded by waitGraph.mu.
	waitsOn map[*flight]int

	val value.Value
	h   hash.Hash
	err error
}

func newFlight(collaborative bool) *flight {
	return &flight{
		done:          make(chan struct{}),
		arena:         task.NewArena(0),
		collaborative: collaborative,
		waitsOn:       make(map[*flight]int),
	}
}

// ValueCache stores computed values keyed by hash, bounded by their
// estimated memory cost.
type ValueCache struct {
	mu       sync.Mutex
	lru      *cache.LRU[hash.Hash, value.Value]
	inflight map[hash.Hash]*flight
	waits    *waitGraph
}

func newValueCache(limit int64, waits *waitGraph) *ValueCache {
	return &ValueCache{
		lru:      cache.New[hash.Hash, value.Value](limit),
		inflight: make(map[hash.Hash]*flight),
		waits:    waits,
	}
}

// MemoryLimit returns the cost budget in bytes.
func (vc *ValueCache) MemoryLimit() int64 {
	vc.mu.Lock()
	defer vc.mu.Unlock()
	return vc.lru.MaxCost()
}

// SetMemoryLimit changes the budget, evicting immediately if it shrank.
func (vc *ValueCache) SetMemoryLimit(n int64) {
	vc.mu.Lock()
	defer vc.mu.Unlock()
	vc.lru.SetMaxCost(n)
}

// MemoryUsage returns the estimated bytes held, pinned entries included.
func (vc *ValueCache) MemoryUsage() int64 {
	vc.mu.Lock()
	defer vc.mu.Unlock()
	return vc.lru.Cost()
}

// Len returns the number of cached values.
func (vc *ValueCache) Len() int {
	vc.mu.Lock()
	defer vc.mu.Unlock()
	return vc.lru.Len()
}

// Contains reports whether a value is cached under h.
func (vc *ValueCache) Contains(h hash.Hash) bool {
	vc.mu.Lock()
	defer vc.mu.Unlock()
	return vc.lru.Contains(h)
}

// Clear drops every value not held by a running compute.
func (vc *ValueCache) Clear() {
	vc.mu.Lock()
	defer vc.mu.Unlock()
	vc.lru.Clear()
}

type computeFunc func(arena *task.Arena, f *flight) (value.Value, error)

// get returns the value for key, computing it on a miss. hit reports
// whether the value came from the cache or another goroutine's compute.
func (vc *ValueCache) get(pr *process, key hash.Hash, policy graph.CachePolicy, compute computeFunc) (v value.Value, hit bool, err error) {
	vc.mu.Lock()
	if v, ok := vc.lru.Get(key); ok {
		pr.pins.pin(vc.lru, key)
		vc.mu.Unlock()
		return v, true, nil
	}

	if f, ok := vc.inflight[key]; ok {
		if !vc.waits.tryLink(pr.flight, f) {
			vc.mu.Unlock()
			pr.logger().Debug("Computing redundantly to avoid waiting on own flight.", "hash", key)
			v, err := compute(task.NewArena(0), nil)
			if err == nil {
				vc.mu.Lock()
				if !vc.lru.Contains(key) {
					vc.store(pr, key, v)
				}
				vc.mu.Unlock()
			}
			return v, false, err
		}
		vc.mu.Unlock()

		v, err := vc.wait(pr.ctx, f)
		vc.waits.unlink(pr.flight, f)

		vc.mu.Lock()
		if err == nil {
			pr.pins.pin(vc.lru, key)
		}
		vc.mu.Unlock()
		return v, true, err
	}

	f := newFlight(policy == graph.TaskCollaboration)
	f.key = key
	vc.inflight[key] = f
	vc.waits.link(pr.flight, f)
	vc.mu.Unlock()

	v, err = vc.produce(pr, f, compute)
	return v, false, err
}

// produce runs compute for f and publishes the outcome. A panicking compute
// releases its waiters with an error before the panic continues.
func (vc *ValueCache) produce(pr *process, f *flight, compute computeFunc) (value.Value, error) {
	finished := false
	defer func() {
		if finished {
			return
		}
		r := recover()
		vc.finish(pr, f, nil, evalerr.New(evalerr.CodeCompute, "compute", "panicked: %v", r))
		panic(r)
	}()

	v, err := compute(f.arena, f)
	finished = true
	vc.finish(pr, f, v, err)
	return v, err
}

func (vc *ValueCache) finish(pr *process, f *flight, v value.Value, err error) {
	vc.mu.Lock()
	defer vc.mu.Unlock()
	if err == nil {
		vc.store(pr, f.key, v)
	}
	delete(vc.inflight, f.key)
	vc.waits.unlink(pr.flight, f)
	f.val, f.err = v, err
	close(f.done)
}

// store adds v, pinned when the reader is itself a running compute.
// Requires vc.mu.
func (vc *ValueCache) store(pr *process, key hash.Hash, v value.Value) {
	cost := int64(value.Cost(v))
	if pr.pins == nil {
		vc.lru.Add(key, v, cost)
		return
	}
	vc.lru.AddPinned(key, v, cost)
	pr.pins.add(key)
}

func (vc *ValueCache) wait(ctx context.Context, f *flight) (value.Value, error) {
	if err := await(ctx, f); err != nil {
		return nil, err
	}
	return f.val, f.err
}

// await blocks until f finishes, running f's queued subtasks meanwhile when
// f is collaborative.
func await(ctx context.Context, f *flight) error {
	if f.collaborative {
		if err := f.arena.Help(ctx, f.done); err != nil {
			return evalerr.Cancelled(context.Cause(ctx))
		}
		return nil
	}
	select {
	case <-f.done:
		return nil
	case <-ctx.Done():
		return evalerr.Cancelled(context.Cause(ctx))
	}
}

func (vc *ValueCache) unpin(p *pinSet) {
	if p == nil {
		return
	}
	keys := p.take()
	if len(keys) == 0 {
		return
	}
	vc.mu.Lock()
	defer vc.mu.Unlock()
	for _, k := range keys {
		vc.lru.Unpin(k)
	}
}

// pinSet records the cache entries pinned on behalf of one compute.
type pinSet struct {
	mu   sync.Mutex
	keys []hash.Hash
}

// pin pins key in lru and records it. Requires the owning cache's lock.
func (p *pinSet) pin(lru *cache.LRU[hash.Hash, value.Value], key hash.Hash) {
	if p == nil {
		return
	}
	if lru.Pin(key) {
		p.add(key)
	}
}

func (p *pinSet) add(key hash.Hash) {
	p.mu.Lock()
	p.keys = append(p.keys, key)
	p.mu.Unlock()
}

func (p *pinSet) take() []hash.Hash {
	p.mu.Lock()
	defer p.mu.Unlock()
	keys := p.keys
	p.keys = nil
	return keys
}
