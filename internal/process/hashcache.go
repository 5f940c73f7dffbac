package process

import (
	"fmt"
	"sync"

	"github.com/vk/plugflow/internal/cache"
	"github.com/vk/plugflow/internal/evalerr"
	"github.com/vk/plugflow/internal/graph"
	"github.com/vk/plugflow/internal/hash"
	"github.com/vk/plugflow/internal/nodeid"
	"github.com/vk/plugflow/internal/task"
)

// DefaultHashCacheSize bounds the hash cache unless WithHashCacheSize is
// used.
const DefaultHashCacheSize = 128000

// hashKey identifies a hash result. The dirty count changes whenever
// anything upstream of the plug changes, so stale entries are never hit.
type hashKey struct {
	graph   *graph.Graph
	plug    nodeid.Handle
	context hash.Hash
	dirty   uint64
}

func (k hashKey) String() string {
	return fmt.Sprintf("%p/%s/%s/%d", k.graph, k.plug, k.context, k.dirty)
}

// HashCache remembers plug hashes per context, bounded by entry count.
// TaskCollaboration hashes are also deduplicated while in flight.
type HashCache struct {
	mu       sync.Mutex
	lru      *cache.LRU[hashKey, hash.Hash]
	inflight map[hashKey]*flight
	waits    *waitGraph
}

func newHashCache(size int, waits *waitGraph) *HashCache {
	return &HashCache{
		lru:      cache.New[hashKey, hash.Hash](int64(size)),
		inflight: make(map[hashKey]*flight),
		waits:    waits,
	}
}

// Len returns the number of cached hashes.
func (hc *HashCache) Len() int {
	hc.mu.Lock()
	defer hc.mu.Unlock()
	return hc.lru.Len()
}

// SetSize changes the entry limit.
func (hc *HashCache) SetSize(n int) {
	hc.mu.Lock()
	defer hc.mu.Unlock()
	hc.lru.SetMaxCost(int64(n))
}

// Clear drops every cached hash.
func (hc *HashCache) Clear() {
	hc.mu.Lock()
	defer hc.mu.Unlock()
	hc.lru.Clear()
}

// hashFunc hashes a plug. Subtasks go to arena when it is non-nil, and
// reads made while hashing are attributed to owner.
type hashFunc func(arena *task.Arena, owner *flight) (hash.Hash, error)

func (hc *HashCache) get(pr *process, key hashKey, policy graph.CachePolicy, fn hashFunc) (h hash.Hash, hit bool, err error) {
	if policy == graph.Uncached {
		h, err = fn(nil, pr.flight)
		return h, false, err
	}

	hc.mu.Lock()
	if h, ok := hc.lru.Get(key); ok {
		hc.mu.Unlock()
		return h, true, nil
	}
	if policy != graph.TaskCollaboration {
		hc.mu.Unlock()
		h, err = fn(nil, pr.flight)
		hc.add(key, h, err)
		return h, false, err
	}

	if f, ok := hc.inflight[key]; ok {
		if !hc.waits.tryLink(pr.flight, f) {
			hc.mu.Unlock()
			pr.logger().Debug("Hashing redundantly to avoid waiting on own flight.", "key", key)
			h, err = fn(task.NewArena(0), pr.flight)
			hc.add(key, h, err)
			return h, false, err
		}
		hc.mu.Unlock()

		err := await(pr.ctx, f)
		hc.waits.unlink(pr.flight, f)
		if err != nil {
			return hash.Hash{}, false, err
		}
		return f.h, true, f.err
	}

	f := newFlight(true)
	hc.inflight[key] = f
	hc.waits.link(pr.flight, f)
	hc.mu.Unlock()

	h, err = hc.produce(pr, key, f, fn)
	return h, false, err
}

func (hc *HashCache) add(key hashKey, h hash.Hash, err error) {
	if err != nil {
		return
	}
	hc.mu.Lock()
	defer hc.mu.Unlock()
	hc.lru.Add(key, h, 1)
}

// produce hashes in f's arena and publishes the outcome, releasing waiters
// with an error if fn panics.
func (hc *HashCache) produce(pr *process, key hashKey, f *flight, fn hashFunc) (hash.Hash, error) {
	finished := false
	defer func() {
		if finished {
			return
		}
		r := recover()
		hc.finish(pr, key, f, hash.Hash{}, evalerr.New(evalerr.CodeCompute, "hash", "panicked: %v", r))
		panic(r)
	}()

	h, err := fn(f.arena, f)
	finished = true
	hc.finish(pr, key, f, h, err)
	return h, err
}

func (hc *HashCache) finish(pr *process, key hashKey, f *flight, h hash.Hash, err error) {
	hc.mu.Lock()
	defer hc.mu.Unlock()
	if err == nil {
		hc.lru.Add(key, h, 1)
	}
	delete(hc.inflight, key)
	hc.waits.unlink(pr.flight, f)
	f.h, f.err = h, err
	close(f.done)
}
