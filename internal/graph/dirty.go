package graph

import (
	"container/heap"
	"sync"
)

// DirtyScope batches dirty propagation until the returned function is
// called. Scopes nest; the outermost one delivers a single deduplicated pass
// covering every edit made inside it.
func (g *Graph) DirtyScope() (done func()) {
	g.dirtyMu.Lock()
	g.scopeDepth++
	g.dirtyMu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			g.dirtyMu.Lock()
			g.scopeDepth--
			if g.scopeDepth > 0 || g.emitting || len(g.pending) == 0 {
				g.dirtyMu.Unlock()
				return
			}
			g.emitting = true
			g.dirtyMu.Unlock()
			g.flush()
		})
	}
}

// propagate queues roots and, unless a scope is open or a pass is already
// being delivered, runs propagation passes until nothing is pending.
func (g *Graph) propagate(roots []*Plug) {
	if len(roots) == 0 {
		return
	}
	g.dirtyMu.Lock()
	g.pending = append(g.pending, roots...)
	if g.scopeDepth > 0 || g.emitting {
		g.dirtyMu.Unlock()
		return
	}
	g.emitting = true
	g.dirtyMu.Unlock()
	g.flush()
}

func (g *Graph) flush() {
	for {
		g.dirtyMu.Lock()
		roots := g.pending
		g.pending = nil
		if len(roots) == 0 {
			g.emitting = false
			g.dirtyMu.Unlock()
			return
		}
		g.dirtyMu.Unlock()

		dirtied := g.collect(roots)
		for _, p := range dirtied {
			g.state.IncrementDirty(p.handle)
		}
		for _, p := range dirtied {
			g.notifyDirtied(p)
		}
	}
}

type dirtyEntry struct {
	plug    *Plug
	index   int
	by      map[*Plug]struct{}
	dirties []*Plug
}

// collect returns the full affected set of roots, each plug once, ordered so
// that a plug comes after every plug that dirtied it. Ties keep discovery
// order. A cycle is logged and its members are appended in discovery order.
func (g *Graph) collect(roots []*Plug) []*Plug {
	live := roots[:0:0]
	for _, r := range roots {
		if g.owns(r) {
			live = append(live, r)
		}
	}

	entries := make(map[*Plug]*dirtyEntry)
	var order []*dirtyEntry
	g.traverse(live, func(p, by *Plug) bool {
		e, ok := entries[p]
		if !ok {
			e = &dirtyEntry{plug: p, index: len(order), by: make(map[*Plug]struct{})}
			entries[p] = e
			order = append(order, e)
		}
		if by != nil && by != p {
			if _, dup := e.by[by]; !dup {
				e.by[by] = struct{}{}
				entries[by].dirties = append(entries[by].dirties, p)
			}
		}
		return true
	})

	indegree := make([]int, len(order))
	ready := &indexHeap{}
	for i, e := range order {
		indegree[i] = len(e.by)
		if indegree[i] == 0 {
			heap.Push(ready, i)
		}
	}

	out := make([]*Plug, 0, len(order))
	emitted := make([]bool, len(order))
	for ready.Len() > 0 {
		i := heap.Pop(ready).(int)
		emitted[i] = true
		out = append(out, order[i].plug)
		for _, d := range order[i].dirties {
			j := entries[d].index
			indegree[j]--
			if indegree[j] == 0 {
				heap.Push(ready, j)
			}
		}
	}

	if len(out) < len(order) {
		var cycle []string
		for i, e := range order {
			if !emitted[i] {
				out = append(out, e.plug)
				cycle = append(cycle, e.plug.FullName())
			}
		}
		g.logger.Error("Dependency cycle detected during dirty propagation.", "plugs", cycle)
	}
	return out
}

type indexHeap []int

func (h indexHeap) Len() int           { return len(h) }
func (h indexHeap) Less(i, j int) bool { return h[i] < h[j] }
func (h indexHeap) Swap(i, j int)      { h[i], h[j] = h[j], h[i] }
func (h *indexHeap) Push(x any)        { *h = append(*h, x.(int)) }
func (h *indexHeap) Pop() any {
	old := *h
	n := len(old)
	x := old[n-1]
	*h = old[:n-1]
	return x
}
