package process

import "sync"

// waitGraph is the waits-for relation between the flights of both caches.
// A flight waits on another while it joins it or produces it inline.
type waitGraph struct {
	mu sync.Mutex
}

// link records that from is blocked on to.
func (w *waitGraph) link(from, to *flight) {
	if from == nil {
		return
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	from.waitsOn[to]++
}

// tryLink links from to to unless waiting would close a loop, in which case
// it reports false and records nothing.
func (w *waitGraph) tryLink(from, to *flight) bool {
	if from == nil {
		return true
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.reaches(to, from) {
		return false
	}
	from.waitsOn[to]++
	return true
}

// unlink removes one link added by link or tryLink.
func (w *waitGraph) unlink(from, to *flight) {
	if from == nil {
		return
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	if from.waitsOn[to]--; from.waitsOn[to] <= 0 {
		delete(from.waitsOn, to)
	}
}

// wouldDeadlock reports whether req waiting on f closes a loop.
func (w *waitGraph) wouldDeadlock(req, f *flight) bool {
	if req == nil {
		return false
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.reaches(f, req)
}

// reaches reports whether to is from itself or is reachable from it.
// Requires w.mu.
func (w *waitGraph) reaches(from, to *flight) bool {
	if from == to {
		return true
	}
	seen := map[*flight]bool{from: true}
	queue := []*flight{from}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		for next := range cur.waitsOn {
			if next == to {
				return true
			}
			if !seen[next] {
				seen[next] = true
				queue = append(queue, next)
			}
		}
	}
	return false
}
