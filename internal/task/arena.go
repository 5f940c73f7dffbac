package task

import (
	"context"
	"runtime"
	"sync"

	"golang.org/x/sync/semaphore"
)

// Arena is a job queue with a bounded worker pool.
type Arena struct {
	mu     sync.Mutex
	queue  []func()
	notify chan struct{} // closed and replaced on every push
	sem    *semaphore.Weighted
}

// NewArena returns an arena served by at most workers goroutines. A
// non-positive count means GOMAXPROCS.
func NewArena(workers int) *Arena {
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	return &Arena{
		notify: make(chan struct{}),
		sem:    semaphore.NewWeighted(int64(workers)),
	}
}

func (a *Arena) push(fn func()) {
	a.mu.Lock()
	a.queue = append(a.queue, fn)
	close(a.notify)
	a.notify = make(chan struct{})
	a.mu.Unlock()

	if a.sem.TryAcquire(1) {
		go a.work()
	}
}

// next pops a job or, when the queue is empty, returns a channel closed by
// the next push.
func (a *Arena) next() (func(), <-chan struct{}) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if len(a.queue) == 0 {
		return nil, a.notify
	}
	fn := a.queue[0]
	a.queue[0] = nil
	a.queue = a.queue[1:]
	return fn, nil
}

func (a *Arena) pending() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.queue) > 0
}

func (a *Arena) work() {
	for {
		for fn, _ := a.next(); fn != nil; fn, _ = a.next() {
			fn()
		}
		a.sem.Release(1)
		// A push may have lost the race for the slot we just gave back.
		if !a.pending() || !a.sem.TryAcquire(1) {
			return
		}
	}
}

// Help runs jobs from this arena on the calling goroutine until done is
// closed. It returns ctx.Err() if ctx ends first.
func (a *Arena) Help(ctx context.Context, done <-chan struct{}) error {
	for {
		select {
		case <-done:
			return nil
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		fn, notify := a.next()
		if fn != nil {
			fn()
			continue
		}
		select {
		case <-done:
			return nil
		case <-ctx.Done():
			return ctx.Err()
		case <-notify:
		}
	}
}

type arenaKey struct{}

// WithArena returns a context carrying a.
func WithArena(ctx context.Context, a *Arena) context.Context {
	return context.WithValue(ctx, arenaKey{}, a)
}

// ArenaFrom returns the arena carried by ctx, or nil.
func ArenaFrom(ctx context.Context) *Arena {
	a, _ := ctx.Value(arenaKey{}).(*Arena)
	return a
}
