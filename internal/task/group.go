package task

import (
	"context"
	"fmt"
	"runtime"
	"sync"

	"golang.org/x/sync/errgroup"
)

// Group is a set of jobs in one arena. The first error or panic cancels the
// group's context. A Group must not be reused after Wait returns.
type Group struct {
	arena  *Arena
	cancel context.CancelCauseFunc

	mu       sync.Mutex
	pending  int
	idle     chan struct{} // closed and replaced when pending drops to zero
	err      error
	panicked any
}

// NewGroup returns a group submitting to a and a context cancelled on the
// group's first failure.
func (a *Arena) NewGroup(ctx context.Context) (*Group, context.Context) {
	ctx, cancel := context.WithCancelCause(ctx)
	return &Group{arena: a, cancel: cancel, idle: make(chan struct{})}, ctx
}

// Go queues fn on the arena.
func (g *Group) Go(fn func() error) {
	g.mu.Lock()
	g.pending++
	g.mu.Unlock()

	g.arena.push(func() {
		defer g.done()
		defer func() {
			if r := recover(); r != nil {
				g.fail(nil, r)
			}
		}()
		if err := fn(); err != nil {
			g.fail(err, nil)
		}
	})
}

func (g *Group) fail(err error, panicked any) {
	g.mu.Lock()
	first := g.err == nil && g.panicked == nil
	if first {
		g.err, g.panicked = err, panicked
	}
	g.mu.Unlock()
	if first {
		if err == nil {
			err = fmt.Errorf("task panicked: %v", panicked)
		}
		g.cancel(err)
	}
}

func (g *Group) done() {
	g.mu.Lock()
	g.pending--
	if g.pending == 0 {
		close(g.idle)
		g.idle = make(chan struct{})
	}
	g.mu.Unlock()
}

// Wait runs queued arena jobs until every job of the group has finished,
// then returns the first error. A panic in a job is re-raised here.
func (g *Group) Wait() error {
	for {
		g.mu.Lock()
		if g.pending == 0 {
			g.mu.Unlock()
			break
		}
		idle := g.idle
		g.mu.Unlock()

		fn, notify := g.arena.next()
		if fn != nil {
			fn()
			continue
		}
		select {
		case <-idle:
		case <-notify:
		}
	}
	g.cancel(nil)

	if g.panicked != nil {
		panic(g.panicked)
	}
	return g.err
}

// Parallel runs fn for i in [0, n). With an arena in ctx the calls are
// jobs of that arena; otherwise they run on at most GOMAXPROCS goroutines.
// It returns the first error.
func Parallel(ctx context.Context, n int, fn func(ctx context.Context, i int) error) error {
	if n <= 0 {
		return nil
	}
	if a := ArenaFrom(ctx); a != nil {
		g, gctx := a.NewGroup(ctx)
		for i := 0; i < n; i++ {
			g.Go(func() error { return fn(gctx, i) })
		}
		return g.Wait()
	}

	eg, egctx := errgroup.WithContext(ctx)
	eg.SetLimit(runtime.GOMAXPROCS(0))
	for i := 0; i < n; i++ {
		eg.Go(func() error { return fn(egctx, i) })
	}
	return eg.Wait()
}
