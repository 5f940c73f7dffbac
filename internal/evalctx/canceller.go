package evalctx

import (
	"context"

	"github.com/vk/plugflow/internal/evalerr"
)

// Canceller is a cancellation handle attached to a Context. It plays no part
// in hashing or equality.
type Canceller struct {
	ctx    context.Context
	cancel context.CancelFunc
}

// NewCanceller returns a handle that is cancelled explicitly or when parent
// ends.
func NewCanceller(parent context.Context) *Canceller {
	ctx, cancel := context.WithCancel(parent)
	return &Canceller{ctx: ctx, cancel: cancel}
}

// Cancel requests cancellation. It is safe to call more than once.
func (c *Canceller) Cancel() {
	c.cancel()
}

// Cancelled reports whether cancellation has been requested.
func (c *Canceller) Cancelled() bool {
	return c.ctx.Err() != nil
}

// Done is closed once cancellation has been requested.
func (c *Canceller) Done() <-chan struct{} {
	return c.ctx.Done()
}

// Check returns evalerr.ErrCancelled if either ctx or c's canceller has
// been cancelled. Long running computes call it periodically.
func Check(ctx context.Context, c *Context) error {
	if err := ctx.Err(); err != nil {
		return evalerr.Cancelled(err)
	}
	if c != nil && c.canceller != nil && c.canceller.Cancelled() {
		return evalerr.ErrCancelled
	}
	return nil
}

// Bind returns a Go context that ends when either ctx ends or c's canceller
// fires, so blocking operations observe both.
func Bind(ctx context.Context, c *Context) (context.Context, context.CancelFunc) {
	if c == nil || c.canceller == nil {
		return context.WithCancel(ctx)
	}
	out, cancel := context.WithCancel(ctx)
	stop := context.AfterFunc(c.canceller.ctx, cancel)
	return out, func() {
		stop()
		cancel()
	}
}
