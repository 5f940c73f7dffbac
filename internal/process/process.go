package process

import (
	"context"
	"log/slog"

	"github.com/vk/plugflow/internal/ctxlog"
	"github.com/vk/plugflow/internal/evalctx"
	"github.com/vk/plugflow/internal/graph"
	"github.com/vk/plugflow/internal/hash"
	"github.com/vk/plugflow/internal/task"
	"github.com/vk/plugflow/internal/value"
)

// process is the graph.Evaluation handed to node code. Reads made through
// it inherit the flight and pins of the compute that owns it.
type process struct {
	engine *Engine
	ctx    context.Context
	c      *evalctx.Context
	flight *flight
	plug   *graph.Plug
	pins   *pinSet
}

var _ graph.Evaluation = (*process)(nil)

func (pr *process) Ctx() context.Context      { return pr.ctx }
func (pr *process) Context() *evalctx.Context { return pr.c }

func (pr *process) Hash(p *graph.Plug) (hash.Hash, error) {
	return pr.engine.hash(pr, p, pr.c)
}

func (pr *process) Value(p *graph.Plug) (value.Value, error) {
	return pr.engine.value(pr, p, pr.c)
}

func (pr *process) With(c *evalctx.Context) graph.Evaluation {
	sub := *pr
	sub.c = c
	return &sub
}

func (pr *process) Check() error {
	return evalctx.Check(pr.ctx, pr.c)
}

func (pr *process) Parallel(n int, fn func(ev graph.Evaluation, i int) error) error {
	return task.Parallel(pr.ctx, n, func(ctx context.Context, i int) error {
		sub := *pr
		sub.ctx = ctx
		return fn(&sub, i)
	})
}

func (pr *process) Logger() *slog.Logger {
	return pr.logger()
}

func (pr *process) logger() *slog.Logger {
	l := ctxlog.FromContext(pr.ctx)
	if pr.plug != nil {
		l = l.With("plug", pr.plug.FullName())
	}
	return l
}
