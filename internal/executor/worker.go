package executor

import (
	"context"
	"time"

	"github.com/vk/plugflow/internal/ctxlog"
	"github.com/vk/plugflow/internal/evalerr"
	"github.com/vk/plugflow/internal/scheduler"
)

// worker is the processing loop for a single concurrent worker.
func (e *Executor) worker(ctx context.Context, requests <-chan scheduler.Request, results chan<- Result, workerID int) {
	logger := ctxlog.FromContext(ctx)
	logger.Debug("Worker started.", "workerID", workerID)

	for req := range requests {
		results <- e.run(ctx, req)
	}
	logger.Debug("Worker finished.", "workerID", workerID)
}

func (e *Executor) run(ctx context.Context, req scheduler.Request) Result {
	r := Result{Index: req.Index, Plug: req.Plug.FullName(), Frame: req.Frame()}
	start := time.Now()

	h, err := e.eval.Hash(ctx, req.Plug, req.Context)
	if err == nil {
		r.Hash = h.String()
		if e.mode == ModeValue {
			r.Value, err = e.eval.GetValue(ctx, req.Plug, req.Context)
		}
	}
	if err != nil {
		r.err = err
		r.Error = err.Error()
		r.Cancelled = evalerr.IsCancelled(err)
		ctxlog.FromContext(ctx).Debug("Request failed.", "plug", r.Plug, "frame", r.Frame, "error", err)
	}
	r.Duration = time.Since(start)
	return r
}
