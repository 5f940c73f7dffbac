// Package executor evaluates scheduled requests on a pool of workers.
package executor

import (
	"context"
	"runtime"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/hashicorp/go-multierror"

	"github.com/vk/plugflow/internal/ctxlog"
	"github.com/vk/plugflow/internal/evalctx"
	"github.com/vk/plugflow/internal/graph"
	"github.com/vk/plugflow/internal/hash"
	"github.com/vk/plugflow/internal/scheduler"
	"github.com/vk/plugflow/internal/value"
)

// Evaluator computes plug hashes and values. *process.Engine implements it.
type Evaluator interface {
	GetValue(ctx context.Context, p *graph.Plug, c *evalctx.Context) (value.Value, error)
	Hash(ctx context.Context, p *graph.Plug, c *evalctx.Context) (hash.Hash, error)
}

// Mode selects what each request computes.
type Mode int

const (
	// ModeValue computes the hash and the value.
	ModeValue Mode = iota
	// ModeHash computes the hash only.
	ModeHash
)

// Result is the outcome of one request.
type Result struct {
	Index     int           `json:"index" yaml:"index"`
	Plug      string        `json:"plug" yaml:"plug"`
	Frame     float64       `json:"frame" yaml:"frame"`
	Hash      string        `json:"hash,omitempty" yaml:"hash,omitempty"`
	Value     value.Value   `json:"value,omitempty" yaml:"value,omitempty"`
	Error     string        `json:"error,omitempty" yaml:"error,omitempty"`
	Cancelled bool          `json:"cancelled,omitempty" yaml:"cancelled,omitempty"`
	Duration  time.Duration `json:"duration" yaml:"duration"`

	err error
}

// Err returns the request's error, if any.
func (r Result) Err() error { return r.err }

// Report is the outcome of a run.
type Report struct {
	RunID     string   `json:"run_id" yaml:"run_id"`
	Results   []Result `json:"results" yaml:"results"`
	Failed    int      `json:"failed" yaml:"failed"`
	Cancelled int      `json:"cancelled" yaml:"cancelled"`
}

// Executor runs requests from a scheduler through an Evaluator.
type Executor struct {
	eval    Evaluator
	workers int
	mode    Mode
}

// Option configures an Executor.
type Option func(*Executor)

// WithWorkers sets the worker count. Values below one mean GOMAXPROCS.
func WithWorkers(n int) Option {
	return func(e *Executor) { e.workers = n }
}

// WithMode sets what each request computes.
func WithMode(m Mode) Option {
	return func(e *Executor) { e.mode = m }
}

// New returns an Executor.
func New(eval Evaluator, opts ...Option) *Executor {
	e := &Executor{eval: eval}
	for _, opt := range opts {
		opt(e)
	}
	if e.workers < 1 {
		e.workers = runtime.GOMAXPROCS(0)
	}
	return e
}

// Execute evaluates every request sch produces and returns the results in
// request order. Failures are aggregated into the returned error;
// cancelled requests are counted in the report but are not failures.
func (e *Executor) Execute(ctx context.Context, sch scheduler.Scheduler) (*Report, error) {
	report := &Report{RunID: uuid.NewString()}
	ctx = ctxlog.With(ctx, "run_id", report.RunID)
	logger := ctxlog.FromContext(ctx)
	logger.Debug("Executor starting.", "workers", e.workers, "requests", sch.Len())

	requests := sch.Requests(ctx)
	results := make(chan Result)
	var wg sync.WaitGroup
	for i := 0; i < e.workers; i++ {
		wg.Add(1)
		go func(workerID int) {
			defer wg.Done()
			e.worker(ctx, requests, results, workerID)
		}(i)
	}
	go func() {
		wg.Wait()
		close(results)
	}()

	var errs *multierror.Error
	for r := range results {
		report.Results = append(report.Results, r)
		switch {
		case r.Cancelled:
			report.Cancelled++
		case r.err != nil:
			report.Failed++
			errs = multierror.Append(errs, r.err)
		}
	}
	slices.SortFunc(report.Results, func(a, b Result) int { return a.Index - b.Index })

	logger.Debug("Executor finished.", "results", len(report.Results), "failed", report.Failed, "cancelled", report.Cancelled)
	return report, errs.ErrorOrNil()
}
