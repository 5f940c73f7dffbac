package process

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/vk/plugflow/internal/evalctx"
	"github.com/vk/plugflow/internal/evalerr"
	"github.com/vk/plugflow/internal/graph"
	"github.com/vk/plugflow/internal/hash"
	"github.com/vk/plugflow/internal/task"
	"github.com/vk/plugflow/internal/value"
)

// Engine evaluates plugs. One Engine may serve any number of graphs and
// concurrent callers; all of them share its caches.
type Engine struct {
	values  *ValueCache
	hashes  *HashCache
	monitor Monitor
	tracer  trace.Tracer
}

type options struct {
	memoryLimit   int64
	hashCacheSize int
	monitor       Monitor
	tracer        trace.Tracer
}

// Option configures an Engine.
type Option func(*options)

// WithMemoryLimit bounds the value cache, in bytes.
func WithMemoryLimit(n int64) Option {
	return func(o *options) { o.memoryLimit = n }
}

// WithHashCacheSize bounds the hash cache, in entries.
func WithHashCacheSize(n int) Option {
	return func(o *options) { o.hashCacheSize = n }
}

// WithMonitor reports every hash and compute request to m.
func WithMonitor(m Monitor) Option {
	return func(o *options) { o.monitor = m }
}

// WithTracer sets the tracer used for compute spans.
func WithTracer(t trace.Tracer) Option {
	return func(o *options) { o.tracer = t }
}

// New creates an Engine with empty caches.
func New(opts ...Option) *Engine {
	o := options{
		memoryLimit:   DefaultMemoryLimit,
		hashCacheSize: DefaultHashCacheSize,
		monitor:       noopMonitor{},
	}
	for _, opt := range opts {
		opt(&o)
	}
	if o.tracer == nil {
		o.tracer = otel.GetTracerProvider().Tracer("plugflow/process")
	}
	waits := &waitGraph{}
	return &Engine{
		values:  newValueCache(o.memoryLimit, waits),
		hashes:  newHashCache(o.hashCacheSize, waits),
		monitor: o.monitor,
		tracer:  o.tracer,
	}
}

// ValueCache returns the engine's value cache.
func (e *Engine) ValueCache() *ValueCache { return e.values }

// HashCache returns the engine's hash cache.
func (e *Engine) HashCache() *HashCache { return e.hashes }

// GetValue returns the value of p in context c. The evaluation stops with
// an error matching evalerr.ErrCancelled when ctx ends or c's canceller
// fires.
func (e *Engine) GetValue(ctx context.Context, p *graph.Plug, c *evalctx.Context) (value.Value, error) {
	ctx, cancel := evalctx.Bind(ctx, c)
	defer cancel()
	return e.value(e.root(ctx, c), p, c)
}

// Hash returns the hash of p in context c.
func (e *Engine) Hash(ctx context.Context, p *graph.Plug, c *evalctx.Context) (hash.Hash, error) {
	ctx, cancel := evalctx.Bind(ctx, c)
	defer cancel()
	return e.hash(e.root(ctx, c), p, c)
}

func (e *Engine) root(ctx context.Context, c *evalctx.Context) *process {
	return &process{engine: e, ctx: ctx, c: c}
}

func checkPlug(op string, p *graph.Plug) error {
	if p == nil || p.Graph() == nil {
		return evalerr.New(evalerr.CodeNotFound, op, "plug %v is not part of a graph", p)
	}
	if p.IsCompound() {
		return evalerr.New(evalerr.CodeInvalid, op, "compound plug %s has no value", p)
	}
	return nil
}

// computed returns the compute node owning p when p is a computed output.
func computed(p *graph.Plug) (graph.ComputeNode, bool) {
	if p.Direction() != graph.Out {
		return nil, false
	}
	cn, ok := p.Node().(graph.ComputeNode)
	return cn, ok
}

func passThrough(cn graph.ComputeNode, p *graph.Plug) *graph.Plug {
	if pt, ok := cn.(graph.PassThrough); ok {
		return pt.PassThrough(p)
	}
	return nil
}

func computePolicy(cn graph.ComputeNode, p *graph.Plug) graph.CachePolicy {
	if cp, ok := cn.(graph.CachePolicies); ok {
		return cp.ComputeCachePolicy(p)
	}
	return graph.Standard
}

func hashPolicy(cn graph.ComputeNode, p *graph.Plug) graph.CachePolicy {
	if cp, ok := cn.(graph.CachePolicies); ok {
		return cp.HashCachePolicy(p)
	}
	return graph.Standard
}

func (e *Engine) value(pr *process, p *graph.Plug, c *evalctx.Context) (value.Value, error) {
	if err := checkPlug("getValue", p); err != nil {
		return nil, err
	}
	if err := evalctx.Check(pr.ctx, c); err != nil {
		return nil, err
	}

	if in := p.Input(); in != nil {
		v, err := e.value(pr, in, c)
		if err != nil {
			return nil, err
		}
		return convert(v, p)
	}

	cn, ok := computed(p)
	if !ok {
		return p.Graph().StaticValue(p), nil
	}
	if src := passThrough(cn, p); src != nil {
		v, err := e.value(pr, src, c)
		if err != nil {
			return nil, err
		}
		return convert(v, p)
	}

	policy := computePolicy(cn, p)
	if policy == graph.Uncached {
		return e.compute(pr, cn, p, c, hash.Hash{}, pr.flight, nil)
	}

	key, err := e.hash(pr, p, c)
	if err != nil {
		return nil, err
	}
	v, hit, err := e.values.get(pr, key, policy, func(arena *task.Arena, f *flight) (value.Value, error) {
		owner := f
		if owner == nil {
			owner = pr.flight
		}
		return e.compute(pr, cn, p, c, key, owner, arena)
	})
	if hit {
		e.monitor.Observe(Event{Kind: KindCompute, Plug: p, ContextHash: c.Hash(), CacheHit: true, Err: err})
	}
	return v, err
}

func convert(v value.Value, p *graph.Plug) (value.Value, error) {
	if value.TypeOf(v) == p.Type() {
		return v, nil
	}
	cv, err := value.Convert(v, p.Type())
	if err != nil {
		panic(evalerr.Contract("getValue", p.FullName(), "%v", err))
	}
	return cv, nil
}

// compute runs the node's Compute for p. Subtasks go to arena when one is
// given and otherwise to the caller's arena.
func (e *Engine) compute(pr *process, cn graph.ComputeNode, p *graph.Plug, c *evalctx.Context, key hash.Hash, owner *flight, arena *task.Arena) (value.Value, error) {
	ctx := pr.ctx
	if arena != nil {
		ctx = task.WithArena(ctx, arena)
	}
	ctx, span := e.tracer.Start(ctx, "plugflow.compute", trace.WithAttributes(
		attribute.String("plugflow.plug", p.FullName()),
		attribute.String("plugflow.node_type", cn.TypeName()),
		attribute.String("plugflow.hash", key.String()),
	))
	defer span.End()

	sub := &process{engine: e, ctx: ctx, c: c, flight: owner, plug: p, pins: &pinSet{}}
	defer e.values.unpin(sub.pins)

	sub.logger().Debug("Computing plug.", "context", c)
	start := time.Now()
	v, err := cn.Compute(sub, p)
	err = evalerr.Compute("compute", p.FullName(), c.String(), err)
	e.monitor.Observe(Event{Kind: KindCompute, Plug: p, ContextHash: c.Hash(), Duration: time.Since(start), Err: err})

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	if got := value.TypeOf(v); got != p.Type() {
		panic(evalerr.Contract("compute", p.FullName(), "node %q returned %s, want %s", cn.Name(), got, p.Type()))
	}
	return v, nil
}

func (e *Engine) hash(pr *process, p *graph.Plug, c *evalctx.Context) (hash.Hash, error) {
	if err := checkPlug("hash", p); err != nil {
		return hash.Hash{}, err
	}
	if err := evalctx.Check(pr.ctx, c); err != nil {
		return hash.Hash{}, err
	}

	if in := p.Input(); in != nil {
		h, err := e.hash(pr, in, c)
		if err != nil || in.Type() == p.Type() {
			return h, err
		}
		return hash.New().AppendHash(h).AppendTag(p.Type().String()).Sum(), nil
	}

	cn, ok := computed(p)
	if !ok {
		return value.Hash(p.Graph().StaticValue(p)), nil
	}
	if src := passThrough(cn, p); src != nil {
		h, err := e.hash(pr, src, c)
		if err != nil || src.Type() == p.Type() {
			return h, err
		}
		return hash.New().AppendHash(h).AppendTag(p.Type().String()).Sum(), nil
	}

	key := hashKey{graph: p.Graph(), plug: p.Handle(), context: c.Hash(), dirty: p.Graph().DirtyCount(p)}
	start := time.Now()
	h, hit, err := e.hashes.get(pr, key, hashPolicy(cn, p), func(arena *task.Arena, owner *flight) (hash.Hash, error) {
		return e.computeHash(pr, cn, p, c, owner, arena)
	})
	ev := Event{Kind: KindHash, Plug: p, ContextHash: key.context, CacheHit: hit, Err: err}
	if !hit {
		ev.Duration = time.Since(start)
	}
	e.monitor.Observe(ev)
	return h, err
}

// computeHash runs the node's Hash for p. Like compute, subtasks go to
// arena when one is given.
func (e *Engine) computeHash(pr *process, cn graph.ComputeNode, p *graph.Plug, c *evalctx.Context, owner *flight, arena *task.Arena) (hash.Hash, error) {
	h := hash.NewDomain(hash.DomainPlug).
		AppendString(p.FullName()).
		AppendTag(p.Type().String())
	ctx := pr.ctx
	if arena != nil {
		ctx = task.WithArena(ctx, arena)
	}
	sub := &process{engine: e, ctx: ctx, c: c, flight: owner, plug: p, pins: pr.pins}
	if err := cn.Hash(sub, p, h); err != nil {
		return hash.Hash{}, evalerr.Compute("hash", p.FullName(), c.String(), err)
	}
	return h.Sum(), nil
}
