package process

import (
	"context"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/vk/plugflow/internal/evalctx"
	"github.com/vk/plugflow/internal/graph"
	"github.com/vk/plugflow/internal/hash"
	"github.com/vk/plugflow/internal/testutil"
	"github.com/vk/plugflow/internal/value"
)

// passNode aliases out to in.
type passNode struct {
	graph.Base
	in, out *graph.Plug
}

func newPassNode(name string) *passNode {
	n := &passNode{Base: graph.NewBase("pass", name)}
	n.in = n.AddInput("in", value.Float)
	n.out = n.AddOutput("out", value.Float)
	return n
}

func (n *passNode) Affects(p *graph.Plug) []*graph.Plug {
	if p == n.in {
		return []*graph.Plug{n.out}
	}
	return nil
}

func (n *passNode) PassThrough(*graph.Plug) *graph.Plug { return n.in }

func (n *passNode) Hash(graph.Evaluation, *graph.Plug, *hash.Hasher) error {
	panic("pass-through output must not be hashed")
}

func (n *passNode) Compute(graph.Evaluation, *graph.Plug) (value.Value, error) {
	panic("pass-through output must not be computed")
}

// incNode adds one to an integer input.
type incNode struct {
	graph.Base
	in, out *graph.Plug
}

func newIncNode(name string) *incNode {
	n := &incNode{Base: graph.NewBase("inc", name)}
	n.in = n.AddInput("in", value.Int)
	n.out = n.AddOutput("out", value.Int)
	return n
}

func (n *incNode) Affects(p *graph.Plug) []*graph.Plug {
	if p == n.in {
		return []*graph.Plug{n.out}
	}
	return nil
}

func (n *incNode) Hash(ev graph.Evaluation, _ *graph.Plug, h *hash.Hasher) error {
	in, err := ev.Hash(n.in)
	if err != nil {
		return err
	}
	h.AppendHash(in)
	return nil
}

func (n *incNode) Compute(ev graph.Evaluation, _ *graph.Plug) (value.Value, error) {
	in, err := ev.Value(n.in)
	if err != nil {
		return nil, err
	}
	return in.(int64) + 1, nil
}

// fanNode sums its input over frames 1..frames, hashing and computing the
// frames in parallel. Both policies are TaskCollaboration.
type fanNode struct {
	graph.Base
	in, out *graph.Plug
	frames  int
	// frame, when non-zero, is used for every job instead of 1..frames.
	frame float64

	// gate, when set, holds Hash until it is closed.
	gate   chan struct{}
	hashes atomic.Int32
}

func newFanNode(name string, frames int) *fanNode {
	n := &fanNode{Base: graph.NewBase("fan", name), frames: frames}
	n.in = n.AddInput("in", value.Float)
	n.out = n.AddOutput("out", value.Float)
	return n
}

func (n *fanNode) Affects(p *graph.Plug) []*graph.Plug {
	if p == n.in {
		return []*graph.Plug{n.out}
	}
	return nil
}

func (n *fanNode) at(ev graph.Evaluation, i int) graph.Evaluation {
	if n.frame != 0 {
		return ev.With(ev.Context().WithFrame(n.frame))
	}
	return ev.With(ev.Context().WithFrame(float64(i + 1)))
}

func (n *fanNode) Hash(ev graph.Evaluation, _ *graph.Plug, h *hash.Hasher) error {
	n.hashes.Add(1)
	if n.gate != nil {
		select {
		case <-n.gate:
		case <-ev.Ctx().Done():
			return ev.Ctx().Err()
		}
	}
	hashes := make([]hash.Hash, n.frames)
	err := ev.Parallel(n.frames, func(sub graph.Evaluation, i int) error {
		ih, err := n.at(sub, i).Hash(n.in)
		hashes[i] = ih
		return err
	})
	for _, ih := range hashes {
		h.AppendHash(ih)
	}
	return err
}

func (n *fanNode) Compute(ev graph.Evaluation, _ *graph.Plug) (value.Value, error) {
	parts := make([]float64, n.frames)
	err := ev.Parallel(n.frames, func(sub graph.Evaluation, i int) error {
		v, err := n.at(sub, i).Value(n.in)
		if err != nil {
			return err
		}
		parts[i] = v.(float64)
		return nil
	})
	total := 0.0
	for _, p := range parts {
		total += p
	}
	return total, err
}

func (n *fanNode) ComputeCachePolicy(*graph.Plug) graph.CachePolicy { return graph.TaskCollaboration }
func (n *fanNode) HashCachePolicy(*graph.Plug) graph.CachePolicy    { return graph.TaskCollaboration }

// chain builds a.out -> b.in with a.in set to 5.
func chain(t *testing.T) (*graph.Graph, *testutil.CountingNode, *testutil.CountingNode) {
	t.Helper()
	a, b := testutil.NewCountingNode("a"), testutil.NewCountingNode("b")
	g := testutil.NewGraph(t, a, b)
	testutil.Connect(t, g, b.In, a.Out)
	testutil.Set(t, g, a.In, 5.0)
	return g, a, b
}

func mustValue(t *testing.T, e *Engine, p *graph.Plug, c *evalctx.Context) value.Value {
	t.Helper()
	v, err := e.GetValue(context.Background(), p, c)
	require.NoError(t, err)
	return v
}

func mustHash(t *testing.T, e *Engine, p *graph.Plug, c *evalctx.Context) hash.Hash {
	t.Helper()
	h, err := e.Hash(context.Background(), p, c)
	require.NoError(t, err)
	return h
}
