package testutil

import (
	"sync/atomic"

	"github.com/vk/plugflow/internal/evalerr"
	"github.com/vk/plugflow/internal/graph"
	"github.com/vk/plugflow/internal/hash"
	"github.com/vk/plugflow/internal/value"
)

// CountingNode is an instrumented compute node with one float input and one
// float output. By default out is in*2.
type CountingNode struct {
	graph.Base
	In, Out *graph.Plug

	// Fn replaces the default computation.
	Fn func(ev graph.Evaluation, in float64) (value.Value, error)
	// Policy is returned for both the compute and hash cache policies.
	Policy graph.CachePolicy
	// Entered receives a value, if there is room, each time Compute starts.
	Entered chan struct{}
	// Gate, when set, holds Compute until it is closed or the evaluation is
	// cancelled.
	Gate chan struct{}

	computes atomic.Int32
	hashes   atomic.Int32
}

// NewCountingNode returns a CountingNode named name.
func NewCountingNode(name string) *CountingNode {
	n := &CountingNode{Base: graph.NewBase("counting", name)}
	n.In = n.AddInput("in", value.Float)
	n.Out = n.AddOutput("out", value.Float)
	return n
}

// Computes returns how many times Compute ran.
func (n *CountingNode) Computes() int { return int(n.computes.Load()) }

// Hashes returns how many times Hash ran.
func (n *CountingNode) Hashes() int { return int(n.hashes.Load()) }

func (n *CountingNode) Affects(p *graph.Plug) []*graph.Plug {
	if p == n.In {
		return []*graph.Plug{n.Out}
	}
	return nil
}

func (n *CountingNode) Hash(ev graph.Evaluation, out *graph.Plug, h *hash.Hasher) error {
	n.hashes.Add(1)
	in, err := ev.Hash(n.In)
	if err != nil {
		return err
	}
	h.AppendHash(in)
	return nil
}

func (n *CountingNode) Compute(ev graph.Evaluation, out *graph.Plug) (value.Value, error) {
	n.computes.Add(1)
	if n.Entered != nil {
		select {
		case n.Entered <- struct{}{}:
		default:
		}
	}
	if n.Gate != nil {
		select {
		case <-n.Gate:
		case <-ev.Ctx().Done():
			return nil, evalerr.Cancelled(ev.Ctx().Err())
		}
	}

	in, err := ev.Value(n.In)
	if err != nil {
		return nil, err
	}
	if n.Fn != nil {
		return n.Fn(ev, in.(float64))
	}
	return in.(float64) * 2, nil
}

func (n *CountingNode) ComputeCachePolicy(*graph.Plug) graph.CachePolicy { return n.Policy }
func (n *CountingNode) HashCachePolicy(*graph.Plug) graph.CachePolicy    { return n.Policy }
