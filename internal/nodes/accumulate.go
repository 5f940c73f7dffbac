package nodes

import (
	"github.com/vk/plugflow/internal/graph"
	"github.com/vk/plugflow/internal/hash"
	"github.com/vk/plugflow/internal/value"
)

const AccumulateType = "accumulate"

// Accumulate adds its input to itself `iterations` times, checking for
// cancellation on every iteration. It stands in for long running computes.
type Accumulate struct {
	graph.Base
	In, Iterations, Out *graph.Plug
}

func NewAccumulate(name string) *Accumulate {
	n := &Accumulate{Base: graph.NewBase(AccumulateType, name)}
	n.In = n.AddInput("in", value.Float)
	n.Iterations = n.AddInput("iterations", value.Int, graph.WithDefault(int64(1)))
	n.Out = n.AddOutput("out", value.Float)
	return n
}

func (n *Accumulate) Affects(p *graph.Plug) []*graph.Plug {
	if p == n.In || p == n.Iterations {
		return []*graph.Plug{n.Out}
	}
	return nil
}

func (n *Accumulate) Hash(ev graph.Evaluation, _ *graph.Plug, h *hash.Hasher) error {
	return hashInputs(ev, h, n.In, n.Iterations)
}

func (n *Accumulate) Compute(ev graph.Evaluation, _ *graph.Plug) (value.Value, error) {
	in, err := floatValue(ev, n.In)
	if err != nil {
		return nil, err
	}
	iterations, err := intValue(ev, n.Iterations)
	if err != nil {
		return nil, err
	}
	total := 0.0
	for i := int64(0); i < iterations; i++ {
		if err := ev.Check(); err != nil {
			return nil, err
		}
		total += in
	}
	return total, nil
}
