package nodes

import (
	"github.com/vk/plugflow/internal/graph"
	"github.com/vk/plugflow/internal/hash"
	"github.com/vk/plugflow/internal/value"
)

const SumType = "sum"

// Sum adds up a float vector.
type Sum struct {
	graph.Base
	In, Out *graph.Plug
}

func NewSum(name string) *Sum {
	n := &Sum{Base: graph.NewBase(SumType, name)}
	n.In = n.AddInput("in", value.FloatVector)
	n.Out = n.AddOutput("out", value.Float)
	return n
}

func (n *Sum) Affects(p *graph.Plug) []*graph.Plug {
	if p == n.In {
		return []*graph.Plug{n.Out}
	}
	return nil
}

func (n *Sum) Hash(ev graph.Evaluation, _ *graph.Plug, h *hash.Hasher) error {
	return hashInputs(ev, h, n.In)
}

func (n *Sum) Compute(ev graph.Evaluation, _ *graph.Plug) (value.Value, error) {
	v, err := ev.Value(n.In)
	if err != nil {
		return nil, err
	}
	total := 0.0
	for _, f := range v.([]float64) {
		total += f
	}
	return total, nil
}
