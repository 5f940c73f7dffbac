package nodes

import (
	"github.com/vk/plugflow/internal/graph"
	"github.com/vk/plugflow/internal/hash"
	"github.com/vk/plugflow/internal/value"
)

const DotType = "dot"

// Dot is an organisational node whose output is its input.
type Dot struct {
	graph.Base
	In, Out *graph.Plug
}

func NewDot(name string) *Dot {
	n := &Dot{Base: graph.NewBase(DotType, name)}
	n.In = n.AddInput("in", value.Float)
	n.Out = n.AddOutput("out", value.Float)
	return n
}

func (n *Dot) Affects(p *graph.Plug) []*graph.Plug {
	if p == n.In {
		return []*graph.Plug{n.Out}
	}
	return nil
}

func (n *Dot) PassThrough(*graph.Plug) *graph.Plug { return n.In }

func (n *Dot) Hash(ev graph.Evaluation, _ *graph.Plug, h *hash.Hasher) error {
	return hashInputs(ev, h, n.In)
}

func (n *Dot) Compute(ev graph.Evaluation, _ *graph.Plug) (value.Value, error) {
	return ev.Value(n.In)
}
