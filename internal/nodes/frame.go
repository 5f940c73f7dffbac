package nodes

import (
	"github.com/vk/plugflow/internal/graph"
	"github.com/vk/plugflow/internal/hash"
	"github.com/vk/plugflow/internal/value"
)

const FrameType = "frame"

// Frame outputs the context frame multiplied by scale.
type Frame struct {
	graph.Base
	Scale, Out *graph.Plug
}

func NewFrame(name string) *Frame {
	n := &Frame{Base: graph.NewBase(FrameType, name)}
	n.Scale = n.AddInput("scale", value.Float, graph.WithDefault(1.0))
	n.Out = n.AddOutput("out", value.Float)
	return n
}

func (n *Frame) Affects(p *graph.Plug) []*graph.Plug {
	if p == n.Scale {
		return []*graph.Plug{n.Out}
	}
	return nil
}

// Hash consults only the frame, so other context variables never cause a
// recompute.
func (n *Frame) Hash(ev graph.Evaluation, _ *graph.Plug, h *hash.Hasher) error {
	if err := hashInputs(ev, h, n.Scale); err != nil {
		return err
	}
	h.AppendFloat(ev.Context().Frame())
	return nil
}

func (n *Frame) Compute(ev graph.Evaluation, _ *graph.Plug) (value.Value, error) {
	scale, err := floatValue(ev, n.Scale)
	if err != nil {
		return nil, err
	}
	return ev.Context().Frame() * scale, nil
}
