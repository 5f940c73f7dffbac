package nodes

import (
	"github.com/vk/plugflow/internal/evalctx"
	"github.com/vk/plugflow/internal/graph"
	"github.com/vk/plugflow/internal/hash"
	"github.com/vk/plugflow/internal/value"
)

const TimeWarpType = "timeWarp"

// TimeWarp evaluates its input at frame*speed + offset.
type TimeWarp struct {
	graph.Base
	In, Offset, Speed, Out *graph.Plug
}

func NewTimeWarp(name string) *TimeWarp {
	n := &TimeWarp{Base: graph.NewBase(TimeWarpType, name)}
	n.In = n.AddInput("in", value.Float)
	n.Offset = n.AddInput("offset", value.Float)
	n.Speed = n.AddInput("speed", value.Float, graph.WithDefault(1.0))
	n.Out = n.AddOutput("out", value.Float)
	return n
}

func (n *TimeWarp) Affects(p *graph.Plug) []*graph.Plug {
	switch p {
	case n.In, n.Offset, n.Speed:
		return []*graph.Plug{n.Out}
	}
	return nil
}

func (n *TimeWarp) context(ev graph.Evaluation) (*evalctx.Context, error) {
	offset, err := floatValue(ev, n.Offset)
	if err != nil {
		return nil, err
	}
	speed, err := floatValue(ev, n.Speed)
	if err != nil {
		return nil, err
	}
	return ev.Context().WithFrame(ev.Context().Frame()*speed + offset), nil
}

func (n *TimeWarp) Hash(ev graph.Evaluation, _ *graph.Plug, h *hash.Hasher) error {
	c, err := n.context(ev)
	if err != nil {
		return err
	}
	return hashInputs(ev.With(c), h, n.In)
}

func (n *TimeWarp) Compute(ev graph.Evaluation, _ *graph.Plug) (value.Value, error) {
	c, err := n.context(ev)
	if err != nil {
		return nil, err
	}
	return ev.With(c).Value(n.In)
}
