package nodes

import (
	"github.com/vk/plugflow/internal/evalctx"
	"github.com/vk/plugflow/internal/graph"
	"github.com/vk/plugflow/internal/hash"
	"github.com/vk/plugflow/internal/value"
)

const ContextVariablesType = "contextVariables"

// ContextVariables evaluates its input in a context where the variable
// `name` holds `value`. An empty name leaves the context unchanged.
type ContextVariables struct {
	graph.Base
	In, VarName, Value, Out *graph.Plug
}

func NewContextVariables(name string) *ContextVariables {
	n := &ContextVariables{Base: graph.NewBase(ContextVariablesType, name)}
	n.In = n.AddInput("in", value.Float)
	n.VarName = n.AddInput("name", value.String)
	n.Value = n.AddInput("value", value.String)
	n.Out = n.AddOutput("out", value.Float)
	return n
}

func (n *ContextVariables) Affects(p *graph.Plug) []*graph.Plug {
	switch p {
	case n.In, n.VarName, n.Value:
		return []*graph.Plug{n.Out}
	}
	return nil
}

func (n *ContextVariables) context(ev graph.Evaluation) (*evalctx.Context, error) {
	name, err := stringValue(ev, n.VarName)
	if err != nil || name == "" {
		return ev.Context(), err
	}
	v, err := stringValue(ev, n.Value)
	if err != nil {
		return nil, err
	}
	return ev.Context().With(name, v)
}

func (n *ContextVariables) Hash(ev graph.Evaluation, _ *graph.Plug, h *hash.Hasher) error {
	c, err := n.context(ev)
	if err != nil {
		return err
	}
	return hashInputs(ev.With(c), h, n.In)
}

func (n *ContextVariables) Compute(ev graph.Evaluation, _ *graph.Plug) (value.Value, error) {
	c, err := n.context(ev)
	if err != nil {
		return nil, err
	}
	return ev.With(c).Value(n.In)
}
