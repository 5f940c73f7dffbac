package nodes

import (
	"github.com/vk/plugflow/internal/graph"
	"github.com/vk/plugflow/internal/hash"
	"github.com/vk/plugflow/internal/value"
)

const TextType = "text"

// Text expands context variables in a template, e.g. `shot_${shot}.####`.
// Only the variables the template references take part in the hash.
type Text struct {
	graph.Base
	Template, Out *graph.Plug
}

func NewText(name string) *Text {
	n := &Text{Base: graph.NewBase(TextType, name)}
	n.Template = n.AddInput("template", value.String)
	n.Out = n.AddOutput("out", value.String)
	return n
}

func (n *Text) Affects(p *graph.Plug) []*graph.Plug {
	if p == n.Template {
		return []*graph.Plug{n.Out}
	}
	return nil
}

func (n *Text) Hash(ev graph.Evaluation, _ *graph.Plug, h *hash.Hasher) error {
	tmpl, err := stringValue(ev, n.Template)
	if err != nil {
		return err
	}
	refs, err := ev.Context().References(tmpl)
	if err != nil {
		return err
	}
	h.AppendString(tmpl)
	for _, name := range refs {
		h.AppendString(name).AppendHash(ev.Context().VariableHash(name))
	}
	return nil
}

func (n *Text) Compute(ev graph.Evaluation, _ *graph.Plug) (value.Value, error) {
	tmpl, err := stringValue(ev, n.Template)
	if err != nil {
		return nil, err
	}
	return ev.Context().Substitute(tmpl)
}
