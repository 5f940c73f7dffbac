package nodes

import (
	"github.com/vk/plugflow/internal/graph"
	"github.com/vk/plugflow/internal/hash"
	"github.com/vk/plugflow/internal/value"
)

// ConstantType is the type name of a float constant.
const ConstantType = "constant"

// Constant outputs its value plug. Its output is never cached: reading it
// costs no more than a cache lookup.
type Constant struct {
	graph.Base
	Value, Out *graph.Plug
}

// NewConstant returns a float constant.
func NewConstant(name string) *Constant {
	return NewTypedConstant(ConstantType, name, value.Float)
}

// NewTypedConstant returns a constant of type t.
func NewTypedConstant(typeName, name string, t value.Type) *Constant {
	n := &Constant{Base: graph.NewBase(typeName, name)}
	n.Value = n.AddInput("value", t)
	n.Out = n.AddOutput("out", t)
	return n
}

func (n *Constant) Affects(p *graph.Plug) []*graph.Plug {
	if p == n.Value {
		return []*graph.Plug{n.Out}
	}
	return nil
}

func (n *Constant) Hash(ev graph.Evaluation, _ *graph.Plug, h *hash.Hasher) error {
	return hashInputs(ev, h, n.Value)
}

func (n *Constant) Compute(ev graph.Evaluation, _ *graph.Plug) (value.Value, error) {
	return ev.Value(n.Value)
}

func (n *Constant) ComputeCachePolicy(*graph.Plug) graph.CachePolicy { return graph.Uncached }
func (n *Constant) HashCachePolicy(*graph.Plug) graph.CachePolicy    { return graph.Standard }
