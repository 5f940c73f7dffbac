package graph

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/vk/plugflow/internal/inmemorystore"
	"github.com/vk/plugflow/internal/inmemorytopology"
	"github.com/vk/plugflow/internal/value"
)

// testNode has float inputs that all affect a single float output.
type testNode struct {
	Base
	inputs []*Plug
	out    *Plug
	veto   func(dst, src *Plug) bool
	check  func() error
}

func newTestNode(name string, inputs ...string) *testNode {
	n := &testNode{Base: NewBase("test", name)}
	if len(inputs) == 0 {
		inputs = []string{"in"}
	}
	for _, in := range inputs {
		n.inputs = append(n.inputs, n.AddInput(in, value.Float))
	}
	n.out = n.AddOutput("out", value.Float)
	return n
}

func (n *testNode) Affects(p *Plug) []*Plug {
	for _, in := range n.inputs {
		if in == p {
			return []*Plug{n.out}
		}
	}
	return nil
}

func (n *testNode) AcceptsInput(dst, src *Plug) bool {
	if n.veto != nil {
		return n.veto(dst, src)
	}
	return true
}

func (n *testNode) Validate() error {
	if n.check != nil {
		return n.check()
	}
	return nil
}

// compoundNode passes a compound `color` plug with r and g children.
type compoundNode struct {
	Base
	in, out *Plug
}

func newCompoundNode(name string, children ...string) *compoundNode {
	n := &compoundNode{Base: NewBase("compound", name)}
	n.in = n.AddCompound("color", In)
	n.out = n.AddCompound("result", Out)
	for _, c := range children {
		n.in.AddChild(c, value.Float)
		n.out.AddChild(c, value.Float)
	}
	return n
}

func (n *compoundNode) Affects(p *Plug) []*Plug {
	if p.Parent() != n.in {
		return nil
	}
	if out := n.out.Child(p.Name()); out != nil {
		return []*Plug{out}
	}
	return nil
}

func newTestGraph(t *testing.T) *Graph {
	t.Helper()
	return New(inmemorytopology.New(), inmemorystore.New())
}

func addNodes(t *testing.T, g *Graph, nodes ...Node) {
	t.Helper()
	for _, n := range nodes {
		require.NoError(t, g.AddNode(n))
	}
}

func connect(t *testing.T, g *Graph, dst, src *Plug) {
	t.Helper()
	require.NoError(t, g.SetInput(dst, src))
}

// recorder captures notifications by full plug name.
type recorder struct {
	set, inputChanged, dirtied []string
}

func (r *recorder) PlugSet(p *Plug)          { r.set = append(r.set, p.FullName()) }
func (r *recorder) PlugInputChanged(p *Plug) { r.inputChanged = append(r.inputChanged, p.FullName()) }
func (r *recorder) PlugDirtied(p *Plug)      { r.dirtied = append(r.dirtied, p.FullName()) }

func (r *recorder) reset() {
	r.set, r.inputChanged, r.dirtied = nil, nil, nil
}

var errRequired = errors.New("input is required")
