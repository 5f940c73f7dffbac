package graph

import (
	"github.com/vk/plugflow/internal/evalerr"
	"github.com/vk/plugflow/internal/value"
)

// SetInput connects dst to src, or disconnects dst when src is nil. Compound
// plugs are connected child by child. On success PlugInputChanged is sent
// for every plug whose input changed, followed by dirty propagation. On
// failure the graph is left untouched.
func (g *Graph) SetInput(dst, src *Plug) error {
	if err := g.acceptsInput(dst, src); err != nil {
		return err
	}

	var changed []*Plug
	g.setInput(dst, src, &changed)
	if len(changed) == 0 {
		return nil
	}
	for _, p := range changed {
		g.notifyInputChanged(p)
	}
	g.propagate(changed)
	return nil
}

func (g *Graph) setInput(dst, src *Plug, changed *[]*Plug) {
	if cur := dst.Input(); cur != src {
		if src == nil {
			g.topo.ClearInput(dst.handle)
		} else {
			g.topo.SetInput(dst.handle, src.handle)
		}
		*changed = append(*changed, dst)
	}
	for i, c := range dst.children {
		var s *Plug
		if src != nil {
			s = src.children[i]
		}
		g.setInput(c, s, changed)
	}
}

// AcceptsInput reports whether SetInput(dst, src) would succeed.
func (g *Graph) AcceptsInput(dst, src *Plug) error {
	return g.acceptsInput(dst, src)
}

func (g *Graph) acceptsInput(dst, src *Plug) error {
	const op = "setInput"
	if !g.owns(dst) {
		return evalerr.New(evalerr.CodeNotFound, op, "plug %s is not part of this graph", plugName(dst))
	}
	if src == nil {
		return nil
	}
	if !g.owns(src) {
		return evalerr.New(evalerr.CodeNotFound, op, "plug %s is not part of this graph", plugName(src))
	}
	if !dst.flags.Has(AcceptsInputs) {
		return evalerr.New(evalerr.CodeIncompatibleInput, op, "%s does not accept inputs", dst)
	}
	if dst == src {
		return evalerr.New(evalerr.CodeIncompatibleInput, op, "cannot connect %s to itself", dst)
	}
	if dst.dir != In {
		return evalerr.New(evalerr.CodeIncompatibleInput, op, "%s is an output plug and cannot take an input", dst)
	}
	if src.dir != Out {
		return evalerr.New(evalerr.CodeIncompatibleInput, op, "input plug %s cannot be used as a source", src)
	}
	if err := compatible(dst, src); err != nil {
		return evalerr.New(evalerr.CodeIncompatibleInput, op, "cannot connect %s to %s: %w", src, dst, err)
	}
	if !dst.node.AcceptsInput(dst, src) {
		return evalerr.New(evalerr.CodeIncompatibleInput, op, "node %q rejected %s as input for %s", dst.node.Name(), src, dst)
	}
	if !dst.flags.Has(AcceptsDependencyCycles) && g.dependsOn(src, dst) {
		return evalerr.New(evalerr.CodeCycle, op, "connecting %s to %s would create a dependency cycle", src, dst)
	}
	return nil
}

func compatible(dst, src *Plug) error {
	if dst.IsCompound() != src.IsCompound() {
		return evalerr.New(evalerr.CodeIncompatibleInput, "compatible", "compound and non-compound plugs")
	}
	if !dst.IsCompound() {
		if !value.Compatible(dst.typ, src.typ) {
			return evalerr.New(evalerr.CodeIncompatibleInput, "compatible", "%s is not compatible with %s", src.typ, dst.typ)
		}
		return nil
	}
	if len(dst.children) != len(src.children) {
		return evalerr.New(evalerr.CodeIncompatibleInput, "compatible", "%d children, want %d", len(src.children), len(dst.children))
	}
	for i := range dst.children {
		if err := compatible(dst.children[i], src.children[i]); err != nil {
			return err
		}
	}
	return nil
}

// dependsOn reports whether src is downstream of dst, in which case feeding
// dst from src would close a loop.
func (g *Graph) dependsOn(src, dst *Plug) bool {
	targets := make(map[*Plug]struct{})
	src.walk(func(p *Plug) { targets[p] = struct{}{} })

	found := false
	g.traverse([]*Plug{dst}, func(p, _ *Plug) bool {
		if _, ok := targets[p]; ok {
			found = true
			return false
		}
		return true
	})
	return found
}

// traverse walks the affected relation from roots: parents, Affects within
// a node and connections between nodes. visit is called for every edge
// (plug, dirtiedBy); dirtiedBy is nil for roots. Each plug is expanded once.
// Returning false from visit stops the walk.
func (g *Graph) traverse(roots []*Plug, visit func(p, by *Plug) bool) {
	expanded := make(map[*Plug]struct{})
	type item struct{ p, by *Plug }
	stack := make([]item, 0, len(roots))
	for i := len(roots) - 1; i >= 0; i-- {
		stack = append(stack, item{roots[i], nil})
	}

	for len(stack) > 0 {
		it := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if !visit(it.p, it.by) {
			return
		}
		if _, done := expanded[it.p]; done {
			continue
		}
		expanded[it.p] = struct{}{}

		var next []*Plug
		for q := it.p.parent; q != nil; q = q.parent {
			next = append(next, q)
		}
		if it.p.dir == In && it.p.node != nil {
			next = append(next, it.p.node.Affects(it.p)...)
		}
		next = append(next, g.outputs(it.p)...)

		for i := len(next) - 1; i >= 0; i-- {
			stack = append(stack, item{next[i], it.p})
		}
	}
}
