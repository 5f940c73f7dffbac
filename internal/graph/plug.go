package graph

import (
	"fmt"
	"strings"

	"github.com/vk/plugflow/internal/nodeid"
	"github.com/vk/plugflow/internal/value"
)

// Direction is the direction of a plug.
type Direction uint8

const (
	In Direction = iota
	Out
)

func (d Direction) String() string {
	if d == Out {
		return "out"
	}
	return "in"
}

// Flags modify the behaviour of a plug.
type Flags uint32

const (
	// Serialisable plugs are written out when the graph is saved.
	Serialisable Flags = 1 << iota
	// AcceptsInputs plugs may be connected to a source.
	AcceptsInputs
	// AcceptsDependencyCycles plugs may be connected even when the
	// connection closes a dependency loop.
	AcceptsDependencyCycles
	// Dynamic plugs were added after their node joined a graph.
	Dynamic

	// DefaultFlags applies to plugs unless overridden.
	DefaultFlags = Serialisable | AcceptsInputs
)

// Has reports whether all of want are set.
func (f Flags) Has(want Flags) bool {
	return f&want == want
}

// Plug is a typed, named pin on a node. A compound plug has children and
// no value of its own; its type is value.Invalid.
type Plug struct {
	name     string
	dir      Direction
	typ      value.Type
	def      value.Value
	flags    Flags
	parent   *Plug
	children []*Plug

	// Set when the owning node joins a graph.
	node     Node
	graph    *Graph
	handle   nodeid.Handle
	fullName string
}

// PlugOption customizes a plug at construction.
type PlugOption func(*Plug)

// WithDefault sets the default value.
func WithDefault(v value.Value) PlugOption {
	return func(p *Plug) { p.def = v }
}

// WithFlags replaces the plug flags.
func WithFlags(f Flags) PlugOption {
	return func(p *Plug) { p.flags = f }
}

// WithoutFlags clears some flags.
func WithoutFlags(f Flags) PlugOption {
	return func(p *Plug) { p.flags &^= f }
}

func newPlug(name string, dir Direction, t value.Type, opts ...PlugOption) *Plug {
	if !nodeid.ValidName(name) {
		panic(fmt.Sprintf("graph: invalid plug name %q", name))
	}
	p := &Plug{name: name, dir: dir, typ: t, flags: DefaultFlags}
	if dir == Out {
		p.flags &^= AcceptsInputs
	}
	for _, o := range opts {
		o(p)
	}
	if p.def == nil && t != value.Invalid {
		p.def = value.Default(t)
	}
	if p.def != nil && value.TypeOf(p.def) != t {
		panic(fmt.Sprintf("graph: default for plug %q is %s, want %s", name, value.TypeOf(p.def), t))
	}
	return p
}

// Name returns the plug's own name.
func (p *Plug) Name() string { return p.name }

// Direction returns In or Out.
func (p *Plug) Direction() Direction { return p.dir }

// Type returns the value type, or value.Invalid for compound plugs.
func (p *Plug) Type() value.Type { return p.typ }

// Default returns the default value.
func (p *Plug) Default() value.Value { return p.def }

// Flags returns the plug flags.
func (p *Plug) Flags() Flags { return p.flags }

// Node returns the owning node, or nil before the node joins a graph.
func (p *Plug) Node() Node { return p.node }

// Graph returns the graph the plug belongs to, if any.
func (p *Plug) Graph() *Graph { return p.graph }

// Handle returns the plug's weak reference.
func (p *Plug) Handle() nodeid.Handle { return p.handle }

// Parent returns the parent plug of a child, or nil for top-level plugs.
func (p *Plug) Parent() *Plug { return p.parent }

// Children returns the child plugs in declaration order.
func (p *Plug) Children() []*Plug { return p.children }

// IsCompound reports whether p groups child plugs instead of holding a value.
func (p *Plug) IsCompound() bool { return p.typ == value.Invalid }

// Child returns the named child.
func (p *Plug) Child(name string) *Plug {
	for _, c := range p.children {
		if c.name == name {
			return c
		}
	}
	return nil
}

// ChildAt returns the i-th child, or nil when out of range.
func (p *Plug) ChildAt(i int) *Plug {
	if i < 0 || i >= len(p.children) {
		return nil
	}
	return p.children[i]
}

// AddChild adds a child plug with the parent's direction.
func (p *Plug) AddChild(name string, t value.Type, opts ...PlugOption) *Plug {
	if !p.IsCompound() {
		panic(fmt.Sprintf("graph: cannot add child %q to non-compound plug %q", name, p.name))
	}
	if p.Child(name) != nil {
		panic(fmt.Sprintf("graph: plug %q already has a child %q", p.name, name))
	}
	c := newPlug(name, p.dir, t, opts...)
	c.parent = p
	p.children = append(p.children, c)
	if p.graph != nil {
		c.flags |= Dynamic
		p.graph.attachPlug(p.node, c)
	}
	return c
}

// RelativeName returns the path below the node, e.g. `in.in0`.
func (p *Plug) RelativeName() string {
	var parts []string
	for q := p; q != nil; q = q.parent {
		parts = append(parts, q.name)
	}
	for i, j := 0, len(parts)-1; i < j; i, j = i+1, j-1 {
		parts[i], parts[j] = parts[j], parts[i]
	}
	return strings.Join(parts, ".")
}

// FullName returns the path including the node name, e.g. `add1.out`.
func (p *Plug) FullName() string {
	if p.fullName != "" {
		return p.fullName
	}
	if p.node == nil {
		return p.RelativeName()
	}
	return p.node.Name() + "." + p.RelativeName()
}

func (p *Plug) String() string { return p.FullName() }

// Input returns the plug feeding p, or nil.
func (p *Plug) Input() *Plug {
	if p.graph == nil {
		return nil
	}
	return p.graph.input(p)
}

// Outputs returns the plugs fed by p.
func (p *Plug) Outputs() []*Plug {
	if p.graph == nil {
		return nil
	}
	return p.graph.outputs(p)
}

// Source follows input connections to the first unconnected plug.
func (p *Plug) Source() *Plug {
	s := p
	for i := 0; ; i++ {
		in := s.Input()
		if in == nil || in == p || i > 1<<16 {
			return s
		}
		s = in
	}
}

// IsConnected reports whether p has an input.
func (p *Plug) IsConnected() bool {
	return p.Input() != nil
}

// walk calls fn for p and all of its descendants, depth first.
func (p *Plug) walk(fn func(*Plug)) {
	fn(p)
	for _, c := range p.children {
		c.walk(fn)
	}
}
