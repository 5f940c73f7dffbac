package graph

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/hashicorp/go-multierror"

	"github.com/vk/plugflow/internal/evalerr"
	"github.com/vk/plugflow/internal/nodeid"
	"github.com/vk/plugflow/internal/nodestore"
	"github.com/vk/plugflow/internal/topologystore"
	"github.com/vk/plugflow/internal/value"
)

type slot struct {
	plug       *Plug
	generation uint32
}

// Graph is the facade over the topology and node-state stores.
type Graph struct {
	topo   topologystore.Store
	state  nodestore.Store
	logger *slog.Logger

	mu    sync.RWMutex
	nodes map[string]Node
	order []string
	arena []slot // index 0 is never used, so the zero Handle is invalid
	free  []uint32

	obsMu     sync.Mutex
	observers map[int]Observer
	nextObs   int

	dirtyMu    sync.Mutex
	scopeDepth int
	emitting   bool
	pending    []*Plug
}

// Option configures a Graph.
type Option func(*Graph)

// WithLogger sets the logger used for diagnostics such as dirty cycles.
func WithLogger(l *slog.Logger) Option {
	return func(g *Graph) { g.logger = l }
}

// New creates an empty graph backed by the given stores.
func New(topo topologystore.Store, state nodestore.Store, opts ...Option) *Graph {
	g := &Graph{
		topo:      topo,
		state:     state,
		logger:    slog.Default(),
		nodes:     make(map[string]Node),
		arena:     make([]slot, 1),
		observers: make(map[int]Observer),
	}
	for _, o := range opts {
		o(g)
	}
	return g
}

// AddNode adds n and all of its plugs to the graph.
func (g *Graph) AddNode(n Node) error {
	if !nodeid.ValidName(n.Name()) {
		return evalerr.New(evalerr.CodeInvalid, "addNode", "invalid node name %q", n.Name())
	}
	b := n.base()
	if b.graph != nil {
		return evalerr.New(evalerr.CodeInvalid, "addNode", "node %q already belongs to a graph", n.Name())
	}

	g.mu.Lock()
	if _, exists := g.nodes[n.Name()]; exists {
		g.mu.Unlock()
		return evalerr.New(evalerr.CodeInvalid, "addNode", "a node named %q already exists", n.Name())
	}
	g.nodes[n.Name()] = n
	g.order = append(g.order, n.Name())
	g.mu.Unlock()

	b.owner = n
	b.graph = g
	for _, p := range b.plugs {
		g.attachPlug(n, p)
	}
	g.logger.Debug("Node added.", "node", n.Name(), "type", n.TypeName())
	return nil
}

// attachPlug registers p and its descendants in the arena.
func (g *Graph) attachPlug(n Node, p *Plug) {
	g.mu.Lock()
	defer g.mu.Unlock()

	p.walk(func(q *Plug) {
		q.node = n
		q.graph = g
		q.fullName = n.Name() + "." + q.RelativeName()

		var idx uint32
		if k := len(g.free); k > 0 {
			idx = g.free[k-1]
			g.free = g.free[:k-1]
		} else {
			idx = uint32(len(g.arena))
			g.arena = append(g.arena, slot{})
		}
		s := &g.arena[idx]
		s.generation++
		s.plug = q
		q.handle = nodeid.Handle{Index: idx, Generation: s.generation}
	})
}

// RemoveNode disconnects and removes a node. Plugs it fed are disconnected
// and dirtied.
func (g *Graph) RemoveNode(name string) error {
	n := g.Node(name)
	if n == nil {
		return evalerr.New(evalerr.CodeNotFound, "removeNode", "no node named %q", name)
	}

	var plugs []*Plug
	for _, p := range n.Plugs() {
		p.walk(func(q *Plug) { plugs = append(plugs, q) })
	}

	// Plugs on other nodes lose their input.
	var changed []*Plug
	for _, p := range plugs {
		for _, dst := range g.outputs(p) {
			if dst.node != n {
				g.topo.ClearInput(dst.handle)
				changed = append(changed, dst)
			}
		}
	}

	g.mu.Lock()
	for _, p := range plugs {
		g.topo.Remove(p.handle)
		g.state.Delete(p.handle)
		s := &g.arena[p.handle.Index]
		s.plug = nil
		g.free = append(g.free, p.handle.Index)
	}
	delete(g.nodes, name)
	for i, o := range g.order {
		if o == name {
			g.order = append(g.order[:i], g.order[i+1:]...)
			break
		}
	}
	g.mu.Unlock()

	for _, p := range plugs {
		p.graph = nil
		p.handle = nodeid.Handle{}
	}
	b := n.base()
	b.graph = nil
	b.owner = nil

	for _, p := range changed {
		g.notifyInputChanged(p)
	}
	g.propagate(changed)
	g.logger.Debug("Node removed.", "node", name, "disconnected", len(changed))
	return nil
}

// Node returns the named node, or nil.
func (g *Graph) Node(name string) Node {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.nodes[name]
}

// Nodes returns all nodes in insertion order.
func (g *Graph) Nodes() []Node {
	g.mu.RLock()
	defer g.mu.RUnlock()
	out := make([]Node, 0, len(g.order))
	for _, name := range g.order {
		out = append(out, g.nodes[name])
	}
	return out
}

// Plug resolves a path such as `switch1.in[1]` or `add1.out`.
func (g *Graph) Plug(path string) (*Plug, error) {
	addr, err := nodeid.Parse(path)
	if err != nil {
		return nil, evalerr.New(evalerr.CodeInvalid, "plug", "%w", err)
	}
	n := g.Node(addr.Node())
	if n == nil {
		return nil, evalerr.New(evalerr.CodeNotFound, "plug", "no node named %q", addr.Node())
	}
	segments := addr.Plug()
	if len(segments) == 0 {
		return nil, evalerr.New(evalerr.CodeInvalid, "plug", "path %q names a node, not a plug", path)
	}

	var p *Plug
	for i, seg := range segments {
		if i == 0 {
			p = n.Plug(seg.Name)
		} else {
			p = p.Child(seg.Name)
		}
		if p == nil {
			return nil, evalerr.New(evalerr.CodeNotFound, "plug", "no plug %q in %q", seg.Name, path)
		}
		if seg.HasIndex() {
			p = p.ChildAt(seg.Index)
			if p == nil {
				return nil, evalerr.New(evalerr.CodeNotFound, "plug", "index %d out of range in %q", seg.Index, path)
			}
		}
	}
	return p, nil
}

// resolve returns the live plug for h, or nil for a stale handle.
func (g *Graph) resolve(h nodeid.Handle) *Plug {
	g.mu.RLock()
	defer g.mu.RUnlock()
	if h.Index == 0 || int(h.Index) >= len(g.arena) {
		return nil
	}
	s := g.arena[h.Index]
	if s.generation != h.Generation {
		return nil
	}
	return s.plug
}

func (g *Graph) input(p *Plug) *Plug {
	h, ok := g.topo.Input(p.handle)
	if !ok {
		return nil
	}
	return g.resolve(h)
}

func (g *Graph) outputs(p *Plug) []*Plug {
	hs := g.topo.Outputs(p.handle)
	out := make([]*Plug, 0, len(hs))
	for _, h := range hs {
		if q := g.resolve(h); q != nil {
			out = append(out, q)
		}
	}
	return out
}

func plugName(p *Plug) string {
	if p == nil {
		return "<nil>"
	}
	return p.FullName()
}

func (g *Graph) owns(p *Plug) bool {
	return p != nil && p.graph == g && g.resolve(p.handle) == p
}

// SetValue sets the static value of an unconnected plug and propagates
// dirtiness. Numeric values are converted to the plug type.
func (g *Graph) SetValue(p *Plug, v value.Value) error {
	if !g.owns(p) {
		return evalerr.New(evalerr.CodeNotFound, "setValue", "plug %s is not part of this graph", plugName(p))
	}
	if p.IsCompound() {
		return evalerr.New(evalerr.CodeInvalid, "setValue", "compound plug %s has no value", p)
	}
	if p.IsConnected() {
		return evalerr.New(evalerr.CodeInvalid, "setValue", "plug %s is connected", p)
	}
	if _, ok := p.node.(ComputeNode); ok && p.dir == Out {
		return evalerr.New(evalerr.CodeInvalid, "setValue", "plug %s is computed", p)
	}
	cv, err := value.Convert(v, p.typ)
	if err != nil {
		return evalerr.New(evalerr.CodeIncompatibleInput, "setValue", "plug %s: %w", p, err)
	}

	if old, ok := g.state.Value(p.handle); ok && value.Equal(old, cv) {
		return nil
	}
	g.state.SetValue(p.handle, cv)
	g.notifySet(p)
	g.propagate([]*Plug{p})
	return nil
}

// StaticValue returns the value set on p, or its default.
func (g *Graph) StaticValue(p *Plug) value.Value {
	if v, ok := g.state.Value(p.handle); ok {
		return v
	}
	return p.def
}

// DirtyCount returns how many propagation passes have reached p.
func (g *Graph) DirtyCount(p *Plug) uint64 {
	return g.state.DirtyCount(p.handle)
}

// Validate reports every node requirement that is not met, such as a
// required input left unconnected.
func (g *Graph) Validate() error {
	var result *multierror.Error
	for _, n := range g.Nodes() {
		v, ok := n.(Validator)
		if !ok {
			continue
		}
		if err := v.Validate(); err != nil {
			result = multierror.Append(result, fmt.Errorf("node %q: %w", n.Name(), err))
		}
	}
	return result.ErrorOrNil()
}
