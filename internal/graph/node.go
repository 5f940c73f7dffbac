package graph

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/vk/plugflow/internal/evalctx"
	"github.com/vk/plugflow/internal/hash"
	"github.com/vk/plugflow/internal/nodeid"
	"github.com/vk/plugflow/internal/value"
)

// Node owns an ordered set of plugs and describes which outputs depend on
// which inputs. Concrete nodes embed Base.
type Node interface {
	// Name is the node's unique name within its graph.
	Name() string
	// TypeName identifies the kind of node, e.g. "arithmetic".
	TypeName() string
	// Plugs returns the top-level plugs in declaration order.
	Plugs() []*Plug
	// Plug returns a top-level plug by name.
	Plug(name string) *Plug
	// Affects returns the outputs of this node that depend on input. It must
	// depend only on graph structure, never on values or context.
	Affects(input *Plug) []*Plug
	// AcceptsInput lets a node veto a connection to one of its plugs.
	AcceptsInput(dst, src *Plug) bool

	base() *Base
}

// ComputeNode is a node whose outputs are computed.
type ComputeNode interface {
	Node
	// Hash appends to h everything that affects the value of out: the node's
	// relevant parameter values, upstream hashes and consulted context
	// variables, in a fixed order.
	Hash(ev Evaluation, out *Plug, h *hash.Hasher) error
	// Compute produces the value of out. It may pull upstream values through
	// ev and must poll ev.Check in long loops.
	Compute(ev Evaluation, out *Plug) (value.Value, error)
}

// CachePolicy selects how the evaluation engine caches and shares a process.
type CachePolicy uint8

const (
	// Standard caches the result; concurrent requests block on one compute.
	Standard CachePolicy = iota
	// TaskCollaboration caches the result; concurrent requests help run the
	// compute's parallel subtasks while they wait.
	TaskCollaboration
	// TaskIsolation caches the result and runs the compute's subtasks in a
	// private arena; concurrent requests block without helping. The engine
	// currently isolates Standard computes as well, so the two policies
	// behave alike.
	TaskIsolation
	// Uncached recomputes on every request.
	Uncached
)

func (p CachePolicy) String() string {
	switch p {
	case Standard:
		return "standard"
	case TaskCollaboration:
		return "taskCollaboration"
	case TaskIsolation:
		return "taskIsolation"
	case Uncached:
		return "uncached"
	}
	return fmt.Sprintf("CachePolicy(%d)", uint8(p))
}

// CachePolicies is implemented by compute nodes that opt outputs out of the
// Standard policy.
type CachePolicies interface {
	ComputeCachePolicy(out *Plug) CachePolicy
	HashCachePolicy(out *Plug) CachePolicy
}

// PassThrough is implemented by compute nodes whose outputs can alias an
// input. PassThrough returns the input out is identical to, or nil when out
// must be computed.
type PassThrough interface {
	PassThrough(out *Plug) *Plug
}

// Validator is implemented by nodes that can report missing requirements at
// graph-construction time.
type Validator interface {
	Validate() error
}

// Evaluation is the view of an in-flight hash or compute process handed to
// node code. Upstream reads made through it are tracked and cached.
type Evaluation interface {
	// Ctx is the Go context of the evaluation.
	Ctx() context.Context
	// Context is the evaluation context.
	Context() *evalctx.Context
	// Hash returns the hash of p in the current context.
	Hash(p *Plug) (hash.Hash, error)
	// Value returns the value of p in the current context.
	Value(p *Plug) (value.Value, error)
	// With returns a view evaluating in c instead.
	With(c *evalctx.Context) Evaluation
	// Check returns evalerr.ErrCancelled once the evaluation is cancelled.
	Check() error
	// Parallel runs fn for i in [0, n) concurrently and returns the first
	// error.
	Parallel(n int, fn func(ev Evaluation, i int) error) error
	// Logger returns the evaluation logger.
	Logger() *slog.Logger
}

// Base implements plug ownership for concrete nodes.
type Base struct {
	name     string
	typeName string
	plugs    []*Plug

	owner Node
	graph *Graph
}

// NewBase initializes a Base for embedding.
func NewBase(typeName, name string) Base {
	return Base{name: name, typeName: typeName}
}

func (b *Base) base() *Base { return b }

// Name returns the node name.
func (b *Base) Name() string { return b.name }

// TypeName returns the node type.
func (b *Base) TypeName() string { return b.typeName }

// Plugs returns the top-level plugs.
func (b *Base) Plugs() []*Plug { return b.plugs }

// Plug returns a top-level plug by name, or nil.
func (b *Base) Plug(name string) *Plug {
	for _, p := range b.plugs {
		if p.name == name {
			return p
		}
	}
	return nil
}

// Affects reports no dependencies. Nodes with outputs override it.
func (b *Base) Affects(*Plug) []*Plug { return nil }

// AcceptsInput accepts every connection that passes the graph's own checks.
func (b *Base) AcceptsInput(dst, src *Plug) bool { return true }

// Graph returns the graph the node belongs to, if any.
func (b *Base) Graph() *Graph { return b.graph }

func (b *Base) addPlug(p *Plug) *Plug {
	if b.Plug(p.name) != nil {
		panic(fmt.Sprintf("graph: node %q already has a plug %q", b.name, p.name))
	}
	b.plugs = append(b.plugs, p)
	if b.graph != nil {
		p.flags |= Dynamic
		b.graph.attachPlug(b.owner, p)
	}
	return p
}

// AddInput adds a top-level input plug.
func (b *Base) AddInput(name string, t value.Type, opts ...PlugOption) *Plug {
	return b.addPlug(newPlug(name, In, t, opts...))
}

// AddOutput adds a top-level output plug.
func (b *Base) AddOutput(name string, t value.Type, opts ...PlugOption) *Plug {
	return b.addPlug(newPlug(name, Out, t, opts...))
}

// AddCompound adds a top-level compound plug. Children are added with
// Plug.AddChild.
func (b *Base) AddCompound(name string, dir Direction, opts ...PlugOption) *Plug {
	return b.addPlug(newPlug(name, dir, value.Invalid, opts...))
}

// Address returns the structured path of a plug.
func Address(p *Plug) *nodeid.Address {
	addr, err := nodeid.Parse(p.FullName())
	if err != nil {
		return &nodeid.Address{}
	}
	return addr
}
