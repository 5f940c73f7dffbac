// Package evalctx implements the immutable evaluation context: the frame and
// the named, typed variables that parameterize every hash and compute.
//
// A Context is never modified once built. Scoped overrides are made with an
// Editor, which produces a new Context sharing the unchanged entries of its
// base.
package evalctx

import (
	"fmt"
	"slices"
	"strings"
	"sync"

	"github.com/vk/plugflow/internal/hash"
	"github.com/vk/plugflow/internal/value"
)

const (
	// FrameName is the variable holding the current frame.
	FrameName = "frame"
	// FramesPerSecondName is the variable holding the frame rate.
	FramesPerSecondName = "framesPerSecond"
	// UIPrefix marks variables that never affect computation. They are
	// excluded from the hash and from equality.
	UIPrefix = "ui:"
)

type entry struct {
	value value.Value
	hash  hash.Hash
}

func newEntry(name string, v value.Value) entry {
	h := hash.NewDomain(hash.DomainContext)
	h.AppendString(name)
	value.Append(h, v)
	return entry{value: v, hash: h.Sum()}
}

// Context is an immutable set of named variables.
type Context struct {
	vars      map[string]entry
	canceller *Canceller

	hashOnce sync.Once
	hash     hash.Hash
}

// New returns a context holding the default frame (1) and frame rate (24).
func New() *Context {
	return &Context{vars: map[string]entry{
		FrameName:           newEntry(FrameName, 1.0),
		FramesPerSecondName: newEntry(FramesPerSecondName, 24.0),
	}}
}

// Get returns the named variable.
func (c *Context) Get(name string) (value.Value, bool) {
	e, ok := c.vars[name]
	return e.value, ok
}

// GetDefault returns the named variable, or def when it is missing.
func (c *Context) GetDefault(name string, def value.Value) value.Value {
	if v, ok := c.Get(name); ok {
		return v
	}
	return def
}

// Frame returns the current frame.
func (c *Context) Frame() float64 {
	return c.float(FrameName, 1)
}

// FramesPerSecond returns the frame rate.
func (c *Context) FramesPerSecond() float64 {
	return c.float(FramesPerSecondName, 24)
}

// Time returns the current time in seconds.
func (c *Context) Time() float64 {
	return c.Frame() / c.FramesPerSecond()
}

func (c *Context) float(name string, def float64) float64 {
	v, ok := c.Get(name)
	if !ok {
		return def
	}
	f, err := value.Convert(v, value.Float)
	if err != nil {
		return def
	}
	return f.(float64)
}

// Names returns the variable names in sorted order.
func (c *Context) Names() []string {
	names := make([]string, 0, len(c.vars))
	for n := range c.vars {
		names = append(names, n)
	}
	slices.Sort(names)
	return names
}

// Len returns the number of variables.
func (c *Context) Len() int {
	return len(c.vars)
}

// Canceller returns the cancellation handle attached to the context, if any.
func (c *Context) Canceller() *Canceller {
	return c.canceller
}

// Hash returns the hash of all variables except ui: ones. It does not
// depend on the order in which variables were set.
func (c *Context) Hash() hash.Hash {
	c.hashOnce.Do(func() {
		h := hash.NewDomain(hash.DomainContext)
		for _, n := range c.Names() {
			if strings.HasPrefix(n, UIPrefix) {
				continue
			}
			h.AppendHash(c.vars[n].hash)
		}
		c.hash = h.Sum()
	})
	return c.hash
}

// VariableHash returns the hash of a single variable, including its name.
// Nodes append it for each variable they consult. A missing variable has a
// stable hash of its own.
func (c *Context) VariableHash(name string) hash.Hash {
	if e, ok := c.vars[name]; ok {
		return e.hash
	}
	return hash.NewDomain(hash.DomainContext).AppendString(name).AppendTag("missing").Sum()
}

// Equal reports whether both contexts hold the same variables, ignoring ui:
// variables and the canceller.
func (c *Context) Equal(o *Context) bool {
	if c == o {
		return true
	}
	if c == nil || o == nil {
		return false
	}
	return c.Hash() == o.Hash()
}

// String summarizes the context for error messages.
func (c *Context) String() string {
	if c == nil {
		return "{}"
	}
	var sb strings.Builder
	sb.WriteByte('{')
	for i, n := range c.Names() {
		if i > 0 {
			sb.WriteString(", ")
		}
		fmt.Fprintf(&sb, "%s: %s", n, value.Format(c.vars[n].value))
	}
	sb.WriteByte('}')
	return sb.String()
}

// Edit starts a scoped edit of c.
func (c *Context) Edit() *Editor {
	return &Editor{base: c, canceller: c.canceller}
}

// With returns a copy of c with one variable set.
func (c *Context) With(name string, v value.Value) (*Context, error) {
	e := c.Edit()
	if err := e.Set(name, v); err != nil {
		return nil, err
	}
	return e.Context(), nil
}

// WithFrame returns a copy of c at another frame.
func (c *Context) WithFrame(frame float64) *Context {
	return c.Edit().SetFrame(frame).Context()
}

// Editor accumulates overrides on top of a base context. The base is never
// modified.
type Editor struct {
	base      *Context
	set       map[string]entry
	removed   map[string]struct{}
	canceller *Canceller
}

// Set overrides a variable. Only plug value types are accepted.
func (e *Editor) Set(name string, v value.Value) error {
	if name == "" {
		return fmt.Errorf("context variable name must not be empty")
	}
	if value.TypeOf(v) == value.Invalid {
		return fmt.Errorf("context variable %q: unsupported value type %T", name, v)
	}
	if e.set == nil {
		e.set = make(map[string]entry)
	}
	e.set[name] = newEntry(name, v)
	delete(e.removed, name)
	return nil
}

// SetFrame overrides the frame.
func (e *Editor) SetFrame(frame float64) *Editor {
	_ = e.Set(FrameName, frame)
	return e
}

// SetFramesPerSecond overrides the frame rate.
func (e *Editor) SetFramesPerSecond(fps float64) *Editor {
	_ = e.Set(FramesPerSecondName, fps)
	return e
}

// Remove drops a variable.
func (e *Editor) Remove(name string) *Editor {
	if e.removed == nil {
		e.removed = make(map[string]struct{})
	}
	e.removed[name] = struct{}{}
	delete(e.set, name)
	return e
}

// SetCanceller attaches a cancellation handle.
func (e *Editor) SetCanceller(c *Canceller) *Editor {
	e.canceller = c
	return e
}

// Context freezes the edit into a new Context. The editor may keep being
// used; later edits do not affect contexts already returned.
func (e *Editor) Context() *Context {
	if len(e.set) == 0 && len(e.removed) == 0 && e.canceller == e.base.canceller {
		return e.base
	}
	vars := make(map[string]entry, len(e.base.vars)+len(e.set))
	for n, en := range e.base.vars {
		if _, gone := e.removed[n]; !gone {
			vars[n] = en
		}
	}
	for n, en := range e.set {
		vars[n] = en
	}
	return &Context{vars: vars, canceller: e.canceller}
}
