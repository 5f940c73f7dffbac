package graph

import (
	"slices"
	"sync"
)

// Observer receives graph change notifications. Notifications are delivered
// on the goroutine making the edit. Handlers may edit the graph.
type Observer interface {
	PlugSet(p *Plug)
	PlugInputChanged(p *Plug)
	PlugDirtied(p *Plug)
}

// ObserverFuncs adapts plain functions to Observer. Nil fields are skipped.
type ObserverFuncs struct {
	Set          func(p *Plug)
	InputChanged func(p *Plug)
	Dirtied      func(p *Plug)
}

func (o ObserverFuncs) PlugSet(p *Plug) {
	if o.Set != nil {
		o.Set(p)
	}
}

func (o ObserverFuncs) PlugInputChanged(p *Plug) {
	if o.InputChanged != nil {
		o.InputChanged(p)
	}
}

func (o ObserverFuncs) PlugDirtied(p *Plug) {
	if o.Dirtied != nil {
		o.Dirtied(p)
	}
}

// Observe registers o and returns a function that unregisters it.
func (g *Graph) Observe(o Observer) (unsubscribe func()) {
	g.obsMu.Lock()
	id := g.nextObs
	g.nextObs++
	g.observers[id] = o
	g.obsMu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			g.obsMu.Lock()
			delete(g.observers, id)
			g.obsMu.Unlock()
		})
	}
}

// snapshot returns the observers in registration order. Iterating a
// snapshot keeps delivery safe when a handler subscribes or unsubscribes.
func (g *Graph) snapshot() []Observer {
	g.obsMu.Lock()
	defer g.obsMu.Unlock()
	ids := make([]int, 0, len(g.observers))
	for id := range g.observers {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	out := make([]Observer, len(ids))
	for i, id := range ids {
		out[i] = g.observers[id]
	}
	return out
}

func (g *Graph) notifySet(p *Plug) {
	for _, o := range g.snapshot() {
		o.PlugSet(p)
	}
}

func (g *Graph) notifyInputChanged(p *Plug) {
	for _, o := range g.snapshot() {
		o.PlugInputChanged(p)
	}
}

func (g *Graph) notifyDirtied(p *Plug) {
	for _, o := range g.snapshot() {
		o.PlugDirtied(p)
	}
}
