package notify

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/vk/plugflow/internal/ctxlog"
	"github.com/vk/plugflow/internal/graph"
)

// Event names emitted by the Publisher.
const (
	EventPlugSet          = "plug_set"
	EventPlugInputChanged = "plug_input_changed"
	EventPlugDirtied      = "plug_dirtied"
)

// DefaultQueueSize is the number of events buffered before new ones are
// dropped.
const DefaultQueueSize = 1024

// Emitter sends one event to the remote side.
type Emitter interface {
	Emit(event string, payload map[string]any)
}

type message struct {
	event   string
	payload map[string]any
}

// Publisher is a graph.Observer that relays notifications to an Emitter.
type Publisher struct {
	emitter Emitter
	queue   chan message
	seq     atomic.Uint64
	dropped atomic.Uint64

	closeOnce sync.Once
	done      chan struct{}
}

// NewPublisher returns a Publisher with a queue of queueSize events. A
// size below one means DefaultQueueSize.
func NewPublisher(e Emitter, queueSize int) *Publisher {
	if queueSize < 1 {
		queueSize = DefaultQueueSize
	}
	return &Publisher{
		emitter: e,
		queue:   make(chan message, queueSize),
		done:    make(chan struct{}),
	}
}

// Run emits queued events until ctx is done or Close is called, then
// flushes whatever is still queued.
func (p *Publisher) Run(ctx context.Context) {
	logger := ctxlog.FromContext(ctx)
	logger.Debug("Notification publisher started.")
	defer logger.Debug("Notification publisher stopped.", "sent", p.seq.Load(), "dropped", p.dropped.Load())

	for {
		select {
		case m := <-p.queue:
			p.emitter.Emit(m.event, m.payload)
		case <-ctx.Done():
			p.flush()
			return
		case <-p.done:
			p.flush()
			return
		}
	}
}

func (p *Publisher) flush() {
	for {
		select {
		case m := <-p.queue:
			p.emitter.Emit(m.event, m.payload)
		default:
			return
		}
	}
}

// Close stops Run.
func (p *Publisher) Close() {
	p.closeOnce.Do(func() { close(p.done) })
}

// Dropped is the number of events discarded because the queue was full.
func (p *Publisher) Dropped() uint64 { return p.dropped.Load() }

// Attach subscribes p to g and returns the unsubscribe function.
func (p *Publisher) Attach(g *graph.Graph) func() {
	return g.Observe(p)
}

func (p *Publisher) PlugSet(pl *graph.Plug)          { p.publish(EventPlugSet, pl) }
func (p *Publisher) PlugInputChanged(pl *graph.Plug) { p.publish(EventPlugInputChanged, pl) }
func (p *Publisher) PlugDirtied(pl *graph.Plug)      { p.publish(EventPlugDirtied, pl) }

func (p *Publisher) publish(event string, pl *graph.Plug) {
	payload := map[string]any{
		"seq":  p.seq.Add(1),
		"plug": pl.FullName(),
		"type": pl.Type().String(),
	}
	if n := pl.Node(); n != nil {
		payload["node"] = n.Name()
		payload["node_type"] = n.TypeName()
	}
	if event == EventPlugInputChanged {
		if in := pl.Input(); in != nil {
			payload["input"] = in.FullName()
		}
	}
	select {
	case p.queue <- message{event: event, payload: payload}:
	default:
		p.dropped.Add(1)
	}
}
