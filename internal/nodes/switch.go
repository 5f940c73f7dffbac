package nodes

import (
	"fmt"

	"github.com/vk/plugflow/internal/graph"
	"github.com/vk/plugflow/internal/hash"
	"github.com/vk/plugflow/internal/value"
)

const SwitchType = "switch"

// DefaultSwitchInputs is the input count of switches built by the registry.
const DefaultSwitchInputs = 4

// Switch outputs one of its inputs, chosen by index. The index wraps
// around the input count. With a static index the output is a
// pass-through of the selected input; a connected index is evaluated per
// context.
type Switch struct {
	graph.Base
	Index  *graph.Plug
	Inputs []*graph.Plug
	Out    *graph.Plug
}

func NewSwitch(name string, inputs int) *Switch {
	n := &Switch{Base: graph.NewBase(SwitchType, name)}
	n.Index = n.AddInput("index", value.Int)
	for i := 0; i < inputs; i++ {
		n.Inputs = append(n.Inputs, n.AddInput(fmt.Sprintf("in%d", i), value.Float))
	}
	n.Out = n.AddOutput("out", value.Float)
	return n
}

func (n *Switch) Affects(p *graph.Plug) []*graph.Plug {
	if p == n.Index {
		return []*graph.Plug{n.Out}
	}
	for _, in := range n.Inputs {
		if p == in {
			return []*graph.Plug{n.Out}
		}
	}
	return nil
}

func (n *Switch) wrap(index int64) *graph.Plug {
	count := int64(len(n.Inputs))
	if count == 0 {
		return nil
	}
	i := index % count
	if i < 0 {
		i += count
	}
	return n.Inputs[i]
}

// PassThrough returns the selected input when the index is static.
func (n *Switch) PassThrough(*graph.Plug) *graph.Plug {
	if n.Index.IsConnected() || n.Graph() == nil {
		return nil
	}
	return n.wrap(n.Graph().StaticValue(n.Index).(int64))
}

func (n *Switch) selected(ev graph.Evaluation) (*graph.Plug, error) {
	index, err := intValue(ev, n.Index)
	if err != nil {
		return nil, err
	}
	in := n.wrap(index)
	if in == nil {
		return nil, fmt.Errorf("switch %q has no inputs", n.Name())
	}
	return in, nil
}

func (n *Switch) Hash(ev graph.Evaluation, _ *graph.Plug, h *hash.Hasher) error {
	in, err := n.selected(ev)
	if err != nil {
		return err
	}
	return hashInputs(ev, h, in)
}

func (n *Switch) Compute(ev graph.Evaluation, _ *graph.Plug) (value.Value, error) {
	in, err := n.selected(ev)
	if err != nil {
		return nil, err
	}
	return ev.Value(in)
}
