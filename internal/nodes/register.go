package nodes

import (
	"github.com/vk/plugflow/internal/graph"
	"github.com/vk/plugflow/internal/hash"
	"github.com/vk/plugflow/internal/registry"
	"github.com/vk/plugflow/internal/value"
)

// Module registers the standard node kinds.
type Module struct{}

// Register implements registry.Module.
func (Module) Register(r *registry.Registry) {
	for typeName, t := range constantTypes {
		r.Register(typeName, func(name string) graph.Node { return NewTypedConstant(typeName, name, t) })
	}
	r.Register(ArithmeticType, func(name string) graph.Node { return NewArithmetic(name) })
	r.Register(DotType, func(name string) graph.Node { return NewDot(name) })
	r.Register(SwitchType, func(name string) graph.Node { return NewSwitch(name, DefaultSwitchInputs) })
	r.Register(FrameType, func(name string) graph.Node { return NewFrame(name) })
	r.Register(ContextVariablesType, func(name string) graph.Node { return NewContextVariables(name) })
	r.Register(TimeWarpType, func(name string) graph.Node { return NewTimeWarp(name) })
	r.Register(CollectType, func(name string) graph.Node { return NewCollect(name) })
	r.Register(AccumulateType, func(name string) graph.Node { return NewAccumulate(name) })
	r.Register(TextType, func(name string) graph.Node { return NewText(name) })
	r.Register(SumType, func(name string) graph.Node { return NewSum(name) })
}

var constantTypes = map[string]value.Type{
	ConstantType:          value.Float,
	"intConstant":         value.Int,
	"boolConstant":        value.Bool,
	"stringConstant":      value.String,
	"floatVectorConstant": value.FloatVector,
}

// hashInputs appends the hashes of ps in order.
func hashInputs(ev graph.Evaluation, h *hash.Hasher, ps ...*graph.Plug) error {
	for _, p := range ps {
		ph, err := ev.Hash(p)
		if err != nil {
			return err
		}
		h.AppendHash(ph)
	}
	return nil
}

func floatValue(ev graph.Evaluation, p *graph.Plug) (float64, error) {
	v, err := ev.Value(p)
	if err != nil {
		return 0, err
	}
	return v.(float64), nil
}

func intValue(ev graph.Evaluation, p *graph.Plug) (int64, error) {
	v, err := ev.Value(p)
	if err != nil {
		return 0, err
	}
	return v.(int64), nil
}

func stringValue(ev graph.Evaluation, p *graph.Plug) (string, error) {
	v, err := ev.Value(p)
	if err != nil {
		return "", err
	}
	return v.(string), nil
}

