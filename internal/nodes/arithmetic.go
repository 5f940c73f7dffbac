package nodes

import (
	"errors"
	"fmt"

	"github.com/vk/plugflow/internal/graph"
	"github.com/vk/plugflow/internal/hash"
	"github.com/vk/plugflow/internal/value"
)

const ArithmeticType = "arithmetic"

// Operations understood by Arithmetic.
const (
	OpAdd      = "add"
	OpSubtract = "subtract"
	OpMultiply = "multiply"
	OpDivide   = "divide"
)

// ErrDivisionByZero is returned when dividing by zero.
var ErrDivisionByZero = errors.New("division by zero")

// Arithmetic applies a binary operation to a and b.
type Arithmetic struct {
	graph.Base
	Operation, A, B, Out *graph.Plug
}

func NewArithmetic(name string) *Arithmetic {
	n := &Arithmetic{Base: graph.NewBase(ArithmeticType, name)}
	n.Operation = n.AddInput("operation", value.String, graph.WithDefault(OpAdd))
	n.A = n.AddInput("a", value.Float)
	n.B = n.AddInput("b", value.Float)
	n.Out = n.AddOutput("out", value.Float)
	return n
}

func (n *Arithmetic) Affects(p *graph.Plug) []*graph.Plug {
	switch p {
	case n.Operation, n.A, n.B:
		return []*graph.Plug{n.Out}
	}
	return nil
}

// Validate rejects an unknown static operation.
func (n *Arithmetic) Validate() error {
	if n.Operation.IsConnected() || n.Graph() == nil {
		return nil
	}
	op := n.Graph().StaticValue(n.Operation).(string)
	if _, err := apply(op, 0, 1); err != nil && !errors.Is(err, ErrDivisionByZero) {
		return err
	}
	return nil
}

func (n *Arithmetic) Hash(ev graph.Evaluation, _ *graph.Plug, h *hash.Hasher) error {
	return hashInputs(ev, h, n.Operation, n.A, n.B)
}

func (n *Arithmetic) Compute(ev graph.Evaluation, _ *graph.Plug) (value.Value, error) {
	op, err := stringValue(ev, n.Operation)
	if err != nil {
		return nil, err
	}
	a, err := floatValue(ev, n.A)
	if err != nil {
		return nil, err
	}
	b, err := floatValue(ev, n.B)
	if err != nil {
		return nil, err
	}
	r, err := apply(op, a, b)
	if err != nil {
		return nil, err
	}
	return r, nil
}

func apply(op string, a, b float64) (float64, error) {
	switch op {
	case OpAdd:
		return a + b, nil
	case OpSubtract:
		return a - b, nil
	case OpMultiply:
		return a * b, nil
	case OpDivide:
		if b == 0 {
			return 0, ErrDivisionByZero
		}
		return a / b, nil
	}
	return 0, fmt.Errorf("unknown operation %q", op)
}
