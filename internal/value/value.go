// Package value defines the closed set of types a plug can carry, together
// with hashing, cost estimation and conversion for those types.
//
// Values are immutable once handed to a plug or stored in the cache. Vector
// values in particular must not be modified after being returned from a
// compute.
package value

import (
	"fmt"
	"math"
	"slices"

	"github.com/vk/plugflow/internal/hash"
)

// Value is an immutable plug value. Its dynamic type is one of bool, int64,
// float64, string, []int64, []float64 or []string.
type Value = any

// Type enumerates the plug value types.
type Type uint8

const (
	Invalid Type = iota
	Bool
	Int
	Float
	String
	IntVector
	FloatVector
	StringVector
)

var typeNames = map[Type]string{
	Invalid:      "invalid",
	Bool:         "bool",
	Int:          "int",
	Float:        "float",
	String:       "string",
	IntVector:    "intVector",
	FloatVector:  "floatVector",
	StringVector: "stringVector",
}

func (t Type) String() string {
	if n, ok := typeNames[t]; ok {
		return n
	}
	return fmt.Sprintf("Type(%d)", uint8(t))
}

// ParseType is the inverse of Type.String.
func ParseType(s string) (Type, error) {
	for t, n := range typeNames {
		if n == s && t != Invalid {
			return t, nil
		}
	}
	return Invalid, fmt.Errorf("unknown value type %q", s)
}

// IsNumeric reports whether t is a numeric scalar. Numeric scalars convert
// freely into one another across connections.
func (t Type) IsNumeric() bool {
	return t == Bool || t == Int || t == Float
}

// TypeOf returns the Type of v, or Invalid if v is not a plug value.
func TypeOf(v Value) Type {
	switch v.(type) {
	case bool:
		return Bool
	case int64:
		return Int
	case float64:
		return Float
	case string:
		return String
	case []int64:
		return IntVector
	case []float64:
		return FloatVector
	case []string:
		return StringVector
	}
	return Invalid
}

// Default returns the zero value of t.
func Default(t Type) Value {
	switch t {
	case Bool:
		return false
	case Int:
		return int64(0)
	case Float:
		return float64(0)
	case String:
		return ""
	case IntVector:
		return []int64{}
	case FloatVector:
		return []float64{}
	case StringVector:
		return []string{}
	}
	return nil
}

// Compatible reports whether a plug of type dst may take its input from a
// plug of type src.
func Compatible(dst, src Type) bool {
	if dst == Invalid || src == Invalid {
		return false
	}
	return dst == src || (dst.IsNumeric() && src.IsNumeric())
}

// Convert converts v to type t. Only conversions allowed by Compatible are
// supported.
func Convert(v Value, t Type) (Value, error) {
	from := TypeOf(v)
	if from == t {
		return v, nil
	}
	if !Compatible(t, from) {
		return nil, fmt.Errorf("cannot convert %s to %s", from, t)
	}
	var f float64
	switch x := v.(type) {
	case bool:
		if x {
			f = 1
		}
	case int64:
		f = float64(x)
	case float64:
		f = x
	}
	switch t {
	case Bool:
		return f != 0, nil
	case Int:
		return int64(math.Trunc(f)), nil
	default:
		return f, nil
	}
}

// Append hashes v into h, prefixed with its type tag.
func Append(h *hash.Hasher, v Value) {
	h.AppendTag(TypeOf(v).String())
	switch x := v.(type) {
	case bool:
		h.AppendBool(x)
	case int64:
		h.AppendInt(x)
	case float64:
		h.AppendFloat(x)
	case string:
		h.AppendString(x)
	case []int64:
		h.AppendUint(uint64(len(x)))
		for _, e := range x {
			h.AppendInt(e)
		}
	case []float64:
		h.AppendUint(uint64(len(x)))
		for _, e := range x {
			h.AppendFloat(e)
		}
	case []string:
		h.AppendUint(uint64(len(x)))
		for _, e := range x {
			h.AppendString(e)
		}
	}
}

// Hash returns the standalone hash of v.
func Hash(v Value) hash.Hash {
	h := hash.NewDomain(hash.DomainValue)
	Append(h, v)
	return h.Sum()
}

// Coster is implemented by values that know their own memory cost.
type Coster interface {
	Cost() uint64
}

// Cost estimates the memory held by v, in bytes.
func Cost(v Value) uint64 {
	const header = 16
	switch x := v.(type) {
	case Coster:
		return x.Cost()
	case bool, int64, float64:
		return header + 8
	case string:
		return header + uint64(len(x))
	case []int64:
		return header + 8 + 8*uint64(len(x))
	case []float64:
		return header + 8 + 8*uint64(len(x))
	case []string:
		c := uint64(header + 8)
		for _, s := range x {
			c += header + uint64(len(s))
		}
		return c
	}
	return header
}

// Equal reports whether a and b are the same type and value.
func Equal(a, b Value) bool {
	switch x := a.(type) {
	case []int64:
		y, ok := b.([]int64)
		return ok && slices.Equal(x, y)
	case []float64:
		y, ok := b.([]float64)
		return ok && slices.Equal(x, y)
	case []string:
		y, ok := b.([]string)
		return ok && slices.Equal(x, y)
	}
	if TypeOf(a) != TypeOf(b) {
		return false
	}
	return a == b
}

// Format renders v for diagnostics and text output.
func Format(v Value) string {
	switch x := v.(type) {
	case string:
		return fmt.Sprintf("%q", x)
	case float64:
		return fmt.Sprintf("%g", x)
	case nil:
		return "<nil>"
	}
	return fmt.Sprint(v)
}
