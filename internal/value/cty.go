package value

import (
	"fmt"
	"math/big"

	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/convert"
)

var ctyTypes = map[Type]cty.Type{
	Bool:         cty.Bool,
	Int:          cty.Number,
	Float:        cty.Number,
	String:       cty.String,
	IntVector:    cty.List(cty.Number),
	FloatVector:  cty.List(cty.Number),
	StringVector: cty.List(cty.String),
}

// FromCty converts a configuration value into a plug value of type t.
func FromCty(v cty.Value, t Type) (Value, error) {
	want, ok := ctyTypes[t]
	if !ok {
		return nil, fmt.Errorf("unsupported plug type %s", t)
	}
	if v.IsNull() || !v.IsKnown() {
		return nil, fmt.Errorf("value must be known and not null")
	}
	cv, err := convert.Convert(v, want)
	if err != nil {
		return nil, fmt.Errorf("cannot use %s as %s: %w", v.Type().FriendlyName(), t, err)
	}

	switch t {
	case Bool:
		return cv.True(), nil
	case Int:
		return numberToInt(cv.AsBigFloat())
	case Float:
		f, _ := cv.AsBigFloat().Float64()
		return f, nil
	case String:
		return cv.AsString(), nil
	case IntVector:
		out := make([]int64, 0, cv.LengthInt())
		for _, e := range cv.AsValueSlice() {
			i, err := numberToInt(e.AsBigFloat())
			if err != nil {
				return nil, err
			}
			out = append(out, i)
		}
		return out, nil
	case FloatVector:
		out := make([]float64, 0, cv.LengthInt())
		for _, e := range cv.AsValueSlice() {
			f, _ := e.AsBigFloat().Float64()
			out = append(out, f)
		}
		return out, nil
	case StringVector:
		out := make([]string, 0, cv.LengthInt())
		for _, e := range cv.AsValueSlice() {
			out = append(out, e.AsString())
		}
		return out, nil
	}
	return nil, fmt.Errorf("unsupported plug type %s", t)
}

func numberToInt(f *big.Float) (int64, error) {
	if !f.IsInt() {
		return 0, fmt.Errorf("%s is not a whole number", f.Text('g', -1))
	}
	i, acc := f.Int64()
	if acc != big.Exact {
		return 0, fmt.Errorf("%s overflows int", f.Text('g', -1))
	}
	return i, nil
}

// InferType picks the plug type for an untyped configuration literal, such
// as a context variable.
func InferType(v cty.Value) (Type, error) {
	ty := v.Type()
	switch {
	case ty == cty.Bool:
		return Bool, nil
	case ty == cty.String:
		return String, nil
	case ty == cty.Number:
		if v.IsKnown() && !v.IsNull() && v.AsBigFloat().IsInt() {
			return Int, nil
		}
		return Float, nil
	case ty.IsListType() || ty.IsTupleType() || ty.IsSetType():
		return inferVectorType(v)
	}
	return Invalid, fmt.Errorf("unsupported value of type %s", ty.FriendlyName())
}

func inferVectorType(v cty.Value) (Type, error) {
	if v.IsNull() || !v.IsKnown() || v.LengthInt() == 0 {
		return FloatVector, nil
	}
	elem := Invalid
	for _, e := range v.AsValueSlice() {
		t, err := InferType(e)
		if err != nil {
			return Invalid, err
		}
		switch {
		case elem == Invalid:
			elem = t
		case elem == Int && t == Float:
			elem = Float
		case elem == Float && t == Int:
		case elem != t:
			return Invalid, fmt.Errorf("mixed element types %s and %s", elem, t)
		}
	}
	switch elem {
	case Int:
		return IntVector, nil
	case Float:
		return FloatVector, nil
	case String:
		return StringVector, nil
	}
	return Invalid, fmt.Errorf("unsupported vector element type %s", elem)
}

// FromCtyInferred converts an untyped configuration literal.
func FromCtyInferred(v cty.Value) (Value, error) {
	t, err := InferType(v)
	if err != nil {
		return nil, err
	}
	return FromCty(v, t)
}

// ToCty converts a plug value into its configuration representation.
func ToCty(v Value) (cty.Value, error) {
	switch x := v.(type) {
	case bool:
		return cty.BoolVal(x), nil
	case int64:
		return cty.NumberIntVal(x), nil
	case float64:
		return cty.NumberFloatVal(x), nil
	case string:
		return cty.StringVal(x), nil
	case []int64:
		if len(x) == 0 {
			return cty.ListValEmpty(cty.Number), nil
		}
		vals := make([]cty.Value, len(x))
		for i, e := range x {
			vals[i] = cty.NumberIntVal(e)
		}
		return cty.ListVal(vals), nil
	case []float64:
		if len(x) == 0 {
			return cty.ListValEmpty(cty.Number), nil
		}
		vals := make([]cty.Value, len(x))
		for i, e := range x {
			vals[i] = cty.NumberFloatVal(e)
		}
		return cty.ListVal(vals), nil
	case []string:
		if len(x) == 0 {
			return cty.ListValEmpty(cty.String), nil
		}
		vals := make([]cty.Value, len(x))
		for i, e := range x {
			vals[i] = cty.StringVal(e)
		}
		return cty.ListVal(vals), nil
	}
	return cty.NilVal, fmt.Errorf("unsupported value %T", v)
}
