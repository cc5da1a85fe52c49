package calculator

import (
	"fmt"
	"math"
)

// Value is a series element that is either a defined number or undefined.
// The zero Value is undefined.
type Value struct {
	v  float64
	ok bool
}

// Defined wraps x as a defined value. NaN is treated as undefined.
func Defined(x float64) Value {
	if math.IsNaN(x) {
		return Value{}
	}
	return Value{v: x, ok: true}
}

// Undefined returns the undefined marker.
func Undefined() Value { return Value{} }

// IsDefined reports whether the value holds a number.
func (v Value) IsDefined() bool { return v.ok }

// Float returns the number and whether it is defined.
func (v Value) Float() (float64, bool) { return v.v, v.ok }

// OrZero returns the number, or 0 when undefined.
func (v Value) OrZero() float64 {
	if !v.ok {
		return 0
	}
	return v.v
}

func (v Value) String() string {
	if !v.ok {
		return "undefined"
	}
	return fmt.Sprintf("%g", v.v)
}

// Series is an ordered sequence aligned index-for-index with a bar sequence.
type Series []Value

// FromFloats converts plain numbers into a fully defined series.
func FromFloats(xs []float64) Series {
	s := make(Series, len(xs))
	for i, x := range xs {
		s[i] = Defined(x)
	}
	return s
}

// Floats returns the series as plain numbers with undefined positions set to 0.
func (s Series) Floats() []float64 {
	out := make([]float64, len(s))
	for i, v := range s {
		out[i] = v.OrZero()
	}
	return out
}

// FirstDefined returns the index of the first defined value, or -1.
func (s Series) FirstDefined() int {
	for i, v := range s {
		if v.ok {
			return i
		}
	}
	return -1
}

// Sub returns a-b element-wise. A position is undefined if either operand is.
// Panics if the lengths differ.
func Sub(a, b Series) Series {
	if len(a) != len(b) {
		panic(fmt.Sprintf("calculator: Sub length mismatch (%d vs %d)", len(a), len(b)))
	}
	out := make(Series, len(a))
	for i := range a {
		if a[i].ok && b[i].ok {
			out[i] = Value{v: a[i].v - b[i].v, ok: true}
		}
	}
	return out
}
