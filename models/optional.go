package models

import (
	"encoding/json"
	"math"
)

// Opt is a value that is either present or absent. Absent numerics stay
// absent through every computation instead of collapsing to zero.
type Opt[T any] struct {
	val T
	ok  bool
}

// Some wraps a present value.
func Some[T any](v T) Opt[T] {
	return Opt[T]{val: v, ok: true}
}

// None returns an absent value.
func None[T any]() Opt[T] {
	return Opt[T]{}
}

// Get returns the value and whether it is present.
func (o Opt[T]) Get() (T, bool) {
	return o.val, o.ok
}

// Present reports whether a value is held.
func (o Opt[T]) Present() bool {
	return o.ok
}

// Or returns the held value, or fallback when absent.
func (o Opt[T]) Or(fallback T) T {
	if o.ok {
		return o.val
	}
	return fallback
}

func (o Opt[T]) MarshalJSON() ([]byte, error) {
	if !o.ok {
		return []byte("null"), nil
	}
	return json.Marshal(o.val)
}

func (o *Opt[T]) UnmarshalJSON(b []byte) error {
	if string(b) == "null" {
		*o = Opt[T]{}
		return nil
	}
	var v T
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	*o = Some(v)
	return nil
}

// Float is the optional numeric used for sizes and prices.
type Float = Opt[float64]

// Int is the optional integer used for bedroom and bath counts.
type Int = Opt[int]

// FiniteFloat returns an absent value for NaN and ±Inf.
func FiniteFloat(f float64) Float {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return None[float64]()
	}
	return Some(f)
}

// Mean returns the arithmetic mean of the present values, absent if none are present.
func Mean(values []Float) Float {
	var total float64
	var n int
	for _, v := range values {
		if f, ok := v.Get(); ok {
			total += f
			n++
		}
	}
	if n == 0 {
		return None[float64]()
	}
	return FiniteFloat(total / float64(n))
}
