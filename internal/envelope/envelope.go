// Package envelope wraps one runtime value for the duration of a single
// dynamic operation: the value itself, its shape, and its meta-object
// if the value opts into custom binding.
package envelope

import (
	"fmt"

	"github.com/funvibe/latebind/pkg/dyn"
)

// Envelope is ephemeral: constructed fresh for each operation, never
// persisted, never mutating the underlying value.
type Envelope struct {
	value interface{}
	shape dyn.Shape
	meta  dyn.MetaObject
}

// Wrap computes the value's shape and performs the meta-object
// capability query. A nil value, typed nil pointers included, gets the
// reserved null shape and no meta-object.
func Wrap(v interface{}) Envelope {
	if v == nil {
		return Envelope{shape: dyn.Null}
	}
	sh := dyn.ShapeOf(v)
	if sh.IsNull() {
		return Envelope{value: v, shape: dyn.Null}
	}
	if p, ok := v.(dyn.Provider); ok {
		if mo := p.MetaObject(); mo != nil {
			if s, ok := mo.(dyn.Shaped); ok {
				sh = s.DynamicShape()
			} else {
				sh = dyn.Custom(fmt.Sprintf("%T", v))
			}
			return Envelope{value: v, shape: sh, meta: mo}
		}
	}
	return Envelope{value: v, shape: sh}
}

// WrapAll wraps each value in operand order.
func WrapAll(values []interface{}) []Envelope {
	envs := make([]Envelope, len(values))
	for i, v := range values {
		envs[i] = Wrap(v)
	}
	return envs
}

func (e Envelope) Value() interface{}   { return e.value }
func (e Envelope) Shape() dyn.Shape     { return e.shape }
func (e Envelope) Meta() dyn.MetaObject { return e.meta }
func (e Envelope) IsNull() bool         { return e.shape.IsNull() }

// Shapes extracts the shape tuple of a wrapped operand list.
func Shapes(envs []Envelope) []dyn.Shape {
	shapes := make([]dyn.Shape, len(envs))
	for i, e := range envs {
		shapes[i] = e.shape
	}
	return shapes
}
