package reflectbind

import (
	"reflect"

	"github.com/funvibe/latebind/internal/binding"
	"github.com/funvibe/latebind/internal/envelope"
	"github.com/funvibe/latebind/pkg/dyn"
)

func (b *Binder) resolveConvert(op dyn.Op, envs []envelope.Envelope) (*binding.Binding, *dyn.BindFailure) {
	recv := envs[0]
	target := op.Target()
	if recv.IsNull() {
		return nil, fail(op, envs, dyn.NullReceiver, true,
			"cannot convert a null receiver to %s", target)
	}
	from := recv.Shape()

	// Primitive numeric and string targets canonicalize first, so every
	// width of a normalized class converts to the same representation.
	// Named numeric types widen to their primitive shape the same way.
	if target == dyn.Primitive(dyn.FloatShapeName) {
		if kindOfValueShape(recv) == numericInt || kindOfValueShape(recv) == numericFloat {
			return binding.New(func(values []interface{}) (interface{}, error) {
				f, _ := toFloat64(values[0])
				return f, nil
			}), nil
		}
	}
	if target == dyn.Primitive(dyn.IntShapeName) && kindOfValueShape(recv) == numericInt {
		return binding.New(func(values []interface{}) (interface{}, error) {
			i, _ := toInt64(values[0])
			return i, nil
		}), nil
	}
	if target == dyn.Primitive(dyn.StringShapeName) {
		if rt := reflect.TypeOf(recv.Value()); rt.Kind() == reflect.String {
			return binding.New(func(values []interface{}) (interface{}, error) {
				return toString(values[0]), nil
			}), nil
		}
	}

	if from == target {
		return binding.New(func(values []interface{}) (interface{}, error) {
			return values[0], nil
		}), nil
	}

	if fv, ok := b.reg.Conversion(from, target); ok {
		return binding.New(func(values []interface{}) (interface{}, error) {
			in := reflect.ValueOf(values[0])
			if pt := fv.Type().In(0); !in.Type().AssignableTo(pt) {
				v, err := coerce(in, pt)
				if err != nil {
					return nil, err
				}
				in = v
			}
			return collapseCall(fv, []reflect.Value{in})
		}), nil
	}

	return nil, fail(op, envs, dyn.MemberNotFound, true,
		"no conversion from %s to %s", from, target)
}

type numericClass int

const (
	numericNone numericClass = iota
	numericInt
	numericFloat
)

func kindOfValueShape(e envelope.Envelope) numericClass {
	rt := reflect.TypeOf(e.Value())
	if rt == nil {
		return numericNone
	}
	switch {
	case isFloatKind(rt.Kind()):
		return numericFloat
	case isNumericKind(rt.Kind()):
		return numericInt
	default:
		return numericNone
	}
}
