package reflectbind

import (
	"fmt"
	"math"
	"reflect"

	"github.com/funvibe/latebind/pkg/dyn"
)

// applyPlan materializes one argument for its parameter slot.
func applyPlan(arg interface{}, plan argPlan) (reflect.Value, error) {
	switch plan.mode {
	case convZero:
		return reflect.Zero(plan.to), nil
	case convRange:
		out, ok := convertChecked(reflect.ValueOf(arg), plan.to)
		if !ok {
			return reflect.Value{}, &dyn.DispatchError{Failure: &dyn.BindFailure{
				Kind:   dyn.ArgumentMismatch,
				Reason: fmt.Sprintf("value %v does not fit in %s", arg, plan.to),
			}}
		}
		return out, nil
	case convFunc:
		in := reflect.ValueOf(arg)
		if pt := plan.fn.Type().In(0); !in.Type().AssignableTo(pt) {
			v, err := coerce(in, pt)
			if err != nil {
				return reflect.Value{}, err
			}
			in = v
		}
		results := plan.fn.Call([]reflect.Value{in})
		if len(results) == 2 {
			if e, _ := results[1].Interface().(error); e != nil {
				return reflect.Value{}, e
			}
		}
		out := results[0]
		if !out.Type().AssignableTo(plan.to) && out.Type().ConvertibleTo(plan.to) {
			out = out.Convert(plan.to)
		}
		return out, nil
	default:
		av := reflect.ValueOf(arg)
		// Direct and widening plans hold for every width sharing the
		// shape; the conversion here is always lossless.
		if !av.Type().AssignableTo(plan.to) {
			if !av.Type().ConvertibleTo(plan.to) {
				return reflect.Value{}, fmt.Errorf("cannot use %s as %s", av.Type(), plan.to)
			}
			av = av.Convert(plan.to)
		}
		return av, nil
	}
}

// convertChecked converts a numeric value, rejecting values the target
// type cannot represent instead of truncating them.
func convertChecked(av reflect.Value, pt reflect.Type) (reflect.Value, bool) {
	dst := reflect.New(pt).Elem()
	switch {
	case isFloatKind(av.Kind()):
		if !isFloatKind(pt.Kind()) {
			return reflect.Value{}, false
		}
		if dst.OverflowFloat(av.Float()) {
			return reflect.Value{}, false
		}
	case isUnsignedKind(av.Kind()):
		u := av.Uint()
		switch {
		case isFloatKind(pt.Kind()):
		case isUnsignedKind(pt.Kind()):
			if dst.OverflowUint(u) {
				return reflect.Value{}, false
			}
		default:
			if u > math.MaxInt64 || dst.OverflowInt(int64(u)) {
				return reflect.Value{}, false
			}
		}
	default:
		i := av.Int()
		switch {
		case isFloatKind(pt.Kind()):
		case isUnsignedKind(pt.Kind()):
			if i < 0 || dst.OverflowUint(uint64(i)) {
				return reflect.Value{}, false
			}
		default:
			if dst.OverflowInt(i) {
				return reflect.Value{}, false
			}
		}
	}
	return av.Convert(pt), true
}

// coerce adapts a value to a parameter type, range-checking numeric
// narrowing on the way.
func coerce(in reflect.Value, pt reflect.Type) (reflect.Value, error) {
	if isNumericKind(in.Kind()) && isNumericKind(pt.Kind()) {
		out, ok := convertChecked(in, pt)
		if !ok {
			return reflect.Value{}, &dyn.DispatchError{Failure: &dyn.BindFailure{
				Kind:   dyn.ArgumentMismatch,
				Reason: fmt.Sprintf("value %v does not fit in %s", in.Interface(), pt),
			}}
		}
		return out, nil
	}
	if !in.Type().ConvertibleTo(pt) {
		return reflect.Value{}, fmt.Errorf("cannot use %s as %s", in.Type(), pt)
	}
	return in.Convert(pt), nil
}

// invokePlanned calls fn with arguments materialized through their
// plans. A panic inside the call surfaces as an ordinary error; the
// call site classifies it as a target failure, not a dispatch one.
func invokePlanned(fn reflect.Value, plans []argPlan, args []interface{}) (out interface{}, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("invoking bound target: %v", r)
		}
	}()
	in := make([]reflect.Value, len(args))
	for i, arg := range args {
		v, aerr := applyPlan(arg, plans[i])
		if aerr != nil {
			return nil, aerr
		}
		in[i] = v
	}
	return collapseCall(fn, in)
}

// collapseCall performs the call and folds the results: a trailing
// declared error is split off, multiple values collapse to a slice.
func collapseCall(fn reflect.Value, in []reflect.Value) (interface{}, error) {
	results := fn.Call(in)
	ft := fn.Type()
	n := len(results)
	if n > 0 && ft.Out(n-1) == errorType {
		if e, _ := results[n-1].Interface().(error); e != nil {
			return nil, e
		}
		results = results[:n-1]
	}
	switch len(results) {
	case 0:
		return nil, nil
	case 1:
		return results[0].Interface(), nil
	default:
		out := make([]interface{}, len(results))
		for i, r := range results {
			out[i] = r.Interface()
		}
		return out, nil
	}
}
