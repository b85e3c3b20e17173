package reflectbind

import (
	"fmt"
	"reflect"

	"github.com/funvibe/latebind/internal/binding"
	"github.com/funvibe/latebind/internal/envelope"
	"github.com/funvibe/latebind/pkg/dyn"
)

func (b *Binder) resolveBinaryOp(op dyn.Op, envs []envelope.Envelope) (*binding.Binding, *dyn.BindFailure) {
	operator := op.Operator()
	left, right := envs[0], envs[1]

	if operator == "??" {
		return binding.New(func(values []interface{}) (interface{}, error) {
			if dyn.ShapeOf(values[0]).IsNull() {
				return values[1], nil
			}
			return values[0], nil
		}), nil
	}

	if left.IsNull() || right.IsNull() {
		if operator == "==" || operator == "!=" {
			negate := operator == "!="
			return binding.New(func(values []interface{}) (interface{}, error) {
				eq := dyn.ShapeOf(values[0]).IsNull() == dyn.ShapeOf(values[1]).IsNull() &&
					(dyn.ShapeOf(values[0]).IsNull() || equalValues(values[0], values[1]))
				return eq != negate, nil
			}), nil
		}
		side := "left"
		if !left.IsNull() {
			side = "right"
		}
		return nil, fail(op, envs, dyn.NullReceiver, true,
			"operator %q does not tolerate a null %s operand", operator, side)
	}

	// User operator tables: the left operand's table takes precedence,
	// then the right's, matching the natural reading order.
	operands := []interface{}{left.Value(), right.Value()}
	for _, sh := range [2]dyn.Shape{left.Shape(), right.Shape()} {
		fns := b.reg.Operators(sh, operator)
		if len(fns) == 0 {
			continue
		}
		c, failKind, reason := rankCandidates(fns, operands, b.reg)
		if reason != "" {
			if failKind == dyn.AmbiguousMatch {
				return nil, fail(op, envs, dyn.AmbiguousMatch, true, "%s", reason)
			}
			// Found a table but nothing applicable; try the next tier.
			continue
		}
		return binding.New(func(values []interface{}) (interface{}, error) {
			return invokePlanned(c.fn, c.plans, values)
		}), nil
	}

	if bnd := builtinOperator(operator, left.Shape(), right.Shape()); bnd != nil {
		return bnd, nil
	}
	return nil, fail(op, envs, dyn.MemberNotFound, true,
		"operator %q is not defined for (%s, %s)", operator, left.Shape(), right.Shape())
}

// builtinOperator covers the primitive operator tables: integer and
// float arithmetic with implicit int-to-float widening, string
// concatenation and ordering, boolean logic, and structural equality
// for matching reflected shapes.
func builtinOperator(operator string, left, right dyn.Shape) *binding.Binding {
	intShape := dyn.Primitive(dyn.IntShapeName)
	floatShape := dyn.Primitive(dyn.FloatShapeName)
	boolShape := dyn.Primitive(dyn.BoolShapeName)
	stringShape := dyn.Primitive(dyn.StringShapeName)

	switch {
	case left == intShape && right == intShape:
		if t := intOperatorThunk(operator); t != nil {
			return binding.New(t)
		}
	case (left == floatShape || left == intShape) && (right == floatShape || right == intShape):
		if t := floatOperatorThunk(operator); t != nil {
			return binding.New(t)
		}
	case left == stringShape && right == stringShape:
		if t := stringOperatorThunk(operator); t != nil {
			return binding.New(t)
		}
	case left == boolShape && right == boolShape:
		if t := boolOperatorThunk(operator); t != nil {
			return binding.New(t)
		}
	}
	if (operator == "==" || operator == "!=") && left == right {
		negate := operator == "!="
		return binding.New(func(values []interface{}) (interface{}, error) {
			return equalValues(values[0], values[1]) != negate, nil
		})
	}
	return nil
}

func intOperatorThunk(operator string) dyn.Thunk {
	var apply func(l, r int64) (interface{}, error)
	switch operator {
	case "+":
		apply = func(l, r int64) (interface{}, error) { return l + r, nil }
	case "-":
		apply = func(l, r int64) (interface{}, error) { return l - r, nil }
	case "*":
		apply = func(l, r int64) (interface{}, error) { return l * r, nil }
	case "/":
		apply = func(l, r int64) (interface{}, error) {
			if r == 0 {
				return nil, fmt.Errorf("integer division by zero")
			}
			return l / r, nil
		}
	case "%":
		apply = func(l, r int64) (interface{}, error) {
			if r == 0 {
				return nil, fmt.Errorf("integer modulo by zero")
			}
			return l % r, nil
		}
	case "&":
		apply = func(l, r int64) (interface{}, error) { return l & r, nil }
	case "|":
		apply = func(l, r int64) (interface{}, error) { return l | r, nil }
	case "^":
		apply = func(l, r int64) (interface{}, error) { return l ^ r, nil }
	case "<":
		apply = func(l, r int64) (interface{}, error) { return l < r, nil }
	case "<=":
		apply = func(l, r int64) (interface{}, error) { return l <= r, nil }
	case ">":
		apply = func(l, r int64) (interface{}, error) { return l > r, nil }
	case ">=":
		apply = func(l, r int64) (interface{}, error) { return l >= r, nil }
	case "==":
		apply = func(l, r int64) (interface{}, error) { return l == r, nil }
	case "!=":
		apply = func(l, r int64) (interface{}, error) { return l != r, nil }
	default:
		return nil
	}
	return func(values []interface{}) (interface{}, error) {
		l, _ := toInt64(values[0])
		r, _ := toInt64(values[1])
		return apply(l, r)
	}
}

func floatOperatorThunk(operator string) dyn.Thunk {
	var apply func(l, r float64) (interface{}, error)
	switch operator {
	case "+":
		apply = func(l, r float64) (interface{}, error) { return l + r, nil }
	case "-":
		apply = func(l, r float64) (interface{}, error) { return l - r, nil }
	case "*":
		apply = func(l, r float64) (interface{}, error) { return l * r, nil }
	case "/":
		apply = func(l, r float64) (interface{}, error) {
			if r == 0 {
				return nil, fmt.Errorf("float division by zero")
			}
			return l / r, nil
		}
	case "<":
		apply = func(l, r float64) (interface{}, error) { return l < r, nil }
	case "<=":
		apply = func(l, r float64) (interface{}, error) { return l <= r, nil }
	case ">":
		apply = func(l, r float64) (interface{}, error) { return l > r, nil }
	case ">=":
		apply = func(l, r float64) (interface{}, error) { return l >= r, nil }
	case "==":
		apply = func(l, r float64) (interface{}, error) { return l == r, nil }
	case "!=":
		apply = func(l, r float64) (interface{}, error) { return l != r, nil }
	default:
		return nil
	}
	return func(values []interface{}) (interface{}, error) {
		l, _ := toFloat64(values[0])
		r, _ := toFloat64(values[1])
		return apply(l, r)
	}
}

func stringOperatorThunk(operator string) dyn.Thunk {
	var apply func(l, r string) interface{}
	switch operator {
	case "+":
		apply = func(l, r string) interface{} { return l + r }
	case "<":
		apply = func(l, r string) interface{} { return l < r }
	case "<=":
		apply = func(l, r string) interface{} { return l <= r }
	case ">":
		apply = func(l, r string) interface{} { return l > r }
	case ">=":
		apply = func(l, r string) interface{} { return l >= r }
	case "==":
		apply = func(l, r string) interface{} { return l == r }
	case "!=":
		apply = func(l, r string) interface{} { return l != r }
	default:
		return nil
	}
	return func(values []interface{}) (interface{}, error) {
		return apply(toString(values[0]), toString(values[1])), nil
	}
}

func boolOperatorThunk(operator string) dyn.Thunk {
	var apply func(l, r bool) interface{}
	switch operator {
	case "&&":
		apply = func(l, r bool) interface{} { return l && r }
	case "||":
		apply = func(l, r bool) interface{} { return l || r }
	case "==":
		apply = func(l, r bool) interface{} { return l == r }
	case "!=":
		apply = func(l, r bool) interface{} { return l != r }
	default:
		return nil
	}
	return func(values []interface{}) (interface{}, error) {
		l, _ := values[0].(bool)
		r, _ := values[1].(bool)
		return apply(l, r), nil
	}
}

func toInt64(v interface{}) (int64, bool) {
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return rv.Int(), true
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return int64(rv.Uint()), true
	}
	return 0, false
}

func toFloat64(v interface{}) (float64, bool) {
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Float32, reflect.Float64:
		return rv.Float(), true
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return float64(rv.Int()), true
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return float64(rv.Uint()), true
	}
	return 0, false
}

func toString(v interface{}) string {
	if s, ok := v.(string); ok {
		return s
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() == reflect.String {
		return rv.String()
	}
	return fmt.Sprintf("%v", v)
}

// equalValues compares two non-null values, normalizing numerics so
// that operands sharing a primitive shape compare by magnitude.
func equalValues(a, b interface{}) bool {
	if la, ok := toInt64(a); ok {
		if lb, ok := toInt64(b); ok {
			return la == lb
		}
	}
	if fa, ok := toFloat64(a); ok {
		if fb, ok := toFloat64(b); ok {
			return fa == fb
		}
	}
	return reflect.DeepEqual(a, b)
}
