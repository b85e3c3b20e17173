package reflectbind

import (
	"fmt"
	"reflect"

	"github.com/funvibe/latebind/pkg/dyn"
)

// Conversion costs for overload ranking: exact match beats widening
// numeric conversion beats range-checked narrowing beats user-defined
// implicit conversion beats a variadic catch-all slot. Ties across
// whole candidates are a hard error, never a silent pick.
const (
	costExact     = 0
	costWidening  = 1
	costNarrowing = 2
	costImplicit  = 3
	costVariadic  = 4
)

type convMode int

const (
	convDirect convMode = iota
	convWiden
	convRange
	convFunc
	convZero
)

// argPlan records how one argument reaches one parameter slot.
type argPlan struct {
	mode convMode
	to   reflect.Type
	fn   reflect.Value // registry conversion, convFunc only
}

// planArg decides how an argument can fill a parameter of type pt,
// returning the plan and its ranking cost. Operands whose shape is a
// normalized primitive are planned against the whole class, never the
// first-seen width: the plan is cached per shape tuple and has to stay
// valid for every value carrying that tuple.
func planArg(arg interface{}, pt reflect.Type, reg *Registry) (argPlan, int, bool) {
	if arg == nil {
		switch pt.Kind() {
		case reflect.Ptr, reflect.Interface, reflect.Map, reflect.Slice, reflect.Chan, reflect.Func:
			return argPlan{mode: convZero, to: pt}, costExact, true
		}
		return argPlan{}, 0, false
	}
	at := reflect.TypeOf(arg)
	if cls := primitiveClass(at); cls != classNone {
		return planClassArg(cls, pt, reg)
	}
	if at.AssignableTo(pt) {
		return argPlan{mode: convDirect, to: pt}, costExact, true
	}
	if isWideningNumeric(at, pt) {
		return argPlan{mode: convWiden, to: pt}, costWidening, true
	}
	if fv, ok := reg.Conversion(dyn.ShapeForType(at), dyn.ShapeForType(pt)); ok {
		return argPlan{mode: convFunc, to: pt, fn: fv}, costImplicit, true
	}
	return argPlan{}, 0, false
}

// primClass mirrors the primitive shape normalization: every
// predeclared integer width is one class, both float widths another.
type primClass int

const (
	classNone primClass = iota
	classInt
	classFloat
	classBool
	classString
)

func primitiveClass(rt reflect.Type) primClass {
	if rt == nil || rt.PkgPath() != "" {
		return classNone
	}
	switch rt.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return classInt
	case reflect.Float32, reflect.Float64:
		return classFloat
	case reflect.Bool:
		return classBool
	case reflect.String:
		return classString
	}
	return classNone
}

func classShape(cls primClass) dyn.Shape {
	switch cls {
	case classInt:
		return dyn.Primitive(dyn.IntShapeName)
	case classFloat:
		return dyn.Primitive(dyn.FloatShapeName)
	case classBool:
		return dyn.Primitive(dyn.BoolShapeName)
	default:
		return dyn.Primitive(dyn.StringShapeName)
	}
}

func classRepresentative(cls primClass) reflect.Type {
	switch cls {
	case classInt:
		return reflect.TypeOf(int64(0))
	case classFloat:
		return reflect.TypeOf(float64(0))
	case classBool:
		return reflect.TypeOf(false)
	default:
		return reflect.TypeOf("")
	}
}

// planClassArg plans one normalized-primitive argument. Narrowing into
// a parameter that cannot hold the whole class carries a range check
// executed per call, so a single plan serves every width sharing the
// shape instead of baking in the width that happened to arrive first.
func planClassArg(cls primClass, pt reflect.Type, reg *Registry) (argPlan, int, bool) {
	if pt.Kind() == reflect.Interface && classRepresentative(cls).Implements(pt) {
		return argPlan{mode: convDirect, to: pt}, costExact, true
	}
	if pt.PkgPath() == "" {
		switch cls {
		case classBool:
			if pt.Kind() == reflect.Bool {
				return argPlan{mode: convDirect, to: pt}, costExact, true
			}
		case classString:
			if pt.Kind() == reflect.String {
				return argPlan{mode: convDirect, to: pt}, costExact, true
			}
		case classInt:
			switch {
			case pt.Kind() == reflect.Int || pt.Kind() == reflect.Int64:
				return argPlan{mode: convRange, to: pt}, costExact, true
			case isFloatKind(pt.Kind()):
				return argPlan{mode: convWiden, to: pt}, costWidening, true
			case isNumericKind(pt.Kind()):
				return argPlan{mode: convRange, to: pt}, costNarrowing, true
			}
		case classFloat:
			switch pt.Kind() {
			case reflect.Float64:
				return argPlan{mode: convWiden, to: pt}, costExact, true
			case reflect.Float32:
				return argPlan{mode: convRange, to: pt}, costNarrowing, true
			}
		}
	}
	if fv, ok := reg.Conversion(classShape(cls), dyn.ShapeForType(pt)); ok {
		return argPlan{mode: convFunc, to: pt, fn: fv}, costImplicit, true
	}
	return argPlan{}, 0, false
}

// isWideningNumeric reports whether from can widen into to without loss
// of range: an integer into a wider integer or any float, float32 into
// float64.
func isWideningNumeric(from, to reflect.Type) bool {
	fk, tk := from.Kind(), to.Kind()
	if !isNumericKind(fk) || !isNumericKind(tk) {
		return false
	}
	if isFloatKind(fk) {
		return fk == reflect.Float32 && tk == reflect.Float64
	}
	if isFloatKind(tk) {
		return true
	}
	fu, tu := isUnsignedKind(fk), isUnsignedKind(tk)
	fb, tb := kindBits(fk), kindBits(tk)
	switch {
	case fu == tu:
		return tb >= fb
	case fu && !tu:
		// unsigned into a strictly wider signed integer
		return tb > fb
	default:
		return false
	}
}

func isNumericKind(k reflect.Kind) bool {
	return k >= reflect.Int && k <= reflect.Uint64 || isFloatKind(k)
}

func isFloatKind(k reflect.Kind) bool {
	return k == reflect.Float32 || k == reflect.Float64
}

func isUnsignedKind(k reflect.Kind) bool {
	return k >= reflect.Uint && k <= reflect.Uint64
}

func kindBits(k reflect.Kind) int {
	switch k {
	case reflect.Int8, reflect.Uint8:
		return 8
	case reflect.Int16, reflect.Uint16:
		return 16
	case reflect.Int32, reflect.Uint32, reflect.Float32:
		return 32
	default:
		return 64
	}
}

// candidate pairs a callable with the plans and total cost of applying
// it to the operands under consideration.
type candidate struct {
	fn    reflect.Value
	plans []argPlan
	cost  int
}

// rankCandidates applies overload ranking over a candidate set, using
// the concrete operand values for cost computation. It returns the
// single best candidate, or a failure kind: ambiguous when two
// candidates tie on the lowest cost, mismatch when none is applicable.
func rankCandidates(fns []reflect.Value, operands []interface{}, reg *Registry) (candidate, dyn.FailKind, string) {
	var best candidate
	found := false
	tied := false
	for _, fv := range fns {
		c, ok := planCandidate(fv, operands, reg)
		if !ok {
			continue
		}
		switch {
		case !found || c.cost < best.cost:
			best, found, tied = c, true, false
		case c.cost == best.cost:
			tied = true
		}
	}
	if !found {
		return candidate{}, dyn.ArgumentMismatch,
			fmt.Sprintf("no overload accepts %d argument(s) of the supplied types", len(operands))
	}
	if tied {
		return candidate{}, dyn.AmbiguousMatch,
			fmt.Sprintf("two or more overloads rank equally at cost %d", best.cost)
	}
	return best, 0, ""
}

func planCandidate(fv reflect.Value, operands []interface{}, reg *Registry) (candidate, bool) {
	ft := fv.Type()
	numIn := ft.NumIn()
	variadic := ft.IsVariadic()
	if variadic {
		if len(operands) < numIn-1 {
			return candidate{}, false
		}
	} else if len(operands) != numIn {
		return candidate{}, false
	}
	plans := make([]argPlan, len(operands))
	total := 0
	for i, arg := range operands {
		var pt reflect.Type
		inVariadicSlot := variadic && i >= numIn-1
		if inVariadicSlot {
			pt = ft.In(numIn - 1).Elem()
		} else {
			pt = ft.In(i)
		}
		plan, cost, ok := planArg(arg, pt, reg)
		if !ok {
			return candidate{}, false
		}
		if inVariadicSlot && cost < costVariadic {
			cost = costVariadic
		}
		plans[i] = plan
		total += cost
	}
	return candidate{fn: fv, plans: plans, cost: total}, true
}
