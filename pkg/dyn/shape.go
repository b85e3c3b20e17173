// Package dyn defines the public vocabulary of the late-binding engine:
// shapes, operation descriptors, the meta-object protocol, and the error
// taxonomy. The binding machinery itself lives under internal/ and is
// consumed through pkg/latebind.
package dyn

import (
	"hash/fnv"
	"reflect"
	"strings"
)

// ShapeKind discriminates the shape families a runtime value can fall into.
type ShapeKind int

const (
	// NullShape is the reserved shape for a missing value. It is distinct
	// from every type shape so null operands participate in caching and
	// bind to the dedicated null-handling paths.
	NullShape ShapeKind = iota
	// PrimitiveShape covers the predeclared scalar kinds, normalized so
	// that all integer widths share one shape, all float widths another.
	PrimitiveShape
	// ReflectedShape identifies a value by its concrete reflect.Type.
	ReflectedShape
	// MetaShape is a custom identity supplied by a meta-object.
	MetaShape
)

func (k ShapeKind) String() string {
	switch k {
	case NullShape:
		return "null"
	case PrimitiveShape:
		return "primitive"
	case ReflectedShape:
		return "reflected"
	case MetaShape:
		return "meta"
	default:
		return "unknown"
	}
}

// Canonical primitive shape names.
const (
	IntShapeName    = "Int"
	FloatShapeName  = "Float"
	BoolShapeName   = "Bool"
	StringShapeName = "String"
)

// Shape is a cheap, stable identity for "what kind of value is this".
// Shapes are comparable and index the call site caches. The zero value
// is the null shape.
type Shape struct {
	kind ShapeKind
	name string
	rt   reflect.Type
}

// Null is the shape of a missing value.
var Null = Shape{kind: NullShape, name: "Nil"}

// Primitive returns the shape for a canonical primitive name.
func Primitive(name string) Shape {
	return Shape{kind: PrimitiveShape, name: name}
}

// Reflected returns the shape identified by a concrete reflect.Type.
func Reflected(rt reflect.Type) Shape {
	return Shape{kind: ReflectedShape, name: rt.String(), rt: rt}
}

// Custom returns a meta-object supplied shape with the given name.
func Custom(name string) Shape {
	return Shape{kind: MetaShape, name: name}
}

// ShapeOf computes the shape of a plain runtime value. Nil values, typed
// nil pointers included, map to the null shape. Meta-object discovery is
// not done here; it happens at envelope construction.
func ShapeOf(v interface{}) Shape {
	if v == nil {
		return Null
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Ptr, reflect.Map, reflect.Slice, reflect.Chan, reflect.Func, reflect.Interface:
		if rv.IsNil() {
			return Null
		}
	}
	rt := rv.Type()
	// Predeclared scalars normalize to the canonical primitive shapes,
	// mirroring the widening rules used by overload ranking. Named types
	// keep their own identity even when their kind is scalar.
	if rt.PkgPath() == "" {
		switch rt.Kind() {
		case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
			reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
			return Primitive(IntShapeName)
		case reflect.Float32, reflect.Float64:
			return Primitive(FloatShapeName)
		case reflect.Bool:
			return Primitive(BoolShapeName)
		case reflect.String:
			return Primitive(StringShapeName)
		}
	}
	return Reflected(rt)
}

// ShapeForType maps a reflect.Type to the shape a value of that type
// would have. Used by overload ranking to compare parameter types with
// argument shapes.
func ShapeForType(rt reflect.Type) Shape {
	if rt == nil {
		return Null
	}
	if rt.PkgPath() == "" {
		switch rt.Kind() {
		case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
			reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
			return Primitive(IntShapeName)
		case reflect.Float32, reflect.Float64:
			return Primitive(FloatShapeName)
		case reflect.Bool:
			return Primitive(BoolShapeName)
		case reflect.String:
			return Primitive(StringShapeName)
		}
	}
	return Reflected(rt)
}

func (s Shape) Kind() ShapeKind { return s.kind }

func (s Shape) Name() string {
	if s.name == "" {
		return "Nil"
	}
	return s.name
}

// Type returns the underlying reflect.Type for reflected shapes, nil
// otherwise.
func (s Shape) Type() reflect.Type { return s.rt }

func (s Shape) IsNull() bool { return s.kind == NullShape }

func (s Shape) String() string {
	return s.Name()
}

func (s Shape) Hash() uint32 {
	h := fnv.New32a()
	h.Write([]byte{byte(s.kind)})
	h.Write([]byte(s.Name()))
	return h.Sum32()
}

// TupleID renders a shape tuple as a single string key, used by the
// polymorphic overflow table.
func TupleID(shapes []Shape) string {
	var b strings.Builder
	for i, s := range shapes {
		if i > 0 {
			b.WriteByte(0x1f)
		}
		b.WriteByte(byte('0' + int(s.kind)))
		b.WriteString(s.Name())
	}
	return b.String()
}

// TupleEqual reports element-wise equality of two shape tuples.
func TupleEqual(a, b []Shape) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
