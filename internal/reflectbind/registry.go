// Package reflectbind implements the reflection fallback binder: it
// resolves operations against the declared member surface of a value's
// underlying type when no meta-object claims them. The surface is the
// type's reflected methods and fields plus members, operators, and
// conversions registered by the host program.
package reflectbind

import (
	"fmt"
	"reflect"
	"sync"

	"github.com/funvibe/latebind/pkg/dyn"
)

type memberKey struct {
	shape dyn.Shape
	name  string
}

type opKey struct {
	shape    dyn.Shape
	operator string
}

type convKey struct {
	from, to dyn.Shape
}

// Registry holds user-registered members, operators, and implicit
// conversions, keyed by receiver shape. It is shared across all call
// sites and safe for concurrent use.
type Registry struct {
	mu          sync.RWMutex
	members     map[memberKey][]reflect.Value
	operators   map[opKey][]reflect.Value
	conversions map[convKey]reflect.Value
}

func NewRegistry() *Registry {
	return &Registry{
		members:     make(map[memberKey][]reflect.Value),
		operators:   make(map[opKey][]reflect.Value),
		conversions: make(map[convKey]reflect.Value),
	}
}

// RegisterMember attaches a member function to the shape of receiver.
// fn must be a function whose first parameter takes the receiver.
// Registering several functions under one name builds an overload set
// resolved by ranking at bind time.
func (r *Registry) RegisterMember(receiver interface{}, name string, fn interface{}) error {
	if name == "" {
		return fmt.Errorf("register member: name must not be empty")
	}
	fv := reflect.ValueOf(fn)
	if !fv.IsValid() || fv.Kind() != reflect.Func {
		return fmt.Errorf("register member %s: fn is %T, not a function", name, fn)
	}
	if fv.Type().NumIn() < 1 {
		return fmt.Errorf("register member %s: fn must take the receiver as its first parameter", name)
	}
	sh := dyn.ShapeOf(receiver)
	if sh.IsNull() {
		return fmt.Errorf("register member %s: receiver must not be nil", name)
	}
	k := memberKey{shape: sh, name: name}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.members[k] = append(r.members[k], fv)
	return nil
}

// RegisterOperator attaches a binary operator implementation. fn must
// take exactly two parameters and return at least one value; it is
// entered into the operator table of its first parameter's shape.
func (r *Registry) RegisterOperator(operator string, fn interface{}) error {
	if operator == "" {
		return fmt.Errorf("register operator: operator must not be empty")
	}
	fv := reflect.ValueOf(fn)
	if !fv.IsValid() || fv.Kind() != reflect.Func {
		return fmt.Errorf("register operator %s: fn is %T, not a function", operator, fn)
	}
	ft := fv.Type()
	if ft.NumIn() != 2 || ft.NumOut() < 1 {
		return fmt.Errorf("register operator %s: fn must be func(left, right) result", operator)
	}
	k := opKey{shape: dyn.ShapeForType(ft.In(0)), operator: operator}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.operators[k] = append(r.operators[k], fv)
	return nil
}

// RegisterConversion registers a user-defined implicit conversion. fn
// must be func(From) To or func(From) (To, error). A later registration
// for the same shape pair replaces the earlier one.
func (r *Registry) RegisterConversion(fn interface{}) error {
	fv := reflect.ValueOf(fn)
	if !fv.IsValid() || fv.Kind() != reflect.Func {
		return fmt.Errorf("register conversion: fn is %T, not a function", fn)
	}
	ft := fv.Type()
	if ft.NumIn() != 1 || ft.NumOut() < 1 || ft.NumOut() > 2 {
		return fmt.Errorf("register conversion: fn must be func(from) to or func(from) (to, error)")
	}
	if ft.NumOut() == 2 && ft.Out(1) != errorType {
		return fmt.Errorf("register conversion: second result must be error")
	}
	k := convKey{from: dyn.ShapeForType(ft.In(0)), to: dyn.ShapeForType(ft.Out(0))}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.conversions[k] = fv
	return nil
}

// Members returns the overload set registered under name for a shape.
func (r *Registry) Members(sh dyn.Shape, name string) []reflect.Value {
	r.mu.RLock()
	defer r.mu.RUnlock()
	fns := r.members[memberKey{shape: sh, name: name}]
	if len(fns) == 0 {
		return nil
	}
	out := make([]reflect.Value, len(fns))
	copy(out, fns)
	return out
}

// Operators returns the operator table entries for a shape.
func (r *Registry) Operators(sh dyn.Shape, operator string) []reflect.Value {
	r.mu.RLock()
	defer r.mu.RUnlock()
	fns := r.operators[opKey{shape: sh, operator: operator}]
	if len(fns) == 0 {
		return nil
	}
	out := make([]reflect.Value, len(fns))
	copy(out, fns)
	return out
}

// Conversion returns the registered implicit conversion between two
// shapes, if any.
func (r *Registry) Conversion(from, to dyn.Shape) (reflect.Value, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	fv, ok := r.conversions[convKey{from: from, to: to}]
	return fv, ok
}

var errorType = reflect.TypeOf((*error)(nil)).Elem()
