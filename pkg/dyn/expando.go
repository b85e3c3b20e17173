package dyn

import (
	"fmt"
	"reflect"
	"sort"
	"sync"
)

// PropertyBag is a dynamically growing member store: the reference
// meta-object shipped with the engine. Members are created on first
// set-member, read by get-member, and callable through invoke-member
// when they hold a function. Get/set/invoke-member bind through the
// bag; every other operation declines to reflection.
//
// The bag synchronizes its own storage. The engine makes no atomicity
// guarantee across bag mutations performed by its owner.
type PropertyBag struct {
	mu      sync.RWMutex
	members map[string]interface{}
}

func NewPropertyBag() *PropertyBag {
	return &PropertyBag{members: make(map[string]interface{})}
}

func (b *PropertyBag) Get(name string) (interface{}, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	v, ok := b.members[name]
	return v, ok
}

func (b *PropertyBag) Set(name string, v interface{}) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.members[name] = v
}

// Delete removes a member, reporting whether it existed.
func (b *PropertyBag) Delete(name string) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	_, ok := b.members[name]
	delete(b.members, name)
	return ok
}

func (b *PropertyBag) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.members)
}

// Names returns the member names in sorted order.
func (b *PropertyBag) Names() []string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	names := make([]string, 0, len(b.members))
	for n := range b.members {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

func (b *PropertyBag) MetaObject() MetaObject { return bagMeta{} }

// bagMeta is stateless; its thunks operate on the receiver passed in at
// each execution, so one cached binding stays correct across bag
// mutations and across different bags sharing the shape.
type bagMeta struct{}

var bagShape = Custom("PropertyBag")

func (bagMeta) DynamicShape() Shape { return bagShape }

func (bagMeta) BindGetMember(name string) Result {
	return Resolve(func(values []interface{}) (interface{}, error) {
		bag := values[0].(*PropertyBag)
		v, ok := bag.Get(name)
		if !ok {
			return nil, &DispatchError{Failure: &BindFailure{
				Kind:   MemberNotFound,
				Op:     OpGetMember,
				Member: name,
				Shapes: []Shape{bagShape},
				Reason: "no such member in property bag",
			}}
		}
		return v, nil
	})
}

func (bagMeta) BindSetMember(name string) Result {
	return Resolve(func(values []interface{}) (interface{}, error) {
		bag := values[0].(*PropertyBag)
		bag.Set(name, values[1])
		return values[1], nil
	})
}

func (bagMeta) BindInvokeMember(name string, argc int) Result {
	return Resolve(func(values []interface{}) (interface{}, error) {
		bag := values[0].(*PropertyBag)
		v, ok := bag.Get(name)
		if !ok {
			return nil, &DispatchError{Failure: &BindFailure{
				Kind:   MemberNotFound,
				Op:     OpInvokeMember,
				Member: name,
				Shapes: []Shape{bagShape},
				Reason: "no such member in property bag",
			}}
		}
		return callBagMember(name, v, values[1:])
	})
}

func (bagMeta) BindInvoke(argc int) Result              { return Pass() }
func (bagMeta) BindConvert(target Shape) Result         { return Pass() }
func (bagMeta) BindBinaryOp(op string, right Shape) Result { return Pass() }

func callBagMember(name string, member interface{}, args []interface{}) (out interface{}, err error) {
	fn := reflect.ValueOf(member)
	if !fn.IsValid() || fn.Kind() != reflect.Func {
		return nil, &DispatchError{Failure: &BindFailure{
			Kind:   ArgumentMismatch,
			Op:     OpInvokeMember,
			Member: name,
			Shapes: []Shape{bagShape},
			Reason: fmt.Sprintf("member is %T, not a function", member),
		}}
	}
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("calling bag member %s: %v", name, r)
		}
	}()
	ft := fn.Type()
	if ft.IsVariadic() {
		if len(args) < ft.NumIn()-1 {
			return nil, argCountFailure(name, ft.NumIn()-1, len(args))
		}
	} else if len(args) != ft.NumIn() {
		return nil, argCountFailure(name, ft.NumIn(), len(args))
	}
	in := make([]reflect.Value, len(args))
	for i, a := range args {
		var pt reflect.Type
		if ft.IsVariadic() && i >= ft.NumIn()-1 {
			pt = ft.In(ft.NumIn() - 1).Elem()
		} else {
			pt = ft.In(i)
		}
		if a == nil {
			in[i] = reflect.Zero(pt)
			continue
		}
		av := reflect.ValueOf(a)
		if !av.Type().AssignableTo(pt) {
			if av.Type().ConvertibleTo(pt) {
				av = av.Convert(pt)
			} else {
				return nil, &DispatchError{Failure: &BindFailure{
					Kind:   ArgumentMismatch,
					Op:     OpInvokeMember,
					Member: name,
					Shapes: []Shape{bagShape},
					Reason: fmt.Sprintf("argument %d: cannot use %s as %s", i, av.Type(), pt),
				}}
			}
		}
		in[i] = av
	}
	results := fn.Call(in)
	return collapseResults(results, ft)
}

func argCountFailure(name string, want, got int) error {
	return &DispatchError{Failure: &BindFailure{
		Kind:   ArgumentMismatch,
		Op:     OpInvokeMember,
		Member: name,
		Shapes: []Shape{bagShape},
		Reason: fmt.Sprintf("expected %d arguments, got %d", want, got),
	}}
}

// collapseResults folds a reflect call's results into a single value,
// splitting off a trailing error return when the function declares one.
func collapseResults(results []reflect.Value, ft reflect.Type) (interface{}, error) {
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

var errorType = reflect.TypeOf((*error)(nil)).Elem()
