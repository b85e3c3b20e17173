package reflectbind

import (
	"fmt"
	"reflect"

	"github.com/funvibe/latebind/internal/binding"
	"github.com/funvibe/latebind/internal/envelope"
	"github.com/funvibe/latebind/pkg/dyn"
)

// Binder resolves an operation against the member surface of the
// operands' underlying types. It keeps no per-bind state: the registry
// and the surface cache are internally synchronized, so one Binder is
// shared across all call sites and called reentrantly.
type Binder struct {
	reg *Registry
}

func New(reg *Registry) *Binder {
	if reg == nil {
		reg = NewRegistry()
	}
	return &Binder{reg: reg}
}

func (b *Binder) Registry() *Registry { return b.reg }

// Resolve produces a binding for the operation, or a failure describing
// which member or operation could not be resolved for the operand
// shapes.
func (b *Binder) Resolve(op dyn.Op, envs []envelope.Envelope) (*binding.Binding, *dyn.BindFailure) {
	switch op.Kind() {
	case dyn.OpGetMember:
		return b.resolveGetMember(op, envs)
	case dyn.OpSetMember:
		return b.resolveSetMember(op, envs)
	case dyn.OpInvokeMember:
		return b.resolveInvokeMember(op, envs)
	case dyn.OpInvoke:
		return b.resolveInvoke(op, envs)
	case dyn.OpConvert:
		return b.resolveConvert(op, envs)
	case dyn.OpBinaryOp:
		return b.resolveBinaryOp(op, envs)
	default:
		return nil, fail(op, envs, dyn.MemberNotFound, false, "unsupported operation kind")
	}
}

// fail builds a BindFailure carrying the operation kind, member, and
// operand shapes, so a diagnostic can be produced without re-walking
// the type surface.
func fail(op dyn.Op, envs []envelope.Envelope, kind dyn.FailKind, permanent bool, format string, args ...interface{}) *dyn.BindFailure {
	member := op.Member()
	if op.Kind() == dyn.OpBinaryOp {
		member = op.Operator()
	}
	return &dyn.BindFailure{
		Kind:      kind,
		Op:        op.Kind(),
		Member:    member,
		Shapes:    envelope.Shapes(envs),
		Reason:    fmt.Sprintf(format, args...),
		Permanent: permanent,
	}
}

func (b *Binder) resolveGetMember(op dyn.Op, envs []envelope.Envelope) (*binding.Binding, *dyn.BindFailure) {
	recv := envs[0]
	if recv.IsNull() {
		return nil, fail(op, envs, dyn.NullReceiver, true, "cannot read member of a null receiver")
	}
	name := op.Member()
	rt := reflect.TypeOf(recv.Value())
	srf := surfaceOf(rt)

	// Methods shadow fields, matching how the surface is read on hosts.
	if idx, ok := srf.methods[name]; ok {
		return binding.New(func(values []interface{}) (interface{}, error) {
			return reflect.ValueOf(values[0]).Method(idx).Interface(), nil
		}), nil
	}
	if index, ok := srf.fields[name]; ok {
		return binding.New(func(values []interface{}) (interface{}, error) {
			return fieldValue(reflect.ValueOf(values[0]), index).Interface(), nil
		}), nil
	}
	if fns := b.reg.Members(recv.Shape(), name); len(fns) > 0 {
		// Reading a registered member yields it bound to the receiver.
		reg := b.reg
		return binding.New(func(values []interface{}) (interface{}, error) {
			self := values[0]
			bound := func(args ...interface{}) (interface{}, error) {
				operands := append([]interface{}{self}, args...)
				c, failKind, reason := rankCandidates(fns, operands, reg)
				if reason != "" {
					return nil, &dyn.DispatchError{Failure: &dyn.BindFailure{
						Kind:   failKind,
						Op:     dyn.OpInvokeMember,
						Member: name,
						Reason: reason,
					}}
				}
				return invokePlanned(c.fn, c.plans, operands)
			}
			return bound, nil
		}), nil
	}
	return nil, fail(op, envs, dyn.MemberNotFound, true,
		"type %s has no member %q", rt, name)
}

func (b *Binder) resolveSetMember(op dyn.Op, envs []envelope.Envelope) (*binding.Binding, *dyn.BindFailure) {
	recv := envs[0]
	if recv.IsNull() {
		return nil, fail(op, envs, dyn.NullReceiver, true, "cannot write member of a null receiver")
	}
	name := op.Member()
	rt := reflect.TypeOf(recv.Value())
	srf := surfaceOf(rt)
	index, ok := srf.fields[name]
	if !ok {
		return nil, fail(op, envs, dyn.MemberNotFound, true,
			"type %s has no field %q", rt, name)
	}
	if rt.Kind() != reflect.Ptr {
		return nil, fail(op, envs, dyn.ArgumentMismatch, true,
			"receiver of type %s is not addressable; pass a pointer", rt)
	}
	ft := rt.Elem().FieldByIndex(index).Type
	plan, _, convOK := planArg(envs[1].Value(), ft, b.reg)
	if !convOK {
		return nil, fail(op, envs, dyn.ArgumentMismatch, true,
			"cannot assign %s to field %s of type %s", envs[1].Shape(), name, ft)
	}
	return binding.New(func(values []interface{}) (interface{}, error) {
		v, err := applyPlan(values[1], plan)
		if err != nil {
			return nil, err
		}
		reflect.ValueOf(values[0]).Elem().FieldByIndex(index).Set(v)
		return values[1], nil
	}), nil
}

func (b *Binder) resolveInvokeMember(op dyn.Op, envs []envelope.Envelope) (*binding.Binding, *dyn.BindFailure) {
	recv := envs[0]
	if recv.IsNull() {
		return nil, fail(op, envs, dyn.NullReceiver, true, "cannot invoke member of a null receiver")
	}
	name := op.Member()
	rt := reflect.TypeOf(recv.Value())
	srf := surfaceOf(rt)

	// Candidates are receiver-first callables: the reflected method
	// expression plus every registered overload for the shape.
	var fns []reflect.Value
	if idx, ok := srf.methods[name]; ok {
		fns = append(fns, rt.Method(idx).Func)
	}
	fns = append(fns, b.reg.Members(recv.Shape(), name)...)
	if len(fns) == 0 {
		return nil, fail(op, envs, dyn.MemberNotFound, true,
			"type %s has no member %q", rt, name)
	}

	operands := make([]interface{}, len(envs))
	for i, e := range envs {
		operands[i] = e.Value()
	}
	c, failKind, reason := rankCandidates(fns, operands, b.reg)
	if reason != "" {
		return nil, fail(op, envs, failKind, true, "%s", reason)
	}
	return binding.New(func(values []interface{}) (interface{}, error) {
		return invokePlanned(c.fn, c.plans, values)
	}), nil
}

func (b *Binder) resolveInvoke(op dyn.Op, envs []envelope.Envelope) (*binding.Binding, *dyn.BindFailure) {
	recv := envs[0]
	if recv.IsNull() {
		return nil, fail(op, envs, dyn.NullReceiver, true, "cannot invoke a null receiver")
	}
	rv := reflect.ValueOf(recv.Value())
	if rv.Kind() != reflect.Func {
		return nil, fail(op, envs, dyn.MemberNotFound, true,
			"value of shape %s is not invocable", recv.Shape())
	}
	args := make([]interface{}, len(envs)-1)
	for i, e := range envs[1:] {
		args[i] = e.Value()
	}
	c, failKind, reason := rankCandidates([]reflect.Value{rv}, args, b.reg)
	if reason != "" {
		return nil, fail(op, envs, failKind, true, "%s", reason)
	}
	plans := c.plans
	return binding.New(func(values []interface{}) (interface{}, error) {
		return invokePlanned(reflect.ValueOf(values[0]), plans, values[1:])
	}), nil
}
