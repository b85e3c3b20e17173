// Package binder implements the two-tier binder: a meta-object carried
// by the first operand is consulted first and is authoritative when it
// opts in; otherwise the reflection fallback resolves the operation.
package binder

import (
	"github.com/funvibe/latebind/internal/binding"
	"github.com/funvibe/latebind/internal/envelope"
	"github.com/funvibe/latebind/internal/reflectbind"
	"github.com/funvibe/latebind/pkg/dyn"
)

// Binder is stateless and safely shared across all call sites.
type Binder struct {
	fallback *reflectbind.Binder
}

func New(fallback *reflectbind.Binder) *Binder {
	if fallback == nil {
		fallback = reflectbind.New(nil)
	}
	return &Binder{fallback: fallback}
}

func (b *Binder) Fallback() *reflectbind.Binder { return b.fallback }

// Bind selects the meta-object or the reflection fallback and produces
// an executable binding, or a failure carrying the operation kind, the
// attempted member, and the operand shapes.
func (b *Binder) Bind(op dyn.Op, envs []envelope.Envelope) (*binding.Binding, *dyn.BindFailure) {
	if len(envs) != op.Arity() {
		f := dyn.Failf(dyn.ArgumentMismatch, "operation expects %d operand(s), got %d", op.Arity(), len(envs))
		decorate(f, op, envs)
		return nil, f
	}

	if mo := envs[0].Meta(); mo != nil {
		res := consult(mo, op, envs)
		switch res.Outcome {
		case dyn.Resolved:
			return binding.New(res.Thunk), nil
		case dyn.Failed:
			f := res.Failure
			if f == nil {
				f = dyn.Failf(dyn.MetaObjectError, "meta-object reported a binding error")
			} else {
				// The host may hand out a shared failure value; never
				// write through it.
				c := *f
				f = &c
			}
			// Host state may change between binds, so a meta-object
			// failure is never cached.
			f.Permanent = false
			decorate(f, op, envs)
			return nil, f
		}
		// NotApplicable falls through to reflection.
	}

	bnd, f := b.fallback.Resolve(op, envs)
	if f != nil {
		decorate(f, op, envs)
	}
	return bnd, f
}

// consult invokes the meta-object callback matching the operation kind.
func consult(mo dyn.MetaObject, op dyn.Op, envs []envelope.Envelope) dyn.Result {
	switch op.Kind() {
	case dyn.OpGetMember:
		return mo.BindGetMember(op.Member())
	case dyn.OpSetMember:
		return mo.BindSetMember(op.Member())
	case dyn.OpInvokeMember:
		return mo.BindInvokeMember(op.Member(), op.ArgCount())
	case dyn.OpInvoke:
		return mo.BindInvoke(op.ArgCount())
	case dyn.OpConvert:
		return mo.BindConvert(op.Target())
	case dyn.OpBinaryOp:
		return mo.BindBinaryOp(op.Operator(), envs[1].Shape())
	default:
		return dyn.Pass()
	}
}

func decorate(f *dyn.BindFailure, op dyn.Op, envs []envelope.Envelope) {
	f.Op = op.Kind()
	if f.Member == "" {
		if op.Kind() == dyn.OpBinaryOp {
			f.Member = op.Operator()
		} else {
			f.Member = op.Member()
		}
	}
	if len(f.Shapes) == 0 {
		f.Shapes = envelope.Shapes(envs)
	}
}
