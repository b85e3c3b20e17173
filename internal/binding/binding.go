// Package binding defines the executable plan a binder produces for one
// shape tuple: a thunk, or a sentinel marking permanent failure.
package binding

import (
	"github.com/funvibe/latebind/pkg/dyn"
)

// Binding is valid only for the shape tuple it was produced for and
// must never be applied to operands with a different shape. Cache
// entries own their binding 1:1 and recreate it on invalidation.
type Binding struct {
	thunk dyn.Thunk
	fail  *dyn.BindFailure
}

// New wraps an executable thunk.
func New(t dyn.Thunk) *Binding {
	return &Binding{thunk: t}
}

// NewFailure wraps a permanent failure sentinel. Invoking it raises the
// failure as a DispatchError without re-binding.
func NewFailure(f *dyn.BindFailure) *Binding {
	return &Binding{fail: f}
}

// Failure returns the permanent failure, or nil for executable
// bindings.
func (b *Binding) Failure() *dyn.BindFailure { return b.fail }

// Invoke runs the plan against the current operand values.
func (b *Binding) Invoke(values []interface{}) (interface{}, error) {
	if b.fail != nil {
		return nil, &dyn.DispatchError{Failure: b.fail}
	}
	return b.thunk(values)
}
