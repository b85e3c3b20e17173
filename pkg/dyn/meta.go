package dyn

// Thunk executes a resolved binding against the operand values of one
// call. Operands arrive in evaluation order, receiver first. A thunk is
// valid only for the exact shape tuple it was bound for and must read
// the current operands from values rather than closing over them.
type Thunk func(values []interface{}) (interface{}, error)

// Outcome is the tri-state result of a meta-object callback. The
// not-applicable path is routine, not exceptional, so it is modeled as
// a return value rather than an error.
type Outcome int

const (
	// NotApplicable declines the operation; the binder falls through to
	// reflection.
	NotApplicable Outcome = iota
	// Resolved supplies a binding fragment for the operation.
	Resolved
	// Failed reports a binding error. The meta-object is authoritative:
	// the binder surfaces the failure without consulting reflection.
	Failed
)

// Result carries a meta-object callback's outcome plus its fragment or
// failure.
type Result struct {
	Outcome Outcome
	Thunk   Thunk
	Failure *BindFailure
}

// Pass declines an operation.
func Pass() Result { return Result{} }

// Resolve supplies a binding fragment.
func Resolve(t Thunk) Result {
	return Result{Outcome: Resolved, Thunk: t}
}

// Fail reports a binding error.
func Fail(f *BindFailure) Result {
	return Result{Outcome: Failed, Failure: f}
}

// MetaObject is the capability set a host value supplies to customize
// binding instead of reflection. Implementations may cover any subset
// of operations and return NotApplicable for the rest; a value that
// declines everything is treated like a plain value. The engine borrows
// a meta-object for the duration of one bind and never stores it.
type MetaObject interface {
	BindGetMember(name string) Result
	BindSetMember(name string) Result
	BindInvokeMember(name string, argc int) Result
	BindInvoke(argc int) Result
	BindConvert(target Shape) Result
	BindBinaryOp(operator string, right Shape) Result
}

// Provider is the capability query the engine performs at envelope
// construction. Any runtime value may conform; discovery is never via
// configuration.
type Provider interface {
	MetaObject() MetaObject
}

// Shaped lets a meta-object supply a custom shape for its host value
// instead of the host's type identity.
type Shaped interface {
	DynamicShape() Shape
}
