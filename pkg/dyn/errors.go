package dyn

import (
	"fmt"
	"strings"
)

// FailKind classifies binding failures.
type FailKind int

const (
	// MemberNotFound means no member or operator matches the requested
	// name and arity on the resolved shape.
	MemberNotFound FailKind = iota
	// AmbiguousMatch means overload resolution found two or more equally
	// ranked candidates.
	AmbiguousMatch
	// ArgumentMismatch means a candidate was found by name but the
	// argument count or types are incompatible.
	ArgumentMismatch
	// NullReceiver means the operation was attempted on a null shape
	// that the operation does not tolerate.
	NullReceiver
	// MetaObjectError means a custom meta-object explicitly reported a
	// binding error.
	MetaObjectError
	// ShapeChanged means the receiver's shape mutated between envelope
	// construction and bind completion. Handled internally by one retry
	// before surfacing.
	ShapeChanged
)

func (k FailKind) String() string {
	switch k {
	case MemberNotFound:
		return "member not found"
	case AmbiguousMatch:
		return "ambiguous match"
	case ArgumentMismatch:
		return "argument mismatch"
	case NullReceiver:
		return "null receiver"
	case MetaObjectError:
		return "meta-object error"
	case ShapeChanged:
		return "shape changed during bind"
	default:
		return "unknown failure"
	}
}

// BindFailure is the binder's failure value. It carries enough context
// to build a precise diagnostic without re-walking the type surface.
// A call site converts it to a DispatchError at its boundary.
type BindFailure struct {
	Kind   FailKind
	Op     OpKind
	Member string
	Shapes []Shape
	Reason string

	// Permanent marks failures that will hold for this shape tuple
	// forever (e.g. a member that can never exist on a reflected type).
	// Only permanent failures may be cached.
	Permanent bool
}

// Failf builds a BindFailure with a formatted reason.
func Failf(kind FailKind, format string, args ...interface{}) *BindFailure {
	return &BindFailure{Kind: kind, Reason: fmt.Sprintf(format, args...)}
}

func (f *BindFailure) Error() string {
	var b strings.Builder
	b.WriteString(f.Kind.String())
	b.WriteString(": ")
	b.WriteString(f.Op.String())
	if f.Member != "" {
		fmt.Fprintf(&b, " %q", f.Member)
	}
	if len(f.Shapes) > 0 {
		names := make([]string, len(f.Shapes))
		for i, s := range f.Shapes {
			names[i] = s.Name()
		}
		fmt.Fprintf(&b, " on (%s)", strings.Join(names, ", "))
	}
	if f.Reason != "" {
		b.WriteString(": ")
		b.WriteString(f.Reason)
	}
	return b.String()
}

// DispatchError reports that a dynamic operation could not be
// dispatched. It is raised at the call site boundary and never
// swallowed by the engine.
type DispatchError struct {
	Failure *BindFailure
}

func (e *DispatchError) Error() string {
	return "dispatch: " + e.Failure.Error()
}

func (e *DispatchError) Unwrap() error { return e.Failure }

// TargetError wraps an error raised by the successfully bound operation
// itself, keeping "couldn't dispatch" distinguishable from "dispatched
// and failed".
type TargetError struct {
	Err error
}

func (e *TargetError) Error() string {
	return "target: " + e.Err.Error()
}

func (e *TargetError) Unwrap() error { return e.Err }
