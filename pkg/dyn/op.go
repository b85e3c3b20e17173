package dyn

import (
	"fmt"
)

// OpKind enumerates the dynamic operations the engine can perform.
type OpKind int

const (
	OpGetMember OpKind = iota
	OpSetMember
	OpInvokeMember
	OpInvoke
	OpConvert
	OpBinaryOp
)

func (k OpKind) String() string {
	switch k {
	case OpGetMember:
		return "get-member"
	case OpSetMember:
		return "set-member"
	case OpInvokeMember:
		return "invoke-member"
	case OpInvoke:
		return "invoke"
	case OpConvert:
		return "convert"
	case OpBinaryOp:
		return "binary-op"
	default:
		return "unknown"
	}
}

// Op describes what the caller wants done: exactly one operation kind,
// with the member name, operator, argument count, or conversion target
// that kind requires. Immutable once constructed.
type Op struct {
	kind     OpKind
	member   string
	operator string
	argc     int
	target   Shape
}

// GetMember describes reading the named member of a receiver.
func GetMember(name string) (Op, error) {
	if name == "" {
		return Op{}, fmt.Errorf("get-member: member name must not be empty")
	}
	return Op{kind: OpGetMember, member: name}, nil
}

// SetMember describes writing the named member of a receiver. The new
// value is supplied as the second operand at execution time.
func SetMember(name string) (Op, error) {
	if name == "" {
		return Op{}, fmt.Errorf("set-member: member name must not be empty")
	}
	return Op{kind: OpSetMember, member: name}, nil
}

// InvokeMember describes calling the named member of a receiver with a
// fixed number of arguments.
func InvokeMember(name string, argc int) (Op, error) {
	if name == "" {
		return Op{}, fmt.Errorf("invoke-member: member name must not be empty")
	}
	if argc < 0 {
		return Op{}, fmt.Errorf("invoke-member %s: negative argument count %d", name, argc)
	}
	return Op{kind: OpInvokeMember, member: name, argc: argc}, nil
}

// Invoke describes calling the receiver itself with a fixed number of
// arguments.
func Invoke(argc int) (Op, error) {
	if argc < 0 {
		return Op{}, fmt.Errorf("invoke: negative argument count %d", argc)
	}
	return Op{kind: OpInvoke, argc: argc}, nil
}

// Convert describes converting the receiver to the target shape.
func Convert(target Shape) Op {
	return Op{kind: OpConvert, target: target}
}

// BinaryOp describes applying an infix operator to two operands.
func BinaryOp(operator string) (Op, error) {
	if operator == "" {
		return Op{}, fmt.Errorf("binary-op: operator must not be empty")
	}
	return Op{kind: OpBinaryOp, operator: operator, argc: 1}, nil
}

func (o Op) Kind() OpKind     { return o.kind }
func (o Op) Member() string   { return o.member }
func (o Op) Operator() string { return o.operator }
func (o Op) ArgCount() int    { return o.argc }
func (o Op) Target() Shape    { return o.target }

// Arity returns the total operand count the operation expects, receiver
// included.
func (o Op) Arity() int {
	switch o.kind {
	case OpGetMember, OpConvert:
		return 1
	case OpSetMember, OpBinaryOp:
		return 2
	case OpInvokeMember, OpInvoke:
		return 1 + o.argc
	default:
		return 1
	}
}

func (o Op) String() string {
	switch o.kind {
	case OpGetMember, OpSetMember:
		return fmt.Sprintf("%s(%s)", o.kind, o.member)
	case OpInvokeMember:
		return fmt.Sprintf("%s(%s/%d)", o.kind, o.member, o.argc)
	case OpInvoke:
		return fmt.Sprintf("%s(/%d)", o.kind, o.argc)
	case OpConvert:
		return fmt.Sprintf("%s(%s)", o.kind, o.target)
	case OpBinaryOp:
		return fmt.Sprintf("%s(%s)", o.kind, o.operator)
	default:
		return o.kind.String()
	}
}
