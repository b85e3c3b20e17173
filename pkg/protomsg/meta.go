package protomsg

import (
	"github.com/jhump/protoreflect/desc"

	"github.com/funvibe/latebind/pkg/dyn"
)

// metaMessage binds get/set-member to proto fields. The field
// descriptor is resolved once per bind; the thunks re-read the current
// receiver on every execution, so one cached binding serves every
// instance of the message type. All other operations decline.
type metaMessage struct {
	md *desc.MessageDescriptor
}

func (m metaMessage) DynamicShape() dyn.Shape { return Shape(m.md) }

func (m metaMessage) BindGetMember(name string) dyn.Result {
	fd := m.md.FindFieldByName(name)
	if fd == nil {
		return dyn.Fail(&dyn.BindFailure{
			Kind:   dyn.MemberNotFound,
			Op:     dyn.OpGetMember,
			Member: name,
			Shapes: []dyn.Shape{Shape(m.md)},
			Reason: "message " + m.md.GetFullyQualifiedName() + " has no such field",
		})
	}
	return dyn.Resolve(func(values []interface{}) (interface{}, error) {
		msg := values[0].(*Message)
		return fromProtoValue(msg.msg.GetField(fd), fd), nil
	})
}

func (m metaMessage) BindSetMember(name string) dyn.Result {
	fd := m.md.FindFieldByName(name)
	if fd == nil {
		return dyn.Fail(&dyn.BindFailure{
			Kind:   dyn.MemberNotFound,
			Op:     dyn.OpSetMember,
			Member: name,
			Shapes: []dyn.Shape{Shape(m.md)},
			Reason: "message " + m.md.GetFullyQualifiedName() + " has no such field",
		})
	}
	return dyn.Resolve(func(values []interface{}) (interface{}, error) {
		msg := values[0].(*Message)
		v, err := toProtoValue(values[1], fd)
		if err != nil {
			return nil, &dyn.DispatchError{Failure: &dyn.BindFailure{
				Kind:   dyn.ArgumentMismatch,
				Op:     dyn.OpSetMember,
				Member: name,
				Shapes: []dyn.Shape{Shape(m.md)},
				Reason: err.Error(),
			}}
		}
		msg.msg.SetField(fd, v)
		return values[1], nil
	})
}

func (m metaMessage) BindInvokeMember(name string, argc int) dyn.Result { return dyn.Pass() }
func (m metaMessage) BindInvoke(argc int) dyn.Result                    { return dyn.Pass() }
func (m metaMessage) BindConvert(target dyn.Shape) dyn.Result           { return dyn.Pass() }

func (m metaMessage) BindBinaryOp(operator string, right dyn.Shape) dyn.Result {
	return dyn.Pass()
}
