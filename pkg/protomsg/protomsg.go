// Package protomsg adapts protobuf dynamic messages to the meta-object
// protocol: get-member and set-member resolve proto fields by name, so
// a message parsed from a descriptor at runtime participates in dynamic
// dispatch like any host value.
package protomsg

import (
	"fmt"

	"github.com/jhump/protoreflect/desc"
	"github.com/jhump/protoreflect/desc/protoparse"
	"github.com/jhump/protoreflect/dynamic"

	"github.com/funvibe/latebind/pkg/dyn"
)

// Message wraps one dynamic message as a dynamically bindable value.
// Its shape is the message's fully qualified name, so all instances of
// a message type share cached bindings.
type Message struct {
	msg *dynamic.Message
}

// New creates an empty message for the descriptor.
func New(md *desc.MessageDescriptor) *Message {
	return &Message{msg: dynamic.NewMessage(md)}
}

// FromDynamic wraps an existing dynamic message.
func FromDynamic(msg *dynamic.Message) *Message {
	return &Message{msg: msg}
}

// Load parses a .proto file and returns the named message descriptor.
func Load(path, messageName string) (*desc.MessageDescriptor, error) {
	parser := protoparse.Parser{}
	fds, err := parser.ParseFiles(path)
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	for _, fd := range fds {
		if md := fd.FindMessage(messageName); md != nil {
			return md, nil
		}
	}
	return nil, fmt.Errorf("%s: message %q not found", path, messageName)
}

// Descriptor returns the message descriptor.
func (m *Message) Descriptor() *desc.MessageDescriptor {
	return m.msg.GetMessageDescriptor()
}

// Underlying exposes the wrapped dynamic message.
func (m *Message) Underlying() *dynamic.Message { return m.msg }

func (m *Message) String() string {
	return fmt.Sprintf("protomsg(%s)", m.Descriptor().GetFullyQualifiedName())
}

// MetaObject conforms Message to the capability query performed at
// envelope construction.
func (m *Message) MetaObject() dyn.MetaObject {
	return metaMessage{md: m.msg.GetMessageDescriptor()}
}

// Shape returns the shape shared by all instances of a message type.
func Shape(md *desc.MessageDescriptor) dyn.Shape {
	return dyn.Custom("proto:" + md.GetFullyQualifiedName())
}
