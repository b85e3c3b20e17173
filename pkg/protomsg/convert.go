package protomsg

import (
	"fmt"
	"reflect"

	"github.com/jhump/protoreflect/desc"
	"github.com/jhump/protoreflect/dynamic"
	"google.golang.org/protobuf/types/descriptorpb"
)

// fromProtoValue converts a proto field value into a plain Go value:
// integers widen to int64, floats to float64, nested messages wrap as
// *Message, repeated fields become []interface{}.
func fromProtoValue(val interface{}, fd *desc.FieldDescriptor) interface{} {
	if val == nil {
		return nil
	}
	if fd.IsRepeated() {
		slice, ok := val.([]interface{})
		if !ok {
			return []interface{}{}
		}
		out := make([]interface{}, len(slice))
		for i, v := range slice {
			out[i] = fromProtoSingleValue(v)
		}
		return out
	}
	return fromProtoSingleValue(val)
}

func fromProtoSingleValue(val interface{}) interface{} {
	switch v := val.(type) {
	case int32:
		return int64(v)
	case int64:
		return v
	case uint32:
		return int64(v)
	case uint64:
		return int64(v)
	case float32:
		return float64(v)
	case float64:
		return v
	case bool, string, []byte:
		return v
	case *dynamic.Message:
		return FromDynamic(v)
	case int:
		// Enums often arrive as int.
		return int64(v)
	default:
		return v
	}
}

// toProtoValue converts a Go value into the representation a proto
// field expects, widening integers and recursing into nested messages.
func toProtoValue(val interface{}, fd *desc.FieldDescriptor) (interface{}, error) {
	if fd.IsRepeated() {
		rv := reflect.ValueOf(val)
		if !rv.IsValid() || rv.Kind() != reflect.Slice {
			return nil, fmt.Errorf("field %s is repeated; expected a slice, got %T", fd.GetName(), val)
		}
		out := make([]interface{}, rv.Len())
		for i := 0; i < rv.Len(); i++ {
			v, err := toProtoSingleValue(rv.Index(i).Interface(), fd)
			if err != nil {
				return nil, err
			}
			out[i] = v
		}
		return out, nil
	}
	return toProtoSingleValue(val, fd)
}

func toProtoSingleValue(val interface{}, fd *desc.FieldDescriptor) (interface{}, error) {
	switch fd.GetType() {
	case descriptorpb.FieldDescriptorProto_TYPE_INT32,
		descriptorpb.FieldDescriptorProto_TYPE_SINT32,
		descriptorpb.FieldDescriptorProto_TYPE_SFIXED32:
		if i, ok := asInt64(val); ok {
			return int32(i), nil
		}
	case descriptorpb.FieldDescriptorProto_TYPE_INT64,
		descriptorpb.FieldDescriptorProto_TYPE_SINT64,
		descriptorpb.FieldDescriptorProto_TYPE_SFIXED64:
		if i, ok := asInt64(val); ok {
			return i, nil
		}
	case descriptorpb.FieldDescriptorProto_TYPE_UINT32,
		descriptorpb.FieldDescriptorProto_TYPE_FIXED32:
		if i, ok := asInt64(val); ok {
			return uint32(i), nil
		}
	case descriptorpb.FieldDescriptorProto_TYPE_UINT64,
		descriptorpb.FieldDescriptorProto_TYPE_FIXED64:
		if i, ok := asInt64(val); ok {
			return uint64(i), nil
		}
	case descriptorpb.FieldDescriptorProto_TYPE_FLOAT:
		if f, ok := asFloat64(val); ok {
			return float32(f), nil
		}
	case descriptorpb.FieldDescriptorProto_TYPE_DOUBLE:
		if f, ok := asFloat64(val); ok {
			return f, nil
		}
	case descriptorpb.FieldDescriptorProto_TYPE_BOOL:
		if b, ok := val.(bool); ok {
			return b, nil
		}
	case descriptorpb.FieldDescriptorProto_TYPE_STRING:
		if s, ok := val.(string); ok {
			return s, nil
		}
	case descriptorpb.FieldDescriptorProto_TYPE_BYTES:
		if b, ok := val.([]byte); ok {
			return b, nil
		}
	case descriptorpb.FieldDescriptorProto_TYPE_MESSAGE:
		switch m := val.(type) {
		case *Message:
			return m.msg, nil
		case *dynamic.Message:
			return m, nil
		}
	case descriptorpb.FieldDescriptorProto_TYPE_ENUM:
		if i, ok := asInt64(val); ok {
			return int32(i), nil
		}
		if s, ok := val.(string); ok {
			if ev := fd.GetEnumType().FindValueByName(s); ev != nil {
				return ev.GetNumber(), nil
			}
			return nil, fmt.Errorf("field %s: enum %s has no value %q", fd.GetName(), fd.GetEnumType().GetName(), s)
		}
	}
	return nil, fmt.Errorf("field %s: cannot use %T as %v", fd.GetName(), val, fd.GetType())
}

func asInt64(val interface{}) (int64, bool) {
	rv := reflect.ValueOf(val)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return rv.Int(), true
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return int64(rv.Uint()), true
	}
	return 0, false
}

func asFloat64(val interface{}) (float64, bool) {
	rv := reflect.ValueOf(val)
	switch rv.Kind() {
	case reflect.Float32, reflect.Float64:
		return rv.Float(), true
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return float64(rv.Int()), true
	}
	return 0, false
}
