package binding

import (
	"fmt"
	"reflect"

	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/proto"
)

// ProtoCodec speaks the protobuf wire format. Values must be proto.Message.
type ProtoCodec struct{}

func (ProtoCodec) Name() string { return "proto" }

func (ProtoCodec) ContentType() string { return "application/x-protobuf" }

func (ProtoCodec) Marshal(v any) ([]byte, error) {
	m, ok := v.(proto.Message)
	if !ok {
		return nil, fmt.Errorf("encode proto error: %T is not a proto.Message", v)
	}
	return proto.Marshal(m)
}

func (ProtoCodec) Unmarshal(data []byte, v any) error {
	m, err := protoTarget(v)
	if err != nil {
		return fmt.Errorf("decode proto error: %w", err)
	}
	return proto.Unmarshal(data, m)
}

// ProtoJSONCodec renders proto messages with the canonical JSON mapping.
type ProtoJSONCodec struct{}

func (ProtoJSONCodec) Name() string { return "protojson" }

func (ProtoJSONCodec) ContentType() string { return "application/protojson" }

func (ProtoJSONCodec) Marshal(v any) ([]byte, error) {
	m, ok := v.(proto.Message)
	if !ok {
		return nil, fmt.Errorf("encode protojson error: %T is not a proto.Message", v)
	}
	return protojson.Marshal(m)
}

func (ProtoJSONCodec) Unmarshal(data []byte, v any) error {
	m, err := protoTarget(v)
	if err != nil {
		return fmt.Errorf("decode protojson error: %w", err)
	}
	return protojson.Unmarshal(data, m)
}

// protoTarget accepts either a message or a pointer to a message pointer,
// the latter being what the transport allocates for a *T decode target.
func protoTarget(v any) (proto.Message, error) {
	if m, ok := v.(proto.Message); ok {
		return m, nil
	}

	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Pointer || rv.IsNil() || rv.Elem().Kind() != reflect.Pointer {
		return nil, fmt.Errorf("%T is not a proto.Message", v)
	}
	inner := rv.Elem()
	if inner.IsNil() {
		inner.Set(reflect.New(inner.Type().Elem()))
	}
	m, ok := inner.Interface().(proto.Message)
	if !ok {
		return nil, fmt.Errorf("%T is not a proto.Message", v)
	}
	return m, nil
}
