package metadata

import (
	"reflect"

	"github.com/mangohow/gorest/serialize"
)

// ReturnType is the declared response shape of a method. The zero value
// means the response body is not decoded.
type ReturnType struct {
	declared reflect.Type
}

// Returns declares T as the return shape. T may be a serialize.Envelope.
func Returns[T any]() ReturnType {
	return ReturnType{declared: reflect.TypeOf((*T)(nil)).Elem()}
}

// ReturnsType is Returns for a type only known at runtime.
func ReturnsType(t reflect.Type) ReturnType {
	return ReturnType{declared: t}
}

func NoContent() ReturnType { return ReturnType{} }

// Declared is the type the caller gets back, nil for NoContent.
func (r ReturnType) Declared() reflect.Type { return r.declared }

// Envelope reports whether the declared type wraps the payload with
// transport status and headers.
func (r ReturnType) Envelope() bool { return serialize.IsEnvelope(r.declared) }

// Payload is the decode target for the response body.
func (r ReturnType) Payload() reflect.Type { return serialize.PayloadType(r.declared) }

func (r ReturnType) String() string {
	if r.declared == nil {
		return "<none>"
	}
	return r.declared.String()
}
