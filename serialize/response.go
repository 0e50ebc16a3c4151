package serialize

import (
	"fmt"
	"net/http"
	"reflect"
)

// Response is what a transport hands back to the invoker: the wire status
// and headers plus the body already decoded into the requested type.
type Response struct {
	StatusCode int
	Header     http.Header
	Body       any
}

// Envelope is a return shape that keeps transport metadata next to the
// decoded payload. A method declared to return Envelope[User] decodes the
// body as User.
type Envelope[T any] struct {
	StatusCode int
	Header     http.Header
	Body       T
}

type envelope interface {
	payloadType() reflect.Type
	fill(resp *Response) error
}

var envelopeType = reflect.TypeOf((*envelope)(nil)).Elem()

func (e *Envelope[T]) payloadType() reflect.Type {
	return reflect.TypeOf((*T)(nil)).Elem()
}

func (e *Envelope[T]) fill(resp *Response) error {
	e.StatusCode = resp.StatusCode
	e.Header = resp.Header
	if resp.Body == nil {
		return nil
	}
	body, ok := resp.Body.(T)
	if !ok {
		return fmt.Errorf("envelope payload is %T, want %s", resp.Body, e.payloadType())
	}
	e.Body = body
	return nil
}

// IsEnvelope reports whether t is an Envelope instantiation.
func IsEnvelope(t reflect.Type) bool {
	return t != nil && t.Kind() == reflect.Struct && reflect.PointerTo(t).Implements(envelopeType)
}

// PayloadType returns the payload type of an Envelope type, or t itself.
func PayloadType(t reflect.Type) reflect.Type {
	if !IsEnvelope(t) {
		return t
	}
	return reflect.New(t).Interface().(envelope).payloadType()
}

// Wrap builds a value of envelope type t from resp.
func Wrap(t reflect.Type, resp *Response) (any, error) {
	if !IsEnvelope(t) {
		return nil, fmt.Errorf("%s is not an envelope type", t)
	}
	v := reflect.New(t)
	if err := v.Interface().(envelope).fill(resp); err != nil {
		return nil, err
	}
	return v.Elem().Interface(), nil
}
