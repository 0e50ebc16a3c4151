package errors

import (
	"fmt"
	"net/http"
	"strconv"
)

// Binding reports a declaration that cannot be turned into a request: a
// malformed template, a duplicate binding, a missing path variable.
func Binding(method string, format string, args ...any) Error {
	e := Newf(BindingCode, DefaultStatus, BindingReason, format, args...)
	if method == "" {
		return e
	}
	return WithMetadata(e, map[string]string{"method": method})
}

// Introspection reports a failure while flattening a query object of type typeName.
func Introspection(typeName string, cause error) Error {
	e := &errorImpl{
		code:    IntrospectionCode,
		status:  DefaultStatus,
		reason:  IntrospectionReason,
		message: fmt.Sprintf("cannot extract query properties from %s", typeName),
		cause:   cause,
	}
	return WithMetadata(e, map[string]string{"type": typeName})
}

func IllegalState(format string, args ...any) Error {
	return Newf(IllegalStateCode, DefaultStatus, IllegalStateReason, format, args...)
}

func Timeout(method string, cause error) Error {
	return &errorImpl{
		code:     TimeoutCode,
		status:   http.StatusGatewayTimeout,
		reason:   TimeoutReason,
		message:  fmt.Sprintf("invocation of %s timed out", method),
		metadata: map[string]string{"method": method},
		cause:    cause,
	}
}

// FromResponse converts a non-success HTTP response into an Error. The body
// is kept in the metadata under "body".
func FromResponse(status int, url string, body []byte) Error {
	return &errorImpl{
		code:    StatusCode,
		status:  int32(status),
		reason:  StatusReason,
		message: fmt.Sprintf("%s returned %d %s", url, status, http.StatusText(status)),
		metadata: map[string]string{
			"url":    url,
			"status": strconv.Itoa(status),
			"body":   string(body),
		},
	}
}

func IsBinding(err error) bool       { return Is(err, ErrBinding) }
func IsIntrospection(err error) bool { return Is(err, ErrIntrospection) }
func IsIllegalState(err error) bool  { return Is(err, ErrIllegalState) }
func IsTimeout(err error) bool       { return Is(err, ErrTimeout) }

// HTTPStatus returns the response status carried by a transport status
// error, or 0 when err did not come from an HTTP response.
func HTTPStatus(err error) int {
	var e Error
	if As(err, &e) && e.Code() == StatusCode {
		return int(e.HttpStatus())
	}
	return 0
}

// InvalidArgument is a Binding error for an argument rejected before the
// request is sent, e.g. by validation. cause stays reachable via As.
func InvalidArgument(method string, position int, cause error) Error {
	return &errorImpl{
		code:    BindingCode,
		status:  http.StatusBadRequest,
		reason:  BindingReason,
		message: fmt.Sprintf("argument %d is invalid: %v", position, cause),
		metadata: map[string]string{
			"method":   method,
			"position": strconv.Itoa(position),
		},
		cause: cause,
	}
}
