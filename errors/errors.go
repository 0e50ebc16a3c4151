// Package errors defines the error taxonomy shared by the invocation pipeline.
//
// Configuration and binding errors are programmer errors and are never
// retried. Introspection errors come from query-object flattening. Transport
// errors are produced by the transport and travel back to the caller
// untouched.
package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
)

type Error interface {
	error
	Code() int32
	HttpStatus() int32
	Reason() string
	Message() string
	Metadata() map[string]string
	Unwrap() error
}

const (
	UnknownCode       int32 = 1
	BindingCode       int32 = 2
	IntrospectionCode int32 = 3
	IllegalStateCode  int32 = 4
	TimeoutCode       int32 = 5
	StatusCode        int32 = 6

	DefaultStatus int32 = http.StatusInternalServerError

	UnknownReason       = "UNKNOWN"
	BindingReason       = "BINDING"
	IntrospectionReason = "INTROSPECTION"
	IllegalStateReason  = "ILLEGAL_STATE"
	TimeoutReason       = "TIMEOUT"
	StatusReason        = "HTTP_STATUS"

	UnknownMessage = "unknown error"
)

// Sentinels for errors.Is. Matching compares code and reason only.
var (
	ErrBinding       Error = New(BindingCode, DefaultStatus, BindingReason, "binding error")
	ErrIntrospection Error = New(IntrospectionCode, DefaultStatus, IntrospectionReason, "introspection error")
	ErrIllegalState  Error = New(IllegalStateCode, DefaultStatus, IllegalStateReason, "illegal state")
	ErrTimeout       Error = New(TimeoutCode, http.StatusGatewayTimeout, TimeoutReason, "timeout")
)

type errorImpl struct {
	code     int32
	status   int32
	reason   string
	message  string
	metadata map[string]string
	cause    error
}

func New(code, status int32, reason, message string) Error {
	return &errorImpl{
		code:    code,
		status:  status,
		reason:  reason,
		message: message,
	}
}

func Newf(code, status int32, reason, format string, args ...any) Error {
	return New(code, status, reason, fmt.Sprintf(format, args...))
}

// FromError wraps err. If err already is an Error it is returned unchanged.
func FromError(code, status int32, reason, message string, err error) Error {
	if err == nil {
		return nil
	}
	var e Error
	if stderrors.As(err, &e) {
		return e
	}

	return &errorImpl{
		code:    code,
		status:  status,
		reason:  reason,
		message: message,
		cause:   err,
	}
}

func (e *errorImpl) Error() string {
	s := fmt.Sprintf("error: code = %d reason = %s message = %s", e.code, e.reason, e.message)
	if len(e.metadata) > 0 {
		s += fmt.Sprintf(" metadata = %v", e.metadata)
	}
	if e.cause != nil {
		s += fmt.Sprintf(" cause = %v", e.cause)
	}
	return s
}

func (e *errorImpl) Code() int32       { return e.code }
func (e *errorImpl) HttpStatus() int32 { return e.status }
func (e *errorImpl) Reason() string    { return e.reason }
func (e *errorImpl) Message() string   { return e.message }
func (e *errorImpl) Unwrap() error     { return e.cause }

func (e *errorImpl) Metadata() map[string]string {
	md := make(map[string]string, len(e.metadata))
	for k, v := range e.metadata {
		md[k] = v
	}
	return md
}

func (e *errorImpl) Is(target error) bool {
	t, ok := target.(Error)
	if !ok {
		return false
	}
	return t.Code() == e.code && t.Reason() == e.reason
}

// WithMetadata returns a copy of err carrying the extra key/value pairs.
func WithMetadata(err Error, md map[string]string) Error {
	merged := err.Metadata()
	for k, v := range md {
		merged[k] = v
	}
	return &errorImpl{
		code:     err.Code(),
		status:   err.HttpStatus(),
		reason:   err.Reason(),
		message:  err.Message(),
		metadata: merged,
		cause:    err.Unwrap(),
	}
}

func Is(err, target error) bool { return stderrors.Is(err, target) }

func As(err error, target any) bool { return stderrors.As(err, target) }
