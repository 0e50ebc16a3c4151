// Package invocation holds the per-call state of a declarative REST call and
// the chain of handlers it travels through.
package invocation

import (
	"context"
	"net/http"

	"github.com/mangohow/gorest/errors"
	"github.com/mangohow/gorest/metadata"
)

// Invocation is one call in progress. It is never mutated: every step and
// every With* method returns a new value sharing the metadata and the
// underlying handler array.
type Invocation struct {
	method    string
	arguments []any
	metadata  *metadata.MethodMetadata
	header    http.Header
	handlers  Chain
}

// New starts an invocation that will run through chain.
func New(method string, md *metadata.MethodMetadata, chain Chain, header http.Header, args ...any) *Invocation {
	if header == nil {
		header = http.Header{}
	}
	return &Invocation{
		method:    method,
		arguments: append([]any(nil), args...),
		metadata:  md,
		header:    header.Clone(),
		handlers:  chain,
	}
}

// Method identifies the logical call site, e.g. "UserService.Get".
func (inv *Invocation) Method() string { return inv.method }

func (inv *Invocation) Metadata() *metadata.MethodMetadata { return inv.metadata }

func (inv *Invocation) Arguments() []any {
	return append([]any(nil), inv.arguments...)
}

// Argument returns the argument at position i, or nil when out of range.
func (inv *Invocation) Argument(i int) any {
	if i < 0 || i >= len(inv.arguments) {
		return nil
	}
	return inv.arguments[i]
}

// Header returns a copy of the dynamic headers.
func (inv *Invocation) Header() http.Header { return inv.header.Clone() }

// Remaining is the number of handlers left to run.
func (inv *Invocation) Remaining() int { return len(inv.handlers) }

// WithHeader returns a copy whose dynamic header name is set to values.
func (inv *Invocation) WithHeader(name string, values ...string) *Invocation {
	c := inv.clone()
	c.header.Del(name)
	for _, v := range values {
		c.header.Add(name, v)
	}
	return c
}

// WithHeaders returns a copy with every header in h overlaid.
func (inv *Invocation) WithHeaders(h http.Header) *Invocation {
	c := inv.clone()
	for name, values := range h {
		c.header[http.CanonicalHeaderKey(name)] = append([]string(nil), values...)
	}
	return c
}

func (inv *Invocation) WithArguments(args ...any) *Invocation {
	c := inv.clone()
	c.arguments = append([]any(nil), args...)
	return c
}

// Proceed hands the call to the next handler. Calling it on an empty chain
// is a programming error.
func (inv *Invocation) Proceed(ctx context.Context) (any, error) {
	if len(inv.handlers) == 0 {
		return nil, errors.IllegalState("%s: proceed called with no handlers left", inv.method)
	}

	next := &Invocation{
		method:    inv.method,
		arguments: inv.arguments,
		metadata:  inv.metadata,
		header:    inv.header,
		handlers:  inv.handlers[1:],
	}
	return inv.handlers[0].Handle(ctx, next)
}

func (inv *Invocation) clone() *Invocation {
	return &Invocation{
		method:    inv.method,
		arguments: inv.arguments,
		metadata:  inv.metadata,
		header:    inv.header.Clone(),
		handlers:  inv.handlers,
	}
}
