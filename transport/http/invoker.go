// Package http is the transport end of the invocation chain: the terminal
// Invoker handler and a net/http based Exchanger.
package http

import (
	"context"

	"github.com/mangohow/gorest/endpoint"
	"github.com/mangohow/gorest/errors"
	"github.com/mangohow/gorest/invocation"
	"github.com/mangohow/gorest/serialize"
	"github.com/mangohow/gorest/transport/binding"
)

// Invoker is the terminal handler. It builds the request, exchanges it and
// shapes the result as declared: the whole envelope for envelope returns,
// only the decoded body otherwise. Exchange errors are returned untouched.
type Invoker struct {
	endpoint  endpoint.Provider
	exchanger Exchanger
	buildOpts []binding.BuildOption
}

func NewInvoker(ep endpoint.Provider, exchanger Exchanger, opts ...binding.BuildOption) *Invoker {
	return &Invoker{
		endpoint:  ep,
		exchanger: exchanger,
		buildOpts: opts,
	}
}

func (i *Invoker) Order() int { return invocation.LowestOrder }

func (i *Invoker) Handle(ctx context.Context, inv *invocation.Invocation) (any, error) {
	if n := inv.Remaining(); n > 0 {
		return nil, errors.IllegalState("%s: transport must be the last handler, %d more found", inv.Method(), n)
	}

	opts := append([]binding.BuildOption{binding.WithIdentity(inv.Method())}, i.buildOpts...)
	req, err := binding.Build(i.endpoint.Endpoint(), inv.Metadata(), inv.Arguments(), inv.Header(), opts...)
	if err != nil {
		return nil, err
	}

	resp, err := i.exchanger.Exchange(ctx, req)
	if err != nil {
		return nil, err
	}
	if resp == nil {
		return nil, errors.IllegalState("%s: exchanger returned neither a response nor an error", inv.Method())
	}

	if req.Response.Envelope {
		return serialize.Wrap(req.Response.Declared, resp)
	}
	return resp.Body, nil
}
