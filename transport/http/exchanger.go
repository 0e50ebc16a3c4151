package http

import (
	"context"

	"github.com/mangohow/gorest/serialize"
	"github.com/mangohow/gorest/transport/binding"
)

// Exchanger performs one resolved request. Non-success statuses are the
// exchanger's own policy to report.
type Exchanger interface {
	Exchange(ctx context.Context, req *binding.Request) (*serialize.Response, error)
}

type ExchangeFunc func(ctx context.Context, req *binding.Request) (*serialize.Response, error)

func (f ExchangeFunc) Exchange(ctx context.Context, req *binding.Request) (*serialize.Response, error) {
	return f(ctx, req)
}
