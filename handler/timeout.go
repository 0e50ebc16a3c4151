package handler

import (
	"context"
	"time"

	"github.com/mangohow/gorest/errors"
	"github.com/mangohow/gorest/invocation"
)

type result struct {
	res any
	err error
}

// Timeout bounds the rest of the chain to d. Running out of time yields an
// errors.Timeout error even if the inner handlers ignore the context.
func Timeout(d time.Duration) invocation.Handler {
	return invocation.HandlerFunc(func(ctx context.Context, inv *invocation.Invocation) (any, error) {
		ctx, cancel := context.WithTimeout(ctx, d)
		defer cancel()

		done := make(chan result, 1)
		go func() {
			res, err := inv.Proceed(ctx)
			done <- result{res: res, err: err}
		}()

		select {
		case r := <-done:
			if r.err != nil && errors.Is(r.err, context.DeadlineExceeded) {
				return nil, errors.Timeout(inv.Method(), r.err)
			}
			return r.res, r.err
		case <-ctx.Done():
			if errors.Is(ctx.Err(), context.DeadlineExceeded) {
				return nil, errors.Timeout(inv.Method(), ctx.Err())
			}
			return nil, ctx.Err()
		}
	})
}
