package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/mangohow/gorest/errors"
	"github.com/mangohow/gorest/invocation"
)

type retry struct {
	maxAttempts int
	baseDelay   time.Duration
	maxDelay    time.Duration
	retryIf     func(error) bool
}

type RetryOption func(r *retry)

// WithMaxAttempts counts the first call. Values below 1 mean 1.
func WithMaxAttempts(n int) RetryOption {
	return func(r *retry) {
		r.maxAttempts = n
	}
}

// WithBackoff sets the first delay, doubled after every attempt up to max.
func WithBackoff(base, max time.Duration) RetryOption {
	return func(r *retry) {
		r.baseDelay = base
		r.maxDelay = max
	}
}

func WithRetryIf(fn func(error) bool) RetryOption {
	return func(r *retry) {
		r.retryIf = fn
	}
}

// Retry calls the rest of the chain again when it fails with a retryable
// error. The last error is returned as is once attempts run out.
func Retry(opts ...RetryOption) invocation.Handler {
	r := &retry{
		maxAttempts: 3,
		baseDelay:   100 * time.Millisecond,
		maxDelay:    2 * time.Second,
		retryIf:     Retryable,
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.maxAttempts < 1 {
		r.maxAttempts = 1
	}

	return r
}

func (r *retry) Handle(ctx context.Context, inv *invocation.Invocation) (any, error) {
	delay := r.baseDelay
	for attempt := 1; ; attempt++ {
		res, err := inv.Proceed(ctx)
		if err == nil || attempt >= r.maxAttempts || !r.retryIf(err) {
			return res, err
		}

		t := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			t.Stop()
			return nil, err
		case <-t.C:
		}

		delay *= 2
		if r.maxDelay > 0 && delay > r.maxDelay {
			delay = r.maxDelay
		}
	}
}

// Retryable is the default retry predicate: transport failures, 5xx and 429
// responses are retried; declaration errors, other statuses and context
// cancellation are not.
func Retryable(err error) bool {
	switch {
	case errors.IsBinding(err), errors.IsIntrospection(err), errors.IsIllegalState(err):
		return false
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return false
	}

	if status := errors.HTTPStatus(err); status != 0 {
		return status >= http.StatusInternalServerError || status == http.StatusTooManyRequests
	}

	return !errors.IsTimeout(err)
}
