package handler

import (
	"context"
	"net/http"

	"github.com/mangohow/gorest/invocation"
)

// DefaultHeaders adds h to calls that do not already set those headers.
func DefaultHeaders(h http.Header) invocation.Handler {
	defaults := h.Clone()
	return invocation.HandlerFunc(func(ctx context.Context, inv *invocation.Invocation) (any, error) {
		current := inv.Header()
		missing := http.Header{}
		for name, values := range defaults {
			if len(current.Values(name)) == 0 {
				missing[name] = values
			}
		}
		if len(missing) > 0 {
			inv = inv.WithHeaders(missing)
		}
		return inv.Proceed(ctx)
	})
}
