package handler

import (
	"context"
	"encoding/base64"

	"github.com/mangohow/gorest/invocation"
)

// TokenSource returns the token to send with a call. It is called once per
// invocation and must be safe for concurrent use.
type TokenSource func(ctx context.Context) (string, error)

func StaticToken(token string) TokenSource {
	return func(context.Context) (string, error) {
		return token, nil
	}
}

// BearerAuth sets "Authorization: Bearer <token>". A token source error
// fails the call before anything is sent.
func BearerAuth(source TokenSource) invocation.Handler {
	return invocation.HandlerFunc(func(ctx context.Context, inv *invocation.Invocation) (any, error) {
		token, err := source(ctx)
		if err != nil {
			return nil, err
		}
		return inv.WithHeader("Authorization", "Bearer "+token).Proceed(ctx)
	})
}

func BasicAuth(username, password string) invocation.Handler {
	credentials := "Basic " + base64.StdEncoding.EncodeToString([]byte(username+":"+password))
	return invocation.HandlerFunc(func(ctx context.Context, inv *invocation.Invocation) (any, error) {
		return inv.WithHeader("Authorization", credentials).Proceed(ctx)
	})
}
