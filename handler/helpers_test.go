package handler

import (
	"context"
	"net/http"
	"sync"
	"sync/atomic"

	"github.com/mangohow/gorest/invocation"
	"github.com/mangohow/gorest/metadata"
)

// recorder stands in for the transport: it counts calls and keeps the
// headers and arguments of the last invocation it saw.
type recorder struct {
	calls  atomic.Int32
	mu     sync.Mutex
	header http.Header
	args   []any
	reply  func(n int32) (any, error)
}

func (r *recorder) Handle(ctx context.Context, inv *invocation.Invocation) (any, error) {
	n := r.calls.Add(1)
	r.mu.Lock()
	r.header = inv.Header()
	r.args = inv.Arguments()
	r.mu.Unlock()
	if r.reply == nil {
		return "ok", nil
	}
	return r.reply(n)
}

func (r *recorder) lastHeader() http.Header {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.header
}

func invoke(ctx context.Context, md *metadata.MethodMetadata, handlers []invocation.Handler, args ...any) (any, error) {
	return invocation.New("Users.Get", md, invocation.NewChain(handlers...), nil, args...).Proceed(ctx)
}

func getUser() *metadata.MethodMetadata {
	return metadata.MustNew(http.MethodGet, "/users/{id}",
		metadata.PathVariable(0, "id"),
		metadata.Returning(metadata.Returns[string]()))
}
