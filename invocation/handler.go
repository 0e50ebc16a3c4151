package invocation

import (
	"context"
	"math"
	"sort"
)

const (
	// HighestOrder handlers run first.
	HighestOrder = math.MaxInt32
	// LowestOrder handlers run last. The transport uses it.
	LowestOrder = math.MinInt32
)

// Handler is one link of the invocation chain. inv holds the handlers that
// come after this one: call inv.Proceed to delegate, or return a result
// directly to short-circuit.
//
//	func timing(ctx context.Context, inv *invocation.Invocation) (any, error) {
//	    start := time.Now()
//	    res, err := inv.Proceed(ctx)
//	    log.Printf("%s took %v", inv.Method(), time.Since(start))
//	    return res, err
//	}
//
// Handlers are shared by all concurrent invocations and must not keep
// unsynchronized mutable state.
type Handler interface {
	Handle(ctx context.Context, inv *Invocation) (any, error)
}

type HandlerFunc func(ctx context.Context, inv *Invocation) (any, error)

func (f HandlerFunc) Handle(ctx context.Context, inv *Invocation) (any, error) {
	return f(ctx, inv)
}

// Ordered lets a handler pick its position in a chain built by NewChain.
type Ordered interface {
	Order() int
}

type orderedHandler struct {
	Handler
	order int
}

func (h orderedHandler) Order() int { return h.order }

// WithOrder attaches an order to h.
func WithOrder(h Handler, order int) Handler {
	return orderedHandler{Handler: h, order: order}
}

func orderOf(h Handler) int {
	if o, ok := h.(Ordered); ok {
		return o.Order()
	}
	return 0
}

// Chain is an immutable ordered list of handlers.
type Chain []Handler

// NewChain sorts a copy of handlers by descending Order, keeping the given
// order among equal values. The lowest order ends up last.
func NewChain(handlers ...Handler) Chain {
	c := make(Chain, 0, len(handlers))
	for _, h := range handlers {
		if h != nil {
			c = append(c, h)
		}
	}
	sort.SliceStable(c, func(i, j int) bool {
		return orderOf(c[i]) > orderOf(c[j])
	})
	return c
}

func (c Chain) Len() int { return len(c) }
