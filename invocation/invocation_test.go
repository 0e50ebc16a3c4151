package invocation

import (
	"context"
	"net/http"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/mangohow/gorest/errors"
	"github.com/mangohow/gorest/metadata"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var getUser = metadata.MustNew(http.MethodGet, "/users/{id}", metadata.PathVariable(0, "id"))

type recorder struct {
	name  string
	order int
	calls *[]string
}

func (r recorder) Order() int { return r.order }

func (r recorder) Handle(ctx context.Context, inv *Invocation) (any, error) {
	*r.calls = append(*r.calls, r.name)
	return inv.Proceed(ctx)
}

func terminal(calls *[]string) Handler {
	return WithOrder(HandlerFunc(func(ctx context.Context, inv *Invocation) (any, error) {
		*calls = append(*calls, "transport")
		return inv.Header().Get("X-A") + "|" + inv.Header().Get("X-B"), nil
	}), LowestOrder)
}

func TestProceedDelegatesOncePerHandler(t *testing.T) {
	var calls []string
	a := HandlerFunc(func(ctx context.Context, inv *Invocation) (any, error) {
		calls = append(calls, "a")
		assert.Equal(t, 2, inv.Remaining())
		return inv.WithHeader("X-A", "1").Proceed(ctx)
	})
	b := HandlerFunc(func(ctx context.Context, inv *Invocation) (any, error) {
		calls = append(calls, "b")
		assert.Equal(t, 1, inv.Remaining())
		return inv.WithHeader("X-B", "2").Proceed(ctx)
	})

	inv := New("UserService.Get", getUser, NewChain(a, b, terminal(&calls)), nil, 42)
	res, err := inv.Proceed(context.Background())
	require.NoError(t, err)

	assert.Equal(t, []string{"a", "b", "transport"}, calls)
	assert.Equal(t, "1|2", res)
	assert.Equal(t, 3, inv.Remaining())
	assert.Empty(t, inv.Header())
}

func TestProceedOnEmptyChain(t *testing.T) {
	inv := New("UserService.Get", getUser, nil, nil)
	_, err := inv.Proceed(context.Background())
	require.Error(t, err)
	assert.True(t, errors.IsIllegalState(err))
}

func TestTerminalProceedingIsIllegal(t *testing.T) {
	greedy := HandlerFunc(func(ctx context.Context, inv *Invocation) (any, error) {
		return inv.Proceed(ctx)
	})
	_, err := New("UserService.Get", getUser, NewChain(greedy), nil).Proceed(context.Background())
	assert.True(t, errors.IsIllegalState(err))
}

func TestShortCircuit(t *testing.T) {
	var calls []string
	cached := HandlerFunc(func(ctx context.Context, inv *Invocation) (any, error) {
		return "cached", nil
	})
	res, err := New("UserService.Get", getUser, NewChain(cached, terminal(&calls)), nil).Proceed(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "cached", res)
	assert.Empty(t, calls)
}

func TestNewChainSortsByOrder(t *testing.T) {
	var calls []string
	chain := NewChain(
		terminal(&calls),
		recorder{name: "inner", order: -10, calls: &calls},
		recorder{name: "outer", order: 100, calls: &calls},
		recorder{name: "plain1", calls: &calls},
		nil,
		recorder{name: "plain2", calls: &calls},
	)
	require.Equal(t, 5, chain.Len())

	_, err := New("m", getUser, chain, nil).Proceed(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"outer", "plain1", "plain2", "inner", "transport"}, calls)
}

func TestNewChainDoesNotMutateInput(t *testing.T) {
	var calls []string
	in := []Handler{terminal(&calls), recorder{name: "a", order: 5, calls: &calls}}
	_ = NewChain(in...)
	assert.Equal(t, LowestOrder, in[0].(Ordered).Order())
}

func TestInvocationIsImmutable(t *testing.T) {
	h := http.Header{"X-Trace": []string{"abc"}}
	args := []any{1, "two"}
	inv := New("m", getUser, nil, h, args...)

	h.Set("X-Trace", "changed")
	args[0] = 99
	assert.Equal(t, "abc", inv.Header().Get("X-Trace"))
	assert.Equal(t, []any{1, "two"}, inv.Arguments())

	inv.Arguments()[0] = 100
	assert.Equal(t, 1, inv.Argument(0))
	assert.Nil(t, inv.Argument(5))

	derived := inv.WithArguments(7).WithHeaders(http.Header{"x-other": {"o"}})
	assert.Equal(t, []any{7}, derived.Arguments())
	assert.Equal(t, "o", derived.Header().Get("X-Other"))
	assert.Equal(t, "abc", derived.Header().Get("X-Trace"))
	assert.Equal(t, []any{1, "two"}, inv.Arguments())
	assert.Empty(t, inv.Header().Get("X-Other"))
	assert.Same(t, inv.Metadata(), derived.Metadata())
	assert.Equal(t, "m", derived.Method())
}

func TestConcurrentInvocationsShareChain(t *testing.T) {
	var count atomic.Int64
	counting := HandlerFunc(func(ctx context.Context, inv *Invocation) (any, error) {
		count.Add(1)
		return inv.WithHeader("X-Arg", inv.Argument(0).(string)).Proceed(ctx)
	})
	echo := WithOrder(HandlerFunc(func(ctx context.Context, inv *Invocation) (any, error) {
		return inv.Header().Get("X-Arg"), nil
	}), LowestOrder)
	chain := NewChain(counting, echo)

	var wg sync.WaitGroup
	for i := 0; i < 64; i++ {
		wg.Add(1)
		go func(arg string) {
			defer wg.Done()
			res, err := New("m", getUser, chain, nil, arg).Proceed(context.Background())
			assert.NoError(t, err)
			assert.Equal(t, arg, res)
		}(string(rune('a' + i%26)))
	}
	wg.Wait()
	assert.Equal(t, int64(64), count.Load())
}
