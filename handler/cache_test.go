package handler

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/mangohow/gorest/invocation"
	"github.com/mangohow/gorest/metadata"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCacheHit(t *testing.T) {
	cache := NewCache(time.Minute)
	defer cache.Close()
	rec := &recorder{reply: func(n int32) (any, error) { return n, nil }}
	chain := []invocation.Handler{cache, rec}

	first, err := invoke(context.Background(), getUser(), chain, 1)
	require.NoError(t, err)
	second, err := invoke(context.Background(), getUser(), chain, 1)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.EqualValues(t, 1, rec.calls.Load())

	third, err := invoke(context.Background(), getUser(), chain, 2)
	require.NoError(t, err)
	assert.EqualValues(t, 2, third)
}

func TestCacheSkipsErrorsAndNonGet(t *testing.T) {
	cache := NewCache(time.Minute)
	defer cache.Close()

	failing := &recorder{reply: func(int32) (any, error) { return nil, errors.New("down") }}
	for i := 0; i < 2; i++ {
		_, err := invoke(context.Background(), getUser(), []invocation.Handler{cache, failing}, 1)
		assert.Error(t, err)
	}
	assert.EqualValues(t, 2, failing.calls.Load())

	post := metadata.MustNew(http.MethodPost, "/users", metadata.RequestBody(0))
	rec := &recorder{}
	for i := 0; i < 2; i++ {
		_, err := invoke(context.Background(), post, []invocation.Handler{cache, rec}, "body")
		require.NoError(t, err)
	}
	assert.EqualValues(t, 2, rec.calls.Load())
}

func TestCacheVary(t *testing.T) {
	cache := NewCache(time.Minute, WithVary("authorization"))
	defer cache.Close()
	rec := &recorder{}

	for _, token := range []string{"a", "b", "a"} {
		inv := invocation.New("Users.Get", getUser(), invocation.NewChain(cache, rec),
			http.Header{"Authorization": {token}}, 1)
		_, err := inv.Proceed(context.Background())
		require.NoError(t, err)
	}
	assert.EqualValues(t, 2, rec.calls.Load())
}

func TestCacheInvalidate(t *testing.T) {
	cache := NewCache(time.Minute)
	defer cache.Close()
	rec := &recorder{}

	_, _ = invoke(context.Background(), getUser(), []invocation.Handler{cache, rec}, 1)
	cache.Invalidate()
	_, _ = invoke(context.Background(), getUser(), []invocation.Handler{cache, rec}, 1)
	assert.EqualValues(t, 2, rec.calls.Load())
}

func TestCacheBuildErrorFallsThrough(t *testing.T) {
	cache := NewCache(time.Minute)
	defer cache.Close()
	rec := &recorder{}

	// no argument for {id}: the transport reports it, the cache stays out of the way
	_, err := invoke(context.Background(), getUser(), []invocation.Handler{cache, rec})
	require.NoError(t, err)
	assert.EqualValues(t, 1, rec.calls.Load())
}
