package handler

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/mangohow/gorest/invocation"
	"github.com/mangohow/gorest/tools/collection"
	"github.com/mangohow/gorest/transport/binding"
)

// Cache memoizes successful GET results per method identity and resolved
// URL for a fixed time. Cached values are handed to every caller as is, so
// callers must not mutate them.
type Cache struct {
	entries   collection.ExpirationMap[string, any]
	ttl       time.Duration
	vary      []string
	buildOpts []binding.BuildOption
}

type CacheOption func(c *Cache)

// WithVary adds the values of the named request headers to the cache key.
func WithVary(headers ...string) CacheOption {
	return func(c *Cache) {
		for _, h := range headers {
			c.vary = append(c.vary, http.CanonicalHeaderKey(h))
		}
	}
}

// WithCacheBuildOptions must mirror the options given to the transport
// invoker so that keys match the URLs actually requested.
func WithCacheBuildOptions(opts ...binding.BuildOption) CacheOption {
	return func(c *Cache) {
		c.buildOpts = append(c.buildOpts, opts...)
	}
}

func WithCacheStore(m collection.ExpirationMap[string, any]) CacheOption {
	return func(c *Cache) {
		c.entries = m
	}
}

func NewCache(ttl time.Duration, opts ...CacheOption) *Cache {
	c := &Cache{ttl: ttl}
	for _, opt := range opts {
		opt(c)
	}
	if c.entries == nil {
		c.entries = collection.NewExpirationMap[string, any](
			collection.WithCleanDuration[string, any](ttl))
	}

	return c
}

func (c *Cache) Handle(ctx context.Context, inv *invocation.Invocation) (any, error) {
	md := inv.Metadata()
	if md.HTTPMethod() != http.MethodGet || c.ttl <= 0 {
		return inv.Proceed(ctx)
	}

	opts := append([]binding.BuildOption{binding.WithIdentity(inv.Method())}, c.buildOpts...)
	req, err := binding.Build("", md, inv.Arguments(), inv.Header(), opts...)
	if err != nil {
		// the transport reports it
		return inv.Proceed(ctx)
	}

	key := c.key(inv.Method(), req)
	if v, ok := c.entries.Get(key); ok {
		return v, nil
	}

	res, err := inv.Proceed(ctx)
	if err != nil {
		return nil, err
	}
	c.entries.SetExpired(key, res, c.ttl)

	return res, nil
}

func (c *Cache) key(method string, req *binding.Request) string {
	var b strings.Builder
	b.WriteString(method)
	b.WriteByte(' ')
	b.WriteString(req.URL)
	for _, name := range c.vary {
		b.WriteByte('\n')
		b.WriteString(name)
		b.WriteByte(':')
		b.WriteString(strings.Join(req.Header.Values(name), ","))
	}
	return b.String()
}

// Invalidate drops every cached entry.
func (c *Cache) Invalidate() {
	for _, k := range c.entries.Keys() {
		c.entries.Delete(k)
	}
}

// Close stops the background expiry of the default store.
func (c *Cache) Close() {
	c.entries.Destroy()
}
