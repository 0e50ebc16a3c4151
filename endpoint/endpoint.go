// Package endpoint resolves the base URL that method URL templates are
// appended to.
package endpoint

import (
	"strings"
	"sync/atomic"
)

type Provider interface {
	Endpoint() string
}

type ProviderFunc func() string

func (f ProviderFunc) Endpoint() string { return f() }

type static string

func (s static) Endpoint() string { return string(s) }

// Static always returns url, without a trailing slash.
func Static(url string) Provider {
	return static(strings.TrimRight(url, "/"))
}

type roundRobin struct {
	urls []string
	next atomic.Uint64
}

// RoundRobin cycles through urls on every call. It panics when urls is empty.
func RoundRobin(urls ...string) Provider {
	if len(urls) == 0 {
		panic("endpoint: round robin needs at least one url")
	}
	rr := &roundRobin{urls: make([]string, len(urls))}
	for i, u := range urls {
		rr.urls[i] = strings.TrimRight(u, "/")
	}
	return rr
}

func (r *roundRobin) Endpoint() string {
	n := r.next.Add(1) - 1
	return r.urls[n%uint64(len(r.urls))]
}
