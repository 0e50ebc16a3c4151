// Package client is the registration side of gorest: it holds the method
// table, assembles the handler chain in front of the transport and runs
// calls by name.
package client

import (
	"context"
	"net/http"
	"sort"
	"sync"

	"github.com/mangohow/gorest/endpoint"
	"github.com/mangohow/gorest/errors"
	"github.com/mangohow/gorest/invocation"
	"github.com/mangohow/gorest/metadata"
	"github.com/mangohow/gorest/tools/workerpool"
	transport "github.com/mangohow/gorest/transport/http"
	"github.com/mangohow/gorest/transport/binding"
	"github.com/sirupsen/logrus"
)

type Client struct {
	mu      sync.RWMutex
	methods map[string]*metadata.MethodMetadata
	chain   invocation.Chain

	endpoint  endpoint.Provider
	exchanger transport.Exchanger
	handlers  []invocation.Handler
	buildOpts []binding.BuildOption
	log       *logrus.Logger

	poolOnce  sync.Once
	pool      workerpool.WorkerPool
	ownedPool bool
}

type Option func(c *Client)

// WithEndpoint sets the base URL provider. Required.
func WithEndpoint(ep endpoint.Provider) Option {
	return func(c *Client) {
		c.endpoint = ep
	}
}

// WithBaseURL is WithEndpoint(endpoint.Static(url)).
func WithBaseURL(url string) Option {
	return func(c *Client) {
		c.endpoint = endpoint.Static(url)
	}
}

// WithExchanger replaces the default net/http transport.
func WithExchanger(ex transport.Exchanger) Option {
	return func(c *Client) {
		c.exchanger = ex
	}
}

func WithHandlers(handlers ...invocation.Handler) Option {
	return func(c *Client) {
		c.handlers = append(c.handlers, handlers...)
	}
}

// WithQueryExtractor replaces the default json-tag query object flattening.
func WithQueryExtractor(e binding.QueryExtractor) Option {
	return func(c *Client) {
		c.buildOpts = append(c.buildOpts, binding.WithQueryExtractor(e))
	}
}

func WithLogger(log *logrus.Logger) Option {
	return func(c *Client) {
		c.log = log
	}
}

// WithWorkerPool runs Go calls on pool. The caller starts and stops it.
func WithWorkerPool(pool workerpool.WorkerPool) Option {
	return func(c *Client) {
		c.pool = pool
	}
}

func New(opts ...Option) (*Client, error) {
	c := &Client{
		methods: make(map[string]*metadata.MethodMetadata),
	}
	for _, opt := range opts {
		opt(c)
	}

	if c.endpoint == nil {
		return nil, errors.IllegalState("client: no endpoint configured")
	}

	if c.log == nil {
		c.log = logrus.StandardLogger()
	}

	if c.exchanger == nil {
		c.exchanger = transport.New(transport.WithLogger(c.log))
	}

	c.chain = c.buildChain()

	return c, nil
}

func (c *Client) buildChain() invocation.Chain {
	hs := make([]invocation.Handler, 0, len(c.handlers)+1)
	hs = append(hs, c.handlers...)
	hs = append(hs, transport.NewInvoker(c.endpoint, c.exchanger, c.buildOpts...))
	return invocation.NewChain(hs...)
}

// Use appends handlers to the chain. Calls already running keep the chain
// they started with.
func (c *Client) Use(handlers ...invocation.Handler) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.handlers = append(c.handlers, handlers...)
	c.chain = c.buildChain()
}

// Register binds name to md. Names are unique per client.
func (c *Client) Register(name string, md *metadata.MethodMetadata) error {
	if name == "" || md == nil {
		return errors.IllegalState("client: register needs a name and metadata")
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.methods[name]; ok {
		return errors.IllegalState("client: method %s already registered", name)
	}
	c.methods[name] = md
	c.log.Debugf("register %s -> %s", name, md)

	return nil
}

// RegisterMethod builds the metadata and registers it under name.
func (c *Client) RegisterMethod(name, httpMethod, urlTemplate string, opts ...metadata.Option) error {
	md, err := metadata.New(httpMethod, urlTemplate, opts...)
	if err != nil {
		return err
	}
	return c.Register(name, md)
}

// RegisterService registers every method of sd as "<ServiceName>.<Name>".
// It stops at the first failure; methods registered before it stay.
func (c *Client) RegisterService(sd *ServiceDesc) error {
	for _, m := range sd.Methods {
		if err := c.Register(sd.ServiceName+"."+m.Name, m.Metadata); err != nil {
			return err
		}
	}
	c.log.Infof("registered service %s with %d methods", sd.ServiceName, len(sd.Methods))
	return nil
}

func (c *Client) Lookup(name string) (*metadata.MethodMetadata, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	md, ok := c.methods[name]
	return md, ok
}

// Methods returns the registered names in ascending order.
func (c *Client) Methods() []string {
	c.mu.RLock()
	names := make([]string, 0, len(c.methods))
	for name := range c.methods {
		names = append(names, name)
	}
	c.mu.RUnlock()

	sort.Strings(names)
	return names
}

// Invoke runs the named method through the chain. header holds the
// per-call headers; it may be nil.
func (c *Client) Invoke(ctx context.Context, name string, header http.Header, args ...any) (any, error) {
	c.mu.RLock()
	md, ok := c.methods[name]
	chain := c.chain
	c.mu.RUnlock()
	if !ok {
		return nil, errors.IllegalState("client: method %s is not registered", name)
	}

	return invocation.New(name, md, chain, header, args...).Proceed(ctx)
}

// Close stops the worker pool the client created for Go, if any.
func (c *Client) Close() {
	c.mu.RLock()
	owned, pool := c.ownedPool, c.pool
	c.mu.RUnlock()
	if owned {
		pool.ShutdownWait(true)
	}
}
