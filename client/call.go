package client

import (
	"context"
	"fmt"
	"net/http"
	"runtime"

	"github.com/mangohow/gorest/errors"
	"github.com/mangohow/gorest/tools/workerpool"
)

// Call invokes name and asserts the result to T. A call that returns no
// content yields the zero T.
func Call[T any](ctx context.Context, c *Client, name string, args ...any) (T, error) {
	return CallWithHeader[T](ctx, c, name, nil, args...)
}

func CallWithHeader[T any](ctx context.Context, c *Client, name string, header http.Header, args ...any) (T, error) {
	res, err := c.Invoke(ctx, name, header, args...)
	return as[T](name, res, err)
}

func as[T any](name string, res any, err error) (T, error) {
	var zero T
	if err != nil || res == nil {
		return zero, err
	}
	v, ok := res.(T)
	if !ok {
		return zero, errors.IllegalState("client: %s returned %T, want %T", name, res, zero)
	}
	return v, nil
}

// Future is the pending result of an asynchronous call.
type Future struct {
	name string
	done chan struct{}
	res  any
	err  error
}

func newFuture(name string) *Future {
	return &Future{name: name, done: make(chan struct{})}
}

func (f *Future) complete(res any, err error) {
	f.res, f.err = res, err
	close(f.done)
}

// Done is closed once the result is available.
func (f *Future) Done() <-chan struct{} { return f.done }

// Get waits for the result or for ctx to end, whichever comes first.
func (f *Future) Get(ctx context.Context) (any, error) {
	select {
	case <-f.done:
		return f.res, f.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Await is Future.Get with the result asserted to T.
func Await[T any](ctx context.Context, f *Future) (T, error) {
	res, err := f.Get(ctx)
	return as[T](f.name, res, err)
}

// Go runs Invoke on the client's worker pool. Without WithWorkerPool a pool
// is created on first use and stopped by Close. A rejected submission
// completes the future with the rejection error.
func (c *Client) Go(ctx context.Context, name string, header http.Header, args ...any) *Future {
	f := newFuture(name)

	pool, err := c.workerPool()
	if err != nil {
		f.complete(nil, err)
		return f
	}

	err = pool.Submit(func() {
		defer func() {
			if r := recover(); r != nil {
				f.complete(nil, fmt.Errorf("client: %s panicked: %v", name, r))
			}
		}()
		f.complete(c.Invoke(ctx, name, header, args...))
	})
	if err != nil {
		f.complete(nil, err)
	}

	return f
}

func (c *Client) workerPool() (workerpool.WorkerPool, error) {
	var err error
	c.poolOnce.Do(func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		if c.pool != nil {
			return
		}
		pool := workerpool.New(
			workerpool.WithWorkers(1, runtime.NumCPU()*4),
			workerpool.WithQueueSize(128),
			workerpool.WithRejectPolicy(workerpool.CallerRunsPolicy()),
			workerpool.WithLogger(c.log))
		if err = pool.Start(); err != nil {
			return
		}
		c.pool, c.ownedPool = pool, true
	})
	if err != nil {
		return nil, err
	}

	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.pool == nil {
		return nil, workerpool.ErrInvalidState
	}
	return c.pool, nil
}
