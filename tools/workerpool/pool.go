// Package workerpool runs asynchronous invocations on a bounded set of
// goroutines that grows under load and shrinks when idle.
package workerpool

import (
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/sirupsen/logrus"
)

// WorkerPool is what callers of Submit depend on; *Pool implements it.
type WorkerPool interface {
	Submit(task func()) error
	Start() error
	Shutdown(drain bool)
	ShutdownWait(drain bool)
	Stats() Stats
}

var (
	ErrShutdown     = errors.New("worker pool has been shut down")
	ErrQueueFull    = errors.New("task queue is full")
	ErrInvalidState = errors.New("worker pool state is invalid")
)

type state int32

const (
	created state = iota
	running
	draining
	stopped
)

// Stats is a point-in-time snapshot of a pool.
type Stats struct {
	Workers   int
	Queued    int
	Completed uint64
	Rejected  uint64
	Panicked  uint64
}

type Pool struct {
	minWorkers  int
	maxWorkers  int
	idleTimeout time.Duration
	reject      RejectPolicy
	onPanic     func(r any, stack []byte)
	log         *logrus.Logger

	// mu is read-held by every send on tasks and write-held while closing it.
	mu      sync.RWMutex
	tasks   chan func()
	state   atomic.Int32
	workers atomic.Int32
	wg      sync.WaitGroup

	completed atomic.Uint64
	rejected  atomic.Uint64
	panicked  atomic.Uint64
}

type Option func(p *Pool)

// WithWorkers bounds the number of goroutines. min of them stay alive while
// the pool runs; the rest exit after the idle timeout.
func WithWorkers(min, max int) Option {
	return func(p *Pool) {
		p.minWorkers, p.maxWorkers = min, max
	}
}

func WithQueueSize(n int) Option {
	return func(p *Pool) {
		p.tasks = make(chan func(), n)
	}
}

func WithIdleTimeout(d time.Duration) Option {
	return func(p *Pool) {
		p.idleTimeout = d
	}
}

func WithRejectPolicy(policy RejectPolicy) Option {
	return func(p *Pool) {
		p.reject = policy
	}
}

// WithPanicHandler replaces logging of panicking tasks.
func WithPanicHandler(fn func(r any, stack []byte)) Option {
	return func(p *Pool) {
		p.onPanic = fn
	}
}

func WithLogger(log *logrus.Logger) Option {
	return func(p *Pool) {
		p.log = log
	}
}

// New returns a pool in the created state; Start it before submitting.
// It panics on an inconsistent worker or queue configuration.
func New(opts ...Option) *Pool {
	p := &Pool{
		minWorkers:  1,
		maxWorkers:  1,
		idleTimeout: 5 * time.Minute,
	}
	for _, opt := range opts {
		opt(p)
	}

	if p.minWorkers < 0 || p.maxWorkers <= 0 || p.minWorkers > p.maxWorkers {
		panic("workerpool: invalid worker bounds")
	}
	if p.idleTimeout <= 0 {
		panic("workerpool: idle timeout must be positive")
	}
	if p.tasks == nil {
		p.tasks = make(chan func(), 64)
	}
	if p.reject == nil {
		p.reject = AbortPolicy()
	}
	if p.log == nil {
		p.log = logrus.StandardLogger()
	}

	return p
}

func (p *Pool) Start() error {
	if state(p.state.Load()) == running {
		return nil
	}
	if !p.state.CompareAndSwap(int32(created), int32(running)) {
		return ErrInvalidState
	}

	for i := 0; i < p.minWorkers; i++ {
		p.grow()
	}
	return nil
}

// Submit queues task. A full queue is handed to the reject policy.
func (p *Pool) Submit(task func()) error {
	err := p.offer(task)
	if !errors.Is(err, ErrQueueFull) {
		return err
	}

	err = p.reject(p, task, func() error { return p.offer(task) })
	if err != nil {
		p.rejected.Add(1)
	}
	return err
}

func (p *Pool) offer(task func()) error {
	p.mu.RLock()
	defer p.mu.RUnlock()

	if state(p.state.Load()) != running {
		return ErrShutdown
	}

	if len(p.tasks) > 3 || p.workers.Load() == 0 {
		p.grow()
	}

	select {
	case p.tasks <- task:
		return nil
	default:
		return ErrQueueFull
	}
}

// grow starts one more worker unless the pool is at its maximum.
func (p *Pool) grow() {
	for {
		n := p.workers.Load()
		if int(n) >= p.maxWorkers {
			return
		}
		if p.workers.CompareAndSwap(n, n+1) {
			break
		}
	}

	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		defer p.workers.Add(-1)
		p.work()
	}()
}

// Shutdown stops accepting tasks. With drain, queued tasks still run;
// without it, workers exit after their current task.
func (p *Pool) Shutdown(drain bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if state(p.state.Load()) != running {
		return
	}

	next := stopped
	if drain {
		next = draining
	}
	p.state.Store(int32(next))
	close(p.tasks)
}

func (p *Pool) ShutdownWait(drain bool) {
	p.Shutdown(drain)
	p.wg.Wait()
}

func (p *Pool) Stats() Stats {
	return Stats{
		Workers:   int(p.workers.Load()),
		Queued:    len(p.tasks),
		Completed: p.completed.Load(),
		Rejected:  p.rejected.Load(),
		Panicked:  p.panicked.Load(),
	}
}
