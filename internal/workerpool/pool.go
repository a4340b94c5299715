package workerpool

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"
)

var (
	// ErrClosed is returned by Do once Close has been called.
	ErrClosed = errors.New("worker pool closed")
)

const DefaultSize = 4

// Task is a unit of blocking work executed on a pool worker.
type Task func(ctx context.Context) error

type request struct {
	ctx  context.Context
	task Task
	done chan error
}

// Pool runs blocking tasks on a fixed number of worker goroutines. Callers
// block in Do until a worker is free and has executed their task, which makes
// the pool size the only bound on concurrent blocking calls.
type Pool struct {
	size     int
	tasks    chan request
	closed   chan struct{}
	once     sync.Once
	wg       sync.WaitGroup
	inFlight atomic.Int64

	logger *zap.Logger
}

type Option func(*Pool)

func WithLogger(logger *zap.Logger) Option {
	return func(p *Pool) {
		p.logger = logger
	}
}

func New(size int, opts ...Option) *Pool {
	if size < 1 {
		size = DefaultSize
	}
	p := &Pool{
		size:   size,
		tasks:  make(chan request),
		closed: make(chan struct{}),
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(p)
	}

	for i := 0; i < size; i++ {
		p.wg.Add(1)
		go p.worker(i)
	}

	p.logger.Info("worker pool started", zap.Int("size", size))
	return p
}

func (p *Pool) Size() int {
	return p.size
}

// InFlight returns the number of tasks currently executing.
func (p *Pool) InFlight() int {
	return int(p.inFlight.Load())
}

// Do submits task and waits for its result. If ctx ends first Do returns
// ctx.Err(); a task that already started is allowed to finish.
func (p *Pool) Do(ctx context.Context, task Task) error {
	req := request{ctx: ctx, task: task, done: make(chan error, 1)}

	select {
	case <-p.closed:
		return ErrClosed
	default:
	}

	select {
	case p.tasks <- req:
	case <-ctx.Done():
		return ctx.Err()
	case <-p.closed:
		return ErrClosed
	}

	select {
	case err := <-req.done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Submit runs fn on the pool and returns its value.
func Submit[T any](ctx context.Context, p *Pool, fn func(context.Context) (T, error)) (T, error) {
	out := make(chan T, 1)
	err := p.Do(ctx, func(ctx context.Context) error {
		v, err := fn(ctx)
		if err != nil {
			return err
		}
		out <- v
		return nil
	})
	if err != nil {
		var zero T
		return zero, err
	}
	return <-out, nil
}

func (p *Pool) worker(idx int) {
	defer p.wg.Done()
	for {
		select {
		case <-p.closed:
			return
		case req := <-p.tasks:
			req.done <- p.run(idx, req)
		}
	}
}

func (p *Pool) run(idx int, req request) (err error) {
	if err := req.ctx.Err(); err != nil {
		return err
	}

	p.inFlight.Add(1)
	defer p.inFlight.Add(-1)

	defer func() {
		if r := recover(); r != nil {
			p.logger.Error("task panicked",
				zap.Int("worker", idx),
				zap.Any("panic", r),
			)
			err = fmt.Errorf("task panicked: %v", r)
		}
	}()

	return req.task(req.ctx)
}

// Close stops the workers after their current task and waits for them.
func (p *Pool) Close() {
	p.once.Do(func() {
		close(p.closed)
	})
	p.wg.Wait()
	p.logger.Info("worker pool stopped")
}
