// Package tasks runs deferred background work on a bounded worker pool.
// All work started here is owned by the pool and drained on shutdown, so
// nothing outlives the process unnoticed.
package tasks

import (
	"context"
	"sync"
	"time"

	"github.com/panjf2000/ants/v2"
	"go.uber.org/zap"
)

// Pool schedules background tasks (write-behind flushes, refresh-ahead
// refetches, analytics appends) with bounded concurrency.
//
// Two contexts govern a task's life. closing is cancelled the moment
// Shutdown starts and only wakes delay timers; taskCtx stays live until the
// drain window closes, so a flush that runs during shutdown can still reach
// the backend.
type Pool struct {
	workers *ants.Pool
	logger  *zap.Logger

	mu         sync.Mutex
	wg         sync.WaitGroup
	closed     bool
	closing    context.Context
	closeFn    context.CancelFunc
	taskCtx    context.Context
	taskCancel context.CancelFunc
}

// NewPool creates a task pool with the given worker count.
func NewPool(size int, logger *zap.Logger) (*Pool, error) {
	if size < 1 {
		size = 1
	}
	workers, err := ants.NewPool(size)
	if err != nil {
		return nil, err
	}

	closing, closeFn := context.WithCancel(context.Background())
	taskCtx, taskCancel := context.WithCancel(context.Background())
	return &Pool{
		workers:    workers,
		logger:     logger,
		closing:    closing,
		closeFn:    closeFn,
		taskCtx:    taskCtx,
		taskCancel: taskCancel,
	}, nil
}

// Submit runs fn on the pool. The context passed to fn stays live through
// the shutdown drain and is cancelled once the drain window closes. Returns
// false if the pool is closed or saturated.
func (p *Pool) Submit(name string, fn func(ctx context.Context)) bool {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return false
	}
	p.wg.Add(1)
	p.mu.Unlock()

	err := p.workers.Submit(func() {
		defer p.wg.Done()
		fn(p.taskCtx)
	})
	if err != nil {
		p.wg.Done()
		p.logger.Warn("Task submission rejected", zap.String("task", name), zap.Error(err))
		return false
	}
	return true
}

// SubmitAfter runs fn on the pool after the given delay. Shutdown cancels the
// delay timer and runs the task immediately so pending work is not lost.
func (p *Pool) SubmitAfter(name string, delay time.Duration, fn func(ctx context.Context)) bool {
	return p.Submit(name, func(ctx context.Context) {
		timer := time.NewTimer(delay)
		defer timer.Stop()
		select {
		case <-timer.C:
		case <-p.closing.Done():
			// Draining: run now rather than dropping the flush.
		}
		fn(ctx)
	})
}

// Shutdown stops accepting tasks, cancels delay timers and waits for running
// tasks to finish, up to the given timeout. Drained tasks keep a live
// context for the whole window; only once it closes is task work cancelled.
func (p *Pool) Shutdown(timeout time.Duration) {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}
	p.closed = true
	p.mu.Unlock()

	p.closeFn()

	done := make(chan struct{})
	go func() {
		p.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(timeout):
		p.logger.Warn("Task pool shutdown timed out", zap.Duration("timeout", timeout))
	}

	p.taskCancel()
	p.workers.Release()
}
