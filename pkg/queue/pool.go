package queue

import (
	"context"
	"sync"
)

// Task is one unit of background work.
type Task func(ctx context.Context)

// Pool is a bounded fire-and-forget worker pool. Submitting never blocks the
// caller: when the queue is full the task is dropped and Submit reports it.
type Pool struct {
	tasks   chan Task
	workers int

	mu      sync.Mutex
	started bool
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

// NewPool creates a pool with the given worker count and queue size.
func NewPool(workers, queueSize int) *Pool {
	if workers <= 0 {
		workers = 2
	}
	if queueSize <= 0 {
		queueSize = 256
	}
	return &Pool{
		tasks:   make(chan Task, queueSize),
		workers: workers,
	}
}

// Start launches the workers. Safe to call once.
func (p *Pool) Start(ctx context.Context) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.started {
		return
	}
	p.started = true

	ctx, p.cancel = context.WithCancel(ctx)
	for i := 0; i < p.workers; i++ {
		p.wg.Add(1)
		go func() {
			defer p.wg.Done()
			for {
				select {
				case <-ctx.Done():
					return
				case task, ok := <-p.tasks:
					if !ok {
						return
					}
					task(ctx)
				}
			}
		}()
	}
}

// Submit enqueues a task without blocking. Returns false when dropped.
func (p *Pool) Submit(task Task) bool {
	select {
	case p.tasks <- task:
		return true
	default:
		return false
	}
}

// Stop cancels the workers and waits for in-flight tasks to finish so that
// background deliveries do not outlive process shutdown.
func (p *Pool) Stop() {
	p.mu.Lock()
	if !p.started {
		p.mu.Unlock()
		return
	}
	p.started = false
	cancel := p.cancel
	p.mu.Unlock()

	cancel()
	p.wg.Wait()
}
