package usecase

import (
	"context"
	"sync"

	"go.uber.org/zap"
)

// Dispatcher runs fire-and-forget work on a bounded worker pool. Callers on
// the synchronous path hand work over a channel instead of spawning inline,
// so an edit or application creation is never blocked by embedding or
// scoring I/O.
type Dispatcher struct {
	tasks chan job
	wg    sync.WaitGroup
	log   *zap.Logger

	mu     sync.Mutex
	closed bool
}

type job struct {
	name string
	fn   func(context.Context)
}

func NewDispatcher(workers, queueSize int, logger *zap.Logger) *Dispatcher {
	d := &Dispatcher{
		tasks: make(chan job, queueSize),
		log:   logger,
	}
	for i := 0; i < workers; i++ {
		d.wg.Add(1)
		go d.worker()
	}
	return d
}

func (d *Dispatcher) worker() {
	defer d.wg.Done()
	for j := range d.tasks {
		d.run(j)
	}
}

func (d *Dispatcher) run(j job) {
	defer func() {
		if r := recover(); r != nil {
			d.log.Error("background task panicked",
				zap.String("task", j.name), zap.Any("panic", r))
		}
	}()
	j.fn(context.Background())
}

// Submit enqueues work without blocking. When the queue is saturated the
// task is dropped with a warning; background work here is always safe to
// retry later through its normal trigger.
func (d *Dispatcher) Submit(name string, fn func(context.Context)) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return false
	}

	select {
	case d.tasks <- job{name: name, fn: fn}:
		return true
	default:
		d.log.Warn("background queue full, dropping task", zap.String("task", name))
		return false
	}
}

// Stop drains queued work and waits for in-flight tasks.
func (d *Dispatcher) Stop() {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return
	}
	d.closed = true
	d.mu.Unlock()

	close(d.tasks)
	d.wg.Wait()
}
