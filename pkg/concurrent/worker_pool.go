package concurrent

import (
	"errors"
	"sync"
	"time"
)

var (
	ErrScheduleTimeout = errors.New("schedule error: timed out")
	ErrPoolClosed      = errors.New("schedule error: pool closed")
)

// WorkerPool runs scheduled tasks on at most size goroutines. Tasks that find
// every worker busy wait in a queue of the given capacity.
type WorkerPool struct {
	sem  chan struct{}
	work chan func()
	done chan struct{}

	wg        sync.WaitGroup
	closeOnce sync.Once
}

func NewWorkerPool(size, queue int) *WorkerPool {
	if size <= 0 {
		size = 1
	}
	if queue < 0 {
		queue = 0
	}
	return &WorkerPool{
		sem:  make(chan struct{}, size),
		work: make(chan func(), queue),
		done: make(chan struct{}),
	}
}

// Spawn starts n idle workers up front, bounded by the pool size.
func (p *WorkerPool) Spawn(n int) {
	for i := 0; i < n; i++ {
		select {
		case p.sem <- struct{}{}:
			p.wg.Add(1)
			go p.worker(func() {})
		default:
			return
		}
	}
}

// Schedule blocks until the task is accepted by a worker or queued.
func (p *WorkerPool) Schedule(task func()) error {
	return p.schedule(task, nil)
}

// ScheduleTimeout is Schedule giving up with ErrScheduleTimeout after timeout.
func (p *WorkerPool) ScheduleTimeout(timeout time.Duration, task func()) error {
	t := time.NewTimer(timeout)
	defer t.Stop()
	return p.schedule(task, t.C)
}

func (p *WorkerPool) schedule(task func(), timeout <-chan time.Time) error {
	select {
	case <-p.done:
		return ErrPoolClosed
	default:
	}

	select {
	case <-p.done:
		return ErrPoolClosed
	case <-timeout:
		return ErrScheduleTimeout
	case p.work <- task:
		return nil
	case p.sem <- struct{}{}:
		p.wg.Add(1)
		go p.worker(task)
		return nil
	}
}

func (p *WorkerPool) worker(task func()) {
	defer func() {
		<-p.sem
		p.wg.Done()
	}()

	task()

	for {
		select {
		case task := <-p.work:
			task()
		case <-p.done:
			return
		}
	}
}

// Close stops accepting tasks and waits for running tasks to finish.
func (p *WorkerPool) Close() {
	p.closeOnce.Do(func() {
		close(p.done)
	})
	p.wg.Wait()
}
