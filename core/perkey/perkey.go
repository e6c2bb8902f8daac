// Package perkey provides a scheduler that serializes work per key
// while allowing work for different keys to execute concurrently.
//
// The directory package uses it with person IDs as keys: every operation on
// one person's roles cache runs on that person's worker, so the cache needs
// no lock of its own.
package perkey

import (
	"context"
	"errors"
	"sync"
)

// ErrSchedulerClosed is returned when Do is called on a closed scheduler.
var ErrSchedulerClosed = errors.New("perkey: scheduler is closed")

// Option configures a Scheduler.
type Option func(*config)

type config struct {
	bufferSize int
}

// WithBufferSize sets the task buffer size per worker (default: 64).
func WithBufferSize(size int) Option {
	return func(c *config) {
		if size > 0 {
			c.bufferSize = size
		}
	}
}

// Scheduler runs tasks (functions) such that for any given key K,
// tasks are executed sequentially, in submission order.
// Tasks for *different* keys can proceed in parallel.
type Scheduler[K comparable] struct {
	mu         sync.Mutex
	workers    map[K]*worker
	retired    map[K]*worker // released, still draining
	closed     bool
	wg         sync.WaitGroup // tracks in-flight Do operations
	bufferSize int
}

type worker struct {
	tasks    chan *task
	done     chan struct{}
	refs     int // Do calls holding the worker before enqueueing
	released bool
}

type task struct {
	fn   func() error
	done chan error
}

// New creates a new Scheduler.
func New[K comparable](opts ...Option) *Scheduler[K] {
	cfg := &config{bufferSize: 64}
	for _, opt := range opts {
		opt(cfg)
	}
	return &Scheduler[K]{
		workers:    make(map[K]*worker),
		retired:    make(map[K]*worker),
		bufferSize: cfg.bufferSize,
	}
}

// Do schedules fn to run for the given key.
// It blocks until fn finishes and returns its error.
// All fn calls for the same key are executed sequentially.
func (s *Scheduler[K]) Do(key K, fn func() error) error {
	return s.DoContext(context.Background(), key, fn)
}

// DoContext is like Do but respects context cancellation.
// If the context is cancelled while waiting to enqueue or waiting for
// completion, it returns the context error. A task that is already
// enqueued still executes even if the caller's context is cancelled.
func (s *Scheduler[K]) DoContext(ctx context.Context, key K, fn func() error) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrSchedulerClosed
	}
	s.wg.Add(1)
	defer s.wg.Done()
	w := s.getOrCreateWorkerLocked(key)
	w.refs++
	s.mu.Unlock()

	t := &task{
		fn:   fn,
		done: make(chan error, 1),
	}

	var err error
	select {
	case w.tasks <- t:
	case <-ctx.Done():
		err = ctx.Err()
	}
	s.unref(w)
	if err != nil {
		return err
	}

	select {
	case err = <-t.done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Release stops the worker of key once its queued tasks have run. A later
// Do for the same key starts a new worker that waits for the old one to
// drain, so ordering per key is preserved.
func (s *Scheduler[K]) Release(key K) {
	s.mu.Lock()
	defer s.mu.Unlock()

	w, ok := s.workers[key]
	if !ok {
		return
	}
	delete(s.workers, key)
	w.released = true
	s.retired[key] = w
	if w.refs == 0 {
		close(w.tasks)
	}
	go func() {
		<-w.done
		s.mu.Lock()
		if s.retired[key] == w {
			delete(s.retired, key)
		}
		s.mu.Unlock()
	}()
}

// Len returns the number of keys with a live worker.
func (s *Scheduler[K]) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.workers)
}

// Close stops accepting new tasks and shuts down all workers.
// It waits for in-flight Do operations to finish before closing worker
// channels. Existing tasks in queues will still be processed.
func (s *Scheduler[K]) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	s.mu.Unlock()

	s.wg.Wait()

	s.mu.Lock()
	for _, w := range s.workers {
		close(w.tasks)
	}
	s.workers = nil
	s.mu.Unlock()
}

func (s *Scheduler[K]) unref(w *worker) {
	s.mu.Lock()
	defer s.mu.Unlock()
	w.refs--
	if w.released && w.refs == 0 {
		close(w.tasks)
	}
}

func (s *Scheduler[K]) getOrCreateWorkerLocked(key K) *worker {
	w, ok := s.workers[key]
	if ok {
		return w
	}

	var prev <-chan struct{}
	if old, ok := s.retired[key]; ok {
		prev = old.done
	}

	w = &worker{
		tasks: make(chan *task, s.bufferSize),
		done:  make(chan struct{}),
	}
	s.workers[key] = w
	go runWorker(w, prev)

	return w
}

// runWorker processes tasks sequentially for a single key, after the
// previous worker of the same key (if any) has finished.
func runWorker(w *worker, prev <-chan struct{}) {
	defer close(w.done)
	if prev != nil {
		<-prev
	}
	for t := range w.tasks {
		t.done <- t.fn()
	}
}
