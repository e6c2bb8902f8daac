package directory

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/Zuwarashe/Role-Access-Management-System-with-LRU-Caching/core/perkey"
	"github.com/Zuwarashe/Role-Access-Management-System-with-LRU-Caching/core/roles"
)

var (
	// ErrEmptyPerson is returned for operations with an empty person ID.
	ErrEmptyPerson = errors.New("directory: empty person id")
	// ErrClosed is returned for operations after Close.
	ErrClosed = errors.New("directory: closed")
)

// Options configures a Directory. Only Capacity is required.
type Options struct {
	// Capacity is the number of active roles kept per person.
	Capacity int
	Log      *slog.Logger
	Metrics  Metrics
	// CacheMetrics is shared by every person's cache and must be
	// thread-safe.
	CacheMetrics roles.Metrics
	// BufferSize is the per-person task queue size (default: 64).
	BufferSize int
}

// Directory maps person IDs to their roles cache.
type Directory[M any] struct {
	capacity     int
	log          *slog.Logger
	metrics      Metrics
	cacheMetrics roles.Metrics
	sched        *perkey.Scheduler[string]

	mu     sync.Mutex
	caches map[string]*roles.RolesCache[M]
}

// New creates an empty directory. Caches are created on a person's first
// Use.
func New[M any](opts Options) (*Directory[M], error) {
	if opts.Capacity <= 0 {
		return nil, fmt.Errorf("%w: got %d", roles.ErrInvalidCapacity, opts.Capacity)
	}
	if opts.Log == nil {
		opts.Log = slog.Default()
	}
	if opts.Metrics == nil {
		opts.Metrics = NopMetrics()
	}
	if opts.CacheMetrics == nil {
		opts.CacheMetrics = roles.NopMetrics()
	}

	var schedOpts []perkey.Option
	if opts.BufferSize > 0 {
		schedOpts = append(schedOpts, perkey.WithBufferSize(opts.BufferSize))
	}

	return &Directory[M]{
		capacity:     opts.Capacity,
		log:          opts.Log.With(slog.String("component", "roles_directory")),
		metrics:      opts.Metrics,
		cacheMetrics: opts.CacheMetrics,
		sched:        perkey.New[string](schedOpts...),
		caches:       make(map[string]*roles.RolesCache[M]),
	}, nil
}

// Use records that person invoked role with msg.
//
// If ctx ends while the call waits behind other operations of person,
// the role is not recorded and ctx.Err() is returned. Once recording has
// started, Use waits for it and reports its result.
func (d *Directory[M]) Use(ctx context.Context, person, role string, msg M) error {
	return d.do(ctx, "use", person, func() error {
		c, err := d.ensure(person)
		if err != nil {
			return err
		}
		c.Set(role, msg)
		return nil
	})
}

// Lookup returns the last message of role for person. ok is false if the
// role is not active for person, including persons never seen. A Lookup
// that fails with a context error has not touched the role's recency.
func (d *Directory[M]) Lookup(ctx context.Context, person, role string) (M, bool, error) {
	var (
		msg M
		ok  bool
	)
	err := d.do(ctx, "lookup", person, func() error {
		c := d.cache(person)
		if c == nil {
			d.cacheMetrics.Miss()
			return nil
		}
		msg, ok = c.Get(role)
		return nil
	})
	if err != nil {
		var zero M
		return zero, false, err
	}
	return msg, ok, nil
}

// Roles returns the active roles of person, least recently used first.
func (d *Directory[M]) Roles(ctx context.Context, person string) ([]string, error) {
	var out []string
	err := d.do(ctx, "roles", person, func() error {
		if c := d.cache(person); c != nil {
			out = c.Roles()
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Entries returns a copy of the active entries of person, least recently
// used first.
func (d *Directory[M]) Entries(ctx context.Context, person string) ([]roles.Entry[M], error) {
	var out []roles.Entry[M]
	err := d.do(ctx, "entries", person, func() error {
		if c := d.cache(person); c != nil {
			out = c.Entries()
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Forget discards the cache of person.
func (d *Directory[M]) Forget(ctx context.Context, person string) error {
	err := d.do(ctx, "forget", person, func() error {
		d.mu.Lock()
		_, ok := d.caches[person]
		delete(d.caches, person)
		n := len(d.caches)
		d.mu.Unlock()

		if ok {
			d.metrics.Persons(n)
			d.log.Debug("person forgotten", slog.String("person", person))
		}
		return nil
	})
	if err != nil {
		return err
	}
	d.sched.Release(person)
	return nil
}

// Persons returns the number of persons with a cache.
func (d *Directory[M]) Persons() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.caches)
}

// Capacity returns the number of active roles kept per person.
func (d *Directory[M]) Capacity() int { return d.capacity }

// Complexity reports the cost of the per-person cache operations.
func (d *Directory[M]) Complexity() roles.Complexity { return roles.CacheComplexity }

// Close stops the per-person workers after queued operations have run.
func (d *Directory[M]) Close() {
	d.sched.Close()
}

const (
	taskQueued int32 = iota
	taskRunning
	taskAbandoned
)

// do runs fn on the worker of person. fn either never runs (the returned
// error is then a context or close error) or runs to completion before do
// returns, so callers may read what fn wrote once do returns nil.
func (d *Directory[M]) do(ctx context.Context, op, person string, fn func() error) error {
	if person == "" {
		return ErrEmptyPerson
	}
	defer d.metrics.OpDuration(op).ObserveDuration()

	var state atomic.Int32
	result := make(chan error, 1)

	err := d.sched.DoContext(ctx, person, func() error {
		if !state.CompareAndSwap(taskQueued, taskRunning) {
			return nil
		}
		err := fn()
		result <- err
		return err
	})
	if err != nil {
		if state.CompareAndSwap(taskQueued, taskAbandoned) {
			if errors.Is(err, perkey.ErrSchedulerClosed) {
				err = ErrClosed
			}
		} else {
			// fn already started; its outcome wins over the context.
			err = <-result
		}
	}

	d.metrics.OpCompleted(op, err == nil)
	if err != nil {
		d.log.Debug("operation failed", slog.String("op", op), slog.String("person", person), slog.Any("error", err))
	}
	return err
}

func (d *Directory[M]) cache(person string) *roles.RolesCache[M] {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.caches[person]
}

func (d *Directory[M]) ensure(person string) (*roles.RolesCache[M], error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if c, ok := d.caches[person]; ok {
		return c, nil
	}

	personLog := d.log.With(slog.String("person", person))
	c, err := roles.New[M](
		d.capacity,
		roles.WithMetrics[M](d.cacheMetrics),
		roles.WithLogger[M](personLog),
	)
	if err != nil {
		return nil, err
	}
	d.caches[person] = c
	d.metrics.Persons(len(d.caches))
	personLog.Debug("roles cache created", slog.Int("capacity", d.capacity))
	return c, nil
}
