package directory

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Zuwarashe/Role-Access-Management-System-with-LRU-Caching/core/metrics"
	"github.com/Zuwarashe/Role-Access-Management-System-with-LRU-Caching/core/roles"
)

func newDirectory(t *testing.T, k int) *Directory[string] {
	t.Helper()
	d, err := New[string](Options{Capacity: k})
	require.NoError(t, err)
	t.Cleanup(d.Close)
	return d
}

func TestNew_InvalidCapacity(t *testing.T) {
	_, err := New[string](Options{})
	require.ErrorIs(t, err, roles.ErrInvalidCapacity)
}

func TestDirectory_UseLookup(t *testing.T) {
	ctx := t.Context()
	d := newDirectory(t, 2)

	require.NoError(t, d.Use(ctx, "alice", "admin", "login-ok"))
	require.NoError(t, d.Use(ctx, "alice", "audit", "scan-1"))

	msg, ok, err := d.Lookup(ctx, "alice", "admin")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "login-ok", msg)

	require.NoError(t, d.Use(ctx, "alice", "billing", "charge-5"))

	_, ok, err = d.Lookup(ctx, "alice", "audit")
	require.NoError(t, err)
	require.False(t, ok)

	r, err := d.Roles(ctx, "alice")
	require.NoError(t, err)
	require.Equal(t, []string{"admin", "billing"}, r)
}

func TestDirectory_PersonsAreIndependent(t *testing.T) {
	ctx := t.Context()
	d := newDirectory(t, 1)

	require.NoError(t, d.Use(ctx, "alice", "admin", "a"))
	require.NoError(t, d.Use(ctx, "bob", "audit", "b"))

	msg, ok, err := d.Lookup(ctx, "alice", "admin")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "a", msg)

	_, ok, err = d.Lookup(ctx, "alice", "audit")
	require.NoError(t, err)
	require.False(t, ok)

	require.Equal(t, 2, d.Persons())
}

func TestDirectory_UnknownPerson(t *testing.T) {
	ctx := t.Context()
	d := newDirectory(t, 2)

	_, ok, err := d.Lookup(ctx, "nobody", "admin")
	require.NoError(t, err)
	require.False(t, ok)

	r, err := d.Roles(ctx, "nobody")
	require.NoError(t, err)
	require.Nil(t, r)

	e, err := d.Entries(ctx, "nobody")
	require.NoError(t, err)
	require.Nil(t, e)

	require.Equal(t, 0, d.Persons(), "lookups must not create caches")
}

func TestDirectory_EmptyPerson(t *testing.T) {
	ctx := t.Context()
	d := newDirectory(t, 2)

	require.ErrorIs(t, d.Use(ctx, "", "admin", "x"), ErrEmptyPerson)
	_, _, err := d.Lookup(ctx, "", "admin")
	require.ErrorIs(t, err, ErrEmptyPerson)
	require.ErrorIs(t, d.Forget(ctx, ""), ErrEmptyPerson)
}

func TestDirectory_Forget(t *testing.T) {
	ctx := t.Context()
	d := newDirectory(t, 2)

	require.NoError(t, d.Use(ctx, "alice", "admin", "x"))
	require.Equal(t, 1, d.Persons())

	require.NoError(t, d.Forget(ctx, "alice"))
	require.Equal(t, 0, d.Persons())

	_, ok, err := d.Lookup(ctx, "alice", "admin")
	require.NoError(t, err)
	require.False(t, ok)

	require.NoError(t, d.Forget(ctx, "alice"))

	require.NoError(t, d.Use(ctx, "alice", "audit", "y"))
	entries, err := d.Entries(ctx, "alice")
	require.NoError(t, err)
	require.Equal(t, []roles.Entry[string]{{Role: "audit", Message: "y"}}, entries)
}

func TestDirectory_Closed(t *testing.T) {
	d, err := New[string](Options{Capacity: 2})
	require.NoError(t, err)
	d.Close()

	require.ErrorIs(t, d.Use(t.Context(), "alice", "admin", "x"), ErrClosed)
	_, _, err = d.Lookup(t.Context(), "alice", "admin")
	require.ErrorIs(t, err, ErrClosed)
}

func TestDirectory_ContextCancelled(t *testing.T) {
	d := newDirectory(t, 2)
	ctx, cancel := context.WithCancel(t.Context())
	cancel()

	require.ErrorIs(t, d.Use(ctx, "alice", "admin", "x"), context.Canceled)
	require.Equal(t, 0, d.Persons())
}

// blockPerson occupies the worker of person until the returned func is
// called.
func blockPerson(t *testing.T, d *Directory[string], person string) (unblock func()) {
	t.Helper()
	started := make(chan struct{})
	release := make(chan struct{})
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = d.sched.Do(person, func() error {
			close(started)
			<-release
			return nil
		})
	}()
	<-started
	return func() {
		close(release)
		<-done
	}
}

func TestDirectory_LookupCancelledWhileQueued(t *testing.T) {
	ctx := t.Context()
	d := newDirectory(t, 2)

	require.NoError(t, d.Use(ctx, "alice", "admin", "login-ok"))
	require.NoError(t, d.Use(ctx, "alice", "audit", "scan-1"))

	unblock := blockPerson(t, d, "alice")

	lookupCtx, cancel := context.WithTimeout(ctx, 20*time.Millisecond)
	defer cancel()
	msg, ok, err := d.Lookup(lookupCtx, "alice", "admin")
	require.ErrorIs(t, err, context.DeadlineExceeded)
	require.False(t, ok)
	require.Empty(t, msg)

	unblock()

	// The abandoned lookup must not have refreshed admin, so admin is
	// still the oldest role and gets evicted.
	require.NoError(t, d.Use(ctx, "alice", "billing", "charge-5"))
	r, err := d.Roles(ctx, "alice")
	require.NoError(t, err)
	require.Equal(t, []string{"audit", "billing"}, r)
}

func TestDirectory_UseCancelledWhileQueued(t *testing.T) {
	ctx := t.Context()
	d := newDirectory(t, 2)

	require.NoError(t, d.Use(ctx, "alice", "admin", "login-ok"))

	unblock := blockPerson(t, d, "alice")

	useCtx, cancel := context.WithCancel(ctx)
	errCh := make(chan error, 1)
	go func() { errCh <- d.Use(useCtx, "alice", "audit", "scan-1") }()
	time.Sleep(10 * time.Millisecond)
	cancel()
	require.ErrorIs(t, <-errCh, context.Canceled)

	unblock()

	entries, err := d.Entries(ctx, "alice")
	require.NoError(t, err)
	require.Equal(t, []roles.Entry[string]{{Role: "admin", Message: "login-ok"}}, entries)
}

func TestDirectory_CancelledQueueConcurrent(t *testing.T) {
	ctx := t.Context()
	d := newDirectory(t, 3)
	require.NoError(t, d.Use(ctx, "alice", "admin", "x"))

	unblock := blockPerson(t, d, "alice")

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			opCtx, cancel := context.WithTimeout(ctx, time.Duration(i%4)*5*time.Millisecond)
			defer cancel()
			switch i % 3 {
			case 0:
				_, _, err := d.Lookup(opCtx, "alice", "admin")
				assert.Error(t, err)
			case 1:
				_, err := d.Roles(opCtx, "alice")
				assert.Error(t, err)
			default:
				_, err := d.Entries(opCtx, "alice")
				assert.Error(t, err)
			}
		}(i)
	}
	wg.Wait()
	unblock()

	msg, ok, err := d.Lookup(ctx, "alice", "admin")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "x", msg)
}

func TestDirectory_Complexity(t *testing.T) {
	d := newDirectory(t, 3)
	assert.Equal(t, roles.CacheComplexity, d.Complexity())
	assert.Equal(t, 3, d.Capacity())
}

func TestDirectory_Concurrent(t *testing.T) {
	const (
		k       = 3
		persons = 8
		workers = 16
		ops     = 200
	)
	ctx := t.Context()
	d := newDirectory(t, k)

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := 0; i < ops; i++ {
				person := fmt.Sprintf("p%d", (w+i)%persons)
				role := fmt.Sprintf("r%d", i%7)
				if i%3 == 0 {
					_, _, err := d.Lookup(ctx, person, role)
					assert.NoError(t, err)
					continue
				}
				assert.NoError(t, d.Use(ctx, person, role, fmt.Sprintf("w%d-%d", w, i)))
			}
		}(w)
	}
	wg.Wait()

	require.Equal(t, persons, d.Persons())
	for p := 0; p < persons; p++ {
		r, err := d.Roles(ctx, fmt.Sprintf("p%d", p))
		require.NoError(t, err)
		require.LessOrEqual(t, len(r), k)
	}
}

type recordingMetrics struct {
	mu      sync.Mutex
	ops     map[string]int
	failed  int
	persons int
}

func (m *recordingMetrics) OpDuration(string) metrics.Timer { return metrics.NopTimer() }
func (m *recordingMetrics) OpCompleted(op string, success bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ops[op]++
	if !success {
		m.failed++
	}
}
func (m *recordingMetrics) Persons(n int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.persons = n
}

func TestDirectory_Metrics(t *testing.T) {
	ctx := t.Context()
	m := &recordingMetrics{ops: map[string]int{}}
	d, err := New[string](Options{Capacity: 2, Metrics: m})
	require.NoError(t, err)
	defer d.Close()

	require.NoError(t, d.Use(ctx, "alice", "admin", "x"))
	require.NoError(t, d.Use(ctx, "bob", "admin", "x"))
	_, _, err = d.Lookup(ctx, "alice", "admin")
	require.NoError(t, err)

	m.mu.Lock()
	assert.Equal(t, 2, m.ops["use"])
	assert.Equal(t, 1, m.ops["lookup"])
	assert.Equal(t, 0, m.failed)
	assert.Equal(t, 2, m.persons)
	m.mu.Unlock()

	require.NoError(t, d.Forget(ctx, "bob"))
	m.mu.Lock()
	assert.Equal(t, 1, m.persons)
	m.mu.Unlock()
}
