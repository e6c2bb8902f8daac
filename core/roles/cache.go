package roles

import (
	"container/list"
	"errors"
	"fmt"
	"log/slog"
)

// ErrInvalidCapacity is returned by New when capacity is not positive.
var ErrInvalidCapacity = errors.New("roles: capacity must be positive")

type entry[M any] struct {
	role string
	msg  M
}

// Entry is a role and its last message.
type Entry[M any] struct {
	Role    string `json:"role"`
	Message M      `json:"message"`
}

// RolesCache is an LRU cache of role name to last usage message for one
// person. The zero value is not usable, use New.
type RolesCache[M any] struct {
	capacity int
	ll       *list.List // front: least recently used
	items    map[string]*list.Element

	metrics Metrics
	onEvict func(role string, msg M)
	log     *slog.Logger
}

// New creates an empty cache that keeps at most capacity roles.
func New[M any](capacity int, opts ...Option[M]) (*RolesCache[M], error) {
	if capacity <= 0 {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidCapacity, capacity)
	}

	c := &RolesCache[M]{
		capacity: capacity,
		ll:       list.New(),
		items:    make(map[string]*list.Element, capacity),
		metrics:  NopMetrics(),
		log:      slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Get returns the last message of role and marks role as most recently
// used. ok is false if role is not active.
func (c *RolesCache[M]) Get(role string) (msg M, ok bool) {
	ele, ok := c.items[role]
	if !ok {
		c.metrics.Miss()
		return msg, false
	}
	c.ll.MoveToBack(ele)
	c.metrics.Hit()
	return ele.Value.(*entry[M]).msg, true
}

// Set records msg as the last message of role and marks role as most
// recently used. If role is new and the cache is full, the least recently
// used role is evicted first.
func (c *RolesCache[M]) Set(role string, msg M) {
	if ele, ok := c.items[role]; ok {
		ele.Value.(*entry[M]).msg = msg
		c.ll.MoveToBack(ele)
		c.metrics.Stored(true)
		c.metrics.Size(c.ll.Len())
		return
	}

	if c.ll.Len() >= c.capacity {
		c.evictOldest()
	}
	c.items[role] = c.ll.PushBack(&entry[M]{role: role, msg: msg})
	c.metrics.Stored(false)
	c.metrics.Size(c.ll.Len())
}

func (c *RolesCache[M]) evictOldest() {
	oldest := c.ll.Front()
	if oldest == nil {
		return
	}
	e := c.ll.Remove(oldest).(*entry[M])
	delete(c.items, e.role)

	c.metrics.Evicted()
	c.log.Debug("role evicted", slog.String("role", e.role), slog.Int("capacity", c.capacity))
	if c.onEvict != nil {
		c.onEvict(e.role, e.msg)
	}
}

// Peek is like Get but leaves recency untouched.
func (c *RolesCache[M]) Peek(role string) (msg M, ok bool) {
	ele, ok := c.items[role]
	if !ok {
		return msg, false
	}
	return ele.Value.(*entry[M]).msg, true
}

func (c *RolesCache[M]) Len() int      { return c.ll.Len() }
func (c *RolesCache[M]) Capacity() int { return c.capacity }

// Roles returns the active roles, least recently used first.
func (c *RolesCache[M]) Roles() []string {
	out := make([]string, 0, c.ll.Len())
	for ele := c.ll.Front(); ele != nil; ele = ele.Next() {
		out = append(out, ele.Value.(*entry[M]).role)
	}
	return out
}

// Entries returns a copy of the active entries, least recently used first.
func (c *RolesCache[M]) Entries() []Entry[M] {
	out := make([]Entry[M], 0, c.ll.Len())
	for ele := c.ll.Front(); ele != nil; ele = ele.Next() {
		e := ele.Value.(*entry[M])
		out = append(out, Entry[M]{Role: e.role, Message: e.msg})
	}
	return out
}

// Complexity reports the asymptotic cost of the cache operations.
func (c *RolesCache[M]) Complexity() Complexity { return CacheComplexity }
