// Package cache memoizes one asynchronously loaded value.
//
// A Cache issues at most one load per validity window. Callers arriving
// while a load is in flight wait on that same load and receive its outcome.
// A failed load is cached too: every caller sees the same error until
// Invalidate opens a new window.
package cache

import (
	"context"
	"strconv"
	"sync"

	"golang.org/x/sync/singleflight"
)

type State int

const (
	Empty State = iota
	Pending
	Resolved
	Rejected
)

func (s State) String() string {
	switch s {
	case Pending:
		return "pending"
	case Resolved:
		return "resolved"
	case Rejected:
		return "rejected"
	default:
		return "empty"
	}
}

// Loader produces the cached value. The context it receives is detached
// from any single caller's cancellation.
type Loader[T any] func(ctx context.Context) (T, error)

type Cache[T any] struct {
	load  Loader[T]
	group singleflight.Group

	mu    sync.Mutex
	gen   uint64
	state State
	data  T
	err   error
}

func New[T any](load Loader[T]) *Cache[T] {
	return &Cache[T]{load: load}
}

// Get returns the cached value, loading it if the cache is empty. If ctx is
// cancelled while waiting, Get returns ctx.Err() and the load carries on for
// the remaining waiters.
func (c *Cache[T]) Get(ctx context.Context) (T, error) {
	var zero T

	c.mu.Lock()
	switch c.state {
	case Resolved:
		data := c.data
		c.mu.Unlock()
		return data, nil
	case Rejected:
		err := c.err
		c.mu.Unlock()
		return zero, err
	case Empty:
		c.state = Pending
	}
	gen := c.gen
	c.mu.Unlock()

	detached := context.WithoutCancel(ctx)
	ch := c.group.DoChan(strconv.FormatUint(gen, 10), func() (any, error) {
		return c.fill(detached, gen)
	})

	select {
	case <-ctx.Done():
		return zero, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return zero, res.Err
		}
		v, _ := res.Val.(T)
		return v, nil
	}
}

// fill runs inside the single-flight group. A caller that missed an earlier
// flight for the same generation finds the settled outcome here instead of
// loading again.
func (c *Cache[T]) fill(ctx context.Context, gen uint64) (any, error) {
	c.mu.Lock()
	if c.gen == gen {
		switch c.state {
		case Resolved:
			data := c.data
			c.mu.Unlock()
			return data, nil
		case Rejected:
			err := c.err
			c.mu.Unlock()
			return nil, err
		}
	}
	c.mu.Unlock()

	data, err := c.load(ctx)

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.gen != gen {
		// Invalidated mid-flight: hand the result to this window's waiters
		// but don't cache it.
		if err != nil {
			return nil, err
		}
		return data, nil
	}
	if err != nil {
		c.state = Rejected
		c.err = err
		return nil, err
	}
	c.state = Resolved
	c.data = data
	return data, nil
}

// Invalidate clears the cached outcome. The next Get issues a fresh load.
// Calling it repeatedly is the same as calling it once.
func (c *Cache[T]) Invalidate() {
	var zero T
	c.mu.Lock()
	defer c.mu.Unlock()
	c.gen++
	c.state = Empty
	c.data = zero
	c.err = nil
}

func (c *Cache[T]) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}
