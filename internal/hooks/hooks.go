// Package hooks provides typed extension points. A chain holds callbacks ordered by
// priority (lower first) and, within one priority, by registration order.
package hooks

import (
	"context"
	"sort"
	"sync"
)

// DefaultPriority mirrors the priority most callbacks register with.
const DefaultPriority = 10

// Filter transforms value given arg. The output of one filter is the input of the next.
type Filter[T any, A any] func(ctx context.Context, value T, arg A) T

// Action reacts to arg.
type Action[A any] func(ctx context.Context, arg A)

type entry[F any] struct {
	id       uint64
	priority int
	fn       F
}

type chain[F any] struct {
	mu      sync.RWMutex
	entries []entry[F]
	nextID  uint64
}

func (c *chain[F]) add(priority int, fn F) func() {
	c.mu.Lock()
	c.nextID++
	id := c.nextID
	c.entries = append(c.entries, entry[F]{id: id, priority: priority, fn: fn})
	sort.SliceStable(c.entries, func(i, j int) bool {
		return c.entries[i].priority < c.entries[j].priority
	})
	c.mu.Unlock()

	return func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		for i, e := range c.entries {
			if e.id == id {
				c.entries = append(c.entries[:i:i], c.entries[i+1:]...)
				return
			}
		}
	}
}

func (c *chain[F]) snapshot() []F {
	c.mu.RLock()
	defer c.mu.RUnlock()

	fns := make([]F, len(c.entries))
	for i, e := range c.entries {
		fns[i] = e.fn
	}
	return fns
}

func (c *chain[F]) len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// FilterChain is an ordered list of filters over values of type T.
type FilterChain[T any, A any] struct {
	name string
	c    chain[Filter[T, A]]
}

// NewFilterChain returns an empty chain. The name is informational.
func NewFilterChain[T any, A any](name string) *FilterChain[T, A] {
	return &FilterChain[T, A]{name: name}
}

// Name returns the hook name the chain was created with.
func (f *FilterChain[T, A]) Name() string {
	return f.name
}

// Add registers fn and returns a function that removes it again.
func (f *FilterChain[T, A]) Add(priority int, fn Filter[T, A]) func() {
	if fn == nil {
		return func() {}
	}
	return f.c.add(priority, fn)
}

// Apply runs every filter in order and returns the last output.
func (f *FilterChain[T, A]) Apply(ctx context.Context, value T, arg A) T {
	for _, fn := range f.c.snapshot() {
		value = fn(ctx, value, arg)
	}
	return value
}

// Len reports the number of registered filters.
func (f *FilterChain[T, A]) Len() int {
	return f.c.len()
}

// ActionChain is an ordered list of actions.
type ActionChain[A any] struct {
	name string
	c    chain[Action[A]]
}

// NewActionChain returns an empty chain.
func NewActionChain[A any](name string) *ActionChain[A] {
	return &ActionChain[A]{name: name}
}

// Name returns the hook name the chain was created with.
func (a *ActionChain[A]) Name() string {
	return a.name
}

// Add registers fn and returns a function that removes it again.
func (a *ActionChain[A]) Add(priority int, fn Action[A]) func() {
	if fn == nil {
		return func() {}
	}
	return a.c.add(priority, fn)
}

// Run invokes every action in order. Actions added while running take effect on the next run.
func (a *ActionChain[A]) Run(ctx context.Context, arg A) {
	for _, fn := range a.c.snapshot() {
		fn(ctx, arg)
	}
}

// Len reports the number of registered actions.
func (a *ActionChain[A]) Len() int {
	return a.c.len()
}
