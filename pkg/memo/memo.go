// Package memo provides per-run memoization of expensive lookups.
//
// A [Group] runs the function for a key at most once. Concurrent callers
// for the same key wait for the in-flight call and share its result, and
// later callers get the stored result without calling again. Errors are
// stored too: a failed lookup is not retried within the same run.
//
// Groups are meant to live for a single run and are never evicted.
package memo

import (
	"sync"
	"sync/atomic"

	"golang.org/x/sync/singleflight"
)

type result[V any] struct {
	val V
	err error
}

// Group memoizes results of type V by string key. The zero value is
// ready to use.
type Group[V any] struct {
	sf    singleflight.Group
	mu    sync.RWMutex
	done  map[string]result[V]
	calls atomic.Int64
}

// Do returns the result of fn for key, calling fn only if no result for
// key has been stored yet.
func (g *Group[V]) Do(key string, fn func() (V, error)) (V, error) {
	if r, ok := g.load(key); ok {
		return r.val, r.err
	}
	v, err, _ := g.sf.Do(key, func() (any, error) {
		if r, ok := g.load(key); ok {
			return r.val, r.err
		}
		g.calls.Add(1)
		val, err := fn()
		g.mu.Lock()
		if g.done == nil {
			g.done = make(map[string]result[V])
		}
		g.done[key] = result[V]{val, err}
		g.mu.Unlock()
		return val, err
	})
	val, _ := v.(V)
	return val, err
}

func (g *Group[V]) load(key string) (result[V], bool) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	r, ok := g.done[key]
	return r, ok
}

// Calls returns how many times a memoized function has actually run.
func (g *Group[V]) Calls() int {
	return int(g.calls.Load())
}

// Len returns the number of stored results.
func (g *Group[V]) Len() int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return len(g.done)
}
