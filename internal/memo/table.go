// Package memo provides a process-lifetime memoization table guarded by a
// single coarse lock.
package memo

import "sync"

// Table caches the result of a pure function per key. The lock is held only
// to look up and to commit; computation runs unlocked, so concurrent misses
// on the same key may compute twice. The last commit wins, which is harmless
// because every computation of a key yields an equal value.
type Table[K comparable, V any] struct {
	mu      sync.Mutex
	entries map[K]V
}

// New creates an empty Table.
func New[K comparable, V any]() *Table[K, V] {
	return &Table[K, V]{entries: make(map[K]V)}
}

// Get returns the cached value for key.
func (t *Table[K, V]) Get(key K) (V, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	v, ok := t.entries[key]
	return v, ok
}

// Put commits a value for key.
func (t *Table[K, V]) Put(key K, v V) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.entries[key] = v
}

// GetOrCompute returns the cached value or computes and commits it.
// Errors are returned without committing anything.
func (t *Table[K, V]) GetOrCompute(key K, compute func(K) (V, error)) (V, error) {
	if v, ok := t.Get(key); ok {
		return v, nil
	}

	v, err := compute(key)
	if err != nil {
		var zero V
		return zero, err
	}

	t.Put(key, v)
	return v, nil
}

// Len returns the number of cached entries.
func (t *Table[K, V]) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()

	return len(t.entries)
}
