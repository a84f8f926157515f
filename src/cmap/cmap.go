// Package cmap contains a small thread-safe sharded map, used where forge
// memoizes filesystem lookups that may be consulted from more than one
// goroutine, such as the freshness checker's per-path mtimes.
package cmap

import (
	"fmt"
	"sync"
)

// DefaultShardCount is a reasonable default shard count for large maps.
const DefaultShardCount = 1 << 6

// A Map is the top-level map type. All methods on it are threadsafe.
// It should be constructed via New() rather than creating an instance directly.
type Map[K comparable, V any] struct {
	shards []shard[K, V]
	hasher func(K) uint32
	mask   uint32
}

type shard[K comparable, V any] struct {
	mutex sync.RWMutex
	m     map[K]V
}

// New creates a new Map using the given hasher to distribute keys across shards.
// shardCount must be a power of 2; it panics if not.
func New[K comparable, V any](shardCount uint32, hasher func(K) uint32) *Map[K, V] {
	mask := shardCount - 1
	if shardCount&mask != 0 {
		panic(fmt.Sprintf("shard count %d is not a power of 2", shardCount))
	}
	m := &Map[K, V]{
		shards: make([]shard[K, V], shardCount),
		mask:   mask,
		hasher: hasher,
	}
	for i := range m.shards {
		m.shards[i].m = map[K]V{}
	}
	return m
}

func (m *Map[K, V]) shardFor(k K) *shard[K, V] {
	return &m.shards[m.hasher(k)&m.mask]
}

// Get returns the value for k and whether it was present.
func (m *Map[K, V]) Get(k K) (V, bool) {
	s := m.shardFor(k)
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	v, present := s.m[k]
	return v, present
}

// Set stores v against k, overwriting any existing entry.
func (m *Map[K, V]) Set(k K, v V) {
	s := m.shardFor(k)
	s.mutex.Lock()
	defer s.mutex.Unlock()
	s.m[k] = v
}

// GetOrSet returns the existing value for k if present, otherwise calls f to
// compute one, stores it, and returns it. f may run more than once if two
// goroutines race for the same key; callers that care should make f idempotent.
func (m *Map[K, V]) GetOrSet(k K, f func() (V, error)) (V, error) {
	if v, present := m.Get(k); present {
		return v, nil
	}
	v, err := f()
	if err != nil {
		var zero V
		return zero, err
	}
	m.Set(k, v)
	return v, nil
}

// Len returns the total number of entries across all shards. Not atomic
// with respect to concurrent writers; intended for diagnostics only.
func (m *Map[K, V]) Len() int {
	n := 0
	for i := range m.shards {
		m.shards[i].mutex.RLock()
		n += len(m.shards[i].m)
		m.shards[i].mutex.RUnlock()
	}
	return n
}
