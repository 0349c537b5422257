// Package cache keeps recently used values in memory. Every implementation shares the Layer API so that a single
// shard, a sharded cache and a disabled cache are interchangeable.

package cache

import "time"

// Layer defines the interface for a generic key-value cache. This allows different cache implementations
// (e.g., CLOCK, simple map-based) to be used as shards within Sharded.
type Layer[K comparable, V any] interface {
	// Get returns value from cache for given key and a boolean indicating whether key was found.
	Get(key K) (V, bool)
	// Add inserts a key-value pair into the cache with the given TTL. It returns true if an item was evicted.
	Add(key K, value V, ttl time.Duration) bool
	Keys() []K // Returns a slice of all keys currently in the cache.
	Purge()    // Removes all items from the cache.
}

// NoOp is a cache layer that doesn't store any items. It is used when caching is disabled.
type NoOp[K comparable, V any] struct{} // Implements Layer.

var _ Layer[int, int] = (*NoOp[int, int])(nil)

// NewNoOp returns a layer that never stores anything.
func NewNoOp[K comparable, V any]() *NoOp[K, V] {
	return &NoOp[K, V]{}
}

func (n *NoOp[K, V]) Get(K) (V, bool) {
	return *new(V), false
}

func (n *NoOp[K, V]) Add(K, V, time.Duration) bool {
	return false
}

func (n *NoOp[K, V]) Keys() []K {
	return nil
}

func (n *NoOp[K, V]) Purge() {}
