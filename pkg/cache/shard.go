// Sharding distributes keys uniformly across independent layers. Each CLOCK layer serializes access to its ring
// with its own mutex, so sharding spreads that lock: a goroutine only locks the shard its key belongs to.

package cache

import (
	"encoding/binary"
	"fmt"
	"math"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/nobletooth/ring/pkg/utils"
)

// Sharded is a cache that distributes keys across multiple underlying layers (shards).
type Sharded[K comparable, V any] struct {
	shards []Layer[K, V]
	hash   func(key K) uint64 // Helps choose the shard index.
}

var _ Layer[int, int] = (*Sharded[int, int])(nil)

// NewSharded builds shardCount shards with newShard. A non-positive count is an invariant and yields one shard.
func NewSharded[K comparable, V any](newShard func() Layer[K, V], shardCount int) *Sharded[K, V] {
	if shardCount <= 0 {
		utils.RaiseInvariant("shard", "negative_shard_count",
			"Invalid shard count has been given to sharded cache.", "shardCount", shardCount)
		shardCount = 1
	}
	sharded := &Sharded[K, V]{shards: make([]Layer[K, V], shardCount), hash: keyHasher[K]()}
	for i := range shardCount {
		sharded.shards[i] = newShard()
	}
	return sharded
}

// hashUint64 hashes the little endian form of v.
func hashUint64(v uint64) uint64 {
	var b [8]byte
	binary.LittleEndian.PutUint64(b[:], v)
	return xxhash.Sum64(b[:])
}

// hashUint32 hashes the little endian form of v.
func hashUint32(v uint32) uint64 {
	var b [4]byte
	binary.LittleEndian.PutUint32(b[:], v)
	return xxhash.Sum64(b[:])
}

// keyHasher picks the hash function for K once, so lookups don't switch on the key type.
func keyHasher[K comparable]() func(K) uint64 {
	switch any(*new(K)).(type) {
	case string:
		return func(key K) uint64 { return xxhash.Sum64String(any(key).(string)) }
	case int: // int's size is architecture-dependent; hash it as 64 bits.
		return func(key K) uint64 { return hashUint64(uint64(any(key).(int))) }
	case uint:
		return func(key K) uint64 { return hashUint64(uint64(any(key).(uint))) }
	case int64:
		return func(key K) uint64 { return hashUint64(uint64(any(key).(int64))) }
	case uint64:
		return func(key K) uint64 { return hashUint64(any(key).(uint64)) }
	case int32:
		return func(key K) uint64 { return hashUint32(uint32(any(key).(int32))) }
	case uint32:
		return func(key K) uint64 { return hashUint32(any(key).(uint32)) }
	case float64:
		return func(key K) uint64 {
			f := any(key).(float64)
			if f == 0 { // -0 == 0, so both must land on the same shard.
				f = 0
			}
			return hashUint64(math.Float64bits(f))
		}
	case float32:
		return func(key K) uint64 {
			f := any(key).(float32)
			if f == 0 {
				f = 0
			}
			return hashUint32(math.Float32bits(f))
		}
	case bool:
		return func(key K) uint64 {
			if any(key).(bool) {
				return xxhash.Sum64([]byte{1})
			}
			return xxhash.Sum64([]byte{0})
		}
	default: // Structs and other comparable types; slower but works for anything printable.
		return func(key K) uint64 { return xxhash.Sum64String(fmt.Sprintf("%#v", key)) }
	}
}

// getShard maps the key's hash to a shard.
func (c *Sharded[K, V]) getShard(key K) Layer[K, V] {
	return c.shards[c.hash(key)%uint64(len(c.shards))]
}

func (c *Sharded[K, V]) Get(key K) (V, bool /*found*/) {
	return c.getShard(key).Get(key)
}

func (c *Sharded[K, V]) Add(key K, value V, ttl time.Duration) /*evictionOccurred*/ bool {
	return c.getShard(key).Add(key, value, ttl)
}

// Keys aggregates the keys of every shard. It visits the whole cache.
func (c *Sharded[K, V]) Keys() []K {
	keys := make([]K, 0)
	for _, shard := range c.shards {
		keys = append(keys, shard.Keys()...)
	}
	return keys
}

func (c *Sharded[K, V]) Purge() {
	for _, shard := range c.shards {
		shard.Purge()
	}
}
