// HyperClock is an expirable CLOCK cache built on an intrusive ring.
//
// Eviction (CLOCK): entries sit on a dll ring and a "hand" sweeps over them, skipping the ring's sentinel when it
// wraps around. When the cache is full the hand inspects the entry it points to:
//   - If the entry's reference bit is set, the bit is cleared and the hand moves on (a "second chance").
//   - Otherwise the entry is evicted and its slot is reused for the new key.
//
// Expiration (TTL with reaper): entries are indexed in time buckets. A background goroutine wakes up every tick and
// drops every entry of the buckets that have fallen behind the clock, so nothing scans the whole cache.
//
// Entries embed their ring node, so linking, unlinking and recycling a slot never allocate.

package cache

import (
	"context"
	"maps"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"github.com/nobletooth/ring/pkg/dll"
	"github.com/nobletooth/ring/pkg/utils"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var clockEvictions = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "clock_cache_evictions_total",
	Help: "Total number of entries dropped by CLOCK caches.",
}, []string{"reason" /* capacity | expired | purge */})

// clockEntry is a single cache slot.
type clockEntry[K comparable, V any] struct {
	key   K
	value V
	// ref is the CLOCK reference bit. It's atomic because Get sets it under the read lock.
	ref       atomic.Bool
	expiresAt time.Time
	link      dll.Node // Position on the clock ring.
}

// getTimeBucket rounds down the timestamp to the last timestamp that the reaper cleared given the tickInterval.
func getTimeBucket(timestamp time.Time, tickInterval time.Duration) time.Time {
	return time.Unix(0, (timestamp.UnixNano()/int64(tickInterval))*int64(tickInterval))
}

// HyperClock is a thread-safe, fixed-capacity cache combining CLOCK eviction with time-based expiration.
type HyperClock[K comparable, V any] struct {
	capacity int
	// size is the number of entries on the ring, kept here since dll.List.Len walks the ring.
	size int
	ring *dll.List[clockEntry[K, V]]
	// hand is the next eviction candidate. It is nil iff the ring is empty.
	hand  *clockEntry[K, V]
	index map[K]*clockEntry[K, V]
	// expiryBuckets indexes entries by the reaper tick in which they expire.
	expiryBuckets map[time.Time]map[K]*clockEntry[K, V]
	tickInterval  time.Duration
	reaperHand    time.Time // Next bucket to be cleared by the reaper goroutine.
	// evictionCallback runs under the cache lock on eviction in Add or Purge, so it must not call the cache.
	evictionCallback func(K, V)
	mux              sync.RWMutex
}

var _ Layer[int, int] = (*HyperClock[int, int])(nil)

// NewHyperClock creates the cache and starts its reaper goroutine, which runs until ctx is done.
// NOTE: evictionCallback must not call any of the cache methods or else we'll be having a deadlock.
func NewHyperClock[K comparable, V any](ctx context.Context, capacity int, tickInterval time.Duration,
	evictionCallback func(K, V)) *HyperClock[K, V] {
	if capacity <= 0 {
		utils.RaiseInvariant("hcc", "negative_cache_capacity",
			"Invalid capacity has been given to clock cache.", "capacity", capacity)
		capacity = 1
	}
	if tickInterval <= 0 {
		utils.RaiseInvariant("hcc", "non_positive_tick_interval",
			"Invalid tick interval has been given to clock cache.", "tickInterval", tickInterval)
		tickInterval = time.Second
	}
	entries := dll.MustContainer(func(e *clockEntry[K, V]) *dll.Node { return &e.link })
	clockCache := &HyperClock[K, V]{
		capacity:         capacity,
		ring:             dll.NewList(entries),
		index:            make(map[K]*clockEntry[K, V], capacity),
		expiryBuckets:    make(map[time.Time]map[K]*clockEntry[K, V]),
		tickInterval:     tickInterval,
		reaperHand:       getTimeBucket(time.Now(), tickInterval),
		evictionCallback: evictionCallback,
	}
	go clockCache.reaper(ctx)
	return clockCache
}

// Get returns the value of a live entry and marks it as recently used.
func (c *HyperClock[K, V]) Get(key K) (V, bool /*found*/) {
	c.mux.RLock()
	defer c.mux.RUnlock()

	entry, keyExists := c.index[key]
	if !keyExists || time.Now().After(entry.expiresAt) {
		return *new(V), false
	}
	entry.ref.Store(true)
	return entry.value, true
}

func (c *HyperClock[K, V]) bucketOf(entry *clockEntry[K, V]) time.Time {
	return getTimeBucket(entry.expiresAt, c.tickInterval)
}

func (c *HyperClock[K, V]) addToExpiryBucket(entry *clockEntry[K, V]) {
	bucket := c.bucketOf(entry)
	if _, bucketExists := c.expiryBuckets[bucket]; !bucketExists {
		c.expiryBuckets[bucket] = make(map[K]*clockEntry[K, V])
	}
	c.expiryBuckets[bucket][entry.key] = entry
}

func (c *HyperClock[K, V]) removeFromExpiryBucket(entry *clockEntry[K, V]) {
	bucket := c.bucketOf(entry)
	delete(c.expiryBuckets[bucket], entry.key)
	if len(c.expiryBuckets[bucket]) == 0 {
		delete(c.expiryBuckets, bucket)
	}
}

// after returns the entry following e on the ring, wrapping past the sentinel.
func (c *HyperClock[K, V]) after(entry *clockEntry[K, V]) *clockEntry[K, V] {
	if next := c.ring.Next(entry); next != nil {
		return next
	}
	return c.ring.Front()
}

// Add inserts or updates a key. When the cache is full an entry is evicted with the CLOCK algorithm and its slot
// is reused. It returns true if an eviction occurred.
func (c *HyperClock[K, V]) Add(key K, value V, ttl time.Duration) /*evictionOccurred*/ bool {
	c.mux.Lock()
	defer c.mux.Unlock()

	if entry, keyExists := c.index[key]; keyExists {
		c.removeFromExpiryBucket(entry)
		entry.value = value
		entry.ref.Store(false)
		entry.expiresAt = time.Now().Add(ttl)
		c.addToExpiryBucket(entry)
		return false
	}

	if c.size < c.capacity {
		entry := &clockEntry[K, V]{key: key, value: value, expiresAt: time.Now().Add(ttl)}
		c.ring.PushBack(entry)
		c.size++
		c.addToExpiryBucket(entry)
		c.index[key] = entry
		if c.hand == nil {
			c.hand = entry
		}
		return false
	}

	for {
		entry := c.hand
		c.hand = c.after(entry)
		if entry.ref.Load() && !time.Now().After(entry.expiresAt) {
			entry.ref.Store(false) // Second chance.
			continue
		}
		// Victim found: unreferenced or expired. Recycle its slot in place.
		delete(c.index, entry.key)
		c.removeFromExpiryBucket(entry)
		evictedKey, evictedValue := entry.key, entry.value
		entry.key = key
		entry.value = value
		entry.ref.Store(false)
		entry.expiresAt = time.Now().Add(ttl)
		c.addToExpiryBucket(entry)
		c.index[key] = entry
		clockEvictions.WithLabelValues("capacity").Inc()
		if c.evictionCallback != nil {
			c.evictionCallback(evictedKey, evictedValue)
		}
		return true
	}
}

func (c *HyperClock[K, V]) Keys() []K {
	c.mux.RLock()
	defer c.mux.RUnlock()
	return slices.Collect(maps.Keys(c.index))
}

// Purge drops every entry, reporting each one to the eviction callback.
func (c *HyperClock[K, V]) Purge() {
	c.mux.Lock()
	defer c.mux.Unlock()

	for entry := range c.ring.All() { // Removing the yielded entry is safe.
		c.ring.Remove(entry)
		clockEvictions.WithLabelValues("purge").Inc()
		if c.evictionCallback != nil {
			c.evictionCallback(entry.key, entry.value)
		}
	}
	clear(c.index)
	clear(c.expiryBuckets)
	c.size = 0
	c.hand = nil
}

// drop unlinks an expired entry, moving the hand off it first.
func (c *HyperClock[K, V]) drop(entry *clockEntry[K, V]) {
	if c.hand == entry {
		c.hand = c.after(entry)
		if c.hand == entry { // It was the last entry.
			c.hand = nil
		}
	}
	delete(c.index, entry.key)
	c.ring.Remove(entry)
	c.size--
	clockEvictions.WithLabelValues("expired").Inc()
}

// reaper clears expired buckets every tick until ctx is done.
func (c *HyperClock[K, V]) reaper(ctx context.Context) {
	ticker := time.NewTicker(c.tickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.reap(time.Now())
		}
	}
}

// reap clears every bucket older than now. There can be more than one under high CPU usage.
func (c *HyperClock[K, V]) reap(now time.Time) {
	c.mux.Lock()
	defer c.mux.Unlock()

	for c.reaperHand.Before(now) {
		for _, entry := range c.expiryBuckets[c.reaperHand] {
			c.drop(entry)
		}
		delete(c.expiryBuckets, c.reaperHand)
		c.reaperHand = c.reaperHand.Add(c.tickInterval)
	}
}
