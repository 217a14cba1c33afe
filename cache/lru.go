// Copyright 2017 The Go Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package cache

// LRU is a bounded cache from Key to string, used by pyproc to avoid
// re-reading and re-decoding the same remote filename, function name, or
// qualname on every sample. It composes a queue (recency order, owns
// values) with a hashTable (O(1) lookup), the same two-structure split
// lru_cache_t uses in cache.c.
type LRU struct {
	q     *queue
	table *hashTable
}

// NewLRU builds a cache holding at most capacity entries. deallocator, if
// non-nil, is invoked with the value of every entry evicted to make room for
// a new one, mirroring lru_cache_new's dealloc_t callback; Go's garbage
// collector reclaims the string itself, but callers that track liveness
// externally (e.g. a metrics counter) can still observe the eviction here.
//
// The hash table is sized at (capacity*4/3)|1, exactly as lru_cache_new
// sizes its hash_table_new call: large enough to keep chains short at
// capacity load, and odd so the multiplicative index spreads sequential
// keys across buckets.
func NewLRU(capacity int, deallocator func(string)) *LRU {
	tableSize := (capacity*4/3 | 1)
	return &LRU{
		q:     newQueue(capacity, deallocator),
		table: newHashTable(tableSize),
	}
}

// MaybeHit looks up key. On a hit, it moves the entry to the front of the
// recency queue (freshening it against eviction) and returns its value,
// per lru_cache__maybe_hit.
func (c *LRU) MaybeHit(key Key) (string, bool) {
	it, ok := c.table.get(key)
	if !ok {
		return "", false
	}
	c.q.moveToFront(it)
	return it.value, true
}

// Store inserts value under key, evicting the least-recently-used entry
// first if the cache is already at capacity, per lru_cache__store. Callers
// are expected to have already tried MaybeHit; an existing key is a no-op
// rather than a refresh, so hashTable.set's update-if-exists branch is
// never exercised from here.
func (c *LRU) Store(key Key, value string) {
	if _, ok := c.table.get(key); ok {
		return
	}
	if c.q.isFull() {
		evictedKey, evictedValue, ok := c.q.dequeue()
		if ok {
			c.table.del(evictedKey)
			if c.q.deallocator != nil {
				c.q.deallocator(evictedValue)
			}
		}
	}
	it := c.q.enqueue(value, key)
	if it != nil {
		c.table.set(key, it)
	}
}
