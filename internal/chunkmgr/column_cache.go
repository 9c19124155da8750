// Package chunkmgr implements the bounded column cache and chunk voxel
// assembly (§4.C). The column cache uses a double-checked lock-then-generate
// pattern formalized with golang.org/x/sync/singleflight so concurrent
// misses for the same column collapse into exactly one ColumnAt call, per
// §4.C "Single-flight per key".
package chunkmgr

import (
	"fmt"
	"sync"
	"time"

	"golang.org/x/exp/slices"
	"golang.org/x/sync/singleflight"

	"github.com/StoreStation/voxelterra/internal/worldgen"
)

// DefaultMaxCachedColumns is the default MaxCachedColumns from §6.
const DefaultMaxCachedColumns = 20000

type columnKey struct{ X, Z int32 }

type columnEntry struct {
	data         worldgen.ColumnData
	lastAccessed int64 // unix nanoseconds, protected by ColumnCache.mu
}

// ColumnCache is the bounded LRU of per-(x,z) column data (§4.C). Reads are
// lock-protected rather than lock-free; columns are immutable once
// computed so the critical sections are short map operations.
type ColumnCache struct {
	mu       sync.Mutex
	entries  map[columnKey]*columnEntry
	capacity int
	world    *worldgen.WorldContext
	flight   singleflight.Group

	hits   int64
	misses int64
}

// NewColumnCache creates a column cache over world bounded to capacity
// entries.
func NewColumnCache(world *worldgen.WorldContext, capacity int) *ColumnCache {
	if capacity <= 0 {
		capacity = DefaultMaxCachedColumns
	}
	return &ColumnCache{
		entries:  make(map[columnKey]*columnEntry),
		capacity: capacity,
		world:    world,
	}
}

// Column returns column_data(x, z), computing and caching it on first
// access (§4.C). Concurrent callers for the same (x, z) observe at most
// one ColumnAt invocation.
func (c *ColumnCache) Column(x, z int32) worldgen.ColumnData {
	key := columnKey{x, z}
	now := time.Now().UnixNano()

	c.mu.Lock()
	if e, ok := c.entries[key]; ok {
		e.lastAccessed = now
		c.hits++
		data := e.data
		c.mu.Unlock()
		return data
	}
	c.mu.Unlock()

	flightKey := fmt.Sprintf("%d:%d", x, z)
	v, _, _ := c.flight.Do(flightKey, func() (interface{}, error) {
		c.mu.Lock()
		if e, ok := c.entries[key]; ok {
			c.mu.Unlock()
			return e.data, nil
		}
		c.mu.Unlock()

		data := c.world.ColumnAt(x, z)

		c.mu.Lock()
		c.entries[key] = &columnEntry{data: data, lastAccessed: time.Now().UnixNano()}
		c.misses++
		c.evictIfOverCapacityLocked()
		c.mu.Unlock()
		return data, nil
	})
	return v.(worldgen.ColumnData)
}

// evictIfOverCapacityLocked removes approximately 25% of the oldest
// entries when size exceeds capacity (§4.E's cleanup rule, applied here
// too since §4.C bounds columns the same way). Callers must hold c.mu.
func (c *ColumnCache) evictIfOverCapacityLocked() {
	if len(c.entries) <= c.capacity {
		return
	}
	type kv struct {
		key  columnKey
		last int64
	}
	snapshot := make([]kv, 0, len(c.entries))
	for k, e := range c.entries {
		snapshot = append(snapshot, kv{k, e.lastAccessed})
	}
	slices.SortFunc(snapshot, func(a, b kv) int {
		if a.last < b.last {
			return -1
		}
		if a.last > b.last {
			return 1
		}
		return 0
	})
	toEvict := len(snapshot) / 4
	if toEvict < 1 {
		toEvict = 1
	}
	for i := 0; i < toEvict && i < len(snapshot); i++ {
		delete(c.entries, snapshot[i].key)
	}
}

// Len returns the current number of cached columns.
func (c *ColumnCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// Stats returns cumulative hit/miss counters for telemetry (§4.F).
func (c *ColumnCache) Stats() (hits, misses int64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.hits, c.misses
}
