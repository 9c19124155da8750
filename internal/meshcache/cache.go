// Package meshcache implements the bounded mesh cache and single-flight
// build coalescing of §4.E, the same double-checked lock-then-build pattern
// used in internal/chunkmgr's column cache. Unlike the column cache,
// lookups here are additionally striped across shards hashed by xxhash so
// that concurrent get_or_build calls for unrelated coordinates never
// contend on the same mutex.
package meshcache

import (
	"fmt"
	"sync"
	"time"

	"github.com/cespare/xxhash/v2"
	"golang.org/x/exp/slices"
	"golang.org/x/sync/singleflight"

	"github.com/StoreStation/voxelterra/internal/chunkmgr"
	"github.com/StoreStation/voxelterra/internal/meshgen"
	"github.com/StoreStation/voxelterra/internal/voxel"
	"github.com/StoreStation/voxelterra/internal/worldgen"
)

// DefaultMaxCachedMeshes is the default MaxCachedMeshes from §6.
const DefaultMaxCachedMeshes = 20000

// shardCount bounds lock striping; a power of two so the xxhash-derived
// shard index can be taken with a cheap mask.
const shardCount = 32

// Entry is one mesh cache entry (§3 "Mesh cache entry").
type Entry struct {
	Render       *meshgen.RenderMesh
	Collision    *meshgen.CollisionMesh
	LastAccessed int64
}

type shard struct {
	mu      sync.Mutex
	entries map[voxel.ChunkCoord]*Entry
}

// Cache is the bounded concurrent chunk-coord → mesh pair map of §4.E.
type Cache struct {
	shards   [shardCount]*shard
	capacity int
	flight   singleflight.Group

	mgr   *chunkmgr.Manager
	world *worldgen.WorldContext

	buildCount int64
	buildMu    sync.Mutex
}

// New creates a mesh cache bounded to capacity total entries, backed by
// mgr for mesh synthesis. world is the same WorldContext mgr was built
// from; callers already have it at construction time and pass it through
// rather than the cache re-deriving it from mgr.
func New(mgr *chunkmgr.Manager, world *worldgen.WorldContext, capacity int) *Cache {
	if capacity <= 0 {
		capacity = DefaultMaxCachedMeshes
	}
	c := &Cache{capacity: capacity, mgr: mgr, world: world}
	for i := range c.shards {
		c.shards[i] = &shard{entries: make(map[voxel.ChunkCoord]*Entry)}
	}
	return c
}

func (c *Cache) shardFor(coord voxel.ChunkCoord) *shard {
	h := xxhash.Sum64(packKey(coord))
	return c.shards[h&uint64(shardCount-1)]
}

func packKey(coord voxel.ChunkCoord) []byte {
	p := coord.Pack()
	return []byte{
		byte(p), byte(p >> 8), byte(p >> 16), byte(p >> 24),
		byte(p >> 32), byte(p >> 40), byte(p >> 48), byte(p >> 56),
	}
}

// GetOrBuild implements get_or_build(coord) (§4.E): return the cached
// pair, updating last_accessed, or build it exactly once under a
// per-coord single-flight permit.
func (c *Cache) GetOrBuild(coord voxel.ChunkCoord) (*meshgen.RenderMesh, *meshgen.CollisionMesh) {
	return c.GetOrBuildTimed(coord, nil)
}

// GetOrBuildTimed is GetOrBuild plus an optional hook invoked with the
// marching-cubes synthesis duration, but only on the goroutine that
// actually performs the build (a single-flight-coalesced waiter, or a
// cache hit, never calls onBuild). §4.D fuses density sampling and
// triangulation into one pass per voxel rather than assembling a chunk's
// voxels first (that's what keeps adjacent chunks' surfaces seam-
// continuous, §8.2), so synthesis duration is the only "chunk build"
// signal this cache can report distinctly from request-handling overhead.
func (c *Cache) GetOrBuildTimed(coord voxel.ChunkCoord, onBuild func(time.Duration)) (*meshgen.RenderMesh, *meshgen.CollisionMesh) {
	sh := c.shardFor(coord)
	now := time.Now().UnixNano()

	sh.mu.Lock()
	if e, ok := sh.entries[coord]; ok {
		e.LastAccessed = now
		render, collision := e.Render, e.Collision
		sh.mu.Unlock()
		return render, collision
	}
	sh.mu.Unlock()

	flightKey := fmt.Sprintf("%d:%d:%d", coord.X, coord.Y, coord.Z)
	v, _, _ := c.flight.Do(flightKey, func() (interface{}, error) {
		sh.mu.Lock()
		if e, ok := sh.entries[coord]; ok {
			sh.mu.Unlock()
			return e, nil
		}
		sh.mu.Unlock()

		buildStart := time.Now()
		render, collision := meshgen.Synthesize(c.mgr, coord)
		if onBuild != nil {
			onBuild(time.Since(buildStart))
		}
		c.buildMu.Lock()
		c.buildCount++
		c.buildMu.Unlock()

		e := &Entry{Render: render, Collision: collision, LastAccessed: time.Now().UnixNano()}
		sh.mu.Lock()
		sh.entries[coord] = e
		c.evictShardIfOverCapacityLocked(sh)
		sh.mu.Unlock()
		return e, nil
	})
	e := v.(*Entry)
	return e.Render, e.Collision
}

// evictShardIfOverCapacityLocked applies the per-shard share of the
// global capacity; callers must hold sh.mu. Splitting capacity evenly
// across shards keeps the cleanup sweep local to one shard at a time.
func (c *Cache) evictShardIfOverCapacityLocked(sh *shard) {
	perShard := c.capacity / shardCount
	if perShard < 1 {
		perShard = 1
	}
	if len(sh.entries) <= perShard {
		return
	}
	type kv struct {
		key  voxel.ChunkCoord
		last int64
	}
	snapshot := make([]kv, 0, len(sh.entries))
	for k, e := range sh.entries {
		snapshot = append(snapshot, kv{k, e.LastAccessed})
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
		delete(sh.entries, snapshot[i].key)
	}
}

// Cleanup runs the periodic (every 60s, §4.E) eviction sweep across every
// shard, independent of insertion-triggered eviction.
func (c *Cache) Cleanup() {
	for _, sh := range c.shards {
		sh.mu.Lock()
		c.evictShardIfOverCapacityLocked(sh)
		sh.mu.Unlock()
	}
}

// Invalidate removes coord's entry, if present (§4.E explicit
// invalidate).
func (c *Cache) Invalidate(coord voxel.ChunkCoord) {
	sh := c.shardFor(coord)
	sh.mu.Lock()
	delete(sh.entries, coord)
	sh.mu.Unlock()
}

// InvalidateEdit removes every cached chunk whose voxel AABB intersects
// the edit's affected radius (§4.E "an edit at world position p with
// radius r invalidates every chunk whose voxel footprint intersects
// [p-r, p+r]", §8.6 edit locality). Rather than scanning every shard's
// full entry set, it uses voxel.ChunkOf to bound the sweep to the small
// cube of chunk coordinates the edit's radius can actually reach.
func (c *Cache) InvalidateEdit(edit worldgen.Edit) {
	margin := int32(edit.Radius) + 1
	minChunk, _ := voxel.ChunkOf(edit.X-margin, edit.Y-margin, edit.Z-margin)
	maxChunk, _ := voxel.ChunkOf(edit.X+margin, edit.Y+margin, edit.Z+margin)

	for cx := minChunk.X; cx <= maxChunk.X; cx++ {
		for cy := minChunk.Y; cy <= maxChunk.Y; cy++ {
			for cz := minChunk.Z; cz <= maxChunk.Z; cz++ {
				coord := voxel.ChunkCoord{X: cx, Y: cy, Z: cz}
				ox, oy, oz := coord.WorldOrigin()
				if !edit.Intersects(ox, oy, oz, ox+voxel.SizeX, oy+voxel.SizeY, oz+voxel.SizeZ) {
					continue
				}
				sh := c.shardFor(coord)
				sh.mu.Lock()
				delete(sh.entries, coord)
				sh.mu.Unlock()
			}
		}
	}
}

// Len returns the total number of cached entries across all shards.
func (c *Cache) Len() int {
	total := 0
	for _, sh := range c.shards {
		sh.mu.Lock()
		total += len(sh.entries)
		sh.mu.Unlock()
	}
	return total
}

// BuildCount returns the cumulative number of mesh syntheses performed,
// used by telemetry (§4.F) and by single-flight tests (§8.4).
func (c *Cache) BuildCount() int64 {
	c.buildMu.Lock()
	defer c.buildMu.Unlock()
	return c.buildCount
}
