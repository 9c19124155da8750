package meshcache

import (
	"sync"
	"testing"

	"github.com/StoreStation/voxelterra/internal/chunkmgr"
	"github.com/StoreStation/voxelterra/internal/voxel"
	"github.com/StoreStation/voxelterra/internal/worldgen"
)

func newTestCache(seed int64) (*Cache, *chunkmgr.Manager, *worldgen.WorldContext) {
	world := worldgen.NewWorldContext(seed)
	cols := chunkmgr.NewColumnCache(world, 1000)
	mgr := chunkmgr.NewManager(cols, world)
	return New(mgr, world, 1000), mgr, world
}

func TestGetOrBuildSingleFlight(t *testing.T) {
	cache, _, _ := newTestCache(69420)
	coord := voxel.ChunkCoord{X: 5, Y: 0, Z: 5}

	var wg sync.WaitGroup
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			cache.GetOrBuild(coord)
		}()
	}
	wg.Wait()

	if got := cache.BuildCount(); got != 1 {
		t.Fatalf("expected exactly 1 mesh build under concurrent single-flight, got %d", got)
	}
}

func TestGetOrBuildReturnsEqualMeshes(t *testing.T) {
	cache, _, _ := newTestCache(1)
	coord := voxel.ChunkCoord{X: 0, Y: 0, Z: 0}

	r1, c1 := cache.GetOrBuild(coord)
	r2, c2 := cache.GetOrBuild(coord)

	if len(r1.Vertices) != len(r2.Vertices) {
		t.Fatalf("second GetOrBuild returned a different render mesh size")
	}
	if len(c1.Indices) != len(c2.Indices) {
		t.Fatalf("second GetOrBuild returned a different collision mesh size")
	}
}

func TestInvalidateRemovesEntry(t *testing.T) {
	cache, _, _ := newTestCache(2)
	coord := voxel.ChunkCoord{X: 1, Y: 0, Z: 1}
	cache.GetOrBuild(coord)
	if cache.Len() == 0 {
		t.Fatalf("expected a cached entry before invalidation")
	}
	cache.Invalidate(coord)

	before := cache.BuildCount()
	cache.GetOrBuild(coord)
	if cache.BuildCount() != before+1 {
		t.Fatalf("expected invalidated coord to rebuild on next access")
	}
}

func TestInvalidateEditOnlyAffectsIntersectingChunks(t *testing.T) {
	cache, _, world := newTestCache(3)
	near := voxel.ChunkCoord{X: 0, Y: 0, Z: 0}
	far := voxel.ChunkCoord{X: 50, Y: 0, Z: 50}
	cache.GetOrBuild(near)
	cache.GetOrBuild(far)

	edit := world.ApplyEdit(16, 30, 16, 1.5)
	cache.InvalidateEdit(edit)

	beforeNear := cache.BuildCount()
	cache.GetOrBuild(near)
	if cache.BuildCount() != beforeNear+1 {
		t.Fatalf("expected chunk intersecting the edit to be invalidated and rebuilt")
	}

	beforeFar := cache.BuildCount()
	cache.GetOrBuild(far)
	if cache.BuildCount() != beforeFar {
		t.Fatalf("expected distant chunk to remain cached after an unrelated edit")
	}
}

func TestCleanupBoundsSize(t *testing.T) {
	cache, _, _ := newTestCache(4)
	for x := int32(0); x < 300; x++ {
		cache.GetOrBuild(voxel.ChunkCoord{X: x, Y: 0, Z: 0})
	}
	cache.Cleanup()
	if cache.Len() > 1000 {
		t.Fatalf("mesh cache exceeded capacity after cleanup: %d", cache.Len())
	}
}
