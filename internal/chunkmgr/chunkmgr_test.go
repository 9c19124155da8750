package chunkmgr

import (
	"sync"
	"testing"

	"github.com/StoreStation/voxelterra/internal/voxel"
	"github.com/StoreStation/voxelterra/internal/worldgen"
)

func TestColumnCacheSingleFlight(t *testing.T) {
	world := worldgen.NewWorldContext(1)
	cache := NewColumnCache(world, 1000)

	var wg sync.WaitGroup
	results := make([]worldgen.ColumnData, 32)
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func(idx int) {
			defer wg.Done()
			results[idx] = cache.Column(5, 5)
		}(i)
	}
	wg.Wait()

	for i := 1; i < len(results); i++ {
		if results[i] != results[0] {
			t.Fatalf("concurrent Column callers observed different results")
		}
	}
	if _, misses := cache.Stats(); misses != 1 {
		t.Fatalf("expected exactly 1 miss for single-flight column build, got %d", misses)
	}
}

func TestColumnCacheBounded(t *testing.T) {
	world := worldgen.NewWorldContext(2)
	cache := NewColumnCache(world, 100)
	for x := int32(0); x < 200; x++ {
		cache.Column(x, 0)
	}
	if cache.Len() > 100 {
		t.Fatalf("column cache exceeded capacity: %d > 100", cache.Len())
	}
}

func TestChunkAssemblyProducesInChunkBounds(t *testing.T) {
	world := worldgen.NewWorldContext(69420)
	cache := NewColumnCache(world, 1000)
	mgr := NewManager(cache, world)

	cv := mgr.Chunk(voxel.ChunkCoord{X: 0, Y: 0, Z: 0})
	hasSolid, hasAir := false, false
	for x := 0; x < voxel.SizeX; x++ {
		for y := 0; y < voxel.SizeY; y++ {
			for z := 0; z < voxel.SizeZ; z++ {
				if cv.At(x, y, z) == voxel.Air {
					hasAir = true
				} else {
					hasSolid = true
				}
			}
		}
	}
	if !hasSolid || !hasAir {
		t.Fatalf("expected chunk (0,0,0) to contain both solid and air blocks, solid=%v air=%v", hasSolid, hasAir)
	}
}

func TestSampleDensityFastToleratesOutOfChunkCoords(t *testing.T) {
	world := worldgen.NewWorldContext(3)
	cache := NewColumnCache(world, 1000)
	mgr := NewManager(cache, world)

	// One voxel past a chunk face in each horizontal direction should not panic and
	// should match a direct column cache + density computation.
	for _, d := range [][3]int32{{-1, 0, 0}, {32, 0, 0}, {0, 0, -1}, {0, 0, 32}} {
		got := mgr.SampleDensityFast(d[0], d[1], d[2])
		col := cache.Column(d[0], d[2])
		want := world.SampleDensity(d[0], d[1], d[2], col)
		if got != want {
			t.Errorf("SampleDensityFast(%v) = %f, want %f", d, got, want)
		}
	}
}
