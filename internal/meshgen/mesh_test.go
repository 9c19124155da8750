package meshgen

import (
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/StoreStation/voxelterra/internal/chunkmgr"
	"github.com/StoreStation/voxelterra/internal/voxel"
	"github.com/StoreStation/voxelterra/internal/worldgen"
)

func TestSynthesizeProducesWellFormedMesh(t *testing.T) {
	world := worldgen.NewWorldContext(69420)
	cache := chunkmgr.NewColumnCache(world, 1000)
	mgr := chunkmgr.NewManager(cache, world)

	render, collision := Synthesize(mgr, voxel.ChunkCoord{X: 0, Y: 0, Z: 0})

	if len(render.Vertices)%floatsPerVertex != 0 {
		t.Fatalf("render vertex buffer not a multiple of %d floats: %d", floatsPerVertex, len(render.Vertices))
	}
	if render.TriangleCount() == 0 {
		t.Fatalf("expected at least one triangle at a chunk known to straddle the surface")
	}

	for i := 0; i < len(render.Vertices); i++ {
		v := render.Vertices[i]
		if math.IsNaN(float64(v)) || math.IsInf(float64(v), 0) {
			t.Fatalf("render vertex component %d is non-finite: %f", i, v)
		}
	}

	// Every normal must be unit length (or the fallback up vector).
	for i := 0; i+6 < len(render.Vertices); i += floatsPerVertex {
		nx, ny, nz := render.Vertices[i+3], render.Vertices[i+4], render.Vertices[i+5]
		lenSq := nx*nx + ny*ny + nz*nz
		if lenSq < 0.98 || lenSq > 1.02 {
			t.Fatalf("normal not unit length: (%f, %f, %f) -> %f", nx, ny, nz, lenSq)
		}
	}

	if len(collision.Indices)%3 != 0 {
		t.Fatalf("collision index buffer not a multiple of 3: %d", len(collision.Indices))
	}
	for _, idx := range collision.Indices {
		if int(idx) >= len(collision.Vertices) {
			t.Fatalf("collision index %d out of range of %d vertices", idx, len(collision.Vertices))
		}
	}
}

func TestSynthesizeIsDeterministic(t *testing.T) {
	world := worldgen.NewWorldContext(42)
	cache := chunkmgr.NewColumnCache(world, 1000)
	mgr := chunkmgr.NewManager(cache, world)

	r1, _ := Synthesize(mgr, voxel.ChunkCoord{X: 1, Y: 0, Z: -1})
	r2, _ := Synthesize(mgr, voxel.ChunkCoord{X: 1, Y: 0, Z: -1})

	if len(r1.Vertices) != len(r2.Vertices) {
		t.Fatalf("non-deterministic triangle count: %d vs %d", len(r1.Vertices), len(r2.Vertices))
	}
	for i := range r1.Vertices {
		if r1.Vertices[i] != r2.Vertices[i] {
			t.Fatalf("non-deterministic vertex at %d: %f vs %f", i, r1.Vertices[i], r2.Vertices[i])
		}
	}
}

// TestAdjacentChunksShareBoundaryVertices checks the seam-continuity
// invariant of §8.2/S4 directly: since density sampling is a pure function
// of world coordinates, the two chunks' meshes must agree exactly (within
// 1e-5) on the set of vertices lying on their shared x=32 plane, not just
// each independently have some vertex there.
func TestAdjacentChunksShareBoundaryVertices(t *testing.T) {
	world := worldgen.NewWorldContext(7)
	cache := chunkmgr.NewColumnCache(world, 1000)
	mgr := chunkmgr.NewManager(cache, world)

	_, collisionA := Synthesize(mgr, voxel.ChunkCoord{X: 0, Y: 0, Z: 0})
	_, collisionB := Synthesize(mgr, voxel.ChunkCoord{X: 1, Y: 0, Z: 0})

	const boundaryX = float32(voxel.SizeX)
	const eps = 1e-5

	boundaryVerts := func(vs []mgl32.Vec3) []mgl32.Vec3 {
		var out []mgl32.Vec3
		for _, v := range vs {
			if math.Abs(float64(v.X()-boundaryX)) < eps {
				out = append(out, v)
			}
		}
		return out
	}

	vertsA := boundaryVerts(collisionA.Vertices)
	vertsB := boundaryVerts(collisionB.Vertices)

	if len(vertsA) == 0 && len(vertsB) == 0 {
		t.Skip("surface does not cross the shared face in this seed/position; not a seam failure")
	}

	matched := make([]bool, len(vertsB))
	for _, va := range vertsA {
		found := false
		for j, vb := range vertsB {
			if matched[j] {
				continue
			}
			if vecClose(va, vb, eps) {
				matched[j] = true
				found = true
				break
			}
		}
		if !found {
			t.Fatalf("chunk A boundary vertex %v has no matching vertex in chunk B's mesh", va)
		}
	}
	for j, ok := range matched {
		if !ok {
			t.Fatalf("chunk B boundary vertex %v has no matching vertex in chunk A's mesh", vertsB[j])
		}
	}
}

func vecClose(a, b mgl32.Vec3, eps float64) bool {
	return math.Abs(float64(a.X()-b.X())) < eps &&
		math.Abs(float64(a.Y()-b.Y())) < eps &&
		math.Abs(float64(a.Z()-b.Z())) < eps
}

func TestCubeIndexAllSolidOrAllAirSkipsEmission(t *testing.T) {
	allSolid := [8]cornerSample{}
	allAir := [8]cornerSample{}
	for i := range allSolid {
		allSolid[i].density = 1.0
		allAir[i].density = 0.0
	}
	if idx := cubeIndex(allSolid); idx != 255 {
		t.Fatalf("expected all-solid cube index 255, got %d", idx)
	}
	if idx := cubeIndex(allAir); idx != 0 {
		t.Fatalf("expected all-air cube index 0, got %d", idx)
	}
}
