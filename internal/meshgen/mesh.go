// Package meshgen synthesizes render and collision meshes from the density
// field by marching cubes (§4.D): a continuous-surface extractor over
// chunkmgr.Manager's density samples, rather than the discrete
// block-face meshing a flat-block world would use. The flat,
// non-indexed float32 render buffer per chunk follows the same delivery
// shape as a greedy block-face mesher's output vertex buffer.
package meshgen

import (
	"github.com/go-gl/mathgl/mgl32"

	"github.com/StoreStation/voxelterra/internal/chunkmgr"
	"github.com/StoreStation/voxelterra/internal/voxel"
	"github.com/StoreStation/voxelterra/internal/worldgen"
)

// Iso mirrors worldgen.Iso; duplicated as a local constant so this package
// does not need to import worldgen just for the threshold value used in
// CubeIndex.
const Iso = 0.5

const epsilonLerp = 1e-6
const epsilonArea2 = 1e-10

// floatsPerVertex is the render-mesh stride: position (3) + normal (3) +
// block type (1), per §4.D "flat float32 buffer, 7 floats per vertex".
const floatsPerVertex = 7

// RenderMesh is the flat vertex buffer handed to clients for drawing.
// Vertices are not shared between triangles; every triangle contributes
// three fresh entries.
type RenderMesh struct {
	// Vertices is laid out as repeating (x, y, z, nx, ny, nz, blockType)
	// groups, floatsPerVertex floats per vertex.
	Vertices []float32
}

// TriangleCount returns the number of triangles encoded in the buffer.
func (m *RenderMesh) TriangleCount() int {
	return len(m.Vertices) / (floatsPerVertex * 3)
}

// CollisionMesh is the indexed mesh used for physics/collision queries
// (§4.D), kept separate from the render buffer since collision code wants
// shared vertices and 32-bit indices rather than a flat per-triangle dump.
type CollisionMesh struct {
	Vertices []mgl32.Vec3
	Indices  []uint32
}

type cornerSample struct {
	pos     mgl32.Vec3
	density float32
}

// Synthesize runs marching cubes over one chunk (§4.D). It samples density
// one voxel past each chunk face (via mgr.SampleDensityFastHint) so that
// cubes straddling the chunk's max faces are still fully defined, which is
// what keeps adjacent chunks' surfaces seam-continuous (§8.2/§8.4 S4).
// Density and block classification both go through mgr, which owns the
// column cache mgr.World would otherwise have to bypass.
func Synthesize(mgr *chunkmgr.Manager, coord voxel.ChunkCoord) (*RenderMesh, *CollisionMesh) {
	ox, oy, oz := coord.WorldOrigin()

	render := &RenderMesh{}
	collision := &CollisionMesh{}
	vertexIndex := make(map[[3]int32]uint32)

	for lx := 0; lx < voxel.SizeX; lx++ {
		wx := ox + int32(lx)
		for lz := 0; lz < voxel.SizeZ; lz++ {
			wz := oz + int32(lz)

			// The 8 corners of every cube sharing this (wx, wz) column only
			// ever touch one of 4 (x, z) pairs regardless of ly, so the
			// column lookups are hoisted out of the ly loop and handed to
			// SampleDensityFastHint as a cache-lookup-free hint (§4.C's
			// sample_density_fast(..., column_hint) edge case) instead of
			// re-resolving the same columns on each of the SizeY iterations.
			var colHint [2][2]worldgen.ColumnData
			for dx := int32(0); dx <= 1; dx++ {
				for dz := int32(0); dz <= 1; dz++ {
					colHint[dx][dz] = mgr.Columns.Column(wx+dx, wz+dz)
				}
			}

			for ly := 0; ly < voxel.SizeY; ly++ {
				wy := oy + int32(ly)

				var corners [8]cornerSample
				for i, off := range cornerOffset {
					cx := wx + off[0]
					cy := wy + off[1]
					cz := wz + off[2]
					corners[i] = cornerSample{
						pos:     mgl32.Vec3{float32(cx), float32(cy), float32(cz)},
						density: mgr.SampleDensityFastHint(cx, cy, cz, colHint[off[0]][off[2]]),
					}
				}

				idx := cubeIndex(corners)
				if idx == 0 || idx == 255 {
					continue
				}
				edges := edgeTable[idx]
				if edges == 0 {
					continue
				}

				var edgeVerts [12]mgl32.Vec3
				for e := 0; e < 12; e++ {
					if edges&(1<<uint(e)) == 0 {
						continue
					}
					a, b := cornerEdges[e][0], cornerEdges[e][1]
					edgeVerts[e] = interpolateEdge(corners[a], corners[b])
				}

				tris := triTable[idx]
				for t := 0; t+2 < 16 && tris[t] != -1; t += 3 {
					p0 := edgeVerts[tris[t]]
					p1 := edgeVerts[tris[t+1]]
					p2 := edgeVerts[tris[t+2]]

					normal, ok := faceNormal(p0, p1, p2)
					if !ok {
						continue
					}

					centroid := p0.Add(p1).Add(p2).Mul(1.0 / 3.0)
					cwx := int32(roundHalfUp(centroid.X()))
					cwz := int32(roundHalfUp(centroid.Z()))
					cwy := int32(roundHalfUp(centroid.Y()))
					density := mgr.SampleDensityFast(cwx, cwy, cwz)
					block := mgr.BlockTypeFast(cwx, cwy, cwz, density)

					appendTriangle(render, p0, p1, p2, normal, block)
					appendCollisionTriangle(collision, vertexIndex, p0, p1, p2)
				}
			}
		}
	}

	return render, collision
}

// cubeIndex computes the 8-bit marching-cubes index (§4.D): bit i set
// means corner i's density is at or above Iso (solid side).
func cubeIndex(corners [8]cornerSample) uint8 {
	var idx uint8
	for i, c := range corners {
		if c.density >= Iso {
			idx |= 1 << uint(i)
		}
	}
	return idx
}

// interpolateEdge linearly interpolates the iso-crossing point along one
// cube edge (§4.D), flooring the interpolation factor's denominator at
// epsilonLerp and clamping t to [0, 1] to avoid NaN/out-of-segment results
// when both corners sit almost exactly on the iso-surface.
func interpolateEdge(a, b cornerSample) mgl32.Vec3 {
	denom := b.density - a.density
	if denom > -epsilonLerp && denom < epsilonLerp {
		denom = epsilonLerp
	}
	t := (Iso - a.density) / denom
	if t < 0 {
		t = 0
	} else if t > 1 {
		t = 1
	}
	return a.pos.Add(b.pos.Sub(a.pos).Mul(t))
}

// faceNormal computes a face normal via the cross product, rejecting
// triangles whose area falls below epsilonArea2 (§4.D "reject degenerate
// triangles"); ok is false for those. Falls back to +Y ("up") only when
// the cross product itself is exactly zero-length after the area check
// already passed, guarding against a normalize-by-zero on razor-thin but
// non-degenerate triangles.
func faceNormal(p0, p1, p2 mgl32.Vec3) (mgl32.Vec3, bool) {
	e1 := p1.Sub(p0)
	e2 := p2.Sub(p0)
	cross := e1.Cross(e2)
	area2 := cross.Dot(cross)
	if area2 < epsilonArea2 {
		return mgl32.Vec3{}, false
	}
	n := cross.Normalize()
	if n.X() == 0 && n.Y() == 0 && n.Z() == 0 {
		return mgl32.Vec3{0, 1, 0}, true
	}
	return n, true
}

func appendTriangle(mesh *RenderMesh, p0, p1, p2, normal mgl32.Vec3, block voxel.BlockType) {
	bt := float32(block)
	for _, p := range [3]mgl32.Vec3{p0, p1, p2} {
		mesh.Vertices = append(mesh.Vertices,
			p.X(), p.Y(), p.Z(),
			normal.X(), normal.Y(), normal.Z(),
			bt,
		)
	}
}

// appendCollisionTriangle shares vertices keyed by a fixed-point snap of
// their position so that coincident marching-cubes vertices collapse into
// one collision-mesh vertex instead of duplicating per-cube.
func appendCollisionTriangle(mesh *CollisionMesh, seen map[[3]int32]uint32, p0, p1, p2 mgl32.Vec3) {
	for _, p := range [3]mgl32.Vec3{p0, p1, p2} {
		key := snapKey(p)
		idx, ok := seen[key]
		if !ok {
			idx = uint32(len(mesh.Vertices))
			mesh.Vertices = append(mesh.Vertices, p)
			seen[key] = idx
		}
		mesh.Indices = append(mesh.Indices, idx)
	}
}

// snapKey quantizes a position to 1/256th of a voxel so that floating
// point noise in repeated Lerp evaluations of the same edge (shared by
// adjacent cubes) still hashes identically.
func snapKey(p mgl32.Vec3) [3]int32 {
	const scale = 256.0
	return [3]int32{
		int32(roundHalfUp(p.X() * scale)),
		int32(roundHalfUp(p.Y() * scale)),
		int32(roundHalfUp(p.Z() * scale)),
	}
}

func roundHalfUp(v float32) float32 {
	if v >= 0 {
		return float32(int32(v + 0.5))
	}
	return float32(int32(v - 0.5))
}
