package chunkmgr

import (
	"github.com/StoreStation/voxelterra/internal/voxel"
	"github.com/StoreStation/voxelterra/internal/worldgen"
)

// ChunkVoxels is the dense SX×SY×SZ array of block types for one chunk
// (§3). It is not cached across calls (§4.C "Chunk voxel arrays are not
// cached"); callers request it to feed the mesh synthesizer.
type ChunkVoxels struct {
	Coord  voxel.ChunkCoord
	Blocks [voxel.SizeX][voxel.SizeY][voxel.SizeZ]voxel.BlockType
}

// At returns the block at chunk-local coordinates (lx, ly, lz).
func (cv *ChunkVoxels) At(lx, ly, lz int) voxel.BlockType {
	return cv.Blocks[lx][ly][lz]
}

// Manager assembles chunk voxel arrays on top of a column cache (§4.C).
type Manager struct {
	Columns *ColumnCache
	World   *worldgen.WorldContext
}

// NewManager creates a chunk manager over the given column cache and
// world context.
func NewManager(columns *ColumnCache, world *worldgen.WorldContext) *Manager {
	return &Manager{Columns: columns, World: world}
}

// Chunk assembles chunk(coord) → ChunkVoxels (§4.C): iterate (x, y, z) in
// chunk-local space, fetch the column once per (x, z), sample density once
// per voxel, and classify into block types. Parallel assembly over
// independent y-slices is safe (§4.C) since ColumnCache and WorldContext
// are both concurrency-safe; this implementation keeps it sequential for
// simplicity.
func (m *Manager) Chunk(coord voxel.ChunkCoord) *ChunkVoxels {
	cv := &ChunkVoxels{Coord: coord}
	ox, oy, oz := coord.WorldOrigin()

	for lx := 0; lx < voxel.SizeX; lx++ {
		wx := ox + int32(lx)
		for lz := 0; lz < voxel.SizeZ; lz++ {
			wz := oz + int32(lz)
			col := m.Columns.Column(wx, wz)
			for ly := 0; ly < voxel.SizeY; ly++ {
				wy := oy + int32(ly)
				d := m.World.SampleDensity(wx, wy, wz, col)
				cv.Blocks[lx][ly][lz] = m.World.BlockTypeAt(wx, wy, wz, col, d)
			}
		}
	}
	return cv
}

// SampleDensityFast samples density at a possibly out-of-chunk world
// coordinate, sharing the column cache lookup (§4.C "the mesh synthesizer
// needs to sample density one voxel past each chunk face"). It tolerates
// any integer coordinate, in or out of any particular chunk.
func (m *Manager) SampleDensityFast(x, y, z int32) float32 {
	col := m.Columns.Column(x, z)
	return m.World.SampleDensity(x, y, z, col)
}

// SampleDensityFastHint is SampleDensityFast but for callers that already
// hold the ColumnData for (x, z), avoiding a cache lookup.
func (m *Manager) SampleDensityFastHint(x, y, z int32, hint worldgen.ColumnData) float32 {
	return m.World.SampleDensity(x, y, z, hint)
}

// BlockTypeFast classifies the block at a world coordinate using the
// shared column cache, mirroring SampleDensityFast.
func (m *Manager) BlockTypeFast(x, y, z int32, density float32) voxel.BlockType {
	col := m.Columns.Column(x, z)
	return m.World.BlockTypeAt(x, y, z, col, density)
}
