package worldgen

import "github.com/StoreStation/voxelterra/internal/voxel"

// WaterLevel is the sea-level constant (§4.B), used for sand-near-beach
// classification.
const WaterLevel = 62

// snowLine is the altitude above which mountain-biome surfaces turn to
// snow (§4.B "snow replaces surface above a snow line in mountain biomes").
const snowLine = 100

// BlockTypeAt computes block_type_at(x, y, z) → BlockType (§4.B). It is a
// pure function of (h, y-h, biome tag, small-scale noise); the biome
// decisions use the column's single dominant biome tag, not the full
// weight vector.
func (w *WorldContext) BlockTypeAt(x, y, z int32, col ColumnData, density float32) voxel.BlockType {
	if y <= YBed {
		return voxel.Stone
	}
	if density < Iso {
		return voxel.Air
	}

	h := col.SurfaceHeight
	depth := h - float64(y)
	dominant := col.Dominant

	jitter := w.blockJit.Noise3D(float64(x)*0.3, float64(y)*0.3, float64(z)*0.3)

	switch {
	case depth < 1 && dominant == BiomeMountains && h >= snowLine:
		return voxel.Snow
	case depth < 1 && dominant == BiomeDesert:
		return voxel.Sand
	case depth < 1 && float64(y) <= WaterLevel+1:
		return voxel.Sand
	case depth < 1:
		return voxel.Grass
	case depth < 4:
		if jitter > 0.6 {
			return voxel.Gravel
		}
		return voxel.Dirt
	default:
		return voxel.Stone
	}
}
