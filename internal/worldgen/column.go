package worldgen

// ColumnData is the pure, per-(x,z) surface description (§3). It is
// produced once per column by ColumnAt and cached by the chunk manager
// (§4.C); ColumnAt itself does not cache — callers own caching.
type ColumnData struct {
	X, Z          int32
	SurfaceHeight float64
	BiomeWeights  [4]float64 // Plains, Forest, Desert, Mountains, sums to 1
	CaveIntensity float64
	Dominant      BiomeTag
}

// ColumnAt computes column_data(x, z) (§4.B): a pure function of (x, z)
// and the context's seed, independent of any neighbor column. Height is a
// weighted sum over all four biomes of each biome's base height plus its
// amplitude times per-biome detail noise, rather than a single discrete
// branch. The continent-scale noise field is not sampled here: neither the
// height nor the biome weights depend on it.
func (w *WorldContext) ColumnAt(x, z int32) ColumnData {
	weights := w.biomeWeights(x, z)

	const noiseScale = 0.015
	fx, fz := float64(x)*noiseScale, float64(z)*noiseScale

	var height float64
	var caveIntensity float64
	for tag := BiomeTag(0); tag < biomeCount; tag++ {
		wgt := weights[tag]
		if wgt <= 0 {
			continue
		}
		params := biomeTable[tag]
		// Each biome samples its own octave of detail noise offset by a
		// per-biome constant so biomes don't share identical height
		// ripples.
		n := w.detail.OctaveNoise2D(fx+float64(tag)*137.0, fz+float64(tag)*271.0, 4, 2.0, 0.5)
		height += wgt * (params.baseHeight + params.amplitude*n)
		caveIntensity += wgt * params.caveBoost
	}

	return ColumnData{
		X:             x,
		Z:             z,
		SurfaceHeight: height,
		BiomeWeights:  weights,
		CaveIntensity: caveIntensity,
		Dominant:      dominantBiome(weights),
	}
}
