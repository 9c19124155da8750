package worldgen

import "github.com/chewxy/math32"

// caveBand is one depth-banded cave carving pass (§4.B.3).
type caveBand struct {
	scale     float64 // 3D noise frequency for this band
	threshold float64
	width     float64 // smooth-threshold transition half-width
	strength  float32
	// inBand reports whether world-space y (given the column's surface
	// height h) falls inside this band.
	inBand func(y int32, h float64) bool
}

var caveBands = []caveBand{
	{ // shallow: surface-20..surface, carved lightly so entrances are rare
		scale: 0.07, threshold: 0.72, width: 0.05, strength: 0.35,
		inBand: func(y int32, h float64) bool {
			return float64(y) > h-20 && float64(y) <= h
		},
	},
	{ // mid: 30..surface-20
		scale: 0.05, threshold: 0.62, width: 0.08, strength: 0.6,
		inBand: func(y int32, h float64) bool {
			return float64(y) >= 30 && float64(y) <= h-20
		},
	},
	{ // deep: 0..30
		scale: 0.045, threshold: 0.58, width: 0.1, strength: 0.75,
		inBand: func(y int32, h float64) bool {
			return y >= 0 && y <= 30
		},
	},
	{ // ultra-deep: -64..0
		scale: 0.04, threshold: 0.55, width: 0.1, strength: 0.85,
		inBand: func(y int32, h float64) bool {
			return y >= YBed && y <= 0
		},
	},
	{ // abyss: below -32, the roomiest caverns
		scale: 0.035, threshold: 0.5, width: 0.12, strength: 0.95,
		inBand: func(y int32, h float64) bool {
			return y < -32
		},
	},
}

// SampleDensity computes sample_density(x, y, z) → f32 (§4.B). It is a
// pure function of (seed, x, y, z) and the current edit snapshot,
// composing the smooth surface gradient, 3D perturbation, and depth-banded
// cave carving of §4.B.1-4 directly.
func (w *WorldContext) SampleDensity(x, y, z int32, col ColumnData) float32 {
	if y <= YBed {
		return 1.0
	}
	if y >= YSky {
		return 0.0
	}

	h := col.SurfaceHeight

	// 1. Base density from surface: a smooth gradient, not a step.
	d0 := clamp32(
		float32(Iso)+float32(h-float64(y))*float32(surfaceGradientK),
		float32(-densityClampK), float32(densityClampK),
	)

	// 2. 3D noise perturbation proportional to depth below surface, scaled
	// down near the surface to prevent over-erosion.
	depth := h - float64(y)
	perturbScale := clampf(depth/20.0, 0, 1) * 0.18
	perturb := w.perturb3D.Noise3D(float64(x)*0.08, float64(y)*0.08, float64(z)*0.08)
	d := d0 + float32(perturb*perturbScale)

	// 3. Cave carving: layered subtraction across depth bands.
	fx, fy, fz := float64(x), float64(y), float64(z)
	var carve float32
	for _, band := range caveBands {
		if !band.inBand(y, h) {
			continue
		}
		n1 := w.cave1.Noise3D(fx*band.scale, fy*band.scale, fz*band.scale)
		n2 := w.cave2.Noise3D(fx*band.scale+91.7, fy*band.scale-13.2, fz*band.scale+41.1)
		s1 := smoothThresholdF(n1, band.threshold, band.width)
		s2 := smoothThresholdF(n2, band.threshold, band.width)
		carve += s1 * s2 * band.strength * float32(col.CaveIntensity)
	}
	d -= carve

	// 4. Bedrock/sky clamps were handled by the early return above; here we
	// fold in the edit overlay before the final clamp.
	for _, e := range w.edits.snapshot() {
		dx := float32(x) - float32(e.X)
		dy := float32(y) - float32(e.Y)
		dz := float32(z) - float32(e.Z)
		distSq := dx*dx + dy*dy + dz*dz
		if distSq >= e.Radius*e.Radius {
			continue
		}
		dist := math32.Sqrt(distSq)
		falloff := 1 - dist/e.Radius
		d -= falloff * (float32(densityClampK) * 1.5)
	}

	return clamp32(d, float32(-densityClampK), float32(densityClampK))
}

func clamp32(v, lo, hi float32) float32 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// smoothThresholdF is the float32 mirror of noise.SmoothThreshold, kept
// local so the cave-carving hot loop never round-trips through float64.
func smoothThresholdF(v, t, s float64) float32 {
	if s <= 0 {
		if v >= t {
			return 1
		}
		return 0
	}
	x := float32((v - (t - s)) / (2 * s))
	if x <= 0 {
		return 0
	}
	if x >= 1 {
		return 1
	}
	return x * x * (3 - 2*x)
}
