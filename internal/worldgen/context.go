// Package worldgen implements the seed-deterministic world generator
// (§4.B): column data, the density field, and block classification. The
// seed and every noise field the generator needs are gathered into one
// explicit WorldContext value and passed down to callers rather than
// reached for as ambient global state; a single instance is shared by
// the whole running server.
package worldgen

import (
	"github.com/StoreStation/voxelterra/internal/noise"
)

// Bedrock/sky clamp bounds and the surface iso-contour (§3).
const (
	YBed = -64
	YSky = 128
	Iso  = 0.5

	// densityClampK bounds the smooth surface gradient d0 (§4.B.1).
	densityClampK = 4.0
	// surfaceGradientK is the small slope constant so the surface is a
	// smooth gradient rather than a step.
	surfaceGradientK = 0.05
)

// BiomeTag names the four blendable biomes (§3's "dominant biome tag").
type BiomeTag uint8

const (
	BiomePlains BiomeTag = iota
	BiomeForest
	BiomeDesert
	BiomeMountains
	biomeCount = 4
)

// biomeParams holds the (base_height, amplitude) pair plus cave tuning for
// one biome, indexed by BiomeTag rather than selected by a discrete switch,
// since §4.B requires a continuous weighted blend, not a single winner.
type biomeParams struct {
	baseHeight   float64
	amplitude    float64
	caveBoost    float64 // multiplies cave carve strength for this biome
	snowy        bool
}

var biomeTable = [biomeCount]biomeParams{
	BiomePlains:    {baseHeight: 66, amplitude: 10, caveBoost: 1.0},
	BiomeForest:    {baseHeight: 68, amplitude: 14, caveBoost: 1.0},
	BiomeDesert:    {baseHeight: 64, amplitude: 8, caveBoost: 1.3},
	BiomeMountains: {baseHeight: 96, amplitude: 48, caveBoost: 0.8},
}

// WorldContext owns the seed and every noise field the generator needs. A
// single instance is shared by every caller; all of its methods are safe
// for unrestricted concurrent use because the underlying noise.Field
// values are themselves read-only after construction (§4.B "none allocate
// per call; all are safe for unrestricted parallel invocation").
type WorldContext struct {
	seed int64

	continent *noise.Field // continent-scale low frequency height noise
	detail    *noise.Field // per-biome surface roughness
	temp      *noise.Field // biome temperature field
	rain      *noise.Field // biome humidity field
	perturb3D *noise.Field // 3D density perturbation near the surface
	cave1     *noise.Field // cave band noise field A
	cave2     *noise.Field // cave band noise field B
	blockJit  *noise.Field // small-scale block classification noise

	edits *editOverlay
}

// NewWorldContext builds a WorldContext for seed. Every noise field shares
// the same seed and is distinguished from its siblings by a salt string, so
// each shuffles its lattice independently without needing to reserve a
// disjoint offset range per field.
func NewWorldContext(seed int64) *WorldContext {
	return &WorldContext{
		seed:      seed,
		continent: noise.New(seed, "continent"),
		detail:    noise.New(seed, "detail"),
		temp:      noise.New(seed, "temperature"),
		rain:      noise.New(seed, "rainfall"),
		perturb3D: noise.New(seed, "perturb3d"),
		cave1:     noise.New(seed, "cave-a"),
		cave2:     noise.New(seed, "cave-b"),
		blockJit:  noise.New(seed, "block-jitter"),
		edits:     newEditOverlay(),
	}
}

// Seed returns the world seed.
func (w *WorldContext) Seed() int64 { return w.seed }

// biomeWeights computes the four-component, sum-to-one biome weight vector
// for a column using smooth partition functions of temperature and
// rainfall (§4.B "blend ... using smooth partition functions that sum to
// 1").
func (w *WorldContext) biomeWeights(x, z int32) [biomeCount]float64 {
	const scale = 0.003
	bx := float64(x) * scale
	bz := float64(z) * scale

	t := (w.temp.OctaveNoise2D(bx, bz, 4, 2.0, 0.5) + 1) / 2
	r := (w.rain.OctaveNoise2D(bx+500, bz+500, 4, 2.0, 0.5) + 1) / 2

	// Smoothstep-based partitions: a rugged/flat axis picks out mountains
	// first (high temperature-noise amplitude used as a proxy for
	// ruggedness, low rainfall), then the remaining weight splits across
	// warm-dry (desert), warm-wet (forest), and the rest (plains). Every
	// weight is a continuous function of (t, r), so neighboring columns
	// never jump discretely between biomes.
	mountain := smoothstep(t, 0.55, 0.85) * smoothstepDown(r, 0.2, 0.5)
	remaining := 1 - mountain
	dryWarm := (1 - smoothstepDown(t, 0.25, 0.55)) * smoothstepDown(r, 0.35, 0.65)
	wetWarm := (1 - smoothstepDown(t, 0.25, 0.55)) * smoothstep(r, 0.35, 0.65)

	var out [biomeCount]float64
	out[BiomeMountains] = mountain
	out[BiomeDesert] = remaining * dryWarm
	out[BiomeForest] = remaining * wetWarm
	out[BiomePlains] = remaining - out[BiomeDesert] - out[BiomeForest]
	if out[BiomePlains] < 0 {
		out[BiomePlains] = 0
	}

	sum := out[0] + out[1] + out[2] + out[3]
	if sum <= 0 {
		return [biomeCount]float64{1, 0, 0, 0}
	}
	for i := range out {
		out[i] /= sum
	}
	return out
}

func smoothstep(v, lo, hi float64) float64 {
	if hi <= lo {
		if v >= hi {
			return 1
		}
		return 0
	}
	x := (v - lo) / (hi - lo)
	if x <= 0 {
		return 0
	}
	if x >= 1 {
		return 1
	}
	return x * x * (3 - 2*x)
}

func smoothstepDown(v, lo, hi float64) float64 {
	return 1 - smoothstep(v, lo, hi)
}

// dominantBiome returns the highest-weighted biome tag, used for block
// classification decisions that need a single winner (e.g. surface block
// choice) even though height blending uses the full weight vector.
func dominantBiome(weights [biomeCount]float64) BiomeTag {
	best := BiomeTag(0)
	bestW := weights[0]
	for i := 1; i < biomeCount; i++ {
		if weights[i] > bestW {
			bestW = weights[i]
			best = BiomeTag(i)
		}
	}
	return best
}

// clampf clamps v into [lo, hi].
func clampf(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
