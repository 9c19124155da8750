// Package noise provides deterministic, seed-and-salt-parameterized
// scalar fields in 2D and 3D (§4.A), plus the octave-summation and
// smooth-threshold helpers the world generator composes them with.
//
// Every exported method is a pure, allocation-free function of its
// receiver and arguments: the same (seed, salt, coords) always produce
// the same output, independent of call order, goroutine, or any other
// field built from the same seed.
package noise

import "math"

// gradients2D holds the eight lattice directions used to evaluate 2D
// noise (the four cardinal unit vectors and the four unnormalized
// (±1, ±1) diagonals); gradients3D holds the
// twelve cube-edge directions used for 3D noise.
var gradients2D = [8][2]float64{
	{1, 0}, {-1, 0}, {0, 1}, {0, -1},
	{1, 1}, {-1, 1}, {1, -1}, {-1, -1},
}

var gradients3D = [12][3]float64{
	{1, 1, 0}, {-1, 1, 0}, {1, -1, 0}, {-1, -1, 0},
	{1, 0, 1}, {-1, 0, 1}, {1, 0, -1}, {-1, 0, -1},
	{0, 1, 1}, {0, -1, 1}, {0, 1, -1}, {0, -1, -1},
}

// Field is a single deterministic gradient-noise field over a 256-entry
// permutation lattice.
type Field struct {
	perm [512]int
}

// New builds a Field from a world seed and a salt distinguishing it from
// sibling fields drawn from the same seed (e.g. "continent", "cave-a").
// Two fields built from the same seed but different salts shuffle their
// lattices independently; the same (seed, salt) pair always rebuilds an
// identical lattice.
func New(seed int64, salt string) *Field {
	f := &Field{}

	var lattice [256]int
	for i := range lattice {
		lattice[i] = i
	}

	state := seedState(seed, salt)
	for i := 255; i > 0; i-- {
		state = splitmix64(state)
		j := int(state % uint64(i+1))
		lattice[i], lattice[j] = lattice[j], lattice[i]
	}
	for i := 0; i < 256; i++ {
		f.perm[i] = lattice[i]
		f.perm[i+256] = lattice[i]
	}
	return f
}

// seedState folds a signed seed and a salt string into a 64-bit stream
// state via FNV-1a, so two Fields built from the same seed but different
// salts draw independent shuffles.
func seedState(seed int64, salt string) uint64 {
	const offsetBasis uint64 = 1469598103934665603
	const prime uint64 = 1099511628211

	h := offsetBasis
	u := uint64(seed)
	for i := 0; i < 8; i++ {
		h ^= u & 0xff
		h *= prime
		u >>= 8
	}
	for i := 0; i < len(salt); i++ {
		h ^= uint64(salt[i])
		h *= prime
	}
	return h
}

// splitmix64 advances a 64-bit stream state; successive calls draw the
// Fisher-Yates shuffle indices for the permutation lattice.
func splitmix64(state uint64) uint64 {
	state += 0x9e3779b97f4a7c15
	z := state
	z = (z ^ (z >> 30)) * 0xbf58476d1ce4e5b9
	z = (z ^ (z >> 27)) * 0x94d049bb133111eb
	return z ^ (z >> 31)
}

// quinticFade is Ken Perlin's 6t^5-15t^4+10t^3 ease curve.
func quinticFade(t float64) float64 {
	return t * t * t * (t*(t*6-15) + 10)
}

func mix(t, a, b float64) float64 {
	return a + t*(b-a)
}

// corner folds a chain of already-lattice-masked coordinates through the
// permutation table: corner(xi, yi) computes perm[perm[xi]+yi], and
// corner(xi, yi, zi) extends the same chain one level deeper for perm[perm[perm[xi]+yi]+zi].
func (f *Field) corner(coords ...int) int {
	idx := coords[0]
	for _, c := range coords[1:] {
		idx = f.perm[idx] + c
	}
	return f.perm[idx]
}

func (f *Field) grad2(hash int, dx, dy float64) float64 {
	g := gradients2D[hash%len(gradients2D)]
	return g[0]*dx + g[1]*dy
}

func (f *Field) grad3(hash int, dx, dy, dz float64) float64 {
	g := gradients3D[hash%len(gradients3D)]
	return g[0]*dx + g[1]*dy + g[2]*dz
}

// Noise2D computes 2D gradient noise at (x, y). Returns a value roughly
// in [-1, 1].
func (f *Field) Noise2D(x, y float64) float64 {
	fx, fy := math.Floor(x), math.Floor(y)
	xi, yi := int(fx)&255, int(fy)&255
	xf, yf := x-fx, y-fy

	u := quinticFade(xf)
	v := quinticFade(yf)

	x1, y1 := xi, yi
	x2, y2 := (xi+1)&255, (yi+1)&255

	n00 := f.grad2(f.corner(x1, y1), xf, yf)
	n10 := f.grad2(f.corner(x2, y1), xf-1, yf)
	n01 := f.grad2(f.corner(x1, y2), xf, yf-1)
	n11 := f.grad2(f.corner(x2, y2), xf-1, yf-1)

	return mix(v, mix(u, n00, n10), mix(u, n01, n11))
}

// Noise3D computes 3D gradient noise at (x, y, z). Returns a value
// roughly in [-1, 1].
func (f *Field) Noise3D(x, y, z float64) float64 {
	fx, fy, fz := math.Floor(x), math.Floor(y), math.Floor(z)
	xi, yi, zi := int(fx)&255, int(fy)&255, int(fz)&255
	xf, yf, zf := x-fx, y-fy, z-fz

	u := quinticFade(xf)
	v := quinticFade(yf)
	w := quinticFade(zf)

	x1, y1, z1 := xi, yi, zi
	x2, y2, z2 := (xi+1)&255, (yi+1)&255, (zi+1)&255

	n000 := f.grad3(f.corner(x1, y1, z1), xf, yf, zf)
	n100 := f.grad3(f.corner(x2, y1, z1), xf-1, yf, zf)
	n010 := f.grad3(f.corner(x1, y2, z1), xf, yf-1, zf)
	n110 := f.grad3(f.corner(x2, y2, z1), xf-1, yf-1, zf)
	n001 := f.grad3(f.corner(x1, y1, z2), xf, yf, zf-1)
	n101 := f.grad3(f.corner(x2, y1, z2), xf-1, yf, zf-1)
	n011 := f.grad3(f.corner(x1, y2, z2), xf, yf-1, zf-1)
	n111 := f.grad3(f.corner(x2, y2, z2), xf-1, yf-1, zf-1)

	ix00 := mix(u, n000, n100)
	ix10 := mix(u, n010, n110)
	ix01 := mix(u, n001, n101)
	ix11 := mix(u, n011, n111)

	iy0 := mix(v, ix00, ix10)
	iy1 := mix(v, ix01, ix11)

	return mix(w, iy0, iy1)
}

// octaveSum sums `octaves` layers of sample at increasing frequency and
// decreasing amplitude, normalized by the total amplitude so the result
// stays roughly within [-1, 1] regardless of octave count. Noise2D and
// Noise3D's octave variants both ride this one accumulator.
func octaveSum(octaves int, lacunarity, persistence float64, sample func(frequency float64) float64) float64 {
	var total, amplitude, maxAmplitude float64
	frequency := 1.0
	amplitude = 1.0
	for i := 0; i < octaves; i++ {
		total += sample(frequency) * amplitude
		maxAmplitude += amplitude
		amplitude *= persistence
		frequency *= lacunarity
	}
	if maxAmplitude == 0 {
		return 0
	}
	return total / maxAmplitude
}

// OctaveNoise2D computes fractal Brownian motion by summing octaves of
// Noise2D.
func (f *Field) OctaveNoise2D(x, y float64, octaves int, lacunarity, persistence float64) float64 {
	return octaveSum(octaves, lacunarity, persistence, func(frequency float64) float64 {
		return f.Noise2D(x*frequency, y*frequency)
	})
}

// OctaveNoise3D computes fractal Brownian motion in 3D, the cave-carving
// primitive §4.B layers across depth bands.
func (f *Field) OctaveNoise3D(x, y, z float64, octaves int, lacunarity, persistence float64) float64 {
	return octaveSum(octaves, lacunarity, persistence, func(frequency float64) float64 {
		return f.Noise3D(x*frequency, y*frequency, z*frequency)
	})
}

// SmoothThreshold is S(v, t, s) from §4.B.3: 0 below t-s, 1 above t+s, and
// a Hermite (smoothstep) interpolation in between. Used to turn a noise
// value crossing a threshold into a smooth carve strength instead of a
// hard step.
func SmoothThreshold(v, t, s float64) float64 {
	if s <= 0 {
		if v >= t {
			return 1
		}
		return 0
	}
	x := (v - (t - s)) / (2 * s)
	if x <= 0 {
		return 0
	}
	if x >= 1 {
		return 1
	}
	return x * x * (3 - 2*x)
}
