package worldgen

import "sync/atomic"

// Edit is one authoritative BlockBreak carve: a density reduction applied
// in a falling-off radius around (X, Y, Z) (§4.B "Edits").
type Edit struct {
	X, Y, Z int32
	Radius  float32
}

// editOverlay is the mutable overlay `edits: map (x,y,z) → density_delta`
// from §4.B, implemented as a copy-on-write slice behind an atomic pointer
// so SampleDensity can read a stable snapshot without taking a lock —
// density purity (§8.1) requires the read side to never block a writer or
// see a partially-applied edit list.
type editOverlay struct {
	list atomic.Pointer[[]Edit]
}

func newEditOverlay() *editOverlay {
	o := &editOverlay{}
	empty := []Edit{}
	o.list.Store(&empty)
	return o
}

func (o *editOverlay) snapshot() []Edit {
	return *o.list.Load()
}

func (o *editOverlay) add(e Edit) {
	for {
		old := o.list.Load()
		next := make([]Edit, len(*old), len(*old)+1)
		copy(next, *old)
		next = append(next, e)
		if o.list.CompareAndSwap(old, &next) {
			return
		}
	}
}

// ApplyEdit records a BlockBreak at world position (x, y, z) with the
// given carve radius and returns the recorded Edit so the caller can
// compute which chunks it invalidates (§8.6) without rescanning the whole
// overlay. It never fails (§4.B "sample_density remains a pure function of
// (seed, coords, edits) where edits is a snapshot taken at mesh-build
// time" — the snapshot is simply the current overlay contents).
func (w *WorldContext) ApplyEdit(x, y, z int32, radius float32) Edit {
	e := Edit{X: x, Y: y, Z: z, Radius: radius}
	w.edits.add(e)
	return e
}

// EditCount returns the number of edits recorded so far, for console/
// telemetry reporting.
func (w *WorldContext) EditCount() int {
	return len(w.edits.snapshot())
}

// Intersects reports whether the edit's bounding sphere intersects the
// axis-aligned box [minX,minY,minZ]..[maxX,maxY,maxZ] (§8.6 edit locality).
func (e Edit) Intersects(minX, minY, minZ, maxX, maxY, maxZ int32) bool {
	r := float64(e.Radius)
	if float64(e.X)+r < float64(minX) || float64(e.X)-r > float64(maxX) {
		return false
	}
	if float64(e.Y)+r < float64(minY) || float64(e.Y)-r > float64(maxY) {
		return false
	}
	if float64(e.Z)+r < float64(minZ) || float64(e.Z)-r > float64(maxZ) {
		return false
	}
	return true
}

// EditsAffecting reports whether any recorded edit's bounding sphere
// intersects the axis-aligned box [min, max] (§8.6 edit locality). The mesh
// cache does not call it; its per-edit invalidation uses Edit.Intersects.
func (w *WorldContext) EditsAffecting(minX, minY, minZ, maxX, maxY, maxZ int32) bool {
	for _, e := range w.edits.snapshot() {
		r := float64(e.Radius)
		if float64(e.X)+r < float64(minX) || float64(e.X)-r > float64(maxX) {
			continue
		}
		if float64(e.Y)+r < float64(minY) || float64(e.Y)-r > float64(maxY) {
			continue
		}
		if float64(e.Z)+r < float64(minZ) || float64(e.Z)-r > float64(maxZ) {
			continue
		}
		return true
	}
	return false
}
