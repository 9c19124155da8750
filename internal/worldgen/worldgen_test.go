package worldgen

import "testing"

func TestColumnAtIsPureAndIndependentOfNeighbors(t *testing.T) {
	w := NewWorldContext(69420)
	a := w.ColumnAt(100, -50)
	b := w.ColumnAt(100, -50)
	if a != b {
		t.Fatalf("ColumnAt not deterministic: %+v vs %+v", a, b)
	}

	sum := a.BiomeWeights[0] + a.BiomeWeights[1] + a.BiomeWeights[2] + a.BiomeWeights[3]
	if sum < 0.999 || sum > 1.001 {
		t.Fatalf("biome weights do not sum to 1: %v (sum=%f)", a.BiomeWeights, sum)
	}
}

func TestSampleDensityPurity(t *testing.T) {
	w := NewWorldContext(69420)
	col := w.ColumnAt(16, 16)
	for i := 0; i < 50; i++ {
		d1 := w.SampleDensity(16, 40, 16, col)
		d2 := w.SampleDensity(16, 40, 16, col)
		if d1 != d2 {
			t.Fatalf("SampleDensity not pure: %f vs %f on call %d", d1, d2, i)
		}
	}
}

func TestSampleDensityBedrockAndSkyClamp(t *testing.T) {
	w := NewWorldContext(1)
	col := w.ColumnAt(0, 0)

	if d := w.SampleDensity(0, YBed, 0, col); d != 1.0 {
		t.Errorf("at y=YBed expected strictly solid density 1.0, got %f", d)
	}
	if d := w.SampleDensity(0, YBed-10, 0, col); d != 1.0 {
		t.Errorf("below YBed expected strictly solid density 1.0, got %f", d)
	}
	if d := w.SampleDensity(0, YSky, 0, col); d != 0.0 {
		t.Errorf("at y=YSky expected strictly air density 0.0, got %f", d)
	}
	if d := w.SampleDensity(0, YSky+20, 0, col); d != 0.0 {
		t.Errorf("above YSky expected strictly air density 0.0, got %f", d)
	}
}

func TestApplyEditLoweresDensityLocally(t *testing.T) {
	w := NewWorldContext(7)
	col := w.ColumnAt(16, 16)
	before := w.SampleDensity(16, 30, 16, col)
	w.ApplyEdit(16, 30, 16, 1.5)
	after := w.SampleDensity(16, 30, 16, col)
	if !(after < before) {
		t.Fatalf("expected edit to reduce density at its center, before=%f after=%f", before, after)
	}

	far := w.SampleDensity(16, 30, 1000, col)
	w2 := NewWorldContext(7)
	col2 := w2.ColumnAt(16, 16)
	farBaseline := w2.SampleDensity(16, 30, 1000, col2)
	if far != farBaseline {
		t.Fatalf("edit leaked outside its radius: %f vs baseline %f", far, farBaseline)
	}
}

func TestBlockTypeAtNeverFails(t *testing.T) {
	w := NewWorldContext(42)
	for y := int32(-100); y <= 150; y += 10 {
		col := w.ColumnAt(5, 5)
		d := w.SampleDensity(5, y, 5, col)
		_ = w.BlockTypeAt(5, y, 5, col, d)
	}
}
