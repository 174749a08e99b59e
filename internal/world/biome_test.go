package world

import "testing"

func uniformFields(w, h int, elev, temp, moist float64) (e, t, m, r *Field) {
	e, t, m, r = NewField(w, h), NewField(w, h), NewField(w, h), NewField(w, h)
	for i := range e.Data {
		e.Data[i] = elev
		t.Data[i] = temp
		m.Data[i] = moist
	}
	return
}

func TestDeepOceanBeatsIce(t *testing.T) {
	for _, tp := range []TuningProfile{tuningBalanced, tuningLegacy} {
		e, temp, m, r := uniformFields(6, 6, 0.05, 0, 0.5)
		bm := Classify(e, temp, m, r, 0.5, tp)
		for i, b := range bm.Data {
			if b != BiomeOcean {
				t.Fatalf("%s: cell %d = %s, want Ocean", tp.Name, i, b)
			}
		}
	}
}

func TestShallowPolarWaterFreezes(t *testing.T) {
	e, temp, m, r := uniformFields(6, 6, 0.45, 0, 0.5)
	bm := Classify(e, temp, m, r, 0.5, tuningBalanced)
	if got := bm.At(2, 2); got != BiomeIce {
		t.Fatalf("shallow polar water = %s, want Ice", got)
	}
}

func TestMoistureBands(t *testing.T) {
	tp := tuningBalanced
	mid := (tp.ColdBand + tp.HotBand) / 2
	cases := []struct {
		temp, moist float64
		want        Biome
	}{
		{mid, 0, BiomeXericShrubland},
		{mid, 1, BiomeWetland},
		{0.95, 0, BiomeHotDesert},
		{0.95, 1, BiomeSwamp},
		{tp.PolarTemp + 0.01, 0, BiomeColdDesert},
	}
	for _, c := range cases {
		e, temp, m, r := uniformFields(6, 6, 0.6, c.temp, c.moist)
		bm := Classify(e, temp, m, r, 0.5, tp)
		if got := bm.At(3, 3); got != c.want {
			t.Errorf("temp %.2f moist %.2f = %s, want %s", c.temp, c.moist, got, c.want)
		}
	}
}

func TestRiverOverridesLandBiome(t *testing.T) {
	e, temp, m, r := uniformFields(6, 6, 0.6, 0.5, 0.5)
	r.Set(3, 3, tuningBalanced.RiverThreshold)
	bm := Classify(e, temp, m, r, 0.5, tuningBalanced)
	if got := bm.At(3, 3); got != BiomeRiver {
		t.Fatalf("river cell = %s", got)
	}
	if got := bm.At(1, 1); got == BiomeRiver {
		t.Fatal("dry cell classified as river")
	}
}

func TestBiomeNamesAndWater(t *testing.T) {
	for b := Biome(0); b < BiomeCount; b++ {
		if b.String() == "" {
			t.Fatalf("biome %d has no name", b)
		}
	}
	if !BiomeOcean.IsWater() || !BiomeShallowOcean.IsWater() || BiomeGrassland.IsWater() {
		t.Fatal("IsWater misclassifies")
	}
}
