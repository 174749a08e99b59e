package world

import (
	"errors"
	"math"
	"slices"
	"strings"
	"testing"
)

func referenceParams() Params {
	p := DefaultParams()
	p.Width = 256
	p.Height = 128
	p.Seed = 1337
	p.SeaLevel = 0.5
	p.PlateCount = 20
	return p
}

func TestGenerateReferenceWorld(t *testing.T) {
	w := Generate(referenceParams())

	got := w.Elevation.FractionBelow(0.5)
	want := TargetOceanRatio(0.5)
	if math.Abs(got-want) > 0.02 {
		t.Fatalf("ocean fraction %.3f, want %.3f ± 0.02", got, want)
	}
	if w.Plates.DistinctPlates() != 20 {
		t.Fatalf("plates = %d", w.Plates.DistinctPlates())
	}

	land := 0
	for b, n := range w.Biomes.Counts() {
		if !b.IsWater() && b != BiomeIce && n > 0 {
			land++
		}
	}
	if land == 0 {
		t.Fatal("no land biomes")
	}
	if len(w.Cities) == 0 {
		t.Fatal("no cities placed")
	}
	names := make(map[string]bool)
	for _, c := range w.Cities {
		if !w.IsLand(w.Elevation.Index(c.X, c.Y)) {
			t.Fatalf("city %s at (%d,%d) is in the sea", c.Name, c.X, c.Y)
		}
		if c.Name == "" || names[c.Name] {
			t.Fatalf("bad or duplicate city name %q", c.Name)
		}
		names[c.Name] = true
	}

	for i, v := range w.Rivers.Data {
		if v != 0 && w.Elevation.Data[i] <= w.Params.SeaLevel {
			t.Fatalf("river intensity %v on ocean cell %d", v, i)
		}
	}
	for i, b := range w.Biomes.Data {
		if w.Elevation.Data[i] < w.Params.SeaLevel*w.Params.Tuning.DeepOceanFraction && b != BiomeOcean {
			t.Fatalf("deep cell %d classified %s", i, b)
		}
	}
	for i, r := range w.Rocks.Data {
		if r >= RockCount || w.Ores.Data[i] >= OreCount {
			t.Fatalf("cell %d has rock %d ore %d", i, r, w.Ores.Data[i])
		}
	}
}

// sameWorld fails unless every layer of a and b matches exactly.
func sameWorld(t *testing.T, a, b *World) {
	t.Helper()
	fields := []struct {
		name string
		x, y *Field
	}{
		{"orogeny", a.Orogeny, b.Orogeny},
		{"elevation", a.Elevation, b.Elevation},
		{"rain", a.Rain, b.Rain},
		{"river fluid", a.RiverFluid, b.RiverFluid},
		{"temperature", a.Temperature, b.Temperature},
		{"moisture", a.Moisture, b.Moisture},
		{"rivers", a.Rivers, b.Rivers},
	}
	for _, f := range fields {
		if !slices.Equal(f.x.Data, f.y.Data) {
			t.Fatalf("%s differs", f.name)
		}
	}
	if !slices.Equal(a.Plates.IDs, b.Plates.IDs) ||
		!slices.Equal(a.Plates.Sites, b.Plates.Sites) ||
		!slices.Equal(a.Plates.Boundaries, b.Plates.Boundaries) ||
		!slices.Equal(a.Plates.Stress, b.Plates.Stress) ||
		!slices.Equal(a.Plates.BorderPoints, b.Plates.BorderPoints) {
		t.Fatal("plates differ")
	}
	if !slices.Equal(a.Wind.Data, b.Wind.Data) {
		t.Fatal("wind differs")
	}
	if !slices.Equal(a.Biomes.Data, b.Biomes.Data) ||
		!slices.Equal(a.Rocks.Data, b.Rocks.Data) ||
		!slices.Equal(a.Ores.Data, b.Ores.Data) {
		t.Fatal("classification differs")
	}
	if !slices.Equal(a.Cities, b.Cities) {
		t.Fatalf("cities differ: %d vs %d", len(a.Cities), len(b.Cities))
	}
}

func TestGenerateDeterministic(t *testing.T) {
	p := SmallTestParams()
	a, b := Generate(p), Generate(p)
	sameWorld(t, a, b)

	p.Seed++
	c := Generate(p)
	same := true
	for i := range a.Elevation.Data {
		if a.Elevation.Data[i] != c.Elevation.Data[i] {
			same = false
			break
		}
	}
	if same {
		t.Fatal("different seeds produced identical elevation")
	}
}

func TestHookAbortsAtStage(t *testing.T) {
	stop := errors.New("stop")
	var seen []Stage
	w, err := GenerateWithHook(SmallTestParams(), func(s Stage) error {
		seen = append(seen, s)
		if s == StageMoisture {
			return stop
		}
		return nil
	})
	if w != nil {
		t.Fatal("aborted run returned a world")
	}
	if !errors.Is(err, stop) {
		t.Fatalf("err = %v, want wrapped stop", err)
	}
	if !strings.Contains(err.Error(), StageMoisture.String()) {
		t.Fatalf("err %q does not name the stage", err)
	}
	if len(seen) != int(StageMoisture)+1 || seen[0] != StagePlates {
		t.Fatalf("stages seen = %v", seen)
	}
}

func TestCacheKey(t *testing.T) {
	a := SmallTestParams()
	b := SmallTestParams()
	if a.CacheKey() != b.CacheKey() {
		t.Fatal("equal params give different keys")
	}
	b.SeaLevel += 0.01
	if a.CacheKey() == b.CacheKey() {
		t.Fatal("sea level not in key")
	}
	b = a
	b.Morphology = MorphArchipelago
	if a.CacheKey() == b.CacheKey() {
		t.Fatal("morphology not in key")
	}
}

func TestEqualKeysGenerateEqualWorlds(t *testing.T) {
	a := SmallTestParams()
	b := SmallTestParams()
	b.SeaLevel = 0.5004
	b.HeatFactor += 0.0002
	b.Knobs.OrogenyStrength += 0.0003
	if a.CacheKey() != b.CacheKey() {
		t.Fatalf("keys differ: %s vs %s", a.CacheKey(), b.CacheKey())
	}
	sameWorld(t, Generate(a), Generate(b))

	b.SeaLevel = 0.501
	if a.CacheKey() == b.CacheKey() {
		t.Fatal("a full key step did not change the key")
	}
}

func TestClampSnapsToKeyResolution(t *testing.T) {
	p := SmallTestParams()
	p.SeaLevel = 0.34951
	p.Rivers.Density = 0.12345
	p = p.Clamp()
	if p.SeaLevel != 0.35 || p.Rivers.Density != 0.123 {
		t.Fatalf("sea %v density %v", p.SeaLevel, p.Rivers.Density)
	}
	if again := p.Clamp(); again != p {
		t.Fatal("Clamp is not idempotent")
	}
}

func TestClampRestoresNamedTuning(t *testing.T) {
	p := SmallTestParams()
	p.Tuning.DeepOceanFraction = 0.01
	p = p.Clamp()
	want, _ := TuningByName(p.Tuning.Name)
	if p.Tuning != want {
		t.Fatalf("edited tuning survived Clamp: %+v", p.Tuning)
	}

	tp, _ := TuningByName("legacy")
	tp.PolarTemp = 0.9
	tp.ColdMoisture[0] = 0.9
	fresh, _ := TuningByName("legacy")
	if fresh.PolarTemp == 0.9 || fresh.ColdMoisture[0] == 0.9 {
		t.Fatal("editing a returned profile changed the built-in one")
	}
}

func TestParamsClamp(t *testing.T) {
	p := Params{Width: 2, Height: 2, PlateCount: 500, SeaLevel: math.NaN(), HeatFactor: 9}
	p = p.Clamp()
	if p.Width < 8 || p.Height < 8 {
		t.Fatalf("size %dx%d", p.Width, p.Height)
	}
	if p.PlateCount > p.Width*p.Height {
		t.Fatalf("plate count %d exceeds cells", p.PlateCount)
	}
	if p.SeaLevel != DefaultParams().SeaLevel || p.HeatFactor != 1 {
		t.Fatalf("sea %v heat %v", p.SeaLevel, p.HeatFactor)
	}
	if p.Tuning.Name == "" {
		t.Fatal("tuning not defaulted")
	}
}

func TestNamedSettings(t *testing.T) {
	m, err := ParseMorphology("supercontinent")
	if err != nil || m != MorphSupercontinent {
		t.Fatalf("ParseMorphology = %v, %v", m, err)
	}
	if _, err := ParseMorphology("donut"); err == nil {
		t.Fatal("unknown morphology accepted")
	}
	tp, err := TuningByName("LEGACY")
	if err != nil || tp.Name != "Legacy" {
		t.Fatalf("TuningByName = %v, %v", tp.Name, err)
	}
	if _, err := TuningByName("spicy"); err == nil {
		t.Fatal("unknown tuning accepted")
	}
}

func TestCityNamesUnique(t *testing.T) {
	names := CityNames(11, 40)
	if len(names) != 40 {
		t.Fatalf("got %d names", len(names))
	}
	seen := make(map[string]bool)
	for _, n := range names {
		if seen[n] {
			t.Fatalf("duplicate %q", n)
		}
		seen[n] = true
	}
	again := CityNames(11, 40)
	for i := range names {
		if names[i] != again[i] {
			t.Fatal("names not deterministic")
		}
	}
}
