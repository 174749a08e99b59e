package social

import (
	"reflect"
	"slices"
	"testing"

	"github.com/talgya/worldforge/internal/world"
)

func smallWorld(t *testing.T) *world.World {
	t.Helper()
	return world.Generate(world.SmallTestParams())
}

func TestSignatureTracksKnobsAndSize(t *testing.T) {
	d := world.Dims{W: 96, H: 48}
	k := DefaultKnobs()
	if Signature(k, d) != Signature(k, d) {
		t.Fatal("signature is not stable")
	}
	k2 := k
	k2.Epoch++
	if Signature(k, d) == Signature(k2, d) {
		t.Fatal("epoch change did not change signature")
	}
	if Signature(k, d) == Signature(k, world.Dims{W: 97, H: 48}) {
		t.Fatal("size change did not change signature")
	}
	// Out-of-range knobs clamp to the same signature as their bound.
	k3 := k
	k3.Aggression = 250
	k4 := k
	k4.Aggression = 100
	if Signature(k3, d) != Signature(k4, d) {
		t.Fatal("clamped knobs should share a signature")
	}
}

func TestSaturationCurve(t *testing.T) {
	k := DefaultKnobs()
	k.Epoch = 0
	if s := Saturation(k); s != 0 {
		t.Fatalf("epoch 0 saturation = %v, want 0", s)
	}
	prev := 0.0
	for e := 1; e < 40; e++ {
		k.Epoch = e
		s := Saturation(k)
		if s < prev || s >= 1 {
			t.Fatalf("saturation at epoch %d = %v (prev %v)", e, s, prev)
		}
		prev = s
	}
	lo, hi := k, k
	lo.Diversity, hi.Diversity = 0, 100
	lo.Epoch, hi.Epoch = 5, 5
	if Saturation(hi) <= Saturation(lo) {
		t.Fatal("higher diversity should saturate faster")
	}
}

func TestEcologyPotentialGrowsWithEpoch(t *testing.T) {
	w := smallWorld(t)
	k := DefaultKnobs()
	k.Epoch = 4
	early := SimulateEcology(w, k)
	k.Epoch = 16
	late := SimulateEcology(w, k)

	if early.LandCells == 0 || early.LandCells != late.LandCells {
		t.Fatalf("land cells: early %d late %d", early.LandCells, late.LandCells)
	}
	for i := range late.Potential.Data {
		if late.Potential.Data[i] < early.Potential.Data[i] {
			t.Fatalf("potential shrank at cell %d: %v -> %v", i, early.Potential.Data[i], late.Potential.Data[i])
		}
		if w.Elevation.Data[i] <= w.Params.SeaLevel && late.Health.Data[i] != 0 {
			t.Fatalf("ocean cell %d has health %v", i, late.Health.Data[i])
		}
	}
	if late.MeanPotential <= early.MeanPotential {
		t.Fatalf("mean potential %v did not exceed %v", late.MeanPotential, early.MeanPotential)
	}
}

func TestAllOceanYieldsNoPolities(t *testing.T) {
	w := smallWorld(t)
	for i := range w.Elevation.Data {
		w.Elevation.Data[i] = 0
	}
	w.Cities = nil

	k := DefaultKnobs()
	eco := SimulateEcology(w, k)
	if eco.LandCells != 0 || eco.PeakPotential != 0 {
		t.Fatalf("all-ocean ecology: land %d peak %v", eco.LandCells, eco.PeakPotential)
	}
	civ := SimulateCivilization(w, eco, k)
	if civ.Stats.PolityCount != 0 {
		t.Fatalf("PolityCount = %d, want 0", civ.Stats.PolityCount)
	}
	if len(civ.Events) != 0 || len(civ.Routes) != 0 {
		t.Fatalf("expected empty log and no trade, got %d events %d routes", len(civ.Events), len(civ.Routes))
	}
	for i, p := range civ.PolityID {
		if p != -1 {
			t.Fatalf("cell %d claimed by %d", i, p)
		}
	}
}

func TestEpochZeroHasNoPolities(t *testing.T) {
	w := smallWorld(t)
	k := DefaultKnobs()
	k.Epoch = 0
	civ := SimulateCivilization(w, SimulateEcology(w, k), k)
	if civ.Stats.PolityCount != 0 || len(civ.Events) != 0 {
		t.Fatalf("epoch 0: %d polities, %d events", civ.Stats.PolityCount, len(civ.Events))
	}
}

func TestConflictHeatRisesWithAggression(t *testing.T) {
	w := smallWorld(t)
	run := func(agg float64) CivStats {
		k := DefaultKnobs()
		k.Aggression = agg
		return SimulateCivilization(w, SimulateEcology(w, k), k).Stats
	}
	calm, angry := run(20), run(80)
	if angry.ConflictHeatPct < calm.ConflictHeatPct {
		t.Fatalf("conflict heat fell from %.2f to %.2f", calm.ConflictHeatPct, angry.ConflictHeatPct)
	}
}

func TestCivilizationDeterministic(t *testing.T) {
	w := smallWorld(t)
	k := DefaultKnobs()
	a := SimulateCivilization(w, SimulateEcology(w, k), k)
	b := SimulateCivilization(w, SimulateEcology(w, k), k)

	if !slices.Equal(a.PolityID, b.PolityID) {
		t.Fatal("polity grids differ")
	}
	if !slices.Equal(a.Influence.Data, b.Influence.Data) {
		t.Fatal("influence grids differ")
	}
	if !slices.Equal(a.TradeFlow.Data, b.TradeFlow.Data) {
		t.Fatal("trade flow grids differ")
	}
	if !reflect.DeepEqual(a.Events, b.Events) || a.Stats != b.Stats {
		t.Fatal("aggregates or events differ")
	}
}

func TestCivilizationRespectsOcean(t *testing.T) {
	w := smallWorld(t)
	k := DefaultKnobs()
	k.Epoch = 30
	k.Aggression = 10
	civ := SimulateCivilization(w, SimulateEcology(w, k), k)
	if civ.Stats.PolityCount == 0 {
		t.Fatal("expected at least one polity on the test world")
	}
	if civ.Turns != maxTurns {
		t.Fatalf("turns = %d at epoch 30, want %d", civ.Turns, maxTurns)
	}
	for i, e := range w.Elevation.Data {
		if e > w.Params.SeaLevel {
			continue
		}
		if civ.PolityID[i] != -1 || civ.TradeRoute[i] || civ.Border[i] {
			t.Fatalf("ocean cell %d is claimed or routed", i)
		}
	}
	for _, s := range civ.Settlements {
		if s.Links > maxLinksPerHub {
			t.Fatalf("hub %s has %d links", s.Name, s.Links)
		}
	}
}

func TestEventLogWindow(t *testing.T) {
	w := smallWorld(t)
	k := DefaultKnobs()
	k.Epoch = 20
	civ := SimulateCivilization(w, SimulateEcology(w, k), k)
	if len(civ.Events) != EventLookback {
		t.Fatalf("got %d events, want %d", len(civ.Events), EventLookback)
	}
	for i, e := range civ.Events {
		if e.Epoch != 15+i {
			t.Fatalf("event %d has epoch %d", i, e.Epoch)
		}
		if e.Impact < 1 || e.Impact > 5 || e.Summary == "" {
			t.Fatalf("bad event %+v", e)
		}
	}

	k.Epoch = 2
	civ = SimulateCivilization(w, SimulateEcology(w, k), k)
	if len(civ.Events) > 3 {
		t.Fatalf("epoch 2 produced %d events", len(civ.Events))
	}
}

func TestBordersWrapAcrossX(t *testing.T) {
	p := world.SmallTestParams()
	p.Width, p.Height = 8, 4
	w := &world.World{Params: p, Elevation: world.NewField(8, 4)}
	for i := range w.Elevation.Data {
		w.Elevation.Data[i] = 0.8
	}
	res := newCivResult(w.Dims())
	for y := 0; y < 4; y++ {
		for x := 0; x < 8; x++ {
			if x < 4 {
				res.PolityID[y*8+x] = 0
			} else {
				res.PolityID[y*8+x] = 1
			}
		}
	}
	markBorders(w, res)
	for y := 0; y < 4; y++ {
		if !res.Border[y*8] || !res.Border[y*8+7] {
			t.Fatalf("row %d: wrap seam not marked as border", y)
		}
		if res.Border[y*8+1] || res.Border[y*8+6] {
			t.Fatalf("row %d: interior cell marked as border", y)
		}
	}
}

func TestArchetypeNames(t *testing.T) {
	want := []string{"Generic", "Naval", "River", "Highland", "Nomadic"}
	for i, name := range want {
		if got := Archetype(i).String(); got != name {
			t.Fatalf("Archetype(%d) = %q, want %q", i, got, name)
		}
	}
}
