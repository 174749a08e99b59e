package world

import "testing"

func TestPlatesWrapAcrossSeam(t *testing.T) {
	sites := []PlateSite{
		{ID: 0, X: 1, Y: 8, DX: 1, BaseElevation: 0.6},
		{ID: 1, X: 17, Y: 8, DX: -1, BaseElevation: 0.6},
	}
	pf := NewPlateField(32, 16, sites, 5)
	for y := 0; y < pf.H; y++ {
		for _, x := range []int{29, 30, 31, 0} {
			if got := pf.PlateAt(x, y); got != 0 {
				t.Fatalf("(%d,%d) owned by plate %d, want the plate across the seam", x, y, got)
			}
		}
	}
	for _, i := range pf.BorderPoints {
		if x, _ := pf.XY(i); x == 0 || x == pf.W-1 {
			t.Fatalf("seam column %d marked as a plate border", x)
		}
	}
}

func TestErosionFlowsAcrossSeam(t *testing.T) {
	e := NewField(16, 8)
	fluid := NewField(16, 8)
	for i := range e.Data {
		e.Data[i] = 0.5
		fluid.Data[i] = rainFluid
	}
	// The only lower ground for column 0 is the last column.
	for y := 0; y < e.H; y++ {
		e.Set(e.W-1, y, 0.1)
	}

	relax(e, fluid, true)

	for y := 0; y < e.H; y++ {
		if e.At(0, y) >= 0.5 {
			t.Fatalf("column 0 row %d did not drain west across the seam", y)
		}
	}
}

func TestRiversCrossSeam(t *testing.T) {
	const w, h = 64, 16
	const sea = 0.2
	elev := NewField(w, h)
	moist := NewField(w, h)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			// Terrain climbs eastward from x=56 through the seam up to x=39;
			// columns 40..55 are sea.
			u := (x + 24) % w
			v := 0.1
			if u >= 16 {
				v = 0.3 + 0.01*float64(u)
			}
			elev.Set(x, y, v)
			moist.Set(x, y, 0.8)
		}
	}

	p := DefaultRiverParams()
	p.Density = 1
	rivers := TraceRivers(elev, moist, nil, sea, p, 3)

	// A trace at column 0 can only continue west, into the last column.
	crossed := false
	for y := 0; y < h; y++ {
		if rivers.At(0, y) == 0 {
			continue
		}
		for dy := -1; dy <= 1; dy++ {
			if ny := y + dy; ny >= 0 && ny < h && rivers.At(w-1, ny) > 0 {
				crossed = true
			}
		}
	}
	if !crossed {
		t.Fatal("no river runs through the x seam")
	}
	for i, v := range rivers.Data {
		if v > 0 && elev.Data[i] <= sea {
			t.Fatalf("river on sea cell %d", i)
		}
	}
}
