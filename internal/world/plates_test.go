package world

import "testing"

func TestGeneratePlatesKeepsEveryPlate(t *testing.T) {
	pf := GeneratePlates(256, 128, 20, 1337, 0.6)
	if got := pf.DistinctPlates(); got != 20 {
		t.Fatalf("distinct plates = %d, want 20", got)
	}
	for _, s := range pf.Sites {
		if pf.PlateAt(s.X, s.Y) != s.ID {
			t.Fatalf("site %d does not own its own cell", s.ID)
		}
	}
	if len(pf.BorderPoints) == 0 || len(pf.Pairs) == 0 {
		t.Fatal("expected plate borders")
	}
	for k := 1; k < len(pf.BorderPoints); k++ {
		if pf.BorderPoints[k-1] >= pf.BorderPoints[k] {
			t.Fatal("border points not sorted")
		}
	}
}

func twoPlates(dx0, dx1 float64) *PlateField {
	sites := []PlateSite{
		{ID: 0, X: 4, Y: 8, DX: dx0, BaseElevation: 0.6},
		{ID: 1, X: 14, Y: 8, DX: dx1, BaseElevation: 0.6},
	}
	return NewPlateField(32, 16, sites, 5)
}

func TestBoundaryClassification(t *testing.T) {
	cases := []struct {
		name     string
		dx0, dx1 float64
		want     BoundaryType
	}{
		{"closing", 1, -1, BoundaryConvergent},
		{"opening", -1, 1, BoundaryDivergent},
		{"parallel", 1, 1, BoundaryTransform},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			counts := twoPlates(c.dx0, c.dx1).BoundaryCounts()
			if counts[c.want] == 0 {
				t.Fatalf("no %s cells: %v", c.want, counts)
			}
			if len(counts) != 1 {
				t.Fatalf("mixed classes for one pair: %v", counts)
			}
		})
	}
}

func TestStressRecordsNeighbor(t *testing.T) {
	pf := twoPlates(1, -1)
	for _, i := range pf.BorderPoints {
		s := pf.Stress[i]
		if s.Neighbor == pf.IDs[i] || s.Neighbor < 0 {
			t.Fatalf("cell %d neighbor = %d, own = %d", i, s.Neighbor, pf.IDs[i])
		}
		if s.Direct <= 0 {
			t.Fatalf("convergent cell %d has direct stress %v", i, s.Direct)
		}
	}
}
