package world

import "testing"

func TestWrapAndClamp(t *testing.T) {
	d := Dims{W: 10, H: 5}
	if got := d.WrapX(-1); got != 9 {
		t.Fatalf("WrapX(-1) = %d, want 9", got)
	}
	if got := d.WrapX(23); got != 3 {
		t.Fatalf("WrapX(23) = %d, want 3", got)
	}
	if got := d.ClampY(-4); got != 0 {
		t.Fatalf("ClampY(-4) = %d", got)
	}
	if got := d.ClampY(7); got != 4 {
		t.Fatalf("ClampY(7) = %d", got)
	}
	if got := d.Index(-1, 2); got != 2*10+9 {
		t.Fatalf("Index(-1, 2) = %d", got)
	}
}

func TestNeighborWrapsWest(t *testing.T) {
	d := Dims{W: 10, H: 5}
	nx, ny, ok := d.Neighbor(0, 2, -1, 0)
	if !ok || nx != 9 || ny != 2 {
		t.Fatalf("west of (0,2) = (%d,%d,%v), want (9,2,true)", nx, ny, ok)
	}
	if _, _, ok := d.Neighbor(3, 0, 0, -1); ok {
		t.Fatal("north of the top row should not exist")
	}
	if _, _, ok := d.Neighbor(3, 4, 1, 1); ok {
		t.Fatal("south of the bottom row should not exist")
	}
}

func TestDeltaXTakesShortWayAround(t *testing.T) {
	d := Dims{W: 100, H: 10}
	if got := d.DeltaX(2, 98); got != -4 {
		t.Fatalf("DeltaX(2, 98) = %v, want -4", got)
	}
	if got := d.DeltaX(98, 2); got != 4 {
		t.Fatalf("DeltaX(98, 2) = %v, want 4", got)
	}
	if got := d.Dist(1, 0, 99, 0); got != 2 {
		t.Fatalf("Dist across seam = %v, want 2", got)
	}
}

func TestMustIndexPanicsOutOfBounds(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic")
		}
	}()
	Dims{W: 4, H: 4}.MustIndex(4, 0)
}

func TestFieldNormalizeAndFractionBelow(t *testing.T) {
	f := NewField(4, 1)
	copy(f.Data, []float64{2, 4, 6, 10})
	f.Normalize()
	if f.Data[0] != 0 || f.Data[3] != 1 {
		t.Fatalf("normalized = %v", f.Data)
	}
	if got := f.FractionBelow(0.5); got != 0.5 {
		t.Fatalf("FractionBelow(0.5) = %v", got)
	}
}

func TestHash01StableAndInRange(t *testing.T) {
	a := Hash01(7, 1, 2, 3)
	if a != Hash01(7, 1, 2, 3) {
		t.Fatal("hash not stable")
	}
	if a == Hash01(8, 1, 2, 3) {
		t.Fatal("seed should change the hash")
	}
	for i := 0; i < 1000; i++ {
		if v := Hash01(int64(i), i, -i, i*7); v < 0 || v >= 1 {
			t.Fatalf("hash %d = %v out of range", i, v)
		}
	}
}

func TestForEachRowVisitsEveryRow(t *testing.T) {
	rows := make([]int, 37)
	ForEachRow(len(rows), func(y int) { rows[y]++ })
	for y, n := range rows {
		if n != 1 {
			t.Fatalf("row %d visited %d times", y, n)
		}
	}
}
