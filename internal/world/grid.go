// Package world provides the planet grid and the physical generation stages:
// plates, elevation, erosion, climate, rivers, biomes, and city placement.
// The grid wraps horizontally and is clamped vertically.
package world

import (
	"fmt"
	"math"
)

// Dims describes a width×height grid that wraps in X and clamps in Y.
type Dims struct {
	W int `json:"w"`
	H int `json:"h"`
}

// Cells returns the total cell count.
func (d Dims) Cells() int {
	return d.W * d.H
}

// WrapX maps any column onto [0, W).
func (d Dims) WrapX(x int) int {
	x %= d.W
	if x < 0 {
		x += d.W
	}
	return x
}

// ClampY maps any row onto [0, H).
func (d Dims) ClampY(y int) int {
	if y < 0 {
		return 0
	}
	if y >= d.H {
		return d.H - 1
	}
	return y
}

// Index returns the linear index for (x, y) after wrapping X and clamping Y.
func (d Dims) Index(x, y int) int {
	return d.ClampY(y)*d.W + d.WrapX(x)
}

// MustIndex returns the linear index for an in-bounds coordinate.
// Out-of-bounds access is a caller bug and panics.
func (d Dims) MustIndex(x, y int) int {
	if x < 0 || x >= d.W || y < 0 || y >= d.H {
		panic(fmt.Sprintf("world: cell (%d,%d) outside %dx%d grid", x, y, d.W, d.H))
	}
	return y*d.W + x
}

// XY returns the coordinates of a linear index.
func (d Dims) XY(i int) (int, int) {
	return i % d.W, i / d.W
}

// Neighbor returns the wrapped neighbor of (x, y) at offset (dx, dy).
// ok is false when the offset leaves the grid vertically.
func (d Dims) Neighbor(x, y, dx, dy int) (nx, ny int, ok bool) {
	ny = y + dy
	if ny < 0 || ny >= d.H {
		return 0, 0, false
	}
	return d.WrapX(x + dx), ny, true
}

// DeltaX returns the shortest signed horizontal offset from ax to bx on the torus.
func (d Dims) DeltaX(ax, bx float64) float64 {
	w := float64(d.W)
	dx := math.Mod(bx-ax, w)
	if dx > w/2 {
		dx -= w
	} else if dx < -w/2 {
		dx += w
	}
	return dx
}

// Dist returns the toroidal Euclidean distance between two points.
func (d Dims) Dist(ax, ay, bx, by float64) float64 {
	dx := d.DeltaX(ax, bx)
	dy := by - ay
	return math.Sqrt(dx*dx + dy*dy)
}

// sameDims panics when two grids disagree on size.
func sameDims(a, b Dims) {
	if a != b {
		panic(fmt.Sprintf("world: grid size mismatch %dx%d vs %dx%d", a.W, a.H, b.W, b.H))
	}
}

// Offsets8 lists the eight neighbor offsets. West comes first.
var Offsets8 = [8][2]int{
	{-1, 0}, {1, 0}, {0, -1}, {0, 1},
	{-1, -1}, {1, -1}, {-1, 1}, {1, 1},
}

// Offsets4 lists the four orthogonal neighbor offsets.
var Offsets4 = [4][2]int{{-1, 0}, {1, 0}, {0, -1}, {0, 1}}

// Field is a dense scalar grid.
type Field struct {
	Dims
	Data []float64 `json:"data"`
}

// NewField allocates a zeroed field.
func NewField(w, h int) *Field {
	if w <= 0 || h <= 0 {
		panic(fmt.Sprintf("world: invalid grid size %dx%d", w, h))
	}
	return &Field{Dims: Dims{W: w, H: h}, Data: make([]float64, w*h)}
}

// At returns the value at (x, y), wrapping X and clamping Y.
func (f *Field) At(x, y int) float64 {
	return f.Data[f.Index(x, y)]
}

// Set stores v at (x, y), wrapping X and clamping Y.
func (f *Field) Set(x, y int, v float64) {
	f.Data[f.Index(x, y)] = v
}

// Clone returns a deep copy.
func (f *Field) Clone() *Field {
	c := &Field{Dims: f.Dims, Data: make([]float64, len(f.Data))}
	copy(c.Data, f.Data)
	return c
}

// MinMax returns the smallest and largest values.
func (f *Field) MinMax() (float64, float64) {
	lo, hi := math.Inf(1), math.Inf(-1)
	for _, v := range f.Data {
		if v < lo {
			lo = v
		}
		if v > hi {
			hi = v
		}
	}
	return lo, hi
}

// Normalize rescales the field to [0, 1]. A flat field becomes all zeros.
func (f *Field) Normalize() {
	lo, hi := f.MinMax()
	span := hi - lo
	for i, v := range f.Data {
		f.Data[i] = sanitize((v-lo)/span, 0)
	}
}

// Relief returns the max-minus-min spread across the 8-neighborhood of (x, y).
func (f *Field) Relief(x, y int) float64 {
	c := f.At(x, y)
	lo, hi := c, c
	for _, o := range Offsets8 {
		nx, ny, ok := f.Neighbor(x, y, o[0], o[1])
		if !ok {
			continue
		}
		v := f.Data[ny*f.W+nx]
		if v < lo {
			lo = v
		}
		if v > hi {
			hi = v
		}
	}
	return hi - lo
}

// FractionBelow returns the share of cells strictly below t.
func (f *Field) FractionBelow(t float64) float64 {
	if len(f.Data) == 0 {
		return 0
	}
	n := 0
	for _, v := range f.Data {
		if v < t {
			n++
		}
	}
	return float64(n) / float64(len(f.Data))
}

// sanitize replaces NaN and infinities with fallback.
func sanitize(v, fallback float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return fallback
	}
	return v
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func clamp01(v float64) float64 {
	return clamp(sanitize(v, 0), 0, 1)
}

func lerp(a, b, t float64) float64 {
	return a + (b-a)*t
}

func smoothstep(edge0, edge1, x float64) float64 {
	t := clamp((x-edge0)/(edge1-edge0), 0, 1)
	return t * t * (3 - 2*t)
}
