// Tectonic plates: Voronoi-style assignment with domain warping and
// boundary stress classification.
package world

import (
	"fmt"
	"math"
	"math/rand"
	"sort"
)

// BoundaryType classifies the relationship between two adjacent plates.
type BoundaryType uint8

const (
	BoundaryNone       BoundaryType = iota
	BoundaryConvergent              // Plates closing
	BoundaryDivergent               // Plates opening
	BoundaryTransform               // Plates sliding past each other
)

// String returns a human-readable boundary name.
func (b BoundaryType) String() string {
	switch b {
	case BoundaryConvergent:
		return "Convergent"
	case BoundaryDivergent:
		return "Divergent"
	case BoundaryTransform:
		return "Transform"
	default:
		return "None"
	}
}

// PlateSite is the seed point of one tectonic plate.
type PlateSite struct {
	ID            int      `json:"id"`
	X             int      `json:"x"`
	Y             int      `json:"y"`
	DX            float64  `json:"dx"` // Unit drift direction
	DY            float64  `json:"dy"`
	Oceanic       bool     `json:"oceanic"`
	BaseElevation float64  `json:"base_elevation"`
	Color         [3]uint8 `json:"color"`
}

// PlateStress records the forces acting on a border cell.
type PlateStress struct {
	Direct   float64 `json:"direct"`   // Relative motion along the site-to-site line
	Shear    float64 `json:"shear"`    // Relative motion across it
	Neighbor int     `json:"neighbor"` // Adjacent plate id, -1 for interior cells
}

// PlatePair is an unordered pair of touching plates with A < B.
type PlatePair struct {
	A int `json:"a"`
	B int `json:"b"`
}

// PlateField is the per-cell plate assignment and boundary classification.
type PlateField struct {
	Dims
	Sites        []PlateSite    `json:"sites"`
	IDs          []int          `json:"ids"`
	Boundaries   []BoundaryType `json:"boundaries"`
	Stress       []PlateStress  `json:"stress"`
	Pairs        []PlatePair    `json:"pairs"`
	BorderPoints []int          `json:"border_points"` // Sorted cell indices
}

// Plate tuning.
const (
	warpAmplitude       = 0.05 // Fraction of grid width
	warpFrequency       = 0.018
	warpOctaves         = 5
	oceanicElevMin      = 0.12
	oceanicElevSpan     = 0.20
	continentalElevMin  = 0.48
	continentalElevSpan = 0.26
)

// GeneratePlates places count random plate sites and builds the plate field.
// oceanRatio is the target fraction of oceanic plates.
func GeneratePlates(w, h, count int, seed int64, oceanRatio float64) *PlateField {
	if count < 1 {
		panic(fmt.Sprintf("world: plate count must be at least 1, got %d", count))
	}
	rng := rand.New(rand.NewSource(seed + 10))
	oceanRatio = clamp01(oceanRatio)

	taken := make(map[int]bool, count)
	sites := make([]PlateSite, 0, count)
	for len(sites) < count {
		x, y := rng.Intn(w), rng.Intn(h)
		if taken[y*w+x] && len(taken) < w*h {
			continue
		}
		taken[y*w+x] = true

		angle := rng.Float64() * 2 * math.Pi
		oceanic := rng.Float64() < oceanRatio
		var base float64
		if oceanic {
			base = oceanicElevMin + rng.Float64()*oceanicElevSpan
		} else {
			base = continentalElevMin + rng.Float64()*continentalElevSpan
		}
		sites = append(sites, PlateSite{
			ID:            len(sites),
			X:             x,
			Y:             y,
			DX:            math.Cos(angle),
			DY:            math.Sin(angle),
			Oceanic:       oceanic,
			BaseElevation: base,
			Color:         [3]uint8{uint8(rng.Intn(256)), uint8(rng.Intn(256)), uint8(rng.Intn(256))},
		})
	}

	return NewPlateField(w, h, sites, seed)
}

// NewPlateField assigns every cell to its nearest (warped) site and
// classifies boundaries. Site IDs must equal their slice index.
func NewPlateField(w, h int, sites []PlateSite, seed int64) *PlateField {
	if len(sites) == 0 {
		panic("world: plate field needs at least one site")
	}
	d := Dims{W: w, H: h}
	pf := &PlateField{
		Dims:       d,
		Sites:      sites,
		IDs:        make([]int, d.Cells()),
		Boundaries: make([]BoundaryType, d.Cells()),
		Stress:     make([]PlateStress, d.Cells()),
	}

	warpA := NewNoise(seed + 11)
	warpB := NewNoise(seed + 12)
	amp := warpAmplitude * float64(w)

	ForEachRow(h, func(y int) {
		for x := 0; x < w; x++ {
			fx, fy := float64(x), float64(y)
			wx := (warpA.Cylinder(fx, fy, w, warpOctaves, warpFrequency, 0.5) - 0.5) * 2 * amp
			wy := (warpB.Cylinder(fx, fy, w, warpOctaves, warpFrequency, 0.5) - 0.5) * 2 * amp
			sx := fx + wx
			sy := clamp(fy+wy, 0, float64(h-1))
			pf.IDs[y*w+x] = nearestSite(d, sites, sx, sy)
		}
	})

	// A plate must never vanish under the warp.
	for _, s := range sites {
		pf.IDs[d.MustIndex(s.X, s.Y)] = s.ID
	}

	pf.classifyBoundaries()
	return pf
}

// nearestSite is a brute-force scan; plate counts stay in the tens.
func nearestSite(d Dims, sites []PlateSite, x, y float64) int {
	best := 0
	bestDist := math.Inf(1)
	for _, s := range sites {
		dx := d.DeltaX(x, float64(s.X))
		dy := float64(s.Y) - y
		dist := dx*dx + dy*dy
		if dist < bestDist {
			bestDist = dist
			best = s.ID
		}
	}
	return best
}

func (pf *PlateField) classifyBoundaries() {
	pairs := make(map[PlatePair]bool)
	for i := range pf.IDs {
		pf.Stress[i].Neighbor = -1
	}

	for y := 0; y < pf.H; y++ {
		for x := 0; x < pf.W; x++ {
			i := y*pf.W + x
			own := pf.IDs[i]
			other := -1
			for _, o := range Offsets4 {
				nx, ny, ok := pf.Neighbor(x, y, o[0], o[1])
				if !ok {
					continue
				}
				if id := pf.IDs[ny*pf.W+nx]; id != own {
					other = id
					break
				}
			}
			if other < 0 {
				continue
			}

			kind, direct, shear := pf.classifyPair(own, other)
			pf.Boundaries[i] = kind
			pf.Stress[i] = PlateStress{Direct: direct, Shear: shear, Neighbor: other}
			pf.BorderPoints = append(pf.BorderPoints, i)

			p := PlatePair{A: own, B: other}
			if p.A > p.B {
				p.A, p.B = p.B, p.A
			}
			pairs[p] = true
		}
	}

	pf.Pairs = make([]PlatePair, 0, len(pairs))
	for p := range pairs {
		pf.Pairs = append(pf.Pairs, p)
	}
	sort.Slice(pf.Pairs, func(i, j int) bool {
		if pf.Pairs[i].A != pf.Pairs[j].A {
			return pf.Pairs[i].A < pf.Pairs[j].A
		}
		return pf.Pairs[i].B < pf.Pairs[j].B
	})
}

// classifyPair projects the relative plate motion onto the line between the
// two sites. Positive parallel motion closes the gap.
func (pf *PlateField) classifyPair(a, b int) (BoundaryType, float64, float64) {
	sa, sb := pf.Sites[a], pf.Sites[b]
	lx := pf.DeltaX(float64(sa.X), float64(sb.X))
	ly := float64(sb.Y - sa.Y)
	length := math.Hypot(lx, ly)
	if length == 0 {
		return BoundaryTransform, 0, 0
	}
	lx /= length
	ly /= length

	rx := sa.DX - sb.DX
	ry := sa.DY - sb.DY
	parallel := rx*lx + ry*ly
	shear := math.Abs(rx*ly - ry*lx)

	switch {
	case shear > math.Abs(parallel):
		return BoundaryTransform, parallel, shear
	case parallel > 0:
		return BoundaryConvergent, parallel, shear
	case parallel < 0:
		return BoundaryDivergent, parallel, shear
	default:
		return BoundaryTransform, parallel, shear
	}
}

// PlateAt returns the plate id at (x, y).
func (pf *PlateField) PlateAt(x, y int) int {
	return pf.IDs[pf.Index(x, y)]
}

// DistinctPlates counts plate ids present in the grid.
func (pf *PlateField) DistinctPlates() int {
	seen := make(map[int]bool, len(pf.Sites))
	for _, id := range pf.IDs {
		seen[id] = true
	}
	return len(seen)
}

// BoundaryCounts returns how many border cells fall in each class.
func (pf *PlateField) BoundaryCounts() map[BoundaryType]int {
	counts := make(map[BoundaryType]int)
	for _, i := range pf.BorderPoints {
		counts[pf.Boundaries[i]]++
	}
	return counts
}
