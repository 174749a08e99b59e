// Hydraulic erosion relaxation and sea-level normalization.
package world

import (
	"math"
	"sort"
)

// Erosion tuning.
const (
	MaxErosionIterations = 20
	rainFluid            = 0.004
	riverFluid           = 0.01
	tailClip             = 0.02
)

// ErosionResult holds the eroded elevation and both fluid layers.
type ErosionResult struct {
	Elevation  *Field
	Rain       *Field // Rain fluid after the terrain-modifying pass
	RiverFluid *Field // Fluid from the non-modifying pass, used by river tracing
}

// Erode relaxes elevation with a rain pass that lowers terrain, then runs a
// shorter pass over a separate fluid layer that leaves terrain untouched.
// Both scans run in place, row-major, so results depend on that order.
// The eroded field is finally remapped so the ocean share matches seaLevel.
func Erode(elev *Field, iterations int, seaLevel float64) ErosionResult {
	if iterations < 0 {
		iterations = 0
	}
	if iterations > MaxErosionIterations {
		iterations = MaxErosionIterations
	}

	e := elev.Clone()
	rain := NewField(e.W, e.H)
	for i := range rain.Data {
		rain.Data[i] = rainFluid
	}
	for it := 0; it < iterations; it++ {
		relax(e, rain, true)
	}

	river := NewField(e.W, e.H)
	for i := range river.Data {
		river.Data[i] = riverFluid
	}
	for it := 0; it < iterations/3+1; it++ {
		relax(e, river, false)
	}

	NormalizeToSeaLevel(e, seaLevel)
	return ErosionResult{Elevation: e, Rain: rain, RiverFluid: river}
}

// relax moves half the surface difference of fluid to the lowest neighbor.
// When erode is set the source cell loses the same amount of terrain.
func relax(e, fluid *Field, erode bool) {
	w := e.W
	for y := 0; y < e.H; y++ {
		for x := 0; x < w; x++ {
			i := y*w + x
			surface := e.Data[i] + fluid.Data[i]

			low := -1
			lowSurface := surface
			for _, o := range Offsets8 {
				nx, ny, ok := e.Neighbor(x, y, o[0], o[1])
				if !ok {
					continue
				}
				j := ny*w + nx
				if s := e.Data[j] + fluid.Data[j]; s < lowSurface {
					lowSurface = s
					low = j
				}
			}
			if low < 0 {
				continue
			}

			move := math.Min((surface-lowSurface)/2, fluid.Data[i])
			fluid.Data[i] -= move
			fluid.Data[low] += move
			if erode {
				e.Data[i] -= move
			}
		}
	}
}

// TargetOceanRatio maps the sea-level knob to the fraction of cells that
// should end up below sea level.
func TargetOceanRatio(seaLevel float64) float64 {
	s := clamp01(seaLevel)
	return clamp(0.15+0.9*s-0.25*s*s, 0.05, 0.95)
}

// NormalizeToSeaLevel remaps elevation by rank: the 2% tails are clipped and
// the value at the target ocean rank is pinned to seaLevel, so the requested
// ocean coverage holds regardless of the prior distribution.
func NormalizeToSeaLevel(e *Field, seaLevel float64) {
	n := len(e.Data)
	if n == 0 {
		return
	}
	seaLevel = clamp(sanitize(seaLevel, 0.5), 0.01, 0.99)

	sorted := make([]float64, n)
	copy(sorted, e.Data)
	sort.Float64s(sorted)

	lo := sorted[int(float64(n-1)*tailClip)]
	hi := sorted[int(float64(n-1)*(1-tailClip))]
	rank := int(TargetOceanRatio(seaLevel) * float64(n))
	if rank >= n {
		rank = n - 1
	}
	pivot := sorted[rank]

	for i, v := range e.Data {
		var out float64
		switch {
		case v < pivot:
			out = seaLevel * sanitize((v-lo)/(pivot-lo), 0)
			out = math.Min(out, math.Nextafter(seaLevel, 0))
		case v > pivot:
			out = seaLevel + (1-seaLevel)*sanitize((v-pivot)/(hi-pivot), 1)
		default:
			out = seaLevel
		}
		e.Data[i] = clamp01(out)
	}
}
