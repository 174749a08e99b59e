// Temperature: latitude envelope plus cylinder noise minus altitude lapse.
package world

import "math"

// Lapse-rate bands, as relative height above sea level and their penalty.
var (
	lapseBands     = [6]float64{0.10, 0.25, 0.40, 0.55, 0.70, 0.85}
	lapsePenalties = [6]float64{0.02, 0.05, 0.09, 0.14, 0.20, 0.28}
)

// Temperature builds a normalized thermal field. heatFactor (0.01–1) widens
// the equatorial hot band through its cube root.
func Temperature(elev *Field, seaLevel, heatFactor float64, seed int64) *Field {
	heatFactor = clamp(sanitize(heatFactor, 0.5), 0.01, 1)
	band := 0.15 + 0.55*math.Cbrt(heatFactor)
	noise := NewNoise(seed + 50)
	temp := NewField(elev.W, elev.H)

	ForEachRow(elev.H, func(y int) {
		lat := 0.0
		if elev.H > 1 {
			lat = math.Abs(float64(y)/float64(elev.H-1)-0.5) * 2
		}
		envelope := math.Exp(-(lat * lat) / (2 * band * band))

		for x := 0; x < elev.W; x++ {
			i := y*elev.W + x
			n := noise.Cylinder(float64(x), float64(y)*1.2, elev.W, 5, 0.02, 0.5)
			temp.Data[i] = envelope*0.75 + n*0.25 - lapsePenalty(elev.Data[i], seaLevel)
		}
	})

	temp.Normalize()
	return temp
}

// lapsePenalty returns the cooling for the highest band the cell reaches.
func lapsePenalty(e, seaLevel float64) float64 {
	if e <= seaLevel || seaLevel >= 1 {
		return 0
	}
	rel := (e - seaLevel) / (1 - seaLevel)
	penalty := 0.0
	for b, t := range lapseBands {
		if rel >= t {
			penalty = lapsePenalties[b]
		}
	}
	return penalty
}
