// Elevation: plate-driven base field and the orogeny mask.
package world

import "math"

// Orogeny weights per boundary class.
const (
	orogenyConvergent = 1.0
	orogenyTransform  = 0.6
	orogenyDivergent  = 0.25
	orogenyCoastBoost = 1.3
	orogenyArcDamping = 0.15
	orogenyBlurRadius = 3
	orogenyBlurSigma  = 1.6
)

// BaseElevation derives the starting elevation from plate membership plus
// low-amplitude detail. Lower sea levels lift the whole field slightly.
func BaseElevation(pf *PlateField, seaLevel float64, seed int64) *Field {
	elev := NewField(pf.W, pf.H)
	detail := NewNoise(seed + 20)
	bias := (0.5 - clamp01(seaLevel)) * 0.1

	ForEachRow(pf.H, func(y int) {
		for x := 0; x < pf.W; x++ {
			i := y*pf.W + x
			site := pf.Sites[pf.IDs[i]]
			n := detail.Cylinder(float64(x), float64(y), pf.W, 4, 0.025, 0.5)
			elev.Data[i] = clamp01(site.BaseElevation*0.8 + n*0.2 + bias)
		}
	})
	return elev
}

// OrogenyMask weights plate edges for mountain building. Convergent edges
// weigh most, then transform, then divergent. Coastal edges are boosted and a
// seeded share of convergent cells (the subduction-arc ratio) is damped so
// ranges break up instead of forming closed rings. The result is blurred and
// scaled to a peak of 1.
func OrogenyMask(pf *PlateField, elev *Field, seaLevel, subductionArc float64, seed int64) *Field {
	sameDims(pf.Dims, elev.Dims)
	mask := NewField(pf.W, pf.H)
	subductionArc = clamp01(subductionArc)

	for _, i := range pf.BorderPoints {
		x, y := pf.XY(i)
		var wgt float64
		switch pf.Boundaries[i] {
		case BoundaryConvergent:
			wgt = orogenyConvergent
			if Hash01(seed+31, x, y, 0) < subductionArc*0.6 {
				wgt *= orogenyArcDamping
			}
		case BoundaryTransform:
			wgt = orogenyTransform
		case BoundaryDivergent:
			wgt = orogenyDivergent
		}

		above := elev.Data[i] > seaLevel
		for _, o := range Offsets4 {
			nx, ny, ok := pf.Neighbor(x, y, o[0], o[1])
			if ok && (elev.Data[ny*pf.W+nx] > seaLevel) != above {
				wgt *= orogenyCoastBoost
				break
			}
		}
		mask.Data[i] = wgt
	}

	blurred := GaussianBlur(mask, orogenyBlurRadius, orogenyBlurSigma)
	_, hi := blurred.MinMax()
	if hi > 0 {
		for i := range blurred.Data {
			blurred.Data[i] /= hi
		}
	}
	return blurred
}

// GaussianBlur applies a separable Gaussian kernel, wrapping in X and
// clamping in Y.
func GaussianBlur(f *Field, radius int, sigma float64) *Field {
	if radius <= 0 {
		return f.Clone()
	}
	kernel := make([]float64, 2*radius+1)
	sum := 0.0
	for k := -radius; k <= radius; k++ {
		v := math.Exp(-float64(k*k) / (2 * sigma * sigma))
		kernel[k+radius] = v
		sum += v
	}
	for k := range kernel {
		kernel[k] /= sum
	}

	tmp := NewField(f.W, f.H)
	ForEachRow(f.H, func(y int) {
		for x := 0; x < f.W; x++ {
			acc := 0.0
			for k := -radius; k <= radius; k++ {
				acc += f.Data[y*f.W+f.WrapX(x+k)] * kernel[k+radius]
			}
			tmp.Data[y*f.W+x] = acc
		}
	})

	out := NewField(f.W, f.H)
	ForEachRow(f.H, func(y int) {
		for x := 0; x < f.W; x++ {
			acc := 0.0
			for k := -radius; k <= radius; k++ {
				acc += tmp.Data[f.ClampY(y+k)*f.W+x] * kernel[k+radius]
			}
			out.Data[y*f.W+x] = acc
		}
	})
	return out
}
