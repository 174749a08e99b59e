// Moisture: wind-driven advection of ocean evaporation onto land.
package world

import "math"

// Moisture tuning.
const (
	maxAdvectionSteps = 1000
	packetScale       = 0.35
	baseDeposit       = 0.02
	uphillDeposit     = 4.0
	downhillDeposit   = 1.0
	drizzle           = 0.05
	packetFloor       = 1e-4
	maxSmoothRadius   = 8
)

// Moisture advects a packet from every ocean cell along the wind. Packets
// deposit on land in proportion to the slope they climb or descend, with a
// lapse correction from elevation, temperature, and wind speed. Each of the
// iterations sweeps with the wind rotated slightly so passes differ. Land is
// then drizzled, box-smoothed, and scaled to [0, 1]; ocean cells are 0.
func Moisture(elev, temp *Field, wind *WindField, seaLevel float64, iterations, smoothRadius int, seed int64) *Field {
	sameDims(elev.Dims, temp.Dims)
	sameDims(elev.Dims, wind.Dims)
	if iterations < 1 {
		iterations = 1
	}

	w, h := elev.W, elev.H
	moist := NewField(w, h)

	for pass := 0; pass < iterations; pass++ {
		angle := 0.0
		if pass > 0 {
			angle = float64((pass+1)/2) * 0.35
			if pass%2 == 0 {
				angle = -angle
			}
		}
		cos, sin := math.Cos(angle), math.Sin(angle)

		for y := 0; y < h; y++ {
			for x := 0; x < w; x++ {
				i := y*w + x
				if elev.Data[i] > seaLevel {
					continue
				}
				advect(elev, temp, wind, moist, x, y, temp.Data[i]*packetScale/float64(iterations), cos, sin, seaLevel)
			}
		}
	}

	noise := NewNoise(seed + 70)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			i := y*w + x
			if elev.Data[i] > seaLevel {
				moist.Data[i] += drizzle * noise.Cylinder(float64(x), float64(y), w, 3, 0.05, 0.5)
			}
		}
	}

	out := smoothLand(moist, elev, seaLevel, smoothRadius)

	peak := 0.0
	for i, v := range out.Data {
		if elev.Data[i] <= seaLevel || v < 0 {
			out.Data[i] = 0
			continue
		}
		if v > peak {
			peak = v
		}
	}
	if peak > 0 {
		for i := range out.Data {
			out.Data[i] = clamp01(out.Data[i] / peak)
		}
	}
	return out
}

// advect pushes one packet along the rotated wind until it is spent, leaves
// the grid vertically, or hits the step bound.
func advect(elev, temp *Field, wind *WindField, moist *Field, x, y int, packet, cos, sin, seaLevel float64) {
	w := elev.W
	px, py := float64(x), float64(y)
	prev := y*w + x

	for step := 0; step < maxAdvectionSteps && packet > packetFloor; step++ {
		v := wind.Data[prev]
		speed := v.Len()
		dx, dy := 1.0, 0.0
		if speed > 1e-9 {
			dx, dy = v.X/speed, v.Y/speed
		}
		dx, dy = dx*cos-dy*sin, dx*sin+dy*cos

		px += dx
		py += dy
		cy := int(math.Round(py))
		if cy < 0 || cy >= elev.H {
			return
		}
		cx := elev.WrapX(int(math.Round(px)))
		next := cy*w + cx
		if next == prev {
			continue
		}

		e := elev.Data[next]
		if e > seaLevel {
			slope := e - elev.Data[prev]
			rate := baseDeposit
			if slope > 0 {
				rate += slope * uphillDeposit
			} else {
				rate -= slope * downhillDeposit
			}
			lapse := 0.1*e + 0.05*(1-temp.Data[next]) - 0.02*speed
			if lapse > 0 {
				rate += lapse
			}
			deposit := packet * clamp(rate, 0, 1)
			moist.Data[next] += deposit
			packet -= deposit
		}
		prev = next
	}
}

// smoothLand averages land cells over a (2r+1)² box, ignoring ocean cells.
func smoothLand(f, elev *Field, seaLevel float64, radius int) *Field {
	if radius <= 0 {
		return f.Clone()
	}
	if radius > maxSmoothRadius {
		radius = maxSmoothRadius
	}
	out := NewField(f.W, f.H)
	ForEachRow(f.H, func(y int) {
		for x := 0; x < f.W; x++ {
			i := y*f.W + x
			if elev.Data[i] <= seaLevel {
				continue
			}
			sum, n := 0.0, 0
			for dy := -radius; dy <= radius; dy++ {
				ny := y + dy
				if ny < 0 || ny >= f.H {
					continue
				}
				for dx := -radius; dx <= radius; dx++ {
					j := ny*f.W + f.WrapX(x+dx)
					if elev.Data[j] <= seaLevel {
						continue
					}
					sum += f.Data[j]
					n++
				}
			}
			out.Data[i] = sum / float64(n)
		}
	})
	return out
}
