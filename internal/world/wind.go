// Wind: a field of randomly placed vortex cells.
package world

import (
	"math"
	"math/rand"
)

// Vec2 is a 2D vector.
type Vec2 struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Len returns the vector magnitude.
func (v Vec2) Len() float64 {
	return math.Hypot(v.X, v.Y)
}

// WindField stores one wind vector per cell.
type WindField struct {
	Dims
	Data []Vec2 `json:"data"`
}

// At returns the wind vector at (x, y).
func (wf *WindField) At(x, y int) Vec2 {
	return wf.Data[wf.Index(x, y)]
}

type vortex struct {
	x, y      float64
	intensity float64
	reach     float64
	sense     float64 // +1 counter-clockwise, -1 clockwise
}

// Wind places cells vortices and averages their contributions. Cells that no
// vortex reaches get a small seeded jitter.
func Wind(w, h, cells int, seed int64) *WindField {
	if cells < 0 {
		cells = 0
	}
	rng := rand.New(rand.NewSource(seed + 60))
	vortices := make([]vortex, cells)
	for i := range vortices {
		sense := 1.0
		if rng.Float64() < 0.5 {
			sense = -1
		}
		vortices[i] = vortex{
			x:         rng.Float64() * float64(w),
			y:         rng.Float64() * float64(h),
			intensity: 0.3 + rng.Float64()*0.7,
			reach:     (0.1 + rng.Float64()*0.2) * float64(w),
			sense:     sense,
		}
	}

	wf := &WindField{Dims: Dims{W: w, H: h}, Data: make([]Vec2, w*h)}
	ForEachRow(h, func(y int) {
		for x := 0; x < w; x++ {
			fx, fy := float64(x), float64(y)
			var sum Vec2
			n := 0
			for _, v := range vortices {
				dx := wf.DeltaX(v.x, fx)
				dy := fy - v.y
				d := math.Hypot(dx, dy)
				if d >= v.reach || d == 0 {
					continue
				}
				// Tangential flow peaks midway through the ring.
				ring := math.Sin(math.Pi * d / v.reach)
				s := v.intensity * ring * v.sense / d
				sum.X += -dy * s
				sum.Y += dx * s
				n++
			}
			if n == 0 {
				sum = Vec2{
					X: (Hash01(seed+61, x, y, 0) - 0.5) * 0.1,
					Y: (Hash01(seed+61, x, y, 1) - 0.5) * 0.1,
				}
			} else {
				sum.X /= float64(n)
				sum.Y /= float64(n)
			}
			wf.Data[y*w+x] = sum
		}
	})
	return wf
}
