package world

import (
	"math"

	opensimplex "github.com/ojrac/opensimplex-go"
)

// Noise is a normalized opensimplex source with fractal helpers.
// All samplers return values in roughly [0, 1].
type Noise struct {
	src opensimplex.Noise
}

// NewNoise creates a noise source for the given seed.
func NewNoise(seed int64) Noise {
	return Noise{src: opensimplex.NewNormalized(seed)}
}

// Octave2 layers octaves of planar noise.
func (n Noise) Octave2(x, y float64, octaves int, frequency, persistence float64) float64 {
	total := 0.0
	amplitude := 1.0
	maxVal := 0.0

	for i := 0; i < octaves; i++ {
		total += n.src.Eval2(x*frequency, y*frequency) * amplitude
		maxVal += amplitude
		amplitude *= persistence
		frequency *= 2
	}

	return total / maxVal
}

// Cylinder samples fractal noise that tiles seamlessly across the X wrap.
// X is mapped onto a circle of circumference w; Y runs along the cylinder axis.
func (n Noise) Cylinder(x, y float64, w int, octaves int, frequency, persistence float64) float64 {
	angle := 2 * math.Pi * x / float64(w)
	radius := float64(w) / (2 * math.Pi)
	cx := math.Cos(angle) * radius
	cz := math.Sin(angle) * radius

	total := 0.0
	amplitude := 1.0
	maxVal := 0.0

	for i := 0; i < octaves; i++ {
		total += n.src.Eval3(cx*frequency, y*frequency, cz*frequency) * amplitude
		maxVal += amplitude
		amplitude *= persistence
		frequency *= 2
	}

	return total / maxVal
}
