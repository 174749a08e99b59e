// Terrain morphology: reshapes the base elevation toward a named macro shape.
package world

import (
	"fmt"
	"math"
	"math/rand"
	"strings"
)

// Morphology selects the macro shape of the landmass.
type Morphology uint8

const (
	MorphBalanced         Morphology = iota // No reshaping beyond orogeny
	MorphSupercontinent                     // One dominant landmass
	MorphContinents                         // 2–4 named continental lobes
	MorphArchipelago                        // Many small islands
	MorphFracturedIslands                   // Medium islands with ragged coasts
	MorphShallowFragments                   // Low fragments with capped uplift
	MorphColdContinent                      // Single landmass pushed poleward
	MorphHotWasteland                       // Broad equatorial landmass with flat interior
)

var morphologyNames = [...]string{
	"Balanced",
	"Supercontinent",
	"Continents",
	"Archipelago",
	"FracturedIslands",
	"ShallowFragments",
	"ColdContinent",
	"HotWasteland",
}

// String returns the morphology name.
func (m Morphology) String() string {
	if int(m) < len(morphologyNames) {
		return morphologyNames[m]
	}
	return "Unknown"
}

// ParseMorphology resolves a morphology by name, ignoring case.
func ParseMorphology(name string) (Morphology, error) {
	for i, n := range morphologyNames {
		if strings.EqualFold(n, name) {
			return Morphology(i), nil
		}
	}
	return MorphBalanced, fmt.Errorf("unknown terrain morphology %q", name)
}

// MorphologyKnobs tune the morphology pass. All ratios are in [0, 1].
type MorphologyKnobs struct {
	ContinentBias      float64 `yaml:"continent_bias" json:"continent_bias"`
	InteriorRelief     float64 `yaml:"interior_relief" json:"interior_relief"`
	OrogenyStrength    float64 `yaml:"orogeny_strength" json:"orogeny_strength"`
	SubductionArcRatio float64 `yaml:"subduction_arc_ratio" json:"subduction_arc_ratio"`
	ContinentalAge     float64 `yaml:"continental_age" json:"continental_age"` // Older is smoother
	ContinentCount     int     `yaml:"continent_count" json:"continent_count"`
}

// DefaultMorphologyKnobs returns mid-range knobs.
func DefaultMorphologyKnobs() MorphologyKnobs {
	return MorphologyKnobs{
		ContinentBias:      0.5,
		InteriorRelief:     0.5,
		OrogenyStrength:    0.5,
		SubductionArcRatio: 0.35,
		ContinentalAge:     0.5,
		ContinentCount:     3,
	}
}

// Clamp forces every knob into its valid range.
func (k MorphologyKnobs) Clamp() MorphologyKnobs {
	k.ContinentBias = quantize(clamp01(k.ContinentBias))
	k.InteriorRelief = quantize(clamp01(k.InteriorRelief))
	k.OrogenyStrength = quantize(clamp01(k.OrogenyStrength))
	k.SubductionArcRatio = quantize(clamp01(k.SubductionArcRatio))
	k.ContinentalAge = quantize(clamp01(k.ContinentalAge))
	if k.ContinentCount < 2 {
		k.ContinentCount = 2
	}
	if k.ContinentCount > 4 {
		k.ContinentCount = 4
	}
	return k
}

// lobe is a shape center in grid fractions with a radius in fractions of height.
type lobe struct {
	x, y, r float64
}

func morphologyLobes(m Morphology, count int, rng *rand.Rand) []lobe {
	scatter := func(n int, rMin, rSpan float64) []lobe {
		out := make([]lobe, n)
		for i := range out {
			out[i] = lobe{
				x: rng.Float64(),
				y: 0.15 + rng.Float64()*0.7,
				r: rMin + rng.Float64()*rSpan,
			}
		}
		return out
	}

	switch m {
	case MorphSupercontinent:
		return []lobe{{x: rng.Float64(), y: 0.5, r: 0.58}}
	case MorphContinents:
		out := make([]lobe, count)
		offset := rng.Float64()
		for i := range out {
			out[i] = lobe{
				x: math.Mod(offset+(float64(i)+0.5)/float64(count)+(rng.Float64()-0.5)*0.08, 1),
				y: 0.5 + (rng.Float64()-0.5)*0.3,
				r: 0.62 / math.Sqrt(float64(count)),
			}
		}
		return out
	case MorphArchipelago:
		return scatter(14, 0.10, 0.10)
	case MorphFracturedIslands:
		return scatter(7, 0.18, 0.12)
	case MorphShallowFragments:
		return scatter(9, 0.15, 0.10)
	case MorphColdContinent:
		y := 0.2
		if rng.Float64() < 0.5 {
			y = 0.8
		}
		return []lobe{{x: rng.Float64(), y: y, r: 0.5}}
	case MorphHotWasteland:
		return []lobe{{x: rng.Float64(), y: 0.5, r: 0.62}}
	default:
		return nil
	}
}

// ApplyMorphology reshapes elev toward the selected macro shape and layers
// orogeny uplift on top. The input field is not modified.
func ApplyMorphology(elev *Field, orogeny *Field, m Morphology, k MorphologyKnobs, seaLevel float64, seed int64) *Field {
	sameDims(elev.Dims, orogeny.Dims)
	k = k.Clamp()
	rng := rand.New(rand.NewSource(seed + 40))
	lobes := morphologyLobes(m, k.ContinentCount, rng)

	coastNoise := NewNoise(seed + 41)
	reliefNoise := NewNoise(seed + 42)

	perturb := 0.5
	if m == MorphFracturedIslands {
		perturb = 0.9
	}
	edgeWidth := lerp(0.22, 0.7, k.ContinentalAge)
	strength := 0.45 * (0.6 + 0.8*k.ContinentBias)
	relief := k.InteriorRelief * 0.35 * (1 - 0.5*k.ContinentalAge)
	if m == MorphHotWasteland {
		relief *= 0.4
	}
	uplift := k.OrogenyStrength * 0.3 * (1 - 0.4*k.ContinentalAge)
	shelf := seaLevel + 0.08

	out := NewField(elev.W, elev.H)
	w, h := float64(elev.W), float64(elev.H)

	ForEachRow(elev.H, func(y int) {
		for x := 0; x < elev.W; x++ {
			i := y*elev.W + x
			e := elev.Data[i]
			fx, fy := float64(x), float64(y)

			f := 0.5
			if len(lobes) > 0 {
				d := math.Inf(1)
				for _, l := range lobes {
					ld := elev.Dist(fx, fy, l.x*w, l.y*h) / (l.r * h)
					if ld < d {
						d = ld
					}
				}
				d += (coastNoise.Cylinder(fx, fy, elev.W, 4, 0.03, 0.5) - 0.5) * perturb
				f = 1 - smoothstep(1-edgeWidth, 1+edgeWidth*0.5, d)
				e += (f - 0.5) * strength
			}

			e += f * relief * (reliefNoise.Cylinder(fx, fy, elev.W, 5, 0.06, 0.5) - 0.5)

			if m == MorphShallowFragments && e > shelf {
				e = shelf + (e-shelf)*0.3
			}

			om := orogeny.Data[i]
			e += om * uplift
			if f > 0.7 && om < 0.2 && e > 0.78 {
				e -= (e - 0.78) * 0.6 * (1 - om)
			}

			out.Data[i] = clamp01(e)
		}
	})
	return out
}
