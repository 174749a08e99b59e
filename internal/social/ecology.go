// Ecology: per-cell productivity and civilization potential.
package social

import (
	"math"

	"github.com/talgya/worldforge/internal/world"
)

// biomeProductivity is the base ecological yield per biome.
var biomeProductivity = [world.BiomeCount]float64{
	world.BiomeBeach:                  0.35,
	world.BiomeMountain:               0.15,
	world.BiomeSnowyPeak:              0.02,
	world.BiomeRiver:                  0.85,
	world.BiomeColdDesert:             0.08,
	world.BiomeTundra:                 0.18,
	world.BiomeSteppe:                 0.45,
	world.BiomeShrubland:              0.4,
	world.BiomeTaiga:                  0.5,
	world.BiomeBog:                    0.35,
	world.BiomeXericShrubland:         0.25,
	world.BiomeGrassland:              0.75,
	world.BiomeWoodland:               0.7,
	world.BiomeTemperateForest:        0.8,
	world.BiomeTemperateRainforest:    0.85,
	world.BiomeWetland:                0.65,
	world.BiomeHotDesert:              0.05,
	world.BiomeSavanna:                0.6,
	world.BiomeTropicalDryForest:      0.65,
	world.BiomeTropicalSeasonalForest: 0.8,
	world.BiomeTropicalRainforest:     0.9,
	world.BiomeSwamp:                  0.55,
}

// Suitability curve centers and widths.
const (
	idealTemp      = 0.6
	tempWidth      = 0.25
	idealMoisture  = 0.55
	moistureWidth  = 0.3
	riverSaturates = 0.6 // River intensity treated as full water access
	arcaneSeedSalt = 500
)

// EcologyResult holds the ecology grids and their land aggregates.
type EcologyResult struct {
	Health    *world.Field `json:"-"`
	Potential *world.Field `json:"-"`

	LandCells     int     `json:"land_cells"`
	MeanHealth    float64 `json:"mean_health"`
	MeanPotential float64 `json:"mean_potential"`
	PeakPotential float64 `json:"peak_potential"`
	Saturation    float64 `json:"saturation"`
}

// SimulateEcology computes ecology health and civilization potential for
// every land cell. Ocean cells stay zero. Both grids scale with the epoch
// saturation curve, so potential never shrinks as epochs advance.
func SimulateEcology(w *world.World, k Knobs) *EcologyResult {
	k = k.Clamp()
	d := w.Dims()
	sl := w.Params.SeaLevel
	sat := Saturation(k)
	agg, magic := k.agg(), k.magic()
	arcane := world.NewNoise(w.Params.Seed + arcaneSeedSalt)

	res := &EcologyResult{
		Health:     world.NewField(d.W, d.H),
		Potential:  world.NewField(d.W, d.H),
		Saturation: sat,
	}

	world.ForEachRow(d.H, func(y int) {
		for x := 0; x < d.W; x++ {
			i := y*d.W + x
			e := w.Elevation.Data[i]
			if e <= sl {
				continue
			}
			t := w.Temperature.Data[i]
			m := w.Moisture.Data[i]
			tempSuit := bell(t, idealTemp, tempWidth)
			water := waterAccess(w, x, y)

			health := biomeProductivity[w.Biomes.Data[i]]*0.45 +
				tempSuit*0.2 +
				bell(m, idealMoisture, moistureWidth)*0.2 +
				water*0.15

			rel := (e - sl) / (1 - sl)
			stability := clamp01(1 - w.Elevation.Relief(x, y)*8 - math.Max(0, rel-0.5))
			pot := health*0.4 + water*0.25 + stability*0.2 + tempSuit*0.15
			pot *= 1 - 0.25*agg
			pot *= 0.85 + 0.3*magic*arcane.Cylinder(float64(x), float64(y), d.W, 3, 0.04, 0.5)

			res.Health.Data[i] = clamp01(health) * sat
			res.Potential.Data[i] = clamp01(pot) * sat
		}
	})

	var sumH, sumP float64
	for i, e := range w.Elevation.Data {
		if e <= sl {
			continue
		}
		res.LandCells++
		sumH += res.Health.Data[i]
		sumP += res.Potential.Data[i]
		if res.Potential.Data[i] > res.PeakPotential {
			res.PeakPotential = res.Potential.Data[i]
		}
	}
	if res.LandCells > 0 {
		res.MeanHealth = sumH / float64(res.LandCells)
		res.MeanPotential = sumP / float64(res.LandCells)
	}
	return res
}

// waterAccess scores river and coast proximity in [0, 1].
func waterAccess(w *world.World, x, y int) float64 {
	d := w.Dims()
	i := y*d.W + x
	best := math.Min(1, w.Rivers.Data[i]/riverSaturates)
	for _, o := range world.Offsets8 {
		nx, ny, ok := d.Neighbor(x, y, o[0], o[1])
		if !ok {
			continue
		}
		j := ny*d.W + nx
		if w.Elevation.Data[j] <= w.Params.SeaLevel {
			best = math.Max(best, 0.7)
			continue
		}
		best = math.Max(best, 0.8*math.Min(1, w.Rivers.Data[j]/riverSaturates))
	}
	return best
}
