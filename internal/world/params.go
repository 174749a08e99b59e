package world

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// keyScale is the resolution of every float knob (three decimals). Clamp
// snaps to it so the cache key names exactly one world.
const keyScale = 1000

func quantize(v float64) float64 {
	return math.Round(v*keyScale) / keyScale
}

// Params is the full physical parameter set for one world.
type Params struct {
	Width              int             `json:"width"`
	Height             int             `json:"height"`
	Seed               int64           `json:"seed"`
	PlateCount         int             `json:"plate_count"`
	OceanicPlateRatio  float64         `json:"oceanic_plate_ratio"`
	WindCells          int             `json:"wind_cells"`
	SeaLevel           float64         `json:"sea_level"`   // 0–1
	HeatFactor         float64         `json:"heat_factor"` // 0.01–1
	MoistureIterations int             `json:"moisture_iterations"`
	MoistureSmoothing  int             `json:"moisture_smoothing"` // Box filter radius
	ErosionIterations  int             `json:"erosion_iterations"` // 0–20
	Rivers             RiverParams     `json:"rivers"`
	Morphology         Morphology      `json:"morphology"`
	Knobs              MorphologyKnobs `json:"knobs"`
	Tuning             TuningProfile   `json:"tuning"`
}

// DefaultParams returns a reasonable starting configuration.
func DefaultParams() Params {
	return Params{
		Width:              256,
		Height:             128,
		Seed:               1337,
		PlateCount:         20,
		OceanicPlateRatio:  0.55,
		WindCells:          12,
		SeaLevel:           0.5,
		HeatFactor:         0.5,
		MoistureIterations: 2,
		MoistureSmoothing:  2,
		ErosionIterations:  8,
		Rivers:             DefaultRiverParams(),
		Morphology:         MorphBalanced,
		Knobs:              DefaultMorphologyKnobs(),
		Tuning:             tuningBalanced,
	}
}

// SmallTestParams returns a tiny world for rapid iteration.
func SmallTestParams() Params {
	p := DefaultParams()
	p.Width = 96
	p.Height = 48
	p.Seed = 42
	p.PlateCount = 8
	p.WindCells = 6
	p.ErosionIterations = 4
	p.MoistureIterations = 1
	return p
}

// Clamp forces every knob into its valid range, replaces non-finite values
// with defaults, snaps floats to the key resolution, and resets the tuning
// profile to the built-in one of the same name.
func (p Params) Clamp() Params {
	d := DefaultParams()
	if p.Width < 8 {
		p.Width = 8
	}
	if p.Height < 8 {
		p.Height = 8
	}
	if p.PlateCount < 1 {
		p.PlateCount = 1
	}
	if p.PlateCount > p.Width*p.Height {
		p.PlateCount = p.Width * p.Height
	}
	if p.WindCells < 0 {
		p.WindCells = 0
	}
	p.OceanicPlateRatio = quantize(clamp(sanitize(p.OceanicPlateRatio, d.OceanicPlateRatio), 0, 1))
	p.SeaLevel = quantize(clamp(sanitize(p.SeaLevel, d.SeaLevel), 0.01, 0.99))
	p.HeatFactor = quantize(clamp(sanitize(p.HeatFactor, d.HeatFactor), 0.01, 1))
	if p.MoistureIterations < 1 {
		p.MoistureIterations = 1
	}
	if p.MoistureIterations > 10 {
		p.MoistureIterations = 10
	}
	if p.MoistureSmoothing < 0 {
		p.MoistureSmoothing = 0
	}
	if p.MoistureSmoothing > maxSmoothRadius {
		p.MoistureSmoothing = maxSmoothRadius
	}
	if p.ErosionIterations < 0 {
		p.ErosionIterations = 0
	}
	if p.ErosionIterations > MaxErosionIterations {
		p.ErosionIterations = MaxErosionIterations
	}
	if p.Morphology >= Morphology(len(morphologyNames)) {
		p.Morphology = MorphBalanced
	}
	if tp, err := TuningByName(p.Tuning.Name); err == nil {
		p.Tuning = tp
	} else {
		p.Tuning = d.Tuning
	}
	p.Rivers = p.Rivers.Clamp()
	p.Knobs = p.Knobs.Clamp()
	return p
}

// CacheKey concatenates every tunable of the clamped parameters into a
// reproducibility key. Two parameter sets with the same key generate
// identical worlds.
func (p Params) CacheKey() string {
	p = p.Clamp()
	q := func(v float64) string {
		return strconv.FormatFloat(v, 'f', 3, 64)
	}
	b := func(v bool) string {
		if v {
			return "1"
		}
		return "0"
	}
	parts := []string{
		fmt.Sprintf("%dx%d", p.Width, p.Height),
		"s" + strconv.FormatInt(p.Seed, 10),
		"p" + strconv.Itoa(p.PlateCount),
		"op" + q(p.OceanicPlateRatio),
		"wc" + strconv.Itoa(p.WindCells),
		"sl" + q(p.SeaLevel),
		"hf" + q(p.HeatFactor),
		"mi" + strconv.Itoa(p.MoistureIterations),
		"ms" + strconv.Itoa(p.MoistureSmoothing),
		"ei" + strconv.Itoa(p.ErosionIterations),
		"rv" + b(p.Rivers.Enabled),
		"rd" + q(p.Rivers.Density),
		"re" + q(p.Rivers.MinElevation),
		"rm" + q(p.Rivers.MinMoisture),
		"rr" + q(p.Rivers.MinRelief),
		"tm" + p.Morphology.String(),
		"cb" + q(p.Knobs.ContinentBias),
		"ir" + q(p.Knobs.InteriorRelief),
		"os" + q(p.Knobs.OrogenyStrength),
		"sa" + q(p.Knobs.SubductionArcRatio),
		"ca" + q(p.Knobs.ContinentalAge),
		"cc" + strconv.Itoa(p.Knobs.ContinentCount),
		"tp" + p.Tuning.Name,
	}
	return strings.Join(parts, "_")
}
