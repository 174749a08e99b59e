package world

import (
	"fmt"
	"strings"
)

// TuningProfile bundles the biome thresholds. Profiles are plain values and
// are passed explicitly to each stage that needs them.
type TuningProfile struct {
	Name string `yaml:"name" json:"name"`

	DeepOceanFraction float64 `yaml:"deep_ocean_fraction" json:"deep_ocean_fraction"` // Ocean below seaLevel × fraction
	PolarTemp         float64 `yaml:"polar_temp" json:"polar_temp"`                   // Ice below this temperature
	CoastBand         float64 `yaml:"coast_band" json:"coast_band"`                   // Beach height band above sea level
	MountainFloor     float64 `yaml:"mountain_floor" json:"mountain_floor"`           // Relative height that is always mountain
	RidgeFloor        float64 `yaml:"ridge_floor" json:"ridge_floor"`                 // Relative height where ridges may start
	RidgeRelief       float64 `yaml:"ridge_relief" json:"ridge_relief"`               // Local relief that marks a ridge
	SnowTemp          float64 `yaml:"snow_temp" json:"snow_temp"`                     // Mountains colder than this are peaks
	RiverThreshold    float64 `yaml:"river_threshold" json:"river_threshold"`         // River intensity that overrides land biomes

	ColdBand float64 `yaml:"cold_band" json:"cold_band"` // Temperature upper bound of the cold band
	HotBand  float64 `yaml:"hot_band" json:"hot_band"`   // Temperature lower bound of the hot band

	ColdMoisture      [5]float64 `yaml:"cold_moisture" json:"cold_moisture"`
	TemperateMoisture [6]float64 `yaml:"temperate_moisture" json:"temperate_moisture"`
	HotMoisture       [6]float64 `yaml:"hot_moisture" json:"hot_moisture"`
}

// tuningLegacy reproduces the original, wetter and colder look.
var tuningLegacy = TuningProfile{
	Name:              "Legacy",
	DeepOceanFraction: 0.7,
	PolarTemp:         0.12,
	CoastBand:         0.015,
	MountainFloor:     0.62,
	RidgeFloor:        0.38,
	RidgeRelief:       0.06,
	SnowTemp:          0.3,
	RiverThreshold:    0.5,
	ColdBand:          0.33,
	HotBand:           0.66,
	ColdMoisture:      [5]float64{0.1, 0.25, 0.45, 0.65, 0.85},
	TemperateMoisture: [6]float64{0.1, 0.22, 0.38, 0.55, 0.72, 0.88},
	HotMoisture:       [6]float64{0.12, 0.25, 0.4, 0.55, 0.72, 0.9},
}

// tuningBalanced spreads biomes more evenly across the temperature bands.
var tuningBalanced = TuningProfile{
	Name:              "Balanced",
	DeepOceanFraction: 0.6,
	PolarTemp:         0.08,
	CoastBand:         0.02,
	MountainFloor:     0.68,
	RidgeFloor:        0.42,
	RidgeRelief:       0.05,
	SnowTemp:          0.25,
	RiverThreshold:    0.4,
	ColdBand:          0.3,
	HotBand:           0.62,
	ColdMoisture:      [5]float64{0.12, 0.28, 0.48, 0.66, 0.84},
	TemperateMoisture: [6]float64{0.12, 0.25, 0.4, 0.56, 0.7, 0.85},
	HotMoisture:       [6]float64{0.15, 0.28, 0.42, 0.58, 0.74, 0.9},
}

// TuningByName returns a copy of a built-in profile, ignoring case.
func TuningByName(name string) (TuningProfile, error) {
	switch strings.ToLower(name) {
	case "legacy":
		return tuningLegacy, nil
	case "balanced", "":
		return tuningBalanced, nil
	default:
		return TuningProfile{}, fmt.Errorf("unknown tuning profile %q", name)
	}
}
