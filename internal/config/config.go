// Package config loads the generator configuration from YAML.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/talgya/worldforge/internal/social"
	"github.com/talgya/worldforge/internal/world"
)

// Config is the full on-disk configuration.
type Config struct {
	LogLevel string       `yaml:"log_level"`
	LogFile  LogFileSpec  `yaml:"log_file"`
	World    WorldSpec    `yaml:"world"`
	Society  social.Knobs `yaml:"society"`
	Archive  ArchiveSpec  `yaml:"archive"`
	Narrate  NarrateSpec  `yaml:"narrate"`
}

// WorldSpec mirrors world.Params with names instead of enum values.
type WorldSpec struct {
	Width              int                   `yaml:"width"`
	Height             int                   `yaml:"height"`
	Seed               int64                 `yaml:"seed"`
	PlateCount         int                   `yaml:"plate_count"`
	OceanicPlateRatio  float64               `yaml:"oceanic_plate_ratio"`
	WindCells          int                   `yaml:"wind_cells"`
	SeaLevel           float64               `yaml:"sea_level"`
	HeatFactor         float64               `yaml:"heat_factor"`
	MoistureIterations int                   `yaml:"moisture_iterations"`
	MoistureSmoothing  int                   `yaml:"moisture_smoothing"`
	ErosionIterations  int                   `yaml:"erosion_iterations"`
	Rivers             world.RiverParams     `yaml:"rivers"`
	Morphology         string                `yaml:"morphology"`
	Knobs              world.MorphologyKnobs `yaml:"knobs"`
	Tuning             string                `yaml:"tuning"`
}

// ArchiveSpec configures the sqlite archive.
type ArchiveSpec struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path"`
}

// NarrateSpec configures the chronicle writer.
type NarrateSpec struct {
	Enabled   bool   `yaml:"enabled"`
	Model     string `yaml:"model"`
	MaxTokens int    `yaml:"max_tokens"`
}

// Default returns the built-in configuration.
func Default() Config {
	p := world.DefaultParams()
	return Config{
		LogLevel: "info",
		World: WorldSpec{
			Width:              p.Width,
			Height:             p.Height,
			Seed:               p.Seed,
			PlateCount:         p.PlateCount,
			OceanicPlateRatio:  p.OceanicPlateRatio,
			WindCells:          p.WindCells,
			SeaLevel:           p.SeaLevel,
			HeatFactor:         p.HeatFactor,
			MoistureIterations: p.MoistureIterations,
			MoistureSmoothing:  p.MoistureSmoothing,
			ErosionIterations:  p.ErosionIterations,
			Rivers:             p.Rivers,
			Morphology:         p.Morphology.String(),
			Knobs:              p.Knobs,
			Tuning:             p.Tuning.Name,
		},
		Society: social.DefaultKnobs(),
		Archive: ArchiveSpec{Path: "worlds.db"},
		Narrate: NarrateSpec{Model: "claude-haiku-4-5-20251001", MaxTokens: 400},
	}
}

// Load reads path over the defaults. An empty path returns the defaults.
func Load(path string) (Config, error) {
	cfg := Default()
	if strings.TrimSpace(path) == "" {
		return cfg, cfg.Validate()
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config: %w", err)
	}
	return Parse(b)
}

// Parse decodes YAML bytes over the defaults and validates the result.
func Parse(b []byte) (Config, error) {
	cfg := Default()
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return cfg, fmt.Errorf("config yaml: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("config yaml: %w", err)
	}
	return cfg, nil
}

// Validate checks the named values that cannot be clamped.
func (c Config) Validate() error {
	if _, err := world.ParseMorphology(c.World.Morphology); err != nil {
		return err
	}
	if _, err := world.TuningByName(c.World.Tuning); err != nil {
		return err
	}
	if _, err := c.Level(); err != nil {
		return err
	}
	return nil
}

// Params converts the world section into clamped generation parameters.
func (c Config) Params() (world.Params, error) {
	m, err := world.ParseMorphology(c.World.Morphology)
	if err != nil {
		return world.Params{}, err
	}
	tp, err := world.TuningByName(c.World.Tuning)
	if err != nil {
		return world.Params{}, err
	}
	s := c.World
	p := world.Params{
		Width:              s.Width,
		Height:             s.Height,
		Seed:               s.Seed,
		PlateCount:         s.PlateCount,
		OceanicPlateRatio:  s.OceanicPlateRatio,
		WindCells:          s.WindCells,
		SeaLevel:           s.SeaLevel,
		HeatFactor:         s.HeatFactor,
		MoistureIterations: s.MoistureIterations,
		MoistureSmoothing:  s.MoistureSmoothing,
		ErosionIterations:  s.ErosionIterations,
		Rivers:             s.Rivers,
		Morphology:         m,
		Knobs:              s.Knobs,
		Tuning:             tp,
	}
	return p.Clamp(), nil
}

// Level parses LogLevel.
func (c Config) Level() (slog.Level, error) {
	var l slog.Level
	if err := l.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return slog.LevelInfo, fmt.Errorf("log_level: %w", err)
	}
	return l, nil
}
