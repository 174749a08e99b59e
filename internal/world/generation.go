// World generation pipeline: plates → elevation → erosion → climate →
// rivers → biomes → cities. Each stage is a pure function of its inputs
// and the seed.
package world

import "fmt"

// Stage identifies a pipeline step.
type Stage uint8

const (
	StagePlates Stage = iota
	StageElevation
	StageErosion
	StageTemperature
	StageWind
	StageMoisture
	StageRivers
	StageBiomes
	StageCities
)

var stageNames = [...]string{
	"plates", "elevation", "erosion", "temperature", "wind",
	"moisture", "rivers", "biomes", "cities",
}

func (s Stage) String() string {
	if int(s) < len(stageNames) {
		return stageNames[s]
	}
	return fmt.Sprintf("stage(%d)", s)
}

// StageHook runs before each stage. Returning an error abandons the run.
type StageHook func(Stage) error

// World holds every grid the physical pipeline produces.
type World struct {
	Params      Params
	Plates      *PlateField
	Orogeny     *Field
	Elevation   *Field
	Rain        *Field
	RiverFluid  *Field
	Temperature *Field
	Wind        *WindField
	Moisture    *Field
	Rivers      *Field
	Biomes      *BiomeMap
	Rocks       *RockMap
	Ores        *OreMap
	Cities      []CityInfo
}

// Generate runs the full physical pipeline.
func Generate(p Params) *World {
	w, _ := GenerateWithHook(p, nil)
	return w
}

// GenerateWithHook runs the pipeline, calling hook at every stage boundary.
// Stages are never interrupted; a hook error discards the whole run.
func GenerateWithHook(p Params, hook StageHook) (*World, error) {
	p = p.Clamp()
	w := &World{Params: p}
	enter := func(s Stage) error {
		if hook == nil {
			return nil
		}
		if err := hook(s); err != nil {
			return fmt.Errorf("%s: %w", s, err)
		}
		return nil
	}

	if err := enter(StagePlates); err != nil {
		return nil, err
	}
	w.Plates = GeneratePlates(p.Width, p.Height, p.PlateCount, p.Seed, p.OceanicPlateRatio)

	if err := enter(StageElevation); err != nil {
		return nil, err
	}
	base := BaseElevation(w.Plates, p.SeaLevel, p.Seed)
	w.Orogeny = OrogenyMask(w.Plates, base, p.SeaLevel, p.Knobs.SubductionArcRatio, p.Seed)
	shaped := ApplyMorphology(base, w.Orogeny, p.Morphology, p.Knobs, p.SeaLevel, p.Seed)

	if err := enter(StageErosion); err != nil {
		return nil, err
	}
	eroded := Erode(shaped, p.ErosionIterations, p.SeaLevel)
	w.Elevation = eroded.Elevation
	w.Rain = eroded.Rain
	w.RiverFluid = eroded.RiverFluid

	if err := enter(StageTemperature); err != nil {
		return nil, err
	}
	w.Temperature = Temperature(w.Elevation, p.SeaLevel, p.HeatFactor, p.Seed)

	if err := enter(StageWind); err != nil {
		return nil, err
	}
	w.Wind = Wind(p.Width, p.Height, p.WindCells, p.Seed)

	if err := enter(StageMoisture); err != nil {
		return nil, err
	}
	w.Moisture = Moisture(w.Elevation, w.Temperature, w.Wind, p.SeaLevel, p.MoistureIterations, p.MoistureSmoothing, p.Seed)

	if err := enter(StageRivers); err != nil {
		return nil, err
	}
	w.Rivers = TraceRivers(w.Elevation, w.Moisture, w.RiverFluid, p.SeaLevel, p.Rivers, p.Seed)

	if err := enter(StageBiomes); err != nil {
		return nil, err
	}
	w.Biomes = Classify(w.Elevation, w.Temperature, w.Moisture, w.Rivers, p.SeaLevel, p.Tuning)
	w.Rocks, w.Ores = ClassifyGeology(w.Plates, w.Orogeny, w.Elevation, w.Biomes, p.SeaLevel, p.Seed)

	if err := enter(StageCities); err != nil {
		return nil, err
	}
	w.Cities = PlaceCities(w.Elevation, w.Moisture, w.Rivers, w.Biomes, p.SeaLevel, p.Seed)

	return w, nil
}

// Dims returns the grid size.
func (w *World) Dims() Dims {
	return Dims{W: w.Params.Width, H: w.Params.Height}
}

// IsLand reports whether cell i sits above sea level.
func (w *World) IsLand(i int) bool {
	return w.Elevation.Data[i] > w.Params.SeaLevel
}

// LandCells counts cells above sea level.
func (w *World) LandCells() int {
	n := 0
	for i := range w.Elevation.Data {
		if w.IsLand(i) {
			n++
		}
	}
	return n
}
