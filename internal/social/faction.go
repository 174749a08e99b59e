// Polities and their terrain archetypes.
package social

import (
	"github.com/talgya/worldforge/internal/world"
)

// Archetype is a polity's terrain specialization.
type Archetype uint8

const (
	ArchetypeGeneric Archetype = iota
	ArchetypeNaval
	ArchetypeRiver
	ArchetypeHighland
	ArchetypeNomadic

	archetypeCount
)

var archetypeNames = [archetypeCount]string{"Generic", "Naval", "River", "Highland", "Nomadic"}

func (a Archetype) String() string {
	if a < archetypeCount {
		return archetypeNames[a]
	}
	return "Unknown"
}

// terrainClass buckets a land cell for the adaptation table.
type terrainClass uint8

const (
	terrainLowland terrainClass = iota
	terrainCoast
	terrainRiver
	terrainHighland
	terrainArid

	terrainClassCount
)

// adaptation is the expansion multiplier for an archetype entering terrain.
var adaptation = [archetypeCount][terrainClassCount]float64{
	//                 lowland coast river highland arid
	ArchetypeGeneric:  {1.0, 0.9, 0.95, 0.6, 0.6},
	ArchetypeNaval:    {0.85, 1.2, 0.9, 0.5, 0.5},
	ArchetypeRiver:    {0.95, 0.9, 1.25, 0.55, 0.5},
	ArchetypeHighland: {0.85, 0.7, 0.85, 1.2, 0.7},
	ArchetypeNomadic:  {1.0, 0.7, 0.8, 0.7, 1.2},
}

// expansionBias shifts a polity's base expansionism.
var expansionBias = [archetypeCount]float64{
	ArchetypeGeneric:  0,
	ArchetypeNaval:    0.05,
	ArchetypeRiver:    0,
	ArchetypeHighland: -0.1,
	ArchetypeNomadic:  0.2,
}

const (
	riverArchetypeFloor = 0.2  // River intensity that counts as river-adjacent
	highlandFloor       = 0.35 // Relative height above sea level
	aridCeiling         = 0.25 // Moisture below which land counts as arid
)

// PolitySeed is one simulated civilization. It lives only for the duration
// of a single SimulateCivilization call.
type PolitySeed struct {
	ID           int         `json:"id"`
	Name         string      `json:"name"`
	X            int         `json:"x"`
	Y            int         `json:"y"`
	Strength     float64     `json:"strength"`
	Expansionism float64     `json:"expansionism"`
	Biome        world.Biome `json:"biome"`
	Archetype    Archetype   `json:"archetype"`
	City         int         `json:"city"`      // Index into World.Cities, −1 for fallback seeds
	Territory    int         `json:"territory"` // Cells held after the last turn
}

// classifyArchetype picks the archetype for a seed at (x, y).
func classifyArchetype(w *world.World, x, y int) Archetype {
	switch terrainAt(w, x, y) {
	case terrainCoast:
		return ArchetypeNaval
	case terrainRiver:
		return ArchetypeRiver
	case terrainHighland:
		return ArchetypeHighland
	case terrainArid:
		return ArchetypeNomadic
	default:
		return ArchetypeGeneric
	}
}

// terrainAt classifies a land cell. Coast wins over river, river over
// highland, highland over arid.
func terrainAt(w *world.World, x, y int) terrainClass {
	d := w.Dims()
	i := y*d.W + x
	sl := w.Params.SeaLevel
	river := w.Rivers.Data[i] >= riverArchetypeFloor
	for _, o := range world.Offsets8 {
		nx, ny, ok := d.Neighbor(x, y, o[0], o[1])
		if !ok {
			continue
		}
		j := ny*d.W + nx
		if w.Elevation.Data[j] <= sl {
			return terrainCoast
		}
		if w.Rivers.Data[j] >= riverArchetypeFloor {
			river = true
		}
	}
	if river {
		return terrainRiver
	}
	rel := (w.Elevation.Data[i] - sl) / (1 - sl)
	if rel > highlandFloor || w.Biomes.Data[i] == world.BiomeMountain || w.Biomes.Data[i] == world.BiomeSnowyPeak {
		return terrainHighland
	}
	if w.Moisture.Data[i] < aridCeiling {
		return terrainArid
	}
	return terrainLowland
}
