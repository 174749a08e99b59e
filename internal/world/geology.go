// Rock and ore grids derived from plates, elevation, and biome.
package world

// Rock is the dominant surface rock of a cell.
type Rock uint8

const (
	RockBasalt Rock = iota // Ocean floor
	RockGranite
	RockSedimentary
	RockMetamorphic
	RockVolcanic
	RockLimestone

	RockCount
)

var rockNames = [RockCount]string{"Basalt", "Granite", "Sedimentary", "Metamorphic", "Volcanic", "Limestone"}

func (r Rock) String() string {
	if r < RockCount {
		return rockNames[r]
	}
	return "Unknown"
}

// Ore is a mineable deposit.
type Ore uint8

const (
	OreNone Ore = iota
	OreIron
	OreCopper
	OreGold
	OreGems
	OreCoal
	OreSalt

	OreCount
)

var oreNames = [OreCount]string{"None", "Iron", "Copper", "Gold", "Gems", "Coal", "Salt"}

func (o Ore) String() string {
	if o < OreCount {
		return oreNames[o]
	}
	return "Unknown"
}

// RockMap is the per-cell rock grid.
type RockMap struct {
	Dims
	Data []Rock `json:"data"`
}

// OreMap is the per-cell ore grid.
type OreMap struct {
	Dims
	Data []Ore `json:"data"`
}

type oreChance struct {
	ore    Ore
	chance float64
}

// oreTable lists per-rock deposit chances; one roll walks them in order.
var oreTable = [RockCount][]oreChance{
	RockBasalt:      nil,
	RockGranite:     {{OreCopper, 0.12}, {OreIron, 0.10}},
	RockSedimentary: {{OreCoal, 0.08}, {OreIron, 0.05}},
	RockMetamorphic: {{OreGold, 0.04}, {OreGems, 0.08}, {OreIron, 0.25}},
	RockVolcanic:    {{OreGems, 0.06}, {OreCopper, 0.10}},
	RockLimestone:   {{OreSalt, 0.15}},
}

// ClassifyGeology derives rock and ore grids. Orogenic belts become
// metamorphic, land on oceanic plates volcanic, highlands granite, and arid
// basins limestone; ore is rolled per cell from a stable hash.
func ClassifyGeology(pf *PlateField, orogeny, elev *Field, biomes *BiomeMap, seaLevel float64, seed int64) (*RockMap, *OreMap) {
	sameDims(pf.Dims, elev.Dims)
	sameDims(pf.Dims, orogeny.Dims)
	sameDims(pf.Dims, biomes.Dims)

	rocks := &RockMap{Dims: pf.Dims, Data: make([]Rock, pf.Cells())}
	ores := &OreMap{Dims: pf.Dims, Data: make([]Ore, pf.Cells())}

	ForEachRow(pf.H, func(y int) {
		for x := 0; x < pf.W; x++ {
			i := y*pf.W + x
			r := rockAt(pf, orogeny, elev, biomes, i, seaLevel)
			rocks.Data[i] = r

			roll := Hash01(seed+95, x, y, 0)
			for _, oc := range oreTable[r] {
				chance := oc.chance
				if oc.ore == OreCoal && forested(biomes.Data[i]) {
					chance *= 2.2
				}
				if roll < chance {
					ores.Data[i] = oc.ore
					break
				}
				roll -= chance
			}
		}
	})
	return rocks, ores
}

func rockAt(pf *PlateField, orogeny, elev *Field, biomes *BiomeMap, i int, seaLevel float64) Rock {
	e := elev.Data[i]
	if e <= seaLevel {
		return RockBasalt
	}
	if orogeny.Data[i] > 0.5 {
		return RockMetamorphic
	}
	rel := (e - seaLevel) / (1 - seaLevel)
	if pf.Sites[pf.IDs[i]].Oceanic && rel < 0.25 {
		return RockVolcanic
	}
	if rel > 0.45 {
		return RockGranite
	}
	switch biomes.Data[i] {
	case BiomeHotDesert, BiomeXericShrubland, BiomeSavanna, BiomeColdDesert:
		return RockLimestone
	default:
		return RockSedimentary
	}
}

func forested(b Biome) bool {
	switch b {
	case BiomeTaiga, BiomeBog, BiomeTemperateForest, BiomeTemperateRainforest,
		BiomeWetland, BiomeTropicalSeasonalForest, BiomeTropicalRainforest, BiomeSwamp:
		return true
	}
	return false
}
