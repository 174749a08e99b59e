// Biome classification: a fixed-precedence decision table over elevation,
// temperature, moisture, and river intensity.
package world

// Biome is a categorical land or sea cover.
type Biome uint8

const (
	BiomeOcean Biome = iota
	BiomeShallowOcean
	BiomeIce
	BiomeBeach
	BiomeMountain
	BiomeSnowyPeak
	BiomeRiver
	BiomeColdDesert
	BiomeTundra
	BiomeSteppe
	BiomeShrubland
	BiomeTaiga
	BiomeBog
	BiomeXericShrubland
	BiomeGrassland
	BiomeWoodland
	BiomeTemperateForest
	BiomeTemperateRainforest
	BiomeWetland
	BiomeHotDesert
	BiomeSavanna
	BiomeTropicalDryForest
	BiomeTropicalSeasonalForest
	BiomeTropicalRainforest
	BiomeSwamp

	BiomeCount
)

var biomeNames = [BiomeCount]string{
	"Ocean", "ShallowOcean", "Ice", "Beach", "Mountain", "SnowyPeak", "River",
	"ColdDesert", "Tundra", "Steppe", "Shrubland", "Taiga", "Bog",
	"XericShrubland", "Grassland", "Woodland", "TemperateForest",
	"TemperateRainforest", "Wetland", "HotDesert", "Savanna",
	"TropicalDryForest", "TropicalSeasonalForest", "TropicalRainforest", "Swamp",
}

// String returns the biome name.
func (b Biome) String() string {
	if b < BiomeCount {
		return biomeNames[b]
	}
	return "Unknown"
}

// IsWater reports whether the biome is open ocean.
func (b Biome) IsWater() bool {
	return b == BiomeOcean || b == BiomeShallowOcean
}

// Moisture columns per temperature band, driest first. Each band has one
// more class than it has thresholds.
var (
	coldBiomes      = [6]Biome{BiomeColdDesert, BiomeTundra, BiomeSteppe, BiomeShrubland, BiomeTaiga, BiomeBog}
	temperateBiomes = [7]Biome{BiomeXericShrubland, BiomeSteppe, BiomeGrassland, BiomeWoodland, BiomeTemperateForest, BiomeTemperateRainforest, BiomeWetland}
	hotBiomes       = [7]Biome{BiomeHotDesert, BiomeXericShrubland, BiomeSavanna, BiomeTropicalDryForest, BiomeTropicalSeasonalForest, BiomeTropicalRainforest, BiomeSwamp}
)

// BiomeMap is the per-cell biome grid.
type BiomeMap struct {
	Dims
	Data []Biome `json:"data"`
}

// At returns the biome at (x, y).
func (bm *BiomeMap) At(x, y int) Biome {
	return bm.Data[bm.Index(x, y)]
}

// Counts tallies cells per biome.
func (bm *BiomeMap) Counts() map[Biome]int {
	counts := make(map[Biome]int)
	for _, b := range bm.Data {
		counts[b]++
	}
	return counts
}

// Classify assigns a biome to every cell using the profile thresholds.
// Precedence: deep ocean, polar ice, shallow ocean, coast, mountain, river,
// then the temperature × moisture table.
func Classify(elev, temp, moist, rivers *Field, seaLevel float64, tp TuningProfile) *BiomeMap {
	sameDims(elev.Dims, temp.Dims)
	sameDims(elev.Dims, moist.Dims)
	sameDims(elev.Dims, rivers.Dims)

	bm := &BiomeMap{Dims: elev.Dims, Data: make([]Biome, elev.Cells())}
	ForEachRow(elev.H, func(y int) {
		for x := 0; x < elev.W; x++ {
			bm.Data[y*elev.W+x] = classifyCell(elev, temp, moist, rivers, x, y, seaLevel, tp)
		}
	})
	return bm
}

func classifyCell(elev, temp, moist, rivers *Field, x, y int, seaLevel float64, tp TuningProfile) Biome {
	i := y*elev.W + x
	e, t, m := elev.Data[i], temp.Data[i], moist.Data[i]

	if e < seaLevel*tp.DeepOceanFraction {
		return BiomeOcean
	}
	if t < tp.PolarTemp {
		return BiomeIce
	}
	if e <= seaLevel {
		return BiomeShallowOcean
	}

	if e < seaLevel+tp.CoastBand && touchesSea(elev, x, y, seaLevel) {
		return BiomeBeach
	}

	rel := (e - seaLevel) / (1 - seaLevel)
	ridge := rel >= tp.RidgeFloor && elev.Relief(x, y)*(0.5+rel) >= tp.RidgeRelief
	if rel >= tp.MountainFloor || ridge {
		if t < tp.SnowTemp {
			return BiomeSnowyPeak
		}
		return BiomeMountain
	}

	if rivers.Data[i] >= tp.RiverThreshold {
		return BiomeRiver
	}

	switch {
	case t < tp.ColdBand:
		return coldBiomes[moistureClass(m, tp.ColdMoisture[:])]
	case t < tp.HotBand:
		return temperateBiomes[moistureClass(m, tp.TemperateMoisture[:])]
	default:
		return hotBiomes[moistureClass(m, tp.HotMoisture[:])]
	}
}

// moistureClass returns how many thresholds m meets or exceeds.
func moistureClass(m float64, thresholds []float64) int {
	n := 0
	for _, th := range thresholds {
		if m >= th {
			n++
		}
	}
	return n
}

func touchesSea(elev *Field, x, y int, seaLevel float64) bool {
	for _, o := range Offsets8 {
		nx, ny, ok := elev.Neighbor(x, y, o[0], o[1])
		if ok && elev.Data[ny*elev.W+nx] <= seaLevel {
			return true
		}
	}
	return false
}
