// Settlement placement: scores land cells and picks spaced city sites.
package world

import (
	"math"
	"math/rand"
	"sort"
)

// PopulationTier categorizes city scale.
type PopulationTier uint8

const (
	TierSmall PopulationTier = iota
	TierMedium
	TierLarge
)

// String returns the tier name.
func (t PopulationTier) String() string {
	switch t {
	case TierLarge:
		return "Large"
	case TierMedium:
		return "Medium"
	default:
		return "Small"
	}
}

// CityInfo is one placed city.
type CityInfo struct {
	X     int            `json:"x"`
	Y     int            `json:"y"`
	Score float64        `json:"score"` // Desirability score
	Tier  PopulationTier `json:"tier"`
	Name  string         `json:"name"`
}

// biomeSuitability is the settlement bonus per biome.
var biomeSuitability = [BiomeCount]float64{
	BiomeBeach:                  0.6,
	BiomeMountain:               0.05,
	BiomeRiver:                  0.8,
	BiomeColdDesert:             0.05,
	BiomeTundra:                 0.1,
	BiomeSteppe:                 0.45,
	BiomeShrubland:              0.35,
	BiomeTaiga:                  0.3,
	BiomeBog:                    0.1,
	BiomeXericShrubland:         0.2,
	BiomeGrassland:              0.9,
	BiomeWoodland:               0.75,
	BiomeTemperateForest:        0.6,
	BiomeTemperateRainforest:    0.4,
	BiomeWetland:                0.25,
	BiomeHotDesert:              0.05,
	BiomeSavanna:                0.6,
	BiomeTropicalDryForest:      0.5,
	BiomeTropicalSeasonalForest: 0.45,
	BiomeTropicalRainforest:     0.3,
	BiomeSwamp:                  0.15,
}

// Placement tuning.
const (
	cityAreaPerSite   = 2500 // Cells of map area per potential city
	cityCountSkew     = 1.6  // Power applied to the count draw; favors fewer cities
	spacingRounds     = 6
	spacingRelaxation = 0.7
	elevationSoftCap  = 0.35 // Relative height above which scores drop
	riverNearby       = 0.05
)

// PlaceCities scores every land cell, draws a target count from the map
// area, and greedily selects sites with a minimum spacing that relaxes each
// round until the target is met or candidates run out.
func PlaceCities(elev, moist, rivers *Field, biomes *BiomeMap, seaLevel float64, seed int64) []CityInfo {
	sameDims(elev.Dims, moist.Dims)
	sameDims(elev.Dims, rivers.Dims)
	sameDims(elev.Dims, biomes.Dims)
	rng := rand.New(rand.NewSource(seed + 200))

	type scored struct {
		x, y  int
		score float64
	}
	var candidates []scored

	for y := 0; y < elev.H; y++ {
		for x := 0; x < elev.W; x++ {
			i := y*elev.W + x
			if elev.Data[i] <= seaLevel {
				continue
			}
			s := cityScore(elev, moist, rivers, biomes, x, y, seaLevel) * (0.85 + rng.Float64()*0.3)
			if s > 0 {
				candidates = append(candidates, scored{x, y, s})
			}
		}
	}
	if len(candidates) == 0 {
		return nil
	}

	// Sort by score descending; position breaks ties so order is stable.
	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].score != candidates[j].score {
			return candidates[i].score > candidates[j].score
		}
		return candidates[i].y*elev.W+candidates[i].x < candidates[j].y*elev.W+candidates[j].x
	})

	maxCount := elev.Cells() / cityAreaPerSite
	if maxCount < 2 {
		maxCount = 2
	}
	target := 2 + int(math.Pow(rng.Float64(), cityCountSkew)*float64(maxCount-1))
	if target > maxCount {
		target = maxCount
	}

	spacing := math.Sqrt(float64(elev.Cells())/float64(target)) * 0.6
	taken := make(map[int]bool)
	var cities []CityInfo

	for round := 0; round < spacingRounds && len(cities) < target; round++ {
		for _, c := range candidates {
			if len(cities) >= target {
				break
			}
			i := c.y*elev.W + c.x
			if taken[i] || tooClose(elev.Dims, c.x, c.y, cities, spacing) {
				continue
			}
			taken[i] = true
			cities = append(cities, CityInfo{X: c.x, Y: c.y, Score: c.score})
		}
		spacing *= spacingRelaxation
	}

	// Ranks follow selection order, which is already by score.
	best := cities[0].Score
	for rank := range cities {
		c := &cities[rank]
		p := 0.55*(1-float64(rank)/float64(len(cities))) + 0.45*c.Score/best
		r := rng.Float64()
		switch {
		case r < p*0.45:
			c.Tier = TierLarge
		case r < p*0.45+0.35:
			c.Tier = TierMedium
		default:
			c.Tier = TierSmall
		}
	}

	names := CityNames(seed, len(cities))
	for i := range cities {
		cities[i].Name = names[i]
	}
	return cities
}

// cityScore blends water, biome, and terrain into a desirability score.
func cityScore(elev, moist, rivers *Field, biomes *BiomeMap, x, y int, seaLevel float64) float64 {
	i := y*elev.W + x
	score := moist.Data[i] * 0.8
	score += biomeSuitability[biomes.Data[i]]

	riverCells := 0
	coastal := false
	for _, o := range Offsets8 {
		nx, ny, ok := elev.Neighbor(x, y, o[0], o[1])
		if !ok {
			continue
		}
		j := ny*elev.W + nx
		if rivers.Data[j] > riverNearby {
			riverCells++
		}
		if elev.Data[j] <= seaLevel {
			coastal = true
		}
	}
	if rivers.Data[i] > riverNearby || riverCells > 0 {
		score += 0.6
	}
	if riverCells >= 2 {
		score += 0.3 // Confluence
	}
	if coastal {
		score += 0.5
	}

	rel := (elev.Data[i] - seaLevel) / (1 - seaLevel)
	if rel > elevationSoftCap {
		score -= (rel - elevationSoftCap) * 2
	}
	return score
}

func tooClose(d Dims, x, y int, existing []CityInfo, minDist float64) bool {
	for _, c := range existing {
		if d.Dist(float64(x), float64(y), float64(c.X), float64(c.Y)) < minDist {
			return true
		}
	}
	return false
}

// CityNames produces count unique names from a prefix/middle/suffix grammar.
// It draws from its own seeded source so placement changes never rename cities.
func CityNames(seed int64, count int) []string {
	rng := rand.New(rand.NewSource(seed + 300))
	prefixes := []string{
		"Iron", "Green", "Ash", "Stone", "Mill", "Cross", "Black",
		"Silver", "Red", "White", "Dark", "Bright", "High", "Low",
		"Old", "New", "Far", "Deep", "Long", "Broad", "Gold", "Frost",
		"Storm", "Thorn", "Elm", "Oak", "Pine", "Copper", "Salt",
	}
	middles := []string{"", "", "", "en", "er", "a", "wyn", "mar", "bel", "or"}
	suffixes := []string{
		"haven", "ford", "hollow", "wick", "bridge", "gate", "keep",
		"stead", "wood", "field", "dale", "crest", "vale", "port",
		"town", "bury", "marsh", "well", "brook", "cliff", "moor",
		"ridge", "watch", "fall", "rest", "point", "reach", "helm",
	}

	used := make(map[string]bool)
	names := make([]string, 0, count)

	for attempts := 0; len(names) < count; attempts++ {
		name := prefixes[rng.Intn(len(prefixes))] + middles[rng.Intn(len(middles))] + suffixes[rng.Intn(len(suffixes))]
		if used[name] && attempts < count*50 {
			continue
		}
		used[name] = true
		names = append(names, name)
	}

	return names
}
