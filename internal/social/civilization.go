// Civilization simulation: seeding, claiming, epoch turns, tiering,
// trade, and the event log. Recomputed from scratch on every call.
package social

import (
	"math"
	"sort"

	"github.com/talgya/worldforge/internal/world"
)

// Seed salts for the social layer's hashed noise.
const (
	saltExpansion = 600
	saltConflict  = 700
	saltAlliance  = 701
	saltNames     = 1000
)

const (
	potentialEpsilon = 1e-9
	maxTurns         = 4
	epochsPerTurn    = 8
	maxSeedsCap      = 24
	cellsPerSeed     = 1500
	seedSpacingShare = 0.08 // Initial seed spacing as a share of the long side
	seedSpacingDecay = 0.75
	seedSpacingTries = 3
	fallbackSupport  = 0.5
)

// CivStats are the aggregate percentages reported for one run.
type CivStats struct {
	PolityCount         int     `json:"polity_count"`
	Hamlets             int     `json:"hamlets"`
	Towns               int     `json:"towns"`
	CityStates          int     `json:"city_states"`
	TerritoryPct        float64 `json:"territory_pct"`
	ConflictHeatPct     float64 `json:"conflict_heat_pct"`
	AllianceCohesionPct float64 `json:"alliance_cohesion_pct"`
	BorderVolatilityPct float64 `json:"border_volatility_pct"`
	ConnectedHubsPct    float64 `json:"connected_hubs_pct"`
}

// CivResult is the full output of one civilization run.
type CivResult struct {
	world.Dims
	Influence  *world.Field
	PolityID   []int // −1 = unclaimed
	Border     []bool
	TradeRoute []bool
	TradeFlow  *world.Field

	Polities    []PolitySeed
	Settlements []Settlement
	Routes      []TradeLink
	Stats       CivStats
	Events      []EpochEvent
	Turns       int
}

func newCivResult(d world.Dims) *CivResult {
	r := &CivResult{
		Dims:       d,
		Influence:  world.NewField(d.W, d.H),
		PolityID:   make([]int, d.Cells()),
		Border:     make([]bool, d.Cells()),
		TradeRoute: make([]bool, d.Cells()),
		TradeFlow:  world.NewField(d.W, d.H),
	}
	for i := range r.PolityID {
		r.PolityID[i] = -1
	}
	return r
}

// SimulateCivilization seeds polities, claims territory, and runs the
// epoch turns. A world without usable potential yields zero polities and
// an empty event log.
func SimulateCivilization(w *world.World, eco *EcologyResult, k Knobs) *CivResult {
	k = k.Clamp()
	d := w.Dims()
	res := newCivResult(d)

	maxPot := 0.0
	for _, v := range eco.Potential.Data {
		maxPot = math.Max(maxPot, v)
	}
	if maxPot <= potentialEpsilon || eco.LandCells == 0 {
		return res
	}
	support := func(i int) float64 { return eco.Potential.Data[i] / maxPot }

	seeds := seedPolities(w, eco, support, k)
	if len(seeds) == 0 {
		return res
	}

	sat := eco.Saturation
	agg := k.agg()
	threshold := 0.12 - 0.06*agg
	claim(w, seeds, support, sat, agg, threshold, res)

	turns := 1 + min(maxTurns-1, k.Epoch/epochsPerTurn)
	res.Turns = turns
	dyn := runTurns(w, k, threshold, turns, res)

	markBorders(w, res)

	land := 0
	claimed := 0
	for i, e := range w.Elevation.Data {
		if e <= w.Params.SeaLevel {
			continue
		}
		land++
		if p := res.PolityID[i]; p >= 0 {
			claimed++
			seeds[p].Territory++
		}
	}
	for _, s := range seeds {
		if s.Territory > 0 {
			res.Stats.PolityCount++
		}
	}
	res.Polities = seeds
	res.Stats.TerritoryPct = pct(claimed, land)
	res.Stats.ConflictHeatPct = dyn.conflictHeat(agg) * 100
	res.Stats.AllianceCohesionPct = dyn.allianceCohesion(k) * 100
	res.Stats.BorderVolatilityPct = dyn.volatility() * 100

	res.Settlements = tierSettlements(w, res.Influence, res.PolityID, sat, k)
	for _, s := range res.Settlements {
		switch s.Tier {
		case TierCityState:
			res.Stats.CityStates++
		case TierTown:
			res.Stats.Towns++
		default:
			res.Stats.Hamlets++
		}
	}

	res.Routes = synthesizeTrade(w, res.Settlements, agg, res)
	connected := 0
	for _, s := range res.Settlements {
		if s.Links > 0 {
			connected++
		}
	}
	res.Stats.ConnectedHubsPct = pct(connected, len(res.Settlements))

	if res.Stats.PolityCount > 0 {
		res.Events = epochEvents(w.Params.Seed, k, res)
	}
	return res
}

// seedPolities draws primary seeds from cities, then tops up from a coarse
// grid of high-potential cells.
func seedPolities(w *world.World, eco *EcologyResult, support func(int) float64, k Knobs) []PolitySeed {
	d := w.Dims()
	sl := w.Params.SeaLevel
	desired := min(maxSeedsCap, 2+eco.LandCells/cellsPerSeed)

	type candidate struct {
		x, y, city int
		weight     float64
	}
	var cands []candidate
	best := 0.0
	for _, c := range w.Cities {
		best = math.Max(best, c.Score)
	}
	for ci, c := range w.Cities {
		i := c.Y*d.W + c.X
		if w.Elevation.Data[i] <= sl || support(i) <= 0 {
			continue
		}
		tierW := 1 + 0.5*float64(c.Tier)
		scoreW := 0.5
		if best > 0 {
			scoreW += 0.5 * c.Score / best
		}
		cands = append(cands, candidate{c.X, c.Y, ci, tierW * scoreW * (0.5 + 0.5*support(i))})
	}
	sort.SliceStable(cands, func(a, b int) bool { return cands[a].weight > cands[b].weight })

	var seeds []PolitySeed
	taken := make(map[int]bool)
	add := func(x, y, city int) {
		i := y*d.W + x
		taken[i] = true
		id := len(seeds)
		arch := classifyArchetype(w, x, y)
		strength := 0.6 + 0.4*support(i)
		if city >= 0 {
			strength += 0.05 * float64(w.Cities[city].Tier)
		}
		exp := 0.3 + 0.5*world.Hash01(w.Params.Seed+saltExpansion, x, y, id) + expansionBias[arch]
		seeds = append(seeds, PolitySeed{
			ID:           id,
			X:            x,
			Y:            y,
			Strength:     strength,
			Expansionism: clamp01(exp),
			Biome:        w.Biomes.Data[i],
			Archetype:    arch,
			City:         city,
		})
	}
	farEnough := func(x, y int, spacing float64) bool {
		for _, s := range seeds {
			if d.Dist(float64(x), float64(y), float64(s.X), float64(s.Y)) < spacing {
				return false
			}
		}
		return true
	}

	spacing := seedSpacingShare * float64(max(d.W, d.H))
	for try := 0; try < seedSpacingTries && len(seeds) < desired; try++ {
		for _, c := range cands {
			if len(seeds) >= desired {
				break
			}
			if taken[c.y*d.W+c.x] || !farEnough(c.x, c.y, spacing) {
				continue
			}
			add(c.x, c.y, c.city)
		}
		spacing *= seedSpacingDecay
	}

	if len(seeds) < desired {
		step := max(8, min(d.W, d.H)/6)
		type block struct {
			x, y int
			s    float64
		}
		var blocks []block
		for by := 0; by < d.H; by += step {
			for bx := 0; bx < d.W; bx += step {
				bestX, bestY, bestS := -1, -1, 0.0
				for y := by; y < min(by+step, d.H); y++ {
					for x := bx; x < min(bx+step, d.W); x++ {
						i := y*d.W + x
						if w.Elevation.Data[i] <= sl {
							continue
						}
						if s := support(i); s > bestS {
							bestX, bestY, bestS = x, y, s
						}
					}
				}
				if bestS >= fallbackSupport {
					blocks = append(blocks, block{bestX, bestY, bestS})
				}
			}
		}
		sort.SliceStable(blocks, func(a, b int) bool { return blocks[a].s > blocks[b].s })
		spacing := seedSpacingShare * float64(max(d.W, d.H)) * seedSpacingDecay
		for _, b := range blocks {
			if len(seeds) >= desired {
				break
			}
			if taken[b.y*d.W+b.x] || !farEnough(b.x, b.y, spacing) {
				continue
			}
			add(b.x, b.y, -1)
		}
	}

	var fallbackNames []string
	for i := range seeds {
		if c := seeds[i].City; c >= 0 {
			seeds[i].Name = w.Cities[c].Name
			continue
		}
		if fallbackNames == nil {
			fallbackNames = world.CityNames(w.Params.Seed+saltNames, len(seeds))
		}
		seeds[i].Name = fallbackNames[i]
	}
	return seeds
}

// claim assigns every land cell to its strongest seed if the influence
// clears the threshold.
func claim(w *world.World, seeds []PolitySeed, support func(int) float64, sat, agg, threshold float64, res *CivResult) {
	d := w.Dims()
	sl := w.Params.SeaLevel
	base := 0.12 * float64(min(d.W, d.H)) * (0.5 + 0.5*sat)
	mod := (0.7 + 0.3*sat) * (0.9 + 0.2*agg)

	world.ForEachRow(d.H, func(y int) {
		for x := 0; x < d.W; x++ {
			i := y*d.W + x
			if w.Elevation.Data[i] <= sl {
				continue
			}
			sup := support(i)
			if sup <= 0 {
				continue
			}
			terrain := terrainAt(w, x, y)
			bestID, bestInf := -1, 0.0
			for _, s := range seeds {
				reach := base * (0.6 + s.Expansionism)
				dist := d.Dist(float64(x), float64(y), float64(s.X), float64(s.Y))
				fall := math.Exp(-(dist / reach) * (dist / reach))
				inf := sup * s.Strength * adaptation[s.Archetype][terrain] * fall * mod
				if inf > bestInf {
					bestID, bestInf = s.ID, inf
				}
			}
			res.Influence.Data[i] = clamp01(bestInf)
			if bestInf >= threshold {
				res.PolityID[i] = bestID
			}
		}
	})
}

// dynamics accumulates border samples across all turns.
type dynamics struct {
	samples  int
	conflict float64
	alliance float64
	changes  int
}

func (dy dynamics) conflictHeat(agg float64) float64 {
	if dy.samples == 0 {
		return math.Min(1, 0.15+0.7*agg+0.15*0.5)
	}
	return dy.conflict / float64(dy.samples)
}

func (dy dynamics) allianceCohesion(k Knobs) float64 {
	if dy.samples == 0 {
		return clamp01((1-k.agg())*0.5 + k.div()*0.3 + 0.2*0.5)
	}
	return dy.alliance / float64(dy.samples)
}

func (dy dynamics) volatility() float64 {
	if dy.samples == 0 {
		return 0
	}
	return float64(dy.changes) / float64(dy.samples)
}

// runTurns applies the conflict/alliance relaxation. Each turn reads the
// previous state and writes a fresh buffer, so scan order never matters.
func runTurns(w *world.World, k Knobs, threshold float64, turns int, res *CivResult) dynamics {
	d := w.Dims()
	sl := w.Params.SeaLevel
	agg, div := k.agg(), k.div()
	margin := 0.25*(1-agg) + 0.03
	seed := w.Params.Seed

	owner := res.PolityID
	infl := res.Influence.Data
	nextOwner := make([]int, len(owner))
	nextInfl := make([]float64, len(infl))

	var dy dynamics
	for turn := 0; turn < turns; turn++ {
		copy(nextOwner, owner)
		copy(nextInfl, infl)

		for y := 0; y < d.H; y++ {
			for x := 0; x < d.W; x++ {
				i := y*d.W + x
				p := owner[i]
				if p < 0 {
					continue
				}
				landN, foreignN := 0, 0
				rival, rivalInf := -1, 0.0
				for _, o := range world.Offsets4 {
					nx, ny, ok := d.Neighbor(x, y, o[0], o[1])
					if !ok {
						continue
					}
					j := ny*d.W + nx
					if w.Elevation.Data[j] <= sl {
						continue
					}
					landN++
					q := owner[j]
					if q == p {
						continue
					}
					foreignN++
					if q >= 0 && infl[j] > rivalInf {
						rival, rivalInf = q, infl[j]
					}
				}
				if foreignN == 0 {
					continue
				}

				pressure := float64(foreignN) / float64(landN)
				conflict := 0.15 + 0.7*agg + 0.15*world.Hash01(seed+saltConflict, i, turn, k.Epoch) + 0.15*pressure
				alliance := (1-agg)*0.5 + div*0.3 + 0.2*world.Hash01(seed+saltAlliance, i, turn, k.Epoch)
				dy.samples++
				dy.conflict += math.Min(1, conflict)
				dy.alliance += clamp01(alliance)

				v := clamp01(infl[i] + (alliance-conflict)*0.08)
				nextInfl[i] = v
				switch {
				case rival >= 0 && conflict > alliance && rivalInf-infl[i] > margin:
					nextOwner[i] = rival
					nextInfl[i] = rivalInf * 0.9
					dy.changes++
				case v < threshold*0.5 && conflict > 0.6:
					nextOwner[i] = -1
					dy.changes++
				}
			}
		}
		owner, nextOwner = nextOwner, owner
		infl, nextInfl = nextInfl, infl
	}

	copy(res.PolityID, owner)
	copy(res.Influence.Data, infl)
	return dy
}

// markBorders flags claimed cells with a foreign or unclaimed land neighbor.
func markBorders(w *world.World, res *CivResult) {
	d := w.Dims()
	sl := w.Params.SeaLevel
	for y := 0; y < d.H; y++ {
		for x := 0; x < d.W; x++ {
			i := y*d.W + x
			p := res.PolityID[i]
			if p < 0 {
				continue
			}
			for _, o := range world.Offsets4 {
				nx, ny, ok := d.Neighbor(x, y, o[0], o[1])
				if !ok {
					continue
				}
				j := ny*d.W + nx
				if w.Elevation.Data[j] > sl && res.PolityID[j] != p {
					res.Border[i] = true
					break
				}
			}
		}
	}
}

func pct(n, of int) float64 {
	if of == 0 {
		return 0
	}
	return 100 * float64(n) / float64(of)
}
