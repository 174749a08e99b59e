// River tracing: scored downhill walks from rugged, moist, elevated sources.
package world

import (
	"math"
	"math/rand"
)

// River tuning.
const (
	MaxRiverIntensity  = 2.4
	riverStartStrength = 0.25
	riverSourceChance  = 0.02
	riverDropWeight    = 40.0
	riverHeadingWeight = 0.3
	riverMoistWeight   = 0.2
	riverConfluence    = 0.35
	riverSeaBonus      = 1.0
	riverJitter        = 0.05
	riverFlowThreshold = 0.02 // Pass-two fluid that marks an existing channel
)

// RiverParams configures source selection.
type RiverParams struct {
	Enabled      bool    `yaml:"enabled" json:"enabled"`
	Density      float64 `yaml:"density" json:"density"`             // 0–1, scales source probability
	MinElevation float64 `yaml:"min_elevation" json:"min_elevation"` // Relative height above sea level
	MinMoisture  float64 `yaml:"min_moisture" json:"min_moisture"`
	MinRelief    float64 `yaml:"min_relief" json:"min_relief"`
}

// DefaultRiverParams returns the standard source thresholds.
func DefaultRiverParams() RiverParams {
	return RiverParams{
		Enabled:      true,
		Density:      0.5,
		MinElevation: 0.2,
		MinMoisture:  0.25,
		MinRelief:    0.01,
	}
}

// Clamp forces every threshold into range.
func (p RiverParams) Clamp() RiverParams {
	p.Density = quantize(clamp01(p.Density))
	p.MinElevation = quantize(clamp01(p.MinElevation))
	p.MinMoisture = quantize(clamp01(p.MinMoisture))
	p.MinRelief = quantize(clamp01(p.MinRelief))
	return p
}

// TraceRivers samples sources and traces each to the sea. The returned
// field holds accumulated intensity per cell and is zero on ocean cells.
// fluid is the non-modifying erosion layer; it may be nil.
func TraceRivers(elev, moist, fluid *Field, seaLevel float64, p RiverParams, seed int64) *Field {
	sameDims(elev.Dims, moist.Dims)
	rivers := NewField(elev.W, elev.H)
	if !p.Enabled {
		return rivers
	}
	p = p.Clamp()
	rng := rand.New(rand.NewSource(seed + 80))
	chance := p.Density * riverSourceChance

	var sources []int
	for y := 0; y < elev.H; y++ {
		for x := 0; x < elev.W; x++ {
			i := y*elev.W + x
			e := elev.Data[i]
			if e <= seaLevel {
				continue
			}
			if (e-seaLevel)/(1-seaLevel) < p.MinElevation || moist.Data[i] < p.MinMoisture {
				continue
			}
			if elev.Relief(x, y) < p.MinRelief {
				continue
			}
			if rng.Float64() < chance {
				sources = append(sources, i)
			}
		}
	}

	t := &tracer{
		elev:     elev,
		moist:    moist,
		fluid:    fluid,
		rivers:   rivers,
		seaLevel: seaLevel,
		rng:      rng,
		visited:  make([]int, elev.Cells()),
		budget:   (2*elev.W + 2*elev.H) * 3,
	}
	for n, src := range sources {
		t.trace(src, n+1)
	}
	return rivers
}

type tracer struct {
	elev, moist, fluid *Field
	rivers             *Field
	seaLevel           float64
	rng                *rand.Rand
	visited            []int // Stamp of the trace that last entered each cell
	budget             int
}

func (t *tracer) trace(src, stamp int) {
	w := t.elev.W
	cur := src
	intensity := riverStartStrength
	hx, hy := 0.0, 0.0
	stagnant := 0

	t.visited[cur] = stamp
	t.deposit(cur, intensity)

	for step := 0; step < t.budget; step++ {
		x, y := t.elev.XY(cur)
		here := t.elev.Data[cur]

		best, bestScore := -1, math.Inf(-1)
		bestSea := false
		lowest, lowestElev := -1, math.Inf(1)
		for _, o := range Offsets8 {
			nx, ny, ok := t.elev.Neighbor(x, y, o[0], o[1])
			if !ok {
				continue
			}
			j := ny*w + nx
			if t.visited[j] == stamp {
				continue
			}
			e := t.elev.Data[j]
			if e < lowestElev {
				lowest, lowestElev = j, e
			}
			sea := e <= t.seaLevel
			drop := here - e
			if drop <= 0 && !sea {
				continue
			}

			dx, dy := float64(o[0]), float64(o[1])
			dl := math.Hypot(dx, dy)
			score := drop*riverDropWeight +
				(hx*dx+hy*dy)/dl*riverHeadingWeight +
				t.moist.Data[j]*riverMoistWeight +
				t.rng.Float64()*riverJitter
			if t.rivers.Data[j] > 0 || (t.fluid != nil && t.fluid.Data[j] > riverFlowThreshold) {
				score += riverConfluence
			}
			if sea {
				score += riverSeaBonus
			}
			if score > bestScore {
				best, bestScore, bestSea = j, score, sea
			}
		}

		if best < 0 {
			stagnant++
			if stagnant >= 2 || lowest < 0 {
				return
			}
			// Spill over the lowest rim once before giving up.
			best = lowest
			bestSea = lowestElev <= t.seaLevel
		} else {
			stagnant = 0
		}

		if bestSea {
			return
		}

		bx, by := t.elev.XY(best)
		hx = t.elev.DeltaX(float64(x), float64(bx))
		hy = float64(by - y)
		if l := math.Hypot(hx, hy); l > 0 {
			hx, hy = hx/l, hy/l
		}

		drop := math.Max(0, here-t.elev.Data[best])
		intensity = intensity*(0.97-math.Min(0.2, drop*2)) + t.moist.Data[best]*0.05
		cur = best
		t.visited[cur] = stamp
		t.deposit(cur, intensity)
	}
}

func (t *tracer) deposit(i int, v float64) {
	t.rivers.Data[i] = math.Min(MaxRiverIntensity, t.rivers.Data[i]+v)
}
