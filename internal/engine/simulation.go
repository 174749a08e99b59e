// Simulation ties a generated world to its social layer.
package engine

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/dustin/go-humanize"

	"github.com/talgya/worldforge/internal/social"
	"github.com/talgya/worldforge/internal/world"
)

// Society caches the ecology and civilization results for one world behind
// the social signature. Safe for concurrent use.
type Society struct {
	world *world.World

	mu   sync.Mutex
	sig  uint64
	have bool
	eco  *social.EcologyResult
	civ  *social.CivResult
	runs int
}

// NewSociety creates an empty cache for w.
func NewSociety(w *world.World) *Society {
	return &Society{world: w}
}

// Simulate returns ecology and civilization for k. A call whose signature
// matches the previous one returns the cached results untouched.
func (s *Society) Simulate(k social.Knobs) (*social.EcologyResult, *social.CivResult) {
	k = k.Clamp()
	sig := social.Signature(k, s.world.Dims())

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.have && s.sig == sig {
		return s.eco, s.civ
	}
	s.eco = social.SimulateEcology(s.world, k)
	s.civ = social.SimulateCivilization(s.world, s.eco, k)
	s.sig = sig
	s.have = true
	s.runs++
	return s.eco, s.civ
}

// Runs counts how many times the social layer was actually recomputed.
func (s *Society) Runs() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.runs
}

// Invalidate drops the cache. Call it after any physical grid changes.
func (s *Society) Invalidate() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.have = false
	s.eco, s.civ = nil, nil
}

// Simulation holds a world, its society cache, and the current knobs.
type Simulation struct {
	World   *world.World
	Society *Society
	Knobs   social.Knobs
	Events  []social.EpochEvent // Most recent timeline
	Stats   SimStats
}

// SimStats are the headline numbers reported per epoch.
type SimStats struct {
	LandCells    int     `json:"land_cells"`
	Cities       int     `json:"cities"`
	Polities     int     `json:"polities"`
	TerritoryPct float64 `json:"territory_pct"`
	ConflictPct  float64 `json:"conflict_pct"`
	AlliancePct  float64 `json:"alliance_pct"`
	TradeRoutes  int     `json:"trade_routes"`
	MeanHealth   float64 `json:"mean_health"`
}

// NewSimulation wraps a generated world.
func NewSimulation(w *world.World, k social.Knobs) *Simulation {
	sim := &Simulation{
		World:   w,
		Society: NewSociety(w),
		Knobs:   k.Clamp(),
	}
	sim.refresh()
	return sim
}

// SetEpoch moves the simulation to epoch and refreshes the social layer.
func (s *Simulation) SetEpoch(epoch int) {
	s.Knobs.Epoch = epoch
	s.Knobs = s.Knobs.Clamp()
	s.refresh()
}

// Current returns the cached results for the current knobs.
func (s *Simulation) Current() (*social.EcologyResult, *social.CivResult) {
	return s.Society.Simulate(s.Knobs)
}

func (s *Simulation) refresh() {
	eco, civ := s.Society.Simulate(s.Knobs)
	s.Events = civ.Events
	s.Stats = SimStats{
		LandCells:    eco.LandCells,
		Cities:       len(s.World.Cities),
		Polities:     civ.Stats.PolityCount,
		TerritoryPct: civ.Stats.TerritoryPct,
		ConflictPct:  civ.Stats.ConflictHeatPct,
		AlliancePct:  civ.Stats.AllianceCohesionPct,
		TradeRoutes:  len(civ.Routes),
		MeanHealth:   eco.MeanHealth,
	}
}

// TickEpoch advances one epoch and logs an epoch report.
func (s *Simulation) TickEpoch(epoch int) {
	s.SetEpoch(epoch)

	slog.Info("epoch report",
		"epoch", epoch,
		"age", EpochLabel(epoch),
		"land", humanize.Comma(int64(s.Stats.LandCells)),
		"polities", s.Stats.Polities,
		"territory", fmt.Sprintf("%.1f%%", s.Stats.TerritoryPct),
		"conflict", fmt.Sprintf("%.1f%%", s.Stats.ConflictPct),
		"alliance", fmt.Sprintf("%.1f%%", s.Stats.AlliancePct),
		"trade_routes", s.Stats.TradeRoutes,
	)
	if n := len(s.Events); n > 0 {
		e := s.Events[n-1]
		slog.Info("event", "epoch", e.Epoch, "category", e.Category, "impact", e.Impact, "summary", e.Summary)
	}
}
