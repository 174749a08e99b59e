// Package api serves the current world over HTTP.
// GET endpoints are public and read-only.
// POST endpoints require a bearer token.
package api

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/talgya/worldforge/internal/engine"
	"github.com/talgya/worldforge/internal/llm"
	"github.com/talgya/worldforge/internal/persistence"
	"github.com/talgya/worldforge/internal/social"
	"github.com/talgya/worldforge/internal/world"
)

// Server serves world state over HTTP.
type Server struct {
	Gen      *engine.Generator
	Eng      *engine.Engine // Optional epoch clock
	LLM      *llm.Client
	DB       *persistence.DB
	Port     int
	AdminKey string // Bearer token for POST endpoints. Empty = POST disabled.

	NarrateTokens int

	mu          sync.RWMutex
	sim         *engine.Simulation
	generations int

	streams hub
}

// SetWorld installs a freshly generated world. Safe to call from the
// generator's completion callback.
func (s *Server) SetWorld(w *world.World, k social.Knobs) {
	sim := engine.NewSimulation(w, k)
	s.mu.Lock()
	s.sim = sim
	s.generations++
	s.mu.Unlock()
	s.broadcast()
}

// SetEpoch moves the current world to epoch. Handlers holding the previous
// snapshot keep reading it unchanged.
func (s *Server) SetEpoch(epoch int) {
	s.mu.Lock()
	if s.sim == nil {
		s.mu.Unlock()
		return
	}
	next := *s.sim
	next.TickEpoch(epoch)
	s.sim = &next
	s.mu.Unlock()
	s.broadcast()
}

func (s *Server) current() *engine.Simulation {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.sim
}

// Handler builds the route table.
func (s *Server) Handler() http.Handler {
	chronicleLimiter := NewRateLimiter(10, time.Hour)

	mux := http.NewServeMux()
	mux.HandleFunc("/api/v1/status", s.handleStatus)
	mux.HandleFunc("/api/v1/world", s.withWorld(s.handleWorld))
	mux.HandleFunc("/api/v1/cities", s.withWorld(s.handleCities))
	mux.HandleFunc("/api/v1/grid/", s.withWorld(s.handleGrid))
	mux.HandleFunc("/api/v1/civilization", s.withWorld(s.handleCivilization))
	mux.HandleFunc("/api/v1/events", s.withWorld(s.handleEvents))
	mux.HandleFunc("/api/v1/stream", s.handleStream)
	mux.HandleFunc("/api/v1/chronicle", RateLimitMiddleware(chronicleLimiter, s.withWorld(s.handleChronicle)))
	mux.HandleFunc("/api/v1/narrate", RateLimitMiddleware(chronicleLimiter, s.withWorld(s.handleNarrate)))

	mux.HandleFunc("/api/v1/regenerate", s.adminOnly(s.handleRegenerate))
	mux.HandleFunc("/api/v1/archive", s.adminOnly(s.withWorld(s.handleArchive)))
	mux.HandleFunc("/api/v1/speed", s.adminOnly(s.handleSpeed))

	return corsMiddleware(mux)
}

// Start begins serving in a goroutine.
func (s *Server) Start() {
	addr := fmt.Sprintf(":%d", s.Port)
	slog.Info("HTTP API starting", "addr", addr, "admin_auth", s.AdminKey != "")

	go func() {
		if err := http.ListenAndServe(addr, s.Handler()); err != nil {
			slog.Error("HTTP server error", "error", err)
		}
	}()
}

// corsMiddleware allows local dev origins plus any listed in CORS_ORIGINS.
func corsMiddleware(next http.Handler) http.Handler {
	allowedOrigins := map[string]bool{
		"http://localhost:5173": true,
		"http://localhost:3000": true,
	}
	if env := os.Getenv("CORS_ORIGINS"); env != "" {
		for _, origin := range strings.Split(env, ",") {
			if origin = strings.TrimSpace(origin); origin != "" {
				allowedOrigins[origin] = true
			}
		}
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		if allowedOrigins[origin] {
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		}
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) checkBearerToken(r *http.Request) bool {
	auth := r.Header.Get("Authorization")
	return strings.HasPrefix(auth, "Bearer ") && strings.TrimPrefix(auth, "Bearer ") == s.AdminKey
}

// adminOnly requires POST with a valid bearer token.
func (s *Server) adminOnly(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		if s.AdminKey == "" {
			http.Error(w, "admin endpoints disabled (no WORLDFORGE_ADMIN_KEY set)", http.StatusForbidden)
			return
		}
		if !s.checkBearerToken(r) {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		next(w, r)
	}
}

type worldHandler func(w http.ResponseWriter, r *http.Request, sim *engine.Simulation)

// withWorld answers 503 until the first world is ready.
func (s *Server) withWorld(next worldHandler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sim := s.current()
		if sim == nil {
			http.Error(w, "world not generated yet", http.StatusServiceUnavailable)
			return
		}
		next(w, r, sim)
	}
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	s.mu.RLock()
	sim, gens := s.sim, s.generations
	s.mu.RUnlock()

	status := map[string]any{
		"name":        "worldforge",
		"ready":       sim != nil,
		"generations": gens,
		"generating":  s.Gen != nil && s.Gen.Busy(),
		"listeners":   s.streams.count(),
	}
	if s.DB != nil {
		if id, err := s.DB.GetMeta(persistence.MetaLastRun); err == nil {
			status["last_run"] = id
		}
	}
	if s.Eng != nil {
		status["running"] = s.Eng.Running()
		status["speed"] = s.Eng.Speed()
	}
	if sim != nil {
		p := sim.World.Params
		status["seed"] = p.Seed
		status["cache_key"] = p.CacheKey()
		status["width"] = p.Width
		status["height"] = p.Height
		status["epoch"] = sim.Knobs.Epoch
		status["age"] = engine.EpochLabel(sim.Knobs.Epoch)
		status["stats"] = sim.Stats
	}
	writeJSON(w, status)
}

func (s *Server) handleWorld(w http.ResponseWriter, r *http.Request, sim *engine.Simulation) {
	wd := sim.World
	biomes := make(map[string]int)
	for b, n := range wd.Biomes.Counts() {
		biomes[b.String()] = n
	}
	boundaries := make(map[string]int)
	for b, n := range wd.Plates.BoundaryCounts() {
		boundaries[b.String()] = n
	}
	writeJSON(w, map[string]any{
		"params":     wd.Params,
		"plates":     wd.Plates.Sites,
		"boundaries": boundaries,
		"biomes":     biomes,
		"land_cells": wd.LandCells(),
	})
}

func (s *Server) handleCities(w http.ResponseWriter, r *http.Request, sim *engine.Simulation) {
	writeJSON(w, sim.World.Cities)
}

// gridNames lists the grids served by /api/v1/grid/{name}.
var gridNames = []string{
	"elevation", "temperature", "moisture", "rivers", "orogeny",
	"plate_id", "boundary", "biome", "rock", "ore",
	"health", "potential", "influence", "polity_id", "border", "trade_flow",
}

func (s *Server) handleGrid(w http.ResponseWriter, r *http.Request, sim *engine.Simulation) {
	name := strings.TrimPrefix(r.URL.Path, "/api/v1/grid/")
	if name == "" {
		writeJSON(w, gridNames)
		return
	}
	data, ok := gridValues(sim, name)
	if !ok {
		http.Error(w, fmt.Sprintf("unknown grid %q", name), http.StatusNotFound)
		return
	}
	writeJSON(w, map[string]any{
		"name":   name,
		"width":  sim.World.Params.Width,
		"height": sim.World.Params.Height,
		"data":   data,
	})
}

// gridValues flattens one named grid to float32.
func gridValues(sim *engine.Simulation, name string) ([]float32, bool) {
	wd := sim.World
	field := func(f *world.Field) []float32 {
		out := make([]float32, len(f.Data))
		for i, v := range f.Data {
			out[i] = float32(v)
		}
		return out
	}
	ints := func(xs []int) []float32 {
		out := make([]float32, len(xs))
		for i, v := range xs {
			out[i] = float32(v)
		}
		return out
	}
	switch name {
	case "elevation":
		return field(wd.Elevation), true
	case "temperature":
		return field(wd.Temperature), true
	case "moisture":
		return field(wd.Moisture), true
	case "rivers":
		return field(wd.Rivers), true
	case "orogeny":
		return field(wd.Orogeny), true
	case "plate_id":
		return ints(wd.Plates.IDs), true
	case "boundary":
		out := make([]float32, len(wd.Plates.Boundaries))
		for i, b := range wd.Plates.Boundaries {
			out[i] = float32(b)
		}
		return out, true
	case "biome":
		out := make([]float32, len(wd.Biomes.Data))
		for i, b := range wd.Biomes.Data {
			out[i] = float32(b)
		}
		return out, true
	case "rock":
		out := make([]float32, len(wd.Rocks.Data))
		for i, b := range wd.Rocks.Data {
			out[i] = float32(b)
		}
		return out, true
	case "ore":
		out := make([]float32, len(wd.Ores.Data))
		for i, b := range wd.Ores.Data {
			out[i] = float32(b)
		}
		return out, true
	}

	eco, civ := sim.Current()
	switch name {
	case "health":
		return field(eco.Health), true
	case "potential":
		return field(eco.Potential), true
	case "influence":
		return field(civ.Influence), true
	case "polity_id":
		return ints(civ.PolityID), true
	case "trade_flow":
		return field(civ.TradeFlow), true
	case "border":
		out := make([]float32, len(civ.Border))
		for i, b := range civ.Border {
			if b {
				out[i] = 1
			}
		}
		return out, true
	}
	return nil, false
}

// knobsFromQuery overrides the simulation's knobs with query parameters.
func knobsFromQuery(r *http.Request, k social.Knobs) (social.Knobs, error) {
	q := r.URL.Query()
	if v := q.Get("epoch"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return k, fmt.Errorf("epoch: %w", err)
		}
		k.Epoch = n
	}
	for name, dst := range map[string]*float64{
		"aggression": &k.Aggression,
		"diversity":  &k.Diversity,
		"magic":      &k.Magic,
	} {
		if v := q.Get(name); v != "" {
			f, err := strconv.ParseFloat(v, 64)
			if err != nil {
				return k, fmt.Errorf("%s: %w", name, err)
			}
			*dst = f
		}
	}
	return k.Clamp(), nil
}

func (s *Server) handleCivilization(w http.ResponseWriter, r *http.Request, sim *engine.Simulation) {
	k, err := knobsFromQuery(r, sim.Knobs)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	eco, civ := sim.Society.Simulate(k)

	polities := make([]social.PolitySeed, 0, len(civ.Polities))
	for _, p := range civ.Polities {
		if p.Territory > 0 {
			polities = append(polities, p)
		}
	}
	sort.SliceStable(polities, func(i, j int) bool { return polities[i].Territory > polities[j].Territory })

	writeJSON(w, map[string]any{
		"knobs":       k,
		"signature":   strconv.FormatUint(social.Signature(k, sim.World.Dims()), 16),
		"turns":       civ.Turns,
		"stats":       civ.Stats,
		"ecology":     eco,
		"polities":    polities,
		"settlements": civ.Settlements,
		"routes":      civ.Routes,
	})
}

func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request, sim *engine.Simulation) {
	k, err := knobsFromQuery(r, sim.Knobs)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	_, civ := sim.Society.Simulate(k)
	events := civ.Events
	if events == nil {
		events = []social.EpochEvent{}
	}
	writeJSON(w, events)
}

func (s *Server) handleChronicle(w http.ResponseWriter, r *http.Request, sim *engine.Simulation) {
	if !s.LLM.Enabled() {
		http.Error(w, "narration disabled (no ANTHROPIC_API_KEY set)", http.StatusServiceUnavailable)
		return
	}
	eco, civ := sim.Current()
	cc := llm.NewChronicleContext(sim.World, sim.Knobs, eco, civ, engine.EpochLabel(sim.Knobs.Epoch))
	tokens := s.NarrateTokens
	if tokens <= 0 {
		tokens = 400
	}
	ch, err := llm.GenerateChronicle(r.Context(), s.LLM, cc, tokens)
	if err != nil {
		slog.Warn("chronicle failed", "error", err)
		http.Error(w, "chronicle unavailable", http.StatusBadGateway)
		return
	}
	writeJSON(w, ch)
}

// handleNarrate tells the headline event of the current window in prose.
func (s *Server) handleNarrate(w http.ResponseWriter, r *http.Request, sim *engine.Simulation) {
	if !s.LLM.Enabled() {
		http.Error(w, "narration disabled (no ANTHROPIC_API_KEY set)", http.StatusServiceUnavailable)
		return
	}
	eco, civ := sim.Current()
	cc := llm.NewChronicleContext(sim.World, sim.Knobs, eco, civ, engine.EpochLabel(sim.Knobs.Epoch))
	event, ok := cc.Headline()
	if !ok {
		http.Error(w, "nothing has happened yet", http.StatusNotFound)
		return
	}
	text, err := llm.NarrateEvent(r.Context(), s.LLM, event, cc.Setting())
	if err != nil {
		slog.Warn("narration failed", "error", err)
		http.Error(w, "narration unavailable", http.StatusBadGateway)
		return
	}
	writeJSON(w, map[string]any{"event": event, "text": text})
}

// regenerateRequest carries the parameter overrides for a new world.
type regenerateRequest struct {
	Seed       *int64   `json:"seed"`
	SeaLevel   *float64 `json:"sea_level"`
	PlateCount *int     `json:"plate_count"`
	Morphology string   `json:"morphology"`
	Tuning     string   `json:"tuning"`
}

func (s *Server) handleRegenerate(w http.ResponseWriter, r *http.Request) {
	if s.Gen == nil {
		http.Error(w, "generator not configured", http.StatusServiceUnavailable)
		return
	}
	var req regenerateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json", http.StatusBadRequest)
		return
	}

	p := world.DefaultParams()
	if sim := s.current(); sim != nil {
		p = sim.World.Params
	}
	if req.Seed != nil {
		p.Seed = *req.Seed
	}
	if req.SeaLevel != nil {
		p.SeaLevel = *req.SeaLevel
	}
	if req.PlateCount != nil {
		p.PlateCount = *req.PlateCount
	}
	if req.Morphology != "" {
		m, err := world.ParseMorphology(req.Morphology)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		p.Morphology = m
	}
	if req.Tuning != "" {
		tp, err := world.TuningByName(req.Tuning)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		p.Tuning = tp
	}
	p = p.Clamp()

	started := s.Gen.Request(p)
	slog.Info("regenerate requested", "seed", p.Seed, "started", started)
	writeJSONStatus(w, http.StatusAccepted, map[string]any{"started": started, "cache_key": p.CacheKey()})
}

func (s *Server) handleArchive(w http.ResponseWriter, r *http.Request, sim *engine.Simulation) {
	if s.DB == nil {
		http.Error(w, "archive disabled", http.StatusServiceUnavailable)
		return
	}
	eco, civ := sim.Current()
	id, reused, err := s.DB.Archive(sim.World, sim.Knobs, eco, civ)
	if err != nil {
		slog.Error("archive failed", "error", err)
		http.Error(w, "archive failed", http.StatusInternalServerError)
		return
	}
	writeJSON(w, map[string]any{"run_id": id, "reused": reused})
}

func (s *Server) handleSpeed(w http.ResponseWriter, r *http.Request) {
	if s.Eng == nil {
		http.Error(w, "epoch clock not running", http.StatusServiceUnavailable)
		return
	}
	var req struct {
		Speed float64 `json:"speed"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json", http.StatusBadRequest)
		return
	}
	if req.Speed < 0 || req.Speed > 1000 {
		http.Error(w, "speed must be 0-1000", http.StatusBadRequest)
		return
	}
	s.Eng.SetSpeed(req.Speed)
	slog.Info("speed changed", "speed", req.Speed)
	writeJSON(w, map[string]float64{"speed": s.Eng.Speed()})
}

func writeJSON(w http.ResponseWriter, data any) {
	writeJSONStatus(w, http.StatusOK, data)
}

func writeJSONStatus(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(data); err != nil {
		slog.Debug("write json", "error", err)
	}
}
