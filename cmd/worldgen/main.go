// Command worldgen generates a world, simulates its peoples up to an epoch,
// and optionally archives, narrates, or serves the result.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/talgya/worldforge/internal/api"
	"github.com/talgya/worldforge/internal/config"
	"github.com/talgya/worldforge/internal/engine"
	"github.com/talgya/worldforge/internal/llm"
	"github.com/talgya/worldforge/internal/persistence"
	"github.com/talgya/worldforge/internal/social"
	"github.com/talgya/worldforge/internal/world"
)

func main() {
	var (
		configPath = flag.String("config", "", "YAML config file (defaults when empty)")
		seed       = flag.Int64("seed", -1, "override world seed")
		epoch      = flag.Int("epoch", -1, "override simulated epoch")
		dbPath     = flag.String("db", "", "archive to this sqlite file (implies archive.enabled)")
		narrate    = flag.Bool("narrate", false, "write a chronicle of the recent epochs")
		serve      = flag.Int("serve", 0, "serve the HTTP API on this port")
		play       = flag.Duration("play", 0, "advance one epoch per interval until interrupted")
		seeds      = flag.String("seeds", "", "comma-separated seeds to generate side by side, then exit")
		watch      = flag.Bool("watch", false, "with -serve, regenerate when the config file changes")
	)
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, "worldgen:", err)
		os.Exit(2)
	}
	logger, closeLog := cfg.Logger(os.Stdout)
	defer closeLog()
	slog.SetDefault(logger)

	if *seed >= 0 {
		cfg.World.Seed = *seed
	}
	if *epoch >= 0 {
		cfg.Society.Epoch = *epoch
	}
	if *dbPath != "" {
		cfg.Archive.Enabled = true
		cfg.Archive.Path = *dbPath
	}
	if *narrate {
		cfg.Narrate.Enabled = true
	}

	params, err := cfg.Params()
	if err != nil {
		slog.Error("invalid world config", "error", err)
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if *seeds != "" {
		if err := compare(ctx, params, cfg.Society, *seeds); err != nil {
			slog.Error("batch generation failed", "error", err)
			os.Exit(1)
		}
		return
	}

	// ── Physical world ────────────────────────────────────────────────
	slog.Info("generating world",
		"seed", params.Seed,
		"size", fmt.Sprintf("%dx%d", params.Width, params.Height),
		"morphology", params.Morphology,
		"cache_key", params.CacheKey(),
	)
	start := time.Now()
	w, err := engine.Generate(ctx, params)
	if err != nil {
		slog.Error("generation failed", "error", err)
		os.Exit(1)
	}
	summarize(w, time.Since(start))

	// ── Society ───────────────────────────────────────────────────────
	sim := engine.NewSimulation(w, cfg.Society)
	sim.TickEpoch(sim.Knobs.Epoch)

	// ── Archive ───────────────────────────────────────────────────────
	var db *persistence.DB
	if cfg.Archive.Enabled {
		db, err = persistence.Open(cfg.Archive.Path)
		if err != nil {
			slog.Error("failed to open archive", "path", cfg.Archive.Path, "error", err)
			os.Exit(1)
		}
		defer db.Close()
		archive(db, sim)
	}

	// ── Chronicle ─────────────────────────────────────────────────────
	var client *llm.Client
	if key := os.Getenv("ANTHROPIC_API_KEY"); key != "" {
		client = llm.NewClient(key, llm.WithModel(cfg.Narrate.Model))
	}
	if cfg.Narrate.Enabled {
		if !client.Enabled() {
			slog.Warn("ANTHROPIC_API_KEY not set, skipping chronicle")
		} else {
			chronicle(ctx, client, sim, cfg.Narrate.MaxTokens)
		}
	}

	if *serve == 0 && *play == 0 {
		return
	}

	// ── Epoch clock and HTTP API ──────────────────────────────────────
	var eng *engine.Engine
	if *play > 0 {
		eng = engine.NewEngine(sim.Knobs.Epoch)
		eng.Interval = *play
	}

	if *serve > 0 {
		adminKey := os.Getenv("WORLDFORGE_ADMIN_KEY")
		if adminKey == "" {
			slog.Warn("WORLDFORGE_ADMIN_KEY not set, admin POST endpoints disabled")
		}
		srv := &api.Server{
			Eng:           eng,
			LLM:           client,
			DB:            db,
			Port:          *serve,
			AdminKey:      adminKey,
			NarrateTokens: cfg.Narrate.MaxTokens,
		}
		srv.SetWorld(w, sim.Knobs)
		srv.Gen = engine.NewGenerator(ctx, func(r engine.Result) {
			if r.Err != nil {
				return
			}
			k := cfg.Society
			if eng != nil {
				k.Epoch = eng.Epoch()
			}
			srv.SetWorld(r.World, k)
		})
		if eng != nil {
			eng.OnEpoch = srv.SetEpoch
		}
		srv.Start()
		fmt.Printf("API: http://localhost:%d/api/v1/status\n", *serve)

		if *watch && *configPath != "" {
			watcher, err := config.NewWatcher(*configPath)
			if err != nil {
				slog.Error("config watch disabled", "error", err)
			} else {
				go watcher.Run(ctx, func(next config.Config) {
					p, err := next.Params()
					if err != nil {
						return
					}
					if *seed >= 0 {
						p.Seed = *seed
					}
					srv.Gen.Request(p)
				})
			}
		}
	} else if eng != nil {
		eng.OnEpoch = sim.TickEpoch
	}

	if eng != nil {
		eng.OnAge = func(epoch int) {
			slog.Info("a new age begins", "age", engine.EpochLabel(epoch))
		}
		fmt.Println("Playing epochs... (Ctrl+C to stop)")
		if err := eng.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			slog.Error("epoch engine stopped", "error", err)
		}
		if db != nil {
			sim.SetEpoch(eng.Epoch())
			archive(db, sim)
		}
		return
	}

	<-ctx.Done()
	slog.Info("shutting down")
}

func summarize(w *world.World, elapsed time.Duration) {
	d := w.Dims()
	land := w.LandCells()
	slog.Info("world generated",
		"elapsed", elapsed.Round(time.Millisecond),
		"cells", humanize.Comma(int64(d.Cells())),
		"land", humanize.Comma(int64(land)),
		"land_pct", fmt.Sprintf("%.1f%%", 100*float64(land)/float64(d.Cells())),
		"plates", w.Plates.DistinctPlates(),
		"cities", len(w.Cities),
	)
	for b, n := range w.Biomes.Counts() {
		slog.Debug("biome", "type", b, "cells", humanize.Comma(int64(n)))
	}
}

func archive(db *persistence.DB, sim *engine.Simulation) {
	eco, civ := sim.Current()
	id, reused, err := db.Archive(sim.World, sim.Knobs, eco, civ)
	if err != nil {
		slog.Error("archive failed", "error", err)
		return
	}
	if reused {
		fmt.Printf("Already archived as run %s\n", id)
		return
	}
	fmt.Printf("Archived run %s\n", id)
}

func chronicle(ctx context.Context, client *llm.Client, sim *engine.Simulation, maxTokens int) {
	eco, civ := sim.Current()
	cc := llm.NewChronicleContext(sim.World, sim.Knobs, eco, civ, engine.EpochLabel(sim.Knobs.Epoch))
	ch, err := llm.GenerateChronicle(ctx, client, cc, maxTokens)
	if err != nil {
		slog.Warn("chronicle failed", "error", err)
		return
	}
	fmt.Printf("\n%s\n\n", ch.Title)
	for _, e := range ch.Entries {
		fmt.Printf("  %s\n", e)
	}
	fmt.Printf("\n%s\n", ch.Omen)

	if e, ok := cc.Headline(); ok {
		text, err := llm.NarrateEvent(ctx, client, e, cc.Setting())
		if err != nil {
			slog.Warn("event narration failed", "error", err)
			return
		}
		fmt.Printf("\nEpoch %d: %s\n", e.Epoch, text)
	}
}

// compare generates one world per seed concurrently and prints a line each.
func compare(ctx context.Context, base world.Params, k social.Knobs, list string) error {
	var ps []world.Params
	for _, f := range strings.Split(list, ",") {
		s, err := strconv.ParseInt(strings.TrimSpace(f), 10, 64)
		if err != nil {
			return fmt.Errorf("seed %q: %w", f, err)
		}
		p := base
		p.Seed = s
		ps = append(ps, p)
	}

	start := time.Now()
	worlds, err := engine.GenerateMany(ctx, ps)
	if err != nil {
		return err
	}
	slog.Info("batch generated", "worlds", len(worlds), "elapsed", time.Since(start).Round(time.Millisecond))

	for _, w := range worlds {
		land := w.LandCells()
		sim := engine.NewSimulation(w, k)
		fmt.Printf("seed %-8d land %7s (%4.1f%%)  cities %3d  polities %2d  key %s\n",
			w.Params.Seed,
			humanize.Comma(int64(land)),
			100*float64(land)/float64(w.Dims().Cells()),
			len(w.Cities),
			sim.Stats.Polities,
			w.Params.CacheKey(),
		)
	}
	return nil
}
