package engine

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/talgya/worldforge/internal/world"
)

// Result is one finished generation.
type Result struct {
	Params  world.Params
	World   *world.World
	Err     error
	Elapsed time.Duration
}

// StageLogger returns a hook that logs each stage boundary and aborts the
// run once ctx is done. Stages themselves always run to completion.
func StageLogger(ctx context.Context, logger *slog.Logger) world.StageHook {
	if logger == nil {
		logger = slog.Default()
	}
	return func(s world.Stage) error {
		logger.Debug("stage", "name", s.String())
		return ctx.Err()
	}
}

// Generate runs one full pipeline under ctx.
func Generate(ctx context.Context, p world.Params) (*world.World, error) {
	return world.GenerateWithHook(p, StageLogger(ctx, nil))
}

// GenerateMany builds independent worlds concurrently. Results keep the
// order of ps. The first failure cancels the remaining runs at their next
// stage boundary.
func GenerateMany(ctx context.Context, ps []world.Params) ([]*world.World, error) {
	out := make([]*world.World, len(ps))
	g, gctx := errgroup.WithContext(ctx)
	for i, p := range ps {
		g.Go(func() error {
			w, err := Generate(gctx, p)
			if err != nil {
				return err
			}
			out[i] = w
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

// Generator keeps at most one generation in flight for a target world.
// Requests that arrive while a run is active collapse into a single pending
// regenerate carrying the latest parameters.
type Generator struct {
	ctx        context.Context
	onComplete func(Result)
	generate   func(context.Context, world.Params) (*world.World, error)

	mu      sync.Mutex
	running bool
	pending *world.Params
	idle    *sync.Cond
}

// NewGenerator creates a generator. onComplete is called from the worker
// goroutine after every run, including failed ones.
func NewGenerator(ctx context.Context, onComplete func(Result)) *Generator {
	g := &Generator{
		ctx:        ctx,
		onComplete: onComplete,
		generate:   Generate,
	}
	g.idle = sync.NewCond(&g.mu)
	return g
}

// Request starts a generation for p, or records it as the pending
// regenerate when one is already running. It reports whether a new run
// started immediately.
func (g *Generator) Request(p world.Params) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.running {
		g.pending = &p
		return false
	}
	g.running = true
	go g.loop(p)
	return true
}

// Busy reports whether a generation is in flight.
func (g *Generator) Busy() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.running
}

// Wait blocks until no generation is running or pending.
func (g *Generator) Wait() {
	g.mu.Lock()
	defer g.mu.Unlock()
	for g.running {
		g.idle.Wait()
	}
}

func (g *Generator) loop(p world.Params) {
	for {
		start := time.Now()
		w, err := g.generate(g.ctx, p)
		res := Result{Params: p, World: w, Err: err, Elapsed: time.Since(start)}
		if err != nil {
			slog.Warn("generation discarded", "seed", p.Seed, "error", err)
		} else {
			slog.Info("generation complete", "seed", p.Seed, "elapsed", res.Elapsed.Round(time.Millisecond))
		}
		if g.onComplete != nil {
			g.onComplete(res)
		}

		g.mu.Lock()
		if g.pending == nil || g.ctx.Err() != nil {
			g.pending = nil
			g.running = false
			g.idle.Broadcast()
			g.mu.Unlock()
			return
		}
		p = *g.pending
		g.pending = nil
		g.mu.Unlock()
	}
}
