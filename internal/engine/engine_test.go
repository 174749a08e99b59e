package engine

import (
	"context"
	"errors"
	"slices"
	"sync"
	"testing"
	"time"

	"github.com/talgya/worldforge/internal/social"
	"github.com/talgya/worldforge/internal/world"
)

func TestSocietyCachesBySignature(t *testing.T) {
	w := world.Generate(world.SmallTestParams())
	soc := NewSociety(w)
	k := social.DefaultKnobs()

	eco1, civ1 := soc.Simulate(k)
	eco2, civ2 := soc.Simulate(k)
	if soc.Runs() != 1 {
		t.Fatalf("runs = %d after identical calls, want 1", soc.Runs())
	}
	if eco1 != eco2 || civ1 != civ2 {
		t.Fatal("identical signature returned fresh results")
	}

	k.Epoch++
	_, civ3 := soc.Simulate(k)
	if soc.Runs() != 2 {
		t.Fatalf("runs = %d after epoch change, want 2", soc.Runs())
	}
	if civ3 == civ1 {
		t.Fatal("epoch change returned the cached result")
	}

	soc.Invalidate()
	soc.Simulate(k)
	if soc.Runs() != 3 {
		t.Fatalf("runs = %d after invalidate, want 3", soc.Runs())
	}
}

func TestSimulationSetEpoch(t *testing.T) {
	w := world.Generate(world.SmallTestParams())
	k := social.DefaultKnobs()
	k.Epoch = 0
	sim := NewSimulation(w, k)
	if sim.Stats.Polities != 0 {
		t.Fatalf("epoch 0 has %d polities", sim.Stats.Polities)
	}
	sim.SetEpoch(20)
	if sim.Knobs.Epoch != 20 {
		t.Fatalf("epoch = %d", sim.Knobs.Epoch)
	}
	if sim.Stats.LandCells != w.LandCells() {
		t.Fatalf("land cells %d, want %d", sim.Stats.LandCells, w.LandCells())
	}
	sim.SetEpoch(-5)
	if sim.Knobs.Epoch != 0 {
		t.Fatalf("negative epoch clamped to %d", sim.Knobs.Epoch)
	}
}

func TestEngineStepsAndStops(t *testing.T) {
	e := NewEngine(3)
	e.Interval = time.Millisecond
	e.Until = 12

	var seen []int
	var ages []int
	e.OnEpoch = func(ep int) { seen = append(seen, ep) }
	e.OnAge = func(ep int) { ages = append(ages, ep) }

	if err := e.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	want := []int{4, 5, 6, 7, 8, 9, 10, 11, 12}
	if !slices.Equal(seen, want) {
		t.Fatalf("epochs = %v, want %v", seen, want)
	}
	if !slices.Equal(ages, []int{10}) {
		t.Fatalf("ages = %v", ages)
	}
	if e.Running() {
		t.Fatal("engine still running")
	}
}

func TestEngineHonorsContext(t *testing.T) {
	e := NewEngine(0)
	e.Interval = time.Hour
	ctx, cancel := context.WithCancel(context.Background())
	e.OnEpoch = func(int) { cancel() }
	if err := e.Run(ctx); !errors.Is(err, context.Canceled) {
		t.Fatalf("Run error = %v, want context.Canceled", err)
	}
	if e.Epoch() != 1 {
		t.Fatalf("epoch = %d, want 1", e.Epoch())
	}
}

func TestEpochLabel(t *testing.T) {
	if got := EpochLabel(0); got != "Age of Dawn, Epoch 0" {
		t.Fatalf("EpochLabel(0) = %q", got)
	}
	if got := EpochLabel(999); got != "Age of Ashes, Epoch 999" {
		t.Fatalf("EpochLabel(999) = %q", got)
	}
}

func TestGeneratorCoalescesRequests(t *testing.T) {
	release := make(chan struct{})
	started := make(chan int64, 4)

	var mu sync.Mutex
	var done []int64
	g := NewGenerator(context.Background(), func(r Result) {
		mu.Lock()
		done = append(done, r.Params.Seed)
		mu.Unlock()
	})
	g.generate = func(_ context.Context, p world.Params) (*world.World, error) {
		started <- p.Seed
		<-release
		return &world.World{Params: p}, nil
	}

	p := world.SmallTestParams()
	p.Seed = 1
	if !g.Request(p) {
		t.Fatal("first request should start a run")
	}
	<-started

	for _, s := range []int64{2, 3, 4} {
		p.Seed = s
		if g.Request(p) {
			t.Fatalf("request %d started while busy", s)
		}
	}
	if !g.Busy() {
		t.Fatal("generator not busy")
	}

	close(release)
	g.Wait()

	mu.Lock()
	defer mu.Unlock()
	if !slices.Equal(done, []int64{1, 4}) {
		t.Fatalf("completed seeds = %v, want [1 4]", done)
	}
}

func TestStageLoggerAbortsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := Generate(ctx, world.SmallTestParams())
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
}

func TestGenerateManyKeepsOrder(t *testing.T) {
	a := world.SmallTestParams()
	b := world.SmallTestParams()
	b.Seed = 7
	ws, err := GenerateMany(context.Background(), []world.Params{a, b})
	if err != nil {
		t.Fatalf("GenerateMany: %v", err)
	}
	if len(ws) != 2 || ws[0].Params.Seed != a.Seed || ws[1].Params.Seed != b.Seed {
		t.Fatalf("unexpected worlds: %d", len(ws))
	}
	solo := world.Generate(b)
	if !slices.Equal(solo.Elevation.Data, ws[1].Elevation.Data) {
		t.Fatal("concurrent generation differs from a solo run")
	}
}

func TestEngineSpeedAndEpochAcrossGoroutines(t *testing.T) {
	e := NewEngine(0)
	e.Interval = time.Millisecond
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan error, 1)
	go func() { done <- e.Run(ctx) }()

	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				e.SetSpeed(float64(1 + (i+j)%4))
				_ = e.Speed()
				_ = e.Epoch()
			}
		}(i)
	}
	wg.Wait()

	deadline := time.Now().Add(5 * time.Second)
	for e.Epoch() < 3 {
		if time.Now().After(deadline) {
			t.Fatalf("engine stuck at epoch %d", e.Epoch())
		}
		time.Sleep(time.Millisecond)
	}
	cancel()
	if err := <-done; !errors.Is(err, context.Canceled) {
		t.Fatalf("Run error = %v, want context.Canceled", err)
	}
}

func TestSetSpeedRejectsNegative(t *testing.T) {
	e := NewEngine(0)
	if e.Speed() != 1 {
		t.Fatalf("default speed = %v", e.Speed())
	}
	e.SetSpeed(-3)
	if e.Speed() != 0 {
		t.Fatalf("negative speed stored as %v, want 0", e.Speed())
	}
}
