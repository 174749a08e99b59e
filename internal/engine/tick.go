// Package engine drives world generation and epoch playback.
package engine

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"sync/atomic"
	"time"

	"github.com/talgya/worldforge/internal/social"
)

// EpochsPerAge groups epochs into named ages for display.
const EpochsPerAge = 10

// Engine advances the epoch counter on a fixed interval. Epoch and speed
// may be read and changed from other goroutines while Run is active; the
// remaining fields are set before Run.
type Engine struct {
	Interval time.Duration // Base epoch interval
	Until    int           // Stop after this epoch; 0 runs to social.MaxEpoch

	// OnEpoch runs after each advance.
	OnEpoch func(epoch int)
	// OnAge runs when an epoch opens a new age.
	OnAge func(epoch int)

	running atomic.Bool
	epoch   atomic.Int64
	speed   atomic.Uint64 // float64 bits; 1.0 = one epoch per Interval, 0 = paused
}

// NewEngine creates an engine with default settings.
func NewEngine(start int) *Engine {
	e := &Engine{Interval: time.Second}
	e.epoch.Store(int64(start))
	e.SetSpeed(1.0)
	return e
}

// Epoch returns the current epoch.
func (e *Engine) Epoch() int {
	return int(e.epoch.Load())
}

// Speed returns the current multiplier.
func (e *Engine) Speed() float64 {
	return math.Float64frombits(e.speed.Load())
}

// SetSpeed changes the multiplier. Negative values pause.
func (e *Engine) SetSpeed(v float64) {
	if v < 0 || math.IsNaN(v) {
		v = 0
	}
	e.speed.Store(math.Float64bits(v))
}

// Run advances epochs until ctx is done, Stop is called, or Until is
// reached. Blocks.
func (e *Engine) Run(ctx context.Context) error {
	e.running.Store(true)
	defer e.running.Store(false)
	slog.Info("epoch engine started", "epoch", e.Epoch(), "speed", e.Speed())

	until := e.Until
	if until <= 0 || until > social.MaxEpoch {
		until = social.MaxEpoch
	}

	for e.running.Load() && e.Epoch() < until {
		speed := e.Speed()
		if speed <= 0 {
			// Paused.
			if err := sleep(ctx, 100*time.Millisecond); err != nil {
				return err
			}
			continue
		}

		start := time.Now()
		e.Step()

		elapsed := time.Since(start)
		target := time.Duration(float64(e.Interval) / speed)
		if elapsed < target {
			if err := sleep(ctx, target-elapsed); err != nil {
				return err
			}
		}
	}

	slog.Info("epoch engine stopped", "epoch", e.Epoch())
	return nil
}

// Stop halts Run after the current epoch.
func (e *Engine) Stop() {
	e.running.Store(false)
}

// Running reports whether Run is active.
func (e *Engine) Running() bool {
	return e.running.Load()
}

// Step advances by one epoch.
func (e *Engine) Step() {
	epoch := int(e.epoch.Add(1))
	if e.OnEpoch != nil {
		e.OnEpoch(epoch)
	}
	if epoch%EpochsPerAge == 0 && e.OnAge != nil {
		e.OnAge(epoch)
	}
}

func sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

var ageNames = [...]string{"Dawn", "Stone", "Bronze", "Iron", "Kingdoms", "Empires", "Sails", "Ashes"}

// EpochLabel returns a human-readable age and epoch.
func EpochLabel(epoch int) string {
	age := epoch / EpochsPerAge
	name := ageNames[len(ageNames)-1]
	if age < len(ageNames) {
		name = ageNames[age]
	}
	return fmt.Sprintf("Age of %s, Epoch %d", name, epoch)
}
