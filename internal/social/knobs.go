// Package social layers ecology and civilization simulation over a
// generated world. Everything here is recomputed from the physical grids
// and a small set of knobs; nothing is carried between invocations.
package social

import (
	"encoding/binary"
	"math"

	"github.com/cespare/xxhash/v2"

	"github.com/talgya/worldforge/internal/world"
)

// Knobs are the social-layer parameters. Percentages run 0–100.
type Knobs struct {
	Epoch      int     `yaml:"epoch" json:"epoch"`
	Aggression float64 `yaml:"aggression" json:"aggression"` // Civil aggression
	Diversity  float64 `yaml:"diversity" json:"diversity"`   // Species diversity
	Magic      float64 `yaml:"magic" json:"magic"`           // Arcane density
}

// MaxEpoch bounds the epoch knob.
const MaxEpoch = 10000

// DefaultKnobs returns mid-range social settings.
func DefaultKnobs() Knobs {
	return Knobs{Epoch: 12, Aggression: 40, Diversity: 55, Magic: 30}
}

// Clamp forces every knob into range. Non-finite values take the default.
func (k Knobs) Clamp() Knobs {
	d := DefaultKnobs()
	if k.Epoch < 0 {
		k.Epoch = 0
	}
	if k.Epoch > MaxEpoch {
		k.Epoch = MaxEpoch
	}
	k.Aggression = clampPct(k.Aggression, d.Aggression)
	k.Diversity = clampPct(k.Diversity, d.Diversity)
	k.Magic = clampPct(k.Magic, d.Magic)
	return k
}

func clampPct(v, fallback float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return fallback
	}
	return math.Max(0, math.Min(100, v))
}

// Unit-scale accessors.
func (k Knobs) agg() float64   { return k.Aggression / 100 }
func (k Knobs) div() float64   { return k.Diversity / 100 }
func (k Knobs) magic() float64 { return k.Magic / 100 }

// Signature hashes the clamped knobs and map size. Two calls with equal
// signatures produce identical ecology and civilization results for the
// same physical world.
func Signature(k Knobs, d world.Dims) uint64 {
	k = k.Clamp()
	h := xxhash.New()
	var buf [8]byte
	put := func(v uint64) {
		binary.LittleEndian.PutUint64(buf[:], v)
		_, _ = h.Write(buf[:])
	}
	put(uint64(k.Epoch))
	put(math.Float64bits(k.Aggression))
	put(math.Float64bits(k.Diversity))
	put(math.Float64bits(k.Magic))
	put(uint64(d.W))
	put(uint64(d.H))
	return h.Sum64()
}

// Saturation is the epoch growth curve 1 − e^(−epoch·rate), where rate
// rises with diversity.
func Saturation(k Knobs) float64 {
	k = k.Clamp()
	rate := 0.08 + 0.12*k.div()
	return 1 - math.Exp(-float64(k.Epoch)*rate)
}

func clamp01(v float64) float64 {
	if math.IsNaN(v) {
		return 0
	}
	return math.Max(0, math.Min(1, v))
}

// bell is a Gaussian suitability curve centered on ideal.
func bell(v, ideal, width float64) float64 {
	d := (v - ideal) / width
	return math.Exp(-d * d)
}
