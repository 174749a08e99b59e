package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/talgya/worldforge/internal/world"
)

func TestDefaultMatchesWorldDefaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load(\"\"): %v", err)
	}
	p, err := cfg.Params()
	if err != nil {
		t.Fatalf("Params: %v", err)
	}
	if p.CacheKey() != world.DefaultParams().Clamp().CacheKey() {
		t.Fatalf("default config key %q differs from default params", p.CacheKey())
	}
}

func TestLoadOverridesAndClamps(t *testing.T) {
	path := filepath.Join(t.TempDir(), "worldforge.yaml")
	src := `
log_level: debug
world:
  seed: 99
  width: 128
  height: 64
  sea_level: 4.5
  morphology: archipelago
  tuning: Legacy
  knobs:
    continent_count: 9
society:
  epoch: 7
  aggression: 180
archive:
  enabled: true
  path: /tmp/w.db
`
	if err := os.WriteFile(path, []byte(src), 0o644); err != nil {
		t.Fatal(err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	p, err := cfg.Params()
	if err != nil {
		t.Fatalf("Params: %v", err)
	}
	if p.Seed != 99 || p.Width != 128 || p.Height != 64 {
		t.Fatalf("overrides not applied: %+v", p)
	}
	if p.SeaLevel != 0.99 {
		t.Fatalf("sea level = %v, want clamp to 0.99", p.SeaLevel)
	}
	if p.Morphology != world.MorphArchipelago || p.Tuning.Name != "Legacy" {
		t.Fatalf("morphology %v tuning %q", p.Morphology, p.Tuning.Name)
	}
	if p.Knobs.ContinentCount != 4 {
		t.Fatalf("continent count = %d, want 4", p.Knobs.ContinentCount)
	}
	// Untouched fields keep their defaults.
	if p.PlateCount != world.DefaultParams().PlateCount {
		t.Fatalf("plate count = %d", p.PlateCount)
	}
	if k := cfg.Society.Clamp(); k.Epoch != 7 || k.Aggression != 100 {
		t.Fatalf("society = %+v", k)
	}
	if !cfg.Archive.Enabled || cfg.Archive.Path != "/tmp/w.db" {
		t.Fatalf("archive = %+v", cfg.Archive)
	}
	if l, _ := cfg.Level(); l != slog.LevelDebug {
		t.Fatalf("level = %v", l)
	}
}

func TestParseRejectsUnknownNames(t *testing.T) {
	cases := map[string]string{
		"morphology": "world:\n  morphology: pangaea\n",
		"tuning":     "world:\n  tuning: vivid\n",
		"log level":  "log_level: loud\n",
	}
	for name, src := range cases {
		if _, err := Parse([]byte(src)); err == nil {
			t.Errorf("%s: expected error", name)
		}
	}
	if _, err := Parse([]byte("world: [")); err == nil || !strings.Contains(err.Error(), "config yaml") {
		t.Fatalf("malformed yaml error = %v", err)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Fatal("expected error for missing file")
	}
}
