package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestWatcherReloadsOnWrite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "worldforge.yaml")
	if err := os.WriteFile(path, []byte("world:\n  seed: 1\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	w, err := NewWatcher(path)
	if err != nil {
		t.Fatalf("NewWatcher: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	got := make(chan Config, 4)
	go w.Run(ctx, func(c Config) { got <- c })

	// An invalid edit is skipped; the following valid one is delivered.
	if err := os.WriteFile(path, []byte("world:\n  morphology: pangaea\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	time.Sleep(4 * reloadDelay)
	if err := os.WriteFile(path, []byte("world:\n  seed: 77\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	select {
	case c := <-got:
		if c.World.Seed != 77 {
			t.Fatalf("reloaded seed = %d, want 77", c.World.Seed)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("no reload within 5s")
	}
}

func TestWatcherIgnoresSiblings(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "worldforge.yaml")
	if err := os.WriteFile(path, []byte("world:\n  seed: 1\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	w, err := NewWatcher(path)
	if err != nil {
		t.Fatal(err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	got := make(chan Config, 1)
	go w.Run(ctx, func(c Config) { got <- c })

	if err := os.WriteFile(filepath.Join(dir, "other.yaml"), []byte("x: 1\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	select {
	case <-got:
		t.Fatal("reload fired for another file")
	case <-time.After(5 * reloadDelay):
	}
}
