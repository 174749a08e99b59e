package config

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// reloadDelay collapses the burst of events editors emit for one save.
const reloadDelay = 150 * time.Millisecond

// Watcher reloads a config file whenever it changes on disk.
type Watcher struct {
	path string
	fw   *fsnotify.Watcher
}

// NewWatcher starts watching path. The parent directory is watched so
// rename-on-save editors keep working.
func NewWatcher(path string) (*Watcher, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("watch config: %w", err)
	}
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("watch config: %w", err)
	}
	if err := fw.Add(filepath.Dir(abs)); err != nil {
		fw.Close()
		return nil, fmt.Errorf("watch config: %w", err)
	}
	return &Watcher{path: abs, fw: fw}, nil
}

// Run calls onChange with every config that loads cleanly after a change.
// Invalid edits are logged and skipped. Blocks until ctx is done.
func (w *Watcher) Run(ctx context.Context, onChange func(Config)) error {
	defer w.fw.Close()

	var timer *time.Timer
	var fire <-chan time.Time
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case ev, ok := <-w.fw.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != w.path || !(ev.Has(fsnotify.Write) || ev.Has(fsnotify.Create)) {
				continue
			}
			if timer == nil {
				timer = time.NewTimer(reloadDelay)
			} else {
				timer.Reset(reloadDelay)
			}
			fire = timer.C

		case err, ok := <-w.fw.Errors:
			if !ok {
				return nil
			}
			slog.Warn("config watch error", "error", err)

		case <-fire:
			fire = nil
			cfg, err := Load(w.path)
			if err != nil {
				slog.Warn("config reload rejected", "path", w.path, "error", err)
				continue
			}
			slog.Info("config reloaded", "path", w.path)
			onChange(cfg)
		}
	}
}
