package config

import (
	"io"
	"log/slog"

	"github.com/natefinch/lumberjack"
)

// LogFileSpec configures an optional rotating log file written alongside
// the console.
type LogFileSpec struct {
	Path       string `yaml:"path"`
	MaxSizeMB  int    `yaml:"max_size_mb"`
	MaxBackups int    `yaml:"max_backups"`
	MaxAgeDays int    `yaml:"max_age_days"`
	Compress   bool   `yaml:"compress"`
}

// Logger builds the process logger: text to console, plus the rotating file
// when one is configured. The returned close func flushes the file.
func (c Config) Logger(console io.Writer) (*slog.Logger, func() error) {
	level, _ := c.Level()
	out := console
	closeFn := func() error { return nil }

	if c.LogFile.Path != "" {
		file := &lumberjack.Logger{
			Filename:   c.LogFile.Path,
			MaxSize:    max(1, c.LogFile.MaxSizeMB),
			MaxBackups: max(0, c.LogFile.MaxBackups),
			MaxAge:     max(0, c.LogFile.MaxAgeDays),
			Compress:   c.LogFile.Compress,
		}
		out = io.MultiWriter(console, file)
		closeFn = file.Close
	}

	return slog.New(slog.NewTextHandler(out, &slog.HandlerOptions{Level: level})), closeFn
}
