package config

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestLoggerConsoleOnly(t *testing.T) {
	var buf bytes.Buffer
	logger, closeFn := Default().Logger(&buf)
	logger.Info("hello", "n", 3)
	logger.Debug("hidden")
	if err := closeFn(); err != nil {
		t.Fatal(err)
	}
	out := buf.String()
	if !strings.Contains(out, "msg=hello") || !strings.Contains(out, "n=3") {
		t.Fatalf("console output = %q", out)
	}
	if strings.Contains(out, "hidden") {
		t.Fatal("debug line written at info level")
	}
}

func TestLoggerWritesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "worldforge.log")
	cfg := Default()
	cfg.LogLevel = "debug"
	cfg.LogFile = LogFileSpec{Path: path, MaxSizeMB: 1}

	var buf bytes.Buffer
	logger, closeFn := cfg.Logger(&buf)
	logger.Debug("plates done", "seed", 7)
	if err := closeFn(); err != nil {
		t.Fatal(err)
	}

	b, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	if !strings.Contains(string(b), "plates done") || !strings.Contains(buf.String(), "plates done") {
		t.Fatalf("file %q console %q", b, buf.String())
	}
}
