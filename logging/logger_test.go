package logging

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"flightfare/config"
)

func TestNewWritesRotatedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "flightfare.log")
	logger, err := New(config.LogConfig{Level: "info", File: path, MaxSizeMB: 1})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	logger.Info("artifact loaded")
	logger.Debug("hidden at info level")
	_ = logger.Sync()

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	if !strings.Contains(string(data), "artifact loaded") {
		t.Fatalf("expected message in log file, got %q", data)
	}
	if strings.Contains(string(data), "hidden at info level") {
		t.Fatal("debug message should be filtered at info level")
	}
}

func TestNewRejectsBadSettings(t *testing.T) {
	if _, err := New(config.LogConfig{Level: "loud"}); err == nil {
		t.Fatal("expected error for unknown level")
	}
	if _, err := New(config.LogConfig{Level: "info", Format: "xml"}); err == nil {
		t.Fatal("expected error for unknown format")
	}
}
