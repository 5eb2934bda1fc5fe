package ml

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestArtifactWatcherReportsChanges(t *testing.T) {
	dir := t.TempDir()
	model := filepath.Join(dir, "model.json")
	other := filepath.Join(dir, "notes.txt")
	if err := os.WriteFile(model, []byte("{}"), 0o644); err != nil {
		t.Fatal(err)
	}

	core, logs := observer.New(zap.WarnLevel)
	aw, err := NewArtifactWatcher(zap.New(core), model)
	if err != nil {
		t.Fatalf("NewArtifactWatcher: %v", err)
	}
	changed := make(chan string, 8)
	aw.OnChange = func(path string) { changed <- path }

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go aw.Run(ctx)

	if err := os.WriteFile(other, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(model, []byte(`{"kind":"linear"}`), 0o644); err != nil {
		t.Fatal(err)
	}

	select {
	case path := <-changed:
		if filepath.Base(path) != "model.json" {
			t.Fatalf("unexpected path %s", path)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("no change reported")
	}
	if logs.FilterMessage("artifact changed on disk; restart to load it").Len() == 0 {
		t.Fatal("expected a warning for the changed artifact")
	}
}

func TestArtifactWatcherMissingDirectory(t *testing.T) {
	_, err := NewArtifactWatcher(zap.NewNop(), filepath.Join(t.TempDir(), "missing", "model.json"))
	if err == nil {
		t.Fatal("expected error for missing directory")
	}
}
