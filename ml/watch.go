package ml

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// ArtifactWatcher reports changes to loaded artifact files. Artifacts are
// never reloaded in place; a change only produces a warning so operators
// know a restart is needed.
type ArtifactWatcher struct {
	watcher *fsnotify.Watcher
	paths   map[string]bool
	logger  *zap.Logger

	// OnChange is called for every write, rename or removal of a watched file.
	OnChange func(path string)
}

func NewArtifactWatcher(logger *zap.Logger, paths ...string) (*ArtifactWatcher, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create watcher: %w", err)
	}
	aw := &ArtifactWatcher{
		watcher: w,
		paths:   make(map[string]bool, len(paths)),
		logger:  logger,
	}
	dirs := make(map[string]bool)
	for _, p := range paths {
		abs, err := filepath.Abs(p)
		if err != nil {
			w.Close()
			return nil, err
		}
		aw.paths[abs] = true
		dirs[filepath.Dir(abs)] = true
	}
	// Watch directories: artifact exports usually replace the file.
	for dir := range dirs {
		if err := w.Add(dir); err != nil {
			w.Close()
			return nil, fmt.Errorf("watch %s: %w", dir, err)
		}
	}
	return aw, nil
}

// Run blocks until ctx is done.
func (aw *ArtifactWatcher) Run(ctx context.Context) {
	defer aw.watcher.Close()
	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-aw.watcher.Events:
			if !ok {
				return
			}
			if !aw.paths[filepath.Clean(event.Name)] {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Remove) && !event.Has(fsnotify.Rename) {
				continue
			}
			aw.logger.Warn("artifact changed on disk; restart to load it",
				zap.String("path", event.Name),
				zap.String("op", event.Op.String()))
			if aw.OnChange != nil {
				aw.OnChange(event.Name)
			}
		case err, ok := <-aw.watcher.Errors:
			if !ok {
				return
			}
			aw.logger.Error("artifact watcher error", zap.Error(err))
		}
	}
}
