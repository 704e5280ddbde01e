package internal

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
)

// revisionDetector is the slice of the Correlator the watcher drives.
type revisionDetector interface {
	DetectChange(ctx context.Context, projectRoot string)
}

// RevisionWatcher signals the correlator when a project's HEAD pointer
// or branch refs change on disk. Bursts of ref churn (rebases, pulls)
// debounce into a single detection per project.
type RevisionWatcher struct {
	watcher  *fsnotify.Watcher
	detector revisionDetector
	logger   *slog.Logger
	debounce time.Duration
	roots    map[string]string // watched dir -> project root
}

func NewRevisionWatcher(detector revisionDetector, logger *slog.Logger) (*RevisionWatcher, error) {
	if logger == nil {
		logger = slog.Default()
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create watcher: %w", err)
	}

	return &RevisionWatcher{
		watcher:  watcher,
		detector: detector,
		logger:   logger,
		debounce: 500 * time.Millisecond,
		roots:    make(map[string]string),
	}, nil
}

// Watch registers a project root. The .git directory and its branch
// refs are watched; everything else in the worktree is ignored.
func (w *RevisionWatcher) Watch(projectRoot string) error {
	gitDir := filepath.Join(projectRoot, ".git")
	if info, err := os.Stat(gitDir); err != nil || !info.IsDir() {
		return fmt.Errorf("watch %s: %w", projectRoot, ErrNoRepository)
	}

	dirs := []string{gitDir, filepath.Join(gitDir, "refs", "heads")}
	for _, dir := range dirs {
		if _, err := os.Stat(dir); err != nil {
			continue
		}
		if err := w.watcher.Add(dir); err != nil {
			return fmt.Errorf("add watch %s: %w", dir, err)
		}
		w.roots[dir] = projectRoot
	}

	return nil
}

func (w *RevisionWatcher) Close() error {
	return w.watcher.Close()
}

// Run dispatches debounced detections until ctx is cancelled or the
// watcher closes. Watch errors are logged and skipped.
func (w *RevisionWatcher) Run(ctx context.Context) {
	timer := time.NewTimer(0)
	if !timer.Stop() {
		<-timer.C
	}
	pending := make(map[string]struct{})

	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			root, relevant := w.projectFor(event)
			if !relevant {
				continue
			}
			if len(pending) == 0 {
				timer.Reset(w.debounce)
			}
			pending[root] = struct{}{}
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Warn("watch error", "error", err)
		case <-timer.C:
			for root := range pending {
				w.detector.DetectChange(ctx, root)
				delete(pending, root)
			}
		}
	}
}

// projectFor maps an event to the project root owning it, filtering
// out noise: only HEAD and ref mutations matter.
func (w *RevisionWatcher) projectFor(event fsnotify.Event) (string, bool) {
	if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) == 0 {
		return "", false
	}

	dir := filepath.Dir(event.Name)
	root, ok := w.roots[dir]
	if !ok {
		return "", false
	}

	base := filepath.Base(event.Name)
	if base == "HEAD" || strings.Contains(event.Name, filepath.Join("refs", "heads")) {
		return root, true
	}
	return "", false
}
