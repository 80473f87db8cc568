package watcher

import (
	"context"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/ragmcp/ragmcp/internal/ragerr"
)

// Watcher recursively watches a root directory with fsnotify and feeds
// every raw event into a Debouncer, producing one coalesced event per
// changed path on Events().
type Watcher struct {
	root      string
	fsWatcher *fsnotify.Watcher
	debouncer *Debouncer
	logger    *slog.Logger
}

// New creates a watcher rooted at root with the given debounce window
// (0 uses DefaultWindow). The underlying fsnotify watcher is opened
// but watching does not start until Run.
func New(root string, window time.Duration, logger *slog.Logger) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, ragerr.Wrap(ragerr.IO, err)
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Watcher{
		root:      root,
		fsWatcher: fsw,
		debouncer: NewDebouncer(window),
		logger:    logger,
	}, nil
}

// Events returns the channel of debounced, per-path file events.
func (w *Watcher) Events() <-chan FileEvent {
	return w.debouncer.Output()
}

// Run adds every directory under root to the fsnotify watcher, then
// dispatches raw events into the debouncer until ctx is cancelled. It
// blocks; call it from its own goroutine.
func (w *Watcher) Run(ctx context.Context) error {
	if err := w.addRecursive(w.root); err != nil {
		return ragerr.Wrap(ragerr.IO, err)
	}

	defer w.debouncer.Stop()
	defer w.fsWatcher.Close()

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-w.fsWatcher.Events:
			if !ok {
				return nil
			}
			w.handle(event)
		case err, ok := <-w.fsWatcher.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("watcher error", slog.Any("error", err))
		}
	}
}

func (w *Watcher) handle(event fsnotify.Event) {
	relPath, err := filepath.Rel(w.root, event.Name)
	if err != nil {
		relPath = event.Name
	}
	relPath = filepath.ToSlash(relPath)

	var op Operation
	switch {
	case event.Op&fsnotify.Create != 0:
		op = OpCreate
		if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
			if err := w.fsWatcher.Add(event.Name); err != nil {
				w.logger.Warn("failed to watch new directory", slog.String("path", event.Name), slog.Any("error", err))
			}
			return
		}
	case event.Op&fsnotify.Write != 0:
		op = OpModify
	case event.Op&fsnotify.Remove != 0:
		op = OpDelete
	case event.Op&fsnotify.Rename != 0:
		op = OpRename
	default:
		return
	}

	w.debouncer.Add(FileEvent{Path: relPath, Operation: op, Timestamp: time.Now()})
}

func (w *Watcher) addRecursive(root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if !d.IsDir() {
			return nil
		}
		return w.fsWatcher.Add(path)
	})
}
