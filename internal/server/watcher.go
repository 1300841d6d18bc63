package server

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// watcher watches the docs tree recursively and calls onChange after the
// debounce window closes. New directories are added to the watch as they
// appear.
type watcher struct {
	fs       *fsnotify.Watcher
	root     string
	debounce time.Duration
	onChange func()

	mu    sync.Mutex
	timer *time.Timer
}

func newWatcher(root string, debounce time.Duration, onChange func()) (*watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create fsnotify watcher: %w", err)
	}
	w := &watcher{fs: fsw, root: root, debounce: debounce, onChange: onChange}
	if err := w.addDirsRecursive(root); err != nil {
		_ = fsw.Close()
		return nil, err
	}
	return w, nil
}

// run processes filesystem events until the context is canceled.
func (w *watcher) run(ctx context.Context) {
	defer w.fs.Close()
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-w.fs.Events:
			if !ok {
				return
			}
			w.handleEvent(ev)
		case err, ok := <-w.fs.Errors:
			if !ok {
				return
			}
			slog.Warn("Watcher error", "error", err)
		}
	}
}

func (w *watcher) handleEvent(ev fsnotify.Event) {
	if shouldIgnorePath(ev.Name) {
		return
	}
	if ev.Op&fsnotify.Create != 0 {
		// A created directory needs its own watch before events fire in it.
		if err := w.addDirsRecursive(ev.Name); err != nil {
			slog.Debug("Watch add failed", "path", ev.Name, "error", err)
		}
	}
	slog.Debug("File change detected", "path", ev.Name, "op", ev.Op.String())
	w.trigger()
}

func (w *watcher) trigger() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.timer != nil {
		w.timer.Stop()
	}
	w.timer = time.AfterFunc(w.debounce, w.onChange)
}

func (w *watcher) addDirsRecursive(root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if !d.IsDir() {
			return nil
		}
		if shouldIgnorePath(path) && path != root {
			return filepath.SkipDir
		}
		if err := w.fs.Add(path); err != nil {
			slog.Warn("Watch add failed", "dir", path, "error", err)
		}
		return nil
	})
}

// shouldIgnorePath filters hidden files and editor temp/swap files so saves
// do not trigger double rebuilds.
func shouldIgnorePath(path string) bool {
	base := filepath.Base(path)
	if strings.HasPrefix(base, ".") {
		return true
	}
	if strings.HasSuffix(base, "~") ||
		strings.HasSuffix(base, ".swp") ||
		strings.HasSuffix(base, ".swx") ||
		strings.HasSuffix(base, ".tmp") ||
		(strings.HasPrefix(base, "#") && strings.HasSuffix(base, "#")) {
		return true
	}
	return base == "Thumbs.db"
}
