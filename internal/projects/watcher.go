package projects

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Watcher reloads a Library whenever its projects file changes on disk.
// The parent directory is watched because editors often replace files by
// rename.
type Watcher struct {
	path     string
	library  *Library
	debounce time.Duration
	onReload func()
}

// NewWatcher creates a Watcher for path. onReload may be nil.
func NewWatcher(path string, library *Library, onReload func()) *Watcher {
	return &Watcher{
		path:     filepath.Clean(path),
		library:  library,
		debounce: 300 * time.Millisecond,
		onReload: onReload,
	}
}

// Run watches until ctx is cancelled.
func (w *Watcher) Run(ctx context.Context) error {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer fw.Close()

	if err := fw.Add(filepath.Dir(w.path)); err != nil {
		return fmt.Errorf("watch %s: %w", filepath.Dir(w.path), err)
	}
	slog.Info("watching projects file", "path", w.path)

	var timer *time.Timer
	var fire <-chan time.Time
	for {
		select {
		case <-ctx.Done():
			if timer != nil {
				timer.Stop()
			}
			return nil
		case ev, ok := <-fw.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != w.path || !ev.Has(fsnotify.Write|fsnotify.Create|fsnotify.Rename) {
				continue
			}
			if timer != nil {
				timer.Stop()
			}
			timer = time.NewTimer(w.debounce)
			fire = timer.C
		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			slog.Warn("projects watcher error", "error", err)
		case <-fire:
			fire = nil
			w.reload()
		}
	}
}

func (w *Watcher) reload() {
	list, err := ReadFile(w.path)
	if err == nil {
		err = w.library.Replace(list)
	}
	if err != nil {
		slog.Error("reload projects failed, keeping previous set", "path", w.path, "error", err)
		return
	}
	slog.Info("projects reloaded", "path", w.path, "count", len(list))
	if w.onReload != nil {
		w.onReload()
	}
}
