package reconciler

import (
	"context"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/starford/merely/internal/apperr"
)

// watchDebounce coalesces bursts of file events into one Rebuild pass.
const watchDebounce = 200 * time.Millisecond

// Watch mirrors changes made to the vault outside this process into the
// index until ctx is cancelled. Any create, remove or rename of a .md file
// (or a new directory) schedules a debounced Rebuild.
func (r *Reconciler) Watch(ctx context.Context) error {
	root, err := r.store.Abs("")
	if err != nil {
		return apperr.Storage("watcher: root", err)
	}

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return apperr.Storage("watcher: init", err)
	}
	defer w.Close()

	if err := addDirsRecursive(w, root); err != nil {
		return apperr.Storage("watcher: add dirs", err)
	}

	r.logger.Info("watcher: started", slog.String("root", root))

	var rebuildTimer *time.Timer
	var rebuildCh <-chan time.Time

	scheduleRebuild := func() {
		if rebuildTimer == nil {
			rebuildTimer = time.NewTimer(watchDebounce)
			rebuildCh = rebuildTimer.C
		} else {
			rebuildTimer.Reset(watchDebounce)
		}
	}

	for {
		select {
		case <-ctx.Done():
			if rebuildTimer != nil {
				rebuildTimer.Stop()
			}
			r.logger.Info("watcher: stopped")
			return nil

		case <-rebuildCh:
			stats, err := r.Rebuild(ctx)
			if err != nil {
				r.logger.Warn("watcher: rebuild failed", slog.String("error", err.Error()))
				continue
			}
			if stats.Added > 0 || stats.Removed > 0 {
				r.logger.Debug("watcher: rebuilt",
					slog.Int("added", stats.Added), slog.Int("removed", stats.Removed))
			}

		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}

			if ev.Op&fsnotify.Create != 0 {
				if info, statErr := os.Stat(ev.Name); statErr == nil && info.IsDir() {
					if addErr := addDirsRecursive(w, ev.Name); addErr != nil {
						r.logger.Warn("watcher: add new dir failed",
							slog.String("path", ev.Name),
							slog.String("error", addErr.Error()))
					}
					scheduleRebuild()
					continue
				}
			}

			if !strings.HasSuffix(strings.ToLower(ev.Name), ".md") {
				continue
			}
			if ev.Op&(fsnotify.Create|fsnotify.Remove|fsnotify.Rename) != 0 {
				scheduleRebuild()
			}

		case watchErr, ok := <-w.Errors:
			if !ok {
				return nil
			}
			r.logger.Error("watcher: error", slog.String("error", watchErr.Error()))
		}
	}
}

// addDirsRecursive adds root and all its subdirectories to the watcher.
func addDirsRecursive(w *fsnotify.Watcher, root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return w.Add(path)
		}
		return nil
	})
}
