package index

import (
	"context"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/starford/recently/internal/storage"
)

// Event kinds passed to EventCallback.
const (
	EventCreated = "created"
	EventUpdated = "updated"
	EventDeleted = "deleted"
)

// EventCallback is called after a watcher-driven change to the set of pages.
// kind is one of EventCreated, EventUpdated, EventDeleted. A file that stops
// being a page is reported as deleted, one that becomes a page as created.
type EventCallback func(kind string, path string)

const reconcileDelay = 200 * time.Millisecond

// Watch starts an fsnotify watcher on the site root and processes file
// change events until ctx is cancelled. It calls cb (if non-nil) after
// each change to the page set.
//
// New directories created at runtime are automatically added to the watch
// list unless storage ignores them. Rename events trigger a reconciliation
// pass that removes stale index entries whose files no longer exist on disk.
func Watch(ctx context.Context, db *DB, store storage.Provider, root string, loc *time.Location, logger *slog.Logger, cb EventCallback) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()

	if err := addDirsRecursive(w, root); err != nil {
		return err
	}

	logger.Info("watcher: started", slog.String("root", root))

	emit := func(kind, path string) {
		if cb != nil && kind != "" {
			cb(kind, path)
		}
	}

	// reconcileTimer debounces rename reconciliation.
	var reconcileTimer *time.Timer
	var reconcileCh <-chan time.Time

	scheduleReconcile := func() {
		if reconcileTimer == nil {
			reconcileTimer = time.NewTimer(reconcileDelay)
			reconcileCh = reconcileTimer.C
		} else {
			reconcileTimer.Reset(reconcileDelay)
		}
	}

	for {
		select {
		case <-ctx.Done():
			if reconcileTimer != nil {
				reconcileTimer.Stop()
			}
			logger.Info("watcher: stopped")
			return nil

		case <-reconcileCh:
			reconcile(db, store, loc, logger, emit)

		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}

			absPath := ev.Name

			if ev.Op&fsnotify.Create != 0 {
				if info, statErr := os.Stat(absPath); statErr == nil && info.IsDir() {
					if storage.IsIgnoredDir(info.Name()) {
						continue
					}
					if addErr := addDirsRecursive(w, absPath); addErr != nil {
						logger.Warn("watcher: add new dir failed",
							slog.String("path", absPath),
							slog.String("error", addErr.Error()))
					} else {
						logger.Debug("watcher: watching new dir", slog.String("path", absPath))
					}
					// Files may have landed before the watch was added.
					scheduleReconcile()
					continue
				}
			}

			if !storage.IsContentFile(absPath) {
				continue
			}

			rel, relErr := filepath.Rel(root, absPath)
			if relErr != nil {
				continue
			}
			rel = filepath.ToSlash(rel)

			switch {
			case ev.Op&(fsnotify.Create|fsnotify.Write) != 0:
				data, readErr := store.Read(rel)
				if readErr != nil {
					logger.Warn("watcher: read failed", slog.String("path", rel), slog.String("error", readErr.Error()))
					continue
				}
				kind, idxErr := applyFile(db, rel, data, loc, logger)
				if idxErr != nil {
					logger.Warn("watcher: index failed", slog.String("path", rel), slog.String("error", idxErr.Error()))
					continue
				}
				logger.Debug("watcher: indexed", slog.String("path", rel), slog.String("op", kind))
				emit(kind, rel)

			case ev.Op&fsnotify.Remove != 0:
				kind, delErr := removeFile(db, rel)
				if delErr != nil {
					logger.Warn("watcher: delete failed", slog.String("path", rel), slog.String("error", delErr.Error()))
					continue
				}
				logger.Debug("watcher: deleted", slog.String("path", rel))
				emit(kind, rel)

			case ev.Op&fsnotify.Rename != 0:
				// fsnotify fires Rename on the old path only. The new path
				// arrives as a separate Create when it stays in a watched dir.
				kind, delErr := removeFile(db, rel)
				if delErr != nil {
					logger.Warn("watcher: rename delete failed", slog.String("path", rel), slog.String("error", delErr.Error()))
				} else {
					logger.Debug("watcher: rename old deleted", slog.String("path", rel))
					emit(kind, rel)
				}
				scheduleReconcile()
			}

		case watchErr, ok := <-w.Errors:
			if !ok {
				return nil
			}
			logger.Error("watcher: error", slog.String("error", watchErr.Error()))
		}
	}
}

// applyFile indexes one file and returns the page event it caused, or "" when
// the page set did not change.
func applyFile(db *DB, rel string, data []byte, loc *time.Location, logger *slog.Logger) (string, error) {
	wasPage, err := db.IsPage(rel)
	if err != nil {
		return "", err
	}
	isPage, err := indexFile(db, rel, data, loc, logger)
	if err != nil {
		return "", err
	}
	switch {
	case isPage && wasPage:
		return EventUpdated, nil
	case isPage:
		return EventCreated, nil
	case wasPage:
		return EventDeleted, nil
	}
	return "", nil
}

// removeFile drops rel from the index and returns EventDeleted if it was a page.
func removeFile(db *DB, rel string) (string, error) {
	wasPage, err := db.IsPage(rel)
	if err != nil {
		return "", err
	}
	if err := db.DeletePage(rel); err != nil {
		return "", err
	}
	if wasPage {
		return EventDeleted, nil
	}
	return "", nil
}

// reconcile does a lightweight sync using batch lookups: it removes index
// entries without a file on disk and indexes files whose checksum changed.
func reconcile(db *DB, store storage.Provider, loc *time.Location, logger *slog.Logger, emit func(kind, path string)) {
	checksums, err := db.AllChecksums()
	if err != nil {
		logger.Warn("reconcile: all checksums failed", slog.String("error", err.Error()))
		return
	}

	metas, err := store.List("")
	if err != nil {
		logger.Warn("reconcile: list failed", slog.String("error", err.Error()))
		return
	}

	disk := make(map[string]string, len(metas))
	for _, m := range metas {
		disk[m.Path] = m.Checksum
	}

	for p := range checksums {
		if _, ok := disk[p]; !ok {
			kind, delErr := removeFile(db, p)
			if delErr == nil {
				logger.Debug("reconcile: removed stale", slog.String("path", p))
				emit(kind, p)
			}
		}
	}

	for p, cs := range disk {
		if checksums[p] == cs {
			continue
		}
		data, readErr := store.Read(p)
		if readErr != nil {
			continue
		}
		kind, idxErr := applyFile(db, p, data, loc, logger)
		if idxErr == nil {
			logger.Debug("reconcile: indexed", slog.String("path", p))
			emit(kind, p)
		}
	}
}

// addDirsRecursive adds root and all its non-ignored subdirectories to the watcher.
func addDirsRecursive(w *fsnotify.Watcher, root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if path != root && storage.IsIgnoredDir(d.Name()) {
			return filepath.SkipDir
		}
		return w.Add(path)
	})
}
