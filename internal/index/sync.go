package index

import (
	"errors"
	"log/slog"
	"time"

	"github.com/starford/recently/internal/apperr"
	"github.com/starford/recently/internal/checksum"
	"github.com/starford/recently/internal/site"
	"github.com/starford/recently/internal/storage"
)

// Stats summarises one Sync pass.
type Stats struct {
	Indexed  int `json:"indexed"`
	Skipped  int `json:"skipped"`
	Removed  int `json:"removed"`
	NotPages int `json:"not_pages"`
}

// Sync walks the site and brings the index up to date:
//   - new/changed files are parsed and upserted
//   - files that are not pages (no front matter, unpublished) are marked as such
//   - files removed from disk are deleted from the index
//
// Zone-less front matter dates are read in loc.
func Sync(db *DB, store storage.Provider, loc *time.Location, logger *slog.Logger) (Stats, error) {
	var st Stats
	if err := db.EnsureLocation(loc); err != nil {
		return st, err
	}

	metas, err := store.List("")
	if err != nil {
		return st, err
	}

	checksums, err := db.AllChecksums()
	if err != nil {
		return st, err
	}

	disk := make(map[string]struct{}, len(metas))
	for _, m := range metas {
		disk[m.Path] = struct{}{}

		if checksums[m.Path] == m.Checksum {
			st.Skipped++
			continue
		}

		data, err := store.Read(m.Path)
		if err != nil {
			logger.Warn("sync: read failed", slog.String("path", m.Path), slog.String("error", err.Error()))
			continue
		}
		isPage, err := indexFile(db, m.Path, data, loc, logger)
		switch {
		case err != nil:
			logger.Warn("sync: index failed", slog.String("path", m.Path), slog.String("error", err.Error()))
		case isPage:
			st.Indexed++
			logger.Debug("sync: indexed", slog.String("path", m.Path))
		default:
			st.NotPages++
			logger.Debug("sync: not a page", slog.String("path", m.Path))
		}
	}

	// Remove stale entries.
	for p := range checksums {
		if _, ok := disk[p]; !ok {
			if err := db.DeletePage(p); err != nil {
				logger.Warn("sync: delete failed", slog.String("path", p), slog.String("error", err.Error()))
			} else {
				st.Removed++
				logger.Debug("sync: removed stale", slog.String("path", p))
			}
		}
	}

	return st, nil
}

// indexFile parses data and stores it in the DB. It reports whether the file
// is a page.
func indexFile(db *DB, path string, data []byte, loc *time.Location, logger *slog.Logger) (bool, error) {
	cs := checksum.Sum(data)
	p, res, err := site.LoadPage(path, data, loc)
	if res != nil {
		for _, w := range res.Warnings {
			logger.Warn("index: front matter", slog.String("path", path), slog.String("warning", w))
		}
	}
	if errors.Is(err, apperr.ErrNotAPage) {
		return false, db.MarkNotPage(path, cs)
	}
	if err != nil {
		return false, err
	}
	return true, db.UpsertPage(p, cs)
}
