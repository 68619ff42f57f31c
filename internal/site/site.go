// Package site turns content files into pages the way a Jekyll build would.
package site

import (
	"fmt"
	"log/slog"
	"path"
	"strings"
	"time"

	"github.com/starford/recently/internal/apperr"
	"github.com/starford/recently/internal/models"
	"github.com/starford/recently/internal/parser"
	"github.com/starford/recently/internal/storage"
)

// URLFor returns the public URL of the content file at relPath.
// A non-empty permalink from front matter wins.
//
//	docs/guide.md  -> /docs/guide.html
//	docs/index.md  -> /docs/
//	index.md       -> /
func URLFor(relPath, permalink string) string {
	if permalink != "" {
		if !strings.HasPrefix(permalink, "/") {
			permalink = "/" + permalink
		}
		return permalink
	}
	rel := strings.TrimPrefix(path.Clean("/"+strings.ReplaceAll(relPath, "\\", "/")), "/")
	dir, file := path.Split(rel)
	base := strings.TrimSuffix(file, path.Ext(file))
	if base == "index" {
		return "/" + dir
	}
	return "/" + dir + base + ".html"
}

// LoadPage parses a content file into a page. Zone-less dates are read in loc.
// It returns apperr.ErrNotAPage for files without front matter and for
// unpublished files; those are static files to the generator.
func LoadPage(relPath string, data []byte, loc *time.Location) (models.Page, *parser.Result, error) {
	res, err := parser.ParseInLocation(data, loc)
	if err != nil {
		return models.Page{}, nil, fmt.Errorf("site: parse %s: %w", relPath, err)
	}
	if !res.HasFrontMatter || !res.Published {
		return models.Page{}, res, apperr.ErrNotAPage
	}
	return models.Page{
		Path:        relPath,
		URL:         URLFor(relPath, res.Permalink),
		Title:       res.Title,
		Date:        res.Date,
		Description: res.Description,
	}, res, nil
}

// Scan reads every content file from store and returns the pages in path order.
// Files that fail to read are logged and skipped.
func Scan(store storage.Provider, loc *time.Location, logger *slog.Logger) ([]models.Page, error) {
	metas, err := store.List("")
	if err != nil {
		return nil, err
	}
	pages := make([]models.Page, 0, len(metas))
	for _, m := range metas {
		data, err := store.Read(m.Path)
		if err != nil {
			logger.Warn("scan: read failed", slog.String("path", m.Path), slog.String("error", err.Error()))
			continue
		}
		p, res, err := LoadPage(m.Path, data, loc)
		if res != nil {
			for _, w := range res.Warnings {
				logger.Warn("scan: front matter", slog.String("path", m.Path), slog.String("warning", w))
			}
		}
		if err != nil {
			continue
		}
		pages = append(pages, p)
	}
	return pages, nil
}
