package index

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/starford/recently/internal/apperr"
	"github.com/starford/recently/internal/models"
)

// Dates are stored as RFC 3339 text so the original offset survives a round trip.
const dateFormat = time.RFC3339Nano

const pageColumns = `path, url, title, date, description`

// UpsertPage inserts or replaces a page together with the checksum of its source file.
func (db *DB) UpsertPage(p models.Page, checksum string) error {
	var date sql.NullString
	if p.Date != nil {
		date = sql.NullString{String: p.Date.Format(dateFormat), Valid: true}
	}
	_, err := db.conn.Exec(`
		INSERT INTO pages (path, url, title, date, description, checksum, is_page, indexed_at)
		VALUES (?, ?, ?, ?, ?, ?, 1, ?)
		ON CONFLICT(path) DO UPDATE SET
			url         = excluded.url,
			title       = excluded.title,
			date        = excluded.date,
			description = excluded.description,
			checksum    = excluded.checksum,
			is_page     = 1,
			indexed_at  = excluded.indexed_at
	`, p.Path, p.URL, nullString(p.Title), date, nullString(p.Description), checksum, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("index: upsert page: %w", err)
	}
	return nil
}

// MarkNotPage records a file that the generator treats as a static file.
// The row keeps its checksum but never shows up as a page.
func (db *DB) MarkNotPage(path, checksum string) error {
	_, err := db.conn.Exec(`
		INSERT INTO pages (path, checksum, is_page, indexed_at)
		VALUES (?, ?, 0, ?)
		ON CONFLICT(path) DO UPDATE SET
			url         = '',
			title       = NULL,
			date        = NULL,
			description = NULL,
			checksum    = excluded.checksum,
			is_page     = 0,
			indexed_at  = excluded.indexed_at
	`, path, checksum, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("index: mark not page: %w", err)
	}
	return nil
}

// DeletePage removes the row for path.
func (db *DB) DeletePage(path string) error {
	if _, err := db.conn.Exec(`DELETE FROM pages WHERE path = ?`, path); err != nil {
		return fmt.Errorf("index: delete page: %w", err)
	}
	return nil
}

// GetChecksum returns the stored checksum for a file, or empty string if not found.
func (db *DB) GetChecksum(path string) (string, error) {
	var cs string
	err := db.conn.QueryRow(`SELECT checksum FROM pages WHERE path = ?`, path).Scan(&cs)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("index: get checksum: %w", err)
	}
	return cs, nil
}

// IsPage reports whether path is indexed as a page.
func (db *DB) IsPage(path string) (bool, error) {
	var isPage bool
	err := db.conn.QueryRow(`SELECT is_page FROM pages WHERE path = ?`, path).Scan(&isPage)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("index: is page: %w", err)
	}
	return isPage, nil
}

// AllChecksums returns path to checksum for every indexed file, pages or not.
func (db *DB) AllChecksums() (map[string]string, error) {
	rows, err := db.conn.Query(`SELECT path, checksum FROM pages`)
	if err != nil {
		return nil, fmt.Errorf("index: all checksums: %w", err)
	}
	defer rows.Close()
	out := make(map[string]string)
	for rows.Next() {
		var p, cs string
		if err := rows.Scan(&p, &cs); err != nil {
			return nil, err
		}
		out[p] = cs
	}
	return out, rows.Err()
}

// GetPage returns the page published at url. When two files claim the same
// URL the one with the lowest path wins.
func (db *DB) GetPage(url string) (*models.Page, error) {
	row := db.conn.QueryRow(`SELECT `+pageColumns+` FROM pages
		WHERE is_page = 1 AND url = ? ORDER BY path LIMIT 1`, url)
	p, err := scanPage(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("index: page %s: %w", url, apperr.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("index: get page: %w", err)
	}
	return &p, nil
}

// ListPages returns one window of pages ordered by path, plus the total count.
func (db *DB) ListPages(limit, offset int) ([]models.Page, int, error) {
	var total int
	if err := db.conn.QueryRow(`SELECT count(*) FROM pages WHERE is_page = 1`).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("index: count pages: %w", err)
	}
	rows, err := db.conn.Query(`SELECT `+pageColumns+` FROM pages
		WHERE is_page = 1 ORDER BY path LIMIT ? OFFSET ?`, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("index: list pages: %w", err)
	}
	defer rows.Close()
	out, err := collectPages(rows)
	return out, total, err
}

// Pages returns every page ordered by path. That order is the input order the
// aggregator keeps for pages with equal dates.
func (db *DB) Pages() ([]models.Page, error) {
	rows, err := db.conn.Query(`SELECT ` + pageColumns + ` FROM pages WHERE is_page = 1 ORDER BY path`)
	if err != nil {
		return nil, fmt.Errorf("index: pages: %w", err)
	}
	defer rows.Close()
	return collectPages(rows)
}

// EnsureLocation forgets every stored checksum when the site time zone
// differs from the one the index was built with, so the next Sync rereads
// all zone-less dates.
func (db *DB) EnsureLocation(loc *time.Location) error {
	name := loc.String()
	var stored string
	err := db.conn.QueryRow(`SELECT value FROM meta WHERE key = 'location'`).Scan(&stored)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("index: read location: %w", err)
	}
	if err == nil && stored == name {
		return nil
	}
	tx, err := db.conn.Begin()
	if err != nil {
		return fmt.Errorf("index: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	if _, err := tx.Exec(`UPDATE pages SET checksum = ''`); err != nil {
		return fmt.Errorf("index: reset checksums: %w", err)
	}
	if _, err := tx.Exec(`INSERT INTO meta (key, value) VALUES ('location', ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value`, name); err != nil {
		return fmt.Errorf("index: store location: %w", err)
	}
	return tx.Commit()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanPage(r rowScanner) (models.Page, error) {
	var (
		p                  models.Page
		title, date, descr sql.NullString
	)
	if err := r.Scan(&p.Path, &p.URL, &title, &date, &descr); err != nil {
		return models.Page{}, err
	}
	if title.Valid {
		p.Title = &title.String
	}
	if descr.Valid {
		p.Description = &descr.String
	}
	if date.Valid {
		t, err := time.Parse(dateFormat, date.String)
		if err != nil {
			return models.Page{}, fmt.Errorf("index: bad date for %s: %w", p.Path, err)
		}
		p.Date = &t
	}
	return p, nil
}

func collectPages(rows *sql.Rows) ([]models.Page, error) {
	out := []models.Page{}
	for rows.Next() {
		p, err := scanPage(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func nullString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}
