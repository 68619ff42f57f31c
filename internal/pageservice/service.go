// Package pageservice coordinates storage, the page index and the recent-updates builders.
package pageservice

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/starford/recently/internal/apperr"
	"github.com/starford/recently/internal/checksum"
	"github.com/starford/recently/internal/index"
	"github.com/starford/recently/internal/models"
	"github.com/starford/recently/internal/parser"
	"github.com/starford/recently/internal/recent"
	"github.com/starford/recently/internal/render"
	"github.com/starford/recently/internal/storage"
)

// PageDetail is the full representation of an indexed page.
type PageDetail struct {
	models.Page
	Checksum    string         `json:"checksum"`
	Frontmatter map[string]any `json:"frontmatter,omitempty"`
	Content     string         `json:"content"`
}

// Option configures a Service.
type Option func(*Service)

// WithClock replaces time.Now as the source of build times.
func WithClock(clock func() time.Time) Option {
	return func(s *Service) {
		s.clock = clock
	}
}

// WithLogger sets the logger used by Sync.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

// Service answers every read from the index. Each call to View and the
// builders is a fresh build at the current clock time.
type Service struct {
	store    storage.Provider
	db       *index.DB
	renderer *render.Renderer
	opts     recent.Options
	clock    func() time.Time
	logger   *slog.Logger

	syncMu sync.Mutex
}

// NewService creates a new page service. opts.Now is ignored; the clock
// supplies the build time.
func NewService(store storage.Provider, db *index.DB, renderer *render.Renderer, opts recent.Options, options ...Option) *Service {
	s := &Service{
		store:    store,
		db:       db,
		renderer: renderer,
		opts:     opts,
		clock:    time.Now,
		logger:   slog.Default(),
	}
	for _, o := range options {
		o(s)
	}
	if s.opts.Location == nil {
		s.opts.Location = time.UTC
	}
	return s
}

// Location returns the site time zone.
func (s *Service) Location() *time.Location {
	return s.opts.Location
}

func (s *Service) buildOptions() recent.Options {
	o := s.opts
	o.Now = s.clock()
	return o
}

// View builds both views from the current index.
func (s *Service) View(_ context.Context) (recent.View, error) {
	pages, err := s.db.Pages()
	if err != nil {
		return recent.View{}, err
	}
	return recent.Build(pages, s.buildOptions()), nil
}

// RecentList returns the flat list of recently updated pages and the build
// time it was computed against.
func (s *Service) RecentList(_ context.Context) ([]recent.Entry, time.Time, error) {
	pages, err := s.db.Pages()
	if err != nil {
		return nil, time.Time{}, err
	}
	o := s.buildOptions()
	return recent.BuildRecentList(pages, o), o.Now, nil
}

// MonthGroups returns recently updated pages grouped by month and the build
// time they were computed against.
func (s *Service) MonthGroups(_ context.Context) ([]recent.MonthGroup, time.Time, error) {
	pages, err := s.db.Pages()
	if err != nil {
		return nil, time.Time{}, err
	}
	o := s.buildOptions()
	return recent.BuildMonthGroups(pages, o), o.Now, nil
}

// ListPages returns one window of indexed pages in path order and the total.
func (s *Service) ListPages(_ context.Context, limit, offset int) ([]models.Page, int, error) {
	if limit <= 0 || offset < 0 {
		return nil, 0, fmt.Errorf("pageservice: limit %d offset %d: %w", limit, offset, apperr.ErrInvalidInput)
	}
	return s.db.ListPages(limit, offset)
}

// GetPage returns the page published at url together with its source.
func (s *Service) GetPage(_ context.Context, url string) (*PageDetail, error) {
	p, err := s.db.GetPage(url)
	if err != nil {
		return nil, err
	}
	data, err := s.store.Read(p.Path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, apperr.ErrNotFound
		}
		return nil, err
	}
	res, err := parser.ParseInLocation(data, s.opts.Location)
	if err != nil {
		return nil, err
	}
	return &PageDetail{
		Page:        *p,
		Checksum:    checksum.Sum(data),
		Frontmatter: res.Frontmatter,
		Content:     res.Body,
	}, nil
}

// Sync rescans the site into the index. Concurrent calls are serialised.
func (s *Service) Sync(ctx context.Context) (index.Stats, error) {
	if err := ctx.Err(); err != nil {
		return index.Stats{}, err
	}
	s.syncMu.Lock()
	defer s.syncMu.Unlock()
	return index.Sync(s.db, s.store, s.opts.Location, s.logger)
}

// RenderHTML writes the HTML fragment of a fresh view to w.
func (s *Service) RenderHTML(ctx context.Context, w io.Writer) error {
	v, err := s.View(ctx)
	if err != nil {
		return err
	}
	return s.renderer.HTML(w, v)
}

// RenderJSON writes a fresh view to w as JSON.
func (s *Service) RenderJSON(ctx context.Context, w io.Writer) error {
	v, err := s.View(ctx)
	if err != nil {
		return err
	}
	return render.JSON(w, v)
}
