// Package internal provides the main application initialization and runtime logic.
package internal

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"golang.org/x/sync/errgroup"

	"github.com/starford/recently/internal/api"
	"github.com/starford/recently/internal/index"
	"github.com/starford/recently/internal/mcpserver"
	"github.com/starford/recently/internal/pageservice"
	"github.com/starford/recently/internal/recent"
	"github.com/starford/recently/internal/render"
	"github.com/starford/recently/internal/site"
	"github.com/starford/recently/internal/sse"
	"github.com/starford/recently/internal/storage"
)

var errConfigRequired = errors.New("config is required")

// components are the pieces shared by every command.
type components struct {
	logger   *slog.Logger
	loc      *time.Location
	store    *storage.FS
	renderer *render.Renderer
}

func (a *application) setup(logOut io.Writer) (*components, error) {
	cfg := a.config

	// Initialize structured JSON logger.
	logger := slog.New(slog.NewJSONHandler(logOut, &slog.HandlerOptions{
		Level: cfg.App.LogLevel,
	}))
	slog.SetDefault(logger)

	logger.Info("Configuration loaded",
		slog.String("http_address", cfg.App.HTTP.Address()),
		slog.String("site_root", cfg.Site.Root),
		slog.String("listing_url", cfg.Site.ListingURL),
		slog.String("sqlite_path", cfg.SQLite.Path),
		slog.String("log_level", cfg.App.LogLevel.String()))

	loc, err := cfg.Site.Location()
	if err != nil {
		return nil, err
	}

	store, err := storage.NewFS(cfg.Site.Root)
	if err != nil {
		return nil, fmt.Errorf("init storage: %w", err)
	}

	renderer, err := render.New(cfg.Site.Template)
	if err != nil {
		return nil, fmt.Errorf("init renderer: %w", err)
	}

	return &components{logger: logger, loc: loc, store: store, renderer: renderer}, nil
}

func (a *application) openService(c *components) (*pageservice.Service, *index.DB, error) {
	db, err := index.Open(a.config.SQLite.Path)
	if err != nil {
		return nil, nil, fmt.Errorf("init index: %w", err)
	}
	svc := pageservice.NewService(c.store, db, c.renderer, a.config.Site.RecentOptions(c.loc),
		pageservice.WithClock(a.clock),
		pageservice.WithLogger(c.logger))
	return svc, db, nil
}

func logSync(logger *slog.Logger, st index.Stats) {
	logger.Info("Site synced",
		slog.Int("indexed", st.Indexed),
		slog.Int("skipped", st.Skipped),
		slog.Int("removed", st.Removed),
		slog.Int("not_pages", st.NotPages))
}

// Run starts the HTTP server with the given options: initial sync, file
// watcher, API, SSE and the rendered listing page.
func Run(ctx context.Context, opts ...Option) error {
	app, err := newApplication(opts)
	if err != nil {
		return err
	}
	cfg := app.config

	c, err := app.setup(os.Stdout)
	if err != nil {
		return err
	}
	logger := c.logger

	svc, db, err := app.openService(c)
	if err != nil {
		return err
	}
	defer db.Close()

	// Run initial sync.
	if st, err := svc.Sync(ctx); err != nil {
		logger.Warn("initial sync failed", slog.String("error", err.Error()))
	} else {
		logSync(logger, st)
	}

	// SSE broker.
	broker := sse.NewBroker(2 * time.Second)
	defer broker.Close()

	onSync := func(st index.Stats) {
		if st.Indexed+st.Removed+st.NotPages > 0 {
			broker.Publish(sse.Event{Type: sse.TypeRecentUpdated, Data: st})
		}
	}
	apiRouter := api.NewRouter(svc, cfg.Auth.AuthEnabled(), cfg.Auth.Token, broker, onSync)

	// Build chi router.
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	// Health check endpoints (unauthenticated).
	r.Get("/health/live", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	r.Get("/health/ready", func(w http.ResponseWriter, req *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if _, _, err := svc.ListPages(req.Context(), 1, 0); err != nil {
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte(`{"status":"unavailable"}`))
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	// Mount API routes under /api.
	r.Mount("/api", apiRouter)

	// The rendered listing lives at its public URL.
	r.Method(http.MethodGet, cfg.Site.ListingURL, api.NewListingHandler(svc))

	httpServer := &http.Server{
		Addr:              cfg.App.HTTP.Address(),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	logger.Info("Server starting...", slog.String("http_address", cfg.App.HTTP.Address()))

	g, gCtx := errgroup.WithContext(ctx)

	// Start file watcher with SSE callback.
	g.Go(func() error {
		if err := index.Watch(gCtx, db, c.store, c.store.Root(), c.loc, logger, broker.PublishPageEvent); err != nil {
			logger.Error("watcher failed", slog.String("error", err.Error()))
		}
		return nil
	})

	// Start HTTP server.
	g.Go(func() error {
		logger.Info("Starting HTTP server", slog.String("address", cfg.App.HTTP.Address()))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("HTTP server error: %w", err)
		}
		return nil
	})

	// Handle shutdown signals.
	g.Go(func() error {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		defer signal.Stop(quit)

		select {
		case sig := <-quit:
			logger.Info("Received shutdown signal", slog.String("signal", sig.String()))
		case <-gCtx.Done():
			logger.Info("Context cancelled, initiating shutdown")
		}

		logger.Info("Shutting down server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Error("HTTP server shutdown error", slog.String("error", err.Error()))
		}
		// Ends the watcher after a signal.
		return errShutdown
	})

	if err := g.Wait(); err != nil && !errors.Is(err, errShutdown) {
		logger.Error("Application error", slog.String("error", err.Error()))
		return err
	}

	logger.Info("Server stopped successfully")
	return nil
}

var errShutdown = errors.New("shutdown")

// RunBuild renders the listing once and writes the HTML fragment and its JSON
// companion into the configured output directory.
func RunBuild(ctx context.Context, opts ...Option) error {
	app, err := newApplication(opts)
	if err != nil {
		return err
	}
	cfg := app.config

	c, err := app.setup(os.Stdout)
	if err != nil {
		return err
	}

	var view recent.View
	if app.noIndex {
		pages, err := site.Scan(c.store, c.loc, c.logger)
		if err != nil {
			return fmt.Errorf("scan site: %w", err)
		}
		o := cfg.Site.RecentOptions(c.loc)
		o.Now = app.clock()
		view = recent.Build(pages, o)
	} else {
		svc, db, err := app.openService(c)
		if err != nil {
			return err
		}
		defer db.Close()
		st, err := svc.Sync(ctx)
		if err != nil {
			return fmt.Errorf("sync: %w", err)
		}
		logSync(c.logger, st)
		if view, err = svc.View(ctx); err != nil {
			return err
		}
	}

	if err := os.MkdirAll(cfg.Site.OutputDir, 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}
	out, err := storage.NewFS(cfg.Site.OutputDir)
	if err != nil {
		return fmt.Errorf("init output: %w", err)
	}

	htmlPath, jsonPath := cfg.Site.OutputPaths()
	var buf bytes.Buffer
	if err := c.renderer.HTML(&buf, view); err != nil {
		return err
	}
	if err := out.Write(htmlPath, buf.Bytes()); err != nil {
		return err
	}
	buf.Reset()
	if err := render.JSON(&buf, view); err != nil {
		return err
	}
	if err := out.Write(jsonPath, buf.Bytes()); err != nil {
		return err
	}

	c.logger.Info("Listing written",
		slog.String("html", filepath.Join(out.Root(), htmlPath)),
		slog.String("json", filepath.Join(out.Root(), jsonPath)),
		slog.Int("recent", len(view.Recent)),
		slog.Int("months", len(view.Months)))
	return nil
}

// RunMCP serves the MCP tools over stdio. Logs go to stderr because stdout
// carries the protocol.
func RunMCP(ctx context.Context, opts ...Option) error {
	app, err := newApplication(opts)
	if err != nil {
		return err
	}

	c, err := app.setup(os.Stderr)
	if err != nil {
		return err
	}

	svc, db, err := app.openService(c)
	if err != nil {
		return err
	}
	defer db.Close()

	if st, err := svc.Sync(ctx); err != nil {
		c.logger.Warn("initial sync failed", slog.String("error", err.Error()))
	} else {
		logSync(c.logger, st)
	}

	watchCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	go func() {
		if err := index.Watch(watchCtx, db, c.store, c.store.Root(), c.loc, c.logger, nil); err != nil {
			c.logger.Error("watcher failed", slog.String("error", err.Error()))
		}
	}()

	return mcpserver.New(svc).ServeStdio()
}
