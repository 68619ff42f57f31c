package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/starford/recently/internal/index"
	"github.com/starford/recently/internal/pageservice"
)

// SyncHook is called after a successful POST /sync.
type SyncHook func(index.Stats)

// NewRouter creates a chi router with all API routes mounted.
// authEnabled controls whether Bearer token auth is enforced.
// sseHandler, if non-nil, is mounted at GET /events inside the auth group.
// onSync, if non-nil, runs after each manual rescan.
func NewRouter(svc *pageservice.Service, authEnabled bool, token string, sseHandler http.Handler, onSync SyncHook) chi.Router {
	h := NewHandler(svc, onSync)

	r := chi.NewRouter()
	r.Use(AuthMiddleware(authEnabled, token))

	// Recent-updates views.
	r.Get("/recent", h.Recent)
	r.Get("/months", h.Months)
	r.Get("/view", h.View)

	// Indexed pages.
	r.Get("/pages", h.ListPages)
	r.Get("/pages/*", h.GetPage)

	r.Post("/sync", h.Sync)

	// SSE endpoint (protected by same auth middleware).
	if sseHandler != nil {
		r.Get("/events", sseHandler.ServeHTTP)
	}

	return r
}
