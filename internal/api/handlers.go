package api

import (
	"bytes"
	"errors"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/NYTimes/gziphandler"
	"github.com/go-chi/chi/v5"

	"github.com/starford/recently/internal/apperr"
	"github.com/starford/recently/internal/pageservice"
)

const (
	defaultPageLimit = 50
	maxPageLimit     = 500
)

// Handler holds API route handlers.
type Handler struct {
	svc    *pageservice.Service
	onSync SyncHook
}

// NewHandler creates a new Handler.
func NewHandler(svc *pageservice.Service, onSync SyncHook) *Handler {
	return &Handler{svc: svc, onSync: onSync}
}

// pageURL extracts the page URL from the request (everything after /api/pages).
// Supports encoded slashes from OpenAPI clients (e.g. docs%2Fguide.html).
func pageURL(r *http.Request) string {
	raw := strings.TrimPrefix(chi.URLParam(r, "*"), "/")
	decoded, err := url.PathUnescape(raw)
	if err != nil {
		decoded = raw
	}
	return "/" + decoded
}

// Recent handles GET /api/recent.
//
//	@Summary		Most recently updated pages, newest first
//	@Tags			recent
//	@Produce		json
//	@Success		200	{object}	RecentResponse
//	@Security		BearerAuth
//	@Router			/recent [get]
func (h *Handler) Recent(w http.ResponseWriter, r *http.Request) {
	entries, builtAt, err := h.svc.RecentList(r.Context())
	if err != nil {
		internalError(w, "recent list failed", err)
		return
	}
	writeJSON(w, http.StatusOK, RecentResponse{GeneratedAt: builtAt, Recent: entries})
}

// Months handles GET /api/months.
//
//	@Summary		Recently updated pages grouped by calendar month
//	@Tags			recent
//	@Produce		json
//	@Success		200	{object}	MonthsResponse
//	@Security		BearerAuth
//	@Router			/months [get]
func (h *Handler) Months(w http.ResponseWriter, r *http.Request) {
	groups, builtAt, err := h.svc.MonthGroups(r.Context())
	if err != nil {
		internalError(w, "month groups failed", err)
		return
	}
	writeJSON(w, http.StatusOK, MonthsResponse{GeneratedAt: builtAt, Months: groups})
}

// View handles GET /api/view.
//
//	@Summary		Both recent-updates views
//	@Tags			recent
//	@Produce		json
//	@Success		200	{object}	ViewResponse
//	@Security		BearerAuth
//	@Router			/view [get]
func (h *Handler) View(w http.ResponseWriter, r *http.Request) {
	v, err := h.svc.View(r.Context())
	if err != nil {
		internalError(w, "view failed", err)
		return
	}
	writeJSON(w, http.StatusOK, v)
}

// ListPages handles GET /api/pages.
//
//	@Summary		List indexed pages in path order
//	@Tags			pages
//	@Produce		json
//	@Param			limit	query		int	false	"Page size"
//	@Param			offset	query		int	false	"Page offset"
//	@Success		200		{object}	PageListResponse
//	@Failure		400		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/pages [get]
func (h *Handler) ListPages(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	limit, offset := defaultPageLimit, 0
	var err error
	if s := q.Get("limit"); s != "" {
		if limit, err = strconv.Atoi(s); err != nil || limit <= 0 {
			writeJSON(w, http.StatusBadRequest, errorBody("invalid limit"))
			return
		}
	}
	if s := q.Get("offset"); s != "" {
		if offset, err = strconv.Atoi(s); err != nil || offset < 0 {
			writeJSON(w, http.StatusBadRequest, errorBody("invalid offset"))
			return
		}
	}
	limit = min(limit, maxPageLimit)

	pages, total, err := h.svc.ListPages(r.Context(), limit, offset)
	if err != nil {
		if errors.Is(err, apperr.ErrInvalidInput) {
			writeJSON(w, http.StatusBadRequest, errorBody(err.Error()))
			return
		}
		internalError(w, "list pages failed", err)
		return
	}
	writeJSON(w, http.StatusOK, PageListResponse{Pages: pages, Total: total})
}

// GetPage handles GET /api/pages/*.
//
//	@Summary		Get a single page by its public URL
//	@Tags			pages
//	@Produce		json
//	@Param			url	path		string	true	"Page URL without the leading slash"
//	@Success		200	{object}	PageDetail
//	@Failure		404	{object}	errResponse
//	@Security		BearerAuth
//	@Router			/pages/{url} [get]
func (h *Handler) GetPage(w http.ResponseWriter, r *http.Request) {
	u := pageURL(r)
	p, err := h.svc.GetPage(r.Context(), u)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			writeJSON(w, http.StatusNotFound, errorBody("not found"))
		} else {
			internalError(w, "get page failed", err, "url", u)
		}
		return
	}
	writeJSON(w, http.StatusOK, p)
}

// Sync handles POST /api/sync.
//
//	@Summary		Rescan the site into the index
//	@Tags			pages
//	@Produce		json
//	@Success		200	{object}	SyncResponse
//	@Security		BearerAuth
//	@Router			/sync [post]
func (h *Handler) Sync(w http.ResponseWriter, r *http.Request) {
	st, err := h.svc.Sync(r.Context())
	if err != nil {
		internalError(w, "sync failed", err)
		return
	}
	if h.onSync != nil {
		h.onSync(st)
	}
	writeJSON(w, http.StatusOK, st)
}

// NewListingHandler serves the recent-updates HTML fragment, gzip-compressed
// for clients that accept it.
func NewListingHandler(svc *pageservice.Service) http.Handler {
	return gziphandler.GzipHandler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var buf bytes.Buffer
		if err := svc.RenderHTML(r.Context(), &buf); err != nil {
			internalError(w, "render listing failed", err)
			return
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Header().Set("Cache-Control", "no-cache")
		_, _ = w.Write(buf.Bytes())
	}))
}
