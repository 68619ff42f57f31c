package api

import (
	"time"

	"github.com/starford/recently/internal/index"
	"github.com/starford/recently/internal/models"
	"github.com/starford/recently/internal/pageservice"
	"github.com/starford/recently/internal/recent"
)

// Entry is one row of a recent-updates view (aliased from the domain layer).
type Entry = recent.Entry

// MonthGroup is one month of the grouped view (aliased from the domain layer).
type MonthGroup = recent.MonthGroup

// ViewResponse carries both views built at the same instant.
type ViewResponse = recent.View

// PageDetail is the full page response type (aliased from the domain layer).
type PageDetail = pageservice.PageDetail

// SyncResponse reports the outcome of a manual rescan.
type SyncResponse = index.Stats

// RecentResponse wraps the flat recent list.
type RecentResponse struct {
	GeneratedAt time.Time `json:"generated_at" validate:"required"`
	Recent      []Entry   `json:"recent" validate:"required"`
}

// MonthsResponse wraps the month groups.
type MonthsResponse struct {
	GeneratedAt time.Time    `json:"generated_at" validate:"required"`
	Months      []MonthGroup `json:"months" validate:"required"`
}

// PageListResponse wraps paginated page listings.
type PageListResponse struct {
	Pages []models.Page `json:"pages" validate:"required"`
	Total int           `json:"total" example:"42" validate:"required"`
}
