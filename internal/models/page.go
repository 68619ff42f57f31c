// Package models defines the domain types for recently.
package models

import (
	"strings"
	"time"
)

// Page is one content file of the site as seen by the indexer.
// Optional front matter fields are nil when the file does not set them.
type Page struct {
	Path        string     `json:"path"`
	URL         string     `json:"url"`
	Title       *string    `json:"title,omitempty"`
	Date        *time.Time `json:"date,omitempty"`
	Description *string    `json:"description,omitempty"`
}

// HasTitle reports whether the page carries a non-blank title.
func (p Page) HasTitle() bool {
	return p.Title != nil && strings.TrimSpace(*p.Title) != ""
}

// TitleText returns the title or an empty string.
func (p Page) TitleText() string {
	if p.Title == nil {
		return ""
	}
	return *p.Title
}

// DescriptionText returns the description or an empty string.
func (p Page) DescriptionText() string {
	if p.Description == nil {
		return ""
	}
	return *p.Description
}

// EffectiveDate returns the page date, or fallback when the page has none.
func (p Page) EffectiveDate(fallback time.Time) time.Time {
	if p.Date == nil {
		return fallback
	}
	return *p.Date
}

// PageMetadata is a lightweight representation returned by storage listings.
type PageMetadata struct {
	Path      string    `json:"path"`
	Checksum  string    `json:"checksum"`
	UpdatedAt time.Time `json:"updated_at"`
}
