// Package storage defines the site file-system abstraction.
package storage

import "github.com/starford/recently/internal/models"

// Provider is the interface for site file operations.
type Provider interface {
	// List returns metadata for every Markdown file under dir (relative to the site root),
	// sorted by path.
	List(dir string) ([]models.PageMetadata, error)
	// Read returns the raw bytes of the file at path (relative to the site root).
	Read(path string) ([]byte, error)
	// Write atomically writes content to path (relative to the site root).
	Write(path string, content []byte) error
}
