package index

import (
	"time"

	"github.com/starford/recently/internal/models"
)

// PageIndex defines the interface for page indexing operations.
// Consumers should depend on this interface rather than the concrete *DB type
// to facilitate testing with mocks.
type PageIndex interface {
	UpsertPage(p models.Page, checksum string) error
	MarkNotPage(path, checksum string) error
	DeletePage(path string) error
	GetChecksum(path string) (string, error)
	GetPage(url string) (*models.Page, error)
	ListPages(limit, offset int) ([]models.Page, int, error)
	Pages() ([]models.Page, error)
	AllChecksums() (map[string]string, error)
	EnsureLocation(loc *time.Location) error
	Close() error
}

// Verify *DB satisfies PageIndex at compile time.
var _ PageIndex = (*DB)(nil)
