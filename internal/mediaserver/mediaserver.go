// Package mediaserver defines the capability interface the sweep engine uses
// to read and prune the media server's catalog. Implementations live in
// subpackages; the engine never touches media bytes, only metadata.
package mediaserver

import (
	"context"
	"time"
)

// SectionType identifies what a library section contains.
type SectionType string

const (
	SectionMovie SectionType = "movie"
	SectionShow  SectionType = "show"
)

// Section is one library section of the media server.
type Section struct {
	Key   string
	Title string
	Type  SectionType
}

// Item is one catalog entry as returned by a section listing. For show
// sections the listing is episode-level and the episodic fields are set.
type Item struct {
	ID         string // the server's internal item id
	ExternalID int64  // stable cross-system content id, 0 when unknown
	Title      string
	Year       int
	AddedAt    time.Time

	// Episodic metadata, present only for items from show sections.
	Episodic    bool
	SeriesID    string // the server's internal id of the parent series
	SeriesTitle string
	Season      int
	Episode     int
}

// Version is one file attached to a catalog entry. Multiple versions under
// one entry are duplicate files, distinct from duplicate entries.
type Version struct {
	ID         int64
	Resolution string // as reported by the server, e.g. "1080", "4k"
	FilePath   string
	Size       int64 // bytes, 0 when unknown
}

// ItemDetails is the full metadata for one catalog entry.
type ItemDetails struct {
	Item
	Versions []Version
}

// Catalog is the read/prune surface of the media server.
type Catalog interface {
	// ListSections returns every library section.
	ListSections(ctx context.Context) ([]Section, error)

	// ListItems returns all items of a section with their external ids.
	// Show sections list at episode granularity.
	ListItems(ctx context.Context, sectionKey string) ([]Item, error)

	// GetItemDetails returns full metadata including file versions.
	GetItemDetails(ctx context.Context, itemID string) (*ItemDetails, error)

	// DeleteItem removes a catalog entry and its files.
	DeleteItem(ctx context.Context, itemID string) error

	// DeleteVersion removes a single file version from a catalog entry.
	DeleteVersion(ctx context.Context, itemID string, versionID int64) error
}
