// Package watchlist defines the user-watchlist surface the sweep engine
// reconciles against the library.
package watchlist

import "context"

// Kind distinguishes movie and show watchlist entries.
type Kind string

const (
	KindMovie Kind = "movie"
	KindShow  Kind = "show"
)

// Entry is one watchlist item. Ref is the service-side reference used to
// remove the entry; ExternalID is 0 when the service reports none.
type Entry struct {
	Ref        string
	Kind       Kind
	Title      string
	Year       int
	ExternalID int64
}

// Watchlist is the read/remove surface of the user's watchlist.
type Watchlist interface {
	// List returns every entry of the given kind.
	List(ctx context.Context, kind Kind) ([]Entry, error)

	// Remove deletes an entry from the watchlist.
	Remove(ctx context.Context, entry Entry) error
}
