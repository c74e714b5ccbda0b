// Package arr defines the request-manager surface the sweep engine talks to:
// the systems that track which content is wanted and monitored. Radarr and
// Sonarr implementations live in subpackages.
package arr

import (
	"context"
	"errors"
)

// ErrNotFound is returned when no record matches a lookup.
var ErrNotFound = errors.New("record not found")

// Record is one entry in a request manager's catalog: a movie, or a series
// with per-season monitored flags.
type Record struct {
	ID         int64
	ExternalID int64 // tmdb id for movies, tvdb id for series
	Title      string
	Year       int
	Monitored  bool
	Seasons    []Season // series only
}

// Season is one season's monitored flag within a series record.
type Season struct {
	Number    int
	Monitored bool
}

// Episode is one episode known to a series request manager.
type Episode struct {
	ID        int64
	SeriesID  int64
	Season    int
	Episode   int
	Title     string
	Monitored bool
	HasFile   bool
}

// RequestManager tracks wanted content and its monitored state.
type RequestManager interface {
	// Name identifies the backend in logs and summaries.
	Name() string

	// ListRecords returns every record with external ids and monitored flags.
	ListRecords(ctx context.Context) ([]Record, error)

	// SetMonitored flips a record's top-level monitored flag.
	SetMonitored(ctx context.Context, recordID int64, monitored bool) error
}

// SeriesManager extends RequestManager with episode and season granularity.
type SeriesManager interface {
	RequestManager

	// ListEpisodes returns every episode of a series.
	ListEpisodes(ctx context.Context, seriesID int64) ([]Episode, error)

	// SetEpisodesMonitored flips the monitored flag of the given episodes.
	SetEpisodesMonitored(ctx context.Context, episodeIDs []int64, monitored bool) error

	// SetSeasonMonitored flips one season's monitored flag on the series.
	SetSeasonMonitored(ctx context.Context, seriesID int64, season int, monitored bool) error
}
