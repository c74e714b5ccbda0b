package sweep

import (
	"context"
	"fmt"

	"github.com/janitarr/janitarr/internal/completeness"
	"github.com/janitarr/janitarr/internal/titlematch"
	"github.com/janitarr/janitarr/internal/watchlist"
)

// reconcileWatchlist removes watchlist entries whose content arrived in the
// library. Movies go by external id with a title+year fallback; shows only
// leave the watchlist once the series is complete.
func (r *run) reconcileWatchlist(ctx context.Context) {
	if r.s.watch == nil {
		return
	}
	r.reconcileMovieEntries(ctx)
	r.reconcileShowEntries(ctx)
}

func (r *run) reconcileMovieEntries(ctx context.Context) {
	entries, err := r.s.watch.List(ctx, watchlist.KindMovie)
	if err != nil {
		r.summary.Failures++
		r.summary.warn(fmt.Sprintf("watchlist: failed to list movie entries: %v", err))
		return
	}

	for _, entry := range entries {
		if !r.movieInLibrary(entry) {
			continue
		}
		r.removeEntry(ctx, entry)
	}
}

func (r *run) movieInLibrary(entry watchlist.Entry) bool {
	for _, item := range r.movieItems {
		if entry.ExternalID != 0 && item.ExternalID == entry.ExternalID {
			return true
		}
	}
	for _, item := range r.movieItems {
		if titlematch.Similarity(item.Title, entry.Title) < r.s.cfg.FuzzyThreshold {
			continue
		}
		if entry.Year == 0 || item.Year == entry.Year {
			return true
		}
	}
	return false
}

func (r *run) reconcileShowEntries(ctx context.Context) {
	entries, err := r.s.watch.List(ctx, watchlist.KindShow)
	if err != nil {
		r.summary.Failures++
		r.summary.warn(fmt.Sprintf("watchlist: failed to list show entries: %v", err))
		return
	}

	for _, entry := range entries {
		if !r.seriesComplete(ctx, entry) {
			r.summary.WatchlistKept++
			r.log.Debug().Str("title", entry.Title).Msg("keeping incomplete show on watchlist")
			continue
		}
		r.removeEntry(ctx, entry)
	}
}

// seriesComplete judges a show entry against the request manager's wanted
// episodes. Without a series manager, or without a matching record,
// completeness cannot be established and the entry stays.
func (r *run) seriesComplete(ctx context.Context, entry watchlist.Entry) bool {
	if r.s.series == nil {
		return false
	}

	records, err := r.loadSeriesRecords(ctx)
	if err != nil {
		r.summary.warn(fmt.Sprintf("watchlist: failed to list %s records: %v", r.s.series.Name(), err))
		return false
	}

	rec := r.findRecord(records, entry.ExternalID, entry.Title)
	if rec == nil {
		return false
	}

	episodes, err := r.loadEpisodes(ctx, rec.ID)
	if err != nil {
		r.summary.warn(fmt.Sprintf("watchlist: failed to list episodes of %q: %v", rec.Title, err))
		return false
	}
	if len(episodes) == 0 {
		return false
	}

	desired := completeness.NewSet()
	for _, ep := range episodes {
		desired.Add(completeness.Key{Season: ep.Season, Episode: ep.Episode})
	}
	return completeness.NewTracker(desired, r.availableEpisodes(rec)).SeriesComplete()
}

func (r *run) removeEntry(ctx context.Context, entry watchlist.Entry) {
	if r.dryRun {
		r.summary.WatchlistWouldRemove++
		r.log.Info().Str("title", entry.Title).Str("kind", string(entry.Kind)).
			Msg("would remove watchlist entry")
		return
	}
	if err := r.s.watch.Remove(ctx, entry); err != nil {
		r.summary.Failures++
		r.summary.warn(fmt.Sprintf("watchlist: failed to remove %q: %v", entry.Title, err))
		return
	}
	r.summary.WatchlistRemoved++
	r.pause(ctx)
}
