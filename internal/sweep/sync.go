package sweep

import (
	"context"
	"fmt"

	"github.com/janitarr/janitarr/internal/arr"
	"github.com/janitarr/janitarr/internal/completeness"
	"github.com/janitarr/janitarr/internal/mediaserver"
	"github.com/janitarr/janitarr/internal/titlematch"
)

func (r *run) loadMovieRecords(ctx context.Context) ([]arr.Record, error) {
	if r.movieRecords != nil {
		return r.movieRecords, nil
	}
	records, err := r.s.movies.ListRecords(ctx)
	if err != nil {
		return nil, err
	}
	if records == nil {
		records = []arr.Record{}
	}
	r.movieRecords = records
	return records, nil
}

func (r *run) loadSeriesRecords(ctx context.Context) ([]arr.Record, error) {
	if r.seriesRecords != nil {
		return r.seriesRecords, nil
	}
	records, err := r.s.series.ListRecords(ctx)
	if err != nil {
		return nil, err
	}
	if records == nil {
		records = []arr.Record{}
	}
	r.seriesRecords = records
	return records, nil
}

func (r *run) loadEpisodes(ctx context.Context, seriesID int64) ([]arr.Episode, error) {
	if eps, ok := r.episodesBySeries[seriesID]; ok {
		return eps, nil
	}
	eps, err := r.s.series.ListEpisodes(ctx, seriesID)
	if err != nil {
		return nil, err
	}
	r.episodesBySeries[seriesID] = eps
	return eps, nil
}

// findRecord matches a library item to a request-manager record: external
// identifier first, normalized-title similarity fallback.
func (r *run) findRecord(records []arr.Record, externalID int64, title string) *arr.Record {
	if externalID != 0 {
		for i := range records {
			if records[i].ExternalID == externalID {
				return &records[i]
			}
		}
	}

	titles := make([]string, len(records))
	for i := range records {
		titles[i] = records[i].Title
	}
	if idx, _ := titlematch.BestMatch(title, titles, r.s.cfg.FuzzyThreshold); idx >= 0 {
		return &records[idx]
	}
	return nil
}

// syncItem updates the request manager after an item survived deduplication:
// content that is present no longer needs monitoring.
func (r *run) syncItem(ctx context.Context, item mediaserver.Item) {
	if item.Episodic {
		r.syncEpisode(ctx, item)
	} else {
		r.syncMovie(ctx, item)
	}
}

func (r *run) syncMovie(ctx context.Context, item mediaserver.Item) {
	if r.s.movies == nil {
		return
	}

	records, err := r.loadMovieRecords(ctx)
	if err != nil {
		r.summary.Failures++
		r.summary.warn(fmt.Sprintf("failed to list %s records: %v", r.s.movies.Name(), err))
		return
	}

	rec := r.findRecord(records, item.ExternalID, item.Title)
	if rec == nil {
		r.summary.NotFound++
		r.summary.warn(fmt.Sprintf("movie %q not found in %s", item.Title, r.s.movies.Name()))
		return
	}
	if !rec.Monitored {
		return
	}

	if r.dryRun {
		r.summary.WouldUnmonitor++
		r.log.Info().Str("title", item.Title).Msg("would unmonitor movie")
		// The cached record advances even under dry-run so later phases
		// count each flip once, matching what a live run would do.
		rec.Monitored = false
		return
	}
	if err := r.s.movies.SetMonitored(ctx, rec.ID, false); err != nil {
		r.summary.Failures++
		r.summary.warn(fmt.Sprintf("failed to unmonitor movie %q: %v", item.Title, err))
		return
	}
	r.summary.Unmonitored++
	rec.Monitored = false
	r.pause(ctx)
}

// syncEpisode unmonitors the matching episode, then rolls up: the season
// once every wanted episode of it is present, the series once every season
// is.
func (r *run) syncEpisode(ctx context.Context, item mediaserver.Item) {
	if r.s.series == nil {
		return
	}

	records, err := r.loadSeriesRecords(ctx)
	if err != nil {
		r.summary.Failures++
		r.summary.warn(fmt.Sprintf("failed to list %s records: %v", r.s.series.Name(), err))
		return
	}

	rec := r.findRecord(records, 0, item.SeriesTitle)
	if rec == nil {
		r.summary.NotFound++
		r.summary.warn(fmt.Sprintf("series %q not found in %s", item.SeriesTitle, r.s.series.Name()))
		return
	}

	episodes, err := r.loadEpisodes(ctx, rec.ID)
	if err != nil {
		r.summary.Failures++
		r.summary.warn(fmt.Sprintf("failed to list episodes of %q: %v", rec.Title, err))
		return
	}

	for i := range episodes {
		ep := &episodes[i]
		if ep.Season != item.Season || ep.Episode != item.Episode {
			continue
		}
		if !ep.Monitored {
			break
		}
		if r.dryRun {
			r.summary.WouldUnmonitor++
			r.log.Info().Str("series", rec.Title).Int("season", ep.Season).Int("episode", ep.Episode).
				Msg("would unmonitor episode")
			ep.Monitored = false
			break
		}
		if err := r.s.series.SetEpisodesMonitored(ctx, []int64{ep.ID}, false); err != nil {
			r.summary.Failures++
			r.summary.warn(fmt.Sprintf("failed to unmonitor %s S%02dE%02d: %v", rec.Title, ep.Season, ep.Episode, err))
			break
		}
		r.summary.EpisodesUnmonitored++
		ep.Monitored = false
		r.pause(ctx)
		break
	}

	r.rollUpSeries(ctx, rec, episodes)
}

// rollUpSeries flips season and series monitored flags once completeness
// allows it.
func (r *run) rollUpSeries(ctx context.Context, rec *arr.Record, episodes []arr.Episode) {
	desired := completeness.NewSet()
	for _, ep := range episodes {
		desired.Add(completeness.Key{Season: ep.Season, Episode: ep.Episode})
	}
	tracker := completeness.NewTracker(desired, r.availableEpisodes(rec))

	for i := range rec.Seasons {
		season := &rec.Seasons[i]
		if !season.Monitored || !tracker.SeasonComplete(season.Number) {
			continue
		}
		if r.dryRun {
			r.summary.WouldUnmonitor++
			r.log.Info().Str("series", rec.Title).Int("season", season.Number).Msg("would unmonitor complete season")
			season.Monitored = false
			continue
		}
		if err := r.s.series.SetSeasonMonitored(ctx, rec.ID, season.Number, false); err != nil {
			r.summary.Failures++
			r.summary.warn(fmt.Sprintf("failed to unmonitor season %d of %q: %v", season.Number, rec.Title, err))
			continue
		}
		r.summary.SeasonsUnmonitored++
		season.Monitored = false
		r.pause(ctx)
	}

	if rec.Monitored && tracker.SeriesComplete() {
		if r.dryRun {
			r.summary.WouldUnmonitor++
			r.log.Info().Str("series", rec.Title).Msg("would unmonitor complete series")
			rec.Monitored = false
			return
		}
		if err := r.s.series.SetMonitored(ctx, rec.ID, false); err != nil {
			r.summary.Failures++
			r.summary.warn(fmt.Sprintf("failed to unmonitor series %q: %v", rec.Title, err))
			return
		}
		r.summary.Unmonitored++
		rec.Monitored = false
		r.pause(ctx)
	}
}

// availableEpisodes unions episode keys across every library entry of the
// series; duplicates may split a season across entries.
func (r *run) availableEpisodes(rec *arr.Record) completeness.Set {
	available := completeness.NewSet()
	target := titlematch.Normalize(rec.Title)
	for _, item := range r.episodeItems {
		if titlematch.Normalize(item.SeriesTitle) != target &&
			titlematch.Similarity(item.SeriesTitle, rec.Title) < r.s.cfg.FuzzyThreshold {
			continue
		}
		available.Add(completeness.Key{Season: item.Season, Episode: item.Episode})
	}
	return available
}

// confirmMonitored walks every monitored record and unmonitors the ones
// whose content is already fully present in the library.
func (r *run) confirmMonitored(ctx context.Context) {
	if r.s.movies != nil {
		r.confirmMovies(ctx)
	}
	if r.s.series != nil {
		r.confirmSeries(ctx)
	}
}

func (r *run) confirmMovies(ctx context.Context) {
	records, err := r.loadMovieRecords(ctx)
	if err != nil {
		r.summary.Failures++
		r.summary.warn(fmt.Sprintf("monitor confirm: failed to list %s records: %v", r.s.movies.Name(), err))
		return
	}

	present := make(map[int64]bool, len(r.movieItems))
	for _, item := range r.movieItems {
		if item.ExternalID != 0 {
			present[item.ExternalID] = true
		}
	}

	for i := range records {
		rec := &records[i]
		if !rec.Monitored || !present[rec.ExternalID] {
			continue
		}
		if r.dryRun {
			r.summary.WouldUnmonitor++
			r.log.Info().Str("title", rec.Title).Msg("would unmonitor downloaded movie")
			rec.Monitored = false
			continue
		}
		if err := r.s.movies.SetMonitored(ctx, rec.ID, false); err != nil {
			r.summary.Failures++
			r.summary.warn(fmt.Sprintf("monitor confirm: failed to unmonitor %q: %v", rec.Title, err))
			continue
		}
		r.summary.Unmonitored++
		rec.Monitored = false
		r.pause(ctx)
	}
}

func (r *run) confirmSeries(ctx context.Context) {
	records, err := r.loadSeriesRecords(ctx)
	if err != nil {
		r.summary.Failures++
		r.summary.warn(fmt.Sprintf("monitor confirm: failed to list %s records: %v", r.s.series.Name(), err))
		return
	}

	for i := range records {
		rec := &records[i]
		available := r.availableEpisodes(rec)
		if len(available) == 0 {
			continue
		}

		episodes, err := r.loadEpisodes(ctx, rec.ID)
		if err != nil {
			r.summary.Failures++
			r.summary.warn(fmt.Sprintf("monitor confirm: failed to list episodes of %q: %v", rec.Title, err))
			continue
		}

		var presentMonitored []int64
		var presentIdx []int
		for i, ep := range episodes {
			if ep.Monitored && available.Has(completeness.Key{Season: ep.Season, Episode: ep.Episode}) {
				presentMonitored = append(presentMonitored, ep.ID)
				presentIdx = append(presentIdx, i)
			}
		}
		if len(presentMonitored) > 0 {
			if r.dryRun {
				r.summary.WouldUnmonitor += len(presentMonitored)
				r.log.Info().Str("series", rec.Title).Int("episodes", len(presentMonitored)).
					Msg("would unmonitor downloaded episodes")
				for _, i := range presentIdx {
					episodes[i].Monitored = false
				}
			} else if err := r.s.series.SetEpisodesMonitored(ctx, presentMonitored, false); err != nil {
				r.summary.Failures++
				r.summary.warn(fmt.Sprintf("monitor confirm: failed to unmonitor episodes of %q: %v", rec.Title, err))
			} else {
				r.summary.EpisodesUnmonitored += len(presentMonitored)
				for _, i := range presentIdx {
					episodes[i].Monitored = false
				}
				r.pause(ctx)
			}
		}

		r.rollUpSeries(ctx, rec, episodes)
	}
}
