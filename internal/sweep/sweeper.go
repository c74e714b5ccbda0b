package sweep

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/janitarr/janitarr/internal/arr"
	"github.com/janitarr/janitarr/internal/dedupe"
	"github.com/janitarr/janitarr/internal/mediaserver"
	"github.com/janitarr/janitarr/internal/watchlist"
)

// Config holds the sweep engine's policy knobs.
type Config struct {
	Preference     dedupe.Preference
	PreserveTerms  []string
	FuzzyThreshold float64
	RequestDelay   time.Duration // pause after each external mutation

	MovieDedupe      bool
	EpisodeDedupe    bool
	MonitorConfirm   bool
	WatchlistReclaim bool
}

// Sweeper runs sweeps against a catalog and its surrounding services. The
// request managers and the watchlist are optional; phases needing an absent
// collaborator are skipped.
type Sweeper struct {
	catalog  mediaserver.Catalog
	movies   arr.RequestManager
	series   arr.SeriesManager
	watch    watchlist.Watchlist
	reporter Reporter
	cfg      Config
	logger   *zerolog.Logger
}

// New creates a sweeper. movies, series, watch and reporter may be nil.
func New(catalog mediaserver.Catalog, movies arr.RequestManager, series arr.SeriesManager, watch watchlist.Watchlist, reporter Reporter, cfg Config, logger *zerolog.Logger) *Sweeper {
	if reporter == nil {
		reporter = NopReporter{}
	}
	log := logger.With().Str("component", "sweep").Logger()
	return &Sweeper{
		catalog:  catalog,
		movies:   movies,
		series:   series,
		watch:    watch,
		reporter: reporter,
		cfg:      cfg,
		logger:   &log,
	}
}

// run carries one sweep's state: the growing summary plus caches scoped to
// this run, so repeated lookups against the external services are paid once.
// The caches track mutations as they are made, under dry-run included, so a
// flip already made (or would-be made) by an earlier phase is a no-op later.
type run struct {
	s       *Sweeper
	log     zerolog.Logger
	dryRun  bool
	summary *Summary

	movieItems   []mediaserver.Item
	episodeItems []mediaserver.Item

	movieRecords     []arr.Record
	seriesRecords    []arr.Record
	episodesBySeries map[int64][]arr.Episode
}

// Run executes a full sweep over every library section. Only failures to
// reach the catalog itself abort the sweep; everything downstream is
// contained per group or per entry and surfaces as warnings.
func (s *Sweeper) Run(ctx context.Context, trigger Trigger, dryRun bool) (*Summary, error) {
	r := s.newRun(trigger, dryRun)
	r.log.Info().Str("trigger", string(trigger)).Bool("dryRun", dryRun).Msg("sweep started")
	s.reporter.Update(ctx, r.summary)

	if err := r.loadLibrary(ctx); err != nil {
		r.finish()
		s.reporter.Update(ctx, r.summary)
		return r.summary, err
	}

	if s.cfg.MovieDedupe {
		r.dedupeGroups(ctx, dedupe.GroupMovies(r.movieItems), false)
		s.reporter.Update(ctx, r.summary)
	}
	if s.cfg.EpisodeDedupe {
		r.dedupeGroups(ctx, dedupe.GroupEpisodes(r.episodeItems), true)
		s.reporter.Update(ctx, r.summary)
	}
	if s.cfg.MonitorConfirm {
		r.confirmMonitored(ctx)
		s.reporter.Update(ctx, r.summary)
	}
	if s.cfg.WatchlistReclaim {
		r.reconcileWatchlist(ctx)
	}

	r.finish()
	s.reporter.Update(ctx, r.summary)
	r.log.Info().
		Int("groups", r.summary.GroupsFound).
		Int("failures", r.summary.Failures).
		Int("warnings", len(r.summary.Warnings)).
		Dur("duration", r.summary.Duration).
		Msg("sweep finished")
	return r.summary, nil
}

// RunItem executes a sweep scoped to one library item, typically triggered
// by a recently-added webhook. Duplicate groups containing the item are
// processed; a singleton item still gets its request-manager sync.
func (s *Sweeper) RunItem(ctx context.Context, itemID string, dryRun bool) (*Summary, error) {
	r := s.newRun(TriggerWebhook, dryRun)
	r.log.Info().Str("itemId", itemID).Bool("dryRun", dryRun).Msg("item sweep started")

	details, err := s.catalog.GetItemDetails(ctx, itemID)
	if err != nil {
		r.finish()
		s.reporter.Update(ctx, r.summary)
		return r.summary, fmt.Errorf("failed to load item %s: %w", itemID, err)
	}

	if err := r.loadLibrary(ctx); err != nil {
		r.finish()
		s.reporter.Update(ctx, r.summary)
		return r.summary, err
	}

	var groups []dedupe.Group
	if details.Episodic {
		groups = dedupe.GroupEpisodes(r.episodeItems)
	} else {
		groups = dedupe.GroupMovies(r.movieItems)
	}

	processed := false
	for _, g := range groups {
		for _, m := range g.Members {
			if m.ID == itemID {
				r.dedupeGroups(ctx, []dedupe.Group{g}, details.Episodic)
				processed = true
				break
			}
		}
		if processed {
			break
		}
	}

	// No duplicates: the item itself is the keeper, sync it directly.
	if !processed {
		r.syncItem(ctx, details.Item)
	}

	r.finish()
	s.reporter.Update(ctx, r.summary)
	return r.summary, nil
}

func (s *Sweeper) newRun(trigger Trigger, dryRun bool) *run {
	summary := &Summary{
		ID:        uuid.New().String(),
		Trigger:   trigger,
		DryRun:    dryRun,
		StartedAt: time.Now().UTC(),
		Warnings:  []string{},
		Groups:    []GroupResult{},
	}
	log := s.logger.With().Str("sweepId", summary.ID).Logger()
	return &run{
		s:                s,
		log:              log,
		dryRun:           dryRun,
		summary:          summary,
		episodesBySeries: make(map[int64][]arr.Episode),
	}
}

// loadLibrary lists every section's items once, for all phases to share.
func (r *run) loadLibrary(ctx context.Context) error {
	sections, err := r.s.catalog.ListSections(ctx)
	if err != nil {
		return fmt.Errorf("failed to list library sections: %w", err)
	}

	for _, section := range sections {
		items, err := r.s.catalog.ListItems(ctx, section.Key)
		if err != nil {
			return fmt.Errorf("failed to list section %q: %w", section.Title, err)
		}
		switch section.Type {
		case mediaserver.SectionMovie:
			r.movieItems = append(r.movieItems, items...)
		case mediaserver.SectionShow:
			r.episodeItems = append(r.episodeItems, items...)
		}
	}

	r.log.Debug().
		Int("movies", len(r.movieItems)).
		Int("episodes", len(r.episodeItems)).
		Msg("library loaded")
	return nil
}

func (r *run) finish() {
	r.summary.Duration = time.Since(r.summary.StartedAt)
}

// pause rate-limits mutations against the external services.
func (r *run) pause(ctx context.Context) {
	if r.s.cfg.RequestDelay <= 0 {
		return
	}
	select {
	case <-ctx.Done():
	case <-time.After(r.s.cfg.RequestDelay):
	}
}
