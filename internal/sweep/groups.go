package sweep

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/janitarr/janitarr/internal/dedupe"
	"github.com/janitarr/janitarr/internal/mediaserver"
)

func (r *run) dedupeGroups(ctx context.Context, groups []dedupe.Group, episodic bool) {
	for _, g := range groups {
		if ctx.Err() != nil {
			return
		}
		r.summary.GroupsFound++
		result := r.processGroup(ctx, g, episodic)
		r.summary.Groups = append(r.summary.Groups, result)
		if result.State == StateFailed {
			r.summary.Failures++
		}
	}
}

// processGroup walks one duplicate group through its lifecycle. A failure
// before a keeper is selected fails the group; everything after is contained
// as warnings so siblings and later steps still run.
func (r *run) processGroup(ctx context.Context, g dedupe.Group, episodic bool) GroupResult {
	result := GroupResult{Key: g.Key, Title: g.Title, State: StateDiscovered}
	log := r.log.With().Str("group", g.Key).Str("title", g.Title).Logger()

	candidates := make([]dedupe.Candidate, 0, len(g.Members))
	details := make(map[string]*mediaserver.ItemDetails, len(g.Members))
	for _, member := range g.Members {
		d, err := r.s.catalog.GetItemDetails(ctx, member.ID)
		if err != nil {
			result.State = StateFailed
			result.Error = fmt.Sprintf("failed to load metadata for item %s: %v", member.ID, err)
			r.summary.warn(fmt.Sprintf("group %q: %s", g.Title, result.Error))
			log.Warn().Err(err).Str("itemId", member.ID).Msg("group failed during metadata load")
			return result
		}
		// Listing-level fields win where the details endpoint is sparser.
		d.Item.ExternalID = member.ExternalID
		details[member.ID] = d
		candidates = append(candidates, dedupe.NewCandidate(d, r.s.cfg.PreserveTerms))
	}
	result.State = StateMetadataLoaded

	keeper, losers := dedupe.SelectCanonical(candidates, r.s.cfg.Preference)
	result.State = StateKeeperSelected
	result.KeeperID = keeper.Item.ID
	log.Debug().Str("keeperId", keeper.Item.ID).Int("duplicates", len(losers)).Msg("keeper selected")

	for _, loser := range losers {
		if r.dryRun {
			r.summary.WouldDeleteItems++
			log.Info().Str("itemId", loser.Item.ID).Msg("would delete duplicate item")
			continue
		}
		if err := r.s.catalog.DeleteItem(ctx, loser.Item.ID); err != nil {
			r.summary.Failures++
			r.summary.warn(fmt.Sprintf("group %q: failed to delete item %s: %v", g.Title, loser.Item.ID, err))
			log.Warn().Err(err).Str("itemId", loser.Item.ID).Msg("failed to delete duplicate item")
			continue
		}
		r.summary.ItemsDeleted++
		result.DeletedItems = append(result.DeletedItems, loser.Item.ID)
		r.pause(ctx)
	}

	r.consolidateVersions(ctx, g.Title, details[keeper.Item.ID], &log)
	result.State = StateVersionsConsolidated

	r.syncItem(ctx, keeper.Item)
	result.State = StateSynced

	result.State = StateVerified
	return result
}

// consolidateVersions deletes the keeper's redundant file versions, keeping
// the best-ranked one. A keeper still showing multiple versions afterwards
// is a warning, not a failure.
func (r *run) consolidateVersions(ctx context.Context, title string, keeper *mediaserver.ItemDetails, log *zerolog.Logger) {
	if keeper == nil || len(keeper.Versions) <= 1 {
		return
	}

	ranked := dedupe.RankVersions(keeper.Versions)
	deleted := 0
	for _, v := range ranked[1:] {
		if r.dryRun {
			r.summary.WouldDeleteVersions++
			log.Info().Str("itemId", keeper.ID).Int64("versionId", v.ID).Msg("would delete redundant version")
			continue
		}
		if err := r.s.catalog.DeleteVersion(ctx, keeper.ID, v.ID); err != nil {
			r.summary.Failures++
			r.summary.warn(fmt.Sprintf("group %q: failed to delete version %d of item %s: %v", title, v.ID, keeper.ID, err))
			log.Warn().Err(err).Int64("versionId", v.ID).Msg("failed to delete redundant version")
			continue
		}
		r.summary.VersionsDeleted++
		deleted++
		r.pause(ctx)
	}

	if r.dryRun || deleted == 0 {
		return
	}

	after, err := r.s.catalog.GetItemDetails(ctx, keeper.ID)
	if err != nil {
		r.summary.warn(fmt.Sprintf("group %q: post-consolidation check failed for item %s: %v", title, keeper.ID, err))
		return
	}
	if len(after.Versions) > 1 {
		r.summary.warn(fmt.Sprintf("group %q: item %s still has %d versions after consolidation", title, keeper.ID, len(after.Versions)))
		log.Warn().Int("versions", len(after.Versions)).Msg("residual versions after consolidation")
	}
}
