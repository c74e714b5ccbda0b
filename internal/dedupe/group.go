// Package dedupe implements duplicate detection and resolution: grouping
// catalog entries that represent the same content, selecting the canonical
// copy to keep, and consolidating redundant file versions.
package dedupe

import (
	"fmt"
	"sort"
	"strconv"

	"github.com/janitarr/janitarr/internal/mediaserver"
	"github.com/janitarr/janitarr/internal/titlematch"
)

// Group is a set of catalog entries judged to represent the same content.
// Groups are transient: rebuilt on every sweep, never persisted.
type Group struct {
	Key     string
	Title   string
	Members []mediaserver.Item
}

// GroupMovies buckets movie items by external identifier. Items without an
// external id are left out; only buckets with two or more members are
// duplicates. Group order and member order are deterministic for identical
// input.
func GroupMovies(items []mediaserver.Item) []Group {
	buckets := make(map[int64][]mediaserver.Item)
	for _, it := range items {
		if it.ExternalID == 0 {
			continue
		}
		buckets[it.ExternalID] = append(buckets[it.ExternalID], it)
	}

	groups := make([]Group, 0)
	for id, members := range buckets {
		if len(members) < 2 {
			continue
		}
		sortMembers(members)
		groups = append(groups, Group{
			Key:     strconv.FormatInt(id, 10),
			Title:   members[0].Title,
			Members: members,
		})
	}
	sortGroups(groups)
	return groups
}

// GroupEpisodes buckets episode items by (series key, season, episode). The
// series key is the server's series id when the item carries one, otherwise
// the normalized series title.
func GroupEpisodes(items []mediaserver.Item) []Group {
	buckets := make(map[string][]mediaserver.Item)
	for _, it := range items {
		if !it.Episodic {
			continue
		}
		key := episodeKey(it)
		buckets[key] = append(buckets[key], it)
	}

	groups := make([]Group, 0)
	for key, members := range buckets {
		if len(members) < 2 {
			continue
		}
		sortMembers(members)
		groups = append(groups, Group{
			Key:     key,
			Title:   fmt.Sprintf("%s S%02dE%02d", members[0].SeriesTitle, members[0].Season, members[0].Episode),
			Members: members,
		})
	}
	sortGroups(groups)
	return groups
}

func episodeKey(it mediaserver.Item) string {
	seriesKey := it.SeriesID
	if seriesKey == "" {
		seriesKey = titlematch.Normalize(it.SeriesTitle)
	}
	return fmt.Sprintf("%s/s%02de%02d", seriesKey, it.Season, it.Episode)
}

func sortMembers(members []mediaserver.Item) {
	sort.Slice(members, func(i, j int) bool { return members[i].ID < members[j].ID })
}

func sortGroups(groups []Group) {
	sort.Slice(groups, func(i, j int) bool { return groups[i].Key < groups[j].Key })
}
