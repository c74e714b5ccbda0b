package dedupe

import (
	"sort"

	"github.com/janitarr/janitarr/internal/mediaserver"
)

// RankVersions orders the versions of a single item best-first: highest
// resolution tier, then largest size, then version id for determinism. The
// first element is the representative version; the rest are redundant copies.
func RankVersions(versions []mediaserver.Version) []mediaserver.Version {
	ranked := make([]mediaserver.Version, len(versions))
	copy(ranked, versions)
	sort.SliceStable(ranked, func(i, j int) bool {
		a, b := ranked[i], ranked[j]
		ta, tb := ResolutionTier(a.Resolution), ResolutionTier(b.Resolution)
		if ta != tb {
			return ta > tb
		}
		if a.Size != b.Size {
			return a.Size > b.Size
		}
		return a.ID < b.ID
	})
	return ranked
}
