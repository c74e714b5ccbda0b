package dedupe

import (
	"sort"
	"strings"

	"github.com/janitarr/janitarr/internal/mediaserver"
)

// Preference names the policy used to pick the keeper of a duplicate group.
type Preference string

const (
	PreferNewest       Preference = "newest"
	PreferOldest       Preference = "oldest"
	PreferLargestFile  Preference = "largest_file"
	PreferSmallestFile Preference = "smallest_file"
)

// ValidPreference reports whether p is a recognized selection policy.
func ValidPreference(p Preference) bool {
	switch p {
	case PreferNewest, PreferOldest, PreferLargestFile, PreferSmallestFile:
		return true
	}
	return false
}

// Candidate is one group member with the attributes the selector ranks on,
// derived from the member's full metadata.
type Candidate struct {
	Item      mediaserver.Item
	BestTier  int   // highest resolution tier across the member's versions
	BestSize  int64 // largest version byte size, 0 when unknown
	Preserved bool  // any version matches a preserve term
}

// ResolutionTier maps a server-reported resolution string to a comparable
// rank. Unknown resolutions rank with 480.
func ResolutionTier(resolution string) int {
	switch strings.TrimSuffix(strings.ToLower(resolution), "p") {
	case "4k", "2160":
		return 4
	case "1080":
		return 3
	case "720":
		return 2
	default:
		return 1
	}
}

// NewCandidate derives the selector attributes from an item's full metadata.
// A version is preserved when its file path or resolution string contains one
// of the preserve terms, compared case-insensitively.
func NewCandidate(details *mediaserver.ItemDetails, preserveTerms []string) Candidate {
	c := Candidate{Item: details.Item, BestTier: 1}
	for _, v := range details.Versions {
		if t := ResolutionTier(v.Resolution); t > c.BestTier {
			c.BestTier = t
		}
		if v.Size > c.BestSize {
			c.BestSize = v.Size
		}
		if matchesPreserveTerm(v, preserveTerms) {
			c.Preserved = true
		}
	}
	return c
}

func matchesPreserveTerm(v mediaserver.Version, terms []string) bool {
	if len(terms) == 0 {
		return false
	}
	path := strings.ToLower(v.FilePath)
	res := strings.ToLower(v.Resolution)
	for _, term := range terms {
		t := strings.ToLower(term)
		if t == "" {
			continue
		}
		if strings.Contains(path, t) || strings.Contains(res, t) {
			return true
		}
	}
	return false
}

// SelectCanonical picks the single keeper of a duplicate group. When any
// candidate holds a preserved copy, the pool is first restricted to those
// candidates. The pool is then ordered by the configured preference, with
// resolution tier and best size as tie-breaks and the item id as the final
// ordering, so identical inputs always yield the same keeper. The returned
// slices are the keeper and the remaining members scheduled for deletion.
func SelectCanonical(candidates []Candidate, pref Preference) (Candidate, []Candidate) {
	pool := make([]Candidate, 0, len(candidates))
	for _, c := range candidates {
		if c.Preserved {
			pool = append(pool, c)
		}
	}
	if len(pool) == 0 {
		pool = append(pool, candidates...)
	}

	sort.SliceStable(pool, func(i, j int) bool {
		a, b := pool[i], pool[j]
		if less, decided := preferLess(a, b, pref); decided {
			return less
		}
		if a.BestTier != b.BestTier {
			return a.BestTier > b.BestTier
		}
		if a.BestSize != b.BestSize {
			return a.BestSize > b.BestSize
		}
		return a.Item.ID < b.Item.ID
	})

	keeper := pool[0]
	losers := make([]Candidate, 0, len(candidates)-1)
	for _, c := range candidates {
		if c.Item.ID != keeper.Item.ID {
			losers = append(losers, c)
		}
	}
	return keeper, losers
}

// preferLess orders two candidates by the preference alone, reporting whether
// it could decide. Under the size preferences a candidate with unknown size
// sorts last for smallest_file and first for largest_file.
func preferLess(a, b Candidate, pref Preference) (less, decided bool) {
	switch pref {
	case PreferNewest:
		if !a.Item.AddedAt.Equal(b.Item.AddedAt) {
			return a.Item.AddedAt.After(b.Item.AddedAt), true
		}
	case PreferOldest:
		if !a.Item.AddedAt.Equal(b.Item.AddedAt) {
			return a.Item.AddedAt.Before(b.Item.AddedAt), true
		}
	case PreferLargestFile:
		if (a.BestSize == 0) != (b.BestSize == 0) {
			return a.BestSize == 0, true
		}
		if a.BestSize != b.BestSize {
			return a.BestSize > b.BestSize, true
		}
	case PreferSmallestFile:
		if (a.BestSize == 0) != (b.BestSize == 0) {
			return b.BestSize == 0, true
		}
		if a.BestSize != b.BestSize {
			return a.BestSize < b.BestSize, true
		}
	}
	return false, false
}
