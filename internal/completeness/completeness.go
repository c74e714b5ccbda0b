// Package completeness tracks which of a show's wanted episodes are present
// in the library, at episode, season and series granularity.
package completeness

import "sort"

// Key identifies one episode within a show.
type Key struct {
	Season  int
	Episode int
}

// Set is a set of episode keys.
type Set map[Key]struct{}

// NewSet builds a set from keys.
func NewSet(keys ...Key) Set {
	s := make(Set, len(keys))
	for _, k := range keys {
		s[k] = struct{}{}
	}
	return s
}

// Add inserts a key.
func (s Set) Add(k Key) { s[k] = struct{}{} }

// Has reports membership.
func (s Set) Has(k Key) bool {
	_, ok := s[k]
	return ok
}

// Tracker compares a show's desired episodes against the episodes available
// in the library. Desired normally comes from the request manager; available
// is the union across every library entry for the show, since duplicates may
// split a season across entries.
type Tracker struct {
	desired   Set
	available Set
}

func NewTracker(desired, available Set) *Tracker {
	return &Tracker{desired: desired, available: available}
}

// Missing returns the desired keys absent from the available set, in
// season/episode order.
func (t *Tracker) Missing() []Key {
	missing := make([]Key, 0)
	for k := range t.desired {
		if !t.available.Has(k) {
			missing = append(missing, k)
		}
	}
	sort.Slice(missing, func(i, j int) bool {
		if missing[i].Season != missing[j].Season {
			return missing[i].Season < missing[j].Season
		}
		return missing[i].Episode < missing[j].Episode
	})
	return missing
}

// SeasonComplete reports whether every desired episode of the season is
// available. A season with no desired episodes is complete.
func (t *Tracker) SeasonComplete(season int) bool {
	for k := range t.desired {
		if k.Season == season && !t.available.Has(k) {
			return false
		}
	}
	return true
}

// SeriesComplete reports whether every desired episode of the show is
// available.
func (t *Tracker) SeriesComplete() bool {
	for k := range t.desired {
		if !t.available.Has(k) {
			return false
		}
	}
	return true
}
