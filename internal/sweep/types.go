// Package sweep orchestrates a full pass over the library: duplicate
// grouping, canonical-copy selection, version consolidation, request-manager
// monitored-flag sync and watchlist reconciliation. A sweep holds no state
// between runs; every run recomputes from the live catalog.
package sweep

import (
	"context"
	"time"
)

// Trigger records what started a sweep.
type Trigger string

const (
	TriggerScheduled Trigger = "scheduled"
	TriggerManual    Trigger = "manual"
	TriggerWebhook   Trigger = "webhook"
)

// GroupState is the lifecycle position of one duplicate group within a sweep.
type GroupState string

const (
	StateDiscovered           GroupState = "discovered"
	StateMetadataLoaded       GroupState = "metadata-loaded"
	StateKeeperSelected       GroupState = "keeper-selected"
	StateVersionsConsolidated GroupState = "versions-consolidated"
	StateSynced               GroupState = "request-manager-synced"
	StateVerified             GroupState = "verified"
	StateFailed               GroupState = "failed"
)

// GroupResult is the outcome of processing one duplicate group. A failed
// group records its error and is skipped for the remaining steps; it never
// aborts sibling groups.
type GroupResult struct {
	Key          string     `json:"key"`
	Title        string     `json:"title"`
	State        GroupState `json:"state"`
	KeeperID     string     `json:"keeperId,omitempty"`
	DeletedItems []string   `json:"deletedItems,omitempty"`
	Error        string     `json:"error,omitempty"`
}

// Summary aggregates one sweep's results. Under dry-run every mutation is
// counted in a would-do counter instead of its live counter.
type Summary struct {
	ID        string        `json:"id"`
	Trigger   Trigger       `json:"trigger"`
	DryRun    bool          `json:"dryRun"`
	StartedAt time.Time     `json:"startedAt"`
	Duration  time.Duration `json:"duration"`

	GroupsFound         int `json:"groupsFound"`
	ItemsDeleted        int `json:"itemsDeleted"`
	WouldDeleteItems    int `json:"wouldDeleteItems"`
	VersionsDeleted     int `json:"versionsDeleted"`
	WouldDeleteVersions int `json:"wouldDeleteVersions"`

	Unmonitored         int `json:"unmonitored"`
	WouldUnmonitor      int `json:"wouldUnmonitor"`
	EpisodesUnmonitored int `json:"episodesUnmonitored"`
	SeasonsUnmonitored  int `json:"seasonsUnmonitored"`
	NotFound            int `json:"notFound"`

	WatchlistRemoved     int `json:"watchlistRemoved"`
	WatchlistWouldRemove int `json:"watchlistWouldRemove"`
	WatchlistKept        int `json:"watchlistKept"`

	Failures int           `json:"failures"`
	Warnings []string      `json:"warnings"`
	Groups   []GroupResult `json:"groups"`
}

// Reporter receives the summary as it evolves: once per finished phase and
// once on completion. Persistence is the reporter's concern; the sweep itself
// writes nothing.
type Reporter interface {
	Update(ctx context.Context, summary *Summary)
}

// NopReporter discards all updates.
type NopReporter struct{}

func (NopReporter) Update(context.Context, *Summary) {}

func (s *Summary) warn(msg string) {
	s.Warnings = append(s.Warnings, msg)
}
