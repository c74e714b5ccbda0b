// Package history persists sweep summaries so past runs can be listed and
// inspected. The sweep engine itself never touches storage; it only talks to
// a Reporter, which this package implements.
package history

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/janitarr/janitarr/internal/sweep"
)

// ErrNotFound is returned when no sweep matches the given id.
var ErrNotFound = errors.New("sweep not found")

// Entry is one persisted sweep.
type Entry struct {
	ID               string        `json:"id"`
	Trigger          string        `json:"trigger"`
	DryRun           bool          `json:"dryRun"`
	StartedAt        time.Time     `json:"startedAt"`
	Duration         time.Duration `json:"duration"`
	GroupsFound      int           `json:"groupsFound"`
	ItemsDeleted     int           `json:"itemsDeleted"`
	VersionsDeleted  int           `json:"versionsDeleted"`
	Unmonitored      int           `json:"unmonitored"`
	WatchlistRemoved int           `json:"watchlistRemoved"`
	Failures         int           `json:"failures"`
	Summary          *sweep.Summary `json:"summary,omitempty"`
}

// Service provides sweep history persistence.
type Service struct {
	db     *sql.DB
	logger zerolog.Logger
}

// NewService creates a new history service.
func NewService(db *sql.DB, logger zerolog.Logger) *Service {
	return &Service{
		db:     db,
		logger: logger.With().Str("component", "history").Logger(),
	}
}

// Save upserts a sweep's summary. The sweep reports its summary repeatedly
// as phases finish, so the row is keyed by sweep id and overwritten.
func (s *Service) Save(ctx context.Context, summary *sweep.Summary) error {
	blob, err := json.Marshal(summary)
	if err != nil {
		return fmt.Errorf("failed to encode summary: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO sweeps (
			id, trigger_type, dry_run, started_at, duration_ms,
			groups_found, items_deleted, versions_deleted,
			unmonitored, watchlist_removed, failures, summary
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			duration_ms = excluded.duration_ms,
			groups_found = excluded.groups_found,
			items_deleted = excluded.items_deleted,
			versions_deleted = excluded.versions_deleted,
			unmonitored = excluded.unmonitored,
			watchlist_removed = excluded.watchlist_removed,
			failures = excluded.failures,
			summary = excluded.summary,
			updated_at = CURRENT_TIMESTAMP`,
		summary.ID, string(summary.Trigger), summary.DryRun, summary.StartedAt,
		summary.Duration.Milliseconds(), summary.GroupsFound, summary.ItemsDeleted,
		summary.VersionsDeleted, summary.Unmonitored, summary.WatchlistRemoved,
		summary.Failures, string(blob))
	if err != nil {
		return fmt.Errorf("failed to save sweep %s: %w", summary.ID, err)
	}
	return nil
}

// List returns the most recent sweeps, newest first, without the full
// summary payload.
func (s *Service) List(ctx context.Context, limit int) ([]Entry, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, trigger_type, dry_run, started_at, duration_ms,
			groups_found, items_deleted, versions_deleted,
			unmonitored, watchlist_removed, failures
		FROM sweeps
		ORDER BY started_at DESC
		LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list sweeps: %w", err)
	}
	defer rows.Close()

	entries := make([]Entry, 0, limit)
	for rows.Next() {
		var e Entry
		var durationMS int64
		if err := rows.Scan(&e.ID, &e.Trigger, &e.DryRun, &e.StartedAt, &durationMS,
			&e.GroupsFound, &e.ItemsDeleted, &e.VersionsDeleted,
			&e.Unmonitored, &e.WatchlistRemoved, &e.Failures); err != nil {
			return nil, fmt.Errorf("failed to scan sweep row: %w", err)
		}
		e.Duration = time.Duration(durationMS) * time.Millisecond
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// Get returns one sweep with its full summary.
func (s *Service) Get(ctx context.Context, id string) (*Entry, error) {
	var e Entry
	var durationMS int64
	var blob string
	err := s.db.QueryRowContext(ctx, `
		SELECT id, trigger_type, dry_run, started_at, duration_ms,
			groups_found, items_deleted, versions_deleted,
			unmonitored, watchlist_removed, failures, summary
		FROM sweeps WHERE id = ?`, id).
		Scan(&e.ID, &e.Trigger, &e.DryRun, &e.StartedAt, &durationMS,
			&e.GroupsFound, &e.ItemsDeleted, &e.VersionsDeleted,
			&e.Unmonitored, &e.WatchlistRemoved, &e.Failures, &blob)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to fetch sweep %s: %w", id, err)
	}

	e.Duration = time.Duration(durationMS) * time.Millisecond
	var summary sweep.Summary
	if err := json.Unmarshal([]byte(blob), &summary); err != nil {
		return nil, fmt.Errorf("failed to decode summary of sweep %s: %w", id, err)
	}
	e.Summary = &summary
	return &e, nil
}

// Recorder adapts the service to the sweep engine's Reporter.
type Recorder struct {
	service *Service
}

// NewRecorder creates a Reporter that persists every summary update.
func NewRecorder(service *Service) *Recorder {
	return &Recorder{service: service}
}

// Update persists the summary snapshot. Persistence failures are logged and
// swallowed; history must never break a sweep.
func (r *Recorder) Update(ctx context.Context, summary *sweep.Summary) {
	if err := r.service.Save(ctx, summary); err != nil {
		r.service.logger.Warn().Err(err).Str("sweepId", summary.ID).Msg("failed to persist sweep summary")
	}
}
