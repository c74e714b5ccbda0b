package history

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/janitarr/janitarr/internal/sweep"
	"github.com/janitarr/janitarr/internal/testutil"
)

func testService(t *testing.T) *Service {
	t.Helper()
	return NewService(testutil.NewTestDB(t).Conn, zerolog.Nop())
}

func sampleSummary(id string) *sweep.Summary {
	return &sweep.Summary{
		ID:           id,
		Trigger:      sweep.TriggerManual,
		StartedAt:    time.Date(2026, 8, 1, 4, 0, 0, 0, time.UTC),
		Duration:     3 * time.Second,
		GroupsFound:  2,
		ItemsDeleted: 1,
		Warnings:     []string{"group \"X\": something minor"},
		Groups: []sweep.GroupResult{
			{Key: "550", Title: "Fight Club", State: sweep.StateVerified, KeeperID: "11"},
		},
	}
}

func TestSaveAndGet(t *testing.T) {
	svc := testService(t)
	ctx := context.Background()

	if err := svc.Save(ctx, sampleSummary("s1")); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	entry, err := svc.Get(ctx, "s1")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if entry.GroupsFound != 2 || entry.ItemsDeleted != 1 {
		t.Errorf("entry = %+v", entry)
	}
	if entry.Summary == nil || len(entry.Summary.Groups) != 1 {
		t.Fatalf("full summary not round-tripped: %+v", entry.Summary)
	}
	if entry.Summary.Groups[0].State != sweep.StateVerified {
		t.Errorf("group state = %q", entry.Summary.Groups[0].State)
	}
}

func TestSave_UpsertsByID(t *testing.T) {
	svc := testService(t)
	ctx := context.Background()

	s := sampleSummary("s1")
	if err := svc.Save(ctx, s); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	s.ItemsDeleted = 7
	if err := svc.Save(ctx, s); err != nil {
		t.Fatalf("second Save() error = %v", err)
	}

	entries, err := svc.List(ctx, 10)
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("got %d entries, want 1 after upsert", len(entries))
	}
	if entries[0].ItemsDeleted != 7 {
		t.Errorf("ItemsDeleted = %d, want updated value 7", entries[0].ItemsDeleted)
	}
}

func TestList_NewestFirst(t *testing.T) {
	svc := testService(t)
	ctx := context.Background()

	older := sampleSummary("old")
	newer := sampleSummary("new")
	newer.StartedAt = older.StartedAt.Add(time.Hour)
	for _, s := range []*sweep.Summary{older, newer} {
		if err := svc.Save(ctx, s); err != nil {
			t.Fatalf("Save() error = %v", err)
		}
	}

	entries, err := svc.List(ctx, 10)
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(entries) != 2 || entries[0].ID != "new" {
		t.Errorf("entries = %+v, want newest first", entries)
	}
}

func TestGet_NotFound(t *testing.T) {
	svc := testService(t)
	if _, err := svc.Get(context.Background(), "missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Get() error = %v, want ErrNotFound", err)
	}
}
