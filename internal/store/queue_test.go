package store

import (
	"testing"

	"github.com/theo/glucolog/internal/models"
)

func TestQueueInsertionOrder(t *testing.T) {
	s := setupStore(t)

	id1, err := s.Enqueue("r1", models.OpCreate)
	if err != nil {
		t.Fatalf("Enqueue failed: %v", err)
	}
	id2, _ := s.Enqueue("r2", models.OpUpdate)
	id3, _ := s.Enqueue("r3", models.OpCreate)

	entries, err := s.PendingEntries()
	if err != nil {
		t.Fatalf("PendingEntries failed: %v", err)
	}
	if len(entries) != 3 {
		t.Fatalf("got %d entries, want 3", len(entries))
	}
	wantIDs := []int64{id1, id2, id3}
	wantReadings := []string{"r1", "r2", "r3"}
	for i, e := range entries {
		if e.ID != wantIDs[i] || e.ReadingID != wantReadings[i] {
			t.Errorf("entry %d = {%d %s}, want {%d %s}", i, e.ID, e.ReadingID, wantIDs[i], wantReadings[i])
		}
	}
}

func TestPendingEntryFor(t *testing.T) {
	s := setupStore(t)

	if e, err := s.PendingEntryFor("r1"); err != nil || e != nil {
		t.Fatalf("expected no entry, got %+v err=%v", e, err)
	}

	first, _ := s.Enqueue("r1", models.OpCreate)
	s.Enqueue("r1", models.OpUpdate)

	e, err := s.PendingEntryFor("r1")
	if err != nil {
		t.Fatalf("PendingEntryFor failed: %v", err)
	}
	if e == nil || e.ID != first {
		t.Errorf("expected oldest entry %d, got %+v", first, e)
	}
	if e.Op != models.OpCreate {
		t.Errorf("op = %s, want create", e.Op)
	}
	if e.EnqueuedAt.IsZero() {
		t.Error("enqueued_at not set")
	}
}

func TestRemoveEntry(t *testing.T) {
	s := setupStore(t)
	id, _ := s.Enqueue("r1", models.OpCreate)

	if err := s.RemoveEntry(id); err != nil {
		t.Fatalf("RemoveEntry failed: %v", err)
	}
	count, _ := s.CountPending()
	if count != 0 {
		t.Errorf("count = %d after remove, want 0", count)
	}
}

func TestRemoveEntriesFor(t *testing.T) {
	s := setupStore(t)
	s.Enqueue("r1", models.OpCreate)
	s.Enqueue("r1", models.OpUpdate)
	s.Enqueue("r2", models.OpCreate)

	if err := s.RemoveEntriesFor("r1"); err != nil {
		t.Fatalf("RemoveEntriesFor failed: %v", err)
	}
	entries, _ := s.PendingEntries()
	if len(entries) != 1 || entries[0].ReadingID != "r2" {
		t.Errorf("expected only r2 left, got %+v", entries)
	}
}

func TestBumpRetry(t *testing.T) {
	s := setupStore(t)
	id, _ := s.Enqueue("r1", models.OpCreate)

	if err := s.BumpRetry(id); err != nil {
		t.Fatalf("BumpRetry failed: %v", err)
	}
	if err := s.BumpRetry(id); err != nil {
		t.Fatalf("BumpRetry failed: %v", err)
	}

	e, _ := s.PendingEntryFor("r1")
	if e.Retries != 2 {
		t.Errorf("retries = %d, want 2", e.Retries)
	}
}

func TestEnqueueDeleteCarriesBackendID(t *testing.T) {
	s := setupStore(t)
	s.EnqueueDelete("r1", "b-42")

	e, _ := s.PendingEntryFor("r1")
	if e == nil || e.Op != models.OpDelete || e.BackendID != "b-42" {
		t.Errorf("delete entry wrong: %+v", e)
	}
}

func TestHasPendingDelete(t *testing.T) {
	s := setupStore(t)

	if has, err := s.HasPendingDelete("b-42"); err != nil || has {
		t.Fatalf("empty queue: has=%v err=%v", has, err)
	}
	if has, _ := s.HasPendingDelete(""); has {
		t.Error("empty backend id must never match")
	}

	s.Enqueue("r1", models.OpUpdate)
	s.EnqueueDelete("r2", "b-42")

	if has, _ := s.HasPendingDelete("b-42"); !has {
		t.Error("expected pending delete for b-42")
	}
	if has, _ := s.HasPendingDelete("b-other"); has {
		t.Error("unrelated backend id matched")
	}

	s.RemoveEntriesFor("r2")
	if has, _ := s.HasPendingDelete("b-42"); has {
		t.Error("flushed delete still reported pending")
	}
}

func TestQueueSurvivesReopen(t *testing.T) {
	dir := t.TempDir()
	s, err := Initialize(dir)
	if err != nil {
		t.Fatalf("Initialize failed: %v", err)
	}
	s.Enqueue("r1", models.OpCreate)
	s.Close()

	s2, err := Open(dir)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer s2.Close()

	count, err := s2.CountPending()
	if err != nil {
		t.Fatalf("CountPending failed: %v", err)
	}
	if count != 1 {
		t.Errorf("count after reopen = %d, want 1", count)
	}
}
