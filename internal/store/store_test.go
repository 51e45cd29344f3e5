package store

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/theo/glucolog/internal/models"
)

func setupStore(t *testing.T) *Store {
	t.Helper()
	s, err := Initialize(t.TempDir())
	if err != nil {
		t.Fatalf("Initialize failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func mustCreate(t *testing.T, s *Store, userID string, value float64, measuredAt time.Time) *models.Reading {
	t.Helper()
	r := &models.Reading{
		Value:      value,
		Unit:       models.UnitMgDl,
		MeasuredAt: measuredAt,
		UserID:     userID,
	}
	if err := s.CreateReading(r); err != nil {
		t.Fatalf("CreateReading failed: %v", err)
	}
	return r
}

func TestInitialize(t *testing.T) {
	dir := t.TempDir()
	s, err := Initialize(dir)
	if err != nil {
		t.Fatalf("Initialize failed: %v", err)
	}
	defer s.Close()

	if _, err := os.Stat(filepath.Join(dir, dbFile)); os.IsNotExist(err) {
		t.Error("database file not created")
	}

	version, err := s.GetSchemaVersion()
	if err != nil {
		t.Fatalf("GetSchemaVersion failed: %v", err)
	}
	if version != SchemaVersion {
		t.Errorf("schema version = %d, want %d", version, SchemaVersion)
	}
}

func TestOpenMissingDatabase(t *testing.T) {
	if _, err := Open(t.TempDir()); err == nil {
		t.Error("Open on missing database should fail")
	}
}

func TestCreateAndGetReading(t *testing.T) {
	s := setupStore(t)

	r := &models.Reading{
		Value:       142,
		Unit:        models.UnitMgDl,
		MeasuredAt:  time.Date(2026, 3, 14, 8, 30, 0, 0, time.UTC),
		Type:        models.TypeManual,
		SubType:     models.SubTypeFasting,
		Notes:       "before breakfast",
		MealContext: "breakfast",
		UserID:      "u1",
	}
	if err := s.CreateReading(r); err != nil {
		t.Fatalf("CreateReading failed: %v", err)
	}
	if r.ID == "" {
		t.Fatal("reading id not generated")
	}
	if r.Status != models.StatusNormal {
		t.Errorf("status = %s, want normal", r.Status)
	}
	if r.LocalStoredAt.IsZero() {
		t.Error("LocalStoredAt not stamped")
	}

	got, err := s.GetReading("u1", r.ID)
	if err != nil {
		t.Fatalf("GetReading failed: %v", err)
	}
	if got.Value != 142 || got.Notes != "before breakfast" || got.SubType != models.SubTypeFasting {
		t.Errorf("retrieved reading mismatch: %+v", got)
	}
	if got.Synced {
		t.Error("new reading should not be synced")
	}
	if !got.MeasuredAt.Equal(r.MeasuredAt) {
		t.Errorf("measured_at = %v, want %v", got.MeasuredAt, r.MeasuredAt)
	}
}

func TestCreateReadingRequiresUser(t *testing.T) {
	s := setupStore(t)
	err := s.CreateReading(&models.Reading{Value: 100, Unit: models.UnitMgDl})
	if err == nil {
		t.Error("create without user id should fail")
	}
}

func TestCreateReadingRejectsUnknownUnit(t *testing.T) {
	s := setupStore(t)
	err := s.CreateReading(&models.Reading{Value: 100, Unit: "furlongs", UserID: "u1"})
	if err == nil {
		t.Error("create with unknown unit should fail")
	}
}

func TestGetReadingScopedToUser(t *testing.T) {
	s := setupStore(t)
	r := mustCreate(t, s, "u1", 110, time.Now().UTC())

	if _, err := s.GetReading("u2", r.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("cross-user get should return ErrNotFound, got %v", err)
	}
}

func TestUpdateReading(t *testing.T) {
	s := setupStore(t)
	r := mustCreate(t, s, "u1", 110, time.Now().UTC())

	r.Value = 260
	r.Notes = "corrected"
	if err := s.UpdateReading(r); err != nil {
		t.Fatalf("UpdateReading failed: %v", err)
	}

	got, err := s.GetReading("u1", r.ID)
	if err != nil {
		t.Fatalf("GetReading failed: %v", err)
	}
	if got.Value != 260 || got.Notes != "corrected" {
		t.Errorf("update not applied: %+v", got)
	}
	if got.Status != models.StatusCriticalHigh {
		t.Errorf("status not recomputed: %s", got.Status)
	}
}

func TestUpdateReadingWrongUser(t *testing.T) {
	s := setupStore(t)
	r := mustCreate(t, s, "u1", 110, time.Now().UTC())

	r.UserID = "u2"
	if err := s.UpdateReading(r); !errors.Is(err, ErrNotFound) {
		t.Errorf("cross-user update should return ErrNotFound, got %v", err)
	}
}

func TestMarkSynced(t *testing.T) {
	s := setupStore(t)
	r := mustCreate(t, s, "u1", 110, time.Now().UTC())

	if err := s.MarkSynced("u1", r.ID, "b-99"); err != nil {
		t.Fatalf("MarkSynced failed: %v", err)
	}

	got, _ := s.GetReading("u1", r.ID)
	if !got.Synced || got.BackendID != "b-99" {
		t.Errorf("got synced=%v backend=%q, want synced backend b-99", got.Synced, got.BackendID)
	}

	// Re-marking without a backend id keeps the existing one
	if err := s.MarkSynced("u1", r.ID, ""); err != nil {
		t.Fatalf("MarkSynced failed: %v", err)
	}
	got, _ = s.GetReading("u1", r.ID)
	if got.BackendID != "b-99" {
		t.Errorf("backend id lost on re-mark: %q", got.BackendID)
	}
}

func TestDeleteReading(t *testing.T) {
	s := setupStore(t)
	r := mustCreate(t, s, "u1", 110, time.Now().UTC())

	if err := s.DeleteReading("u1", r.ID); err != nil {
		t.Fatalf("DeleteReading failed: %v", err)
	}
	if _, err := s.GetReading("u1", r.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("deleted reading still found, err=%v", err)
	}
	if err := s.DeleteReading("u1", r.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("double delete should return ErrNotFound, got %v", err)
	}
}

func TestListReadingsOrderingAndPagination(t *testing.T) {
	s := setupStore(t)
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	oldest := mustCreate(t, s, "u1", 100, base.Add(-2*time.Hour))
	newest := mustCreate(t, s, "u1", 120, base)
	// Same capture time as newest: insertion order breaks the tie
	tied := mustCreate(t, s, "u1", 130, base)
	mustCreate(t, s, "u2", 999, base) // other user, must not appear

	page, err := s.ListReadings("u1", 2, 0)
	if err != nil {
		t.Fatalf("ListReadings failed: %v", err)
	}
	if page.Total != 3 {
		t.Errorf("total = %d, want 3", page.Total)
	}
	if !page.HasMore {
		t.Error("expected hasMore=true on first page")
	}
	if len(page.Readings) != 2 {
		t.Fatalf("page size = %d, want 2", len(page.Readings))
	}
	if page.Readings[0].ID != newest.ID || page.Readings[1].ID != tied.ID {
		t.Errorf("ordering wrong: got %s, %s", page.Readings[0].ID, page.Readings[1].ID)
	}

	page2, err := s.ListReadings("u1", 2, 2)
	if err != nil {
		t.Fatalf("ListReadings page 2 failed: %v", err)
	}
	if page2.HasMore {
		t.Error("expected hasMore=false on last page")
	}
	if len(page2.Readings) != 1 || page2.Readings[0].ID != oldest.ID {
		t.Errorf("last page wrong: %+v", page2.Readings)
	}
}

func TestListReadingsEmptyUser(t *testing.T) {
	s := setupStore(t)
	mustCreate(t, s, "u1", 110, time.Now().UTC())

	page, err := s.ListReadings("nobody", 10, 0)
	if err != nil {
		t.Fatalf("ListReadings failed: %v", err)
	}
	if page.Total != 0 || page.HasMore || len(page.Readings) != 0 {
		t.Errorf("expected empty page, got %+v", page)
	}
}

func TestListReadingsByRange(t *testing.T) {
	s := setupStore(t)
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	mustCreate(t, s, "u1", 100, base.Add(-48*time.Hour))
	inRange := mustCreate(t, s, "u1", 110, base.Add(-1*time.Hour))
	mustCreate(t, s, "u1", 120, base.Add(24*time.Hour))

	got, err := s.ListReadingsByRange("u1", base.Add(-2*time.Hour), base)
	if err != nil {
		t.Fatalf("ListReadingsByRange failed: %v", err)
	}
	if len(got) != 1 || got[0].ID != inRange.ID {
		t.Errorf("range query wrong: %+v", got)
	}
}

func TestScopeIsolationAcrossUsers(t *testing.T) {
	s := setupStore(t)
	mustCreate(t, s, "alice", 100, time.Now().UTC())
	mustCreate(t, s, "alice", 105, time.Now().UTC())
	mustCreate(t, s, "bob", 200, time.Now().UTC())

	alicePage, _ := s.ListReadings("alice", 10, 0)
	for _, r := range alicePage.Readings {
		if r.UserID != "alice" {
			t.Errorf("alice's query returned record owned by %s", r.UserID)
		}
	}
	bobPage, _ := s.ListReadings("bob", 10, 0)
	if len(bobPage.Readings) != 1 || bobPage.Readings[0].UserID != "bob" {
		t.Errorf("bob's query wrong: %+v", bobPage.Readings)
	}
}
