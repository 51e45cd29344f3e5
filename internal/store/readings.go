package store

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/theo/glucolog/internal/models"
)

// ErrNotFound is returned when a reading does not exist in the active scope.
var ErrNotFound = errors.New("reading not found")

const timeFormat = time.RFC3339Nano

// parseTimestamp tries common sqlite timestamp formats.
func parseTimestamp(s string) (time.Time, error) {
	formats := []string{
		time.RFC3339Nano,
		time.RFC3339,
		"2006-01-02 15:04:05.999999999-07:00",
		"2006-01-02 15:04:05",
		"2006-01-02T15:04:05.999999999",
	}
	for _, f := range formats {
		if t, err := time.Parse(f, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized timestamp format: %q", s)
}

const readingColumns = `id, backend_id, value, unit, measured_at, type, sub_type,
	notes, meal_context, device_id, user_id, synced, local_stored_at`

func scanReading(scan func(dest ...any) error) (*models.Reading, error) {
	var r models.Reading
	var synced int
	var measuredAt, storedAt string
	err := scan(&r.ID, &r.BackendID, &r.Value, &r.Unit, &measuredAt, &r.Type, &r.SubType,
		&r.Notes, &r.MealContext, &r.DeviceID, &r.UserID, &synced, &storedAt)
	if err != nil {
		return nil, err
	}
	if r.MeasuredAt, err = parseTimestamp(measuredAt); err != nil {
		return nil, err
	}
	if r.LocalStoredAt, err = parseTimestamp(storedAt); err != nil {
		return nil, err
	}
	r.Synced = synced != 0
	r.Status = models.ComputeStatus(r.Value, r.Unit)
	return &r, nil
}

// CreateReading inserts a new reading. A missing ID is generated; LocalStoredAt
// is set to now; Status is derived, not taken from the caller.
func (s *Store) CreateReading(r *models.Reading) error {
	if r.UserID == "" {
		return fmt.Errorf("reading requires a user id")
	}
	if !models.IsValidUnit(r.Unit) {
		return fmt.Errorf("invalid unit: %s", r.Unit)
	}
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	if r.Type == "" {
		r.Type = models.TypeManual
	}
	if r.MeasuredAt.IsZero() {
		r.MeasuredAt = time.Now().UTC()
	}
	r.LocalStoredAt = time.Now().UTC()
	r.Status = models.ComputeStatus(r.Value, r.Unit)

	err := s.withWriteLock(func() error {
		_, err := s.conn.Exec(`
			INSERT INTO readings (id, backend_id, value, unit, measured_at, type, sub_type,
				notes, meal_context, device_id, user_id, synced, local_stored_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			r.ID, r.BackendID, r.Value, string(r.Unit), r.MeasuredAt.UTC().Format(timeFormat),
			string(r.Type), string(r.SubType), r.Notes, r.MealContext, r.DeviceID,
			r.UserID, boolToInt(r.Synced), r.LocalStoredAt.Format(timeFormat))
		return err
	})
	if err != nil {
		return &StorageError{Op: "create reading", Err: err}
	}

	s.notify(r.UserID)
	return nil
}

// GetReading fetches one reading owned by the given user
func (s *Store) GetReading(userID, id string) (*models.Reading, error) {
	row := s.conn.QueryRow(
		`SELECT `+readingColumns+` FROM readings WHERE id = ? AND user_id = ?`, id, userID)
	r, err := scanReading(row.Scan)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, &StorageError{Op: "get reading", Err: err}
	}
	return r, nil
}

// ReadingByID fetches one reading regardless of owner. Not part of the scoped
// query surface; only the sync engine's queue drain uses it, because queue
// entries are operational metadata that may span users.
func (s *Store) ReadingByID(id string) (*models.Reading, error) {
	row := s.conn.QueryRow(
		`SELECT `+readingColumns+` FROM readings WHERE id = ?`, id)
	r, err := scanReading(row.Scan)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, &StorageError{Op: "get reading by id", Err: err}
	}
	return r, nil
}

// GetReadingByBackendID fetches one reading by its server-assigned id
func (s *Store) GetReadingByBackendID(userID, backendID string) (*models.Reading, error) {
	if backendID == "" {
		return nil, ErrNotFound
	}
	row := s.conn.QueryRow(
		`SELECT `+readingColumns+` FROM readings WHERE backend_id = ? AND user_id = ?`, backendID, userID)
	r, err := scanReading(row.Scan)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, &StorageError{Op: "get reading by backend id", Err: err}
	}
	return r, nil
}

// UpdateReading replaces the stored row for r.ID within r.UserID's scope
func (s *Store) UpdateReading(r *models.Reading) error {
	if r.UserID == "" {
		return fmt.Errorf("reading requires a user id")
	}
	r.Status = models.ComputeStatus(r.Value, r.Unit)

	var affected int64
	err := s.withWriteLock(func() error {
		res, err := s.conn.Exec(`
			UPDATE readings SET backend_id = ?, value = ?, unit = ?, measured_at = ?,
				type = ?, sub_type = ?, notes = ?, meal_context = ?, device_id = ?, synced = ?
			WHERE id = ? AND user_id = ?`,
			r.BackendID, r.Value, string(r.Unit), r.MeasuredAt.UTC().Format(timeFormat),
			string(r.Type), string(r.SubType), r.Notes, r.MealContext, r.DeviceID,
			boolToInt(r.Synced), r.ID, r.UserID)
		if err != nil {
			return err
		}
		affected, _ = res.RowsAffected()
		return nil
	})
	if err != nil {
		return &StorageError{Op: "update reading", Err: err}
	}
	if affected == 0 {
		return ErrNotFound
	}

	s.notify(r.UserID)
	return nil
}

// MarkSynced flips a reading to synced and records its backend id
func (s *Store) MarkSynced(userID, id, backendID string) error {
	var affected int64
	err := s.withWriteLock(func() error {
		res, err := s.conn.Exec(`
			UPDATE readings SET synced = 1, backend_id = CASE WHEN ? != '' THEN ? ELSE backend_id END
			WHERE id = ? AND user_id = ?`,
			backendID, backendID, id, userID)
		if err != nil {
			return err
		}
		affected, _ = res.RowsAffected()
		return nil
	})
	if err != nil {
		return &StorageError{Op: "mark synced", Err: err}
	}
	if affected == 0 {
		return ErrNotFound
	}

	s.notify(userID)
	return nil
}

// DeleteReading removes a reading from the local store
func (s *Store) DeleteReading(userID, id string) error {
	var affected int64
	err := s.withWriteLock(func() error {
		res, err := s.conn.Exec(`DELETE FROM readings WHERE id = ? AND user_id = ?`, id, userID)
		if err != nil {
			return err
		}
		affected, _ = res.RowsAffected()
		return nil
	})
	if err != nil {
		return &StorageError{Op: "delete reading", Err: err}
	}
	if affected == 0 {
		return ErrNotFound
	}

	s.notify(userID)
	return nil
}

// ListReadings returns one page of the user's readings, newest measurement
// first, insertion order breaking ties.
func (s *Store) ListReadings(userID string, limit, offset int) (*models.ReadingPage, error) {
	if limit <= 0 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}

	var total int
	if err := s.conn.QueryRow(
		`SELECT COUNT(*) FROM readings WHERE user_id = ?`, userID).Scan(&total); err != nil {
		return nil, &StorageError{Op: "count readings", Err: err}
	}

	rows, err := s.conn.Query(
		`SELECT `+readingColumns+` FROM readings WHERE user_id = ?
		 ORDER BY measured_at DESC, rowid ASC LIMIT ? OFFSET ?`,
		userID, limit, offset)
	if err != nil {
		return nil, &StorageError{Op: "list readings", Err: err}
	}
	defer rows.Close()

	page := &models.ReadingPage{Readings: []models.Reading{}, Total: total}
	for rows.Next() {
		r, err := scanReading(rows.Scan)
		if err != nil {
			return nil, &StorageError{Op: "scan reading", Err: err}
		}
		page.Readings = append(page.Readings, *r)
	}
	if err := rows.Err(); err != nil {
		return nil, &StorageError{Op: "list readings", Err: err}
	}
	page.HasMore = offset+len(page.Readings) < total
	return page, nil
}

// ListReadingsByRange returns the user's readings measured in [from, to],
// newest first.
func (s *Store) ListReadingsByRange(userID string, from, to time.Time) ([]models.Reading, error) {
	rows, err := s.conn.Query(
		`SELECT `+readingColumns+` FROM readings
		 WHERE user_id = ? AND measured_at >= ? AND measured_at <= ?
		 ORDER BY measured_at DESC, rowid ASC`,
		userID, from.UTC().Format(timeFormat), to.UTC().Format(timeFormat))
	if err != nil {
		return nil, &StorageError{Op: "list readings by range", Err: err}
	}
	defer rows.Close()

	var readings []models.Reading
	for rows.Next() {
		r, err := scanReading(rows.Scan)
		if err != nil {
			return nil, &StorageError{Op: "scan reading", Err: err}
		}
		readings = append(readings, *r)
	}
	return readings, rows.Err()
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
