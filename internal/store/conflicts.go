package store

import (
	"database/sql"
	"time"

	"github.com/theo/glucolog/internal/models"
)

// RecordConflict persists a detected divergence. If a pending conflict already
// exists for the reading it is returned unchanged, so repeated fetches of the
// same divergent state do not pile up duplicates.
func (s *Store) RecordConflict(readingID, localData, remoteData string) (int64, error) {
	var id int64
	err := s.withWriteLock(func() error {
		err := s.conn.QueryRow(
			`SELECT id FROM conflicts WHERE reading_id = ? AND status = 'pending' LIMIT 1`,
			readingID).Scan(&id)
		if err == nil {
			return nil
		}
		if err != sql.ErrNoRows {
			return err
		}

		res, err := s.conn.Exec(
			`INSERT INTO conflicts (reading_id, local_data, remote_data, status, detected_at)
			 VALUES (?, ?, ?, 'pending', ?)`,
			readingID, localData, remoteData, time.Now().UTC().Format(timeFormat))
		if err != nil {
			return err
		}
		id, err = res.LastInsertId()
		return err
	})
	if err != nil {
		return 0, &StorageError{Op: "record conflict", Err: err}
	}
	return id, nil
}

// GetConflict fetches one conflict by id
func (s *Store) GetConflict(id int64) (*models.ConflictItem, error) {
	row := s.conn.QueryRow(
		`SELECT id, reading_id, local_data, remote_data, status, resolution, detected_at, resolved_at
		 FROM conflicts WHERE id = ?`, id)
	c, err := scanConflict(row.Scan)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, &StorageError{Op: "get conflict", Err: err}
	}
	return c, nil
}

// PendingConflicts returns all unresolved conflicts, oldest first
func (s *Store) PendingConflicts() ([]models.ConflictItem, error) {
	rows, err := s.conn.Query(
		`SELECT id, reading_id, local_data, remote_data, status, resolution, detected_at, resolved_at
		 FROM conflicts WHERE status = 'pending' ORDER BY id ASC`)
	if err != nil {
		return nil, &StorageError{Op: "list conflicts", Err: err}
	}
	defer rows.Close()

	var conflicts []models.ConflictItem
	for rows.Next() {
		c, err := scanConflict(rows.Scan)
		if err != nil {
			return nil, &StorageError{Op: "scan conflict", Err: err}
		}
		conflicts = append(conflicts, *c)
	}
	return conflicts, rows.Err()
}

// HasPendingConflict reports whether a reading has an unresolved conflict
func (s *Store) HasPendingConflict(readingID string) (bool, error) {
	var count int
	err := s.conn.QueryRow(
		`SELECT COUNT(*) FROM conflicts WHERE reading_id = ? AND status = 'pending'`,
		readingID).Scan(&count)
	if err != nil {
		return false, &StorageError{Op: "check pending conflict", Err: err}
	}
	return count > 0, nil
}

// MarkConflictResolved transitions a conflict to its terminal resolved state.
// Resolved conflicts are never re-evaluated.
func (s *Store) MarkConflictResolved(id int64, policy models.ResolutionPolicy) error {
	var affected int64
	err := s.withWriteLock(func() error {
		res, err := s.conn.Exec(
			`UPDATE conflicts SET status = 'resolved', resolution = ?, resolved_at = ?
			 WHERE id = ? AND status = 'pending'`,
			string(policy), time.Now().UTC().Format(timeFormat), id)
		if err != nil {
			return err
		}
		affected, _ = res.RowsAffected()
		return nil
	})
	if err != nil {
		return &StorageError{Op: "resolve conflict", Err: err}
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

func scanConflict(scan func(dest ...any) error) (*models.ConflictItem, error) {
	var c models.ConflictItem
	var detectedAt string
	var resolvedAt sql.NullString
	err := scan(&c.ID, &c.ReadingID, &c.LocalData, &c.RemoteData, &c.Status, &c.Resolution,
		&detectedAt, &resolvedAt)
	if err != nil {
		return nil, err
	}
	if c.DetectedAt, err = parseTimestamp(detectedAt); err != nil {
		return nil, err
	}
	if resolvedAt.Valid {
		t, err := parseTimestamp(resolvedAt.String)
		if err != nil {
			return nil, err
		}
		c.ResolvedAt = &t
	}
	return &c, nil
}
