package store

import (
	"database/sql"
	"time"

	"github.com/theo/glucolog/internal/models"
)

// Enqueue appends an outbound mutation to the sync queue and returns its id
func (s *Store) Enqueue(readingID string, op models.QueueOp) (int64, error) {
	return s.enqueue(readingID, "", op)
}

// EnqueueDelete appends a delete entry. The backend id is captured here
// because the local row is gone by the time the entry is flushed.
func (s *Store) EnqueueDelete(readingID, backendID string) (int64, error) {
	return s.enqueue(readingID, backendID, models.OpDelete)
}

func (s *Store) enqueue(readingID, backendID string, op models.QueueOp) (int64, error) {
	var id int64
	err := s.withWriteLock(func() error {
		res, err := s.conn.Exec(
			`INSERT INTO sync_queue (reading_id, backend_id, op, enqueued_at) VALUES (?, ?, ?, ?)`,
			readingID, backendID, string(op), time.Now().UTC().Format(timeFormat))
		if err != nil {
			return err
		}
		id, err = res.LastInsertId()
		return err
	})
	if err != nil {
		return 0, &StorageError{Op: "enqueue", Err: err}
	}
	return id, nil
}

// PendingEntries returns all queue entries in insertion order (oldest first).
// Drain order is the causal order of the edits that produced the entries.
func (s *Store) PendingEntries() ([]models.SyncQueueEntry, error) {
	rows, err := s.conn.Query(
		`SELECT id, reading_id, backend_id, op, enqueued_at, retries FROM sync_queue ORDER BY id ASC`)
	if err != nil {
		return nil, &StorageError{Op: "list queue", Err: err}
	}
	defer rows.Close()

	var entries []models.SyncQueueEntry
	for rows.Next() {
		e, err := scanQueueEntry(rows.Scan)
		if err != nil {
			return nil, &StorageError{Op: "scan queue entry", Err: err}
		}
		entries = append(entries, *e)
	}
	return entries, rows.Err()
}

// PendingEntryFor returns the oldest pending entry for a reading, or nil
func (s *Store) PendingEntryFor(readingID string) (*models.SyncQueueEntry, error) {
	row := s.conn.QueryRow(
		`SELECT id, reading_id, backend_id, op, enqueued_at, retries FROM sync_queue
		 WHERE reading_id = ? ORDER BY id ASC LIMIT 1`, readingID)
	e, err := scanQueueEntry(row.Scan)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, &StorageError{Op: "get queue entry", Err: err}
	}
	return e, nil
}

// HasPendingDelete reports whether a queued delete references the given
// backend id. The local row is already gone for such entries, so this is the
// only trace that the record was deleted on this device.
func (s *Store) HasPendingDelete(backendID string) (bool, error) {
	if backendID == "" {
		return false, nil
	}
	var count int
	err := s.conn.QueryRow(
		`SELECT COUNT(*) FROM sync_queue WHERE op = 'delete' AND backend_id = ?`,
		backendID).Scan(&count)
	if err != nil {
		return false, &StorageError{Op: "check pending delete", Err: err}
	}
	return count > 0, nil
}

// RemoveEntry deletes a queue entry after its remote call succeeded
func (s *Store) RemoveEntry(id int64) error {
	err := s.withWriteLock(func() error {
		_, err := s.conn.Exec(`DELETE FROM sync_queue WHERE id = ?`, id)
		return err
	})
	if err != nil {
		return &StorageError{Op: "remove queue entry", Err: err}
	}
	return nil
}

// RemoveEntriesFor deletes all queue entries referencing a reading
func (s *Store) RemoveEntriesFor(readingID string) error {
	err := s.withWriteLock(func() error {
		_, err := s.conn.Exec(`DELETE FROM sync_queue WHERE reading_id = ?`, readingID)
		return err
	})
	if err != nil {
		return &StorageError{Op: "remove queue entries", Err: err}
	}
	return nil
}

// BumpRetry increments the retry count of a queue entry that failed remotely.
// The entry stays queued for the next cycle.
func (s *Store) BumpRetry(id int64) error {
	err := s.withWriteLock(func() error {
		_, err := s.conn.Exec(`UPDATE sync_queue SET retries = retries + 1 WHERE id = ?`, id)
		return err
	})
	if err != nil {
		return &StorageError{Op: "bump retry", Err: err}
	}
	return nil
}

// CountPending returns the number of queued outbound mutations
func (s *Store) CountPending() (int64, error) {
	var count int64
	err := s.conn.QueryRow(`SELECT COUNT(*) FROM sync_queue`).Scan(&count)
	if err != nil {
		return 0, &StorageError{Op: "count queue", Err: err}
	}
	return count, nil
}

func scanQueueEntry(scan func(dest ...any) error) (*models.SyncQueueEntry, error) {
	var e models.SyncQueueEntry
	var enqueuedAt string
	if err := scan(&e.ID, &e.ReadingID, &e.BackendID, &e.Op, &enqueuedAt, &e.Retries); err != nil {
		return nil, err
	}
	var err error
	if e.EnqueuedAt, err = parseTimestamp(enqueuedAt); err != nil {
		return nil, err
	}
	return &e, nil
}
