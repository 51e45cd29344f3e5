package syncer

import (
	"encoding/json"
	"fmt"

	"github.com/theo/glucolog/internal/models"
)

// ErrConflictResolved is returned when resolving a conflict that is already
// in its terminal state.
var ErrConflictResolved = fmt.Errorf("conflict already resolved")

// ListConflicts returns all conflicts still awaiting a decision. Conflicts are
// never auto-resolved; a glucose reading is only discarded by an explicit
// human choice.
func (e *Engine) ListConflicts() ([]models.ConflictItem, error) {
	return e.store.PendingConflicts()
}

// ResolveConflict settles one pending conflict with the given policy and
// transitions it to resolved. Resolved conflicts are terminal and are not
// re-evaluated on later fetches.
//
//   - keep-mine: the local record stands; its sync-queue entry is preserved
//     (re-created if missing) so the local version is pushed next cycle.
//   - keep-server: the remote snapshot overwrites the local record and the
//     local pending edit is abandoned (queue entry removed).
//   - keep-both: the local record stays as-is and the remote snapshot is
//     inserted as a new record under a fresh local id; nothing is destroyed
//     and both remain independently syncable.
func (e *Engine) ResolveConflict(conflictID int64, policy models.ResolutionPolicy) error {
	if !models.IsValidPolicy(policy) {
		return fmt.Errorf("invalid resolution policy: %s", policy)
	}

	conflict, err := e.store.GetConflict(conflictID)
	if err != nil {
		return err
	}
	if conflict.Status == models.ConflictResolved {
		return ErrConflictResolved
	}

	var local, remote models.Reading
	if err := json.Unmarshal([]byte(conflict.LocalData), &local); err != nil {
		return fmt.Errorf("decode local snapshot: %w", err)
	}
	if err := json.Unmarshal([]byte(conflict.RemoteData), &remote); err != nil {
		return fmt.Errorf("decode remote snapshot: %w", err)
	}

	switch policy {
	case models.KeepMine:
		if err := e.keepMine(&local); err != nil {
			return err
		}
	case models.KeepServer:
		if err := e.keepServer(&local, &remote); err != nil {
			return err
		}
	case models.KeepBoth:
		if err := e.keepBoth(&remote); err != nil {
			return err
		}
	}

	return e.store.MarkConflictResolved(conflictID, policy)
}

// keepMine leaves the local record untouched and makes sure the pending push
// that triggered detection is not lost.
func (e *Engine) keepMine(local *models.Reading) error {
	pending, err := e.store.PendingEntryFor(local.ID)
	if err != nil {
		return err
	}
	if pending != nil {
		return nil
	}
	op := models.OpUpdate
	if local.IsLocalOnly() {
		op = models.OpCreate
	}
	_, err = e.store.Enqueue(local.ID, op)
	return err
}

// keepServer abandons the local edit: the remote snapshot overwrites the row
// and the queue entry is dropped.
func (e *Engine) keepServer(local, remote *models.Reading) error {
	remote.ID = local.ID
	remote.UserID = local.UserID
	remote.Synced = true
	if err := e.store.UpdateReading(remote); err != nil {
		return err
	}
	return e.store.RemoveEntriesFor(local.ID)
}

// keepBoth inserts the remote snapshot as a new, independent record. The
// original local record keeps its queue entry and syncs on the next cycle.
func (e *Engine) keepBoth(remote *models.Reading) error {
	remote.ID = "" // store assigns a fresh local id
	remote.Synced = true
	return e.store.CreateReading(remote)
}
