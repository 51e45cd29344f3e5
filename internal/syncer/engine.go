// Package syncer orchestrates push, pull, and full bidirectional sync between
// the local store and the backend. It is the only component that calls the
// remote gateway, and it consults the network monitor before every remote
// decision.
package syncer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/theo/glucolog/internal/mapper"
	"github.com/theo/glucolog/internal/models"
	"github.com/theo/glucolog/internal/netmon"
	"github.com/theo/glucolog/internal/scope"
	"github.com/theo/glucolog/internal/store"
)

// State is the engine's position in the sync cycle.
type State string

const (
	StateIdle     State = "idle"
	StatePushing  State = "pushing"
	StateFetching State = "fetching"
)

// Engine coordinates the local store, the scope gate, the network monitor,
// and the remote gateway. It holds no durable state of its own.
type Engine struct {
	store   *store.Store
	gateway Gateway
	monitor *netmon.Monitor
	gate    *scope.Gate

	mu    sync.Mutex
	state State
}

// New creates an engine. The monitor must be started by the caller; every
// public operation waits for its initial probe before acting.
func New(st *store.Store, gw Gateway, mon *netmon.Monitor, gate *scope.Gate) *Engine {
	return &Engine{
		store:   st,
		gateway: gw,
		monitor: mon,
		gate:    gate,
		state:   StateIdle,
	}
}

// State returns the engine's current position in the sync cycle
func (e *Engine) State() State {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state
}

func (e *Engine) setState(s State) {
	e.mu.Lock()
	e.state = s
	e.mu.Unlock()
}

// waitReady blocks until the network monitor's initial probe has resolved,
// so the first sync decision never races the startup probe.
func (e *Engine) waitReady(ctx context.Context) error {
	select {
	case <-e.monitor.Ready():
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// --- Scoped local surface ---

// CreateReading stores a new reading for the active user. Online, the remote
// create is attempted inline; offline or on remote failure the mutation is
// queued for the next sync cycle.
func (e *Engine) CreateReading(ctx context.Context, r *models.Reading) error {
	if err := e.waitReady(ctx); err != nil {
		return err
	}
	userID, ok := e.gate.Current()
	if !ok {
		return scope.ErrNoActiveUser
	}
	r.UserID = userID
	r.Synced = false

	if err := e.store.CreateReading(r); err != nil {
		return err
	}

	if !e.monitor.Online() {
		_, err := e.store.Enqueue(r.ID, models.OpCreate)
		return err
	}

	resp, err := e.gateway.CreateReading(ctx, mapper.ToRemote(*r))
	if err != nil {
		slog.Warn("inline create failed, queueing", "reading", r.ID, "err", err)
		_, qerr := e.store.Enqueue(r.ID, models.OpCreate)
		return qerr
	}
	if err := e.store.MarkSynced(userID, r.ID, resp.ID); err != nil {
		return err
	}
	r.BackendID = resp.ID
	r.Synced = true
	return nil
}

// UpdateReading edits an existing reading owned by the active user.
func (e *Engine) UpdateReading(ctx context.Context, r *models.Reading) error {
	if err := e.waitReady(ctx); err != nil {
		return err
	}
	userID, ok := e.gate.Current()
	if !ok {
		return scope.ErrNoActiveUser
	}
	r.UserID = userID
	r.Synced = false

	if err := e.store.UpdateReading(r); err != nil {
		return err
	}

	if !e.monitor.Online() {
		return e.enqueueChange(r)
	}

	if err := e.pushOne(ctx, r); err != nil {
		slog.Warn("inline update failed, queueing", "reading", r.ID, "err", err)
		return e.enqueueChange(r)
	}
	r.Synced = true
	return nil
}

// enqueueChange queues an update, unless an entry already covers the reading.
// Entry payloads are read from the live row at drain time, so one entry per
// reading is enough no matter how many edits pile up behind it.
func (e *Engine) enqueueChange(r *models.Reading) error {
	existing, err := e.store.PendingEntryFor(r.ID)
	if err != nil {
		return err
	}
	if existing != nil {
		return nil
	}
	op := models.OpUpdate
	if r.IsLocalOnly() {
		op = models.OpCreate
	}
	_, err = e.store.Enqueue(r.ID, op)
	return err
}

// DeleteReading removes a reading locally and schedules the remote delete.
// A reading the server never saw is simply dropped along with its queue
// entries; no remote call is ever issued for it.
func (e *Engine) DeleteReading(ctx context.Context, id string) error {
	if err := e.waitReady(ctx); err != nil {
		return err
	}
	userID, ok := e.gate.Current()
	if !ok {
		return scope.ErrNoActiveUser
	}

	r, err := e.store.GetReading(userID, id)
	if err != nil {
		return err
	}

	if err := e.store.DeleteReading(userID, id); err != nil {
		return err
	}
	if err := e.store.RemoveEntriesFor(id); err != nil {
		return err
	}
	if r.IsLocalOnly() {
		return nil
	}

	if e.monitor.Online() {
		if err := e.gateway.DeleteReading(ctx, r.BackendID); err == nil {
			return nil
		} else {
			slog.Warn("inline delete failed, queueing", "reading", id, "err", err)
		}
	}
	_, err = e.store.EnqueueDelete(id, r.BackendID)
	return err
}

// GetReading fetches one reading in the active scope
func (e *Engine) GetReading(ctx context.Context, id string) (*models.Reading, error) {
	if err := e.waitReady(ctx); err != nil {
		return nil, err
	}
	userID, ok := e.gate.Current()
	if !ok {
		return nil, scope.ErrNoActiveUser
	}
	return e.store.GetReading(userID, id)
}

// ListReadings returns one page of the active user's readings. With no active
// user it returns an empty page, not an error: read paths degrade quietly.
func (e *Engine) ListReadings(ctx context.Context, limit, offset int) (*models.ReadingPage, error) {
	if err := e.waitReady(ctx); err != nil {
		return nil, err
	}
	userID, ok := e.gate.Current()
	if !ok {
		return &models.ReadingPage{Readings: []models.Reading{}}, nil
	}
	return e.store.ListReadings(userID, limit, offset)
}

// ListReadingsByRange returns the active user's readings within [from, to]
func (e *Engine) ListReadingsByRange(ctx context.Context, from, to time.Time) ([]models.Reading, error) {
	if err := e.waitReady(ctx); err != nil {
		return nil, err
	}
	userID, ok := e.gate.Current()
	if !ok {
		return nil, nil
	}
	return e.store.ListReadingsByRange(userID, from, to)
}

// --- Sync operations ---

// SyncPendingReadings drains the outbound queue in insertion order. Offline it
// returns immediately with zero counts and makes no remote call. Per-entry
// failures bump the retry count and leave the entry queued; the batch always
// runs to the end. Connectivity is read once per invocation so a flapping
// connection cannot thrash the pass.
func (e *Engine) SyncPendingReadings(ctx context.Context) (models.PushResult, error) {
	var result models.PushResult
	if err := e.waitReady(ctx); err != nil {
		return result, err
	}
	if !e.monitor.Online() {
		return result, nil
	}

	e.setState(StatePushing)
	defer e.setState(StateIdle)

	entries, err := e.store.PendingEntries()
	if err != nil {
		return result, err
	}

	for _, entry := range entries {
		if err := e.flushEntry(ctx, entry); err != nil {
			result.Failed++
			slog.Warn("sync entry failed", "entry", entry.ID, "reading", entry.ReadingID, "op", entry.Op, "err", err)
			if berr := e.store.BumpRetry(entry.ID); berr != nil {
				slog.Error("bump retry", "entry", entry.ID, "err", berr)
			}
			continue
		}
		result.Success++
		if rerr := e.store.RemoveEntry(entry.ID); rerr != nil {
			slog.Error("remove queue entry", "entry", entry.ID, "err", rerr)
		}
	}

	return result, nil
}

// flushEntry issues the remote call implied by one queue entry.
func (e *Engine) flushEntry(ctx context.Context, entry models.SyncQueueEntry) error {
	if entry.Op == models.OpDelete {
		if entry.BackendID == "" {
			return nil // never reached the server, nothing to delete
		}
		return e.gateway.DeleteReading(ctx, entry.BackendID)
	}

	r, err := e.store.ReadingByID(entry.ReadingID)
	if errors.Is(err, store.ErrNotFound) {
		// Row deleted since enqueue; the delete entry behind us handles it
		slog.Debug("queued reading gone, dropping entry", "entry", entry.ID)
		return nil
	}
	if err != nil {
		return err
	}

	return e.pushOne(ctx, r)
}

// pushOne creates or updates one reading remotely and reconciles the local row
func (e *Engine) pushOne(ctx context.Context, r *models.Reading) error {
	var backendID string
	if r.IsLocalOnly() {
		created, err := e.gateway.CreateReading(ctx, mapper.ToRemote(*r))
		if err != nil {
			return err
		}
		backendID = created.ID
	} else {
		updated, err := e.gateway.UpdateReading(ctx, mapper.ToRemote(*r))
		if err != nil {
			return err
		}
		backendID = updated.ID
	}
	return e.store.MarkSynced(r.UserID, r.ID, backendID)
}

// FetchFromBackend pulls the current user's remote record set and merges it
// into the local store. Offline it returns immediately with zero counts.
// Remote records with a pending local edit are routed to the conflict table
// instead of overwriting the unsynced local version.
func (e *Engine) FetchFromBackend(ctx context.Context) (models.FetchResult, error) {
	var result models.FetchResult
	if err := e.waitReady(ctx); err != nil {
		return result, err
	}
	userID, ok := e.gate.Current()
	if !ok {
		return result, scope.ErrNoActiveUser
	}
	if !e.monitor.Online() {
		return result, nil
	}

	e.setState(StateFetching)
	defer e.setState(StateIdle)

	remoteReadings, err := e.gateway.ListReadings(ctx)
	if err != nil {
		return result, fmt.Errorf("list remote readings: %w", err)
	}
	result.Fetched = len(remoteReadings)

	for _, dto := range remoteReadings {
		mapped := mapper.FromRemote(dto, userID)

		local, err := e.findLocal(userID, mapped)
		if err != nil {
			slog.Warn("merge lookup failed", "backend_id", dto.ID, "err", err)
			continue
		}

		if local == nil {
			// Absent locally can also mean deleted here with the remote
			// delete still queued; re-inserting would undo the delete.
			deleted, err := e.store.HasPendingDelete(mapped.BackendID)
			if err != nil {
				slog.Warn("merge delete lookup failed", "backend_id", dto.ID, "err", err)
				continue
			}
			if deleted {
				continue
			}
			mapped.ID = "" // store assigns a fresh local id
			if err := e.store.CreateReading(&mapped); err != nil {
				slog.Warn("merge insert failed", "backend_id", dto.ID, "err", err)
				continue
			}
			result.Merged++
			continue
		}

		pending, err := e.store.PendingEntryFor(local.ID)
		if err != nil {
			slog.Warn("merge pending lookup failed", "reading", local.ID, "err", err)
			continue
		}

		if pending == nil {
			// No unsynced local edit: remote wins
			if sameContent(local, &mapped) {
				continue
			}
			mapped.ID = local.ID
			if err := e.store.UpdateReading(&mapped); err != nil {
				slog.Warn("merge overwrite failed", "reading", local.ID, "err", err)
				continue
			}
			result.Merged++
			continue
		}

		// Pending local edit plus a differing remote version: conflict.
		// If the conflict cannot be persisted, the remote value is not
		// applied either; losing the local edit silently is the one
		// outcome this path must never produce.
		if sameContent(local, &mapped) {
			continue
		}
		localJSON, _ := json.Marshal(local)
		remoteJSON, _ := json.Marshal(mapped)
		if _, err := e.store.RecordConflict(local.ID, string(localJSON), string(remoteJSON)); err != nil {
			slog.Error("conflict persistence failed, merge aborted for record", "reading", local.ID, "err", err)
			continue
		}
	}

	return result, nil
}

// findLocal locates the local row a remote record corresponds to: first by the
// echoed client id, then by backend id.
func (e *Engine) findLocal(userID string, mapped models.Reading) (*models.Reading, error) {
	if mapped.ID != "" {
		r, err := e.store.GetReading(userID, mapped.ID)
		if err == nil {
			return r, nil
		}
		if !errors.Is(err, store.ErrNotFound) {
			return nil, err
		}
	}
	r, err := e.store.GetReadingByBackendID(userID, mapped.BackendID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return r, nil
}

// sameContent compares the fields that participate in sync. LocalStoredAt and
// the derived status are deliberately excluded.
func sameContent(a, b *models.Reading) bool {
	return a.Value == b.Value &&
		a.Unit == b.Unit &&
		a.MeasuredAt.Equal(b.MeasuredAt) &&
		a.Type == b.Type &&
		a.SubType == b.SubType &&
		a.Notes == b.Notes &&
		a.MealContext == b.MealContext &&
		a.DeviceID == b.DeviceID &&
		a.BackendID == b.BackendID
}

// PerformFullSync runs push then fetch sequentially. Push completes before
// fetch begins so an in-flight push is never re-flagged as a conflict by its
// own echo. Offline, both phases report zero work and no error.
func (e *Engine) PerformFullSync(ctx context.Context) (models.FullSyncResult, error) {
	var result models.FullSyncResult
	if err := e.waitReady(ctx); err != nil {
		return result, err
	}
	if !e.monitor.Online() {
		return result, nil
	}

	push, err := e.SyncPendingReadings(ctx)
	result.Pushed = push.Success
	result.Failed = push.Failed
	if err != nil {
		result.LastError = err.Error()
		return result, err
	}

	fetch, err := e.FetchFromBackend(ctx)
	result.Fetched = fetch.Merged
	if err != nil {
		result.LastError = err.Error()
		return result, err
	}

	return result, nil
}

// PendingCount returns the number of queued outbound mutations
func (e *Engine) PendingCount() (int64, error) {
	return e.store.CountPending()
}
