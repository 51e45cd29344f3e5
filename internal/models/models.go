package models

import (
	"time"
)

// Unit represents a glucose measurement unit
type Unit string

const (
	UnitMgDl  Unit = "mg/dL"
	UnitMmolL Unit = "mmol/L"
)

// IsValidUnit reports whether u is one of the two supported units
func IsValidUnit(u Unit) bool {
	return u == UnitMgDl || u == UnitMmolL
}

// ReadingType distinguishes continuous-monitor samples from self-measured readings
type ReadingType string

const (
	TypeCGM    ReadingType = "cgm"
	TypeManual ReadingType = "manual"
)

// ManualSubType qualifies a self-measured reading
type ManualSubType string

const (
	SubTypeFasting  ManualSubType = "fasting"
	SubTypePostMeal ManualSubType = "post_meal"
	SubTypeRandom   ManualSubType = "random"
	SubTypeBedtime  ManualSubType = "bedtime"
)

// GlucoseStatus is the derived clinical band for a reading
type GlucoseStatus string

const (
	StatusCriticalLow  GlucoseStatus = "critical_low"
	StatusLow          GlucoseStatus = "low"
	StatusNormal       GlucoseStatus = "normal"
	StatusHigh         GlucoseStatus = "high"
	StatusCriticalHigh GlucoseStatus = "critical_high"
)

// Clinical band thresholds. The mmol/L cutoffs are the standard conversions
// of the mg/dL ones (divide by 18.016), not independently chosen.
const (
	mgdlCriticalLow = 54.0
	mgdlLow         = 70.0
	mgdlNormalMax   = 180.0
	mgdlHighMax     = 250.0

	mmolCriticalLow = 3.0
	mmolLow         = 3.9
	mmolNormalMax   = 10.0
	mmolHighMax     = 13.9
)

// ComputeStatus derives the clinical band from a value and its unit.
// Unknown units are banded using the mg/dL thresholds.
func ComputeStatus(value float64, unit Unit) GlucoseStatus {
	criticalLow, low, normalMax, highMax := mgdlCriticalLow, mgdlLow, mgdlNormalMax, mgdlHighMax
	if unit == UnitMmolL {
		criticalLow, low, normalMax, highMax = mmolCriticalLow, mmolLow, mmolNormalMax, mmolHighMax
	}
	switch {
	case value < criticalLow:
		return StatusCriticalLow
	case value < low:
		return StatusLow
	case value <= normalMax:
		return StatusNormal
	case value <= highMax:
		return StatusHigh
	default:
		return StatusCriticalHigh
	}
}

// Reading represents a single glucose measurement
type Reading struct {
	ID            string        `json:"id"`
	BackendID     string        `json:"backend_id,omitempty"`
	Value         float64       `json:"value"`
	Unit          Unit          `json:"unit"`
	MeasuredAt    time.Time     `json:"measured_at"`
	Type          ReadingType   `json:"type"`
	SubType       ManualSubType `json:"sub_type,omitempty"`
	Notes         string        `json:"notes,omitempty"`
	MealContext   string        `json:"meal_context,omitempty"`
	DeviceID      string        `json:"device_id,omitempty"`
	UserID        string        `json:"user_id"`
	Synced        bool          `json:"synced"`
	LocalStoredAt time.Time     `json:"local_stored_at"`
	Status        GlucoseStatus `json:"status"`
}

// IsLocalOnly reports whether the reading has never been reconciled with the backend
func (r *Reading) IsLocalOnly() bool {
	return r.BackendID == ""
}

// QueueOp is the kind of outbound mutation a queue entry carries
type QueueOp string

const (
	OpCreate QueueOp = "create"
	OpUpdate QueueOp = "update"
	OpDelete QueueOp = "delete"
)

// SyncQueueEntry is a pending outbound mutation for one reading. BackendID is
// only set on delete entries, which outlive the local row they refer to.
type SyncQueueEntry struct {
	ID         int64     `json:"id"`
	ReadingID  string    `json:"reading_id"`
	BackendID  string    `json:"backend_id,omitempty"`
	Op         QueueOp   `json:"op"`
	EnqueuedAt time.Time `json:"enqueued_at"`
	Retries    int       `json:"retries"`
}

// ConflictStatus tracks whether a conflict still needs a human decision
type ConflictStatus string

const (
	ConflictPending  ConflictStatus = "pending"
	ConflictResolved ConflictStatus = "resolved"
)

// ResolutionPolicy selects how a conflict is settled
type ResolutionPolicy string

const (
	KeepMine   ResolutionPolicy = "keep-mine"
	KeepServer ResolutionPolicy = "keep-server"
	KeepBoth   ResolutionPolicy = "keep-both"
)

// IsValidPolicy reports whether p is a supported resolution policy
func IsValidPolicy(p ResolutionPolicy) bool {
	return p == KeepMine || p == KeepServer || p == KeepBoth
}

// ConflictItem records a divergence between the local and remote version of a
// reading. LocalData and RemoteData hold JSON snapshots of the two versions at
// detection time, so resolution works even after the live rows move on.
type ConflictItem struct {
	ID         int64            `json:"id"`
	ReadingID  string           `json:"reading_id"`
	LocalData  string           `json:"local_data"`
	RemoteData string           `json:"remote_data"`
	Status     ConflictStatus   `json:"status"`
	Resolution ResolutionPolicy `json:"resolution,omitempty"`
	DetectedAt time.Time        `json:"detected_at"`
	ResolvedAt *time.Time       `json:"resolved_at,omitempty"`
}

// ReadingPage is one page of a paginated reading query
type ReadingPage struct {
	Readings []Reading `json:"readings"`
	Total    int       `json:"total"`
	HasMore  bool      `json:"has_more"`
}

// PushResult aggregates one drain of the sync queue
type PushResult struct {
	Success int `json:"success"`
	Failed  int `json:"failed"`
}

// FetchResult aggregates one pull from the backend
type FetchResult struct {
	Fetched int `json:"fetched"`
	Merged  int `json:"merged"`
}

// FullSyncResult aggregates a push-then-fetch cycle
type FullSyncResult struct {
	Pushed    int    `json:"pushed"`
	Fetched   int    `json:"fetched"`
	Failed    int    `json:"failed"`
	LastError string `json:"last_error,omitempty"`
}
