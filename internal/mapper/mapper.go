// Package mapper converts between the backend wire representation and the
// locally persisted reading. Pure functions, no I/O. Units pass through
// unconverted: display conversion is a presentation concern, and converting
// here would risk double conversion.
package mapper

import (
	"time"

	"github.com/theo/glucolog/internal/models"
	"github.com/theo/glucolog/internal/remote"
)

// ToRemote maps a local reading to its wire form. The local uuid travels as
// client_id so the server can echo it back for reconciliation.
func ToRemote(r models.Reading) remote.Reading {
	return remote.Reading{
		ID:          r.BackendID,
		ClientID:    r.ID,
		UserID:      r.UserID,
		Glucose:     r.Value,
		Unit:        string(r.Unit),
		MeasuredAt:  r.MeasuredAt.UTC().Format(time.RFC3339Nano),
		ReadingType: string(r.Type),
		SubType:     string(r.SubType),
		Notes:       r.Notes,
		MealContext: r.MealContext,
		DeviceID:    r.DeviceID,
	}
}

// FromRemote maps a wire reading to the local representation. Defaults for
// fields the backend may omit: type falls back to self-measured (manual),
// unit to mg/dL. The result is marked synced; LocalStoredAt is stamped by the
// store on insert. A malformed or absent measured_at falls back to the zero
// time rather than failing: the mapper is total.
func FromRemote(r remote.Reading, userID string) models.Reading {
	unit := models.Unit(r.Unit)
	if !models.IsValidUnit(unit) {
		unit = models.UnitMgDl
	}

	readingType := models.ReadingType(r.ReadingType)
	if readingType != models.TypeCGM && readingType != models.TypeManual {
		readingType = models.TypeManual
	}

	measuredAt, err := time.Parse(time.RFC3339Nano, r.MeasuredAt)
	if err != nil {
		measuredAt, err = time.Parse(time.RFC3339, r.MeasuredAt)
		if err != nil {
			measuredAt = time.Time{}
		}
	}

	return models.Reading{
		ID:          r.ClientID,
		BackendID:   r.ID,
		Value:       r.Glucose,
		Unit:        unit,
		MeasuredAt:  measuredAt,
		Type:        readingType,
		SubType:     models.ManualSubType(r.SubType),
		Notes:       r.Notes,
		MealContext: r.MealContext,
		DeviceID:    r.DeviceID,
		UserID:      userID,
		Synced:      true,
		Status:      models.ComputeStatus(r.Glucose, unit),
	}
}
