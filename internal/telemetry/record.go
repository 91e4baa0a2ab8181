// Package telemetry defines the canonical drop-event record and the
// normalization from the device's loose JSON rows.
package telemetry

import (
	"time"
)

// RawRecord is one row as decoded from /log.json. Field values are whatever
// the firmware emitted (json.Number, bool, string, null), so nothing here
// is trusted until normalized.
type RawRecord map[string]any

// Record is the canonical in-memory drop event. Optional fields are
// pointers: nil means the device did not report a usable value, which is
// different from zero. A false or missing fix must never be read as
// coordinates (0, 0).
type Record struct {
	Timestamp time.Time `json:"ts"`         // UTC, from epoch seconds
	LocalTime time.Time `json:"local_time"` // Timestamp in the reference timezone

	Lat        *float64 `json:"lat,omitempty"`
	Lon        *float64 `json:"lon,omitempty"`
	Alt        *float64 `json:"alt,omitempty"`
	DropID     *int64   `json:"drop_id,omitempty"`
	SpeedMPS   *float64 `json:"speed_mps,omitempty"`
	Satellites *int64   `json:"sats,omitempty"`

	// FixOK is authoritative for position validity. nil means the device
	// did not report it; consumers treat that the same as false.
	FixOK *bool `json:"fix_ok,omitempty"`
}

// HasFix reports whether the GPS fix was explicitly valid.
func (r Record) HasFix() bool {
	return r.FixOK != nil && *r.FixOK
}

// HasPosition reports whether both coordinates are present. Presence alone
// does not imply validity; check HasFix for that.
func (r Record) HasPosition() bool {
	return r.Lat != nil && r.Lon != nil
}
