package telemetry

import (
	"encoding/json"
	"math"
	"time"
)

// Normalizer converts raw device rows into canonical records, deriving the
// local timestamp in the reference timezone.
type Normalizer struct {
	Location *time.Location
}

// NewNormalizer builds a normalizer for the given reference timezone. A nil
// location falls back to UTC.
func NewNormalizer(loc *time.Location) *Normalizer {
	if loc == nil {
		loc = time.UTC
	}
	return &Normalizer{Location: loc}
}

// Normalize converts raw rows into records. Rows without a usable
// non-negative epoch timestamp are dropped and counted; the caller decides
// how to surface the count. All other malformed fields degrade to absent.
func (n *Normalizer) Normalize(raws []RawRecord) (records []Record, dropped int) {
	records = make([]Record, 0, len(raws))
	for _, raw := range raws {
		rec, ok := n.normalizeOne(raw)
		if !ok {
			dropped++
			continue
		}
		records = append(records, rec)
	}
	return records, dropped
}

func (n *Normalizer) normalizeOne(raw RawRecord) (Record, bool) {
	ts, ok := asInt(raw["ts"])
	if !ok || ts < 0 {
		return Record{}, false
	}
	utc := time.Unix(ts, 0).UTC()
	rec := Record{
		Timestamp: utc,
		LocalTime: utc.In(n.Location),
		Lat:       coord(raw["lat"], 90),
		Lon:       coord(raw["lon"], 180),
		FixOK:     asBool(raw["fix_ok"]),
	}
	if alt, ok := asFloat(raw["alt"]); ok && !math.IsNaN(alt) {
		rec.Alt = &alt
	}
	if id, ok := asInt(raw["drop_id"]); ok {
		rec.DropID = &id
	}
	if spd, ok := asFloat(raw["speed_mps"]); ok && !math.IsNaN(spd) && spd >= 0 {
		rec.SpeedMPS = &spd
	}
	if sats, ok := asInt(raw["sats"]); ok && sats >= 0 {
		rec.Satellites = &sats
	}
	return rec, true
}

// coord accepts a finite coordinate within ±bound degrees, else absent.
func coord(v any, bound float64) *float64 {
	f, ok := asFloat(v)
	if !ok || math.IsNaN(f) || math.IsInf(f, 0) || f < -bound || f > bound {
		return nil
	}
	return &f
}

func asFloat(v any) (float64, bool) {
	switch t := v.(type) {
	case json.Number:
		f, err := t.Float64()
		return f, err == nil
	case float64:
		return t, true
	case int64:
		return float64(t), true
	}
	return 0, false
}

func asInt(v any) (int64, bool) {
	switch t := v.(type) {
	case json.Number:
		if i, err := t.Int64(); err == nil {
			return i, true
		}
		// Firmware occasionally prints integers as "123.0".
		if f, err := t.Float64(); err == nil && f == math.Trunc(f) {
			return int64(f), true
		}
		return 0, false
	case int64:
		return t, true
	case float64:
		if t == math.Trunc(t) {
			return int64(t), true
		}
		return 0, false
	}
	return 0, false
}

// asBool keeps fix_ok tri-state: nil when absent or malformed. Numeric 0/1
// is accepted because some firmware builds log the flag as an integer.
func asBool(v any) *bool {
	switch t := v.(type) {
	case bool:
		return &t
	case json.Number:
		if i, err := t.Int64(); err == nil && (i == 0 || i == 1) {
			b := i == 1
			return &b
		}
	}
	return nil
}
