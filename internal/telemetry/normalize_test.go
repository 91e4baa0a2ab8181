package telemetry

import (
	"encoding/json"
	"testing"
	"time"
)

func mustLoc(t *testing.T, name string) *time.Location {
	t.Helper()
	loc, err := time.LoadLocation(name)
	if err != nil {
		t.Fatalf("load location %s: %v", name, err)
	}
	return loc
}

func num(s string) json.Number { return json.Number(s) }

func TestNormalizeFullRecord(t *testing.T) {
	loc := mustLoc(t, "America/Mexico_City")
	n := NewNormalizer(loc)

	raw := RawRecord{
		"ts":        num("1700000000"),
		"lat":       num("19.4326"),
		"lon":       num("-99.1332"),
		"alt":       num("42.5"),
		"drop_id":   num("7"),
		"speed_mps": num("12.25"),
		"sats":      num("9"),
		"fix_ok":    true,
	}
	records, dropped := n.Normalize([]RawRecord{raw})
	if dropped != 0 || len(records) != 1 {
		t.Fatalf("got %d records, %d dropped", len(records), dropped)
	}
	r := records[0]
	if !r.Timestamp.Equal(time.Unix(1700000000, 0)) {
		t.Errorf("timestamp = %v", r.Timestamp)
	}
	if r.Timestamp.Location() != time.UTC {
		t.Errorf("timestamp not UTC: %v", r.Timestamp.Location())
	}
	if r.LocalTime.Location() != loc {
		t.Errorf("local time zone = %v", r.LocalTime.Location())
	}
	if !r.LocalTime.Equal(r.Timestamp) {
		t.Errorf("local time must be the same instant")
	}
	if r.Lat == nil || *r.Lat != 19.4326 {
		t.Errorf("lat = %v", r.Lat)
	}
	if r.DropID == nil || *r.DropID != 7 {
		t.Errorf("drop_id = %v", r.DropID)
	}
	if r.SpeedMPS == nil || *r.SpeedMPS != 12.25 {
		t.Errorf("speed = %v", r.SpeedMPS)
	}
	if r.Satellites == nil || *r.Satellites != 9 {
		t.Errorf("sats = %v", r.Satellites)
	}
	if !r.HasFix() {
		t.Errorf("expected valid fix")
	}
}

func TestNormalizeDropsBadTimestamps(t *testing.T) {
	n := NewNormalizer(time.UTC)
	raws := []RawRecord{
		{"ts": num("100"), "fix_ok": true},
		{},                  // missing ts
		{"ts": num("-5")},   // negative
		{"ts": "yesterday"}, // wrong type
		{"ts": num("200"), "lat": num("1.0")},
	}
	records, dropped := n.Normalize(raws)
	if len(records) != 2 {
		t.Fatalf("got %d records, want 2", len(records))
	}
	if dropped != 3 {
		t.Errorf("dropped = %d, want 3", dropped)
	}
}

func TestNormalizeMalformedFieldsBecomeAbsent(t *testing.T) {
	n := NewNormalizer(time.UTC)
	cases := []struct {
		name string
		raw  RawRecord
		want func(t *testing.T, r Record)
	}{
		{
			name: "string lat",
			raw:  RawRecord{"ts": num("1"), "lat": "not-a-number", "lon": num("2.0")},
			want: func(t *testing.T, r Record) {
				if r.Lat != nil {
					t.Errorf("lat should be absent, got %v", *r.Lat)
				}
				if r.HasPosition() {
					t.Errorf("half a position is no position")
				}
			},
		},
		{
			name: "out of range lat",
			raw:  RawRecord{"ts": num("1"), "lat": num("120.0")},
			want: func(t *testing.T, r Record) {
				if r.Lat != nil {
					t.Errorf("lat should be absent, got %v", *r.Lat)
				}
			},
		},
		{
			name: "negative speed",
			raw:  RawRecord{"ts": num("1"), "speed_mps": num("-3")},
			want: func(t *testing.T, r Record) {
				if r.SpeedMPS != nil {
					t.Errorf("speed should be absent, got %v", *r.SpeedMPS)
				}
			},
		},
		{
			name: "negative sats",
			raw:  RawRecord{"ts": num("1"), "sats": num("-1")},
			want: func(t *testing.T, r Record) {
				if r.Satellites != nil {
					t.Errorf("sats should be absent, got %v", *r.Satellites)
				}
			},
		},
		{
			name: "missing fix_ok stays unknown",
			raw:  RawRecord{"ts": num("1"), "lat": num("1"), "lon": num("2")},
			want: func(t *testing.T, r Record) {
				if r.FixOK != nil {
					t.Errorf("fix_ok should be absent")
				}
				if r.HasFix() {
					t.Errorf("unknown fix must not count as valid")
				}
				if !r.HasPosition() {
					t.Errorf("stale coordinates are still present")
				}
			},
		},
		{
			name: "numeric fix_ok",
			raw:  RawRecord{"ts": num("1"), "fix_ok": num("1")},
			want: func(t *testing.T, r Record) {
				if !r.HasFix() {
					t.Errorf("fix_ok=1 should be valid")
				}
			},
		},
		{
			name: "float drop_id from firmware formatting",
			raw:  RawRecord{"ts": num("1"), "drop_id": num("123.0")},
			want: func(t *testing.T, r Record) {
				if r.DropID == nil || *r.DropID != 123 {
					t.Errorf("drop_id = %v", r.DropID)
				}
			},
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			records, dropped := n.Normalize([]RawRecord{tc.raw})
			if dropped != 0 || len(records) != 1 {
				t.Fatalf("got %d records, %d dropped", len(records), dropped)
			}
			tc.want(t, records[0])
		})
	}
}

func TestNormalizeLocalTimeConversion(t *testing.T) {
	loc := mustLoc(t, "America/Mexico_City") // UTC-6, no DST since 2022
	n := NewNormalizer(loc)
	// 2023-11-14 22:13:20 UTC -> 16:13:20 local
	records, _ := n.Normalize([]RawRecord{{"ts": num("1700000000")}})
	got := records[0].LocalTime
	if got.Hour() != 16 || got.Minute() != 13 {
		t.Errorf("local time = %v, want 16:13 local", got)
	}
}
