package station

import (
	"bufio"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"dropctl/internal/telemetry"
)

func sampleRecords(n int) []telemetry.Record {
	out := make([]telemetry.Record, 0, n)
	for i := 0; i < n; i++ {
		lat, lon := 19.43+float64(i)*0.001, -99.13
		drop := int64(i + 1)
		fix := true
		ts := time.Date(2024, 6, 1, 10, 0, i, 0, time.UTC)
		out = append(out, telemetry.Record{
			Timestamp: ts,
			LocalTime: ts,
			Lat:       &lat,
			Lon:       &lon,
			DropID:    &drop,
			FixOK:     &fix,
		})
	}
	return out
}

func TestStampProvenance(t *testing.T) {
	now := time.Date(2024, 6, 1, 11, 0, 0, 0, time.UTC)
	rows := Stamp(sampleRecords(3), "gcs-01", "192.168.4.1", now)

	if len(rows) != 3 {
		t.Fatalf("got %d rows", len(rows))
	}
	id := rows[0].OffloadID
	if id == "" {
		t.Fatalf("empty offload id")
	}
	for i, r := range rows {
		if r.OffloadID != id {
			t.Errorf("row %d: offload id %s != %s", i, r.OffloadID, id)
		}
		if r.StationID != "gcs-01" || r.DeviceAddr != "192.168.4.1" {
			t.Errorf("row %d: provenance %s/%s", i, r.StationID, r.DeviceAddr)
		}
		if !r.OffloadedAt.Equal(now) {
			t.Errorf("row %d: offloaded at %v", i, r.OffloadedAt)
		}
	}

	again := Stamp(sampleRecords(1), "gcs-01", "192.168.4.1", now)
	if again[0].OffloadID == id {
		t.Errorf("offload id reused across runs")
	}
}

func TestFileWriterRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "archive.jsonl")
	w, err := NewFileWriter(path)
	if err != nil {
		t.Fatalf("NewFileWriter: %v", err)
	}
	rows := Stamp(sampleRecords(2), "gcs-01", "192.168.4.1", time.Now().UTC())
	if err := WriteAll(w, rows); err != nil {
		t.Fatalf("WriteAll: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer f.Close()

	var got []ArchiveRow
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		var row ArchiveRow
		if err := json.Unmarshal(sc.Bytes(), &row); err != nil {
			t.Fatalf("bad line %q: %v", sc.Text(), err)
		}
		got = append(got, row)
	}
	if len(got) != 2 {
		t.Fatalf("got %d lines, want 2", len(got))
	}
	if got[0].DropID == nil || *got[0].DropID != 1 {
		t.Errorf("first row drop_id = %v", got[0].DropID)
	}
	if got[1].OffloadID != rows[1].OffloadID {
		t.Errorf("offload id lost in round trip")
	}
}

// countWriter records how rows arrived, to check the batch fast path.
type countWriter struct {
	writes  int
	batches int
	rows    int
}

func (c *countWriter) Write(ArchiveRow) error { c.writes++; c.rows++; return nil }

type countBatchWriter struct{ countWriter }

func (c *countBatchWriter) WriteBatch(rows []ArchiveRow) error {
	c.batches++
	c.rows += len(rows)
	return nil
}

func TestMultiWriterFanOut(t *testing.T) {
	plain := &countWriter{}
	batch := &countBatchWriter{}
	mw := NewMultiWriter(plain, batch)

	rows := Stamp(sampleRecords(3), "gcs-01", "192.168.4.1", time.Now().UTC())
	if err := WriteAll(mw, rows); err != nil {
		t.Fatalf("WriteAll: %v", err)
	}
	if plain.writes != 3 || plain.rows != 3 {
		t.Errorf("plain writer: writes=%d rows=%d", plain.writes, plain.rows)
	}
	if batch.batches != 1 || batch.writes != 0 || batch.rows != 3 {
		t.Errorf("batch writer: batches=%d writes=%d rows=%d", batch.batches, batch.writes, batch.rows)
	}
}

func TestWriteAllFallsBackToSingleWrites(t *testing.T) {
	plain := &countWriter{}
	rows := Stamp(sampleRecords(2), "gcs-01", "192.168.4.1", time.Now().UTC())
	if err := WriteAll(plain, rows); err != nil {
		t.Fatalf("WriteAll: %v", err)
	}
	if plain.writes != 2 {
		t.Errorf("writes = %d, want 2", plain.writes)
	}
}
