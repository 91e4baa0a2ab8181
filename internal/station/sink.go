// Package station owns the ground-side orchestration: the polling loop with
// its preview cache, and the offload sinks that forward fetched records.
package station

import (
	"time"

	"github.com/google/uuid"

	"dropctl/internal/telemetry"
)

// ArchiveRow is one offloaded record plus provenance: which station pulled
// it, from which device, and when. OffloadID groups all rows of one offload
// run.
type ArchiveRow struct {
	telemetry.Record

	StationID   string    `json:"station_id"`
	DeviceAddr  string    `json:"device_addr"`
	OffloadID   string    `json:"offload_id"`
	OffloadedAt time.Time `json:"offloaded_at"`
}

// RecordWriter is a sink for offloaded rows.
type RecordWriter interface {
	Write(ArchiveRow) error
}

// Optional: writers can also support batch mode.
type batchWriter interface {
	WriteBatch([]ArchiveRow) error
}

// Stamp wraps records into archive rows for one offload run, minting a
// fresh OffloadID.
func Stamp(records []telemetry.Record, stationID, deviceAddr string, now time.Time) []ArchiveRow {
	offloadID := uuid.NewString()
	rows := make([]ArchiveRow, 0, len(records))
	for _, r := range records {
		rows = append(rows, ArchiveRow{
			Record:      r,
			StationID:   stationID,
			DeviceAddr:  deviceAddr,
			OffloadID:   offloadID,
			OffloadedAt: now,
		})
	}
	return rows
}

// WriteAll sends rows to w, using the batch fast path when available.
func WriteAll(w RecordWriter, rows []ArchiveRow) error {
	if bw, ok := w.(batchWriter); ok {
		return bw.WriteBatch(rows)
	}
	for _, r := range rows {
		if err := w.Write(r); err != nil {
			return err
		}
	}
	return nil
}
