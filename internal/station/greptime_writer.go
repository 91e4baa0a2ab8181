package station

import (
	"context"
	"net"
	"strconv"

	greptime "github.com/GreptimeTeam/greptimedb-ingester-go"
	"github.com/GreptimeTeam/greptimedb-ingester-go/table"
	"github.com/GreptimeTeam/greptimedb-ingester-go/table/types"
)

// GreptimeWriter archives offloaded rows to GreptimeDB via the ingester
// client. The table keeps optional fields nullable so an absent value stays
// absent downstream.
type GreptimeWriter struct {
	client *greptime.Client
	table  string
}

// NewGreptimeWriter connects to a GreptimeDB endpoint (host or host:port,
// gRPC port 4001 by default).
func NewGreptimeWriter(endpoint, database, tableName string) (*GreptimeWriter, error) {
	host := endpoint
	port := 4001
	if h, p, err := net.SplitHostPort(endpoint); err == nil {
		host = h
		if n, err := strconv.Atoi(p); err == nil {
			port = n
		}
	}
	cfg := greptime.NewConfig(host).WithPort(port).WithDatabase(database)
	client, err := greptime.NewClient(cfg)
	if err != nil {
		return nil, err
	}
	return &GreptimeWriter{client: client, table: tableName}, nil
}

// Write inserts a single row.
func (w *GreptimeWriter) Write(row ArchiveRow) error {
	return w.WriteBatch([]ArchiveRow{row})
}

// WriteBatch inserts multiple rows.
func (w *GreptimeWriter) WriteBatch(rows []ArchiveRow) error {
	if len(rows) == 0 {
		return nil
	}

	tbl, err := table.New(w.table)
	if err != nil {
		return err
	}
	tbl.AddTagColumn("station_id", types.STRING)
	tbl.AddFieldColumn("device_addr", types.STRING)
	tbl.AddFieldColumn("offload_id", types.STRING)
	tbl.AddFieldColumn("offloaded_at", types.TIMESTAMP_SECOND)
	tbl.AddFieldColumn("lat", types.FLOAT64)
	tbl.AddFieldColumn("lon", types.FLOAT64)
	tbl.AddFieldColumn("alt", types.FLOAT64)
	tbl.AddFieldColumn("drop_id", types.INT64)
	tbl.AddFieldColumn("speed_mps", types.FLOAT64)
	tbl.AddFieldColumn("sats", types.INT64)
	tbl.AddFieldColumn("fix_ok", types.BOOLEAN)
	tbl.AddTimestampColumn("ts", types.TIMESTAMP_SECOND)

	for _, r := range rows {
		if err := tbl.AddRow(
			r.StationID,
			r.DeviceAddr,
			r.OffloadID,
			r.OffloadedAt,
			nullableFloat(r.Lat),
			nullableFloat(r.Lon),
			nullableFloat(r.Alt),
			nullableInt(r.DropID),
			nullableFloat(r.SpeedMPS),
			nullableInt(r.Satellites),
			nullableBool(r.FixOK),
			r.Timestamp,
		); err != nil {
			return err
		}
	}

	_, err = w.client.Write(context.Background(), tbl)
	return err
}

func nullableFloat(v *float64) any {
	if v == nil {
		return nil
	}
	return *v
}

func nullableInt(v *int64) any {
	if v == nil {
		return nil
	}
	return *v
}

func nullableBool(v *bool) any {
	if v == nil {
		return nil
	}
	return *v
}
