package station

import (
	"sync/atomic"
	"time"

	"dropctl/internal/analytics"
	"dropctl/internal/device"
	"dropctl/internal/telemetry"
)

// Snapshot is the immutable result of one poll cycle. The poller builds a
// fresh one each cycle and hands it off whole; readers never see a cycle in
// progress.
type Snapshot struct {
	Info      *device.Info
	State     string // device-reported mission state string
	Records   []telemetry.Record
	Dropped   int // raw rows discarded by normalization
	Today     analytics.DaySummary
	FetchedAt time.Time
	Err       error // nil unless the cycle failed; stale fields keep the prior value
}

// PreviewCache holds the most recent snapshot so renderers do not trigger
// redundant device polls between cycles. Written only by the polling loop.
type PreviewCache struct {
	cur atomic.Pointer[Snapshot]
}

// Publish stores a snapshot.
func (c *PreviewCache) Publish(s Snapshot) {
	c.cur.Store(&s)
}

// Latest returns the most recent snapshot, or nil before the first cycle.
func (c *PreviewCache) Latest() *Snapshot {
	return c.cur.Load()
}
