package station

import (
	"context"
	"time"

	"dropctl/internal/analytics"
	"dropctl/internal/device"
	"dropctl/internal/logging"
	"dropctl/internal/mission"
	"dropctl/internal/telemetry"
)

// Fetcher is the slice of the device client the poller needs.
type Fetcher interface {
	Info(ctx context.Context) (device.Info, error)
	Records(ctx context.Context, limit int) ([]telemetry.RawRecord, error)
}

// Poller runs the cooperative refresh cycle: fetch info and recent records,
// normalize, summarize today, publish a snapshot, sleep, repeat. Calls to
// the device are strictly sequential; cancellation takes effect between
// cycles while per-request timeouts bound each call.
type Poller struct {
	dev      Fetcher
	norm     *telemetry.Normalizer
	planner  *mission.Planner
	cache    *PreviewCache
	limit    int
	interval time.Duration
	observer func(Snapshot)
	now      func() time.Time
}

// NewPoller wires a poller. planner and observer may be nil.
func NewPoller(dev Fetcher, norm *telemetry.Normalizer, planner *mission.Planner, limit int, interval time.Duration) *Poller {
	return &Poller{
		dev:      dev,
		norm:     norm,
		planner:  planner,
		cache:    &PreviewCache{},
		limit:    limit,
		interval: interval,
		now:      time.Now,
	}
}

// Cache exposes the preview cache for renderers.
func (p *Poller) Cache() *PreviewCache { return p.cache }

// OnSnapshot registers a callback invoked after each published cycle. Set
// it before Run; the callback runs on the polling goroutine.
func (p *Poller) OnSnapshot(fn func(Snapshot)) { p.observer = fn }

// Run polls until ctx is done. The first cycle runs immediately.
func (p *Poller) Run(ctx context.Context) {
	log := logging.FromContext(ctx)
	log.Info("starting poller", "interval", p.interval, "limit", p.limit)
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	p.cycle(ctx)
	for {
		select {
		case <-ticker.C:
			p.cycle(ctx)
		case <-ctx.Done():
			log.Info("stopping poller")
			return
		}
	}
}

// cycle runs one full refresh and publishes the result. A failed fetch
// publishes a snapshot carrying the error and the previous data, so the
// renderer can show staleness instead of blanking out.
func (p *Poller) cycle(ctx context.Context) {
	log := logging.FromContext(ctx)
	snap := Snapshot{FetchedAt: p.now()}
	if prev := p.cache.Latest(); prev != nil {
		snap.Info = prev.Info
		snap.State = prev.State
		snap.Records = prev.Records
		snap.Dropped = prev.Dropped
		snap.Today = prev.Today
	}

	info, err := p.dev.Info(ctx)
	if err != nil {
		log.Warn("info fetch failed", "err", err)
		snap.Err = err
		p.publish(snap)
		return
	}
	snap.Info = &info
	snap.State = info.State
	if p.planner != nil {
		p.planner.Observe(info.State)
	}

	raws, err := p.dev.Records(ctx, p.limit)
	if err != nil {
		log.Warn("record fetch failed", "err", err)
		snap.Err = err
		p.publish(snap)
		return
	}
	records, dropped := p.norm.Normalize(raws)
	if dropped > 0 {
		log.Warn("records dropped during normalization", "dropped", dropped)
	}
	snap.Records = records
	snap.Dropped = dropped

	window := analytics.WindowForTime(p.now(), p.norm.Location)
	snap.Today = analytics.Summarize(analytics.FilterDay(records, window))
	snap.Err = nil
	p.publish(snap)
}

func (p *Poller) publish(snap Snapshot) {
	p.cache.Publish(snap)
	if p.observer != nil {
		p.observer(snap)
	}
}
