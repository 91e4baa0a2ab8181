package devicesim

import (
	"math"
	"math/rand"
	"time"
)

// row is one logged drop event, shaped like the firmware's /log.json rows.
type row struct {
	TS       int64   `json:"ts"`
	Lat      float64 `json:"lat"`
	Lon      float64 `json:"lon"`
	Alt      float64 `json:"alt"`
	DropID   int64   `json:"drop_id"`
	SpeedMPS float64 `json:"speed_mps"`
	Sats     int64   `json:"sats"`
	FixOK    bool    `json:"fix_ok"`
}

// Generator produces a plausible drop trail: a random walk from a home
// position with occasional fix dropouts that leave stale coordinates behind,
// just like the real GPS module does.
type Generator struct {
	rng    *rand.Rand
	lat    float64
	lon    float64
	alt    float64
	dropID int64
}

// NewGenerator seeds a walk around the given home position.
func NewGenerator(seed int64, homeLat, homeLon float64) *Generator {
	return &Generator{
		rng: rand.New(rand.NewSource(seed)),
		lat: homeLat,
		lon: homeLon,
		alt: 40,
	}
}

// Next advances the walk and returns the next logged drop.
func (g *Generator) Next(now time.Time) row {
	speed := 5 + g.rng.Float64()*15 // m/s
	heading := g.rng.Float64() * 2 * math.Pi

	// Convert speed to lat/lon deltas, one drop per ~second of flight.
	g.lat += (speed * math.Cos(heading)) / 111000
	g.lon += (speed * math.Sin(heading)) / (111000 * math.Cos(g.lat*math.Pi/180))
	g.alt = math.Max(10, g.alt+g.rng.Float64()*4-2)
	g.dropID++

	fixOK := g.rng.Float64() > 0.1
	sats := int64(7 + g.rng.Intn(6))
	if !fixOK {
		sats = int64(g.rng.Intn(4))
	}

	return row{
		TS:       now.Unix(),
		Lat:      g.lat, // stale on fix loss, fix_ok is authoritative
		Lon:      g.lon,
		Alt:      g.alt,
		DropID:   g.dropID,
		SpeedMPS: speed,
		Sats:     sats,
		FixOK:    fixOK,
	}
}
