// Package devicesim is an in-memory stand-in for the field controller's
// HTTP interface. It serves the same endpoints the real firmware does, for
// development and client tests.
package devicesim

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"sync"
	"time"
)

const firmwareVersion = "sim-1.4.2"

// Server simulates one device: an append-only drop log plus the mission
// state machine (idle -> armed -> running -> idle).
type Server struct {
	mu        sync.Mutex
	log       []row
	gen       *Generator
	state     string
	armedAt   time.Time
	intervalS float64
	delayS    float64
	stepHz    int
	started   time.Time
	now       func() time.Time
}

// New creates a simulator with a deterministic generator seed.
func New(seed int64) *Server {
	return &Server{
		gen:     NewGenerator(seed, 19.4326, -99.1332),
		state:   "idle",
		started: time.Now(),
		now:     time.Now,
	}
}

// Seed appends n historical records spaced one minute apart, ending now.
func (s *Server) Seed(n int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	base := s.now().Add(-time.Duration(n) * time.Minute)
	for i := 0; i < n; i++ {
		s.log = append(s.log, s.gen.Next(base.Add(time.Duration(i)*time.Minute)))
	}
}

// Tick appends one record if a mission is running. The dropsim binary calls
// this on the mission interval.
func (s *Server) Tick() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.currentState() != "running" {
		return
	}
	s.log = append(s.log, s.gen.Next(s.now()))
}

// currentState resolves armed->running once the arm delay elapsed.
// Callers hold s.mu.
func (s *Server) currentState() string {
	if s.state == "armed" && s.now().Sub(s.armedAt).Seconds() >= s.delayS {
		s.state = "running"
	}
	return s.state
}

// Handler returns the device HTTP surface.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/info", s.handleInfo)
	mux.HandleFunc("/state", s.handleState)
	mux.HandleFunc("/log.json", s.handleLogJSON)
	mux.HandleFunc("/log.csv", s.handleLogCSV)
	mux.HandleFunc("/start", s.handleStart)
	mux.HandleFunc("/stop", s.handleStop)
	mux.HandleFunc("/log", s.handleLogDelete)
	return mux
}

func (s *Server) handleInfo(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	bytes := 0
	for range s.log {
		bytes += 64 // flash row footprint
	}
	writeJSON(w, map[string]any{
		"records": len(s.log),
		"bytes":   bytes,
		"fw":      firmwareVersion,
		"state":   s.currentState(),
	})
}

func (s *Server) handleState(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	writeJSON(w, map[string]any{
		"state":      s.currentState(),
		"uptime_s":   int(s.now().Sub(s.started).Seconds()),
		"interval_s": s.intervalS,
		"delay_s":    s.delayS,
		"step_hz":    s.stepHz,
	})
}

func (s *Server) handleLogJSON(w http.ResponseWriter, r *http.Request) {
	last := 200
	if v := r.URL.Query().Get("last"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			http.Error(w, "bad last parameter", http.StatusBadRequest)
			return
		}
		last = n
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	rows := s.log
	if len(rows) > last {
		rows = rows[len(rows)-last:]
	}
	writeJSON(w, rows)
}

func (s *Server) handleLogCSV(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	w.Header().Set("Content-Type", "text/csv")
	cw := csv.NewWriter(w)
	cw.Write([]string{"ts", "lat", "lon", "alt", "drop_id", "speed_mps", "sats", "fix_ok"})
	for _, rec := range s.log {
		cw.Write([]string{
			strconv.FormatInt(rec.TS, 10),
			strconv.FormatFloat(rec.Lat, 'f', 6, 64),
			strconv.FormatFloat(rec.Lon, 'f', 6, 64),
			strconv.FormatFloat(rec.Alt, 'f', 1, 64),
			strconv.FormatInt(rec.DropID, 10),
			strconv.FormatFloat(rec.SpeedMPS, 'f', 2, 64),
			strconv.FormatInt(rec.Sats, 10),
			strconv.FormatBool(rec.FixOK),
		})
	}
	cw.Flush()
}

func (s *Server) handleStart(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var params struct {
		IntervalS float64 `json:"interval_s"`
		DelayS    float64 `json:"delay_s"`
		StepHz    int     `json:"step_hz"`
	}
	if err := json.NewDecoder(r.Body).Decode(&params); err != nil {
		http.Error(w, "bad request body", http.StatusBadRequest)
		return
	}
	if params.IntervalS <= 0 || params.DelayS < 0 || params.StepHz < 1 {
		http.Error(w, fmt.Sprintf("rejected mission params: interval_s=%g delay_s=%g step_hz=%d",
			params.IntervalS, params.DelayS, params.StepHz), http.StatusUnprocessableEntity)
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = "armed"
	s.armedAt = s.now()
	s.intervalS = params.IntervalS
	s.delayS = params.DelayS
	s.stepHz = params.StepHz
	writeJSON(w, map[string]any{"ok": true, "state": "armed", "interval_s": params.IntervalS})
}

func (s *Server) handleStop(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	// Stopping an idle mission still acknowledges success.
	s.state = "idle"
	writeJSON(w, map[string]any{"ok": true, "state": "idle"})
}

func (s *Server) handleLogDelete(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodDelete {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	cleared := len(s.log)
	s.log = nil
	writeJSON(w, map[string]any{"ok": true, "cleared": cleared})
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(v)
}
