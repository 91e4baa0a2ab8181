package devicesim

import (
	"encoding/csv"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"
)

func getJSON(t *testing.T, srv *httptest.Server, path string, v any) {
	t.Helper()
	resp, err := http.Get(srv.URL + path)
	if err != nil {
		t.Fatalf("GET %s: %v", path, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("GET %s: status %d", path, resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		t.Fatalf("decode %s: %v", path, err)
	}
}

func postStart(t *testing.T, srv *httptest.Server, body string) *http.Response {
	t.Helper()
	resp, err := http.Post(srv.URL+"/start", "application/json", strings.NewReader(body))
	if err != nil {
		t.Fatalf("POST /start: %v", err)
	}
	return resp
}

func TestInfoCountsSeededRecords(t *testing.T) {
	sim := New(1)
	sim.Seed(25)
	srv := httptest.NewServer(sim.Handler())
	defer srv.Close()

	var info struct {
		Records int    `json:"records"`
		Bytes   int    `json:"bytes"`
		FW      string `json:"fw"`
		State   string `json:"state"`
	}
	getJSON(t, srv, "/info", &info)
	if info.Records != 25 {
		t.Errorf("records = %d, want 25", info.Records)
	}
	if info.Bytes != 25*64 {
		t.Errorf("bytes = %d", info.Bytes)
	}
	if info.FW != firmwareVersion || info.State != "idle" {
		t.Errorf("fw=%s state=%s", info.FW, info.State)
	}
}

func TestLogJSONLastLimit(t *testing.T) {
	sim := New(1)
	sim.Seed(10)
	srv := httptest.NewServer(sim.Handler())
	defer srv.Close()

	var rows []map[string]any
	getJSON(t, srv, "/log.json?last=4", &rows)
	if len(rows) != 4 {
		t.Fatalf("got %d rows, want 4", len(rows))
	}

	// The returned rows are the newest ones: strictly increasing timestamps
	// ending at the tail of the log.
	var all []map[string]any
	getJSON(t, srv, "/log.json?last=10", &all)
	if rows[3]["ts"] != all[9]["ts"] {
		t.Errorf("last=4 did not return the tail of the log")
	}

	resp, err := http.Get(srv.URL + "/log.json?last=0")
	if err != nil {
		t.Fatalf("GET: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("last=0 status = %d, want 400", resp.StatusCode)
	}
}

func TestStartValidatesParams(t *testing.T) {
	cases := []struct {
		name string
		body string
	}{
		{"zero interval", `{"interval_s":0,"delay_s":10,"step_hz":200}`},
		{"negative delay", `{"interval_s":3,"delay_s":-1,"step_hz":200}`},
		{"zero step", `{"interval_s":3,"delay_s":10,"step_hz":0}`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			sim := New(1)
			srv := httptest.NewServer(sim.Handler())
			defer srv.Close()

			resp := postStart(t, srv, tc.body)
			resp.Body.Close()
			if resp.StatusCode != http.StatusUnprocessableEntity {
				t.Errorf("status = %d, want 422", resp.StatusCode)
			}

			var state struct {
				State string `json:"state"`
			}
			getJSON(t, srv, "/state", &state)
			if state.State != "idle" {
				t.Errorf("state after rejected start = %s", state.State)
			}
		})
	}
}

func TestArmedBecomesRunningAfterDelay(t *testing.T) {
	sim := New(1)
	var mu sync.Mutex
	clock := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	sim.now = func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		return clock
	}
	srv := httptest.NewServer(sim.Handler())
	defer srv.Close()

	resp := postStart(t, srv, `{"interval_s":3,"delay_s":10,"step_hz":200}`)
	defer resp.Body.Close()
	var ack struct {
		OK    bool   `json:"ok"`
		State string `json:"state"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&ack); err != nil {
		t.Fatalf("decode ack: %v", err)
	}
	if !ack.OK || ack.State != "armed" {
		t.Fatalf("ack = %+v", ack)
	}

	var state struct {
		State string `json:"state"`
	}
	getJSON(t, srv, "/state", &state)
	if state.State != "armed" {
		t.Errorf("state before delay = %s, want armed", state.State)
	}

	mu.Lock()
	clock = clock.Add(11 * time.Second)
	mu.Unlock()
	getJSON(t, srv, "/state", &state)
	if state.State != "running" {
		t.Errorf("state after delay = %s, want running", state.State)
	}

	// Ticks only append while running.
	sim.mu.Lock()
	before := len(sim.log)
	sim.mu.Unlock()
	sim.Tick()
	sim.Tick()
	sim.mu.Lock()
	after := len(sim.log)
	sim.mu.Unlock()
	if after != before+2 {
		t.Errorf("log grew by %d, want 2", after-before)
	}
}

func TestStopIsIdempotent(t *testing.T) {
	sim := New(1)
	srv := httptest.NewServer(sim.Handler())
	defer srv.Close()

	for i := 0; i < 2; i++ {
		resp, err := http.Post(srv.URL+"/stop", "application/json", nil)
		if err != nil {
			t.Fatalf("POST /stop: %v", err)
		}
		var ack struct {
			OK    bool   `json:"ok"`
			State string `json:"state"`
		}
		if err := json.NewDecoder(resp.Body).Decode(&ack); err != nil {
			t.Fatalf("decode ack: %v", err)
		}
		resp.Body.Close()
		if !ack.OK || ack.State != "idle" {
			t.Errorf("stop %d: ack = %+v", i, ack)
		}
	}
}

func TestClearLog(t *testing.T) {
	sim := New(1)
	sim.Seed(7)
	srv := httptest.NewServer(sim.Handler())
	defer srv.Close()

	req, _ := http.NewRequest(http.MethodDelete, srv.URL+"/log", nil)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("DELETE /log: %v", err)
	}
	defer resp.Body.Close()
	var ack struct {
		OK      bool `json:"ok"`
		Cleared int  `json:"cleared"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&ack); err != nil {
		t.Fatalf("decode ack: %v", err)
	}
	if !ack.OK || ack.Cleared != 7 {
		t.Errorf("ack = %+v", ack)
	}

	var info struct {
		Records int `json:"records"`
	}
	getJSON(t, srv, "/info", &info)
	if info.Records != 0 {
		t.Errorf("records after clear = %d", info.Records)
	}
}

func TestLogCSVShape(t *testing.T) {
	sim := New(1)
	sim.Seed(3)
	srv := httptest.NewServer(sim.Handler())
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/log.csv")
	if err != nil {
		t.Fatalf("GET /log.csv: %v", err)
	}
	defer resp.Body.Close()
	if ct := resp.Header.Get("Content-Type"); ct != "text/csv" {
		t.Errorf("content type = %s", ct)
	}
	rows, err := csv.NewReader(resp.Body).ReadAll()
	if err != nil {
		t.Fatalf("read csv: %v", err)
	}
	if len(rows) != 4 {
		t.Fatalf("got %d csv rows, want header + 3", len(rows))
	}
	want := []string{"ts", "lat", "lon", "alt", "drop_id", "speed_mps", "sats", "fix_ok"}
	for i, col := range want {
		if rows[0][i] != col {
			t.Errorf("header[%d] = %s, want %s", i, rows[0][i], col)
		}
	}
}
