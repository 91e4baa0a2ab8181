// Package device wraps the field controller's HTTP interface. Every call is
// bounded by an explicit per-endpoint timeout and returns either a typed
// payload or a *device.Error; the client never retries on its own.
package device

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"dropctl/internal/telemetry"
)

// Timeouts holds per-endpoint request bounds. Info and state are quick
// status probes, log fetches carry more data, and the CSV dump can be the
// whole onboard flash.
type Timeouts struct {
	Info    time.Duration
	State   time.Duration
	Log     time.Duration
	CSV     time.Duration
	Command time.Duration
}

// Info is the device's /info snapshot.
type Info struct {
	Records  int64  `json:"records"`
	Bytes    int64  `json:"bytes"`
	Firmware string `json:"fw"`
	State    string `json:"state"`
}

// StateSnapshot is the opaque /state payload, passed through untouched.
type StateSnapshot map[string]any

// Ack is the device's acknowledgment JSON for a command, passed through.
type Ack map[string]any

// MissionParams is the /start request body. Validation of the user-facing
// inputs happens in the mission planner before this is ever built.
type MissionParams struct {
	IntervalS float64 `json:"interval_s"`
	DelayS    float64 `json:"delay_s"`
	StepHz    int     `json:"step_hz"`
}

// Client talks to one device. Construct one per session and share it by
// reference; it is safe for sequential use from a single control flow.
type Client struct {
	base     string
	hc       *http.Client
	timeouts Timeouts
}

// New builds a client for the device at address (host or host:port; an
// http:// prefix is added when missing).
func New(address string, timeouts Timeouts) *Client {
	base := address
	if !strings.Contains(base, "://") {
		base = "http://" + base
	}
	return &Client{
		base:     strings.TrimRight(base, "/"),
		hc:       &http.Client{},
		timeouts: timeouts,
	}
}

// BaseURL returns the resolved device base URL.
func (c *Client) BaseURL() string { return c.base }

// Info fetches the device status snapshot.
func (c *Client) Info(ctx context.Context) (Info, error) {
	data, err := c.do(ctx, "info", http.MethodGet, "/info", nil, nil, c.timeouts.Info)
	if err != nil {
		return Info{}, err
	}
	var info Info
	if err := json.Unmarshal(data, &info); err != nil {
		return Info{}, &Error{Kind: KindPayload, Op: "info", Err: err}
	}
	return info, nil
}

// State fetches the opaque device state object.
func (c *Client) State(ctx context.Context) (StateSnapshot, error) {
	data, err := c.do(ctx, "state", http.MethodGet, "/state", nil, nil, c.timeouts.State)
	if err != nil {
		return nil, err
	}
	var snap StateSnapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, &Error{Kind: KindPayload, Op: "state", Err: err}
	}
	return snap, nil
}

// Records fetches at most limit most-recent raw records; the device may
// return fewer. Numbers are kept as json.Number so the normalizer can
// coerce field by field.
func (c *Client) Records(ctx context.Context, limit int) ([]telemetry.RawRecord, error) {
	if limit < 1 {
		return nil, fmt.Errorf("records: limit must be at least 1, got %d", limit)
	}
	q := url.Values{"last": []string{strconv.Itoa(limit)}}
	data, err := c.do(ctx, "records", http.MethodGet, "/log.json", q, nil, c.timeouts.Log)
	if err != nil {
		return nil, err
	}
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var raws []telemetry.RawRecord
	if err := dec.Decode(&raws); err != nil {
		return nil, &Error{Kind: KindPayload, Op: "records", Err: err}
	}
	return raws, nil
}

// CSV downloads the device's full CSV log as-is.
func (c *Client) CSV(ctx context.Context) ([]byte, error) {
	return c.do(ctx, "csv", http.MethodGet, "/log.csv", nil, nil, c.timeouts.CSV)
}

// Start sends the mission parameters. A device-side rejection surfaces as a
// protocol error with the device's status code.
func (c *Client) Start(ctx context.Context, params MissionParams) (Ack, error) {
	body, err := json.Marshal(params)
	if err != nil {
		return nil, &Error{Kind: KindPayload, Op: "start", Err: err}
	}
	data, err := c.do(ctx, "start", http.MethodPost, "/start", nil, bytes.NewReader(body), c.timeouts.Command)
	if err != nil {
		return nil, err
	}
	return decodeAck("start", data)
}

// Stop halts a running mission. The device treats stopping an idle mission
// as a success, so calling this twice is fine.
func (c *Client) Stop(ctx context.Context) (Ack, error) {
	data, err := c.do(ctx, "stop", http.MethodPost, "/stop", nil, nil, c.timeouts.Command)
	if err != nil {
		return nil, err
	}
	return decodeAck("stop", data)
}

// ClearLog wipes the onboard log. Destructive; export first. The export
// command enforces that ordering, not this method.
func (c *Client) ClearLog(ctx context.Context) (Ack, error) {
	data, err := c.do(ctx, "clear", http.MethodDelete, "/log", nil, nil, c.timeouts.Command)
	if err != nil {
		return nil, err
	}
	return decodeAck("clear", data)
}

func decodeAck(op string, data []byte) (Ack, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return Ack{}, nil
	}
	var ack Ack
	if err := json.Unmarshal(data, &ack); err != nil {
		return nil, &Error{Kind: KindPayload, Op: op, Err: err}
	}
	return ack, nil
}

func (c *Client) do(ctx context.Context, op, method, path string, query url.Values, body io.Reader, timeout time.Duration) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	u := c.base + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, method, u, body)
	if err != nil {
		return nil, &Error{Kind: KindTransport, Op: op, Err: err}
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.hc.Do(req)
	if err != nil {
		return nil, transportErr(op, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, transportErr(op, err)
	}
	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return nil, &Error{
			Kind:   KindProtocol,
			Op:     op,
			Status: resp.StatusCode,
			Err:    fmt.Errorf("device said: %s", strings.TrimSpace(string(data))),
		}
	}
	return data, nil
}
