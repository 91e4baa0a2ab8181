// Package mission derives timing parameters from user inputs, validates
// them locally, and mirrors the device's mission state. The device owns the
// authoritative state; the planner only tracks the last acknowledged view.
package mission

import (
	"context"
	"fmt"
	"sync"

	"dropctl/internal/device"
)

// Policy bounds for user inputs. These match the original ground-station
// form and are enforced here, not by the device.
const (
	MaxVelocityMPS = 100.0
	MaxDistanceM   = 1000.0
	MaxDelayS      = 120.0
	MinStepHz      = 1
	MaxStepHz      = 50000
)

// ValidationError is a locally rejected input. It never reaches the device.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// State mirrors the device's mission state machine.
type State int

const (
	StateIdle State = iota
	StateArmed
	StateRunning
	StateError
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateArmed:
		return "armed"
	case StateRunning:
		return "running"
	case StateError:
		return "error"
	}
	return "unknown"
}

// StateFromDevice maps a device-reported state string onto the mirror.
// Anything outside the known set is opaque and reports ok=false.
func StateFromDevice(s string) (State, bool) {
	switch s {
	case "idle":
		return StateIdle, true
	case "armed":
		return StateArmed, true
	case "running":
		return StateRunning, true
	case "error":
		return StateError, true
	}
	return StateIdle, false
}

// ComputeInterval derives the drop interval from velocity and distance.
// Both must be strictly positive; a zero or negative timing is never sent
// to the device.
func ComputeInterval(velocityMPS, distanceM float64) (float64, error) {
	if velocityMPS <= 0 {
		return 0, &ValidationError{Field: "velocity", Reason: "must be greater than zero"}
	}
	if distanceM <= 0 {
		return 0, &ValidationError{Field: "distance", Reason: "must be greater than zero"}
	}
	return distanceM / velocityMPS, nil
}

// Commander is the slice of the device client the planner needs.
type Commander interface {
	Start(ctx context.Context, params device.MissionParams) (device.Ack, error)
	Stop(ctx context.Context) (device.Ack, error)
}

// Planner validates mission requests and delegates them to the device.
type Planner struct {
	dev Commander

	mu    sync.Mutex
	state State
}

// NewPlanner starts with an idle mirror until the device reports otherwise.
func NewPlanner(dev Commander) *Planner {
	return &Planner{dev: dev, state: StateIdle}
}

// Start validates all inputs, builds the mission request, and sends it.
// Validation failures are local; device rejections and transport failures
// are surfaced verbatim and move the mirror to error.
func (p *Planner) Start(ctx context.Context, velocityMPS, distanceM, delayS float64, stepHz int) (device.Ack, error) {
	interval, err := ComputeInterval(velocityMPS, distanceM)
	if err != nil {
		return nil, err
	}
	if velocityMPS > MaxVelocityMPS {
		return nil, &ValidationError{Field: "velocity", Reason: fmt.Sprintf("must be at most %g m/s", MaxVelocityMPS)}
	}
	if distanceM > MaxDistanceM {
		return nil, &ValidationError{Field: "distance", Reason: fmt.Sprintf("must be at most %g m", MaxDistanceM)}
	}
	if delayS < 0 || delayS > MaxDelayS {
		return nil, &ValidationError{Field: "delay", Reason: fmt.Sprintf("must be between 0 and %g s", MaxDelayS)}
	}
	if stepHz < MinStepHz || stepHz > MaxStepHz {
		return nil, &ValidationError{Field: "step_hz", Reason: fmt.Sprintf("must be between %d and %d Hz", MinStepHz, MaxStepHz)}
	}

	params := device.MissionParams{IntervalS: interval, DelayS: delayS, StepHz: stepHz}
	ack, err := p.dev.Start(ctx, params)
	p.mu.Lock()
	defer p.mu.Unlock()
	if err != nil {
		p.state = StateError
		return nil, err
	}
	p.state = StateArmed
	return ack, nil
}

// Stop halts the mission. Stopping an already-stopped mission is a success,
// so calling this twice in a row yields two acknowledgments.
func (p *Planner) Stop(ctx context.Context) (device.Ack, error) {
	ack, err := p.dev.Stop(ctx)
	p.mu.Lock()
	defer p.mu.Unlock()
	if err != nil {
		p.state = StateError
		return nil, err
	}
	p.state = StateIdle
	return ack, nil
}

// Observe ingests a device-reported state string and updates the mirror.
// Unknown strings leave the mirror untouched and are returned opaquely by
// the caller; the device remains the source of truth either way.
func (p *Planner) Observe(deviceState string) State {
	p.mu.Lock()
	defer p.mu.Unlock()
	if s, ok := StateFromDevice(deviceState); ok {
		p.state = s
	}
	return p.state
}

// State returns the last acknowledged mirror state.
func (p *Planner) State() State {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state
}
