// YAML config loader with CUE validation integration
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Duration decodes "8s"-style YAML strings into a time.Duration.
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", s, err)
	}
	*d = Duration(parsed)
	return nil
}

// Std returns the duration as a time.Duration.
func (d Duration) Std() time.Duration { return time.Duration(d) }

// Timeouts bounds every device call. A zero value would mean an unbounded
// request, so Load rejects missing entries after applying defaults.
type Timeouts struct {
	Info    Duration `yaml:"info"`
	State   Duration `yaml:"state"`
	Log     Duration `yaml:"log"`
	CSV     Duration `yaml:"csv"`
	Command Duration `yaml:"command"`
}

// Device identifies the field controller and how long to wait on it.
type Device struct {
	Address  string   `yaml:"address"`
	Timeouts Timeouts `yaml:"timeouts"`
}

// Preview controls how many recent records a fetch cycle requests.
type Preview struct {
	Last int `yaml:"last"`
}

// Poll controls the watch refresh cycle.
type Poll struct {
	Interval Duration `yaml:"interval"`
}

// Archive configures the optional GreptimeDB offload sink. An empty
// endpoint disables it.
type Archive struct {
	Endpoint string `yaml:"endpoint"`
	Database string `yaml:"database"`
	Table    string `yaml:"table"`
}

// Station is the root ground-station configuration.
type Station struct {
	StationID string  `yaml:"station_id"`
	Device    Device  `yaml:"device"`
	Timezone  string  `yaml:"timezone"`
	Preview   Preview `yaml:"preview"`
	Poll      Poll    `yaml:"poll"`
	Archive   Archive `yaml:"archive"`

	location *time.Location
}

// Defaults mirror the device's AP-mode out-of-the-box setup.
const (
	DefaultAddress  = "192.168.4.1"
	DefaultTimezone = "America/Mexico_City"
)

func defaults() Station {
	return Station{
		StationID: "ground-01",
		Device: Device{
			Address: DefaultAddress,
			Timeouts: Timeouts{
				Info:    Duration(8 * time.Second),
				State:   Duration(5 * time.Second),
				Log:     Duration(10 * time.Second),
				CSV:     Duration(30 * time.Second),
				Command: Duration(10 * time.Second),
			},
		},
		Timezone: DefaultTimezone,
		Preview:  Preview{Last: 400},
		Poll:     Poll{Interval: Duration(3 * time.Second)},
		Archive:  Archive{Database: "public", Table: "drop_events"},
	}
}

// Load reads the YAML config, validates it against the CUE schema, and
// resolves the reference timezone. Defaults fill any omitted field, so an
// empty file is a valid config for an AP-mode device.
func Load(configPath, cueSchemaPath string) (*Station, error) {
	if err := ValidateWithCue(configPath, cueSchemaPath); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, err
	}
	cfg := defaults()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	if err := cfg.finish(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Station) finish() error {
	if c.Device.Address == "" {
		return fmt.Errorf("device.address must not be empty")
	}
	t := c.Device.Timeouts
	for name, d := range map[string]Duration{
		"info": t.Info, "state": t.State, "log": t.Log, "csv": t.CSV, "command": t.Command,
	} {
		if d <= 0 {
			return fmt.Errorf("device.timeouts.%s must be positive", name)
		}
	}
	if c.Preview.Last < 1 {
		return fmt.Errorf("preview.last must be at least 1")
	}
	if c.Poll.Interval <= 0 {
		return fmt.Errorf("poll.interval must be positive")
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return fmt.Errorf("timezone %q: %w", c.Timezone, err)
	}
	c.location = loc
	return nil
}

// SetTimezone replaces the reference timezone, re-resolving the location.
// Used for CLI overrides after Load.
func (c *Station) SetTimezone(name string) error {
	loc, err := time.LoadLocation(name)
	if err != nil {
		return fmt.Errorf("timezone %q: %w", name, err)
	}
	c.Timezone = name
	c.location = loc
	return nil
}

// Location returns the reference timezone resolved by Load.
func (c *Station) Location() *time.Location {
	if c.location == nil {
		return time.UTC
	}
	return c.location
}
