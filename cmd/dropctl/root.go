package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"dropctl/internal/config"
	"dropctl/internal/device"
	"dropctl/internal/logging"
)

var (
	cfgPath    string
	schemaPath string
	deviceAddr string
	timezone   string
)

var rootCmd = &cobra.Command{
	Use:   "dropctl",
	Short: "Ground-control client for the drop-logger field device",
	Long: "dropctl talks to a drone-mounted drop controller over its local HTTP\n" +
		"interface: telemetry preview, day-windowed analytics, mission start/stop,\n" +
		"CSV export, and offload to archive sinks.",
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		cmd.SetContext(logging.NewContext(cmd.Context(), logging.New()))
	},
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgPath, "config", "config/station.yaml", "Path to station configuration YAML")
	rootCmd.PersistentFlags().StringVar(&schemaPath, "schema", "schemas/station.cue", "Path to CUE schema file")
	rootCmd.PersistentFlags().StringVar(&deviceAddr, "device", "", "Device address override (host or host:port)")
	rootCmd.PersistentFlags().StringVar(&timezone, "timezone", "", "Reference timezone override (IANA name)")

	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(previewCmd)
	rootCmd.AddCommand(startCmd)
	rootCmd.AddCommand(stopCmd)
	rootCmd.AddCommand(exportCmd)
	rootCmd.AddCommand(clearCmd)
	rootCmd.AddCommand(offloadCmd)
	rootCmd.AddCommand(watchCmd)
}

// loadStation loads the config and applies CLI overrides.
func loadStation() (*config.Station, error) {
	cfg, err := config.Load(cfgPath, schemaPath)
	if err != nil {
		return nil, err
	}
	if deviceAddr != "" {
		cfg.Device.Address = deviceAddr
	}
	if timezone != "" {
		if err := cfg.SetTimezone(timezone); err != nil {
			return nil, err
		}
	}
	return cfg, nil
}

// newClient builds the per-session device client from config.
func newClient(cfg *config.Station) *device.Client {
	t := cfg.Device.Timeouts
	return device.New(cfg.Device.Address, device.Timeouts{
		Info:    t.Info.Std(),
		State:   t.State.Std(),
		Log:     t.Log.Std(),
		CSV:     t.CSV.Std(),
		Command: t.Command.Std(),
	})
}
