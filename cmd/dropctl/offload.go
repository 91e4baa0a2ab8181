package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"dropctl/internal/config"
	"dropctl/internal/logging"
	"dropctl/internal/station"
	"dropctl/internal/telemetry"
)

var (
	offloadLast     int
	offloadOutput   string
	offloadStdout   bool
	offloadEndpoint string
)

var offloadCmd = &cobra.Command{
	Use:   "offload",
	Short: "Pull recent records into archive sinks",
	Long: "offload fetches the last N records, normalizes them, and forwards them\n" +
		"to the configured sinks: a JSONL file, STDOUT, and/or GreptimeDB. Every\n" +
		"run is stamped with a fresh offload id.",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadStation()
		if err != nil {
			return err
		}
		client := newClient(cfg)
		log := logging.FromContext(cmd.Context())

		writer, cleanup, err := newSinks(cfg)
		if err != nil {
			return err
		}
		defer cleanup()

		last := offloadLast
		if last <= 0 {
			last = cfg.Preview.Last
		}
		raws, err := client.Records(cmd.Context(), last)
		if err != nil {
			return err
		}
		records, dropped := telemetry.NewNormalizer(cfg.Location()).Normalize(raws)
		if dropped > 0 {
			log.Warn("malformed records dropped", "dropped", dropped)
		}

		rows := station.Stamp(records, cfg.StationID, client.BaseURL(), time.Now().UTC())
		if err := station.WriteAll(writer, rows); err != nil {
			return err
		}
		fmt.Printf("Offloaded %d records (%d dropped)\n", len(rows), dropped)
		return nil
	},
}

// newSinks assembles the offload writer set from flags and config. With no
// file and no endpoint configured, rows go to STDOUT so the command never
// silently discards data.
func newSinks(cfg *config.Station) (station.RecordWriter, func(), error) {
	cleanup := func() {}
	var writers []station.RecordWriter

	if offloadOutput != "" {
		fw, err := station.NewFileWriter(offloadOutput)
		if err != nil {
			return nil, nil, err
		}
		cleanup = func() { fw.Close() }
		writers = append(writers, fw)
	}

	endpoint := offloadEndpoint
	if endpoint == "" {
		endpoint = cfg.Archive.Endpoint
	}
	if endpoint != "" {
		gw, err := station.NewGreptimeWriter(endpoint, cfg.Archive.Database, cfg.Archive.Table)
		if err != nil {
			return nil, nil, err
		}
		writers = append(writers, gw)
	}

	if offloadStdout || len(writers) == 0 {
		writers = append(writers, station.NewStdoutWriter())
	}
	if len(writers) == 1 {
		return writers[0], cleanup, nil
	}
	return station.NewMultiWriter(writers...), cleanup, nil
}

func init() {
	offloadCmd.Flags().IntVar(&offloadLast, "last", 0, "How many recent records to offload (default from config)")
	offloadCmd.Flags().StringVar(&offloadOutput, "output", "", "JSONL file to append archive rows to")
	offloadCmd.Flags().BoolVar(&offloadStdout, "stdout", false, "Also print archive rows to STDOUT")
	offloadCmd.Flags().StringVar(&offloadEndpoint, "endpoint", "", "GreptimeDB endpoint override")
}
