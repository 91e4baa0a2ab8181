package main

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
)

var (
	exportOut   string
	exportClear bool
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Download the device CSV log",
	Long: "export downloads /log.csv unmodified into a capture-timestamped file.\n" +
		"With --clear the onboard log is wiped only after the file is safely on disk.",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadStation()
		if err != nil {
			return err
		}
		client := newClient(cfg)
		ctx := cmd.Context()

		data, err := client.CSV(ctx)
		if err != nil {
			return err
		}

		name := fmt.Sprintf("drops-%s.csv", time.Now().Format("20060102-150405"))
		path := filepath.Join(exportOut, name)
		f, err := os.Create(path)
		if err != nil {
			return err
		}
		if _, err := f.Write(data); err != nil {
			f.Close()
			return err
		}
		if err := f.Sync(); err != nil {
			f.Close()
			return err
		}
		if err := f.Close(); err != nil {
			return err
		}
		fmt.Printf("Saved %s (%s)\n", path, humanize.Bytes(uint64(len(data))))

		// Clear only once the export is durably on disk.
		if exportClear {
			ack, err := client.ClearLog(ctx)
			if err != nil {
				return fmt.Errorf("export saved but clear failed: %w", err)
			}
			fmt.Printf("Cleared device log: %v\n", ack)
		}
		return nil
	},
}

func init() {
	exportCmd.Flags().StringVar(&exportOut, "out", ".", "Directory to write the CSV into")
	exportCmd.Flags().BoolVar(&exportClear, "clear", false, "Clear the device log after a successful export")
}
