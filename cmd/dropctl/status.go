package main

import (
	"encoding/json"
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show device info and mission state",
	Long:  "status fetches /info and /state and prints a connection summary.",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadStation()
		if err != nil {
			return err
		}
		client := newClient(cfg)
		ctx := cmd.Context()

		info, err := client.Info(ctx)
		if err != nil {
			return err
		}
		fmt.Printf("Connected to %s\n", client.BaseURL())
		fmt.Printf("  records:  %s\n", humanize.Comma(info.Records))
		fmt.Printf("  log size: %s\n", humanize.Bytes(uint64(info.Bytes)))
		fmt.Printf("  firmware: %s\n", info.Firmware)
		fmt.Printf("  state:    %s\n", info.State)

		snap, err := client.State(ctx)
		if err != nil {
			return err
		}
		data, err := json.MarshalIndent(snap, "", "  ")
		if err != nil {
			return err
		}
		fmt.Printf("Device state:\n%s\n", data)
		return nil
	},
}
