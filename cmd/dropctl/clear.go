package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var clearYes bool

var clearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Wipe the onboard log (destructive)",
	Long:  "clear deletes the device log. Export first; this cannot be undone.",
	RunE: func(cmd *cobra.Command, args []string) error {
		if !clearYes {
			return fmt.Errorf("refusing to clear without --yes; run export first")
		}
		cfg, err := loadStation()
		if err != nil {
			return err
		}
		ack, err := newClient(cfg).ClearLog(cmd.Context())
		if err != nil {
			return err
		}
		fmt.Printf("Cleared device log: %v\n", ack)
		return nil
	},
}

func init() {
	clearCmd.Flags().BoolVar(&clearYes, "yes", false, "Confirm the destructive clear")
}
