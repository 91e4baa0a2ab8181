package main

import (
	"context"
	"fmt"
	"os"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"dropctl/internal/mission"
	"dropctl/internal/station"
	"dropctl/internal/telemetry"
	"dropctl/internal/tui"
)

var (
	watchInterval time.Duration
	watchLast     int
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Live dashboard polling the device",
	Long: "watch polls the device on an interval and renders state, today's\n" +
		"summary, and recent records in a terminal dashboard. Press q to quit.",
	RunE: func(cmd *cobra.Command, args []string) error {
		if !term.IsTerminal(int(os.Stdout.Fd())) {
			return fmt.Errorf("watch needs a terminal; use preview --json for scripting")
		}
		cfg, err := loadStation()
		if err != nil {
			return err
		}
		client := newClient(cfg)

		interval := watchInterval
		if interval <= 0 {
			interval = cfg.Poll.Interval.Std()
		}
		last := watchLast
		if last <= 0 {
			last = cfg.Preview.Last
		}

		planner := mission.NewPlanner(client)
		norm := telemetry.NewNormalizer(cfg.Location())
		poller := station.NewPoller(client, norm, planner, last, interval)

		p := tea.NewProgram(tui.New(client.BaseURL()), tea.WithAltScreen())
		poller.OnSnapshot(func(s station.Snapshot) {
			p.Send(tui.SnapshotMsg{Snapshot: s})
		})

		ctx, cancel := context.WithCancel(cmd.Context())
		defer cancel()
		go poller.Run(ctx)

		_, err = p.Run()
		cancel() // stops the poller between cycles
		return err
	},
}

func init() {
	watchCmd.Flags().DurationVar(&watchInterval, "interval", 0, "Poll interval (default from config)")
	watchCmd.Flags().IntVar(&watchLast, "last", 0, "How many recent records per poll (default from config)")
}
