package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"dropctl/internal/mission"
)

var (
	startVelocity float64
	startDistance float64
	startDelay    float64
	startStepHz   int
)

var startCmd = &cobra.Command{
	Use:   "start",
	Short: "Start a drop mission",
	Long: "start derives the drop interval from velocity and distance, validates\n" +
		"all parameters locally, and sends the mission to the device.",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadStation()
		if err != nil {
			return err
		}
		client := newClient(cfg)

		interval, err := mission.ComputeInterval(startVelocity, startDistance)
		if err != nil {
			return err
		}
		fmt.Printf("Computed interval: %.2f s (distance / velocity)\n", interval)

		planner := mission.NewPlanner(client)
		ack, err := planner.Start(cmd.Context(), startVelocity, startDistance, startDelay, startStepHz)
		if err != nil {
			return err
		}
		return printAck("Started", ack, planner.State())
	},
}

var stopCmd = &cobra.Command{
	Use:   "stop",
	Short: "Stop the running mission",
	Long:  "stop halts the mission; stopping an already-stopped mission also succeeds.",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadStation()
		if err != nil {
			return err
		}
		planner := mission.NewPlanner(newClient(cfg))
		ack, err := planner.Stop(cmd.Context())
		if err != nil {
			return err
		}
		return printAck("Stopped", ack, planner.State())
	},
}

func printAck(verb string, ack any, state mission.State) error {
	data, err := json.Marshal(ack)
	if err != nil {
		return err
	}
	fmt.Printf("%s: %s (mirror state: %s)\n", verb, data, state)
	return nil
}

func init() {
	startCmd.Flags().Float64Var(&startVelocity, "velocity", 10.0, "Drone velocity in m/s")
	startCmd.Flags().Float64Var(&startDistance, "distance", 30.0, "Drop distance in m")
	startCmd.Flags().Float64Var(&startDelay, "delay", 10.0, "Arm delay in s")
	startCmd.Flags().IntVar(&startStepHz, "step-hz", 200, "Stepper STEP frequency in Hz")
}
