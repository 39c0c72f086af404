package main

import (
	"time"

	"github.com/spf13/cobra"

	"agenteval/internal/demo"
)

var demoFlags struct {
	fast bool
}

var demoCmd = &cobra.Command{
	Use:   "demo",
	Short: "Play a simulated walkthrough of an agent evaluation run",
	Long: `Demo plays back a scripted, fully simulated walkthrough of the agent
commerce flow: discovery, negotiation, execution and evaluation, followed
by a mock leaderboard. No network calls are made and no agent runs.`,
	RunE: runDemo,
}

func init() {
	demoCmd.Flags().BoolVar(&demoFlags.fast, "fast", false, "Skip playback pauses")
}

func runDemo(cmd *cobra.Command, _ []string) error {
	tick := 350 * time.Millisecond
	if demoFlags.fast {
		tick = 0
	}
	demo.Run(cmd.OutOrStdout(), tick)
	return nil
}
