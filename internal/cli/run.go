package cli

import (
	"github.com/spf13/cobra"
)

var (
	runAddr      string
	runSimulator bool
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Serve the dashboard API and keep the views polling",
	RunE: func(cmd *cobra.Command, args []string) error {
		a := getApp()
		if runAddr != "" {
			a.Config.Server.Addr = runAddr
		}
		if runSimulator {
			a.Config.Simulator.Autostart = true
		}
		return a.Run(cmd.Context())
	},
}

func init() {
	runCmd.Flags().StringVar(&runAddr, "addr", "", "Listen address (overrides server.addr)")
	runCmd.Flags().BoolVar(&runSimulator, "simulate", false, "Start the telemetry simulator immediately")
}
