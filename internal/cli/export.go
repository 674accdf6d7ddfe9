package cli

import (
	"github.com/spf13/cobra"

	"rockwatch/internal/app"
)

var (
	exportDir     string
	exportCSVPath string
	exportPNGPath string
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export the current risk map as dated JSON, optionally CSV and PNG",
	RunE: func(cmd *cobra.Command, args []string) error {
		opts := app.ExportOptions{
			Dir:     exportDir,
			CSVPath: exportCSVPath,
			PNGPath: exportPNGPath,
		}
		return getApp().Export(cmd.Context(), opts)
	},
}

func init() {
	exportCmd.Flags().StringVar(&exportDir, "dir", "", "Directory for risk_map_<date>.json (defaults to config)")
	exportCmd.Flags().StringVar(&exportCSVPath, "csv", "", "Path to write CSV data")
	exportCmd.Flags().StringVar(&exportPNGPath, "png", "", "Path to write PNG chart")
}
