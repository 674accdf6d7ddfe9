package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"rockwatch/internal/app"
	"rockwatch/internal/filter"
)

var (
	showFilter string
)

var showCmd = &cobra.Command{
	Use:   "show",
	Short: "Fetch the alerts once and print them",
	RunE: func(cmd *cobra.Command, args []string) error {
		mode := filter.ParseMode(showFilter)
		if showFilter != "" && !strings.EqualFold(strings.ReplaceAll(showFilter, "-", "_"), string(mode)) {
			return fmt.Errorf("unknown --filter %q", showFilter)
		}

		return getApp().Show(cmd.Context(), app.ShowOptions{Filter: showFilter})
	},
}

func init() {
	showCmd.Flags().StringVar(&showFilter, "filter", "all", "Alert filter: all, active or high-risk")
}
