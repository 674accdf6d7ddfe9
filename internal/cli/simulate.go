package cli

import (
	"errors"

	"github.com/spf13/cobra"

	"rockwatch/internal/app"
)

var (
	simulateTicks int
	simulateSeed  int64
)

var simulateCmd = &cobra.Command{
	Use:   "simulate",
	Short: "推进传感器遥测模拟器并打印结果",
	RunE: func(cmd *cobra.Command, args []string) error {
		if simulateTicks < 0 {
			return errors.New("--ticks 必须大于等于 0")
		}

		seed := simulateSeed
		if seed == 0 {
			seed = getApp().Config.Simulator.Seed
		}
		return getApp().Simulate(cmd.Context(), app.SimulateOptions{Ticks: simulateTicks, Seed: seed})
	},
}

func init() {
	simulateCmd.Flags().IntVar(&simulateTicks, "ticks", 1, "模拟刷新次数")
	simulateCmd.Flags().Int64Var(&simulateSeed, "seed", 0, "随机种子（0 表示使用配置或时间）")
}
