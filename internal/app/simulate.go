package app

import (
	"context"
	"errors"
	"fmt"
	"text/tabwriter"

	"rockwatch/internal/aggregate"
	"rockwatch/internal/classify"
)

// Simulate 启动模拟器并推进指定次数，然后打印传感器表。
func (a *App) Simulate(ctx context.Context, opts SimulateOptions) error {
	if opts.Ticks < 0 {
		return errors.New("ticks 不能为负数")
	}

	sim := a.newSimulator(opts.Seed)
	sim.Start()
	defer sim.Stop()

	for i := 0; i < opts.Ticks; i++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		sim.Tick()
	}

	sensors := sim.Sensors()
	stats := aggregate.Sensors(sensors)
	fmt.Fprintf(a.Out, "ticks: %d  sensors: %d  low battery: %d\n", sim.Ticks(), stats.Total, stats.LowBattery)

	writer := tabwriter.NewWriter(a.Out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(writer, "ID\tName\tType\tStatus\tBattery\tBucket\tLast Reading")
	for _, s := range sensors {
		fmt.Fprintf(
			writer,
			"%s\t%s\t%s\t%s\t%.1f\t%s\t%s\n",
			s.ID,
			s.Name,
			s.Type,
			s.Status,
			s.BatteryLevel,
			classify.BatteryBucket(s.BatteryLevel),
			s.LastReading,
		)
	}
	return writer.Flush()
}
