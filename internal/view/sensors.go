package view

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"rockwatch/internal/aggregate"
	"rockwatch/internal/classify"
	"rockwatch/internal/metrics"
	"rockwatch/internal/model"
	"rockwatch/internal/scheduler"
	"rockwatch/internal/simulator"
)

// SensorOptions configure the sensor view.
type SensorOptions struct {
	// AutoRefresh ticks the simulator on a cadence; 0 leaves refresh manual.
	AutoRefresh time.Duration
	Autostart   bool
	Publisher   Publisher
}

// SensorItem is a sensor annotated with its display tiers.
type SensorItem struct {
	model.Sensor
	StatusTier    classify.Tier `json:"status_tier"`
	BatteryBucket string        `json:"battery_bucket"`
	BatteryTier   classify.Tier `json:"battery_tier"`
}

// SensorState is what the sensor view renders.
type SensorState struct {
	Simulator simulator.State       `json:"simulator"`
	Sensors   []SensorItem          `json:"sensors"`
	Stats     aggregate.SensorStats `json:"stats"`
}

// SensorView is the sensor view controller. It has no backend; telemetry comes from
// the simulator.
type SensorView struct {
	sim    *simulator.Simulator
	auto   *scheduler.Handle
	pub    Publisher
	logger zerolog.Logger
}

// OpenSensors enters the sensor view over sim.
func OpenSensors(ctx context.Context, sim *simulator.Simulator, opts SensorOptions, logger zerolog.Logger) *SensorView {
	v := &SensorView{
		sim:    sim,
		pub:    opts.Publisher,
		logger: logger.With().Str("component", "sensor_view").Logger(),
	}
	if opts.Autostart {
		v.StartSimulator()
	} else {
		metrics.SetSimulatorRunning(sim.State() == simulator.StateRunning)
	}
	if opts.AutoRefresh > 0 {
		v.auto = scheduler.Start(ctx, scheduler.Options{
			Name:          "sensors",
			Interval:      opts.AutoRefresh,
			SkipImmediate: true,
		}, func(context.Context) { v.Refresh() }, logger)
	}
	v.recordBattery()
	return v
}

// StartSimulator moves the simulator to running.
func (v *SensorView) StartSimulator() {
	v.sim.Start()
	metrics.SetSimulatorRunning(true)
	v.push()
}

// StopSimulator moves the simulator to stopped.
func (v *SensorView) StopSimulator() {
	v.sim.Stop()
	metrics.SetSimulatorRunning(false)
	v.push()
}

// Refresh applies one simulator tick. It reports whether telemetry changed; a stopped
// simulator leaves it untouched.
func (v *SensorView) Refresh() bool {
	if !v.sim.Tick() {
		return false
	}
	metrics.RecordSimulatorTick()
	v.recordBattery()
	v.push()
	return true
}

// State renders the sensor view.
func (v *SensorView) State() SensorState {
	sensors := v.sim.Sensors()
	items := make([]SensorItem, 0, len(sensors))
	for _, s := range sensors {
		items = append(items, SensorItem{
			Sensor:        s,
			StatusTier:    classify.SensorStatus(s.Status),
			BatteryBucket: classify.BatteryBucket(s.BatteryLevel),
			BatteryTier:   classify.Battery(s.BatteryLevel),
		})
	}
	return SensorState{
		Simulator: v.sim.State(),
		Sensors:   items,
		Stats:     aggregate.Sensors(sensors),
	}
}

func (v *SensorView) recordBattery() {
	for _, s := range v.sim.Sensors() {
		metrics.SetSensorBattery(s.ID, s.BatteryLevel)
	}
}

func (v *SensorView) push() {
	if v.pub != nil {
		v.pub.Publish(TopicSensors, v.State())
	}
}

// Close stops automatic refresh. The simulator keeps its state.
func (v *SensorView) Close() {
	if v.auto != nil {
		v.auto.Stop()
	}
	v.logger.Debug().Msg("sensor view closed")
}
