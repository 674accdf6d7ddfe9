// Package simulator produces synthetic telemetry for sensors without a live feed.
package simulator

import (
	"math"
	"math/rand"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"rockwatch/internal/model"
)

// State is the operator-controlled simulator state.
type State string

const (
	StateStopped State = "stopped"
	StateRunning State = "running"
)

// Defaults used when Options leave fields empty.
const (
	DefaultMaxDecay = 2.0
	DefaultFloor    = 20.0
)

// RandSource yields values in [0,1).
type RandSource interface {
	Float64() float64
}

// NewRand returns a seeded source. The result is not goroutine-safe on its own;
// the simulator serialises access.
func NewRand(seed int64) RandSource {
	return rand.New(rand.NewSource(seed))
}

// Options tune decay behaviour.
type Options struct {
	MaxDecay float64
	Floor    float64
	Rand     RandSource
	Now      func() time.Time
}

// Simulator owns the sensor roster. All methods are safe for concurrent use.
type Simulator struct {
	mu      sync.Mutex
	opts    Options
	state   State
	sensors []model.Sensor
	ticks   uint64
	logger  zerolog.Logger
}

// New creates a stopped simulator over a copy of sensors.
func New(sensors []model.Sensor, opts Options, logger zerolog.Logger) *Simulator {
	if opts.MaxDecay <= 0 {
		opts.MaxDecay = DefaultMaxDecay
	}
	if opts.Floor <= 0 {
		opts.Floor = DefaultFloor
	}
	if opts.Rand == nil {
		opts.Rand = NewRand(time.Now().UnixNano())
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	roster := make([]model.Sensor, len(sensors))
	copy(roster, sensors)
	return &Simulator{
		opts:    opts,
		state:   StateStopped,
		sensors: roster,
		logger:  logger.With().Str("component", "simulator").Logger(),
	}
}

// Start moves to running. Starting a running simulator is a no-op.
func (s *Simulator) Start() {
	s.setState(StateRunning)
}

// Stop moves to stopped. Stopping a stopped simulator is a no-op.
func (s *Simulator) Stop() {
	s.setState(StateStopped)
}

func (s *Simulator) setState(next State) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == next {
		return
	}
	s.logger.Info().Str("from", string(s.state)).Str("to", string(next)).Msg("simulator state changed")
	s.state = next
}

// State returns the current state.
func (s *Simulator) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Ticks returns how many mutating ticks have been applied.
func (s *Simulator) Ticks() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ticks
}

// Tick applies one refresh. It reports whether anything was mutated; a stopped
// simulator leaves the roster untouched.
func (s *Simulator) Tick() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateRunning {
		return false
	}

	now := model.NewTimestamp(s.opts.Now())
	for i := range s.sensors {
		s.sensors[i].BatteryLevel = s.decay(s.sensors[i].BatteryLevel)
		s.sensors[i].LastUpdate = now
	}
	s.ticks++
	s.logger.Debug().Uint64("tick", s.ticks).Int("sensors", len(s.sensors)).Msg("telemetry refreshed")
	return true
}

// decay: 电量只降不升；已低于下限的保持不变。
func (s *Simulator) decay(level float64) float64 {
	r := s.opts.Rand.Float64()
	if math.IsNaN(r) || r < 0 {
		r = 0
	}
	if r >= 1 {
		r = math.Nextafter(1, 0)
	}
	level = model.ClampBattery(level)
	next := math.Max(s.opts.Floor, level-r*s.opts.MaxDecay)
	if next > level {
		return level
	}
	return next
}

// Sensors returns a copy of the roster.
func (s *Simulator) Sensors() []model.Sensor {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]model.Sensor, len(s.sensors))
	copy(out, s.sensors)
	return out
}
