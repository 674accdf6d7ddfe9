package simulator

import (
	"reflect"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"rockwatch/internal/model"
)

type fixedRand float64

func (f fixedRand) Float64() float64 { return float64(f) }

var epoch = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

func newTestSimulator(t *testing.T, r RandSource, sensors []model.Sensor) (*Simulator, *time.Time) {
	t.Helper()
	now := epoch
	sim := New(sensors, Options{Rand: r, Now: func() time.Time { return now }}, zerolog.Nop())
	return sim, &now
}

func TestInitialStateStopped(t *testing.T) {
	sim, _ := newTestSimulator(t, fixedRand(0.5), DefaultRoster(epoch))
	if sim.State() != StateStopped {
		t.Fatalf("初始状态应为 stopped, 实际 %s", sim.State())
	}
}

func TestStoppedTickDoesNotMutate(t *testing.T) {
	roster := DefaultRoster(epoch)
	sim, _ := newTestSimulator(t, fixedRand(0.9), roster)
	if sim.Tick() {
		t.Fatal("stopped 状态下 Tick 不应生效")
	}
	if !reflect.DeepEqual(sim.Sensors(), roster) {
		t.Fatal("stopped 状态下传感器数据被修改")
	}
}

func TestRunningTickDecays(t *testing.T) {
	roster := DefaultRoster(epoch)
	sim, now := newTestSimulator(t, fixedRand(0.5), roster)
	sim.Start()
	*now = epoch.Add(time.Minute)
	if !sim.Tick() {
		t.Fatal("running 状态下 Tick 应生效")
	}
	after := sim.Sensors()
	for i, s := range after {
		want := roster[i].BatteryLevel - 1
		if s.BatteryLevel != want {
			t.Fatalf("%s battery = %v, want %v", s.ID, s.BatteryLevel, want)
		}
		if !s.LastUpdate.Time.Equal(epoch.Add(time.Minute)) {
			t.Fatalf("%s lastUpdate 未更新: %v", s.ID, s.LastUpdate)
		}
	}
	if sim.Ticks() != 1 {
		t.Fatalf("ticks = %d, want 1", sim.Ticks())
	}
}

func TestDecayBounds(t *testing.T) {
	sim, _ := newTestSimulator(t, NewRand(42), DefaultRoster(epoch))
	sim.Start()
	prev := sim.Sensors()
	for i := 0; i < 500; i++ {
		sim.Tick()
		cur := sim.Sensors()
		for j := range cur {
			if cur[j].BatteryLevel > prev[j].BatteryLevel {
				t.Fatalf("电量不应上升: %v -> %v", prev[j].BatteryLevel, cur[j].BatteryLevel)
			}
			if cur[j].BatteryLevel < DefaultFloor {
				t.Fatalf("电量低于下限: %v", cur[j].BatteryLevel)
			}
		}
		prev = cur
	}
	for _, s := range prev {
		if s.BatteryLevel != DefaultFloor {
			t.Fatalf("%s 长时间运行后应停在下限, 实际 %v", s.ID, s.BatteryLevel)
		}
	}
}

func TestBelowFloorNeverIncreases(t *testing.T) {
	sim, _ := newTestSimulator(t, fixedRand(0.99), []model.Sensor{{ID: "x", BatteryLevel: 10}})
	sim.Start()
	sim.Tick()
	if got := sim.Sensors()[0].BatteryLevel; got != 10 {
		t.Fatalf("低于下限的电量不应被抬高, 实际 %v", got)
	}
}

func TestOutOfRangeRandIsClamped(t *testing.T) {
	sim, _ := newTestSimulator(t, fixedRand(-3), []model.Sensor{{ID: "x", BatteryLevel: 60}})
	sim.Start()
	sim.Tick()
	if got := sim.Sensors()[0].BatteryLevel; got != 60 {
		t.Fatalf("负随机数应视为 0, 实际 %v", got)
	}
}

func TestStartStopIdempotent(t *testing.T) {
	sim, _ := newTestSimulator(t, fixedRand(0), nil)
	sim.Start()
	sim.Start()
	if sim.State() != StateRunning {
		t.Fatal("应为 running")
	}
	sim.Stop()
	sim.Stop()
	if sim.State() != StateStopped {
		t.Fatal("应为 stopped")
	}
}

func TestSensorsReturnsCopy(t *testing.T) {
	sim, _ := newTestSimulator(t, fixedRand(0), DefaultRoster(epoch))
	out := sim.Sensors()
	out[0].BatteryLevel = 1
	if sim.Sensors()[0].BatteryLevel == 1 {
		t.Fatal("Sensors 应返回副本")
	}
}

func TestDefaultRoster(t *testing.T) {
	roster := DefaultRoster(epoch)
	if len(roster) != 6 {
		t.Fatalf("roster 应有 6 个传感器, 实际 %d", len(roster))
	}
	types := map[model.SensorType]bool{}
	for _, s := range roster {
		types[s.Type] = true
	}
	if len(types) != 6 {
		t.Fatalf("roster 应覆盖 6 种类型, 实际 %d", len(types))
	}
	if roster[5].Status != model.SensorMaintenance || !roster[5].LastUpdate.Time.Equal(epoch.Add(-time.Hour)) {
		t.Fatalf("VM-006 数据错误: %+v", roster[5])
	}
}
