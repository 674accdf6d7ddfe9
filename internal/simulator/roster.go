package simulator

import (
	"time"

	"rockwatch/internal/model"
)

// DefaultRoster returns the six seeded field sensors, one per sensor type.
func DefaultRoster(now time.Time) []model.Sensor {
	ts := model.NewTimestamp(now)
	return []model.Sensor{
		{
			ID:           "DS-001",
			Name:         "Displacement Sensor 1",
			Type:         model.SensorDisplacement,
			Location:     "Zone A - North Wall",
			Status:       model.SensorActive,
			LastReading:  "0.8 mm",
			LastUpdate:   ts,
			BatteryLevel: 85,
			Coordinates:  model.Coordinates{Lat: -23.5505, Lng: -46.6333},
		},
		{
			ID:           "SG-002",
			Name:         "Strain Gauge 2",
			Type:         model.SensorStrain,
			Location:     "Zone B - East Wall",
			Status:       model.SensorActive,
			LastReading:  "120 μstrain",
			LastUpdate:   ts,
			BatteryLevel: 92,
			Coordinates:  model.Coordinates{Lat: -23.5515, Lng: -46.6343},
		},
		{
			ID:           "PP-003",
			Name:         "Pore Pressure Monitor 3",
			Type:         model.SensorPorePressure,
			Location:     "Zone C - South Wall",
			Status:       model.SensorActive,
			LastReading:  "60 kPa",
			LastUpdate:   ts,
			BatteryLevel: 78,
			Coordinates:  model.Coordinates{Lat: -23.5525, Lng: -46.6353},
		},
		{
			ID:           "TM-004",
			Name:         "Temperature Monitor 4",
			Type:         model.SensorTemperature,
			Location:     "Weather Station",
			Status:       model.SensorActive,
			LastReading:  "18°C",
			LastUpdate:   ts,
			BatteryLevel: 95,
			Coordinates:  model.Coordinates{Lat: -23.5535, Lng: -46.6363},
		},
		{
			ID:           "RG-005",
			Name:         "Rain Gauge 5",
			Type:         model.SensorRainfall,
			Location:     "Weather Station",
			Status:       model.SensorActive,
			LastReading:  "2.5 mm/h",
			LastUpdate:   ts,
			BatteryLevel: 88,
			Coordinates:  model.Coordinates{Lat: -23.5545, Lng: -46.6373},
		},
		{
			ID:           "VM-006",
			Name:         "Vibration Monitor 6",
			Type:         model.SensorVibration,
			Location:     "Zone D - West Wall",
			Status:       model.SensorMaintenance,
			LastReading:  "0.05 m/s²",
			LastUpdate:   model.NewTimestamp(now.Add(-time.Hour)),
			BatteryLevel: 45,
			Coordinates:  model.Coordinates{Lat: -23.5555, Lng: -46.6383},
		},
	}
}
