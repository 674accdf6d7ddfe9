package model

import "math"

// SensorType 传感器类型（封闭枚举）。
type SensorType string

const (
	SensorDisplacement SensorType = "displacement"
	SensorStrain       SensorType = "strain"
	SensorPorePressure SensorType = "pore_pressure"
	SensorTemperature  SensorType = "temperature"
	SensorRainfall     SensorType = "rainfall"
	SensorVibration    SensorType = "vibration"
)

// SensorStatus 传感器运行状态。
type SensorStatus string

const (
	SensorActive      SensorStatus = "active"
	SensorWarning     SensorStatus = "warning"
	SensorMaintenance SensorStatus = "maintenance"
	SensorOffline     SensorStatus = "offline"
)

// SensorStatuses lists the closed status set.
var SensorStatuses = []SensorStatus{SensorActive, SensorWarning, SensorMaintenance, SensorOffline}

// Coordinates is a WGS84 point.
type Coordinates struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// Sensor is one field instrument as shown to operators.
type Sensor struct {
	ID           string       `json:"id"`
	Name         string       `json:"name"`
	Type         SensorType   `json:"type"`
	Location     string       `json:"location"`
	Status       SensorStatus `json:"status"`
	LastReading  string       `json:"lastReading"`
	LastUpdate   Timestamp    `json:"lastUpdate"`
	BatteryLevel float64      `json:"batteryLevel"`
	Coordinates  Coordinates  `json:"coordinates"`
}

// ClampBattery bounds a battery level to [0,100]; NaN maps to 0.
func ClampBattery(level float64) float64 {
	if math.IsNaN(level) || level < 0 {
		return 0
	}
	if level > 100 {
		return 100
	}
	return level
}
