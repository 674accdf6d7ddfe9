// Package aggregate reduces snapshots into the summary counters shown above each view.
package aggregate

import (
	"github.com/shopspring/decimal"

	"rockwatch/internal/model"
)

// AlertStats 告警汇总。Invalid 统计枚举之外的记录。
type AlertStats struct {
	Total        int                    `json:"total"`
	Active       int                    `json:"active"`
	Acknowledged int                    `json:"acknowledged"`
	Resolved     int                    `json:"resolved"`
	HighRisk     int                    `json:"high_risk"`
	BySeverity   map[model.Severity]int `json:"by_severity"`
	Invalid      int                    `json:"invalid"`
	NoData       bool                   `json:"no_data"`
}

// Alerts counts a full alert collection in one pass.
func Alerts(alerts []model.Alert) AlertStats {
	stats := AlertStats{
		Total:      len(alerts),
		BySeverity: make(map[model.Severity]int, len(model.Severities)),
		NoData:     len(alerts) == 0,
	}
	for _, s := range model.Severities {
		stats.BySeverity[s] = 0
	}
	for _, a := range alerts {
		switch a.Status {
		case model.StatusActive:
			stats.Active++
		case model.StatusAcknowledged:
			stats.Acknowledged++
		case model.StatusResolved:
			stats.Resolved++
		}
		if a.HighRisk() {
			stats.HighRisk++
		}
		if a.Severity.Valid() {
			stats.BySeverity[a.Severity]++
		}
		if !a.Severity.Valid() || !a.Status.Valid() {
			stats.Invalid++
		}
	}
	return stats
}

// ZoneStats 风险区汇总；空集合时 Mean/Max 为 null。
type ZoneStats struct {
	Total    int                     `json:"total"`
	HighRisk int                     `json:"high_risk"`
	ByLevel  map[model.RiskLevel]int `json:"by_level"`
	Mean     decimal.NullDecimal     `json:"mean_risk"`
	Max      decimal.NullDecimal     `json:"max_risk"`
	NoData   bool                    `json:"no_data"`
}

// Zones computes counts plus exact mean and max of risk values.
func Zones(zones []model.RiskZone) ZoneStats {
	stats := ZoneStats{
		Total:   len(zones),
		ByLevel: make(map[model.RiskLevel]int, len(model.RiskLevels)),
		NoData:  len(zones) == 0,
	}
	for _, l := range model.RiskLevels {
		stats.ByLevel[l] = 0
	}
	if stats.NoData {
		return stats
	}

	sum := decimal.Zero
	var peak decimal.Decimal
	for i, z := range zones {
		v := decimal.NewFromFloat(model.ClampRisk(z.RiskValue))
		sum = sum.Add(v)
		if i == 0 || v.GreaterThan(peak) {
			peak = v
		}
		stats.ByLevel[z.RiskLevel]++
		if z.HighRisk() {
			stats.HighRisk++
		}
	}
	stats.Mean = decimal.NewNullDecimal(sum.Div(decimal.NewFromInt(int64(len(zones)))))
	stats.Max = decimal.NewNullDecimal(peak)
	return stats
}

// LowBatteryThreshold 低于该电量(%)计入低电量。
const LowBatteryThreshold = 50.0

// SensorStats 传感器汇总。
type SensorStats struct {
	Total      int                        `json:"total"`
	ByStatus   map[model.SensorStatus]int `json:"by_status"`
	LowBattery int                        `json:"low_battery"`
	MinBattery decimal.NullDecimal        `json:"min_battery"`
	NoData     bool                       `json:"no_data"`
}

// Sensors counts sensors by status and low battery.
func Sensors(sensors []model.Sensor) SensorStats {
	stats := SensorStats{
		Total:    len(sensors),
		ByStatus: make(map[model.SensorStatus]int, len(model.SensorStatuses)),
		NoData:   len(sensors) == 0,
	}
	for _, s := range model.SensorStatuses {
		stats.ByStatus[s] = 0
	}
	if stats.NoData {
		return stats
	}

	var lowest decimal.Decimal
	for i, s := range sensors {
		stats.ByStatus[s.Status]++
		battery := model.ClampBattery(s.BatteryLevel)
		if battery < LowBatteryThreshold {
			stats.LowBattery++
		}
		level := decimal.NewFromFloat(battery)
		if i == 0 || level.LessThan(lowest) {
			lowest = level
		}
	}
	stats.MinBattery = decimal.NewNullDecimal(lowest)
	return stats
}
