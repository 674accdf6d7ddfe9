// Package classify maps closed domain enumerations onto display tiers.
package classify

import "rockwatch/internal/model"

// Tier is a visual category understood by the dashboard front end.
type Tier string

const (
	TierSuccess   Tier = "success"
	TierWarning   Tier = "warning"
	TierDanger    Tier = "danger"
	TierDark      Tier = "dark"
	TierSecondary Tier = "secondary"
)

// Kind selects a classification table.
type Kind string

const (
	KindSeverity      Kind = "severity"
	KindStatus        Kind = "status"
	KindSensorStatus  Kind = "sensor_status"
	KindBatteryBucket Kind = "battery_bucket"
)

// Battery buckets.
const (
	BatteryHigh   = "high"
	BatteryMedium = "medium"
	BatteryLow    = "low"
)

var tables = map[Kind]map[string]Tier{
	KindSeverity: {
		string(model.SeverityLow):      TierSuccess,
		string(model.SeverityMedium):   TierWarning,
		string(model.SeverityHigh):     TierDanger,
		string(model.SeverityCritical): TierDark,
	},
	KindStatus: {
		string(model.StatusActive):       TierDanger,
		string(model.StatusAcknowledged): TierWarning,
		string(model.StatusResolved):     TierSuccess,
	},
	KindSensorStatus: {
		string(model.SensorActive):      TierSuccess,
		string(model.SensorWarning):     TierWarning,
		string(model.SensorMaintenance): TierDanger,
		string(model.SensorOffline):     TierSecondary,
	},
	KindBatteryBucket: {
		BatteryHigh:   TierSuccess,
		BatteryMedium: TierWarning,
		BatteryLow:    TierDanger,
	},
}

// Classify 对任意输入都返回结果：未知 kind 或未知取值一律落到 secondary。
func Classify(kind Kind, value string) Tier {
	if tier, ok := tables[kind][value]; ok {
		return tier
	}
	return TierSecondary
}

// Severity classifies an alert severity.
func Severity(s model.Severity) Tier {
	return Classify(KindSeverity, string(s))
}

// Status classifies an alert status.
func Status(s model.AlertStatus) Tier {
	return Classify(KindStatus, string(s))
}

// SensorStatus classifies a sensor status.
func SensorStatus(s model.SensorStatus) Tier {
	return Classify(KindSensorStatus, string(s))
}

// BatteryBucket buckets a battery level: >70 high, >30 medium, else low.
func BatteryBucket(level float64) string {
	switch {
	case level > 70:
		return BatteryHigh
	case level > 30:
		return BatteryMedium
	default:
		return BatteryLow
	}
}

// Battery classifies a battery level through its bucket.
func Battery(level float64) Tier {
	return Classify(KindBatteryBucket, BatteryBucket(level))
}
