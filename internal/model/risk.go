package model

import (
	"encoding/json"
	"math"
)

// RiskLevel is the discrete class of a risk value.
type RiskLevel string

const (
	RiskLow      RiskLevel = "LOW"
	RiskMedium   RiskLevel = "MEDIUM"
	RiskHigh     RiskLevel = "HIGH"
	RiskCritical RiskLevel = "CRITICAL"
)

// RiskLevels lists the closed level set in ascending order.
var RiskLevels = []RiskLevel{RiskLow, RiskMedium, RiskHigh, RiskCritical}

// Level thresholds, upper bounds exclusive.
const (
	MediumThreshold   = 0.25
	HighThreshold     = 0.50
	CriticalThreshold = 0.75
)

// LevelFor 是风险等级的唯一阈值表，所有派生 risk_level 的地方都必须调用它。
func LevelFor(value float64) RiskLevel {
	v := ClampRisk(value)
	switch {
	case v < MediumThreshold:
		return RiskLow
	case v < HighThreshold:
		return RiskMedium
	case v < CriticalThreshold:
		return RiskHigh
	default:
		return RiskCritical
	}
}

// ClampRisk bounds a risk value to [0,1]; NaN maps to 0.
func ClampRisk(value float64) float64 {
	if math.IsNaN(value) || value < 0 {
		return 0
	}
	if value > 1 {
		return 1
	}
	return value
}

// RiskZone is one circular zone on the risk map.
type RiskZone struct {
	Lat       float64   `json:"lat"`
	Lng       float64   `json:"lng"`
	RiskValue float64   `json:"risk_value"`
	RiskLevel RiskLevel `json:"risk_level"`
}

// NewRiskZone builds a zone with a clamped value and its derived level.
func NewRiskZone(lat, lng, value float64) RiskZone {
	v := ClampRisk(value)
	return RiskZone{Lat: lat, Lng: lng, RiskValue: v, RiskLevel: LevelFor(v)}
}

// UnmarshalJSON clamps risk_value and re-derives risk_level, ignoring the wire level.
func (z *RiskZone) UnmarshalJSON(data []byte) error {
	var raw struct {
		Lat       float64 `json:"lat"`
		Lng       float64 `json:"lng"`
		RiskValue float64 `json:"risk_value"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*z = NewRiskZone(raw.Lat, raw.Lng, raw.RiskValue)
	return nil
}

// Active is always true: every zone in a snapshot is current.
func (z RiskZone) Active() bool {
	return true
}

// HighRisk reports level HIGH or CRITICAL.
func (z RiskZone) HighRisk() bool {
	return z.RiskLevel == RiskHigh || z.RiskLevel == RiskCritical
}

// RiskMap is the risk-map snapshot returned by the backend.
type RiskMap struct {
	Zones     []RiskZone `json:"risk_zones"`
	Timestamp Timestamp  `json:"timestamp"`
}
