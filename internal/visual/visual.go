// Package visual encodes continuous risk values as map marker attributes.
package visual

import (
	"math"

	"github.com/shopspring/decimal"

	"rockwatch/internal/classify"
	"rockwatch/internal/model"
)

// ColorToken is a CSS hex color.
type ColorToken string

const (
	ColorLow      ColorToken = "#28a745"
	ColorMedium   ColorToken = "#ffc107"
	ColorHigh     ColorToken = "#fd7e14"
	ColorCritical ColorToken = "#dc3545"
	ColorNeutral  ColorToken = "#6c757d"
)

// Marker radius constants, in meters.
const (
	MinRadius = 20.0
	Scale     = 100.0
)

var hundred = decimal.NewFromInt(100)

// Color maps a risk level to its fixed color; unmatched levels are neutral.
func Color(level model.RiskLevel) ColorToken {
	switch level {
	case model.RiskLow:
		return ColorLow
	case model.RiskMedium:
		return ColorMedium
	case model.RiskHigh:
		return ColorHigh
	case model.RiskCritical:
		return ColorCritical
	default:
		return ColorNeutral
	}
}

// Radius returns max(MinRadius, value*Scale). NaN and negative values give MinRadius.
func Radius(value float64) float64 {
	if math.IsNaN(value) {
		return MinRadius
	}
	return math.Max(MinRadius, value*Scale)
}

// Tier maps a risk level onto the shared severity tiers.
func Tier(level model.RiskLevel) classify.Tier {
	return classify.Classify(classify.KindSeverity, string(level))
}

// Percent formats a risk value as "NN.N%".
func Percent(value float64) string {
	return decimal.NewFromFloat(value).Mul(hundred).StringFixed(1) + "%"
}

// Marker is a risk zone annotated for rendering.
type Marker struct {
	model.RiskZone
	Color   ColorToken    `json:"color"`
	Radius  float64       `json:"radius"`
	Tier    classify.Tier `json:"tier"`
	Percent string        `json:"risk_percent"`
}

// Encode annotates a single zone.
func Encode(zone model.RiskZone) Marker {
	return Marker{
		RiskZone: zone,
		Color:    Color(zone.RiskLevel),
		Radius:   Radius(zone.RiskValue),
		Tier:     Tier(zone.RiskLevel),
		Percent:  Percent(zone.RiskValue),
	}
}

// EncodeAll annotates zones in order.
func EncodeAll(zones []model.RiskZone) []Marker {
	markers := make([]Marker, 0, len(zones))
	for _, z := range zones {
		markers = append(markers, Encode(z))
	}
	return markers
}
