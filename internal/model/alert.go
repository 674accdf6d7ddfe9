package model

import "strings"

// Severity 告警严重程度（封闭枚举）。
type Severity string

const (
	SeverityLow      Severity = "LOW"
	SeverityMedium   Severity = "MEDIUM"
	SeverityHigh     Severity = "HIGH"
	SeverityCritical Severity = "CRITICAL"
)

// Severities lists the closed severity set in ascending order.
var Severities = []Severity{SeverityLow, SeverityMedium, SeverityHigh, SeverityCritical}

// Valid reports whether s belongs to the closed set.
func (s Severity) Valid() bool {
	switch s {
	case SeverityLow, SeverityMedium, SeverityHigh, SeverityCritical:
		return true
	}
	return false
}

// AlertStatus 告警处理状态。
type AlertStatus string

const (
	StatusActive       AlertStatus = "ACTIVE"
	StatusAcknowledged AlertStatus = "ACKNOWLEDGED"
	StatusResolved     AlertStatus = "RESOLVED"
)

// Valid reports whether s belongs to the closed set.
func (s AlertStatus) Valid() bool {
	switch s {
	case StatusActive, StatusAcknowledged, StatusResolved:
		return true
	}
	return false
}

// Alert is a single backend alert. Values are immutable once received.
type Alert struct {
	ID        int64       `json:"id"`
	Timestamp Timestamp   `json:"timestamp"`
	AlertType string      `json:"alert_type"`
	Severity  Severity    `json:"severity"`
	Status    AlertStatus `json:"status"`
	Message   string      `json:"message"`
	Location  *string     `json:"location"`
}

// Active reports status == ACTIVE.
func (a Alert) Active() bool {
	return a.Status == StatusActive
}

// HighRisk reports severity HIGH or CRITICAL.
func (a Alert) HighRisk() bool {
	return a.Severity == SeverityHigh || a.Severity == SeverityCritical
}

// HasLocation 仅判断是否带坐标信息，不解析内容。
func (a Alert) HasLocation() bool {
	return a.Location != nil && strings.TrimSpace(*a.Location) != ""
}
