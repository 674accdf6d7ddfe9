// Package filter narrows entity collections to the operator-selected view.
package filter

import "strings"

// Mode is an operator-selected filter.
type Mode string

const (
	ModeAll      Mode = "ALL"
	ModeActive   Mode = "ACTIVE"
	ModeHighRisk Mode = "HIGH_RISK"
)

// Modes lists the supported modes.
var Modes = []Mode{ModeAll, ModeActive, ModeHighRisk}

// Entity is anything the filter modes can be evaluated against.
type Entity interface {
	Active() bool
	HighRisk() bool
}

// ParseMode normalises operator input; unknown values become ALL.
func ParseMode(value string) Mode {
	normalized := strings.ToUpper(strings.TrimSpace(value))
	normalized = strings.ReplaceAll(normalized, "-", "_")
	switch Mode(normalized) {
	case ModeActive:
		return ModeActive
	case ModeHighRisk:
		return ModeHighRisk
	default:
		return ModeAll
	}
}

// Apply returns the entities matching mode in input order. The input slice is never
// modified; the result never aliases it.
func Apply[T Entity](entities []T, mode Mode) []T {
	out := make([]T, 0, len(entities))
	for _, e := range entities {
		if Match(e, mode) {
			out = append(out, e)
		}
	}
	return out
}

// Match evaluates a single entity. Unknown modes match everything.
func Match(e Entity, mode Mode) bool {
	switch mode {
	case ModeActive:
		return e.Active()
	case ModeHighRisk:
		return e.HighRisk()
	default:
		return true
	}
}
