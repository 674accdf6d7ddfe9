package fetcher

import (
	"context"

	"rockwatch/internal/model"
)

// AlertsFetcher retrieves the full alert collection.
type AlertsFetcher interface {
	FetchAlerts(ctx context.Context) ([]model.Alert, error)
}

// RiskMapFetcher retrieves the current risk map.
type RiskMapFetcher interface {
	FetchRiskMap(ctx context.Context) (model.RiskMap, error)
}

// Backend is the alert/risk-computation service boundary.
type Backend interface {
	AlertsFetcher
	RiskMapFetcher
}
