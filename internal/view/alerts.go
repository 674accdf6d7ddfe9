// Package view holds the per-view controllers. Each controller owns its poll loop and
// filter selection, and is torn down with Close when the operator leaves the view.
package view

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"rockwatch/internal/aggregate"
	"rockwatch/internal/alerting"
	"rockwatch/internal/classify"
	"rockwatch/internal/fetcher"
	"rockwatch/internal/filter"
	"rockwatch/internal/metrics"
	"rockwatch/internal/model"
	"rockwatch/internal/poller"
)

// DefaultAlertsInterval is the alerts view refresh cadence.
const DefaultAlertsInterval = 30 * time.Second

// AlertsOptions configure the alerts view.
type AlertsOptions struct {
	Interval time.Duration
	// Watcher, when set, sees every successfully polled snapshot.
	Watcher *alerting.Watcher
	// Publisher, when set, receives the rendered state after every poll.
	Publisher Publisher
}

// AlertItem is an alert annotated with its display tiers.
type AlertItem struct {
	model.Alert
	SeverityTier classify.Tier `json:"severity_tier"`
	StatusTier   classify.Tier `json:"status_tier"`
}

// AlertsState is what the alerts view renders.
type AlertsState struct {
	Filter    filter.Mode          `json:"filter"`
	Alerts    []AlertItem          `json:"alerts"`
	Stats     aggregate.AlertStats `json:"stats"`
	Loading   bool                 `json:"loading"`
	Error     string               `json:"error,omitempty"`
	UpdatedAt *time.Time           `json:"updated_at,omitempty"`
}

// AlertsView is the alerts view controller.
type AlertsView struct {
	poller *poller.Poller[[]model.Alert]
	logger zerolog.Logger

	mu   sync.Mutex
	mode filter.Mode
}

// OpenAlerts enters the alerts view and starts polling.
func OpenAlerts(ctx context.Context, src fetcher.AlertsFetcher, opts AlertsOptions, logger zerolog.Logger) *AlertsView {
	if opts.Interval <= 0 {
		opts.Interval = DefaultAlertsInterval
	}
	v := &AlertsView{
		logger: logger.With().Str("component", "alerts_view").Logger(),
		mode:   filter.ModeAll,
	}
	watcher, pub := opts.Watcher, opts.Publisher
	v.poller = poller.Start(ctx, src.FetchAlerts, poller.Options[[]model.Alert]{
		View:     "alerts",
		Interval: opts.Interval,
		Reason:   poller.ReasonAlerts,
		Size:     func(a []model.Alert) int { return len(a) },
		OnUpdate: func(s poller.Snapshot[[]model.Alert]) {
			if pub != nil {
				pub.Publish(TopicAlerts, renderAlerts(s, v.Filter()))
			}
			if s.Err != nil {
				return
			}
			metrics.SetHighRiskAlerts(aggregate.Alerts(s.Data).HighRisk)
			if watcher != nil {
				watcher.Observe(ctx, s.Data)
			}
		},
	}, logger)
	return v
}

// SetFilter selects the visible subset; the snapshot is untouched.
func (v *AlertsView) SetFilter(mode filter.Mode) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.mode = mode
}

// Filter returns the current selection.
func (v *AlertsView) Filter() filter.Mode {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.mode
}

// Refresh triggers an out-of-band poll.
func (v *AlertsView) Refresh() {
	v.poller.Refresh()
}

// State renders the view with the current filter.
func (v *AlertsView) State() AlertsState {
	return v.StateFor(v.Filter())
}

// StateFor renders the view with an explicit filter mode.
func (v *AlertsView) StateFor(mode filter.Mode) AlertsState {
	return renderAlerts(v.poller.Snapshot(), mode)
}

func renderAlerts(snap poller.Snapshot[[]model.Alert], mode filter.Mode) AlertsState {
	visible := filter.Apply(snap.Data, mode)
	items := make([]AlertItem, 0, len(visible))
	for _, a := range visible {
		items = append(items, AlertItem{
			Alert:        a,
			SeverityTier: classify.Severity(a.Severity),
			StatusTier:   classify.Status(a.Status),
		})
	}
	return AlertsState{
		Filter:    mode,
		Alerts:    items,
		Stats:     aggregate.Alerts(snap.Data),
		Loading:   snap.Loading,
		Error:     errorText(snap.Err),
		UpdatedAt: updatedAt(snap.Loaded, snap.UpdatedAt),
	}
}

// Close stops polling and update hooks. The last snapshot stays readable but is no
// longer refreshed.
func (v *AlertsView) Close() {
	v.poller.Stop()
	v.logger.Debug().Msg("alerts view closed")
}

func errorText(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}

func updatedAt(loaded bool, t time.Time) *time.Time {
	if !loaded {
		return nil
	}
	return &t
}
