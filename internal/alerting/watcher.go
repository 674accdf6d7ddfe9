// Package alerting notifies operators about newly observed high-risk alerts.
package alerting

import (
	"context"

	"github.com/rs/zerolog"

	"rockwatch/internal/classify"
	"rockwatch/internal/metrics"
	"rockwatch/internal/model"
)

// Watcher inspects each alert snapshot and notifies once per active HIGH/CRITICAL alert.
type Watcher struct {
	notifiers []Notifier
	dedup     *Deduper
	dashboard string
	logger    zerolog.Logger
}

// NewWatcher builds a watcher; with no notifiers Observe only logs.
func NewWatcher(dedup *Deduper, dashboard string, logger zerolog.Logger, notifiers ...Notifier) *Watcher {
	if dedup == nil {
		dedup = NewDeduper(0, 0, nil)
	}
	return &Watcher{
		notifiers: notifiers,
		dedup:     dedup,
		dashboard: dashboard,
		logger:    logger.With().Str("component", "alert_watcher").Logger(),
	}
}

// Observe returns how many alerts were notified. A failed delivery is forgotten by the
// deduper so the next snapshot retries it.
func (w *Watcher) Observe(ctx context.Context, alerts []model.Alert) int {
	sent := 0
	for _, a := range alerts {
		if !a.Active() || !a.HighRisk() {
			continue
		}
		if !w.dedup.ShouldProcess(a.ID) {
			continue
		}
		note := Notification{Alert: a, Tier: classify.Severity(a.Severity), Dashboard: w.dashboard}
		failed := false
		for _, n := range w.notifiers {
			err := n.Notify(ctx, note)
			metrics.RecordNotification(n.Channel(), err)
			if err != nil {
				failed = true
				w.logger.Error().Err(err).Str("channel", n.Channel()).Int64("alert_id", a.ID).Msg("notification failed")
			}
		}
		if failed {
			w.dedup.Forget(a.ID)
			continue
		}
		sent++
	}
	if sent > 0 {
		w.logger.Info().Int("sent", sent).Msg("high-risk alerts notified")
	}
	return sent
}
