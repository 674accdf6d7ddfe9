package app

import (
	"context"
	"fmt"
	"strings"
	"text/tabwriter"
	"time"

	"rockwatch/internal/aggregate"
	"rockwatch/internal/classify"
	"rockwatch/internal/filter"
	"rockwatch/internal/poller"
)

// Show fetches the alerts once and prints them as a table.
func (a *App) Show(ctx context.Context, opts ShowOptions) error {
	alerts, err := a.newBackend().FetchAlerts(ctx)
	if err != nil {
		return &poller.AcquisitionError{View: "alerts", Reason: poller.ReasonAlerts, Err: err}
	}

	mode := filter.ParseMode(opts.Filter)
	visible := filter.Apply(alerts, mode)
	stats := aggregate.Alerts(alerts)

	fmt.Fprintf(a.Out, "filter: %s  total: %d  active: %d  high risk: %d\n", mode, stats.Total, stats.Active, stats.HighRisk)
	if len(visible) == 0 {
		fmt.Fprintln(a.Out, "no alerts found")
		return nil
	}

	writer := tabwriter.NewWriter(a.Out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(writer, "ID\tTime (UTC)\tType\tSeverity\tStatus\tLocation\tMessage")

	for _, alert := range visible {
		ts := "-"
		if !alert.Timestamp.IsZero() {
			ts = alert.Timestamp.UTC().Format(time.RFC3339)
		}
		location := "-"
		if alert.HasLocation() {
			location = sanitizeInline(*alert.Location)
		}
		fmt.Fprintf(
			writer,
			"%d\t%s\t%s\t%s (%s)\t%s\t%s\t%s\n",
			alert.ID,
			ts,
			alert.AlertType,
			alert.Severity,
			classify.Severity(alert.Severity),
			alert.Status,
			location,
			sanitizeInline(alert.Message),
		)
	}

	return writer.Flush()
}

func sanitizeInline(v string) string {
	cleaned := strings.ReplaceAll(v, "\n", " ")
	cleaned = strings.ReplaceAll(cleaned, "\r", " ")
	cleaned = strings.ReplaceAll(cleaned, "\t", " ")
	return cleaned
}
