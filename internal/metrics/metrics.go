// Package metrics exposes Prometheus instrumentation for the monitoring engine.
package metrics

import (
	"bufio"
	"errors"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "rockwatch"

var (
	// HTTP metrics
	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request duration in seconds",
			Buckets:   []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5},
		},
		[]string{"method", "path", "status"},
	)

	httpRequestsInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_in_flight",
			Help:      "Number of HTTP requests currently being served",
		},
	)

	// Poller metrics
	pollTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "poller",
			Name:      "polls_total",
			Help:      "Total number of completed polls by outcome",
		},
		[]string{"view", "result"},
	)

	pollDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "poller",
			Name:      "poll_duration_seconds",
			Help:      "Duration of backend polls in seconds",
			Buckets:   []float64{.01, .05, .1, .25, .5, 1, 2.5, 5, 10, 30},
		},
		[]string{"view"},
	)

	pollDiscarded = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "poller",
			Name:      "discarded_total",
			Help:      "Poll results that completed after the view was torn down",
		},
		[]string{"view"},
	)

	snapshotItems = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "snapshot",
			Name:      "items",
			Help:      "Number of entities in the held snapshot",
		},
		[]string{"view"},
	)

	// Domain metrics
	highRiskAlerts = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "alerts",
			Name:      "high_risk_count",
			Help:      "Number of HIGH/CRITICAL alerts in the current snapshot",
		},
	)

	maxRisk = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "risk_map",
			Name:      "max_risk_value",
			Help:      "Maximum risk value in the current risk map",
		},
	)

	simulatorTicks = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "simulator",
			Name:      "ticks_total",
			Help:      "Total number of applied simulator ticks",
		},
	)

	simulatorRunning = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "simulator",
			Name:      "running",
			Help:      "1 when the telemetry simulator is running",
		},
	)

	sensorBattery = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "sensor",
			Name:      "battery_level",
			Help:      "Simulated battery level per sensor (percent)",
		},
		[]string{"sensor"},
	)

	notificationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "alerting",
			Name:      "notifications_total",
			Help:      "Operator notifications by channel and outcome",
		},
		[]string{"channel", "result"},
	)

	breakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "backend",
			Name:      "breaker_state",
			Help:      "Circuit breaker state (0 closed, 1 half-open, 2 open)",
		},
		[]string{"name"},
	)
)

// responseWriter wraps http.ResponseWriter to capture status code
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

// Hijack is required for websocket upgrades behind the middleware.
func (rw *responseWriter) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	h, ok := rw.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, errors.New("response writer does not support hijacking")
	}
	rw.statusCode = http.StatusSwitchingProtocols
	return h.Hijack()
}

func (rw *responseWriter) Unwrap() http.ResponseWriter {
	return rw.ResponseWriter
}

// Middleware records request count and latency labelled by chi route pattern.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		httpRequestsInFlight.Inc()
		defer httpRequestsInFlight.Dec()

		wrapped := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next.ServeHTTP(wrapped, r)

		routePattern := "unknown"
		if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
			routePattern = rctx.RoutePattern()
		}
		status := strconv.Itoa(wrapped.statusCode)

		httpRequestsTotal.WithLabelValues(r.Method, routePattern, status).Inc()
		httpRequestDuration.WithLabelValues(r.Method, routePattern, status).Observe(time.Since(start).Seconds())
	})
}

// Handler returns the Prometheus metrics HTTP handler
func Handler() http.Handler {
	return promhttp.Handler()
}

// RecordPoll records one completed poll.
func RecordPoll(view string, err error, duration time.Duration) {
	result := "success"
	if err != nil {
		result = "failure"
	}
	pollTotal.WithLabelValues(view, result).Inc()
	pollDuration.WithLabelValues(view).Observe(duration.Seconds())
}

// RecordDiscarded counts a poll result dropped after teardown.
func RecordDiscarded(view string) {
	pollDiscarded.WithLabelValues(view).Inc()
}

// SetSnapshotItems sets the held snapshot size for a view.
func SetSnapshotItems(view string, count int) {
	snapshotItems.WithLabelValues(view).Set(float64(count))
}

// SetHighRiskAlerts sets the high-risk alert gauge.
func SetHighRiskAlerts(count int) {
	highRiskAlerts.Set(float64(count))
}

// SetMaxRisk sets the max risk gauge.
func SetMaxRisk(value float64) {
	maxRisk.Set(value)
}

// RecordSimulatorTick counts an applied simulator tick.
func RecordSimulatorTick() {
	simulatorTicks.Inc()
}

// SetSimulatorRunning sets the simulator state gauge.
func SetSimulatorRunning(running bool) {
	if running {
		simulatorRunning.Set(1)
		return
	}
	simulatorRunning.Set(0)
}

// SetSensorBattery sets a sensor's battery gauge.
func SetSensorBattery(sensor string, level float64) {
	sensorBattery.WithLabelValues(sensor).Set(level)
}

// RecordNotification counts a notification attempt.
func RecordNotification(channel string, err error) {
	result := "sent"
	if err != nil {
		result = "failed"
	}
	notificationsTotal.WithLabelValues(channel, result).Inc()
}

// SetBreakerState records a breaker transition.
func SetBreakerState(name string, state int) {
	breakerState.WithLabelValues(name).Set(float64(state))
}
