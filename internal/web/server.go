// Package web serves the dashboard JSON API over the view controllers.
package web

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"rockwatch/internal/filter"
	"rockwatch/internal/metrics"
	"rockwatch/internal/stream"
	"rockwatch/internal/view"
)

// Options configure the HTTP server.
type Options struct {
	Addr            string
	CORSOrigins     []string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
	MetricsEnabled  bool
	MetricsPath     string
}

// Views are the live view controllers the API renders.
type Views struct {
	Alerts  *view.AlertsView
	RiskMap *view.RiskMapView
	Sensors *view.SensorView
	// Stream, when set, serves live state pushes on /api/stream.
	Stream *stream.Hub
}

// Server is the dashboard API.
type Server struct {
	opts   Options
	views  Views
	logger zerolog.Logger
}

// NewServer wires the API to the given views.
func NewServer(opts Options, views Views, logger zerolog.Logger) *Server {
	if opts.Addr == "" {
		opts.Addr = ":8080"
	}
	if opts.MetricsPath == "" {
		opts.MetricsPath = "/metrics"
	}
	if opts.ShutdownTimeout <= 0 {
		opts.ShutdownTimeout = 10 * time.Second
	}
	return &Server{opts: opts, views: views, logger: logger.With().Str("component", "web").Logger()}
}

// Routes builds the router.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.Recoverer)
	r.Use(logMiddleware(s.logger))
	r.Use(corsMiddleware(s.opts.CORSOrigins))
	if s.opts.MetricsEnabled {
		r.Use(metrics.Middleware)
		r.Handle(s.opts.MetricsPath, metrics.Handler())
	}

	r.Get("/healthz", s.handleHealthz)

	r.Route("/api/alerts", func(r chi.Router) {
		r.Get("/", s.handleAlerts)
		r.Post("/refresh", s.handleAlertsRefresh)
	})

	r.Route("/api/risk-map", func(r chi.Router) {
		r.Get("/", s.handleRiskMap)
		r.Post("/refresh", s.handleRiskMapRefresh)
		r.Get("/export", s.handleRiskMapExport)
	})

	r.Route("/api/sensors", func(r chi.Router) {
		r.Get("/", s.handleSensors)
		r.Post("/refresh", s.handleSensorsRefresh)
		r.Post("/simulator/start", s.handleSimulatorStart)
		r.Post("/simulator/stop", s.handleSimulatorStop)
	})

	r.Get("/api/stream", s.handleStream)

	return r
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:         s.opts.Addr,
		Handler:      s.Routes(),
		ReadTimeout:  s.opts.ReadTimeout,
		WriteTimeout: s.opts.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info().Str("addr", s.opts.Addr).Msg("dashboard api listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err, ok := <-errCh:
		if ok {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.opts.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown http server: %w", err)
	}
	s.logger.Info().Msg("dashboard api stopped")
	return nil
}

func (s *Server) handleHealthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// selectedMode applies ?filter= to the view selection when present.
func selectedMode(r *http.Request, current filter.Mode, set func(filter.Mode)) filter.Mode {
	raw, ok := r.URL.Query()["filter"]
	if !ok || len(raw) == 0 {
		return current
	}
	mode := filter.ParseMode(raw[0])
	set(mode)
	return mode
}

func (s *Server) handleAlerts(w http.ResponseWriter, r *http.Request) {
	v := s.views.Alerts
	if v == nil {
		writeError(w, http.StatusServiceUnavailable, "alerts view not available")
		return
	}
	mode := selectedMode(r, v.Filter(), v.SetFilter)
	writeJSON(w, http.StatusOK, v.StateFor(mode))
}

func (s *Server) handleAlertsRefresh(w http.ResponseWriter, _ *http.Request) {
	if s.views.Alerts == nil {
		writeError(w, http.StatusServiceUnavailable, "alerts view not available")
		return
	}
	s.views.Alerts.Refresh()
	writeJSON(w, http.StatusAccepted, map[string]string{"status": "refresh requested"})
}

func (s *Server) handleRiskMap(w http.ResponseWriter, r *http.Request) {
	v := s.views.RiskMap
	if v == nil {
		writeError(w, http.StatusServiceUnavailable, "risk map view not available")
		return
	}
	mode := selectedMode(r, v.Filter(), v.SetFilter)
	writeJSON(w, http.StatusOK, v.StateFor(mode))
}

func (s *Server) handleRiskMapRefresh(w http.ResponseWriter, _ *http.Request) {
	if s.views.RiskMap == nil {
		writeError(w, http.StatusServiceUnavailable, "risk map view not available")
		return
	}
	s.views.RiskMap.Refresh()
	writeJSON(w, http.StatusAccepted, map[string]string{"status": "refresh requested"})
}

func (s *Server) handleRiskMapExport(w http.ResponseWriter, _ *http.Request) {
	if s.views.RiskMap == nil {
		writeError(w, http.StatusServiceUnavailable, "risk map view not available")
		return
	}
	payload, name, err := s.views.RiskMap.Export()
	if err != nil {
		s.logger.Error().Err(err).Msg("risk map export failed")
		writeError(w, http.StatusInternalServerError, "export failed")
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(payload)
}

func (s *Server) handleSensors(w http.ResponseWriter, _ *http.Request) {
	if s.views.Sensors == nil {
		writeError(w, http.StatusServiceUnavailable, "sensor view not available")
		return
	}
	writeJSON(w, http.StatusOK, s.views.Sensors.State())
}

func (s *Server) handleSensorsRefresh(w http.ResponseWriter, _ *http.Request) {
	if s.views.Sensors == nil {
		writeError(w, http.StatusServiceUnavailable, "sensor view not available")
		return
	}
	s.views.Sensors.Refresh()
	writeJSON(w, http.StatusOK, s.views.Sensors.State())
}

func (s *Server) handleSimulatorStart(w http.ResponseWriter, _ *http.Request) {
	if s.views.Sensors == nil {
		writeError(w, http.StatusServiceUnavailable, "sensor view not available")
		return
	}
	s.views.Sensors.StartSimulator()
	writeJSON(w, http.StatusOK, s.views.Sensors.State())
}

func (s *Server) handleSimulatorStop(w http.ResponseWriter, _ *http.Request) {
	if s.views.Sensors == nil {
		writeError(w, http.StatusServiceUnavailable, "sensor view not available")
		return
	}
	s.views.Sensors.StopSimulator()
	writeJSON(w, http.StatusOK, s.views.Sensors.State())
}

// handleStream upgrades to a websocket; each view's current state is sent first.
func (s *Server) handleStream(w http.ResponseWriter, r *http.Request) {
	if s.views.Stream == nil {
		writeError(w, http.StatusServiceUnavailable, "stream not available")
		return
	}
	// Upgrade writes its own error response on failure.
	if err := s.views.Stream.Serve(w, r, s.currentStates); err != nil {
		s.logger.Debug().Err(err).Msg("stream upgrade failed")
	}
}

func (s *Server) currentStates() []stream.Message {
	var states []stream.Message
	if s.views.Alerts != nil {
		states = append(states, stream.Message{Type: view.TopicAlerts, Payload: s.views.Alerts.State()})
	}
	if s.views.RiskMap != nil {
		states = append(states, stream.Message{Type: view.TopicRiskMap, Payload: s.views.RiskMap.State()})
	}
	if s.views.Sensors != nil {
		states = append(states, stream.Message{Type: view.TopicSensors, Payload: s.views.Sensors.State()})
	}
	return states
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	_ = enc.Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
