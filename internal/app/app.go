package app

import (
	"context"
	"errors"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"rockwatch/internal/alerting"
	"rockwatch/internal/config"
	"rockwatch/internal/fetcher"
	"rockwatch/internal/simulator"
	"rockwatch/internal/stream"
	"rockwatch/internal/view"
	"rockwatch/internal/web"
)

// dedupMax caps the alert ids remembered by the notification deduper.
const dedupMax = 10000

// App aggregates configuration and shared dependencies for the CLI commands.
type App struct {
	Config *config.Config
	Logger zerolog.Logger
	// Out receives table output of the one-shot commands.
	Out io.Writer
	// Now is the clock used for export file names and the sensor roster.
	Now func() time.Time
}

// NewApp constructs a new application handle.
func NewApp(cfg *config.Config, logger zerolog.Logger) *App {
	return &App{
		Config: cfg,
		Logger: logger.With().Str("component", "app").Logger(),
		Out:    os.Stdout,
		Now:    time.Now,
	}
}

func (a *App) newBackend() fetcher.Backend {
	cfg := a.Config.Backend
	return fetcher.NewClient(fetcher.Options{
		BaseURL:   cfg.BaseURL,
		Timeout:   cfg.RequestTimeout,
		UserAgent: cfg.UserAgent,
		Breaker: fetcher.BreakerOptions{
			Enabled:     cfg.Breaker.Enabled,
			MaxFailures: cfg.Breaker.MaxFailures,
			OpenTimeout: cfg.Breaker.OpenTimeout,
			Interval:    cfg.Breaker.Interval,
		},
	}, a.Logger)
}

func (a *App) newNotifiers() []alerting.Notifier {
	notifiers := []alerting.Notifier{alerting.NewLogNotifier(a.Logger)}
	if a.Config.Alerting.Telegram.Enabled {
		cfg := a.Config.Alerting.Telegram
		notifiers = append(notifiers, alerting.NewTelegramNotifier(cfg.BotToken, cfg.ChatID, cfg.APIBase, cfg.Timeout, a.Logger))
	}
	return notifiers
}

// newWatcher returns nil when alerting is disabled.
func (a *App) newWatcher() *alerting.Watcher {
	if !a.Config.Alerting.Enabled {
		return nil
	}
	dedup := alerting.NewDeduper(a.Config.Alerting.DedupTTL, dedupMax, a.Now)
	return alerting.NewWatcher(dedup, a.Config.Alerting.DashboardURL, a.Logger, a.newNotifiers()...)
}

func (a *App) newSimulator(seed int64) *simulator.Simulator {
	opts := simulator.Options{
		MaxDecay: a.Config.Simulator.MaxDecay,
		Floor:    a.Config.Simulator.BatteryFloor,
		Now:      a.Now,
	}
	if seed != 0 {
		opts.Rand = simulator.NewRand(seed)
	}
	return simulator.New(simulator.DefaultRoster(a.Now()), opts, a.Logger)
}

func (a *App) openViews(ctx context.Context, backend fetcher.Backend, hub *stream.Hub) web.Views {
	return web.Views{
		Alerts: view.OpenAlerts(ctx, backend, view.AlertsOptions{
			Interval:  a.Config.Poller.AlertsInterval,
			Watcher:   a.newWatcher(),
			Publisher: hub,
		}, a.Logger),
		RiskMap: view.OpenRiskMap(ctx, backend, view.RiskMapOptions{
			Interval:  a.Config.Poller.RiskMapInterval,
			Now:       a.Now,
			Publisher: hub,
		}, a.Logger),
		Sensors: view.OpenSensors(ctx, a.newSimulator(a.Config.Simulator.Seed), view.SensorOptions{
			AutoRefresh: a.Config.Simulator.RefreshInterval,
			Autostart:   a.Config.Simulator.Autostart,
			Publisher:   hub,
		}, a.Logger),
		Stream: hub,
	}
}

func closeViews(views web.Views) {
	views.Alerts.Close()
	views.RiskMap.Close()
	views.Sensors.Close()
}

func (a *App) newServer(views web.Views) *web.Server {
	cfg := a.Config.Server
	return web.NewServer(web.Options{
		Addr:            cfg.Addr,
		CORSOrigins:     cfg.CORSOrigins,
		ReadTimeout:     cfg.ReadTimeout,
		WriteTimeout:    cfg.WriteTimeout,
		ShutdownTimeout: cfg.ShutdownTimeout,
		MetricsEnabled:  a.Config.Metrics.Enabled,
		MetricsPath:     a.Config.Metrics.Path,
	}, views, a.Logger)
}

// Run executes the long-running dashboard service.
func (a *App) Run(ctx context.Context) error {
	ctx, cancel := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	hub := stream.NewHub(stream.Options{AllowedOrigins: a.Config.Server.CORSOrigins}, a.Logger)
	go hub.Run(ctx)

	views := a.openViews(ctx, a.newBackend(), hub)
	defer closeViews(views)

	a.Logger.Info().
		Str("backend", a.Config.Backend.BaseURL).
		Dur("alerts_interval", a.Config.Poller.AlertsInterval).
		Dur("risk_map_interval", a.Config.Poller.RiskMapInterval).
		Msg("starting monitoring service")

	err := a.newServer(views).Run(ctx)
	if err != nil && !errors.Is(err, context.Canceled) {
		a.Logger.Error().Err(err).Msg("service terminated with error")
		return err
	}

	a.Logger.Info().Msg("monitoring service stopped")
	return nil
}

// ShowOptions configure the show command.
type ShowOptions struct {
	Filter string
}

// ExportOptions configure the export command.
type ExportOptions struct {
	Dir     string
	CSVPath string
	PNGPath string
}

// SimulateOptions configure the simulate command.
type SimulateOptions struct {
	Ticks int
	Seed  int64
}
