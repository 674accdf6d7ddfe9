package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/go-viper/mapstructure/v2"
	"github.com/spf13/viper"

	"rockwatch/internal/logging"
	"rockwatch/internal/version"
)

// Config materialises application configuration.
type Config struct {
	App       AppConfig       `mapstructure:"app"`
	Logging   logging.Config  `mapstructure:"logging"`
	Backend   BackendConfig   `mapstructure:"backend"`
	Poller    PollerConfig    `mapstructure:"poller"`
	Simulator SimulatorConfig `mapstructure:"simulator"`
	Alerting  AlertingConfig  `mapstructure:"alerting"`
	Export    ExportConfig    `mapstructure:"export"`
	Server    ServerConfig    `mapstructure:"server"`
	Metrics   MetricsConfig   `mapstructure:"metrics"`
}

// AppConfig general metadata.
type AppConfig struct {
	Name        string `mapstructure:"name"`
	Environment string `mapstructure:"environment"`
}

// BackendConfig captures the alert/risk service connectivity.
type BackendConfig struct {
	BaseURL        string        `mapstructure:"base_url"`
	RequestTimeout time.Duration `mapstructure:"request_timeout"`
	UserAgent      string        `mapstructure:"user_agent"`
	Breaker        BreakerConfig `mapstructure:"breaker"`
}

// BreakerConfig tunes the backend circuit breaker.
type BreakerConfig struct {
	Enabled     bool          `mapstructure:"enabled"`
	MaxFailures uint32        `mapstructure:"max_failures"`
	OpenTimeout time.Duration `mapstructure:"open_timeout"`
	Interval    time.Duration `mapstructure:"interval"`
}

// PollerConfig governs per-view refresh cadence.
type PollerConfig struct {
	AlertsInterval  time.Duration `mapstructure:"alerts_interval"`
	RiskMapInterval time.Duration `mapstructure:"risk_map_interval"`
}

// SimulatorConfig tunes the telemetry simulator.
type SimulatorConfig struct {
	RefreshInterval time.Duration `mapstructure:"refresh_interval"`
	MaxDecay        float64       `mapstructure:"max_decay"`
	BatteryFloor    float64       `mapstructure:"battery_floor"`
	Seed            int64         `mapstructure:"seed"`
	Autostart       bool          `mapstructure:"autostart"`
}

// AlertingConfig defines operator notification.
type AlertingConfig struct {
	Enabled      bool           `mapstructure:"enabled"`
	DedupTTL     time.Duration  `mapstructure:"dedup_ttl"`
	DashboardURL string         `mapstructure:"dashboard_url"`
	Telegram     TelegramConfig `mapstructure:"telegram"`
}

// TelegramConfig 描述 Telegram 告警参数。
type TelegramConfig struct {
	Enabled  bool          `mapstructure:"enabled"`
	BotToken string        `mapstructure:"bot_token"`
	ChatID   string        `mapstructure:"chat_id"`
	APIBase  string        `mapstructure:"api_base"`
	Timeout  time.Duration `mapstructure:"timeout"`
}

// ExportConfig sets CLI export behaviour.
type ExportConfig struct {
	Dir string `mapstructure:"dir"`
}

// ServerConfig configures the dashboard API.
type ServerConfig struct {
	Addr            string        `mapstructure:"addr"`
	CORSOrigins     []string      `mapstructure:"cors_origins"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// MetricsConfig toggles Prometheus exposition.
type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Path    string `mapstructure:"path"`
}

// Load builds configuration from file, environment, and defaults.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetEnvPrefix("ROCKWATCH")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}

	if err := readConfig(v); err != nil {
		return nil, err
	}

	var cfg Config
	if err := v.Unmarshal(&cfg, decodeHook()); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func readConfig(v *viper.Viper) error {
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			return nil
		}
		return fmt.Errorf("read config: %w", err)
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.name", "rockwatch")
	v.SetDefault("app.environment", "development")

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
	v.SetDefault("logging.output", "stdout")

	v.SetDefault("backend.base_url", "http://localhost:8000")
	v.SetDefault("backend.request_timeout", "10s")
	v.SetDefault("backend.user_agent", version.UserAgent())
	v.SetDefault("backend.breaker.enabled", false)
	v.SetDefault("backend.breaker.max_failures", 5)
	v.SetDefault("backend.breaker.open_timeout", "60s")
	v.SetDefault("backend.breaker.interval", "0s")

	v.SetDefault("poller.alerts_interval", "30s")
	v.SetDefault("poller.risk_map_interval", "60s")

	v.SetDefault("simulator.refresh_interval", "0s")
	v.SetDefault("simulator.max_decay", 2.0)
	v.SetDefault("simulator.battery_floor", 20.0)
	v.SetDefault("simulator.seed", 0)
	v.SetDefault("simulator.autostart", false)

	v.SetDefault("alerting.enabled", false)
	v.SetDefault("alerting.dedup_ttl", "6h")
	v.SetDefault("alerting.telegram.enabled", false)
	v.SetDefault("alerting.telegram.api_base", "https://api.telegram.org")
	v.SetDefault("alerting.telegram.timeout", "10s")

	v.SetDefault("export.dir", ".")

	v.SetDefault("server.addr", ":8080")
	v.SetDefault("server.cors_origins", []string{"http://localhost:3000"})
	v.SetDefault("server.read_timeout", "15s")
	v.SetDefault("server.write_timeout", "15s")
	v.SetDefault("server.shutdown_timeout", "10s")

	v.SetDefault("metrics.enabled", true)
	v.SetDefault("metrics.path", "/metrics")
}

func decodeHook() viper.DecoderConfigOption {
	return func(dc *mapstructure.DecoderConfig) {
		dc.TagName = "mapstructure"
		dc.DecodeHook = mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
			mapstructure.StringToSliceHookFunc(","),
		)
	}
}

// Validate performs basic sanity checks on the configuration values.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Backend.BaseURL) == "" {
		return fmt.Errorf("backend.base_url must be set")
	}
	if c.Poller.AlertsInterval <= 0 {
		return fmt.Errorf("poller.alerts_interval must be greater than zero")
	}
	if c.Poller.RiskMapInterval <= 0 {
		return fmt.Errorf("poller.risk_map_interval must be greater than zero")
	}
	if c.Simulator.RefreshInterval < 0 {
		return fmt.Errorf("simulator.refresh_interval cannot be negative")
	}
	if c.Simulator.MaxDecay <= 0 {
		return fmt.Errorf("simulator.max_decay must be greater than zero")
	}
	if c.Simulator.BatteryFloor <= 0 || c.Simulator.BatteryFloor > 100 {
		return fmt.Errorf("simulator.battery_floor must be within (0,100]")
	}
	if c.Backend.Breaker.Enabled && c.Backend.Breaker.MaxFailures == 0 {
		return fmt.Errorf("backend.breaker.max_failures must be greater than zero")
	}
	if c.Alerting.Telegram.Enabled {
		if c.Alerting.Telegram.BotToken == "" {
			return fmt.Errorf("alerting.telegram.bot_token 必须配置")
		}
		if c.Alerting.Telegram.ChatID == "" {
			return fmt.Errorf("alerting.telegram.chat_id 必须配置")
		}
	}
	if c.Metrics.Enabled && !strings.HasPrefix(c.Metrics.Path, "/") {
		return fmt.Errorf("metrics.path must start with /")
	}
	return nil
}
