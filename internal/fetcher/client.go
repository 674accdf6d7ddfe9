package fetcher

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/sony/gobreaker"

	"rockwatch/internal/metrics"
	"rockwatch/internal/model"
)

const (
	alertsPath  = "/api/alerts"
	riskMapPath = "/api/risk-map"

	maxBodyBytes = 8 << 20
)

// ErrBreakerOpen is returned without contacting the backend while the breaker is open.
var ErrBreakerOpen = errors.New("backend circuit breaker open")

// BreakerOptions configure the optional circuit breaker.
type BreakerOptions struct {
	Enabled     bool
	MaxFailures uint32
	OpenTimeout time.Duration
	Interval    time.Duration
}

// Options parameterise the backend client.
type Options struct {
	BaseURL   string
	Timeout   time.Duration
	UserAgent string
	Breaker   BreakerOptions
	// HTTPClient overrides the default client; Timeout is ignored when set.
	HTTPClient *http.Client
}

// Client talks to the backend over HTTP.
type Client struct {
	opts    Options
	logger  zerolog.Logger
	client  *http.Client
	baseURL string
	breaker *gobreaker.CircuitBreaker
}

// NewClient constructs a backend client.
func NewClient(opts Options, logger zerolog.Logger) *Client {
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	baseURL := strings.TrimRight(opts.BaseURL, "/")
	if baseURL == "" {
		baseURL = "http://localhost:8000"
	}

	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: timeout}
	}

	c := &Client{
		opts:    opts,
		logger:  logger.With().Str("component", "backend_client").Logger(),
		client:  httpClient,
		baseURL: baseURL,
	}
	if opts.Breaker.Enabled {
		c.breaker = newBreaker("backend", opts.Breaker, c.logger)
	}
	return c
}

func newBreaker(name string, opts BreakerOptions, logger zerolog.Logger) *gobreaker.CircuitBreaker {
	fails := opts.MaxFailures
	if fails == 0 {
		fails = 5
	}
	return gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:     name,
		Interval: opts.Interval,
		Timeout:  opts.OpenTimeout,
		ReadyToTrip: func(c gobreaker.Counts) bool {
			return c.ConsecutiveFailures >= fails
		},
		// 调用方取消不算后端故障
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, context.Canceled)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			metrics.SetBreakerState(name, int(to))
			logger.Warn().Str("breaker", name).Str("from", from.String()).Str("to", to.String()).Msg("breaker state changed")
		},
	})
}

// FetchAlerts retrieves GET /api/alerts.
func (c *Client) FetchAlerts(ctx context.Context) ([]model.Alert, error) {
	var payload struct {
		Alerts []model.Alert `json:"alerts"`
	}
	if err := c.getJSON(ctx, alertsPath, &payload); err != nil {
		return nil, err
	}
	if payload.Alerts == nil {
		payload.Alerts = []model.Alert{}
	}
	return payload.Alerts, nil
}

// FetchRiskMap retrieves GET /api/risk-map. Levels are re-derived from risk values;
// a disagreeing transmitted level is dropped.
func (c *Client) FetchRiskMap(ctx context.Context) (model.RiskMap, error) {
	var payload struct {
		Zones []struct {
			Lat       float64         `json:"lat"`
			Lng       float64         `json:"lng"`
			RiskValue float64         `json:"risk_value"`
			RiskLevel model.RiskLevel `json:"risk_level"`
		} `json:"risk_zones"`
		Timestamp model.Timestamp `json:"timestamp"`
	}
	if err := c.getJSON(ctx, riskMapPath, &payload); err != nil {
		return model.RiskMap{}, err
	}

	out := model.RiskMap{Zones: make([]model.RiskZone, 0, len(payload.Zones)), Timestamp: payload.Timestamp}
	for _, raw := range payload.Zones {
		zone := model.NewRiskZone(raw.Lat, raw.Lng, raw.RiskValue)
		if raw.RiskLevel != "" && raw.RiskLevel != zone.RiskLevel {
			c.logger.Debug().
				Float64("risk_value", raw.RiskValue).
				Str("wire_level", string(raw.RiskLevel)).
				Str("derived_level", string(zone.RiskLevel)).
				Msg("discarding transmitted risk level")
		}
		out.Zones = append(out.Zones, zone)
	}
	return out, nil
}

func (c *Client) getJSON(ctx context.Context, path string, out any) error {
	if c.breaker == nil {
		return c.do(ctx, path, out)
	}
	_, err := c.breaker.Execute(func() (any, error) {
		return nil, c.do(ctx, path, out)
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return fmt.Errorf("%w: %s", ErrBreakerOpen, path)
	}
	return err
}

func (c *Client) do(ctx context.Context, path string, out any) error {
	endpoint := c.baseURL + path
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	if ua := strings.TrimSpace(c.opts.UserAgent); ua != "" {
		req.Header.Set("User-Agent", ua)
	} else {
		req.Header.Set("User-Agent", "rockwatch/1.0")
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("get %s: %w", path, err)
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return parseHTTPError(resp.StatusCode, payload)
	}

	if err := json.Unmarshal(payload, out); err != nil {
		return fmt.Errorf("decode %s: %w", path, err)
	}
	c.logger.Debug().Str("path", path).Int("bytes", len(payload)).Msg("backend response decoded")
	return nil
}

type errorResponse struct {
	Error  string `json:"error"`
	Detail string `json:"detail"`
}

// HTTPError is a non-2xx backend response.
type HTTPError struct {
	Status  int
	Message string
}

func (e *HTTPError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("backend error (%d)", e.Status)
	}
	return fmt.Sprintf("backend error (%d): %s", e.Status, e.Message)
}

func parseHTTPError(status int, payload []byte) error {
	var apiErr errorResponse
	if err := json.Unmarshal(payload, &apiErr); err == nil {
		if apiErr.Error != "" {
			return &HTTPError{Status: status, Message: apiErr.Error}
		}
		if apiErr.Detail != "" {
			return &HTTPError{Status: status, Message: apiErr.Detail}
		}
	}
	if text := strings.TrimSpace(string(payload)); text != "" && len(text) <= 512 {
		return &HTTPError{Status: status, Message: text}
	}
	return &HTTPError{Status: status}
}

var _ Backend = (*Client)(nil)
