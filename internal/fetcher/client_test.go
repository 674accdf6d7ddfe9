package fetcher

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"rockwatch/internal/model"
)

func noopLogger() zerolog.Logger {
	return zerolog.Nop()
}

func TestFetchAlertsSuccess(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/alerts" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if r.Header.Get("User-Agent") != "test-agent" {
			t.Errorf("User-Agent 未设置")
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"alerts":[
			{"id":1,"timestamp":"2025-01-02T03:04:05.123456","alert_type":"ROCKFALL_RISK","severity":"HIGH","status":"ACTIVE","message":"High rockfall risk detected","location":"Zone A"},
			{"id":2,"timestamp":"2025-01-02T03:00:00Z","alert_type":"SENSOR","severity":"EXTREME","status":"RESOLVED","message":"x","location":null}
		]}`))
	}))
	defer srv.Close()

	c := NewClient(Options{BaseURL: srv.URL + "/", Timeout: time.Second, UserAgent: "test-agent"}, noopLogger())
	alerts, err := c.FetchAlerts(context.Background())
	if err != nil {
		t.Fatalf("成功响应不应报错: %v", err)
	}
	if len(alerts) != 2 {
		t.Fatalf("期望 2 条告警, 实际 %d", len(alerts))
	}
	if !alerts[0].HighRisk() || !alerts[0].Active() || !alerts[0].HasLocation() {
		t.Fatalf("unexpected first alert %+v", alerts[0])
	}
	if alerts[1].Severity != "EXTREME" || alerts[1].HasLocation() {
		t.Fatalf("枚举外取值应原样保留: %+v", alerts[1])
	}
	if alerts[0].Timestamp.Time.Hour() != 3 || alerts[0].Timestamp.Time.Location() != time.UTC {
		t.Fatalf("naive 时间戳应按 UTC 解析: %v", alerts[0].Timestamp)
	}
}

func TestFetchAlertsEmptyPayload(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	alerts, err := NewClient(Options{BaseURL: srv.URL}, noopLogger()).FetchAlerts(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if alerts == nil || len(alerts) != 0 {
		t.Fatalf("空负载应返回空切片, 实际 %v", alerts)
	}
}

func TestFetchRiskMapDerivesLevels(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/risk-map" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		_, _ = w.Write([]byte(`{"risk_zones":[
			{"lat":-23.55,"lng":-46.63,"risk_value":0.72,"risk_level":"HIGH"},
			{"lat":-23.56,"lng":-46.64,"risk_value":0.45,"risk_level":"HIGH"},
			{"lat":-23.57,"lng":-46.65,"risk_value":1.4}
		],"timestamp":"2025-01-02T03:04:05.000001"}`))
	}))
	defer srv.Close()

	rm, err := NewClient(Options{BaseURL: srv.URL}, noopLogger()).FetchRiskMap(context.Background())
	if err != nil {
		t.Fatalf("成功响应不应报错: %v", err)
	}
	want := []model.RiskLevel{model.RiskHigh, model.RiskMedium, model.RiskCritical}
	for i, z := range rm.Zones {
		if z.RiskLevel != want[i] {
			t.Fatalf("zone %d level = %s, want %s", i, z.RiskLevel, want[i])
		}
	}
	if rm.Zones[2].RiskValue != 1 {
		t.Fatalf("risk_value 应被截断到 1, 实际 %v", rm.Zones[2].RiskValue)
	}
	if rm.Timestamp.IsZero() {
		t.Fatal("timestamp 未解析")
	}
}

func TestFetchSurfacesErrorBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"error":"model not loaded"}`))
	}))
	defer srv.Close()

	_, err := NewClient(Options{BaseURL: srv.URL}, noopLogger()).FetchRiskMap(context.Background())
	var httpErr *HTTPError
	if !errors.As(err, &httpErr) {
		t.Fatalf("应返回 HTTPError, 实际 %v", err)
	}
	if httpErr.Status != 500 || httpErr.Message != "model not loaded" {
		t.Fatalf("unexpected error %+v", httpErr)
	}
}

func TestFetchMalformedJSON(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"alerts": [`))
	}))
	defer srv.Close()

	if _, err := NewClient(Options{BaseURL: srv.URL}, noopLogger()).FetchAlerts(context.Background()); err == nil {
		t.Fatal("畸形 JSON 应返回错误")
	}
}

func TestBreakerOpens(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	c := NewClient(Options{
		BaseURL: srv.URL,
		Breaker: BreakerOptions{Enabled: true, MaxFailures: 2, OpenTimeout: time.Minute},
	}, noopLogger())

	for i := 0; i < 2; i++ {
		if _, err := c.FetchAlerts(context.Background()); err == nil || errors.Is(err, ErrBreakerOpen) {
			t.Fatalf("第 %d 次应为后端错误, 实际 %v", i+1, err)
		}
	}
	_, err := c.FetchAlerts(context.Background())
	if !errors.Is(err, ErrBreakerOpen) {
		t.Fatalf("连续失败后应熔断, 实际 %v", err)
	}
	if hits.Load() != 2 {
		t.Fatalf("熔断后不应再请求后端, hits=%d", hits.Load())
	}
}
