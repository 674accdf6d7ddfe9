package metrics

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestRecordPoll(t *testing.T) {
	ok := pollTotal.WithLabelValues("test_view", "success")
	failed := pollTotal.WithLabelValues("test_view", "failure")
	beforeOK, beforeFailed := testutil.ToFloat64(ok), testutil.ToFloat64(failed)

	RecordPoll("test_view", nil, 10*time.Millisecond)
	RecordPoll("test_view", errors.New("boom"), 10*time.Millisecond)

	if testutil.ToFloat64(ok) != beforeOK+1 || testutil.ToFloat64(failed) != beforeFailed+1 {
		t.Fatal("poll 计数未按结果累加")
	}
}

func TestGauges(t *testing.T) {
	SetSimulatorRunning(true)
	if testutil.ToFloat64(simulatorRunning) != 1 {
		t.Fatal("running gauge 应为 1")
	}
	SetSimulatorRunning(false)
	if testutil.ToFloat64(simulatorRunning) != 0 {
		t.Fatal("running gauge 应为 0")
	}

	SetSensorBattery("DS-001", 84.5)
	if testutil.ToFloat64(sensorBattery.WithLabelValues("DS-001")) != 84.5 {
		t.Fatal("battery gauge 未更新")
	}
}

func TestMiddlewareUsesRoutePattern(t *testing.T) {
	r := chi.NewRouter()
	r.Use(Middleware)
	r.Get("/api/things/{id}", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})

	counter := httpRequestsTotal.WithLabelValues(http.MethodGet, "/api/things/{id}", "418")
	before := testutil.ToFloat64(counter)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/things/42", nil))

	if rec.Code != http.StatusTeapot {
		t.Fatalf("unexpected status %d", rec.Code)
	}
	if testutil.ToFloat64(counter) != before+1 {
		t.Fatal("请求应按路由模板计数")
	}
}
