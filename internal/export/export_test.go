package export

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"rockwatch/internal/model"
)

func TestRiskMapJSON(t *testing.T) {
	out, err := RiskMapJSON([]model.RiskZone{model.NewRiskZone(-23.55, -46.63, 0.8)})
	if err != nil {
		t.Fatal(err)
	}
	want := `[
  {
    "lat": -23.55,
    "lng": -46.63,
    "risk_value": 0.8,
    "risk_level": "CRITICAL"
  }
]`
	if string(out) != want {
		t.Fatalf("unexpected export:\n%s", out)
	}
}

func TestRiskMapJSONEmpty(t *testing.T) {
	for _, zones := range [][]model.RiskZone{nil, {}} {
		out, err := RiskMapJSON(zones)
		if err != nil {
			t.Fatal(err)
		}
		if string(out) != "[]" {
			t.Fatalf("空快照应导出 [], 实际 %s", out)
		}
	}
}

func TestRiskMapJSONDeterministic(t *testing.T) {
	zones := []model.RiskZone{model.NewRiskZone(1, 2, 0.3), model.NewRiskZone(3, 4, 0.6)}
	a, _ := RiskMapJSON(zones)
	b, _ := RiskMapJSON(zones)
	if !bytes.Equal(a, b) {
		t.Fatal("相同输入应得到相同输出")
	}
	if strings.Contains(string(a), "color") || strings.Contains(string(a), "radius") {
		t.Fatal("导出不应包含展示字段")
	}
}

func TestFileName(t *testing.T) {
	loc := time.FixedZone("BRT", -3*3600)
	now := time.Date(2025, 6, 30, 23, 30, 0, 0, loc)
	if got := FileName(now); got != "risk_map_2025-07-01.json" {
		t.Fatalf("文件名应使用 UTC 日期, 实际 %s", got)
	}
}

func TestWriteRiskMapJSON(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "exports")
	now := time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)
	path, err := WriteRiskMapJSON(dir, []model.RiskZone{model.NewRiskZone(0, 0, 0.1)}, now)
	if err != nil {
		t.Fatal(err)
	}
	if filepath.Base(path) != "risk_map_2025-01-02.json" {
		t.Fatalf("unexpected path %s", path)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), `"risk_level": "LOW"`) {
		t.Fatalf("unexpected content %s", data)
	}
}

func TestWriteCSV(t *testing.T) {
	var buf bytes.Buffer
	zones := []model.RiskZone{model.NewRiskZone(-23.5505, -46.6333, 0.45)}
	if err := WriteCSV(&buf, zones); err != nil {
		t.Fatal(err)
	}
	want := "lat,lng,risk_value,risk_level\n-23.5505,-46.6333,0.45,MEDIUM\n"
	if buf.String() != want {
		t.Fatalf("unexpected csv %q", buf.String())
	}
}

func TestWritePNG(t *testing.T) {
	if err := WritePNG(&bytes.Buffer{}, nil); !errors.Is(err, ErrNoZones) {
		t.Fatalf("空输入应返回 ErrNoZones, 实际 %v", err)
	}

	var buf bytes.Buffer
	zones := []model.RiskZone{model.NewRiskZone(0, 0, 0.1), model.NewRiskZone(0, 0, 0.9)}
	if err := WritePNG(&buf, zones); err != nil {
		t.Fatalf("渲染失败: %v", err)
	}
	if !bytes.HasPrefix(buf.Bytes(), []byte("\x89PNG")) {
		t.Fatal("输出不是 PNG")
	}
}
