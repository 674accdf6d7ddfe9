// Package export serialises the risk-map snapshot for download and offline review.
package export

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"rockwatch/internal/model"
)

const fileDateLayout = "2006-01-02"

// RiskMapJSON renders zones as a 2-space indented JSON array in input order. Only the
// zone fields are written; an empty snapshot yields "[]".
func RiskMapJSON(zones []model.RiskZone) ([]byte, error) {
	if zones == nil {
		zones = []model.RiskZone{}
	}
	out, err := json.MarshalIndent(zones, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal risk map: %w", err)
	}
	return out, nil
}

// FileName returns risk_map_<YYYY-MM-DD>.json for the UTC date of now.
func FileName(now time.Time) string {
	return "risk_map_" + now.UTC().Format(fileDateLayout) + ".json"
}

// WriteRiskMapJSON writes the export into dir and returns the file path.
func WriteRiskMapJSON(dir string, zones []model.RiskZone, now time.Time) (string, error) {
	payload, err := RiskMapJSON(zones)
	if err != nil {
		return "", err
	}
	path := filepath.Join(dir, FileName(now))
	if err := ensureDir(path); err != nil {
		return "", err
	}
	if err := os.WriteFile(path, payload, 0o644); err != nil {
		return "", fmt.Errorf("write %s: %w", path, err)
	}
	return path, nil
}

func ensureDir(path string) error {
	dir := filepath.Dir(path)
	if dir == "." || dir == "" {
		return nil
	}
	return os.MkdirAll(dir, 0o755)
}
