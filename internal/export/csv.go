package export

import (
	"encoding/csv"
	"io"
	"os"

	"github.com/shopspring/decimal"

	"rockwatch/internal/model"
)

var csvHeader = []string{"lat", "lng", "risk_value", "risk_level"}

// WriteCSV writes one row per zone.
func WriteCSV(w io.Writer, zones []model.RiskZone) error {
	writer := csv.NewWriter(w)
	if err := writer.Write(csvHeader); err != nil {
		return err
	}
	for _, z := range zones {
		record := []string{
			decimal.NewFromFloat(z.Lat).String(),
			decimal.NewFromFloat(z.Lng).String(),
			decimal.NewFromFloat(z.RiskValue).String(),
			string(z.RiskLevel),
		}
		if err := writer.Write(record); err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}

// WriteCSVFile writes the CSV rendition to path, creating parent directories.
func WriteCSVFile(path string, zones []model.RiskZone) error {
	if err := ensureDir(path); err != nil {
		return err
	}
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()
	return WriteCSV(file, zones)
}
