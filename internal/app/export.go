package app

import (
	"context"
	"fmt"

	"rockwatch/internal/export"
	"rockwatch/internal/poller"
)

// Export fetches the risk map once and writes the dated JSON snapshot, plus optional
// CSV and PNG renditions.
func (a *App) Export(ctx context.Context, opts ExportOptions) error {
	dir := opts.Dir
	if dir == "" {
		dir = a.Config.Export.Dir
	}

	riskMap, err := a.newBackend().FetchRiskMap(ctx)
	if err != nil {
		return &poller.AcquisitionError{View: "risk_map", Reason: poller.ReasonRiskMap, Err: err}
	}

	path, err := export.WriteRiskMapJSON(dir, riskMap.Zones, a.Now())
	if err != nil {
		return err
	}
	a.Logger.Info().Str("path", path).Int("zones", len(riskMap.Zones)).Msg("risk map exported")
	fmt.Fprintln(a.Out, path)

	if opts.CSVPath != "" {
		if err := export.WriteCSVFile(opts.CSVPath, riskMap.Zones); err != nil {
			return fmt.Errorf("write csv: %w", err)
		}
		fmt.Fprintln(a.Out, opts.CSVPath)
	}

	if opts.PNGPath != "" {
		if err := export.WritePNGFile(opts.PNGPath, riskMap.Zones); err != nil {
			return fmt.Errorf("write png: %w", err)
		}
		fmt.Fprintln(a.Out, opts.PNGPath)
	}

	return nil
}
