package export

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	chart "github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"

	"rockwatch/internal/model"
	"rockwatch/internal/visual"
)

const (
	barWidth   = 40
	barSpacing = 10
	minWidth   = 640
)

// ErrNoZones is returned when there is nothing to chart.
var ErrNoZones = errors.New("no risk zones to render")

// WritePNG renders a bar chart of risk values, one bar per zone, colored by level.
func WritePNG(w io.Writer, zones []model.RiskZone) error {
	if len(zones) == 0 {
		return ErrNoZones
	}

	bars := make([]chart.Value, 0, len(zones))
	for i, z := range zones {
		color := drawing.ColorFromHex(strings.TrimPrefix(string(visual.Color(z.RiskLevel)), "#"))
		bars = append(bars, chart.Value{
			Label: fmt.Sprintf("#%d", i+1),
			Value: z.RiskValue,
			Style: chart.Style{
				FillColor:   color,
				StrokeColor: color,
			},
		})
	}

	width := len(zones)*(barWidth+barSpacing) + 120
	if width < minWidth {
		width = minWidth
	}

	graph := chart.BarChart{
		Title:      "Risk value by zone",
		Width:      width,
		Height:     480,
		BarWidth:   barWidth,
		BarSpacing: barSpacing,
		YAxis: chart.YAxis{
			Name: "Risk value",
			Range: &chart.ContinuousRange{
				Min: 0,
				Max: 1,
			},
			ValueFormatter: func(v interface{}) string {
				return chart.FloatValueFormatterWithFormat(v, "%.2f")
			},
		},
		Bars: bars,
	}
	return graph.Render(chart.PNG, w)
}

// WritePNGFile writes the PNG rendition to path, creating parent directories.
func WritePNGFile(path string, zones []model.RiskZone) error {
	if len(zones) == 0 {
		return ErrNoZones
	}
	if err := ensureDir(path); err != nil {
		return err
	}
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()
	return WritePNG(file, zones)
}
