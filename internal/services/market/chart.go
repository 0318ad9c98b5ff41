package market

import (
	"bytes"
	"fmt"
	"time"

	"github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"

	"github.com/fernandokurniawan23/finassist/internal/models"
)

// RenderChartPNG renders a chart spec to PNG: closing price (blue solid),
// one line per overlay (amber/violet dashed), and a horizontal dashed line
// per retracement level. Returns raw PNG bytes.
func RenderChartPNG(spec *models.ChartSpec) ([]byte, error) {
	if spec == nil || len(spec.Bars) < 2 {
		return nil, fmt.Errorf("need at least 2 bars to render a chart")
	}

	xValues := make([]time.Time, len(spec.Bars))
	closeY := make([]float64, len(spec.Bars))
	for i, b := range spec.Bars {
		xValues[i] = b.Date
		closeY[i] = b.Close
	}

	series := []chart.Series{
		chart.TimeSeries{
			Name: spec.Ticker,
			Style: chart.Style{
				StrokeColor: drawing.ColorFromHex("2563eb"), // blue-600
				StrokeWidth: 2.0,
			},
			XValues: xValues,
			YValues: closeY,
		},
	}

	overlayColors := []string{"f59e0b", "8b5cf6", "10b981"} // amber-500, violet-500, emerald-500
	for i, ov := range spec.Overlays {
		if len(ov.Points) < 2 {
			continue
		}
		ox := make([]time.Time, len(ov.Points))
		oy := make([]float64, len(ov.Points))
		for j, p := range ov.Points {
			ox[j] = p.Date
			oy[j] = p.Value
		}
		series = append(series, chart.TimeSeries{
			Name: ov.Name,
			Style: chart.Style{
				StrokeColor:     drawing.ColorFromHex(overlayColors[i%len(overlayColors)]),
				StrokeWidth:     1.5,
				StrokeDashArray: []float64{4.0, 3.0},
			},
			XValues: ox,
			YValues: oy,
		})
	}

	for _, lvl := range spec.Levels {
		series = append(series, chart.TimeSeries{
			Name: fmt.Sprintf("Fib %.1f%%", lvl.Ratio*100),
			Style: chart.Style{
				StrokeColor:     drawing.ColorFromHex("9ca3af"), // gray-400
				StrokeWidth:     1.0,
				StrokeDashArray: []float64{2.0, 4.0},
			},
			XValues: []time.Time{xValues[0], xValues[len(xValues)-1]},
			YValues: []float64{lvl.Price, lvl.Price},
		})
	}

	title := spec.Title
	if title == "" {
		title = spec.Ticker
	}

	graph := chart.Chart{
		Title:  title,
		Width:  900,
		Height: 450,
		Background: chart.Style{
			Padding: chart.Box{Top: 40, Left: 10, Right: 20, Bottom: 10},
		},
		XAxis: chart.XAxis{
			TickPosition: chart.TickPositionBetweenTicks,
			ValueFormatter: func(v interface{}) string {
				if t, ok := v.(float64); ok {
					return chart.TimeFromFloat64(t).Format("02 Jan")
				}
				return ""
			},
		},
		YAxis: chart.YAxis{
			ValueFormatter: func(v interface{}) string {
				if f, ok := v.(float64); ok {
					return fmt.Sprintf("%.2f", f)
				}
				return ""
			},
		},
		Series: series,
	}

	graph.Elements = []chart.Renderable{
		chart.LegendLeft(&graph),
	}

	var buf bytes.Buffer
	if err := graph.Render(chart.PNG, &buf); err != nil {
		return nil, fmt.Errorf("chart render failed: %w", err)
	}

	return buf.Bytes(), nil
}
