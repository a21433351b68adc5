package raster

import (
	"io"
	"math"

	"github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"

	"github.com/insight-studio/backend/internal/figure"
)

// drawXY renders scatter traces (lines, markers or both) on a continuous
// x axis. Categorical x values are plotted at their index.
func drawXY(fig *figure.Figure, width, height int, w io.Writer) error {
	th := themeFor(fig.Layout.Template)

	var (
		series   []chart.Series
		xs, ys   []float64
		timeAxis bool
		labels   []string
	)
	for i, tr := range fig.Traces {
		n := len(tr.Y)
		if n == 0 {
			continue
		}
		style := xyStyle(tr, i)
		switch {
		case len(tr.XTime) > 0:
			timeAxis = true
			n = min(n, len(tr.XTime))
			series = append(series, chart.TimeSeries{
				Name: tr.Name, Style: style,
				XValues: tr.XTime[:n], YValues: tr.Y[:n],
			})
			for _, t := range tr.XTime[:n] {
				xs = append(xs, float64(t.UnixNano()))
			}
		case len(tr.XNum) > 0:
			n = min(n, len(tr.XNum))
			series = append(series, chart.ContinuousSeries{
				Name: tr.Name, Style: style,
				XValues: tr.XNum[:n], YValues: tr.Y[:n],
			})
			xs = append(xs, tr.XNum[:n]...)
		default:
			n = min(n, len(tr.X))
			idx := make([]float64, n)
			for k := range idx {
				idx[k] = float64(k)
			}
			if len(tr.X) > len(labels) {
				labels = tr.X
			}
			series = append(series, chart.ContinuousSeries{
				Name: tr.Name, Style: style,
				XValues: idx, YValues: tr.Y[:n],
			})
			xs = append(xs, idx...)
		}
		ys = append(ys, tr.Y[:n]...)
	}
	if len(series) == 0 {
		return drawBlank(fig, width, height, w)
	}

	xRange := fig.Layout.XRange
	if xRange == nil {
		xRange = padded(xs)
	}
	yRange := fig.Layout.YRange
	if yRange == nil {
		yRange = padded(ys)
	}

	xAxis := chart.XAxis{
		Name:  fig.Layout.XTitle,
		Style: th.axisStyle(),
		Range: &chart.ContinuousRange{Min: xRange.Min, Max: xRange.Max},
	}
	if timeAxis {
		xAxis.ValueFormatter = chart.TimeValueFormatter
	}
	if len(labels) > 0 {
		xAxis.Ticks = indexTicks(labels, xRange)
	}

	ch := chart.Chart{
		Title:      fig.Layout.Title,
		TitleStyle: th.titleStyle(),
		Width:      width,
		Height:     height,
		Background: th.backgroundStyle(),
		Canvas:     th.canvasStyle(),
		XAxis:      xAxis,
		YAxis: chart.YAxis{
			Name:  fig.Layout.YTitle,
			Style: th.axisStyle(),
			Range: &chart.ContinuousRange{Min: yRange.Min, Max: yRange.Max},
		},
		Series: series,
	}
	if fig.Layout.ShowLegend || len(series) > 1 {
		ch.Elements = []chart.Renderable{chart.Legend(&ch)}
	}
	return ch.Render(chart.PNG, w)
}

func xyStyle(tr figure.Trace, i int) chart.Style {
	col := traceColor(tr, i)
	style := chart.Style{StrokeWidth: chart.Disabled}

	if tr.Mode == figure.ModeLines || tr.Mode == figure.ModeLinesMarkers {
		width := tr.LineWidth
		if width <= 0 {
			width = 2
		}
		style.StrokeWidth = width
		style.StrokeColor = col.WithAlpha(alpha(tr.Opacity))
	}
	if tr.Mode == figure.ModeMarkers || tr.Mode == figure.ModeLinesMarkers || tr.Mode == "" {
		size := tr.Marker.Size
		if size <= 0 {
			size = 8
		}
		style.DotWidth = size / 2
		style.DotColor = markerColor(col, tr)
	}
	return style
}

func markerColor(col drawing.Color, tr figure.Trace) drawing.Color {
	return col.WithAlpha(alpha(tr.Marker.Opacity * opacityOrOne(tr.Opacity)))
}

func opacityOrOne(v float64) float64 {
	if v <= 0 {
		return 1
	}
	return v
}

// padded returns the extent of vals widened by 10%, never zero-width.
func padded(vals []float64) *figure.Range {
	if len(vals) == 0 {
		return &figure.Range{Min: 0, Max: 1}
	}
	lo, hi := vals[0], vals[0]
	for _, v := range vals[1:] {
		lo, hi = math.Min(lo, v), math.Max(hi, v)
	}
	if lo == hi {
		return &figure.Range{Min: lo - 1, Max: hi + 1}
	}
	pad := (hi - lo) * 0.1
	return &figure.Range{Min: lo - pad, Max: hi + pad}
}

// indexTicks labels integer positions with their categories, thinned to
// roughly a dozen labels.
func indexTicks(labels []string, r *figure.Range) []chart.Tick {
	step := max(len(labels)/12, 1)
	out := []chart.Tick{{Value: r.Min, Label: ""}}
	for i := 0; i < len(labels); i += step {
		out = append(out, chart.Tick{Value: float64(i), Label: labels[i]})
	}
	return append(out, chart.Tick{Value: r.Max, Label: ""})
}
