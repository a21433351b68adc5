package raster

import (
	"io"
	"math"
	"strconv"

	"github.com/wcharczuk/go-chart/v2"

	"github.com/insight-studio/backend/internal/figure"
)

func drawBars(fig *figure.Figure, width, height int, w io.Writer) error {
	if len(fig.Traces) > 1 || fig.Layout.BarMode != "" {
		return drawBarPlot(fig, width, height, w)
	}

	tr := fig.Traces[0]
	n := min(len(tr.X), len(tr.Y))
	if n == 0 {
		return drawBlank(fig, width, height, w)
	}

	col := traceColor(tr, 0).WithAlpha(alpha(tr.Opacity))
	bars := make([]chart.Value, n)
	lo, hi := 0.0, 0.0
	for i := 0; i < n; i++ {
		bars[i] = chart.Value{
			Label: tr.X[i],
			Value: tr.Y[i],
			Style: chart.Style{FillColor: col, StrokeColor: col, StrokeWidth: 1},
		}
		lo, hi = math.Min(lo, tr.Y[i]), math.Max(hi, tr.Y[i])
	}

	yRange := fig.Layout.YRange
	if yRange == nil {
		if lo == 0 && hi == 0 {
			return drawBlank(fig, width, height, w)
		}
		yRange = &figure.Range{Min: lo * 1.1, Max: hi * 1.1}
	}

	th := themeFor(fig.Layout.Template)
	barWidth, spacing := barGeometry(width-140, n)
	bc := chart.BarChart{
		Title:      fig.Layout.Title,
		TitleStyle: th.titleStyle(),
		Width:      width,
		Height:     height,
		Background: th.backgroundStyle(),
		Canvas:     th.canvasStyle(),
		BarWidth:   barWidth,
		BarSpacing: spacing,
		XAxis:      th.axisStyle(),
		YAxis: chart.YAxis{
			Name:  fig.Layout.YTitle,
			Style: th.axisStyle(),
			Range: &chart.ContinuousRange{Min: yRange.Min, Max: yRange.Max},
		},
		UseBaseValue: lo < 0,
		BaseValue:    0,
		Bars:         bars,
	}
	return bc.Render(chart.PNG, w)
}

// barGeometry splits the available width between n bars.
func barGeometry(available, n int) (barWidth, spacing int) {
	slot := available / max(n, 1)
	spacing = max(slot/5, 1)
	barWidth = max(slot-spacing, 1)
	return barWidth, spacing
}

// Plot margins for the multi-series bar layout.
const (
	plotTop    = 70
	plotBottom = 70
	plotLeft   = 80
	plotRight  = 30
	legendW    = 170
)

// drawBarPlot lays out stacked or grouped bars directly on the renderer.
// go-chart's own stacked chart normalises every bar to full height, which
// would hide the growth of an animation.
func drawBarPlot(fig *figure.Figure, width, height int, w io.Writer) error {
	th := themeFor(fig.Layout.Template)
	cats := categories(fig.Traces)
	if len(cats) == 0 {
		return drawBlank(fig, width, height, w)
	}
	stacked := fig.Layout.BarMode != figure.BarModeGroup

	lo, hi := barExtent(fig.Traces, cats, stacked)
	yRange := fig.Layout.YRange
	if yRange == nil {
		if lo == 0 && hi == 0 {
			return drawBlank(fig, width, height, w)
		}
		yRange = &figure.Range{Min: lo * 1.1, Max: hi * 1.1}
	}
	if yRange.Max <= yRange.Min {
		return drawBlank(fig, width, height, w)
	}

	c, err := newCanvas(width, height, th.background)
	if err != nil {
		return err
	}

	right := width - plotRight
	if fig.Layout.ShowLegend {
		right -= legendW
	}
	plot := chart.Box{Top: plotTop, Left: plotLeft, Right: right, Bottom: height - plotBottom}
	c.fillRect(plot, th.canvas)

	yPix := func(v float64) int {
		frac := (v - yRange.Min) / (yRange.Max - yRange.Min)
		return plot.Bottom - int(math.Round(frac*float64(plot.Height())))
	}

	// Gridlines and y tick labels.
	c.setFont(10, th.text)
	for _, tick := range ticks(yRange.Min, yRange.Max, 5) {
		y := yPix(tick)
		c.line(plot.Left, y, plot.Right, y, th.grid, 1)
		c.textRight(formatTick(tick), plot.Left-8, y+4)
	}

	index := make(map[string]int, len(cats))
	for i, cat := range cats {
		index[cat] = i
	}
	slot := float64(plot.Width()) / float64(len(cats))
	zero := yPix(math.Max(yRange.Min, math.Min(0, yRange.Max)))

	if stacked {
		base := make([]float64, len(cats))
		barW := slot * 0.7
		for s, tr := range fig.Traces {
			col := traceColor(tr, s).WithAlpha(alpha(tr.Opacity))
			for i := 0; i < min(len(tr.X), len(tr.Y)); i++ {
				v := math.Max(tr.Y[i], 0)
				k := index[tr.X[i]]
				left := plot.Left + int(slot*float64(k)+(slot-barW)/2)
				c.fillRect(chart.Box{
					Left:   left,
					Right:  left + int(barW),
					Top:    yPix(base[k] + v),
					Bottom: yPix(base[k]),
				}, col)
				base[k] += v
			}
		}
	} else {
		inner := slot * 0.8
		barW := inner / float64(len(fig.Traces))
		for s, tr := range fig.Traces {
			col := traceColor(tr, s).WithAlpha(alpha(tr.Opacity))
			for i := 0; i < min(len(tr.X), len(tr.Y)); i++ {
				k := index[tr.X[i]]
				left := plot.Left + int(slot*float64(k)+(slot-inner)/2+barW*float64(s))
				top, bottom := yPix(tr.Y[i]), zero
				if top > bottom {
					top, bottom = bottom, top
				}
				c.fillRect(chart.Box{Left: left, Right: left + max(int(barW)-1, 1), Top: top, Bottom: bottom}, col)
			}
		}
	}

	// Axes.
	c.line(plot.Left, plot.Top, plot.Left, plot.Bottom, th.axis, 1)
	c.line(plot.Left, zero, plot.Right, zero, th.axis, 1)

	c.setFont(10, th.text)
	for i, cat := range cats {
		x := plot.Left + int(slot*float64(i)+slot/2)
		c.textCentered(cat, x, plot.Bottom+18)
	}

	c.setFont(12, th.text)
	if fig.Layout.XTitle != "" {
		c.textCentered(fig.Layout.XTitle, (plot.Left+plot.Right)/2, height-20)
	}
	if fig.Layout.YTitle != "" {
		c.text(fig.Layout.YTitle, 10, plot.Top-14)
	}
	if fig.Layout.Title != "" {
		c.setFont(18, th.text)
		c.textCentered(fig.Layout.Title, width/2, 36)
	}

	if fig.Layout.ShowLegend {
		c.setFont(11, th.text)
		x := plot.Right + 20
		for s, tr := range fig.Traces {
			y := plot.Top + s*22
			c.fillRect(chart.Box{Left: x, Right: x + 14, Top: y, Bottom: y + 14}, traceColor(tr, s))
			c.text(tr.Name, x+20, y+12)
		}
	}

	return c.save(w)
}

// categories returns the union of trace categories in first-seen order.
func categories(traces []figure.Trace) []string {
	seen := make(map[string]bool)
	var out []string
	for _, tr := range traces {
		for _, x := range tr.X {
			if !seen[x] {
				seen[x] = true
				out = append(out, x)
			}
		}
	}
	return out
}

func barExtent(traces []figure.Trace, cats []string, stacked bool) (lo, hi float64) {
	if !stacked {
		for _, tr := range traces {
			for _, v := range tr.Y {
				lo, hi = math.Min(lo, v), math.Max(hi, v)
			}
		}
		return lo, hi
	}
	totals := make(map[string]float64, len(cats))
	for _, tr := range traces {
		for i := 0; i < min(len(tr.X), len(tr.Y)); i++ {
			totals[tr.X[i]] += math.Max(tr.Y[i], 0)
		}
	}
	for _, v := range totals {
		hi = math.Max(hi, v)
	}
	return 0, hi
}

// ticks returns about n evenly spaced round values covering [lo, hi].
func ticks(lo, hi float64, n int) []float64 {
	if hi <= lo || n < 1 {
		return nil
	}
	raw := (hi - lo) / float64(n)
	mag := math.Pow(10, math.Floor(math.Log10(raw)))
	step := mag
	for _, m := range []float64{1, 2, 2.5, 5, 10} {
		if m*mag >= raw {
			step = m * mag
			break
		}
	}
	var out []float64
	for v := math.Ceil(lo/step) * step; v <= hi+step*1e-9; v += step {
		out = append(out, v)
	}
	return out
}

func formatTick(v float64) string {
	if math.Abs(v) < 1e-9 {
		return "0"
	}
	return strconv.FormatFloat(v, 'g', 6, 64)
}
