package animate

import (
	"errors"
	"math"
	"time"

	"github.com/insight-studio/backend/internal/chart"
	"github.com/insight-studio/backend/internal/figure"
	"github.com/insight-studio/backend/internal/table"
)

// labelRevealFraction is the share of frames after which pie labels appear.
const labelRevealFraction = 0.8

// barOpacity reaches full opacity before the bars finish growing.
func barOpacity(p float64) float64 {
	return math.Min(1, p*1.2)
}

// valueRange pads the data extent by 10% and always includes zero.
func valueRange(lo, hi float64) *figure.Range {
	lo, hi = math.Min(lo, 0), math.Max(hi, 0)
	if lo == 0 && hi == 0 {
		hi = 1
	}
	return &figure.Range{Min: lo * 1.1, Max: hi * 1.1}
}

// spanRange pads the extent by 10% of its width.
func spanRange(lo, hi float64) *figure.Range {
	if lo == hi {
		return &figure.Range{Min: lo - 1, Max: hi + 1}
	}
	pad := (hi - lo) * 0.1
	return &figure.Range{Min: lo - pad, Max: hi + pad}
}

func extent(vals []float64) (lo, hi float64) {
	if len(vals) == 0 {
		return 0, 0
	}
	lo, hi = vals[0], vals[0]
	for _, v := range vals[1:] {
		lo, hi = math.Min(lo, v), math.Max(hi, v)
	}
	return lo, hi
}

// barAnimator grows a single bar series from zero.
type barAnimator struct {
	base   figure.Figure
	yRange *figure.Range
}

func newBarAnimator(t *table.Table, _ chart.Kind, cfg chart.Config) (animator, error) {
	cfg.Color = ""
	fig, err := chart.Render(t, chart.BasicBar, cfg)
	if err != nil {
		return nil, err
	}
	return &barAnimator{base: *fig, yRange: valueRange(extent(fig.Traces[0].Y))}, nil
}

func (a *barAnimator) frame(_, _ int, p float64) (*figure.Figure, error) {
	src := a.base.Traces[0]
	tr := src
	tr.X = append([]string(nil), src.X...)
	tr.Y = scaled(src.Y, p)
	tr.Opacity = barOpacity(p)
	tr.Marker.Opacity = tr.Opacity

	layout := a.base.Layout
	r := *a.yRange
	layout.YRange = &r
	return &figure.Figure{Traces: []figure.Trace{tr}, Layout: layout}, nil
}

func scaled(vals []float64, p float64) []float64 {
	out := make([]float64, len(vals))
	for i, v := range vals {
		out[i] = v * p
	}
	return out
}

// multiBarAnimator grows stacked or grouped series from zero. Series come from
// the kind's column list, then from a colour pivot.
type multiBarAnimator struct {
	grouped *chart.Grouped
	layout  figure.Layout
	yRange  *figure.Range
}

func newMultiBarAnimator(t *table.Table, kind chart.Kind, cfg chart.Config) (animator, error) {
	mode := figure.BarModeStack
	if kind == chart.GroupedBar {
		mode = figure.BarModeGroup
	}

	var (
		g   *chart.Grouped
		err error
	)
	switch cols := cfg.SeriesColumns(kind); {
	case len(cols) > 0:
		g, err = chart.SumBy(t, cfg.X, cols)
	case cfg.Color != "":
		g, err = chart.PivotBy(t, cfg.X, cfg.Y, cfg.Color)
	default:
		return newBarAnimator(t, kind, cfg)
	}
	if err != nil {
		return nil, err
	}

	layout := chart.NewLayout(cfg)
	layout.BarMode = mode
	layout.ShowLegend = true
	if len(cfg.SeriesColumns(kind)) > 0 && cfg.Y == "" {
		layout.YTitle = "Value"
	}

	top := g.Max()
	if mode == figure.BarModeStack {
		top = g.MaxStack()
	}
	lo := 0.0
	for _, row := range g.Values {
		l, _ := extent(row)
		lo = math.Min(lo, l)
	}
	return &multiBarAnimator{grouped: g, layout: layout, yRange: valueRange(lo, top)}, nil
}

func (a *multiBarAnimator) frame(_, _ int, p float64) (*figure.Figure, error) {
	traces := chart.BarTraces(a.grouped, p)
	for i := range traces {
		traces[i].Opacity = barOpacity(p)
		traces[i].Marker.Opacity = traces[i].Opacity
	}
	layout := a.layout
	r := *a.yRange
	layout.YRange = &r
	return &figure.Figure{Traces: traces, Layout: layout}, nil
}

// pointAnimator reveals line and scatter points left to right.
type pointAnimator struct {
	base   figure.Figure
	count  int
	xRange *figure.Range
	yRange *figure.Range
}

func newPointAnimator(t *table.Table, kind chart.Kind, cfg chart.Config) (animator, error) {
	fig, err := chart.Render(t, kind, cfg)
	if err != nil {
		return nil, err
	}
	tr := fig.Traces[0]
	if len(tr.Y) == 0 {
		return nil, errors.New("no points to animate")
	}

	a := &pointAnimator{base: *fig, count: len(tr.Y)}
	a.yRange = spanRange(extent(tr.Y))
	switch {
	case len(tr.XNum) > 0:
		a.xRange = spanRange(extent(tr.XNum))
	case len(tr.XTime) > 0:
		a.xRange = spanRange(extent(timesAsFloats(tr.XTime)))
	default:
		a.xRange = &figure.Range{Min: -0.5, Max: float64(len(tr.X)) - 0.5}
	}
	return a, nil
}

// VisiblePoints is the number of points shown at progress p, never below two
// and never above count.
func VisiblePoints(count int, p float64) int {
	visible := int(math.Floor(float64(count) * p))
	if visible < 2 {
		visible = 2
	}
	if visible > count {
		visible = count
	}
	return visible
}

func (a *pointAnimator) frame(_, _ int, p float64) (*figure.Figure, error) {
	src := a.base.Traces[0]
	visible := VisiblePoints(a.count, p)

	tr := src
	tr.Y = append([]float64(nil), src.Y[:visible]...)
	tr.X, tr.XNum, tr.XTime = nil, nil, nil
	switch {
	case len(src.XNum) > 0:
		tr.XNum = append([]float64(nil), src.XNum[:visible]...)
	case len(src.XTime) > 0:
		tr.XTime = append([]time.Time(nil), src.XTime[:visible]...)
	default:
		tr.X = append([]string(nil), src.X[:visible]...)
	}
	if tr.Mode == figure.ModeLines {
		tr.Mode = figure.ModeLinesMarkers
	}
	tr.Marker.Opacity = p

	layout := a.base.Layout
	xr, yr := *a.xRange, *a.yRange
	layout.XRange, layout.YRange = &xr, &yr
	return &figure.Figure{Traces: []figure.Trace{tr}, Layout: layout}, nil
}

// timesAsFloats converts to Unix nanoseconds, the unit used for time axis
// ranges.
func timesAsFloats(ts []time.Time) []float64 {
	out := make([]float64, len(ts))
	for i, t := range ts {
		out[i] = float64(t.UnixNano())
	}
	return out
}

// pieAnimator fills slices cumulatively and reveals labels near the end.
type pieAnimator struct {
	title      string
	labels     []string
	values     []float64
	cumulative []float64
}

func newPieAnimator(t *table.Table, _ chart.Kind, cfg chart.Config) (animator, error) {
	labelCol, valueCol := cfg.PieColumns()
	g, err := chart.SumBy(t, labelCol, []string{valueCol})
	if err != nil {
		return nil, err
	}

	values := make([]float64, len(g.Categories))
	cumulative := make([]float64, len(values))
	sum := 0.0
	for i, v := range g.Values[0] {
		values[i] = math.Max(v, 0)
		sum += values[i]
		cumulative[i] = sum
	}
	if sum == 0 {
		return nil, errors.New("pie values sum to zero")
	}
	return &pieAnimator{title: cfg.Title, labels: g.Categories, values: values, cumulative: cumulative}, nil
}

// PieSlice is the value shown for a slice with the given true and cumulative
// values at frame i of n.
func PieSlice(value, cumulative float64, i, n int) float64 {
	return math.Min(value, cumulative/float64(n)*float64(i+1))
}

// ShowPieLabels reports whether frame i of n falls in the last fifth.
func ShowPieLabels(i, n int) bool {
	return float64(i) >= labelRevealFraction*float64(n)
}

func (a *pieAnimator) frame(i, n int, _ float64) (*figure.Figure, error) {
	vals := make([]float64, len(a.values))
	for k, v := range a.values {
		vals[k] = PieSlice(v, a.cumulative[k], i, n)
	}
	return &figure.Figure{
		Traces: []figure.Trace{chart.PieTrace(a.labels, vals, ShowPieLabels(i, n))},
		Layout: figure.Layout{
			Title:      a.title,
			Template:   figure.TemplateWhite,
			ShowLegend: true,
		},
	}, nil
}
