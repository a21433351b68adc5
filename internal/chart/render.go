package chart

import (
	"errors"
	"fmt"

	"github.com/insight-studio/backend/internal/figure"
	"github.com/insight-studio/backend/internal/table"
)

type renderFunc func(t *table.Table, cfg Config) (*figure.Figure, error)

var renderers = map[Kind]renderFunc{
	BasicBar:   renderBasicBar,
	StackedBar: renderColoredBar(figure.BarModeStack),
	GroupedBar: renderColoredBar(figure.BarModeGroup),
	Line:       renderLine,
	Scatter:    renderScatter,
	Pie:        renderPie,
}

func init() {
	for _, k := range Kinds() {
		if renderers[k] == nil {
			panic(fmt.Sprintf("chart: no renderer registered for %q", k))
		}
	}
	if len(renderers) != len(Kinds()) {
		panic("chart: renderer registered for unknown kind")
	}
}

// Render builds a figure for kind from the table. Failures are reported as
// *RenderError (or ErrUnsupportedKind) with a nil figure.
func Render(t *table.Table, kind Kind, cfg Config) (*figure.Figure, error) {
	r, ok := renderers[kind]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedKind, kind)
	}
	if t == nil {
		return nil, &RenderError{Kind: kind, Err: errors.New("no dataset loaded")}
	}
	fig, err := r(t, cfg)
	if err != nil {
		return nil, &RenderError{Kind: kind, Err: err}
	}
	return fig, nil
}

// RenderTag parses tag and renders it.
func RenderTag(t *table.Table, tag string, cfg Config) (*figure.Figure, error) {
	kind, err := ParseKind(tag)
	if err != nil {
		return nil, err
	}
	return Render(t, kind, cfg)
}

// NewLayout returns the default layout for an x/y chart.
func NewLayout(cfg Config) figure.Layout {
	return figure.Layout{
		Title:    cfg.Title,
		XTitle:   AxisTitle(cfg.X),
		YTitle:   AxisTitle(cfg.Y),
		Template: figure.TemplateWhite,
	}
}

func renderBasicBar(t *table.Table, cfg Config) (*figure.Figure, error) {
	tr := figure.Trace{
		Type:    figure.TraceBar,
		Name:    cfg.Y,
		Color:   figure.PaletteColor(0),
		Opacity: 1,
		Marker:  figure.Marker{Opacity: 1},
	}
	if err := SetX(&tr, t, cfg.X, false); err != nil {
		return nil, err
	}
	ys, err := Numeric(t, cfg.Y, "y")
	if err != nil {
		return nil, err
	}
	tr.Y = ys
	return &figure.Figure{Traces: []figure.Trace{tr}, Layout: NewLayout(cfg)}, nil
}

// renderColoredBar degrades to the basic bar chart when no colour column is
// configured.
func renderColoredBar(mode string) renderFunc {
	return func(t *table.Table, cfg Config) (*figure.Figure, error) {
		if cfg.Color == "" {
			return renderBasicBar(t, cfg)
		}
		g, err := PivotBy(t, cfg.X, cfg.Y, cfg.Color)
		if err != nil {
			return nil, err
		}
		layout := NewLayout(cfg)
		layout.BarMode = mode
		layout.ShowLegend = true
		return &figure.Figure{Traces: BarTraces(g, 1), Layout: layout}, nil
	}
}

// BarTraces emits one coloured bar trace per series of g, values scaled by
// scale.
func BarTraces(g *Grouped, scale float64) []figure.Trace {
	traces := make([]figure.Trace, len(g.Series))
	for s, name := range g.Series {
		ys := make([]float64, len(g.Categories))
		for c, v := range g.Values[s] {
			ys[c] = v * scale
		}
		traces[s] = figure.Trace{
			Type:    figure.TraceBar,
			Name:    name,
			X:       append([]string(nil), g.Categories...),
			Y:       ys,
			Color:   figure.PaletteColor(s),
			Opacity: 1,
			Marker:  figure.Marker{Opacity: 1},
		}
	}
	return traces
}

func renderLine(t *table.Table, cfg Config) (*figure.Figure, error) {
	tr, err := xyTrace(t, cfg)
	if err != nil {
		return nil, err
	}
	tr.Mode = figure.ModeLines
	tr.LineWidth = 2
	return &figure.Figure{Traces: []figure.Trace{tr}, Layout: NewLayout(cfg)}, nil
}

func renderScatter(t *table.Table, cfg Config) (*figure.Figure, error) {
	tr, err := xyTrace(t, cfg)
	if err != nil {
		return nil, err
	}
	tr.Mode = figure.ModeMarkers
	return &figure.Figure{Traces: []figure.Trace{tr}, Layout: NewLayout(cfg)}, nil
}

func xyTrace(t *table.Table, cfg Config) (figure.Trace, error) {
	tr := figure.Trace{
		Type:    figure.TraceScatter,
		Name:    cfg.Y,
		Color:   figure.PaletteColor(0),
		Opacity: 1,
		Marker:  figure.Marker{Size: 8, Opacity: 1},
	}
	if err := SetX(&tr, t, cfg.X, true); err != nil {
		return tr, err
	}
	ys, err := Numeric(t, cfg.Y, "y")
	if err != nil {
		return tr, err
	}
	tr.Y = ys
	return tr, nil
}

func renderPie(t *table.Table, cfg Config) (*figure.Figure, error) {
	labels, values := cfg.PieColumns()
	g, err := SumBy(t, labels, []string{values})
	if err != nil {
		return nil, err
	}
	return &figure.Figure{
		Traces: []figure.Trace{PieTrace(g.Categories, g.Values[0], true)},
		Layout: figure.Layout{
			Title:      cfg.Title,
			Template:   figure.TemplateWhite,
			ShowLegend: true,
		},
	}, nil
}

// PieTrace builds a pie trace; labels are drawn on slices only when
// showLabels is set.
func PieTrace(labels []string, values []float64, showLabels bool) figure.Trace {
	colors := make([]string, len(labels))
	for i := range labels {
		colors[i] = figure.PaletteColor(i)
	}
	tr := figure.Trace{
		Type:     figure.TracePie,
		Labels:   append([]string(nil), labels...),
		Values:   append([]float64(nil), values...),
		Colors:   colors,
		Opacity:  1,
		TextInfo: "none",
	}
	if showLabels {
		tr.TextInfo = "label+percent"
	}
	return tr
}
