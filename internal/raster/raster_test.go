package raster

import (
	"bytes"
	"image/png"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/insight-studio/backend/internal/figure"
)

func rasterize(t *testing.T, r *Rasterizer, fig *figure.Figure) (int, int) {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, r.Rasterize(fig, &buf))
	img, err := png.Decode(&buf)
	require.NoError(t, err)
	b := img.Bounds()
	return b.Dx(), b.Dy()
}

func TestRasterize_FigureKinds(t *testing.T) {
	r := New(640, 360)
	day := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name string
		fig  *figure.Figure
	}{
		{
			name: "single bar",
			fig: &figure.Figure{
				Traces: []figure.Trace{{Type: figure.TraceBar, X: []string{"a", "b", "c"}, Y: []float64{3, 1, 2}, Opacity: 1}},
				Layout: figure.Layout{Title: "Bars"},
			},
		},
		{
			name: "zero bars with fixed range",
			fig: &figure.Figure{
				Traces: []figure.Trace{{Type: figure.TraceBar, X: []string{"a", "b"}, Y: []float64{0, 0}}},
				Layout: figure.Layout{YRange: &figure.Range{Min: 0, Max: 10}},
			},
		},
		{
			name: "zero bars without range",
			fig: &figure.Figure{
				Traces: []figure.Trace{{Type: figure.TraceBar, X: []string{"a"}, Y: []float64{0}}},
			},
		},
		{
			name: "stacked",
			fig: &figure.Figure{
				Traces: []figure.Trace{
					{Type: figure.TraceBar, Name: "x", X: []string{"a", "b"}, Y: []float64{1, 2}, Opacity: 1},
					{Type: figure.TraceBar, Name: "y", X: []string{"a", "b"}, Y: []float64{3, 0}, Opacity: 0.5},
				},
				Layout: figure.Layout{BarMode: figure.BarModeStack, ShowLegend: true, Template: figure.TemplateDark},
			},
		},
		{
			name: "grouped",
			fig: &figure.Figure{
				Traces: []figure.Trace{
					{Type: figure.TraceBar, Name: "x", X: []string{"a", "b"}, Y: []float64{1, -2}},
					{Type: figure.TraceBar, Name: "y", X: []string{"a", "b"}, Y: []float64{3, 4}},
				},
				Layout: figure.Layout{BarMode: figure.BarModeGroup},
			},
		},
		{
			name: "line over time",
			fig: &figure.Figure{
				Traces: []figure.Trace{{
					Type: figure.TraceScatter, Mode: figure.ModeLines,
					XTime: []time.Time{day, day.AddDate(0, 0, 1), day.AddDate(0, 0, 2)},
					Y:     []float64{1, 3, 2}, Opacity: 1,
				}},
			},
		},
		{
			name: "scatter numeric single point",
			fig: &figure.Figure{
				Traces: []figure.Trace{{
					Type: figure.TraceScatter, Mode: figure.ModeMarkers,
					XNum: []float64{4}, Y: []float64{2}, Marker: figure.Marker{Size: 8, Opacity: 0.5},
				}},
			},
		},
		{
			name: "categorical line",
			fig: &figure.Figure{
				Traces: []figure.Trace{{
					Type: figure.TraceScatter, Mode: figure.ModeLinesMarkers,
					X: []string{"mon", "tue", "wed"}, Y: []float64{1, 2, 3}, Marker: figure.Marker{Opacity: 1},
				}},
			},
		},
		{
			name: "pie with labels",
			fig: &figure.Figure{
				Traces: []figure.Trace{{
					Type: figure.TracePie, Labels: []string{"a", "b", "c"}, Values: []float64{1, 0, 2},
					TextInfo: "label+percent", Opacity: 1,
				}},
			},
		},
		{
			name: "empty pie",
			fig: &figure.Figure{
				Traces: []figure.Trace{{Type: figure.TracePie, Labels: []string{"a"}, Values: []float64{0}}},
			},
		},
		{
			name: "text slide",
			fig: &figure.Figure{
				Annotations: []figure.Annotation{
					{Text: "Headline", X: 0.5, Y: 0.8, FontSize: 24, Color: "white"},
					{Text: "A much longer description that needs wrapping across more than one line of the slide canvas", X: 0.5, Y: 0.5, FontSize: 18},
				},
				Layout: figure.Layout{Template: figure.TemplateDark},
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, h := rasterize(t, r, tt.fig)
			assert.Equal(t, 640, w)
			assert.Equal(t, 360, h)
		})
	}
}

func TestRasterize_LayoutSizeWins(t *testing.T) {
	fig := &figure.Figure{
		Annotations: []figure.Annotation{{Text: "Thank you", X: 0.5, Y: 0.5, FontSize: 32}},
		Layout:      figure.Layout{Width: 320, Height: 180},
	}
	w, h := rasterize(t, New(640, 360), fig)
	assert.Equal(t, 320, w)
	assert.Equal(t, 180, h)

	w, h = rasterize(t, &Rasterizer{}, &figure.Figure{})
	assert.Equal(t, DefaultWidth, w)
	assert.Equal(t, DefaultHeight, h)
}

func TestRasterize_Errors(t *testing.T) {
	var buf bytes.Buffer
	assert.ErrorIs(t, New(10, 10).Rasterize(nil, &buf), ErrNilFigure)

	err := New(100, 100).Rasterize(&figure.Figure{Traces: []figure.Trace{{Type: "heatmap"}}}, &buf)
	assert.Error(t, err)
}

func TestRasterize_NonFiniteValues(t *testing.T) {
	tests := []struct {
		name string
		fig  *figure.Figure
	}{
		{"bar value", &figure.Figure{Traces: []figure.Trace{{Type: figure.TraceBar, X: []string{"x", "y"}, Y: []float64{1, math.NaN()}}}}},
		{"bar range", &figure.Figure{
			Traces: []figure.Trace{{Type: figure.TraceBar, X: []string{"x"}, Y: []float64{1}}},
			Layout: figure.Layout{YRange: &figure.Range{Min: 0, Max: math.Inf(1)}},
		}},
		{"scatter x", &figure.Figure{Traces: []figure.Trace{{Type: figure.TraceScatter, XNum: []float64{math.Inf(-1), 2}, Y: []float64{1, 2}}}}},
		{"pie value", &figure.Figure{Traces: []figure.Trace{{Type: figure.TracePie, Labels: []string{"a"}, Values: []float64{math.NaN()}}}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			assert.ErrorIs(t, New(100, 100).Rasterize(tt.fig, &buf), ErrNonFinite)
			assert.Zero(t, buf.Len())
		})
	}
}

func TestTicks(t *testing.T) {
	assert.Equal(t, []float64{0, 20, 40, 60}, ticks(0, 66, 5))
	assert.Nil(t, ticks(5, 5, 5))
}

func TestParseColor(t *testing.T) {
	fallback := whiteTheme.text
	assert.Equal(t, uint8(0xAD), parseColor("lightblue", fallback).R)
	assert.Equal(t, uint8(0x63), parseColor("#636EFA", fallback).R)
	assert.Equal(t, fallback, parseColor("not-a-colour", fallback))
}
