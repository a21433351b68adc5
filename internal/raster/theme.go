package raster

import (
	"math"
	"strings"

	"github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"

	"github.com/insight-studio/backend/internal/figure"
)

// theme holds the colours for one figure template.
type theme struct {
	background drawing.Color
	canvas     drawing.Color
	text       drawing.Color
	axis       drawing.Color
	grid       drawing.Color
}

var (
	whiteTheme = theme{
		background: drawing.ColorWhite,
		canvas:     drawing.ColorWhite,
		text:       drawing.ColorFromHex("2A3F5F"),
		axis:       drawing.ColorFromHex("444444"),
		grid:       drawing.ColorFromHex("E5ECF6"),
	}
	darkTheme = theme{
		background: drawing.ColorFromHex("111111"),
		canvas:     drawing.ColorFromHex("111111"),
		text:       drawing.ColorFromHex("F2F5FA"),
		axis:       drawing.ColorFromHex("A2B1C6"),
		grid:       drawing.ColorFromHex("283442"),
	}
)

func themeFor(template string) theme {
	if template == figure.TemplateDark {
		return darkTheme
	}
	return whiteTheme
}

func (t theme) backgroundStyle() chart.Style {
	return chart.Style{FillColor: t.background, Padding: chart.Box{Top: 40, Left: 20, Right: 20, Bottom: 20}}
}

func (t theme) canvasStyle() chart.Style {
	return chart.Style{FillColor: t.canvas}
}

func (t theme) titleStyle() chart.Style {
	return chart.Style{FontColor: t.text, FontSize: 18}
}

func (t theme) axisStyle() chart.Style {
	return chart.Style{FontColor: t.text, StrokeColor: t.axis, FontSize: 10}
}

var namedColors = map[string]string{
	"white":     "FFFFFF",
	"black":     "000000",
	"lightblue": "ADD8E6",
	"gray":      "808080",
	"grey":      "808080",
	"red":       "FF0000",
	"green":     "008000",
	"blue":      "0000FF",
}

// parseColor accepts #RRGGBB, RRGGBB or a few CSS names.
func parseColor(s string, fallback drawing.Color) drawing.Color {
	s = strings.TrimSpace(strings.ToLower(s))
	if s == "" {
		return fallback
	}
	if hex, ok := namedColors[s]; ok {
		return drawing.ColorFromHex(hex)
	}
	s = strings.TrimPrefix(s, "#")
	if len(s) != 6 && len(s) != 3 {
		return fallback
	}
	return drawing.ColorFromHex(s)
}

func alpha(opacity float64) uint8 {
	if math.IsNaN(opacity) {
		return 255
	}
	opacity = math.Max(0, math.Min(1, opacity))
	return uint8(math.Round(opacity * 255))
}

func traceColor(tr figure.Trace, i int) drawing.Color {
	c := tr.Color
	if c == "" {
		c = figure.PaletteColor(i)
	}
	return parseColor(c, drawing.ColorFromHex("636EFA"))
}
