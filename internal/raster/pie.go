package raster

import (
	"io"
	"strings"

	"github.com/wcharczuk/go-chart/v2"

	"github.com/insight-studio/backend/internal/figure"
)

// drawPie renders the first pie trace. Slices with no value are dropped since
// go-chart cannot draw them; a pie with nothing left renders blank.
func drawPie(fig *figure.Figure, width, height int, w io.Writer) error {
	tr := fig.Traces[0]
	th := themeFor(fig.Layout.Template)
	showLabels := strings.Contains(tr.TextInfo, "label")

	var values []chart.Value
	for i := 0; i < min(len(tr.Labels), len(tr.Values)); i++ {
		if tr.Values[i] <= 0 {
			continue
		}
		col := parseColor(colorAt(tr.Colors, i), traceColor(tr, i))
		v := chart.Value{
			Value: tr.Values[i],
			Style: chart.Style{
				FillColor:   col.WithAlpha(alpha(tr.Opacity)),
				StrokeColor: th.background,
				StrokeWidth: 2,
				FontColor:   th.text,
			},
		}
		if showLabels {
			v.Label = tr.Labels[i]
		}
		values = append(values, v)
	}
	if len(values) == 0 {
		return drawBlank(fig, width, height, w)
	}

	pc := chart.PieChart{
		Title:      fig.Layout.Title,
		TitleStyle: th.titleStyle(),
		Width:      width,
		Height:     height,
		Background: th.backgroundStyle(),
		Canvas:     th.canvasStyle(),
		Values:     values,
	}
	return pc.Render(chart.PNG, w)
}

func colorAt(colors []string, i int) string {
	if i < len(colors) {
		return colors[i]
	}
	return figure.PaletteColor(i)
}
