package raster

import (
	"io"

	"github.com/insight-studio/backend/internal/figure"
)

// referenceHeight is the layout height annotation font sizes are given for.
const referenceHeight = 600.0

// drawText renders a trace-less figure: the title and every annotation,
// wrapped to the canvas width and centred on its paper position.
func drawText(fig *figure.Figure, width, height int, w io.Writer) error {
	th := themeFor(fig.Layout.Template)
	c, err := newCanvas(width, height, th.background)
	if err != nil {
		return err
	}
	scale := float64(height) / referenceHeight

	if fig.Layout.Title != "" {
		c.setFont(20*scale, th.text)
		c.textCentered(fig.Layout.Title, width/2, int(40*scale))
	}

	maxWidth := int(float64(width) * 0.8)
	for _, a := range fig.Annotations {
		size := a.FontSize
		if size <= 0 {
			size = 16
		}
		c.setFont(size*scale, parseColor(a.Color, th.text))

		lines := c.wrap(a.Text, maxWidth)
		_, lineHeight := c.measure("Hg")
		lineHeight = int(float64(lineHeight) * 1.4)

		x := int(a.X * float64(width))
		// Paper y grows upwards; the block is centred on it.
		y := int((1-a.Y)*float64(height)) - (len(lines)-1)*lineHeight/2
		for i, line := range lines {
			c.textCentered(line, x, y+i*lineHeight)
		}
	}
	return c.save(w)
}

// drawBlank renders only the title, used when a figure has nothing to plot
// at this instant (for example the first frame of a growing bar chart).
func drawBlank(fig *figure.Figure, width, height int, w io.Writer) error {
	th := themeFor(fig.Layout.Template)
	c, err := newCanvas(width, height, th.background)
	if err != nil {
		return err
	}
	if fig.Layout.Title != "" {
		c.setFont(18, th.text)
		c.textCentered(fig.Layout.Title, width/2, 40)
	}
	return c.save(w)
}
