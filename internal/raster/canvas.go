package raster

import (
	"fmt"
	"io"
	"strings"

	"github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"
)

// canvas wraps a go-chart PNG renderer with the few primitives the custom
// layouts need.
type canvas struct {
	r      chart.Renderer
	width  int
	height int
}

func newCanvas(width, height int, bg drawing.Color) (*canvas, error) {
	r, err := chart.PNG(width, height)
	if err != nil {
		return nil, fmt.Errorf("creating renderer: %w", err)
	}
	font, err := chart.GetDefaultFont()
	if err != nil {
		return nil, fmt.Errorf("loading font: %w", err)
	}
	r.SetFont(font)

	c := &canvas{r: r, width: width, height: height}
	c.fillRect(chart.Box{Top: 0, Left: 0, Right: width, Bottom: height}, bg)
	return c, nil
}

func (c *canvas) fillRect(b chart.Box, col drawing.Color) {
	if b.Right <= b.Left || b.Bottom <= b.Top {
		return
	}
	c.r.SetFillColor(col)
	c.r.MoveTo(b.Left, b.Top)
	c.r.LineTo(b.Right, b.Top)
	c.r.LineTo(b.Right, b.Bottom)
	c.r.LineTo(b.Left, b.Bottom)
	c.r.Close()
	c.r.Fill()
}

func (c *canvas) line(x0, y0, x1, y1 int, col drawing.Color, width float64) {
	c.r.SetStrokeColor(col)
	c.r.SetStrokeWidth(width)
	c.r.MoveTo(x0, y0)
	c.r.LineTo(x1, y1)
	c.r.Stroke()
}

func (c *canvas) setFont(size float64, col drawing.Color) {
	c.r.SetFontSize(size)
	c.r.SetFontColor(col)
}

func (c *canvas) measure(text string) (int, int) {
	b := c.r.MeasureText(text)
	return b.Width(), b.Height()
}

// textCentered draws text horizontally centred on x with its baseline at y.
func (c *canvas) textCentered(text string, x, y int) {
	w, _ := c.measure(text)
	c.r.Text(text, x-w/2, y)
}

func (c *canvas) textRight(text string, x, y int) {
	w, _ := c.measure(text)
	c.r.Text(text, x-w, y)
}

func (c *canvas) text(text string, x, y int) {
	c.r.Text(text, x, y)
}

// wrap splits text into lines no wider than maxWidth at the current font.
func (c *canvas) wrap(text string, maxWidth int) []string {
	var lines []string
	for _, para := range strings.Split(text, "\n") {
		words := strings.Fields(para)
		if len(words) == 0 {
			lines = append(lines, "")
			continue
		}
		cur := words[0]
		for _, word := range words[1:] {
			candidate := cur + " " + word
			if w, _ := c.measure(candidate); w > maxWidth {
				lines = append(lines, cur)
				cur = word
				continue
			}
			cur = candidate
		}
		lines = append(lines, cur)
	}
	return lines
}

func (c *canvas) save(w io.Writer) error {
	return c.r.Save(w)
}
