// Package raster draws figures to PNG images with go-chart.
package raster

import (
	"errors"
	"fmt"
	"io"
	"math"

	"github.com/insight-studio/backend/internal/figure"
)

// Default frame size.
const (
	DefaultWidth  = 1280
	DefaultHeight = 720
)

// ErrNilFigure is returned for a nil figure.
var ErrNilFigure = errors.New("figure is nil")

// ErrNonFinite is returned for figures carrying NaN or infinite values,
// which go-chart cannot lay out.
var ErrNonFinite = errors.New("figure has non-finite values")

// Rasterizer renders figures at a fixed size unless the figure's layout
// requests its own.
type Rasterizer struct {
	Width  int
	Height int
}

// New returns a rasterizer of the given size, falling back to the defaults
// for non-positive values.
func New(width, height int) *Rasterizer {
	return &Rasterizer{Width: width, Height: height}
}

func (r *Rasterizer) size(fig *figure.Figure) (int, int) {
	w, h := DefaultWidth, DefaultHeight
	if r != nil && r.Width > 0 && r.Height > 0 {
		w, h = r.Width, r.Height
	}
	if fig.Layout.Width > 0 && fig.Layout.Height > 0 {
		w, h = fig.Layout.Width, fig.Layout.Height
	}
	return w, h
}

// Rasterize writes fig to w as a PNG image.
func (r *Rasterizer) Rasterize(fig *figure.Figure, w io.Writer) error {
	if fig == nil {
		return ErrNilFigure
	}
	if !finite(fig) {
		return fmt.Errorf("rasterizing figure %q: %w", fig.Layout.Title, ErrNonFinite)
	}
	width, height := r.size(fig)

	var err error
	switch {
	case !fig.HasTraces():
		err = drawText(fig, width, height, w)
	case fig.Traces[0].Type == figure.TracePie:
		err = drawPie(fig, width, height, w)
	case fig.Traces[0].Type == figure.TraceBar:
		err = drawBars(fig, width, height, w)
	case fig.Traces[0].Type == figure.TraceScatter:
		err = drawXY(fig, width, height, w)
	default:
		err = fmt.Errorf("unsupported trace type %q", fig.Traces[0].Type)
	}
	if err != nil {
		return fmt.Errorf("rasterizing figure %q: %w", fig.Layout.Title, err)
	}
	return nil
}

func finite(fig *figure.Figure) bool {
	ok := func(vals ...float64) bool {
		for _, v := range vals {
			if math.IsNaN(v) || math.IsInf(v, 0) {
				return false
			}
		}
		return true
	}
	for _, rg := range []*figure.Range{fig.Layout.XRange, fig.Layout.YRange} {
		if rg != nil && !ok(rg.Min, rg.Max) {
			return false
		}
	}
	for _, tr := range fig.Traces {
		if !ok(tr.XNum...) || !ok(tr.Y...) || !ok(tr.Values...) {
			return false
		}
	}
	return true
}
