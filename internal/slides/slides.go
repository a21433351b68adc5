// Package slides assembles a presentation: a title slide, one slide per key
// insight, one chart per visualization and a closing slide.
package slides

import (
	"fmt"
	"log/slog"

	"github.com/insight-studio/backend/internal/chart"
	"github.com/insight-studio/backend/internal/figure"
	"github.com/insight-studio/backend/internal/insight"
	"github.com/insight-studio/backend/internal/table"
)

// Fixed slide text.
const (
	TitleText   = "Data Analysis Insights & Visualizations"
	ClosingText = "Thank you for viewing the presentation"

	defaultInsightTitle       = "Insight"
	defaultInsightDescription = "No description available"
	defaultImportance         = "N/A"
)

// Default slide size.
const (
	DefaultWidth  = 1920
	DefaultHeight = 1080
)

// Builder builds slide sequences.
type Builder struct {
	Width  int
	Height int
	Logger *slog.Logger
}

// NewBuilder returns a builder producing slides of the given size.
func NewBuilder(width, height int, logger *slog.Logger) *Builder {
	if width <= 0 {
		width = DefaultWidth
	}
	if height <= 0 {
		height = DefaultHeight
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Builder{Width: width, Height: height, Logger: logger}
}

// Build returns the slides in fixed order. A nil insight set or an empty
// visualization list contributes no slides; a visualization that fails to
// render is logged and skipped.
func (b *Builder) Build(t *table.Table, insights *insight.InsightSet, visualizations []Visualization) []*figure.Figure {
	slides := []*figure.Figure{b.textSlide(TitleText)}

	if insights != nil {
		for _, in := range insights.KeyInsights {
			slides = append(slides, b.insightSlide(in))
		}
	}

	for i, v := range visualizations {
		fig, err := chart.RenderTag(t, v.KindTag(), v.Config)
		if err != nil {
			b.Logger.Warn("skipping visualization slide", "index", i, "type", v.Type, "error", err)
			continue
		}
		fig.Layout.Width, fig.Layout.Height = b.Width, b.Height
		slides = append(slides, fig)
	}

	slides = append(slides, b.textSlide(ClosingText))
	b.Logger.Debug("presentation built", "slides", len(slides))
	return slides
}

func (b *Builder) layout() figure.Layout {
	return figure.Layout{
		Template: figure.TemplateDark,
		Width:    b.Width,
		Height:   b.Height,
	}
}

func (b *Builder) textSlide(text string) *figure.Figure {
	return &figure.Figure{
		Layout: b.layout(),
		Annotations: []figure.Annotation{
			{Text: text, X: 0.5, Y: 0.5, FontSize: 32, Color: "white"},
		},
	}
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}

func (b *Builder) insightSlide(in insight.Insight) *figure.Figure {
	return &figure.Figure{
		Layout: b.layout(),
		Annotations: []figure.Annotation{
			{Text: orDefault(in.Title, defaultInsightTitle), X: 0.5, Y: 0.8, FontSize: 24, Color: "white"},
			{Text: orDefault(in.Description, defaultInsightDescription), X: 0.5, Y: 0.5, FontSize: 18, Color: "white"},
			{Text: fmt.Sprintf("Business Impact: %s", orDefault(in.Importance, defaultImportance)), X: 0.5, Y: 0.2, FontSize: 16, Color: "lightblue"},
		},
	}
}

// FPS converts a per-slide duration into the video frame rate, one frame per
// slide.
func FPS(secondsPerSlide float64) float64 {
	if secondsPerSlide <= 0 {
		secondsPerSlide = DefaultSecondsPerSlide
	}
	return 1 / secondsPerSlide
}
