// Package animate turns a chart configuration into a sequence of frames that
// progressively reveal the data.
package animate

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/insight-studio/backend/internal/chart"
	"github.com/insight-studio/backend/internal/figure"
	"github.com/insight-studio/backend/internal/table"
)

// ErrNoFrames is returned when not a single frame could be produced.
var ErrNoFrames = errors.New("no animation frames were generated")

// animator builds frame i of n at the given eased progress.
type animator interface {
	frame(i, n int, progress float64) (*figure.Figure, error)
}

type animatorFactory func(t *table.Table, kind chart.Kind, cfg chart.Config) (animator, error)

var animators = map[chart.Kind]animatorFactory{
	chart.BasicBar:   newBarAnimator,
	chart.StackedBar: newMultiBarAnimator,
	chart.GroupedBar: newMultiBarAnimator,
	chart.Line:       newPointAnimator,
	chart.Scatter:    newPointAnimator,
	chart.Pie:        newPieAnimator,
}

func init() {
	for _, k := range chart.Kinds() {
		if animators[k] == nil {
			panic(fmt.Sprintf("animate: no animator registered for %q", k))
		}
	}
}

// Generator produces animation frames.
type Generator struct {
	Logger *slog.Logger
}

// NewGenerator returns a generator logging to logger.
func NewGenerator(logger *slog.Logger) *Generator {
	return &Generator{Logger: logger}
}

func (g *Generator) logger() *slog.Logger {
	if g == nil || g.Logger == nil {
		return slog.Default()
	}
	return g.Logger
}

// FrameCount is durationSeconds x fps.
func FrameCount(durationSeconds, fps int) int {
	if durationSeconds <= 0 || fps <= 0 {
		return 0
	}
	return durationSeconds * fps
}

// Generate returns exactly durationSeconds x fps frames, minus any frame that
// failed to build. Individual failures are logged and skipped; if nothing
// could be produced the error wraps ErrNoFrames.
func (g *Generator) Generate(t *table.Table, kind chart.Kind, cfg chart.Config, durationSeconds, fps int) ([]*figure.Figure, error) {
	n := FrameCount(durationSeconds, fps)
	if n == 0 {
		return nil, fmt.Errorf("%w: duration and fps must be positive", ErrNoFrames)
	}

	factory, ok := animators[kind]
	if !ok {
		return nil, fmt.Errorf("%w: %q", chart.ErrUnsupportedKind, kind)
	}
	if t == nil {
		return nil, fmt.Errorf("%w: no dataset loaded", ErrNoFrames)
	}
	anim, err := factory(t, kind, cfg)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrNoFrames, &chart.RenderError{Kind: kind, Err: err})
	}

	log := g.logger()
	frames := make([]*figure.Figure, 0, n)
	for i := 0; i < n; i++ {
		fig, err := anim.frame(i, n, Progress(i, n))
		if err != nil {
			log.Warn("skipping animation frame", "kind", kind, "frame", i, "error", err)
			continue
		}
		frames = append(frames, fig)
	}
	if len(frames) == 0 {
		return nil, ErrNoFrames
	}

	log.Debug("animation frames generated", "kind", kind, "frames", len(frames), "requested", n)
	return frames, nil
}
