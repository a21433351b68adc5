// Package figure defines the renderer-independent chart model shared by the
// chart mapper, the animation generator, the slide builder and the rasterizer.
package figure

import "time"

// TraceType identifies how a trace is drawn.
type TraceType string

const (
	TraceBar     TraceType = "bar"
	TraceScatter TraceType = "scatter"
	TracePie     TraceType = "pie"
)

// Scatter trace modes.
const (
	ModeLines        = "lines"
	ModeMarkers      = "markers"
	ModeLinesMarkers = "lines+markers"
)

// Bar arrangements for multi-trace bar figures.
const (
	BarModeStack = "stack"
	BarModeGroup = "group"
)

// Templates.
const (
	TemplateWhite = "white"
	TemplateDark  = "dark"
)

// Figure is one fully specified chart. Frames and slides are Figures.
type Figure struct {
	Traces      []Trace      `json:"traces" msgpack:"traces"`
	Layout      Layout       `json:"layout" msgpack:"layout"`
	Annotations []Annotation `json:"annotations,omitempty" msgpack:"annotations,omitempty"`
}

// Trace is a single data series.
type Trace struct {
	Type TraceType `json:"type" msgpack:"type"`
	Name string    `json:"name,omitempty" msgpack:"name,omitempty"`

	// X holds categorical positions; XNum and XTime hold continuous ones.
	// Exactly one of them is populated for bar and scatter traces.
	X     []string    `json:"x,omitempty" msgpack:"x,omitempty"`
	XNum  []float64   `json:"xNum,omitempty" msgpack:"xNum,omitempty"`
	XTime []time.Time `json:"xTime,omitempty" msgpack:"xTime,omitempty"`
	Y     []float64   `json:"y,omitempty" msgpack:"y,omitempty"`

	// Pie only.
	Labels   []string  `json:"labels,omitempty" msgpack:"labels,omitempty"`
	Values   []float64 `json:"values,omitempty" msgpack:"values,omitempty"`
	TextInfo string    `json:"textInfo,omitempty" msgpack:"textInfo,omitempty"`
	Hole     float64   `json:"hole,omitempty" msgpack:"hole,omitempty"`

	Mode      string   `json:"mode,omitempty" msgpack:"mode,omitempty"`
	Color     string   `json:"color,omitempty" msgpack:"color,omitempty"`
	Colors    []string `json:"colors,omitempty" msgpack:"colors,omitempty"`
	Opacity   float64  `json:"opacity" msgpack:"opacity"`
	Marker    Marker   `json:"marker" msgpack:"marker"`
	LineWidth float64  `json:"lineWidth,omitempty" msgpack:"lineWidth,omitempty"`
}

// Marker styles scatter points.
type Marker struct {
	Size    float64 `json:"size,omitempty" msgpack:"size,omitempty"`
	Opacity float64 `json:"opacity" msgpack:"opacity"`
}

// Range is a fixed axis extent. Time axes use Unix nanoseconds.
type Range struct {
	Min float64 `json:"min" msgpack:"min"`
	Max float64 `json:"max" msgpack:"max"`
}

// Layout holds figure-level presentation settings.
type Layout struct {
	Title      string `json:"title,omitempty" msgpack:"title,omitempty"`
	XTitle     string `json:"xTitle,omitempty" msgpack:"xTitle,omitempty"`
	YTitle     string `json:"yTitle,omitempty" msgpack:"yTitle,omitempty"`
	BarMode    string `json:"barMode,omitempty" msgpack:"barMode,omitempty"`
	XRange     *Range `json:"xRange,omitempty" msgpack:"xRange,omitempty"`
	YRange     *Range `json:"yRange,omitempty" msgpack:"yRange,omitempty"`
	Template   string `json:"template,omitempty" msgpack:"template,omitempty"`
	Width      int    `json:"width,omitempty" msgpack:"width,omitempty"`
	Height     int    `json:"height,omitempty" msgpack:"height,omitempty"`
	ShowLegend bool   `json:"showLegend" msgpack:"showLegend"`
}

// Annotation is text placed in paper coordinates, both axes in [0,1].
type Annotation struct {
	Text     string  `json:"text" msgpack:"text"`
	X        float64 `json:"x" msgpack:"x"`
	Y        float64 `json:"y" msgpack:"y"`
	FontSize float64 `json:"fontSize" msgpack:"fontSize"`
	Color    string  `json:"color,omitempty" msgpack:"color,omitempty"`
}

// HasTraces reports whether the figure plots any data.
func (f *Figure) HasTraces() bool {
	return f != nil && len(f.Traces) > 0
}

// Palette is the qualitative colour cycle used for categorical series.
var Palette = []string{
	"#636EFA", "#EF553B", "#00CC96", "#AB63FA", "#FFA15A",
	"#19D3F3", "#FF6692", "#B6E880", "#FF97FF", "#FECB52",
}

// PaletteColor returns the i-th palette colour, cycling.
func PaletteColor(i int) string {
	if i < 0 {
		i = -i
	}
	return Palette[i%len(Palette)]
}
