package slides

import (
	"errors"
	"fmt"
	"io"

	"gopkg.in/yaml.v3"

	"github.com/insight-studio/backend/internal/chart"
)

// Per-slide duration bounds in seconds.
const (
	DefaultSecondsPerSlide = 2
	MaxSecondsPerSlide     = 10
)

// ErrInvalidDeck wraps every deck decoding and validation failure.
var ErrInvalidDeck = errors.New("invalid deck")

// Visualization is one chart slide. The chart settings sit beside the type,
// as in:
//
//	- type: basic_bar
//	  x: region
//	  y: sales
type Visualization struct {
	Type         string `json:"type" yaml:"type"`
	chart.Config `yaml:",inline"`
}

// KindTag returns the chart tag, defaulting to a line chart.
func (v Visualization) KindTag() string {
	if v.Type == "" {
		return string(chart.Line)
	}
	return v.Type
}

// Deck is a saved presentation definition.
type Deck struct {
	SecondsPerSlide float64         `json:"seconds_per_slide,omitempty" yaml:"seconds_per_slide,omitempty"`
	Visualizations  []Visualization `json:"visualizations" yaml:"visualizations"`
}

// LoadDeck decodes a YAML (or JSON) deck. Empty input yields an empty deck.
func LoadDeck(r io.Reader) (*Deck, error) {
	var d Deck
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&d); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%w: decoding: %w", ErrInvalidDeck, err)
	}
	if err := d.Validate(); err != nil {
		return nil, err
	}
	return &d, nil
}

// Validate checks chart types and the per-slide duration.
func (d *Deck) Validate() error {
	if d.SecondsPerSlide < 0 || d.SecondsPerSlide > MaxSecondsPerSlide {
		return fmt.Errorf("%w: seconds_per_slide must be between 0 and %d", ErrInvalidDeck, MaxSecondsPerSlide)
	}
	for i, v := range d.Visualizations {
		if _, err := chart.ParseKind(v.KindTag()); err != nil {
			return fmt.Errorf("%w: visualizations[%d]: %w", ErrInvalidDeck, i, err)
		}
	}
	return nil
}

// WriteYAML encodes the deck.
func (d *Deck) WriteYAML(w io.Writer) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(d); err != nil {
		return fmt.Errorf("encoding deck: %w", err)
	}
	return enc.Close()
}
