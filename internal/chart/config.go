package chart

// Config selects the columns and labels for one chart.
type Config struct {
	X            string   `json:"x,omitempty" yaml:"x,omitempty" msgpack:"x,omitempty"`
	Y            string   `json:"y,omitempty" yaml:"y,omitempty" msgpack:"y,omitempty"`
	Color        string   `json:"color,omitempty" yaml:"color,omitempty" msgpack:"color,omitempty"`
	Title        string   `json:"title,omitempty" yaml:"title,omitempty" msgpack:"title,omitempty"`
	Labels       string   `json:"labels,omitempty" yaml:"labels,omitempty" msgpack:"labels,omitempty"`
	Values       string   `json:"values,omitempty" yaml:"values,omitempty" msgpack:"values,omitempty"`
	StackColumns []string `json:"stack_columns,omitempty" yaml:"stack_columns,omitempty" msgpack:"stack_columns,omitempty"`
	GroupColumns []string `json:"group_columns,omitempty" yaml:"group_columns,omitempty" msgpack:"group_columns,omitempty"`
}

// PieColumns returns the label and value columns, falling back to x and y.
func (c Config) PieColumns() (labels, values string) {
	labels, values = c.Labels, c.Values
	if labels == "" {
		labels = c.X
	}
	if values == "" {
		values = c.Y
	}
	return labels, values
}

// SeriesColumns returns the explicit per-kind series list for stacked and
// grouped bars.
func (c Config) SeriesColumns(k Kind) []string {
	switch k {
	case StackedBar:
		return c.StackColumns
	case GroupedBar:
		return c.GroupColumns
	}
	return nil
}
