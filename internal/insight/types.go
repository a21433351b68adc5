// Package insight asks a remote language model for dataset insights, chart
// suggestions and survey-to-table conversions, and validates its answers.
package insight

// Insight is one key observation about the dataset.
type Insight struct {
	Title       string `json:"title" yaml:"title" msgpack:"title"`
	Description string `json:"description" yaml:"description" msgpack:"description"`
	Importance  string `json:"importance,omitempty" yaml:"importance,omitempty" msgpack:"importance,omitempty"`
}

// Trend is an identified pattern.
type Trend struct {
	Pattern     string `json:"pattern" yaml:"pattern" msgpack:"pattern"`
	Explanation string `json:"explanation" yaml:"explanation" msgpack:"explanation"`
}

// VisualizationSuggestion recommends a chart type.
type VisualizationSuggestion struct {
	Type   string `json:"type" yaml:"type" msgpack:"type"`
	Reason string `json:"reason" yaml:"reason" msgpack:"reason"`
}

// InsightSet is the insight response schema.
type InsightSet struct {
	KeyInsights              []Insight                 `json:"key_insights" yaml:"key_insights" msgpack:"key_insights"`
	Trends                   []Trend                   `json:"trends,omitempty" yaml:"trends,omitempty" msgpack:"trends,omitempty"`
	VisualizationSuggestions []VisualizationSuggestion `json:"visualization_suggestions,omitempty" yaml:"visualization_suggestions,omitempty" msgpack:"visualization_suggestions,omitempty"`
}

// Empty reports whether the set carries nothing to show.
func (s *InsightSet) Empty() bool {
	return s == nil || len(s.KeyInsights)+len(s.Trends)+len(s.VisualizationSuggestions) == 0
}

// ChartParameters are the suggested chart settings.
type ChartParameters struct {
	X     string `json:"x"`
	Y     string `json:"y"`
	Title string `json:"title"`
}

// Suggestion is the chart suggestion response schema.
type Suggestion struct {
	Parameters ChartParameters `json:"parameters"`
}

// tableResponse is the text-to-table response schema.
type tableResponse struct {
	Columns []string `json:"columns"`
	Data    [][]any  `json:"data"`
}
