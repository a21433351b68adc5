package insight

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/insight-studio/backend/internal/llm"
	"github.com/insight-studio/backend/internal/table"
)

// ErrUnavailable is the single failure callers see when insights, suggestions
// or conversions could not be obtained.
var ErrUnavailable = errors.New("could not obtain insights")

// Sampling temperatures per request type.
const (
	InsightTemperature    = 0.2
	SuggestionTemperature = 0.2
	TableTemperature      = 0.3
)

// SampleRows is how many leading rows are embedded in the insight prompt.
const SampleRows = 5

const insightSchema = `{
    "key_insights": [
        {
            "title": "Main observation",
            "description": "Detailed explanation",
            "importance": "Business impact"
        }
    ],
    "trends": [
        {
            "pattern": "Identified pattern",
            "explanation": "Pattern meaning"
        }
    ],
    "visualization_suggestions": [
        {
            "type": "Visualization type",
            "reason": "Why this visualization works"
        }
    ]
}`

const suggestionSchema = `{
    "parameters": {
        "x": "column_name",
        "y": "column_name",
        "title": "Chart Title"
    }
}`

const tableSchema = `{
    "columns": ["Column1", "Column2", ...],
    "data": [
        ["Row1Col1", "Row1Col2", ...],
        ["Row2Col1", "Row2Col2", ...]
    ]
}`

// Service talks to the completion endpoint on behalf of a session.
type Service struct {
	llm    llm.Completer
	logger *slog.Logger
}

// NewService returns a service. A nil completer leaves the feature disabled:
// every call fails with llm.ErrMissingAPIKey.
func NewService(c llm.Completer, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{llm: c, logger: logger}
}

// Enabled reports whether a completer is configured.
func (s *Service) Enabled() bool { return s != nil && s.llm != nil }

func (s *Service) complete(ctx context.Context, prompt string, temperature float64) (string, error) {
	if !s.Enabled() {
		return "", fmt.Errorf("%w: %w", ErrUnavailable, llm.ErrMissingAPIKey)
	}
	out, err := s.llm.Complete(ctx, prompt, temperature)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
	return out, nil
}

func columnList(cols []string) string {
	b, _ := json.Marshal(cols)
	return string(b)
}

// InsightPrompt builds the insight request for t.
func InsightPrompt(t *table.Table) (string, error) {
	rows, err := json.Marshal(t.Head(SampleRows))
	if err != nil {
		return "", fmt.Errorf("encoding sample rows: %w", err)
	}
	var b strings.Builder
	b.WriteString("Analyze this dataset and provide insights in JSON format:\n")
	fmt.Fprintf(&b, "Columns: %s\n", columnList(t.Columns()))
	fmt.Fprintf(&b, "First %d Rows: %s\n\n", SampleRows, rows)
	b.WriteString("Respond strictly in this JSON format:\n")
	b.WriteString(insightSchema)
	return b.String(), nil
}

// RequestInsights asks for key insights, trends and visualization suggestions.
func (s *Service) RequestInsights(ctx context.Context, t *table.Table) (*InsightSet, error) {
	if t == nil || t.NumRows() == 0 {
		return nil, fmt.Errorf("%w: %w", ErrUnavailable, table.ErrEmptyTable)
	}
	prompt, err := InsightPrompt(t)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
	out, err := s.complete(ctx, prompt, InsightTemperature)
	if err != nil {
		s.logger.Warn("insight request failed", "error", err)
		return nil, err
	}
	set, err := ParseInsights(out)
	if err != nil {
		s.logger.Warn("insight response rejected", "error", err, "response_bytes", len(out))
		return nil, fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
	s.logger.Info("insights received",
		"key_insights", len(set.KeyInsights),
		"trends", len(set.Trends),
		"suggestions", len(set.VisualizationSuggestions))
	return set, nil
}

// SuggestionPrompt builds the chart suggestion request.
func SuggestionPrompt(t *table.Table, kind string) string {
	var b strings.Builder
	b.WriteString("You are a helpful assistant. Always respond with valid JSON format only.\n")
	fmt.Fprintf(&b, "Suggest how to best create a %s visualization.\n", kind)
	fmt.Fprintf(&b, "Dataset columns: %s\n", columnList(t.Columns()))
	b.WriteString("Respond strictly in the following JSON format:\n")
	b.WriteString(suggestionSchema)
	return b.String()
}

// SuggestChart asks which columns suit a chart kind. Suggested columns must
// exist in t.
func (s *Service) SuggestChart(ctx context.Context, t *table.Table, kind string) (*Suggestion, error) {
	if t == nil {
		return nil, fmt.Errorf("%w: %w", ErrUnavailable, table.ErrEmptyTable)
	}
	out, err := s.complete(ctx, SuggestionPrompt(t, kind), SuggestionTemperature)
	if err != nil {
		return nil, err
	}
	sug, err := ParseSuggestion(out)
	if err != nil {
		s.logger.Warn("suggestion response rejected", "error", err)
		return nil, fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
	for _, col := range []string{sug.Parameters.X, sug.Parameters.Y} {
		if !t.Has(col) {
			err := &ParseError{Stage: StageValidate, Err: &table.ColumnError{Column: col, Reason: "is not in the dataset"}}
			return nil, fmt.Errorf("%w: %w", ErrUnavailable, err)
		}
	}
	return sug, nil
}

// TablePrompt builds the text-to-table request.
func TablePrompt(text string) string {
	var b strings.Builder
	b.WriteString("You are an AI assistant. Analyze the following text to extract structured data.\n")
	b.WriteString("Identify column names and corresponding rows of data.\n\n")
	fmt.Fprintf(&b, "Input text:\n%q\n\n", text)
	b.WriteString("Respond strictly in this JSON format:\n")
	b.WriteString(tableSchema)
	return b.String()
}

// TableFromText converts free text such as survey answers into a table.
func (s *Service) TableFromText(ctx context.Context, text string) (*table.Table, error) {
	if strings.TrimSpace(text) == "" {
		return nil, errors.New("text is empty")
	}
	out, err := s.complete(ctx, TablePrompt(text), TableTemperature)
	if err != nil {
		return nil, err
	}
	tr, err := parseTable(out)
	if err != nil {
		s.logger.Warn("table response rejected", "error", err)
		return nil, fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
	rows := make([][]string, len(tr.Data))
	for i, row := range tr.Data {
		cells := make([]string, len(row))
		for j, v := range row {
			cells[j] = cellString(v)
		}
		rows[i] = cells
	}
	t, err := table.FromRecords(tr.Columns, rows)
	if err != nil {
		return nil, fmt.Errorf("building table from response: %w", err)
	}
	return t, nil
}

func cellString(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case json.Number:
		return x.String()
	case bool:
		if x {
			return "true"
		}
		return "false"
	default:
		b, _ := json.Marshal(x)
		return string(b)
	}
}
