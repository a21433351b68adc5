package insight

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// Parse stages reported by ParseError.
const (
	StageExtract  = "extract"
	StageDecode   = "decode"
	StageValidate = "validate"
)

// ErrNoJSONObject is returned when a response contains no '{'.
var ErrNoJSONObject = errors.New("no JSON object found in response")

// ParseError is a typed failure to turn a model response into a schema value.
type ParseError struct {
	Stage string
	Err   error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parsing model response (%s): %v", e.Stage, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// ExtractJSON returns the first complete JSON object in text. Decoding starts
// at the first '{' and consumes exactly one value, so braces inside strings and
// trailing prose are handled.
func ExtractJSON(text string) (json.RawMessage, error) {
	start := strings.IndexByte(text, '{')
	if start < 0 {
		return nil, &ParseError{Stage: StageExtract, Err: ErrNoJSONObject}
	}
	dec := json.NewDecoder(strings.NewReader(text[start:]))
	var raw json.RawMessage
	if err := dec.Decode(&raw); err != nil {
		return nil, &ParseError{Stage: StageExtract, Err: err}
	}
	return raw, nil
}

// decodeStrict decodes raw into v rejecting unknown fields.
func decodeStrict(raw json.RawMessage, v any) error {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return &ParseError{Stage: StageDecode, Err: err}
	}
	return nil
}

func requireKeys(raw json.RawMessage, keys ...string) error {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		return &ParseError{Stage: StageDecode, Err: err}
	}
	for _, k := range keys {
		v, ok := fields[k]
		if !ok || string(v) == "null" {
			return &ParseError{Stage: StageValidate, Err: fmt.Errorf("missing %q", k)}
		}
	}
	return nil
}

// ParseInsights validates a response against the insight schema.
func ParseInsights(text string) (*InsightSet, error) {
	raw, err := ExtractJSON(text)
	if err != nil {
		return nil, err
	}
	if err := requireKeys(raw, "key_insights"); err != nil {
		return nil, err
	}
	var set InsightSet
	if err := decodeStrict(raw, &set); err != nil {
		return nil, err
	}
	for i, in := range set.KeyInsights {
		if strings.TrimSpace(in.Title) == "" || strings.TrimSpace(in.Description) == "" {
			return nil, &ParseError{Stage: StageValidate, Err: fmt.Errorf("key_insights[%d] needs a title and description", i)}
		}
	}
	for i, tr := range set.Trends {
		if strings.TrimSpace(tr.Pattern) == "" {
			return nil, &ParseError{Stage: StageValidate, Err: fmt.Errorf("trends[%d] needs a pattern", i)}
		}
	}
	for i, vs := range set.VisualizationSuggestions {
		if strings.TrimSpace(vs.Type) == "" {
			return nil, &ParseError{Stage: StageValidate, Err: fmt.Errorf("visualization_suggestions[%d] needs a type", i)}
		}
	}
	return &set, nil
}

// ParseSuggestion validates a response against the suggestion schema.
func ParseSuggestion(text string) (*Suggestion, error) {
	raw, err := ExtractJSON(text)
	if err != nil {
		return nil, err
	}
	if err := requireKeys(raw, "parameters"); err != nil {
		return nil, err
	}
	var s Suggestion
	if err := decodeStrict(raw, &s); err != nil {
		return nil, err
	}
	if s.Parameters.X == "" || s.Parameters.Y == "" {
		return nil, &ParseError{Stage: StageValidate, Err: errors.New("parameters need x and y")}
	}
	return &s, nil
}

func parseTable(text string) (*tableResponse, error) {
	raw, err := ExtractJSON(text)
	if err != nil {
		return nil, err
	}
	if err := requireKeys(raw, "columns", "data"); err != nil {
		return nil, err
	}
	var tr tableResponse
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.DisallowUnknownFields()
	dec.UseNumber()
	if err := dec.Decode(&tr); err != nil {
		return nil, &ParseError{Stage: StageDecode, Err: err}
	}
	if len(tr.Columns) == 0 {
		return nil, &ParseError{Stage: StageValidate, Err: errors.New("no columns")}
	}
	return &tr, nil
}
