package insight

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/insight-studio/backend/internal/llm"
	"github.com/insight-studio/backend/internal/table"
	"github.com/insight-studio/backend/internal/testutil"
)

type fakeCompleter struct {
	reply       string
	err         error
	prompt      string
	temperature float64
	calls       int
}

func (f *fakeCompleter) Complete(_ context.Context, prompt string, temperature float64) (string, error) {
	f.calls++
	f.prompt = prompt
	f.temperature = temperature
	return f.reply, f.err
}

func salesTable(t *testing.T) *table.Table {
	t.Helper()
	tbl, err := table.Load(strings.NewReader("region,sales,date\nnorth,10,2024-01-01\nsouth,20,2024-01-02\n"))
	require.NoError(t, err)
	return tbl
}

func TestExtractJSON(t *testing.T) {
	raw, err := ExtractJSON("Sure! {\"key_insights\":[]} Thanks.")
	require.NoError(t, err)
	assert.Equal(t, `{"key_insights":[]}`, string(raw))

	raw, err = ExtractJSON(`Here: {"a":"brace } inside","b":{"c":1}} trailing }`)
	require.NoError(t, err)
	assert.Equal(t, `{"a":"brace } inside","b":{"c":1}}`, string(raw))

	_, err = ExtractJSON("no json here")
	var pe *ParseError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, StageExtract, pe.Stage)
	assert.ErrorIs(t, err, ErrNoJSONObject)

	_, err = ExtractJSON(`{"unterminated": [1, 2`)
	require.ErrorAs(t, err, &pe)
}

func TestParseInsights(t *testing.T) {
	tests := []struct {
		name    string
		text    string
		want    int
		wantErr string
	}{
		{name: "empty list", text: "Sure! {\"key_insights\":[]} Thanks.", want: 0},
		{
			name: "full",
			text: `{"key_insights":[{"title":"Growth","description":"Sales doubled","importance":"High"}],
				"trends":[{"pattern":"up","explanation":"steady"}],
				"visualization_suggestions":[{"type":"line","reason":"time series"}]}`,
			want: 1,
		},
		{name: "missing key_insights", text: `{"trends":[]}`, wantErr: "missing"},
		{name: "unknown field", text: `{"key_insights":[],"extra":1}`, wantErr: "unknown field"},
		{name: "item without description", text: `{"key_insights":[{"title":"x"}]}`, wantErr: "title and description"},
		{name: "wrong type", text: `{"key_insights":"nope"}`, wantErr: "cannot unmarshal"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			set, err := ParseInsights(tt.text)
			if tt.wantErr != "" {
				var pe *ParseError
				require.ErrorAs(t, err, &pe)
				assert.ErrorContains(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Len(t, set.KeyInsights, tt.want)
		})
	}
}

func TestRequestInsights(t *testing.T) {
	fc := &fakeCompleter{reply: "Result:\n" + `{"key_insights":[{"title":"North leads","description":"North has fewer sales","importance":"Medium"}]}`}
	svc := NewService(fc, testutil.NewTestLogger(t))

	set, err := svc.RequestInsights(context.Background(), salesTable(t))
	require.NoError(t, err)
	require.Len(t, set.KeyInsights, 1)
	assert.Equal(t, "North leads", set.KeyInsights[0].Title)

	assert.Equal(t, InsightTemperature, fc.temperature)
	assert.Contains(t, fc.prompt, `Columns: ["region","sales","date"]`)
	assert.Contains(t, fc.prompt, `"region":"north"`)
	assert.Contains(t, fc.prompt, `"key_insights"`)
}

func TestInsightPrompt_SampleRowsWithOddCells(t *testing.T) {
	tbl, err := table.Load(strings.NewReader("name,score\nx,1\ny,NaN\n"))
	require.NoError(t, err)

	prompt, err := InsightPrompt(tbl)
	require.NoError(t, err)
	assert.Contains(t, prompt, `First 5 Rows: [{"name":"x","score":"1"},{"name":"y","score":"NaN"}]`)
}

func TestRequestInsights_Failures(t *testing.T) {
	tbl := salesTable(t)
	logger := testutil.NewTestLogger(t)

	_, err := NewService(&fakeCompleter{err: errors.New("dial tcp: refused")}, logger).RequestInsights(context.Background(), tbl)
	assert.ErrorIs(t, err, ErrUnavailable)

	_, err = NewService(&fakeCompleter{reply: "I cannot help"}, logger).RequestInsights(context.Background(), tbl)
	assert.ErrorIs(t, err, ErrUnavailable)
	var pe *ParseError
	assert.ErrorAs(t, err, &pe)

	_, err = NewService(nil, logger).RequestInsights(context.Background(), tbl)
	assert.ErrorIs(t, err, ErrUnavailable)
	assert.ErrorIs(t, err, llm.ErrMissingAPIKey)

	fc := &fakeCompleter{reply: `{"key_insights":[]}`}
	_, err = NewService(fc, logger).RequestInsights(context.Background(), nil)
	assert.ErrorIs(t, err, table.ErrEmptyTable)
	assert.Zero(t, fc.calls)
}

func TestSuggestChart(t *testing.T) {
	tbl := salesTable(t)
	fc := &fakeCompleter{reply: `{"parameters":{"x":"region","y":"sales","title":"Sales by region"}}`}
	svc := NewService(fc, testutil.NewTestLogger(t))

	sug, err := svc.SuggestChart(context.Background(), tbl, "basic_bar")
	require.NoError(t, err)
	assert.Equal(t, ChartParameters{X: "region", Y: "sales", Title: "Sales by region"}, sug.Parameters)
	assert.Contains(t, fc.prompt, "create a basic_bar visualization")

	fc.reply = `{"parameters":{"x":"country","y":"sales","title":"t"}}`
	_, err = svc.SuggestChart(context.Background(), tbl, "basic_bar")
	var colErr *table.ColumnError
	require.ErrorAs(t, err, &colErr)
	assert.Equal(t, "country", colErr.Column)

	fc.reply = `{"x":"region"}`
	_, err = svc.SuggestChart(context.Background(), tbl, "basic_bar")
	assert.ErrorIs(t, err, ErrUnavailable)
}

func TestTableFromText(t *testing.T) {
	fc := &fakeCompleter{reply: "```json\n" + `{"columns":["name","score","passed"],"data":[["Ann",9.5,true],["Bob",7,false],["Cy",null]]}` + "\n```"}
	svc := NewService(fc, testutil.NewTestLogger(t))

	tbl, err := svc.TableFromText(context.Background(), "Ann scored 9.5, Bob 7")
	require.NoError(t, err)
	assert.Equal(t, TableTemperature, fc.temperature)
	assert.Equal(t, []string{"name", "score", "passed"}, tbl.Columns())
	assert.Equal(t, 3, tbl.NumRows())

	kind, ok := tbl.Kind("score")
	require.True(t, ok)
	assert.Equal(t, table.KindNumeric, kind)

	passed, err := tbl.Strings("passed")
	require.NoError(t, err)
	assert.Equal(t, []string{"true", "false", ""}, passed)

	_, err = svc.TableFromText(context.Background(), "   ")
	assert.Error(t, err)

	fc.reply = `{"columns":[],"data":[]}`
	_, err = svc.TableFromText(context.Background(), "x")
	assert.ErrorIs(t, err, ErrUnavailable)
}
