// Package table holds the in-memory dataset a session works on.
package table

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// Kind is the inferred scalar kind of a column.
type Kind string

const (
	KindNumeric     Kind = "numeric"
	KindCategorical Kind = "categorical"
	KindDateTime    Kind = "datetime"
)

// ErrEmptyTable is returned when an input parses but carries no data rows.
var ErrEmptyTable = errors.New("table has no data rows")

// dateLayouts are tried in order when inferring datetime columns.
var dateLayouts = []string{
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"2006-01-02",
	"2006/01/02",
	"01/02/2006",
	"2006-01",
}

// Column is a named column with its raw cells and parsed representations.
type Column struct {
	Name  string `json:"name"`
	Kind  Kind   `json:"kind"`
	cells []string
	nums  []float64
	times []time.Time
}

// Table is rows x named columns. It is immutable once built.
type Table struct {
	columns []*Column
	index   map[string]int
	rows    int
}

// FromRecords builds a table from a header and string rows. Rows shorter than
// the header are padded with empty cells; longer rows are truncated.
func FromRecords(header []string, rows [][]string) (*Table, error) {
	if len(header) == 0 {
		return nil, errors.New("table has no columns")
	}
	if len(rows) == 0 {
		return nil, ErrEmptyTable
	}

	names := uniqueNames(header)
	t := &Table{
		columns: make([]*Column, len(names)),
		index:   make(map[string]int, len(names)),
		rows:    len(rows),
	}
	for i, name := range names {
		cells := make([]string, len(rows))
		for r, row := range rows {
			if i < len(row) {
				cells[r] = strings.TrimSpace(row[i])
			}
		}
		t.columns[i] = newColumn(name, cells)
		t.index[name] = i
	}
	return t, nil
}

func uniqueNames(header []string) []string {
	seen := make(map[string]int, len(header))
	names := make([]string, len(header))
	for i, h := range header {
		name := strings.TrimSpace(h)
		if name == "" {
			name = fmt.Sprintf("column_%d", i+1)
		}
		if seen[name] > 0 {
			base := name
			for n := seen[base] + 1; ; n++ {
				name = fmt.Sprintf("%s_%d", base, n)
				if seen[name] == 0 {
					seen[base] = n
					break
				}
			}
		}
		seen[name]++
		names[i] = name
	}
	return names
}

func newColumn(name string, cells []string) *Column {
	col := &Column{Name: name, Kind: KindCategorical, cells: cells}

	if nums, ok := parseNumeric(cells); ok {
		col.Kind = KindNumeric
		col.nums = nums
		return col
	}
	if times, ok := parseTimes(cells); ok {
		col.Kind = KindDateTime
		col.times = times
	}
	return col
}

func parseNumeric(cells []string) ([]float64, bool) {
	nums := make([]float64, len(cells))
	seen := 0
	for i, c := range cells {
		if c == "" {
			nums[i] = 0
			continue
		}
		f, err := strconv.ParseFloat(strings.ReplaceAll(c, "_", ""), 64)
		if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
			// NaN and Inf cannot be plotted or serialized as JSON numbers
			return nil, false
		}
		nums[i] = f
		seen++
	}
	return nums, seen > 0
}

func parseTimes(cells []string) ([]time.Time, bool) {
	var layout string
	times := make([]time.Time, len(cells))
	seen := 0
	for i, c := range cells {
		if c == "" {
			continue
		}
		if layout == "" {
			layout = detectLayout(c)
			if layout == "" {
				return nil, false
			}
		}
		ts, err := time.Parse(layout, c)
		if err != nil {
			return nil, false
		}
		times[i] = ts
		seen++
	}
	return times, seen > 0
}

func detectLayout(v string) string {
	for _, layout := range dateLayouts {
		if _, err := time.Parse(layout, v); err == nil {
			return layout
		}
	}
	return ""
}

// NumRows returns the number of data rows.
func (t *Table) NumRows() int { return t.rows }

// NumColumns returns the number of columns.
func (t *Table) NumColumns() int { return len(t.columns) }

// Columns returns column names in file order.
func (t *Table) Columns() []string {
	names := make([]string, len(t.columns))
	for i, c := range t.columns {
		names[i] = c.Name
	}
	return names
}

// Column looks up a column by name.
func (t *Table) Column(name string) (*Column, bool) {
	i, ok := t.index[name]
	if !ok {
		return nil, false
	}
	return t.columns[i], true
}

// Has reports whether the table has a column called name.
func (t *Table) Has(name string) bool {
	_, ok := t.index[name]
	return ok
}

// Kind returns the kind of the named column.
func (t *Table) Kind(name string) (Kind, bool) {
	col, ok := t.Column(name)
	if !ok {
		return "", false
	}
	return col.Kind, true
}

// Strings returns the raw cell values of a column.
func (t *Table) Strings(name string) ([]string, error) {
	col, ok := t.Column(name)
	if !ok {
		return nil, &ColumnError{Column: name, Reason: "not found"}
	}
	out := make([]string, len(col.cells))
	copy(out, col.cells)
	return out, nil
}

// Floats returns the parsed values of a numeric column.
func (t *Table) Floats(name string) ([]float64, error) {
	col, ok := t.Column(name)
	if !ok {
		return nil, &ColumnError{Column: name, Reason: "not found"}
	}
	if col.Kind != KindNumeric {
		return nil, &ColumnError{Column: name, Reason: "is not numeric"}
	}
	out := make([]float64, len(col.nums))
	copy(out, col.nums)
	return out, nil
}

// Times returns the parsed values of a datetime column.
func (t *Table) Times(name string) ([]time.Time, error) {
	col, ok := t.Column(name)
	if !ok {
		return nil, &ColumnError{Column: name, Reason: "not found"}
	}
	if col.Kind != KindDateTime {
		return nil, &ColumnError{Column: name, Reason: "is not a date-time column"}
	}
	out := make([]time.Time, len(col.times))
	copy(out, col.times)
	return out, nil
}

// Head returns the first n rows as column->value maps. Numeric cells are
// returned as float64, everything else as the raw string.
func (t *Table) Head(n int) []map[string]any {
	if n > t.rows {
		n = t.rows
	}
	if n < 0 {
		n = 0
	}
	out := make([]map[string]any, n)
	for r := 0; r < n; r++ {
		row := make(map[string]any, len(t.columns))
		for _, c := range t.columns {
			if c.Kind == KindNumeric && c.cells[r] != "" {
				row[c.Name] = c.nums[r]
			} else {
				row[c.Name] = c.cells[r]
			}
		}
		out[r] = row
	}
	return out
}

// Records returns the first n rows as raw string slices in column order.
func (t *Table) Records(n int) [][]string {
	if n > t.rows || n < 0 {
		n = t.rows
	}
	out := make([][]string, n)
	for r := 0; r < n; r++ {
		row := make([]string, len(t.columns))
		for i, c := range t.columns {
			row[i] = c.cells[r]
		}
		out[r] = row
	}
	return out
}

// NumericColumns lists columns inferred as numeric.
func (t *Table) NumericColumns() []string { return t.columnsOfKind(KindNumeric) }

// CategoricalColumns lists columns inferred as categorical/text.
func (t *Table) CategoricalColumns() []string { return t.columnsOfKind(KindCategorical) }

// DateColumns lists columns inferred as date-time.
func (t *Table) DateColumns() []string { return t.columnsOfKind(KindDateTime) }

func (t *Table) columnsOfKind(k Kind) []string {
	names := make([]string, 0, len(t.columns))
	for _, c := range t.columns {
		if c.Kind == k {
			names = append(names, c.Name)
		}
	}
	return names
}

// ColumnError reports a bad column reference.
type ColumnError struct {
	Column string
	Reason string
}

func (e *ColumnError) Error() string {
	return fmt.Sprintf("column %q %s", e.Column, e.Reason)
}
