package chart

import (
	"errors"
	"fmt"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/insight-studio/backend/internal/figure"
	"github.com/insight-studio/backend/internal/table"
)

var titleCaser = cases.Title(language.English)

// AxisTitle formats a column name for an axis label.
func AxisTitle(col string) string {
	return titleCaser.String(col)
}

// Grouped holds per-category sums for one or more series.
type Grouped struct {
	Categories []string
	Series     []string
	// Values is indexed [series][category].
	Values [][]float64
}

// Max returns the largest single value.
func (g *Grouped) Max() float64 {
	max := 0.0
	for _, row := range g.Values {
		for _, v := range row {
			if v > max {
				max = v
			}
		}
	}
	return max
}

// MaxStack returns the largest per-category total across series.
func (g *Grouped) MaxStack() float64 {
	max := 0.0
	for c := range g.Categories {
		sum := 0.0
		for s := range g.Series {
			if v := g.Values[s][c]; v > 0 {
				sum += v
			}
		}
		if sum > max {
			max = sum
		}
	}
	return max
}

func requireColumn(t *table.Table, name, role string) error {
	if name == "" {
		return fmt.Errorf("%s column is required", role)
	}
	if !t.Has(name) {
		return &table.ColumnError{Column: name, Reason: "not found"}
	}
	return nil
}

// Numeric returns the values of a required numeric column.
func Numeric(t *table.Table, col, role string) ([]float64, error) {
	if err := requireColumn(t, col, role); err != nil {
		return nil, err
	}
	return t.Floats(col)
}

// Labels returns the raw cells of a required column.
func Labels(t *table.Table, col, role string) ([]string, error) {
	if err := requireColumn(t, col, role); err != nil {
		return nil, err
	}
	return t.Strings(col)
}

// SetX fills the position fields of tr from column col. Continuous traces use
// numeric or time positions when the column allows it.
func SetX(tr *figure.Trace, t *table.Table, col string, continuous bool) error {
	if err := requireColumn(t, col, "x"); err != nil {
		return err
	}
	kind, _ := t.Kind(col)
	var err error
	switch {
	case continuous && kind == table.KindNumeric:
		tr.XNum, err = t.Floats(col)
	case continuous && kind == table.KindDateTime:
		tr.XTime, err = t.Times(col)
	default:
		tr.X, err = t.Strings(col)
	}
	return err
}

// SumBy totals each y column per unique x category, categories in first-seen
// order.
func SumBy(t *table.Table, x string, ys []string) (*Grouped, error) {
	if len(ys) == 0 {
		return nil, errors.New("at least one value column is required")
	}
	keys, err := Labels(t, x, "x")
	if err != nil {
		return nil, err
	}
	cats, index := uniqueOrdered(keys)

	g := &Grouped{Categories: cats, Series: ys, Values: make([][]float64, len(ys))}
	for s, y := range ys {
		vals, err := Numeric(t, y, "y")
		if err != nil {
			return nil, err
		}
		row := make([]float64, len(cats))
		for r, v := range vals {
			row[index[keys[r]]] += v
		}
		g.Values[s] = row
	}
	return g, nil
}

// PivotBy totals y per (x, color) pair. Series are the distinct colour values.
func PivotBy(t *table.Table, x, y, color string) (*Grouped, error) {
	keys, err := Labels(t, x, "x")
	if err != nil {
		return nil, err
	}
	groups, err := Labels(t, color, "color")
	if err != nil {
		return nil, err
	}
	vals, err := Numeric(t, y, "y")
	if err != nil {
		return nil, err
	}

	cats, catIndex := uniqueOrdered(keys)
	series, seriesIndex := uniqueOrdered(groups)
	g := &Grouped{Categories: cats, Series: series, Values: make([][]float64, len(series))}
	for s := range series {
		g.Values[s] = make([]float64, len(cats))
	}
	for r, v := range vals {
		g.Values[seriesIndex[groups[r]]][catIndex[keys[r]]] += v
	}
	return g, nil
}

func uniqueOrdered(keys []string) ([]string, map[string]int) {
	index := make(map[string]int)
	var out []string
	for _, k := range keys {
		if _, ok := index[k]; ok {
			continue
		}
		index[k] = len(out)
		out = append(out, k)
	}
	return out, index
}
