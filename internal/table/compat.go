package table

// Compatible lists the columns a chart kind may place on each axis.
type Compatible struct {
	X []string `json:"x"`
	Y []string `json:"y"`
}

// CompatibleColumns returns axis choices for a chart kind tag. Unknown tags
// allow every column on both axes.
func (t *Table) CompatibleColumns(kind string) Compatible {
	numeric := t.NumericColumns()
	categorical := t.CategoricalColumns()
	dates := t.DateColumns()

	switch kind {
	case "line", "scatter":
		return Compatible{X: concat(numeric, dates), Y: numeric}
	case "basic_bar", "stacked_bar", "grouped_bar":
		return Compatible{X: concat(categorical, dates), Y: numeric}
	case "pie":
		return Compatible{X: categorical, Y: numeric}
	default:
		all := t.Columns()
		return Compatible{X: all, Y: all}
	}
}

func concat(a, b []string) []string {
	out := make([]string, 0, len(a)+len(b))
	out = append(out, a...)
	return append(out, b...)
}
