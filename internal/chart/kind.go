// Package chart maps a table and a small configuration record to a figure.
package chart

import (
	"errors"
	"fmt"
	"strings"
)

// Kind is the closed set of chart variants.
type Kind string

const (
	BasicBar   Kind = "basic_bar"
	StackedBar Kind = "stacked_bar"
	GroupedBar Kind = "grouped_bar"
	Line       Kind = "line"
	Scatter    Kind = "scatter"
	Pie        Kind = "pie"
)

// ErrUnsupportedKind is returned for chart tags outside the closed set.
var ErrUnsupportedKind = errors.New("unsupported visualization type")

// Kinds lists every supported chart kind in menu order.
func Kinds() []Kind {
	return []Kind{BasicBar, StackedBar, GroupedBar, Line, Scatter, Pie}
}

// ParseKind resolves a chart tag.
func ParseKind(s string) (Kind, error) {
	k := Kind(strings.ToLower(strings.TrimSpace(s)))
	if _, ok := renderers[k]; !ok {
		return "", fmt.Errorf("%w: %q", ErrUnsupportedKind, s)
	}
	return k, nil
}

// IsBar reports whether the kind draws bars.
func (k Kind) IsBar() bool {
	return k == BasicBar || k == StackedBar || k == GroupedBar
}

func (k Kind) String() string { return string(k) }
