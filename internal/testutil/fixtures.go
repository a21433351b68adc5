package testutil

import (
	"strings"
	"testing"

	"github.com/insight-studio/backend/internal/table"
)

// SalesCSV is a small mixed-kind dataset.
const SalesCSV = `region,product,sales,units,date
north,widget,120,4,2024-01-01
south,widget,80,2,2024-01-02
north,gadget,200,5,2024-01-03
east,gadget,50,1,2024-01-04
south,gizmo,150,3,2024-01-05
`

// HeaderOnlyCSV parses but has no data rows.
const HeaderOnlyCSV = "region,sales\n"

// LoadTable parses csv or fails the test.
func LoadTable(t testing.TB, csv string) *table.Table {
	t.Helper()
	tbl, err := table.Load(strings.NewReader(csv))
	if err != nil {
		t.Fatalf("loading fixture table: %v", err)
	}
	return tbl
}
