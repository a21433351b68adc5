// Package profile builds a column-level profiling report of a CSV file using an
// in-memory DuckDB database.
package profile

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/marcboeker/go-duckdb"
)

// DefaultSampleRows is how many leading rows a report carries.
const DefaultSampleRows = 10

// ColumnSummary is one row of DuckDB's SUMMARIZE output.
type ColumnSummary struct {
	Name           string  `json:"name"`
	Type           string  `json:"type"`
	Min            string  `json:"min"`
	Max            string  `json:"max"`
	ApproxUnique   int64   `json:"approxUnique"`
	Avg            string  `json:"avg,omitempty"`
	Std            string  `json:"std,omitempty"`
	Q25            string  `json:"q25,omitempty"`
	Q50            string  `json:"q50,omitempty"`
	Q75            string  `json:"q75,omitempty"`
	Count          int64   `json:"count"`
	NullPercentage float64 `json:"nullPercentage"`
}

// Report is the profile of one dataset.
type Report struct {
	Title       string          `json:"title"`
	Source      string          `json:"source"`
	RowCount    int64           `json:"rowCount"`
	Columns     []ColumnSummary `json:"columns"`
	SampleHead  []string        `json:"sampleHeader"`
	SampleRows  [][]string      `json:"sampleRows"`
	GeneratedAt time.Time       `json:"generatedAt"`
}

// Profiler runs profiling queries. Zero values fall back to DuckDB defaults.
type Profiler struct {
	Threads     int
	MemoryLimit string
	SampleRows  int
	Logger      *slog.Logger
}

func (p *Profiler) logger() *slog.Logger {
	if p.Logger == nil {
		return slog.Default()
	}
	return p.Logger
}

func (p *Profiler) pragmas() []string {
	pragmas := []string{"PRAGMA enable_progress_bar=false"}
	if p.MemoryLimit != "" {
		pragmas = append(pragmas, fmt.Sprintf("PRAGMA memory_limit=%s", quoteLiteral(p.MemoryLimit)))
	}
	if p.Threads > 0 {
		pragmas = append(pragmas, fmt.Sprintf("PRAGMA threads=%d", p.Threads))
	}
	return pragmas
}

// open returns a fresh in-memory database.
func (p *Profiler) open() (*sql.DB, error) {
	pragmas := p.pragmas()
	connector, err := duckdb.NewConnector("", func(execer driver.ExecerContext) error {
		for _, pragma := range pragmas {
			if _, err := execer.ExecContext(context.Background(), pragma, nil); err != nil {
				return fmt.Errorf("%s: %w", pragma, err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create DuckDB connector: %w", err)
	}
	return sql.OpenDB(connector), nil
}

// quoteLiteral renders s as a single-quoted SQL string literal.
func quoteLiteral(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}

// Profile loads csvPath into DuckDB and summarizes every column.
func (p *Profiler) Profile(ctx context.Context, csvPath string) (*Report, error) {
	if strings.TrimSpace(csvPath) == "" {
		return nil, errors.New("profile: csv path is required")
	}
	start := time.Now()

	db, err := p.open()
	if err != nil {
		return nil, err
	}
	defer db.Close()

	load := "CREATE TABLE dataset AS SELECT * FROM read_csv_auto(" + quoteLiteral(csvPath) + ", header=true)"
	if _, err := db.ExecContext(ctx, load); err != nil {
		return nil, fmt.Errorf("profile: load %s: %w", csvPath, err)
	}

	report := &Report{Title: "Profiling Report", Source: csvPath, GeneratedAt: time.Now().UTC()}
	if err := db.QueryRowContext(ctx, "SELECT COUNT(*) FROM dataset").Scan(&report.RowCount); err != nil {
		return nil, fmt.Errorf("profile: count rows: %w", err)
	}
	if report.Columns, err = summarize(ctx, db); err != nil {
		return nil, err
	}
	n := p.SampleRows
	if n <= 0 {
		n = DefaultSampleRows
	}
	if report.SampleHead, report.SampleRows, err = sample(ctx, db, n); err != nil {
		return nil, err
	}

	p.logger().Info("profile complete",
		"source", csvPath,
		"rows", report.RowCount,
		"columns", len(report.Columns),
		"duration", time.Since(start))
	return report, nil
}

const summarizeQuery = `
	SELECT
		column_name,
		column_type,
		CAST(min AS VARCHAR),
		CAST(max AS VARCHAR),
		CAST(approx_unique AS BIGINT),
		CAST(avg AS VARCHAR),
		CAST(std AS VARCHAR),
		CAST(q25 AS VARCHAR),
		CAST(q50 AS VARCHAR),
		CAST(q75 AS VARCHAR),
		CAST(count AS BIGINT),
		CAST(null_percentage AS DOUBLE)
	FROM (SUMMARIZE dataset)
`

func summarize(ctx context.Context, db *sql.DB) ([]ColumnSummary, error) {
	rows, err := db.QueryContext(ctx, summarizeQuery)
	if err != nil {
		return nil, fmt.Errorf("profile: summarize: %w", err)
	}
	defer rows.Close()

	var out []ColumnSummary
	for rows.Next() {
		var (
			c                   ColumnSummary
			lo, hi, avg, std    sql.NullString
			q25, q50, q75       sql.NullString
			approxUnique, count sql.NullInt64
			nullPct             sql.NullFloat64
		)
		if err := rows.Scan(&c.Name, &c.Type, &lo, &hi, &approxUnique, &avg, &std, &q25, &q50, &q75, &count, &nullPct); err != nil {
			return nil, fmt.Errorf("profile: scan summary: %w", err)
		}
		c.Min, c.Max, c.Avg, c.Std = lo.String, hi.String, avg.String, std.String
		c.Q25, c.Q50, c.Q75 = q25.String, q50.String, q75.String
		c.ApproxUnique, c.Count, c.NullPercentage = approxUnique.Int64, count.Int64, nullPct.Float64
		out = append(out, c)
	}
	return out, rows.Err()
}

func sample(ctx context.Context, db *sql.DB, n int) ([]string, [][]string, error) {
	rows, err := db.QueryContext(ctx, fmt.Sprintf("SELECT * FROM dataset LIMIT %d", n))
	if err != nil {
		return nil, nil, fmt.Errorf("profile: sample: %w", err)
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return nil, nil, err
	}
	var out [][]string
	for rows.Next() {
		vals := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range vals {
			ptrs[i] = &vals[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, nil, fmt.Errorf("profile: scan sample: %w", err)
		}
		row := make([]string, len(cols))
		for i, v := range vals {
			row[i] = formatValue(v)
		}
		out = append(out, row)
	}
	return cols, out, rows.Err()
}

func formatValue(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case []byte:
		return string(x)
	case time.Time:
		if x.Hour() == 0 && x.Minute() == 0 && x.Second() == 0 && x.Nanosecond() == 0 {
			return x.Format("2006-01-02")
		}
		return x.Format("2006-01-02 15:04:05")
	default:
		return fmt.Sprint(x)
	}
}
