package profile

import (
	"bytes"
	"fmt"
	"html/template"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"sync"
)

// ReportFileName is the fixed name the HTML report is written under.
const ReportFileName = "profile_report.html"

var reportTemplate = template.Must(template.New("report").Funcs(template.FuncMap{
	"pct": func(f float64) string { return strconv.FormatFloat(f, 'f', 2, 64) + "%" },
}).Parse(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>{{.Title}}</title>
<style>
body { font-family: system-ui, sans-serif; margin: 2rem; color: #222; }
table { border-collapse: collapse; margin-bottom: 2rem; }
th, td { border: 1px solid #ddd; padding: 4px 8px; font-size: 13px; text-align: left; }
th { background: #f4f4f4; }
.meta { color: #666; }
</style>
</head>
<body>
<h1>{{.Title}}</h1>
<p class="meta">{{if .Source}}{{.Source}}: {{end}}{{.RowCount}} rows, {{len .Columns}} columns. Generated {{.GeneratedAt.Format "2006-01-02 15:04:05 MST"}}.</p>
<h2>Variables</h2>
<table>
<tr><th>Column</th><th>Type</th><th>Count</th><th>Missing</th><th>Distinct (approx.)</th><th>Min</th><th>Max</th><th>Mean</th><th>Std</th><th>25%</th><th>50%</th><th>75%</th></tr>
{{- range .Columns}}
<tr><td>{{.Name}}</td><td>{{.Type}}</td><td>{{.Count}}</td><td>{{pct .NullPercentage}}</td><td>{{.ApproxUnique}}</td><td>{{.Min}}</td><td>{{.Max}}</td><td>{{.Avg}}</td><td>{{.Std}}</td><td>{{.Q25}}</td><td>{{.Q50}}</td><td>{{.Q75}}</td></tr>
{{- end}}
</table>
{{- if .SampleRows}}
<h2>Sample</h2>
<table>
<tr>{{range .SampleHead}}<th>{{.}}</th>{{end}}</tr>
{{- range .SampleRows}}
<tr>{{range .}}<td>{{.}}</td>{{end}}</tr>
{{- end}}
</table>
{{- end}}
</body>
</html>
`))

// WriteHTML renders the report as a standalone HTML page.
func (r *Report) WriteHTML(w io.Writer) error {
	if err := reportTemplate.Execute(w, r); err != nil {
		return fmt.Errorf("profile: render html: %w", err)
	}
	return nil
}

// HTML returns the rendered page.
func (r *Report) HTML() ([]byte, error) {
	var buf bytes.Buffer
	if err := r.WriteHTML(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// reportFileMu serializes use of the fixed report path.
var reportFileMu sync.Mutex

// RenderToTempFile writes the report to ReportFileName inside dir, reads it
// back and removes the file. The file is removed on every path.
func (r *Report) RenderToTempFile(dir string) ([]byte, error) {
	if dir == "" {
		dir = os.TempDir()
	}
	path := filepath.Join(dir, ReportFileName)

	reportFileMu.Lock()
	defer reportFileMu.Unlock()

	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("profile: create %s: %w", path, err)
	}
	defer os.Remove(path)

	if err := r.WriteHTML(f); err != nil {
		f.Close()
		return nil, err
	}
	if err := f.Close(); err != nil {
		return nil, fmt.Errorf("profile: close %s: %w", path, err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("profile: read %s: %w", path, err)
	}
	return data, nil
}
