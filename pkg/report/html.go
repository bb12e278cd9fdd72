package report

import (
	"fmt"
	"html/template"
	"os"
	"path/filepath"
)

const pageTemplate = `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>News report {{.RunDate}}</title>
<style>
body { font-family: sans-serif; margin: 2em; color: #222; }
h2 { border-bottom: 1px solid #ccc; padding-bottom: 0.2em; }
table { border-collapse: collapse; width: 100%; margin-bottom: 2em; }
th, td { text-align: left; padding: 0.4em 0.8em; border-bottom: 1px solid #eee; }
.keywords { color: #0a6; }
.empty { color: #888; font-style: italic; }
</style>
</head>
<body>
<h1>Matched news for {{.RunDate}}</h1>
{{range .Subscribers}}
<h2>Subscriber {{.SubscriberID}}</h2>
{{if .Articles}}
<table>
<tr><th>Title</th><th>Source</th><th>Keywords</th></tr>
{{range .Articles}}
<tr>
<td><a href="{{.URL}}">{{.Title}}</a></td>
<td>{{.SourceID}}</td>
<td class="keywords">{{range $i, $k := .KeywordsHit}}{{if $i}}, {{end}}{{$k}}{{end}}</td>
</tr>
{{end}}
</table>
{{else}}
<p class="empty">No matches today.</p>
{{end}}
{{end}}
</body>
</html>
`

var page = template.Must(template.New("report").Parse(pageTemplate))

// WriteHTML renders the export to <dir>/<prefix>_report_<date>.html.
func WriteHTML(dir, prefix string, export Export) (string, error) {
	if err := os.MkdirAll(dir, 0750); err != nil {
		return "", fmt.Errorf("failed to create output directory: %w", err)
	}
	path := filepath.Join(dir, fmt.Sprintf("%s_report_%s.html", prefix, export.RunDate))

	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("failed to create report file: %w", err)
	}
	defer f.Close()

	if err := page.Execute(f, export); err != nil {
		return "", fmt.Errorf("failed to render report: %w", err)
	}
	return path, nil
}
