package report

import (
	"fmt"
	"html/template"
	"io"
	"time"
)

// HTMLGenerator renders a Report as a single self-contained HTML page.
type HTMLGenerator struct {
	template *template.Template
}

// NewHTMLGenerator creates an HTMLGenerator using the built-in template.
func NewHTMLGenerator() *HTMLGenerator {
	return &HTMLGenerator{template: template.Must(template.New("report").Funcs(htmlFuncs).Parse(htmlTemplate))}
}

var htmlFuncs = template.FuncMap{
	"severityClass": func(s Severity) string {
		switch s {
		case SeverityCritical:
			return "critical"
		case SeverityHigh:
			return "high"
		case SeverityMedium:
			return "medium"
		default:
			return "low"
		}
	},
	"formatTime": func(t time.Time) string {
		return t.Format("2006-01-02 15:04:05")
	},
	"formatDuration": func(d time.Duration) string {
		return d.String()
	},
	"truncate": func(s string, n int) string {
		if len(s) <= n {
			return s
		}
		return s[:n] + "..."
	},
}

// Generate renders report as HTML to w.
func (g *HTMLGenerator) Generate(report *Report, w io.Writer) error {
	return g.template.Execute(w, report)
}

// Extension returns "html".
func (g *HTMLGenerator) Extension() string {
	return "html"
}

// SetTemplate overrides the generator's template.
func (g *HTMLGenerator) SetTemplate(tmpl *template.Template) {
	g.template = tmpl
}

// CustomHTMLGenerator builds a generator from a caller-supplied template
// string, sharing the same helper funcs as the built-in template.
func CustomHTMLGenerator(templateStr string) (*HTMLGenerator, error) {
	tmpl, err := template.New("report").Funcs(htmlFuncs).Parse(templateStr)
	if err != nil {
		return nil, fmt.Errorf("parse template: %w", err)
	}
	return &HTMLGenerator{template: tmpl}, nil
}

const htmlTemplate = `<!DOCTYPE html>
<html lang="en">
<head>
    <meta charset="UTF-8">
    <meta name="viewport" content="width=device-width, initial-scale=1.0">
    <title>movefuzz report - {{.Target}}</title>
    <style>
        :root {
            --bg-dark: #0D0D0D;
            --bg-panel: #1A1A2E;
            --bg-header: #16213E;
            --text-primary: #E0E0E0;
            --text-dim: #666666;
            --cyan: #00FFFF;
            --magenta: #FF00FF;
            --green: #00FF00;
            --yellow: #FFFF00;
            --red: #FF0055;
            --orange: #FF8800;
        }
        * { margin: 0; padding: 0; box-sizing: border-box; }
        body {
            font-family: 'Segoe UI', 'Roboto', 'Helvetica Neue', sans-serif;
            background: var(--bg-dark);
            color: var(--text-primary);
            line-height: 1.6;
            min-height: 100vh;
        }
        .container { max-width: 1200px; margin: 0 auto; padding: 20px; }
        header {
            background: var(--bg-header);
            padding: 30px;
            border-radius: 10px;
            margin-bottom: 30px;
            border: 1px solid var(--cyan);
        }
        h1 { color: var(--cyan); font-size: 2.2em; margin-bottom: 10px; }
        .meta { color: var(--text-dim); font-size: 0.9em; }
        .meta span { margin-right: 20px; }
        .section {
            background: var(--bg-panel);
            border-radius: 10px;
            padding: 20px;
            margin-bottom: 20px;
            border: 1px solid var(--magenta);
        }
        h2 { color: var(--magenta); margin-bottom: 20px; font-size: 1.4em; }
        .stats-grid {
            display: grid;
            grid-template-columns: repeat(auto-fit, minmax(160px, 1fr));
            gap: 20px;
        }
        .stat-card {
            background: var(--bg-header);
            padding: 20px;
            border-radius: 8px;
            text-align: center;
            border: 1px solid var(--cyan);
        }
        .stat-value { font-size: 1.8em; font-weight: bold; color: var(--cyan); }
        .stat-label { color: var(--text-dim); font-size: 0.9em; margin-top: 5px; }
        .severity-badges { display: flex; gap: 10px; flex-wrap: wrap; margin-bottom: 20px; }
        .badge { padding: 5px 15px; border-radius: 20px; font-weight: bold; font-size: 0.9em; }
        .badge.critical { background: var(--red); color: white; }
        .badge.high { background: var(--orange); color: white; }
        .badge.medium { background: var(--yellow); color: black; }
        .badge.low { background: var(--green); color: black; }
        .finding-list { list-style: none; }
        .finding-item {
            background: var(--bg-header);
            padding: 15px;
            margin-bottom: 15px;
            border-radius: 8px;
            border-left: 4px solid var(--cyan);
        }
        .finding-item.critical { border-left-color: var(--red); }
        .finding-item.high { border-left-color: var(--orange); }
        .finding-item.medium { border-left-color: var(--yellow); }
        .finding-item.low { border-left-color: var(--green); }
        .finding-header { display: flex; justify-content: space-between; align-items: center; margin-bottom: 10px; }
        .finding-title { font-weight: bold; color: var(--text-primary); }
        .finding-meta { color: var(--text-dim); font-size: 0.8em; }
        .finding-details { font-size: 0.9em; }
        .finding-details code {
            background: var(--bg-dark);
            padding: 2px 6px;
            border-radius: 4px;
            font-family: 'Fira Code', 'Consolas', monospace;
            color: var(--cyan);
        }
        .no-findings { text-align: center; padding: 40px; color: var(--green); font-size: 1.2em; }
        footer { text-align: center; color: var(--text-dim); padding: 20px; font-size: 0.9em; }
    </style>
</head>
<body>
    <div class="container">
        <header>
            <h1>movefuzz report</h1>
            <div class="meta">
                <span>target: <strong>{{.Target}}</strong></span>
                <span>chain: <strong>{{.Chain}}</strong></span>
                <span>run: {{.RunID}}</span>
                <span>generated: {{formatTime .GeneratedAt}}</span>
            </div>
        </header>

        <section class="section">
            <h2>statistics</h2>
            <div class="stats-grid">
                <div class="stat-card">
                    <div class="stat-value">{{.Statistics.Iterations}}</div>
                    <div class="stat-label">Iterations</div>
                </div>
                <div class="stat-card">
                    <div class="stat-value">{{.Statistics.CorpusSize}}</div>
                    <div class="stat-label">Corpus size</div>
                </div>
                <div class="stat-card">
                    <div class="stat-value">{{.Statistics.SolutionsSize}}</div>
                    <div class="stat-label">Solutions</div>
                </div>
                <div class="stat-card">
                    <div class="stat-value">{{.Statistics.EdgesCovered}}</div>
                    <div class="stat-label">Edges covered</div>
                </div>
                <div class="stat-card">
                    <div class="stat-value">{{formatDuration .Statistics.Duration}}</div>
                    <div class="stat-label">Duration</div>
                </div>
                <div class="stat-card">
                    <div class="stat-value">{{.Statistics.ErrorCount}}</div>
                    <div class="stat-label">Errors</div>
                </div>
            </div>
        </section>

        <section class="section">
            <h2>findings ({{len .Findings}})</h2>

            {{if .Findings}}
            <div class="severity-badges">
                {{range $sev, $count := .SeverityCounts}}
                {{if gt $count 0}}
                <span class="badge {{severityClass $sev}}">{{$sev}}: {{$count}}</span>
                {{end}}
                {{end}}
            </div>

            <ul class="finding-list">
                {{range .Findings}}
                <li class="finding-item {{severityClass .Severity}}">
                    <div class="finding-header">
                        <span class="finding-title">{{.Function}}</span>
                        <span class="badge {{severityClass .Severity}}">{{.Severity}}</span>
                    </div>
                    <div class="finding-details">
                        <p><strong>Outcome:</strong> <code>{{.Outcome}}</code></p>
                        {{if .AbortCode}}
                        <p><strong>Abort code:</strong> {{.AbortCode}}</p>
                        {{end}}
                        {{if .Detail}}
                        <p><strong>Detail:</strong> {{truncate .Detail 200}}</p>
                        {{end}}
                        {{if .ArgsSummary}}
                        <p><strong>Args:</strong> <code>{{truncate .ArgsSummary 150}}</code></p>
                        {{end}}
                    </div>
                    <div class="finding-meta">{{formatTime .Timestamp}}</div>
                </li>
                {{end}}
            </ul>
            {{else}}
            <div class="no-findings">no findings for this run</div>
            {{end}}
        </section>

        <footer>movefuzz</footer>
    </div>
</body>
</html>`
