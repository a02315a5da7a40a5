// Package report renders a fuzzing campaign's results: run statistics
// and the solution testcases (crashing, aborting, or shift-violating
// inputs) a campaign turned up, in JSON, HTML, or plain text.
package report

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/movefuzz/movefuzz/internal/vmexec"
)

// Severity buckets a Finding by how much attention it deserves.
type Severity string

const (
	SeverityCritical Severity = "critical" // invariant violation or panic
	SeverityHigh     Severity = "high"     // abort on an operator-named target code
	SeverityMedium   Severity = "medium"   // any other Move abort
	SeverityLow      Severity = "low"      // shift-overflow or other non-abort finding
)

// Finding is one solution testcase: an input the objective set flagged,
// together with the outcome it produced.
type Finding struct {
	ID          string             `json:"id"`
	Severity    Severity           `json:"severity"`
	Function    string             `json:"function"`
	Outcome     vmexec.OutcomeKind `json:"outcome"`
	AbortCode   uint64             `json:"abort_code,omitempty"`
	Detail      string             `json:"detail,omitempty"`
	ArgsSummary string             `json:"args_summary,omitempty"`
	Timestamp   time.Time          `json:"timestamp"`
}

// Statistics mirrors internal/engine.Stats in report-friendly form.
type Statistics struct {
	Iterations    int64         `json:"iterations"`
	CorpusSize    int           `json:"corpus_size"`
	SolutionsSize int           `json:"solutions_size"`
	ErrorCount    int64         `json:"error_count"`
	EdgesCovered  int           `json:"edges_covered"`
	TimedOut      bool          `json:"timed_out"`
	Duration      time.Duration `json:"duration"`
	LastFoundAgo  time.Duration `json:"last_found_ago"`
}

// MarshalJSON renders durations as their String() form rather than raw
// nanosecond counts.
func (s Statistics) MarshalJSON() ([]byte, error) {
	type alias Statistics
	return json.Marshal(&struct {
		alias
		Duration     string `json:"duration"`
		LastFoundAgo string `json:"last_found_ago"`
	}{
		alias:        alias(s),
		Duration:     s.Duration.String(),
		LastFoundAgo: s.LastFoundAgo.String(),
	})
}

// Report is one completed (or interrupted) campaign: its target,
// statistics, and findings.
type Report struct {
	RunID       string     `json:"run_id"`
	Target      string     `json:"target"`
	Chain       string     `json:"chain"` // "sui" or "aptos"
	GeneratedAt time.Time  `json:"generated_at"`
	Statistics  Statistics `json:"statistics"`
	Findings    []Finding  `json:"findings"`

	SeverityCounts map[Severity]int `json:"severity_counts"`
}

// NewReport creates an empty report for a campaign against target on
// the given chain.
func NewReport(runID, chain, target string) *Report {
	return &Report{
		RunID:          runID,
		Target:         target,
		Chain:          chain,
		GeneratedAt:    time.Now(),
		Findings:       make([]Finding, 0),
		SeverityCounts: make(map[Severity]int),
	}
}

// AddFinding appends a finding and keeps the severity tally current.
func (r *Report) AddFinding(f Finding) {
	r.Findings = append(r.Findings, f)
	r.SeverityCounts[f.Severity]++
}

// SetStatistics records the campaign's final statistics.
func (r *Report) SetStatistics(stats Statistics) {
	r.Statistics = stats
}

// SeverityOf classifies an outcome into a Finding severity; targeted
// distinguishes an abort on an operator-named code from an incidental
// one.
func SeverityOf(outcome vmexec.Outcome, targeted bool) Severity {
	switch outcome.Kind {
	case vmexec.OutcomeInvariantViolation, vmexec.OutcomePanic:
		return SeverityCritical
	case vmexec.OutcomeMoveAbort:
		if targeted {
			return SeverityHigh
		}
		return SeverityMedium
	default:
		return SeverityLow
	}
}

// FilterBySeverity returns findings with the given severity.
func (r *Report) FilterBySeverity(severity Severity) []Finding {
	var filtered []Finding
	for _, f := range r.Findings {
		if f.Severity == severity {
			filtered = append(filtered, f)
		}
	}
	return filtered
}

// Generator renders a Report to a writer in one format.
type Generator interface {
	Generate(report *Report, w io.Writer) error
	Extension() string
}

// Manager dispatches report generation by format name and manages
// on-disk report files.
type Manager struct {
	generators map[string]Generator
	outputDir  string
}

// NewManager creates a Manager with the default json/html/text
// generators registered, writing files under outputDir.
func NewManager(outputDir string) *Manager {
	m := &Manager{
		generators: make(map[string]Generator),
		outputDir:  outputDir,
	}
	m.RegisterGenerator("json", &JSONGenerator{Indent: true})
	m.RegisterGenerator("html", NewHTMLGenerator())
	m.RegisterGenerator("text", &TextGenerator{})
	m.RegisterGenerator("txt", &TextGenerator{})
	return m
}

// RegisterGenerator registers (or overrides) a generator for format.
func (m *Manager) RegisterGenerator(format string, gen Generator) {
	m.generators[format] = gen
}

// GetGenerator returns the generator registered for format, if any.
func (m *Manager) GetGenerator(format string) (Generator, bool) {
	gen, ok := m.generators[format]
	return gen, ok
}

// Generate writes report to a new timestamped file under the manager's
// output directory and returns its path.
func (m *Manager) Generate(report *Report, format string) (string, error) {
	gen, ok := m.generators[format]
	if !ok {
		return "", fmt.Errorf("unknown report format: %s", format)
	}

	if err := os.MkdirAll(m.outputDir, 0o755); err != nil {
		return "", fmt.Errorf("create output directory: %w", err)
	}

	timestamp := time.Now().Format("20060102_150405")
	filename := fmt.Sprintf("movefuzz_%s.%s", timestamp, gen.Extension())
	path := filepath.Join(m.outputDir, filename)

	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("create report file: %w", err)
	}
	defer f.Close()

	if err := gen.Generate(report, f); err != nil {
		return "", fmt.Errorf("generate report: %w", err)
	}
	return path, nil
}

// GenerateAll generates a report in every registered format.
func (m *Manager) GenerateAll(report *Report) ([]string, error) {
	var paths []string
	for format := range m.generators {
		path, err := m.Generate(report, format)
		if err != nil {
			return paths, err
		}
		paths = append(paths, path)
	}
	return paths, nil
}

// WriteToWriter generates report in format directly to w, without
// touching disk. Used for the CLI's stdout summary.
func (m *Manager) WriteToWriter(report *Report, format string, w io.Writer) error {
	gen, ok := m.generators[format]
	if !ok {
		return fmt.Errorf("unknown report format: %s", format)
	}
	return gen.Generate(report, w)
}
