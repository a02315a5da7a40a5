package report

import (
	"fmt"
	"io"
)

// TextGenerator renders a Report as a plain-text summary, the shape a
// terminal progress printer or CI log would want.
type TextGenerator struct{}

// Generate writes a human-readable summary of report to w.
func (g *TextGenerator) Generate(report *Report, w io.Writer) error {
	bw := newCountingWriter(w)

	fmt.Fprintf(bw, "movefuzz run %s (%s)\n", report.RunID, report.Chain)
	fmt.Fprintf(bw, "target:      %s\n", report.Target)
	fmt.Fprintf(bw, "generated:   %s\n\n", report.GeneratedAt.Format("2006-01-02 15:04:05"))

	s := report.Statistics
	fmt.Fprintf(bw, "iterations:     %d\n", s.Iterations)
	fmt.Fprintf(bw, "corpus size:    %d\n", s.CorpusSize)
	fmt.Fprintf(bw, "solutions:      %d\n", s.SolutionsSize)
	fmt.Fprintf(bw, "edges covered:  %d\n", s.EdgesCovered)
	fmt.Fprintf(bw, "errors:         %d\n", s.ErrorCount)
	fmt.Fprintf(bw, "duration:       %s\n", s.Duration)
	if s.TimedOut {
		fmt.Fprintf(bw, "ended:          timeout reached\n")
	} else {
		fmt.Fprintf(bw, "ended:          stopped or iteration cap reached\n")
	}
	if s.SolutionsSize > 0 {
		fmt.Fprintf(bw, "last found:     %s ago\n", s.LastFoundAgo)
	}

	fmt.Fprintf(bw, "\nfindings (%d):\n", len(report.Findings))
	if len(report.Findings) == 0 {
		fmt.Fprintf(bw, "  none\n")
		return bw.err
	}
	for _, sev := range []Severity{SeverityCritical, SeverityHigh, SeverityMedium, SeverityLow} {
		if n := report.SeverityCounts[sev]; n > 0 {
			fmt.Fprintf(bw, "  %-9s %d\n", sev, n)
		}
	}
	fmt.Fprintln(bw)
	for _, f := range report.Findings {
		fmt.Fprintf(bw, "  [%s] %s :: %s", f.Severity, f.Function, f.Outcome)
		if f.AbortCode != 0 {
			fmt.Fprintf(bw, " (abort code %d)", f.AbortCode)
		}
		fmt.Fprintln(bw)
		if f.Detail != "" {
			fmt.Fprintf(bw, "      %s\n", f.Detail)
		}
		if f.ArgsSummary != "" {
			fmt.Fprintf(bw, "      args: %s\n", f.ArgsSummary)
		}
	}
	return bw.err
}

// Extension returns "txt".
func (g *TextGenerator) Extension() string {
	return "txt"
}

// countingWriter remembers the first write error so callers can check
// it once at the end of a long sequence of Fprintf calls.
type countingWriter struct {
	w   io.Writer
	err error
}

func newCountingWriter(w io.Writer) *countingWriter {
	return &countingWriter{w: w}
}

func (c *countingWriter) Write(p []byte) (int, error) {
	if c.err != nil {
		return 0, c.err
	}
	n, err := c.w.Write(p)
	if err != nil {
		c.err = err
	}
	return n, err
}
