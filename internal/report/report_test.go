package report

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"

	"github.com/movefuzz/movefuzz/internal/vmexec"
)

func TestNewReport(t *testing.T) {
	r := NewReport("run-1", "sui", "0xabc::counter::increment")

	if r.RunID != "run-1" {
		t.Errorf("RunID = %q, want run-1", r.RunID)
	}
	if r.Chain != "sui" {
		t.Errorf("Chain = %q, want sui", r.Chain)
	}
	if r.Target != "0xabc::counter::increment" {
		t.Errorf("Target = %q, want 0xabc::counter::increment", r.Target)
	}
	if len(r.Findings) != 0 {
		t.Errorf("expected no findings on a fresh report, got %d", len(r.Findings))
	}
}

func TestReportAddFinding(t *testing.T) {
	r := NewReport("run-1", "sui", "target")

	r.AddFinding(Finding{
		ID:        "f1",
		Severity:  SeverityHigh,
		Function:  "0xabc::counter::increment",
		Outcome:   vmexec.OutcomeMoveAbort,
		AbortCode: 7,
		Timestamp: time.Now(),
	})

	if len(r.Findings) != 1 {
		t.Fatalf("expected 1 finding, got %d", len(r.Findings))
	}
	if r.SeverityCounts[SeverityHigh] != 1 {
		t.Errorf("SeverityCounts[high] = %d, want 1", r.SeverityCounts[SeverityHigh])
	}
}

func TestSeverityOf(t *testing.T) {
	cases := []struct {
		outcome  vmexec.Outcome
		targeted bool
		want     Severity
	}{
		{vmexec.Outcome{Kind: vmexec.OutcomeInvariantViolation}, false, SeverityCritical},
		{vmexec.Outcome{Kind: vmexec.OutcomePanic}, false, SeverityCritical},
		{vmexec.Outcome{Kind: vmexec.OutcomeMoveAbort}, true, SeverityHigh},
		{vmexec.Outcome{Kind: vmexec.OutcomeMoveAbort}, false, SeverityMedium},
		{vmexec.Outcome{Kind: vmexec.OutcomeOutOfGas}, false, SeverityLow},
	}
	for _, c := range cases {
		if got := SeverityOf(c.outcome, c.targeted); got != c.want {
			t.Errorf("SeverityOf(%v, %v) = %q, want %q", c.outcome.Kind, c.targeted, got, c.want)
		}
	}
}

func TestReportFilterBySeverity(t *testing.T) {
	r := NewReport("run-1", "sui", "target")
	r.AddFinding(Finding{Severity: SeverityCritical})
	r.AddFinding(Finding{Severity: SeverityLow})
	r.AddFinding(Finding{Severity: SeverityCritical})

	got := r.FilterBySeverity(SeverityCritical)
	if len(got) != 2 {
		t.Fatalf("FilterBySeverity(critical) returned %d findings, want 2", len(got))
	}
}

func TestJSONGeneratorRoundTrips(t *testing.T) {
	r := NewReport("run-1", "aptos", "0x1::counter::bump")
	r.SetStatistics(Statistics{Iterations: 100, CorpusSize: 5, EdgesCovered: 42, Duration: 2 * time.Second})
	r.AddFinding(Finding{Severity: SeverityHigh, Function: "bump", Outcome: vmexec.OutcomeMoveAbort, AbortCode: 3})

	gen := &JSONGenerator{Indent: true}
	var buf bytes.Buffer
	require.NoError(t, gen.Generate(r, &buf))

	var decoded Report
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))

	if diff := cmp.Diff(r.Findings, decoded.Findings); diff != "" {
		t.Errorf("round-tripped findings mismatch (-want +got):\n%s", diff)
	}
	require.Equal(t, "run-1", decoded.RunID)
	require.Equal(t, "json", gen.Extension())
}

func TestTextGeneratorIncludesFindingsAndStats(t *testing.T) {
	r := NewReport("run-2", "sui", "0xabc::vault::withdraw")
	r.SetStatistics(Statistics{Iterations: 1000, CorpusSize: 12, SolutionsSize: 1, EdgesCovered: 88})
	r.AddFinding(Finding{Severity: SeverityCritical, Function: "0xabc::vault::withdraw", Outcome: vmexec.OutcomeInvariantViolation, Detail: "writeset digest mismatch"})

	var buf bytes.Buffer
	if err := (&TextGenerator{}).Generate(r, &buf); err != nil {
		t.Fatalf("Generate returned error: %v", err)
	}

	out := buf.String()
	for _, want := range []string{"run-2", "0xabc::vault::withdraw", "writeset digest mismatch", "critical"} {
		if !strings.Contains(out, want) {
			t.Errorf("text report missing %q:\n%s", want, out)
		}
	}
}

func TestTextGeneratorNoFindings(t *testing.T) {
	r := NewReport("run-3", "sui", "target")
	var buf bytes.Buffer
	if err := (&TextGenerator{}).Generate(r, &buf); err != nil {
		t.Fatalf("Generate returned error: %v", err)
	}
	if !strings.Contains(buf.String(), "none") {
		t.Errorf("expected text report to say findings are empty, got:\n%s", buf.String())
	}
}

func TestHTMLGeneratorRendersFindings(t *testing.T) {
	r := NewReport("run-4", "sui", "target")
	r.AddFinding(Finding{Severity: SeverityMedium, Function: "0xabc::m::f", Outcome: vmexec.OutcomeMoveAbort, AbortCode: 1})

	var buf bytes.Buffer
	if err := NewHTMLGenerator().Generate(r, &buf); err != nil {
		t.Fatalf("Generate returned error: %v", err)
	}
	if !strings.Contains(buf.String(), "0xabc::m::f") {
		t.Error("expected rendered HTML to mention the finding's function")
	}
}

func TestManagerGenerateWritesFile(t *testing.T) {
	dir := t.TempDir()
	m := NewManager(dir)
	r := NewReport("run-5", "sui", "target")

	path, err := m.Generate(r, "json")
	if err != nil {
		t.Fatalf("Generate returned error: %v", err)
	}
	if filepath.Dir(path) != dir {
		t.Errorf("report written outside output dir: %s", path)
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("expected report file to exist: %v", err)
	}
}

func TestManagerUnknownFormat(t *testing.T) {
	m := NewManager(t.TempDir())
	if _, err := m.Generate(NewReport("r", "sui", "t"), "xml"); err == nil {
		t.Fatal("expected an error for an unregistered format")
	}
}
