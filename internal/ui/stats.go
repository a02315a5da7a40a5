// Package ui provides statistics display components.
package ui

import (
	"fmt"
	"strings"
	"sync"
	"time"
)

// Stats mirrors a campaign's live counters; it is safe for one writer
// (the polling goroutine feeding the dashboard) and the render loop to
// share.
type Stats struct {
	mu sync.RWMutex

	StartTime time.Time

	Iterations    int64
	CorpusSize    int64
	SolutionsSize int64
	EdgesCovered  int64
	ErrorCount    int64

	MaxIterations int64

	Critical int64
	High     int64
	Medium   int64
	Low      int64
}

// NewStats creates an empty Stats, timestamped at construction.
func NewStats() *Stats {
	return &Stats{StartTime: time.Now()}
}

// Update overwrites the counters from an engine.Stats-shaped snapshot.
// Accepting plain scalars (rather than importing internal/engine) keeps
// this package free of a dependency on the fuzz loop it displays.
func (s *Stats) Update(iterations, corpusSize, solutionsSize, edgesCovered, errorCount int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Iterations = iterations
	s.CorpusSize = corpusSize
	s.SolutionsSize = solutionsSize
	s.EdgesCovered = edgesCovered
	s.ErrorCount = errorCount
}

// RecordFinding tallies one new solution by severity.
func (s *Stats) RecordFinding(severity string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch strings.ToLower(severity) {
	case "critical":
		s.Critical++
	case "high":
		s.High++
	case "medium":
		s.Medium++
	default:
		s.Low++
	}
}

// GetElapsedTime returns the time since the campaign started.
func (s *Stats) GetElapsedTime() time.Duration {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return time.Since(s.StartTime)
}

// GetIterationsPerSec returns the current iteration throughput.
func (s *Stats) GetIterationsPerSec() float64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	elapsed := time.Since(s.StartTime).Seconds()
	if elapsed < 1 {
		return 0
	}
	return float64(s.Iterations) / elapsed
}

// GetETA estimates the time remaining until MaxIterations, zero if
// unbounded or not yet underway.
func (s *Stats) GetETA() time.Duration {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.MaxIterations <= 0 || s.Iterations == 0 {
		return 0
	}
	elapsed := time.Since(s.StartTime)
	rate := float64(s.Iterations) / elapsed.Seconds()
	if rate <= 0 {
		return 0
	}
	remaining := s.MaxIterations - s.Iterations
	if remaining <= 0 {
		return 0
	}
	return time.Duration(float64(remaining)/rate) * time.Second
}

// Snapshot returns an immutable copy of the current stats for rendering.
func (s *Stats) Snapshot() StatsSnapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return StatsSnapshot{
		Iterations:      s.Iterations,
		MaxIterations:   s.MaxIterations,
		CorpusSize:      s.CorpusSize,
		SolutionsSize:   s.SolutionsSize,
		EdgesCovered:    s.EdgesCovered,
		ErrorCount:      s.ErrorCount,
		Critical:        s.Critical,
		High:            s.High,
		Medium:          s.Medium,
		Low:             s.Low,
		ElapsedTime:     time.Since(s.StartTime),
		IterationsPerSec: s.GetIterationsPerSec(),
		ETA:             s.GetETA(),
	}
}

// StatsSnapshot is a point-in-time, lock-free copy of Stats for the
// render loop.
type StatsSnapshot struct {
	Iterations       int64
	MaxIterations    int64
	CorpusSize       int64
	SolutionsSize    int64
	EdgesCovered     int64
	ErrorCount       int64
	Critical         int64
	High             int64
	Medium           int64
	Low              int64
	ElapsedTime      time.Duration
	IterationsPerSec float64
	ETA              time.Duration
}

// StatsView renders the statistics panel.
type StatsView struct {
	width  int
	height int
}

// NewStatsView creates a new stats view.
func NewStatsView(width, height int) *StatsView {
	return &StatsView{width: width, height: height}
}

// SetSize updates the view size.
func (v *StatsView) SetSize(width, height int) {
	v.width = width
	v.height = height
}

// Render renders the stats view.
func (v *StatsView) Render(snap StatsSnapshot) string {
	var b strings.Builder

	b.WriteString(HeaderStyle.Render("campaign"))
	b.WriteString("\n\n")

	b.WriteString(RenderLabelValue("Iterations", formatNumber(snap.Iterations)))
	b.WriteString("\n")
	b.WriteString(RenderLabelValue("Corpus", formatNumber(snap.CorpusSize)))
	b.WriteString("\n")
	b.WriteString(RenderLabelValue("Solutions", formatNumber(snap.SolutionsSize)))
	b.WriteString("\n")
	b.WriteString(RenderLabelValue("Edges covered", formatNumber(snap.EdgesCovered)))
	b.WriteString("\n\n")

	b.WriteString(HeaderStyle.Render("throughput"))
	b.WriteString("\n\n")
	b.WriteString(RenderLabelValue("Iters/sec", fmt.Sprintf("%.1f", snap.IterationsPerSec)))
	b.WriteString("\n")
	b.WriteString(RenderLabelValue("Elapsed", formatDuration(snap.ElapsedTime)))
	b.WriteString("\n\n")

	b.WriteString(HeaderStyle.Render("findings"))
	b.WriteString("\n\n")
	b.WriteString(RenderLabelValue("Total", formatNumber(snap.SolutionsSize)))
	b.WriteString("\n")

	if snap.SolutionsSize > 0 {
		b.WriteString("  ")
		b.WriteString(FindingHighStyle.Render(fmt.Sprintf("critical+high: %d", snap.Critical+snap.High)))
		b.WriteString(" | ")
		b.WriteString(FindingMediumStyle.Render(fmt.Sprintf("medium: %d", snap.Medium)))
		b.WriteString(" | ")
		b.WriteString(FindingLowStyle.Render(fmt.Sprintf("low: %d", snap.Low)))
		b.WriteString("\n")
	}

	return StatsPanelStyle.Width(v.width).Render(b.String())
}

func formatNumber(n int64) string {
	if n < 1000 {
		return fmt.Sprintf("%d", n)
	}
	if n < 1000000 {
		return fmt.Sprintf("%.1fK", float64(n)/1000)
	}
	return fmt.Sprintf("%.1fM", float64(n)/1000000)
}

func formatDuration(d time.Duration) string {
	if d < time.Millisecond {
		return fmt.Sprintf("%dµs", d.Microseconds())
	}
	if d < time.Second {
		return fmt.Sprintf("%dms", d.Milliseconds())
	}
	if d < time.Minute {
		return fmt.Sprintf("%.1fs", d.Seconds())
	}
	if d < time.Hour {
		return fmt.Sprintf("%dm%ds", int(d.Minutes()), int(d.Seconds())%60)
	}
	return fmt.Sprintf("%dh%dm", int(d.Hours()), int(d.Minutes())%60)
}
