package ui

import (
	"testing"
	"time"
)

func TestNewDashboard(t *testing.T) {
	d := NewDashboard()

	if d == nil {
		t.Fatal("NewDashboard returned nil")
	}

	if d.status != StatusIdle {
		t.Errorf("Expected StatusIdle, got %v", d.status)
	}

	if d.stats == nil {
		t.Error("Stats should not be nil")
	}
}

func TestDashboard_StatusTransitions(t *testing.T) {
	d := NewDashboard()

	d.Start()
	if d.status != StatusRunning {
		t.Errorf("Expected StatusRunning after Start, got %v", d.status)
	}

	d.Stop()
	if d.status != StatusStopped {
		t.Errorf("Expected StatusStopped after Stop, got %v", d.status)
	}
}

func TestDashboard_Complete(t *testing.T) {
	d := NewDashboard()
	d.Start()
	d.Complete()

	if d.status != StatusCompleted {
		t.Errorf("Expected StatusCompleted after Complete, got %v", d.status)
	}
}

func TestDashboard_AddLog(t *testing.T) {
	d := NewDashboard()

	d.AddLog("INFO", "Test message 1")
	d.AddLog("ERROR", "Test message 2")

	if len(d.logs) != 2 {
		t.Errorf("Expected 2 logs, got %d", len(d.logs))
	}

	if d.logs[0].Level != "INFO" {
		t.Errorf("Expected first log level INFO, got %s", d.logs[0].Level)
	}

	if d.logs[1].Message != "Test message 2" {
		t.Errorf("Expected second log message 'Test message 2', got %s", d.logs[1].Message)
	}
}

func TestDashboard_LogTrimming(t *testing.T) {
	d := NewDashboard()
	d.maxLogs = 5

	for i := 0; i < 10; i++ {
		d.AddLog("INFO", "Message")
	}

	if len(d.logs) != 5 {
		t.Errorf("Expected %d logs after trimming, got %d", d.maxLogs, len(d.logs))
	}
}

func TestStats_Update(t *testing.T) {
	s := NewStats()

	s.Update(100, 25, 3, 512, 2)

	if s.Iterations != 100 {
		t.Errorf("Expected 100 iterations, got %d", s.Iterations)
	}
	if s.CorpusSize != 25 {
		t.Errorf("Expected corpus size 25, got %d", s.CorpusSize)
	}
	if s.SolutionsSize != 3 {
		t.Errorf("Expected solutions size 3, got %d", s.SolutionsSize)
	}
	if s.EdgesCovered != 512 {
		t.Errorf("Expected 512 edges, got %d", s.EdgesCovered)
	}
	if s.ErrorCount != 2 {
		t.Errorf("Expected error count 2, got %d", s.ErrorCount)
	}
}

func TestStats_RecordFinding(t *testing.T) {
	s := NewStats()

	s.RecordFinding("critical")
	s.RecordFinding("high")
	s.RecordFinding("medium")
	s.RecordFinding("low")
	s.RecordFinding("unknown")

	if s.Critical != 1 {
		t.Errorf("Expected 1 critical, got %d", s.Critical)
	}
	if s.High != 1 {
		t.Errorf("Expected 1 high, got %d", s.High)
	}
	if s.Medium != 1 {
		t.Errorf("Expected 1 medium, got %d", s.Medium)
	}
	if s.Low != 2 {
		t.Errorf("Expected 2 low (low + unknown), got %d", s.Low)
	}
}

func TestStats_GetIterationsPerSec(t *testing.T) {
	s := NewStats()
	s.StartTime = time.Now().Add(-10 * time.Second)
	s.Update(1000, 0, 0, 0, 0)

	rate := s.GetIterationsPerSec()
	if rate < 90 || rate > 110 {
		t.Errorf("Expected rate near 100/s, got %f", rate)
	}
}

func TestStats_GetETA(t *testing.T) {
	s := NewStats()
	s.StartTime = time.Now().Add(-10 * time.Second)
	s.MaxIterations = 2000
	s.Update(1000, 0, 0, 0, 0)

	eta := s.GetETA()
	if eta <= 0 {
		t.Errorf("Expected positive ETA, got %v", eta)
	}
}

func TestStats_GetETA_Unbounded(t *testing.T) {
	s := NewStats()
	s.Update(1000, 0, 0, 0, 0)

	if eta := s.GetETA(); eta != 0 {
		t.Errorf("Expected zero ETA with no MaxIterations, got %v", eta)
	}
}

func TestStats_Snapshot(t *testing.T) {
	s := NewStats()

	s.Update(10, 5, 1, 100, 0)
	s.RecordFinding("high")

	snap := s.Snapshot()

	if snap.Iterations != 10 {
		t.Errorf("Snapshot Iterations: expected 10, got %d", snap.Iterations)
	}
	if snap.CorpusSize != 5 {
		t.Errorf("Snapshot CorpusSize: expected 5, got %d", snap.CorpusSize)
	}
	if snap.High != 1 {
		t.Errorf("Snapshot High: expected 1, got %d", snap.High)
	}
}

func TestProgressBar(t *testing.T) {
	p := NewProgressBar(50)

	p.SetProgress(0.5)
	p.SetETA("5m30s")

	rendered := p.Render()

	if rendered == "" {
		t.Error("ProgressBar Render returned empty string")
	}

	if len(rendered) < 10 {
		t.Error("ProgressBar Render output too short")
	}
}

func TestProgressBar_Bounds(t *testing.T) {
	p := NewProgressBar(50)

	p.SetProgress(-0.5)
	if p.percentage != 0 {
		t.Errorf("Expected percentage clamped to 0, got %f", p.percentage)
	}

	p.SetProgress(1.5)
	if p.percentage != 1 {
		t.Errorf("Expected percentage clamped to 1, got %f", p.percentage)
	}
}

func TestSpinnerProgress(t *testing.T) {
	s := NewSpinnerProgress()

	s.SetText("working...")

	if !s.running {
		t.Error("Spinner should be running by default")
	}

	initialFrame := s.frame
	s.Tick()
	s.Tick()

	if s.frame == initialFrame {
		t.Error("Spinner frame should change after Tick")
	}

	s.Stop()
	if s.running {
		t.Error("Spinner should not be running after Stop")
	}
}

func TestStatus_String(t *testing.T) {
	tests := []struct {
		status   Status
		expected string
	}{
		{StatusIdle, "Idle"},
		{StatusRunning, "Running"},
		{StatusStopped, "Stopped"},
		{StatusCompleted, "Completed"},
	}

	for _, tt := range tests {
		if tt.status.String() != tt.expected {
			t.Errorf("Status.String(): expected %s, got %s", tt.expected, tt.status.String())
		}
	}
}

func TestFormatNumber(t *testing.T) {
	tests := []struct {
		input    int64
		expected string
	}{
		{0, "0"},
		{999, "999"},
		{1000, "1.0K"},
		{1500, "1.5K"},
		{1000000, "1.0M"},
		{1500000, "1.5M"},
	}

	for _, tt := range tests {
		result := formatNumber(tt.input)
		if result != tt.expected {
			t.Errorf("formatNumber(%d): expected %s, got %s", tt.input, tt.expected, result)
		}
	}
}

func TestFormatDuration(t *testing.T) {
	tests := []struct {
		input    time.Duration
		expected string
	}{
		{50 * time.Millisecond, "50ms"},
		{1500 * time.Millisecond, "1.5s"},
		{90 * time.Second, "1m30s"},
		{90 * time.Minute, "1h30m"},
	}

	for _, tt := range tests {
		result := formatDuration(tt.input)
		if result != tt.expected {
			t.Errorf("formatDuration(%v): expected %s, got %s", tt.input, tt.expected, result)
		}
	}
}

func BenchmarkStats_Update(b *testing.B) {
	s := NewStats()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		s.Update(int64(i), int64(i), 0, int64(i), 0)
	}
}

func BenchmarkStats_Snapshot(b *testing.B) {
	s := NewStats()
	s.Update(1000, 100, 5, 2000, 1)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		s.Snapshot()
	}
}

func BenchmarkDashboard_View(b *testing.B) {
	d := NewDashboard()
	d.width = 120
	d.height = 40
	d.Start()

	for i := 0; i < 20; i++ {
		d.AddLog("INFO", "Test message")
	}

	d.stats.Update(1000, 100, 5, 2000, 1)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		d.View()
	}
}
