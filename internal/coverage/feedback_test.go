package coverage

import (
	"testing"

	"github.com/movefuzz/movefuzz/internal/vmhook"
)

func TestCoverageFeedbackFiresOnNewHighWaterMark(t *testing.T) {
	f := NewCoverageFeedback(256)
	m := NewMap(256)

	m.RecordTrace(1, []uint32{1, 2, 3})
	if !f.IsInteresting(m, FeedbackInput{}) {
		t.Fatalf("expected first trace to be interesting")
	}
	if f.IsInteresting(m, FeedbackInput{}) {
		t.Fatalf("expected identical repeat trace to not be interesting")
	}
}

func TestNewAbortFeedbackDedupesCodes(t *testing.T) {
	f := NewNewAbortFeedback()
	code := uint64(42)

	if !f.IsInteresting(nil, FeedbackInput{LastAbort: &code}) {
		t.Fatalf("expected first occurrence of a new abort code to be interesting")
	}
	if f.IsInteresting(nil, FeedbackInput{LastAbort: &code}) {
		t.Fatalf("expected repeat of the same abort code to not be interesting")
	}
}

func TestShiftFeedbackFiresOnAnyEvent(t *testing.T) {
	f := NewShiftFeedback()
	if f.IsInteresting(nil, FeedbackInput{}) {
		t.Fatalf("expected no shift events to not be interesting")
	}
	in := FeedbackInput{ShiftEvents: []vmhook.ShiftViolation{{}}}
	if !f.IsInteresting(nil, in) || !f.IsInteresting(nil, in) {
		t.Fatalf("expected every execution with a shift event to be interesting")
	}
}

func TestCompositeFeedbackEvaluatesAllMembers(t *testing.T) {
	abortFeedback := NewNewAbortFeedback()
	composite := NewCompositeFeedback(NewShiftFeedback(), abortFeedback)

	code := uint64(7)
	if !composite.IsInteresting(nil, FeedbackInput{LastAbort: &code}) {
		t.Fatalf("expected composite to report interesting via the abort member")
	}
	if composite.IsInteresting(nil, FeedbackInput{LastAbort: &code}) {
		t.Fatalf("expected composite to not re-report the same abort code")
	}
}
