package coverage

import "testing"

func TestCrashObjectiveFiresOnlyOnCrash(t *testing.T) {
	o := NewCrashObjective()
	if o.IsSolution(nil, FeedbackInput{Crashed: false}) {
		t.Fatalf("expected no crash to not be a solution")
	}
	if !o.IsSolution(nil, FeedbackInput{Crashed: true}) {
		t.Fatalf("expected a crash to be a solution")
	}
}

func TestNewAbortObjectiveUnrestrictedDedupes(t *testing.T) {
	o := NewNewAbortObjective(nil)
	code := uint64(9)

	if !o.IsSolution(nil, FeedbackInput{LastAbort: &code}) {
		t.Fatalf("expected first occurrence to be a solution")
	}
	if o.IsSolution(nil, FeedbackInput{LastAbort: &code}) {
		t.Fatalf("expected repeat occurrence to not be a solution")
	}
}

func TestNewAbortObjectiveRestrictedToTargets(t *testing.T) {
	o := NewNewAbortObjective([]uint64{1, 2})
	other := uint64(3)
	target := uint64(1)

	if o.IsSolution(nil, FeedbackInput{LastAbort: &other}) {
		t.Fatalf("expected a non-target abort code to not be a solution")
	}
	if !o.IsSolution(nil, FeedbackInput{LastAbort: &target}) {
		t.Fatalf("expected a target abort code to be a solution")
	}
}

func TestCompositeObjectiveUnion(t *testing.T) {
	composite := NewCompositeObjective(NewCrashObjective(), NewShiftOverflowObjective())
	if !composite.IsSolution(nil, FeedbackInput{Crashed: true}) {
		t.Fatalf("expected crash member to make the composite a solution")
	}
	if composite.IsSolution(nil, FeedbackInput{}) {
		t.Fatalf("expected no members firing to not be a solution")
	}
}
