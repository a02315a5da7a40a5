package coverage

// Objective decides whether an execution should be promoted into the
// Solutions set. Unlike Feedback, an Objective is allowed
// to look at the crash axis.
type Objective interface {
	IsSolution(edgeMap *Map, in FeedbackInput) bool
}

// CrashObjective always fires when the executor classified the outcome
// as ExitKind=Crash: crashes are always promoted.
type CrashObjective struct{}

// NewCrashObjective constructs a CrashObjective.
func NewCrashObjective() *CrashObjective { return &CrashObjective{} }

func (o *CrashObjective) IsSolution(_ *Map, in FeedbackInput) bool {
	return in.Crashed
}

// ShiftOverflowObjective promotes an input whenever the execution
// produced at least one lossy-shift violation, regardless of whether it
// also counted as interesting coverage.
type ShiftOverflowObjective struct{}

// NewShiftOverflowObjective constructs a ShiftOverflowObjective.
func NewShiftOverflowObjective() *ShiftOverflowObjective { return &ShiftOverflowObjective{} }

func (o *ShiftOverflowObjective) IsSolution(_ *Map, in FeedbackInput) bool {
	return len(in.ShiftEvents) > 0
}

// NewAbortObjective promotes an input the first time it reaches a Move
// abort code, optionally restricted to a caller-supplied set of target
// codes; an empty/nil Targets set means any code is a solution.
type NewAbortObjective struct {
	Targets map[uint64]struct{} // nil or empty means unrestricted
	seen    map[uint64]struct{}
}

// NewNewAbortObjective constructs a NewAbortObjective. targets may be nil
// to accept any abort code.
func NewNewAbortObjective(targets []uint64) *NewAbortObjective {
	var set map[uint64]struct{}
	if len(targets) > 0 {
		set = make(map[uint64]struct{}, len(targets))
		for _, t := range targets {
			set[t] = struct{}{}
		}
	}
	return &NewAbortObjective{Targets: set, seen: make(map[uint64]struct{})}
}

func (o *NewAbortObjective) IsSolution(_ *Map, in FeedbackInput) bool {
	if in.LastAbort == nil {
		return false
	}
	code := *in.LastAbort
	if len(o.Targets) > 0 {
		if _, wanted := o.Targets[code]; !wanted {
			return false
		}
	}
	if _, ok := o.seen[code]; ok {
		return false
	}
	o.seen[code] = struct{}{}
	return true
}

// CompositeObjective OR-composes Objectives the same way
// CompositeFeedback does: every member is evaluated so its own dedup
// state stays current, and the input is a solution if any member fired.
type CompositeObjective struct {
	members []Objective
}

// NewCompositeObjective builds a CompositeObjective from its members.
func NewCompositeObjective(members ...Objective) *CompositeObjective {
	return &CompositeObjective{members: members}
}

func (c *CompositeObjective) IsSolution(edgeMap *Map, in FeedbackInput) bool {
	solution := false
	for _, m := range c.members {
		if m.IsSolution(edgeMap, in) {
			solution = true
		}
	}
	return solution
}
