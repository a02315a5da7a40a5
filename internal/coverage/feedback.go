package coverage

import "github.com/movefuzz/movefuzz/internal/vmhook"

// Feedback decides whether an execution is "interesting" enough to
// promote its input into the Corpus. A Feedback never
// inspects the crash/ExitKind axis — that is the Objective's job.
type Feedback interface {
	// IsInteresting reports whether this execution should promote its
	// input, and records whatever state it needs to judge future
	// executions (e.g. a new best-seen edge count).
	IsInteresting(edgeMap *Map, observation FeedbackInput) bool
}

// FeedbackInput is the subset of an execution's observation a Feedback
// or Objective needs. It deliberately avoids importing vmexec to keep
// coverage a leaf package; vmexec constructs one of these per execution.
type FeedbackInput struct {
	LastAbort   *uint64
	ShiftEvents []vmhook.ShiftViolation
	Crashed     bool
}

// CoverageFeedback promotes an input whenever it sets a new high-water
// mark somewhere in the edge map's hitcounts — the classical AFL
// "new coverage" rule, generalized from per-edge novelty to a best-seen
// count.8's coverage feedback.
type CoverageFeedback struct {
	bestSeen []byte
}

// NewCoverageFeedback constructs a CoverageFeedback sized to mapSize.
func NewCoverageFeedback(mapSize int) *CoverageFeedback {
	if mapSize <= 0 {
		mapSize = DefaultMapSize
	}
	return &CoverageFeedback{bestSeen: make([]byte, mapSize)}
}

// IsInteresting reports whether any bucket in edgeMap exceeds the best
// value ever seen at that index, and if so raises the best-seen map to
// match (Promote's side effect happens here, not in a separate call —
// an input is only ever evaluated once).
func (f *CoverageFeedback) IsInteresting(edgeMap *Map, _ FeedbackInput) bool {
	bitmap := edgeMap.Bytes()
	if len(f.bestSeen) != len(bitmap) {
		f.bestSeen = make([]byte, len(bitmap))
	}
	interesting := false
	for i, v := range bitmap {
		if v > f.bestSeen[i] {
			f.bestSeen[i] = v
			interesting = true
		}
	}
	return interesting
}

// NewAbortFeedback promotes an input the first time it triggers a given
// Move abort code — every subsequent execution that reproduces an
// already-seen code is no longer "new".
type NewAbortFeedback struct {
	seen map[uint64]struct{}
}

// NewNewAbortFeedback constructs an empty NewAbortFeedback.
func NewNewAbortFeedback() *NewAbortFeedback {
	return &NewAbortFeedback{seen: make(map[uint64]struct{})}
}

func (f *NewAbortFeedback) IsInteresting(_ *Map, in FeedbackInput) bool {
	if in.LastAbort == nil {
		return false
	}
	code := *in.LastAbort
	if _, ok := f.seen[code]; ok {
		return false
	}
	f.seen[code] = struct{}{}
	return true
}

// ShiftFeedback promotes an input on any lossy-shift event, independent
// of whether it was previously seen: shift violations are rare enough
// that every occurrence counts as interesting, unlike abort codes which
// dedupe.
type ShiftFeedback struct{}

// NewShiftFeedback constructs a ShiftFeedback.
func NewShiftFeedback() *ShiftFeedback { return &ShiftFeedback{} }

func (f *ShiftFeedback) IsInteresting(_ *Map, in FeedbackInput) bool {
	return len(in.ShiftEvents) > 0
}

// CompositeFeedback OR-composes a set of Feedbacks: the input is
// interesting as soon as any member reports interesting, but every
// Feedback still needs
// the chance to update its own state, so — unlike a boolean OR — all
// members are always evaluated; only the reported verdict short-circuits
// logically, not in control flow.
type CompositeFeedback struct {
	members []Feedback
}

// NewCompositeFeedback builds a CompositeFeedback from its members, in
// the order they should be evaluated.
func NewCompositeFeedback(members ...Feedback) *CompositeFeedback {
	return &CompositeFeedback{members: members}
}

func (c *CompositeFeedback) IsInteresting(edgeMap *Map, in FeedbackInput) bool {
	interesting := false
	for _, m := range c.members {
		if m.IsInteresting(edgeMap, in) {
			interesting = true
		}
	}
	return interesting
}
