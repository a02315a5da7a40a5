package coverage

import (
	"sync"

	"github.com/movefuzz/movefuzz/internal/fuzzinput"
)

// Testcase wraps one Input with the scheduler metadata the engine tracks
// alongside it.
type Testcase struct {
	ID             int
	Input          *fuzzinput.Input
	Hash           string
	ExecutionCount int64
	CoverageEdges  int
}

// Set is an insertion-ordered, hash-deduplicated collection of Testcases.
// Corpus and Solutions are both a Set: the Corpus holds inputs that
// expanded coverage; Solutions holds inputs that triggered a bug. Both
// are capacity-unbounded and live only in memory.
type Set struct {
	mu      sync.RWMutex
	entries []*Testcase
	byHash  map[string]*Testcase
	nextID  int
}

// NewSet constructs an empty Set.
func NewSet() *Set {
	return &Set{byHash: make(map[string]*Testcase)}
}

// Add inserts an Input, deduplicating by content hash. Returns the
// resulting Testcase and whether it was newly inserted (false means an
// identical input already lived in the set).
func (s *Set) Add(in *fuzzinput.Input) (*Testcase, bool) {
	hash := in.ContentHash()

	s.mu.Lock()
	defer s.mu.Unlock()

	if existing, ok := s.byHash[hash]; ok {
		return existing, false
	}

	tc := &Testcase{ID: s.nextID, Input: in, Hash: hash}
	s.nextID++
	s.entries = append(s.entries, tc)
	s.byHash[hash] = tc
	return tc, true
}

// Len returns the number of entries currently held. It is monotonically
// non-decreasing across the lifetime of a Set — entries are never
// removed, only added.
func (s *Set) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

// At returns the testcase at a given insertion-order index.
func (s *Set) At(i int) *Testcase {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if i < 0 || i >= len(s.entries) {
		return nil
	}
	return s.entries[i]
}

// All returns a snapshot slice of every testcase, in insertion order.
func (s *Set) All() []*Testcase {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*Testcase, len(s.entries))
	copy(out, s.entries)
	return out
}

// Contains reports whether an input with this content hash is already
// present.
func (s *Set) Contains(hash string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.byHash[hash]
	return ok
}

// Scheduler picks the next corpus id to fuzz. The default policy is
// strict queue order (round-robin over insertion order), which — unlike
// a wall-clock-seeded pick — keeps a fixed RNG seed's run fully
// deterministic.
type Scheduler struct {
	mu  sync.Mutex
	pos int
}

// NewScheduler constructs a queue-order Scheduler.
func NewScheduler() *Scheduler {
	return &Scheduler{}
}

// Next returns the next Testcase to fuzz from corpus, or nil if corpus is
// empty.
func (sch *Scheduler) Next(corpus *Set) *Testcase {
	n := corpus.Len()
	if n == 0 {
		return nil
	}

	sch.mu.Lock()
	idx := sch.pos % n
	sch.pos++
	sch.mu.Unlock()

	return corpus.At(idx)
}
