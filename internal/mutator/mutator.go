// Package mutator provides the five typed Move-argument mutation
// strategies and a weighted orchestrator that composes
// them, adapted from a byte-level AFL mutator registry into one that
// mutates typed fuzzinput.Input arguments directly.
package mutator

import (
	"crypto/rand"
	"encoding/binary"
	"sync"

	"github.com/movefuzz/movefuzz/pkg/types"
)

// Strategy mutates a single argument in place, returning the mutated
// copy. Implementations never mutate v's backing BigUint/Vector in
// place; they always build a fresh types.Value.
type Strategy interface {
	Name() string
	Mutate(v types.Value) types.Value
}

// --- Registry: manages available strategies ---

// Registry stores named Strategies in insertion order, the same shape a
// byte-level mutator pool used, generalised to typed strategies.
type Registry struct {
	mu     sync.RWMutex
	byName map[string]Strategy
	order  []string
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{byName: make(map[string]Strategy)}
}

// Register adds a Strategy, replacing any prior one under the same name.
func (r *Registry) Register(s Strategy) {
	r.mu.Lock()
	defer r.mu.Unlock()
	name := s.Name()
	if _, exists := r.byName[name]; !exists {
		r.order = append(r.order, name)
	}
	r.byName[name] = s
}

// Get retrieves a Strategy by name.
func (r *Registry) Get(name string) (Strategy, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.byName[name]
	return s, ok
}

// All returns every registered Strategy in insertion order.
func (r *Registry) All() []Strategy {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Strategy, 0, len(r.order))
	for _, name := range r.order {
		out = append(out, r.byName[name])
	}
	return out
}

// --- WeightedSelector: weighted random strategy pick ---

// WeightedSelector picks a Strategy from a pool with per-name weights,
// falling back to a uniform pick for any unweighted member: 40/40/20 for
// Sui (power-of-two/boundary/random), random-or-bitflip for Aptos.
type WeightedSelector struct {
	mu      sync.Mutex
	weights map[string]float64
}

// NewWeightedSelector constructs a WeightedSelector with no weights set
// (every strategy defaults to weight 1, i.e. uniform selection).
func NewWeightedSelector() *WeightedSelector {
	return &WeightedSelector{weights: make(map[string]float64)}
}

// SetWeight assigns a selection weight to a strategy name. Weights need
// not sum to 1; they are normalised at selection time. A weight of 0 is
// a valid, explicit "never select this strategy" and is recorded as
// such rather than ignored; negative weights clamp to 0.
func (s *WeightedSelector) SetWeight(name string, weight float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if weight < 0 {
		weight = 0
	}
	s.weights[name] = weight
}

// Select picks one Strategy from the pool according to the configured
// weights. Falls back to a uniform pick over pool if every member's
// weight is 0; returns nil if the pool itself is empty.
func (s *WeightedSelector) Select(pool []Strategy) Strategy {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(pool) == 0 {
		return nil
	}

	var total float64
	for _, st := range pool {
		if w, ok := s.weights[st.Name()]; ok {
			total += w
		} else {
			total += 1.0
		}
	}
	if total <= 0 {
		return pool[secureRandomInt(len(pool))]
	}

	target := float64(secureRandomInt(1_000_000)) / 1_000_000.0 * total
	var cumulative float64
	for _, st := range pool {
		w := 1.0
		if set, ok := s.weights[st.Name()]; ok {
			w = set
		}
		if w <= 0 {
			continue
		}
		cumulative += w
		if cumulative >= target {
			return st
		}
	}
	return pool[len(pool)-1]
}

// --- Orchestrator: registry + selector + fallback ---

// Orchestrator picks one Strategy per mutation request and applies it,
// falling back to the Random strategy when the chosen strategy's pool is
// empty (e.g. Boundary/PowerOfTwo on a non-integer value).
type Orchestrator struct {
	registry *Registry
	selector *WeightedSelector
	fallback Strategy
}

// NewSuiOrchestrator builds the 40/40/20 power-of-two/boundary/random
// orchestrator used for the Sui adapter. Bitflip and Monotonic are
// deliberately not registered here: WeightedSelector.Select defaults any
// pool member without an explicit weight to 1.0, so adding them would
// silently dilute the fixed 40/40/20 split instead of extending it.
func NewSuiOrchestrator() *Orchestrator {
	r := NewRegistry()
	r.Register(NewPowerOfTwoStrategy())
	r.Register(NewBoundaryStrategy())
	r.Register(NewRandomStrategy())

	w := NewWeightedSelector()
	w.SetWeight("power-of-two", 0.4)
	w.SetWeight("boundary", 0.4)
	w.SetWeight("random", 0.2)

	return &Orchestrator{registry: r, selector: w, fallback: NewRandomStrategy()}
}

// NewAptosOrchestrator builds the random-or-bitflip orchestrator used
// for the Aptos adapter.
func NewAptosOrchestrator() *Orchestrator {
	r := NewRegistry()
	r.Register(NewRandomStrategy())
	r.Register(NewBitflipStrategy())

	w := NewWeightedSelector()
	w.SetWeight("random", 0.5)
	w.SetWeight("bitflip", 0.5)

	return &Orchestrator{registry: r, selector: w, fallback: NewRandomStrategy()}
}

// Mutate selects a strategy and applies it to v. If the selected
// strategy cannot handle v's kind, falls back to Random.
func (o *Orchestrator) Mutate(v types.Value) types.Value {
	pool := o.registry.All()
	chosen := o.selector.Select(pool)
	if chosen == nil {
		chosen = o.fallback
	}
	if a, ok := chosen.(applier); ok && !a.Applies(v) {
		chosen = o.fallback
	}
	return chosen.Mutate(v)
}

// MutateArgs mutates exactly one argument of args, chosen uniformly at
// random, in a freshly allocated slice; the original slice is untouched.
func (o *Orchestrator) MutateArgs(args []types.Value) []types.Value {
	if len(args) == 0 {
		return args
	}
	out := make([]types.Value, len(args))
	copy(out, args)
	idx := secureRandomInt(len(out))
	out[idx] = o.Mutate(out[idx])
	return out
}

// --- Helper functions ---

// secureRandomInt returns a cryptographically random int in [0, max).
func secureRandomInt(max int) int {
	if max <= 0 {
		return 0
	}
	var b [8]byte
	if _, err := rand.Read(b[:]); err != nil {
		return 0
	}
	n := binary.BigEndian.Uint64(b[:])
	return int(n % uint64(max))
}

// secureRandomUint64 returns a cryptographically random uint64.
func secureRandomUint64() uint64 {
	var b [8]byte
	if _, err := rand.Read(b[:]); err != nil {
		return 0
	}
	return binary.BigEndian.Uint64(b[:])
}
