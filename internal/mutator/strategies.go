package mutator

import (
	"crypto/rand"

	"github.com/movefuzz/movefuzz/pkg/types"
)

// Applies reports whether a strategy can meaningfully handle v's kind;
// the Orchestrator consults this via an optional interface to decide
// whether to fall back to Random.
type applier interface {
	Applies(v types.Value) bool
}

// --- Random ---

// RandomStrategy replaces an argument with a uniformly random value of
// its own declared type; for vectors it recurses into a random element
// instead of replacing the whole vector.
type RandomStrategy struct{}

// NewRandomStrategy constructs a RandomStrategy.
func NewRandomStrategy() *RandomStrategy { return &RandomStrategy{} }

func (s *RandomStrategy) Name() string { return "random" }

func (s *RandomStrategy) Mutate(v types.Value) types.Value {
	switch v.Kind {
	case types.KindBool:
		v.Bool = secureRandomInt(2) == 1
		return v
	case types.KindAddress:
		var addr [32]byte
		rand.Read(addr[:])
		v.Address = addr
		return v
	case types.KindVector:
		if len(v.Vector) == 0 {
			return v
		}
		out := make([]types.Value, len(v.Vector))
		copy(out, v.Vector)
		idx := secureRandomInt(len(out))
		out[idx] = s.Mutate(out[idx])
		v.Vector = out
		return v
	case types.KindObjectRef:
		return v
	default:
		if !v.Kind.IsInteger() {
			return v
		}
		v.Int = randomIntForWidth(v.Kind.BitWidth())
		return v
	}
}

func randomIntForWidth(width int) *types.BigUint {
	w0, w1, w2, w3 := secureRandomUint64(), secureRandomUint64(), secureRandomUint64(), secureRandomUint64()
	return types.NewBigUintWords(w0, w1, w2, w3).Shl(0, width)
}

// --- Boundary ---

// BoundaryStrategy samples from {0, 1, TYPE_MAX-1, TYPE_MAX} for integer
// kinds; zero or a fresh random value for bool/address.
type BoundaryStrategy struct{}

// NewBoundaryStrategy constructs a BoundaryStrategy.
func NewBoundaryStrategy() *BoundaryStrategy { return &BoundaryStrategy{} }

func (s *BoundaryStrategy) Name() string { return "boundary" }

func (s *BoundaryStrategy) Applies(v types.Value) bool {
	return v.Kind.IsInteger() || v.Kind == types.KindBool || v.Kind == types.KindAddress
}

func (s *BoundaryStrategy) Mutate(v types.Value) types.Value {
	switch {
	case v.Kind == types.KindBool:
		if secureRandomInt(2) == 0 {
			v.Bool = false
		} else {
			v.Bool = secureRandomInt(2) == 1
		}
		return v
	case v.Kind == types.KindAddress:
		if secureRandomInt(2) == 0 {
			v.Address = [32]byte{}
		} else {
			var addr [32]byte
			rand.Read(addr[:])
			v.Address = addr
		}
		return v
	case v.Kind.IsInteger():
		width := v.Kind.BitWidth()
		max := maxForWidth(width)
		boundaries := []*types.BigUint{
			types.NewBigUint(0),
			types.NewBigUint(1),
			decrementOne(max),
			max,
		}
		v.Int = boundaries[secureRandomInt(len(boundaries))]
		return v
	default:
		return v
	}
}

// maxForWidth returns the all-ones value truncated to width bits, i.e.
// TYPE_MAX for that integer kind.
func maxForWidth(width int) *types.BigUint {
	allOnes := types.NewBigUintWords(^uint64(0), ^uint64(0), ^uint64(0), ^uint64(0))
	return allOnes.Shl(0, width)
}

// decrementOne returns v - 1, assuming v > 0 (true for every TYPE_MAX).
func decrementOne(v *types.BigUint) *types.BigUint {
	words := v.Words()
	for i := 0; i < 4; i++ {
		if words[i] != 0 {
			words[i]--
			break
		}
		words[i] = ^uint64(0)
	}
	return types.NewBigUintWords(words[0], words[1], words[2], words[3])
}

// --- Power-of-two ---

// PowerOfTwoStrategy generates 2^k, 2^k-1, or 2^k+1 with p=0.7, or pulls
// from a small curated list of algorithmic constants with p=0.3, the
// class of values that tends to sit right at a lossy-shift boundary.
type PowerOfTwoStrategy struct{}

// NewPowerOfTwoStrategy constructs a PowerOfTwoStrategy.
func NewPowerOfTwoStrategy() *PowerOfTwoStrategy { return &PowerOfTwoStrategy{} }

func (s *PowerOfTwoStrategy) Name() string { return "power-of-two" }

func (s *PowerOfTwoStrategy) Applies(v types.Value) bool { return v.Kind.IsInteger() }

// curatedConstants are algorithmic constants known to trip off-by-one and
// truncation bugs in shift-heavy code.
var curatedConstants = []uint64{0xFFFFFFFF, 0x80000000, 0x100000000, 0x7FFFFFFF, 1 << 20, 1<<32 - 1}

func (s *PowerOfTwoStrategy) Mutate(v types.Value) types.Value {
	if !v.Kind.IsInteger() {
		return v
	}
	width := v.Kind.BitWidth()

	if secureRandomInt(10) < 3 {
		c := curatedConstants[secureRandomInt(len(curatedConstants))]
		v.Int = types.NewBigUint(c).Shl(0, width)
		return v
	}

	k := secureRandomInt(width)
	base := types.NewBigUint(1).Shl(k, width)
	switch secureRandomInt(3) {
	case 0:
		v.Int = base
	case 1:
		v.Int = decrementOne(base)
	default:
		v.Int = incrementOne(base, width)
	}
	return v
}

func incrementOne(v *types.BigUint, width int) *types.BigUint {
	words := v.Words()
	for i := 0; i < 4; i++ {
		words[i]++
		if words[i] != 0 {
			break
		}
	}
	return types.NewBigUintWords(words[0], words[1], words[2], words[3]).Shl(0, width)
}

// --- Bitflip ---

// BitflipStrategy bitwise-NOTs the current argument, useful for dense
// value exploration around an existing seed.
type BitflipStrategy struct{}

// NewBitflipStrategy constructs a BitflipStrategy.
func NewBitflipStrategy() *BitflipStrategy { return &BitflipStrategy{} }

func (s *BitflipStrategy) Name() string { return "bitflip" }

func (s *BitflipStrategy) Applies(v types.Value) bool {
	return v.Kind.IsInteger() || v.Kind == types.KindBool
}

func (s *BitflipStrategy) Mutate(v types.Value) types.Value {
	switch {
	case v.Kind == types.KindBool:
		v.Bool = !v.Bool
		return v
	case v.Kind.IsInteger():
		width := v.Kind.BitWidth()
		words := v.Int.Words()
		for i := range words {
			words[i] = ^words[i]
		}
		v.Int = types.NewBigUintWords(words[0], words[1], words[2], words[3]).Shl(0, width)
		return v
	default:
		return v
	}
}

// --- Monotonic ---

// MonotonicStrategy emits strictly-positive, slowly growing values biased
// to cross 2^32 quickly, used by tests that need shift operands on the
// high half of a u64.
type MonotonicStrategy struct {
	counter uint64
}

// NewMonotonicStrategy constructs a MonotonicStrategy starting just below
// 2^32 so successive calls cross the boundary quickly.
func NewMonotonicStrategy() *MonotonicStrategy {
	return &MonotonicStrategy{counter: (uint64(1) << 32) - 8}
}

func (s *MonotonicStrategy) Name() string { return "monotonic" }

func (s *MonotonicStrategy) Applies(v types.Value) bool { return v.Kind.IsInteger() }

func (s *MonotonicStrategy) Mutate(v types.Value) types.Value {
	if !v.Kind.IsInteger() {
		return v
	}
	s.counter++
	width := v.Kind.BitWidth()
	v.Int = types.NewBigUint(s.counter).Shl(0, width)
	return v
}
