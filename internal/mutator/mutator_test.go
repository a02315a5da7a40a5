package mutator

import (
	"testing"

	"github.com/movefuzz/movefuzz/pkg/types"
)

func u64Value(low uint64) types.Value {
	return types.Value{Kind: types.KindU64, Int: types.NewBigUint(low)}
}

func TestBoundaryStrategyOnlyProducesBoundaryValues(t *testing.T) {
	s := NewBoundaryStrategy()
	max := maxForWidth(64).Uint64()
	seen := map[uint64]bool{0: false, 1: false, max - 1: false, max: false}

	for i := 0; i < 200; i++ {
		out := s.Mutate(u64Value(5))
		v := out.Int.Uint64()
		if _, ok := seen[v]; !ok {
			t.Fatalf("boundary mutate produced non-boundary value %d", v)
		}
		seen[v] = true
	}
}

func TestPowerOfTwoStrategyProducesIntegerValues(t *testing.T) {
	s := NewPowerOfTwoStrategy()
	for i := 0; i < 50; i++ {
		out := s.Mutate(u64Value(1))
		if out.Kind != types.KindU64 || out.Int == nil {
			t.Fatalf("power-of-two mutate produced invalid value %+v", out)
		}
	}
}

func TestBitflipStrategyInvertsBool(t *testing.T) {
	s := NewBitflipStrategy()
	v := types.Value{Kind: types.KindBool, Bool: true}
	out := s.Mutate(v)
	if out.Bool {
		t.Fatalf("expected bitflip to invert bool true -> false")
	}
}

func TestBitflipStrategyInvertsInteger(t *testing.T) {
	s := NewBitflipStrategy()
	v := u64Value(0)
	out := s.Mutate(v)
	if out.Int.Uint64() != maxForWidth(64).Uint64() {
		t.Fatalf("expected bitwise-NOT of 0 (u64) to be all-ones, got %d", out.Int.Uint64())
	}
}

func TestMonotonicStrategyCrosses32BitBoundary(t *testing.T) {
	s := NewMonotonicStrategy()
	crossed := false
	var prev uint64
	for i := 0; i < 20; i++ {
		out := s.Mutate(u64Value(0))
		v := out.Int.Uint64()
		if i > 0 && v <= prev {
			t.Fatalf("expected monotonic strategy to strictly increase, got %d after %d", v, prev)
		}
		if v >= (uint64(1) << 32) {
			crossed = true
		}
		prev = v
	}
	if !crossed {
		t.Fatalf("expected monotonic strategy to cross 2^32 within 20 calls")
	}
}

func TestRandomStrategyRecursesIntoVector(t *testing.T) {
	s := NewRandomStrategy()
	v := types.Value{
		Kind:     types.KindVector,
		ElemKind: types.KindU8,
		Vector:   []types.Value{{Kind: types.KindU8, Int: types.NewBigUint(1)}, {Kind: types.KindU8, Int: types.NewBigUint(2)}},
	}
	out := s.Mutate(v)
	if len(out.Vector) != 2 {
		t.Fatalf("expected vector length to stay 2, got %d", len(out.Vector))
	}
}

func TestSuiOrchestratorMutatesOneArgument(t *testing.T) {
	o := NewSuiOrchestrator()
	// 6, 10 and 12 are not boundary values and not 2^k or 2^k±1, so no
	// Sui strategy can hand back an unchanged argument except Random by
	// a 1-in-2^64 chance.
	args := []types.Value{u64Value(6), u64Value(10), u64Value(12)}
	out := o.MutateArgs(args)
	if len(out) != len(args) {
		t.Fatalf("MutateArgs changed arg count: %d vs %d", len(out), len(args))
	}
	if out[0].Int.Uint64() == 6 && out[1].Int.Uint64() == 10 && out[2].Int.Uint64() == 12 {
		t.Fatalf("expected one argument to change (extremely unlikely all three matched originals)")
	}
	if args[0].Int.Uint64() != 6 {
		t.Fatalf("expected MutateArgs to not mutate the original slice in place")
	}
}

func TestWeightedSelectorRespectsConfiguredWeight(t *testing.T) {
	r := NewRegistry()
	r.Register(NewRandomStrategy())
	r.Register(NewBoundaryStrategy())

	w := NewWeightedSelector()
	w.SetWeight("boundary", 1.0)
	w.SetWeight("random", 0.0) // explicitly disabled, not just unweighted

	pool := r.All()
	counts := map[string]int{}
	for i := 0; i < 100; i++ {
		chosen := w.Select(pool)
		counts[chosen.Name()]++
	}
	if counts["boundary"] != 100 {
		t.Fatalf("expected boundary to be selected every time, counts=%v", counts)
	}
	if counts["random"] != 0 {
		t.Fatalf("expected random to never be selected at weight 0, counts=%v", counts)
	}
}
