package engine

import (
	"context"
	"testing"
	"time"

	"github.com/movefuzz/movefuzz/internal/adapter"
	"github.com/movefuzz/movefuzz/internal/fuzzinput"
	"github.com/movefuzz/movefuzz/internal/mutator"
	"github.com/movefuzz/movefuzz/internal/vmexec"
	"github.com/movefuzz/movefuzz/pkg/types"
)

// fakeAdapter is a minimal ChainAdapter for engine unit tests: each
// execution returns a fixed PC trace so coverage feedback fires exactly
// once (on the very first execution, since every subsequent run repeats
// the same trace and therefore the same best-seen high-water mark).
type fakeAdapter struct {
	trace []uint32
	calls int
}

func (f *fakeAdapter) Name() string { return "fake" }

func (f *fakeAdapter) SeedInput(ctx context.Context) (*fuzzinput.Input, error) {
	return &fuzzinput.Input{
		Kind:   fuzzinput.PayloadEntryFunction,
		Target: types.EntryFunctionID{ModuleName: "m", FunctionName: "f"},
		Args:   []types.Value{{Kind: types.KindU64, Int: types.NewBigUint(1)}},
	}, nil
}

func (f *fakeAdapter) Execute(ctx context.Context, in *fuzzinput.Input) (vmexec.TransactionResult, vmexec.Observation, error) {
	f.calls++
	return vmexec.TransactionResult{Outcome: vmexec.Outcome{Kind: vmexec.OutcomeOk}},
		vmexec.Observation{PCTrace: f.trace, ExitKind: vmexec.ExitOk},
		nil
}

func (f *fakeAdapter) ExtractObjectChanges(result vmexec.TransactionResult) []adapter.ObjectChange {
	return nil
}

func (f *fakeAdapter) BaseID(in *fuzzinput.Input) uint32 { return 1 }

// objectInjectingAdapter wraps fakeAdapter and additionally implements
// adapter.ObjectInjectingAdapter, to verify the engine actually invokes
// the optional object-cache capability when the adapter supports it.
type objectInjectingAdapter struct {
	fakeAdapter
	recorded int
	injected int
}

func (f *objectInjectingAdapter) RecordObjectChanges(changes []adapter.ObjectChange) {
	f.recorded++
}

func (f *objectInjectingAdapter) InjectHistoricalVersions(in *fuzzinput.Input) {
	f.injected++
}

func TestEngineWiresObjectInjectorWhenSupported(t *testing.T) {
	a := &objectInjectingAdapter{fakeAdapter: fakeAdapter{trace: []uint32{1, 2, 3}}}
	e := New(a, mutator.NewSuiOrchestrator(), Config{MaxIterations: 10, Timeout: 5 * time.Second, MapSize: 256})

	seed, _ := a.SeedInput(context.Background())
	if err := e.AddInput(context.Background(), seed); err != nil {
		t.Fatalf("AddInput: %v", err)
	}
	if a.recorded == 0 {
		t.Fatalf("expected RecordObjectChanges to be called for the seed evaluation")
	}

	e.Run(context.Background())
	if a.injected == 0 {
		t.Fatalf("expected InjectHistoricalVersions to be called at least once across Run")
	}
	if a.recorded < a.injected {
		t.Fatalf("expected at least as many RecordObjectChanges calls (%d) as InjectHistoricalVersions calls (%d)", a.recorded, a.injected)
	}
}

func TestEngineSkipsObjectInjectorWhenUnsupported(t *testing.T) {
	a := &fakeAdapter{trace: []uint32{1, 2, 3}}
	e := New(a, mutator.NewSuiOrchestrator(), DefaultConfig())
	if e.objInjector != nil {
		t.Fatalf("expected objInjector to stay nil for an adapter that doesn't implement ObjectInjectingAdapter")
	}
}

func TestEngineAddInputSeedsCorpus(t *testing.T) {
	a := &fakeAdapter{trace: []uint32{1, 2, 3}}
	e := New(a, mutator.NewSuiOrchestrator(), DefaultConfig())

	seed, _ := a.SeedInput(context.Background())
	if err := e.AddInput(context.Background(), seed); err != nil {
		t.Fatalf("AddInput returned error: %v", err)
	}
	if e.Corpus().Len() != 1 {
		t.Fatalf("Corpus().Len() = %d; want 1", e.Corpus().Len())
	}
}

func TestEngineRunRespectsIterationCap(t *testing.T) {
	a := &fakeAdapter{trace: []uint32{1, 2, 3}}
	e := New(a, mutator.NewSuiOrchestrator(), Config{MaxIterations: 5, Timeout: 5 * time.Second, MapSize: 256})

	seed, _ := a.SeedInput(context.Background())
	e.AddInput(context.Background(), seed)

	stats := e.Run(context.Background())
	if stats.Iterations != 5 {
		t.Fatalf("Iterations = %d; want 5", stats.Iterations)
	}
	if stats.TimedOut {
		t.Fatalf("expected a run bounded by MaxIterations to not report TimedOut")
	}
}

func TestEngineRunHonoursTimeout(t *testing.T) {
	a := &fakeAdapter{trace: []uint32{1, 2, 3}}
	e := New(a, mutator.NewSuiOrchestrator(), Config{MaxIterations: 1_000_000_000, Timeout: 50 * time.Millisecond, MapSize: 256})

	seed, _ := a.SeedInput(context.Background())
	e.AddInput(context.Background(), seed)

	start := time.Now()
	stats := e.Run(context.Background())
	elapsed := time.Since(start)

	if !stats.TimedOut {
		t.Fatalf("expected TimedOut=true for a run exceeding its timeout")
	}
	if elapsed > 2*time.Second {
		t.Fatalf("Run took %v; expected it to return promptly after the configured timeout", elapsed)
	}
}

func TestEngineStopRequestedEndsLoop(t *testing.T) {
	a := &fakeAdapter{trace: []uint32{1, 2, 3}}
	e := New(a, mutator.NewSuiOrchestrator(), Config{MaxIterations: 1_000_000_000, Timeout: 10 * time.Second, MapSize: 256})

	seed, _ := a.SeedInput(context.Background())
	e.AddInput(context.Background(), seed)
	e.Stop()

	stats := e.Run(context.Background())
	if stats.TimedOut {
		t.Fatalf("expected a stop-requested run to not report TimedOut")
	}
}

func TestEngineCorpusIsMonotone(t *testing.T) {
	a := &fakeAdapter{trace: []uint32{1, 2, 3}}
	e := New(a, mutator.NewSuiOrchestrator(), Config{MaxIterations: 50, Timeout: 5 * time.Second, MapSize: 256})

	seed, _ := a.SeedInput(context.Background())
	e.AddInput(context.Background(), seed)

	prev := e.Corpus().Len()
	for i := 0; i < 5; i++ {
		e.Run(context.Background())
		cur := e.Corpus().Len()
		if cur < prev {
			t.Fatalf("corpus shrank from %d to %d", prev, cur)
		}
		prev = cur
	}
}
