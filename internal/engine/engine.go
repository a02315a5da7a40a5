// Package engine implements the Engine fuzz loop:
// a single-threaded, cooperative loop over Scheduler → Mutator → Executor
// → Feedback/Objective, wrapped in a wall-clock timeout and a
// stop_requested flag checked at stage boundaries.
package engine

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/movefuzz/movefuzz/internal/adapter"
	"github.com/movefuzz/movefuzz/internal/coverage"
	"github.com/movefuzz/movefuzz/internal/fuzzinput"
	"github.com/movefuzz/movefuzz/internal/mutator"
	"github.com/movefuzz/movefuzz/internal/vmexec"
)

// DefaultTimeout is the CLI-level wall-clock bound.
const DefaultTimeout = 300 * time.Second

// Config bundles the engine's tunables: iteration cap, wall-clock
// timeout, edge map size.
type Config struct {
	MaxIterations int64
	Timeout       time.Duration
	MapSize       int
}

// DefaultConfig returns the CLI defaults.
func DefaultConfig() Config {
	return Config{MaxIterations: 1_000_000, Timeout: DefaultTimeout, MapSize: coverage.DefaultMapSize}
}

// Stats reports the engine's progress, surfaced to the CLI's progress
// reporter (internal/report).
type Stats struct {
	RunID          string
	Iterations     int64
	CorpusSize     int
	SolutionsSize  int
	ErrorCount     int64
	TimedOut       bool
	EdgesCovered   int
	LastFoundAgo   time.Duration
}

// Engine is the fuzz loop's owner: corpus, solutions, scheduler, edge
// map, feedback/objective, and the adapter it drives.
type Engine struct {
	runID    string
	adapter  adapter.ChainAdapter
	orch     *mutator.Orchestrator
	edgeMap  *coverage.Map
	corpus   *coverage.Set
	solutions *coverage.Set
	scheduler *coverage.Scheduler
	feedback coverage.Feedback
	objective coverage.Objective

	cfg Config

	iterations   atomic.Int64
	errorCount   atomic.Int64
	stopRequested atomic.Bool
	lastFound    atomic.Int64 // unix nanos

	solutionsMu sync.Mutex
	solutionOutcomes map[string]vmexec.Outcome // keyed by Testcase.Hash

	objInjector   adapter.ObjectInjectingAdapter // nil unless the adapter supports it
}

// New constructs an Engine around a ChainAdapter and mutation
// orchestrator, with the default composite feedback/objective stack
//: coverage+new-abort+shift feedback, crash+new-abort+
// shift-overflow objective.
func New(a adapter.ChainAdapter, orch *mutator.Orchestrator, cfg Config) *Engine {
	if cfg.MapSize <= 0 {
		cfg.MapSize = coverage.DefaultMapSize
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}

	e := &Engine{
		runID:     uuid.NewString(),
		adapter:   a,
		orch:      orch,
		edgeMap:   coverage.NewMap(cfg.MapSize),
		corpus:    coverage.NewSet(),
		solutions: coverage.NewSet(),
		scheduler: coverage.NewScheduler(),
		feedback: coverage.NewCompositeFeedback(
			coverage.NewCoverageFeedback(cfg.MapSize),
			coverage.NewNewAbortFeedback(),
			coverage.NewShiftFeedback(),
		),
		objective: coverage.NewCompositeObjective(
			coverage.NewCrashObjective(),
			coverage.NewNewAbortObjective(nil),
			coverage.NewShiftOverflowObjective(),
		),
		cfg:              cfg,
		solutionOutcomes: make(map[string]vmexec.Outcome),
	}
	e.objInjector, _ = a.(adapter.ObjectInjectingAdapter)
	return e
}

// RunID returns the engine's run identifier (google/uuid), used to
// correlate report output with a specific campaign.
func (e *Engine) RunID() string { return e.runID }

// Corpus and Solutions expose the engine's two Sets for reporting.
func (e *Engine) Corpus() *coverage.Set    { return e.corpus }
func (e *Engine) Solutions() *coverage.Set { return e.solutions }

// Stop requests the loop return cleanly at the next stage boundary
//.
func (e *Engine) Stop() { e.stopRequested.Store(true) }

// AddInput seeds an Input through the same feedback/objective evaluation
// a mutated input receives: it is
// always added to the corpus unconditionally (a seed is never discarded
// for lack of "new" coverage, since there is no earlier seed to compare
// against), then executed once so the feedback/objective state gets the
// chance to observe it.
func (e *Engine) AddInput(ctx context.Context, in *fuzzinput.Input) error {
	e.corpus.Add(in)
	return e.evaluate(ctx, in)
}

// Run drives the fuzz loop until stop_requested, the iteration cap, or
// the wall-clock timeout is reached, whichever comes first. A timeout
// returns a well-formed Stats with TimedOut=true and never corrupts the
// corpus.
func (e *Engine) Run(ctx context.Context) Stats {
	runCtx, cancel := context.WithTimeout(ctx, e.cfg.Timeout)
	defer cancel()

	for {
		select {
		case <-runCtx.Done():
			return e.stats(true)
		default:
		}

		if e.stopRequested.Load() {
			return e.stats(false)
		}
		if e.cfg.MaxIterations > 0 && e.iterations.Load() >= e.cfg.MaxIterations {
			return e.stats(false)
		}

		if err := e.step(runCtx); err != nil {
			if runCtx.Err() != nil {
				return e.stats(true)
			}
			e.errorCount.Add(1)
		}
		e.iterations.Add(1)
	}
}

// step runs exactly one mutational stage: pick, clone, mutate, execute,
// evaluate.
func (e *Engine) step(ctx context.Context) error {
	tc := e.scheduler.Next(e.corpus)
	if tc == nil {
		return nil
	}

	clone := tc.Input.Clone()
	clone.Args = e.orch.MutateArgs(clone.Args)
	if e.objInjector != nil {
		e.objInjector.InjectHistoricalVersions(clone)
	}

	return e.evaluate(ctx, clone)
}

// evaluate executes in once and applies the feedback/objective decisions.
func (e *Engine) evaluate(ctx context.Context, in *fuzzinput.Input) error {
	result, obs, err := e.adapter.Execute(ctx, in)
	if err != nil {
		return err
	}
	if e.objInjector != nil {
		e.objInjector.RecordObjectChanges(e.adapter.ExtractObjectChanges(result))
	}

	e.edgeMap.Reset()
	e.edgeMap.RecordTrace(obs.BaseID, obs.PCTrace)

	fi := coverage.FeedbackInput{
		LastAbort:   obs.LastAbort,
		ShiftEvents: obs.ShiftEvents,
		Crashed:     obs.ExitKind == vmexec.ExitCrash,
	}

	if e.feedback.IsInteresting(e.edgeMap, fi) {
		if _, added := e.corpus.Add(in); added {
			e.lastFound.Store(time.Now().UnixNano())
		}
	}
	if e.objective.IsSolution(e.edgeMap, fi) {
		if tc, added := e.solutions.Add(in); added {
			e.solutionsMu.Lock()
			e.solutionOutcomes[tc.Hash] = result.Outcome
			e.solutionsMu.Unlock()
		}
	}

	return nil
}

// Snapshot returns the engine's current progress, safe to call
// concurrently with a running Run — used by the CLI's live dashboard to
// poll without waiting for Run to return.
func (e *Engine) Snapshot() Stats { return e.stats(false) }

// SolutionOutcome returns the Outcome recorded when testcaseHash was
// first added to Solutions, for the report generator to classify.
func (e *Engine) SolutionOutcome(testcaseHash string) (vmexec.Outcome, bool) {
	e.solutionsMu.Lock()
	defer e.solutionsMu.Unlock()
	o, ok := e.solutionOutcomes[testcaseHash]
	return o, ok
}

// stats snapshots the engine's progress counters.
func (e *Engine) stats(timedOut bool) Stats {
	var lastFoundAgo time.Duration
	if nanos := e.lastFound.Load(); nanos != 0 {
		lastFoundAgo = time.Since(time.Unix(0, nanos))
	}
	return Stats{
		RunID:         e.runID,
		Iterations:    e.iterations.Load(),
		CorpusSize:    e.corpus.Len(),
		SolutionsSize: e.solutions.Len(),
		ErrorCount:    e.errorCount.Load(),
		TimedOut:      timedOut,
		EdgesCovered:  e.edgeMap.EdgesCovered(),
		LastFoundAgo:  lastFoundAgo,
	}
}
