// Package vmexec defines the outcome taxonomy, ExitKind classification
// and TransactionResult contract shared by every executor.
package vmexec

import (
	"github.com/movefuzz/movefuzz/internal/overlay"
	"github.com/movefuzz/movefuzz/internal/vmhook"
)

// OutcomeKind classifies how an execution concluded.
type OutcomeKind int

const (
	OutcomeOk OutcomeKind = iota
	OutcomeMoveAbort
	OutcomeOutOfGas
	OutcomeOtherError
	OutcomeInvariantViolation
	OutcomePanic
)

func (k OutcomeKind) String() string {
	switch k {
	case OutcomeOk:
		return "ok"
	case OutcomeMoveAbort:
		return "move_abort"
	case OutcomeOutOfGas:
		return "out_of_gas"
	case OutcomeOtherError:
		return "other_error"
	case OutcomeInvariantViolation:
		return "invariant_violation"
	case OutcomePanic:
		return "panic"
	default:
		return "unknown"
	}
}

// Outcome is the classified result of one execution: Ok (writeset may
// still be logically rejected), MoveAbort(code), OutOfGas/OtherError
// (kept, non-crash), or InvariantViolation/Panic (crash).
type Outcome struct {
	Kind      OutcomeKind
	AbortCode uint64 // meaningful iff Kind == OutcomeMoveAbort
	Detail    string // human-readable detail for OtherError/Panic
}

// ExitKind is the engine-facing classification Outcome reduces to: only
// InvariantViolation and Panic produce ExitKind=Crash, everything else
// is ExitKind=Ok so the fuzz loop continues.
type ExitKind int

const (
	ExitOk ExitKind = iota
	ExitCrash
)

// Classify applies the crash/no-crash failure policy.
func (o Outcome) Classify() ExitKind {
	switch o.Kind {
	case OutcomeInvariantViolation, OutcomePanic:
		return ExitCrash
	default:
		return ExitOk
	}
}

// TransactionResult is what an executor returns for one execution: the
// writeset (possibly empty on abort), emitted events, and — Aptos-style —
// an optional fee statement. Gas accounting is opaque to the fuzzer; only
// GasUsed is surfaced for reporting.
type TransactionResult struct {
	Outcome      Outcome
	GasUsed      uint64
	WriteSet     overlay.WriteSet
	Events       [][]byte
	FeeStatement []byte // present only for adapters that report one (Aptos)
}

// Observation is the per-execution triple the fuzz loop reads back: the
// PC trace, the list of shift violations, and the last abort code, if
// any. It is reset before each execution and read by feedback/objective
// only after the executor returns.
type Observation struct {
	PCTrace     []uint32
	ShiftEvents []vmhook.ShiftViolation
	LastAbort   *uint64
	BaseID      uint32
	ExitKind    ExitKind
}
