// Package vmexec implements MoveExecutor, the in-process executor that
// turns a fuzzinput.Input into a TransactionResult plus Observation by
// driving an opaque Move VM collaborator through vmhook's Tracer contract
//. The VM itself is out of scope: MoveExecutor only
// depends on the MoveVM interface below, which a real VM binding or a
// test fake can satisfy.
package vmexec

import (
	"context"
	"fmt"

	"github.com/movefuzz/movefuzz/internal/fuzzinput"
	"github.com/movefuzz/movefuzz/internal/overlay"
	"github.com/movefuzz/movefuzz/internal/vmhook"
)

// TransactionEnvelope is the fully-resolved, VM-ready shape of an Input:
// a sender, a sequence number (always 0 — every fuzzed transaction is
// deterministically signed as if it were the sender's first), and the
// fuzzinput.Input being executed.
type TransactionEnvelope struct {
	Sender         [32]byte
	SequenceNumber uint64
	Payload        fuzzinput.Input
}

// MoveVM is the collaborator boundary vmexec depends on instead of a
// concrete Move VM binding. A real binding drives the Tracer as it
// executes bytecode; a test fake can simulate both without linking any
// VM code into this package.
type MoveVM interface {
	// Execute runs envelope against state, driving tracer with every
	// OpenFrame/CloseFrame/Instruction/Effect event the real instruction
	// stream produces, and returns the outcome plus writeset/events.
	Execute(ctx context.Context, state *overlay.View, envelope TransactionEnvelope, tracer vmhook.Tracer) (VMExecutionResult, error)
}

// VMExecutionResult is everything the VM collaborator reports back for a
// single execution, before vmexec folds it into an Observation/
// TransactionResult pair.
type VMExecutionResult struct {
	Outcome      Outcome
	GasUsed      uint64
	WriteSet     overlay.WriteSet
	Events       [][]byte
	FeeStatement []byte
	PCTrace      []uint32
	AbortCode    *uint64
}

// MoveExecutor drives one fuzzing iteration's execution: resets the
// per-execution observers, invokes the VM, folds the VM's raw result and
// the ShiftTracer's findings into a (TransactionResult, Observation) pair.
type MoveExecutor struct {
	vm           MoveVM
	shiftTracer  *vmhook.ShiftTracer
	abortObserve *vmhook.AbortObserver
}

// NewMoveExecutor constructs a MoveExecutor around a MoveVM collaborator.
func NewMoveExecutor(vm MoveVM) *MoveExecutor {
	return &MoveExecutor{
		vm:           vm,
		shiftTracer:  vmhook.NewShiftTracer(),
		abortObserve: vmhook.NewAbortObserver(),
	}
}

// Execute runs one (state, input) pair to completion, returning the
// TransactionResult the engine records plus the Observation the feedback
// and objective decisions are computed from.
func (e *MoveExecutor) Execute(ctx context.Context, state *overlay.View, in *fuzzinput.Input, baseID uint32) (TransactionResult, Observation, error) {
	e.shiftTracer.Reset()
	e.abortObserve.Reset()

	envelope := TransactionEnvelope{
		Sender:         in.Sender,
		SequenceNumber: 0,
		Payload:        *in,
	}

	raw, err := e.vm.Execute(ctx, state, envelope, e.shiftTracer)
	if err != nil {
		return TransactionResult{}, Observation{}, fmt.Errorf("vm execute: %w", err)
	}

	if raw.AbortCode != nil {
		e.abortObserve.RecordAbort(*raw.AbortCode)
	}

	result := TransactionResult{
		Outcome:      raw.Outcome,
		GasUsed:      raw.GasUsed,
		WriteSet:     raw.WriteSet,
		Events:       raw.Events,
		FeeStatement: raw.FeeStatement,
	}

	var lastAbort *uint64
	if code, ok := e.abortObserve.LastAbort(); ok {
		c := code
		lastAbort = &c
	}

	observation := Observation{
		PCTrace:     raw.PCTrace,
		ShiftEvents: e.shiftTracer.Violations(),
		LastAbort:   lastAbort,
		BaseID:      baseID,
		ExitKind:    raw.Outcome.Classify(),
	}

	if observation.ExitKind == ExitOk {
		state.ApplyWriteSet(result.WriteSet)
	}

	return result, observation, nil
}
